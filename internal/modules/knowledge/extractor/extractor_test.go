package extractor

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/yungbote/memberhub-backend/internal/modules/knowledge/chunking"
)

type fakeOCR struct {
	text  string
	calls int
}

func (f *fakeOCR) ExtractText(ctx context.Context, mimeType string, data []byte) (string, error) {
	f.calls++
	return f.text, nil
}

func zipBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtractPlainText(t *testing.T) {
	e := New(nil, nil)
	got, err := e.Extract(context.Background(), "notes.md", "text/markdown", []byte("# Title\n\nBody text."))
	require.NoError(t, err)
	assert.Equal(t, "# Title Body text.", chunking.Clean(got))
}

func TestExtractHTMLDropsScripts(t *testing.T) {
	e := New(nil, nil)
	html := `<!DOCTYPE html><html><head><title>Guide</title><script>var x = 1;</script></head>
<body><h1>Welcome</h1><p>Read the rules.</p><style>p{}</style></body></html>`
	got, err := e.Extract(context.Background(), "page.bin", "", []byte(html))
	require.NoError(t, err)
	clean := chunking.Clean(got)
	assert.Contains(t, clean, "Guide")
	assert.Contains(t, clean, "Welcome")
	assert.Contains(t, clean, "Read the rules.")
	assert.NotContains(t, clean, "var x")
}

func TestExtractDocx(t *testing.T) {
	data := zipBytes(t, map[string]string{
		"[Content_Types].xml": `<Types/>`,
		"word/document.xml": `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body><w:p><w:r><w:t>Hello</w:t></w:r><w:r><w:t>member.</w:t></w:r></w:p></w:body></w:document>`,
	})
	got, err := New(nil, nil).Extract(context.Background(), "a.docx", "", data)
	require.NoError(t, err)
	assert.Equal(t, "Hello member.", chunking.Clean(got))
}

func TestExtractPptxSlideOrder(t *testing.T) {
	slide := func(s string) string {
		return `<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="p"><a:t>` + s + `</a:t></p:sld>`
	}
	data := zipBytes(t, map[string]string{
		"ppt/slides/slide10.xml": slide("ten"),
		"ppt/slides/slide2.xml":  slide("two"),
		"ppt/slides/slide1.xml":  slide("one"),
	})
	got, err := New(nil, nil).Extract(context.Background(), "deck.pptx", "", data)
	require.NoError(t, err)
	assert.Equal(t, "one two ten", chunking.Clean(got))
}

func TestExtractXLSX(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "Plan"))
	require.NoError(t, f.SetCellValue("Sheet1", "B1", "Price"))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", "Gold"))
	require.NoError(t, f.SetCellValue("Sheet1", "B2", 97))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	got, err := New(nil, nil).Extract(context.Background(), "plans.xlsx", "", buf.Bytes())
	require.NoError(t, err)
	assert.Contains(t, got, "Sheet: Sheet1")
	assert.Contains(t, got, "Plan | Price")
	assert.Contains(t, got, "Gold | 97")
}

func TestExtractImageOnlyPDFUsesOCR(t *testing.T) {
	ocr := &fakeOCR{text: "scanned text"}
	// A header alone fails to parse, which routes to OCR.
	got, err := New(nil, ocr).Extract(context.Background(), "scan.pdf", "application/pdf", []byte("%PDF-1.4\n%%EOF"))
	require.NoError(t, err)
	assert.Equal(t, "scanned text", got)
	assert.Equal(t, 1, ocr.calls)
}

func TestExtractPDFWithoutOCRFails(t *testing.T) {
	_, err := New(nil, nil).Extract(context.Background(), "scan.pdf", "application/pdf", []byte("%PDF-1.4\n%%EOF"))
	require.Error(t, err)
}

func TestExtractRejects(t *testing.T) {
	e := New(nil, nil)

	_, err := e.Extract(context.Background(), "empty.txt", "text/plain", nil)
	require.Error(t, err)

	_, err = e.Extract(context.Background(), "fake.pdf", "application/pdf", []byte{0x00, 0x01, 0x02})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "%PDF"))

	_, err = e.Extract(context.Background(), "blob.bin", "application/octet-stream", []byte{0x00, 0xff, 0x10})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupported))
}
