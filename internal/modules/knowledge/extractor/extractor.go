// Package extractor turns uploaded knowledge files into plain text. The real file type is
// sniffed from the bytes first; the declared name and mime type are only a fallback.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/yungbote/memberhub-backend/internal/platform/logger"
)

var ErrUnsupported = errors.New("unsupported file type")

// OCR reads text from scanned documents.
type OCR interface {
	ExtractText(ctx context.Context, mimeType string, data []byte) (string, error)
}

type Extractor struct {
	log *logger.Logger
	ocr OCR
}

// New builds an Extractor. ocr may be nil, in which case image-only PDFs yield an error.
func New(log *logger.Logger, ocr OCR) *Extractor {
	if log == nil {
		log = logger.Nop()
	}
	return &Extractor{log: log.With("component", "Extractor"), ocr: ocr}
}

func (e *Extractor) Extract(ctx context.Context, name, mimeType string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(name))
	mt := strings.ToLower(strings.TrimSpace(mimeType))

	if len(data) == 0 {
		return "", fmt.Errorf("empty file: name=%s mime=%s", name, mimeType)
	}

	if isPDF(data) {
		text, err := extractPDF(data)
		if err == nil && strings.TrimSpace(text) != "" {
			return text, nil
		}
		if e.ocr == nil {
			if err != nil {
				return "", err
			}
			return "", fmt.Errorf("pdf has no text layer: name=%s", name)
		}
		e.log.Info("pdf has no text layer, using ocr", "name", name, "pdf_error", errString(err))
		return e.ocr.ExtractText(ctx, "application/pdf", data)
	}

	if isZip(data) {
		kind, err := detectOpenXMLKind(data)
		if err != nil {
			return "", fmt.Errorf("zip/openxml detect failed: %w", err)
		}
		switch kind {
		case "docx":
			return extractOpenXMLText(data, "word/document.xml", ".xml")
		case "pptx":
			return extractOpenXMLText(data, "ppt/slides/", ".xml")
		case "xlsx":
			return extractXLSX(data)
		}
	}

	if looksLikeHTML(data) || mt == "text/html" || ext == ".html" || ext == ".htm" {
		return extractHTML(data)
	}

	if isProbablyText(data) || strings.HasPrefix(mt, "text/") || ext == ".txt" || ext == ".md" || ext == ".markdown" || ext == ".csv" {
		return string(data), nil
	}

	if mt == "application/pdf" || ext == ".pdf" {
		return "", fmt.Errorf("file claims pdf but missing %%PDF header: name=%s head=%s", name, firstBytesHex(data, 16))
	}
	return "", fmt.Errorf("%w: name=%s ext=%s mime=%s head=%s", ErrUnsupported, name, ext, mimeType, firstBytesHex(data, 16))
}

func isPDF(b []byte) bool {
	return len(b) >= 5 && string(b[:5]) == "%PDF-"
}

func isZip(b []byte) bool {
	return len(b) >= 4 && b[0] == 'P' && b[1] == 'K' && b[2] == 3 && b[3] == 4
}

func looksLikeHTML(b []byte) bool {
	s := strings.TrimSpace(strings.ToLower(string(b[:min(len(b), 2048)])))
	if strings.HasPrefix(s, "<!doctype html") || strings.HasPrefix(s, "<html") {
		return true
	}
	return strings.Contains(s, "<html") && strings.Contains(s, "</html>")
}

// isProbablyText accepts samples without NULs that are at least 90% printable.
func isProbablyText(b []byte) bool {
	sample := b[:min(len(b), 4096)]
	good := 0
	for _, c := range sample {
		if c == 0x00 {
			return false
		}
		if c == '\n' || c == '\r' || c == '\t' || (c >= 0x20 && c <= 0x7E) || c >= 0x80 {
			good++
		}
	}
	return float64(good)/float64(len(sample)) > 0.9
}

func firstBytesHex(b []byte, n int) string {
	n = min(len(b), n)
	const hexdigits = "0123456789abcdef"
	out := make([]byte, 0, n*2)
	for i := 0; i < n; i++ {
		out = append(out, hexdigits[b[i]>>4], hexdigits[b[i]&0x0f])
	}
	return string(out)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
