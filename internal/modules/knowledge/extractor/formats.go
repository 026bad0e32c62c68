package extractor

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	pdf "github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"
)

// extractPDF reads the text layer. The parser panics on some malformed files, which is
// reported as an error.
func extractPDF(data []byte) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("pdf parse panic: %v", rec)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("pdf reader: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("pdf plaintext: %w", err)
	}
	b, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("pdf read: %w", err)
	}
	return string(b), nil
}

func detectOpenXMLKind(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	var hasWord, hasPpt, hasXl bool
	for _, f := range zr.File {
		switch {
		case strings.HasPrefix(f.Name, "word/"):
			hasWord = true
		case strings.HasPrefix(f.Name, "ppt/"):
			hasPpt = true
		case strings.HasPrefix(f.Name, "xl/"):
			hasXl = true
		}
	}
	switch {
	case hasWord && !hasPpt && !hasXl:
		return "docx", nil
	case hasPpt && !hasWord && !hasXl:
		return "pptx", nil
	case hasXl && !hasWord && !hasPpt:
		return "xlsx", nil
	default:
		return "", fmt.Errorf("zip does not look like docx, pptx or xlsx")
	}
}

// extractOpenXMLText gathers every <t> element (w:t in Word, a:t in slides) from the
// zip parts whose names start with prefix and end with suffix, in name order.
func extractOpenXMLText(data []byte, prefix, suffix string) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	files := make([]*zip.File, 0, 4)
	for _, f := range zr.File {
		if strings.HasPrefix(f.Name, prefix) && strings.HasSuffix(f.Name, suffix) {
			files = append(files, f)
		}
	}
	sort.Slice(files, func(i, j int) bool { return naturalLess(files[i].Name, files[j].Name) })

	var out strings.Builder
	for _, f := range files {
		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		b, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return "", err
		}
		out.WriteString(textFromXML(b, "t"))
		out.WriteString("\n")
	}
	s := strings.TrimSpace(out.String())
	if s == "" {
		return "", fmt.Errorf("no text extracted from openxml prefix %s", prefix)
	}
	return s, nil
}

func textFromXML(xmlBytes []byte, local string) string {
	dec := xml.NewDecoder(bytes.NewReader(xmlBytes))
	var out strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != local {
			continue
		}
		var v string
		_ = dec.DecodeElement(&v, &se)
		if v != "" {
			out.WriteString(v)
			out.WriteString(" ")
		}
	}
	return out.String()
}

// naturalLess orders slide2.xml before slide10.xml.
func naturalLess(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

// extractXLSX renders every sheet as "Sheet: name" followed by one line per row with
// cells joined by " | ".
func extractXLSX(data []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("xlsx open: %w", err)
	}
	defer f.Close()

	var out strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("xlsx rows %s: %w", sheet, err)
		}
		if len(rows) == 0 {
			continue
		}
		out.WriteString("Sheet: " + sheet + "\n")
		for _, row := range rows {
			cells := make([]string, 0, len(row))
			for _, c := range row {
				if c = strings.TrimSpace(c); c != "" {
					cells = append(cells, c)
				}
			}
			if len(cells) > 0 {
				out.WriteString(strings.Join(cells, " | "))
				out.WriteString("\n")
			}
		}
	}
	s := strings.TrimSpace(out.String())
	if s == "" {
		return "", fmt.Errorf("no text extracted from xlsx")
	}
	return s, nil
}

func extractHTML(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("html parse: %w", err)
	}
	doc.Find("script,style,noscript").Remove()
	var parts []string
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		parts = append(parts, title)
	}
	if body := strings.TrimSpace(doc.Find("body").Text()); body != "" {
		parts = append(parts, body)
	}
	return strings.Join(parts, "\n"), nil
}
