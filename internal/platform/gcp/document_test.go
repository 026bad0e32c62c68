package gcp

import (
	"strings"
	"testing"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
)

func anchor(start, end int64) *documentaipb.Document_TextAnchor {
	return &documentaipb.Document_TextAnchor{
		TextSegments: []*documentaipb.Document_TextAnchor_TextSegment{{StartIndex: start, EndIndex: end}},
	}
}

func cell(start, end int64) *documentaipb.Document_Page_Table_TableCell {
	return &documentaipb.Document_Page_Table_TableCell{Layout: &documentaipb.Document_Page_Layout{TextAnchor: anchor(start, end)}}
}

func TestDocumentTextParagraphsAndTables(t *testing.T) {
	full := "Intro text.Name|Qty"
	doc := &documentaipb.Document{
		Text: full,
		Pages: []*documentaipb.Document_Page{{
			Paragraphs: []*documentaipb.Document_Page_Paragraph{
				{Layout: &documentaipb.Document_Page_Layout{TextAnchor: anchor(0, 11)}},
			},
			Tables: []*documentaipb.Document_Page_Table{{
				HeaderRows: []*documentaipb.Document_Page_Table_TableRow{{
					Cells: []*documentaipb.Document_Page_Table_TableCell{cell(11, 15), cell(16, 19)},
				}},
			}},
		}},
	}
	got := documentText(doc)
	if !strings.HasPrefix(got, "Intro text.\n| Name | Qty |") {
		t.Fatalf("unexpected text %q", got)
	}
	if !strings.Contains(got, "| --- | --- |") {
		t.Fatalf("missing separator row in %q", got)
	}
}

func TestDocumentTextFallsBackToPlainText(t *testing.T) {
	doc := &documentaipb.Document{Text: "  scanned page  "}
	if got := documentText(doc); got != "scanned page" {
		t.Fatalf("got %q", got)
	}
}

func TestTextFromAnchorClamps(t *testing.T) {
	if got := textFromAnchor("abc", anchor(1, 99)); got != "bc" {
		t.Fatalf("got %q", got)
	}
	if got := textFromAnchor("abc", nil); got != "" {
		t.Fatalf("got %q", got)
	}
}

func TestProcessorName(t *testing.T) {
	if got := processorName("p", "us", "abc", ""); got != "projects/p/locations/us/processors/abc" {
		t.Fatalf("got %q", got)
	}
	if got := processorName("p", "us", "abc", "v2"); !strings.HasSuffix(got, "/processorVersions/v2") {
		t.Fatalf("got %q", got)
	}
	if (DocumentConfig{Location: "us"}).Enabled() {
		t.Fatal("expected disabled without project/processor")
	}
}
