package gcp

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/api/option"

	"github.com/yungbote/memberhub-backend/internal/platform/ctxutil"
	"github.com/yungbote/memberhub-backend/internal/platform/logger"
)

// Document runs Document AI OCR over raw file bytes.
type Document interface {
	ExtractText(ctx context.Context, mimeType string, data []byte) (string, error)
	Close() error
}

type DocumentConfig struct {
	ProjectID        string
	Location         string
	ProcessorID      string
	ProcessorVersion string
}

func DocumentConfigFromEnv() DocumentConfig {
	location := strings.TrimSpace(os.Getenv("DOCUMENTAI_LOCATION"))
	if location == "" {
		location = "us"
	}
	return DocumentConfig{
		ProjectID:        strings.TrimSpace(os.Getenv("GCP_PROJECT_ID")),
		Location:         location,
		ProcessorID:      strings.TrimSpace(os.Getenv("DOCUMENTAI_PROCESSOR_ID")),
		ProcessorVersion: strings.TrimSpace(os.Getenv("DOCUMENTAI_PROCESSOR_VERSION")),
	}
}

// Enabled reports whether enough is configured to address a processor.
func (c DocumentConfig) Enabled() bool {
	return processorName(c.ProjectID, c.Location, c.ProcessorID, c.ProcessorVersion) != ""
}

type documentService struct {
	log       *logger.Logger
	docClient *documentai.DocumentProcessorClient
	processor string
}

func NewDocument(log *logger.Logger, cfg DocumentConfig) (Document, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	name := processorName(cfg.ProjectID, cfg.Location, cfg.ProcessorID, cfg.ProcessorVersion)
	if name == "" {
		return nil, fmt.Errorf("documentai: GCP_PROJECT_ID and DOCUMENTAI_PROCESSOR_ID required")
	}
	endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", cfg.Location)
	opts := append([]option.ClientOption{option.WithEndpoint(endpoint)}, ClientOptionsFromEnv()...)
	c, err := documentai.NewDocumentProcessorClient(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("documentai client: %w", err)
	}
	log.Info("Document AI initialized", "endpoint", endpoint, "processor", name)
	return &documentService{
		log:       log.With("service", "gcp.Document"),
		docClient: c,
		processor: name,
	}, nil
}

func (s *documentService) Close() error {
	if s == nil || s.docClient == nil {
		return nil
	}
	return s.docClient.Close()
}

func (s *documentService) ExtractText(ctx context.Context, mimeType string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", nil
	}
	if mimeType == "" {
		mimeType = "application/pdf"
	}
	ctx, cancel := context.WithTimeout(ctxutil.Default(ctx), 3*time.Minute)
	defer cancel()

	resp, err := s.docClient.ProcessDocument(ctx, &documentaipb.ProcessRequest{
		Name: s.processor,
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{Content: data, MimeType: mimeType},
		},
	})
	if err != nil {
		return "", fmt.Errorf("documentai ProcessDocument: %w", err)
	}
	if resp == nil || resp.Document == nil {
		return "", nil
	}
	return documentText(resp.Document), nil
}

// documentText renders paragraphs page by page followed by each page's tables as markdown.
// Processors that skip layout still populate doc.Text, which is used as is.
func documentText(doc *documentaipb.Document) string {
	if doc == nil {
		return ""
	}
	var out strings.Builder
	for _, p := range doc.Pages {
		if p == nil {
			continue
		}
		for _, para := range p.Paragraphs {
			if para == nil || para.Layout == nil {
				continue
			}
			if t := strings.TrimSpace(textFromAnchor(doc.Text, para.Layout.TextAnchor)); t != "" {
				out.WriteString(t)
				out.WriteString("\n")
			}
		}
		for _, table := range p.Tables {
			if md := strings.TrimSpace(tableToMarkdown(doc.Text, table)); md != "" {
				out.WriteString(md)
				out.WriteString("\n")
			}
		}
	}
	if strings.TrimSpace(out.String()) == "" {
		return strings.TrimSpace(doc.Text)
	}
	return strings.TrimSpace(out.String())
}

func textFromAnchor(full string, anchor *documentaipb.Document_TextAnchor) string {
	if anchor == nil || len(anchor.TextSegments) == 0 || full == "" {
		return ""
	}
	var b strings.Builder
	for _, seg := range anchor.TextSegments {
		if seg == nil {
			continue
		}
		start := int(seg.StartIndex)
		end := int(seg.EndIndex)
		if start < 0 {
			start = 0
		}
		if end > len(full) {
			end = len(full)
		}
		if start >= end {
			continue
		}
		b.WriteString(full[start:end])
	}
	return b.String()
}

func tableToMarkdown(full string, t *documentaipb.Document_Page_Table) string {
	if t == nil {
		return ""
	}
	var header []string
	if len(t.HeaderRows) > 0 && t.HeaderRows[0] != nil {
		header = tableRowToCells(full, t.HeaderRows[0])
	}
	body := append([]*documentaipb.Document_Page_Table_TableRow{}, t.BodyRows...)
	if len(header) == 0 && len(body) > 0 && body[0] != nil {
		header = tableRowToCells(full, body[0])
		body = body[1:]
	}
	if len(header) == 0 {
		return ""
	}

	rows := [][]string{header}
	for _, r := range body {
		if r != nil {
			rows = append(rows, tableRowToCells(full, r))
		}
	}
	cols := 0
	for _, r := range rows {
		if len(r) > cols {
			cols = len(r)
		}
	}
	for i := range rows {
		for len(rows[i]) < cols {
			rows[i] = append(rows[i], "")
		}
	}

	var out strings.Builder
	writeRow := func(cells []string) {
		out.WriteString("| ")
		out.WriteString(strings.Join(cells, " | "))
		out.WriteString(" |\n")
	}
	writeRow(escapePipes(rows[0]))
	sep := make([]string, cols)
	for i := range sep {
		sep[i] = "---"
	}
	writeRow(sep)
	for _, r := range rows[1:] {
		writeRow(escapePipes(r))
	}
	return out.String()
}

func tableRowToCells(full string, r *documentaipb.Document_Page_Table_TableRow) []string {
	out := make([]string, 0, len(r.Cells))
	for _, c := range r.Cells {
		if c == nil || c.Layout == nil {
			out = append(out, "")
			continue
		}
		out = append(out, strings.TrimSpace(textFromAnchor(full, c.Layout.TextAnchor)))
	}
	return out
}

func escapePipes(row []string) []string {
	out := make([]string, len(row))
	for i, s := range row {
		out[i] = strings.ReplaceAll(s, "|", "\\|")
	}
	return out
}

func processorName(project, location, processorID, version string) string {
	project = strings.TrimSpace(project)
	location = strings.TrimSpace(location)
	processorID = strings.TrimSpace(processorID)
	version = strings.TrimSpace(version)
	if project == "" || location == "" || processorID == "" {
		return ""
	}
	base := fmt.Sprintf("projects/%s/locations/%s/processors/%s", project, location, processorID)
	if version != "" {
		return base + "/processorVersions/" + version
	}
	return base
}
