package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/yungbote/memberhub-backend/internal/platform/ctxutil"
	"github.com/yungbote/memberhub-backend/internal/platform/envutil"
	"github.com/yungbote/memberhub-backend/internal/platform/httpx"
	"github.com/yungbote/memberhub-backend/internal/platform/logger"
	"github.com/yungbote/memberhub-backend/internal/platform/vectorstore"
)

type Client interface {
	DescribeIndex(ctx context.Context, indexName string) (*IndexDescription, error)
	UpsertVectors(ctx context.Context, host string, req UpsertRequest) (*UpsertResponse, error)
	Query(ctx context.Context, host string, req QueryRequest) (*QueryResponse, error)
	DeleteVectors(ctx context.Context, host string, req DeleteRequest) error
}

type Config struct {
	APIKey          string
	APIVersion      string
	BaseURL         string
	IndexName       string
	IndexHost       string
	NamespacePrefix string
	Timeout         time.Duration
}

func ConfigFromEnv() Config {
	return Config{
		APIKey:          strings.TrimSpace(os.Getenv("PINECONE_API_KEY")),
		APIVersion:      envutil.String("PINECONE_API_VERSION", "2025-10"),
		BaseURL:         envutil.String("PINECONE_BASE_URL", "https://api.pinecone.io"),
		IndexName:       strings.TrimSpace(os.Getenv("PINECONE_INDEX_NAME")),
		IndexHost:       strings.TrimSpace(os.Getenv("PINECONE_INDEX_HOST")),
		NamespacePrefix: envutil.String("PINECONE_NAMESPACE_PREFIX", "mh"),
		Timeout:         envutil.Seconds("PINECONE_TIMEOUT_SECONDS", 30*time.Second),
	}
}

type client struct {
	log  *logger.Logger
	cfg  Config
	http *http.Client
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing Pinecone API key")
	}
	if strings.TrimSpace(cfg.APIVersion) == "" {
		cfg.APIVersion = "2025-10"
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://api.pinecone.io"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &client{
		log:  log.With("client", "PineconeClient"),
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// -------------------- Control plane --------------------

type IndexDescription struct {
	Name      string `json:"name"`
	Host      string `json:"host"`
	Dimension int    `json:"dimension"`
	Metric    string `json:"metric"`
}

func (c *client) DescribeIndex(ctx context.Context, indexName string) (*IndexDescription, error) {
	indexName = strings.TrimSpace(indexName)
	if indexName == "" {
		return nil, fmt.Errorf("indexName required")
	}
	out, err := doJSON[IndexDescription](c, ctx, http.MethodGet, strings.TrimRight(c.cfg.BaseURL, "/")+"/indexes/"+indexName, nil)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.Host) == "" {
		return nil, fmt.Errorf("pinecone describe_index returned empty host")
	}
	return out, nil
}

// -------------------- Data plane --------------------

type UpsertRequest struct {
	Vectors   []vectorstore.Vector `json:"vectors"`
	Namespace string               `json:"namespace,omitempty"`
}

type UpsertResponse struct {
	UpsertedCount int64 `json:"upsertedCount"`
}

func (c *client) UpsertVectors(ctx context.Context, host string, req UpsertRequest) (*UpsertResponse, error) {
	if len(req.Vectors) == 0 {
		return &UpsertResponse{}, nil
	}
	return doJSON[UpsertResponse](c, ctx, http.MethodPost, dataURL(host, "/vectors/upsert"), req)
}

type QueryRequest struct {
	Namespace       string    `json:"namespace,omitempty"`
	Vector          []float32 `json:"vector,omitempty"`
	TopK            int       `json:"topK"`
	IncludeMetadata bool      `json:"includeMetadata,omitempty"`
}

type QueryMatch struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

type QueryResponse struct {
	Matches []QueryMatch `json:"matches"`
}

func (c *client) Query(ctx context.Context, host string, req QueryRequest) (*QueryResponse, error) {
	if req.TopK <= 0 {
		req.TopK = 10
	}
	if len(req.Vector) == 0 {
		return nil, fmt.Errorf("query vector required")
	}
	return doJSON[QueryResponse](c, ctx, http.MethodPost, dataURL(host, "/query"), req)
}

type DeleteRequest struct {
	IDs       []string `json:"ids"`
	Namespace string   `json:"namespace,omitempty"`
}

func (c *client) DeleteVectors(ctx context.Context, host string, req DeleteRequest) error {
	if len(req.IDs) == 0 {
		return nil
	}
	_, err := doJSON[struct{}](c, ctx, http.MethodPost, dataURL(host, "/vectors/delete"), req)
	return err
}

// -------------------- helpers --------------------

// dataURL accepts either a bare index host or a full base URL.
func dataURL(host, path string) string {
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		return host + path
	}
	return "https://" + host + path
}

func doJSON[T any](c *client, ctx context.Context, method, url string, body any) (*T, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), method, url, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Api-Key", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Pinecone-Api-Version", c.cfg.APIVersion)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &httpx.StatusError{Service: "pinecone", StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var out T
	if len(bytes.TrimSpace(raw)) == 0 {
		return &out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("pinecone decode error: %w; raw=%s", err, string(raw))
	}
	return &out, nil
}
