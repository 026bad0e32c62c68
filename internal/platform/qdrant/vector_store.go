package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/memberhub-backend/internal/platform/ctxutil"
	"github.com/yungbote/memberhub-backend/internal/platform/logger"
	"github.com/yungbote/memberhub-backend/internal/platform/vectorstore"
)

const (
	payloadNamespaceKey = "_mh_namespace"
	payloadVectorIDKey  = "_mh_vector_id"
	maxErrorBodyBytes   = 1024
)

var pointIDNamespaceUUID = uuid.MustParse("6b0e3c7a-4d1f-4a55-9a43-2f6f1e8b9c21")

type vectorStore struct {
	log      *logger.Logger
	cfg      Config
	baseURL  string
	nsPrefix string
	distance string
	http     *http.Client
}

type qdrantEnvelope struct {
	Result json.RawMessage `json:"result"`
	Status json.RawMessage `json:"status"`
}

type qdrantSearchResultItem struct {
	ID      json.RawMessage `json:"id"`
	Score   float64         `json:"score"`
	Payload map[string]any  `json:"payload"`
}

func NewVectorStore(log *logger.Logger, cfg Config) (vectorstore.Store, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	s := &vectorStore{
		log:      log.With("service", "QdrantVectorStore"),
		cfg:      cfg,
		baseURL:  strings.TrimRight(cfg.URL, "/"),
		nsPrefix: strings.TrimSpace(cfg.NamespacePrefix),
		http:     &http.Client{Timeout: cfg.Timeout},
	}
	if err := s.verifyReady(context.Background()); err != nil {
		return nil, err
	}
	log.Info("Qdrant vector store selected",
		"url", s.baseURL,
		"collection", cfg.Collection,
		"namespace_prefix", s.nsPrefix,
		"vector_dim", cfg.VectorDim,
		"distance", s.distance,
	)
	return s, nil
}

func (s *vectorStore) Upsert(ctx context.Context, namespace string, vectors []vectorstore.Vector) error {
	const op = "upsert"
	if len(vectors) == 0 {
		return nil
	}
	ns := vectorstore.QualifyNamespace(s.nsPrefix, strings.TrimSpace(namespace))
	points := make([]map[string]any, 0, len(vectors))
	for _, v := range vectors {
		vectorID := strings.TrimSpace(v.ID)
		if vectorID == "" {
			return opErr(op, OperationErrorValidation, "vector id is required", nil)
		}
		if len(v.Values) == 0 {
			return opErr(op, OperationErrorValidation, fmt.Sprintf("vector %q has empty values", vectorID), nil)
		}
		if s.cfg.VectorDim > 0 && len(v.Values) != s.cfg.VectorDim {
			return opErr(op, OperationErrorValidation,
				fmt.Sprintf("vector %q dimension mismatch: expected=%d got=%d", vectorID, s.cfg.VectorDim, len(v.Values)), nil)
		}
		payload := make(map[string]any, len(v.Metadata)+2)
		for k, val := range v.Metadata {
			payload[k] = val
		}
		payload[payloadNamespaceKey] = ns
		payload[payloadVectorIDKey] = vectorID
		points = append(points, map[string]any{
			"id":      s.pointID(ns, vectorID),
			"vector":  v.Values,
			"payload": payload,
		})
	}
	return s.doJSON(ctx, op, http.MethodPut, s.collectionPath("/points?wait=true"), map[string]any{"points": points}, nil)
}

func (s *vectorStore) Query(ctx context.Context, namespace string, q []float32, topK int) ([]vectorstore.Match, error) {
	const op = "query"
	if len(q) == 0 {
		return nil, opErr(op, OperationErrorValidation, "query vector required", nil)
	}
	if s.cfg.VectorDim > 0 && len(q) != s.cfg.VectorDim {
		return nil, opErr(op, OperationErrorValidation,
			fmt.Sprintf("query vector dimension mismatch: expected=%d got=%d", s.cfg.VectorDim, len(q)), nil)
	}
	if topK <= 0 {
		topK = 10
	}
	ns := vectorstore.QualifyNamespace(s.nsPrefix, strings.TrimSpace(namespace))
	req := map[string]any{
		"vector":       q,
		"limit":        topK,
		"with_payload": true,
		"with_vector":  false,
		"filter": map[string]any{
			"must": []any{
				map[string]any{"key": payloadNamespaceKey, "match": map[string]any{"value": ns}},
			},
		},
	}
	var raw []qdrantSearchResultItem
	if err := s.doJSON(ctx, op, http.MethodPost, s.collectionPath("/points/search"), req, &raw); err != nil {
		return nil, err
	}

	out := make([]vectorstore.Match, 0, len(raw))
	for _, item := range raw {
		id := extractVectorID(item)
		if id == "" {
			continue
		}
		out = append(out, vectorstore.Match{ID: id, Score: s.normalizeScore(item.Score)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score == out[j].Score {
			return out[i].ID < out[j].ID
		}
		return out[i].Score > out[j].Score
	})
	return out, nil
}

func (s *vectorStore) Delete(ctx context.Context, namespace string, ids []string) error {
	const op = "delete"
	ns := vectorstore.QualifyNamespace(s.nsPrefix, strings.TrimSpace(namespace))
	pointIDs := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		vectorID := strings.TrimSpace(id)
		if vectorID == "" {
			continue
		}
		pid := s.pointID(ns, vectorID)
		if _, ok := seen[pid]; ok {
			continue
		}
		seen[pid] = struct{}{}
		pointIDs = append(pointIDs, pid)
	}
	if len(pointIDs) == 0 {
		return nil
	}
	return s.doJSON(ctx, op, http.MethodPost, s.collectionPath("/points/delete?wait=true"), map[string]any{"points": pointIDs}, nil)
}

func (s *vectorStore) verifyReady(ctx context.Context) error {
	const op = "bootstrap_verify"
	readyReq, err := http.NewRequestWithContext(ctxutil.Default(ctx), http.MethodGet, s.baseURL+"/readyz", nil)
	if err != nil {
		return opErr(op, OperationErrorTransportFailed, "build ready request failed", err)
	}
	readyResp, err := s.http.Do(readyReq)
	if err != nil {
		return classifyHTTPCallError(op, "qdrant ready check failed", err)
	}
	_ = readyResp.Body.Close()
	if readyResp.StatusCode < 200 || readyResp.StatusCode >= 300 {
		return statusErr(op, readyResp.StatusCode, "ready check failed")
	}

	var result struct {
		Config struct {
			Params struct {
				Vectors struct {
					Size     int    `json:"size"`
					Distance string `json:"distance"`
				} `json:"vectors"`
			} `json:"params"`
		} `json:"config"`
	}
	if err := s.doJSON(ctx, op, http.MethodGet, s.collectionPath(""), nil, &result); err != nil {
		return err
	}
	if size := result.Config.Params.Vectors.Size; size != 0 && size != s.cfg.VectorDim {
		return opErr(op, OperationErrorValidation,
			fmt.Sprintf("qdrant collection %q vector size mismatch: expected=%d actual=%d", s.cfg.Collection, s.cfg.VectorDim, size), nil)
	}
	s.distance = strings.TrimSpace(result.Config.Params.Vectors.Distance)
	return nil
}

func (s *vectorStore) doJSON(ctx context.Context, op, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(in); err != nil {
			return opErr(op, OperationErrorEncodeFailed, "encode request failed", err)
		}
		body = &buf
	}
	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), method, s.baseURL+path, body)
	if err != nil {
		return opErr(op, OperationErrorTransportFailed, "build request failed", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.cfg.APIKey != "" {
		req.Header.Set("api-key", s.cfg.APIKey)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return classifyHTTPCallError(op, "qdrant request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return opErr(op, OperationErrorDecodeFailed, "read response failed", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusErr(op, resp.StatusCode, fmt.Sprintf("body=%q", truncateBody(raw)))
	}

	var envelope qdrantEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return opErr(op, OperationErrorDecodeFailed, "decode qdrant envelope failed", err)
	}
	if msg := parseEnvelopeStatus(envelope.Status); msg != "" {
		return statusErr(op, resp.StatusCode, msg)
	}
	if out == nil || len(envelope.Result) == 0 || string(envelope.Result) == "null" {
		return nil
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return opErr(op, OperationErrorDecodeFailed, "decode qdrant result failed", err)
	}
	return nil
}

func classifyHTTPCallError(op, message string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return opErr(op, OperationErrorTimeout, message, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return opErr(op, OperationErrorTimeout, message, err)
	}
	return opErr(op, OperationErrorTransportFailed, message, err)
}

func parseEnvelopeStatus(raw json.RawMessage) string {
	status := strings.TrimSpace(string(raw))
	if status == "" || status == "null" {
		return ""
	}
	var statusString string
	if err := json.Unmarshal(raw, &statusString); err == nil {
		if strings.EqualFold(statusString, "ok") {
			return ""
		}
		return fmt.Sprintf("qdrant status=%q", statusString)
	}
	var statusObject struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &statusObject); err == nil && strings.TrimSpace(statusObject.Error) != "" {
		return strings.TrimSpace(statusObject.Error)
	}
	return fmt.Sprintf("qdrant status=%s", status)
}

func truncateBody(raw []byte) string {
	if len(raw) <= maxErrorBodyBytes {
		return string(raw)
	}
	return string(raw[:maxErrorBodyBytes]) + "..."
}

// pointID maps (namespace, id) to a stable UUID since qdrant only accepts UUID or integer ids.
func (s *vectorStore) pointID(ns, vectorID string) string {
	return uuid.NewSHA1(pointIDNamespaceUUID, []byte(ns+"|"+vectorID)).String()
}

func (s *vectorStore) collectionPath(suffix string) string {
	return "/collections/" + s.cfg.Collection + suffix
}

func extractVectorID(item qdrantSearchResultItem) string {
	if id, ok := item.Payload[payloadVectorIDKey].(string); ok && strings.TrimSpace(id) != "" {
		return strings.TrimSpace(id)
	}
	var idString string
	if err := json.Unmarshal(item.ID, &idString); err == nil {
		return strings.TrimSpace(idString)
	}
	return ""
}

func (s *vectorStore) normalizeScore(score float64) float64 {
	switch strings.ToLower(s.distance) {
	case "euclid", "manhattan":
		if score < 0 {
			score = -score
		}
		return 1.0 / (1.0 + score)
	default:
		return score
	}
}
