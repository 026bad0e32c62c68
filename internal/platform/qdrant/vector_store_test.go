package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/yungbote/memberhub-backend/internal/platform/logger"
	"github.com/yungbote/memberhub-backend/internal/platform/vectorstore"
)

func TestVectorStoreUpsertRequestShape(t *testing.T) {
	var captured map[string]any
	s := newTestVectorStore(t, func(r *http.Request) (*http.Response, error) {
		if r.Method != http.MethodPut {
			t.Fatalf("method: want=%s got=%s", http.MethodPut, r.Method)
		}
		if r.URL.Path != "/collections/memberhub/points" || r.URL.RawQuery != "wait=true" {
			t.Fatalf("unexpected url %s", r.URL.String())
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		return okResponse(t, map[string]any{"status": "acknowledged"}), nil
	})

	meta := map[string]any{"document_id": "doc-1"}
	err := s.Upsert(context.Background(), "knowledge", []vectorstore.Vector{
		{ID: "chunk-1", Values: []float32{1, 2, 3}, Metadata: meta},
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	points, ok := captured["points"].([]any)
	if !ok || len(points) != 1 {
		t.Fatalf("points: got=%v", captured["points"])
	}
	first := points[0].(map[string]any)
	if first["id"] != s.pointID("mh:knowledge", "chunk-1") {
		t.Fatalf("point id mismatch: got=%v", first["id"])
	}
	payload := first["payload"].(map[string]any)
	if payload[payloadNamespaceKey] != "mh:knowledge" || payload[payloadVectorIDKey] != "chunk-1" || payload["document_id"] != "doc-1" {
		t.Fatalf("payload: got=%v", payload)
	}
	if _, exists := meta[payloadNamespaceKey]; exists {
		t.Fatalf("input metadata mutated")
	}
}

func TestVectorStoreUpsertDimensionMismatch(t *testing.T) {
	s := newTestVectorStore(t, func(r *http.Request) (*http.Response, error) {
		t.Fatalf("no request expected")
		return nil, nil
	})
	err := s.Upsert(context.Background(), "knowledge", []vectorstore.Vector{{ID: "x", Values: []float32{1}}})
	var opErr *OperationError
	if !errors.As(err, &opErr) || opErr.Code != OperationErrorValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestVectorStoreQueryNamespaceFilterAndScoreNormalization(t *testing.T) {
	var captured map[string]any
	s := newTestVectorStore(t, func(r *http.Request) (*http.Response, error) {
		if r.URL.Path != "/collections/memberhub/points/search" {
			t.Fatalf("path: got=%q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		return okResponse(t, []map[string]any{
			{"id": "p-b", "score": 0.90, "payload": map[string]any{payloadVectorIDKey: "vec-b"}},
			{"id": "p-a", "score": 0.10, "payload": map[string]any{payloadVectorIDKey: "vec-a"}},
		}), nil
	})
	s.distance = "euclid"

	matches, err := s.Query(context.Background(), "knowledge", []float32{1, 2, 3}, 2)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(matches) != 2 || matches[0].ID != "vec-a" || matches[1].ID != "vec-b" {
		t.Fatalf("match ordering mismatch: got=%+v", matches)
	}

	filter := captured["filter"].(map[string]any)
	must := filter["must"].([]any)
	cond := must[0].(map[string]any)
	if cond["key"] != payloadNamespaceKey || cond["match"].(map[string]any)["value"] != "mh:knowledge" {
		t.Fatalf("namespace condition: got=%v", cond)
	}
}

func TestVectorStoreDeleteDedupes(t *testing.T) {
	var captured map[string]any
	s := newTestVectorStore(t, func(r *http.Request) (*http.Response, error) {
		if r.URL.Path != "/collections/memberhub/points/delete" {
			t.Fatalf("path: got=%q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		return okResponse(t, map[string]any{"status": "acknowledged"}), nil
	})

	if err := s.Delete(context.Background(), "knowledge", []string{"a", "a", " ", "b"}); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	points := captured["points"].([]any)
	if len(points) != 2 {
		t.Fatalf("points length: want=2 got=%d", len(points))
	}
}

func TestVectorStoreHTTPErrorStatus(t *testing.T) {
	s := newTestVectorStore(t, func(r *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusInternalServerError,
			Header:     make(http.Header),
			Body:       io.NopCloser(bytes.NewReader([]byte(`{"status":{"error":"boom"}}`))),
		}, nil
	})
	_, err := s.Query(context.Background(), "knowledge", []float32{1, 2, 3}, 1)
	var opErr *OperationError
	if !errors.As(err, &opErr) || opErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestClassifyHTTPCallError(t *testing.T) {
	var opErr *OperationError
	if err := classifyHTTPCallError("query", "timeout", context.DeadlineExceeded); !errors.As(err, &opErr) || opErr.Code != OperationErrorTimeout {
		t.Fatalf("expected timeout, got %v", err)
	}
	if err := classifyHTTPCallError("query", "transport", fmt.Errorf("boom")); !errors.As(err, &opErr) || opErr.Code != OperationErrorTransportFailed {
		t.Fatalf("expected transport failure, got %v", err)
	}
}

func newTestVectorStore(t *testing.T, roundTrip func(*http.Request) (*http.Response, error)) *vectorStore {
	t.Helper()
	return &vectorStore{
		log:      logger.Nop(),
		cfg:      Config{Collection: "memberhub", VectorDim: 3},
		baseURL:  "http://qdrant.local",
		nsPrefix: "mh",
		http:     &http.Client{Transport: roundTripFunc(roundTrip)},
		distance: "cosine",
	}
}

func okResponse(t *testing.T, result any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(map[string]any{"result": result, "status": "ok", "time": 0.001})
	if err != nil {
		t.Fatalf("marshal response: %v", err)
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     make(http.Header),
		Body:       io.NopCloser(bytes.NewReader(raw)),
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}
