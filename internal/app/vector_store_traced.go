package app

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/memberhub-backend/internal/platform/qdrant"
	"github.com/yungbote/memberhub-backend/internal/platform/vectorstore"
)

// tracedVectorStore wraps each call in a span. Without a tracer provider installed the
// global no-op tracer makes this a pass-through.
type tracedVectorStore struct {
	provider string
	inner    vectorstore.Store
	tracer   trace.Tracer
}

func traceVectorStore(provider string, inner vectorstore.Store) vectorstore.Store {
	if inner == nil {
		return nil
	}
	return &tracedVectorStore{
		provider: provider,
		inner:    inner,
		tracer:   otel.Tracer("memberhub/vectorstore"),
	}
}

func (s *tracedVectorStore) Upsert(ctx context.Context, namespace string, vectors []vectorstore.Vector) error {
	ctx, span := s.start(ctx, "upsert", namespace, attribute.Int("vectorstore.count", len(vectors)))
	err := s.inner.Upsert(ctx, namespace, vectors)
	s.end(span, err)
	return err
}

func (s *tracedVectorStore) Query(ctx context.Context, namespace string, q []float32, topK int) ([]vectorstore.Match, error) {
	ctx, span := s.start(ctx, "query", namespace, attribute.Int("vectorstore.top_k", topK))
	out, err := s.inner.Query(ctx, namespace, q, topK)
	span.SetAttributes(attribute.Int("vectorstore.matches", len(out)))
	s.end(span, err)
	return out, err
}

func (s *tracedVectorStore) Delete(ctx context.Context, namespace string, ids []string) error {
	ctx, span := s.start(ctx, "delete", namespace, attribute.Int("vectorstore.count", len(ids)))
	err := s.inner.Delete(ctx, namespace, ids)
	s.end(span, err)
	return err
}

func (s *tracedVectorStore) start(ctx context.Context, op, namespace string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs,
		attribute.String("vectorstore.provider", s.provider),
		attribute.String("vectorstore.namespace", namespace),
	)
	return s.tracer.Start(ctx, "vectorstore."+op, trace.WithAttributes(attrs...))
}

func (s *tracedVectorStore) end(span trace.Span, err error) {
	if err != nil {
		if code, ok := qdrant.ErrorCode(err); ok {
			span.SetAttributes(
				attribute.String("vectorstore.error_code", string(code)),
				attribute.Bool("vectorstore.retryable", qdrant.IsRetryable(err)),
			)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
