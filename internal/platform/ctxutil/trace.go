package ctxutil

import (
	"context"

	"github.com/google/uuid"
)

type traceDataKey struct{}
type requestDataKey struct{}

type TraceData struct {
	TraceID   string
	RequestID string
}

func WithTraceData(ctx context.Context, td *TraceData) context.Context {
	return context.WithValue(ctx, traceDataKey{}, td)
}

func GetTraceData(ctx context.Context) *TraceData {
	if td, ok := ctx.Value(traceDataKey{}).(*TraceData); ok {
		return td
	}
	return nil
}

// RequestData is the caller identity taken from a verified platform token. UserID starts
// as the token subject and is replaced by the local user id once the caller is resolved.
type RequestData struct {
	UserID         uuid.UUID
	PlatformUserID uuid.UUID
	Email          string
	Role           string
}

func (rd *RequestData) IsAdmin() bool {
	return rd != nil && rd.Role == "admin"
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	if rd, ok := ctx.Value(requestDataKey{}).(*RequestData); ok {
		return rd
	}
	return nil
}

// Default returns context.Background() when ctx is nil.
func Default(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
