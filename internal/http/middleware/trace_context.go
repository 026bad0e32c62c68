package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/memberhub-backend/internal/platform/ctxutil"
)

const (
	headerTraceID   = "X-Trace-Id"
	headerRequestID = "X-Request-Id"

	maxCorrelationIDLen = 128
)

// AttachTraceContext gives every request a request id and a trace id, echoes both as
// response headers and stores them for the request logger. A live span's trace id wins
// over the X-Trace-Id header. Client supplied ids that are too long or carry characters
// outside [A-Za-z0-9._:-] are replaced so they can't forge log lines.
func AttachTraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		span := trace.SpanFromContext(ctx)

		reqID := correlationID(c.GetHeader(headerRequestID))
		if reqID == "" {
			reqID = uuid.NewString()
		}

		var traceID string
		if sc := span.SpanContext(); sc.HasTraceID() {
			traceID = sc.TraceID().String()
		} else if traceID = correlationID(c.GetHeader(headerTraceID)); traceID == "" {
			traceID = uuid.NewString()
		}

		span.SetAttributes(attribute.String("http.request_id", reqID))
		c.Request = c.Request.WithContext(ctxutil.WithTraceData(ctx, &ctxutil.TraceData{
			TraceID:   traceID,
			RequestID: reqID,
		}))
		c.Writer.Header().Set(headerTraceID, traceID)
		c.Writer.Header().Set(headerRequestID, reqID)
		c.Next()
	}
}

func correlationID(raw string) string {
	v := strings.TrimSpace(raw)
	if v == "" || len(v) > maxCorrelationIDLen {
		return ""
	}
	for i := 0; i < len(v); i++ {
		ch := v[i]
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
		case ch == '-', ch == '_', ch == '.', ch == ':':
		default:
			return ""
		}
	}
	return v
}
