package observability

import (
	"context"
	"testing"

	"github.com/yungbote/memberhub-backend/internal/platform/logger"
)

func TestParseHeaders(t *testing.T) {
	got := parseHeaders(" api-key = abc , bad, empty=, x=1")
	if len(got) != 2 || got["api-key"] != "abc" || got["x"] != "1" {
		t.Fatalf("unexpected headers %v", got)
	}
	if parseHeaders("") != nil {
		t.Fatal("expected nil for empty input")
	}
}

func TestSampleRatioClamped(t *testing.T) {
	t.Setenv("OTEL_SAMPLER_RATIO", "7")
	if got := sampleRatio(); got != 1 {
		t.Fatalf("got %v", got)
	}
	t.Setenv("OTEL_SAMPLER_RATIO", "nope")
	if got := sampleRatio(); got != 0.1 {
		t.Fatalf("got %v", got)
	}
}

func TestInitOTelDisabled(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "false")
	if shutdown := InitOTel(context.Background(), logger.Nop(), OtelConfig{}); shutdown != nil {
		t.Fatal("expected nil shutdown when disabled")
	}
}
