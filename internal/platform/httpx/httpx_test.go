package httpx

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestIsRetryableError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "canceled", err: context.Canceled, want: false},
		{name: "deadline", err: context.DeadlineExceeded, want: true},
		{name: "429", err: &StatusError{Service: "openai", StatusCode: 429}, want: true},
		{name: "503", err: &StatusError{Service: "openai", StatusCode: 503}, want: true},
		{name: "400", err: &StatusError{Service: "openai", StatusCode: 400}, want: false},
		{name: "plain", err: errors.New("boom"), want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsRetryableError(tc.err); got != tc.want {
				t.Fatalf("IsRetryableError(%v)=%v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, func(ctx context.Context) (*http.Response, error) {
		calls++
		return nil, &StatusError{Service: "x", StatusCode: 400}
	}, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestRetryRecovers(t *testing.T) {
	calls := 0
	retries := 0
	err := Retry(context.Background(), 3, time.Millisecond, func(ctx context.Context) (*http.Response, error) {
		calls++
		if calls < 3 {
			return nil, &StatusError{Service: "x", StatusCode: 502}
		}
		return nil, nil
	}, func(attempt int, sleep time.Duration, err error) { retries++ })
	if err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if calls != 3 || retries != 2 {
		t.Fatalf("calls=%d retries=%d", calls, retries)
	}
}

func TestRetryAfterDurationCapped(t *testing.T) {
	resp := &http.Response{Header: http.Header{"Retry-After": []string{"120"}}}
	if got := RetryAfterDuration(resp, time.Second, 10*time.Second); got != 10*time.Second {
		t.Fatalf("got %s", got)
	}
	if got := RetryAfterDuration(nil, 2*time.Second, 10*time.Second); got != 2*time.Second {
		t.Fatalf("got %s", got)
	}
}
