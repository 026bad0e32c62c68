package httpx

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

type HTTPStatusCoder interface {
	HTTPStatusCode() int
}

// StatusError is a non-2xx upstream response.
type StatusError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return e.Service + " http " + strconv.Itoa(e.StatusCode) + ": " + e.Body
}

func (e *StatusError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func IsRetryableHTTPStatus(code int) bool {
	if code == http.StatusRequestTimeout || code == http.StatusTooManyRequests {
		return true
	}
	return code >= 500 && code <= 599
}

// IsRetryableError reports whether err is worth another attempt. A cancelled caller
// context is never retried.
func IsRetryableError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var sc HTTPStatusCoder
	if errors.As(err, &sc) {
		return IsRetryableHTTPStatus(sc.HTTPStatusCode())
	}
	return false
}

func RetryAfterDuration(resp *http.Response, fallback, max time.Duration) time.Duration {
	sleepFor := fallback
	if resp != nil {
		if ra := strings.TrimSpace(resp.Header.Get("Retry-After")); ra != "" {
			if secs, err := strconv.Atoi(ra); err == nil && secs > 0 {
				sleepFor = time.Duration(secs) * time.Second
			}
		}
	}
	if max > 0 && sleepFor > max {
		sleepFor = max
	}
	return sleepFor
}

// JitterSleep spreads base by +/-20%.
func JitterSleep(base time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	delta := base.Seconds() * 0.2
	low := base.Seconds() - delta
	high := base.Seconds() + delta
	if low < 0 {
		low = 0
	}
	return time.Duration((low + rand.Float64()*(high-low)) * float64(time.Second))
}

// Attempt is one try of a retried call. It returns the response (may be nil) and error.
type Attempt func(ctx context.Context) (*http.Response, error)

// OnRetry is called before sleeping between attempts.
type OnRetry func(attempt int, sleep time.Duration, err error)

// Retry runs fn up to maxRetries+1 times with exponential backoff starting at base,
// honoring Retry-After up to 10s.
func Retry(ctx context.Context, maxRetries int, base time.Duration, fn Attempt, onRetry OnRetry) error {
	if base <= 0 {
		base = time.Second
	}
	backoff := base
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		resp, err := fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= maxRetries || !IsRetryableError(err) {
			return err
		}
		sleepFor := JitterSleep(RetryAfterDuration(resp, backoff, 10*time.Second))
		if onRetry != nil {
			onRetry(attempt+1, sleepFor, err)
		}
		timer := time.NewTimer(sleepFor)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		backoff *= 2
	}
}
