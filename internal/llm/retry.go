package llm

import (
	"context"
	"strings"
	"time"
)

var rateLimitMarkers = []string{"429", "RESOURCE_EXHAUSTED", "Quota exceeded"}

// IsRateLimit reports whether err looks like an upstream quota/rate-limit
// response. Matching is on message text since that is all the SDK guarantees.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, m := range rateLimitMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// RetryPolicy is a linear backoff: wait BaseDelay*n before retry n.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultRetryPolicy makes 3 attempts, waiting 5s then 10s.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 3, BaseDelay: 5 * time.Second}

// Delay returns the wait before the retry that follows failed attempt n (1-based).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	return p.BaseDelay * time.Duration(attempt)
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
