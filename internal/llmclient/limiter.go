// internal/llmclient/limiter.go
package llmclient

import (
	"context"

	"golang.org/x/time/rate"
)

// newLimiter returns nil when rps is not positive, meaning unlimited.
func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(rps), 1)
}

func wait(ctx context.Context, l *rate.Limiter) error {
	if l == nil {
		return nil
	}
	return l.Wait(ctx)
}
