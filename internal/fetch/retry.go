package fetch

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type retryPolicy struct {
	maxRetries  int
	backoffBase time.Duration
	backoffMax  time.Duration
}

// withRetry runs fn up to maxRetries+1 times, backing off exponentially
// between attempts. Only errors classified as retryable trigger another
// attempt; everything else returns immediately.
func (c *Coordinator) withRetry(ctx context.Context, op, symbol string, fn func(ctx context.Context) error) error {
	backoff := c.retry.backoffBase
	var lastErr *FetchError
	for attempt := 0; attempt <= c.retry.maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.Warn("retrying provider call",
				zap.String("op", op),
				zap.String("symbol", symbol),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
				zap.Error(lastErr))
			if err := sleepCtx(ctx, backoff); err != nil {
				return classify(op, symbol, err)
			}
			backoff *= 2
			if backoff > c.retry.backoffMax {
				backoff = c.retry.backoffMax
			}
		}
		if err := c.gate.wait(ctx); err != nil {
			return classify(op, symbol, err)
		}
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = classify(op, symbol, err)
		if !lastErr.Retryable {
			return lastErr
		}
	}
	return lastErr
}
