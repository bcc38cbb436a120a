package generation

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"
)

// RetryBaseDelay is the first backoff interval between attempts.
var RetryBaseDelay = 500 * time.Millisecond

// WithRetry runs fn, retrying up to maxRetries times with exponential
// backoff while it fails with ErrTransientFailure. Other errors stop at once.
func WithRetry(ctx context.Context, maxRetries int, fn func(ctx context.Context) error) error {
	if maxRetries < 0 {
		maxRetries = 0
	}

	backoff := retry.NewExponential(RetryBaseDelay)
	backoff = retry.WithJitterPercent(20, backoff)
	backoff = retry.WithMaxRetries(uint64(maxRetries), backoff)

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if err != nil && errors.Is(err, ErrTransientFailure) {
			return retry.RetryableError(err)
		}
		return err
	})
}
