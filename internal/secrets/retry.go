package secrets

import (
	"context"
	"time"

	"github.com/hyp3rd/ewrap/pkg/ewrap"
)

// Retry calls fn up to attempts+1 times with exponential backoff starting at
// delay. It stops early when fn succeeds, when stop reports the error as
// permanent, or when ctx is done.
func Retry(ctx context.Context, attempts int, delay time.Duration, stop func(error) bool, fn func(context.Context) error) error {
	var err error

	for attempt := 0; attempt <= attempts; attempt++ {
		err = fn(ctx)
		if err == nil || (stop != nil && stop(err)) {
			return err
		}

		if attempt == attempts {
			break
		}

		timer := time.NewTimer(delay * time.Duration(1<<attempt))
		select {
		case <-ctx.Done():
			timer.Stop()

			return ewrap.Wrap(ctx.Err(), "context canceled").
				WithMetadata("last_error", err.Error())
		case <-timer.C:
		}
	}

	return ewrap.Wrapf(err, "giving up after %d attempts", attempts+1)
}
