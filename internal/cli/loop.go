package cli

import (
	"context"
	"time"
)

const defaultMailInterval = 30 * time.Second

// runEvery calls fn immediately and then on every tick until ctx is done.
// When fn fails, keepGoing decides whether the loop continues; the error
// that stopped the loop is returned.
func runEvery(ctx context.Context, interval time.Duration, fn func(context.Context) error, keepGoing func(error) bool) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := fn(ctx); err != nil && !keepGoing(err) {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
