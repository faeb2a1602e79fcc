package utils

import (
	"context"
	"math/rand/v2"
	"time"
)

// RandomDuration picks a duration in [min, max].
func RandomDuration(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + rand.N(max-min+1)
}

// Sleep waits a random duration in [min, max] or until ctx is done.
func Sleep(ctx context.Context, min, max time.Duration) error {
	d := RandomDuration(min, max)
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
