package models

import (
	"context"
	"time"
)

// default timeout of a single query
const defaultTimeout = 10 * time.Second

// withTimeout bounds a model call; a zero timeout falls back to the default
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = defaultTimeout
	}
	return context.WithTimeout(ctx, d)
}
