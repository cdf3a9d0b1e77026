package ratelimit

import "context"

// Limiter is injected into the middleware so the in-memory window can be
// swapped for the shared Redis counter in multi-instance deployments.
type Limiter interface {
	// Allow records a hit for the key and reports whether it is still
	// within budget.
	Allow(ctx context.Context, key string) (bool, error)
}
