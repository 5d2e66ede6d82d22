package compactor

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimited paces compaction requests sent to the cluster
type RateLimited struct {
	next    Commander
	limiter *rate.Limiter
}

// NewRateLimited wraps next so that at most rps requests are issued per second.
// rps <= 0 returns next unchanged.
func NewRateLimited(next Commander, rps int) Commander {
	if rps <= 0 {
		return next
	}
	// burst of one: requests are spread out, never bunched
	return &RateLimited{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// TriggerMajorCompaction waits for a token, then forwards the request
func (r *RateLimited) TriggerMajorCompaction(ctx context.Context, region []byte) Result {
	if err := r.limiter.Wait(ctx); err != nil {
		return Failed(region, fmt.Errorf("rate limiter wait failed: %w", err))
	}
	return r.next.TriggerMajorCompaction(ctx, region)
}
