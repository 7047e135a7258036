package cj

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/dropforge/supplier-bridge/internal/metrics"
)

// DefaultMinInterval is the minimum spacing between outbound supplier
// calls (at most 5 calls per second).
const DefaultMinInterval = 200 * time.Millisecond

// Gate serializes all outbound supplier calls with a minimum inter-call
// spacing. One Gate instance is shared by everything that talks to the
// supplier in a process; it is constructed at the composition root and
// injected, never a package-level variable.
type Gate struct {
	limiter *rate.Limiter
}

// NewGate creates a Gate with the given minimum spacing. Burst is fixed
// at 1: consecutive calls can never be closer than minInterval.
func NewGate(minInterval time.Duration) *Gate {
	if minInterval <= 0 {
		minInterval = DefaultMinInterval
	}
	return &Gate{limiter: rate.NewLimiter(rate.Every(minInterval), 1)}
}

// Wait blocks until the gate allows the next call or ctx is done. A
// cancelled wait releases its slot, so an abandoned call does not
// consume spacing.
func (g *Gate) Wait(ctx context.Context) error {
	start := time.Now()
	if err := g.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("call gate wait: %w", err)
	}
	metrics.RateLimitWaitDuration.Observe(time.Since(start).Seconds())
	return nil
}
