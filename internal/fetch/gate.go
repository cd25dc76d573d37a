// Package fetch implements the rate-limited, robots-aware, retry-capable
// fetch layer. It is the sole point of contact with remote hosts.
package fetch

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/forgelabs/leadgrid/internal/metrics"
)

// Gate serializes request pacing across all callers. Every fetch, regardless
// of which worker issues it, blocks here until the shared interval since the
// last request has elapsed.
type Gate struct {
	name    string
	limiter *rate.Limiter
}

// NewGate builds a gate admitting ratePerSec requests per second with no
// burst beyond a single token.
func NewGate(name string, ratePerSec float64) *Gate {
	r := rate.Limit(ratePerSec)
	if ratePerSec <= 0 {
		r = rate.Inf
	}
	return &Gate{
		name:    name,
		limiter: rate.NewLimiter(r, 1),
	}
}

// Wait blocks until a token is available, respecting the context.
func (g *Gate) Wait(ctx context.Context) error {
	start := time.Now()
	if err := g.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate gate wait: %w", err)
	}
	if delay := time.Since(start); delay > time.Millisecond {
		metrics.ObserveGateDelay(g.name, delay)
	}
	return nil
}
