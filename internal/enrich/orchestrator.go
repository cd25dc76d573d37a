// Package enrich verifies stored leads against external contact-lookup
// providers. Providers are tried in configured order per lead; a later
// provider only runs when the earlier ones found nothing.
package enrich

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/forgelabs/leadgrid/internal/fetch"
	"github.com/forgelabs/leadgrid/internal/lead"
	"github.com/forgelabs/leadgrid/internal/metrics"
)

// Orchestrator runs enrichment batches against the lead store.
type Orchestrator struct {
	store     lead.Store
	providers []lead.Provider
	gates     map[string]*fetch.Gate
	batchSize int
	log       *zap.Logger
}

// New builds an Orchestrator. Each provider gets its own rate gate so a slow
// quota on one does not stall the other.
func New(store lead.Store, providers []lead.Provider, ratePerSec float64, batchSize int, log *zap.Logger) *Orchestrator {
	gates := make(map[string]*fetch.Gate, len(providers))
	for _, p := range providers {
		gates[p.Name()] = fetch.NewGate("enrich-"+p.Name(), ratePerSec)
	}
	return &Orchestrator{
		store:     store,
		providers: providers,
		gates:     gates,
		batchSize: batchSize,
		log:       log,
	}
}

// Run selects one batch of unverified leads missing an email, oldest first,
// and walks each through the provider chain. The batch always completes:
// a provider failure on one lead is counted and the next lead proceeds.
func (o *Orchestrator) Run(ctx context.Context) (lead.EnrichmentReport, error) {
	var report lead.EnrichmentReport

	batch, err := o.store.Query(ctx, lead.Filter{
		Unverified:   true,
		MissingEmail: true,
		OrderOldest:  true,
		Limit:        o.batchSize,
	})
	if err != nil {
		return report, fmt.Errorf("select enrichment batch: %w", err)
	}
	report.Selected = len(batch)
	o.log.Info("enrichment batch selected", zap.Int("leads", len(batch)))

	for _, l := range batch {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		outcome, idx := o.enrichOne(ctx, l)
		switch outcome {
		case outcomeVerified:
			report.Verified++
			if idx > 0 {
				report.Secondary++
			}
		case outcomeNoMatch:
			report.NoMatch++
		case outcomeFailed:
			report.Failed++
		}
	}

	o.log.Info("enrichment batch complete",
		zap.Int("selected", report.Selected),
		zap.Int("verified", report.Verified),
		zap.Int("no_match", report.NoMatch),
		zap.Int("failed", report.Failed),
		zap.Int("secondary", report.Secondary),
	)
	return report, nil
}

type enrichOutcome int

const (
	outcomeNoMatch enrichOutcome = iota
	outcomeVerified
	outcomeFailed
)

// enrichOne walks the provider chain for a single lead and returns the
// outcome plus the index of the provider that resolved it.
func (o *Orchestrator) enrichOne(ctx context.Context, l lead.Lead) (enrichOutcome, int) {
	failed := false
	for i, p := range o.providers {
		if err := o.gates[p.Name()].Wait(ctx); err != nil {
			return outcomeFailed, i
		}

		result, err := p.Lookup(ctx, l)
		switch {
		case errors.Is(err, lead.ErrNoMatch):
			metrics.ObserveEnrichLookup(p.Name(), "no_match")
			continue
		case err != nil:
			metrics.ObserveEnrichLookup(p.Name(), "error")
			o.log.Warn("provider lookup failed",
				zap.String("provider", p.Name()),
				zap.String("company", l.CompanyName),
				zap.Error(err),
			)
			failed = true
			continue
		}

		if result.Email == "" {
			metrics.ObserveEnrichLookup(p.Name(), "no_match")
			continue
		}
		if err := o.store.MarkVerified(ctx, l.ID, result.Email, result.ContactPerson); err != nil {
			o.log.Error("mark verified failed", zap.Int64("id", l.ID), zap.Error(err))
			return outcomeFailed, i
		}
		metrics.ObserveEnrichLookup(p.Name(), "verified")
		o.log.Debug("lead verified",
			zap.String("company", l.CompanyName),
			zap.String("provider", p.Name()),
			zap.Float64("confidence", result.Confidence),
		)
		return outcomeVerified, i
	}
	if failed {
		return outcomeFailed, len(o.providers)
	}
	return outcomeNoMatch, len(o.providers)
}
