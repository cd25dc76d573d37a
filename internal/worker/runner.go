// Package worker drives the scrape pipeline: it feeds plan tasks to a pool
// of workers, each of which fetches, parses, normalizes and stores one
// search page at a time.
package worker

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/forgelabs/leadgrid/internal/lead"
	"github.com/forgelabs/leadgrid/internal/metrics"
	"github.com/forgelabs/leadgrid/internal/normalize"
	"github.com/forgelabs/leadgrid/internal/parse"
	"github.com/forgelabs/leadgrid/internal/planner"
)

// Renderer turns a URL into a browser-rendered document. Satisfied by the
// headless renderer; nil disables promotion.
type Renderer interface {
	Render(ctx context.Context, req lead.FetchRequest) (lead.Document, error)
}

// RenderDetector decides whether a fetched document needs re-rendering.
type RenderDetector interface {
	ShouldRender(doc lead.Document) bool
}

// Archiver persists a raw page snapshot. Nil disables archiving.
type Archiver interface {
	Put(ctx context.Context, doc lead.Document) (string, error)
}

// Runner owns one scrape run over a plan.
type Runner struct {
	fetcher    lead.Fetcher
	parsers    *parse.Registry
	normalizer *normalize.Normalizer
	store      lead.Store
	workers    int
	log        *zap.Logger

	renderer Renderer
	detector RenderDetector
	archiver Archiver
	seeder   lead.SearchProvider

	mu      sync.Mutex
	summary lead.RunSummary
	blocked map[lead.Source]bool
}

// Option tweaks optional Runner behavior.
type Option func(*Runner)

// WithHeadless enables browser-rendering promotion for pages the detector
// flags as script-rendered shells.
func WithHeadless(r Renderer, d RenderDetector) Option {
	return func(run *Runner) {
		run.renderer = r
		run.detector = d
	}
}

// WithArchiver stores a raw snapshot of every successfully fetched page.
func WithArchiver(a Archiver) Option {
	return func(run *Runner) { run.archiver = a }
}

// WithSeeder enables search-seeded discovery: when a site blocks direct
// search, its tasks fall back to listing URLs found through s.
func WithSeeder(s lead.SearchProvider) Option {
	return func(run *Runner) { run.seeder = s }
}

// NewRunner builds a Runner with the given worker count.
func NewRunner(fetcher lead.Fetcher, parsers *parse.Registry, normalizer *normalize.Normalizer,
	store lead.Store, workers int, log *zap.Logger, opts ...Option) *Runner {
	if workers <= 0 {
		workers = 1
	}
	r := &Runner{
		fetcher:    fetcher,
		parsers:    parsers,
		normalizer: normalizer,
		store:      store,
		workers:    workers,
		log:        log,
		blocked:    make(map[lead.Source]bool),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run works through the plan and returns a summary. Individual task failures
// are counted, not fatal; the error is non-nil only when the context ends
// before the plan does.
func (r *Runner) Run(ctx context.Context, plan *planner.Plan) (lead.RunSummary, error) {
	tasks := make(chan lead.Task)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(tasks)
		for {
			task, ok := plan.Next()
			if !ok {
				return nil
			}
			select {
			case tasks <- task:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	for i := 0; i < r.workers; i++ {
		g.Go(func() error {
			metrics.WorkerStarted()
			defer metrics.WorkerStopped()
			for task := range tasks {
				if err := ctx.Err(); err != nil {
					return err
				}
				r.runTask(ctx, task)
			}
			return nil
		})
	}

	err := g.Wait()
	r.mu.Lock()
	summary := r.summary
	r.mu.Unlock()

	r.log.Info("scrape run finished",
		zap.Int("fetched", summary.Fetched),
		zap.Int("parsed", summary.Parsed),
		zap.Int("normalized", summary.Normalized),
		zap.Int("inserted", summary.Inserted),
		zap.Int("merged", summary.Merged),
		zap.Int("rejected", summary.Rejected),
		zap.Int("blocked", summary.Blocked),
	)
	return summary, err
}

// Summary returns a snapshot of the run counters so far.
func (r *Runner) Summary() lead.RunSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.summary
}

func (r *Runner) runTask(ctx context.Context, task lead.Task) {
	if r.siteBlocked(task.Site) {
		r.count(func(s *lead.RunSummary) { s.Blocked++ })
		r.seedTask(ctx, task)
		return
	}

	doc, err := r.fetcher.Fetch(ctx, lead.FetchRequest{URL: task.Query, Source: task.Site})
	if err != nil {
		if lead.IsBlocked(err) {
			// One block means the site is refusing us; stop hitting its
			// search for the rest of the run.
			r.blockSite(task.Site)
			r.count(func(s *lead.RunSummary) { s.Blocked++ })
			r.log.Warn("site blocked, skipping direct search for rest of run",
				zap.String("site", string(task.Site)), zap.String("url", task.Query))
			r.seedTask(ctx, task)
			return
		}
		r.log.Warn("fetch failed",
			zap.String("url", task.Query), zap.Error(err))
		return
	}
	r.count(func(s *lead.RunSummary) { s.Fetched++ })
	r.processDocument(ctx, task, doc)
}

// seedTask recovers a blocked task through a search provider: the grid
// combination runs as a web-search query and the resulting listing URLs are
// fetched directly, skipping the site's own search page.
func (r *Runner) seedTask(ctx context.Context, task lead.Task) {
	if r.seeder == nil {
		return
	}
	query := planner.SeedQuery(task.Site, task.Category, task.Location)
	urls, err := r.seeder.Search(ctx, query)
	if err != nil {
		r.log.Warn("seed search failed",
			zap.String("provider", r.seeder.Name()), zap.String("query", query), zap.Error(err))
		return
	}
	if task.Cap > 0 && len(urls) > task.Cap {
		urls = urls[:task.Cap]
	}
	for _, u := range urls {
		doc, err := r.fetcher.Fetch(ctx, lead.FetchRequest{URL: u, Source: task.Site})
		if err != nil {
			if lead.IsBlocked(err) {
				// Listing pages are refused too; nothing more to seed here.
				return
			}
			r.log.Warn("seeded fetch failed", zap.String("url", u), zap.Error(err))
			continue
		}
		r.count(func(s *lead.RunSummary) { s.Fetched++ })
		r.processDocument(ctx, task, doc)
	}
}

func (r *Runner) processDocument(ctx context.Context, task lead.Task, doc lead.Document) {
	doc = r.maybeRender(ctx, task, doc)
	r.maybeArchive(ctx, doc)

	parser, err := r.parsers.For(task.Site)
	if err != nil {
		r.log.Error("no parser for site", zap.String("site", string(task.Site)))
		return
	}
	candidates, err := parser.Parse(doc)
	if err != nil {
		r.log.Warn("parse failed", zap.String("url", doc.URL), zap.Error(err))
		return
	}
	if task.Cap > 0 && len(candidates) > task.Cap {
		candidates = candidates[:task.Cap]
	}
	r.count(func(s *lead.RunSummary) { s.Parsed += len(candidates) })

	for _, c := range candidates {
		c.Category = task.Category
		if c.Location == "" {
			c.Location = task.Location
		}
		r.storeCandidate(ctx, task, c)
	}
}

func (r *Runner) storeCandidate(ctx context.Context, task lead.Task, c lead.RawCandidate) {
	l, err := r.normalizer.Normalize(c)
	if errors.Is(err, lead.ErrRejected) {
		r.count(func(s *lead.RunSummary) { s.Rejected++ })
		metrics.ObserveReject("empty_company_name")
		return
	}
	if err != nil {
		r.log.Warn("normalize failed", zap.String("company", c.CompanyName), zap.Error(err))
		return
	}
	r.count(func(s *lead.RunSummary) { s.Normalized++ })

	outcome, _, err := r.store.Upsert(ctx, l)
	if err != nil {
		r.log.Error("upsert failed", zap.String("company", l.CompanyName), zap.Error(err))
		return
	}
	metrics.ObserveUpsert(string(task.Site), string(outcome))
	switch outcome {
	case lead.UpsertInserted:
		r.count(func(s *lead.RunSummary) { s.Inserted++ })
	case lead.UpsertMerged:
		r.count(func(s *lead.RunSummary) { s.Merged++ })
	}
}

// maybeRender promotes a script-rendered shell to the headless browser.
// Rendering failures fall back to the original document.
func (r *Runner) maybeRender(ctx context.Context, task lead.Task, doc lead.Document) lead.Document {
	if r.renderer == nil || r.detector == nil || !r.detector.ShouldRender(doc) {
		return doc
	}
	rendered, err := r.renderer.Render(ctx, lead.FetchRequest{URL: doc.URL, Source: task.Site})
	if err != nil {
		r.log.Warn("headless render failed, using raw document",
			zap.String("url", doc.URL), zap.Error(err))
		return doc
	}
	return rendered
}

func (r *Runner) maybeArchive(ctx context.Context, doc lead.Document) {
	if r.archiver == nil {
		return
	}
	if _, err := r.archiver.Put(ctx, doc); err != nil {
		r.log.Warn("archive snapshot failed", zap.String("url", doc.URL), zap.Error(err))
	}
}

func (r *Runner) siteBlocked(site lead.Source) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.blocked[site]
}

func (r *Runner) blockSite(site lead.Source) {
	r.mu.Lock()
	r.blocked[site] = true
	r.mu.Unlock()
}

func (r *Runner) count(apply func(*lead.RunSummary)) {
	r.mu.Lock()
	apply(&r.summary)
	r.mu.Unlock()
}
