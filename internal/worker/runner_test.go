package worker

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/forgelabs/leadgrid/internal/archive"
	"github.com/forgelabs/leadgrid/internal/lead"
	"github.com/forgelabs/leadgrid/internal/normalize"
	"github.com/forgelabs/leadgrid/internal/parse"
	"github.com/forgelabs/leadgrid/internal/planner"
	"github.com/forgelabs/leadgrid/internal/store/memory"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// fakeFetcher serves canned bodies and errors keyed by source site.
type fakeFetcher struct {
	mu        sync.Mutex
	bodies    map[lead.Source]string
	urlBodies map[string]string
	errs      map[lead.Source]error
	calls     map[lead.Source]int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		bodies:    make(map[lead.Source]string),
		urlBodies: make(map[string]string),
		errs:      make(map[lead.Source]error),
		calls:     make(map[lead.Source]int),
	}
}

func (f *fakeFetcher) Fetch(_ context.Context, req lead.FetchRequest) (lead.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[req.Source]++
	if body, ok := f.urlBodies[req.URL]; ok {
		return lead.Document{URL: req.URL, Source: req.Source, StatusCode: 200, Body: []byte(body)}, nil
	}
	if err, ok := f.errs[req.Source]; ok {
		return lead.Document{}, err
	}
	return lead.Document{
		URL:        req.URL,
		Source:     req.Source,
		StatusCode: 200,
		Body:       []byte(f.bodies[req.Source]),
	}, nil
}

func (f *fakeFetcher) callCount(src lead.Source) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[src]
}

const indiamartBody = `<html><body>
<div class="card">
  <h2 class="lcname">Sharma Forgings Pvt Ltd</h2>
  <p class="sm clg">MIDC Bhosari, Pune</p>
  <span class="pns_h">+91-98765-43210</span>
</div>
<div class="card">
  <h2 class="lcname">Deccan Castings</h2>
  <span class="newLocationUi">Kolhapur</span>
</div>
</body></html>`

func newTestRunner(t *testing.T, fetcher lead.Fetcher, store lead.Store, workers int, opts ...Option) *Runner {
	t.Helper()
	clock := fixedClock{t: time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)}
	return NewRunner(fetcher, parse.Default(), normalize.New(clock), store, workers, zaptest.NewLogger(t), opts...)
}

func TestRunFullPipeline(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()
	fetcher.bodies[lead.SourceIndiaMART] = indiamartBody
	store := memory.New()

	plan := planner.NewWithGrid(
		[]string{"Pune"}, []string{"Forging Company"},
		[]lead.Source{lead.SourceIndiaMART}, 0,
	)
	summary, err := newTestRunner(t, fetcher, store, 2).Run(context.Background(), plan)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Fetched)
	assert.Equal(t, 2, summary.Parsed)
	assert.Equal(t, 2, summary.Normalized)
	assert.Equal(t, 2, summary.Inserted)
	assert.Zero(t, summary.Rejected)
	assert.Zero(t, summary.Blocked)

	got, err := store.Query(context.Background(), lead.Filter{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Pune", got[0].Location)
	assert.Equal(t, "Forging Company", got[0].CompanyType)
	assert.Equal(t, "9876543210", got[0].Phone)
	assert.Equal(t, "Kolhapur", got[1].Location)
}

func TestRunBlockedSiteSkippedForRestOfRun(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()
	fetcher.bodies[lead.SourceIndiaMART] = indiamartBody
	fetcher.errs[lead.SourceJustDial] = &lead.FetchError{Kind: lead.FetchBlocked, URL: "https://www.justdial.com/x"}
	store := memory.New()

	// 3 categories x 2 sites: JustDial should only be hit once.
	plan := planner.NewWithGrid(
		[]string{"Pune"},
		[]string{"Forging Company", "Gear Manufacturer", "CNC Machining Company"},
		[]lead.Source{lead.SourceIndiaMART, lead.SourceJustDial}, 0,
	)
	summary, err := newTestRunner(t, fetcher, store, 1).Run(context.Background(), plan)
	require.NoError(t, err)

	assert.Equal(t, 1, fetcher.callCount(lead.SourceJustDial))
	assert.Equal(t, 3, fetcher.callCount(lead.SourceIndiaMART))
	assert.Equal(t, 3, summary.Blocked)
	assert.Equal(t, 3, summary.Fetched)
}

func TestRunFetchErrorDoesNotStopRun(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()
	fetcher.bodies[lead.SourceIndiaMART] = indiamartBody
	fetcher.errs[lead.SourceTradeIndia] = &lead.FetchError{Kind: lead.FetchExhausted, URL: "https://www.tradeindia.com/x"}
	store := memory.New()

	plan := planner.NewWithGrid(
		[]string{"Pune"}, []string{"Forging Company"},
		[]lead.Source{lead.SourceTradeIndia, lead.SourceIndiaMART}, 0,
	)
	summary, err := newTestRunner(t, fetcher, store, 1).Run(context.Background(), plan)
	require.NoError(t, err)

	// Exhausted is not Blocked: the site keeps getting tried.
	assert.Equal(t, 1, summary.Fetched)
	assert.Equal(t, 2, summary.Inserted)
	assert.Zero(t, summary.Blocked)
}

func TestRunPerComboCap(t *testing.T) {
	t.Parallel()

	var cards strings.Builder
	cards.WriteString("<html><body>")
	for _, name := range []string{"Alpha Forge", "Beta Forge", "Gamma Forge", "Delta Forge"} {
		cards.WriteString(`<div class="card"><h2 class="lcname">` + name + `</h2></div>`)
	}
	cards.WriteString("</body></html>")

	fetcher := newFakeFetcher()
	fetcher.bodies[lead.SourceIndiaMART] = cards.String()
	store := memory.New()

	plan := planner.NewWithGrid(
		[]string{"Pune"}, []string{"Forging Company"},
		[]lead.Source{lead.SourceIndiaMART}, 2,
	)
	summary, err := newTestRunner(t, fetcher, store, 1).Run(context.Background(), plan)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Parsed)
	assert.Equal(t, 2, summary.Inserted)
}

func TestRunDeduplicatesAcrossTasks(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()
	fetcher.bodies[lead.SourceIndiaMART] = indiamartBody
	store := memory.New()

	// The same companies appear for two categories: second pass merges.
	plan := planner.NewWithGrid(
		[]string{"Pune"}, []string{"Forging Company", "Steel Forging Supplier"},
		[]lead.Source{lead.SourceIndiaMART}, 0,
	)
	summary, err := newTestRunner(t, fetcher, store, 1).Run(context.Background(), plan)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Inserted)
	assert.Equal(t, 2, summary.Merged)

	got, err := store.Query(context.Background(), lead.Filter{})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

type fakeSeeder struct {
	mu      sync.Mutex
	urls    []string
	queries []string
}

func (f *fakeSeeder) Name() string { return "fake" }

func (f *fakeSeeder) Search(_ context.Context, query string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	return f.urls, nil
}

func TestRunSeedsBlockedSite(t *testing.T) {
	t.Parallel()

	listingURL := "https://www.justdial.com/Ludhiana/Om-Electricals"
	fetcher := newFakeFetcher()
	fetcher.errs[lead.SourceJustDial] = &lead.FetchError{Kind: lead.FetchBlocked, URL: "https://www.justdial.com/x"}
	fetcher.urlBodies[listingURL] = `<html><body>
<li class="cntanr">
  <span class="lng_cont_name">Om Electricals</span>
  <span class="cont_fl_addr">Ludhiana</span>
</li>
</body></html>`
	seeder := &fakeSeeder{urls: []string{listingURL}}
	store := memory.New()

	plan := planner.NewWithGrid(
		[]string{"Ludhiana"}, []string{"Pump & Valve Manufacturer"},
		[]lead.Source{lead.SourceJustDial}, 0,
	)
	summary, err := newTestRunner(t, fetcher, store, 1, WithSeeder(seeder)).Run(context.Background(), plan)
	require.NoError(t, err)

	// The direct search is blocked but the seeded listing URL still lands.
	assert.Equal(t, 1, summary.Blocked)
	assert.Equal(t, 1, summary.Fetched)
	assert.Equal(t, 1, summary.Inserted)
	require.Len(t, seeder.queries, 1)
	assert.Equal(t, "Pump & Valve Manufacturer Ludhiana site:justdial.com", seeder.queries[0])

	got, err := store.Query(context.Background(), lead.Filter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Om Electricals", got[0].CompanyName)
}

type alwaysRender struct{}

func (alwaysRender) ShouldRender(lead.Document) bool { return true }

type fakeRenderer struct{ body string }

func (f *fakeRenderer) Render(_ context.Context, req lead.FetchRequest) (lead.Document, error) {
	return lead.Document{
		URL:        req.URL,
		Source:     req.Source,
		StatusCode: 200,
		Body:       []byte(f.body),
		Rendered:   true,
	}, nil
}

func TestRunHeadlessPromotion(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()
	fetcher.bodies[lead.SourceJustDial] = `<html><body><div id="root"></div></body></html>`
	store := memory.New()

	rendered := `<html><body>
<li class="cntanr">
  <span class="lng_cont_name">Om Electricals</span>
  <span class="cont_fl_addr">Ludhiana</span>
</li>
</body></html>`

	plan := planner.NewWithGrid(
		[]string{"Ludhiana"}, []string{"Pump & Valve Manufacturer"},
		[]lead.Source{lead.SourceJustDial}, 0,
	)
	runner := newTestRunner(t, fetcher, store, 1,
		WithHeadless(&fakeRenderer{body: rendered}, alwaysRender{}))
	summary, err := runner.Run(context.Background(), plan)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Inserted)
	got, err := store.Query(context.Background(), lead.Filter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Om Electricals", got[0].CompanyName)
}

func TestRunArchivesFetchedPages(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()
	fetcher.bodies[lead.SourceIndiaMART] = indiamartBody
	sink := archive.NewMemorySink()

	plan := planner.NewWithGrid(
		[]string{"Pune"}, []string{"Forging Company"},
		[]lead.Source{lead.SourceIndiaMART}, 0,
	)
	_, err := newTestRunner(t, fetcher, memory.New(), 1, WithArchiver(sink)).Run(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, 1, sink.Len())
}
