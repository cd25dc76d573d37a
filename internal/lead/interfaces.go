package lead

import (
	"context"
	"net/http"
	"time"
)

// Document is a fetched page ready for parsing.
type Document struct {
	URL        string
	Source     Source
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
	Rendered   bool
}

// FetchRequest captures everything needed to fetch a URL.
type FetchRequest struct {
	URL     string
	Source  Source
	Headers http.Header
}

// Fetcher retrieves a document from a remote host. Implementations own
// politeness: rate limiting, robots.txt, timeouts and retries.
type Fetcher interface {
	Fetch(ctx context.Context, req FetchRequest) (Document, error)
}

// Parser extracts candidate leads from a fetched document. A document that
// yields zero candidates is not an error.
type Parser interface {
	Source() Source
	Parse(doc Document) ([]RawCandidate, error)
}

// Store is the deduplicating persistent lead table.
type Store interface {
	// Upsert inserts a new lead or merges into the existing row keyed by
	// normalized company name. Optional fields only ever fill empty values;
	// populated fields are never overwritten by scraping.
	Upsert(ctx context.Context, l Lead) (UpsertOutcome, int64, error)
	// Query returns leads matching filter.
	Query(ctx context.Context, filter Filter) ([]Lead, error)
	// MarkVerified merges enrichment fields into the row and flips the
	// verified flag. Only enrichment may overwrite populated contact fields.
	MarkVerified(ctx context.Context, id int64, email, contactPerson string) error
	// Migrate creates the schema if missing.
	Migrate(ctx context.Context) error
	Close() error
}

// Provider is an external contact-lookup service with its own quota.
type Provider interface {
	Name() string
	// Lookup returns contact data for a lead, ErrNoMatch when the provider
	// completed but found nothing.
	Lookup(ctx context.Context, l Lead) (EnrichmentResult, error)
}

// SearchProvider seeds fetch targets from a web-search API when direct site
// search is blocked.
type SearchProvider interface {
	Name() string
	Search(ctx context.Context, query string) ([]string, error)
}

// Clock returns the current time (injectable for testing).
type Clock interface {
	Now() time.Time
}

// Sleeper blocks for a duration unless the context finishes first.
// Injectable so retry backoff is testable without real time.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}
