// Package lead defines core types shared across the acquisition and
// enrichment pipelines.
package lead

import (
	"strings"
	"time"
)

// Source identifies the directory site a lead was captured from.
type Source string

// Directory sites the pipeline knows how to search and parse.
const (
	SourceIndiaMART  Source = "IndiaMART"
	SourceJustDial   Source = "JustDial"
	SourceTradeIndia Source = "TradeIndia"
)

// AllSources lists every supported source in a stable order.
func AllSources() []Source {
	return []Source{SourceIndiaMART, SourceJustDial, SourceTradeIndia}
}

// ParseSource maps a configured site name onto a Source.
func ParseSource(name string) (Source, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "indiamart":
		return SourceIndiaMART, true
	case "justdial":
		return SourceJustDial, true
	case "tradeindia":
		return SourceTradeIndia, true
	default:
		return "", false
	}
}

// Unmatched marks a location or company type that could not be canonicalized.
// It is the only non-canonical value ever stored for those fields.
const Unmatched = "Other/Unmatched"

// Lead is the canonical business-contact record persisted by the store.
type Lead struct {
	ID            int64     `json:"id"`
	CompanyName   string    `json:"company_name"`
	ContactPerson string    `json:"contact_person,omitempty"`
	Email         string    `json:"email,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	Website       string    `json:"website,omitempty"`
	Industry      string    `json:"industry,omitempty"`
	CompanyType   string    `json:"company_type,omitempty"`
	Location      string    `json:"location,omitempty"`
	Source        Source    `json:"source"`
	ScrapedDate   time.Time `json:"scraped_date"`
	Verified      bool      `json:"verified"`
}

// CompanyKey returns the case/whitespace-normalized identity key used for
// deduplication. Two leads with the same key are the same company.
func CompanyKey(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// RawCandidate carries the text fragments a parser could locate for one
// listing. Everything except the company name is optional.
type RawCandidate struct {
	CompanyName   string
	ContactPerson string
	Email         string
	Phone         string
	Website       string
	Address       string
	Source        Source
	Category      string
	Location      string
}

// Task is one unit of the scrape plan: search one site for one
// location/category combination.
type Task struct {
	Site     Source
	Location string
	Category string
	Query    string
	Cap      int
}

// RunSummary counts pipeline outcomes for a single run. A run always
// completes with a summary regardless of partial failures.
type RunSummary struct {
	Fetched    int `json:"fetched"`
	Parsed     int `json:"parsed"`
	Normalized int `json:"normalized"`
	Inserted   int `json:"inserted"`
	Merged     int `json:"merged"`
	Rejected   int `json:"rejected"`
	Blocked    int `json:"blocked"`
}

// UpsertOutcome reports whether an upsert created a new row or merged into an
// existing one.
type UpsertOutcome string

// Upsert outcomes.
const (
	UpsertInserted UpsertOutcome = "inserted"
	UpsertMerged   UpsertOutcome = "merged"
)

// Filter narrows store queries for export and enrichment selection.
type Filter struct {
	Location     string
	Industry     string
	Source       Source
	ScrapedAfter time.Time
	Unverified   bool
	MissingEmail bool
	OrderOldest  bool
	Limit        int
}

// EnrichmentResult is what a lookup provider returns for a company.
type EnrichmentResult struct {
	Email         string
	ContactPerson string
	Confidence    float64
}

// EnrichmentReport summarizes one enrichment batch.
type EnrichmentReport struct {
	Selected  int `json:"selected"`
	Verified  int `json:"verified"`
	NoMatch   int `json:"no_match"`
	Failed    int `json:"failed"`
	Secondary int `json:"secondary"`
}
