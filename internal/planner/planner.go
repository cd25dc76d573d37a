// Package planner produces the deterministic grid of search tasks the scrape
// pipeline works through.
package planner

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/forgelabs/leadgrid/internal/catalog"
	"github.com/forgelabs/leadgrid/internal/lead"
)

// Plan is a lazy, finite, restartable sequence of search tasks over the
// locations × categories × sites grid. Ordering is fixed (locations outer,
// categories inner, sites innermost) so repeated runs are reproducible and a
// run can resume by position.
type Plan struct {
	locations  []string
	categories []string
	sites      []lead.Source
	cap        int
	pos        int
}

// New builds a Plan over the full canonical grid for the given sites.
func New(sites []lead.Source, perComboCap int) *Plan {
	return NewWithGrid(catalog.Hubs, catalog.CompanyTypes, sites, perComboCap)
}

// NewWithGrid builds a Plan over an explicit grid. Used by tests and by
// narrowed runs.
func NewWithGrid(locations, categories []string, sites []lead.Source, perComboCap int) *Plan {
	return &Plan{
		locations:  locations,
		categories: categories,
		sites:      sites,
		cap:        perComboCap,
	}
}

// Len returns the total number of tasks in the plan.
func (p *Plan) Len() int {
	return len(p.locations) * len(p.categories) * len(p.sites)
}

// Pos returns the current position, suitable for persisting resume state.
func (p *Plan) Pos() int {
	return p.pos
}

// Seek positions the plan so the next task returned is task n.
func (p *Plan) Seek(n int) {
	if n < 0 {
		n = 0
	}
	p.pos = n
}

// Next returns the next task in grid order. The second result is false once
// the plan is exhausted.
func (p *Plan) Next() (lead.Task, bool) {
	task, ok := p.At(p.pos)
	if ok {
		p.pos++
	}
	return task, ok
}

// At computes the task at position n without advancing the plan.
func (p *Plan) At(n int) (lead.Task, bool) {
	if n < 0 || n >= p.Len() {
		return lead.Task{}, false
	}
	nSites := len(p.sites)
	nCats := len(p.categories)

	site := p.sites[n%nSites]
	category := p.categories[(n/nSites)%nCats]
	location := p.locations[n/(nSites*nCats)]

	return lead.Task{
		Site:     site,
		Location: location,
		Category: category,
		Query:    SearchURL(site, category, location),
		Cap:      p.cap,
	}, true
}

// SearchURL formats a (site, category, location) combination into that site's
// search URL.
func SearchURL(site lead.Source, category, location string) string {
	switch site {
	case lead.SourceIndiaMART:
		q := url.QueryEscape(fmt.Sprintf("%s in %s", category, location))
		return "https://dir.indiamart.com/search.mp?ss=" + q
	case lead.SourceJustDial:
		return fmt.Sprintf("https://www.justdial.com/%s/%s", pathSegment(location), pathSegment(category))
	case lead.SourceTradeIndia:
		q := url.QueryEscape(category)
		city := url.QueryEscape(location)
		return fmt.Sprintf("https://www.tradeindia.com/search.html?keyword=%s&city=%s", q, city)
	default:
		return ""
	}
}

// SeedQuery formats a web-search query that finds a site's listing pages
// through a search engine when the site's own search is blocked.
func SeedQuery(site lead.Source, category, location string) string {
	return fmt.Sprintf("%s %s site:%s", category, location, siteDomain(site))
}

func siteDomain(site lead.Source) string {
	switch site {
	case lead.SourceIndiaMART:
		return "indiamart.com"
	case lead.SourceJustDial:
		return "justdial.com"
	case lead.SourceTradeIndia:
		return "tradeindia.com"
	default:
		return ""
	}
}

func pathSegment(s string) string {
	fields := strings.Fields(strings.ReplaceAll(s, "&", "and"))
	return url.PathEscape(strings.Join(fields, "-"))
}
