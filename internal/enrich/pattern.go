package enrich

import (
	"context"
	"strings"

	"github.com/forgelabs/leadgrid/internal/lead"
)

// Pattern guesses an address from the contact person's name and the website
// domain. It never talks to the network, so it is the cheap fallback when
// the API provider finds nothing. Guesses carry low confidence and are only
// as good as the scraped name.
type Pattern struct{}

func NewPattern() *Pattern { return &Pattern{} }

func (p *Pattern) Name() string { return "pattern" }

// Lookup builds first.last@domain, or first@domain for single-word names,
// from the lead's contact person. Without both a usable name and a website
// domain there is nothing to guess.
func (p *Pattern) Lookup(_ context.Context, l lead.Lead) (lead.EnrichmentResult, error) {
	domain := domainOf(l.Website)
	if domain == "" {
		return lead.EnrichmentResult{}, lead.ErrNoMatch
	}

	parts := nameParts(l.ContactPerson)
	if len(parts) == 0 {
		return lead.EnrichmentResult{}, lead.ErrNoMatch
	}

	local := parts[0]
	if len(parts) > 1 {
		local = parts[0] + "." + parts[len(parts)-1]
	}
	return lead.EnrichmentResult{
		Email:      local + "@" + domain,
		Confidence: 0.3,
	}, nil
}

// nameParts lowercases and strips a person name down to alphabetic tokens,
// dropping honorifics and initials.
func nameParts(name string) []string {
	var out []string
	for _, f := range strings.Fields(strings.ToLower(name)) {
		var b strings.Builder
		for _, r := range f {
			if r >= 'a' && r <= 'z' {
				b.WriteRune(r)
			}
		}
		token := b.String()
		switch token {
		case "", "mr", "mrs", "ms", "dr", "shri", "smt":
			continue
		}
		if len(token) == 1 {
			continue
		}
		out = append(out, token)
	}
	return out
}
