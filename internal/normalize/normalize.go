// Package normalize turns raw scraped candidates into clean leads ready for
// storage. Validation is lossy on purpose: a bad phone or email is dropped
// from the lead rather than failing it, and only a missing company name
// rejects the candidate outright.
package normalize

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/forgelabs/leadgrid/internal/catalog"
	"github.com/forgelabs/leadgrid/internal/lead"
)

var emailRe = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)

// Normalizer validates and canonicalizes raw candidates.
type Normalizer struct {
	hubs  *catalog.Matcher
	types *catalog.Matcher
	clock lead.Clock
}

// New builds a Normalizer over the canonical hub and company-type lists.
func New(clock lead.Clock) *Normalizer {
	return &Normalizer{
		hubs:  catalog.HubMatcher(),
		types: catalog.CompanyTypeMatcher(),
		clock: clock,
	}
}

// Normalize produces a storable lead from a raw candidate. It returns
// lead.ErrRejected when the candidate has no usable company name; every
// other defect degrades to an absent field.
func (n *Normalizer) Normalize(raw lead.RawCandidate) (lead.Lead, error) {
	name := strings.Join(strings.Fields(raw.CompanyName), " ")
	if name == "" {
		return lead.Lead{}, lead.ErrRejected
	}

	location, ok := n.hubs.Match(raw.Address)
	if !ok {
		location, ok = n.hubs.Match(raw.Location)
	}
	if !ok {
		location = lead.Unmatched
	}

	companyType, ok := n.types.Match(raw.Category)
	if !ok {
		companyType = lead.Unmatched
	}

	industry := catalog.IndustryFor(raw.Category)

	return lead.Lead{
		CompanyName:   name,
		ContactPerson: strings.TrimSpace(raw.ContactPerson),
		Email:         NormalizeEmail(raw.Email),
		Phone:         NormalizePhone(raw.Phone),
		Website:       NormalizeWebsite(raw.Website),
		Industry:      industry,
		Location:      location,
		CompanyType:   companyType,
		Source:        raw.Source,
		ScrapedDate:   n.clock.Now().Truncate(time.Second),
	}, nil
}

// NormalizePhone strips everything but digits and keeps the last ten, the
// Indian subscriber number without trunk or country prefixes. Anything
// shorter than ten digits is unusable and comes back empty.
func NormalizePhone(raw string) string {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	s := digits.String()
	if len(s) < 10 {
		return ""
	}
	return s[len(s)-10:]
}

// NormalizeEmail lowercases a syntactically valid address and drops
// everything else.
func NormalizeEmail(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if !emailRe.MatchString(s) {
		return ""
	}
	return s
}

// NormalizeWebsite keeps only absolute http or https URLs with a host.
func NormalizeWebsite(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	u, err := url.Parse(s)
	if err != nil {
		return ""
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ""
	}
	return u.String()
}
