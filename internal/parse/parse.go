// Package parse extracts candidate leads from fetched directory pages. One
// parser per source site; all of them are tolerant of missing sections and
// treat an unrecognized document as zero candidates, never as a failure of
// the whole run.
package parse

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/forgelabs/leadgrid/internal/lead"
)

var (
	emailRe = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	phoneRe = regexp.MustCompile(`(?:\+?\d{1,3}[-\s]?)?\d[\d\-\s]{8,}\d`)
)

// Registry dispatches documents to the parser for their source site.
type Registry struct {
	parsers map[lead.Source]lead.Parser
}

// NewRegistry builds a registry over the given parsers.
func NewRegistry(parsers ...lead.Parser) *Registry {
	m := make(map[lead.Source]lead.Parser, len(parsers))
	for _, p := range parsers {
		m[p.Source()] = p
	}
	return &Registry{parsers: m}
}

// Default returns a registry covering every supported source.
func Default() *Registry {
	return NewRegistry(NewIndiaMART(), NewJustDial(), NewTradeIndia())
}

// For returns the parser for a source site.
func (r *Registry) For(source lead.Source) (lead.Parser, error) {
	p, ok := r.parsers[source]
	if !ok {
		return nil, fmt.Errorf("no parser registered for source %q", source)
	}
	return p, nil
}

// cleanText collapses whitespace in scraped text fragments.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// firstEmail returns the first email-looking token in text, or "".
func firstEmail(text string) string {
	return emailRe.FindString(text)
}

// firstPhone returns the first phone-looking token in text, or "".
func firstPhone(text string) string {
	return phoneRe.FindString(text)
}

// firstText returns the cleaned text of the first selector that matches
// anything inside sel.
func firstText(sel *goquery.Selection, selectors ...string) string {
	for _, s := range selectors {
		if found := sel.Find(s).First(); found.Length() > 0 {
			if text := cleanText(found.Text()); text != "" {
				return text
			}
		}
	}
	return ""
}

// firstAttr returns the named attribute of the first selector that matches.
func firstAttr(sel *goquery.Selection, attr string, selectors ...string) string {
	for _, s := range selectors {
		if found := sel.Find(s).First(); found.Length() > 0 {
			if v, ok := found.Attr(attr); ok && strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v)
			}
		}
	}
	return ""
}
