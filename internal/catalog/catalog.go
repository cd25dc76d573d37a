// Package catalog holds the fixed location and company-type vocabularies the
// pipeline canonicalizes scraped text against.
package catalog

import "strings"

// Hubs is the canonical list of target industrial locations. Order matters:
// matchers resolve ties by first match, so repeated runs are deterministic.
var Hubs = []string{
	"Pune",
	"Mumbai",
	"Thane",
	"Nashik",
	"Aurangabad",
	"Kolhapur",
	"Ahmedabad",
	"Vadodara",
	"Surat",
	"Rajkot",
	"Vapi",
	"Delhi",
	"Gurgaon",
	"Noida",
	"Faridabad",
	"Ghaziabad",
	"Ludhiana",
	"Chennai",
	"Coimbatore",
	"Hosur",
	"Bengaluru",
	"Hyderabad",
	"Kolkata",
	"Jamshedpur",
}

// CompanyTypes is the canonical list of recognized industrial categories.
var CompanyTypes = []string{
	"Forging Company",
	"Closed Die Forging",
	"Hot Forging Manufacturer",
	"Auto Components Manufacturer",
	"Automotive Parts Supplier",
	"Precision Machined Components",
	"CNC Machining Company",
	"Gear Manufacturer",
	"Transmission Parts Manufacturer",
	"Crankshaft Manufacturer",
	"Shafts Manufacturer",
	"Flanges Manufacturer",
	"Hydraulic Cylinder Manufacturer",
	"Pump & Valve Manufacturer",
	"Industrial Machinery Parts",
	"Heavy Engineering Components",
	"Alloy Steel Components",
	"Round Bar Buyers",
	"Steel Forging Supplier",
	"Tier 1 Auto Supplier",
	"Industrial Gearbox Manufacturer",
}

var industries = []string{
	"Automotive",
	"Automotive Components",
	"Mechanical Engineering",
	"Industrial Machinery",
	"Metals",
	"Forging",
	"Machine Manufacturing",
	"Heavy Engineering",
	"Construction",
	"EPC",
	"Oil & Gas",
	"Industrial Fabrication",
	"Aerospace",
	"Defence",
	"Steel Procurement",
	"Alloy Steel Buyers",
	"Steel Suppliers",
}

// IndustryFor maps a category keyword onto a broad industry label, falling
// back to "General" when nothing fits.
func IndustryFor(category string) string {
	lower := strings.ToLower(category)
	for _, industry := range industries {
		head := strings.ToLower(strings.Fields(industry)[0])
		if strings.Contains(lower, head) {
			return industry
		}
	}
	return "General"
}

// Matcher resolves free text against a fixed canonical list by
// case-insensitive substring match. Needles are precomputed so match order is
// deterministic and cheap.
type Matcher struct {
	entries []matchEntry
}

type matchEntry struct {
	canonical string
	needle    string
}

// NewMatcher builds a Matcher preserving the order of values.
func NewMatcher(values []string) *Matcher {
	entries := make([]matchEntry, 0, len(values))
	for _, v := range values {
		entries = append(entries, matchEntry{
			canonical: v,
			needle:    strings.ToLower(v),
		})
	}
	return &Matcher{entries: entries}
}

// Match returns the first canonical value found as a substring of text:
// "Near Pune MIDC" matches "Pune". Text that is itself a fragment of a
// canonical value also matches ("Forging" resolves to "Forging Company"),
// but only when long enough to be meaningful. The boolean reports whether a
// canonical value matched.
func (m *Matcher) Match(text string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return "", false
	}
	for _, e := range m.entries {
		if strings.Contains(lower, e.needle) {
			return e.canonical, true
		}
	}
	if len(lower) >= 4 {
		for _, e := range m.entries {
			if strings.Contains(e.needle, lower) {
				return e.canonical, true
			}
		}
	}
	return "", false
}

// HubMatcher matches raw address text against Hubs.
func HubMatcher() *Matcher {
	return NewMatcher(Hubs)
}

// CompanyTypeMatcher matches raw category text against CompanyTypes.
func CompanyTypeMatcher() *Matcher {
	return NewMatcher(CompanyTypes)
}
