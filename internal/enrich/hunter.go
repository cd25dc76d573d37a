package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/forgelabs/leadgrid/internal/lead"
)

// freeMailDomains are consumer mail hosts. An address there belongs to a
// person, not the company, so it ranks below anything on a corporate domain.
var freeMailDomains = map[string]bool{
	"gmail.com":      true,
	"yahoo.com":      true,
	"yahoo.co.in":    true,
	"hotmail.com":    true,
	"outlook.com":    true,
	"rediffmail.com": true,
	"aol.com":        true,
	"icloud.com":     true,
}

const hunterEndpoint = "https://api.hunter.io/v2/domain-search"

// Hunter looks up company contacts through the Hunter.io domain-search API.
type Hunter struct {
	apiKey   string
	client   *http.Client
	endpoint string
}

// NewHunter builds a Hunter provider with its own short-timeout client.
func NewHunter(apiKey string) *Hunter {
	return &Hunter{
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 15 * time.Second},
		endpoint: hunterEndpoint,
	}
}

func (h *Hunter) Name() string { return "hunter" }

type hunterResponse struct {
	Data struct {
		Domain string `json:"domain"`
		Emails []struct {
			Value      string `json:"value"`
			Type       string `json:"type"`
			Confidence int    `json:"confidence"`
			FirstName  string `json:"first_name"`
			LastName   string `json:"last_name"`
		} `json:"emails"`
	} `json:"data"`
}

// Lookup queries domain-search for the lead's website domain. Leads without
// a website cannot be searched and come back as no-match.
func (h *Hunter) Lookup(ctx context.Context, l lead.Lead) (lead.EnrichmentResult, error) {
	domain := domainOf(l.Website)
	if domain == "" {
		return lead.EnrichmentResult{}, lead.ErrNoMatch
	}

	q := url.Values{}
	q.Set("domain", domain)
	q.Set("api_key", h.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return lead.EnrichmentResult{}, fmt.Errorf("build hunter request: %w", err)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return lead.EnrichmentResult{}, fmt.Errorf("hunter domain-search %s: %w", domain, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return lead.EnrichmentResult{}, lead.ErrNoMatch
	}
	if resp.StatusCode != http.StatusOK {
		return lead.EnrichmentResult{}, fmt.Errorf("hunter domain-search %s: status %d", domain, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return lead.EnrichmentResult{}, fmt.Errorf("read hunter response: %w", err)
	}
	var parsed hunterResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return lead.EnrichmentResult{}, fmt.Errorf("decode hunter response: %w", err)
	}
	if len(parsed.Data.Emails) == 0 {
		return lead.EnrichmentResult{}, lead.ErrNoMatch
	}

	best := parsed.Data.Emails[0]
	bestScore := rankEmail(best.Value, domain, best.Confidence)
	for _, e := range parsed.Data.Emails[1:] {
		if score := rankEmail(e.Value, domain, e.Confidence); score > bestScore {
			best, bestScore = e, score
		}
	}

	contact := strings.TrimSpace(best.FirstName + " " + best.LastName)
	return lead.EnrichmentResult{
		Email:         strings.ToLower(best.Value),
		ContactPerson: contact,
		Confidence:    float64(best.Confidence) / 100,
	}, nil
}

// rankEmail orders candidates: site-domain addresses first, then any other
// corporate domain, free-mail last. Hunter's own confidence breaks ties.
func rankEmail(email, siteDomain string, confidence int) int {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return -1
	}
	domain := strings.ToLower(email[at+1:])
	score := confidence
	switch {
	case domain == siteDomain:
		score += 2000
	case !freeMailDomains[domain]:
		score += 1000
	}
	return score
}

// domainOf extracts the registrable host from a website URL, dropping any
// www prefix.
func domainOf(website string) string {
	if website == "" {
		return ""
	}
	u, err := url.Parse(website)
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.ToLower(u.Host)
	if h, _, ok := strings.Cut(host, ":"); ok {
		host = h
	}
	return strings.TrimPrefix(host, "www.")
}
