package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const serperEndpoint = "https://google.serper.dev/search"

// Serper queries Google through the serper.dev API. Unlike SerpAPI it takes
// a JSON POST with the key in a header.
type Serper struct {
	apiKey   string
	results  int
	client   *http.Client
	endpoint string
}

// NewSerper builds a Serper provider returning up to results organic hits
// per query.
func NewSerper(apiKey string, results int) *Serper {
	if results <= 0 {
		results = 10
	}
	return &Serper{
		apiKey:   apiKey,
		results:  results,
		client:   &http.Client{Timeout: 20 * time.Second},
		endpoint: serperEndpoint,
	}
}

func (s *Serper) Name() string { return "serper" }

type serperResponse struct {
	Organic []struct {
		Link string `json:"link"`
	} `json:"organic"`
}

// Search runs one query and returns directory listing URLs from the
// organic results.
func (s *Serper) Search(ctx context.Context, query string) ([]string, error) {
	payload, err := json.Marshal(map[string]any{"q": query, "num": s.results})
	if err != nil {
		return nil, fmt.Errorf("marshal serper request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build serper request: %w", err)
	}
	req.Header.Set("X-API-KEY", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("serper search %q: %w", query, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("serper search %q: status %d", query, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read serper response: %w", err)
	}
	var parsed serperResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode serper response: %w", err)
	}

	links := make([]string, 0, len(parsed.Organic))
	for _, r := range parsed.Organic {
		links = append(links, r.Link)
	}
	return FilterListingURLs(links), nil
}
