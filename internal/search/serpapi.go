package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const serpAPIEndpoint = "https://serpapi.com/search.json"

// SerpAPI queries Google through the SerpAPI gateway.
type SerpAPI struct {
	apiKey   string
	results  int
	client   *http.Client
	endpoint string
}

// NewSerpAPI builds a SerpAPI provider returning up to results organic hits
// per query.
func NewSerpAPI(apiKey string, results int) *SerpAPI {
	if results <= 0 {
		results = 10
	}
	return &SerpAPI{
		apiKey:   apiKey,
		results:  results,
		client:   &http.Client{Timeout: 20 * time.Second},
		endpoint: serpAPIEndpoint,
	}
}

func (s *SerpAPI) Name() string { return "serpapi" }

type serpAPIResponse struct {
	Organic []struct {
		Link string `json:"link"`
	} `json:"organic_results"`
}

// Search runs one query and returns directory listing URLs from the
// organic results.
func (s *SerpAPI) Search(ctx context.Context, query string) ([]string, error) {
	q := url.Values{}
	q.Set("engine", "google")
	q.Set("q", query)
	q.Set("num", strconv.Itoa(s.results))
	q.Set("api_key", s.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build serpapi request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("serpapi search %q: %w", query, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("serpapi search %q: status %d", query, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read serpapi response: %w", err)
	}
	var parsed serpAPIResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode serpapi response: %w", err)
	}

	links := make([]string, 0, len(parsed.Organic))
	for _, r := range parsed.Organic {
		links = append(links, r.Link)
	}
	return FilterListingURLs(links), nil
}
