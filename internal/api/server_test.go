package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/forgelabs/leadgrid/internal/lead"
	"github.com/forgelabs/leadgrid/internal/store/memory"
)

func newTestServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()
	store := memory.New()
	summary := func() lead.RunSummary {
		return lead.RunSummary{Fetched: 10, Inserted: 4, Merged: 2}
	}
	return NewServer(store, summary, zaptest.NewLogger(t)), store
}

func seedLeads(t *testing.T, store *memory.Store) {
	t.Helper()
	for _, l := range []lead.Lead{
		{CompanyName: "Sharma Forgings", Location: "Pune", Industry: "Forging",
			Source: lead.SourceIndiaMART, ScrapedDate: time.Now().UTC()},
		{CompanyName: "Patel Pumps", Location: "Vadodara", Industry: "Industrial Machinery",
			Source: lead.SourceJustDial, ScrapedDate: time.Now().UTC()},
	} {
		_, _, err := store.Upsert(context.Background(), l)
		require.NoError(t, err)
	}
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestReadyz(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListLeads(t *testing.T) {
	t.Parallel()

	srv, store := newTestServer(t)
	seedLeads(t, store)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/leads?location=Pune", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Leads []lead.Lead `json:"leads"`
		Count int         `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "Sharma Forgings", body.Leads[0].CompanyName)
}

func TestListLeadsBadParams(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)

	for _, path := range []string{
		"/v1/leads?source=craigslist",
		"/v1/leads?limit=0",
		"/v1/leads?limit=9999",
		"/v1/leads?limit=abc",
	} {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, "path %s", path)
	}
}

func TestListLeadsEmptyStore(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/leads", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"leads":[],"count":0}`, rec.Body.String())
}

func TestGetSummary(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/summary", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got lead.RunSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 10, got.Fetched)
	assert.Equal(t, 4, got.Inserted)
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
