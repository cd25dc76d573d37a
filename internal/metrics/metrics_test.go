package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitIsIdempotent(t *testing.T) {
	Init()
	Init()

	// These must not panic after double Init.
	ObserveFetch("IndiaMART", "ok", 120*time.Millisecond)
	ObserveUpsert("IndiaMART", "inserted")
	ObserveReject("empty_company_name")
	ObserveGateDelay("scrape", 5*time.Millisecond)
	ObserveEnrichLookup("hunter", "match")
	WorkerStarted()
	WorkerStopped()
}

func TestHandlerServesMetrics(t *testing.T) {
	Init()
	ObserveFetch("JustDial", "blocked", time.Millisecond)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "leadgrid_fetches_total")
}
