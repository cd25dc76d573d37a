package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/forgelabs/leadgrid/internal/lead"
	"github.com/forgelabs/leadgrid/internal/metrics"
)

type recordingSleeper struct {
	slept []time.Duration
}

func (s *recordingSleeper) Sleep(_ context.Context, d time.Duration) error {
	s.slept = append(s.slept, d)
	return nil
}

type denyAllPolicy struct{}

func (denyAllPolicy) Allowed(context.Context, string) bool { return false }

func newTestFetcher(sleeper lead.Sleeper, robots RobotsPolicy) *Fetcher {
	metrics.Init()
	cfg := Config{
		UserAgent:  "leadgrid-test",
		Timeout:    2 * time.Second,
		MaxRetries: 3,
		Backoff:    5 * time.Second,
	}
	// Zero rate disables pacing so retry tests stay fast.
	return New(cfg, NewGate("test", 0), robots, sleeper, zap.NewNop())
}

func TestFetchSuccess(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html><body>listings</body></html>"))
	}))
	defer srv.Close()

	f := newTestFetcher(&recordingSleeper{}, allowAllPolicy{})

	doc, err := f.Fetch(context.Background(), lead.FetchRequest{URL: srv.URL, Source: lead.SourceIndiaMART})
	require.NoError(t, err)
	assert.Equal(t, 200, doc.StatusCode)
	assert.Contains(t, string(doc.Body), "listings")
	assert.Equal(t, lead.SourceIndiaMART, doc.Source)
}

func TestFetchForbiddenIsBlockedWithoutRetry(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	sleeper := &recordingSleeper{}
	f := newTestFetcher(sleeper, allowAllPolicy{})

	_, err := f.Fetch(context.Background(), lead.FetchRequest{URL: srv.URL, Source: lead.SourceJustDial})
	require.Error(t, err)
	assert.True(t, lead.IsBlocked(err))
	assert.Equal(t, int32(1), hits.Load(), "blocked result must not be retried")
	assert.Empty(t, sleeper.slept)
}

func TestFetchRobotsDisallowShortCircuits(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	f := newTestFetcher(&recordingSleeper{}, denyAllPolicy{})

	_, err := f.Fetch(context.Background(), lead.FetchRequest{URL: srv.URL, Source: lead.SourceJustDial})
	require.Error(t, err)
	assert.True(t, lead.IsBlocked(err))
	assert.Equal(t, int32(0), hits.Load(), "disallowed path must not reach the network")
}

func TestFetchExhaustedAfterThreeRetries(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	sleeper := &recordingSleeper{}
	f := newTestFetcher(sleeper, allowAllPolicy{})

	_, err := f.Fetch(context.Background(), lead.FetchRequest{URL: srv.URL, Source: lead.SourceTradeIndia})
	require.Error(t, err)

	var fe *lead.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, lead.FetchExhausted, fe.Kind)

	assert.Equal(t, int32(4), hits.Load(), "initial attempt plus exactly 3 retries")
	require.Len(t, sleeper.slept, 3)
	for _, d := range sleeper.slept {
		assert.Equal(t, 5*time.Second, d)
	}
}

func TestFetchRecoversAfterTransientFailures(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := newTestFetcher(&recordingSleeper{}, allowAllPolicy{})

	doc, err := f.Fetch(context.Background(), lead.FetchRequest{URL: srv.URL, Source: lead.SourceIndiaMART})
	require.NoError(t, err)
	assert.Equal(t, 200, doc.StatusCode)
	assert.Equal(t, int32(3), hits.Load())
}

func TestFetchCanceledContextReturnsTimeout(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	f := newTestFetcher(&recordingSleeper{}, allowAllPolicy{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := f.Fetch(ctx, lead.FetchRequest{URL: srv.URL, Source: lead.SourceIndiaMART})
	require.Error(t, err)

	var fe *lead.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, lead.FetchTimeout, fe.Kind)
}

func TestGatePacesCalls(t *testing.T) {
	t.Parallel()

	// 50 requests/second: 6 sequential waits need at least 5 intervals.
	gate := NewGate("pace", 50)
	start := time.Now()
	for i := 0; i < 6; i++ {
		require.NoError(t, gate.Wait(context.Background()))
	}
	elapsed := time.Since(start)
	assert.GreaterOrEqual(t, elapsed, 100*time.Millisecond)
}
