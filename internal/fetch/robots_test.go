package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRobotsEnforcerDisallowedPath(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = w.Write([]byte("User-agent: *\nDisallow: /private\n"))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	enforcer := NewRobotsEnforcer(true, "leadgrid-test", zap.NewNop())

	assert.False(t, enforcer.Allowed(context.Background(), srv.URL+"/private/page"))
	assert.True(t, enforcer.Allowed(context.Background(), srv.URL+"/catalog"))
}

func TestRobotsEnforcerCachesPerHost(t *testing.T) {
	t.Parallel()

	var robotsHits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			robotsHits.Add(1)
			_, _ = w.Write([]byte("User-agent: *\nDisallow: /blocked\n"))
		}
	}))
	defer srv.Close()

	enforcer := NewRobotsEnforcer(true, "leadgrid-test", zap.NewNop())

	for i := 0; i < 5; i++ {
		enforcer.Allowed(context.Background(), srv.URL+"/blocked")
		enforcer.Allowed(context.Background(), srv.URL+"/open")
	}
	assert.Equal(t, int32(1), robotsHits.Load(), "robots.txt fetched once per host")
}

func TestRobotsEnforcerUnreachableAllows(t *testing.T) {
	t.Parallel()

	enforcer := NewRobotsEnforcer(true, "leadgrid-test", zap.NewNop())

	// Closed port: robots fetch fails, access is allowed rather than wedged.
	assert.True(t, enforcer.Allowed(context.Background(), "http://127.0.0.1:1/page"))
}

func TestRobotsEnforcerDisabled(t *testing.T) {
	t.Parallel()

	policy := NewRobotsEnforcer(false, "leadgrid-test", zap.NewNop())
	require.True(t, policy.Allowed(context.Background(), "http://example.com/anything"))
}
