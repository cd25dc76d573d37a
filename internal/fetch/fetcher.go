package fetch

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/forgelabs/leadgrid/internal/lead"
	"github.com/forgelabs/leadgrid/internal/metrics"
)

// Config controls fetcher behavior.
type Config struct {
	UserAgent  string
	Timeout    time.Duration
	MaxRetries int
	Backoff    time.Duration
}

// Fetcher implements lead.Fetcher with a shared rate gate, robots.txt
// enforcement and bounded retries with fixed backoff.
type Fetcher struct {
	cfg           Config
	gate          *Gate
	robots        RobotsPolicy
	sleeper       lead.Sleeper
	logger        *zap.Logger
	baseCollector *colly.Collector
}

// New builds a Fetcher. The gate is shared by reference: every caller that
// holds this fetcher paces through the same limiter.
func New(cfg Config, gate *Gate, robots RobotsPolicy, sleeper lead.Sleeper, logger *zap.Logger) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 12 * time.Second
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 5 * time.Second
	}

	c := colly.NewCollector()
	// Robots is enforced by our own policy so the check can short-circuit
	// before any network traffic; colly must not fetch robots.txt again.
	c.IgnoreRobotsTxt = true
	// Retries revisit the same URL on purpose.
	c.AllowURLRevisit = true
	if cfg.UserAgent != "" {
		c.UserAgent = cfg.UserAgent
	}
	c.SetRequestTimeout(cfg.Timeout)
	c.WithTransport(newHTTPTransport())

	return &Fetcher{
		cfg:           cfg,
		gate:          gate,
		robots:        robots,
		sleeper:       sleeper,
		logger:        logger,
		baseCollector: c,
	}
}

// Fetch retrieves one document. It consults robots.txt before any request,
// waits on the shared gate for each attempt, and retries transient failures
// (timeout, 5xx, connection reset) up to MaxRetries times with a fixed
// backoff. A 403 or robots disallow is definitive and returns Blocked
// without retrying.
func (f *Fetcher) Fetch(ctx context.Context, req lead.FetchRequest) (lead.Document, error) {
	site := string(req.Source)
	if !f.robots.Allowed(ctx, req.URL) {
		metrics.ObserveFetch(site, "blocked", 0)
		return lead.Document{}, &lead.FetchError{
			Kind: lead.FetchBlocked,
			URL:  req.URL,
			Err:  errors.New("disallowed by robots.txt"),
		}
	}

	attempts := f.cfg.MaxRetries + 1
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := f.sleeper.Sleep(ctx, f.cfg.Backoff); err != nil {
				return lead.Document{}, &lead.FetchError{Kind: lead.FetchTimeout, URL: req.URL, Err: err}
			}
		}
		if err := f.gate.Wait(ctx); err != nil {
			return lead.Document{}, &lead.FetchError{Kind: lead.FetchTimeout, URL: req.URL, Err: err}
		}

		doc, status, err := f.attempt(ctx, req)
		if err == nil {
			metrics.ObserveFetch(site, "ok", doc.Duration)
			return doc, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			metrics.ObserveFetch(site, "timeout", 0)
			return lead.Document{}, &lead.FetchError{Kind: lead.FetchTimeout, URL: req.URL, Err: lastErr}
		}
		if status == http.StatusForbidden {
			metrics.ObserveFetch(site, "blocked", 0)
			return lead.Document{}, &lead.FetchError{Kind: lead.FetchBlocked, URL: req.URL, Err: lastErr}
		}
		if !isTransient(status, err) {
			metrics.ObserveFetch(site, "failed", 0)
			return lead.Document{}, &lead.FetchError{Kind: lead.FetchExhausted, URL: req.URL, Err: lastErr}
		}
		f.logger.Debug("transient fetch failure",
			zap.String("url", req.URL),
			zap.Int("attempt", attempt+1),
			zap.Int("status", status),
			zap.Error(err))
	}

	metrics.ObserveFetch(site, "exhausted", 0)
	return lead.Document{}, &lead.FetchError{Kind: lead.FetchExhausted, URL: req.URL, Err: lastErr}
}

// attempt executes a single HTTP GET via a cloned collector. The returned
// status is nonzero when the server answered at all.
func (f *Fetcher) attempt(ctx context.Context, req lead.FetchRequest) (lead.Document, int, error) {
	collector := f.baseCollector.Clone()

	var (
		mu       sync.Mutex
		doc      lead.Document
		status   int
		fetchErr error
	)
	start := time.Now()

	collector.OnRequest(func(r *colly.Request) {
		for key, values := range req.Headers {
			for _, v := range values {
				r.Headers.Add(key, v)
			}
		}
	})
	collector.OnResponse(func(r *colly.Response) {
		mu.Lock()
		defer mu.Unlock()
		status = r.StatusCode
		doc = lead.Document{
			URL:        r.Request.URL.String(),
			Source:     req.Source,
			StatusCode: r.StatusCode,
			Headers:    r.Headers.Clone(),
			Body:       append([]byte(nil), r.Body...),
			Duration:   time.Since(start),
		}
	})
	collector.OnError(func(r *colly.Response, err error) {
		mu.Lock()
		defer mu.Unlock()
		if r != nil {
			status = r.StatusCode
		}
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(req.URL)
	}()

	select {
	case <-ctx.Done():
		return lead.Document{}, 0, ctx.Err()
	case visitErr := <-done:
		mu.Lock()
		defer mu.Unlock()
		if fetchErr != nil {
			return lead.Document{}, status, fetchErr
		}
		if visitErr != nil {
			return lead.Document{}, status, visitErr
		}
		return doc, status, nil
	}
}

func isTransient(status int, err error) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	return strings.Contains(err.Error(), "connection reset")
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
