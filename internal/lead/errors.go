package lead

import (
	"errors"
	"fmt"
)

// FetchErrorKind classifies terminal fetch failures.
type FetchErrorKind string

// Fetch failure kinds.
const (
	// FetchBlocked means robots.txt or the remote host forbids the request.
	// Blocked is definitive: the fetcher never retries it, and the worker
	// skips the site for the remainder of the run.
	FetchBlocked FetchErrorKind = "blocked"
	// FetchExhausted means every retry attempt failed on a transient error.
	FetchExhausted FetchErrorKind = "exhausted"
	// FetchTimeout means the request exceeded its deadline.
	FetchTimeout FetchErrorKind = "timeout"
)

// FetchError is the terminal error returned by the rate-limited fetcher.
type FetchError struct {
	Kind FetchErrorKind
	URL  string
	Err  error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("fetch %s: %s", e.URL, e.Kind)
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsBlocked reports whether err is a definitive Blocked fetch failure.
func IsBlocked(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Kind == FetchBlocked
}

// ErrNoMatch is returned by enrichment providers that completed a lookup but
// found nothing for the company. It is expected, not an error condition for
// the run: the lead stays unverified and is retried in a later batch.
var ErrNoMatch = errors.New("no enrichment match")

// ErrRejected is returned by the normalizer when a candidate has no usable
// company name. All other field failures degrade to absent values instead.
var ErrRejected = errors.New("candidate rejected")
