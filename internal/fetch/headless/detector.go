package headless

import (
	"bytes"
	"strings"

	"github.com/forgelabs/leadgrid/internal/lead"
)

// Detector decides when a statically-fetched page needs browser rendering.
type Detector struct {
	BodyLengthThreshold int
}

// NewDetector creates a detector. A zero threshold uses the default.
func NewDetector(threshold int) *Detector {
	if threshold == 0 {
		threshold = 2048
	}
	return &Detector{BodyLengthThreshold: threshold}
}

var spaMarkers = [][]byte{
	[]byte("__next"),
	[]byte(`id="root"`),
	[]byte(`id="app"`),
	[]byte("data-reactroot"),
}

// ShouldRender reports whether the static document looks like an empty
// client-side shell worth re-fetching with a browser.
func (d *Detector) ShouldRender(doc lead.Document) bool {
	if doc.StatusCode != 200 || doc.Rendered {
		return false
	}
	body := doc.Body
	if len(body) == 0 {
		return true
	}
	if len(body) < d.BodyLengthThreshold && scriptDensityHigh(body) {
		return true
	}
	for _, marker := range spaMarkers {
		if bytes.Contains(body, marker) {
			return true
		}
	}
	return false
}

func scriptDensityHigh(body []byte) bool {
	lower := strings.ToLower(string(body))
	total := len(lower)
	if total == 0 {
		return false
	}

	const (
		openTag  = "<script"
		closeTag = "</script>"
	)
	coverage := 0
	pos := 0
	for {
		relStart := strings.Index(lower[pos:], openTag)
		if relStart == -1 {
			break
		}
		start := pos + relStart
		tagClose := strings.IndexByte(lower[start:], '>')
		if tagClose == -1 {
			coverage += total - start
			break
		}
		contentStart := start + tagClose + 1
		relEnd := strings.Index(lower[contentStart:], closeTag)
		if relEnd == -1 {
			coverage += total - start
			break
		}
		end := contentStart + relEnd + len(closeTag)
		coverage += end - start
		pos = end
	}

	return coverage*2 > total
}
