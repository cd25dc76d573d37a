// Package archive persists raw page snapshots so parser changes can be
// replayed against pages exactly as they were fetched.
package archive

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/forgelabs/leadgrid/internal/lead"
)

// Sink stores one raw document snapshot and returns its location.
type Sink interface {
	Put(ctx context.Context, doc lead.Document) (string, error)
}

// FSSink writes snapshots under a base directory, one file per document,
// named by host and content hash so re-fetching identical content is
// idempotent.
type FSSink struct {
	baseDir string
}

// NewFSSink creates the base directory if needed and verifies it is
// writable.
func NewFSSink(baseDir string) (*FSSink, error) {
	if strings.TrimSpace(baseDir) == "" {
		return nil, fmt.Errorf("archive directory is required")
	}
	if err := os.MkdirAll(baseDir, 0o750); err != nil {
		return nil, fmt.Errorf("create archive directory: %w", err)
	}
	probe := filepath.Join(baseDir, ".writable")
	if err := os.WriteFile(probe, nil, 0o600); err != nil {
		return nil, fmt.Errorf("archive directory is not writable: %w", err)
	}
	if err := os.Remove(probe); err != nil {
		return nil, fmt.Errorf("clean archive probe: %w", err)
	}
	return &FSSink{baseDir: baseDir}, nil
}

// Put writes the document body under <base>/<host>/<hash>.html and returns
// the file path.
func (s *FSSink) Put(_ context.Context, doc lead.Document) (string, error) {
	name, err := snapshotName(doc)
	if err != nil {
		return "", err
	}
	full := filepath.Join(s.baseDir, name)
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return "", fmt.Errorf("create snapshot directory: %w", err)
	}
	if err := os.WriteFile(full, doc.Body, 0o600); err != nil {
		return "", fmt.Errorf("write snapshot %s: %w", name, err)
	}
	return full, nil
}

// MemorySink keeps snapshots in a map for tests and dry runs.
type MemorySink struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

// NewMemorySink returns an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{blobs: make(map[string][]byte)}
}

// Put stores the body under the computed snapshot name.
func (s *MemorySink) Put(_ context.Context, doc lead.Document) (string, error) {
	name, err := snapshotName(doc)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.blobs[name] = append([]byte(nil), doc.Body...)
	s.mu.Unlock()
	return name, nil
}

// Get returns a stored snapshot body by name.
func (s *MemorySink) Get(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blobs[name]
	return b, ok
}

// Len reports the number of stored snapshots.
func (s *MemorySink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blobs)
}

// snapshotName derives <host>/<sha256>.html from the document, so identical
// content re-fetched later lands on the same file.
func snapshotName(doc lead.Document) (string, error) {
	u, err := url.Parse(doc.URL)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("snapshot needs a valid document URL, got %q", doc.URL)
	}
	sum := sha256.Sum256(doc.Body)
	return filepath.Join(
		strings.ToLower(u.Hostname()),
		hex.EncodeToString(sum[:])+".html",
	), nil
}
