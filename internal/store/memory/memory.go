// Package memory provides an in-process lead store for tests and dry runs.
// It applies the same merge rules as the durable stores.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/forgelabs/leadgrid/internal/lead"
)

// Store keeps leads in a map guarded by a mutex.
type Store struct {
	mu     sync.Mutex
	byKey  map[string]*lead.Lead
	nextID int64
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{byKey: make(map[string]*lead.Lead), nextID: 1}
}

// Migrate is a no-op for the in-memory store.
func (s *Store) Migrate(context.Context) error { return nil }

// Upsert inserts or merges under the company-key lock.
func (s *Store) Upsert(_ context.Context, l lead.Lead) (lead.UpsertOutcome, int64, error) {
	key := lead.CompanyKey(l.CompanyName)
	if key == "" {
		return "", 0, lead.ErrRejected
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.byKey[key]; ok {
		merge(existing, l)
		return lead.UpsertMerged, existing.ID, nil
	}

	l.ID = s.nextID
	s.nextID++
	l.Verified = false
	s.byKey[key] = &l
	return lead.UpsertInserted, l.ID, nil
}

func merge(dst *lead.Lead, src lead.Lead) {
	if dst.ContactPerson == "" {
		dst.ContactPerson = src.ContactPerson
	}
	if dst.Email == "" {
		dst.Email = src.Email
	}
	if dst.Phone == "" {
		dst.Phone = src.Phone
	}
	if dst.Website == "" {
		dst.Website = src.Website
	}
	if (dst.Industry == "" || dst.Industry == "General") && src.Industry != "" {
		dst.Industry = src.Industry
	}
	if (dst.CompanyType == "" || dst.CompanyType == lead.Unmatched) && src.CompanyType != "" && src.CompanyType != lead.Unmatched {
		dst.CompanyType = src.CompanyType
	}
	if (dst.Location == "" || dst.Location == lead.Unmatched) && src.Location != "" && src.Location != lead.Unmatched {
		dst.Location = src.Location
	}
}

// MarkVerified overwrites contact fields with enrichment results.
func (s *Store) MarkVerified(_ context.Context, id int64, email, contactPerson string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, l := range s.byKey {
		if l.ID != id {
			continue
		}
		if email != "" {
			l.Email = email
		}
		if contactPerson != "" {
			l.ContactPerson = contactPerson
		}
		l.Verified = true
		return nil
	}
	return fmt.Errorf("lead %d not found", id)
}

// Query filters and orders a snapshot of the stored leads.
func (s *Store) Query(_ context.Context, f lead.Filter) ([]lead.Lead, error) {
	s.mu.Lock()
	var out []lead.Lead
	for _, l := range s.byKey {
		if f.Location != "" && l.Location != f.Location {
			continue
		}
		if f.Industry != "" && l.Industry != f.Industry {
			continue
		}
		if f.Source != "" && l.Source != f.Source {
			continue
		}
		if !f.ScrapedAfter.IsZero() && !l.ScrapedDate.After(f.ScrapedAfter) {
			continue
		}
		if f.Unverified && l.Verified {
			continue
		}
		if f.MissingEmail && l.Email != "" {
			continue
		}
		out = append(out, *l)
	}
	s.mu.Unlock()

	if f.OrderOldest {
		sort.Slice(out, func(i, j int) bool {
			if !out[i].ScrapedDate.Equal(out[j].ScrapedDate) {
				return out[i].ScrapedDate.Before(out[j].ScrapedDate)
			}
			return out[i].ID < out[j].ID
		})
	} else {
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error { return nil }
