// Package sqlite provides a single-file lead store for machines without a
// Postgres instance. It uses the pure-Go modernc driver so no cgo toolchain
// is needed.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/forgelabs/leadgrid/internal/lead"
)

// Store persists leads in a local SQLite database.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at path and configures WAL mode.
func New(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("database.path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// The upsert does a read-check-write inside a transaction, so writes
	// must be serialized onto one connection.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec %s: %w", pragma, err)
		}
	}
	return &Store{db: db}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS leads (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	company_key    TEXT NOT NULL UNIQUE,
	company_name   TEXT NOT NULL,
	contact_person TEXT NOT NULL DEFAULT '',
	email          TEXT NOT NULL DEFAULT '',
	phone          TEXT NOT NULL DEFAULT '',
	website        TEXT NOT NULL DEFAULT '',
	industry       TEXT NOT NULL DEFAULT '',
	company_type   TEXT NOT NULL DEFAULT '',
	location       TEXT NOT NULL DEFAULT '',
	source         TEXT NOT NULL DEFAULT '',
	scraped_date   DATETIME NOT NULL,
	verified       INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS leads_location_idx ON leads (location);
CREATE INDEX IF NOT EXISTS leads_industry_idx ON leads (industry);
CREATE INDEX IF NOT EXISTS leads_source_idx ON leads (source);
CREATE INDEX IF NOT EXISTS leads_scraped_date_idx ON leads (scraped_date);
`

// Migrate creates the leads table and its indexes if missing.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate leads schema: %w", err)
	}
	return nil
}

// Upsert inserts a new lead or merges into the existing row for the same
// company key. The merge only fills empty fields; a canonical location or
// company type may replace an Other/Unmatched placeholder but never another
// canonical value.
func (s *Store) Upsert(ctx context.Context, l lead.Lead) (lead.UpsertOutcome, int64, error) {
	key := lead.CompanyKey(l.CompanyName)
	if key == "" {
		return "", 0, lead.ErrRejected
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", 0, fmt.Errorf("begin upsert tx: %w", err)
	}
	defer tx.Rollback()

	var existing lead.Lead
	err = tx.QueryRowContext(ctx, `
SELECT id, contact_person, email, phone, website, industry, company_type, location
FROM leads WHERE company_key = ?`, key).Scan(
		&existing.ID, &existing.ContactPerson, &existing.Email, &existing.Phone,
		&existing.Website, &existing.Industry, &existing.CompanyType, &existing.Location,
	)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		res, err := tx.ExecContext(ctx, `
INSERT INTO leads (
	company_key, company_name, contact_person, email, phone, website,
	industry, company_type, location, source, scraped_date, verified
) VALUES (?,?,?,?,?,?,?,?,?,?,?,0)`,
			key, l.CompanyName, l.ContactPerson, l.Email, l.Phone, l.Website,
			l.Industry, l.CompanyType, l.Location, string(l.Source), l.ScrapedDate)
		if err != nil {
			return "", 0, fmt.Errorf("insert lead %q: %w", l.CompanyName, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return "", 0, fmt.Errorf("insert lead %q: %w", l.CompanyName, err)
		}
		if err := tx.Commit(); err != nil {
			return "", 0, fmt.Errorf("commit insert: %w", err)
		}
		return lead.UpsertInserted, id, nil
	case err != nil:
		return "", 0, fmt.Errorf("lookup lead %q: %w", l.CompanyName, err)
	}

	merged := mergeFields(existing, l)
	if _, err := tx.ExecContext(ctx, `
UPDATE leads SET contact_person = ?, email = ?, phone = ?, website = ?,
	industry = ?, company_type = ?, location = ?
WHERE id = ?`,
		merged.ContactPerson, merged.Email, merged.Phone, merged.Website,
		merged.Industry, merged.CompanyType, merged.Location, existing.ID); err != nil {
		return "", 0, fmt.Errorf("merge lead %q: %w", l.CompanyName, err)
	}
	if err := tx.Commit(); err != nil {
		return "", 0, fmt.Errorf("commit merge: %w", err)
	}
	return lead.UpsertMerged, existing.ID, nil
}

// mergeFields applies the fill-in rules to an existing row.
func mergeFields(existing, incoming lead.Lead) lead.Lead {
	out := existing
	if out.ContactPerson == "" {
		out.ContactPerson = incoming.ContactPerson
	}
	if out.Email == "" {
		out.Email = incoming.Email
	}
	if out.Phone == "" {
		out.Phone = incoming.Phone
	}
	if out.Website == "" {
		out.Website = incoming.Website
	}
	if out.Industry == "" || out.Industry == "General" {
		if incoming.Industry != "" {
			out.Industry = incoming.Industry
		}
	}
	if (out.CompanyType == "" || out.CompanyType == lead.Unmatched) && incoming.CompanyType != lead.Unmatched && incoming.CompanyType != "" {
		out.CompanyType = incoming.CompanyType
	}
	if (out.Location == "" || out.Location == lead.Unmatched) && incoming.Location != lead.Unmatched && incoming.Location != "" {
		out.Location = incoming.Location
	}
	return out
}

// MarkVerified records enrichment results. Enrichment is authoritative and
// may overwrite populated contact fields.
func (s *Store) MarkVerified(ctx context.Context, id int64, email, contactPerson string) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE leads SET
	email          = CASE WHEN ? <> '' THEN ? ELSE email END,
	contact_person = CASE WHEN ? <> '' THEN ? ELSE contact_person END,
	verified       = 1
WHERE id = ?`, email, email, contactPerson, contactPerson, id)
	if err != nil {
		return fmt.Errorf("mark lead %d verified: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark lead %d verified: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("mark lead %d verified: %w", id, sql.ErrNoRows)
	}
	return nil
}

// Query returns leads matching the filter.
func (s *Store) Query(ctx context.Context, f lead.Filter) ([]lead.Lead, error) {
	var (
		where []string
		args  []any
	)
	if f.Location != "" {
		where = append(where, "location = ?")
		args = append(args, f.Location)
	}
	if f.Industry != "" {
		where = append(where, "industry = ?")
		args = append(args, f.Industry)
	}
	if f.Source != "" {
		where = append(where, "source = ?")
		args = append(args, string(f.Source))
	}
	if !f.ScrapedAfter.IsZero() {
		where = append(where, "scraped_date > ?")
		args = append(args, f.ScrapedAfter)
	}
	if f.Unverified {
		where = append(where, "verified = 0")
	}
	if f.MissingEmail {
		where = append(where, "email = ''")
	}

	q := `SELECT id, company_name, contact_person, email, phone, website,
	industry, company_type, location, source, scraped_date, verified FROM leads`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	if f.OrderOldest {
		q += " ORDER BY scraped_date ASC, id ASC"
	} else {
		q += " ORDER BY id ASC"
	}
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query leads: %w", err)
	}
	defer rows.Close()

	var out []lead.Lead
	for rows.Next() {
		var (
			l   lead.Lead
			src string
		)
		if err := rows.Scan(&l.ID, &l.CompanyName, &l.ContactPerson, &l.Email,
			&l.Phone, &l.Website, &l.Industry, &l.CompanyType, &l.Location,
			&src, &l.ScrapedDate, &l.Verified); err != nil {
			return nil, fmt.Errorf("scan lead row: %w", err)
		}
		l.Source = lead.Source(src)
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lead rows: %w", err)
	}
	return out, nil
}

// Close shuts the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
