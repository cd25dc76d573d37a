// Package postgres provides the Postgres-backed lead store.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/forgelabs/leadgrid/internal/lead"
)

// Config controls the Postgres connection pool.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// querier is the slice of pgxpool.Pool the store uses; pgxmock satisfies it.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Store persists leads in a Postgres table keyed by normalized company name.
type Store struct {
	pool querier
}

// New connects a pool and returns a Store backed by it.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{pool: pool}, nil
}

// NewWithPool constructs a Store from an existing pool (primarily for testing).
func NewWithPool(pool querier) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &Store{pool: pool}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS leads (
	id             BIGSERIAL PRIMARY KEY,
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
	scraped_date   TIMESTAMPTZ NOT NULL,
	verified       BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE INDEX IF NOT EXISTS leads_location_idx ON leads (location);
CREATE INDEX IF NOT EXISTS leads_industry_idx ON leads (industry);
CREATE INDEX IF NOT EXISTS leads_source_idx ON leads (source);
CREATE INDEX IF NOT EXISTS leads_scraped_date_idx ON leads (scraped_date);
`

// Migrate creates the leads table and its indexes if missing.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate leads schema: %w", err)
	}
	return nil
}

// upsertSQL merges a scraped lead into an existing row without ever
// overwriting populated contact fields. Location and company type may
// replace an Other/Unmatched placeholder with a canonical value, never the
// other way around. xmax = 0 distinguishes a fresh insert from a merge.
const upsertSQL = `
INSERT INTO leads (
	company_key, company_name, contact_person, email, phone, website,
	industry, company_type, location, source, scraped_date, verified
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,FALSE)
ON CONFLICT (company_key) DO UPDATE SET
	contact_person = CASE WHEN leads.contact_person = '' THEN EXCLUDED.contact_person ELSE leads.contact_person END,
	email          = CASE WHEN leads.email = ''          THEN EXCLUDED.email          ELSE leads.email          END,
	phone          = CASE WHEN leads.phone = ''          THEN EXCLUDED.phone          ELSE leads.phone          END,
	website        = CASE WHEN leads.website = ''        THEN EXCLUDED.website        ELSE leads.website        END,
	industry       = CASE WHEN leads.industry IN ('', 'General')
	                      THEN EXCLUDED.industry ELSE leads.industry END,
	company_type   = CASE WHEN leads.company_type IN ('', $12) AND EXCLUDED.company_type <> $12
	                      THEN EXCLUDED.company_type ELSE leads.company_type END,
	location       = CASE WHEN leads.location IN ('', $12) AND EXCLUDED.location <> $12
	                      THEN EXCLUDED.location ELSE leads.location END
RETURNING id, (xmax = 0) AS inserted
`

// Upsert inserts a new lead or merges into the existing row for the same
// company key.
func (s *Store) Upsert(ctx context.Context, l lead.Lead) (lead.UpsertOutcome, int64, error) {
	key := lead.CompanyKey(l.CompanyName)
	if key == "" {
		return "", 0, lead.ErrRejected
	}

	var (
		id       int64
		inserted bool
	)
	err := s.pool.QueryRow(ctx, upsertSQL,
		key, l.CompanyName, l.ContactPerson, l.Email, l.Phone, l.Website,
		l.Industry, l.CompanyType, l.Location, string(l.Source), l.ScrapedDate,
		lead.Unmatched,
	).Scan(&id, &inserted)
	if err != nil {
		return "", 0, fmt.Errorf("upsert lead %q: %w", l.CompanyName, err)
	}
	if inserted {
		return lead.UpsertInserted, id, nil
	}
	return lead.UpsertMerged, id, nil
}

// MarkVerified records enrichment results. Unlike scraping, enrichment is
// authoritative for contact fields and may overwrite them.
func (s *Store) MarkVerified(ctx context.Context, id int64, email, contactPerson string) error {
	tag, err := s.pool.Exec(ctx, `
UPDATE leads SET
	email          = CASE WHEN $2 <> '' THEN $2 ELSE email END,
	contact_person = CASE WHEN $3 <> '' THEN $3 ELSE contact_person END,
	verified       = TRUE
WHERE id = $1`, id, email, contactPerson)
	if err != nil {
		return fmt.Errorf("mark lead %d verified: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("mark lead %d verified: %w", id, pgx.ErrNoRows)
	}
	return nil
}

// Query returns leads matching the filter.
func (s *Store) Query(ctx context.Context, f lead.Filter) ([]lead.Lead, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.Location != "" {
		where = append(where, "location = "+arg(f.Location))
	}
	if f.Industry != "" {
		where = append(where, "industry = "+arg(f.Industry))
	}
	if f.Source != "" {
		where = append(where, "source = "+arg(string(f.Source)))
	}
	if !f.ScrapedAfter.IsZero() {
		where = append(where, "scraped_date > "+arg(f.ScrapedAfter))
	}
	if f.Unverified {
		where = append(where, "verified = FALSE")
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
		q += " LIMIT " + arg(f.Limit)
	}

	rows, err := s.pool.Query(ctx, q, args...)
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

// Close releases the underlying pool.
func (s *Store) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}

// IsNotFound reports whether err came from an update that matched no row.
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
