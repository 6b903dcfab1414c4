// Package sqlite implements core.Store on a single-file SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/JonMunkholm/companies/internal/core"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const schema = `
CREATE TABLE IF NOT EXISTS companies (
	cnpj         TEXT PRIMARY KEY,
	denom_social TEXT NOT NULL,
	sit          TEXT NOT NULL,
	updated_at   TEXT NOT NULL
)`

// Store is a core.Store backed by SQLite.
//
// SQLite allows one writer at a time, so the pool is capped at a single
// connection and sessions are serialized.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path.
// ":memory:" gives a private in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000`); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure sqlite: %w", err)
	}
	return &Store{db: db}, nil
}

// EnsureSchema creates the companies table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// WithSession runs fn inside a transaction.
func (s *Store) WithSession(ctx context.Context, fn func(core.Session) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() // No-op if already committed

	if err := fn(&session{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", mapError(err))
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

type session struct {
	tx *sql.Tx
}

func (s *session) FindByKey(ctx context.Context, registryCode string) (core.Company, bool, error) {
	row := s.tx.QueryRowContext(ctx,
		`SELECT cnpj, denom_social, sit, updated_at FROM companies WHERE cnpj = ?`,
		registryCode,
	)
	c, err := scanCompany(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Company{}, false, nil
	}
	if err != nil {
		return core.Company{}, false, fmt.Errorf("find company %s: %w", registryCode, err)
	}
	return c, true, nil
}

func (s *session) InsertBatch(ctx context.Context, companies []core.Company) error {
	if len(companies) == 0 {
		return nil
	}

	stmt, err := s.tx.PrepareContext(ctx,
		`INSERT INTO companies (cnpj, denom_social, sit, updated_at) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range companies {
		if _, err := stmt.ExecContext(ctx, c.RegistryCode, c.LegalName, c.StatusCode, formatTime(c.UpdatedAt)); err != nil {
			return fmt.Errorf("insert company %s: %w", c.RegistryCode, mapError(err))
		}
	}
	return nil
}

func (s *session) Insert(ctx context.Context, c core.Company) (core.Company, error) {
	if err := s.InsertBatch(ctx, []core.Company{c}); err != nil {
		return core.Company{}, err
	}
	return c, nil
}

func (s *session) List(ctx context.Context, offset, limit int) ([]core.Company, error) {
	rows, err := s.tx.QueryContext(ctx,
		`SELECT cnpj, denom_social, sit, updated_at FROM companies ORDER BY rowid LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	defer rows.Close()

	var companies []core.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCompany(sc scanner) (core.Company, error) {
	var (
		c       core.Company
		updated string
	)
	if err := sc.Scan(&c.RegistryCode, &c.LegalName, &c.StatusCode, &updated); err != nil {
		return core.Company{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, updated)
	if err != nil {
		return core.Company{}, fmt.Errorf("parse updated_at %q: %w", updated, err)
	}
	c.UpdatedAt = t.UTC()
	return c, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// mapError translates key constraint failures into core.ErrDuplicateKey.
func mapError(err error) error {
	var sqErr *sqlite.Error
	if errors.As(err, &sqErr) {
		code := sqErr.Code()
		if code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY || code == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			(code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(sqErr.Error(), "UNIQUE")) {
			return fmt.Errorf("%w: %s", core.ErrDuplicateKey, sqErr.Error())
		}
	}
	return err
}
