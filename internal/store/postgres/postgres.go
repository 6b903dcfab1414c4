// Package postgres implements core.Store on a pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/JonMunkholm/companies/internal/config"
	"github.com/JonMunkholm/companies/internal/core"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

const schema = `
CREATE TABLE IF NOT EXISTS companies (
	seq          BIGINT GENERATED ALWAYS AS IDENTITY,
	cnpj         TEXT PRIMARY KEY,
	denom_social TEXT NOT NULL,
	sit          TEXT NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS companies_seq_idx ON companies (seq);
`

var copyColumns = []string{"cnpj", "denom_social", "sit", "updated_at"}

// Store is a core.Store backed by PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects a pool using the database settings and verifies it with a ping.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	// Zero values keep the pgxpool defaults.
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	poolConfig.MinConns = int32(cfg.MinConns)
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{pool: pool}, nil
}

// EnsureSchema creates the companies table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// WithSession runs fn inside a transaction.
func (s *Store) WithSession(ctx context.Context, fn func(core.Session) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // No-op if already committed

	if err := fn(&session{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", mapError(err))
	}
	return nil
}

// Ping checks the pool can reach the server.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases all pooled connections.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

type session struct {
	tx pgx.Tx
}

func (s *session) FindByKey(ctx context.Context, registryCode string) (core.Company, bool, error) {
	var c core.Company
	err := s.tx.QueryRow(ctx,
		`SELECT cnpj, denom_social, sit, updated_at FROM companies WHERE cnpj = $1`,
		registryCode,
	).Scan(&c.RegistryCode, &c.LegalName, &c.StatusCode, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Company{}, false, nil
	}
	if err != nil {
		return core.Company{}, false, fmt.Errorf("find company %s: %w", registryCode, err)
	}
	c.UpdatedAt = c.UpdatedAt.UTC()
	return c, true, nil
}

// InsertBatch streams rows with COPY so large imports cost one round trip.
func (s *session) InsertBatch(ctx context.Context, companies []core.Company) error {
	if len(companies) == 0 {
		return nil
	}

	_, err := s.tx.CopyFrom(ctx,
		pgx.Identifier{"companies"},
		copyColumns,
		pgx.CopyFromSlice(len(companies), func(i int) ([]any, error) {
			c := companies[i]
			return []any{c.RegistryCode, c.LegalName, c.StatusCode, c.UpdatedAt}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("insert %d companies: %w", len(companies), mapError(err))
	}
	return nil
}

func (s *session) Insert(ctx context.Context, c core.Company) (core.Company, error) {
	_, err := s.tx.Exec(ctx,
		`INSERT INTO companies (cnpj, denom_social, sit, updated_at) VALUES ($1, $2, $3, $4)`,
		c.RegistryCode, c.LegalName, c.StatusCode, c.UpdatedAt,
	)
	if err != nil {
		return core.Company{}, fmt.Errorf("insert company: %w", mapError(err))
	}
	return c, nil
}

func (s *session) List(ctx context.Context, offset, limit int) ([]core.Company, error) {
	rows, err := s.tx.Query(ctx,
		`SELECT cnpj, denom_social, sit, updated_at FROM companies ORDER BY seq OFFSET $1 LIMIT $2`,
		offset, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	defer rows.Close()

	var companies []core.Company
	for rows.Next() {
		var c core.Company
		if err := rows.Scan(&c.RegistryCode, &c.LegalName, &c.StatusCode, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		c.UpdatedAt = c.UpdatedAt.UTC()
		companies = append(companies, c)
	}
	return companies, rows.Err()
}

// mapError translates unique violations into core.ErrDuplicateKey.
func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", core.ErrDuplicateKey, pgErr.Detail)
	}
	return err
}
