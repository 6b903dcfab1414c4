package core

import (
	"context"
	"time"
)

// Source column names expected in registry CSV exports.
const (
	ColumnRegistryCode = "CNPJ_CIA"
	ColumnLegalName    = "DENOM_SOCIAL"
	ColumnStatusCode   = "SIT"
)

// RequiredColumns lists the source columns every import file must carry.
var RequiredColumns = []string{ColumnRegistryCode, ColumnLegalName, ColumnStatusCode}

// MaxPageSize is the largest page ListCompanies will return.
const MaxPageSize = 100

// Company is a persisted company record keyed by its registry code.
type Company struct {
	RegistryCode string    `json:"cnpj"`
	LegalName    string    `json:"denom_social"`
	StatusCode   string    `json:"sit"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ImportRow is a CSV row projected onto the company shape.
type ImportRow struct {
	RegistryCode string `json:"cnpj"`
	LegalName    string `json:"denom_social"`
	StatusCode   string `json:"sit"`
}

// Company converts the row to a record stamped at the given time.
func (r ImportRow) Company(at time.Time) Company {
	return Company{
		RegistryCode: r.RegistryCode,
		LegalName:    r.LegalName,
		StatusCode:   r.StatusCode,
		UpdatedAt:    at,
	}
}

// RowStatus describes what happened to a single line of an import.
type RowStatus string

const (
	RowInserted RowStatus = "inserted"
	RowSkipped  RowStatus = "skipped"
	RowDropped  RowStatus = "dropped"
)

// RowOutcome records the fate of one line of an import file.
type RowOutcome struct {
	Line         int       `json:"line"`
	RegistryCode string    `json:"cnpj,omitempty"`
	Status       RowStatus `json:"status"`
	Reason       string    `json:"reason,omitempty"`
}

// ImportReport summarizes a completed import.
//
// Rows holds every projected row, including ones skipped as duplicates, so it
// reflects what was parsed rather than what was persisted. Outcomes carries
// the per-line detail.
type ImportReport struct {
	ImportID string        `json:"import_id"`
	FileName string        `json:"file_name,omitempty"`
	Rows     []ImportRow   `json:"rows"`
	Inserted int           `json:"inserted"`
	Skipped  int           `json:"skipped"`
	Dropped  int           `json:"dropped"`
	Outcomes []RowOutcome  `json:"outcomes"`
	Duration time.Duration `json:"duration_ns"`
}

// Session is a unit of work against the company table.
// Writes made through a session become visible when the owning
// Store.WithSession call commits.
type Session interface {
	FindByKey(ctx context.Context, registryCode string) (Company, bool, error)
	InsertBatch(ctx context.Context, companies []Company) error
	Insert(ctx context.Context, company Company) (Company, error)
	List(ctx context.Context, offset, limit int) ([]Company, error)
}

// Store hands out scoped sessions.
//
// WithSession commits when fn returns nil and rolls back otherwise. The
// underlying connection is released on every path.
type Store interface {
	WithSession(ctx context.Context, fn func(Session) error) error
	EnsureSchema(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
