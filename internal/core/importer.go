package core

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/JonMunkholm/companies/internal/logging"
	"github.com/google/uuid"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// ContextCheckInterval is how often (in rows) the importer checks for cancellation.
var ContextCheckInterval = 100

// Importer turns uploaded registry files into company records.
type Importer struct {
	store    Store
	enc      encoding.Encoding
	maxBytes int64
	now      func() time.Time
}

// ImporterOption configures an Importer.
type ImporterOption func(*Importer)

// WithEncoding sets the source text encoding. Defaults to Latin-1.
func WithEncoding(enc encoding.Encoding) ImporterOption {
	return func(im *Importer) { im.enc = enc }
}

// WithMaxBytes caps the raw size of an import file. Zero disables the cap.
func WithMaxBytes(n int64) ImporterOption {
	return func(im *Importer) { im.maxBytes = n }
}

// WithClock overrides the time source used to stamp updated_at.
func WithClock(now func() time.Time) ImporterOption {
	return func(im *Importer) { im.now = now }
}

// NewImporter creates an Importer writing through store.
func NewImporter(store Store, opts ...ImporterOption) *Importer {
	im := &Importer{
		store: store,
		enc:   charmap.ISO8859_1,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// Import parses r and inserts every row whose registry code is not yet stored.
//
// Malformed lines are dropped. Existing codes, and codes repeated later in the
// same file, are skipped without touching storage. All new records are written
// in a single batch inside one session.
//
// Returns ErrEmptyInput, *ParseError or *MissingColumnsError for files that
// cannot be imported; storage is not modified in those cases.
func (im *Importer) Import(ctx context.Context, fileName string, r io.Reader) (*ImportReport, error) {
	start := time.Now()
	importID := uuid.New().String()
	logger := logging.WithFields(ctx,
		"import_id", importID,
		"file", fileName,
		"client_ip", ClientIPFromContext(ctx),
		"user_agent", UserAgentFromContext(ctx),
	)

	pf, err := parseImportFile(WrapForImport(r, im.enc, im.maxBytes))
	if err != nil {
		logger.Warn("import rejected", "error", err)
		return nil, err
	}
	if len(pf.rows) == 0 {
		logger.Warn("import rejected", "error", ErrEmptyInput, "dropped", len(pf.dropped))
		return nil, ErrEmptyInput
	}
	if missing := pf.header.Missing(RequiredColumns); len(missing) > 0 {
		err := &MissingColumnsError{Missing: missing}
		logger.Warn("import rejected", "error", err)
		return nil, err
	}

	rows, dropped := project(pf)

	report := &ImportReport{
		ImportID: importID,
		FileName: fileName,
		Rows:     make([]ImportRow, len(rows)),
		Outcomes: make([]RowOutcome, 0, len(rows)+len(pf.dropped)+len(dropped)),
	}
	for i, pr := range rows {
		report.Rows[i] = pr.row
	}
	report.Outcomes = append(report.Outcomes, pf.dropped...)
	report.Outcomes = append(report.Outcomes, dropped...)

	var outcomes []RowOutcome
	err = im.store.WithSession(ctx, func(s Session) error {
		outcomes = outcomes[:0]
		staged := make([]Company, 0, len(rows))
		seen := make(map[string]struct{}, len(rows))

		for i, pr := range rows {
			if i%ContextCheckInterval == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}

			code := pr.row.RegistryCode
			if _, dup := seen[code]; dup {
				outcomes = append(outcomes, RowOutcome{Line: pr.line, RegistryCode: code, Status: RowSkipped, Reason: "repeated in file"})
				continue
			}
			seen[code] = struct{}{}

			_, found, err := s.FindByKey(ctx, code)
			if err != nil {
				return fmt.Errorf("find company %s: %w", code, err)
			}
			if found {
				outcomes = append(outcomes, RowOutcome{Line: pr.line, RegistryCode: code, Status: RowSkipped, Reason: "already exists"})
				continue
			}

			staged = append(staged, pr.row.Company(im.now().UTC()))
			outcomes = append(outcomes, RowOutcome{Line: pr.line, RegistryCode: code, Status: RowInserted})
		}

		if len(staged) == 0 {
			return nil
		}
		if err := s.InsertBatch(ctx, staged); err != nil {
			return fmt.Errorf("insert batch of %d: %w", len(staged), err)
		}
		return nil
	})
	if err != nil {
		logger.Error("import failed", "error", err)
		return nil, fmt.Errorf("import %s: %w", fileName, err)
	}

	report.Outcomes = append(report.Outcomes, outcomes...)
	slices.SortStableFunc(report.Outcomes, func(a, b RowOutcome) int {
		return cmp.Compare(a.Line, b.Line)
	})
	for _, o := range report.Outcomes {
		switch o.Status {
		case RowInserted:
			report.Inserted++
		case RowSkipped:
			report.Skipped++
		case RowDropped:
			report.Dropped++
		}
	}
	report.Duration = time.Since(start)

	logger.Info("import complete",
		"rows", len(report.Rows),
		"inserted", report.Inserted,
		"skipped", report.Skipped,
		"dropped", report.Dropped,
		"duration_ms", report.Duration.Milliseconds(),
	)

	return report, nil
}
