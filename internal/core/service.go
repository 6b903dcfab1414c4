package core

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/JonMunkholm/companies/internal/config"
)

// Service provides the core business logic for company records.
type Service struct {
	store    Store
	importer *Importer
	limiter  *UploadLimiter
	timeout  time.Duration
	now      func() time.Time
}

// NewService creates a Service around an already opened store.
func NewService(store Store, cfg *config.Config) (*Service, error) {
	enc, err := LookupEncoding(cfg.Upload.Encoding)
	if err != nil {
		return nil, fmt.Errorf("upload encoding: %w", err)
	}

	s := &Service{
		store:   store,
		limiter: NewUploadLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime),
		timeout: cfg.Upload.Timeout,
		now:     time.Now,
	}
	s.importer = NewImporter(store,
		WithEncoding(enc),
		WithMaxBytes(cfg.Upload.MaxFileSize),
		WithClock(func() time.Time { return s.now() }),
	)
	return s, nil
}

// CreateCompany stores a single record, stamping updated_at.
// Returns a *ValidationError for incomplete input and wraps ErrDuplicateKey
// when the registry code is taken.
func (s *Service) CreateCompany(ctx context.Context, req NewCompany) (Company, error) {
	if err := req.Validate(); err != nil {
		return Company{}, err
	}

	var created Company
	err := s.store.WithSession(ctx, func(sess Session) error {
		var err error
		created, err = sess.Insert(ctx, req.Company(s.now().UTC()))
		return err
	})
	if err != nil {
		return Company{}, fmt.Errorf("create company %s: %w", req.RegistryCode, err)
	}
	return created, nil
}

// ListCompanies returns a page of records in insertion order.
func (s *Service) ListCompanies(ctx context.Context, offset, limit int) ([]Company, error) {
	if offset < 0 {
		return nil, fmt.Errorf("%w: offset must be >= 0", ErrInvalidPage)
	}
	if limit < 0 || limit > MaxPageSize {
		return nil, fmt.Errorf("%w: limit must be between 0 and %d", ErrInvalidPage, MaxPageSize)
	}

	companies := []Company{}
	if limit == 0 {
		return companies, nil
	}

	err := s.store.WithSession(ctx, func(sess Session) error {
		page, err := sess.List(ctx, offset, limit)
		if err != nil {
			return err
		}
		companies = append(companies, page...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	return companies, nil
}

// ImportCSV runs the bulk importer once an upload slot is free.
// The upload timeout starts once the slot is held.
func (s *Service) ImportCSV(ctx context.Context, fileName string, r io.Reader) (*ImportReport, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	return s.importer.Import(ctx, fileName, r)
}

// Ping checks that the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// UploadLimiterStatus reports how many imports are running.
func (s *Service) UploadLimiterStatus() UploadLimiterStatus {
	return s.limiter.Status()
}

// WaitForUploads blocks until in-flight imports finish or ctx ends.
func (s *Service) WaitForUploads(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
