package core

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyInput is returned when an import file yields no rows.
var ErrEmptyInput = errors.New("empty file: no rows to import")

// ErrDuplicateKey is wrapped by stores when an insert hits an existing registry code.
var ErrDuplicateKey = errors.New("duplicate key: company already exists")

// ErrInvalidPage is returned for out-of-range pagination parameters.
var ErrInvalidPage = errors.New("invalid page")

// ParseError reports that an import file could not be structured at all.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid csv: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// MissingColumnsError lists required columns absent from an import header.
type MissingColumnsError struct {
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing required column(s): %s", strings.Join(e.Missing, ", "))
}

// IsImportError reports whether err is a client-side import failure:
// empty input, unparseable file, or missing columns.
func IsImportError(err error) bool {
	var pe *ParseError
	var me *MissingColumnsError
	return errors.Is(err, ErrEmptyInput) || errors.As(err, &pe) || errors.As(err, &me)
}
