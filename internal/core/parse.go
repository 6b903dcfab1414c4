package core

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Separator is the field delimiter used by registry exports.
const Separator = ';'

// parsedRow is a structurally valid data line.
type parsedRow struct {
	line   int
	fields []string
}

// parsedFile is the result of reading an import file.
type parsedFile struct {
	header  HeaderIndex
	width   int
	rows    []parsedRow
	dropped []RowOutcome
}

// HeaderIndex maps trimmed column names to their position in the row.
type HeaderIndex map[string]int

// MakeHeaderIndex builds a HeaderIndex from a header row.
// When a name repeats, the first occurrence wins.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if _, exists := idx[name]; !exists {
			idx[name] = i
		}
	}
	return idx
}

// Missing returns the required columns absent from the header, in order.
func (h HeaderIndex) Missing(required []string) []string {
	var missing []string
	for _, col := range required {
		if _, ok := h[col]; !ok {
			missing = append(missing, col)
		}
	}
	return missing
}

// parseImportFile reads semicolon-separated records from already decoded text.
//
// Quotes inside unquoted fields are kept as literal characters, so legal names
// like ACME "X" LTDA survive. Data lines the reader rejects, or with more fields
// than the header, are dropped and recorded.
func parseImportFile(r io.Reader) (*parsedFile, error) {
	cr := csv.NewReader(r)
	cr.Comma = Separator
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrEmptyInput
	}
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	pf := &parsedFile{
		header: MakeHeaderIndex(header),
		width:  len(header),
	}

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var csvErr *csv.ParseError
			if errors.As(err, &csvErr) {
				pf.dropped = append(pf.dropped, RowOutcome{
					Line:   csvErr.StartLine,
					Status: RowDropped,
					Reason: csvErr.Err.Error(),
				})
				continue
			}
			return nil, &ParseError{Err: err}
		}

		line, _ := cr.FieldPos(0)
		if len(record) > pf.width {
			pf.dropped = append(pf.dropped, RowOutcome{
				Line:   line,
				Status: RowDropped,
				Reason: fmt.Sprintf("expected %d fields, got %d", pf.width, len(record)),
			})
			continue
		}

		pf.rows = append(pf.rows, parsedRow{line: line, fields: record})
	}

	return pf, nil
}

// projectedRow is an ImportRow together with the line it came from.
type projectedRow struct {
	line int
	row  ImportRow
}

// project maps parsed rows onto ImportRow, dropping rows that cannot carry
// a registry code.
func project(pf *parsedFile) ([]projectedRow, []RowOutcome) {
	codeIdx := pf.header[ColumnRegistryCode]
	nameIdx := pf.header[ColumnLegalName]
	sitIdx := pf.header[ColumnStatusCode]

	rows := make([]projectedRow, 0, len(pf.rows))
	var dropped []RowOutcome

	for _, pr := range pf.rows {
		code, ok := cell(pr.fields, codeIdx)
		if !ok || code == "" {
			dropped = append(dropped, RowOutcome{
				Line:   pr.line,
				Status: RowDropped,
				Reason: "missing registry code",
			})
			continue
		}
		name, nameOK := cell(pr.fields, nameIdx)
		sit, sitOK := cell(pr.fields, sitIdx)
		if !nameOK || !sitOK {
			dropped = append(dropped, RowOutcome{
				Line:         pr.line,
				RegistryCode: code,
				Status:       RowDropped,
				Reason:       fmt.Sprintf("expected %d fields, got %d", pf.width, len(pr.fields)),
			})
			continue
		}

		rows = append(rows, projectedRow{
			line: pr.line,
			row: ImportRow{
				RegistryCode: code,
				LegalName:    name,
				StatusCode:   sit,
			},
		})
	}

	return rows, dropped
}

// cell returns the cleaned value at pos, or false if the row is too short.
func cell(fields []string, pos int) (string, bool) {
	if pos < 0 || pos >= len(fields) {
		return "", false
	}
	return CleanCell(fields[pos]), true
}

// CleanCell trims whitespace and unwraps spreadsheet text guards such as ="0123".
// An empty guard ="" yields "".
func CleanCell(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") && len(s) >= 3 {
		s = s[2 : len(s)-1]
	}
	return s
}
