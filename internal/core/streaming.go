package core

// streaming.go provides the reader chain applied to uploaded files:
//
//   - BOMSkippingReader: Removes a UTF-8 BOM (0xEF 0xBB 0xBF) left by Windows tools
//   - Decoder: Converts the legacy registry encoding to UTF-8
//   - SizeLimitReader: Fails once more than the configured number of bytes is read
//
// Use WrapForImport to apply all transforms in the correct order.

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// DefaultEncoding is the text encoding of registry exports.
const DefaultEncoding = "latin1"

// ErrFileTooLarge is returned by SizeLimitReader once its limit is exceeded.
var ErrFileTooLarge = errors.New("file too large")

// LookupEncoding resolves an encoding name to a decoder.
func LookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "latin1", "latin-1", "iso-8859-1", "iso8859-1":
		return charmap.ISO8859_1, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	case "utf-8", "utf8":
		return unicode.UTF8, nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
}

// BOMSkippingReader wraps an io.Reader and skips the UTF-8 BOM if present.
type BOMSkippingReader struct {
	reader     io.Reader
	bomChecked bool
	buf        [3]byte
	pending    []byte
}

// NewBOMSkippingReader creates a new BOM-skipping reader.
func NewBOMSkippingReader(r io.Reader) *BOMSkippingReader {
	return &BOMSkippingReader{reader: r}
}

// Read implements io.Reader. On the first read, it checks for and skips the BOM.
func (r *BOMSkippingReader) Read(p []byte) (int, error) {
	if !r.bomChecked {
		r.bomChecked = true

		n, err := io.ReadFull(r.reader, r.buf[:])
		if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			return 0, err
		}
		if n == 3 && r.buf[0] == 0xEF && r.buf[1] == 0xBB && r.buf[2] == 0xBF {
			r.pending = nil
		} else {
			r.pending = r.buf[:n]
		}
	}

	if len(r.pending) > 0 {
		copied := copy(p, r.pending)
		r.pending = r.pending[copied:]
		return copied, nil
	}

	return r.reader.Read(p)
}

// SizeLimitReader reads at most Limit bytes and reports ErrFileTooLarge
// if the underlying reader has more.
type SizeLimitReader struct {
	reader io.Reader
	Limit  int64
	read   int64
}

// NewSizeLimitReader creates a reader capped at limit bytes. A non-positive
// limit disables the check.
func NewSizeLimitReader(r io.Reader, limit int64) *SizeLimitReader {
	return &SizeLimitReader{reader: r, Limit: limit}
}

// Read implements io.Reader.
func (r *SizeLimitReader) Read(p []byte) (int, error) {
	if r.Limit <= 0 {
		return r.reader.Read(p)
	}
	if r.read > r.Limit {
		return 0, ErrFileTooLarge
	}
	// Allow one byte past the limit so overflow is detectable.
	if remaining := r.Limit - r.read + 1; int64(len(p)) > remaining {
		p = p[:remaining]
	}
	n, err := r.reader.Read(p)
	r.read += int64(n)
	if r.read > r.Limit {
		return n, ErrFileTooLarge
	}
	return n, err
}

// WrapForImport wraps a raw upload with size limiting, BOM skipping and
// decoding to UTF-8.
//
// The order matters:
// 1. The size limit counts raw bytes as uploaded
// 2. BOM must be stripped before decoding, or Latin-1 turns it into "ï»¿"
// 3. Decoding happens last
func WrapForImport(r io.Reader, enc encoding.Encoding, maxBytes int64) io.Reader {
	limited := NewSizeLimitReader(r, maxBytes)
	bomReader := NewBOMSkippingReader(limited)
	return enc.NewDecoder().Reader(bomReader)
}
