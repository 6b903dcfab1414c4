package core

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"
)

func TestBOMSkippingReader(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  []byte
	}{
		{"with BOM", []byte("\xef\xbb\xbfa;b;c"), []byte("a;b;c")},
		{"without BOM", []byte("a;b;c"), []byte("a;b;c")},
		{"empty", []byte{}, []byte{}},
		{"only BOM", []byte("\xef\xbb\xbf"), []byte{}},
		{"shorter than BOM", []byte("ab"), []byte("ab")},
		{"partial BOM prefix kept", []byte("\xef\xbbX"), []byte("\xef\xbbX")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := io.ReadAll(NewBOMSkippingReader(bytes.NewReader(tt.input)))
			if err != nil {
				t.Fatalf("ReadAll() error = %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBOMSkippingReader_SmallReads(t *testing.T) {
	r := iotest.OneByteReader(NewBOMSkippingReader(strings.NewReader("\xef\xbb\xbfhello")))
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if string(got) != "hello" {
		t.Errorf("got %q, want %q", got, "hello")
	}
}

func TestSizeLimitReader(t *testing.T) {
	t.Run("under limit", func(t *testing.T) {
		got, err := io.ReadAll(NewSizeLimitReader(strings.NewReader("12345"), 5))
		if err != nil {
			t.Fatalf("ReadAll() error = %v", err)
		}
		if string(got) != "12345" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("over limit", func(t *testing.T) {
		_, err := io.ReadAll(NewSizeLimitReader(strings.NewReader("123456"), 5))
		if !errors.Is(err, ErrFileTooLarge) {
			t.Errorf("err = %v, want ErrFileTooLarge", err)
		}
	})

	t.Run("disabled", func(t *testing.T) {
		got, err := io.ReadAll(NewSizeLimitReader(strings.NewReader("123456"), 0))
		if err != nil || string(got) != "123456" {
			t.Errorf("got %q, %v", got, err)
		}
	})
}

func TestLookupEncoding(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{"latin1", []byte("S\xe3o Jos\xe9"), "São José"},
		{"ISO-8859-1", []byte("A\xe7\xfacar"), "Açúcar"},
		{"windows-1252", []byte("\x93quoted\x94"), "“quoted”"},
		{"utf-8", []byte("São José"), "São José"},
		{"", []byte("\xc9"), "É"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := LookupEncoding(tt.name)
			if err != nil {
				t.Fatalf("LookupEncoding(%q) error = %v", tt.name, err)
			}
			got, err := enc.NewDecoder().Bytes(tt.input)
			if err != nil {
				t.Fatalf("decode error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("decoded %q, want %q", got, tt.want)
			}
		})
	}

	if _, err := LookupEncoding("ebcdic"); err == nil {
		t.Error("expected error for unsupported encoding")
	}
}

func TestWrapForImport(t *testing.T) {
	enc, _ := LookupEncoding(DefaultEncoding)
	r := WrapForImport(strings.NewReader("\xef\xbb\xbfCNPJ_CIA;DENOM_SOCIAL\n1;Ita\xfa"), enc, 0)

	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if string(got) != "CNPJ_CIA;DENOM_SOCIAL\n1;Itaú" {
		t.Errorf("got %q", got)
	}
}
