package core

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"testing/iotest"
)

func TestMakeHeaderIndex(t *testing.T) {
	idx := MakeHeaderIndex([]string{" CNPJ_CIA", "SIT ", "CNPJ_CIA", "DENOM_SOCIAL"})

	want := HeaderIndex{"CNPJ_CIA": 0, "SIT": 1, "DENOM_SOCIAL": 3}
	if !reflect.DeepEqual(idx, want) {
		t.Errorf("MakeHeaderIndex() = %v, want %v", idx, want)
	}
	if missing := idx.Missing(RequiredColumns); len(missing) != 0 {
		t.Errorf("Missing() = %v, want none", missing)
	}
}

func TestHeaderIndex_Missing(t *testing.T) {
	idx := MakeHeaderIndex([]string{"SIT", "OTHER"})

	got := idx.Missing(RequiredColumns)
	want := []string{ColumnRegistryCode, ColumnLegalName}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Missing() = %v, want %v", got, want)
	}
}

func TestCleanCell(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  ATIVO ", "ATIVO"},
		{`="00123"`, "00123"},
		{`=""`, ""},
		{` ="0123" `, "0123"},
		{`ACME "X" LTDA`, `ACME "X" LTDA`},
		{"plain", "plain"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := CleanCell(tt.input); got != tt.want {
			t.Errorf("CleanCell(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestParseImportFile(t *testing.T) {
	input := "CNPJ_CIA;DENOM_SOCIAL;SIT\n" +
		"1;Alpha;ATIVO\n" +
		"2;Beta;ATIVO;EXTRA\n" +
		"\n" +
		"3;\"Gamma; Ltda\";CANCELADA\n" +
		"4;Delta\n"

	pf, err := parseImportFile(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parseImportFile() error = %v", err)
	}

	if pf.width != 3 {
		t.Errorf("width = %d, want 3", pf.width)
	}

	var lines []int
	for _, r := range pf.rows {
		lines = append(lines, r.line)
	}
	if !reflect.DeepEqual(lines, []int{2, 5, 6}) {
		t.Errorf("row lines = %v, want [2 5 6]", lines)
	}
	if got := pf.rows[1].fields[1]; got != "Gamma; Ltda" {
		t.Errorf("quoted field = %q, want separator kept inside quotes", got)
	}

	if len(pf.dropped) != 1 || pf.dropped[0].Line != 3 {
		t.Errorf("dropped = %+v, want line 3", pf.dropped)
	}

	rows, dropped := project(pf)
	if len(rows) != 2 {
		t.Fatalf("projected %d rows, want 2", len(rows))
	}
	if rows[1].row != (ImportRow{RegistryCode: "3", LegalName: "Gamma; Ltda", StatusCode: "CANCELADA"}) {
		t.Errorf("projected row = %+v", rows[1].row)
	}
	if len(dropped) != 1 || dropped[0].Line != 6 || dropped[0].RegistryCode != "4" {
		t.Errorf("projection dropped = %+v, want line 6", dropped)
	}
}

func TestParseImportFile_ReorderedColumns(t *testing.T) {
	input := "SIT;EXTRA;DENOM_SOCIAL;CNPJ_CIA\nATIVO;x;Acme;99\n"

	pf, err := parseImportFile(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parseImportFile() error = %v", err)
	}
	rows, dropped := project(pf)
	if len(dropped) != 0 {
		t.Errorf("dropped = %+v", dropped)
	}
	want := ImportRow{RegistryCode: "99", LegalName: "Acme", StatusCode: "ATIVO"}
	if len(rows) != 1 || rows[0].row != want {
		t.Errorf("rows = %+v, want %+v", rows, want)
	}
}

func TestParseImportFile_Errors(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		_, err := parseImportFile(strings.NewReader(""))
		if !errors.Is(err, ErrEmptyInput) {
			t.Errorf("err = %v, want ErrEmptyInput", err)
		}
	})

	t.Run("unreadable stream", func(t *testing.T) {
		_, err := parseImportFile(iotest.ErrReader(errors.New("disk gone")))
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Errorf("err = %v, want *ParseError", err)
		}
	})
}
