package table

import (
	"math"
	"testing"
)

func TestNewValidTable(t *testing.T) {
	tbl, err := New(
		NewNumericColumn("score", []float64{1, 2, 3}),
		NewCategoricalColumn("group", []string{"a", "b", "a"}),
	)
	if err != nil {
		t.Fatalf("Expected valid table, got error: %v", err)
	}
	if tbl.NumRows() != 3 {
		t.Errorf("Expected 3 rows, got %d", tbl.NumRows())
	}
	if tbl.NumCols() != 2 {
		t.Errorf("Expected 2 columns, got %d", tbl.NumCols())
	}
}

func TestValidateRejectsBadTables(t *testing.T) {
	tests := []struct {
		name string
		cols []Column
	}{
		{"no columns", nil},
		{"duplicate names", []Column{
			NewNumericColumn("x", []float64{1}),
			NewNumericColumn("x", []float64{2}),
		}},
		{"empty name", []Column{
			NewNumericColumn("  ", []float64{1}),
		}},
		{"ragged lengths", []Column{
			NewNumericColumn("x", []float64{1, 2}),
			NewNumericColumn("y", []float64{1}),
		}},
		{"kind storage mismatch", []Column{
			{Name: "x", Kind: KindNumeric, Labels: []string{"a"}},
		}},
		{"unknown kind", []Column{
			{Name: "x", Kind: "ordinal", Numeric: []float64{1}},
		}},
	}

	for _, test := range tests {
		if _, err := New(test.cols...); err == nil {
			t.Errorf("%s: expected validation error, got none", test.name)
		}
	}
}

func TestIsMissing(t *testing.T) {
	num := NewNumericColumn("x", []float64{1, math.NaN()})
	if num.IsMissing(0) {
		t.Error("Expected row 0 to be present")
	}
	if !num.IsMissing(1) {
		t.Error("Expected NaN row to be missing")
	}

	cat := NewCategoricalColumn("g", []string{"a", ""})
	if cat.IsMissing(0) {
		t.Error("Expected labeled row to be present")
	}
	if !cat.IsMissing(1) {
		t.Error("Expected empty label to be missing")
	}
}

func TestWithColumnAppendAndReplace(t *testing.T) {
	tbl, err := New(
		NewNumericColumn("a", []float64{1, 2}),
		NewNumericColumn("b", []float64{3, 4}),
	)
	if err != nil {
		t.Fatalf("Failed to build table: %v", err)
	}

	appended := tbl.WithColumn(NewNumericColumn("c", []float64{5, 6}))
	if appended.NumCols() != 3 {
		t.Errorf("Expected 3 columns after append, got %d", appended.NumCols())
	}
	if tbl.NumCols() != 2 {
		t.Error("Original table changed by WithColumn append")
	}

	replaced := tbl.WithColumn(NewNumericColumn("a", []float64{9, 9}))
	if replaced.NumCols() != 2 {
		t.Errorf("Expected replace to keep 2 columns, got %d", replaced.NumCols())
	}
	if replaced.Columns[0].Name != "a" {
		t.Errorf("Expected replaced column to keep position 0, found %q there", replaced.Columns[0].Name)
	}
	if replaced.Columns[0].Numeric[0] != 9 {
		t.Error("Expected replaced column to carry new values")
	}
	if tbl.Columns[0].Numeric[0] != 1 {
		t.Error("Original column mutated by replace")
	}
}

func TestCloneIsolation(t *testing.T) {
	tbl, _ := New(NewNumericColumn("x", []float64{1, 2}))
	clone := tbl.Clone()
	clone.Columns[0].Numeric[0] = 42
	if tbl.Columns[0].Numeric[0] != 1 {
		t.Error("Mutating a clone reached the original backing array")
	}
}

func TestFingerprintTracksData(t *testing.T) {
	a, _ := New(NewNumericColumn("x", []float64{1, 2}))
	b, _ := New(NewNumericColumn("x", []float64{1, 2}))
	c, _ := New(NewNumericColumn("x", []float64{1, 3}))

	if a.Fingerprint() != b.Fingerprint() {
		t.Error("Identical tables produced different fingerprints")
	}
	if a.Fingerprint() == c.Fingerprint() {
		t.Error("Different tables produced the same fingerprint")
	}
}

func TestFormatLevel(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1.0, "1"},
		{2.5, "2.5"},
		{-3.0, "-3"},
	}
	for _, test := range tests {
		if got := FormatLevel(test.in); got != test.want {
			t.Errorf("FormatLevel(%v) = %q, want %q", test.in, got, test.want)
		}
	}
}
