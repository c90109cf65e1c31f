package model

import (
	"math"
	"reflect"
	"testing"

	"goanova/domain/analysis"
	"goanova/domain/table"
	"goanova/internal/errors"
)

func fixtureTable(t *testing.T) table.Table {
	t.Helper()
	tbl, err := table.New(
		table.NewNumericColumn("score", []float64{10, 12, 9, 20, 22, 18}),
		table.NewCategoricalColumn("group", []string{"b", "a", "b", "a", "b", "a"}),
		table.NewNumericColumn("age", []float64{30, 41, 25, 38, 52, 44}),
	)
	if err != nil {
		t.Fatalf("Failed to build fixture: %v", err)
	}
	return tbl
}

func TestEncodeTreatmentCoding(t *testing.T) {
	tbl := fixtureTable(t)
	enc := NewEncoder()

	dm, err := enc.Encode(tbl, Spec{
		Response: "score",
		Terms:    []analysis.ModelTerm{{Column: "group", Role: analysis.RoleFactor}},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// First observed level is the baseline
	if dm.Baseline["group"] != "b" {
		t.Errorf("Expected baseline 'b' (first observed), got %q", dm.Baseline["group"])
	}
	wantNames := []string{InterceptName, "group[T.a]"}
	if !reflect.DeepEqual(dm.ColNames, wantNames) {
		t.Errorf("Expected columns %v, got %v", wantNames, dm.ColNames)
	}
	if dm.Rows != 6 {
		t.Errorf("Expected 6 rows, got %d", dm.Rows)
	}

	// Indicator fires exactly on 'a' rows
	wantIndicator := []float64{0, 1, 0, 1, 0, 1}
	for r := range dm.X {
		if dm.X[r][0] != 1.0 {
			t.Errorf("Row %d: intercept must be 1, got %v", r, dm.X[r][0])
		}
		if dm.X[r][1] != wantIndicator[r] {
			t.Errorf("Row %d: expected indicator %v, got %v", r, wantIndicator[r], dm.X[r][1])
		}
	}
}

func TestEncodeFactorPlusCovariate(t *testing.T) {
	tbl := fixtureTable(t)
	enc := NewEncoder()

	dm, err := enc.Encode(tbl, Spec{
		Response: "score",
		Terms: []analysis.ModelTerm{
			{Column: "group", Role: analysis.RoleFactor},
			{Column: "age", Role: analysis.RoleCovariate},
		},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(dm.Terms) != 2 {
		t.Fatalf("Expected 2 term spans, got %d", len(dm.Terms))
	}
	if dm.Terms[0].DF() != 1 || dm.Terms[1].DF() != 1 {
		t.Errorf("Expected 1 df per term, got %d and %d", dm.Terms[0].DF(), dm.Terms[1].DF())
	}
	if dm.ColNames[2] != "age" {
		t.Errorf("Expected covariate column 'age' at position 2, got %q", dm.ColNames[2])
	}
	if dm.X[0][2] != 30 {
		t.Errorf("Expected raw covariate value 30, got %v", dm.X[0][2])
	}
}

func TestEncodeListwiseDeletion(t *testing.T) {
	tbl, err := table.New(
		table.NewNumericColumn("y", []float64{1, math.NaN(), 3, 4}),
		table.NewCategoricalColumn("g", []string{"a", "b", "", "b"}),
	)
	if err != nil {
		t.Fatalf("Failed to build table: %v", err)
	}

	dm, err := NewEncoder().Encode(tbl, Spec{
		Response: "y",
		Terms:    []analysis.ModelTerm{{Column: "g", Role: analysis.RoleFactor}},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// Row 1 drops for missing y, row 2 for missing g
	if dm.Rows != 2 {
		t.Errorf("Expected 2 surviving rows, got %d", dm.Rows)
	}
	if !reflect.DeepEqual(dm.KeptRows, []int{0, 3}) {
		t.Errorf("Expected kept rows [0 3], got %v", dm.KeptRows)
	}
	if !reflect.DeepEqual(dm.Response, []float64{1, 4}) {
		t.Errorf("Expected response [1 4], got %v", dm.Response)
	}
}

func TestEncodeNumericFactorLevels(t *testing.T) {
	tbl, err := table.New(
		table.NewNumericColumn("y", []float64{5, 6, 7, 8}),
		table.NewNumericColumn("dose", []float64{1, 2.5, 1, 2.5}),
	)
	if err != nil {
		t.Fatalf("Failed to build table: %v", err)
	}

	dm, err := NewEncoder().Encode(tbl, Spec{
		Response: "y",
		Terms:    []analysis.ModelTerm{{Column: "dose", Role: analysis.RoleFactor}},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !reflect.DeepEqual(dm.Levels["dose"], []string{"1", "2.5"}) {
		t.Errorf("Expected levels [1 2.5], got %v", dm.Levels["dose"])
	}
	if dm.ColNames[1] != "dose[T.2.5]" {
		t.Errorf("Expected column 'dose[T.2.5]', got %q", dm.ColNames[1])
	}
}

func TestEncodeRelabel(t *testing.T) {
	tbl := fixtureTable(t)
	enc := NewEncoder()

	dm, err := enc.Encode(tbl, Spec{
		Response: "score",
		Terms: []analysis.ModelTerm{{
			Column:  "group",
			Role:    analysis.RoleFactor,
			Relabel: map[string]string{"a": "treatment", "b": "control"},
		}},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if dm.Baseline["group"] != "control" {
		t.Errorf("Expected relabeled baseline 'control', got %q", dm.Baseline["group"])
	}
	if dm.ColNames[1] != "group[T.treatment]" {
		t.Errorf("Expected relabeled indicator column, got %q", dm.ColNames[1])
	}
}

func TestEncodeRelabelMergesLevels(t *testing.T) {
	tbl, err := table.New(
		table.NewNumericColumn("y", []float64{1, 2, 3, 4}),
		table.NewCategoricalColumn("g", []string{"a", "b", "c", "a"}),
	)
	if err != nil {
		t.Fatalf("Failed to build table: %v", err)
	}

	dm, err := NewEncoder().Encode(tbl, Spec{
		Response: "y",
		Terms: []analysis.ModelTerm{{
			Column:  "g",
			Role:    analysis.RoleFactor,
			Relabel: map[string]string{"a": "low", "b": "high", "c": "high"},
		}},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !reflect.DeepEqual(dm.Levels["g"], []string{"low", "high"}) {
		t.Errorf("Expected merged levels [low high], got %v", dm.Levels["g"])
	}
}

func TestEncodeErrors(t *testing.T) {
	tbl := fixtureTable(t)
	enc := NewEncoder()

	tests := []struct {
		name     string
		spec     Spec
		wantCode string
	}{
		{
			"no terms",
			Spec{Response: "score"},
			errors.CodeNoIndependentVariable,
		},
		{
			"missing response",
			Spec{Response: "nope", Terms: []analysis.ModelTerm{{Column: "group", Role: analysis.RoleFactor}}},
			errors.CodeColumnNotFound,
		},
		{
			"categorical response",
			Spec{Response: "group", Terms: []analysis.ModelTerm{{Column: "age", Role: analysis.RoleCovariate}}},
			errors.CodeColumnKind,
		},
		{
			"missing term column",
			Spec{Response: "score", Terms: []analysis.ModelTerm{{Column: "nope", Role: analysis.RoleFactor}}},
			errors.CodeColumnNotFound,
		},
		{
			"categorical covariate",
			Spec{Response: "score", Terms: []analysis.ModelTerm{{Column: "group", Role: analysis.RoleCovariate}}},
			errors.CodeColumnKind,
		},
		{
			"duplicate term",
			Spec{Response: "score", Terms: []analysis.ModelTerm{
				{Column: "age", Role: analysis.RoleCovariate},
				{Column: "age", Role: analysis.RoleCovariate},
			}},
			errors.CodeInvalidInput,
		},
		{
			"incomplete relabel",
			Spec{Response: "score", Terms: []analysis.ModelTerm{{
				Column:  "group",
				Role:    analysis.RoleFactor,
				Relabel: map[string]string{"a": "treatment"},
			}}},
			errors.CodeIncompleteLabelMapping,
		},
	}

	for _, test := range tests {
		_, err := enc.Encode(tbl, test.spec)
		if err == nil {
			t.Errorf("%s: expected error, got none", test.name)
			continue
		}
		if !errors.IsCode(err, test.wantCode) {
			t.Errorf("%s: expected code %s, got %s", test.name, test.wantCode, errors.GetCode(err))
		}
	}
}

func TestEncodeSingleLevelFactor(t *testing.T) {
	tbl, err := table.New(
		table.NewNumericColumn("y", []float64{1, 2, 3}),
		table.NewCategoricalColumn("g", []string{"only", "only", "only"}),
	)
	if err != nil {
		t.Fatalf("Failed to build table: %v", err)
	}

	_, err = NewEncoder().Encode(tbl, Spec{
		Response: "y",
		Terms:    []analysis.ModelTerm{{Column: "g", Role: analysis.RoleFactor}},
	})
	if !errors.IsCode(err, errors.CodeInsufficientFactorLevels) {
		t.Errorf("Expected INSUFFICIENT_FACTOR_LEVELS, got %v", err)
	}
}

func TestEncodeDeterminism(t *testing.T) {
	tbl := fixtureTable(t)
	enc := NewEncoder()
	spec := Spec{
		Response: "score",
		Terms: []analysis.ModelTerm{
			{Column: "group", Role: analysis.RoleFactor},
			{Column: "age", Role: analysis.RoleCovariate},
		},
	}

	a, err := enc.Encode(tbl, spec)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	b, err := enc.Encode(tbl, spec)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !reflect.DeepEqual(a, b) {
		t.Error("Encoding the same spec twice produced different matrices")
	}
}

func TestWithoutTerm(t *testing.T) {
	tbl := fixtureTable(t)
	dm, err := NewEncoder().Encode(tbl, Spec{
		Response: "score",
		Terms: []analysis.ModelTerm{
			{Column: "group", Role: analysis.RoleFactor},
			{Column: "age", Role: analysis.RoleCovariate},
		},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	restricted := WithoutTerm(dm, "group")
	if len(restricted.ColNames) != 2 {
		t.Fatalf("Expected 2 columns after dropping group, got %v", restricted.ColNames)
	}
	if restricted.ColNames[1] != "age" {
		t.Errorf("Expected surviving column 'age', got %q", restricted.ColNames[1])
	}
	if restricted.Terms[0].Start != 1 || restricted.Terms[0].End != 2 {
		t.Errorf("Expected age span to shift to [1,2), got [%d,%d)",
			restricted.Terms[0].Start, restricted.Terms[0].End)
	}
	if restricted.Rows != dm.Rows {
		t.Errorf("Row count changed: %d -> %d", dm.Rows, restricted.Rows)
	}
	for r := range restricted.X {
		if len(restricted.X[r]) != 2 {
			t.Fatalf("Row %d has %d columns, expected 2", r, len(restricted.X[r]))
		}
		if restricted.X[r][1] != dm.X[r][2] {
			t.Errorf("Row %d: age value moved incorrectly", r)
		}
	}

	// Dropping an unknown term is a no-op
	same := WithoutTerm(dm, "nothere")
	if !reflect.DeepEqual(same, dm) {
		t.Error("Dropping an unknown term should return the design unchanged")
	}
}
