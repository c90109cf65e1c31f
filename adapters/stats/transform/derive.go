package transform

import (
	"math"

	"goanova/domain/analysis"
	"goanova/domain/table"
	"goanova/internal/errors"
)

// DeriveEngine computes new columns from row-wise combinations of existing
// numeric columns. Input tables are never mutated; every application returns
// a new table with the derived column appended, or replacing a column of the
// same name in place.
type DeriveEngine struct{}

// NewDeriveEngine creates a new derivation engine
func NewDeriveEngine() *DeriveEngine {
	return &DeriveEngine{}
}

// Apply runs the specs in order; each spec sees the columns committed by the
// specs before it. On failure the table committed so far is returned along
// with the number of specs applied, so callers keep earlier derivations.
func (e *DeriveEngine) Apply(tbl table.Table, specs []analysis.DerivedColumnSpec) (table.Table, int, error) {
	current := tbl
	for i, spec := range specs {
		col, err := e.derive(current, spec)
		if err != nil {
			return current, i, err
		}
		current = current.WithColumn(col)
	}
	return current, len(specs), nil
}

// derive validates one spec against the current table and computes its column
func (e *DeriveEngine) derive(tbl table.Table, spec analysis.DerivedColumnSpec) (table.Column, error) {
	if spec.Target == "" {
		return table.Column{}, errors.InvalidInput("derived column requires a target name")
	}
	if len(spec.Source) == 0 {
		return table.Column{}, errors.InvalidInput("derived column requires at least one source column")
	}
	if spec.Op == analysis.DeriveComplement && len(spec.Source) != 1 {
		return table.Column{}, errors.Newf(errors.CodeInvalidInput,
			"complement takes exactly one source column, got %d", len(spec.Source))
	}

	sources := make([][]float64, len(spec.Source))
	for i, name := range spec.Source {
		col, ok := tbl.Column(name)
		if !ok {
			return table.Column{}, errors.ColumnNotFound(name)
		}
		if col.Kind != table.KindNumeric {
			return table.Column{}, errors.ColumnKind(name, string(table.KindNumeric), string(col.Kind))
		}
		sources[i] = col.Numeric
	}

	rows := tbl.NumRows()
	values := make([]float64, rows)

	switch spec.Op {
	case analysis.DeriveMean:
		for r := 0; r < rows; r++ {
			sum, n := 0.0, 0
			for _, src := range sources {
				if !math.IsNaN(src[r]) {
					sum += src[r]
					n++
				}
			}
			if n == 0 {
				values[r] = math.NaN()
			} else {
				values[r] = sum / float64(n)
			}
		}
	case analysis.DeriveSum:
		// A row with no present values sums to zero, not missing
		for r := 0; r < rows; r++ {
			sum := 0.0
			for _, src := range sources {
				if !math.IsNaN(src[r]) {
					sum += src[r]
				}
			}
			values[r] = sum
		}
	case analysis.DeriveComplement:
		for r := 0; r < rows; r++ {
			values[r] = spec.K - sources[0][r]
		}
	case analysis.DeriveCoalesce:
		for r := 0; r < rows; r++ {
			values[r] = math.NaN()
			for _, src := range sources {
				if !math.IsNaN(src[r]) {
					values[r] = src[r]
					break
				}
			}
		}
	default:
		return table.Column{}, errors.Newf(errors.CodeInvalidInput, "unknown derivation op %q", spec.Op)
	}

	return table.NewNumericColumn(spec.Target, values), nil
}
