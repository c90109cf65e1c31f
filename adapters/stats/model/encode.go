package model

import (
	"fmt"

	"goanova/domain/analysis"
	"goanova/domain/table"
	"goanova/internal/errors"
)

// Spec describes an additive model: response ~ term1 + term2 + ...
type Spec struct {
	Response string               `json:"response"`
	Terms    []analysis.ModelTerm `json:"terms"`
}

// InterceptName is the first design column, a constant 1.0
const InterceptName = "Intercept"

// Encoder turns a model spec and a table into a design matrix.
// Factors are treatment coded: the first level observed in row order is the
// baseline and each remaining level gets an indicator column. Rows missing
// the response or any term value are dropped before encoding, so the same
// spec against the same table always yields the same matrix.
type Encoder struct{}

// NewEncoder creates a new design matrix encoder
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Encode validates the spec against the table and builds the design matrix
func (e *Encoder) Encode(tbl table.Table, spec Spec) (*analysis.DesignMatrix, error) {
	if len(spec.Terms) == 0 {
		return nil, errors.NoIndependentVariable()
	}

	respCol, ok := tbl.Column(spec.Response)
	if !ok {
		return nil, errors.ColumnNotFound(spec.Response)
	}
	if respCol.Kind != table.KindNumeric {
		return nil, errors.ColumnKind(spec.Response, string(table.KindNumeric), string(respCol.Kind))
	}

	termCols := make([]table.Column, len(spec.Terms))
	seen := make(map[string]bool, len(spec.Terms))
	for i, term := range spec.Terms {
		if seen[term.Column] {
			return nil, errors.Newf(errors.CodeInvalidInput, "term %q appears twice in the model", term.Column)
		}
		seen[term.Column] = true

		col, ok := tbl.Column(term.Column)
		if !ok {
			return nil, errors.ColumnNotFound(term.Column)
		}
		switch term.Role {
		case analysis.RoleCovariate:
			if col.Kind != table.KindNumeric {
				return nil, errors.ColumnKind(term.Column, string(table.KindNumeric), string(col.Kind))
			}
		case analysis.RoleFactor:
			// factors accept either kind; numeric values become level strings
		default:
			return nil, errors.Newf(errors.CodeInvalidInput, "unknown term role %q for %q", term.Role, term.Column)
		}
		termCols[i] = col
	}

	// Listwise deletion over the response and every term column
	kept := make([]int, 0, tbl.NumRows())
	for r := 0; r < tbl.NumRows(); r++ {
		if respCol.IsMissing(r) {
			continue
		}
		complete := true
		for _, col := range termCols {
			if col.IsMissing(r) {
				complete = false
				break
			}
		}
		if complete {
			kept = append(kept, r)
		}
	}

	// Resolve factor levels over the surviving rows, in first-observed order
	levels := make(map[string][]string)
	baseline := make(map[string]string)
	levelIndex := make(map[string]map[string]int)
	for i, term := range spec.Terms {
		if term.Role != analysis.RoleFactor {
			continue
		}
		order, index, err := resolveLevels(termCols[i], term, kept)
		if err != nil {
			return nil, err
		}
		if len(order) < 2 {
			return nil, errors.InsufficientFactorLevels(term.Column, len(order))
		}
		levels[term.Column] = order
		baseline[term.Column] = order[0]
		levelIndex[term.Column] = index
	}

	// Column layout: intercept, then each term's span in model order
	colNames := []string{InterceptName}
	spans := make([]analysis.TermSpan, len(spec.Terms))
	for i, term := range spec.Terms {
		start := len(colNames)
		if term.Role == analysis.RoleFactor {
			for _, level := range levels[term.Column][1:] {
				colNames = append(colNames, fmt.Sprintf("%s[T.%s]", term.Column, level))
			}
		} else {
			colNames = append(colNames, term.Column)
		}
		spans[i] = analysis.TermSpan{Term: term.Column, Role: term.Role, Start: start, End: len(colNames)}
	}

	x := make([][]float64, len(kept))
	y := make([]float64, len(kept))
	for rowIdx, r := range kept {
		row := make([]float64, len(colNames))
		row[0] = 1.0
		for i, term := range spec.Terms {
			span := spans[i]
			if term.Role == analysis.RoleFactor {
				level := mappedLevel(termCols[i], term, r)
				if pos := levelIndex[term.Column][level]; pos > 0 {
					row[span.Start+pos-1] = 1.0
				}
			} else {
				row[span.Start] = termCols[i].Numeric[r]
			}
		}
		x[rowIdx] = row
		y[rowIdx] = respCol.Numeric[r]
	}

	return &analysis.DesignMatrix{
		X:            x,
		ColNames:     colNames,
		Response:     y,
		ResponseName: spec.Response,
		Terms:        spans,
		Baseline:     baseline,
		Levels:       levels,
		Rows:         len(kept),
		KeptRows:     kept,
	}, nil
}

// resolveLevels walks the kept rows in order, applies the relabel map, and
// returns the distinct levels first-observed plus their positions
func resolveLevels(col table.Column, term analysis.ModelTerm, kept []int) ([]string, map[string]int, error) {
	order := make([]string, 0, 8)
	index := make(map[string]int)
	for _, r := range kept {
		raw := rawLevel(col, r)
		level := raw
		if len(term.Relabel) > 0 {
			mapped, ok := term.Relabel[raw]
			if !ok {
				return nil, nil, errors.IncompleteLabelMapping(term.Column, raw)
			}
			level = mapped
		}
		if _, ok := index[level]; !ok {
			index[level] = len(order)
			order = append(order, level)
		}
	}
	return order, index, nil
}

// mappedLevel returns the level string for row r with the relabel map applied.
// Coverage was already checked by resolveLevels.
func mappedLevel(col table.Column, term analysis.ModelTerm, r int) string {
	raw := rawLevel(col, r)
	if len(term.Relabel) > 0 {
		return term.Relabel[raw]
	}
	return raw
}

func rawLevel(col table.Column, r int) string {
	if col.Kind == table.KindCategorical {
		return col.Labels[r]
	}
	return table.FormatLevel(col.Numeric[r])
}

// WithoutTerm builds the restricted design that omits one term's column span,
// keeping the same rows, response and remaining spans
func WithoutTerm(dm *analysis.DesignMatrix, term string) *analysis.DesignMatrix {
	var drop analysis.TermSpan
	found := false
	for _, span := range dm.Terms {
		if span.Term == term {
			drop = span
			found = true
			break
		}
	}
	if !found {
		return dm
	}

	width := drop.DF()
	colNames := make([]string, 0, len(dm.ColNames)-width)
	colNames = append(colNames, dm.ColNames[:drop.Start]...)
	colNames = append(colNames, dm.ColNames[drop.End:]...)

	x := make([][]float64, len(dm.X))
	for i, row := range dm.X {
		nr := make([]float64, 0, len(row)-width)
		nr = append(nr, row[:drop.Start]...)
		nr = append(nr, row[drop.End:]...)
		x[i] = nr
	}

	terms := make([]analysis.TermSpan, 0, len(dm.Terms)-1)
	for _, span := range dm.Terms {
		if span.Term == term {
			continue
		}
		if span.Start > drop.Start {
			span.Start -= width
			span.End -= width
		}
		terms = append(terms, span)
	}

	return &analysis.DesignMatrix{
		X:            x,
		ColNames:     colNames,
		Response:     dm.Response,
		ResponseName: dm.ResponseName,
		Terms:        terms,
		Baseline:     dm.Baseline,
		Levels:       dm.Levels,
		Rows:         dm.Rows,
		KeptRows:     dm.KeptRows,
	}
}
