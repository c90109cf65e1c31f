package contingency

import (
	"fmt"
	"math"
	"sort"

	"goanova/adapters/stats/distrib"
	"goanova/domain/analysis"
	"goanova/domain/table"
	"goanova/internal/errors"
)

// ChiSquareEngine runs the chi-square test of independence over a
// cross-tabulation of two columns
type ChiSquareEngine struct {
	distributions *distrib.StatisticalDistributions
}

// NewChiSquareEngine creates a new chi-square engine
func NewChiSquareEngine() *ChiSquareEngine {
	return &ChiSquareEngine{distributions: distrib.NewDistributions()}
}

// Analyze crosstabulates req.RowVar against req.ColVar and tests the
// observed counts for independence.
//
// INVARIANTS:
//   - levels on both axes are the observed distinct values, sorted
//     lexicographically; numeric columns are formatted like factor levels
//   - rows with a missing value in either column are dropped before counting
//   - a degenerate crosstab (fewer than 2 levels on an axis, no complete
//     rows, a zero marginal) fails before any expected frequency is divided
//   - the expected counts sum to the observed grand total
func (e *ChiSquareEngine) Analyze(tbl table.Table, req analysis.ChiSquareRequest) (*analysis.ChiSquareResult, error) {
	rowCol, ok := tbl.Column(req.RowVar)
	if !ok {
		return nil, errors.ColumnNotFound(req.RowVar)
	}
	colCol, ok := tbl.Column(req.ColVar)
	if !ok {
		return nil, errors.ColumnNotFound(req.ColVar)
	}

	counts := make(map[[2]string]float64)
	rowSeen := make(map[string]bool)
	colSeen := make(map[string]bool)
	for i := 0; i < tbl.NumRows(); i++ {
		if rowCol.IsMissing(i) || colCol.IsMissing(i) {
			continue
		}
		r := cellLabel(rowCol, i)
		c := cellLabel(colCol, i)
		rowSeen[r] = true
		colSeen[c] = true
		counts[[2]string{r, c}]++
	}

	rowLevels := sortedLevels(rowSeen)
	colLevels := sortedLevels(colSeen)

	if len(counts) == 0 {
		return nil, errors.DegenerateTable("no rows with values in both columns")
	}
	if len(rowLevels) < 2 || len(colLevels) < 2 {
		return nil, errors.Newf(errors.CodeDegenerateTable,
			"need at least 2 levels on each axis, got %dx%d", len(rowLevels), len(colLevels))
	}

	observed := make([][]float64, len(rowLevels))
	rowTotals := make([]float64, len(rowLevels))
	colTotals := make([]float64, len(colLevels))
	grand := 0.0
	for i, r := range rowLevels {
		observed[i] = make([]float64, len(colLevels))
		for j, c := range colLevels {
			v := counts[[2]string{r, c}]
			observed[i][j] = v
			rowTotals[i] += v
			colTotals[j] += v
			grand += v
		}
	}

	// Every expected frequency divides by a marginal, so degeneracy must be
	// ruled out before any of them is computed
	for i, total := range rowTotals {
		if total == 0 {
			return nil, errors.DegenerateTable(fmt.Sprintf("row level %q has no observations", rowLevels[i]))
		}
	}
	for j, total := range colTotals {
		if total == 0 {
			return nil, errors.DegenerateTable(fmt.Sprintf("column level %q has no observations", colLevels[j]))
		}
	}

	expected := make([][]float64, len(rowLevels))
	statistic := 0.0
	for i := range rowLevels {
		expected[i] = make([]float64, len(colLevels))
		for j := range colLevels {
			want := rowTotals[i] * colTotals[j] / grand
			expected[i][j] = want
			d := observed[i][j] - want
			statistic += d * d / want
		}
	}

	df := (len(rowLevels) - 1) * (len(colLevels) - 1)

	minDim := len(rowLevels)
	if len(colLevels) < minDim {
		minDim = len(colLevels)
	}

	return &analysis.ChiSquareResult{
		Statistic: statistic,
		DF:        df,
		P:         e.distributions.ChiSquarePValue(statistic, df),
		CramersV:  math.Sqrt(statistic / (grand * float64(minDim-1))),
		Expected:  expected,
		Table: analysis.ContingencyTable{
			RowLevels: rowLevels,
			ColLevels: colLevels,
			Observed:  observed,
			RowTotals: rowTotals,
			ColTotals: colTotals,
			Grand:     grand,
		},
	}, nil
}

// cellLabel reads one cell as a level label, formatting numeric values the
// same way factor encoding does
func cellLabel(col table.Column, i int) string {
	if col.Kind == table.KindCategorical {
		return col.Labels[i]
	}
	return table.FormatLevel(col.Numeric[i])
}

func sortedLevels(seen map[string]bool) []string {
	levels := make([]string, 0, len(seen))
	for level := range seen {
		levels = append(levels, level)
	}
	sort.Strings(levels)
	return levels
}
