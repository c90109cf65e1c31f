package model

import (
	"goanova/domain/analysis"
)

// FirstFactor returns the span of the first factor term in the design, or
// nil when the model has covariates only
func FirstFactor(dm *analysis.DesignMatrix) *analysis.TermSpan {
	for i := range dm.Terms {
		if dm.Terms[i].Role == analysis.RoleFactor {
			return &dm.Terms[i]
		}
	}
	return nil
}

// GroupValues splits the encoded response by the levels of one factor term,
// reading each row's level back out of its indicator columns. Keys are the
// term's observed levels, so every returned slice is non-empty; order is the
// first-observed level order from encoding.
func GroupValues(dm *analysis.DesignMatrix, span *analysis.TermSpan) (order []string, groups map[string][]float64) {
	order = dm.Levels[span.Term]
	groups = make(map[string][]float64, len(order))
	for r := 0; r < dm.Rows; r++ {
		level := rowLevel(dm, span, r)
		groups[level] = append(groups[level], dm.Response[r])
	}
	return order, groups
}

// rowLevel inverts treatment coding for one row: the level whose indicator
// is set, or the baseline when none is
func rowLevel(dm *analysis.DesignMatrix, span *analysis.TermSpan, r int) string {
	levels := dm.Levels[span.Term]
	for j := span.Start; j < span.End; j++ {
		if dm.X[r][j] == 1 {
			return levels[j-span.Start+1]
		}
	}
	return levels[0]
}
