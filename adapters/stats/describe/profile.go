package describe

import (
	"math"

	"github.com/montanaflynn/stats"

	"goanova/domain/analysis"
	"goanova/domain/table"
	"goanova/internal/errors"
)

// ProfileEngine summarizes table columns for dataset preview
type ProfileEngine struct{}

// NewProfileEngine creates a new profile engine
func NewProfileEngine() *ProfileEngine {
	return &ProfileEngine{}
}

// Profile summarizes the requested columns, or every column when the
// request names none. Output order follows the table's column order, not
// the request's.
func (e *ProfileEngine) Profile(tbl table.Table, req analysis.ProfileRequest) (*analysis.TableProfile, error) {
	include := make(map[string]bool, len(req.Columns))
	for _, name := range req.Columns {
		if !tbl.HasColumn(name) {
			return nil, errors.ColumnNotFound(name)
		}
		include[name] = true
	}

	profile := &analysis.TableProfile{Rows: tbl.NumRows()}
	for _, col := range tbl.Columns {
		if len(include) > 0 && !include[col.Name] {
			continue
		}
		if col.Kind == table.KindNumeric {
			profile.Columns = append(profile.Columns, summarizeNumeric(col))
		} else {
			profile.Columns = append(profile.Columns, summarizeCategorical(col))
		}
	}
	return profile, nil
}

func summarizeNumeric(col table.Column) analysis.ColumnSummary {
	present := make([]float64, 0, col.Len())
	for i, v := range col.Numeric {
		if !col.IsMissing(i) {
			present = append(present, v)
		}
	}

	s := analysis.ColumnSummary{
		Name:    col.Name,
		Kind:    string(col.Kind),
		N:       len(present),
		Missing: col.Len() - len(present),
		Mean:    nullable(stats.Mean(present)),
		Min:     nullable(stats.Min(present)),
		Max:     nullable(stats.Max(present)),
		Median:  nullable(stats.Median(present)),
		Q1:      nullable(stats.Percentile(present, 25)),
		Q3:      nullable(stats.Percentile(present, 75)),
	}

	s.StdDev = analysis.NullableFloat(math.NaN())
	if len(present) > 1 {
		s.StdDev = nullable(stats.StandardDeviationSample(present))
	}
	return s
}

func summarizeCategorical(col table.Column) analysis.ColumnSummary {
	counts := make(map[string]int)
	n := 0
	for i, label := range col.Labels {
		if col.IsMissing(i) {
			continue
		}
		n++
		counts[label]++
	}

	// Ties on the mode go to the lexicographically smallest label so the
	// profile is deterministic
	mode := ""
	modeFreq := 0
	for label, freq := range counts {
		if freq > modeFreq || (freq == modeFreq && label < mode) {
			mode = label
			modeFreq = freq
		}
	}

	nan := analysis.NullableFloat(math.NaN())
	return analysis.ColumnSummary{
		Name:     col.Name,
		Kind:     string(col.Kind),
		N:        n,
		Missing:  col.Len() - n,
		Mean:     nan,
		StdDev:   nan,
		Min:      nan,
		Max:      nan,
		Median:   nan,
		Q1:       nan,
		Q3:       nan,
		Distinct: len(counts),
		Mode:     mode,
		ModeFreq: modeFreq,
	}
}

// nullable folds the stats package's empty-input errors into NaN, which the
// JSON layer renders as null
func nullable(v float64, err error) analysis.NullableFloat {
	if err != nil {
		return analysis.NullableFloat(math.NaN())
	}
	return analysis.NullableFloat(v)
}
