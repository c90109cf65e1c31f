package testkit

import (
	"math/rand"

	"goanova/domain/table"
)

// Kit builds deterministic fixture tables for engine and service tests.
// Every table is a pure function of the seed and the call order, so a test
// can assert exact values observed on an earlier run.
type Kit struct {
	rng *rand.Rand
}

// New creates a kit with its own seeded stream
func New(seed int64) *Kit {
	return &Kit{rng: rand.New(rand.NewSource(seed))}
}

// GroupSpec describes one factor level of a synthetic one-way layout
type GroupSpec struct {
	Label string
	N     int
	Mean  float64
	SD    float64
}

// Groups builds a one-factor table: a numeric "score" column drawn normally
// around each group's mean and a categorical "group" column. Rows come out
// grouped in spec order.
func (k *Kit) Groups(specs ...GroupSpec) (table.Table, error) {
	var scores []float64
	var labels []string
	for _, spec := range specs {
		for i := 0; i < spec.N; i++ {
			scores = append(scores, spec.Mean+k.rng.NormFloat64()*spec.SD)
			labels = append(labels, spec.Label)
		}
	}
	return table.New(
		table.NewNumericColumn("score", scores),
		table.NewCategoricalColumn("group", labels),
	)
}

// Crosstab builds two categorical columns ("row", "col") realizing exact
// cell counts, one row per observation. counts[i][j] is the number of rows
// carrying (rowLevels[i], colLevels[j]).
func (k *Kit) Crosstab(rowLevels, colLevels []string, counts [][]int) (table.Table, error) {
	var rows []string
	var cols []string
	for i, rl := range rowLevels {
		for j, cl := range colLevels {
			for c := 0; c < counts[i][j]; c++ {
				rows = append(rows, rl)
				cols = append(cols, cl)
			}
		}
	}
	return table.New(
		table.NewCategoricalColumn("row", rows),
		table.NewCategoricalColumn("col", cols),
	)
}

// MediationChain builds numeric columns "x", "m", "y" following
// m = a*x + noise and y = cPrime*x + b*m + noise, the simple mediation
// structure with true paths (a, b, cPrime)
func (k *Kit) MediationChain(n int, a, b, cPrime, noiseSD float64) (table.Table, error) {
	x := make([]float64, n)
	m := make([]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = k.rng.NormFloat64() * 2
		m[i] = a*x[i] + k.rng.NormFloat64()*noiseSD
		y[i] = cPrime*x[i] + b*m[i] + k.rng.NormFloat64()*noiseSD
	}
	return table.New(
		table.NewNumericColumn("x", x),
		table.NewNumericColumn("m", m),
		table.NewNumericColumn("y", y),
	)
}

// Numeric builds a single numeric column of normal draws, for derivation
// and profile fixtures
func (k *Kit) Numeric(name string, n int, mean, sd float64) table.Column {
	values := make([]float64, n)
	for i := range values {
		values[i] = mean + k.rng.NormFloat64()*sd
	}
	return table.NewNumericColumn(name, values)
}
