package posthoc

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"goanova/adapters/stats/distrib"
	"goanova/adapters/stats/model"
	"goanova/domain/analysis"
	"goanova/domain/table"
	"goanova/internal/errors"
)

// DefaultAlpha is used when a request leaves the significance level unset
const DefaultAlpha = 0.05

// TukeyEngine computes Tukey HSD pairwise comparisons for a one-way design.
// It refuses anything beyond a single factor rather than silently producing
// comparisons that ignore the other terms.
type TukeyEngine struct {
	encoder       *model.Encoder
	distributions *distrib.StatisticalDistributions
}

// NewTukeyEngine creates a new post-hoc engine
func NewTukeyEngine() *TukeyEngine {
	return &TukeyEngine{
		encoder:       model.NewEncoder(),
		distributions: distrib.NewDistributions(),
	}
}

// Analyze runs every pairwise comparison between the factor's levels.
//
// INVARIANTS:
//   - exactly C(k, 2) comparisons for k observed levels, no self pairs
//   - pairs are enumerated lexicographically by LevelA, then LevelB
//   - MSE is the pooled within-group variance SS_within / (N - k)
//   - the adjusted p-value and the critical value share the same
//     studentized range distribution with parameters (k, N - k)
func (e *TukeyEngine) Analyze(tbl table.Table, req analysis.PostHocRequest) (*analysis.PostHocResult, error) {
	if len(req.Terms) == 0 {
		return nil, errors.NoIndependentVariable()
	}
	if len(req.Terms) > 1 {
		return nil, errors.NotSupported("post-hoc comparisons require a single-factor design, remove the additional model terms")
	}
	if req.Terms[0].Role != analysis.RoleFactor {
		return nil, errors.NotSupported("post-hoc comparisons require a factor, not a covariate")
	}

	alpha := req.Alpha
	if alpha == 0 {
		alpha = DefaultAlpha
	}
	if alpha < 0 || alpha >= 1 {
		return nil, errors.InvalidInput("alpha must lie strictly between 0 and 1")
	}

	dm, err := e.encoder.Encode(tbl, model.Spec{Response: req.Response, Terms: req.Terms})
	if err != nil {
		return nil, err
	}

	span := model.FirstFactor(dm)
	order, grouped := model.GroupValues(dm, span)

	levels := make([]string, len(order))
	copy(levels, order)
	sort.Strings(levels)

	k := len(levels)
	dfResid := dm.Rows - k
	if dfResid < 1 {
		return nil, errors.SingularDesign("every level has a single observation, no within-group variance to pool")
	}

	means := make(map[string]float64, k)
	ssWithin := 0.0
	for _, level := range levels {
		values := grouped[level]
		mean, err := stats.Mean(values)
		if err != nil {
			return nil, errors.Wrapf(err, "mean of level %q", level)
		}
		means[level] = mean
		for _, v := range values {
			d := v - mean
			ssWithin += d * d
		}
	}
	mse := ssWithin / float64(dfResid)

	crit := e.distributions.StudentizedRangeQuantile(1-alpha, k, dfResid)

	comparisons := make([]analysis.PostHocComparison, 0, k*(k-1)/2)
	for i := 0; i < k; i++ {
		for j := i + 1; j < k; j++ {
			a, b := levels[i], levels[j]
			na, nb := len(grouped[a]), len(grouped[b])

			diff := means[a] - means[b]
			se := math.Sqrt(mse / 2 * (1/float64(na) + 1/float64(nb)))
			q := math.Abs(diff) / se
			p := 1 - e.distributions.StudentizedRangeCDF(q, k, dfResid)

			comparisons = append(comparisons, analysis.PostHocComparison{
				LevelA: a,
				LevelB: b,
				Diff:   diff,
				SE:     se,
				Q:      analysis.NullableFloat(q),
				P:      analysis.NullableFloat(p),
				Lower:  diff - crit*se,
				Upper:  diff + crit*se,
				Reject: p < alpha,
			})
		}
	}

	return &analysis.PostHocResult{
		Factor:      span.Term,
		Response:    dm.ResponseName,
		Alpha:       alpha,
		MSE:         mse,
		DFResid:     dfResid,
		NGroups:     k,
		Comparisons: comparisons,
	}, nil
}
