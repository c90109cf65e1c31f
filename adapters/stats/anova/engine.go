package anova

import (
	"math"

	"github.com/montanaflynn/stats"

	"goanova/adapters/stats/distrib"
	"goanova/adapters/stats/linmodel"
	"goanova/adapters/stats/model"
	"goanova/domain/analysis"
	"goanova/domain/table"
	"goanova/internal/errors"
)

// AnovaEngine runs Type-II ANOVA/ANCOVA over an additive model. Each term's
// sum of squares is the SSE gap between the model without that term and the
// full model, so term order never changes the table.
type AnovaEngine struct {
	encoder       *model.Encoder
	ols           *linmodel.OLSEngine
	distributions *distrib.StatisticalDistributions
}

// NewAnovaEngine creates a new ANOVA engine
func NewAnovaEngine() *AnovaEngine {
	return &AnovaEngine{
		encoder:       model.NewEncoder(),
		ols:           linmodel.NewOLSEngine(),
		distributions: distrib.NewDistributions(),
	}
}

// Analyze fits the full model and produces the Type-II table plus raw group
// descriptives for the first factor term
func (e *AnovaEngine) Analyze(tbl table.Table, req analysis.AnovaRequest) (*analysis.AnovaResult, error) {
	dm, err := e.encoder.Encode(tbl, model.Spec{Response: req.Response, Terms: req.Terms})
	if err != nil {
		return nil, err
	}

	full, err := e.ols.Fit(dm)
	if err != nil {
		return nil, err
	}
	if full.DFResid < 1 {
		return nil, errors.SingularDesign("model is saturated, no residual degrees of freedom to test against")
	}

	rows := make([]analysis.AnovaRow, 0, len(dm.Terms)+1)
	for _, span := range dm.Terms {
		// Rank deficiency is only fatal for the full model; a collinear
		// submodel still has a well-defined attainable SSE to difference
		restrictedSSE, _ := e.ols.ResidualSS(model.WithoutTerm(dm, span.Term))

		ss := restrictedSSE - full.SSE
		if ss < 0 {
			// Attainable only through roundoff; the restricted model can
			// never fit better than the full one
			ss = 0
		}
		df := span.DF()
		f := (ss / float64(df)) / full.SigmaSq
		p := e.distributions.FTestPValue(f, df, full.DFResid)

		rows = append(rows, analysis.AnovaRow{
			Term:  span.Term,
			SumSq: ss,
			DF:    df,
			F:     analysis.NullableFloat(f),
			P:     analysis.NullableFloat(p),
		})
	}

	rows = append(rows, analysis.AnovaRow{
		Term:  analysis.ResidualTerm,
		SumSq: full.SSE,
		DF:    full.DFResid,
		F:     analysis.NullableFloat(math.NaN()),
		P:     analysis.NullableFloat(math.NaN()),
	})

	return &analysis.AnovaResult{
		Response: dm.ResponseName,
		Rows:     rows,
		Groups:   e.groupStats(dm),
		Baseline: dm.Baseline,
		NObs:     dm.Rows,
		RankX:    full.Rank,
	}, nil
}

// groupStats summarizes the raw response within each level of the first
// factor term, in first-observed level order. Models without a factor have
// no group breakdown.
func (e *AnovaEngine) groupStats(dm *analysis.DesignMatrix) []analysis.GroupStat {
	span := model.FirstFactor(dm)
	if span == nil {
		return nil
	}

	order, grouped := model.GroupValues(dm, span)

	out := make([]analysis.GroupStat, 0, len(order))
	for _, level := range order {
		values := grouped[level]
		if len(values) == 0 {
			continue
		}

		mean, err := stats.Mean(values)
		if err != nil {
			mean = math.NaN()
		}
		sd := math.NaN()
		if len(values) > 1 {
			if s, err := stats.StandardDeviationSample(values); err == nil {
				sd = s
			}
		}

		out = append(out, analysis.GroupStat{
			Level:  level,
			N:      len(values),
			Mean:   mean,
			StdDev: analysis.NullableFloat(sd),
		})
	}
	return out
}
