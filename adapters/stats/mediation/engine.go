package mediation

import (
	"context"
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"goanova/adapters/stats/distrib"
	"goanova/adapters/stats/linmodel"
	"goanova/adapters/stats/model"
	"goanova/domain/analysis"
	"goanova/domain/table"
	"goanova/internal/errors"
	"goanova/ports"
)

// Bootstrap defaults; overridable per engine and per request
const (
	DefaultBootSamples = 5000
	DefaultWorkers     = 4
	DefaultSeed        = 42
	DefaultAlpha       = 0.05

	// Share of singular resamples tolerated before the whole run is
	// declared unstable
	maxSkippedShare = 0.10
)

// MediationEngine estimates conditional process models (PROCESS numbering 4,
// 7 and 14) from two least squares equations plus a percentile bootstrap for
// the indirect effect.
type MediationEngine struct {
	ols           *linmodel.OLSEngine
	distributions *distrib.StatisticalDistributions
	rng           ports.RNGPort

	bootSamples int
	workers     int
	seed        int64
}

// NewMediationEngine creates a new mediation engine with default bootstrap settings
func NewMediationEngine(rngPort ports.RNGPort) *MediationEngine {
	return &MediationEngine{
		ols:           linmodel.NewOLSEngine(),
		distributions: distrib.NewDistributions(),
		rng:           rngPort,
		bootSamples:   DefaultBootSamples,
		workers:       DefaultWorkers,
		seed:          DefaultSeed,
	}
}

// SetBootstrap configures the resample count, the worker pool size and the
// base seed. Zero values keep the current setting.
func (e *MediationEngine) SetBootstrap(samples, workers int, seed int64) {
	if samples > 0 {
		e.bootSamples = samples
	}
	if workers > 0 {
		e.workers = workers
	}
	if seed != 0 {
		e.seed = seed
	}
}

// frame is the listwise-complete numeric data one model run works on
type frame struct {
	n    int
	x    []float64
	m    []float64
	y    []float64
	w    []float64
	covs [][]float64

	covNames []string
	meanW    float64
}

// Analyze fits the requested conditional process model.
//
// INVARIANTS:
//   - x, m, y (and w for models 7 and 14) are numeric columns; rows with a
//     missing value in any model variable are dropped once, so both
//     equations see the same rows
//   - interaction columns are built internally from mean-centered
//     components; the moderator probe points stay fixed across resamples
//   - a fixed seed, resample count and worker count fully determine the
//     bootstrap intervals
func (e *MediationEngine) Analyze(ctx context.Context, tbl table.Table, req analysis.MediationRequest) (*analysis.MediationResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	alpha := req.Alpha
	if alpha == 0 {
		alpha = DefaultAlpha
	}
	if alpha < 0 || alpha >= 1 {
		return nil, errors.InvalidInput("alpha must lie strictly between 0 and 1")
	}

	samples := e.bootSamples
	if req.BootSamples > 0 {
		samples = req.BootSamples
	}
	seed := e.seed
	if req.Seed != 0 {
		seed = req.Seed
	}

	fr, err := buildFrame(tbl, req)
	if err != nil {
		return nil, err
	}

	eqM, eqY, derive, wPoints, err := assemble(fr, req)
	if err != nil {
		return nil, err
	}

	mFit, err := e.fitChecked(eqM, "mediator")
	if err != nil {
		return nil, err
	}
	yFit, err := e.fitChecked(eqY, "outcome")
	if err != nil {
		return nil, err
	}
	point := derive(mFit, yFit)

	res := &analysis.MediationResult{
		Model:          req.Model,
		X:              req.X,
		M:              req.M,
		Y:              req.Y,
		W:              req.W,
		NObs:           fr.n,
		Paths:          append(e.paths("mediator", mFit), e.paths("outcome", yFit)...),
		IndirectEffect: point.indirect,
		DirectEffect:   point.direct,
		TotalEffect:    analysis.NullableFloat(math.NaN()),
		SobelSE:        analysis.NullableFloat(math.NaN()),
		SobelZ:         analysis.NullableFloat(math.NaN()),
		SobelP:         analysis.NullableFloat(math.NaN()),
		Index:          analysis.NullableFloat(point.index),
		Alpha:          alpha,
		BootSamples:    samples,
		Seed:           seed,
	}

	if req.Model == analysis.Model4 {
		e.sobel(res, mFit, yFit, req)

		totalFit, err := e.fitChecked(totalEquation(fr, req), "total effect")
		if err != nil {
			return nil, err
		}
		res.TotalEffect = analysis.NullableFloat(coefOf(totalFit, req.X))
	}

	boot, err := e.bootstrap(ctx, eqM, eqY, derive, len(wPoints), samples, seed)
	if err != nil {
		return nil, err
	}
	res.BootSkipped = boot.skipped
	res.CILower, res.CIUpper = e.distributions.BootstrapConfidenceInterval(boot.headline, 1-alpha)

	for i, w := range wPoints {
		lo, hi := e.distributions.BootstrapConfidenceInterval(boot.conditional[i], 1-alpha)
		res.Conditional = append(res.Conditional, analysis.ConditionalEffect{
			ModeratorValue: w,
			Effect:         point.conditional[i],
			Lower:          analysis.NullableFloat(lo),
			Upper:          analysis.NullableFloat(hi),
		})
	}

	return res, nil
}

func validateRequest(req analysis.MediationRequest) error {
	switch req.Model {
	case analysis.Model4, analysis.Model7, analysis.Model14:
	default:
		return errors.Newf(errors.CodeInvalidInput, "unknown mediation model %d", req.Model)
	}
	if req.X == "" || req.M == "" || req.Y == "" {
		return errors.InvalidInput("x, m and y are required")
	}
	if req.Model == analysis.Model4 && req.W != "" {
		return errors.InvalidInput("model 4 takes no moderator")
	}
	if req.Model != analysis.Model4 && req.W == "" {
		return errors.Newf(errors.CodeInvalidInput, "model %d requires a moderator", req.Model)
	}

	seen := map[string]bool{}
	for _, name := range append([]string{req.X, req.M, req.Y, req.W}, req.Covariates...) {
		if name == "" {
			continue
		}
		if seen[name] {
			return errors.Newf(errors.CodeInvalidInput, "column %q appears twice in the model", name)
		}
		seen[name] = true
	}
	return nil
}

// buildFrame validates the model columns and applies listwise deletion
// across all of them at once
func buildFrame(tbl table.Table, req analysis.MediationRequest) (*frame, error) {
	names := []string{req.X, req.M, req.Y}
	if req.W != "" {
		names = append(names, req.W)
	}
	names = append(names, req.Covariates...)

	cols := make([]table.Column, len(names))
	for i, name := range names {
		col, ok := tbl.Column(name)
		if !ok {
			return nil, errors.ColumnNotFound(name)
		}
		if col.Kind != table.KindNumeric {
			return nil, errors.ColumnKind(name, string(table.KindNumeric), string(col.Kind))
		}
		cols[i] = col
	}

	var kept []int
	for r := 0; r < tbl.NumRows(); r++ {
		complete := true
		for _, col := range cols {
			if col.IsMissing(r) {
				complete = false
				break
			}
		}
		if complete {
			kept = append(kept, r)
		}
	}
	if len(kept) == 0 {
		return nil, errors.InvalidInput("no complete rows across the model variables")
	}

	take := func(col table.Column) []float64 {
		out := make([]float64, len(kept))
		for i, r := range kept {
			out[i] = col.Numeric[r]
		}
		return out
	}

	fr := &frame{
		n:        len(kept),
		x:        take(cols[0]),
		m:        take(cols[1]),
		y:        take(cols[2]),
		covNames: req.Covariates,
	}
	rest := cols[3:]
	if req.W != "" {
		fr.w = take(cols[3])
		fr.meanW = mean(fr.w)
		rest = cols[4:]
	}
	for _, col := range rest {
		fr.covs = append(fr.covs, take(col))
	}
	return fr, nil
}

// pointEstimates carries the derived quantities of one pair of fits.
// headline is the quantity the bootstrap interval is built for: the
// indirect effect for model 4, the index of moderated mediation otherwise.
type pointEstimates struct {
	headline    float64
	indirect    float64
	direct      float64
	index       float64 // NaN for model 4
	conditional []float64
}

// assemble builds both equations and the closure that turns a pair of fits
// into the model's derived effects. The closure is reused verbatim on every
// bootstrap refit.
func assemble(fr *frame, req analysis.MediationRequest) (eqM, eqY *analysis.DesignMatrix, derive func(*linmodel.Fit, *linmodel.Fit) pointEstimates, wPoints []float64, err error) {
	switch req.Model {
	case analysis.Model4:
		eqM = design(fr.m, req.M, names(fr, req.X), columns(fr, fr.x))
		eqY = design(fr.y, req.Y, names(fr, req.X, req.M), columns(fr, fr.x, fr.m))
		derive = func(mf, yf *linmodel.Fit) pointEstimates {
			a := coefOf(mf, req.X)
			b := coefOf(yf, req.M)
			return pointEstimates{
				headline: a * b,
				indirect: a * b,
				direct:   coefOf(yf, req.X),
				index:    math.NaN(),
			}
		}
		return eqM, eqY, derive, nil, nil

	case analysis.Model7:
		xw := product(centered(fr.x), centered(fr.w))
		xwName := req.X + ":" + req.W
		eqM = design(fr.m, req.M, names(fr, req.X, req.W, xwName), columns(fr, fr.x, fr.w, xw))
		eqY = design(fr.y, req.Y, names(fr, req.X, req.M), columns(fr, fr.x, fr.m))
		wPoints = moderatorPoints(fr.w)
		meanW := fr.meanW
		derive = func(mf, yf *linmodel.Fit) pointEstimates {
			a1 := coefOf(mf, req.X)
			a3 := coefOf(mf, xwName)
			b := coefOf(yf, req.M)
			cond := make([]float64, len(wPoints))
			for i, w := range wPoints {
				cond[i] = (a1 + a3*(w-meanW)) * b
			}
			return pointEstimates{
				headline:    a3 * b,
				indirect:    a1 * b,
				direct:      coefOf(yf, req.X),
				index:       a3 * b,
				conditional: cond,
			}
		}
		return eqM, eqY, derive, wPoints, nil

	case analysis.Model14:
		mw := product(centered(fr.m), centered(fr.w))
		mwName := req.M + ":" + req.W
		eqM = design(fr.m, req.M, names(fr, req.X), columns(fr, fr.x))
		eqY = design(fr.y, req.Y, names(fr, req.X, req.M, req.W, mwName), columns(fr, fr.x, fr.m, fr.w, mw))
		wPoints = moderatorPoints(fr.w)
		meanW := fr.meanW
		derive = func(mf, yf *linmodel.Fit) pointEstimates {
			a := coefOf(mf, req.X)
			b1 := coefOf(yf, req.M)
			b3 := coefOf(yf, mwName)
			cond := make([]float64, len(wPoints))
			for i, w := range wPoints {
				cond[i] = a * (b1 + b3*(w-meanW))
			}
			return pointEstimates{
				headline:    a * b3,
				indirect:    a * b1,
				direct:      coefOf(yf, req.X),
				index:       a * b3,
				conditional: cond,
			}
		}
		return eqM, eqY, derive, wPoints, nil
	}
	return nil, nil, nil, nil, errors.Newf(errors.CodeInvalidInput, "unknown mediation model %d", req.Model)
}

// totalEquation is the model 4 regression of Y on X alone (plus covariates)
func totalEquation(fr *frame, req analysis.MediationRequest) *analysis.DesignMatrix {
	return design(fr.y, req.Y, names(fr, req.X), columns(fr, fr.x))
}

// fitChecked fits one equation and insists on at least one residual degree
// of freedom, since every reported path carries a t test
func (e *MediationEngine) fitChecked(dm *analysis.DesignMatrix, label string) (*linmodel.Fit, error) {
	fit, err := e.ols.Fit(dm)
	if err != nil {
		return nil, err
	}
	if fit.DFResid < 1 {
		return nil, errors.Newf(errors.CodeSingularDesign,
			"%s equation is saturated, no residual degrees of freedom", label)
	}
	return fit, nil
}

// sobel fills in the normal-theory test of a*b for model 4
func (e *MediationEngine) sobel(res *analysis.MediationResult, mFit, yFit *linmodel.Fit, req analysis.MediationRequest) {
	a, seA := coefAndSE(mFit, req.X)
	b, seB := coefAndSE(yFit, req.M)

	se := math.Sqrt(a*a*seB*seB + b*b*seA*seA)
	z := a * b / se
	res.SobelSE = analysis.NullableFloat(se)
	res.SobelZ = analysis.NullableFloat(z)
	res.SobelP = analysis.NullableFloat(2 * (1 - e.distributions.NormalCDF(math.Abs(z))))
}

// paths reports every coefficient of one equation with its t test
func (e *MediationEngine) paths(label string, fit *linmodel.Fit) []analysis.PathCoefficient {
	out := make([]analysis.PathCoefficient, 0, len(fit.ColNames))
	for i, name := range fit.ColNames {
		t := fit.Coefficients[i] / fit.StdErrs[i]
		out = append(out, analysis.PathCoefficient{
			Equation: label,
			Name:     name,
			Coef:     fit.Coefficients[i],
			SE:       fit.StdErrs[i],
			T:        analysis.NullableFloat(t),
			P:        analysis.NullableFloat(e.distributions.TTestPValue(t, fit.DFResid)),
		})
	}
	return out
}

// design assembles a row-major matrix with a leading intercept column
func design(resp []float64, respName string, colNames []string, cols [][]float64) *analysis.DesignMatrix {
	n := len(resp)
	x := make([][]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, 1+len(cols))
		row[0] = 1
		for j, c := range cols {
			row[j+1] = c[i]
		}
		x[i] = row
	}
	return &analysis.DesignMatrix{
		X:            x,
		ColNames:     append([]string{model.InterceptName}, colNames...),
		Response:     resp,
		ResponseName: respName,
		Rows:         n,
	}
}

// names/columns append the shared covariates to a model's own predictors
func names(fr *frame, own ...string) []string {
	return append(own, fr.covNames...)
}

func columns(fr *frame, own ...[]float64) [][]float64 {
	return append(own, fr.covs...)
}

func coefOf(fit *linmodel.Fit, name string) float64 {
	for i, n := range fit.ColNames {
		if n == name {
			return fit.Coefficients[i]
		}
	}
	return math.NaN()
}

func coefAndSE(fit *linmodel.Fit, name string) (float64, float64) {
	for i, n := range fit.ColNames {
		if n == name {
			return fit.Coefficients[i], fit.StdErrs[i]
		}
	}
	return math.NaN(), math.NaN()
}

func mean(v []float64) float64 {
	m, err := stats.Mean(v)
	if err != nil {
		return math.NaN()
	}
	return m
}

func centered(v []float64) []float64 {
	m := mean(v)
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x - m
	}
	return out
}

func product(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] * b[i]
	}
	return out
}

// moderatorPoints picks the probe values for conditional effects: both
// levels of a binary moderator, otherwise mean-sd, mean and mean+sd
func moderatorPoints(w []float64) []float64 {
	distinct := make(map[float64]bool)
	for _, v := range w {
		distinct[v] = true
	}
	if len(distinct) == 2 {
		points := make([]float64, 0, 2)
		for v := range distinct {
			points = append(points, v)
		}
		sort.Float64s(points)
		return points
	}

	m := mean(w)
	sd := math.NaN()
	if len(w) > 1 {
		if s, err := stats.StandardDeviationSample(w); err == nil {
			sd = s
		}
	}
	if math.IsNaN(sd) || sd == 0 {
		return []float64{m}
	}
	return []float64{m - sd, m, m + sd}
}
