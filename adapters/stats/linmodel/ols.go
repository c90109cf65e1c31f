package linmodel

import (
	"fmt"
	"math"

	"goanova/domain/analysis"
	"goanova/internal/errors"
)

// relativeRankTol flags a diagonal of R as zero relative to the largest one
const relativeRankTol = 1e-10

// Fit holds an ordinary least squares solution of a design matrix
type Fit struct {
	ColNames     []string  `json:"col_names"`
	Coefficients []float64 `json:"coefficients"`
	StdErrs      []float64 `json:"std_errs"`
	Fitted       []float64 `json:"-"`
	Residuals    []float64 `json:"-"`
	SSE          float64   `json:"sse"`      // residual sum of squares
	SSTotal      float64   `json:"ss_total"` // centered total sum of squares
	RSquared     float64   `json:"r_squared"`
	Rank         int       `json:"rank"`
	NObs         int       `json:"n_obs"`
	DFResid      int       `json:"df_resid"`
	SigmaSq      float64   `json:"sigma_sq"` // SSE/DFResid; NaN when DFResid == 0
}

// OLSEngine fits linear models by Householder QR. A rank-deficient design is
// rejected rather than silently reduced, naming the first column that is
// collinear with its predecessors.
type OLSEngine struct{}

// NewOLSEngine creates a new least squares engine
func NewOLSEngine() *OLSEngine {
	return &OLSEngine{}
}

// Fit solves min ||y - Xb|| for the design matrix
func (e *OLSEngine) Fit(dm *analysis.DesignMatrix) (*Fit, error) {
	n := dm.Rows
	p := len(dm.ColNames)
	if p == 0 {
		return nil, errors.SingularDesign("design matrix has no columns")
	}
	if n < p {
		return nil, errors.SingularDesign(
			fmt.Sprintf("design matrix has %d columns but only %d rows", p, n))
	}

	// Reduce a working copy of X to upper triangular R, accumulating Q'y
	a := make([][]float64, n)
	for i, row := range dm.X {
		a[i] = append([]float64(nil), row...)
	}
	qty := append([]float64(nil), dm.Response...)

	for j := 0; j < p; j++ {
		var norm float64
		for i := j; i < n; i++ {
			norm = math.Hypot(norm, a[i][j])
		}
		if norm == 0 {
			// Zero column below the diagonal; the rank check below rejects it
			continue
		}

		alpha := -math.Copysign(norm, a[j][j])
		v := make([]float64, n-j)
		v[0] = a[j][j] - alpha
		for i := j + 1; i < n; i++ {
			v[i-j] = a[i][j]
		}
		var vtv float64
		for _, vi := range v {
			vtv += vi * vi
		}
		if vtv == 0 {
			continue
		}

		for c := j; c < p; c++ {
			var dot float64
			for i := j; i < n; i++ {
				dot += v[i-j] * a[i][c]
			}
			f := 2 * dot / vtv
			for i := j; i < n; i++ {
				a[i][c] -= f * v[i-j]
			}
		}
		var dot float64
		for i := j; i < n; i++ {
			dot += v[i-j] * qty[i]
		}
		f := 2 * dot / vtv
		for i := j; i < n; i++ {
			qty[i] -= f * v[i-j]
		}

		a[j][j] = alpha
		for i := j + 1; i < n; i++ {
			a[i][j] = 0
		}
	}

	// Rank check on the diagonal of R
	var maxDiag float64
	for j := 0; j < p; j++ {
		if d := math.Abs(a[j][j]); d > maxDiag {
			maxDiag = d
		}
	}
	if maxDiag == 0 {
		return nil, errors.SingularDesign("design matrix is identically zero")
	}
	for j := 0; j < p; j++ {
		if math.Abs(a[j][j]) <= relativeRankTol*maxDiag {
			return nil, errors.SingularDesign(
				fmt.Sprintf("column %q is collinear with preceding columns", dm.ColNames[j]))
		}
	}

	// Back-substitution for the coefficients
	coef := make([]float64, p)
	for j := p - 1; j >= 0; j-- {
		s := qty[j]
		for k := j + 1; k < p; k++ {
			s -= a[j][k] * coef[k]
		}
		coef[j] = s / a[j][j]
	}

	fitted := make([]float64, n)
	residuals := make([]float64, n)
	var sse float64
	for i, row := range dm.X {
		var yhat float64
		for j, b := range coef {
			yhat += row[j] * b
		}
		fitted[i] = yhat
		residuals[i] = dm.Response[i] - yhat
		sse += residuals[i] * residuals[i]
	}

	// Centered total sum of squares, accumulated after subtracting the mean
	var ybar float64
	for _, y := range dm.Response {
		ybar += y
	}
	ybar /= float64(n)
	var ssTotal float64
	for _, y := range dm.Response {
		d := y - ybar
		ssTotal += d * d
	}

	rSquared := math.NaN()
	if ssTotal > 0 {
		rSquared = 1 - sse/ssTotal
	}

	dfResid := n - p
	sigmaSq := math.NaN()
	if dfResid > 0 {
		sigmaSq = sse / float64(dfResid)
	}

	// diag((X'X)^-1) = row sums of squares of R^-1, via triangular inversion
	rinv := invertUpper(a, p)
	stdErrs := make([]float64, p)
	for j := 0; j < p; j++ {
		var d float64
		for k := j; k < p; k++ {
			d += rinv[j][k] * rinv[j][k]
		}
		stdErrs[j] = math.Sqrt(sigmaSq * d)
	}

	return &Fit{
		ColNames:     append([]string(nil), dm.ColNames...),
		Coefficients: coef,
		StdErrs:      stdErrs,
		Fitted:       fitted,
		Residuals:    residuals,
		SSE:          sse,
		SSTotal:      ssTotal,
		RSquared:     rSquared,
		Rank:         p,
		NObs:         n,
		DFResid:      dfResid,
		SigmaSq:      sigmaSq,
	}, nil
}

// ResidualSS returns the attainable residual sum of squares of the least
// squares projection of the response onto the design's column space, plus the
// numerical rank of the basis used. Dependent columns are skipped rather than
// rejected, so model-comparison callers can difference SSEs even when a
// submodel is collinear. No coefficients are produced and nothing divides by
// a small diagonal, so the skip tolerance only decides whether a negligible
// direction joins the basis.
func (e *OLSEngine) ResidualSS(dm *analysis.DesignMatrix) (float64, int) {
	n := dm.Rows
	p := len(dm.ColNames)

	a := make([][]float64, n)
	for i, row := range dm.X {
		a[i] = append([]float64(nil), row...)
	}
	qty := append([]float64(nil), dm.Response...)

	rank := 0
	var maxDiag float64
	for j := 0; j < p && rank < n; j++ {
		var norm float64
		for i := rank; i < n; i++ {
			norm = math.Hypot(norm, a[i][j])
		}
		if norm > maxDiag {
			maxDiag = norm
		}
		if norm == 0 || norm <= relativeRankTol*maxDiag {
			// Column already inside the span built so far
			continue
		}

		alpha := -math.Copysign(norm, a[rank][j])
		v := make([]float64, n-rank)
		v[0] = a[rank][j] - alpha
		for i := rank + 1; i < n; i++ {
			v[i-rank] = a[i][j]
		}
		var vtv float64
		for _, vi := range v {
			vtv += vi * vi
		}
		if vtv == 0 {
			continue
		}

		for c := j + 1; c < p; c++ {
			var dot float64
			for i := rank; i < n; i++ {
				dot += v[i-rank] * a[i][c]
			}
			f := 2 * dot / vtv
			for i := rank; i < n; i++ {
				a[i][c] -= f * v[i-rank]
			}
		}
		var dot float64
		for i := rank; i < n; i++ {
			dot += v[i-rank] * qty[i]
		}
		f := 2 * dot / vtv
		for i := rank; i < n; i++ {
			qty[i] -= f * v[i-rank]
		}
		rank++
	}

	var sse float64
	for i := rank; i < n; i++ {
		sse += qty[i] * qty[i]
	}
	return sse, rank
}

// invertUpper inverts the leading p x p upper triangle of a by column-wise
// back-substitution
func invertUpper(a [][]float64, p int) [][]float64 {
	rinv := make([][]float64, p)
	for i := range rinv {
		rinv[i] = make([]float64, p)
	}
	for col := 0; col < p; col++ {
		rinv[col][col] = 1 / a[col][col]
		for j := col - 1; j >= 0; j-- {
			var s float64
			for k := j + 1; k <= col; k++ {
				s += a[j][k] * rinv[k][col]
			}
			rinv[j][col] = -s / a[j][j]
		}
	}
	return rinv
}
