package analysis

import (
	"encoding/json"
	"math"
)

// NullableFloat is a float64 that marshals NaN and infinities as JSON null.
// Statistical outputs legitimately contain NaN (residual F ratio, std dev of
// a single observation) and encoding/json rejects raw NaN.
type NullableFloat float64

func (f NullableFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

func (f *NullableFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = NullableFloat(math.NaN())
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = NullableFloat(v)
	return nil
}

// ============================================================================
// MODEL SPECIFICATION
// ============================================================================

// TermRole distinguishes how a model term enters the design
type TermRole string

const (
	RoleFactor    TermRole = "factor"    // categorical, treatment-coded
	RoleCovariate TermRole = "covariate" // numeric, enters as-is
)

// ModelTerm is one independent variable of an additive model
type ModelTerm struct {
	Column  string            `json:"column"`
	Role    TermRole          `json:"role"`
	Relabel map[string]string `json:"relabel,omitempty"` // factor level renames, must cover all observed levels
}

// TermSpan maps a model term to its contiguous column span in the design matrix
type TermSpan struct {
	Term  string   `json:"term"`
	Role  TermRole `json:"role"`
	Start int      `json:"start"` // first design column of the term
	End   int      `json:"end"`   // one past the last design column
}

// DF returns the degrees of freedom the term consumes
func (s TermSpan) DF() int { return s.End - s.Start }

// DesignMatrix is an encoded additive model ready for least squares.
// INVARIANTS:
// - X is row-major with Rows rows and len(ColNames) columns
// - column 0 is the intercept; term spans follow in model order
// - factor levels are listed in first-observed row order, baseline first
// - rows with a missing response or term value are already dropped
type DesignMatrix struct {
	X            [][]float64         `json:"-"`
	ColNames     []string            `json:"col_names"`
	Response     []float64           `json:"-"`
	ResponseName string              `json:"response"`
	Terms        []TermSpan          `json:"terms"`
	Baseline     map[string]string   `json:"baseline"` // factor -> baseline level
	Levels       map[string][]string `json:"levels"`   // factor -> observed levels in order
	Rows         int                 `json:"rows"`
	KeptRows     []int               `json:"-"` // original row indices that survived listwise deletion
}

// ============================================================================
// ANOVA
// ============================================================================

// ResidualTerm names the residual row of an ANOVA table
const ResidualTerm = "Residual"

// AnovaRow is one line of a Type-II ANOVA table
type AnovaRow struct {
	Term  string        `json:"term"`
	SumSq float64       `json:"sum_sq"`
	DF    int           `json:"df"`
	F     NullableFloat `json:"f"` // NaN on the residual row
	P     NullableFloat `json:"p"` // NaN on the residual row
}

// GroupStat is a raw descriptive summary of the response within one factor level
type GroupStat struct {
	Level  string        `json:"level"`
	N      int           `json:"n"`
	Mean   float64       `json:"mean"`
	StdDev NullableFloat `json:"std_dev"` // sample (N-1); NaN when N < 2
}

// AnovaResult is the output of a Type-II ANOVA/ANCOVA run
type AnovaResult struct {
	Response string            `json:"response"`
	Rows     []AnovaRow        `json:"rows"` // term rows in model order, residual last
	Groups   []GroupStat       `json:"groups,omitempty"`
	Baseline map[string]string `json:"baseline,omitempty"`
	NObs     int               `json:"n_obs"`
	RankX    int               `json:"rank_x"`
}

// ============================================================================
// POST-HOC
// ============================================================================

// PostHocComparison is one Tukey HSD pairwise comparison
type PostHocComparison struct {
	LevelA string        `json:"level_a"`
	LevelB string        `json:"level_b"`
	Diff   float64       `json:"diff"` // mean(A) - mean(B)
	SE     float64       `json:"se"`
	Q      NullableFloat `json:"q"` // studentized range statistic
	P      NullableFloat `json:"p"`
	Lower  float64       `json:"lower"`
	Upper  float64       `json:"upper"`
	Reject bool          `json:"reject"`
}

// PostHocResult is the output of a Tukey HSD run over one factor
type PostHocResult struct {
	Factor      string              `json:"factor"`
	Response    string              `json:"response"`
	Alpha       float64             `json:"alpha"`
	MSE         float64             `json:"mse"`
	DFResid     int                 `json:"df_resid"`
	NGroups     int                 `json:"n_groups"`
	Comparisons []PostHocComparison `json:"comparisons"`
}

// ============================================================================
// CONTINGENCY
// ============================================================================

// ContingencyTable is an observed cross-tabulation of two columns.
// Levels are sorted lexicographically on both axes.
type ContingencyTable struct {
	RowLevels []string    `json:"row_levels"`
	ColLevels []string    `json:"col_levels"`
	Observed  [][]float64 `json:"observed"`
	RowTotals []float64   `json:"row_totals"`
	ColTotals []float64   `json:"col_totals"`
	Grand     float64     `json:"grand"`
}

// ChiSquareResult is the output of a chi-square test of independence
type ChiSquareResult struct {
	Statistic float64          `json:"statistic"`
	DF        int              `json:"df"`
	P         float64          `json:"p"`
	CramersV  float64          `json:"cramers_v"`
	Expected  [][]float64      `json:"expected"`
	Table     ContingencyTable `json:"table"`
}

// ============================================================================
// MEDIATION (conditional process models)
// ============================================================================

// MediationModel selects a conditional process model by its PROCESS number
type MediationModel int

const (
	Model4  MediationModel = 4  // simple mediation
	Model7  MediationModel = 7  // first-stage moderated mediation
	Model14 MediationModel = 14 // second-stage moderated mediation
)

// PathCoefficient is one estimated coefficient of a mediation equation
type PathCoefficient struct {
	Equation string        `json:"equation"` // "mediator" or "outcome"
	Name     string        `json:"name"`
	Coef     float64       `json:"coef"`
	SE       float64       `json:"se"`
	T        NullableFloat `json:"t"`
	P        NullableFloat `json:"p"`
}

// ConditionalEffect is an indirect effect evaluated at a moderator value
type ConditionalEffect struct {
	ModeratorValue float64       `json:"moderator_value"`
	Effect         float64       `json:"effect"`
	Lower          NullableFloat `json:"lower"`
	Upper          NullableFloat `json:"upper"`
}

// MediationResult is the output of a mediation run.
// Index is the index of moderated mediation; NaN for model 4.
type MediationResult struct {
	Model          MediationModel      `json:"model"`
	X              string              `json:"x"`
	M              string              `json:"m"`
	Y              string              `json:"y"`
	W              string              `json:"w,omitempty"`
	NObs           int                 `json:"n_obs"`
	Paths          []PathCoefficient   `json:"paths"`
	IndirectEffect float64             `json:"indirect_effect"`
	DirectEffect   float64             `json:"direct_effect"`
	TotalEffect    NullableFloat       `json:"total_effect"`    // model 4 only
	SobelSE        NullableFloat       `json:"sobel_se"`        // model 4 only
	SobelZ         NullableFloat       `json:"sobel_z"`
	SobelP         NullableFloat       `json:"sobel_p"`
	Index          NullableFloat       `json:"index"`
	Conditional    []ConditionalEffect `json:"conditional,omitempty"`
	Alpha          float64             `json:"alpha"`
	BootSamples    int                 `json:"boot_samples"`
	BootSkipped    int                 `json:"boot_skipped"`
	CILower        float64             `json:"ci_lower"`
	CIUpper        float64             `json:"ci_upper"`
	Seed           int64               `json:"seed"`
}

// ============================================================================
// PROFILE
// ============================================================================

// ColumnSummary is a per-column descriptive profile
type ColumnSummary struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	N       int    `json:"n"`       // present cells
	Missing int    `json:"missing"` // missing cells

	// Numeric columns; null for categorical ones
	Mean   NullableFloat `json:"mean"`
	StdDev NullableFloat `json:"std_dev"`
	Min    NullableFloat `json:"min"`
	Max    NullableFloat `json:"max"`
	Median NullableFloat `json:"median"`
	Q1     NullableFloat `json:"q1"`
	Q3     NullableFloat `json:"q3"`

	// Categorical columns
	Distinct int    `json:"distinct,omitempty"`
	Mode     string `json:"mode,omitempty"`
	ModeFreq int    `json:"mode_freq,omitempty"`
}

// TableProfile is a whole-table profile in column order
type TableProfile struct {
	Rows    int             `json:"rows"`
	Columns []ColumnSummary `json:"columns"`
}

// ============================================================================
// DERIVATION
// ============================================================================

// DeriveResult summarizes a fully committed derivation batch
type DeriveResult struct {
	Applied int      `json:"applied"`
	Columns []string `json:"columns"` // target columns, in spec order
	Rows    int      `json:"rows"`
	Cols    int      `json:"cols"` // table width after the batch
}
