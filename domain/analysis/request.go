package analysis

import (
	"fmt"
)

// OpKind tags an analysis request with its operation
type OpKind string

const (
	OpDerive    OpKind = "derive"
	OpAnova     OpKind = "anova"
	OpPostHoc   OpKind = "post_hoc"
	OpChiSquare OpKind = "chi_square"
	OpMediation OpKind = "mediation"
	OpProfile   OpKind = "profile"
)

// DeriveOp names a column derivation operation
type DeriveOp string

const (
	DeriveMean       DeriveOp = "mean"       // row mean of present values
	DeriveSum        DeriveOp = "sum"        // row sum of present values (0 when all missing)
	DeriveComplement DeriveOp = "complement" // K - value
	DeriveCoalesce   DeriveOp = "coalesce"   // first present value
)

// DerivedColumnSpec describes one derived column
type DerivedColumnSpec struct {
	Op     DeriveOp `json:"op"`
	Source []string `json:"source"`
	Target string   `json:"target"`
	K      float64  `json:"k,omitempty"` // complement constant
}

// DeriveRequest applies derivation specs in order; each spec sees the
// columns committed by earlier specs
type DeriveRequest struct {
	Specs []DerivedColumnSpec `json:"specs"`
}

// AnovaRequest runs a Type-II ANOVA/ANCOVA
type AnovaRequest struct {
	Response string      `json:"response"`
	Terms    []ModelTerm `json:"terms"`
}

// PostHocRequest runs Tukey HSD comparisons after a one-way layout
type PostHocRequest struct {
	Response string      `json:"response"`
	Terms    []ModelTerm `json:"terms"`
	Alpha    float64     `json:"alpha,omitempty"` // 0 means the configured default
}

// ChiSquareRequest runs a chi-square test of independence
type ChiSquareRequest struct {
	RowVar string `json:"row_var"`
	ColVar string `json:"col_var"`
}

// MediationRequest runs a conditional process model
type MediationRequest struct {
	Model       MediationModel `json:"model"`
	X           string         `json:"x"`
	M           string         `json:"m"`
	Y           string         `json:"y"`
	W           string         `json:"w,omitempty"` // moderator, models 7 and 14
	Covariates  []string       `json:"covariates,omitempty"`
	Alpha       float64        `json:"alpha,omitempty"`
	BootSamples int            `json:"boot_samples,omitempty"`
	Seed        int64          `json:"seed,omitempty"`
}

// ProfileRequest profiles columns; empty means all columns
type ProfileRequest struct {
	Columns []string `json:"columns,omitempty"`
}

// Request is a tagged operation descriptor. Op selects the operation and
// exactly the matching payload field must be set.
type Request struct {
	Op        OpKind            `json:"op"`
	Derive    *DeriveRequest    `json:"derive,omitempty"`
	Anova     *AnovaRequest     `json:"anova,omitempty"`
	PostHoc   *PostHocRequest   `json:"post_hoc,omitempty"`
	ChiSquare *ChiSquareRequest `json:"chi_square,omitempty"`
	Mediation *MediationRequest `json:"mediation,omitempty"`
	Profile   *ProfileRequest   `json:"profile,omitempty"`
}

// Validate checks the tag and payload pairing
func (r Request) Validate() error {
	var want string
	var have bool
	switch r.Op {
	case OpDerive:
		want, have = "derive", r.Derive != nil
	case OpAnova:
		want, have = "anova", r.Anova != nil
	case OpPostHoc:
		want, have = "post_hoc", r.PostHoc != nil
	case OpChiSquare:
		want, have = "chi_square", r.ChiSquare != nil
	case OpMediation:
		want, have = "mediation", r.Mediation != nil
	case OpProfile:
		want, have = "profile", r.Profile != nil
	default:
		return fmt.Errorf("unknown operation %q", r.Op)
	}
	if !have {
		return fmt.Errorf("operation %q requires a %s payload", r.Op, want)
	}
	return nil
}
