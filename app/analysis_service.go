package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"goanova/adapters/stats/anova"
	"goanova/adapters/stats/contingency"
	"goanova/adapters/stats/describe"
	"goanova/adapters/stats/mediation"
	"goanova/adapters/stats/posthoc"
	"goanova/adapters/stats/transform"
	"goanova/domain/analysis"
	"goanova/domain/core"
	"goanova/domain/table"
	"goanova/internal/errors"
	"goanova/ports"
)

// AnalysisService runs analysis operations against stored tables. Every
// operation reads a snapshot through the store; only derivations write back.
type AnalysisService struct {
	store  ports.TableStore
	logger *zap.Logger

	derive    *transform.DeriveEngine
	anova     *anova.AnovaEngine
	posthoc   *posthoc.TukeyEngine
	chisquare *contingency.ChiSquareEngine
	mediation *mediation.MediationEngine
	profile   *describe.ProfileEngine

	defaultAlpha float64
}

// NewAnalysisService wires every engine to a table store
func NewAnalysisService(store ports.TableStore, rngPort ports.RNGPort, logger *zap.Logger) *AnalysisService {
	return &AnalysisService{
		store:     store,
		logger:    logger,
		derive:    transform.NewDeriveEngine(),
		anova:     anova.NewAnovaEngine(),
		posthoc:   posthoc.NewTukeyEngine(),
		chisquare: contingency.NewChiSquareEngine(),
		mediation: mediation.NewMediationEngine(rngPort),
		profile:   describe.NewProfileEngine(),
	}
}

// ConfigureBootstrap forwards resampling settings to the mediation engine
func (s *AnalysisService) ConfigureBootstrap(samples, workers int, seed int64) {
	s.mediation.SetBootstrap(samples, workers, seed)
}

// SetDefaultAlpha changes the significance level applied when a request
// leaves alpha unset. Zero keeps the engines' built-in 0.05.
func (s *AnalysisService) SetDefaultAlpha(alpha float64) {
	s.defaultAlpha = alpha
}

// Run loads the table, dispatches on the request tag and wraps the outcome
// in an artifact recording exactly which data it was computed from
func (s *AnalysisService) Run(ctx context.Context, tableID core.TableID, req analysis.Request) (*core.Artifact, error) {
	if err := req.Validate(); err != nil {
		return nil, errors.Newf(errors.CodeInvalidInput, "invalid request: %v", err)
	}

	tbl, err := s.store.Get(ctx, tableID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	kind, payload, err := s.dispatch(ctx, tableID, tbl, req)
	s.logOutcome(req.Op, tableID, tbl.NumRows(), start, err)
	if err != nil {
		return nil, err
	}

	return &core.Artifact{
		ID:        core.ArtifactID(core.NewID()),
		Kind:      kind,
		TableID:   tableID,
		TableHash: tbl.Fingerprint(),
		Payload:   payload,
		CreatedAt: core.Now(),
	}, nil
}

func (s *AnalysisService) dispatch(ctx context.Context, id core.TableID, tbl table.Table, req analysis.Request) (core.ArtifactKind, interface{}, error) {
	switch req.Op {
	case analysis.OpDerive:
		return s.runDerive(ctx, id, tbl, *req.Derive)

	case analysis.OpAnova:
		res, err := s.anova.Analyze(tbl, *req.Anova)
		if err != nil {
			return "", nil, err
		}
		return core.ArtifactAnova, res, nil

	case analysis.OpPostHoc:
		r := *req.PostHoc
		if r.Alpha == 0 && s.defaultAlpha > 0 {
			r.Alpha = s.defaultAlpha
		}
		res, err := s.posthoc.Analyze(tbl, r)
		if err != nil {
			return "", nil, err
		}
		return core.ArtifactPostHoc, res, nil

	case analysis.OpChiSquare:
		res, err := s.chisquare.Analyze(tbl, *req.ChiSquare)
		if err != nil {
			return "", nil, err
		}
		return core.ArtifactChiSquare, res, nil

	case analysis.OpMediation:
		r := *req.Mediation
		if r.Alpha == 0 && s.defaultAlpha > 0 {
			r.Alpha = s.defaultAlpha
		}
		res, err := s.mediation.Analyze(ctx, tbl, r)
		if err != nil {
			return "", nil, err
		}
		return core.ArtifactMediation, res, nil

	case analysis.OpProfile:
		res, err := s.profile.Profile(tbl, *req.Profile)
		if err != nil {
			return "", nil, err
		}
		return core.ArtifactTableProfile, res, nil
	}
	return "", nil, errors.Newf(errors.CodeInvalidInput, "unknown operation %q", req.Op)
}

// runDerive commits whatever prefix of the batch succeeded, so a failing
// spec never rolls back the columns derived before it
func (s *AnalysisService) runDerive(ctx context.Context, id core.TableID, tbl table.Table, req analysis.DeriveRequest) (core.ArtifactKind, interface{}, error) {
	derived, applied, derr := s.derive.Apply(tbl, req.Specs)
	if applied > 0 {
		if err := s.store.Replace(ctx, id, derived); err != nil {
			return "", nil, err
		}
	}
	if derr != nil {
		return "", nil, derr
	}

	targets := make([]string, len(req.Specs))
	for i, spec := range req.Specs {
		targets[i] = spec.Target
	}
	return core.ArtifactDerivation, &analysis.DeriveResult{
		Applied: applied,
		Columns: targets,
		Rows:    derived.NumRows(),
		Cols:    derived.NumCols(),
	}, nil
}

func (s *AnalysisService) logOutcome(op analysis.OpKind, id core.TableID, rows int, start time.Time, err error) {
	fields := []zap.Field{
		zap.String("op", string(op)),
		zap.String("table", id.String()),
		zap.Int("rows", rows),
		zap.Duration("duration", time.Since(start)),
	}
	if err != nil {
		s.logger.Warn("analysis failed", append(fields, zap.Error(err))...)
		return
	}
	s.logger.Info("analysis complete", fields...)
}
