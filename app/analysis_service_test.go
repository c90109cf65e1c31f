package app

import (
	"context"
	"math"
	"testing"

	"go.uber.org/zap"

	"goanova/adapters/memstore"
	"goanova/adapters/rng"
	"goanova/domain/analysis"
	"goanova/domain/core"
	"goanova/domain/table"
	"goanova/internal/errors"
	"goanova/internal/testkit"
)

func newService() (*AnalysisService, *memstore.Store) {
	store := memstore.New()
	return NewAnalysisService(store, rng.New(), zap.NewNop()), store
}

func storeTable(t *testing.T, store *memstore.Store, tbl table.Table) core.TableID {
	t.Helper()
	id, err := store.Put(context.Background(), "fixture", tbl)
	if err != nil {
		t.Fatalf("Failed to store fixture: %v", err)
	}
	return id
}

func TestServiceAnovaEndToEnd(t *testing.T) {
	service, store := newService()
	tbl, err := testkit.New(11).Groups(
		testkit.GroupSpec{Label: "a", N: 5, Mean: 10, SD: 2},
		testkit.GroupSpec{Label: "b", N: 5, Mean: 12, SD: 2},
		testkit.GroupSpec{Label: "c", N: 5, Mean: 15, SD: 2},
	)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	id := storeTable(t, store, tbl)

	artifact, err := service.Run(context.Background(), id, analysis.Request{
		Op: analysis.OpAnova,
		Anova: &analysis.AnovaRequest{
			Response: "score",
			Terms:    []analysis.ModelTerm{{Column: "group", Role: analysis.RoleFactor}},
		},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if artifact.Kind != core.ArtifactAnova {
		t.Errorf("Expected anova artifact, got %q", artifact.Kind)
	}
	if artifact.TableID != id || artifact.ID == "" || artifact.CreatedAt.IsZero() {
		t.Errorf("Artifact provenance incomplete: %+v", artifact)
	}
	if artifact.TableHash != tbl.Fingerprint() {
		t.Errorf("Artifact should record the analyzed table's hash")
	}

	res, ok := artifact.Payload.(*analysis.AnovaResult)
	if !ok {
		t.Fatalf("Expected *AnovaResult payload, got %T", artifact.Payload)
	}
	if len(res.Rows) != 2 {
		t.Fatalf("Expected group + residual rows, got %d", len(res.Rows))
	}
	if res.Rows[0].DF != 2 || res.Rows[1].DF != 12 {
		t.Errorf("Expected df (2, 12) for 3 groups of 5, got (%d, %d)", res.Rows[0].DF, res.Rows[1].DF)
	}
}

func TestServiceChiSquareEndToEnd(t *testing.T) {
	service, store := newService()
	tbl, err := testkit.New(3).Crosstab(
		[]string{"control", "treated"},
		[]string{"died", "recovered"},
		[][]int{{10, 0}, {0, 10}},
	)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	id := storeTable(t, store, tbl)

	artifact, err := service.Run(context.Background(), id, analysis.Request{
		Op:        analysis.OpChiSquare,
		ChiSquare: &analysis.ChiSquareRequest{RowVar: "row", ColVar: "col"},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	res, ok := artifact.Payload.(*analysis.ChiSquareResult)
	if !ok {
		t.Fatalf("Expected *ChiSquareResult payload, got %T", artifact.Payload)
	}
	if res.Statistic != 20.0 || res.DF != 1 {
		t.Errorf("Expected statistic 20 on 1 df, got %v on %d", res.Statistic, res.DF)
	}
}

func TestServiceDeriveCommitsToStore(t *testing.T) {
	ctx := context.Background()
	service, store := newService()
	tbl, err := table.New(
		table.NewNumericColumn("item1", []float64{1, 2, 3, 4}),
		table.NewNumericColumn("item2", []float64{3, 4, 5, 6}),
	)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	id := storeTable(t, store, tbl)

	artifact, err := service.Run(ctx, id, analysis.Request{
		Op: analysis.OpDerive,
		Derive: &analysis.DeriveRequest{Specs: []analysis.DerivedColumnSpec{
			{Op: analysis.DeriveMean, Source: []string{"item1", "item2"}, Target: "item_mean"},
		}},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	res, ok := artifact.Payload.(*analysis.DeriveResult)
	if !ok {
		t.Fatalf("Expected *DeriveResult payload, got %T", artifact.Payload)
	}
	if res.Applied != 1 || res.Cols != 3 {
		t.Errorf("Expected 1 applied spec and 3 columns, got %d and %d", res.Applied, res.Cols)
	}

	stored, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	mean, ok := stored.Column("item_mean")
	if !ok {
		t.Fatalf("Derived column should be committed to the store")
	}
	if mean.Numeric[0] != 2 || mean.Numeric[3] != 5 {
		t.Errorf("Expected row means 2..5, got %v", mean.Numeric)
	}
}

func TestServiceDeriveKeepsPrefixOnFailure(t *testing.T) {
	ctx := context.Background()
	service, store := newService()
	tbl, err := table.New(
		table.NewNumericColumn("item1", []float64{1, 2, 3, 4}),
		table.NewNumericColumn("item2", []float64{3, 4, 5, 6}),
	)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	id := storeTable(t, store, tbl)

	_, err = service.Run(ctx, id, analysis.Request{
		Op: analysis.OpDerive,
		Derive: &analysis.DeriveRequest{Specs: []analysis.DerivedColumnSpec{
			{Op: analysis.DeriveSum, Source: []string{"item1", "item2"}, Target: "item_sum"},
			{Op: analysis.DeriveMean, Source: []string{"missing"}, Target: "broken"},
		}},
	})
	if !errors.IsCode(err, errors.CodeColumnNotFound) {
		t.Fatalf("Expected COLUMN_NOT_FOUND, got %v", err)
	}

	stored, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !stored.HasColumn("item_sum") {
		t.Errorf("The spec before the failure should stay committed")
	}
	if stored.HasColumn("broken") {
		t.Errorf("The failing spec must not commit")
	}
}

func TestServiceDefaultAlphaFlowsToPostHoc(t *testing.T) {
	service, store := newService()
	service.SetDefaultAlpha(0.01)

	tbl, err := testkit.New(5).Groups(
		testkit.GroupSpec{Label: "a", N: 6, Mean: 0, SD: 1},
		testkit.GroupSpec{Label: "b", N: 6, Mean: 1, SD: 1},
		testkit.GroupSpec{Label: "c", N: 6, Mean: 8, SD: 1},
	)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	id := storeTable(t, store, tbl)

	artifact, err := service.Run(context.Background(), id, analysis.Request{
		Op: analysis.OpPostHoc,
		PostHoc: &analysis.PostHocRequest{
			Response: "score",
			Terms:    []analysis.ModelTerm{{Column: "group", Role: analysis.RoleFactor}},
		},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	res := artifact.Payload.(*analysis.PostHocResult)
	if res.Alpha != 0.01 {
		t.Errorf("Expected the configured alpha 0.01, got %v", res.Alpha)
	}
	if len(res.Comparisons) != 3 {
		t.Errorf("Expected 3 pairwise comparisons, got %d", len(res.Comparisons))
	}
}

func TestServiceMediationEndToEnd(t *testing.T) {
	service, store := newService()
	service.ConfigureBootstrap(100, 2, 7)

	tbl, err := testkit.New(9).MediationChain(40, 0.5, 0.8, 0.2, 1)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	id := storeTable(t, store, tbl)

	artifact, err := service.Run(context.Background(), id, analysis.Request{
		Op:        analysis.OpMediation,
		Mediation: &analysis.MediationRequest{Model: analysis.Model4, X: "x", M: "m", Y: "y"},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	res, ok := artifact.Payload.(*analysis.MediationResult)
	if !ok {
		t.Fatalf("Expected *MediationResult payload, got %T", artifact.Payload)
	}
	if res.NObs != 40 || res.BootSamples != 100 {
		t.Errorf("Expected 40 observations and 100 resamples, got %d and %d", res.NObs, res.BootSamples)
	}
	if !(res.IndirectEffect > 0) {
		t.Errorf("Expected a positive indirect effect around 0.4, got %v", res.IndirectEffect)
	}
}

func TestServiceProfileEndToEnd(t *testing.T) {
	service, store := newService()
	kit := testkit.New(13)
	tbl, err := table.New(
		kit.Numeric("score", 10, 50, 5),
		table.NewCategoricalColumn("site", []string{"a", "a", "b", "b", "b", "c", "c", "c", "c", "c"}),
	)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	id := storeTable(t, store, tbl)

	artifact, err := service.Run(context.Background(), id, analysis.Request{
		Op:      analysis.OpProfile,
		Profile: &analysis.ProfileRequest{},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if artifact.Kind != core.ArtifactTableProfile {
		t.Errorf("Expected table_profile artifact, got %q", artifact.Kind)
	}

	res := artifact.Payload.(*analysis.TableProfile)
	if res.Rows != 10 || len(res.Columns) != 2 {
		t.Errorf("Expected a 10-row 2-column profile, got %d rows, %d columns", res.Rows, len(res.Columns))
	}
	if math.IsNaN(float64(res.Columns[0].Mean)) {
		t.Errorf("Numeric column should profile a mean")
	}
}

func TestServiceRequestValidation(t *testing.T) {
	service, store := newService()
	tbl, err := testkit.New(1).Groups(testkit.GroupSpec{Label: "a", N: 3, Mean: 0, SD: 1})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	id := storeTable(t, store, tbl)

	cases := []struct {
		name string
		id   core.TableID
		req  analysis.Request
		code string
	}{
		{"unknown op", id, analysis.Request{Op: "sweep"}, errors.CodeInvalidInput},
		{"payload mismatch", id, analysis.Request{Op: analysis.OpAnova}, errors.CodeInvalidInput},
		{"unknown table", "no-such-table", analysis.Request{
			Op:      analysis.OpProfile,
			Profile: &analysis.ProfileRequest{},
		}, errors.CodeTableNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.Run(context.Background(), tc.id, tc.req)
			if err == nil {
				t.Fatalf("Expected an error")
			}
			if !errors.IsCode(err, tc.code) {
				t.Errorf("Expected %s, got %v", tc.code, err)
			}
		})
	}
}
