package analysis

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
)

func TestRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		wantErr bool
	}{
		{"valid derive", Request{Op: OpDerive, Derive: &DeriveRequest{}}, false},
		{"valid anova", Request{Op: OpAnova, Anova: &AnovaRequest{}}, false},
		{"valid post hoc", Request{Op: OpPostHoc, PostHoc: &PostHocRequest{}}, false},
		{"valid chi square", Request{Op: OpChiSquare, ChiSquare: &ChiSquareRequest{}}, false},
		{"valid mediation", Request{Op: OpMediation, Mediation: &MediationRequest{}}, false},
		{"valid profile", Request{Op: OpProfile, Profile: &ProfileRequest{}}, false},
		{"unknown op", Request{Op: "regress"}, true},
		{"missing payload", Request{Op: OpAnova}, true},
		{"mismatched payload", Request{Op: OpAnova, Derive: &DeriveRequest{}}, true},
	}

	for _, test := range tests {
		err := test.req.Validate()
		if test.wantErr && err == nil {
			t.Errorf("%s: expected error, got none", test.name)
		}
		if !test.wantErr && err != nil {
			t.Errorf("%s: unexpected error: %v", test.name, err)
		}
	}
}

func TestNullableFloatJSON(t *testing.T) {
	row := AnovaRow{Term: ResidualTerm, SumSq: 10, DF: 12, F: NullableFloat(math.NaN()), P: NullableFloat(math.NaN())}

	data, err := json.Marshal(row)
	if err != nil {
		t.Fatalf("Failed to marshal row with NaN fields: %v", err)
	}
	if !strings.Contains(string(data), `"f":null`) {
		t.Errorf("Expected NaN F to marshal as null, got %s", data)
	}

	var back AnovaRow
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if !math.IsNaN(float64(back.F)) {
		t.Errorf("Expected null to unmarshal as NaN, got %v", back.F)
	}
	if back.SumSq != 10 {
		t.Errorf("Expected SumSq 10, got %v", back.SumSq)
	}
}
