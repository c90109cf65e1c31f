package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	// Use UUID v7 for time-ordered, sortable IDs
	// Falls back to v4 if v7 is not available (for compatibility)
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	TableID    ID
	ArtifactID ID
)

// String conversions for domain IDs
func (id TableID) String() string    { return ID(id).String() }
func (id ArtifactID) String() string { return ID(id).String() }

// ParseTableID parses a string into TableID
func ParseTableID(s string) (TableID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("table ID cannot be empty")
	}
	return TableID(s), nil
}

// ParseArtifactID parses a string into ArtifactID
func ParseArtifactID(s string) (ArtifactID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("artifact ID cannot be empty")
	}
	return ArtifactID(s), nil
}

// Artifact represents any analysis output of the system
type Artifact struct {
	ID        ArtifactID   `json:"id"`
	Kind      ArtifactKind `json:"kind"`
	TableID   TableID      `json:"table_id"`
	TableHash TableHash    `json:"table_hash"`
	Payload   interface{}  `json:"payload"`
	CreatedAt Timestamp    `json:"created_at"`
}

// ArtifactKind defines types of artifacts
type ArtifactKind string

const (
	// ArtifactDerivation records the outcome of a column derivation batch.
	ArtifactDerivation ArtifactKind = "derivation"
	ArtifactAnova      ArtifactKind = "anova"
	ArtifactPostHoc    ArtifactKind = "post_hoc"
	ArtifactChiSquare  ArtifactKind = "chi_square"
	ArtifactMediation  ArtifactKind = "mediation"
	// ArtifactTableProfile is the output of the profile operation (per-column stats).
	ArtifactTableProfile ArtifactKind = "table_profile"
)
