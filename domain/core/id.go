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
	ArtifactID ID
	RunID      ID
)

func (id ArtifactID) String() string { return ID(id).String() }
func (id RunID) String() string      { return ID(id).String() }

// NewArtifactID creates an identifier for a fitted pipeline artifact
func NewArtifactID() ArtifactID { return ArtifactID(NewID()) }

// NewRunID creates an identifier for a training run ledger entry
func NewRunID() RunID { return RunID(NewID()) }

// ParseArtifactID parses a string into ArtifactID
func ParseArtifactID(s string) (ArtifactID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("artifact ID cannot be empty")
	}
	return ArtifactID(s), nil
}
