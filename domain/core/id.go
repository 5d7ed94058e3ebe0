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
	CurveID   ID
	RunID     ID
	SubjectID string
)

// String conversions for domain IDs
func (id CurveID) String() string   { return ID(id).String() }
func (id RunID) String() string     { return ID(id).String() }
func (id SubjectID) String() string { return string(id) }

// ParseCurveID parses a string into CurveID
func ParseCurveID(s string) (CurveID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("curve ID cannot be empty")
	}
	if _, err := uuid.Parse(s); err != nil {
		return "", fmt.Errorf("curve ID is not a valid UUID: %w", err)
	}
	return CurveID(s), nil
}

// ParseSubjectID parses a string into SubjectID
func ParseSubjectID(s string) (SubjectID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("subject ID cannot be empty")
	}
	return SubjectID(s), nil
}
