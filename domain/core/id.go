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
	// RunID identifies one end-to-end pipeline execution
	RunID ID
	// ProcessNumber is the court-assigned case number (numeroProcesso)
	ProcessNumber string
)

func (id RunID) String() string        { return ID(id).String() }
func (n ProcessNumber) String() string { return string(n) }
func (n ProcessNumber) IsEmpty() bool  { return n == "" }

// ParseProcessNumber parses a string into a ProcessNumber
func ParseProcessNumber(s string) (ProcessNumber, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("process number cannot be empty")
	}
	return ProcessNumber(s), nil
}
