// Package memory provides the domain model for persisted user memories,
// free-text facts injected into every assembled chat request.
package memory

import (
	"errors"
	"slices"
	"time"
)

// Type categorizes a memory for display grouping. The message assembler
// treats all active memories uniformly regardless of type.
type Type string

const (
	TypeFact       Type = "fact"
	TypePreference Type = "preference"
	TypeContext    Type = "context"
)

// ValidTypes lists all valid memory types.
var ValidTypes = []Type{TypeFact, TypePreference, TypeContext}

// UserMemory is a single long-term fact about the user.
type UserMemory struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	Type      Type      `json:"type"`
	Category  string    `json:"category,omitempty"`
	Source    string    `json:"source,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// CreateRequest is the input for storing a new memory.
type CreateRequest struct {
	Content  string `json:"content"`
	Type     Type   `json:"type,omitempty"`
	Category string `json:"category,omitempty"`
	Source   string `json:"source,omitempty"`
}

// Validate checks that a CreateRequest has all required fields.
func (r *CreateRequest) Validate() error {
	if r.Content == "" {
		return errors.New("content is required")
	}
	if r.Type != "" && !slices.Contains(ValidTypes, r.Type) {
		return errors.New("invalid type: must be fact, preference, or context")
	}
	return nil
}
