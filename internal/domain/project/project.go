// Package project defines the project domain type grouping conversations.
package project

import (
	"errors"
	"time"
)

// Project groups conversations under a shared system prompt and default model.
type Project struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	Icon         string    `json:"icon,omitempty"`
	Color        string    `json:"color"`
	SystemPrompt string    `json:"system_prompt,omitempty"`
	DefaultModel string    `json:"default_model,omitempty"`
	IsArchived   bool      `json:"is_archived"`
	IsPinned     bool      `json:"is_pinned"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreateRequest is the input for creating a project.
type CreateRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	Icon         string `json:"icon,omitempty"`
	Color        string `json:"color,omitempty"`
	SystemPrompt string `json:"system_prompt,omitempty"`
	DefaultModel string `json:"default_model,omitempty"`
}

// Validate checks that the CreateRequest has all required fields.
func (r *CreateRequest) Validate() error {
	if r.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

// UpdateRequest holds the mutable project fields; nil pointers are left unchanged.
type UpdateRequest struct {
	Name         *string `json:"name,omitempty"`
	Description  *string `json:"description,omitempty"`
	Icon         *string `json:"icon,omitempty"`
	Color        *string `json:"color,omitempty"`
	SystemPrompt *string `json:"system_prompt,omitempty"`
	DefaultModel *string `json:"default_model,omitempty"`
	IsArchived   *bool   `json:"is_archived,omitempty"`
	IsPinned     *bool   `json:"is_pinned,omitempty"`
}
