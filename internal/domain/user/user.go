// Package user defines the user account, preferences, and provider key types.
package user

import (
	"errors"
	"time"
)

// DefaultModel is used when neither the user's preferences nor the request
// name a model.
const DefaultModel = "meta-llama/llama-3.2-3b-instruct:free"

// User represents an account.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Avatar       string    `json:"avatar,omitempty"`
	PasswordHash string    `json:"-"`
	Enabled      bool      `json:"enabled"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Preferences holds per-user client defaults.
type Preferences struct {
	UserID             string  `json:"user_id"`
	Theme              string  `json:"theme"`
	DefaultModel       string  `json:"default_model"`
	DefaultTemperature float64 `json:"default_temperature"`
	DefaultMaxTokens   int     `json:"default_max_tokens"`
	SendOnEnter        bool    `json:"send_on_enter"`
	ShowTimestamps     bool    `json:"show_timestamps"`
	ShowTokenCounts    bool    `json:"show_token_counts"`
	StreamResponses    bool    `json:"stream_responses"`
	AutoTitle          bool    `json:"auto_title"`
	CustomInstructions string  `json:"custom_instructions,omitempty"`
}

// DefaultPreferences returns the preferences applied to new accounts.
func DefaultPreferences(userID string) Preferences {
	return Preferences{
		UserID:             userID,
		Theme:              "system",
		DefaultModel:       DefaultModel,
		DefaultTemperature: 0.7,
		DefaultMaxTokens:   2048,
		SendOnEnter:        true,
		ShowTimestamps:     true,
		AutoTitle:          true,
	}
}

// RegisterRequest is the input for creating a user account.
type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// Validate checks that the RegisterRequest has all required fields.
func (r *RegisterRequest) Validate() error {
	if r.Email == "" {
		return errors.New("email is required")
	}
	if len(r.Password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	return nil
}

// LoginRequest is the input for password authentication.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
