package user

import (
	"errors"
	"time"

	"github.com/koushikch7/chatGPT/internal/domain/model"
)

// APIKey is a stored provider credential. The key material is encrypted at
// rest; EncryptedKey never leaves the persistence boundary and the plaintext
// is only materialized transiently by the credential resolver.
type APIKey struct {
	ID            string         `json:"id"`
	UserID        string         `json:"user_id"`
	Provider      model.Provider `json:"provider"`
	EncryptedKey  string         `json:"-"`
	Label         string         `json:"label,omitempty"`
	IsValid       bool           `json:"is_valid"`
	LastValidated time.Time      `json:"last_validated,omitzero"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at,omitzero"`
}

// UpsertAPIKeyRequest is the input for adding or replacing a provider key.
// One key is kept per (user, provider) pair.
type UpsertAPIKeyRequest struct {
	Provider model.Provider `json:"provider"`
	Key      string         `json:"key"`
	Label    string         `json:"label,omitempty"`
}

// Validate checks that the UpsertAPIKeyRequest has all required fields.
func (r *UpsertAPIKeyRequest) Validate() error {
	if r.Provider == "" {
		return errors.New("provider is required")
	}
	if r.Key == "" {
		return errors.New("key is required")
	}
	return nil
}
