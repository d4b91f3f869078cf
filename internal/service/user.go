package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/koushikch7/chatGPT/internal/domain"
	"github.com/koushikch7/chatGPT/internal/domain/model"
	"github.com/koushikch7/chatGPT/internal/domain/user"
	"github.com/koushikch7/chatGPT/internal/port/database"
	"github.com/koushikch7/chatGPT/internal/secrets"
)

// keyInvalidator drops a cached plaintext credential after the stored key
// changes. Implemented by the credential resolver.
type keyInvalidator interface {
	Invalidate(ctx context.Context, userID string, p model.Provider)
}

// UserService manages preferences and stored provider API keys. Key material
// is encrypted before it reaches the store, and stored values are never
// returned to clients.
type UserService struct {
	store       database.Store
	codec       *secrets.Codec
	invalidator keyInvalidator
	log         *slog.Logger
	now         func() time.Time
}

// NewUserService creates a UserService. invalidator may be nil.
func NewUserService(store database.Store, codec *secrets.Codec, invalidator keyInvalidator, log *slog.Logger) *UserService {
	return &UserService{store: store, codec: codec, invalidator: invalidator, log: log, now: time.Now}
}

func (s *UserService) GetPreferences(ctx context.Context, userID string) (*user.Preferences, error) {
	return s.store.GetPreferences(ctx, userID)
}

func (s *UserService) UpdatePreferences(ctx context.Context, userID string, prefs user.Preferences) (*user.Preferences, error) {
	if prefs.DefaultModel != "" && model.Lookup(prefs.DefaultModel) == nil {
		return nil, fmt.Errorf("unknown model %q: %w", prefs.DefaultModel, domain.ErrValidation)
	}
	if prefs.DefaultModel == "" {
		prefs.DefaultModel = user.DefaultModel
	}
	prefs.UserID = userID

	if err := s.store.UpsertPreferences(ctx, &prefs); err != nil {
		return nil, fmt.Errorf("save preferences: %w", err)
	}
	return &prefs, nil
}

// ListAPIKeys returns key metadata. EncryptedKey is excluded from JSON, so
// the response carries only provider, label, and validity.
func (s *UserService) ListAPIKeys(ctx context.Context, userID string) ([]user.APIKey, error) {
	return s.store.ListAPIKeys(ctx, userID)
}

// UpsertAPIKey encrypts and stores a provider credential, replacing any
// existing key for that provider.
func (s *UserService) UpsertAPIKey(ctx context.Context, userID string, req user.UpsertAPIKeyRequest) (*user.APIKey, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}
	if !slices.Contains(model.Providers(), req.Provider) {
		return nil, fmt.Errorf("unknown provider %q: %w", req.Provider, domain.ErrValidation)
	}

	encrypted, err := s.codec.Encrypt(req.Key)
	if err != nil {
		return nil, fmt.Errorf("encrypt key: %w", err)
	}

	ts := s.now().UTC()
	k := &user.APIKey{
		ID:           uuid.NewString(),
		UserID:       userID,
		Provider:     req.Provider,
		EncryptedKey: encrypted,
		Label:        req.Label,
		IsValid:      true,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}
	if err := s.store.UpsertAPIKey(ctx, k); err != nil {
		return nil, fmt.Errorf("store key: %w", err)
	}
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx, userID, req.Provider)
	}

	s.log.Info("api key stored", "provider", req.Provider)
	return k, nil
}

func (s *UserService) DeleteAPIKey(ctx context.Context, userID string, p model.Provider) error {
	if err := s.store.DeleteAPIKey(ctx, userID, p); err != nil {
		return err
	}
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx, userID, p)
	}
	s.log.Info("api key deleted", "provider", p)
	return nil
}
