package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/koushikch7/chatGPT/internal/domain"
	"github.com/koushikch7/chatGPT/internal/domain/model"
	"github.com/koushikch7/chatGPT/internal/port/cache"
	"github.com/koushikch7/chatGPT/internal/port/database"
	"github.com/koushikch7/chatGPT/internal/secrets"
)

// CredentialResolver materializes the plaintext API key for a (user, provider)
// pair. Decrypted keys are cached with a short TTL so repeated dispatches do
// not re-run the KDF; entries are invalidated when the stored key changes.
type CredentialResolver struct {
	store database.Store
	codec *secrets.Codec
	cache cache.Cache
	ttl   time.Duration
	log   *slog.Logger
}

// NewCredentialResolver creates a resolver. cache may be nil to disable caching.
func NewCredentialResolver(store database.Store, codec *secrets.Codec, c cache.Cache, ttl time.Duration, log *slog.Logger) *CredentialResolver {
	return &CredentialResolver{store: store, codec: codec, cache: c, ttl: ttl, log: log}
}

func credentialCacheKey(userID string, provider model.Provider) string {
	return "cred:" + userID + ":" + string(provider)
}

// Resolve returns the plaintext key for the user and provider, or ok=false
// when no key is stored (the demo path).
func (r *CredentialResolver) Resolve(ctx context.Context, userID string, provider model.Provider) (key string, ok bool, err error) {
	cacheKey := credentialCacheKey(userID, provider)
	if r.cache != nil {
		if data, found, cerr := r.cache.Get(ctx, cacheKey); cerr == nil && found {
			return string(data), true, nil
		}
	}

	stored, err := r.store.GetAPIKey(ctx, userID, provider)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("load api key: %w", err)
	}

	plaintext, err := r.codec.Decrypt(stored.EncryptedKey)
	if err != nil {
		r.log.Error("stored api key cannot be decrypted",
			"user", userID, "provider", provider, "error", err)
		return "", false, fmt.Errorf("decrypt api key: %w", err)
	}

	if r.cache != nil {
		if cerr := r.cache.Set(ctx, cacheKey, []byte(plaintext), r.ttl); cerr != nil {
			r.log.Debug("credential cache set failed", "error", cerr)
		}
	}
	return plaintext, true, nil
}

// Invalidate drops the cached plaintext for the pair. Called whenever a key
// is upserted or deleted.
func (r *CredentialResolver) Invalidate(ctx context.Context, userID string, provider model.Provider) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Delete(ctx, credentialCacheKey(userID, provider)); err != nil {
		r.log.Debug("credential cache delete failed", "error", err)
	}
}
