package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/koushikch7/chatGPT/internal/domain/model"
	"github.com/koushikch7/chatGPT/internal/domain/user"
)

// --- Users ---

const userColumns = `id, email, name, avatar, password_hash, enabled, created_at, updated_at`

func (s *Store) GetUser(ctx context.Context, id string) (*user.User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)

	u, err := scanUser(row)
	if err != nil {
		return nil, notFoundWrap(err, "get user %s", id)
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)

	u, err := scanUser(row)
	if err != nil {
		return nil, notFoundWrap(err, "get user by email %s", email)
	}
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *user.User) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, email, name, avatar, password_hash, enabled, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, u.Email, u.Name, u.Avatar, u.PasswordHash, u.Enabled, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *Store) UpdateUser(ctx context.Context, u *user.User) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET email = $2, name = $3, avatar = $4, password_hash = $5, enabled = $6, updated_at = $7
		 WHERE id = $1`,
		u.ID, u.Email, u.Name, u.Avatar, u.PasswordHash, u.Enabled, u.UpdatedAt)
	return execExpectOne(tag, err, "update user %s", u.ID)
}

func scanUser(row scannable) (user.User, error) {
	var u user.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Avatar, &u.PasswordHash, &u.Enabled,
		&u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// --- Preferences ---

func (s *Store) GetPreferences(ctx context.Context, userID string) (*user.Preferences, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT user_id, theme, default_model, default_temperature, default_max_tokens,
		        send_on_enter, show_timestamps, show_token_counts, stream_responses,
		        auto_title, custom_instructions
		 FROM user_preferences WHERE user_id = $1`, userID)

	var p user.Preferences
	err := row.Scan(&p.UserID, &p.Theme, &p.DefaultModel, &p.DefaultTemperature,
		&p.DefaultMaxTokens, &p.SendOnEnter, &p.ShowTimestamps, &p.ShowTokenCounts,
		&p.StreamResponses, &p.AutoTitle, &p.CustomInstructions)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Absent row means the user never saved preferences; serve defaults.
			defaults := user.DefaultPreferences(userID)
			return &defaults, nil
		}
		return nil, fmt.Errorf("get preferences for %s: %w", userID, err)
	}
	return &p, nil
}

func (s *Store) UpsertPreferences(ctx context.Context, p *user.Preferences) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO user_preferences (user_id, theme, default_model, default_temperature, default_max_tokens,
		                               send_on_enter, show_timestamps, show_token_counts, stream_responses,
		                               auto_title, custom_instructions)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (user_id) DO UPDATE SET
		     theme = EXCLUDED.theme,
		     default_model = EXCLUDED.default_model,
		     default_temperature = EXCLUDED.default_temperature,
		     default_max_tokens = EXCLUDED.default_max_tokens,
		     send_on_enter = EXCLUDED.send_on_enter,
		     show_timestamps = EXCLUDED.show_timestamps,
		     show_token_counts = EXCLUDED.show_token_counts,
		     stream_responses = EXCLUDED.stream_responses,
		     auto_title = EXCLUDED.auto_title,
		     custom_instructions = EXCLUDED.custom_instructions`,
		p.UserID, p.Theme, p.DefaultModel, p.DefaultTemperature, p.DefaultMaxTokens,
		p.SendOnEnter, p.ShowTimestamps, p.ShowTokenCounts, p.StreamResponses,
		p.AutoTitle, p.CustomInstructions)
	if err != nil {
		return fmt.Errorf("upsert preferences for %s: %w", p.UserID, err)
	}
	return nil
}

// --- API keys ---

const apiKeyColumns = `id, user_id, provider, encrypted_key, label, is_valid, last_validated, created_at, updated_at`

func (s *Store) ListAPIKeys(ctx context.Context, userID string) ([]user.APIKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+apiKeyColumns+` FROM api_keys WHERE user_id = $1 ORDER BY provider`, userID)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	defer rows.Close()

	var keys []user.APIKey
	for rows.Next() {
		k, err := scanAPIKey(rows)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (s *Store) GetAPIKey(ctx context.Context, userID string, provider model.Provider) (*user.APIKey, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+apiKeyColumns+` FROM api_keys WHERE user_id = $1 AND provider = $2`,
		userID, provider)

	k, err := scanAPIKey(row)
	if err != nil {
		return nil, notFoundWrap(err, "get api key %s/%s", userID, provider)
	}
	return &k, nil
}

func (s *Store) UpsertAPIKey(ctx context.Context, k *user.APIKey) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO api_keys (id, user_id, provider, encrypted_key, label, is_valid, last_validated, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (user_id, provider) DO UPDATE SET
		     encrypted_key = EXCLUDED.encrypted_key,
		     label = EXCLUDED.label,
		     is_valid = EXCLUDED.is_valid,
		     last_validated = EXCLUDED.last_validated,
		     updated_at = EXCLUDED.updated_at`,
		k.ID, k.UserID, k.Provider, k.EncryptedKey, k.Label, k.IsValid,
		nullTime(k.LastValidated), k.CreatedAt, nullTime(k.UpdatedAt))
	if err != nil {
		return fmt.Errorf("upsert api key %s/%s: %w", k.UserID, k.Provider, err)
	}
	return nil
}

func (s *Store) DeleteAPIKey(ctx context.Context, userID string, provider model.Provider) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM api_keys WHERE user_id = $1 AND provider = $2`, userID, provider)
	return execExpectOne(tag, err, "delete api key %s/%s", userID, provider)
}

func scanAPIKey(row scannable) (user.APIKey, error) {
	var k user.APIKey
	var lastValidated, updatedAt *time.Time
	err := row.Scan(&k.ID, &k.UserID, &k.Provider, &k.EncryptedKey, &k.Label, &k.IsValid,
		&lastValidated, &k.CreatedAt, &updatedAt)
	if err != nil {
		return k, err
	}
	if lastValidated != nil {
		k.LastValidated = *lastValidated
	}
	if updatedAt != nil {
		k.UpdatedAt = *updatedAt
	}
	return k, nil
}
