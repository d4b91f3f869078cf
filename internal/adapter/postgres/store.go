package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/koushikch7/chatGPT/internal/domain/conversation"
)

// Store implements database.Store using PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// --- Conversations ---

const conversationColumns = `id, user_id, project_id, title, model, system_prompt, settings, metadata, tags, is_archived, is_pinned, is_favorite, created_at, updated_at`

func (s *Store) ListConversations(ctx context.Context, userID string) ([]conversation.Conversation, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+conversationColumns+`
		 FROM conversations WHERE user_id = $1
		 ORDER BY is_pinned DESC, updated_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var convs []conversation.Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		convs = append(convs, c)
	}
	return convs, rows.Err()
}

func (s *Store) GetConversation(ctx context.Context, id string) (*conversation.Conversation, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+conversationColumns+` FROM conversations WHERE id = $1`, id)

	c, err := scanConversation(row)
	if err != nil {
		return nil, notFoundWrap(err, "get conversation %s", id)
	}
	return &c, nil
}

func (s *Store) CreateConversation(ctx context.Context, c *conversation.Conversation) error {
	settingsJSON, err := json.Marshal(c.Settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	metadataJSON, err := json.Marshal(c.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO conversations (id, user_id, project_id, title, model, system_prompt, settings, metadata, tags, is_archived, is_pinned, is_favorite, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		c.ID, c.UserID, nullIfEmpty(c.ProjectID), c.Title, c.Model, c.SystemPrompt,
		settingsJSON, metadataJSON, pgTextArray(c.Tags),
		c.IsArchived, c.IsPinned, c.IsFavorite, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create conversation: %w", err)
	}
	return nil
}

func (s *Store) UpdateConversation(ctx context.Context, c *conversation.Conversation) error {
	settingsJSON, err := json.Marshal(c.Settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	metadataJSON, err := json.Marshal(c.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE conversations
		 SET project_id = $2, title = $3, model = $4, system_prompt = $5, settings = $6,
		     metadata = $7, tags = $8, is_archived = $9, is_pinned = $10, is_favorite = $11,
		     updated_at = $12
		 WHERE id = $1`,
		c.ID, nullIfEmpty(c.ProjectID), c.Title, c.Model, c.SystemPrompt,
		settingsJSON, metadataJSON, pgTextArray(c.Tags),
		c.IsArchived, c.IsPinned, c.IsFavorite, c.UpdatedAt)
	return execExpectOne(tag, err, "update conversation %s", c.ID)
}

func (s *Store) DeleteConversation(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM conversations WHERE id = $1`, id)
	return execExpectOne(tag, err, "delete conversation %s", id)
}

// --- Messages ---

const messageColumns = `id, conversation_id, role, content, metadata, is_edited, versions, created_at, updated_at`

func (s *Store) ListMessages(ctx context.Context, conversationID string) ([]conversation.Message, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+messageColumns+`
		 FROM messages WHERE conversation_id = $1 ORDER BY seq ASC`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var msgs []conversation.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func (s *Store) GetMessage(ctx context.Context, id string) (*conversation.Message, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE id = $1`, id)

	m, err := scanMessage(row)
	if err != nil {
		return nil, notFoundWrap(err, "get message %s", id)
	}
	return &m, nil
}

func (s *Store) CreateMessage(ctx context.Context, m *conversation.Message) error {
	metadataJSON, err := json.Marshal(m.Metadata)
	if err != nil {
		return fmt.Errorf("marshal message metadata: %w", err)
	}
	versionsJSON, err := json.Marshal(m.Versions)
	if err != nil {
		return fmt.Errorf("marshal message versions: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO messages (id, conversation_id, role, content, metadata, is_edited, versions, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		m.ID, m.ConversationID, m.Role, m.Content, metadataJSON, m.IsEdited, versionsJSON,
		m.CreatedAt, nullTime(m.UpdatedAt))
	if err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}

func (s *Store) UpdateMessage(ctx context.Context, m *conversation.Message) error {
	metadataJSON, err := json.Marshal(m.Metadata)
	if err != nil {
		return fmt.Errorf("marshal message metadata: %w", err)
	}
	versionsJSON, err := json.Marshal(m.Versions)
	if err != nil {
		return fmt.Errorf("marshal message versions: %w", err)
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE messages SET content = $2, metadata = $3, is_edited = $4, versions = $5, updated_at = $6
		 WHERE id = $1`,
		m.ID, m.Content, metadataJSON, m.IsEdited, versionsJSON, nullTime(m.UpdatedAt))
	return execExpectOne(tag, err, "update message %s", m.ID)
}

// Both truncation queries key on seq rather than created_at: adjacent
// messages can share a timestamp, and the cut must be exact.

func (s *Store) DeleteMessagesFrom(ctx context.Context, conversationID, messageID string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM messages
		 WHERE conversation_id = $1
		   AND seq >= (SELECT seq FROM messages WHERE id = $2)`,
		conversationID, messageID)
	if err != nil {
		return fmt.Errorf("delete messages from %s: %w", messageID, err)
	}
	return nil
}

func (s *Store) TruncateMessagesAfter(ctx context.Context, conversationID, messageID string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM messages
		 WHERE conversation_id = $1
		   AND seq > (SELECT seq FROM messages WHERE id = $2)`,
		conversationID, messageID)
	if err != nil {
		return fmt.Errorf("truncate messages after %s: %w", messageID, err)
	}
	return nil
}

// --- Scanners ---

func scanConversation(row scannable) (conversation.Conversation, error) {
	var c conversation.Conversation
	var projectID *string
	var settingsJSON, metadataJSON []byte
	err := row.Scan(&c.ID, &c.UserID, &projectID, &c.Title, &c.Model, &c.SystemPrompt,
		&settingsJSON, &metadataJSON, &c.Tags,
		&c.IsArchived, &c.IsPinned, &c.IsFavorite, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return c, err
	}
	if projectID != nil {
		c.ProjectID = *projectID
	}
	if settingsJSON != nil {
		if err := json.Unmarshal(settingsJSON, &c.Settings); err != nil {
			return c, fmt.Errorf("unmarshal settings: %w", err)
		}
	}
	if metadataJSON != nil {
		if err := json.Unmarshal(metadataJSON, &c.Metadata); err != nil {
			return c, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	return c, nil
}

func scanMessage(row scannable) (conversation.Message, error) {
	var m conversation.Message
	var metadataJSON, versionsJSON []byte
	var updatedAt *time.Time
	err := row.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content,
		&metadataJSON, &m.IsEdited, &versionsJSON, &m.CreatedAt, &updatedAt)
	if err != nil {
		return m, err
	}
	if updatedAt != nil {
		m.UpdatedAt = *updatedAt
	}
	if metadataJSON != nil {
		if err := json.Unmarshal(metadataJSON, &m.Metadata); err != nil {
			return m, fmt.Errorf("unmarshal message metadata: %w", err)
		}
	}
	if versionsJSON != nil {
		if err := json.Unmarshal(versionsJSON, &m.Versions); err != nil {
			return m, fmt.Errorf("unmarshal message versions: %w", err)
		}
	}
	return m, nil
}
