// Package database defines the database store port (interface).
package database

import (
	"context"

	"github.com/koushikch7/chatGPT/internal/domain/conversation"
	"github.com/koushikch7/chatGPT/internal/domain/memory"
	"github.com/koushikch7/chatGPT/internal/domain/model"
	"github.com/koushikch7/chatGPT/internal/domain/project"
	"github.com/koushikch7/chatGPT/internal/domain/user"
)

// Store is the port interface for database operations.
type Store interface {
	// Conversations. List orders pinned threads first, then most recently
	// updated, and does not include messages.
	ListConversations(ctx context.Context, userID string) ([]conversation.Conversation, error)
	GetConversation(ctx context.Context, id string) (*conversation.Conversation, error)
	CreateConversation(ctx context.Context, c *conversation.Conversation) error
	UpdateConversation(ctx context.Context, c *conversation.Conversation) error
	DeleteConversation(ctx context.Context, id string) error

	// Messages, ordered by creation time ascending.
	ListMessages(ctx context.Context, conversationID string) ([]conversation.Message, error)
	GetMessage(ctx context.Context, id string) (*conversation.Message, error)
	CreateMessage(ctx context.Context, m *conversation.Message) error
	UpdateMessage(ctx context.Context, m *conversation.Message) error
	// DeleteMessagesFrom removes the named message and everything after it.
	DeleteMessagesFrom(ctx context.Context, conversationID, messageID string) error
	// TruncateMessagesAfter removes everything strictly after the named message.
	TruncateMessagesAfter(ctx context.Context, conversationID, messageID string) error

	// Projects
	ListProjects(ctx context.Context, userID string) ([]project.Project, error)
	GetProject(ctx context.Context, id string) (*project.Project, error)
	CreateProject(ctx context.Context, p *project.Project) error
	UpdateProject(ctx context.Context, p *project.Project) error
	DeleteProject(ctx context.Context, id string) error

	// Memories
	ListMemories(ctx context.Context, userID string) ([]memory.UserMemory, error)
	ListActiveMemories(ctx context.Context, userID string) ([]memory.UserMemory, error)
	CreateMemory(ctx context.Context, m *memory.UserMemory) error
	UpdateMemory(ctx context.Context, m *memory.UserMemory) error
	DeleteMemory(ctx context.Context, id string) error

	// Users
	GetUser(ctx context.Context, id string) (*user.User, error)
	GetUserByEmail(ctx context.Context, email string) (*user.User, error)
	CreateUser(ctx context.Context, u *user.User) error
	UpdateUser(ctx context.Context, u *user.User) error

	// Preferences. Get falls back to defaults when no row exists.
	GetPreferences(ctx context.Context, userID string) (*user.Preferences, error)
	UpsertPreferences(ctx context.Context, p *user.Preferences) error

	// Provider API keys, one per (user, provider).
	ListAPIKeys(ctx context.Context, userID string) ([]user.APIKey, error)
	GetAPIKey(ctx context.Context, userID string, provider model.Provider) (*user.APIKey, error)
	UpsertAPIKey(ctx context.Context, k *user.APIKey) error
	DeleteAPIKey(ctx context.Context, userID string, provider model.Provider) error
}
