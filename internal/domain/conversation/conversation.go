// Package conversation defines the chat thread and message domain types.
package conversation

import (
	"strings"
	"time"

	"github.com/koushikch7/chatGPT/internal/domain/model"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// TitleMaxLen is the number of characters of the first user message used to
// derive a conversation title.
const TitleMaxLen = 50

// Settings holds per-conversation sampling parameters.
type Settings struct {
	Temperature      float64  `json:"temperature"`
	MaxTokens        int      `json:"max_tokens"`
	TopP             float64  `json:"top_p"`
	FrequencyPenalty float64  `json:"frequency_penalty"`
	PresencePenalty  float64  `json:"presence_penalty"`
	StopSequences    []string `json:"stop_sequences,omitempty"`
	StreamResponse   bool     `json:"stream_response"`
}

// DefaultSettings returns the settings applied to new conversations.
func DefaultSettings() Settings {
	return Settings{
		Temperature: 0.7,
		MaxTokens:   2048,
		TopP:        1.0,
	}
}

// Metadata aggregates per-conversation accounting.
type Metadata struct {
	TotalTokens   int     `json:"total_tokens"`
	TotalMessages int     `json:"total_messages"`
	LastModelUsed string  `json:"last_model_used,omitempty"`
	EstimatedCost float64 `json:"estimated_cost"`
}

// Conversation represents a chat thread, optionally belonging to a project.
type Conversation struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	ProjectID    string    `json:"project_id,omitempty"`
	Title        string    `json:"title"`
	Model        string    `json:"model"`
	SystemPrompt string    `json:"system_prompt,omitempty"`
	Settings     Settings  `json:"settings"`
	Metadata     Metadata  `json:"metadata"`
	Messages     []Message `json:"messages,omitempty"`
	Tags         []string  `json:"tags,omitempty"`
	IsArchived   bool      `json:"is_archived"`
	IsPinned     bool      `json:"is_pinned"`
	IsFavorite   bool      `json:"is_favorite"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// MessageError records a failed generation attempt on a message.
type MessageError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// MessageMetadata carries generation bookkeeping for a message.
type MessageMetadata struct {
	Model          string           `json:"model,omitempty"`
	Tokens         model.TokenUsage `json:"tokens"`
	ProcessingTime int64            `json:"processing_time_ms"`
	FinishReason   string           `json:"finish_reason,omitempty"`
	Error          *MessageError    `json:"error,omitempty"`
}

// Version is a prior content state of a message, preserved on edit.
type Version struct {
	Content   string    `json:"content"`
	Model     string    `json:"model,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Message is a single turn in a conversation.
type Message struct {
	ID             string          `json:"id"`
	ConversationID string          `json:"conversation_id"`
	Role           string          `json:"role"`
	Content        string          `json:"content"`
	Metadata       MessageMetadata `json:"metadata"`
	IsEdited       bool            `json:"is_edited"`
	Versions       []Version       `json:"versions,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at,omitzero"`
}

// DeriveTitle builds a conversation title from the first user message:
// the first 50 characters, with an ellipsis marker when truncated.
func DeriveTitle(text string) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= TitleMaxLen {
		return text
	}
	return string(runes[:TitleMaxLen]) + "..."
}

// CreateRequest is the request body for creating a conversation.
type CreateRequest struct {
	Title        string `json:"title,omitempty"`
	ProjectID    string `json:"project_id,omitempty"`
	Model        string `json:"model,omitempty"`
	SystemPrompt string `json:"system_prompt,omitempty"`
}

// UpdateRequest holds the mutable conversation fields; nil pointers are
// left unchanged.
type UpdateRequest struct {
	Title        *string   `json:"title,omitempty"`
	ProjectID    *string   `json:"project_id,omitempty"`
	Model        *string   `json:"model,omitempty"`
	SystemPrompt *string   `json:"system_prompt,omitempty"`
	Settings     *Settings `json:"settings,omitempty"`
	Tags         *[]string `json:"tags,omitempty"`
	IsArchived   *bool     `json:"is_archived,omitempty"`
	IsPinned     *bool     `json:"is_pinned,omitempty"`
	IsFavorite   *bool     `json:"is_favorite,omitempty"`
}

// SendMessageRequest is the request body for sending a message.
type SendMessageRequest struct {
	Content string `json:"content"`
}

// EditMessageRequest is the request body for editing a message in place.
type EditMessageRequest struct {
	Content string `json:"content"`
}
