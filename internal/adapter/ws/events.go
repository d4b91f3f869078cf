package ws

import (
	"context"
	"encoding/json"
	"log/slog"
)

// Event type constants for WebSocket messages.
const (
	EventGenerationStarted  = "generation.started"
	EventGenerationFinished = "generation.finished"
	EventGenerationFailed   = "generation.failed"
	EventMessageCreated     = "message.created"
	EventMessageUpdated     = "message.updated"
	EventConversationUpdate = "conversation.updated"
)

// GenerationEvent is broadcast when a generation starts, finishes, or fails.
type GenerationEvent struct {
	ConversationID string `json:"conversation_id"`
	Model          string `json:"model"`
	Status         string `json:"status"`
	Error          string `json:"error,omitempty"`
}

// MessageCreatedEvent is broadcast when a message is appended to a conversation.
type MessageCreatedEvent struct {
	ConversationID string `json:"conversation_id"`
	MessageID      string `json:"message_id"`
	Role           string `json:"role"`
}

// MessageUpdatedEvent is broadcast when an existing message is revised in place.
type MessageUpdatedEvent struct {
	ConversationID string `json:"conversation_id"`
	MessageID      string `json:"message_id"`
}

// ConversationUpdatedEvent is broadcast when conversation metadata changes.
type ConversationUpdatedEvent struct {
	ConversationID string `json:"conversation_id"`
}

// BroadcastEvent is a convenience method that marshals a typed event and broadcasts it.
func (h *Hub) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal ws event payload", "type", eventType, "error", err)
		return
	}

	h.Broadcast(ctx, Message{
		Type:    eventType,
		Payload: json.RawMessage(data),
	})
}
