package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/koushikch7/chatGPT/internal/adapter/ws"
	"github.com/koushikch7/chatGPT/internal/domain"
	"github.com/koushikch7/chatGPT/internal/domain/conversation"
	"github.com/koushikch7/chatGPT/internal/domain/model"
	"github.com/koushikch7/chatGPT/internal/port/broadcast"
	"github.com/koushikch7/chatGPT/internal/port/database"
)

// ConversationService manages conversation threads.
type ConversationService struct {
	store database.Store
	hub   broadcast.Broadcaster
	log   *slog.Logger
	now   func() time.Time
}

func NewConversationService(store database.Store, hub broadcast.Broadcaster, log *slog.Logger) *ConversationService {
	return &ConversationService{store: store, hub: hub, log: log, now: time.Now}
}

// List returns the user's conversations, pinned first then most recently
// updated. Archived threads are excluded unless includeArchived is set.
func (s *ConversationService) List(ctx context.Context, userID string, includeArchived bool) ([]conversation.Conversation, error) {
	convs, err := s.store.ListConversations(ctx, userID)
	if err != nil {
		return nil, err
	}
	if includeArchived {
		return convs, nil
	}
	out := convs[:0]
	for _, c := range convs {
		if !c.IsArchived {
			out = append(out, c)
		}
	}
	return out, nil
}

// Get returns the conversation with its messages loaded.
func (s *ConversationService) Get(ctx context.Context, userID, id string) (*conversation.Conversation, error) {
	conv, err := s.ownedConversation(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	msgs, err := s.store.ListMessages(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	conv.Messages = msgs
	return conv, nil
}

// Create starts a new conversation. The model falls back through the
// request, the project's default, and the user's preferred default.
func (s *ConversationService) Create(ctx context.Context, userID string, req conversation.CreateRequest) (*conversation.Conversation, error) {
	modelID := req.Model
	systemPrompt := req.SystemPrompt

	if req.ProjectID != "" {
		p, err := s.store.GetProject(ctx, req.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("project %s: %w", req.ProjectID, domain.ErrValidation)
		}
		if p.UserID != userID {
			return nil, fmt.Errorf("project %s: %w", req.ProjectID, domain.ErrValidation)
		}
		if modelID == "" {
			modelID = p.DefaultModel
		}
		if systemPrompt == "" {
			systemPrompt = p.SystemPrompt
		}
	}

	prefs, err := s.store.GetPreferences(ctx, userID)
	if err != nil {
		return nil, err
	}
	if modelID == "" {
		modelID = prefs.DefaultModel
	}
	if model.Lookup(modelID) == nil {
		return nil, fmt.Errorf("unknown model %q: %w", modelID, domain.ErrValidation)
	}

	settings := conversation.DefaultSettings()
	if prefs.DefaultTemperature > 0 {
		settings.Temperature = prefs.DefaultTemperature
	}
	if prefs.DefaultMaxTokens > 0 {
		settings.MaxTokens = prefs.DefaultMaxTokens
	}
	settings.StreamResponse = prefs.StreamResponses

	title := req.Title
	if title == "" {
		title = "New Chat"
	}

	ts := s.now().UTC()
	conv := &conversation.Conversation{
		ID:           uuid.NewString(),
		UserID:       userID,
		ProjectID:    req.ProjectID,
		Title:        title,
		Model:        modelID,
		SystemPrompt: systemPrompt,
		Settings:     settings,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}
	if err := s.store.CreateConversation(ctx, conv); err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}

	s.log.Info("conversation created", "conversation", conv.ID, "model", conv.Model)
	return conv, nil
}

// Update applies the non-nil fields of req to the conversation.
func (s *ConversationService) Update(ctx context.Context, userID, id string, req conversation.UpdateRequest) (*conversation.Conversation, error) {
	conv, err := s.ownedConversation(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		conv.Title = *req.Title
	}
	if req.ProjectID != nil {
		conv.ProjectID = *req.ProjectID
	}
	if req.Model != nil {
		if model.Lookup(*req.Model) == nil {
			return nil, fmt.Errorf("unknown model %q: %w", *req.Model, domain.ErrValidation)
		}
		conv.Model = *req.Model
	}
	if req.SystemPrompt != nil {
		conv.SystemPrompt = *req.SystemPrompt
	}
	if req.Settings != nil {
		conv.Settings = *req.Settings
	}
	if req.Tags != nil {
		conv.Tags = *req.Tags
	}
	if req.IsArchived != nil {
		conv.IsArchived = *req.IsArchived
	}
	if req.IsPinned != nil {
		conv.IsPinned = *req.IsPinned
	}
	if req.IsFavorite != nil {
		conv.IsFavorite = *req.IsFavorite
	}
	conv.UpdatedAt = s.now().UTC()

	if err := s.store.UpdateConversation(ctx, conv); err != nil {
		return nil, err
	}
	s.hub.BroadcastEvent(ctx, ws.EventConversationUpdate, ws.ConversationUpdatedEvent{ConversationID: conv.ID})
	return conv, nil
}

// Delete removes the conversation and its messages.
func (s *ConversationService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.ownedConversation(ctx, userID, id); err != nil {
		return err
	}
	if err := s.store.DeleteConversation(ctx, id); err != nil {
		return err
	}
	s.log.Info("conversation deleted", "conversation", id)
	return nil
}

// Messages returns the conversation's messages in order.
func (s *ConversationService) Messages(ctx context.Context, userID, id string) ([]conversation.Message, error) {
	if _, err := s.ownedConversation(ctx, userID, id); err != nil {
		return nil, err
	}
	return s.store.ListMessages(ctx, id)
}

// ownedConversation loads the conversation and verifies ownership. A thread
// belonging to another user reads as not found.
func (s *ConversationService) ownedConversation(ctx context.Context, userID, id string) (*conversation.Conversation, error) {
	conv, err := s.store.GetConversation(ctx, id)
	if err != nil {
		return nil, err
	}
	if conv.UserID != userID {
		return nil, fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
	}
	return conv, nil
}
