package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/koushikch7/chatGPT/internal/adapter/otel"
	"github.com/koushikch7/chatGPT/internal/adapter/provider"
	"github.com/koushikch7/chatGPT/internal/adapter/ws"
	"github.com/koushikch7/chatGPT/internal/domain"
	"github.com/koushikch7/chatGPT/internal/domain/conversation"
	"github.com/koushikch7/chatGPT/internal/domain/model"
	"github.com/koushikch7/chatGPT/internal/port/broadcast"
	"github.com/koushikch7/chatGPT/internal/port/database"
)

// Dispatcher sends an assembled request to the model's provider.
type Dispatcher interface {
	Dispatch(ctx context.Context, modelID string, msgs []provider.ChatMessage, settings conversation.Settings, apiKey string) (*provider.Result, error)
}

// credentialSource resolves the plaintext provider key for a user.
type credentialSource interface {
	Resolve(ctx context.Context, userID string, p model.Provider) (key string, ok bool, err error)
}

// session tracks one in-flight generation.
type session struct {
	cancel  context.CancelFunc
	modelID string
	started time.Time
}

// ChatService orchestrates message generation: it persists the user turn,
// assembles the provider request, dispatches it, and records the outcome.
// At most one generation runs per conversation at a time.
type ChatService struct {
	store       database.Store
	dispatcher  Dispatcher
	credentials credentialSource
	hub         broadcast.Broadcaster
	metrics     *otel.Metrics
	log         *slog.Logger

	mu       sync.Mutex
	sessions map[string]*session

	now func() time.Time // for testing
}

// NewChatService creates a ChatService. metrics may be nil.
func NewChatService(store database.Store, d Dispatcher, creds credentialSource, hub broadcast.Broadcaster, metrics *otel.Metrics, log *slog.Logger) *ChatService {
	return &ChatService{
		store:       store,
		dispatcher:  d,
		credentials: creds,
		hub:         hub,
		metrics:     metrics,
		log:         log,
		sessions:    make(map[string]*session),
		now:         time.Now,
	}
}

// SendMessage appends the user's message to the conversation and generates
// the assistant's reply. The user message is durable before any provider
// call; if the conversation already has a generation in flight the call
// fails with ErrSessionBusy and nothing is written. A conversation ID that
// does not exist yet is created on the fly with the user's default model.
func (s *ChatService) SendMessage(ctx context.Context, userID, conversationID string, req conversation.SendMessageRequest) (*conversation.Message, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, fmt.Errorf("%w: message content is empty", domain.ErrValidation)
	}

	conv, err := s.store.GetConversation(ctx, conversationID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		conv, err = s.createConversation(ctx, userID, conversationID)
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	case conv.UserID != userID:
		return nil, fmt.Errorf("conversation %s: %w", conversationID, domain.ErrNotFound)
	}

	genCtx, release, err := s.acquire(conv.ID, conv.Model)
	if err != nil {
		return nil, err
	}
	defer release()

	history, err := s.store.ListMessages(ctx, conv.ID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	userMsg := &conversation.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		Role:           conversation.RoleUser,
		Content:        content,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.store.CreateMessage(ctx, userMsg); err != nil {
		return nil, fmt.Errorf("persist user message: %w", err)
	}
	s.hub.BroadcastEvent(ctx, ws.EventMessageCreated, ws.MessageCreatedEvent{
		ConversationID: conv.ID,
		MessageID:      userMsg.ID,
		Role:           userMsg.Role,
	})

	if len(history) == 0 {
		s.maybeAutoTitle(ctx, conv, content)
	}

	return s.generate(ctx, genCtx, conv, history, content)
}

// Regenerate discards the most recent assistant reply and produces a new one
// from the same user message.
func (s *ChatService) Regenerate(ctx context.Context, userID, conversationID string) (*conversation.Message, error) {
	conv, err := s.ownedConversation(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	genCtx, release, err := s.acquire(conv.ID, conv.Model)
	if err != nil {
		return nil, err
	}
	defer release()

	msgs, err := s.store.ListMessages(ctx, conv.ID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	lastAssistant := -1
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == conversation.RoleAssistant {
			lastAssistant = i
			break
		}
	}
	if lastAssistant < 1 || msgs[lastAssistant-1].Role != conversation.RoleUser {
		return nil, fmt.Errorf("no assistant message to regenerate: %w", domain.ErrNotFound)
	}

	if err := s.store.DeleteMessagesFrom(ctx, conv.ID, msgs[lastAssistant].ID); err != nil {
		return nil, fmt.Errorf("discard previous reply: %w", err)
	}

	userMsg := msgs[lastAssistant-1]
	history := msgs[:lastAssistant-1]
	return s.generate(ctx, genCtx, conv, history, userMsg.Content)
}

// EditMessage replaces a message's content, preserving the prior content as a
// version. Editing a user message discards all later messages and regenerates
// the reply; editing an assistant message revises it in place without
// touching the rest of the thread.
func (s *ChatService) EditMessage(ctx context.Context, userID, messageID string, req conversation.EditMessageRequest) (*conversation.Message, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, fmt.Errorf("%w: message content is empty", domain.ErrValidation)
	}

	msg, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}

	conv, err := s.ownedConversation(ctx, userID, msg.ConversationID)
	if err != nil {
		return nil, err
	}

	if msg.Role == conversation.RoleAssistant {
		s.applyEdit(msg, conv, content)
		if err := s.store.UpdateMessage(ctx, msg); err != nil {
			return nil, fmt.Errorf("update message: %w", err)
		}
		s.hub.BroadcastEvent(ctx, ws.EventMessageUpdated, ws.MessageUpdatedEvent{
			ConversationID: conv.ID,
			MessageID:      msg.ID,
		})
		return msg, nil
	}
	if msg.Role != conversation.RoleUser {
		return nil, fmt.Errorf("%w: only user and assistant messages can be edited", domain.ErrValidation)
	}

	genCtx, release, err := s.acquire(conv.ID, conv.Model)
	if err != nil {
		return nil, err
	}
	defer release()

	s.applyEdit(msg, conv, content)
	if err := s.store.UpdateMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("update message: %w", err)
	}

	if err := s.store.TruncateMessagesAfter(ctx, conv.ID, msg.ID); err != nil {
		return nil, fmt.Errorf("truncate history: %w", err)
	}

	msgs, err := s.store.ListMessages(ctx, conv.ID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	// The edited message is now the last one; everything before it is history.
	history := msgs[:len(msgs)-1]
	return s.generate(ctx, genCtx, conv, history, content)
}

// applyEdit pushes the current content onto the version history and swaps in
// the replacement. The version is tagged with the model that produced it.
func (s *ChatService) applyEdit(msg *conversation.Message, conv *conversation.Conversation, content string) {
	versionModel := msg.Metadata.Model
	if versionModel == "" {
		versionModel = conv.Model
	}
	msg.Versions = append(msg.Versions, conversation.Version{
		Content:   msg.Content,
		Model:     versionModel,
		CreatedAt: msg.CreatedAt,
	})
	msg.Content = content
	msg.IsEdited = true
	msg.UpdatedAt = s.now().UTC()
}

// Retry re-sends the user message that produced a failed assistant reply.
// The failed reply is discarded first.
func (s *ChatService) Retry(ctx context.Context, userID, messageID string) (*conversation.Message, error) {
	msg, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.Role != conversation.RoleAssistant || msg.Metadata.Error == nil {
		return nil, fmt.Errorf("%w: only failed assistant messages can be retried", domain.ErrValidation)
	}

	conv, err := s.ownedConversation(ctx, userID, msg.ConversationID)
	if err != nil {
		return nil, err
	}

	genCtx, release, err := s.acquire(conv.ID, conv.Model)
	if err != nil {
		return nil, err
	}
	defer release()

	msgs, err := s.store.ListMessages(ctx, conv.ID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	idx := -1
	for i := range msgs {
		if msgs[i].ID == messageID {
			idx = i
			break
		}
	}
	if idx < 1 || msgs[idx-1].Role != conversation.RoleUser {
		return nil, fmt.Errorf("retry target has no preceding user message: %w", domain.ErrNotFound)
	}

	if err := s.store.DeleteMessagesFrom(ctx, conv.ID, messageID); err != nil {
		return nil, fmt.Errorf("discard failed reply: %w", err)
	}

	return s.generate(ctx, genCtx, conv, msgs[:idx-1], msgs[idx-1].Content)
}

// Stop cancels the in-flight generation for the conversation, if any.
func (s *ChatService) Stop(ctx context.Context, userID, conversationID string) error {
	if _, err := s.ownedConversation(ctx, userID, conversationID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[conversationID]
	if !ok {
		return fmt.Errorf("no generation in progress: %w", domain.ErrNotFound)
	}
	sess.cancel()
	return nil
}

// createConversation backs the send-to-new-thread path: the client may post
// to a conversation ID it minted locally before the thread exists server-side.
func (s *ChatService) createConversation(ctx context.Context, userID, id string) (*conversation.Conversation, error) {
	prefs, err := s.store.GetPreferences(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load preferences: %w", err)
	}
	if model.Lookup(prefs.DefaultModel) == nil {
		return nil, fmt.Errorf("unknown model %q: %w", prefs.DefaultModel, domain.ErrValidation)
	}

	settings := conversation.DefaultSettings()
	if prefs.DefaultTemperature > 0 {
		settings.Temperature = prefs.DefaultTemperature
	}
	if prefs.DefaultMaxTokens > 0 {
		settings.MaxTokens = prefs.DefaultMaxTokens
	}
	settings.StreamResponse = prefs.StreamResponses

	ts := s.now().UTC()
	conv := &conversation.Conversation{
		ID:        id,
		UserID:    userID,
		Title:     "New Chat",
		Model:     prefs.DefaultModel,
		Settings:  settings,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	if err := s.store.CreateConversation(ctx, conv); err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}

	s.log.Info("conversation created on send", "conversation", conv.ID, "model", conv.Model)
	return conv, nil
}

// ownedConversation loads the conversation and verifies ownership.
func (s *ChatService) ownedConversation(ctx context.Context, userID, id string) (*conversation.Conversation, error) {
	conv, err := s.store.GetConversation(ctx, id)
	if err != nil {
		return nil, err
	}
	if conv.UserID != userID {
		return nil, fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
	}
	return conv, nil
}

// Busy reports whether a generation is in flight for the conversation.
func (s *ChatService) Busy(conversationID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[conversationID]
	return ok
}

// acquire registers a session for the conversation. The returned context is
// detached from the caller's cancellation (the generation survives a client
// disconnect) but is cancelled by Stop.
func (s *ChatService) acquire(conversationID, modelID string) (context.Context, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, busy := s.sessions[conversationID]; busy {
		return nil, nil, domain.ErrSessionBusy
	}

	genCtx, cancel := context.WithCancel(context.WithoutCancel(context.Background()))
	s.sessions[conversationID] = &session{
		cancel:  cancel,
		modelID: modelID,
		started: s.now(),
	}

	release := func() {
		s.mu.Lock()
		delete(s.sessions, conversationID)
		s.mu.Unlock()
		cancel()
	}
	return genCtx, release, nil
}

// generate dispatches the assembled request and records the outcome. ctx is
// used for persistence; genCtx only governs the provider call.
func (s *ChatService) generate(ctx, genCtx context.Context, conv *conversation.Conversation, history []conversation.Message, userContent string) (*conversation.Message, error) {
	memories, err := s.store.ListActiveMemories(ctx, conv.UserID)
	if err != nil {
		return nil, fmt.Errorf("load memories: %w", err)
	}

	effective := *conv
	if effective.SystemPrompt == "" && conv.ProjectID != "" {
		if p, perr := s.store.GetProject(ctx, conv.ProjectID); perr == nil {
			effective.SystemPrompt = p.SystemPrompt
		}
	}

	msgs := AssembleMessages(&effective, memories, history, userContent)

	m := model.Lookup(conv.Model)
	if m == nil {
		return nil, fmt.Errorf("model %s: %w", conv.Model, domain.ErrNotFound)
	}

	apiKey := ""
	if s.credentials != nil {
		key, ok, err := s.credentials.Resolve(ctx, conv.UserID, m.Provider)
		if err != nil {
			return nil, err
		}
		if ok {
			apiKey = key
		}
	}

	s.hub.BroadcastEvent(ctx, ws.EventGenerationStarted, ws.GenerationEvent{
		ConversationID: conv.ID,
		Model:          conv.Model,
		Status:         "started",
	})
	if s.metrics != nil {
		s.metrics.GenerationsStarted.Add(ctx, 1)
	}

	spanCtx, span := otel.StartGenerationSpan(genCtx, conv.ID, conv.Model)
	started := s.now()
	result, dispatchErr := s.dispatcher.Dispatch(spanCtx, conv.Model, msgs, conv.Settings, apiKey)
	elapsed := s.now().Sub(started)
	span.End()

	// Outcome persistence must not be lost to a client disconnect.
	persistCtx := context.WithoutCancel(ctx)
	if dispatchErr != nil {
		return s.recordFailure(persistCtx, conv, dispatchErr, elapsed)
	}
	return s.recordSuccess(persistCtx, conv, m, result, elapsed)
}

func (s *ChatService) recordSuccess(ctx context.Context, conv *conversation.Conversation, m *model.AIModel, result *provider.Result, elapsed time.Duration) (*conversation.Message, error) {
	assistant := &conversation.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		Role:           conversation.RoleAssistant,
		Content:        result.Content,
		Metadata: conversation.MessageMetadata{
			Model:          conv.Model,
			Tokens:         result.Usage,
			ProcessingTime: elapsed.Milliseconds(),
			FinishReason:   result.FinishReason,
		},
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.CreateMessage(ctx, assistant); err != nil {
		return nil, fmt.Errorf("persist assistant message: %w", err)
	}

	conv.Metadata.TotalTokens += result.Usage.Total
	s.refreshMessageCount(ctx, conv)
	conv.Metadata.LastModelUsed = conv.Model
	conv.Metadata.EstimatedCost += model.EstimateCost(m, result.Usage)
	conv.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateConversation(ctx, conv); err != nil {
		return nil, fmt.Errorf("update conversation metadata: %w", err)
	}

	s.hub.BroadcastEvent(ctx, ws.EventMessageCreated, ws.MessageCreatedEvent{
		ConversationID: conv.ID,
		MessageID:      assistant.ID,
		Role:           assistant.Role,
	})
	s.hub.BroadcastEvent(ctx, ws.EventGenerationFinished, ws.GenerationEvent{
		ConversationID: conv.ID,
		Model:          conv.Model,
		Status:         "finished",
	})
	if s.metrics != nil {
		s.metrics.GenerationsCompleted.Add(ctx, 1)
		s.metrics.TokensUsed.Add(ctx, int64(result.Usage.Total))
		s.metrics.GenerationDuration.Record(ctx, elapsed.Seconds())
		s.metrics.GenerationCost.Record(ctx, model.EstimateCost(m, result.Usage))
	}

	s.log.Info("generation recorded",
		"conversation", conv.ID,
		"model", conv.Model,
		"tokens", result.Usage.Total,
		"elapsed", elapsed)
	return assistant, nil
}

// recordFailure writes a failed assistant message carrying the error details,
// unless the generation was cancelled, in which case nothing is appended.
func (s *ChatService) recordFailure(ctx context.Context, conv *conversation.Conversation, dispatchErr error, elapsed time.Duration) (*conversation.Message, error) {
	if errors.Is(dispatchErr, domain.ErrCancelled) {
		s.hub.BroadcastEvent(ctx, ws.EventGenerationFinished, ws.GenerationEvent{
			ConversationID: conv.ID,
			Model:          conv.Model,
			Status:         "cancelled",
		})
		if s.metrics != nil {
			s.metrics.GenerationsCancelled.Add(ctx, 1)
		}
		return nil, domain.ErrCancelled
	}

	msgErr := &conversation.MessageError{
		Code:      "provider_error",
		Message:   dispatchErr.Error(),
		Retryable: false,
	}
	var reqErr *provider.RequestError
	if errors.As(dispatchErr, &reqErr) {
		msgErr.Code = reqErr.Code
		msgErr.Message = reqErr.Message
		msgErr.Retryable = reqErr.Retryable
	}

	assistant := &conversation.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		Role:           conversation.RoleAssistant,
		Content:        msgErr.Message,
		Metadata: conversation.MessageMetadata{
			Model:          conv.Model,
			ProcessingTime: elapsed.Milliseconds(),
			Error:          msgErr,
		},
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.CreateMessage(ctx, assistant); err != nil {
		return nil, fmt.Errorf("persist failed assistant message: %w", err)
	}

	s.refreshMessageCount(ctx, conv)
	conv.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateConversation(ctx, conv); err != nil {
		return nil, fmt.Errorf("update conversation metadata: %w", err)
	}

	s.hub.BroadcastEvent(ctx, ws.EventGenerationFailed, ws.GenerationEvent{
		ConversationID: conv.ID,
		Model:          conv.Model,
		Status:         "failed",
		Error:          msgErr.Code,
	})
	if s.metrics != nil {
		s.metrics.GenerationsFailed.Add(ctx, 1)
	}

	s.log.Warn("generation failed",
		"conversation", conv.ID,
		"model", conv.Model,
		"code", msgErr.Code,
		"retryable", msgErr.Retryable)
	return assistant, nil
}

// refreshMessageCount recounts the stored messages so aggregate metadata
// reflects deletions and truncations too. On a store error the previous
// count is left in place.
func (s *ChatService) refreshMessageCount(ctx context.Context, conv *conversation.Conversation) {
	msgs, err := s.store.ListMessages(ctx, conv.ID)
	if err != nil {
		s.log.Warn("count messages failed", "conversation", conv.ID, "error", err)
		return
	}
	conv.Metadata.TotalMessages = len(msgs)
}

// maybeAutoTitle derives a title from the first user message when the
// conversation still carries a placeholder title and the user has not
// disabled auto-titling.
func (s *ChatService) maybeAutoTitle(ctx context.Context, conv *conversation.Conversation, firstMessage string) {
	if conv.Title != "" && conv.Title != "New Chat" {
		return
	}

	prefs, err := s.store.GetPreferences(ctx, conv.UserID)
	if err == nil && !prefs.AutoTitle {
		return
	}

	conv.Title = conversation.DeriveTitle(firstMessage)
	conv.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateConversation(ctx, conv); err != nil {
		s.log.Warn("auto-title failed", "conversation", conv.ID, "error", err)
		return
	}
	s.hub.BroadcastEvent(ctx, ws.EventConversationUpdate, ws.ConversationUpdatedEvent{
		ConversationID: conv.ID,
	})
}
