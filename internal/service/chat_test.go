package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/koushikch7/chatGPT/internal/adapter/provider"
	"github.com/koushikch7/chatGPT/internal/adapter/ws"
	"github.com/koushikch7/chatGPT/internal/domain"
	"github.com/koushikch7/chatGPT/internal/domain/conversation"
	"github.com/koushikch7/chatGPT/internal/domain/memory"
	"github.com/koushikch7/chatGPT/internal/domain/model"
	"github.com/koushikch7/chatGPT/internal/domain/user"
)

const (
	testUserID = "user-1"
	testConvID = "conv-1"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seedConversation(store *mockStore, modelID string) {
	store.conversations[testConvID] = conversation.Conversation{
		ID:       testConvID,
		UserID:   testUserID,
		Title:    "New Chat",
		Model:    modelID,
		Settings: conversation.DefaultSettings(),
	}
}

func newTestChat(store *mockStore, d Dispatcher, creds credentialSource) (*ChatService, *mockBroadcaster) {
	hub := &mockBroadcaster{}
	svc := NewChatService(store, d, creds, hub, nil, discardLogger())
	return svc, hub
}

func TestSendMessagePersistsUserBeforeDispatch(t *testing.T) {
	store := newMockStore()
	seedConversation(store, "openai/gpt-4o")
	d := &fakeDispatcher{err: errors.New("boom")}
	svc, _ := newTestChat(store, d, nil)

	msg, err := svc.SendMessage(context.Background(), testUserID, testConvID, conversation.SendMessageRequest{Content: "hello"})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if msg.Metadata.Error == nil {
		t.Fatal("expected failed assistant message")
	}

	msgs, _ := store.ListMessages(context.Background(), testConvID)
	if len(msgs) != 2 {
		t.Fatalf("expected user + failed assistant message, got %d", len(msgs))
	}
	if msgs[0].Role != conversation.RoleUser || msgs[0].Content != "hello" {
		t.Fatalf("user message not persisted first: %+v", msgs[0])
	}
}

func TestSendMessageAssemblesContext(t *testing.T) {
	store := newMockStore()
	seedConversation(store, "openai/gpt-4o")
	conv := store.conversations[testConvID]
	conv.SystemPrompt = "You are terse."
	store.conversations[testConvID] = conv
	store.memories = []memory.UserMemory{
		{ID: "m1", UserID: testUserID, Content: "Prefers Go", IsActive: true},
		{ID: "m2", UserID: testUserID, Content: "dormant", IsActive: false},
	}
	store.messages[testConvID] = []conversation.Message{
		{ID: "u0", ConversationID: testConvID, Role: conversation.RoleUser, Content: "earlier question"},
		{ID: "a0", ConversationID: testConvID, Role: conversation.RoleAssistant, Content: "earlier answer"},
	}

	d := &fakeDispatcher{}
	creds := &staticCredentials{keys: map[model.Provider]string{model.ProviderOpenAI: "sk-live"}}
	svc, _ := newTestChat(store, d, creds)

	if _, err := svc.SendMessage(context.Background(), testUserID, testConvID, conversation.SendMessageRequest{Content: "next question"}); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	call := d.lastCall()
	if call.modelID != "openai/gpt-4o" {
		t.Fatalf("modelID = %q", call.modelID)
	}
	if call.apiKey != "sk-live" {
		t.Fatalf("apiKey = %q", call.apiKey)
	}
	want := []provider.ChatMessage{
		{Role: "system", Content: "You are terse."},
		{Role: "system", Content: "User context and preferences:\nPrefers Go"},
		{Role: "user", Content: "earlier question"},
		{Role: "assistant", Content: "earlier answer"},
		{Role: "user", Content: "next question"},
	}
	if len(call.msgs) != len(want) {
		t.Fatalf("assembled %d messages, want %d: %+v", len(call.msgs), len(want), call.msgs)
	}
	for i := range want {
		if call.msgs[i] != want[i] {
			t.Errorf("msgs[%d] = %+v, want %+v", i, call.msgs[i], want[i])
		}
	}
}

func TestSendMessageRecordsUsageAndCost(t *testing.T) {
	store := newMockStore()
	seedConversation(store, "openai/gpt-4o")
	d := &fakeDispatcher{result: &provider.Result{
		Content:      "answer",
		Usage:        model.TokenUsage{Prompt: 100, Completion: 50, Total: 150},
		FinishReason: "stop",
	}}
	svc, _ := newTestChat(store, d, nil)

	msg, err := svc.SendMessage(context.Background(), testUserID, testConvID, conversation.SendMessageRequest{Content: "hi"})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if msg.Role != conversation.RoleAssistant || msg.Content != "answer" {
		t.Fatalf("unexpected assistant message: %+v", msg)
	}
	if msg.Metadata.Tokens.Total != 150 || msg.Metadata.FinishReason != "stop" {
		t.Fatalf("metadata not recorded: %+v", msg.Metadata)
	}

	conv, _ := store.GetConversation(context.Background(), testConvID)
	if conv.Metadata.TotalTokens != 150 {
		t.Errorf("TotalTokens = %d", conv.Metadata.TotalTokens)
	}
	if conv.Metadata.TotalMessages != 2 {
		t.Errorf("TotalMessages = %d", conv.Metadata.TotalMessages)
	}
	if conv.Metadata.LastModelUsed != "openai/gpt-4o" {
		t.Errorf("LastModelUsed = %q", conv.Metadata.LastModelUsed)
	}
	if conv.Metadata.EstimatedCost <= 0 {
		t.Errorf("EstimatedCost = %v, want > 0", conv.Metadata.EstimatedCost)
	}
}

func TestSendMessageAutoTitle(t *testing.T) {
	store := newMockStore()
	seedConversation(store, "openai/gpt-4o")
	svc, hub := newTestChat(store, &fakeDispatcher{}, nil)

	long := strings.Repeat("x", 60)
	if _, err := svc.SendMessage(context.Background(), testUserID, testConvID, conversation.SendMessageRequest{Content: long}); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	conv, _ := store.GetConversation(context.Background(), testConvID)
	if want := strings.Repeat("x", 50) + "..."; conv.Title != want {
		t.Fatalf("title = %q, want %q", conv.Title, want)
	}

	found := false
	for _, typ := range hub.types() {
		if typ == ws.EventConversationUpdate {
			found = true
		}
	}
	if !found {
		t.Error("expected conversation.updated broadcast")
	}
}

func TestSendMessageAutoTitleDisabled(t *testing.T) {
	store := newMockStore()
	seedConversation(store, "openai/gpt-4o")
	prefs := storedPrefs(testUserID)
	prefs.AutoTitle = false
	store.prefs[testUserID] = prefs
	svc, _ := newTestChat(store, &fakeDispatcher{}, nil)

	if _, err := svc.SendMessage(context.Background(), testUserID, testConvID, conversation.SendMessageRequest{Content: "hello there"}); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	conv, _ := store.GetConversation(context.Background(), testConvID)
	if conv.Title != "New Chat" {
		t.Fatalf("title = %q, want placeholder kept", conv.Title)
	}
}

func TestSendMessageCustomTitleKept(t *testing.T) {
	store := newMockStore()
	seedConversation(store, "openai/gpt-4o")
	conv := store.conversations[testConvID]
	conv.Title = "Planning session"
	store.conversations[testConvID] = conv
	svc, _ := newTestChat(store, &fakeDispatcher{}, nil)

	if _, err := svc.SendMessage(context.Background(), testUserID, testConvID, conversation.SendMessageRequest{Content: "hello"}); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	got, _ := store.GetConversation(context.Background(), testConvID)
	if got.Title != "Planning session" {
		t.Fatalf("title = %q", got.Title)
	}
}

func TestSendMessageEmptyContent(t *testing.T) {
	store := newMockStore()
	seedConversation(store, "openai/gpt-4o")
	svc, _ := newTestChat(store, &fakeDispatcher{}, nil)

	_, err := svc.SendMessage(context.Background(), testUserID, testConvID, conversation.SendMessageRequest{Content: "   "})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestSendMessageCreatesMissingConversation(t *testing.T) {
	store := newMockStore()
	svc, _ := newTestChat(store, &fakeDispatcher{}, nil)

	msg, err := svc.SendMessage(context.Background(), testUserID, "client-minted-id", conversation.SendMessageRequest{Content: "hi"})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if msg.Role != conversation.RoleAssistant {
		t.Fatalf("role = %q", msg.Role)
	}

	conv, err := store.GetConversation(context.Background(), "client-minted-id")
	if err != nil {
		t.Fatalf("conversation not created: %v", err)
	}
	if conv.UserID != testUserID || conv.Model != user.DefaultModel {
		t.Fatalf("unexpected conversation: %+v", conv)
	}
}

func TestSendMessageForeignConversation(t *testing.T) {
	store := newMockStore()
	seedConversation(store, "openai/gpt-4o")
	svc, _ := newTestChat(store, &fakeDispatcher{}, nil)

	_, err := svc.SendMessage(context.Background(), "someone-else", testConvID, conversation.SendMessageRequest{Content: "hi"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSendMessageBusyConversation(t *testing.T) {
	store := newMockStore()
	seedConversation(store, "openai/gpt-4o")
	d := &fakeDispatcher{block: make(chan struct{}), started: make(chan struct{})}
	svc, _ := newTestChat(store, d, nil)

	errCh := make(chan error, 1)
	go func() {
		_, err := svc.SendMessage(context.Background(), testUserID, testConvID, conversation.SendMessageRequest{Content: "first"})
		errCh <- err
	}()
	<-d.started

	_, err := svc.SendMessage(context.Background(), testUserID, testConvID, conversation.SendMessageRequest{Content: "second"})
	if !errors.Is(err, domain.ErrSessionBusy) {
		t.Fatalf("err = %v, want ErrSessionBusy", err)
	}

	close(d.block)
	if err := <-errCh; err != nil {
		t.Fatalf("first send: %v", err)
	}

	// The session is released and a new send succeeds.
	if _, err := svc.SendMessage(context.Background(), testUserID, testConvID, conversation.SendMessageRequest{Content: "third"}); err != nil {
		t.Fatalf("send after release: %v", err)
	}
}

func TestStopCancelsGeneration(t *testing.T) {
	store := newMockStore()
	seedConversation(store, "openai/gpt-4o")
	d := &fakeDispatcher{block: make(chan struct{}), started: make(chan struct{})}
	svc, hub := newTestChat(store, d, nil)

	errCh := make(chan error, 1)
	go func() {
		_, err := svc.SendMessage(context.Background(), testUserID, testConvID, conversation.SendMessageRequest{Content: "hello"})
		errCh <- err
	}()
	<-d.started

	if !svc.Busy(testConvID) {
		t.Fatal("expected conversation to be busy")
	}
	if err := svc.Stop(context.Background(), testUserID, testConvID); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := <-errCh; !errors.Is(err, domain.ErrCancelled) {
		t.Fatalf("err = %v, want ErrCancelled", err)
	}

	// Only the user message survives a cancelled generation.
	msgs, _ := store.ListMessages(context.Background(), testConvID)
	if len(msgs) != 1 || msgs[0].Role != conversation.RoleUser {
		t.Fatalf("messages after cancel: %+v", msgs)
	}
	for _, typ := range hub.types() {
		if typ == ws.EventGenerationFailed {
			t.Error("cancel must not broadcast generation.failed")
		}
	}
}

func TestStopWithoutSession(t *testing.T) {
	store := newMockStore()
	seedConversation(store, "openai/gpt-4o")
	svc, _ := newTestChat(store, &fakeDispatcher{}, nil)
	if err := svc.Stop(context.Background(), testUserID, testConvID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSendMessageProviderErrorRecorded(t *testing.T) {
	store := newMockStore()
	seedConversation(store, "openai/gpt-4o")
	d := &fakeDispatcher{err: &provider.RequestError{
		Code:      "rate_limited",
		Message:   "429 from upstream",
		Retryable: true,
	}}
	svc, hub := newTestChat(store, d, nil)

	msg, err := svc.SendMessage(context.Background(), testUserID, testConvID, conversation.SendMessageRequest{Content: "hi"})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if msg.Metadata.Error == nil {
		t.Fatal("expected error metadata")
	}
	if msg.Metadata.Error.Code != "rate_limited" || !msg.Metadata.Error.Retryable {
		t.Fatalf("error metadata = %+v", msg.Metadata.Error)
	}

	failed := false
	for _, typ := range hub.types() {
		if typ == ws.EventGenerationFailed {
			failed = true
		}
	}
	if !failed {
		t.Error("expected generation.failed broadcast")
	}
}

func TestRegenerate(t *testing.T) {
	store := newMockStore()
	seedConversation(store, "openai/gpt-4o")
	store.messages[testConvID] = []conversation.Message{
		{ID: "u1", ConversationID: testConvID, Role: conversation.RoleUser, Content: "question"},
		{ID: "a1", ConversationID: testConvID, Role: conversation.RoleAssistant, Content: "first answer"},
	}
	d := &fakeDispatcher{result: &provider.Result{Content: "second answer", FinishReason: "stop"}}
	svc, _ := newTestChat(store, d, nil)

	msg, err := svc.Regenerate(context.Background(), testUserID, testConvID)
	if err != nil {
		t.Fatalf("Regenerate: %v", err)
	}
	if msg.Content != "second answer" {
		t.Fatalf("content = %q", msg.Content)
	}

	msgs, _ := store.ListMessages(context.Background(), testConvID)
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[1].Content != "second answer" {
		t.Fatalf("old reply not replaced: %+v", msgs[1])
	}

	call := d.lastCall()
	if got := call.msgs[len(call.msgs)-1]; got.Role != "user" || got.Content != "question" {
		t.Fatalf("regenerate did not resend the user message: %+v", got)
	}
}

func TestRegenerateNothingToRegenerate(t *testing.T) {
	store := newMockStore()
	seedConversation(store, "openai/gpt-4o")
	svc, _ := newTestChat(store, &fakeDispatcher{}, nil)

	_, err := svc.Regenerate(context.Background(), testUserID, testConvID)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestRegenerateRecountsMessages(t *testing.T) {
	store := newMockStore()
	seedConversation(store, "openai/gpt-4o")
	store.messages[testConvID] = []conversation.Message{
		{ID: "u1", ConversationID: testConvID, Role: conversation.RoleUser, Content: "question"},
		{ID: "a1", ConversationID: testConvID, Role: conversation.RoleAssistant, Content: "first answer"},
	}
	conv := store.conversations[testConvID]
	conv.Metadata.TotalMessages = 2
	store.conversations[testConvID] = conv

	d := &fakeDispatcher{result: &provider.Result{Content: "second answer", FinishReason: "stop"}}
	svc, _ := newTestChat(store, d, nil)
	if _, err := svc.Regenerate(context.Background(), testUserID, testConvID); err != nil {
		t.Fatalf("Regenerate: %v", err)
	}

	// Regenerate replaces the reply, so the count must stay at two.
	conv = store.conversations[testConvID]
	if conv.Metadata.TotalMessages != 2 {
		t.Fatalf("TotalMessages = %d, want 2", conv.Metadata.TotalMessages)
	}
}

func TestFailedGenerationRecountsMessages(t *testing.T) {
	store := newMockStore()
	seedConversation(store, "openai/gpt-4o")
	d := &fakeDispatcher{err: &provider.RequestError{Code: "rate_limited", Message: "429", Retryable: true}}
	svc, _ := newTestChat(store, d, nil)

	if _, err := svc.SendMessage(context.Background(), testUserID, testConvID, conversation.SendMessageRequest{Content: "hi"}); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	// A failed generation still persists the user message and the error
	// reply; the conversation metadata must account for both.
	conv := store.conversations[testConvID]
	if conv.Metadata.TotalMessages != 2 {
		t.Fatalf("TotalMessages = %d, want 2", conv.Metadata.TotalMessages)
	}
}

func TestEditMessage(t *testing.T) {
	store := newMockStore()
	seedConversation(store, "openai/gpt-4o")
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	store.messages[testConvID] = []conversation.Message{
		{ID: "u1", ConversationID: testConvID, Role: conversation.RoleUser, Content: "keep me"},
		{ID: "a1", ConversationID: testConvID, Role: conversation.RoleAssistant, Content: "kept answer"},
		{ID: "u2", ConversationID: testConvID, Role: conversation.RoleUser, Content: "original", CreatedAt: created},
		{ID: "a2", ConversationID: testConvID, Role: conversation.RoleAssistant, Content: "stale answer"},
	}
	d := &fakeDispatcher{result: &provider.Result{Content: "fresh answer", FinishReason: "stop"}}
	svc, _ := newTestChat(store, d, nil)

	msg, err := svc.EditMessage(context.Background(), testUserID, "u2", conversation.EditMessageRequest{Content: "revised"})
	if err != nil {
		t.Fatalf("EditMessage: %v", err)
	}
	if msg.Content != "fresh answer" {
		t.Fatalf("content = %q", msg.Content)
	}

	msgs, _ := store.ListMessages(context.Background(), testConvID)
	if len(msgs) != 4 {
		t.Fatalf("expected 4 messages, got %d: %+v", len(msgs), msgs)
	}
	edited := msgs[2]
	if edited.Content != "revised" || !edited.IsEdited {
		t.Fatalf("edit not applied: %+v", edited)
	}
	if len(edited.Versions) != 1 || edited.Versions[0].Content != "original" || !edited.Versions[0].CreatedAt.Equal(created) {
		t.Fatalf("prior content not versioned: %+v", edited.Versions)
	}
	if edited.Versions[0].Model != "openai/gpt-4o" {
		t.Fatalf("version model = %q, want conversation model", edited.Versions[0].Model)
	}
	if msgs[3].Content != "fresh answer" {
		t.Fatalf("stale answer not replaced: %+v", msgs[3])
	}

	call := d.lastCall()
	want := []provider.ChatMessage{
		{Role: "user", Content: "keep me"},
		{Role: "assistant", Content: "kept answer"},
		{Role: "user", Content: "revised"},
	}
	if len(call.msgs) != len(want) {
		t.Fatalf("assembled %d messages, want %d: %+v", len(call.msgs), len(want), call.msgs)
	}
	for i := range want {
		if call.msgs[i] != want[i] {
			t.Errorf("msgs[%d] = %+v, want %+v", i, call.msgs[i], want[i])
		}
	}
}

func TestEditAssistantMessageRevisesInPlace(t *testing.T) {
	store := newMockStore()
	seedConversation(store, "openai/gpt-4o")
	store.messages[testConvID] = []conversation.Message{
		{ID: "u1", ConversationID: testConvID, Role: conversation.RoleUser, Content: "question"},
		{ID: "a1", ConversationID: testConvID, Role: conversation.RoleAssistant, Content: "wrong answer",
			Metadata: conversation.MessageMetadata{Model: "groq/llama-3.3-70b-versatile"}},
		{ID: "u2", ConversationID: testConvID, Role: conversation.RoleUser, Content: "follow-up"},
		{ID: "a2", ConversationID: testConvID, Role: conversation.RoleAssistant, Content: "follow-up answer"},
	}
	d := &fakeDispatcher{}
	svc, hub := newTestChat(store, d, nil)

	msg, err := svc.EditMessage(context.Background(), testUserID, "a1", conversation.EditMessageRequest{Content: "corrected answer"})
	if err != nil {
		t.Fatalf("EditMessage: %v", err)
	}
	if msg.Content != "corrected answer" || !msg.IsEdited {
		t.Fatalf("edit not applied: %+v", msg)
	}
	if len(msg.Versions) != 1 || msg.Versions[0].Content != "wrong answer" {
		t.Fatalf("prior content not versioned: %+v", msg.Versions)
	}
	if msg.Versions[0].Model != "groq/llama-3.3-70b-versatile" {
		t.Fatalf("version model = %q, want the model that produced it", msg.Versions[0].Model)
	}

	// Revising an assistant reply must not regenerate or cut the thread.
	if d.callCount() != 0 {
		t.Fatalf("dispatcher called %d times, want 0", d.callCount())
	}
	msgs, _ := store.ListMessages(context.Background(), testConvID)
	if len(msgs) != 4 {
		t.Fatalf("expected 4 messages, got %d: %+v", len(msgs), msgs)
	}
	if msgs[1].Content != "corrected answer" || msgs[3].Content != "follow-up answer" {
		t.Fatalf("thread altered beyond the edited message: %+v", msgs)
	}

	updated := false
	for _, typ := range hub.types() {
		if typ == ws.EventMessageUpdated {
			updated = true
		}
	}
	if !updated {
		t.Error("expected message.updated broadcast")
	}
}

func TestEditSystemMessageRejected(t *testing.T) {
	store := newMockStore()
	seedConversation(store, "openai/gpt-4o")
	store.messages[testConvID] = []conversation.Message{
		{ID: "s1", ConversationID: testConvID, Role: conversation.RoleSystem, Content: "be terse"},
	}
	svc, _ := newTestChat(store, &fakeDispatcher{}, nil)

	_, err := svc.EditMessage(context.Background(), testUserID, "s1", conversation.EditMessageRequest{Content: "nope"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestRetry(t *testing.T) {
	store := newMockStore()
	seedConversation(store, "openai/gpt-4o")
	store.messages[testConvID] = []conversation.Message{
		{ID: "u1", ConversationID: testConvID, Role: conversation.RoleUser, Content: "question"},
		{ID: "a1", ConversationID: testConvID, Role: conversation.RoleAssistant, Content: "rate limited",
			Metadata: conversation.MessageMetadata{Error: &conversation.MessageError{Code: "rate_limited", Retryable: true}}},
	}
	d := &fakeDispatcher{result: &provider.Result{Content: "worked this time", FinishReason: "stop"}}
	svc, _ := newTestChat(store, d, nil)

	msg, err := svc.Retry(context.Background(), testUserID, "a1")
	if err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if msg.Content != "worked this time" || msg.Metadata.Error != nil {
		t.Fatalf("unexpected retry result: %+v", msg)
	}

	msgs, _ := store.ListMessages(context.Background(), testConvID)
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[1].Metadata.Error != nil {
		t.Fatalf("failed reply not discarded: %+v", msgs[1])
	}
}

func TestRetrySucceededMessageRejected(t *testing.T) {
	store := newMockStore()
	seedConversation(store, "openai/gpt-4o")
	store.messages[testConvID] = []conversation.Message{
		{ID: "u1", ConversationID: testConvID, Role: conversation.RoleUser, Content: "question"},
		{ID: "a1", ConversationID: testConvID, Role: conversation.RoleAssistant, Content: "fine answer"},
	}
	svc, _ := newTestChat(store, &fakeDispatcher{}, nil)

	_, err := svc.Retry(context.Background(), testUserID, "a1")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestSendMessageProjectPromptFallback(t *testing.T) {
	store := newMockStore()
	seedConversation(store, "openai/gpt-4o")
	store.projects["p1"] = projectWithPrompt("p1", "Project voice.")
	conv := store.conversations[testConvID]
	conv.ProjectID = "p1"
	store.conversations[testConvID] = conv

	d := &fakeDispatcher{}
	svc, _ := newTestChat(store, d, nil)
	if _, err := svc.SendMessage(context.Background(), testUserID, testConvID, conversation.SendMessageRequest{Content: "hi"}); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	call := d.lastCall()
	if call.msgs[0].Role != "system" || call.msgs[0].Content != "Project voice." {
		t.Fatalf("project system prompt not applied: %+v", call.msgs[0])
	}
}

func TestSendMessageDemoModeWithoutCredentials(t *testing.T) {
	store := newMockStore()
	seedConversation(store, "openai/gpt-4o")
	d := &fakeDispatcher{}
	svc, _ := newTestChat(store, d, &staticCredentials{})

	if _, err := svc.SendMessage(context.Background(), testUserID, testConvID, conversation.SendMessageRequest{Content: "hi"}); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if call := d.lastCall(); call.apiKey != "" {
		t.Fatalf("apiKey = %q, want empty for demo dispatch", call.apiKey)
	}
}
