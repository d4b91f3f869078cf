package service

import (
	"context"
	"errors"
	"testing"

	"github.com/koushikch7/chatGPT/internal/domain"
	"github.com/koushikch7/chatGPT/internal/domain/conversation"
	"github.com/koushikch7/chatGPT/internal/domain/user"
)

func newTestConversations(store *mockStore) *ConversationService {
	return NewConversationService(store, &mockBroadcaster{}, discardLogger())
}

func TestConversationCreateDefaults(t *testing.T) {
	store := newMockStore()
	svc := newTestConversations(store)

	conv, err := svc.Create(context.Background(), testUserID, conversation.CreateRequest{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if conv.Title != "New Chat" {
		t.Errorf("title = %q", conv.Title)
	}
	if conv.Model != user.DefaultModel {
		t.Errorf("model = %q, want preference default", conv.Model)
	}
	if conv.Settings.Temperature != 0.7 || conv.Settings.MaxTokens != 2048 {
		t.Errorf("settings = %+v", conv.Settings)
	}
	if conv.ID == "" || conv.CreatedAt.IsZero() {
		t.Errorf("identity not populated: %+v", conv)
	}
}

func TestConversationCreateProjectDefaults(t *testing.T) {
	store := newMockStore()
	p := projectWithPrompt("p1", "Project voice.")
	p.DefaultModel = "openai/gpt-4o-mini"
	store.projects["p1"] = p
	svc := newTestConversations(store)

	conv, err := svc.Create(context.Background(), testUserID, conversation.CreateRequest{ProjectID: "p1"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if conv.Model != "openai/gpt-4o-mini" {
		t.Errorf("model = %q, want project default", conv.Model)
	}
	if conv.SystemPrompt != "Project voice." {
		t.Errorf("system prompt = %q", conv.SystemPrompt)
	}
}

func TestConversationCreatePreferenceModel(t *testing.T) {
	store := newMockStore()
	prefs := storedPrefs(testUserID)
	prefs.DefaultModel = "anthropic/claude-sonnet-4"
	prefs.DefaultTemperature = 0.3
	prefs.DefaultMaxTokens = 4096
	store.prefs[testUserID] = prefs
	svc := newTestConversations(store)

	conv, err := svc.Create(context.Background(), testUserID, conversation.CreateRequest{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if conv.Model != "anthropic/claude-sonnet-4" {
		t.Errorf("model = %q", conv.Model)
	}
	if conv.Settings.Temperature != 0.3 || conv.Settings.MaxTokens != 4096 {
		t.Errorf("settings = %+v", conv.Settings)
	}
}

func TestConversationCreateUnknownModel(t *testing.T) {
	store := newMockStore()
	svc := newTestConversations(store)

	_, err := svc.Create(context.Background(), testUserID, conversation.CreateRequest{Model: "nope/unknown"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestConversationCreateForeignProject(t *testing.T) {
	store := newMockStore()
	p := projectWithPrompt("p1", "")
	p.UserID = "someone-else"
	store.projects["p1"] = p
	svc := newTestConversations(store)

	_, err := svc.Create(context.Background(), testUserID, conversation.CreateRequest{ProjectID: "p1"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestConversationListExcludesArchived(t *testing.T) {
	store := newMockStore()
	store.conversations["c1"] = conversation.Conversation{ID: "c1", UserID: testUserID}
	store.conversations["c2"] = conversation.Conversation{ID: "c2", UserID: testUserID, IsArchived: true}
	svc := newTestConversations(store)

	convs, err := svc.List(context.Background(), testUserID, false)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(convs) != 1 || convs[0].ID != "c1" {
		t.Fatalf("archived thread not excluded: %+v", convs)
	}

	all, err := svc.List(context.Background(), testUserID, true)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected both threads with includeArchived, got %d", len(all))
	}
}

func TestConversationGetLoadsMessages(t *testing.T) {
	store := newMockStore()
	seedConversation(store, "openai/gpt-4o")
	store.messages[testConvID] = []conversation.Message{
		{ID: "u1", ConversationID: testConvID, Role: conversation.RoleUser, Content: "hi"},
	}
	svc := newTestConversations(store)

	conv, err := svc.Get(context.Background(), testUserID, testConvID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(conv.Messages) != 1 {
		t.Fatalf("messages not loaded: %+v", conv.Messages)
	}
}

func TestConversationGetForeignOwner(t *testing.T) {
	store := newMockStore()
	store.conversations["c1"] = conversation.Conversation{ID: "c1", UserID: "someone-else"}
	svc := newTestConversations(store)

	_, err := svc.Get(context.Background(), testUserID, "c1")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestConversationUpdatePartial(t *testing.T) {
	store := newMockStore()
	seedConversation(store, "openai/gpt-4o")
	svc := newTestConversations(store)

	pinned := true
	title := "Renamed"
	conv, err := svc.Update(context.Background(), testUserID, testConvID, conversation.UpdateRequest{
		Title:    &title,
		IsPinned: &pinned,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if conv.Title != "Renamed" || !conv.IsPinned {
		t.Fatalf("update not applied: %+v", conv)
	}
	if conv.Model != "openai/gpt-4o" {
		t.Fatalf("untouched field changed: %q", conv.Model)
	}
}

func TestConversationUpdateUnknownModel(t *testing.T) {
	store := newMockStore()
	seedConversation(store, "openai/gpt-4o")
	svc := newTestConversations(store)

	bad := "nope/unknown"
	_, err := svc.Update(context.Background(), testUserID, testConvID, conversation.UpdateRequest{Model: &bad})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestConversationDelete(t *testing.T) {
	store := newMockStore()
	seedConversation(store, "openai/gpt-4o")
	svc := newTestConversations(store)

	if err := svc.Delete(context.Background(), testUserID, testConvID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.GetConversation(context.Background(), testConvID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("conversation still present: %v", err)
	}
}
