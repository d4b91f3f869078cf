package service

import (
	"testing"

	"github.com/koushikch7/chatGPT/internal/domain/conversation"
	"github.com/koushikch7/chatGPT/internal/domain/memory"
)

func TestAssembleMessagesFullOrder(t *testing.T) {
	conv := &conversation.Conversation{SystemPrompt: "You are terse."}
	memories := []memory.UserMemory{
		{Content: "Prefers metric units", IsActive: true},
		{Content: "Lives in Berlin", IsActive: true},
		{Content: "Outdated fact", IsActive: false},
	}
	history := []conversation.Message{
		{Role: conversation.RoleUser, Content: "Hi"},
		{Role: conversation.RoleAssistant, Content: "Hello!"},
	}

	msgs := AssembleMessages(conv, memories, history, "How far is Hamburg?")

	if len(msgs) != 5 {
		t.Fatalf("expected 5 messages, got %d", len(msgs))
	}
	if msgs[0].Role != "system" || msgs[0].Content != "You are terse." {
		t.Errorf("message 0 should be the system prompt, got %+v", msgs[0])
	}
	want := "User context and preferences:\nPrefers metric units\nLives in Berlin"
	if msgs[1].Role != "system" || msgs[1].Content != want {
		t.Errorf("message 1 should carry active memories, got %+v", msgs[1])
	}
	if msgs[2].Content != "Hi" || msgs[3].Content != "Hello!" {
		t.Errorf("history out of order: %+v", msgs[2:4])
	}
	if msgs[4].Role != "user" || msgs[4].Content != "How far is Hamburg?" {
		t.Errorf("message 4 should be the new user message, got %+v", msgs[4])
	}
}

func TestAssembleMessagesNoSystemPrompt(t *testing.T) {
	conv := &conversation.Conversation{}

	msgs := AssembleMessages(conv, nil, nil, "Hello")

	if len(msgs) != 1 {
		t.Fatalf("expected only the user message, got %d", len(msgs))
	}
	if msgs[0].Role != "user" {
		t.Errorf("expected user role, got %s", msgs[0].Role)
	}
}

func TestAssembleMessagesInactiveMemoriesExcluded(t *testing.T) {
	conv := &conversation.Conversation{}
	memories := []memory.UserMemory{
		{Content: "Inactive", IsActive: false},
	}

	msgs := AssembleMessages(conv, memories, nil, "Hello")

	if len(msgs) != 1 {
		t.Fatalf("inactive memories must not produce a system message, got %d messages", len(msgs))
	}
}
