package service

import (
	"strings"

	"github.com/koushikch7/chatGPT/internal/adapter/provider"
	"github.com/koushikch7/chatGPT/internal/domain/conversation"
	"github.com/koushikch7/chatGPT/internal/domain/memory"
)

// memoryPreamble introduces the injected user memories to the model.
const memoryPreamble = "User context and preferences:\n"

// AssembleMessages flattens a conversation into the ordered message list sent
// to a provider: the system prompt (when set), one system message carrying
// all active memories (when any), the conversation history, and finally the
// new user message.
func AssembleMessages(conv *conversation.Conversation, memories []memory.UserMemory, history []conversation.Message, userContent string) []provider.ChatMessage {
	msgs := make([]provider.ChatMessage, 0, len(history)+3)

	if conv.SystemPrompt != "" {
		msgs = append(msgs, provider.ChatMessage{
			Role:    conversation.RoleSystem,
			Content: conv.SystemPrompt,
		})
	}

	var active []string
	for _, m := range memories {
		if m.IsActive {
			active = append(active, m.Content)
		}
	}
	if len(active) > 0 {
		msgs = append(msgs, provider.ChatMessage{
			Role:    conversation.RoleSystem,
			Content: memoryPreamble + strings.Join(active, "\n"),
		})
	}

	for _, m := range history {
		msgs = append(msgs, provider.ChatMessage{Role: m.Role, Content: m.Content})
	}

	msgs = append(msgs, provider.ChatMessage{
		Role:    conversation.RoleUser,
		Content: userContent,
	})
	return msgs
}
