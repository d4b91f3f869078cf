package http

import (
	"net/http"

	"github.com/koushikch7/chatGPT/internal/domain/conversation"
	"github.com/koushikch7/chatGPT/internal/middleware"
)

// ListConversations handles GET /api/v1/conversations. Archived threads are
// included only with ?archived=true.
func (h *Handlers) ListConversations(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	includeArchived := r.URL.Query().Get("archived") == "true"

	conversations, err := h.Conversations.List(r.Context(), userID, includeArchived)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	if conversations == nil {
		conversations = []conversation.Conversation{}
	}
	writeJSON(w, http.StatusOK, conversations)
}

// ListConversationMessages handles GET /api/v1/conversations/{id}/messages.
func (h *Handlers) ListConversationMessages(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	messages, err := h.Conversations.Messages(r.Context(), userID, urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "conversation not found")
		return
	}
	if messages == nil {
		messages = []conversation.Message{}
	}
	writeJSON(w, http.StatusOK, messages)
}
