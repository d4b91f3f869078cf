package http

import (
	"errors"
	"net/http"

	"github.com/koushikch7/chatGPT/internal/domain"
	"github.com/koushikch7/chatGPT/internal/domain/conversation"
	"github.com/koushikch7/chatGPT/internal/middleware"
)

// SendMessage handles POST /api/v1/conversations/{id}/messages.
func (h *Handlers) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	req, ok := readJSON[conversation.SendMessageRequest](w, r)
	if !ok {
		return
	}

	msg, err := h.Chat.SendMessage(r.Context(), userID, urlParam(r, "id"), req)
	if err != nil {
		if errors.Is(err, domain.ErrCancelled) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
			return
		}
		writeDomainError(w, err, "conversation not found")
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

// StopGeneration handles POST /api/v1/conversations/{id}/stop.
func (h *Handlers) StopGeneration(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	id := urlParam(r, "id")
	if err := h.Chat.Stop(r.Context(), userID, id); err != nil {
		writeDomainError(w, err, "no generation in progress")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled", "conversation_id": id})
}

// RegenerateMessage handles POST /api/v1/conversations/{id}/regenerate.
func (h *Handlers) RegenerateMessage(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	msg, err := h.Chat.Regenerate(r.Context(), userID, urlParam(r, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrCancelled) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
			return
		}
		writeDomainError(w, err, "nothing to regenerate")
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

// EditMessage handles POST /api/v1/messages/{id}/edit.
func (h *Handlers) EditMessage(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	req, ok := readJSON[conversation.EditMessageRequest](w, r)
	if !ok {
		return
	}

	msg, err := h.Chat.EditMessage(r.Context(), userID, urlParam(r, "id"), req)
	if err != nil {
		if errors.Is(err, domain.ErrCancelled) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
			return
		}
		writeDomainError(w, err, "message not found")
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

// RetryMessage handles POST /api/v1/messages/{id}/retry.
func (h *Handlers) RetryMessage(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	msg, err := h.Chat.Retry(r.Context(), userID, urlParam(r, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrCancelled) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
			return
		}
		writeDomainError(w, err, "message not found")
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}
