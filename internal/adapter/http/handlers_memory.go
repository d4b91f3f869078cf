package http

import (
	"net/http"

	"github.com/koushikch7/chatGPT/internal/middleware"
)

type setMemoryActiveRequest struct {
	IsActive bool `json:"is_active"`
}

// SetMemoryActive handles PUT /api/v1/memories/{id}/active.
func (h *Handlers) SetMemoryActive(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	req, ok := readJSON[setMemoryActiveRequest](w, r)
	if !ok {
		return
	}
	m, err := h.Memories.SetActive(r.Context(), userID, urlParam(r, "id"), req.IsActive)
	if err != nil {
		writeDomainError(w, err, "memory not found")
		return
	}
	writeJSON(w, http.StatusOK, m)
}
