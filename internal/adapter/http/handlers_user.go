package http

import (
	"net/http"

	"github.com/koushikch7/chatGPT/internal/domain/model"
	"github.com/koushikch7/chatGPT/internal/domain/user"
	"github.com/koushikch7/chatGPT/internal/middleware"
)

// GetPreferences handles GET /api/v1/user/preferences.
func (h *Handlers) GetPreferences(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	prefs, err := h.Users.GetPreferences(r.Context(), userID)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

// UpdatePreferences handles PUT /api/v1/user/preferences.
func (h *Handlers) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	req, ok := readJSON[user.Preferences](w, r)
	if !ok {
		return
	}
	prefs, err := h.Users.UpdatePreferences(r.Context(), userID, req)
	if err != nil {
		writeDomainError(w, err, "preferences not found")
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

// ListAPIKeys handles GET /api/v1/user/apikeys. Key material is never
// included in the response.
func (h *Handlers) ListAPIKeys(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	keys, err := h.Users.ListAPIKeys(r.Context(), userID)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	if keys == nil {
		keys = []user.APIKey{}
	}
	writeJSON(w, http.StatusOK, keys)
}

// UpsertAPIKey handles POST /api/v1/user/apikeys.
func (h *Handlers) UpsertAPIKey(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	req, ok := readJSON[user.UpsertAPIKeyRequest](w, r)
	if !ok {
		return
	}
	key, err := h.Users.UpsertAPIKey(r.Context(), userID, req)
	if err != nil {
		writeDomainError(w, err, "store key failed")
		return
	}
	writeJSON(w, http.StatusCreated, key)
}

// DeleteAPIKey handles DELETE /api/v1/user/apikeys/{provider}.
func (h *Handlers) DeleteAPIKey(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	provider := model.Provider(urlParam(r, "provider"))
	if err := h.Users.DeleteAPIKey(r.Context(), userID, provider); err != nil {
		writeDomainError(w, err, "api key not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
