package http

import (
	"net/http"

	"github.com/koushikch7/chatGPT/internal/domain/model"
)

// ListModels handles GET /api/v1/models. A ?provider= filter narrows the
// catalog to one vendor.
func (h *Handlers) ListModels(w http.ResponseWriter, r *http.Request) {
	if p := r.URL.Query().Get("provider"); p != "" {
		models := model.ByProvider(model.Provider(p))
		if models == nil {
			models = []model.AIModel{}
		}
		writeJSON(w, http.StatusOK, models)
		return
	}
	writeJSON(w, http.StatusOK, model.All())
}

// ListProviders handles GET /api/v1/models/providers.
func (h *Handlers) ListProviders(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, model.Providers())
}
