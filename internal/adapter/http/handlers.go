package http

import (
	"context"
	"net/http"
	"time"

	"github.com/koushikch7/chatGPT/internal/adapter/ws"
	"github.com/koushikch7/chatGPT/internal/service"
)

// Pinger reports backend store health. Satisfied by pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// BreakerReporter exposes the provider circuit states. Satisfied by the dispatcher.
type BreakerReporter interface {
	BreakerStates() map[string]string
}

// Handlers bundles the services behind the REST surface.
type Handlers struct {
	Auth          *service.AuthService
	Chat          *service.ChatService
	Conversations *service.ConversationService
	Projects      *service.ProjectService
	Memories      *service.MemoryService
	Users         *service.UserService
	Hub           *ws.Hub
	DB            Pinger
	Breakers      BreakerReporter
}

// Health handles GET /health.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	dbStatus := "ok"
	if h.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.DB.Ping(ctx); err != nil {
			status = "degraded"
			dbStatus = "unreachable"
		}
	}

	resp := map[string]any{
		"status":   status,
		"database": dbStatus,
	}
	if h.Hub != nil {
		resp["ws_connections"] = h.Hub.ConnectionCount()
	}
	if h.Breakers != nil {
		resp["providers"] = h.Breakers.BreakerStates()
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}
