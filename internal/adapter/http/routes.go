package http

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Get("/health", h.Health)
	r.Get("/ws", h.Hub.HandleWS)

	r.Route("/api/v1", func(r chi.Router) {
		// Auth
		r.Post("/auth/login", h.Login)
		r.Post("/auth/register", h.Register)
		r.Get("/auth/me", h.CurrentUser)

		// Conversations
		r.Get("/conversations", h.ListConversations)
		r.Post("/conversations", handleCreate(h.Conversations.Create))
		r.Get("/conversations/{id}", handleGet(h.Conversations.Get, "conversation not found"))
		r.Put("/conversations/{id}", handleUpdate(h.Conversations.Update, "conversation not found"))
		r.Delete("/conversations/{id}", handleDelete(h.Conversations.Delete, "conversation not found"))

		// Generation
		r.Get("/conversations/{id}/messages", h.ListConversationMessages)
		r.Post("/conversations/{id}/messages", h.SendMessage)
		r.Post("/conversations/{id}/stop", h.StopGeneration)
		r.Post("/conversations/{id}/regenerate", h.RegenerateMessage)
		r.Post("/messages/{id}/edit", h.EditMessage)
		r.Post("/messages/{id}/retry", h.RetryMessage)

		// Projects
		r.Get("/projects", handleList(h.Projects.List))
		r.Post("/projects", handleCreate(h.Projects.Create))
		r.Get("/projects/{id}", handleGet(h.Projects.Get, "project not found"))
		r.Put("/projects/{id}", handleUpdate(h.Projects.Update, "project not found"))
		r.Delete("/projects/{id}", handleDelete(h.Projects.Delete, "project not found"))

		// Memories
		r.Get("/memories", handleList(h.Memories.List))
		r.Post("/memories", handleCreate(h.Memories.Create))
		r.Put("/memories/{id}/active", h.SetMemoryActive)
		r.Delete("/memories/{id}", handleDelete(h.Memories.Delete, "memory not found"))

		// User settings
		r.Get("/user/preferences", h.GetPreferences)
		r.Put("/user/preferences", h.UpdatePreferences)
		r.Get("/user/apikeys", h.ListAPIKeys)
		r.Post("/user/apikeys", h.UpsertAPIKey)
		r.Delete("/user/apikeys/{provider}", h.DeleteAPIKey)

		// Model catalog
		r.Get("/models", h.ListModels)
		r.Get("/models/providers", h.ListProviders)
	})
}
