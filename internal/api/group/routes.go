package group

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers URL group routes
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/groups", func(r chi.Router) {
		r.Post("/", h.CreateGroup)
		r.Get("/", h.ListGroups)
		r.Get("/active", h.GetActiveGroup)

		r.Route("/{group_id}", func(r chi.Router) {
			r.Delete("/", h.DeleteGroup)
			r.Post("/activate", h.ActivateGroup)
			r.Post("/urls", h.AddURL)
			r.Delete("/urls", h.RemoveURL)
		})
	})
}
