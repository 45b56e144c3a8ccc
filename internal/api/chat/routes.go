package chat

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers chat routes
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/chat", func(r chi.Router) {
		r.Get("/messages", h.GetMessages)
		r.Post("/ask", h.Ask)
		r.Get("/suggestions", h.GetSuggestions)
		r.Get("/export", h.Export)

		r.Route("/context", func(r chi.Router) {
			r.Get("/", h.GetContext)
			r.Delete("/", h.RemoveContext)
			r.Post("/file", h.AttachFile)
			r.Post("/folder", h.AttachFolder)
		})
	})
}
