package api

import (
	"net/http"
	"time"

	chatapi "github.com/futig/urlchat-backend/internal/api/chat"
	"github.com/futig/urlchat-backend/internal/api/docs"
	groupapi "github.com/futig/urlchat-backend/internal/api/group"
	"github.com/futig/urlchat-backend/internal/api/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// SetupRouter creates and configures the HTTP router
func SetupRouter(groupHandler *groupapi.Handler, chatHandler *chatapi.Handler, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS)
	r.Use(chimiddleware.Timeout(120 * time.Second)) // generation calls can be slow

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	// Swagger documentation endpoints
	docs.RegisterRoutes(r)

	// Register routes
	groupapi.RegisterRoutes(r, groupHandler)
	chatapi.RegisterRoutes(r, chatHandler)

	return r
}
