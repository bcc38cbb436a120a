package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/videosnap/internal/api"
	apiMiddleware "github.com/phrazzld/videosnap/internal/api/middleware"
	"github.com/phrazzld/videosnap/internal/service"
	"github.com/phrazzld/videosnap/internal/service/auth"
)

// newRouter creates the router with all routes and middleware. A nil
// verifier leaves the task endpoints unauthenticated.
func newRouter(tasks service.TaskService, verifier auth.KeyVerifier, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(logger))

	handler := api.NewTaskHandler(tasks, api.DefaultMaxBodyBytes, logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(verifier)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)
		r.Post("/i2v", handler.CreateTask)
		r.Post("/i2v/status", handler.GetStatuses)
	})

	// Public: the provider cannot send our API key.
	r.Post("/i2v/minimax/callback", handler.MinimaxCallback)
	r.Get("/resource/{name}", handler.GetResource)
	r.Get("/", handler.Heartbeat)
	r.Get("/health", handler.Health)

	return r
}
