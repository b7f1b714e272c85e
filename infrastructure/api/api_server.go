// Package api serves the scmtrack HTTP API.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/helixml/scmtrack"
	apimiddleware "github.com/helixml/scmtrack/infrastructure/api/middleware"
	v1 "github.com/helixml/scmtrack/infrastructure/api/v1"
)

// APIServer provides an HTTP API backed by a scmtrack Client.
type APIServer struct {
	client *scmtrack.Client
	server *Server
	logger *slog.Logger
}

// NewAPIServer creates a new APIServer wired to the given Client.
// Mutating repository endpoints require one of the client's API keys;
// reads and the queue stay open.
func NewAPIServer(client *scmtrack.Client) *APIServer {
	return &APIServer{
		client: client,
		logger: client.Logger(),
	}
}

// MountRoutes wires up all v1 API routes on router.
func (a *APIServer) MountRoutes(router chi.Router) {
	reposRouter := v1.NewRepositoriesRouter(a.client)
	queueRouter := v1.NewQueueRouter(a.client)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(60 * time.Second))

		r.Mount("/queue", queueRouter.Routes())

		r.Group(func(r chi.Router) {
			r.Use(apimiddleware.WriteProtectAuth(a.client.APIKeys()))
			r.Mount("/repositories", reposRouter.Routes())
		})
	})
}

// Handler returns a fully mounted handler, for tests and custom servers.
func (a *APIServer) Handler() http.Handler {
	server := NewServer("", a.logger)
	a.MountRoutes(server.Router())
	return server.Router()
}

// ListenAndServe starts the HTTP server on addr and blocks until Shutdown.
func (a *APIServer) ListenAndServe(addr string) error {
	server := NewServer(addr, a.logger)
	a.MountRoutes(server.Router())
	a.server = &server
	return server.Start()
}

// Shutdown gracefully shuts down the server.
func (a *APIServer) Shutdown(ctx context.Context) error {
	if a.server == nil {
		return nil
	}
	return a.server.Shutdown(ctx)
}
