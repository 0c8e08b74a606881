package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/aiplsaur/APIMongoDB/internal/middleware"
	"github.com/aiplsaur/APIMongoDB/internal/model"
	"github.com/aiplsaur/APIMongoDB/internal/service"
)

// RouterConfig holds everything the HTTP surface is built from
type RouterConfig struct {
	Connections *service.ConnectionService
	Collections *service.CollectionService
	Documents   *service.DocumentService
	Queries     *service.QueryService

	// Checker gates every database route on a live handle.
	Checker        middleware.ConnectionChecker
	Logger         *slog.Logger
	AllowedOrigins []string
	// Events, RateLimiter, Auth and Idempotency are optional.
	Events      *service.EventHub
	RateLimiter *middleware.RateLimiter
	Auth        *middleware.BasicAuthConfig
	Idempotency *middleware.IdempotencyStore
}

// NewRouter registers every route of the API
func NewRouter(cfg RouterConfig) http.Handler {
	connectionHandler := NewConnectionHandler(cfg.Connections)
	collectionHandler := NewCollectionHandler(cfg.Collections)
	documentHandler := NewDocumentHandler(cfg.Documents)
	queryHandler := NewQueryHandler(cfg.Queries)

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.Logger(cfg.Logger),
		middleware.Recovery,
		middleware.CORS(cfg.AllowedOrigins),
	)
	if cfg.RateLimiter != nil {
		r.Use(middleware.RateLimit(cfg.RateLimiter))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, model.NewNotFoundError("Route"))
	})

	var apiMiddleware []middleware.Middleware
	if cfg.Auth != nil {
		apiMiddleware = append(apiMiddleware, middleware.BasicAuth(*cfg.Auth))
	}
	if cfg.Idempotency != nil {
		apiMiddleware = append(apiMiddleware, middleware.Idempotency(cfg.Idempotency))
	}

	// The event stream bypasses compression so every event is flushed as written
	if cfg.Events != nil {
		r.Method(http.MethodGet, "/api/connection/events",
			middleware.Chain(http.HandlerFunc(NewEventsHandler(cfg.Events).Stream), apiMiddleware...))
	}

	r.Group(func(r chi.Router) {
		r.Use(chimw.Compress(5))

		r.Get("/health", Health)

		r.Route("/api", func(api chi.Router) {
			for _, mw := range apiMiddleware {
				api.Use(mw)
			}

			// Connection endpoints
			api.Route("/connection", func(c chi.Router) {
				c.Post("/", connectionHandler.Connect)
				c.Get("/status", connectionHandler.Status)
			})

			api.Group(func(db chi.Router) {
				db.Use(middleware.RequireConnection(cfg.Checker))

				// Collection endpoints
				db.Route("/collections", func(c chi.Router) {
					c.Get("/", collectionHandler.List)
					c.Post("/", collectionHandler.Create)
					c.Patch("/{oldName}/rename/{newName}", collectionHandler.Rename)
					c.Delete("/{name}/drop", collectionHandler.Drop)
				})

				// Document endpoints
				db.Route("/collection/{collection}", func(c chi.Router) {
					c.Get("/documents", documentHandler.List)
					c.Delete("/documents", documentHandler.DeleteMany)
					c.Post("/document", documentHandler.Create)
					c.Get("/document/{id}", documentHandler.Get)
					c.Put("/document/{id}", documentHandler.Update)
					c.Delete("/document/{id}", documentHandler.Delete)
				})

				// Query endpoints
				db.Post("/query/execute", queryHandler.Execute)
				db.Post("/query/save", queryHandler.Save)
				db.Get("/queries", queryHandler.List)
				db.Get("/query", queryHandler.List)
				db.Delete("/query/{id}", queryHandler.Delete)
			})
		})
	})

	return r
}
