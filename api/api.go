package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/folio/pkg/permission"
)

// Server is the API server for managing wikis and searching their pages.
type Server struct {
	config  Config
	checker permission.Checker
	logger  *slog.Logger
	app     *fiber.App
}

// NewServer creates a new API server.
// The store, ingester and retriever are injected so the command owning
// their lifetimes can close them on shutdown.
func NewServer(config Config, logger *slog.Logger) (*Server, error) {
	if config.Store == nil {
		return nil, errors.New("storage driver is required")
	}
	if config.Ingester == nil {
		return nil, errors.New("ingester is required")
	}
	if config.Retriever == nil {
		return nil, errors.New("retriever is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	checker := config.Checker
	if checker == nil {
		checker = permission.NewMembershipChecker(config.Store)
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:  config,
		checker: checker,
		logger:  logger,
		app:     app,
	}

	app.Get("/ping", s.handlePing)

	app.Post("/v1/tags", s.handleCreateTag)
	app.Get("/v1/tags", s.handleListTags)

	app.Post("/v1/wikis", s.handleCreateWiki)

	wikis := app.Group("/v1/wikis/:wiki_id")
	wikis.Get("/", s.requireAccess, s.handleGetWiki)
	wikis.Get("/pages", s.requireAccess, s.handleListPages)
	wikis.Post("/pages", s.requireAccess, s.handleCreatePage)
	wikis.Get("/pages/:page_id", s.requireAccess, s.handleGetPage)
	wikis.Put("/pages/:page_id/title", s.requireAccess, s.handleUpdateTitle)
	wikis.Put("/pages/:page_id/text", s.requireAccess, s.handleUpdateText)
	wikis.Put("/pages/:page_id/tags", s.requireAccess, s.handleUpdateTags)
	wikis.Delete("/pages/:page_id", s.requireAccess, s.handleDeletePage)
	wikis.Get("/search", s.requireAccess, s.handleSearchEndpoint)
	wikis.Post("/reconcile", s.requireAccess, s.handleReconcile)

	if config.MCP != nil {
		app.All("/mcp", adaptor.HTTPHandler(config.MCP.Handler()))
	}

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		"listen", s.config.ListenAddr,
		"mcp", s.config.MCP != nil,
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Handler exposes the routes as a net/http handler for embedding in other
// servers and tests.
func (s *Server) Handler() http.Handler {
	return adaptor.FiberApp(s.app)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
