// Package mcp provides an MCP (Model Context Protocol) server exposing wiki
// search as a tool.
package mcp

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	apisearch "github.com/papercomputeco/folio/api/search"
	"github.com/papercomputeco/folio/pkg/permission"
	"github.com/papercomputeco/folio/pkg/utils"
)

type Config struct {
	// Retriever answers the search tool.
	Retriever apisearch.Retriever

	// Checker authorizes CallerID for the wiki named in each tool call.
	Checker permission.Checker

	// CallerID is the identity every tool call runs as.
	CallerID string

	// Noop for empty MCP server
	Noop bool

	Logger *slog.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the search tool.
func NewServer(c Config) (*Server, error) {
	s := &Server{
		config: c,
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "folio",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	if !c.Noop {
		if c.Retriever == nil {
			return nil, errors.New("retriever is required")
		}
		if c.Checker == nil {
			return nil, errors.New("permission checker is required")
		}
		if c.CallerID == "" {
			return nil, errors.New("caller id is required")
		}
		if c.Logger == nil {
			return nil, errors.New("logger is required")
		}

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        searchToolName,
			Description: searchDescription,
		}, s.handleSearch)
	}

	s.mcpServer = mcpServer

	// Create a streamable HTTP net/http handler for stateless operations
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}
