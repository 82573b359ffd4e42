// Package api provides the HTTP API server for wikis, their pages and
// semantic search over page chunks.
package api

import (
	"github.com/papercomputeco/folio/api/mcp"
	"github.com/papercomputeco/folio/pkg/ingest"
	"github.com/papercomputeco/folio/pkg/permission"
	"github.com/papercomputeco/folio/pkg/retrieve"
	"github.com/papercomputeco/folio/pkg/storage"
)

// CallerHeader carries the opaque caller identity checked against wiki
// membership.
const CallerHeader = "X-Folio-Caller"

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8081")
	ListenAddr string

	Store     storage.Driver
	Ingester  *ingest.Ingester
	Retriever *retrieve.Retriever

	// Checker gates every wiki-scoped route. Defaults to a
	// permission.MembershipChecker over Store.
	Checker permission.Checker

	// MCP is mounted at /mcp when set.
	MCP *mcp.Server
}
