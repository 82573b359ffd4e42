package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	apisearch "github.com/papercomputeco/folio/api/search"
)

var (
	searchToolName    = "search"
	searchDescription = "Search a wiki's pages using semantic search. Returns the most relevant page passages for the query text, optionally restricted to pages carrying any of the given tag IDs."
)

// SearchInput represents the input arguments for the search tool.
type SearchInput struct {
	WikiID string   `json:"wiki_id" jsonschema:"the wiki to search"`
	Query  string   `json:"query" jsonschema:"the search query text to find relevant passages"`
	Tags   []string `json:"tags,omitempty" jsonschema:"only pages carrying any of these tag IDs are searched"`
	Enrich bool     `json:"enrich,omitempty" jsonschema:"rewrite the query with a language model before searching"`
	Limit  int      `json:"limit,omitempty" jsonschema:"number of results to return"`
}

// handleSearch processes a search tool call.
func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, apisearch.SearchOutput, error) {
	logger := s.config.Logger

	if err := s.config.Checker.CanAccess(ctx, input.WikiID, s.config.CallerID); err != nil {
		logger.Warn("MCP search denied", "wiki_id", input.WikiID, "error", err)
		return toolError(fmt.Sprintf("Cannot search wiki %s: %v", input.WikiID, err)), apisearch.SearchOutput{}, nil
	}

	output, err := apisearch.Search(ctx, s.config.Retriever, apisearch.SearchInput(input), logger)
	if err != nil {
		logger.Error("MCP search failed", "error", err)
		return toolError(fmt.Sprintf("Search failed: %v", err)), apisearch.SearchOutput{}, nil
	}

	// Tools returning structured content also return the serialized JSON
	// in a TextContent block for older clients.
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal search output", "error", err)
		return toolError(fmt.Sprintf("Failed to serialize results: %v", err)), apisearch.SearchOutput{}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, *output, nil
}

func toolError(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}
