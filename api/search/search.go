// Package search provides shared search types and logic for semantic search
// over a wiki's pages. It is used by both the REST API endpoint and the MCP
// server tool.
package search

import (
	"context"
	"log/slog"
	"strings"

	"github.com/papercomputeco/folio/pkg/retrieve"
	"github.com/papercomputeco/folio/pkg/utils"
)

// PreviewLength caps the text preview of each result.
const PreviewLength = 200

// Retriever runs a retrieval query. *retrieve.Retriever satisfies it.
type Retriever interface {
	Retrieve(ctx context.Context, q retrieve.Query) ([]retrieve.Result, error)
}

// SearchInput represents the input arguments for a search request.
type SearchInput struct {
	WikiID string   `json:"wiki_id"`
	Query  string   `json:"query"`
	Tags   []string `json:"tags,omitempty"`
	Enrich bool     `json:"enrich,omitempty"`
	Limit  int      `json:"limit,omitempty"`
}

// SearchResult represents a single matched chunk.
type SearchResult struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Title      string  `json:"title"`
	Text       string  `json:"text"`
	Preview    string  `json:"preview"`
	Score      float32 `json:"score"`
}

// SearchOutput represents the output of a search operation.
type SearchOutput struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
	Count   int            `json:"count"`
}

// Search runs input against r and decorates each result with a preview.
func Search(ctx context.Context, r Retriever, input SearchInput, logger *slog.Logger) (*SearchOutput, error) {
	logger.Debug("search request",
		"wiki_id", input.WikiID,
		"query", input.Query,
		"tags", len(input.Tags),
		"enrich", input.Enrich,
		"limit", input.Limit,
	)

	results, err := r.Retrieve(ctx, retrieve.Query{
		WikiID:     input.WikiID,
		SearchText: input.Query,
		Tags:       input.Tags,
		UseRewrite: input.Enrich,
		Limit:      input.Limit,
	})
	if err != nil {
		return nil, err
	}

	out := make([]SearchResult, 0, len(results))
	for _, res := range results {
		out = append(out, SearchResult{
			ChunkID:    res.ChunkID,
			DocumentID: res.DocumentID,
			Title:      res.Title,
			Text:       res.Text,
			Preview:    utils.Preview(res.Text, PreviewLength),
			Score:      res.Score,
		})
	}

	return &SearchOutput{
		Query:   input.Query,
		Results: out,
		Count:   len(out),
	}, nil
}

// ParseTags splits a comma separated tag list, dropping blanks.
func ParseTags(raw string) []string {
	tags := []string{}
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
