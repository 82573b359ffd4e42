package api

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	apisearch "github.com/papercomputeco/folio/api/search"
	"github.com/papercomputeco/folio/pkg/retrieve"
)

// SearchResponse is the body of the search endpoint.
type SearchResponse struct {
	Result []apisearch.SearchResult `json:"result"`
	Error  *string                  `json:"error"`
}

// handleSearchEndpoint handles GET /v1/wikis/:wiki_id/search requests.
// Query parameters:
//   - query (required): the search query text
//   - tags (optional): comma separated tag IDs to pre-filter pages
//   - enrich_mode (optional): "1" rewrites the query before embedding
//   - limit (optional): number of results to return
func (s *Server) handleSearchEndpoint(c *fiber.Ctx) error {
	limit := 0
	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			return searchFailure(c, fiber.StatusBadRequest, "limit must be a positive integer")
		}
		limit = parsed
	}

	output, err := apisearch.Search(c.Context(), s.config.Retriever, apisearch.SearchInput{
		WikiID: c.Params("wiki_id"),
		Query:  c.Query("query"),
		Tags:   apisearch.ParseTags(c.Query("tags")),
		Enrich: c.Query("enrich_mode") == "1",
		Limit:  limit,
	}, s.logger)
	if err != nil {
		if errors.Is(err, retrieve.ErrMissingSearchText) {
			return searchFailure(c, fiber.StatusBadRequest, err.Error())
		}
		s.logger.Error("search failed", "wiki_id", c.Params("wiki_id"), "error", err)
		return searchFailure(c, fiber.StatusInternalServerError, err.Error())
	}

	return c.JSON(SearchResponse{Result: output.Results})
}

func searchFailure(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(SearchResponse{Error: &msg})
}
