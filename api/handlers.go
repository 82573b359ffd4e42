package api

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/folio/pkg/ingest"
	"github.com/papercomputeco/folio/pkg/permission"
	"github.com/papercomputeco/folio/pkg/storage"
	"github.com/papercomputeco/folio/pkg/vector"
)

// ErrorResponse is the body of a failed non-ingest request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// IngestResponse is the body of every page write. Exactly one of Success
// and Error is set. DocumentID accompanies Error when the page was saved but
// its chunks were not, so the caller can reconcile it.
type IngestResponse struct {
	Success    *PageResult `json:"success"`
	Error      *string     `json:"error"`
	DocumentID *string     `json:"document_id,omitempty"`
}

// PageResult is the successful outcome of a page write.
type PageResult struct {
	Page          *storage.Document `json:"page"`
	ChunkCount    int               `json:"chunk_count"`
	FailedWindows []int             `json:"failed_windows,omitempty"`
}

// CreateWikiRequest is the body of POST /v1/wikis.
type CreateWikiRequest struct {
	Title string `json:"title"`
}

// CreatePageRequest is the body of POST /v1/wikis/:wiki_id/pages.
type CreatePageRequest struct {
	Title string   `json:"title"`
	Text  string   `json:"text"`
	Tags  []string `json:"tags"`
}

// UpdateTitleRequest is the body of PUT .../pages/:page_id/title.
type UpdateTitleRequest struct {
	Title string `json:"title"`
}

// UpdateTextRequest is the body of PUT .../pages/:page_id/text.
type UpdateTextRequest struct {
	Text string `json:"text"`
}

// UpdateTagsRequest is the body of PUT .../pages/:page_id/tags.
type UpdateTagsRequest struct {
	Tags []string `json:"tags"`
}

// CreateTagRequest is the body of POST /v1/tags.
type CreateTagRequest struct {
	Name  string         `json:"name"`
	Color *storage.Color `json:"color,omitempty"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// requireAccess rejects callers that may not use the wiki in the route.
func (s *Server) requireAccess(c *fiber.Ctx) error {
	wikiID := c.Params("wiki_id")
	err := s.checker.CanAccess(c.Context(), wikiID, c.Get(CallerHeader))
	if err != nil {
		return c.Status(statusFor(err)).JSON(ErrorResponse{Error: err.Error()})
	}
	return c.Next()
}

// handleCreateWiki creates a wiki whose first member is the caller.
func (s *Server) handleCreateWiki(c *fiber.Ctx) error {
	caller := c.Get(CallerHeader)
	if caller == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: CallerHeader + " header required"})
	}

	var req CreateWikiRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	if strings.TrimSpace(req.Title) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "title is required"})
	}

	wiki := &storage.Wiki{Title: req.Title, Members: []string{caller}}
	if err := s.config.Store.CreateWiki(c.Context(), wiki); err != nil {
		s.logger.Error("failed to create wiki", "error", err)
		return c.Status(statusFor(err)).JSON(ErrorResponse{Error: "failed to create wiki"})
	}

	return c.Status(fiber.StatusCreated).JSON(wiki)
}

func (s *Server) handleGetWiki(c *fiber.Ctx) error {
	wiki, err := s.config.Store.GetWiki(c.Context(), c.Params("wiki_id"))
	if err != nil {
		return c.Status(statusFor(err)).JSON(ErrorResponse{Error: err.Error()})
	}
	return c.JSON(wiki)
}

func (s *Server) handleListPages(c *fiber.Ctx) error {
	docs, err := s.config.Store.ListDocuments(c.Context(), c.Params("wiki_id"))
	if err != nil {
		return c.Status(statusFor(err)).JSON(ErrorResponse{Error: "failed to list pages"})
	}

	return c.JSON(map[string]any{
		"count": len(docs),
		"pages": docs,
	})
}

func (s *Server) handleGetPage(c *fiber.Ctx) error {
	doc, err := s.pageInWiki(c)
	if err != nil {
		return c.Status(statusFor(err)).JSON(ErrorResponse{Error: err.Error()})
	}
	return c.JSON(doc)
}

func (s *Server) handleCreatePage(c *fiber.Ctx) error {
	var req CreatePageRequest
	if err := c.BodyParser(&req); err != nil {
		return ingestFailure(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := s.config.Ingester.Ingest(c.Context(), ingest.Request{
		WikiID: c.Params("wiki_id"),
		Title:  req.Title,
		Text:   req.Text,
		Tags:   req.Tags,
	})
	if err != nil {
		return s.ingestError(c, err)
	}

	return ingestSuccess(c.Status(fiber.StatusCreated), result)
}

func (s *Server) handleUpdateTitle(c *fiber.Ctx) error {
	var req UpdateTitleRequest
	if err := c.BodyParser(&req); err != nil {
		return ingestFailure(c, fiber.StatusBadRequest, "invalid request body")
	}

	doc, err := s.pageInWiki(c)
	if err != nil {
		return s.ingestError(c, err)
	}
	result, err := s.config.Ingester.UpdateTitle(c.Context(), doc.ID, req.Title)
	if err != nil {
		return s.ingestError(c, err)
	}
	return ingestSuccess(c, result)
}

func (s *Server) handleUpdateText(c *fiber.Ctx) error {
	var req UpdateTextRequest
	if err := c.BodyParser(&req); err != nil {
		return ingestFailure(c, fiber.StatusBadRequest, "invalid request body")
	}

	doc, err := s.pageInWiki(c)
	if err != nil {
		return s.ingestError(c, err)
	}
	result, err := s.config.Ingester.UpdateText(c.Context(), doc.ID, req.Text)
	if err != nil {
		return s.ingestError(c, err)
	}
	return ingestSuccess(c, result)
}

func (s *Server) handleUpdateTags(c *fiber.Ctx) error {
	var req UpdateTagsRequest
	if err := c.BodyParser(&req); err != nil {
		return ingestFailure(c, fiber.StatusBadRequest, "invalid request body")
	}

	doc, err := s.pageInWiki(c)
	if err != nil {
		return s.ingestError(c, err)
	}
	result, err := s.config.Ingester.UpdateTags(c.Context(), doc.ID, req.Tags)
	if err != nil {
		return s.ingestError(c, err)
	}
	return ingestSuccess(c, result)
}

func (s *Server) handleDeletePage(c *fiber.Ctx) error {
	doc, err := s.pageInWiki(c)
	if err != nil {
		return c.Status(statusFor(err)).JSON(ErrorResponse{Error: err.Error()})
	}
	if err := s.config.Ingester.Delete(c.Context(), doc.ID); err != nil {
		s.logger.Error("failed to delete page", "page_id", doc.ID, "error", err)
		return c.Status(statusFor(err)).JSON(ErrorResponse{Error: err.Error()})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleReconcile(c *fiber.Ctx) error {
	report, err := s.config.Ingester.Reconcile(c.Context(), c.Params("wiki_id"))
	if err != nil {
		s.logger.Error("reconcile failed", "wiki_id", c.Params("wiki_id"), "error", err)
		return c.Status(statusFor(err)).JSON(ErrorResponse{Error: err.Error()})
	}

	failed := make(map[string]string, len(report.Failed))
	for id, ferr := range report.Failed {
		failed[id] = ferr.Error()
	}

	return c.JSON(map[string]any{
		"checked":  report.Checked,
		"repaired": report.Repaired,
		"failed":   failed,
	})
}

func (s *Server) handleCreateTag(c *fiber.Ctx) error {
	var req CreateTagRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	if strings.TrimSpace(req.Name) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "name is required"})
	}

	tag := &storage.Tag{Name: req.Name}
	if req.Color != nil {
		tag.Color = *req.Color
	}
	if err := s.config.Store.CreateTag(c.Context(), tag); err != nil {
		return c.Status(statusFor(err)).JSON(ErrorResponse{Error: err.Error()})
	}

	return c.Status(fiber.StatusCreated).JSON(tag)
}

func (s *Server) handleListTags(c *fiber.Ctx) error {
	tags, err := s.config.Store.ListTags(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to list tags"})
	}
	return c.JSON(tags)
}

// pageInWiki loads the routed page and hides pages of other wikis.
func (s *Server) pageInWiki(c *fiber.Ctx) (*storage.Document, error) {
	id := c.Params("page_id")
	doc, err := s.config.Store.GetDocument(c.Context(), id)
	if err != nil {
		return nil, err
	}
	if doc.WikiID != c.Params("wiki_id") {
		return nil, storage.NotFoundError{Kind: "document", ID: id}
	}
	return doc, nil
}

func (s *Server) ingestError(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	if status == fiber.StatusInternalServerError {
		s.logger.Error("page write failed", "error", err)
	}

	var partial *ingest.PartialIngestError
	if errors.As(err, &partial) {
		msg := err.Error()
		return c.Status(status).JSON(IngestResponse{Error: &msg, DocumentID: &partial.DocumentID})
	}
	return ingestFailure(c, status, err.Error())
}

func ingestFailure(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(IngestResponse{Error: &msg})
}

func ingestSuccess(c *fiber.Ctx, r *ingest.Result) error {
	return c.JSON(IngestResponse{Success: &PageResult{
		Page:          r.Document,
		ChunkCount:    r.ChunkCount,
		FailedWindows: r.FailedWindows,
	}})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case storage.IsNotFound(err):
		return fiber.StatusNotFound
	case errors.Is(err, permission.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, storage.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, ingest.ErrMissingText):
		return fiber.StatusBadRequest
	case errors.Is(err, ingest.ErrEmptyBatch), errors.Is(err, vector.ErrDimensionMismatch):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}
