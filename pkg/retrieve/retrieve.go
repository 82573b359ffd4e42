// Package retrieve answers semantic similarity queries against a wiki's
// chunks.
package retrieve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/papercomputeco/folio/pkg/embeddings"
	"github.com/papercomputeco/folio/pkg/rewrite"
	"github.com/papercomputeco/folio/pkg/storage"
	"github.com/papercomputeco/folio/pkg/vector"
)

var (
	// ErrMissingSearchText is returned for a query without search text.
	ErrMissingSearchText = errors.New("missing search text")

	// ErrSearch wraps store failures during retrieval.
	ErrSearch = errors.New("search failed")
)

// Query is a retrieval request against one wiki.
type Query struct {
	WikiID     string
	SearchText string

	// Tags are tag IDs. When set, only chunks of documents carrying any of
	// them are searched.
	Tags []string

	// UseRewrite enriches SearchText with the configured rewriter first.
	UseRewrite bool

	// Limit caps the number of results. Zero uses the configured default.
	// Chunks whose document is gone are skipped and the vector store is asked
	// again for more, so fewer than Limit results come back only when the
	// candidate pool runs out.
	Limit int
}

// Result is a matched chunk paired with its document's current title.
type Result struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Title      string  `json:"title"`
	Text       string  `json:"text"`
	Score      float32 `json:"score"`
}

// Config is the configuration for a Retriever.
type Config struct {
	Store    storage.Driver
	Vectors  vector.Driver
	Embedder embeddings.Embedder

	// Rewriter is optional. Without one, UseRewrite is ignored.
	Rewriter rewrite.Rewriter

	// ResultLimit is the default limit. Defaults to vector.DefaultLimit.
	ResultLimit int

	// CandidatePool is passed to the vector store. Defaults to vector.DefaultCandidatePool.
	CandidatePool int

	// Dimensions is the embedding length the vector store holds. When set,
	// query embeddings of any other length are rejected.
	Dimensions int

	Logger *slog.Logger
}

// Retriever runs the query flow: rewrite, embed, tag pre-filter, search and
// title resolution. It never writes.
type Retriever struct {
	store         storage.Driver
	vectors       vector.Driver
	embedder      embeddings.Embedder
	rewriter      rewrite.Rewriter
	resultLimit   int
	candidatePool int
	dimensions    int
	logger        *slog.Logger
}

// New creates a Retriever.
func New(c *Config) (*Retriever, error) {
	if c.Store == nil || c.Vectors == nil || c.Embedder == nil {
		return nil, errors.New("retriever requires a storage driver, a vector driver and an embedder")
	}

	r := &Retriever{
		store:         c.Store,
		vectors:       c.Vectors,
		embedder:      c.Embedder,
		rewriter:      c.Rewriter,
		resultLimit:   c.ResultLimit,
		candidatePool: c.CandidatePool,
		dimensions:    c.Dimensions,
		logger:        c.Logger,
	}
	if r.resultLimit <= 0 {
		r.resultLimit = vector.DefaultLimit
	}
	if r.candidatePool <= 0 {
		r.candidatePool = vector.DefaultCandidatePool
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r, nil
}

// Retrieve returns the chunks most similar to q.SearchText, best first. An
// embedding failure yields an empty result and no error.
func (r *Retriever) Retrieve(ctx context.Context, q Query) ([]Result, error) {
	if strings.TrimSpace(q.SearchText) == "" {
		return nil, ErrMissingSearchText
	}

	text := q.SearchText
	if q.UseRewrite {
		text = r.rewriteQuery(ctx, q)
	}

	embedding, err := r.embedder.Embed(ctx, text)
	if err != nil {
		r.logger.Warn("query embedding failed, returning no results", "error", err)
		return []Result{}, nil
	}
	if len(embedding) == 0 {
		r.logger.Warn("query embedding is empty, returning no results")
		return []Result{}, nil
	}
	if r.dimensions > 0 {
		if err := vector.CheckDimensions(embedding, r.dimensions); err != nil {
			return nil, fmt.Errorf("%w: query embedding: %w", ErrSearch, err)
		}
	}

	filter := vector.Filter{WikiID: q.WikiID}
	if len(q.Tags) > 0 {
		ids, err := r.store.FindDocumentIDsByTags(ctx, q.WikiID, q.Tags)
		if err != nil {
			return nil, fmt.Errorf("%w: tag lookup: %w", ErrSearch, err)
		}
		if len(ids) == 0 {
			r.logger.Debug("no documents carry the requested tags", "tags", q.Tags)
			return []Result{}, nil
		}
		filter.DocumentIDs = ids
	}

	limit := q.Limit
	if limit <= 0 {
		limit = r.resultLimit
	}

	// Orphaned chunks shrink the resolved set, so widen the request by the
	// number dropped until limit is met or the store has nothing more.
	fetch := limit
	for {
		matches, err := r.vectors.Query(ctx, vector.Query{
			Embedding:     embedding,
			CandidatePool: max(r.candidatePool, fetch),
			Limit:         fetch,
			Filter:        filter,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: vector query: %w", ErrSearch, err)
		}

		results, err := r.resolve(ctx, matches)
		if err != nil {
			return nil, err
		}

		dropped := len(matches) - len(results)
		if len(results) >= limit || dropped == 0 || len(matches) < fetch || fetch >= r.candidatePool {
			if len(results) > limit {
				results = results[:limit]
			}
			return results, nil
		}
		fetch = min(fetch+dropped, r.candidatePool)
	}
}

// rewriteQuery returns the rewritten search text, or the original text when
// no rewriter is configured or rewriting fails.
func (r *Retriever) rewriteQuery(ctx context.Context, q Query) string {
	if r.rewriter == nil {
		r.logger.Debug("rewrite requested but no rewriter is configured")
		return q.SearchText
	}

	out, err := r.rewriter.Rewrite(ctx, q.SearchText, r.tagNames(ctx, q.Tags))
	if err != nil {
		r.logger.Warn("query rewrite failed, using original text", "error", err)
		return q.SearchText
	}
	if strings.TrimSpace(out) == "" {
		return q.SearchText
	}

	r.logger.Debug("rewrote query", "original", q.SearchText, "rewritten", out)
	return out
}

// tagNames maps tag IDs to names for the rewrite prompt. Unknown IDs are
// skipped and lookup failures yield no tags.
func (r *Retriever) tagNames(ctx context.Context, ids []string) []string {
	if len(ids) == 0 {
		return nil
	}

	tags, err := r.store.ListTags(ctx)
	if err != nil {
		r.logger.Debug("could not list tags for rewrite", "error", err)
		return nil
	}

	byID := make(map[string]string, len(tags))
	for _, t := range tags {
		byID[t.ID] = t.Name
	}

	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := byID[id]; ok {
			names = append(names, name)
		}
	}
	return names
}

// resolve attaches current document titles to matches in store order. Chunks
// whose document no longer exists are dropped.
func (r *Retriever) resolve(ctx context.Context, matches []vector.QueryResult) ([]Result, error) {
	results := make([]Result, 0, len(matches))
	if len(matches) == 0 {
		return results, nil
	}

	ids := make([]string, 0, len(matches))
	seen := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		if _, ok := seen[m.DocumentID]; ok {
			continue
		}
		seen[m.DocumentID] = struct{}{}
		ids = append(ids, m.DocumentID)
	}

	docs, err := r.store.GetDocuments(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: resolving titles: %w", ErrSearch, err)
	}

	for _, m := range matches {
		doc, ok := docs[m.DocumentID]
		if !ok {
			r.logger.Warn("dropping orphaned chunk", "chunk_id", m.ID, "document_id", m.DocumentID)
			continue
		}
		results = append(results, Result{
			ChunkID:    m.ID,
			DocumentID: m.DocumentID,
			Title:      doc.Title,
			Text:       m.Text,
			Score:      m.Score,
		})
	}
	return results, nil
}
