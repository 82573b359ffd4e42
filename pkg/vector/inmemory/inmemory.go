// Package inmemory provides a brute-force vector driver held entirely in
// process memory. Useful for tests and single-process deployments.
package inmemory

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"

	"github.com/papercomputeco/folio/pkg/vector"
)

// Driver implements vector.Driver with a map of chunks and cosine scoring.
type Driver struct {
	mu     sync.RWMutex
	chunks map[string]vector.Chunk
	logger *slog.Logger

	// dimensions is zero when any length is accepted.
	dimensions int
}

// Option configures a Driver.
type Option func(*Driver)

// WithDimensions rejects query embeddings that are not n long.
func WithDimensions(n int) Option {
	return func(d *Driver) {
		d.dimensions = n
	}
}

// NewDriver creates an empty in-memory vector driver.
func NewDriver(logger *slog.Logger, opts ...Option) *Driver {
	d := &Driver{
		chunks: make(map[string]vector.Chunk),
		logger: logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Add stores chunks, replacing any with the same ID.
func (d *Driver) Add(_ context.Context, chunks []vector.Chunk) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, c := range chunks {
		c.Embedding = slices.Clone(c.Embedding)
		d.chunks[c.ID] = c
	}

	d.logger.Debug("added chunks to memory", "count", len(chunks))
	return nil
}

// Query scores every chunk that passes the filter and returns the best
// q.Limit of them. The query embedding must match the configured dimensions
// and the length of every chunk it is scored against.
func (d *Driver) Query(_ context.Context, q vector.Query) ([]vector.QueryResult, error) {
	q = q.Normalize()
	if d.dimensions > 0 {
		if err := vector.CheckDimensions(q.Embedding, d.dimensions); err != nil {
			return nil, fmt.Errorf("query embedding: %w", err)
		}
	}
	if q.Filter.Excludes() {
		return []vector.QueryResult{}, nil
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	results := make([]vector.QueryResult, 0, len(d.chunks))
	for _, c := range d.chunks {
		if !q.Filter.Allows(c) {
			continue
		}
		if len(c.Embedding) != len(q.Embedding) {
			return nil, fmt.Errorf("query embedding against chunk %s: %w",
				c.ID, vector.CheckDimensions(q.Embedding, len(c.Embedding)))
		}
		results = append(results, vector.QueryResult{
			Chunk: c,
			Score: vector.CosineSimilarity(q.Embedding, c.Embedding),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})

	if len(results) > q.Limit {
		results = results[:q.Limit]
	}
	return results, nil
}

// DeleteDocument removes every chunk of documentID.
func (d *Driver) DeleteDocument(_ context.Context, documentID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	removed := 0
	for id, c := range d.chunks {
		if c.DocumentID == documentID {
			delete(d.chunks, id)
			removed++
		}
	}

	d.logger.Debug("deleted document chunks from memory",
		"document_id", documentID,
		"count", removed,
	)
	return nil
}

// CountDocument returns the number of chunks held for documentID.
func (d *Driver) CountDocument(_ context.Context, documentID string) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	n := 0
	for _, c := range d.chunks {
		if c.DocumentID == documentID {
			n++
		}
	}
	return n, nil
}

// Close is a no-op.
func (d *Driver) Close() error {
	return nil
}
