// Package vector provides interfaces and implementations for storing chunk
// embeddings and running filtered nearest-neighbour queries over them.
package vector

import "context"

// Chunk is one embedded window of a document's text.
type Chunk struct {
	// ID is a unique identifier for the chunk.
	ID string

	// DocumentID is the ID of the document the chunk was cut from.
	DocumentID string

	// WikiID scopes the chunk to the wiki that owns its document.
	WikiID string

	// Index is the position of the window within its document.
	Index int

	// Text is the window text that was embedded.
	Text string

	// Embedding is the vector representation of Text.
	Embedding []float32
}

// QueryResult is a chunk matched by a query along with its similarity score.
type QueryResult struct {
	Chunk

	// Score represents the similarity score (higher = more similar).
	Score float32
}

// Filter restricts the chunks a query may match.
type Filter struct {
	// WikiID limits matches to a single wiki. Empty matches every wiki.
	WikiID string

	// DocumentIDs is an allow-list of documents. A nil slice applies no
	// document restriction; a non-nil empty slice matches nothing.
	DocumentIDs []string
}

// Query describes a nearest-neighbour search.
type Query struct {
	// Embedding is the query vector.
	Embedding []float32

	// CandidatePool is the number of nearest candidates considered before the
	// result limit is applied. Stores without a separate candidate stage
	// treat it as a lower bound on the search breadth.
	CandidatePool int

	// Limit is the maximum number of results returned.
	Limit int

	Filter Filter
}

// Driver handles storage and retrieval of chunk embeddings.
type Driver interface {
	// Add stores chunks with their embeddings.
	// If a chunk with the same ID already exists, implementers should replace it.
	Add(ctx context.Context, chunks []Chunk) error

	// Query returns the chunks most similar to q.Embedding that satisfy
	// q.Filter, ordered by descending score.
	Query(ctx context.Context, q Query) ([]QueryResult, error)

	// DeleteDocument removes every chunk belonging to documentID.
	DeleteDocument(ctx context.Context, documentID string) error

	// CountDocument returns the number of chunks stored for documentID.
	CountDocument(ctx context.Context, documentID string) (int, error)

	// Close releases any resources held by the driver.
	Close() error
}

const (
	// DefaultLimit is used when a query does not set a limit.
	DefaultLimit = 10

	// DefaultCandidatePool is used when a query does not set a candidate pool.
	DefaultCandidatePool = 200
)

// Normalize fills in defaults so the candidate pool is never smaller than
// the limit.
func (q Query) Normalize() Query {
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.CandidatePool <= 0 {
		q.CandidatePool = DefaultCandidatePool
	}
	if q.CandidatePool < q.Limit {
		q.CandidatePool = q.Limit
	}
	return q
}

// Excludes reports whether the filter can match nothing at all.
func (f Filter) Excludes() bool {
	return f.DocumentIDs != nil && len(f.DocumentIDs) == 0
}

// Allows reports whether c satisfies the filter.
func (f Filter) Allows(c Chunk) bool {
	if f.WikiID != "" && c.WikiID != f.WikiID {
		return false
	}
	if f.DocumentIDs == nil {
		return true
	}
	for _, id := range f.DocumentIDs {
		if id == c.DocumentID {
			return true
		}
	}
	return false
}
