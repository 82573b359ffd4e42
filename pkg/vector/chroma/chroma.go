// Package chroma provides a Chroma vector database driver implementation.
package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/papercomputeco/folio/pkg/vector"
)

const (
	// DefaultCollectionName is the default collection name for storing folio chunks.
	DefaultCollectionName = "folio"

	// DefaultMaxRetries is the number of attempts made to reach Chroma at startup.
	DefaultMaxRetries = 5

	// DefaultRetryDelay is the initial delay between connection attempts.
	DefaultRetryDelay = time.Second

	// DefaultMaxRetryDelay caps the exponential backoff between attempts.
	DefaultMaxRetryDelay = 10 * time.Second

	collectionsPath = "/api/v2/tenants/default_tenant/databases/default_database/collections"
)

// Driver implements vector.Driver using Chroma's REST API.
type Driver struct {
	baseURL        string
	collectionName string
	collectionID   string
	httpClient     *http.Client
	logger         *slog.Logger
}

// Config holds configuration for the Chroma driver.
type Config struct {
	// URL is the Chroma server URL (e.g., "http://localhost:8000").
	URL string

	// CollectionName is the name of the collection to use.
	// Defaults to DefaultCollectionName if empty.
	CollectionName string

	// MaxRetries is the number of connection attempts before giving up.
	MaxRetries int

	// RetryDelay is the delay before the second attempt; it doubles after
	// every failure up to MaxRetryDelay.
	RetryDelay time.Duration

	MaxRetryDelay time.Duration
}

// NewDriver creates a new Chroma vector driver, retrying with backoff while
// the server is unavailable.
func NewDriver(c Config, logger *slog.Logger) (*Driver, error) {
	if c.URL == "" {
		return nil, errors.New("chroma URL is required")
	}

	collectionName := c.CollectionName
	if collectionName == "" {
		collectionName = DefaultCollectionName
	}
	maxRetries := c.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	delay := c.RetryDelay
	if delay <= 0 {
		delay = DefaultRetryDelay
	}
	maxDelay := c.MaxRetryDelay
	if maxDelay <= 0 {
		maxDelay = DefaultMaxRetryDelay
	}

	d := &Driver{
		baseURL:        c.URL,
		collectionName: collectionName,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		id, err := d.getOrCreateCollection(context.Background())
		if err == nil {
			d.collectionID = id
			break
		}
		lastErr = err

		if attempt == maxRetries {
			return nil, fmt.Errorf("getting or creating collection %q after %d attempts: %w: %w",
				collectionName, maxRetries, vector.ErrConnection, lastErr)
		}

		logger.Warn("chroma not ready, retrying",
			"attempt", attempt,
			"delay", delay,
			"error", err,
		)
		time.Sleep(delay)
		delay = min(delay*2, maxDelay)
	}

	logger.Info("connected to Chroma",
		"url", c.URL,
		"collection", collectionName,
		"collection_id", d.collectionID,
	)

	return d, nil
}

// getOrCreateCollection gets an existing collection or creates a new one
// configured for cosine distance.
func (d *Driver) getOrCreateCollection(ctx context.Context) (string, error) {
	var collection chromaCollection
	err := d.do(ctx, http.MethodGet, collectionsPath+"/"+d.collectionName, nil, &collection)
	if err == nil {
		return collection.ID, nil
	}

	create := chromaCreateCollectionRequest{
		Name:     d.collectionName,
		Metadata: map[string]any{"hnsw:space": "cosine"},
	}
	if err := d.do(ctx, http.MethodPost, collectionsPath, create, &collection); err != nil {
		return "", fmt.Errorf("creating collection: %w", err)
	}
	return collection.ID, nil
}

// do sends a JSON request to Chroma and decodes the response into out when
// out is non-nil.
func (d *Driver) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, d.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func (d *Driver) recordsPath(op string) string {
	return collectionsPath + "/" + d.collectionID + "/" + op
}

// Add upserts chunks with their embeddings.
func (d *Driver) Add(ctx context.Context, chunks []vector.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	req := chromaUpsertRequest{
		IDs:        make([]string, len(chunks)),
		Embeddings: make([][]float32, len(chunks)),
		Metadatas:  make([]map[string]any, len(chunks)),
		Documents:  make([]string, len(chunks)),
	}
	for i, c := range chunks {
		req.IDs[i] = c.ID
		req.Embeddings[i] = c.Embedding
		req.Documents[i] = c.Text
		req.Metadatas[i] = map[string]any{
			"document_id": c.DocumentID,
			"wiki_id":     c.WikiID,
			"chunk_index": c.Index,
		}
	}

	if err := d.do(ctx, http.MethodPost, d.recordsPath("upsert"), req, nil); err != nil {
		return fmt.Errorf("failed to add chunks: %w", err)
	}

	d.logger.Debug("added chunks to chroma", "count", len(chunks))
	return nil
}

// Query finds the chunks most similar to q.Embedding that pass q.Filter.
func (d *Driver) Query(ctx context.Context, q vector.Query) ([]vector.QueryResult, error) {
	q = q.Normalize()
	if q.Filter.Excludes() {
		return []vector.QueryResult{}, nil
	}

	req := chromaQueryRequest{
		QueryEmbeddings: [][]float32{q.Embedding},
		NResults:        q.Limit,
		Where:           whereClause(q.Filter),
		Include:         []string{"metadatas", "distances", "documents"},
	}

	var resp chromaQueryResponse
	if err := d.do(ctx, http.MethodPost, d.recordsPath("query"), req, &resp); err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}

	results := []vector.QueryResult{}

	// Process first group (we only query with one embedding)
	if len(resp.IDs) == 0 {
		return results, nil
	}

	for i, id := range resp.IDs[0] {
		r := vector.QueryResult{Chunk: vector.Chunk{ID: id}}

		if len(resp.Metadatas) > 0 && i < len(resp.Metadatas[0]) {
			meta := resp.Metadatas[0][i]
			r.DocumentID, _ = meta["document_id"].(string)
			r.WikiID, _ = meta["wiki_id"].(string)
			if idx, ok := meta["chunk_index"].(float64); ok {
				r.Index = int(idx)
			}
		}
		if len(resp.Documents) > 0 && i < len(resp.Documents[0]) {
			r.Text = resp.Documents[0][i]
		}
		if len(resp.Distances) > 0 && i < len(resp.Distances[0]) {
			r.Score = 1 - resp.Distances[0][i]
		}

		results = append(results, r)
	}

	d.logger.Debug("queried chroma", "results", len(results))
	return results, nil
}

// DeleteDocument removes every chunk belonging to documentID.
func (d *Driver) DeleteDocument(ctx context.Context, documentID string) error {
	req := chromaDeleteRequest{
		Where: map[string]any{"document_id": map[string]any{"$eq": documentID}},
	}
	if err := d.do(ctx, http.MethodPost, d.recordsPath("delete"), req, nil); err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}

	d.logger.Debug("deleted document chunks from chroma", "document_id", documentID)
	return nil
}

// CountDocument returns the number of chunks stored for documentID.
func (d *Driver) CountDocument(ctx context.Context, documentID string) (int, error) {
	req := chromaGetRequest{
		Where:   map[string]any{"document_id": map[string]any{"$eq": documentID}},
		Include: []string{},
	}

	var resp chromaGetResponse
	if err := d.do(ctx, http.MethodPost, d.recordsPath("get"), req, &resp); err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return len(resp.IDs), nil
}

// Close releases resources held by the driver.
func (d *Driver) Close() error {
	// HTTP client doesn't require explicit cleanup
	return nil
}

// whereClause builds a Chroma metadata filter. Chroma requires an explicit
// $and when more than one condition is present.
func whereClause(f vector.Filter) map[string]any {
	var conds []map[string]any
	if f.WikiID != "" {
		conds = append(conds, map[string]any{"wiki_id": map[string]any{"$eq": f.WikiID}})
	}
	if f.DocumentIDs != nil {
		conds = append(conds, map[string]any{"document_id": map[string]any{"$in": f.DocumentIDs}})
	}

	switch len(conds) {
	case 0:
		return nil
	case 1:
		return conds[0]
	default:
		return map[string]any{"$and": conds}
	}
}
