// Package ingest turns raw page text into a stored document and its embedded
// chunks, and keeps the two in step on update and delete.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/papercomputeco/folio/pkg/chunk"
	"github.com/papercomputeco/folio/pkg/embeddings"
	"github.com/papercomputeco/folio/pkg/eventstream"
	"github.com/papercomputeco/folio/pkg/eventstream/nop"
	"github.com/papercomputeco/folio/pkg/storage"
	"github.com/papercomputeco/folio/pkg/vector"
)

// Config is the configuration for an Ingester.
type Config struct {
	// Store persists wikis and documents.
	Store storage.Driver

	// Vectors persists chunk embeddings.
	Vectors vector.Driver

	// Embedder generates chunk embeddings.
	Embedder embeddings.Embedder

	// Publisher receives document events after successful writes. Optional.
	Publisher eventstream.Publisher

	// Segmenter splits text into sentences. Defaults to chunk.NewSegmenter().
	Segmenter *chunk.Segmenter

	// TokensPerWindow is the window token budget. Defaults to chunk.DefaultTokensPerWindow.
	TokensPerWindow int

	// SentenceOverlap is the number of sentences shared by consecutive windows.
	SentenceOverlap int

	// Dimensions is the required embedding length. Zero skips the check.
	Dimensions int

	// MaxConcurrency bounds in-flight embedding calls per document.
	MaxConcurrency int

	Logger *slog.Logger
}

// Ingester writes documents and their chunks.
type Ingester struct {
	store     storage.Driver
	vectors   vector.Driver
	embedder  embeddings.Embedder
	publisher eventstream.Publisher
	segmenter *chunk.Segmenter

	tokensPerWindow int
	overlap         int
	dimensions      int
	maxConcurrency  int

	logger *slog.Logger
}

// Request describes a new page.
type Request struct {
	WikiID string
	Title  string
	Text   string

	// Tags are tag IDs.
	Tags []string
}

// Result is the outcome of a write that produced chunks.
type Result struct {
	Document *storage.Document

	// ChunkCount is the number of chunks stored.
	ChunkCount int

	// FailedWindows are the indices of windows that could not be embedded
	// and were dropped.
	FailedWindows []int
}

// New creates an Ingester.
func New(c *Config) (*Ingester, error) {
	if c.Store == nil {
		return nil, errors.New("ingest requires a storage driver")
	}
	if c.Vectors == nil {
		return nil, errors.New("ingest requires a vector driver")
	}
	if c.Embedder == nil {
		return nil, errors.New("ingest requires an embedder")
	}

	in := &Ingester{
		store:           c.Store,
		vectors:         c.Vectors,
		embedder:        c.Embedder,
		publisher:       c.Publisher,
		segmenter:       c.Segmenter,
		tokensPerWindow: c.TokensPerWindow,
		overlap:         c.SentenceOverlap,
		dimensions:      c.Dimensions,
		maxConcurrency:  c.MaxConcurrency,
		logger:          c.Logger,
	}
	if in.publisher == nil {
		in.publisher = nop.NewPublisher()
	}
	if in.segmenter == nil {
		in.segmenter = chunk.NewSegmenter()
	}
	if in.tokensPerWindow <= 0 {
		in.tokensPerWindow = chunk.DefaultTokensPerWindow
	}
	if in.overlap < 0 {
		in.overlap = 0
	}
	if in.logger == nil {
		in.logger = slog.Default()
	}

	return in, nil
}

// embedded is the in-memory outcome of chunking and embedding a text, ready
// to be written.
type embedded struct {
	batch    *embeddings.Batch
	document []float32
}

// embed chunks and embeds text and computes the document vector. It performs
// no writes, so every error it returns leaves the stores untouched.
func (in *Ingester) embed(ctx context.Context, text string) (*embedded, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrMissingText
	}

	sentences := in.segmenter.Segment(text)
	windows := chunk.Window(sentences, in.tokensPerWindow, in.overlap)

	batch := embeddings.FetchAll(ctx, in.embedder, windows, embeddings.FetchOptions{
		MaxConcurrency: in.maxConcurrency,
	})
	for _, f := range batch.Failed {
		in.logger.Warn("dropping window that failed to embed",
			"window", f.Index,
			"error", f.Err,
		)
	}
	if len(batch.Embedded) == 0 {
		return nil, ErrEmptyBatch
	}

	if in.dimensions > 0 {
		for _, e := range batch.Embedded {
			if err := vector.CheckDimensions(e.Vector, in.dimensions); err != nil {
				return nil, fmt.Errorf("window %d: %w", e.Index, err)
			}
		}
	}

	avg, err := vector.Average(batch.Vectors())
	if err != nil {
		return nil, err
	}

	in.logger.Debug("embedded text",
		"sentences", len(sentences),
		"windows", len(windows),
		"embedded", len(batch.Embedded),
		"failed", len(batch.Failed),
	)

	return &embedded{batch: batch, document: avg}, nil
}

// chunks builds the chunk records for doc from an embedded batch.
func chunks(doc *storage.Document, batch *embeddings.Batch) []vector.Chunk {
	out := make([]vector.Chunk, len(batch.Embedded))
	for i, e := range batch.Embedded {
		out[i] = vector.Chunk{
			ID:         ChunkID(doc.ID, i),
			DocumentID: doc.ID,
			WikiID:     doc.WikiID,
			Index:      i,
			Text:       e.Text,
			Embedding:  e.Vector,
		}
	}
	return out
}

// ChunkID is the stable identifier of the index-th chunk of a document.
func ChunkID(documentID string, index int) string {
	return fmt.Sprintf("%s:%d", documentID, index)
}

func failedIndices(batch *embeddings.Batch) []int {
	out := make([]int, len(batch.Failed))
	for i, f := range batch.Failed {
		out[i] = f.Index
	}
	return out
}

// Ingest chunks, embeds and stores a new page. The document record is written
// first; if its chunks then fail to store a *PartialIngestError is returned.
func (in *Ingester) Ingest(ctx context.Context, req Request) (*Result, error) {
	if _, err := in.store.GetWiki(ctx, req.WikiID); err != nil {
		return nil, err
	}

	emb, err := in.embed(ctx, req.Text)
	if err != nil {
		return nil, err
	}

	doc := &storage.Document{
		WikiID:    req.WikiID,
		Title:     req.Title,
		Text:      req.Text,
		Tags:      req.Tags,
		Embedding: emb.document,
	}
	if err := in.store.CreateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("storing document: %w", err)
	}

	cs := chunks(doc, emb.batch)
	if err := in.vectors.Add(ctx, cs); err != nil {
		in.logger.Error("document stored without chunks",
			"document_id", doc.ID,
			"error", err,
		)
		return nil, &PartialIngestError{DocumentID: doc.ID, Err: err}
	}

	in.logger.Info("document ingested",
		"document_id", doc.ID,
		"wiki_id", doc.WikiID,
		"chunks", len(cs),
		"failed_windows", len(emb.batch.Failed),
	)
	in.publish(ctx, eventstream.EventTypeDocumentIngested, doc, len(cs))

	return &Result{
		Document:      doc,
		ChunkCount:    len(cs),
		FailedWindows: failedIndices(emb.batch),
	}, nil
}

func (in *Ingester) publish(ctx context.Context, eventType string, doc *storage.Document, chunkCount int) {
	event := eventstream.NewDocumentEvent(eventType, eventstream.DocumentMeta{
		ID:         doc.ID,
		WikiID:     doc.WikiID,
		Title:      doc.Title,
		Tags:       doc.Tags,
		ChunkCount: chunkCount,
	})
	if err := in.publisher.PublishDocument(ctx, event); err != nil {
		in.logger.Warn("failed to publish document event",
			"event_type", eventType,
			"document_id", doc.ID,
			"error", err,
		)
	}
}
