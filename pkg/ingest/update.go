package ingest

import (
	"context"
	"fmt"

	"github.com/papercomputeco/folio/pkg/eventstream"
)

// UpdateText re-chunks and re-embeds a document's text. The new chunks are
// embedded before anything is written. The document is updated first, then
// its old chunks are replaced; a failure after the document write returns a
// *PartialIngestError.
func (in *Ingester) UpdateText(ctx context.Context, documentID, text string) (*Result, error) {
	doc, err := in.store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	emb, err := in.embed(ctx, text)
	if err != nil {
		return nil, err
	}

	doc.Text = text
	doc.Embedding = emb.document
	if err := in.store.UpdateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("updating document: %w", err)
	}

	if err := in.vectors.DeleteDocument(ctx, doc.ID); err != nil {
		return nil, &PartialIngestError{DocumentID: doc.ID, Err: fmt.Errorf("removing old chunks: %w", err)}
	}

	cs := chunks(doc, emb.batch)
	if err := in.vectors.Add(ctx, cs); err != nil {
		in.logger.Error("document text updated without chunks",
			"document_id", doc.ID,
			"error", err,
		)
		return nil, &PartialIngestError{DocumentID: doc.ID, Err: err}
	}

	in.logger.Info("document text updated",
		"document_id", doc.ID,
		"chunks", len(cs),
		"failed_windows", len(emb.batch.Failed),
	)
	in.publish(ctx, eventstream.EventTypeDocumentUpdated, doc, len(cs))

	return &Result{
		Document:      doc,
		ChunkCount:    len(cs),
		FailedWindows: failedIndices(emb.batch),
	}, nil
}

// UpdateTitle renames a document. Chunks reference documents by ID, so they
// are left untouched.
func (in *Ingester) UpdateTitle(ctx context.Context, documentID, title string) (*Result, error) {
	doc, err := in.store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	doc.Title = title
	if err := in.store.UpdateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("updating document: %w", err)
	}

	in.logger.Info("document title updated", "document_id", doc.ID)
	in.publish(ctx, eventstream.EventTypeDocumentUpdated, doc, in.countChunks(ctx, doc.ID))

	return &Result{Document: doc}, nil
}

// UpdateTags replaces the tag IDs of a document.
func (in *Ingester) UpdateTags(ctx context.Context, documentID string, tags []string) (*Result, error) {
	doc, err := in.store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	if tags == nil {
		tags = []string{}
	}
	doc.Tags = tags
	if err := in.store.UpdateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("updating document: %w", err)
	}

	in.logger.Info("document tags updated", "document_id", doc.ID, "tags", len(tags))
	in.publish(ctx, eventstream.EventTypeDocumentUpdated, doc, in.countChunks(ctx, doc.ID))

	return &Result{Document: doc}, nil
}

// Delete removes a document and then all of its chunks. Chunks left behind
// by a failed second step are dropped at query time as orphans.
func (in *Ingester) Delete(ctx context.Context, documentID string) error {
	doc, err := in.store.GetDocument(ctx, documentID)
	if err != nil {
		return err
	}

	if err := in.store.DeleteDocument(ctx, doc.ID); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	if err := in.vectors.DeleteDocument(ctx, doc.ID); err != nil {
		return fmt.Errorf("deleting chunks of document %s: %w", doc.ID, err)
	}

	in.logger.Info("document deleted", "document_id", doc.ID)
	in.publish(ctx, eventstream.EventTypeDocumentDeleted, doc, 0)

	return nil
}

// countChunks is best effort and only feeds event metadata.
func (in *Ingester) countChunks(ctx context.Context, documentID string) int {
	n, err := in.vectors.CountDocument(ctx, documentID)
	if err != nil {
		in.logger.Debug("could not count chunks", "document_id", documentID, "error", err)
		return 0
	}
	return n
}
