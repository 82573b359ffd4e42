package ingest

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyBatch is returned when none of a document's windows could be
	// embedded.
	ErrEmptyBatch = errors.New("could not generate any embeddings")

	// ErrPartialIngest is matched by every PartialIngestError.
	ErrPartialIngest = errors.New("partial ingest")

	// ErrMissingText is returned when a document has no text to chunk.
	ErrMissingText = errors.New("document text is empty")
)

// PartialIngestError reports that a document record was written but its
// chunks were not, or that its old chunks were removed without being
// replaced. Reconcile repairs such documents.
type PartialIngestError struct {
	DocumentID string
	Err        error
}

func (e *PartialIngestError) Error() string {
	return fmt.Sprintf("partial ingest of document %s: %v", e.DocumentID, e.Err)
}

func (e *PartialIngestError) Unwrap() []error {
	return []error{ErrPartialIngest, e.Err}
}
