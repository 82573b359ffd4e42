package eventstream

import (
	"time"

	"github.com/google/uuid"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeDocumentIngested is emitted after a new document and its chunks are written.
	EventTypeDocumentIngested = "folio.document.ingested"

	// EventTypeDocumentUpdated is emitted after a document's title, text or tags change.
	EventTypeDocumentUpdated = "folio.document.updated"

	// EventTypeDocumentDeleted is emitted after a document and its chunks are removed.
	EventTypeDocumentDeleted = "folio.document.deleted"
)

// DocumentEvent is a transport-neutral event payload for a document change.
type DocumentEvent struct {
	SchemaVersion int          `json:"schema_version"`
	EventType     string       `json:"event_type"`
	EventID       string       `json:"event_id"`
	EmittedAt     time.Time    `json:"emitted_at"`
	Document      DocumentMeta `json:"document"`
}

// DocumentMeta describes the document the event is about.
type DocumentMeta struct {
	ID         string   `json:"id"`
	WikiID     string   `json:"wiki_id"`
	Title      string   `json:"title,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	ChunkCount int      `json:"chunk_count"`
}

// NewDocumentEvent stamps a new event of the given type.
func NewDocumentEvent(eventType string, doc DocumentMeta) *DocumentEvent {
	return &DocumentEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     eventType,
		EventID:       "evt_" + uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Document:      doc,
	}
}
