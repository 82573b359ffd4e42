// Package storage defines the document store: wikis, their pages and the tags
// applied to pages.
package storage

import (
	"context"
	"time"
)

// Wiki is the owning collection of documents.
type Wiki struct {
	ID    string `json:"id"`
	Title string `json:"title"`

	// Members are opaque caller identifiers allowed to use the wiki.
	Members []string `json:"members"`

	CreatedAt time.Time `json:"created_at"`
}

// HasMember reports whether callerID is a member of the wiki.
func (w *Wiki) HasMember(callerID string) bool {
	for _, m := range w.Members {
		if m == callerID {
			return true
		}
	}
	return false
}

// Document is a single wiki page.
type Document struct {
	ID     string `json:"id"`
	WikiID string `json:"wiki_id"`
	Title  string `json:"title"`
	Text   string `json:"text"`

	// Tags are tag IDs.
	Tags []string `json:"tags"`

	// Embedding is the mean of the document's chunk embeddings.
	Embedding []float32 `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Color is a tag's display color pair.
type Color struct {
	FG string `json:"fg"`
	BG string `json:"bg"`
}

// DefaultTagColor is applied to tags created without a color.
var DefaultTagColor = Color{FG: "#fff", BG: "royalblue"}

// Tag labels documents for pre-filtering searches.
type Tag struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color Color  `json:"color"`
}

// Driver defines the interface for persisting and retrieving wikis, documents
// and tags in a storage backend.
type Driver interface {
	// CreateWiki stores a new wiki. The ID and CreatedAt are assigned when empty.
	CreateWiki(ctx context.Context, wiki *Wiki) error

	// GetWiki retrieves a wiki with its members. Returns NotFoundError when
	// the wiki does not exist.
	GetWiki(ctx context.Context, id string) (*Wiki, error)

	// CreateDocument stores a new document. The ID and timestamps are
	// assigned when empty.
	CreateDocument(ctx context.Context, doc *Document) error

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*Document, error)

	// GetDocuments retrieves the documents that exist among ids, keyed by
	// ID. Missing IDs are skipped.
	GetDocuments(ctx context.Context, ids []string) (map[string]*Document, error)

	// ListDocuments returns every document of a wiki, oldest first.
	ListDocuments(ctx context.Context, wikiID string) ([]*Document, error)

	// UpdateDocument replaces the title, text, tags and embedding of an
	// existing document and bumps UpdatedAt.
	UpdateDocument(ctx context.Context, doc *Document) error

	// DeleteDocument removes a document.
	DeleteDocument(ctx context.Context, id string) error

	// FindDocumentIDsByTags returns the IDs of documents in wikiID carrying
	// any of tagIDs.
	FindDocumentIDsByTags(ctx context.Context, wikiID string, tagIDs []string) ([]string, error)

	// CreateTag stores a new tag, applying DefaultTagColor when unset.
	CreateTag(ctx context.Context, tag *Tag) error

	// ListTags returns every tag ordered by name.
	ListTags(ctx context.Context) ([]*Tag, error)

	// Close closes the store and releases any resources.
	Close() error
}
