// Package inmemory provides a storage.Driver backed by process memory.
package inmemory

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/papercomputeco/folio/pkg/storage"
)

// Driver implements storage.Driver using in-memory maps.
type Driver struct {
	// mu is a read write sync mutex for locking every map below
	mu sync.RWMutex

	wikis     map[string]*storage.Wiki
	documents map[string]*storage.Document
	tags      map[string]*storage.Tag

	now func() time.Time
}

// NewDriver creates a new in-memory store.
func NewDriver() *Driver {
	return &Driver{
		wikis:     make(map[string]*storage.Wiki),
		documents: make(map[string]*storage.Document),
		tags:      make(map[string]*storage.Tag),
		now:       time.Now,
	}
}

func cloneWiki(w *storage.Wiki) *storage.Wiki {
	c := *w
	c.Members = slices.Clone(w.Members)
	return &c
}

func cloneDocument(d *storage.Document) *storage.Document {
	c := *d
	c.Tags = slices.Clone(d.Tags)
	c.Embedding = slices.Clone(d.Embedding)
	return &c
}

func (s *Driver) CreateWiki(_ context.Context, wiki *storage.Wiki) error {
	if wiki == nil {
		return errors.New("cannot store nil wiki")
	}
	storage.PrepareWiki(wiki, s.now())

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.wikis[wiki.ID]; ok {
		return storage.ErrConflict
	}
	s.wikis[wiki.ID] = cloneWiki(wiki)
	return nil
}

func (s *Driver) GetWiki(_ context.Context, id string) (*storage.Wiki, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.wikis[id]
	if !ok {
		return nil, storage.NotFoundError{Kind: "wiki", ID: id}
	}
	return cloneWiki(w), nil
}

func (s *Driver) CreateDocument(_ context.Context, doc *storage.Document) error {
	if doc == nil {
		return errors.New("cannot store nil document")
	}
	storage.PrepareDocument(doc, s.now())

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.wikis[doc.WikiID]; !ok {
		return storage.NotFoundError{Kind: "wiki", ID: doc.WikiID}
	}
	if _, ok := s.documents[doc.ID]; ok {
		return storage.ErrConflict
	}
	s.documents[doc.ID] = cloneDocument(doc)
	return nil
}

func (s *Driver) GetDocument(_ context.Context, id string) (*storage.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.documents[id]
	if !ok {
		return nil, storage.NotFoundError{Kind: "document", ID: id}
	}
	return cloneDocument(d), nil
}

func (s *Driver) GetDocuments(_ context.Context, ids []string) (map[string]*storage.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]*storage.Document, len(ids))
	for _, id := range ids {
		if d, ok := s.documents[id]; ok {
			out[id] = cloneDocument(d)
		}
	}
	return out, nil
}

func (s *Driver) ListDocuments(_ context.Context, wikiID string) ([]*storage.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := []*storage.Document{}
	for _, d := range s.documents {
		if d.WikiID == wikiID {
			docs = append(docs, cloneDocument(d))
		}
	}
	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].CreatedAt.Before(docs[j].CreatedAt)
		}
		return docs[i].ID < docs[j].ID
	})
	return docs, nil
}

func (s *Driver) UpdateDocument(_ context.Context, doc *storage.Document) error {
	if doc == nil {
		return errors.New("cannot update nil document")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.documents[doc.ID]
	if !ok {
		return storage.NotFoundError{Kind: "document", ID: doc.ID}
	}

	doc.WikiID = existing.WikiID
	doc.CreatedAt = existing.CreatedAt
	doc.UpdatedAt = s.now()
	if doc.Tags == nil {
		doc.Tags = []string{}
	}
	s.documents[doc.ID] = cloneDocument(doc)
	return nil
}

func (s *Driver) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[id]; !ok {
		return storage.NotFoundError{Kind: "document", ID: id}
	}
	delete(s.documents, id)
	return nil
}

func (s *Driver) FindDocumentIDsByTags(_ context.Context, wikiID string, tagIDs []string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := []string{}
	for _, d := range s.documents {
		if d.WikiID != wikiID {
			continue
		}
		for _, t := range d.Tags {
			if slices.Contains(tagIDs, t) {
				ids = append(ids, d.ID)
				break
			}
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Driver) CreateTag(_ context.Context, tag *storage.Tag) error {
	if tag == nil {
		return errors.New("cannot store nil tag")
	}
	storage.PrepareTag(tag)

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.tags {
		if t.ID == tag.ID || t.Name == tag.Name {
			return storage.ErrConflict
		}
	}
	c := *tag
	s.tags[tag.ID] = &c
	return nil
}

func (s *Driver) ListTags(_ context.Context) ([]*storage.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tags := make([]*storage.Tag, 0, len(s.tags))
	for _, t := range s.tags {
		c := *t
		tags = append(tags, &c)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	return tags, nil
}

// Close is a no-op.
func (s *Driver) Close() error {
	return nil
}
