package storage

import (
	"time"

	"github.com/google/uuid"
)

// PrepareWiki assigns an ID and creation time when missing.
func PrepareWiki(w *Wiki, now time.Time) {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	if w.CreatedAt.IsZero() {
		w.CreatedAt = now
	}
	if w.Members == nil {
		w.Members = []string{}
	}
}

// PrepareDocument assigns an ID and timestamps when missing.
func PrepareDocument(d *Document, now time.Time) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	if d.UpdatedAt.IsZero() {
		d.UpdatedAt = d.CreatedAt
	}
	if d.Tags == nil {
		d.Tags = []string{}
	}
}

// PrepareTag assigns an ID and the default color when missing.
func PrepareTag(t *Tag) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Color.FG == "" {
		t.Color.FG = DefaultTagColor.FG
	}
	if t.Color.BG == "" {
		t.Color.BG = DefaultTagColor.BG
	}
}
