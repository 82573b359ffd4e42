// Package entdriver implements storage.Driver on top of database/sql using
// ent's dialect-aware SQL builder and schema migrator. It is database-agnostic
// and is embedded by the sqlite and postgres drivers.
package entdriver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/dialect/sql/sqlgraph"

	"github.com/papercomputeco/folio/pkg/storage"
	entschema "github.com/papercomputeco/folio/pkg/storage/ent/schema"
	"github.com/papercomputeco/folio/pkg/vector"
)

// EntDriver provides storage operations over a *sql.DB.
type EntDriver struct {
	DB      *sql.DB
	Dialect string
	Logger  *slog.Logger

	now func() time.Time
}

// New wraps db, runs ent's auto-migration for the folio tables and returns
// the driver. dialectName is one of entgo.io/ent/dialect's names.
func New(ctx context.Context, db *sql.DB, dialectName string, logger *slog.Logger) (*EntDriver, error) {
	drv := entsql.OpenDB(dialectName, db)

	// This handles append-only schema changes (new tables, columns, indexes)
	migrate, err := schema.NewMigrate(drv)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	if err := migrate.Create(ctx, entschema.Tables...); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &EntDriver{
		DB:      db,
		Dialect: dialectName,
		Logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

func (ed *EntDriver) builder() *entsql.DialectBuilder {
	return entsql.Dialect(ed.Dialect)
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (ed *EntDriver) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := ed.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (ed *EntDriver) CreateWiki(ctx context.Context, wiki *storage.Wiki) error {
	if wiki == nil {
		return errors.New("cannot store nil wiki")
	}
	storage.PrepareWiki(wiki, ed.now())

	return ed.withTx(ctx, func(tx *sql.Tx) error {
		query, args := ed.builder().Insert(entschema.WikisTableName).
			Columns("id", "title", "created_at").
			Values(wiki.ID, wiki.Title, wiki.CreatedAt).
			Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			if sqlgraph.IsUniqueConstraintError(err) {
				return storage.ErrConflict
			}
			return fmt.Errorf("failed to insert wiki: %w", err)
		}

		return ed.insertMembers(ctx, tx, wiki.ID, wiki.Members)
	})
}

func (ed *EntDriver) insertMembers(ctx context.Context, tx execer, wikiID string, members []string) error {
	seen := make(map[string]bool, len(members))
	for _, m := range members {
		if seen[m] {
			continue
		}
		seen[m] = true

		query, args := ed.builder().Insert(entschema.WikiMembersTableName).
			Columns("wiki_id", "member_id").
			Values(wikiID, m).
			Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert wiki member: %w", err)
		}
	}
	return nil
}

func (ed *EntDriver) GetWiki(ctx context.Context, id string) (*storage.Wiki, error) {
	query, args := ed.builder().Select("id", "title", "created_at").
		From(ed.builder().Table(entschema.WikisTableName)).
		Where(entsql.EQ("id", id)).
		Query()

	w := &storage.Wiki{Members: []string{}}
	err := ed.DB.QueryRowContext(ctx, query, args...).Scan(&w.ID, &w.Title, &w.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.NotFoundError{Kind: "wiki", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wiki: %w", err)
	}

	query, args = ed.builder().Select("member_id").
		From(ed.builder().Table(entschema.WikiMembersTableName)).
		Where(entsql.EQ("wiki_id", id)).
		OrderBy("member_id").
		Query()
	rows, err := ed.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get wiki members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, fmt.Errorf("failed to scan wiki member: %w", err)
		}
		w.Members = append(w.Members, m)
	}
	return w, rows.Err()
}

func (ed *EntDriver) CreateDocument(ctx context.Context, doc *storage.Document) error {
	if doc == nil {
		return errors.New("cannot store nil document")
	}
	storage.PrepareDocument(doc, ed.now())

	return ed.withTx(ctx, func(tx *sql.Tx) error {
		query, args := ed.builder().Insert(entschema.DocumentsTableName).
			Columns("id", "wiki_id", "title", "body", "embedding", "created_at", "updated_at").
			Values(doc.ID, doc.WikiID, doc.Title, doc.Text, encodeEmbedding(doc.Embedding), doc.CreatedAt, doc.UpdatedAt).
			Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			switch {
			case sqlgraph.IsForeignKeyConstraintError(err):
				return storage.NotFoundError{Kind: "wiki", ID: doc.WikiID}
			case sqlgraph.IsUniqueConstraintError(err):
				return storage.ErrConflict
			}
			return fmt.Errorf("failed to insert document: %w", err)
		}

		return ed.insertTags(ctx, tx, doc.ID, doc.Tags)
	})
}

func (ed *EntDriver) insertTags(ctx context.Context, tx execer, docID string, tags []string) error {
	seen := make(map[string]bool, len(tags))
	for i, t := range tags {
		if seen[t] {
			continue
		}
		seen[t] = true

		query, args := ed.builder().Insert(entschema.DocumentTagsTableName).
			Columns("document_id", "tag_id", "position").
			Values(docID, t, i).
			Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert document tag: %w", err)
		}
	}
	return nil
}

func (ed *EntDriver) selectDocuments(ctx context.Context, pred *entsql.Predicate) ([]*storage.Document, error) {
	query, args := ed.builder().Select("id", "wiki_id", "title", "body", "embedding", "created_at", "updated_at").
		From(ed.builder().Table(entschema.DocumentsTableName)).
		Where(pred).
		OrderBy("created_at", "id").
		Query()

	rows, err := ed.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	docs := []*storage.Document{}
	for rows.Next() {
		d := &storage.Document{Tags: []string{}}
		var blob []byte
		if err := rows.Scan(&d.ID, &d.WikiID, &d.Title, &d.Text, &blob, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		if len(blob) > 0 {
			if d.Embedding, err = vector.DecodeFloat32(blob); err != nil {
				return nil, fmt.Errorf("document %s: %w", d.ID, err)
			}
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}
	rows.Close()

	if err := ed.loadTags(ctx, docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (ed *EntDriver) loadTags(ctx context.Context, docs []*storage.Document) error {
	if len(docs) == 0 {
		return nil
	}

	byID := make(map[string]*storage.Document, len(docs))
	ids := make([]string, len(docs))
	for i, d := range docs {
		byID[d.ID] = d
		ids[i] = d.ID
	}

	query, args := ed.builder().Select("document_id", "tag_id").
		From(ed.builder().Table(entschema.DocumentTagsTableName)).
		Where(entsql.In("document_id", toAny(ids)...)).
		OrderBy("document_id", "position").
		Query()

	rows, err := ed.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to query document tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var docID, tagID string
		if err := rows.Scan(&docID, &tagID); err != nil {
			return fmt.Errorf("failed to scan document tag: %w", err)
		}
		if d, ok := byID[docID]; ok {
			d.Tags = append(d.Tags, tagID)
		}
	}
	return rows.Err()
}

func (ed *EntDriver) GetDocument(ctx context.Context, id string) (*storage.Document, error) {
	docs, err := ed.selectDocuments(ctx, entsql.EQ("id", id))
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, storage.NotFoundError{Kind: "document", ID: id}
	}
	return docs[0], nil
}

func (ed *EntDriver) GetDocuments(ctx context.Context, ids []string) (map[string]*storage.Document, error) {
	out := make(map[string]*storage.Document, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	docs, err := ed.selectDocuments(ctx, entsql.In("id", toAny(ids)...))
	if err != nil {
		return nil, err
	}
	for _, d := range docs {
		out[d.ID] = d
	}
	return out, nil
}

func (ed *EntDriver) ListDocuments(ctx context.Context, wikiID string) ([]*storage.Document, error) {
	return ed.selectDocuments(ctx, entsql.EQ("wiki_id", wikiID))
}

func (ed *EntDriver) UpdateDocument(ctx context.Context, doc *storage.Document) error {
	if doc == nil {
		return errors.New("cannot update nil document")
	}

	return ed.withTx(ctx, func(tx *sql.Tx) error {
		query, args := ed.builder().Select("wiki_id", "created_at").
			From(ed.builder().Table(entschema.DocumentsTableName)).
			Where(entsql.EQ("id", doc.ID)).
			Query()
		err := tx.QueryRowContext(ctx, query, args...).Scan(&doc.WikiID, &doc.CreatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return storage.NotFoundError{Kind: "document", ID: doc.ID}
		}
		if err != nil {
			return fmt.Errorf("failed to load document: %w", err)
		}

		doc.UpdatedAt = ed.now()
		if doc.Tags == nil {
			doc.Tags = []string{}
		}

		query, args = ed.builder().Update(entschema.DocumentsTableName).
			Set("title", doc.Title).
			Set("body", doc.Text).
			Set("embedding", encodeEmbedding(doc.Embedding)).
			Set("updated_at", doc.UpdatedAt).
			Where(entsql.EQ("id", doc.ID)).
			Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to update document: %w", err)
		}

		query, args = ed.builder().Delete(entschema.DocumentTagsTableName).
			Where(entsql.EQ("document_id", doc.ID)).
			Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to clear document tags: %w", err)
		}

		return ed.insertTags(ctx, tx, doc.ID, doc.Tags)
	})
}

func (ed *EntDriver) DeleteDocument(ctx context.Context, id string) error {
	return ed.withTx(ctx, func(tx *sql.Tx) error {
		query, args := ed.builder().Delete(entschema.DocumentTagsTableName).
			Where(entsql.EQ("document_id", id)).
			Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to delete document tags: %w", err)
		}

		query, args = ed.builder().Delete(entschema.DocumentsTableName).
			Where(entsql.EQ("id", id)).
			Query()
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to delete document: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read affected rows: %w", err)
		}
		if n == 0 {
			return storage.NotFoundError{Kind: "document", ID: id}
		}
		return nil
	})
}

func (ed *EntDriver) FindDocumentIDsByTags(ctx context.Context, wikiID string, tagIDs []string) ([]string, error) {
	ids := []string{}
	if len(tagIDs) == 0 {
		return ids, nil
	}

	b := ed.builder()
	dt := b.Table(entschema.DocumentTagsTableName).As("dt")
	d := b.Table(entschema.DocumentsTableName).As("d")
	query, args := b.Select(dt.C("document_id")).
		Distinct().
		From(dt).
		Join(d).On(dt.C("document_id"), d.C("id")).
		Where(entsql.And(
			entsql.EQ(d.C("wiki_id"), wikiID),
			entsql.In(dt.C("tag_id"), toAny(tagIDs)...),
		)).
		OrderBy(dt.C("document_id")).
		Query()

	rows, err := ed.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents by tag: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan document id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (ed *EntDriver) CreateTag(ctx context.Context, tag *storage.Tag) error {
	if tag == nil {
		return errors.New("cannot store nil tag")
	}
	storage.PrepareTag(tag)

	query, args := ed.builder().Insert(entschema.TagsTableName).
		Columns("id", "name", "color_fg", "color_bg").
		Values(tag.ID, tag.Name, tag.Color.FG, tag.Color.BG).
		Query()
	if _, err := ed.DB.ExecContext(ctx, query, args...); err != nil {
		if sqlgraph.IsUniqueConstraintError(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("failed to insert tag: %w", err)
	}
	return nil
}

func (ed *EntDriver) ListTags(ctx context.Context) ([]*storage.Tag, error) {
	query, args := ed.builder().Select("id", "name", "color_fg", "color_bg").
		From(ed.builder().Table(entschema.TagsTableName)).
		OrderBy("name").
		Query()

	rows, err := ed.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer rows.Close()

	tags := []*storage.Tag{}
	for rows.Next() {
		t := &storage.Tag{}
		if err := rows.Scan(&t.ID, &t.Name, &t.Color.FG, &t.Color.BG); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// Close closes the underlying database.
func (ed *EntDriver) Close() error {
	return ed.DB.Close()
}

func encodeEmbedding(v []float32) []byte {
	if len(v) == 0 {
		return nil
	}
	return vector.EncodeFloat32(v)
}

var _ storage.Driver = (*EntDriver)(nil)
