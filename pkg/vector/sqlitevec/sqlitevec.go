// Package sqlitevec provides a SQLite-backed vector driver using sqlite-vec.
package sqlitevec

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/papercomputeco/folio/pkg/vector"
)

// Driver implements vector.Driver using SQLite with sqlite-vec.
type Driver struct {
	db         *sql.DB
	dimensions int
	logger     *slog.Logger
}

// Config holds configuration for the SQLite vec driver.
type Config struct {
	// DBPath is the path to the SQLite database file.
	// Use ":memory:" for an in-memory database.
	DBPath string

	// Dimensions is the number of dimensions for the embedding vectors.
	Dimensions uint
}

// NewDriver creates a new SQLite vector driver backed by sqlite-vec.
func NewDriver(c Config, logger *slog.Logger) (*Driver, error) {
	// enable connection to have sqlite-vec extension
	sqlite_vec.Auto()

	if c.DBPath == "" {
		return nil, errors.New("database path is required")
	}
	if c.Dimensions == 0 {
		return nil, errors.New("sqlite-vec embedding dimensions cannot be 0, must be configured")
	}

	db, err := sql.Open("sqlite3", c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// A ":memory:" database is private to its connection.
	db.SetMaxOpenConns(1)

	var vecVersion string
	if err := db.QueryRow("SELECT vec_version()").Scan(&vecVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite-vec not available: %w", err)
	}

	// vec0 virtual tables use integer rowids, so chunk metadata lives in a
	// mapping table keyed by the same rowid.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS vec_chunks (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			chunk_id TEXT NOT NULL UNIQUE,
			document_id TEXT NOT NULL,
			wiki_id TEXT NOT NULL DEFAULT '',
			chunk_index INTEGER NOT NULL DEFAULT 0,
			text TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS vec_chunks_document_id ON vec_chunks(document_id);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating chunks table: %w", err)
	}

	createVec := fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS vec_chunk_embeddings USING vec0(
			wiki_id text partition key,
			embedding float[%d] distance_metric=cosine
		)`,
		c.Dimensions,
	)
	if _, err := db.Exec(createVec); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating vec0 table: %w", err)
	}

	logger.Info("sqlite-vec vector driver initialized",
		"db_path", c.DBPath,
		"dimensions", c.Dimensions,
		"vec_version", vecVersion,
	)

	return &Driver{
		db:         db,
		dimensions: int(c.Dimensions),
		logger:     logger,
	}, nil
}

// Add stores chunks with their embeddings.
// If a chunk with the same ID already exists, it is replaced.
func (d *Driver) Add(ctx context.Context, chunks []vector.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, c := range chunks {
		if err := vector.CheckDimensions(c.Embedding, d.dimensions); err != nil {
			return fmt.Errorf("chunk %s: %w", c.ID, err)
		}
		blob := vector.EncodeFloat32(c.Embedding)

		var existing int64
		err := tx.QueryRowContext(ctx,
			`SELECT rowid FROM vec_chunks WHERE chunk_id = ?`, c.ID,
		).Scan(&existing)

		switch {
		case err == nil:
			// vec0 does not support UPDATE
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM vec_chunk_embeddings WHERE rowid = ?`, existing,
			); err != nil {
				return fmt.Errorf("deleting old embedding for chunk %s: %w", c.ID, err)
			}
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM vec_chunks WHERE rowid = ?`, existing,
			); err != nil {
				return fmt.Errorf("deleting old chunk %s: %w", c.ID, err)
			}
		case errors.Is(err, sql.ErrNoRows):
		default:
			return fmt.Errorf("checking for existing chunk %s: %w", c.ID, err)
		}

		result, err := tx.ExecContext(ctx,
			`INSERT INTO vec_chunks(chunk_id, document_id, wiki_id, chunk_index, text) VALUES (?, ?, ?, ?, ?)`,
			c.ID, c.DocumentID, c.WikiID, c.Index, c.Text,
		)
		if err != nil {
			return fmt.Errorf("inserting chunk %s: %w", c.ID, err)
		}

		rowID, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("getting rowid for chunk %s: %w", c.ID, err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO vec_chunk_embeddings(rowid, wiki_id, embedding) VALUES (?, ?, ?)`,
			rowID, c.WikiID, blob,
		); err != nil {
			return fmt.Errorf("inserting embedding for chunk %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	d.logger.Debug("added chunks to sqlite-vec", "count", len(chunks))
	return nil
}

// Query runs a KNN search over the vec0 index. When the filter carries a
// document allow-list the matching rows are scored exhaustively instead, so
// allowed chunks are never crowded out of the candidate pool.
func (d *Driver) Query(ctx context.Context, q vector.Query) ([]vector.QueryResult, error) {
	q = q.Normalize()
	if q.Filter.Excludes() {
		return []vector.QueryResult{}, nil
	}
	if err := vector.CheckDimensions(q.Embedding, d.dimensions); err != nil {
		return nil, fmt.Errorf("query embedding: %w", err)
	}

	blob := vector.EncodeFloat32(q.Embedding)

	var (
		query string
		args  []any
	)

	if q.Filter.DocumentIDs == nil {
		query = `
			SELECT c.chunk_id, c.document_id, c.wiki_id, c.chunk_index, c.text, e.distance
			FROM vec_chunk_embeddings e
			INNER JOIN vec_chunks c ON c.rowid = e.rowid
			WHERE e.embedding MATCH ?
				AND e.k = ?`
		args = []any{blob, q.CandidatePool}
		if q.Filter.WikiID != "" {
			query += ` AND e.wiki_id = ?`
			args = append(args, q.Filter.WikiID)
		}
		query += ` ORDER BY e.distance LIMIT ?`
		args = append(args, q.Limit)
	} else {
		placeholders := make([]string, len(q.Filter.DocumentIDs))
		args = []any{blob}
		for i, id := range q.Filter.DocumentIDs {
			placeholders[i] = "?"
			args = append(args, id)
		}
		query = fmt.Sprintf(`
			SELECT c.chunk_id, c.document_id, c.wiki_id, c.chunk_index, c.text,
				vec_distance_cosine(e.embedding, ?) AS distance
			FROM vec_chunk_embeddings e
			INNER JOIN vec_chunks c ON c.rowid = e.rowid
			WHERE c.document_id IN (%s)`, strings.Join(placeholders, ","))
		if q.Filter.WikiID != "" {
			query += ` AND c.wiki_id = ?`
			args = append(args, q.Filter.WikiID)
		}
		query += ` ORDER BY distance LIMIT ?`
		args = append(args, q.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	results := []vector.QueryResult{}
	for rows.Next() {
		var (
			r        vector.QueryResult
			distance float64
		)
		if err := rows.Scan(&r.ID, &r.DocumentID, &r.WikiID, &r.Index, &r.Text, &distance); err != nil {
			return nil, fmt.Errorf("scanning query result: %w", err)
		}

		// cosine distance is 1 - cosine similarity
		r.Score = float32(1 - distance)
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating query results: %w", err)
	}

	d.logger.Debug("queried sqlite-vec", "results", len(results))
	return results, nil
}

// DeleteDocument removes every chunk belonging to documentID.
func (d *Driver) DeleteDocument(ctx context.Context, documentID string) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT rowid FROM vec_chunks WHERE document_id = ?`, documentID,
	)
	if err != nil {
		return fmt.Errorf("querying rowids for deletion: %w", err)
	}

	var rowIDs []int64
	for rows.Next() {
		var rowID int64
		if err := rows.Scan(&rowID); err != nil {
			rows.Close()
			return fmt.Errorf("scanning rowid: %w", err)
		}
		rowIDs = append(rowIDs, rowID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating rowids: %w", err)
	}

	for _, rowID := range rowIDs {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM vec_chunk_embeddings WHERE rowid = ?`, rowID,
		); err != nil {
			return fmt.Errorf("deleting embedding rowid %d: %w", rowID, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM vec_chunks WHERE document_id = ?`, documentID,
	); err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	d.logger.Debug("deleted document chunks from sqlite-vec",
		"document_id", documentID,
		"count", len(rowIDs),
	)
	return nil
}

// CountDocument returns the number of chunks stored for documentID.
func (d *Driver) CountDocument(ctx context.Context, documentID string) (int, error) {
	var n int
	if err := d.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM vec_chunks WHERE document_id = ?`, documentID,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

// Close releases resources held by the driver.
func (d *Driver) Close() error {
	return d.db.Close()
}
