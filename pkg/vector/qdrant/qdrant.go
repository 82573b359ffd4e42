// Package qdrant provides a Qdrant vector database driver over gRPC.
package qdrant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"

	"github.com/papercomputeco/folio/pkg/vector"
)

const (
	// DefaultCollectionName is the default collection name for storing folio chunks.
	DefaultCollectionName = "folio"

	// DefaultPort is Qdrant's gRPC port.
	DefaultPort = 6334

	payloadChunkID    = "chunk_id"
	payloadDocumentID = "document_id"
	payloadWikiID     = "wiki_id"
	payloadIndex      = "chunk_index"
	payloadText       = "text"
)

// chunkNamespace derives stable point IDs for chunk IDs that are not UUIDs.
var chunkNamespace = uuid.MustParse("7d1f5c1e-3b8a-4e52-9f0e-5a6c2d9b8e41")

// Config holds configuration for the Qdrant driver.
type Config struct {
	Host   string
	Port   int
	APIKey string
	UseTLS bool

	// CollectionName defaults to DefaultCollectionName if empty.
	CollectionName string

	// Dimensions is the vector size used when the collection is created.
	Dimensions uint
}

// Driver implements vector.Driver using Qdrant.
type Driver struct {
	client     *pb.Client
	collection string
	logger     *slog.Logger
}

// NewDriver connects to Qdrant and creates the collection with cosine
// distance if it does not exist yet.
func NewDriver(ctx context.Context, c Config, logger *slog.Logger) (*Driver, error) {
	if c.Host == "" {
		return nil, errors.New("qdrant host is required")
	}
	if c.Dimensions == 0 {
		return nil, errors.New("qdrant embedding dimensions cannot be 0, must be configured")
	}

	port := c.Port
	if port == 0 {
		port = DefaultPort
	}
	collection := c.CollectionName
	if collection == "" {
		collection = DefaultCollectionName
	}

	client, err := pb.NewClient(&pb.Config{
		Host:   c.Host,
		Port:   port,
		APIKey: c.APIKey,
		UseTLS: c.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant connect: %w: %w", vector.ErrConnection, err)
	}

	exists, err := client.CollectionExists(ctx, collection)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("checking collection %q: %w", collection, err)
	}
	if !exists {
		err := client.CreateCollection(ctx, &pb.CreateCollection{
			CollectionName: collection,
			VectorsConfig: pb.NewVectorsConfig(&pb.VectorParams{
				Size:     uint64(c.Dimensions),
				Distance: pb.Distance_Cosine,
			}),
		})
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("creating collection %q: %w", collection, err)
		}
	}

	logger.Info("connected to Qdrant",
		"host", c.Host,
		"port", port,
		"collection", collection,
		"created", !exists,
	)

	return &Driver{
		client:     client,
		collection: collection,
		logger:     logger,
	}, nil
}

// pointID maps a chunk ID onto a Qdrant point ID. Qdrant only accepts UUIDs
// or unsigned integers.
func pointID(chunkID string) *pb.PointId {
	if id, err := uuid.Parse(chunkID); err == nil {
		return pb.NewID(id.String())
	}
	return pb.NewID(uuid.NewSHA1(chunkNamespace, []byte(chunkID)).String())
}

// Add upserts chunks as points carrying their metadata in the payload.
func (d *Driver) Add(ctx context.Context, chunks []vector.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	points := make([]*pb.PointStruct, len(chunks))
	for i, c := range chunks {
		points[i] = &pb.PointStruct{
			Id:      pointID(c.ID),
			Vectors: pb.NewVectors(c.Embedding...),
			Payload: pb.NewValueMap(map[string]any{
				payloadChunkID:    c.ID,
				payloadDocumentID: c.DocumentID,
				payloadWikiID:     c.WikiID,
				payloadIndex:      int64(c.Index),
				payloadText:       c.Text,
			}),
		}
	}

	_, err := d.client.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: d.collection,
		Wait:           pb.PtrOf(true),
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("upserting points: %w", err)
	}

	d.logger.Debug("added chunks to qdrant", "count", len(chunks))
	return nil
}

// Query searches the collection. The candidate pool is passed to the HNSW
// search as its ef parameter.
func (d *Driver) Query(ctx context.Context, q vector.Query) ([]vector.QueryResult, error) {
	q = q.Normalize()
	if q.Filter.Excludes() {
		return []vector.QueryResult{}, nil
	}

	points, err := d.client.Query(ctx, &pb.QueryPoints{
		CollectionName: d.collection,
		Query:          pb.NewQuery(q.Embedding...),
		Filter:         buildFilter(q.Filter),
		Limit:          pb.PtrOf(uint64(q.Limit)),
		Params:         &pb.SearchParams{HnswEf: pb.PtrOf(uint64(q.CandidatePool))},
		WithPayload:    pb.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("querying points: %w", err)
	}

	results := make([]vector.QueryResult, 0, len(points))
	for _, p := range points {
		results = append(results, vector.QueryResult{
			Chunk: chunkFromPayload(p.GetPayload()),
			Score: p.GetScore(),
		})
	}

	d.logger.Debug("queried qdrant", "results", len(results))
	return results, nil
}

// DeleteDocument removes every point whose payload references documentID.
func (d *Driver) DeleteDocument(ctx context.Context, documentID string) error {
	_, err := d.client.Delete(ctx, &pb.DeletePoints{
		CollectionName: d.collection,
		Wait:           pb.PtrOf(true),
		Points:         pb.NewPointsSelectorFilter(documentFilter(documentID)),
	})
	if err != nil {
		return fmt.Errorf("deleting points: %w", err)
	}

	d.logger.Debug("deleted document chunks from qdrant", "document_id", documentID)
	return nil
}

// CountDocument returns the exact number of points stored for documentID.
func (d *Driver) CountDocument(ctx context.Context, documentID string) (int, error) {
	n, err := d.client.Count(ctx, &pb.CountPoints{
		CollectionName: d.collection,
		Filter:         documentFilter(documentID),
		Exact:          pb.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("counting points: %w", err)
	}
	return int(n), nil
}

// Close closes the gRPC connection.
func (d *Driver) Close() error {
	return d.client.Close()
}

func documentFilter(documentID string) *pb.Filter {
	return &pb.Filter{
		Must: []*pb.Condition{pb.NewMatch(payloadDocumentID, documentID)},
	}
}

func buildFilter(f vector.Filter) *pb.Filter {
	var must []*pb.Condition
	if f.WikiID != "" {
		must = append(must, pb.NewMatch(payloadWikiID, f.WikiID))
	}
	if f.DocumentIDs != nil {
		must = append(must, pb.NewMatchKeywords(payloadDocumentID, f.DocumentIDs...))
	}
	if len(must) == 0 {
		return nil
	}
	return &pb.Filter{Must: must}
}

func chunkFromPayload(payload map[string]*pb.Value) vector.Chunk {
	return vector.Chunk{
		ID:         payload[payloadChunkID].GetStringValue(),
		DocumentID: payload[payloadDocumentID].GetStringValue(),
		WikiID:     payload[payloadWikiID].GetStringValue(),
		Index:      int(payload[payloadIndex].GetIntegerValue()),
		Text:       payload[payloadText].GetStringValue(),
	}
}
