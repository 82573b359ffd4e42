// Package embeddings defines the Embedder client interface and the concurrent
// fetch pool used to embed a document's windows.
package embeddings

import "context"

// Embedder provides text embedding capabilities.
type Embedder interface {
	// Embed converts text into a vector embedding. Failures wrap
	// ErrProviderFailure.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Close releases any resources held by the embedder.
	Close() error
}
