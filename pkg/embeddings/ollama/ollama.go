// Package ollama embeds text with a local Ollama server's /api/embed endpoint.
package ollama

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/papercomputeco/folio/pkg/embeddings"
)

const (
	DefaultEmbeddingModel = "nomic-embed-text"
	DefaultBaseURL        = "http://localhost:11434"

	defaultTimeout = 2 * time.Minute
)

// Embedder calls /api/embed with one input per request.
type Embedder struct {
	url        string
	model      string
	dimensions int
	client     *http.Client
}

// EmbedderConfig configures an Embedder. Zero values fall back to
// DefaultBaseURL, DefaultEmbeddingModel and a two minute timeout.
type EmbedderConfig struct {
	BaseURL string
	Model   string

	// Dimensions asks models that support it to truncate their output.
	// Zero leaves the model's native size.
	Dimensions int

	Timeout time.Duration
}

func NewEmbedder(cfg EmbedderConfig) (*Embedder, error) {
	e := &Embedder{
		url:        orDefault(cfg.BaseURL, DefaultBaseURL) + "/api/embed",
		model:      orDefault(cfg.Model, DefaultEmbeddingModel),
		dimensions: cfg.Dimensions,
		client:     &http.Client{Timeout: defaultTimeout},
	}
	if cfg.Timeout > 0 {
		e.client.Timeout = cfg.Timeout
	}
	return e, nil
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// Embed returns the vector of text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	req := struct {
		Model      string `json:"model"`
		Input      string `json:"input"`
		Dimensions int    `json:"dimensions,omitempty"`
	}{e.model, text, e.dimensions}

	var resp struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := embeddings.PostJSON(ctx, e.client, "ollama", e.url, nil, req, &resp); err != nil {
		return nil, err
	}

	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0]) == 0 {
		return nil, fmt.Errorf("%w: no embeddings returned", embeddings.ErrProviderFailure)
	}
	return resp.Embeddings[0], nil
}

func (e *Embedder) Close() error { return nil }

var _ embeddings.Embedder = (*Embedder)(nil)
