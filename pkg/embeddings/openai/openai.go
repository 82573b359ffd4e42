// Package openai implements pkg/embeddings's Embedder client for the OpenAI
// embeddings API.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/papercomputeco/folio/pkg/embeddings"
)

const (
	// DefaultEmbeddingModel is the default model used for embeddings.
	DefaultEmbeddingModel = "text-embedding-3-small"

	// DefaultBaseURL is the default OpenAI API URL.
	DefaultBaseURL = "https://api.openai.com"

	// DefaultDimensions is the native size of text-embedding-3-small.
	DefaultDimensions = 1536
)

// Embedder wraps OpenAI's /v1/embeddings endpoint.
type Embedder struct {
	baseURL    string
	apiKey     string
	model      string
	dimensions int
	httpClient *http.Client
}

// EmbedderConfig holds configuration for the OpenAI embedder.
type EmbedderConfig struct {
	// BaseURL defaults to DefaultBaseURL. OpenAI-compatible servers work too.
	BaseURL string

	// APIKey is sent as a bearer token. Required.
	APIKey string

	Model string

	// Dimensions is forwarded to models that can shorten their output.
	Dimensions int

	Timeout time.Duration
}

type embedRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	EncodingFormat string `json:"encoding_format"`
	Dimensions     int    `json:"dimensions,omitempty"`
}

type embedResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// NewEmbedder creates a new OpenAI embedder.
func NewEmbedder(cfg EmbedderConfig) (*Embedder, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai API key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultEmbeddingModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &Embedder{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		model:      model,
		dimensions: cfg.Dimensions,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Embed converts text into a vector embedding with a single API call.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	header := http.Header{"Authorization": {"Bearer " + e.apiKey}}
	req := embedRequest{
		Model:          e.model,
		Input:          text,
		EncodingFormat: "float",
		Dimensions:     e.dimensions,
	}

	var resp embedResponse
	if err := embeddings.PostJSON(ctx, e.httpClient, "openai", e.baseURL+"/v1/embeddings", header, req, &resp); err != nil {
		var status *embeddings.StatusError
		var apiErr errorResponse
		if errors.As(err, &status) && json.Unmarshal(status.Body, &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("%w: openai returned status %d: %s", embeddings.ErrProviderFailure, status.Code, apiErr.Error.Message)
		}
		return nil, err
	}

	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("%w: no embeddings returned", embeddings.ErrProviderFailure)
	}
	return resp.Data[0].Embedding, nil
}

// Close releases resources held by the embedder.
func (e *Embedder) Close() error {
	return nil
}

var _ embeddings.Embedder = (*Embedder)(nil)
