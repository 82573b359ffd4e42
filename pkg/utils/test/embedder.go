package testutils

import (
	"context"
	"fmt"
	"sync"

	"github.com/papercomputeco/folio/pkg/embeddings"
)

// MockEmbedder is a test embedder that returns predictable embeddings
type MockEmbedder struct {
	Embeddings map[string][]float32

	// Default is returned for text without an entry in Embeddings.
	Default []float32

	// FailOn causes Embed to return an error when the input text matches
	FailOn map[string]bool

	// FailAll causes every Embed call to fail.
	FailAll bool

	mu    sync.Mutex
	calls []string
}

func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{
		Embeddings: make(map[string][]float32),
		Default:    []float32{0.1, 0.2, 0.3},
		FailOn:     make(map[string]bool),
	}
}

func (m *MockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.calls = append(m.calls, text)
	m.mu.Unlock()

	if m.FailAll || m.FailOn[text] {
		return nil, fmt.Errorf("%w: mock embedding failure for: %s", embeddings.ErrProviderFailure, text)
	}

	if emb, ok := m.Embeddings[text]; ok {
		return emb, nil
	}

	// Return a default embedding for any text
	return m.Default, nil
}

// Calls returns the texts passed to Embed so far.
func (m *MockEmbedder) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *MockEmbedder) Close() error {
	return nil
}
