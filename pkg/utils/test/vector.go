package testutils

import (
	"context"
	"errors"
	"sync"

	"github.com/papercomputeco/folio/pkg/vector"
)

// ErrMockVector is returned by MockVectorDriver when a failure flag is set.
var ErrMockVector = errors.New("mock vector failure")

// MockVectorDriver is a test vector driver that records calls and returns
// configured results.
type MockVectorDriver struct {
	mu sync.Mutex

	// Chunks accumulates all chunks passed to Add.
	Chunks []vector.Chunk

	// Results is returned by Query, truncated to the query limit.
	Results []vector.QueryResult

	// Queries records every query received.
	Queries []vector.Query

	FailAdd    bool
	FailQuery  bool
	FailDelete bool
}

func NewMockVectorDriver() *MockVectorDriver {
	return &MockVectorDriver{
		Chunks:  make([]vector.Chunk, 0),
		Results: make([]vector.QueryResult, 0),
	}
}

func (m *MockVectorDriver) Add(_ context.Context, chunks []vector.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAdd {
		return ErrMockVector
	}
	m.Chunks = append(m.Chunks, chunks...)
	return nil
}

func (m *MockVectorDriver) Query(_ context.Context, q vector.Query) ([]vector.QueryResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Queries = append(m.Queries, q)
	if m.FailQuery {
		return nil, ErrMockVector
	}
	q = q.Normalize()
	if len(m.Results) < q.Limit {
		return m.Results, nil
	}
	return m.Results[:q.Limit], nil
}

func (m *MockVectorDriver) DeleteDocument(_ context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailDelete {
		return ErrMockVector
	}
	kept := m.Chunks[:0]
	for _, c := range m.Chunks {
		if c.DocumentID != documentID {
			kept = append(kept, c)
		}
	}
	m.Chunks = kept
	return nil
}

func (m *MockVectorDriver) CountDocument(_ context.Context, documentID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.Chunks {
		if c.DocumentID == documentID {
			n++
		}
	}
	return n, nil
}

func (m *MockVectorDriver) Close() error {
	return nil
}
