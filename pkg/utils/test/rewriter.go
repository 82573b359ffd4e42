package testutils

import (
	"context"
	"errors"
	"sync"
)

// ErrMockRewrite is returned by MockRewriter when Fail is set.
var ErrMockRewrite = errors.New("mock rewrite failure")

// MockRewriter returns Output (or the query itself when Output is empty) and
// records every call.
type MockRewriter struct {
	Output string
	Fail   bool

	mu    sync.Mutex
	calls []string
	tags  [][]string
}

func (m *MockRewriter) Rewrite(_ context.Context, query string, tags []string) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, query)
	m.tags = append(m.tags, append([]string(nil), tags...))
	m.mu.Unlock()

	if m.Fail {
		return "", ErrMockRewrite
	}
	if m.Output == "" {
		return query, nil
	}
	return m.Output, nil
}

// Calls returns the queries passed to Rewrite so far.
func (m *MockRewriter) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// Tags returns the tag lists passed to Rewrite so far.
func (m *MockRewriter) Tags() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]string(nil), m.tags...)
}
