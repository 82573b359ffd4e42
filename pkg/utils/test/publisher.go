package testutils

import (
	"context"
	"errors"
	"sync"

	"github.com/papercomputeco/folio/pkg/eventstream"
)

// ErrMockPublish is returned by MockPublisher when Fail is set.
var ErrMockPublish = errors.New("mock publish failure")

// MockPublisher records published document events.
type MockPublisher struct {
	Fail bool

	mu     sync.Mutex
	events []*eventstream.DocumentEvent
}

func (m *MockPublisher) PublishDocument(_ context.Context, event *eventstream.DocumentEvent) error {
	if event == nil {
		return eventstream.ErrNilDocumentEvent
	}
	if m.Fail {
		return ErrMockPublish
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

// Events returns the published events in order.
func (m *MockPublisher) Events() []*eventstream.DocumentEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*eventstream.DocumentEvent(nil), m.events...)
}

// EventTypes returns the types of the published events in order.
func (m *MockPublisher) EventTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.events))
	for i, e := range m.events {
		out[i] = e.EventType
	}
	return out
}

func (m *MockPublisher) Close() error {
	return nil
}
