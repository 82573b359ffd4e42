package nop

import (
	"context"

	"github.com/papercomputeco/folio/pkg/eventstream"
)

// Publisher is a no-op eventstream publisher used for tests and disabled mode.
type Publisher struct{}

// NewPublisher creates a new no-op eventstream publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// PublishDocument validates input and otherwise does nothing.
func (p *Publisher) PublishDocument(_ context.Context, event *eventstream.DocumentEvent) error {
	if event == nil {
		return eventstream.ErrNilDocumentEvent
	}

	return nil
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}
