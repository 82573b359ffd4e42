// Package eventstreamutils builds an eventstream.Publisher from configuration.
package eventstreamutils

import (
	"fmt"
	"log/slog"

	"github.com/papercomputeco/folio/pkg/eventstream"
	"github.com/papercomputeco/folio/pkg/eventstream/kafka"
	"github.com/papercomputeco/folio/pkg/eventstream/nop"
)

type NewPublisherOpts struct {
	// ProviderType is "kafka" or "nop". Empty means nop.
	ProviderType string
	Brokers      []string
	Topic        string
	Logger       *slog.Logger
}

func NewPublisher(o *NewPublisherOpts) (eventstream.Publisher, error) {
	switch o.ProviderType {
	case "", "nop", "none":
		return nop.NewPublisher(), nil
	case "kafka":
		return kafka.NewPublisher(kafka.Config{Brokers: o.Brokers, Topic: o.Topic}, o.Logger)
	default:
		return nil, fmt.Errorf("unsupported eventstream provider: %s", o.ProviderType)
	}
}
