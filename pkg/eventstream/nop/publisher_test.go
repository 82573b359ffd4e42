package nop_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/folio/pkg/eventstream"
	"github.com/papercomputeco/folio/pkg/eventstream/nop"
)

var _ = Describe("Publisher", func() {
	It("returns ErrNilDocumentEvent for nil events", func() {
		p := nop.NewPublisher()
		err := p.PublishDocument(context.Background(), nil)
		Expect(err).To(MatchError(eventstream.ErrNilDocumentEvent))
	})

	It("accepts events and closes cleanly", func() {
		p := nop.NewPublisher()
		event := eventstream.NewDocumentEvent(eventstream.EventTypeDocumentDeleted, eventstream.DocumentMeta{ID: "d-1"})
		Expect(p.PublishDocument(context.Background(), event)).To(Succeed())
		Expect(p.Close()).To(Succeed())
	})
})
