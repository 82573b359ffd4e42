package eventstream_test

import (
	"encoding/json"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/folio/pkg/eventstream"
)

var _ = Describe("Event", func() {
	It("marshals DocumentEvent with expected top-level keys", func() {
		event := eventstream.NewDocumentEvent(eventstream.EventTypeDocumentIngested, eventstream.DocumentMeta{
			ID:         "doc-1",
			WikiID:     "wiki-1",
			Title:      "Getting started",
			Tags:       []string{"tag-1"},
			ChunkCount: 3,
		})

		payload, err := json.Marshal(event)
		Expect(err).NotTo(HaveOccurred())

		var got map[string]any
		Expect(json.Unmarshal(payload, &got)).To(Succeed())

		Expect(got).To(HaveKeyWithValue("schema_version", BeNumerically("==", eventstream.SchemaVersionV1)))
		Expect(got).To(HaveKeyWithValue("event_type", "folio.document.ingested"))
		Expect(got).To(HaveKey("event_id"))
		Expect(got).To(HaveKey("emitted_at"))
		Expect(got).To(HaveKey("document"))
		Expect(got["document"]).To(HaveKeyWithValue("chunk_count", BeNumerically("==", 3)))
	})

	It("stamps unique event IDs", func() {
		a := eventstream.NewDocumentEvent(eventstream.EventTypeDocumentUpdated, eventstream.DocumentMeta{})
		b := eventstream.NewDocumentEvent(eventstream.EventTypeDocumentUpdated, eventstream.DocumentMeta{})
		Expect(a.EventID).NotTo(Equal(b.EventID))
		Expect(strings.HasPrefix(a.EventID, "evt_")).To(BeTrue())
		Expect(a.EmittedAt.IsZero()).To(BeFalse())
	})

	It("defines stable event constants", func() {
		Expect(eventstream.EventTypeDocumentIngested).To(Equal("folio.document.ingested"))
		Expect(eventstream.EventTypeDocumentUpdated).To(Equal("folio.document.updated"))
		Expect(eventstream.EventTypeDocumentDeleted).To(Equal("folio.document.deleted"))
	})
})
