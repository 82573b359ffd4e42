package qdrant

import (
	"context"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	pb "github.com/qdrant/go-client/qdrant"

	"github.com/papercomputeco/folio/pkg/logger"
	"github.com/papercomputeco/folio/pkg/vector"
)

var _ = Describe("Driver", func() {
	It("implements vector.Driver", func() {
		var _ vector.Driver = (*Driver)(nil)
	})

	It("requires a host", func() {
		_, err := NewDriver(context.Background(), Config{Dimensions: 4}, logger.Nop())
		Expect(err).To(MatchError(ContainSubstring("host is required")))
	})

	It("requires dimensions", func() {
		_, err := NewDriver(context.Background(), Config{Host: "localhost"}, logger.Nop())
		Expect(err).To(MatchError(ContainSubstring("dimensions")))
	})
})

var _ = Describe("pointID", func() {
	It("keeps UUID chunk IDs", func() {
		id := uuid.NewString()
		Expect(pointID(id).GetUuid()).To(Equal(id))
	})

	It("derives a stable UUID for other IDs", func() {
		a := pointID("chunk-1").GetUuid()
		Expect(a).To(Equal(pointID("chunk-1").GetUuid()))
		Expect(a).NotTo(Equal(pointID("chunk-2").GetUuid()))
		_, err := uuid.Parse(a)
		Expect(err).NotTo(HaveOccurred())
	})
})

var _ = Describe("buildFilter", func() {
	It("returns nil without conditions", func() {
		Expect(buildFilter(vector.Filter{})).To(BeNil())
	})

	It("matches the wiki and the document allow-list", func() {
		f := buildFilter(vector.Filter{WikiID: "w-1", DocumentIDs: []string{"a", "b"}})
		Expect(f.GetMust()).To(HaveLen(2))

		wiki := f.GetMust()[0].GetField()
		Expect(wiki.GetKey()).To(Equal("wiki_id"))
		Expect(wiki.GetMatch().GetKeyword()).To(Equal("w-1"))

		docs := f.GetMust()[1].GetField()
		Expect(docs.GetKey()).To(Equal("document_id"))
		Expect(docs.GetMatch().GetKeywords().GetStrings()).To(Equal([]string{"a", "b"}))
	})
})

var _ = Describe("chunkFromPayload", func() {
	It("restores chunk fields", func() {
		payload := pb.NewValueMap(map[string]any{
			"chunk_id":    "c-1",
			"document_id": "doc-a",
			"wiki_id":     "w-1",
			"chunk_index": int64(4),
			"text":        "alpha",
		})

		c := chunkFromPayload(payload)
		Expect(c).To(Equal(vector.Chunk{
			ID:         "c-1",
			DocumentID: "doc-a",
			WikiID:     "w-1",
			Index:      4,
			Text:       "alpha",
		}))
	})

	It("tolerates missing keys", func() {
		Expect(chunkFromPayload(nil)).To(Equal(vector.Chunk{}))
	})
})
