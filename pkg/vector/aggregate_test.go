package vector_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/folio/pkg/vector"
)

var _ = Describe("Average", func() {
	It("returns the per-dimension mean", func() {
		avg, err := vector.Average([][]float32{{1, 2}, {3, 4}})
		Expect(err).NotTo(HaveOccurred())
		Expect(avg).To(Equal([]float32{2, 3}))
	})

	It("returns a copy of a single vector", func() {
		in := []float32{0.5, -0.25, 1}
		avg, err := vector.Average([][]float32{in})
		Expect(err).NotTo(HaveOccurred())
		Expect(avg).To(Equal(in))
	})

	It("fails on empty input", func() {
		_, err := vector.Average(nil)
		Expect(errors.Is(err, vector.ErrEmptyInput)).To(BeTrue())
	})

	It("fails on vectors of differing length", func() {
		_, err := vector.Average([][]float32{{1, 2}, {3}})
		Expect(errors.Is(err, vector.ErrDimensionMismatch)).To(BeTrue())
	})
})

var _ = Describe("CheckDimensions", func() {
	It("accepts vectors of the configured length", func() {
		Expect(vector.CheckDimensions([]float32{1, 2, 3}, 3)).To(Succeed())
	})

	It("rejects other lengths", func() {
		err := vector.CheckDimensions([]float32{1, 2}, 3)
		Expect(errors.Is(err, vector.ErrDimensionMismatch)).To(BeTrue())
	})
})

var _ = Describe("CosineSimilarity", func() {
	It("is 1 for parallel vectors", func() {
		Expect(vector.CosineSimilarity([]float32{1, 2}, []float32{2, 4})).To(BeNumerically("~", 1, 1e-6))
	})

	It("is 0 for orthogonal vectors", func() {
		Expect(vector.CosineSimilarity([]float32{1, 0}, []float32{0, 1})).To(BeNumerically("~", 0, 1e-6))
	})

	It("is 0 for zero or mismatched vectors", func() {
		Expect(vector.CosineSimilarity([]float32{0, 0}, []float32{1, 1})).To(BeZero())
		Expect(vector.CosineSimilarity([]float32{1}, []float32{1, 1})).To(BeZero())
	})
})

var _ = Describe("Float32 encoding", func() {
	It("round-trips through little-endian bytes", func() {
		in := []float32{0.1, -2.5, 3}
		blob := vector.EncodeFloat32(in)
		Expect(blob).To(HaveLen(12))

		out, err := vector.DecodeFloat32(blob)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal(in))
	})

	It("rejects blobs that are not a multiple of four bytes", func() {
		_, err := vector.DecodeFloat32([]byte{1, 2, 3})
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Query", func() {
	It("fills in defaults", func() {
		q := vector.Query{}.Normalize()
		Expect(q.Limit).To(Equal(vector.DefaultLimit))
		Expect(q.CandidatePool).To(Equal(vector.DefaultCandidatePool))
	})

	It("widens the candidate pool to the limit", func() {
		q := vector.Query{Limit: 50, CandidatePool: 5}.Normalize()
		Expect(q.CandidatePool).To(Equal(50))
	})
})

var _ = Describe("Filter", func() {
	chunk := vector.Chunk{ID: "c", DocumentID: "d", WikiID: "w"}

	It("allows anything when empty", func() {
		Expect(vector.Filter{}.Allows(chunk)).To(BeTrue())
		Expect(vector.Filter{}.Excludes()).To(BeFalse())
	})

	It("checks the wiki and document allow-list", func() {
		Expect(vector.Filter{WikiID: "other"}.Allows(chunk)).To(BeFalse())
		Expect(vector.Filter{WikiID: "w", DocumentIDs: []string{"x", "d"}}.Allows(chunk)).To(BeTrue())
		Expect(vector.Filter{DocumentIDs: []string{"x"}}.Allows(chunk)).To(BeFalse())
	})

	It("excludes everything for an empty allow-list", func() {
		f := vector.Filter{DocumentIDs: []string{}}
		Expect(f.Excludes()).To(BeTrue())
		Expect(f.Allows(chunk)).To(BeFalse())
	})
})
