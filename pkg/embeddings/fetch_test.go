package embeddings_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/folio/pkg/embeddings"
	testutils "github.com/papercomputeco/folio/pkg/utils/test"
)

// slowEmbedder tracks how many Embed calls are in flight at once.
type slowEmbedder struct {
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (s *slowEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	return []float32{1}, nil
}

func (s *slowEmbedder) Close() error { return nil }

var _ = Describe("FetchAll", func() {
	var (
		ctx      context.Context
		embedder *testutils.MockEmbedder
		windows  []string
	)

	BeforeEach(func() {
		ctx = context.Background()
		embedder = testutils.NewMockEmbedder()
		windows = nil
		for i := 0; i < 6; i++ {
			w := fmt.Sprintf("window %d", i)
			windows = append(windows, w)
			embedder.Embeddings[w] = []float32{float32(i), 1}
		}
	})

	It("embeds every window once and keeps input order", func() {
		batch := embeddings.FetchAll(ctx, embedder, windows, embeddings.FetchOptions{})

		Expect(batch.Failed).To(BeEmpty())
		Expect(batch.Embedded).To(HaveLen(6))
		for i, e := range batch.Embedded {
			Expect(e.Index).To(Equal(i))
			Expect(e.Text).To(Equal(windows[i]))
			Expect(e.Vector).To(Equal([]float32{float32(i), 1}))
		}
		Expect(embedder.Calls()).To(ConsistOf(windows))
	})

	It("drops failed windows and keeps the survivors in order", func() {
		embedder.FailOn[windows[1]] = true
		embedder.FailOn[windows[4]] = true

		batch := embeddings.FetchAll(ctx, embedder, windows, embeddings.FetchOptions{})

		Expect(batch.Embedded).To(HaveLen(4))
		var indices []int
		for _, e := range batch.Embedded {
			indices = append(indices, e.Index)
		}
		Expect(indices).To(Equal([]int{0, 2, 3, 5}))

		Expect(batch.Failed).To(HaveLen(2))
		Expect(batch.Failed[0].Index).To(Equal(1))
		Expect(batch.Failed[1].Index).To(Equal(4))
		Expect(errors.Is(batch.Failed[0].Err, embeddings.ErrProviderFailure)).To(BeTrue())
	})

	It("returns an empty batch when every window fails", func() {
		embedder.FailAll = true

		batch := embeddings.FetchAll(ctx, embedder, windows, embeddings.FetchOptions{})
		Expect(batch.Embedded).To(BeEmpty())
		Expect(batch.Failed).To(HaveLen(6))
		Expect(batch.Vectors()).To(BeEmpty())
	})

	It("treats empty vectors as failures", func() {
		embedder.Embeddings[windows[2]] = []float32{}

		batch := embeddings.FetchAll(ctx, embedder, windows, embeddings.FetchOptions{})
		Expect(batch.Embedded).To(HaveLen(5))
		Expect(batch.Failed).To(HaveLen(1))
		Expect(errors.Is(batch.Failed[0].Err, embeddings.ErrProviderFailure)).To(BeTrue())
	})

	It("handles no windows", func() {
		batch := embeddings.FetchAll(ctx, embedder, nil, embeddings.FetchOptions{})
		Expect(batch.Embedded).To(BeEmpty())
		Expect(batch.Failed).To(BeEmpty())
	})

	It("bounds concurrency when asked to", func() {
		slow := &slowEmbedder{}
		many := make([]string, 20)

		batch := embeddings.FetchAll(ctx, slow, many, embeddings.FetchOptions{MaxConcurrency: 3})
		Expect(batch.Embedded).To(HaveLen(20))
		Expect(slow.peak.Load()).To(BeNumerically("<=", 3))
	})

	It("exposes the vectors in order", func() {
		batch := embeddings.FetchAll(ctx, embedder, windows[:2], embeddings.FetchOptions{})
		Expect(batch.Vectors()).To(Equal([][]float32{{0, 1}, {1, 1}}))
	})
})
