package retrieve_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/folio/pkg/logger"
	"github.com/papercomputeco/folio/pkg/retrieve"
	"github.com/papercomputeco/folio/pkg/storage"
	"github.com/papercomputeco/folio/pkg/storage/inmemory"
	testutils "github.com/papercomputeco/folio/pkg/utils/test"
	"github.com/papercomputeco/folio/pkg/vector"
	vectorinmemory "github.com/papercomputeco/folio/pkg/vector/inmemory"
)

// countingStore records tag lookups made against the wrapped store.
type countingStore struct {
	storage.Driver
	tagLookups int
	tagErr     error
}

func (c *countingStore) FindDocumentIDsByTags(ctx context.Context, wikiID string, tagIDs []string) ([]string, error) {
	c.tagLookups++
	if c.tagErr != nil {
		return nil, c.tagErr
	}
	return c.Driver.FindDocumentIDsByTags(ctx, wikiID, tagIDs)
}

var _ = Describe("Retriever", func() {
	var (
		ctx       context.Context
		store     *countingStore
		vectors   *testutils.MockVectorDriver
		embedder  *testutils.MockEmbedder
		rewriter  *testutils.MockRewriter
		retriever *retrieve.Retriever
		wiki      *storage.Wiki
		tag       *storage.Tag
		tagged    *storage.Document
		plain     *storage.Document
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = &countingStore{Driver: inmemory.NewDriver()}
		vectors = testutils.NewMockVectorDriver()
		embedder = testutils.NewMockEmbedder()
		rewriter = &testutils.MockRewriter{}

		wiki = &storage.Wiki{Title: "Docs", Members: []string{"alice"}}
		Expect(store.CreateWiki(ctx, wiki)).To(Succeed())

		tag = &storage.Tag{Name: "pets"}
		Expect(store.CreateTag(ctx, tag)).To(Succeed())

		tagged = &storage.Document{WikiID: wiki.ID, Title: "Cats", Text: "Cats purr.", Tags: []string{tag.ID}}
		plain = &storage.Document{WikiID: wiki.ID, Title: "Cars", Text: "Cars honk."}
		Expect(store.CreateDocument(ctx, tagged)).To(Succeed())
		Expect(store.CreateDocument(ctx, plain)).To(Succeed())

		vectors.Results = []vector.QueryResult{
			{Chunk: vector.Chunk{ID: "c-2", DocumentID: plain.ID, Text: "Cars honk."}, Score: 0.9},
			{Chunk: vector.Chunk{ID: "c-1", DocumentID: tagged.ID, Text: "Cats purr."}, Score: 0.8},
		}

		var err error
		retriever, err = retrieve.New(&retrieve.Config{
			Store:         store,
			Vectors:       vectors,
			Embedder:      embedder,
			Rewriter:      rewriter,
			ResultLimit:   10,
			CandidatePool: 50,
			Logger:        logger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())
	})

	It("rejects empty search text", func() {
		_, err := retriever.Retrieve(ctx, retrieve.Query{WikiID: wiki.ID, SearchText: "  "})
		Expect(err).To(MatchError(retrieve.ErrMissingSearchText))
		Expect(embedder.Calls()).To(BeEmpty())
	})

	It("goes straight to an unfiltered search without tags or rewrite", func() {
		results, err := retriever.Retrieve(ctx, retrieve.Query{WikiID: wiki.ID, SearchText: "animals"})
		Expect(err).NotTo(HaveOccurred())

		Expect(store.tagLookups).To(BeZero())
		Expect(rewriter.Calls()).To(BeEmpty())
		Expect(embedder.Calls()).To(Equal([]string{"animals"}))

		Expect(vectors.Queries).To(HaveLen(1))
		q := vectors.Queries[0]
		Expect(q.Embedding).To(Equal(embedder.Default))
		Expect(q.Filter.WikiID).To(Equal(wiki.ID))
		Expect(q.Filter.DocumentIDs).To(BeNil())
		Expect(q.Limit).To(Equal(10))
		Expect(q.CandidatePool).To(Equal(50))

		Expect(results).To(Equal([]retrieve.Result{
			{ChunkID: "c-2", DocumentID: plain.ID, Title: "Cars", Text: "Cars honk.", Score: 0.9},
			{ChunkID: "c-1", DocumentID: tagged.ID, Title: "Cats", Text: "Cats purr.", Score: 0.8},
		}))
	})

	It("returns an empty result when embedding fails", func() {
		embedder.FailAll = true

		results, err := retriever.Retrieve(ctx, retrieve.Query{WikiID: wiki.ID, SearchText: "animals"})
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(BeEmpty())
		Expect(vectors.Queries).To(BeEmpty())
	})

	It("returns an empty result for an empty embedding", func() {
		embedder.Embeddings["animals"] = []float32{}

		results, err := retriever.Retrieve(ctx, retrieve.Query{WikiID: wiki.ID, SearchText: "animals"})
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(BeEmpty())
	})

	It("restricts the search to documents carrying the tags", func() {
		_, err := retriever.Retrieve(ctx, retrieve.Query{WikiID: wiki.ID, SearchText: "animals", Tags: []string{tag.ID}})
		Expect(err).NotTo(HaveOccurred())

		Expect(store.tagLookups).To(Equal(1))
		Expect(vectors.Queries[0].Filter.DocumentIDs).To(Equal([]string{tagged.ID}))
	})

	It("short-circuits when no document carries the tags", func() {
		results, err := retriever.Retrieve(ctx, retrieve.Query{WikiID: wiki.ID, SearchText: "animals", Tags: []string{"unused"}})
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(BeEmpty())
		Expect(vectors.Queries).To(BeEmpty())
	})

	It("embeds the rewritten query with tag names", func() {
		rewriter.Output = "animals pets felines"

		_, err := retriever.Retrieve(ctx, retrieve.Query{
			WikiID:     wiki.ID,
			SearchText: "animals",
			Tags:       []string{tag.ID},
			UseRewrite: true,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(rewriter.Calls()).To(Equal([]string{"animals"}))
		Expect(rewriter.Tags()).To(Equal([][]string{{"pets"}}))
		Expect(embedder.Calls()).To(Equal([]string{"animals pets felines"}))
	})

	It("falls back to the original text when rewriting fails", func() {
		rewriter.Fail = true

		results, err := retriever.Retrieve(ctx, retrieve.Query{WikiID: wiki.ID, SearchText: "animals", UseRewrite: true})
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(2))
		Expect(embedder.Calls()).To(Equal([]string{"animals"}))
	})

	It("ignores rewrite without a rewriter", func() {
		r, err := retrieve.New(&retrieve.Config{Store: store, Vectors: vectors, Embedder: embedder, Logger: logger.Nop()})
		Expect(err).NotTo(HaveOccurred())

		_, err = r.Retrieve(ctx, retrieve.Query{WikiID: wiki.ID, SearchText: "animals", UseRewrite: true})
		Expect(err).NotTo(HaveOccurred())
		Expect(embedder.Calls()).To(Equal([]string{"animals"}))
	})

	It("honours the query limit", func() {
		results, err := retriever.Retrieve(ctx, retrieve.Query{WikiID: wiki.ID, SearchText: "animals", Limit: 1})
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(1))
		Expect(vectors.Queries[0].Limit).To(Equal(1))
	})

	It("drops chunks whose document is gone", func() {
		Expect(store.DeleteDocument(ctx, plain.ID)).To(Succeed())

		results, err := retriever.Retrieve(ctx, retrieve.Query{WikiID: wiki.ID, SearchText: "animals"})
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(1))
		Expect(results[0].Title).To(Equal("Cats"))
	})

	It("uses the current title after a rename", func() {
		tagged.Title = "Felines"
		Expect(store.UpdateDocument(ctx, tagged)).To(Succeed())

		results, err := retriever.Retrieve(ctx, retrieve.Query{WikiID: wiki.ID, SearchText: "animals"})
		Expect(err).NotTo(HaveOccurred())
		Expect(results[1].Title).To(Equal("Felines"))
	})

	It("wraps vector store failures", func() {
		vectors.FailQuery = true

		_, err := retriever.Retrieve(ctx, retrieve.Query{WikiID: wiki.ID, SearchText: "animals"})
		Expect(errors.Is(err, retrieve.ErrSearch)).To(BeTrue())
		Expect(errors.Is(err, testutils.ErrMockVector)).To(BeTrue())
	})

	It("keeps the cause of a failed tag lookup", func() {
		store.tagErr = storage.NotFoundError{Kind: "tag", ID: tag.ID}

		_, err := retriever.Retrieve(ctx, retrieve.Query{WikiID: wiki.ID, SearchText: "animals", Tags: []string{tag.ID}})
		Expect(errors.Is(err, retrieve.ErrSearch)).To(BeTrue())
		Expect(storage.IsNotFound(err)).To(BeTrue())
		Expect(vectors.Queries).To(BeEmpty())
	})

	It("asks for more results when orphaned chunks fall inside the limit", func() {
		Expect(store.DeleteDocument(ctx, plain.ID)).To(Succeed())

		results, err := retriever.Retrieve(ctx, retrieve.Query{WikiID: wiki.ID, SearchText: "animals", Limit: 1})
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(1))
		Expect(results[0].ChunkID).To(Equal("c-1"))

		Expect(vectors.Queries).To(HaveLen(2))
		Expect(vectors.Queries[0].Limit).To(Equal(1))
		Expect(vectors.Queries[1].Limit).To(Equal(2))
	})

	It("stops widening once the store runs out", func() {
		Expect(store.DeleteDocument(ctx, plain.ID)).To(Succeed())
		Expect(store.DeleteDocument(ctx, tagged.ID)).To(Succeed())

		results, err := retriever.Retrieve(ctx, retrieve.Query{WikiID: wiki.ID, SearchText: "animals", Limit: 1})
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(BeEmpty())
		Expect(vectors.Queries).To(HaveLen(3))
	})

	Context("with configured dimensions", func() {
		BeforeEach(func() {
			var err error
			retriever, err = retrieve.New(&retrieve.Config{
				Store:      store,
				Vectors:    vectors,
				Embedder:   embedder,
				Dimensions: 3,
				Logger:     logger.Nop(),
			})
			Expect(err).NotTo(HaveOccurred())
		})

		It("rejects a query embedding of the wrong length before searching", func() {
			embedder.Embeddings["animals"] = []float32{1, 0}

			results, err := retriever.Retrieve(ctx, retrieve.Query{WikiID: wiki.ID, SearchText: "animals"})
			Expect(errors.Is(err, vector.ErrDimensionMismatch)).To(BeTrue())
			Expect(errors.Is(err, retrieve.ErrSearch)).To(BeTrue())
			Expect(results).To(BeNil())
			Expect(vectors.Queries).To(BeEmpty())
		})

		It("searches with a matching embedding", func() {
			results, err := retriever.Retrieve(ctx, retrieve.Query{WikiID: wiki.ID, SearchText: "animals"})
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(2))
		})
	})

	It("surfaces a store-side dimension mismatch", func() {
		chunks := vectorinmemory.NewDriver(logger.Nop())
		Expect(chunks.Add(ctx, []vector.Chunk{
			{ID: "c-1", DocumentID: tagged.ID, WikiID: wiki.ID, Embedding: []float32{1, 0, 0}},
		})).To(Succeed())
		embedder.Embeddings["animals"] = []float32{1, 0}

		r, err := retrieve.New(&retrieve.Config{Store: store, Vectors: chunks, Embedder: embedder, Logger: logger.Nop()})
		Expect(err).NotTo(HaveOccurred())

		results, err := r.Retrieve(ctx, retrieve.Query{WikiID: wiki.ID, SearchText: "animals"})
		Expect(errors.Is(err, vector.ErrDimensionMismatch)).To(BeTrue())
		Expect(results).To(BeNil())
	})
})
