package search_test

import (
	"context"
	"errors"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/folio/api/search"
	"github.com/papercomputeco/folio/pkg/logger"
	"github.com/papercomputeco/folio/pkg/retrieve"
)

type fakeRetriever struct {
	results []retrieve.Result
	err     error
	queries []retrieve.Query
}

func (f *fakeRetriever) Retrieve(_ context.Context, q retrieve.Query) ([]retrieve.Result, error) {
	f.queries = append(f.queries, q)
	return f.results, f.err
}

var _ = Describe("Search", func() {
	var (
		retriever *fakeRetriever
		ctx       context.Context
	)

	BeforeEach(func() {
		retriever = &fakeRetriever{}
		ctx = context.Background()
	})

	It("maps the input onto a retrieval query", func() {
		_, err := search.Search(ctx, retriever, search.SearchInput{
			WikiID: "w1",
			Query:  "how do I deploy",
			Tags:   []string{"t1"},
			Enrich: true,
			Limit:  3,
		}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())

		Expect(retriever.queries).To(Equal([]retrieve.Query{{
			WikiID:     "w1",
			SearchText: "how do I deploy",
			Tags:       []string{"t1"},
			UseRewrite: true,
			Limit:      3,
		}}))
	})

	It("adds a whitespace-collapsed preview to each result", func() {
		long := strings.Repeat("word ", 100)
		retriever.results = []retrieve.Result{
			{ChunkID: "d1:0", DocumentID: "d1", Title: "One", Text: "line one\n\nline two", Score: 0.9},
			{ChunkID: "d2:0", DocumentID: "d2", Title: "Two", Text: long, Score: 0.5},
		}

		out, err := search.Search(ctx, retriever, search.SearchInput{WikiID: "w1", Query: "q"}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Query).To(Equal("q"))
		Expect(out.Count).To(Equal(2))
		Expect(out.Results[0].Preview).To(Equal("line one line two"))
		Expect(out.Results[0].Title).To(Equal("One"))
		Expect(out.Results[1].Preview).To(HaveSuffix("..."))
	})

	It("returns retrieval errors", func() {
		retriever.err = retrieve.ErrMissingSearchText

		_, err := search.Search(ctx, retriever, search.SearchInput{WikiID: "w1"}, logger.Nop())
		Expect(errors.Is(err, retrieve.ErrMissingSearchText)).To(BeTrue())
	})
})

var _ = DescribeTable("ParseTags",
	func(raw string, expected []string) {
		Expect(search.ParseTags(raw)).To(Equal(expected))
	},
	Entry("empty", "", []string{}),
	Entry("single", "a", []string{"a"}),
	Entry("trims blanks", " a, ,b ,", []string{"a", "b"}),
)
