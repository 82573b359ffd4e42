package searchcmder_test

import (
	"bytes"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/charmbracelet/x/ansi"

	apisearch "github.com/papercomputeco/folio/api/search"
	searchcmder "github.com/papercomputeco/folio/cmd/folio/search"
)

var results = []apisearch.SearchResult{
	{ChunkID: "doc-1:0", DocumentID: "doc-1", Title: "Deploys", Text: "Deploy on\nTuesdays.", Score: 0.91},
	{ChunkID: "doc-2:3", DocumentID: "doc-2", Title: "Rollbacks", Text: "Roll back fast.", Score: 0.80},
	{ChunkID: "doc-1:1", DocumentID: "doc-1", Title: "Deploys", Text: "Never on Fridays.", Score: 0.75},
}

var _ = Describe("NewSearchCmd", func() {
	It("requires a query and registers client flags", func() {
		cmd := searchcmder.NewSearchCmd()
		Expect(cmd.Use).To(Equal("search <query>"))
		Expect(cmd.Flags().Lookup("api-target")).NotTo(BeNil())
		Expect(cmd.Flags().Lookup("caller")).NotTo(BeNil())
		Expect(cmd.Flags().Lookup("wiki")).NotTo(BeNil())
	})
})

var _ = Describe("PrintResults", func() {
	var out *bytes.Buffer

	BeforeEach(func() {
		out = &bytes.Buffer{}
	})

	It("prints ranked results with titles and flattened previews", func() {
		searchcmder.PrintResults(out, "deploy", results, false)
		Expect(out.String()).To(ContainSubstring("#1"))
		Expect(out.String()).To(ContainSubstring("score: 0.9100"))
		Expect(out.String()).To(ContainSubstring("Rollbacks"))
		Expect(out.String()).To(ContainSubstring("Deploy on Tuesdays."))
		Expect(out.String()).To(ContainSubstring("doc-2:3"))

		lines := strings.Split(ansi.Strip(out.String()), "\n")
		Expect(lines).To(ContainElement("  #1  score: 0.9100  Deploys"))
		Expect(lines).To(ContainElement("  Deploy on Tuesdays."))
	})

	It("prints distinct page IDs in quiet mode", func() {
		searchcmder.PrintResults(out, "deploy", results, true)
		Expect(out.String()).To(Equal("doc-1\ndoc-2\n"))
	})

	It("reports empty results unless quiet", func() {
		searchcmder.PrintResults(out, "deploy", nil, false)
		Expect(out.String()).To(Equal("No results found.\n"))

		out.Reset()
		searchcmder.PrintResults(out, "deploy", nil, true)
		Expect(out.String()).To(BeEmpty())
	})
})
