// Package storagetest holds the behaviour every storage.Driver must share.
// Driver packages call DescribeDriver from their own ginkgo suites.
package storagetest

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/folio/pkg/storage"
)

// DescribeDriver registers the shared driver tests. newDriver is called once
// per test and must return an empty store.
func DescribeDriver(newDriver func() storage.Driver) {
	var (
		driver storage.Driver
		ctx    context.Context
		wiki   *storage.Wiki
	)

	BeforeEach(func() {
		ctx = context.Background()
		driver = nil
		driver = newDriver()

		wiki = &storage.Wiki{Title: "Engineering", Members: []string{"alice", "bob"}}
		Expect(driver.CreateWiki(ctx, wiki)).To(Succeed())
	})

	AfterEach(func() {
		if driver != nil {
			Expect(driver.Close()).To(Succeed())
		}
	})

	Describe("wikis", func() {
		It("assigns an ID and keeps the members", func() {
			Expect(wiki.ID).NotTo(BeEmpty())
			Expect(wiki.CreatedAt.IsZero()).To(BeFalse())

			got, err := driver.GetWiki(ctx, wiki.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Title).To(Equal("Engineering"))
			Expect(got.Members).To(ConsistOf("alice", "bob"))
			Expect(got.HasMember("alice")).To(BeTrue())
			Expect(got.HasMember("mallory")).To(BeFalse())
		})

		It("returns NotFoundError for unknown wikis", func() {
			_, err := driver.GetWiki(ctx, "missing")
			var nf storage.NotFoundError
			Expect(errors.As(err, &nf)).To(BeTrue())
			Expect(nf.Kind).To(Equal("wiki"))
		})

		It("rejects duplicate IDs", func() {
			err := driver.CreateWiki(ctx, &storage.Wiki{ID: wiki.ID, Title: "again"})
			Expect(errors.Is(err, storage.ErrConflict)).To(BeTrue())
		})
	})

	Describe("documents", func() {
		var doc *storage.Document

		BeforeEach(func() {
			doc = &storage.Document{
				WikiID:    wiki.ID,
				Title:     "Onboarding",
				Text:      "Welcome aboard. Read the handbook.",
				Tags:      []string{"tag-a", "tag-b"},
				Embedding: []float32{0.25, 0.5, 0.75},
			}
			Expect(driver.CreateDocument(ctx, doc)).To(Succeed())
		})

		It("round-trips every field", func() {
			Expect(doc.ID).NotTo(BeEmpty())

			got, err := driver.GetDocument(ctx, doc.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.WikiID).To(Equal(wiki.ID))
			Expect(got.Title).To(Equal("Onboarding"))
			Expect(got.Text).To(Equal("Welcome aboard. Read the handbook."))
			Expect(got.Tags).To(Equal([]string{"tag-a", "tag-b"}))
			Expect(got.Embedding).To(Equal([]float32{0.25, 0.5, 0.75}))
			Expect(got.CreatedAt.IsZero()).To(BeFalse())
		})

		It("requires an existing wiki", func() {
			err := driver.CreateDocument(ctx, &storage.Document{WikiID: "missing", Title: "x"})
			Expect(storage.IsNotFound(err)).To(BeTrue())
		})

		It("fetches many documents at once and skips missing IDs", func() {
			other := &storage.Document{WikiID: wiki.ID, Title: "Second"}
			Expect(driver.CreateDocument(ctx, other)).To(Succeed())

			got, err := driver.GetDocuments(ctx, []string{doc.ID, other.ID, "missing"})
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(HaveLen(2))
			Expect(got[doc.ID].Title).To(Equal("Onboarding"))
			Expect(got[other.ID].Title).To(Equal("Second"))

			got, err = driver.GetDocuments(ctx, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(BeEmpty())
		})

		It("lists the documents of a wiki", func() {
			otherWiki := &storage.Wiki{Title: "Other"}
			Expect(driver.CreateWiki(ctx, otherWiki)).To(Succeed())
			Expect(driver.CreateDocument(ctx, &storage.Document{WikiID: otherWiki.ID, Title: "Elsewhere"})).To(Succeed())

			docs, err := driver.ListDocuments(ctx, wiki.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(docs).To(HaveLen(1))
			Expect(docs[0].ID).To(Equal(doc.ID))
		})

		It("updates title, text, tags and embedding", func() {
			doc.Title = "Onboarding v2"
			doc.Text = "Updated."
			doc.Tags = []string{"tag-c"}
			doc.Embedding = []float32{1, 0, 0}
			Expect(driver.UpdateDocument(ctx, doc)).To(Succeed())

			got, err := driver.GetDocument(ctx, doc.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Title).To(Equal("Onboarding v2"))
			Expect(got.Text).To(Equal("Updated."))
			Expect(got.Tags).To(Equal([]string{"tag-c"}))
			Expect(got.Embedding).To(Equal([]float32{1, 0, 0}))
			Expect(got.WikiID).To(Equal(wiki.ID))
		})

		It("fails to update unknown documents", func() {
			err := driver.UpdateDocument(ctx, &storage.Document{ID: "missing"})
			Expect(storage.IsNotFound(err)).To(BeTrue())
		})

		It("deletes documents", func() {
			Expect(driver.DeleteDocument(ctx, doc.ID)).To(Succeed())

			_, err := driver.GetDocument(ctx, doc.ID)
			Expect(storage.IsNotFound(err)).To(BeTrue())

			ids, err := driver.FindDocumentIDsByTags(ctx, wiki.ID, []string{"tag-a"})
			Expect(err).NotTo(HaveOccurred())
			Expect(ids).To(BeEmpty())

			Expect(storage.IsNotFound(driver.DeleteDocument(ctx, doc.ID))).To(BeTrue())
		})

		It("finds documents carrying any of the tags within the wiki", func() {
			second := &storage.Document{WikiID: wiki.ID, Title: "Second", Tags: []string{"tag-c"}}
			third := &storage.Document{WikiID: wiki.ID, Title: "Third"}
			Expect(driver.CreateDocument(ctx, second)).To(Succeed())
			Expect(driver.CreateDocument(ctx, third)).To(Succeed())

			otherWiki := &storage.Wiki{Title: "Other"}
			Expect(driver.CreateWiki(ctx, otherWiki)).To(Succeed())
			Expect(driver.CreateDocument(ctx, &storage.Document{WikiID: otherWiki.ID, Title: "x", Tags: []string{"tag-a"}})).To(Succeed())

			ids, err := driver.FindDocumentIDsByTags(ctx, wiki.ID, []string{"tag-b", "tag-c"})
			Expect(err).NotTo(HaveOccurred())
			Expect(ids).To(ConsistOf(doc.ID, second.ID))

			ids, err = driver.FindDocumentIDsByTags(ctx, wiki.ID, []string{"unused"})
			Expect(err).NotTo(HaveOccurred())
			Expect(ids).To(BeEmpty())
		})
	})

	Describe("tags", func() {
		It("applies the default color", func() {
			tag := &storage.Tag{Name: "howto"}
			Expect(driver.CreateTag(ctx, tag)).To(Succeed())
			Expect(tag.ID).NotTo(BeEmpty())
			Expect(tag.Color).To(Equal(storage.DefaultTagColor))
		})

		It("lists tags by name", func() {
			Expect(driver.CreateTag(ctx, &storage.Tag{Name: "zeta"})).To(Succeed())
			Expect(driver.CreateTag(ctx, &storage.Tag{Name: "alpha", Color: storage.Color{FG: "#000", BG: "gold"}})).To(Succeed())

			tags, err := driver.ListTags(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(tags).To(HaveLen(2))
			Expect(tags[0].Name).To(Equal("alpha"))
			Expect(tags[0].Color).To(Equal(storage.Color{FG: "#000", BG: "gold"}))
			Expect(tags[1].Name).To(Equal("zeta"))
		})

		It("rejects duplicate names", func() {
			Expect(driver.CreateTag(ctx, &storage.Tag{Name: "dup"})).To(Succeed())
			err := driver.CreateTag(ctx, &storage.Tag{Name: "dup"})
			Expect(errors.Is(err, storage.ErrConflict)).To(BeTrue())
		})
	})
}
