package ingestcmder_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	ingestcmder "github.com/papercomputeco/folio/cmd/folio/ingest"
	"github.com/papercomputeco/folio/pkg/ingest"
	"github.com/papercomputeco/folio/pkg/logger"
	"github.com/papercomputeco/folio/pkg/storage"
	"github.com/papercomputeco/folio/pkg/storage/inmemory"
	testutils "github.com/papercomputeco/folio/pkg/utils/test"
	vectorinmemory "github.com/papercomputeco/folio/pkg/vector/inmemory"
)

var _ = Describe("TitleFromPath", func() {
	DescribeTable("derives titles from file names",
		func(path, want string) {
			Expect(ingestcmder.TitleFromPath(path)).To(Equal(want))
		},
		Entry("dashes", "docs/deploy-guide.md", "deploy guide"),
		Entry("underscores", "notes/on_call_rota.txt", "on call rota"),
		Entry("no extension", "README", "README"),
		Entry("spaces collapse", "a  b.md", "a b"),
	)
})

var _ = Describe("IsPageFile", func() {
	It("accepts markdown and text files", func() {
		Expect(ingestcmder.IsPageFile("a.md")).To(BeTrue())
		Expect(ingestcmder.IsPageFile("a.MARKDOWN")).To(BeTrue())
		Expect(ingestcmder.IsPageFile("a.txt")).To(BeTrue())
		Expect(ingestcmder.IsPageFile("a.go")).To(BeFalse())
		Expect(ingestcmder.IsPageFile("Makefile")).To(BeFalse())
	})
})

var _ = Describe("CollectFiles", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		Expect(os.WriteFile(filepath.Join(dir, "b.md"), []byte("B."), 0o600)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(dir, "a.txt"), []byte("A."), 0o600)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(dir, "skip.go"), []byte("package x"), 0o600)).To(Succeed())
		Expect(os.MkdirAll(filepath.Join(dir, ".git"), 0o755)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(dir, ".git", "HEAD.md"), []byte("no"), 0o600)).To(Succeed())
		Expect(os.MkdirAll(filepath.Join(dir, "sub"), 0o755)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(dir, "sub", "c.md"), []byte("C."), 0o600)).To(Succeed())
	})

	It("walks directories for page files and skips hidden directories", func() {
		files, err := ingestcmder.CollectFiles([]string{dir})
		Expect(err).NotTo(HaveOccurred())
		Expect(files).To(Equal([]string{
			filepath.Join(dir, "a.txt"),
			filepath.Join(dir, "b.md"),
			filepath.Join(dir, "sub", "c.md"),
		}))
	})

	It("keeps files named explicitly", func() {
		files, err := ingestcmder.CollectFiles([]string{filepath.Join(dir, "skip.go")})
		Expect(err).NotTo(HaveOccurred())
		Expect(files).To(HaveLen(1))
	})

	It("fails on missing paths", func() {
		_, err := ingestcmder.CollectFiles([]string{filepath.Join(dir, "missing")})
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("IngestFiles", func() {
	var (
		dir      string
		store    *inmemory.Driver
		embedder *testutils.MockEmbedder
		ingester *ingest.Ingester
		wiki     *storage.Wiki
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		log := logger.Nop()
		store = inmemory.NewDriver()
		embedder = testutils.NewMockEmbedder()

		var err error
		ingester, err = ingest.New(&ingest.Config{
			Store:    store,
			Vectors:  vectorinmemory.NewDriver(log),
			Embedder: embedder,
			Logger:   log,
		})
		Expect(err).NotTo(HaveOccurred())

		wiki = &storage.Wiki{Title: "Docs", Members: []string{"user-1"}}
		Expect(store.CreateWiki(context.Background(), wiki)).To(Succeed())
	})

	write := func(name, text string) string {
		path := filepath.Join(dir, name)
		Expect(os.WriteFile(path, []byte(text), 0o600)).To(Succeed())
		return path
	}

	It("creates one page per file", func() {
		files := []string{
			write("deploy-guide.md", "Deploy with care."),
			write("rollback.md", "Roll back quickly."),
		}

		var out bytes.Buffer
		failed, err := ingestcmder.IngestFiles(context.Background(), ingester, files, wiki.ID, []string{"tag-1"}, 2, &out, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		Expect(failed).To(BeZero())

		docs, err := store.ListDocuments(context.Background(), wiki.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(docs).To(HaveLen(2))

		titles := []string{docs[0].Title, docs[1].Title}
		Expect(titles).To(ConsistOf("deploy guide", "rollback"))
		Expect(docs[0].Tags).To(Equal([]string{"tag-1"}))
		Expect(out.String()).To(ContainSubstring("deploy-guide.md"))
		Expect(out.String()).To(ContainSubstring("1 chunks"))
	})

	It("counts files that fail to ingest", func() {
		files := []string{
			write("empty.md", ""),
			write("ok.md", "Fine."),
			filepath.Join(dir, "missing.md"),
		}

		var out bytes.Buffer
		failed, err := ingestcmder.IngestFiles(context.Background(), ingester, files, wiki.ID, nil, 1, &out, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		Expect(failed).To(Equal(2))
		Expect(out.String()).To(ContainSubstring("missing.md"))

		docs, err := store.ListDocuments(context.Background(), wiki.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(docs).To(HaveLen(1))
	})
})
