package services_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/folio/cmd/folio/services"
	"github.com/papercomputeco/folio/pkg/config"
	"github.com/papercomputeco/folio/pkg/logger"
	"github.com/papercomputeco/folio/pkg/retrieve"
	testutils "github.com/papercomputeco/folio/pkg/utils/test"
	"github.com/papercomputeco/folio/pkg/vector"
)

func newCommand(name, configDir string, keys []string) *cobra.Command {
	cmd := &cobra.Command{Use: name}
	cmd.Flags().Bool("debug", false, "")
	cmd.Flags().String("config-dir", configDir, "")
	services.AddFlags(cmd, keys)
	return cmd
}

var _ = Describe("LoadConfig", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	It("applies flags over config.toml", func() {
		toml := "[storage]\nprovider = \"memory\"\n\n[chunking]\ntokens_per_window = 64\n"
		Expect(os.WriteFile(filepath.Join(dir, "config.toml"), []byte(toml), 0o600)).To(Succeed())

		cmd := newCommand("ingest", dir, services.StoreFlags)
		Expect(cmd.Flags().Set("tokens-per-window", "32")).To(Succeed())

		cfg, err := services.LoadConfig(cmd, services.StoreFlags)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Storage.Provider).To(Equal("memory"))
		Expect(cfg.Chunking.TokensPerWindow).To(Equal(uint(32)))
	})

	It("rejects invalid provider names", func() {
		cmd := newCommand("serve", dir, services.StoreFlags)
		Expect(cmd.Flags().Set("vector-store-provider", "faiss")).To(Succeed())

		_, err := services.LoadConfig(cmd, services.StoreFlags)
		Expect(err).To(MatchError(config.ErrInvalidConfig))
	})
})

var _ = Describe("Open", func() {
	It("opens in-memory stores and builds the pipeline", func() {
		dir := GinkgoT().TempDir()
		cfg := config.NewDefaultConfig()
		cfg.Storage.Provider = "memory"
		cfg.VectorStore.Provider = "memory"
		cfg.Embedding.Provider = "ollama"
		cfg.Rewrite.Provider = "none"

		svc, err := services.Open(context.Background(), cfg, dir, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(svc.Close)

		Expect(svc.Store).NotTo(BeNil())
		Expect(svc.Vectors).NotTo(BeNil())
		Expect(svc.Publisher).NotTo(BeNil())

		_, err = svc.Ingester()
		Expect(err).NotTo(HaveOccurred())
		_, err = svc.Retriever()
		Expect(err).NotTo(HaveOccurred())
	})
	It("builds a retriever bound to the configured dimensions", func() {
		cfg := config.NewDefaultConfig()
		cfg.Storage.Provider = "memory"
		cfg.VectorStore.Provider = "memory"
		cfg.Embedding.Provider = "ollama"
		cfg.Embedding.Dimensions = 3
		cfg.Rewrite.Provider = "none"

		svc, err := services.Open(context.Background(), cfg, GinkgoT().TempDir(), logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(svc.Close)

		embedder := testutils.NewMockEmbedder()
		embedder.Default = []float32{1, 0}
		svc.Embedder = embedder

		r, err := svc.Retriever()
		Expect(err).NotTo(HaveOccurred())

		_, err = r.Retrieve(context.Background(), retrieve.Query{WikiID: "w-1", SearchText: "cats"})
		Expect(errors.Is(err, vector.ErrDimensionMismatch)).To(BeTrue())
	})
})

var _ = Describe("WithLogFile", func() {
	It("mirrors records into the file as JSON", func() {
		path := filepath.Join(GinkgoT().TempDir(), "serve.jsonl")
		cmd := newCommand("serve", "", nil)

		var terminal bytes.Buffer
		l, f, err := services.WithLogFile(cmd, logger.New(logger.WithWriter(&terminal)), path)
		Expect(err).NotTo(HaveOccurred())

		l.Info("listening", "addr", ":8080")
		Expect(f.Close()).To(Succeed())

		Expect(terminal.String()).To(ContainSubstring("listening"))

		data, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		var rec map[string]any
		Expect(json.Unmarshal([]byte(strings.TrimSpace(string(data))), &rec)).To(Succeed())
		Expect(rec).To(HaveKeyWithValue("msg", "listening"))
		Expect(rec).To(HaveKeyWithValue("component", "serve"))
		Expect(rec).To(HaveKey("source"))
	})

	It("fails when the file cannot be created", func() {
		cmd := newCommand("serve", "", nil)
		_, _, err := services.WithLogFile(cmd, logger.Nop(), filepath.Join(GinkgoT().TempDir(), "missing", "x.log"))
		Expect(err).To(MatchError(ContainSubstring("opening log file")))
	})
})
