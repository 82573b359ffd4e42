package ollama_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/folio/pkg/embeddings"
	"github.com/papercomputeco/folio/pkg/embeddings/ollama"
)

var _ = Describe("Embedder", func() {
	var (
		server   *httptest.Server
		handler  http.HandlerFunc
		embedder *ollama.Embedder
		received map[string]any
	)

	BeforeEach(func() {
		received = nil
		handler = func(w http.ResponseWriter, r *http.Request) {
			Expect(r.URL.Path).To(Equal("/api/embed"))
			json.NewDecoder(r.Body).Decode(&received)
			json.NewEncoder(w).Encode(map[string]any{"embeddings": [][]float32{{0.5, 0.25}}})
		}
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handler(w, r)
		}))

		var err error
		embedder, err = ollama.NewEmbedder(ollama.EmbedderConfig{BaseURL: server.URL})
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		server.Close()
	})

	It("returns the first embedding", func() {
		v, err := embedder.Embed(context.Background(), "hello")
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal([]float32{0.5, 0.25}))
		Expect(received["model"]).To(Equal(ollama.DefaultEmbeddingModel))
		Expect(received["input"]).To(Equal("hello"))
	})

	It("wraps non-2xx responses", func() {
		handler = func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "model not found", http.StatusNotFound)
		}

		_, err := embedder.Embed(context.Background(), "hello")
		Expect(errors.Is(err, embeddings.ErrProviderFailure)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("404"))
	})

	It("wraps undecodable bodies", func() {
		handler = func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte("not json"))
		}

		_, err := embedder.Embed(context.Background(), "hello")
		Expect(errors.Is(err, embeddings.ErrProviderFailure)).To(BeTrue())
	})

	It("rejects empty embeddings", func() {
		handler = func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"embeddings":[]}`))
		}

		_, err := embedder.Embed(context.Background(), "hello")
		Expect(errors.Is(err, embeddings.ErrProviderFailure)).To(BeTrue())
	})

	It("wraps transport failures", func() {
		server.Close()
		_, err := embedder.Embed(context.Background(), "hello")
		Expect(errors.Is(err, embeddings.ErrProviderFailure)).To(BeTrue())
	})
})
