package openai_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/folio/pkg/embeddings"
	"github.com/papercomputeco/folio/pkg/embeddings/openai"
)

var _ = Describe("Embedder", func() {
	It("requires an API key", func() {
		_, err := openai.NewEmbedder(openai.EmbedderConfig{})
		Expect(err).To(MatchError(ContainSubstring("API key is required")))
	})

	Context("against a fake server", func() {
		var (
			server   *httptest.Server
			status   int
			body     string
			auth     string
			received map[string]any
			embedder *openai.Embedder
		)

		BeforeEach(func() {
			status = http.StatusOK
			body = `{"data":[{"index":0,"embedding":[0.1,0.2,0.3]}]}`
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				Expect(r.URL.Path).To(Equal("/v1/embeddings"))
				auth = r.Header.Get("Authorization")
				json.NewDecoder(r.Body).Decode(&received)
				w.WriteHeader(status)
				w.Write([]byte(body))
			}))

			var err error
			embedder, err = openai.NewEmbedder(openai.EmbedderConfig{
				BaseURL:    server.URL,
				APIKey:     "sk-test",
				Dimensions: 3,
			})
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			server.Close()
		})

		It("sends one request and returns the vector", func() {
			v, err := embedder.Embed(context.Background(), "query text")
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal([]float32{0.1, 0.2, 0.3}))
			Expect(auth).To(Equal("Bearer sk-test"))
			Expect(received["model"]).To(Equal(openai.DefaultEmbeddingModel))
			Expect(received["input"]).To(Equal("query text"))
			Expect(received["dimensions"]).To(BeNumerically("==", 3))
		})

		It("surfaces the API error message", func() {
			status = http.StatusUnauthorized
			body = `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`

			_, err := embedder.Embed(context.Background(), "query text")
			Expect(errors.Is(err, embeddings.ErrProviderFailure)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("Incorrect API key provided"))
		})

		It("rejects responses without data", func() {
			body = `{"data":[]}`

			_, err := embedder.Embed(context.Background(), "query text")
			Expect(errors.Is(err, embeddings.ErrProviderFailure)).To(BeTrue())
		})
	})
})
