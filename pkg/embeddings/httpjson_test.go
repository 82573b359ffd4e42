package embeddings_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/folio/pkg/embeddings"
)

var _ = Describe("PostJSON", func() {
	It("sends headers and decodes the body", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Expect(r.Header.Get("Content-Type")).To(Equal("application/json"))
			Expect(r.Header.Get("X-Key")).To(Equal("k"))
			var in map[string]string
			Expect(json.NewDecoder(r.Body).Decode(&in)).To(Succeed())
			json.NewEncoder(w).Encode(map[string]string{"echo": in["q"]})
		}))
		defer server.Close()

		var out struct{ Echo string }
		err := embeddings.PostJSON(context.Background(), server.Client(), "test", server.URL,
			http.Header{"X-Key": {"k"}}, map[string]string{"q": "hi"}, &out)
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Echo).To(Equal("hi"))
	})

	It("exposes the status and body of failed calls", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "slow down", http.StatusTooManyRequests)
		}))
		defer server.Close()

		err := embeddings.PostJSON(context.Background(), server.Client(), "test", server.URL, nil, struct{}{}, &struct{}{})
		Expect(errors.Is(err, embeddings.ErrProviderFailure)).To(BeTrue())

		var status *embeddings.StatusError
		Expect(errors.As(err, &status)).To(BeTrue())
		Expect(status.Code).To(Equal(http.StatusTooManyRequests))
		Expect(err.Error()).To(ContainSubstring("test returned status 429: slow down"))
	})
})
