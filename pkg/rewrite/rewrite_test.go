package rewrite_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/folio/pkg/rewrite"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   *bool         `json:"stream"`
}

var _ = Describe("UserPrompt", func() {
	It("formats the query alone", func() {
		Expect(rewrite.UserPrompt("cats", nil)).To(Equal("USER QUERY = {cats}"))
	})

	It("appends tags joined by spaces", func() {
		Expect(rewrite.UserPrompt("cats", []string{"pets", "animals"})).
			To(Equal("USER QUERY = {cats} TAGS = {pets animals}"))
	})
})

var _ = Describe("OpenAI", func() {
	var (
		server   *httptest.Server
		handler  http.HandlerFunc
		received chatRequest
		auth     string
	)

	BeforeEach(func() {
		received = chatRequest{}
		handler = func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"choices":[{"message":{"content":"  cats felines pets  "}}]}`))
		}
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Expect(r.URL.Path).To(Equal("/v1/chat/completions"))
			auth = r.Header.Get("Authorization")
			json.NewDecoder(r.Body).Decode(&received)
			handler(w, r)
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	It("sends the system prompt and the formatted query", func() {
		r := rewrite.NewOpenAI("sk-test", "", server.URL)

		out, err := r.Rewrite(context.Background(), "cats", []string{"pets"})
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("cats felines pets"))

		Expect(auth).To(Equal("Bearer sk-test"))
		Expect(received.Model).To(Equal("gpt-4o-mini"))
		Expect(received.Messages).To(HaveLen(2))
		Expect(received.Messages[0]).To(Equal(chatMessage{Role: "system", Content: rewrite.SystemPrompt}))
		Expect(received.Messages[1]).To(Equal(chatMessage{Role: "user", Content: "USER QUERY = {cats} TAGS = {pets}"}))
	})

	It("surfaces API errors", func() {
		handler = func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":{"message":"bad key"}}`))
		}

		_, err := rewrite.NewOpenAI("sk-test", "", server.URL).Rewrite(context.Background(), "cats", nil)
		Expect(errors.Is(err, rewrite.ErrRewrite)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("bad key"))
	})

	It("rejects empty completions", func() {
		handler = func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"choices":[]}`))
		}

		_, err := rewrite.NewOpenAI("sk-test", "", server.URL).Rewrite(context.Background(), "cats", nil)
		Expect(errors.Is(err, rewrite.ErrEmptyRewrite)).To(BeTrue())
	})
})

var _ = Describe("Ollama", func() {
	var (
		server   *httptest.Server
		handler  http.HandlerFunc
		received chatRequest
	)

	BeforeEach(func() {
		received = chatRequest{}
		handler = func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"message":{"role":"assistant","content":"cats and felines"},"done":true}`))
		}
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Expect(r.URL.Path).To(Equal("/api/chat"))
			json.NewDecoder(r.Body).Decode(&received)
			handler(w, r)
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	It("requests a non-streaming chat", func() {
		out, err := rewrite.NewOllama("qwen", server.URL).Rewrite(context.Background(), "cats", nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("cats and felines"))

		Expect(received.Model).To(Equal("qwen"))
		Expect(received.Stream).NotTo(BeNil())
		Expect(*received.Stream).To(BeFalse())
		Expect(received.Messages[1].Content).To(Equal("USER QUERY = {cats}"))
	})

	It("wraps non-200 responses", func() {
		handler = func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "model not found", http.StatusNotFound)
		}

		_, err := rewrite.NewOllama("qwen", server.URL).Rewrite(context.Background(), "cats", nil)
		Expect(errors.Is(err, rewrite.ErrRewrite)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("404"))
	})

	It("surfaces errors reported in the body", func() {
		handler = func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"error":"out of memory"}`))
		}

		_, err := rewrite.NewOllama("qwen", server.URL).Rewrite(context.Background(), "cats", nil)
		Expect(err).To(MatchError(ContainSubstring("out of memory")))
	})
})

var _ = Describe("New", func() {
	It("returns nil for the none provider", func() {
		r, err := rewrite.New(rewrite.Config{Provider: "none"})
		Expect(err).NotTo(HaveOccurred())
		Expect(r).To(BeNil())
	})

	It("builds an ollama rewriter", func() {
		r, err := rewrite.New(rewrite.Config{Provider: "ollama"})
		Expect(err).NotTo(HaveOccurred())
		Expect(r).To(BeAssignableToTypeOf(&rewrite.Ollama{}))
	})

	It("builds an openai rewriter with an explicit key", func() {
		r, err := rewrite.New(rewrite.Config{Provider: "openai", APIKey: "sk-test"})
		Expect(err).NotTo(HaveOccurred())
		Expect(r).To(BeAssignableToTypeOf(&rewrite.OpenAI{}))
	})

	It("rejects unknown providers", func() {
		_, err := rewrite.New(rewrite.Config{Provider: "carrier-pigeon"})
		Expect(err).To(MatchError(ContainSubstring("unsupported rewrite provider")))
	})
})
