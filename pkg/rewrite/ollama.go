package rewrite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type ollamaChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
}

type ollamaChatResponse struct {
	Message ollamaChatMessage `json:"message"`
	Done    bool              `json:"done"`
	Error   string            `json:"error"`
}

// Ollama rewrites queries with a local Ollama chat model.
type Ollama struct {
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewOllama creates an Ollama-backed rewriter.
func NewOllama(model, baseURL string) *Ollama {
	if model == "" {
		model = "llama3.2"
	}
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &Ollama{
		model:      model,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
}

func (o *Ollama) Rewrite(ctx context.Context, query string, tags []string) (string, error) {
	payload, err := json.Marshal(ollamaChatRequest{
		Model: o.model,
		Messages: []ollamaChatMessage{
			{Role: "system", Content: SystemPrompt},
			{Role: "user", Content: UserPrompt(query, tags)},
		},
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("%w: marshal ollama request: %v", ErrRewrite, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: create ollama request: %v", ErrRewrite, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: send ollama request: %v", ErrRewrite, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: ollama status %d: %s", ErrRewrite, resp.StatusCode, string(body))
	}

	var response ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("%w: decode ollama response: %v", ErrRewrite, err)
	}
	if response.Error != "" {
		return "", fmt.Errorf("%w: ollama error: %s", ErrRewrite, response.Error)
	}

	content := strings.TrimSpace(response.Message.Content)
	if content == "" {
		return "", ErrEmptyRewrite
	}
	return content, nil
}
