package rewrite

import (
	"fmt"
	"os"
	"strings"
)

// Config selects and configures a rewriter.
type Config struct {
	// Provider is "openai", "ollama" or "none".
	Provider string
	Model    string
	BaseURL  string

	// APIKey falls back to OPENAI_API_KEY for the openai provider.
	APIKey string
}

// New builds the configured rewriter. The "none" provider and an empty
// provider return a nil Rewriter, which disables rewriting.
func New(cfg Config) (Rewriter, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "none":
		return nil, nil
	case "openai":
		key := cfg.APIKey
		if key == "" {
			key = os.Getenv("OPENAI_API_KEY")
		}
		if key == "" {
			return nil, fmt.Errorf("openai rewriter requires an API key")
		}
		return NewOpenAI(key, cfg.Model, cfg.BaseURL), nil
	case "ollama":
		return NewOllama(cfg.Model, cfg.BaseURL), nil
	default:
		return nil, fmt.Errorf("unsupported rewrite provider: %s", cfg.Provider)
	}
}
