package config

import (
	"errors"
	"fmt"
)

// MaxSentenceOverlap is the largest accepted chunking.sentence_overlap.
const MaxSentenceOverlap = 64

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid config")

// Validate checks the ranges of the numeric settings and the provider names.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if c.Chunking.TokensPerWindow < 1 {
		add("chunking.tokens_per_window must be at least 1")
	}
	if c.Chunking.SentenceOverlap > MaxSentenceOverlap {
		add("chunking.sentence_overlap must be between 0 and %d, got %d", MaxSentenceOverlap, c.Chunking.SentenceOverlap)
	}
	if c.Embedding.Dimensions < 1 {
		add("embedding.dimensions must be at least 1")
	}
	if c.Retrieval.ResultLimit < 1 {
		add("retrieval.result_limit must be at least 1")
	}
	if c.Retrieval.CandidatePoolSize < c.Retrieval.ResultLimit {
		add("retrieval.candidate_pool_size (%d) must not be smaller than retrieval.result_limit (%d)",
			c.Retrieval.CandidatePoolSize, c.Retrieval.ResultLimit)
	}

	oneOf := func(key, v string, allowed ...string) {
		for _, a := range allowed {
			if v == a {
				return
			}
		}
		add("%s must be one of %v, got %q", key, allowed, v)
	}
	oneOf("storage.provider", c.Storage.Provider, "memory", "sqlite", "postgres")
	oneOf("vector_store.provider", c.VectorStore.Provider, "memory", "sqlite", "chroma", "qdrant")
	oneOf("embedding.provider", c.Embedding.Provider, "openai", "ollama")
	oneOf("rewrite.provider", c.Rewrite.Provider, "none", "openai", "ollama")
	oneOf("events.provider", c.Events.Provider, "nop", "kafka")

	if c.Storage.Provider == "postgres" && c.Storage.PostgresDSN == "" {
		add("storage.postgres_dsn is required for the postgres provider")
	}
	if c.Events.Provider == "kafka" && len(c.Events.BrokerList()) == 0 {
		add("events.brokers is required for the kafka provider")
	}

	return errors.Join(errs...)
}
