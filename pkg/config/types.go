package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Config represents the persistent folio configuration stored as config.toml
// in the .folio/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	Storage     StorageConfig     `toml:"storage"`
	API         APIConfig         `toml:"api"`
	Client      ClientConfig      `toml:"client"`
	VectorStore VectorStoreConfig `toml:"vector_store"`
	Embedding   EmbeddingConfig   `toml:"embedding"`
	Chunking    ChunkingConfig    `toml:"chunking"`
	Retrieval   RetrievalConfig   `toml:"retrieval"`
	Rewrite     RewriteConfig     `toml:"rewrite"`
	Events      EventsConfig      `toml:"events"`
}

// StorageConfig holds document store settings.
type StorageConfig struct {
	// Provider is one of "memory", "sqlite" or "postgres".
	Provider    string `toml:"provider,omitempty"`
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`

	// MCPCaller is the caller identity the MCP search tool is checked
	// against. The MCP endpoint is disabled when empty.
	MCPCaller string `toml:"mcp_caller,omitempty"`
}

// ClientConfig holds settings for CLI commands that connect to the running
// API server (e.g. folio search). Values are full URLs (scheme + host + port).
type ClientConfig struct {
	APITarget string `toml:"api_target,omitempty"`

	// Caller is sent as the caller identity on every API request.
	Caller string `toml:"caller,omitempty"`
}

// VectorStoreConfig holds vector store settings.
type VectorStoreConfig struct {
	// Provider is one of "memory", "sqlite", "chroma" or "qdrant".
	Provider string `toml:"provider,omitempty"`

	// Target is a URL for chroma and qdrant, or a database path for sqlite.
	Target     string `toml:"target,omitempty"`
	Collection string `toml:"collection,omitempty"`
	APIKey     string `toml:"api_key,omitempty"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Model      string `toml:"model,omitempty"`
	Dimensions uint   `toml:"dimensions,omitempty"`

	// MaxConcurrency bounds in-flight embedding calls per document. Zero is unbounded.
	MaxConcurrency uint `toml:"max_concurrency,omitempty"`
}

// ChunkingConfig holds window builder settings.
type ChunkingConfig struct {
	TokensPerWindow uint `toml:"tokens_per_window,omitempty"`
	SentenceOverlap uint `toml:"sentence_overlap"`
}

// RetrievalConfig holds similarity search settings.
type RetrievalConfig struct {
	ResultLimit       uint `toml:"result_limit,omitempty"`
	CandidatePoolSize uint `toml:"candidate_pool_size,omitempty"`
}

// RewriteConfig holds query rewrite settings.
type RewriteConfig struct {
	// Provider is one of "none", "openai" or "ollama".
	Provider string `toml:"provider,omitempty"`
	Target   string `toml:"target,omitempty"`
	Model    string `toml:"model,omitempty"`
}

// EventsConfig holds event stream settings.
type EventsConfig struct {
	// Provider is "nop" or "kafka".
	Provider string `toml:"provider,omitempty"`

	// Brokers is a comma separated list of Kafka bootstrap brokers.
	Brokers string `toml:"brokers,omitempty"`
	Topic   string `toml:"topic,omitempty"`
}

// BrokerList splits Brokers into its non-empty entries.
func (e EventsConfig) BrokerList() []string {
	var out []string
	for _, b := range strings.Split(e.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func stringKey(field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error { *field(c) = v; return nil },
	}
}

func uintKey(name string, field func(c *Config) *uint) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			return strconv.FormatUint(uint64(*field(c)), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = uint(n)
			return nil
		},
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"storage.provider":     stringKey(func(c *Config) *string { return &c.Storage.Provider }),
	"storage.sqlite_path":  stringKey(func(c *Config) *string { return &c.Storage.SQLitePath }),
	"storage.postgres_dsn": stringKey(func(c *Config) *string { return &c.Storage.PostgresDSN }),

	"api.listen":        stringKey(func(c *Config) *string { return &c.API.Listen }),
	"api.mcp_caller":    stringKey(func(c *Config) *string { return &c.API.MCPCaller }),
	"client.api_target": stringKey(func(c *Config) *string { return &c.Client.APITarget }),
	"client.caller":     stringKey(func(c *Config) *string { return &c.Client.Caller }),

	"vector_store.provider":   stringKey(func(c *Config) *string { return &c.VectorStore.Provider }),
	"vector_store.target":     stringKey(func(c *Config) *string { return &c.VectorStore.Target }),
	"vector_store.collection": stringKey(func(c *Config) *string { return &c.VectorStore.Collection }),
	"vector_store.api_key":    stringKey(func(c *Config) *string { return &c.VectorStore.APIKey }),

	"embedding.provider": stringKey(func(c *Config) *string { return &c.Embedding.Provider }),
	"embedding.target":   stringKey(func(c *Config) *string { return &c.Embedding.Target }),
	"embedding.model":    stringKey(func(c *Config) *string { return &c.Embedding.Model }),
	"embedding.dimensions": uintKey("embedding.dimensions",
		func(c *Config) *uint { return &c.Embedding.Dimensions }),
	"embedding.max_concurrency": uintKey("embedding.max_concurrency",
		func(c *Config) *uint { return &c.Embedding.MaxConcurrency }),

	"chunking.tokens_per_window": uintKey("chunking.tokens_per_window",
		func(c *Config) *uint { return &c.Chunking.TokensPerWindow }),
	"chunking.sentence_overlap": uintKey("chunking.sentence_overlap",
		func(c *Config) *uint { return &c.Chunking.SentenceOverlap }),

	"retrieval.result_limit": uintKey("retrieval.result_limit",
		func(c *Config) *uint { return &c.Retrieval.ResultLimit }),
	"retrieval.candidate_pool_size": uintKey("retrieval.candidate_pool_size",
		func(c *Config) *uint { return &c.Retrieval.CandidatePoolSize }),

	"rewrite.provider": stringKey(func(c *Config) *string { return &c.Rewrite.Provider }),
	"rewrite.target":   stringKey(func(c *Config) *string { return &c.Rewrite.Target }),
	"rewrite.model":    stringKey(func(c *Config) *string { return &c.Rewrite.Model }),

	"events.provider": stringKey(func(c *Config) *string { return &c.Events.Provider }),
	"events.brokers":  stringKey(func(c *Config) *string { return &c.Events.Brokers }),
	"events.topic":    stringKey(func(c *Config) *string { return &c.Events.Topic }),
}
