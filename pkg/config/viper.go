package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/folio/pkg/dotdir"
)

// EnvPrefix prefixes every environment variable read by viper.
const EnvPrefix = "FOLIO"

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the FOLIO_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (FOLIO_API_LISTEN, FOLIO_EMBEDDING_MODEL, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery via dotdir resolution.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables: FOLIO_API_LISTEN, FOLIO_STORAGE_SQLITE_PATH, etc.
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Storage
	v.SetDefault("storage.provider", d.Storage.Provider)
	v.SetDefault("storage.sqlite_path", d.Storage.SQLitePath)
	v.SetDefault("storage.postgres_dsn", d.Storage.PostgresDSN)

	// API and client
	v.SetDefault("api.listen", d.API.Listen)
	v.SetDefault("api.mcp_caller", d.API.MCPCaller)
	v.SetDefault("client.api_target", d.Client.APITarget)
	v.SetDefault("client.caller", d.Client.Caller)

	// Vector store
	v.SetDefault("vector_store.provider", d.VectorStore.Provider)
	v.SetDefault("vector_store.target", d.VectorStore.Target)
	v.SetDefault("vector_store.collection", d.VectorStore.Collection)
	v.SetDefault("vector_store.api_key", d.VectorStore.APIKey)

	// Embedding
	v.SetDefault("embedding.provider", d.Embedding.Provider)
	v.SetDefault("embedding.target", d.Embedding.Target)
	v.SetDefault("embedding.model", d.Embedding.Model)
	v.SetDefault("embedding.dimensions", d.Embedding.Dimensions)
	v.SetDefault("embedding.max_concurrency", d.Embedding.MaxConcurrency)

	// Chunking
	v.SetDefault("chunking.tokens_per_window", d.Chunking.TokensPerWindow)
	v.SetDefault("chunking.sentence_overlap", d.Chunking.SentenceOverlap)

	// Retrieval
	v.SetDefault("retrieval.result_limit", d.Retrieval.ResultLimit)
	v.SetDefault("retrieval.candidate_pool_size", d.Retrieval.CandidatePoolSize)

	// Rewrite
	v.SetDefault("rewrite.provider", d.Rewrite.Provider)
	v.SetDefault("rewrite.target", d.Rewrite.Target)
	v.SetDefault("rewrite.model", d.Rewrite.Model)

	// Events
	v.SetDefault("events.provider", d.Events.Provider)
	v.SetDefault("events.brokers", d.Events.Brokers)
	v.SetDefault("events.topic", d.Events.Topic)
}

// FromViper assembles a validated Config from the resolved viper values.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Version: v.GetInt("version"),
		Storage: StorageConfig{
			Provider:    v.GetString("storage.provider"),
			SQLitePath:  v.GetString("storage.sqlite_path"),
			PostgresDSN: v.GetString("storage.postgres_dsn"),
		},
		API:    APIConfig{Listen: v.GetString("api.listen"), MCPCaller: v.GetString("api.mcp_caller")},
		Client: ClientConfig{APITarget: v.GetString("client.api_target"), Caller: v.GetString("client.caller")},
		VectorStore: VectorStoreConfig{
			Provider:   v.GetString("vector_store.provider"),
			Target:     v.GetString("vector_store.target"),
			Collection: v.GetString("vector_store.collection"),
			APIKey:     v.GetString("vector_store.api_key"),
		},
		Embedding: EmbeddingConfig{
			Provider:       v.GetString("embedding.provider"),
			Target:         v.GetString("embedding.target"),
			Model:          v.GetString("embedding.model"),
			Dimensions:     v.GetUint("embedding.dimensions"),
			MaxConcurrency: v.GetUint("embedding.max_concurrency"),
		},
		Chunking: ChunkingConfig{
			TokensPerWindow: v.GetUint("chunking.tokens_per_window"),
			SentenceOverlap: v.GetUint("chunking.sentence_overlap"),
		},
		Retrieval: RetrievalConfig{
			ResultLimit:       v.GetUint("retrieval.result_limit"),
			CandidatePoolSize: v.GetUint("retrieval.candidate_pool_size"),
		},
		Rewrite: RewriteConfig{
			Provider: v.GetString("rewrite.provider"),
			Target:   v.GetString("rewrite.target"),
			Model:    v.GetString("rewrite.model"),
		},
		Events: EventsConfig{
			Provider: v.GetString("events.provider"),
			Brokers:  v.GetString("events.brokers"),
			Topic:    v.GetString("events.topic"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
