package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag describes a CLI flag backed by a config key. The same logical flag,
// such as --sqlite on serve, ingest and reconcile, is declared once here.
type Flag struct {
	Name      string
	Shorthand string

	// ViperKey is the dotted config key, e.g. "storage.sqlite_path".
	ViperKey    string
	Description string
}

// FlagSet maps registry keys to flags.
type FlagSet map[string]Flag

// Registry keys of Flags.
const (
	FlagAPIListen       = "api-listen"
	FlagAPITarget       = "api-target"
	FlagCaller          = "caller"
	FlagMCPCaller       = "mcp-caller"
	FlagStorageProv     = "storage-provider"
	FlagSQLite          = "sqlite"
	FlagPostgresDSN     = "postgres-dsn"
	FlagVectorStoreProv = "vector-store-provider"
	FlagVectorStoreTgt  = "vector-store-target"
	FlagEmbeddingProv   = "embedding-provider"
	FlagEmbeddingTgt    = "embedding-target"
	FlagEmbeddingModel  = "embedding-model"
	FlagEmbeddingDims   = "embedding-dimensions"
	FlagTokensPerWindow = "tokens-per-window"
	FlagSentenceOverlap = "sentence-overlap"
	FlagResultLimit     = "limit"
	FlagRewriteProv     = "rewrite-provider"
	FlagEventsProv      = "events-provider"
	FlagEventsBrokers   = "events-brokers"
)

// Flags is the registry shared by every folio command.
var Flags = FlagSet{
	FlagAPIListen:       {Name: "listen", Shorthand: "l", ViperKey: "api.listen", Description: "Address for the API server to listen on"},
	FlagAPITarget:       {Name: "api-target", ViperKey: "client.api_target", Description: "folio API server URL"},
	FlagCaller:          {Name: "caller", ViperKey: "client.caller", Description: "Caller identity sent to the API server"},
	FlagMCPCaller:       {Name: "mcp-caller", ViperKey: "api.mcp_caller", Description: "Caller identity of MCP tool calls (empty disables /mcp)"},
	FlagStorageProv:     {Name: "storage-provider", ViperKey: "storage.provider", Description: "Document store (memory, sqlite, postgres)"},
	FlagSQLite:          {Name: "sqlite", Shorthand: "s", ViperKey: "storage.sqlite_path", Description: "Path to the SQLite document database"},
	FlagPostgresDSN:     {Name: "postgres-dsn", ViperKey: "storage.postgres_dsn", Description: "PostgreSQL connection string"},
	FlagVectorStoreProv: {Name: "vector-store-provider", ViperKey: "vector_store.provider", Description: "Vector store (memory, sqlite, chroma, qdrant)"},
	FlagVectorStoreTgt:  {Name: "vector-store-target", ViperKey: "vector_store.target", Description: "Vector store URL, or database path for sqlite"},
	FlagEmbeddingProv:   {Name: "embedding-provider", ViperKey: "embedding.provider", Description: "Embedding provider (openai, ollama)"},
	FlagEmbeddingTgt:    {Name: "embedding-target", ViperKey: "embedding.target", Description: "Embedding provider URL"},
	FlagEmbeddingModel:  {Name: "embedding-model", ViperKey: "embedding.model", Description: "Embedding model name"},
	FlagEmbeddingDims:   {Name: "embedding-dimensions", ViperKey: "embedding.dimensions", Description: "Embedding vector length"},
	FlagTokensPerWindow: {Name: "tokens-per-window", ViperKey: "chunking.tokens_per_window", Description: "Token budget of a chunk window"},
	FlagSentenceOverlap: {Name: "sentence-overlap", ViperKey: "chunking.sentence_overlap", Description: "Sentences shared by consecutive windows"},
	FlagResultLimit:     {Name: "limit", Shorthand: "n", ViperKey: "retrieval.result_limit", Description: "Maximum number of results"},
	FlagRewriteProv:     {Name: "rewrite-provider", ViperKey: "rewrite.provider", Description: "Query rewrite provider (none, openai, ollama)"},
	FlagEventsProv:      {Name: "events-provider", ViperKey: "events.provider", Description: "Event stream (nop, kafka)"},
	FlagEventsBrokers:   {Name: "events-brokers", ViperKey: "events.brokers", Description: "Comma separated Kafka brokers"},
}

// AddStringFlag registers the string flag key of fs on cmd. Name, shorthand,
// description and default all come from the registry. Unknown keys are
// ignored.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	if def, ok := fs[key]; ok {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaults().GetString(def.ViperKey), def.Description)
	}
}

// AddUintFlag registers the uint flag key of fs on cmd.
func AddUintFlag(cmd *cobra.Command, fs FlagSet, key string, target *uint) {
	if def, ok := fs[key]; ok {
		cmd.Flags().UintVarP(target, def.Name, def.Shorthand, defaults().GetUint(def.ViperKey), def.Description)
	}
}

// BindRegisteredFlags connects the flags of keys already registered on cmd
// to v, so a flag set on the command line wins over env, file and defaults.
// Call it after InitViper.
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, keys []string) {
	for _, key := range keys {
		def, ok := fs[key]
		if !ok {
			continue
		}
		if f := cmd.Flags().Lookup(def.Name); f != nil {
			_ = v.BindPFlag(def.ViperKey, f)
		}
	}
}

// defaults returns a viper holding only NewDefaultConfig values.
func defaults() *viper.Viper {
	v := viper.New()
	setViperDefaults(v)
	return v
}
