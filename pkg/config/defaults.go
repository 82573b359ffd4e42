package config

const (
	defaultStorageProvider = "sqlite"
	defaultAPIListen       = ":8081"

	defaultClientAPITarget = "http://localhost:8081"

	defaultVectorProvider   = "sqlite"
	defaultVectorCollection = "folio_chunks"

	defaultEmbeddingProvider   = "openai"
	defaultEmbeddingTarget     = "https://api.openai.com"
	defaultEmbeddingModel      = "text-embedding-3-small"
	defaultEmbeddingDimensions = 1536

	defaultTokensPerWindow = 500
	defaultSentenceOverlap = 2

	defaultResultLimit       = 10
	defaultCandidatePoolSize = 200

	defaultRewriteProvider = "openai"
	defaultRewriteModel    = "gpt-4o-mini"

	defaultEventsProvider = "nop"
	defaultEventsTopic    = "folio.documents"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Storage: StorageConfig{
			Provider: defaultStorageProvider,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Client: ClientConfig{
			APITarget: defaultClientAPITarget,
		},
		VectorStore: VectorStoreConfig{
			Provider:   defaultVectorProvider,
			Collection: defaultVectorCollection,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultEmbeddingProvider,
			Target:     defaultEmbeddingTarget,
			Model:      defaultEmbeddingModel,
			Dimensions: defaultEmbeddingDimensions,
		},
		Chunking: ChunkingConfig{
			TokensPerWindow: defaultTokensPerWindow,
			SentenceOverlap: defaultSentenceOverlap,
		},
		Retrieval: RetrievalConfig{
			ResultLimit:       defaultResultLimit,
			CandidatePoolSize: defaultCandidatePoolSize,
		},
		Rewrite: RewriteConfig{
			Provider: defaultRewriteProvider,
			Target:   defaultEmbeddingTarget,
			Model:    defaultRewriteModel,
		},
		Events: EventsConfig{
			Provider: defaultEventsProvider,
			Topic:    defaultEventsTopic,
		},
	}
}
