// Package services resolves configuration and opens the stores and clients
// shared by the folio commands. Handles are opened once per command and
// closed together when it exits.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/folio/cmd/folio/client"
	"github.com/papercomputeco/folio/pkg/config"
	"github.com/papercomputeco/folio/pkg/credentials"
	"github.com/papercomputeco/folio/pkg/dotdir"
	"github.com/papercomputeco/folio/pkg/embeddings"
	embeddingutils "github.com/papercomputeco/folio/pkg/embeddings/utils"
	"github.com/papercomputeco/folio/pkg/eventstream"
	eventstreamutils "github.com/papercomputeco/folio/pkg/eventstream/utils"
	"github.com/papercomputeco/folio/pkg/ingest"
	"github.com/papercomputeco/folio/pkg/logger"
	"github.com/papercomputeco/folio/pkg/retrieve"
	"github.com/papercomputeco/folio/pkg/rewrite"
	"github.com/papercomputeco/folio/pkg/storage"
	storageutils "github.com/papercomputeco/folio/pkg/storage/utils"
	"github.com/papercomputeco/folio/pkg/vector"
	vectorutils "github.com/papercomputeco/folio/pkg/vector/utils"
)

const (
	documentDBName = "folio.db"
	vectorDBName   = "folio_vectors.db"
)

// StoreFlags are the registry keys of every flag that configures the stores
// and the embedding pipeline.
var StoreFlags = []string{
	config.FlagStorageProv,
	config.FlagSQLite,
	config.FlagPostgresDSN,
	config.FlagVectorStoreProv,
	config.FlagVectorStoreTgt,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
	config.FlagTokensPerWindow,
	config.FlagSentenceOverlap,
	config.FlagEventsProv,
	config.FlagEventsBrokers,
}

// ClientFlags are the registry keys of the flags shared by commands that call
// a running API server.
var ClientFlags = []string{
	config.FlagAPITarget,
	config.FlagCaller,
}

// AddFlags registers the flags in keys on cmd. Values are read back through
// viper once bound, so the flag targets are not kept.
func AddFlags(cmd *cobra.Command, keys []string) {
	for _, key := range keys {
		switch key {
		case config.FlagEmbeddingDims, config.FlagTokensPerWindow, config.FlagSentenceOverlap, config.FlagResultLimit:
			config.AddUintFlag(cmd, config.Flags, key, new(uint))
		default:
			config.AddStringFlag(cmd, config.Flags, key, new(string))
		}
	}
}

// LoadConfig resolves the validated configuration for cmd from defaults,
// config.toml, FOLIO_* environment variables and the flags in keys.
func LoadConfig(cmd *cobra.Command, keys []string) (*config.Config, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")

	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, err
	}
	config.BindRegisteredFlags(v, cmd, config.Flags, keys)

	return config.FromViper(v)
}

// NewLogger returns the command logger, pretty when stdout is a terminal.
func NewLogger(cmd *cobra.Command) *slog.Logger {
	debug, _ := cmd.Flags().GetBool("debug")
	return logger.New(
		logger.WithDebug(debug),
		logger.WithPretty(term.IsTerminal(int(os.Stdout.Fd()))),
		logger.WithComponent(cmd.Name()),
	)
}

// WithLogFile mirrors base into path as JSON records. The returned file must
// be closed by the caller.
func WithLogFile(cmd *cobra.Command, base *slog.Logger, path string) (*slog.Logger, *os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	debug, _ := cmd.Flags().GetBool("debug")
	file := logger.New(
		logger.WithWriter(f),
		logger.WithJSON(true),
		logger.WithDebug(debug),
		logger.WithSource(true),
		logger.WithComponent(cmd.Name()),
	)
	return logger.Multi(base, file), f, nil
}

// NewClient builds an API client from the config resolved for cmd.
func NewClient(cmd *cobra.Command) (*client.Client, error) {
	cfg, err := LoadConfig(cmd, ClientFlags)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return client.New(cfg.Client.APITarget, cfg.Client.Caller, nil)
}

// Services holds the opened stores and clients.
type Services struct {
	Config    *config.Config
	Store     storage.Driver
	Vectors   vector.Driver
	Embedder  embeddings.Embedder
	Publisher eventstream.Publisher
	Logger    *slog.Logger

	openAIKey string
}

// Open opens the document store, vector store, embedder and event publisher
// described by cfg. configDir locates the default SQLite databases.
func Open(ctx context.Context, cfg *config.Config, configDir string, log *slog.Logger) (*Services, error) {
	s := &Services{Config: cfg, Logger: log}
	ddm := dotdir.NewManager()

	creds, err := credentials.NewManager(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading credentials: %w", err)
	}
	s.openAIKey, err = creds.Resolve("openai")
	if err != nil {
		return nil, fmt.Errorf("loading credentials: %w", err)
	}
	vectorKey := cfg.VectorStore.APIKey
	if vectorKey == "" && cfg.VectorStore.Provider == "qdrant" {
		vectorKey, err = creds.Resolve("qdrant")
		if err != nil {
			return nil, fmt.Errorf("loading credentials: %w", err)
		}
	}

	sqlitePath := cfg.Storage.SQLitePath
	if cfg.Storage.Provider == "sqlite" && sqlitePath == "" {
		p, err := ddm.Path(configDir, documentDBName)
		if err != nil {
			return nil, fmt.Errorf("resolving document database: %w", err)
		}
		sqlitePath = p
	}

	store, err := storageutils.NewStorageDriver(ctx, &storageutils.NewStorageDriverOpts{
		ProviderType: cfg.Storage.Provider,
		SQLitePath:   sqlitePath,
		PostgresDSN:  cfg.Storage.PostgresDSN,
		Logger:       log,
	})
	if err != nil {
		return nil, fmt.Errorf("opening document store: %w", err)
	}
	s.Store = store
	log.Info("opened document store", "provider", cfg.Storage.Provider, "path", sqlitePath)

	vectorPath := cfg.VectorStore.Target
	if cfg.VectorStore.Provider == "sqlite" && vectorPath == "" {
		p, err := ddm.Path(configDir, vectorDBName)
		if err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("resolving vector database: %w", err)
		}
		vectorPath = p
	}

	vectors, err := vectorutils.NewVectorDriver(ctx, &vectorutils.NewVectorDriverOpts{
		ProviderType: cfg.VectorStore.Provider,
		TargetURL:    cfg.VectorStore.Target,
		SQLitePath:   vectorPath,
		Collection:   cfg.VectorStore.Collection,
		Dimensions:   cfg.Embedding.Dimensions,
		APIKey:       vectorKey,
		Logger:       log,
	})
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("opening vector store: %w", err)
	}
	s.Vectors = vectors
	log.Info("opened vector store", "provider", cfg.VectorStore.Provider)

	embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType: cfg.Embedding.Provider,
		TargetURL:    cfg.Embedding.Target,
		Model:        cfg.Embedding.Model,
		APIKey:       s.openAIKey,
		Dimensions:   int(cfg.Embedding.Dimensions),
	})
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("creating embedder: %w", err)
	}
	s.Embedder = embedder

	publisher, err := eventstreamutils.NewPublisher(&eventstreamutils.NewPublisherOpts{
		ProviderType: cfg.Events.Provider,
		Brokers:      cfg.Events.BrokerList(),
		Topic:        cfg.Events.Topic,
		Logger:       log,
	})
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("creating event publisher: %w", err)
	}
	s.Publisher = publisher

	return s, nil
}

// Ingester builds an ingest.Ingester over the opened stores.
func (s *Services) Ingester() (*ingest.Ingester, error) {
	return ingest.New(&ingest.Config{
		Store:           s.Store,
		Vectors:         s.Vectors,
		Embedder:        s.Embedder,
		Publisher:       s.Publisher,
		TokensPerWindow: int(s.Config.Chunking.TokensPerWindow),
		SentenceOverlap: int(s.Config.Chunking.SentenceOverlap),
		Dimensions:      int(s.Config.Embedding.Dimensions),
		MaxConcurrency:  int(s.Config.Embedding.MaxConcurrency),
		Logger:          s.Logger,
	})
}

// Retriever builds a retrieve.Retriever, including the configured query
// rewriter.
func (s *Services) Retriever() (*retrieve.Retriever, error) {
	rewriter, err := rewrite.New(rewrite.Config{
		Provider: s.Config.Rewrite.Provider,
		Model:    s.Config.Rewrite.Model,
		BaseURL:  s.Config.Rewrite.Target,
		APIKey:   s.openAIKey,
	})
	if err != nil {
		s.Logger.Warn("query rewrite disabled", "error", err)
		rewriter = nil
	}

	return retrieve.New(&retrieve.Config{
		Store:         s.Store,
		Vectors:       s.Vectors,
		Embedder:      s.Embedder,
		Rewriter:      rewriter,
		ResultLimit:   int(s.Config.Retrieval.ResultLimit),
		CandidatePool: int(s.Config.Retrieval.CandidatePoolSize),
		Dimensions:    int(s.Config.Embedding.Dimensions),
		Logger:        s.Logger,
	})
}

// Close closes every opened handle.
func (s *Services) Close() error {
	var errs []error
	if s.Publisher != nil {
		errs = append(errs, s.Publisher.Close())
	}
	if s.Embedder != nil {
		errs = append(errs, s.Embedder.Close())
	}
	if s.Vectors != nil {
		errs = append(errs, s.Vectors.Close())
	}
	if s.Store != nil {
		errs = append(errs, s.Store.Close())
	}
	return errors.Join(errs...)
}
