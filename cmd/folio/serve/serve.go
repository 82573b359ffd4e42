// Package servecmder provides the serve command that runs the folio API
// server.
package servecmder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/folio/api"
	"github.com/papercomputeco/folio/api/mcp"
	"github.com/papercomputeco/folio/cmd/folio/services"
	"github.com/papercomputeco/folio/pkg/config"
	"github.com/papercomputeco/folio/pkg/permission"
)

type serveCommander struct {
	cfg       *config.Config
	configDir string
	logFile   string
	logger    *slog.Logger
}

const serveLongDesc string = `Run the folio API server.

The server exposes wiki, page and tag management plus semantic search under
/v1, and an MCP search tool under /mcp when --mcp-caller is set. Every
wiki-scoped request must carry the X-Folio-Caller header of a wiki member.

Stores, embedding provider and query rewriting are configured through
config.toml, FOLIO_* environment variables or the flags below.

Example:
  folio serve
  folio serve --log-file /var/log/folio.jsonl
  folio serve --listen :9000 --storage-provider postgres --postgres-dsn postgres://localhost/folio
  folio serve --embedding-provider ollama --embedding-model nomic-embed-text --embedding-dimensions 768`

const serveShortDesc string = "Run the folio API server"

var serveFlags = append([]string{
	config.FlagAPIListen,
	config.FlagMCPCaller,
	config.FlagRewriteProv,
}, services.StoreFlags...)

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.cfg, err = services.LoadConfig(cmd, serveFlags)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			cmder.logger = services.NewLogger(cmd)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmder.logFile != "" {
				l, f, err := services.WithLogFile(cmd, cmder.logger, cmder.logFile)
				if err != nil {
					return err
				}
				defer f.Close()
				cmder.logger = l
			}
			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also write JSON logs to this file")
	services.AddFlags(cmd, serveFlags)

	return cmd
}

func (c *serveCommander) run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	svc, err := services.Open(ctx, c.cfg, c.configDir, c.logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	ingester, err := svc.Ingester()
	if err != nil {
		return err
	}
	retriever, err := svc.Retriever()
	if err != nil {
		return err
	}

	checker := permission.NewMembershipChecker(svc.Store)

	var mcpServer *mcp.Server
	if c.cfg.API.MCPCaller != "" {
		mcpServer, err = mcp.NewServer(mcp.Config{
			Retriever: retriever,
			Checker:   checker,
			CallerID:  c.cfg.API.MCPCaller,
			Logger:    c.logger,
		})
		if err != nil {
			return fmt.Errorf("creating MCP server: %w", err)
		}
	}

	server, err := api.NewServer(api.Config{
		ListenAddr: c.cfg.API.Listen,
		Store:      svc.Store,
		Ingester:   ingester,
		Retriever:  retriever,
		Checker:    checker,
		MCP:        mcpServer,
	}, c.logger)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig.String())
		return server.Shutdown()
	}
}
