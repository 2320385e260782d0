package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/answerly/knowledge/internal/api"
	"github.com/answerly/knowledge/internal/config"
	"github.com/answerly/knowledge/internal/crawler"
	"github.com/answerly/knowledge/internal/ingest"
	"github.com/answerly/knowledge/internal/pipeline"
	"github.com/answerly/knowledge/internal/retrieval"
	"github.com/answerly/knowledge/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the knowledge engine server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func runServer() error {
	fmt.Fprintf(os.Stderr, "knowledge version %s\n", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	// Initialize structured logging.
	logLevel := slog.LevelInfo
	if strings.EqualFold(cfg.Log.Level, "debug") {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Open storage.
	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer store.Close()

	// Pick the page fetcher: headless browser when available, plain HTTP
	// otherwise. The fallback still yields a single-page knowledge base.
	var fetcher crawler.PageFetcher
	rendering := false
	cleanup := func() {}
	if cfg.Crawler.DisableRendering {
		fetcher = crawler.NewPlainFetcher(nil)
		slog.Info("rendering disabled by config, using plain HTTP fetcher")
	} else {
		fetcher, rendering, cleanup = crawler.DetectFetcher(ctx)
	}
	defer cleanup()

	siteCrawler := crawler.New(fetcher, rendering)
	builder := ingest.NewBuilder(store)
	worker := ingest.NewWorker(store, siteCrawler, builder, ingest.WorkerConfig{
		PageTimeout:   time.Duration(cfg.Crawler.PageTimeoutSecs) * time.Second,
		CrawlDeadline: time.Duration(cfg.Crawler.DeadlineSecs) * time.Second,
		MaxPages:      cfg.Crawler.MaxPages,
	})

	retriever := retrieval.NewRetriever(store)
	gate := pipeline.NewCounterGate(store, cfg.Usage.DefaultMessageLimit)
	chat := pipeline.NewService(store, gate, retriever, cfg.Retrieval.Limit)

	handler := api.NewHandler(api.AppDeps{
		Store:   store,
		Chat:    chat,
		Builder: builder,
		Token:   cfg.Server.APIToken,
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	// MCP server for operator tooling (stdio transport).
	mcpSrv := api.NewMCPServer(api.MCPDeps{
		Store:     store,
		Retriever: retriever,
		Builder:   builder,
	})
	stdioSrv := mcpserver.NewStdioServer(mcpSrv)
	go func() {
		if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("MCP stdio server error", "error", err)
		}
	}()
	slog.Info("MCP server started (stdio transport)")

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		worker.Run(gctx)
		return nil
	})

	g.Go(func() error {
		slog.Info("knowledge engine listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
