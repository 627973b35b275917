package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chiawen/aiwriter/internal/batch"
	"github.com/chiawen/aiwriter/internal/config"
	"github.com/chiawen/aiwriter/internal/fetch"
	"github.com/chiawen/aiwriter/internal/generator"
	"github.com/chiawen/aiwriter/internal/github"
	"github.com/chiawen/aiwriter/internal/images"
	"github.com/chiawen/aiwriter/internal/llm"
	"github.com/chiawen/aiwriter/internal/server"
	"github.com/chiawen/aiwriter/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer logger.Sync()

	styles, err := config.LoadSiteStyles(siteStylesPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := store.NewPool(ctx, store.PoolConfig{
		URL:      cfg.DatabaseURL(),
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
	if err != nil {
		return err
	}
	defer pool.Close()

	completer, err := llm.NewClient(cfg.AnthropicAPIKey, cfg.LLMModel, cfg.LLMMaxTokens, cfg.LLMTemperature)
	if err != nil {
		return err
	}
	gen := generator.New(completer, styles)

	var secondary images.Provider
	if cfg.UnsplashAPIKey != "" {
		secondary = images.NewUnsplashProvider(cfg.UnsplashAPIKey)
	}
	resolver := images.NewResolver(
		images.NewPexelsProvider(cfg.PexelsAPIKey),
		secondary,
		cfg.ImagePageSize,
		logger,
	)

	srv := server.New(server.Deps{
		Logger:    logger,
		AuthToken: cfg.AuthToken,
		Styles:    styles,
		Generator: gen,
		Images:    resolver,
		Fetcher:   fetch.NewFetcher(logger),
		Publisher: github.NewClient(),
		Sites:     store.NewPostgresSiteStore(pool),
		Batches:   store.NewPostgresBatchStore(pool),
		Keywords:  store.NewPostgresKeywordStore(pool),
		Titles:    store.NewPostgresTitleStore(pool),
		Articles:  store.NewPostgresArticleStore(pool),
		Posts:     store.NewPostgresPostStore(pool),
		RunOptions: batch.Options{
			Concurrency:     cfg.Concurrency,
			WindowPause:     cfg.WindowPause,
			SinglePause:     cfg.SingleModePause,
			GenerateTimeout: cfg.LLMTimeout,
		},
	})

	httpServer := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      srv.Router(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}
