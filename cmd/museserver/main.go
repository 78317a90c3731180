// Package main provides the muse A2A server: an AI website builder exposed
// over JSON-RPC with Server-Sent Events for streamed generation progress.
//
// Configuration is via environment variables:
//
//	MUSE_PORT             - Server port (default: 8000)
//	MUSE_BASE_URL         - Externally visible URL for the agent card
//	MUSE_LOG_LEVEL        - debug, info, warn, error (default: info)
//	MUSE_PROVIDER         - Provider: anthropic, openai, or google (required)
//	MUSE_MODEL            - Model override (optional, uses provider default)
//	MUSE_TASK_TTL         - Task retention after last update (default: 30m)
//	MUSE_CLEANUP_INTERVAL - Expired-task sweep interval (default: 5m)
//	ANTHROPIC_API_KEY     - Anthropic API key
//	OPENAI_API_KEY        - OpenAI API key
//	GOOGLE_API_KEY        - Google API key
//
// Usage:
//
//	MUSE_PROVIDER=anthropic go run ./cmd/museserver
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	muse "github.com/cling-godaddy/muse-sub001"
	"github.com/cling-godaddy/muse-sub001/builder"
	"github.com/cling-godaddy/muse-sub001/provider/anthropic"
	"github.com/cling-godaddy/muse-sub001/provider/google"
	"github.com/cling-godaddy/muse-sub001/provider/openai"
	"github.com/cling-godaddy/muse-sub001/server"
	"github.com/cling-godaddy/muse-sub001/store"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	provider, err := createProvider(cfg)
	if err != nil {
		log.Error("provider setup failed", "error", err)
		os.Exit(1)
	}

	tasks, err := store.New(store.Options{
		TTL:             cfg.TaskTTL,
		CleanupInterval: cfg.CleanupInterval,
		Logger:          log,
	})
	if err != nil {
		log.Error("task store setup failed", "error", err)
		os.Exit(1)
	}
	defer tasks.Close()

	var genOpts []muse.Option
	if cfg.Model != "" {
		genOpts = append(genOpts, muse.WithModel(cfg.Model))
	}

	srv, err := server.New(server.Config{
		BaseURL:   cfg.BaseURL,
		Tasks:     tasks,
		Generator: builder.NewProviderGenerator(provider, genOpts...),
		Sites:     store.NewMemoryAdapter(),
		Logger:    log,
	})
	if err != nil {
		log.Error("server setup failed", "error", err)
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 0, // SSE needs no write timeout
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		log.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(ctx); err != nil {
			log.Error("shutdown error", "error", err)
		}
	}()

	log.Info("muse server starting", "port", cfg.Port, "provider", cfg.Provider)
	log.Info("endpoints", "rpc", "POST /a2a", "card", "GET /.well-known/agent-card.json")

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func createProvider(cfg *Config) (muse.ChatProvider, error) {
	switch cfg.Provider {
	case "anthropic":
		return anthropic.New(anthropic.WithAPIKey(cfg.AnthropicKey)), nil
	case "openai":
		return openai.New(cfg.OpenAIKey), nil
	case "google":
		return google.New(context.Background(), cfg.GoogleKey)
	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
}
