// Package cli provides common initialization shared by cmd/finassist and
// cmd/finassist-worker.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"finassist/internal/ai"
	"finassist/internal/amqp"
	"finassist/internal/config"
	"finassist/internal/ledger"
	ledgermem "finassist/internal/ledger/memory"
	applog "finassist/internal/log"
	"finassist/internal/services"
	"finassist/internal/storage"
)

// SetupLogger initializes structured logging and installs it as default.
func SetupLogger(component string) *applog.Logger {
	cfg := applog.DefaultConfig()
	cfg.Component = component
	logger := applog.New(cfg)
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development. Missing files
// are fine in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration, exiting on validation
// failure.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// InitSQLite opens the SQLite repository, exiting on failure.
func InitSQLite(logger *applog.Logger, dbPath string) *storage.SQLiteRepository {
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", dbPath)
		os.Exit(1)
	}
	return repo
}

// BuildAssistant wires the store, AMQP publisher and AI advisor into an
// Assistant per the configuration. The returned cleanup closes whatever
// was opened.
func BuildAssistant(cfg *config.Config) (*services.Assistant, func(), error) {
	var (
		store    ledger.Store
		cleanups []func()
	)

	switch cfg.DataBackend {
	case "sqlite":
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("init sqlite: %w", err)
		}
		cleanups = append(cleanups, func() { _ = repo.Close() })
		store = repo
	default:
		store = ledgermem.New()
	}

	opts := []services.Option{services.WithCurrencySymbol(cfg.CurrencySymbol)}

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			// The queue is a mirror accelerator, not a dependency.
			slog.Warn("AMQP unavailable, continuing without sync queue", "error", err)
		} else {
			cleanups = append(cleanups, func() { _ = client.Close() })
			opts = append(opts, services.WithPublisher(client))
		}
	}

	resolver := &services.CredentialResolver{
		SharedProvider: cfg.AIProvider,
		SharedKey:      cfg.SharedAPIKey(),
		Settings:       store,
	}
	advisor := ai.NewAdvisor(
		ai.NewClient(&http.Client{Timeout: 30 * time.Second}),
		resolver,
		ai.WithCurrencySymbol(cfg.CurrencySymbol),
	)

	assistant := services.NewAssistant(store, advisor, opts...)

	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}
	return assistant, cleanup, nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
