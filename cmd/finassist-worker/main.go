package main

import (
	"context"
	"os"

	"golang.org/x/sync/errgroup"

	"finassist/internal/amqp"
	"finassist/internal/cli"
	"finassist/internal/sheets"
	gsheet "finassist/internal/sheets/google"
	"finassist/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger("finassist-worker")

	logger.Info("Starting finassist-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	// The worker reads pending transactions straight from SQLite.
	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	var mirror sheets.TransactionMirror
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		mirror = client
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided")
		os.Exit(0)
	}

	backupWorker := worker.NewBackupWorker(repo, mirror, cfg.SyncBatchSize)

	ctx, stop := cli.SignalContext()
	defer stop()

	// Catch up on anything missed while the worker was down.
	if err := backupWorker.StartupSyncCheck(ctx); err != nil {
		logger.Error("Failed startup sync check", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()

		g.Go(func() error {
			return amqpClient.ConsumeTransactionSync(gctx, func(msg *amqp.TransactionSyncMessage) error {
				return backupWorker.HandleSyncMessage(gctx, msg)
			})
		})
	} else {
		logger.Info("AMQP disabled - relying on periodic sweep only")
	}

	g.Go(func() error {
		return backupWorker.RunPeriodicSweep(gctx, cfg.SyncInterval)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
