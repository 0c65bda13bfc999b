package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"finassist/internal/cli"
	apphttp "finassist/internal/http"
	"finassist/internal/ledger"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger("finassist")

	root := &cobra.Command{
		Use:          "finassist",
		Short:        "Personal finance assistant",
		SilenceUsage: true,
	}
	root.AddCommand(serveCmd(), analyzeCmd(), exportCmd(), importCmd())

	if err := root.Execute(); err != nil {
		logger.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := cli.SetupLogger("finassist")
			cfg := cli.LoadAndValidateConfig(logger)

			assistant, cleanup, err := cli.BuildAssistant(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			srv := apphttp.NewServer(":"+cfg.Port, assistant)
			srv.ReadTimeout = 10 * time.Second
			srv.WriteTimeout = 30 * time.Second
			srv.IdleTimeout = 60 * time.Second
			srv.MaxHeaderBytes = 1 << 16

			ctx, stop := cli.SignalContext()
			defer stop()

			if cfg.AutoAnalysis {
				go assistant.RunPeriodicAnalysis(ctx, cfg.AnalysisInterval)
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("Starting server", "port", cfg.Port, "backend", cfg.DataBackend)
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("Server shutdown error", "error", err)
			}
			logger.Info("Server stopped gracefully")
			return nil
		},
	}
}

func analyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze",
		Short: "Run a one-off financial analysis and print it as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := cli.SetupLogger("finassist")
			cfg := cli.LoadAndValidateConfig(logger)

			assistant, cleanup, err := cli.BuildAssistant(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := assistant.Analyze(cmd.Context())
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
}

func exportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all data as a JSON bundle",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := cli.SetupLogger("finassist")
			cfg := cli.LoadAndValidateConfig(logger)

			assistant, cleanup, err := cli.BuildAssistant(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			bundle, err := assistant.ExportData(cmd.Context())
			if err != nil {
				return err
			}

			w := os.Stdout
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create export file: %w", err)
				}
				defer f.Close()
				w = f
			}
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(bundle)
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "write the bundle to a file instead of stdout")
	return cmd
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import a previously exported JSON bundle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := cli.SetupLogger("finassist")
			cfg := cli.LoadAndValidateConfig(logger)

			assistant, cleanup, err := cli.BuildAssistant(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read bundle: %w", err)
			}
			var bundle ledger.ExportBundle
			if err := json.Unmarshal(raw, &bundle); err != nil {
				return fmt.Errorf("decode bundle: %w", err)
			}
			if err := assistant.ImportData(cmd.Context(), bundle); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "imported %d transactions, %d goals\n",
				len(bundle.Transactions), len(bundle.Goals))
			return nil
		},
	}
}
