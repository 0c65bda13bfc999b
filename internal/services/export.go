package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"finassist/internal/ledger"
)

// ExportData snapshots the full state into a single bundle.
func (a *Assistant) ExportData(ctx context.Context) (ledger.ExportBundle, error) {
	transactions, err := a.store.ListTransactions(ctx)
	if err != nil {
		return ledger.ExportBundle{}, fmt.Errorf("list transactions: %w", err)
	}
	goals, err := a.store.ListGoals(ctx)
	if err != nil {
		return ledger.ExportBundle{}, fmt.Errorf("list goals: %w", err)
	}
	settings, err := a.store.AISettings(ctx)
	if err != nil {
		return ledger.ExportBundle{}, fmt.Errorf("load AI settings: %w", err)
	}
	prefs, err := a.store.Preferences(ctx)
	if err != nil {
		return ledger.ExportBundle{}, fmt.Errorf("load preferences: %w", err)
	}

	return ledger.ExportBundle{
		Transactions:    transactions,
		AISettings:      &settings,
		Goals:           goals,
		UserPreferences: &prefs,
		ExportDate:      time.Now(),
		SchemaVersion:   ledger.SchemaVersion,
	}, nil
}

// ImportData merges a bundle per key: only the sections present in the
// bundle replace the current state, the rest is untouched.
func (a *Assistant) ImportData(ctx context.Context, bundle ledger.ExportBundle) error {
	if bundle.Transactions != nil {
		for _, t := range bundle.Transactions {
			if err := t.Validate(); err != nil {
				return fmt.Errorf("transaction %s: %w", t.ID, err)
			}
		}
		if err := a.store.ReplaceTransactions(ctx, bundle.Transactions); err != nil {
			return fmt.Errorf("replace transactions: %w", err)
		}
	}
	if bundle.Goals != nil {
		for _, g := range bundle.Goals {
			if err := g.Validate(); err != nil {
				return fmt.Errorf("goal %s: %w", g.ID, err)
			}
		}
		if err := a.store.ReplaceGoals(ctx, bundle.Goals); err != nil {
			return fmt.Errorf("replace goals: %w", err)
		}
	}
	if bundle.AISettings != nil {
		if err := a.store.SaveAISettings(ctx, *bundle.AISettings); err != nil {
			return fmt.Errorf("save AI settings: %w", err)
		}
	}
	if bundle.UserPreferences != nil {
		if err := a.store.SavePreferences(ctx, *bundle.UserPreferences); err != nil {
			return fmt.Errorf("save preferences: %w", err)
		}
	}

	slog.InfoContext(ctx, "Data imported",
		"transactions", len(bundle.Transactions),
		"goals", len(bundle.Goals),
		"schema_version", bundle.SchemaVersion)

	return nil
}

// CreateBackup snapshots current state onto the rotating backup list.
func (a *Assistant) CreateBackup(ctx context.Context) (ledger.Backup, error) {
	bundle, err := a.ExportData(ctx)
	if err != nil {
		return ledger.Backup{}, err
	}
	backup := ledger.Backup{ExportBundle: bundle, BackupDate: time.Now()}
	if err := a.store.AddBackup(ctx, backup); err != nil {
		return ledger.Backup{}, fmt.Errorf("save backup: %w", err)
	}
	return backup, nil
}

func (a *Assistant) Backups(ctx context.Context) ([]ledger.Backup, error) {
	return a.store.Backups(ctx)
}

// RestoreBackup replaces current state with the backup at the given
// position in the list, newest first.
func (a *Assistant) RestoreBackup(ctx context.Context, index int) error {
	backups, err := a.store.Backups(ctx)
	if err != nil {
		return fmt.Errorf("list backups: %w", err)
	}
	if index < 0 || index >= len(backups) {
		return ledger.ErrNotFound
	}
	return a.ImportData(ctx, backups[index].ExportBundle)
}
