// Package ledger defines the ports for persistent state — transactions,
// goals, settings and backups — plus the shapes stored behind them.
// Backends: internal/ledger/memory (default, tests) and internal/storage
// (SQLite).
package ledger

import (
	"context"
	"errors"
	"time"

	"finassist/internal/core"
)

// MaxBackups bounds the rotating backup list.
const MaxBackups = 5

// SchemaVersion tags export bundles.
const SchemaVersion = "2.0"

var ErrNotFound = errors.New("not found")

// AISettings is the user-configurable AI state.
type AISettings struct {
	Provider     string `json:"provider"`
	APIKey       string `json:"apiKey"`
	Enabled      bool   `json:"enabled"`
	AutoAnalysis bool   `json:"autoAnalysis"`
}

// DefaultAISettings enables the shared-key route with auto analysis on.
func DefaultAISettings() AISettings {
	return AISettings{Provider: "groq", Enabled: true, AutoAnalysis: true}
}

// UserPreferences holds display and behavior preferences.
type UserPreferences struct {
	Currency      string `json:"currency"`
	DateFormat    string `json:"dateFormat"`
	Theme         string `json:"theme"`
	Notifications bool   `json:"notifications"`
	AutoBackup    bool   `json:"autoBackup"`
}

func DefaultPreferences() UserPreferences {
	return UserPreferences{
		Currency:      "INR",
		DateFormat:    "DD/MM/YYYY",
		Theme:         "light",
		Notifications: true,
	}
}

// ExportBundle is the single-document export/import format. Every field is
// independently optional on import.
type ExportBundle struct {
	Transactions    []core.Transaction `json:"transactions,omitempty"`
	AISettings      *AISettings        `json:"aiSettings,omitempty"`
	Goals           []core.Goal        `json:"goals,omitempty"`
	UserPreferences *UserPreferences   `json:"userPreferences,omitempty"`
	ExportDate      time.Time          `json:"exportDate"`
	SchemaVersion   string             `json:"schemaVersion"`
}

// Backup is a full-state snapshot kept in the rotating backup list.
type Backup struct {
	ExportBundle
	BackupDate time.Time `json:"backupDate"`
}

// Ports for the persistence backends.
type (
	TransactionStore interface {
		// Append stores a transaction and returns its ID. Newest first on List.
		Append(ctx context.Context, t core.Transaction) (string, error)
		DeleteTransaction(ctx context.Context, id string) error
		ListTransactions(ctx context.Context) ([]core.Transaction, error)
		// ReplaceTransactions swaps the whole collection (import path).
		ReplaceTransactions(ctx context.Context, ts []core.Transaction) error
	}

	GoalStore interface {
		AddGoal(ctx context.Context, g core.Goal) (string, error)
		GetGoal(ctx context.Context, id string) (core.Goal, error)
		UpdateGoal(ctx context.Context, g core.Goal) error
		DeleteGoal(ctx context.Context, id string) error
		ListGoals(ctx context.Context) ([]core.Goal, error)
		ReplaceGoals(ctx context.Context, gs []core.Goal) error
	}

	SettingsStore interface {
		AISettings(ctx context.Context) (AISettings, error)
		SaveAISettings(ctx context.Context, s AISettings) error
		Preferences(ctx context.Context) (UserPreferences, error)
		SavePreferences(ctx context.Context, p UserPreferences) error
	}

	BackupStore interface {
		// AddBackup prepends a snapshot, trimming the list to MaxBackups.
		AddBackup(ctx context.Context, b Backup) error
		Backups(ctx context.Context) ([]Backup, error)
	}

	// Store is the full persistence surface the assistant needs.
	Store interface {
		TransactionStore
		GoalStore
		SettingsStore
		BackupStore
	}
)
