// Package storage is the SQLite ledger backend. Transactions, goals and
// the rotating backup list live in their own tables; AI settings and user
// preferences are single JSON rows in a key/value settings table.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"finassist/internal/core"
	"finassist/internal/ledger"
)

const (
	settingsKeyAI          = "ai_settings"
	settingsKeyPreferences = "user_preferences"
)

type SQLiteRepository struct {
	db *sql.DB
}

var _ ledger.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Append implements ledger.TransactionStore.
func (r *SQLiteRepository) Append(ctx context.Context, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Timestamp.IsZero() {
		t.Timestamp = time.Now()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, created_at, type, amount_cents, category, description)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.Timestamp, string(t.Type), t.Amount.Cents, t.Category, t.Description)
	if err != nil {
		return "", fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", t.ID,
		"type", string(t.Type),
		"amount_cents", t.Amount.Cents,
		"category", t.Category)

	return t.ID, nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction rows affected: %w", err)
	}
	if n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, created_at, type, amount_cents, category, description
		FROM transactions
		ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			t     core.Transaction
			typ   string
			cents int64
		)
		if err := rows.Scan(&t.ID, &t.Timestamp, &typ, &cents, &t.Category, &t.Description); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Type = core.TransactionType(typ)
		t.Amount = core.Money{Cents: cents}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// ReplaceTransactions swaps the full collection inside one transaction, so
// a failed import leaves the previous data intact.
func (r *SQLiteRepository) ReplaceTransactions(ctx context.Context, ts []core.Transaction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace transactions: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM transactions`); err != nil {
		return fmt.Errorf("clear transactions: %w", err)
	}
	for _, t := range ts {
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO transactions (id, created_at, type, amount_cents, category, description, synced_to_sheets)
			VALUES (?, ?, ?, ?, ?, ?, TRUE)`,
			t.ID, t.Timestamp, string(t.Type), t.Amount.Cents, t.Category, t.Description); err != nil {
			return fmt.Errorf("insert transaction %s: %w", t.ID, err)
		}
	}
	return tx.Commit()
}

// GetTransaction retrieves a single transaction by ID.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	var (
		t     core.Transaction
		typ   string
		cents int64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, created_at, type, amount_cents, category, description
		FROM transactions WHERE id = ?`, id).
		Scan(&t.ID, &t.Timestamp, &typ, &cents, &t.Category, &t.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ledger.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	t.Type = core.TransactionType(typ)
	t.Amount = core.Money{Cents: cents}
	return t, nil
}

// PendingSyncTransaction is the minimal row the backup worker needs.
type PendingSyncTransaction struct {
	ID        string
	Version   int64
	CreatedAt time.Time
}

// GetPendingSyncTransactions returns transactions not yet mirrored to the
// backup sheet, oldest first.
func (r *SQLiteRepository) GetPendingSyncTransactions(ctx context.Context, limit int) ([]PendingSyncTransaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, version, created_at
		FROM transactions
		WHERE synced_to_sheets = FALSE AND sync_attempts < 5
		ORDER BY created_at ASC
		LIMIT ?`, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("get pending sync transactions: %w", err)
	}
	defer rows.Close()

	var out []PendingSyncTransaction
	for rows.Next() {
		var p PendingSyncTransaction
		if err := rows.Scan(&p.ID, &p.Version, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pending sync transaction: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending sync transactions: %w", err)
	}
	return out, nil
}

// MarkSynced marks a transaction as mirrored to the backup sheet.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET synced_to_sheets = TRUE, last_sync_attempt = CURRENT_TIMESTAMP
		WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark transaction synced: %w", err)
	}
	slog.InfoContext(ctx, "Transaction marked as synced", "id", id)
	return nil
}

// MarkSyncError records a failed mirror attempt.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET sync_attempts = sync_attempts + 1, last_sync_attempt = CURRENT_TIMESTAMP
		WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark transaction sync error: %w", err)
	}
	slog.WarnContext(ctx, "Transaction marked with sync error", "id", id)
	return nil
}

// AddGoal implements ledger.GoalStore.
func (r *SQLiteRepository) AddGoal(ctx context.Context, g core.Goal) (string, error) {
	if err := g.Validate(); err != nil {
		return "", err
	}
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO goals (id, name, target_cents, deadline, category, current_cents, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.Name, g.Target.Cents, g.Deadline, g.Category, g.CurrentAmount.Cents, g.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("create goal: %w", err)
	}
	return g.ID, nil
}

func (r *SQLiteRepository) GetGoal(ctx context.Context, id string) (core.Goal, error) {
	g, err := scanGoal(r.db.QueryRowContext(ctx, `
		SELECT id, name, target_cents, deadline, category, current_cents, created_at
		FROM goals WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Goal{}, ledger.ErrNotFound
	}
	if err != nil {
		return core.Goal{}, fmt.Errorf("get goal: %w", err)
	}
	return g, nil
}

func (r *SQLiteRepository) UpdateGoal(ctx context.Context, g core.Goal) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE goals
		SET name = ?, target_cents = ?, deadline = ?, category = ?, current_cents = ?
		WHERE id = ?`,
		g.Name, g.Target.Cents, g.Deadline, g.Category, g.CurrentAmount.Cents, g.ID)
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update goal rows affected: %w", err)
	}
	if n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteGoal(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM goals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete goal rows affected: %w", err)
	}
	if n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) ListGoals(ctx context.Context) ([]core.Goal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, target_cents, deadline, category, current_cents, created_at
		FROM goals
		ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var out []core.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate goals: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) ReplaceGoals(ctx context.Context, gs []core.Goal) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace goals: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM goals`); err != nil {
		return fmt.Errorf("clear goals: %w", err)
	}
	for _, g := range gs {
		if g.ID == "" {
			g.ID = uuid.NewString()
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO goals (id, name, target_cents, deadline, category, current_cents, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			g.ID, g.Name, g.Target.Cents, g.Deadline, g.Category, g.CurrentAmount.Cents, g.CreatedAt); err != nil {
			return fmt.Errorf("insert goal %s: %w", g.ID, err)
		}
	}
	return tx.Commit()
}

type goalScanner interface {
	Scan(dest ...any) error
}

func scanGoal(row goalScanner) (core.Goal, error) {
	var (
		g           core.Goal
		target, cur int64
	)
	if err := row.Scan(&g.ID, &g.Name, &target, &g.Deadline, &g.Category, &cur, &g.CreatedAt); err != nil {
		return core.Goal{}, err
	}
	g.Target = core.Money{Cents: target}
	g.CurrentAmount = core.Money{Cents: cur}
	return g, nil
}

// AISettings implements ledger.SettingsStore. Missing rows resolve to the
// defaults.
func (r *SQLiteRepository) AISettings(ctx context.Context) (ledger.AISettings, error) {
	set := ledger.DefaultAISettings()
	if err := r.loadSetting(ctx, settingsKeyAI, &set); err != nil {
		return ledger.AISettings{}, err
	}
	return set, nil
}

func (r *SQLiteRepository) SaveAISettings(ctx context.Context, set ledger.AISettings) error {
	return r.saveSetting(ctx, settingsKeyAI, set)
}

func (r *SQLiteRepository) Preferences(ctx context.Context) (ledger.UserPreferences, error) {
	prefs := ledger.DefaultPreferences()
	if err := r.loadSetting(ctx, settingsKeyPreferences, &prefs); err != nil {
		return ledger.UserPreferences{}, err
	}
	return prefs, nil
}

func (r *SQLiteRepository) SavePreferences(ctx context.Context, p ledger.UserPreferences) error {
	return r.saveSetting(ctx, settingsKeyPreferences, p)
}

func (r *SQLiteRepository) loadSetting(ctx context.Context, key string, dest any) error {
	var raw string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load setting %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return fmt.Errorf("decode setting %s: %w", key, err)
	}
	return nil
}

func (r *SQLiteRepository) saveSetting(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode setting %s: %w", key, err)
	}
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, string(raw)); err != nil {
		return fmt.Errorf("save setting %s: %w", key, err)
	}
	return nil
}

// AddBackup implements ledger.BackupStore: prepend and trim to MaxBackups.
func (r *SQLiteRepository) AddBackup(ctx context.Context, b ledger.Backup) error {
	raw, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encode backup: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin add backup: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO backups (backup_date, payload) VALUES (?, ?)`,
		b.BackupDate, string(raw)); err != nil {
		return fmt.Errorf("insert backup: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM backups WHERE id NOT IN (
			SELECT id FROM backups ORDER BY backup_date DESC, id DESC LIMIT ?
		)`, int64(ledger.MaxBackups)); err != nil {
		return fmt.Errorf("trim backups: %w", err)
	}
	return tx.Commit()
}

func (r *SQLiteRepository) Backups(ctx context.Context) ([]ledger.Backup, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT payload FROM backups ORDER BY backup_date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}
	defer rows.Close()

	var out []ledger.Backup
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan backup: %w", err)
		}
		var b ledger.Backup
		if err := json.Unmarshal([]byte(raw), &b); err != nil {
			return nil, fmt.Errorf("decode backup: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate backups: %w", err)
	}
	return out, nil
}
