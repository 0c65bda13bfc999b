package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finassist/internal/core"
	"finassist/internal/ledger"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testTx(ts time.Time, desc string) core.Transaction {
	return core.Transaction{
		Timestamp:   ts,
		Type:        core.Expense,
		Amount:      core.Money{Cents: 1000},
		Category:    "food",
		Description: desc,
	}
}

func TestAppendAndList(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	base := time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)

	id1, err := repo.Append(ctx, testTx(base, "older"))
	require.NoError(t, err)
	id2, err := repo.Append(ctx, testTx(base.Add(time.Hour), "newer"))
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	list, err := repo.ListTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "newer", list[0].Description)
	assert.Equal(t, "older", list[1].Description)
}

func TestAppendRejectsInvalid(t *testing.T) {
	repo := newTestRepo(t)
	bad := testTx(time.Now(), "bad")
	bad.Amount = core.Money{}

	_, err := repo.Append(context.Background(), bad)
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
}

func TestDeleteTransactionNotFound(t *testing.T) {
	repo := newTestRepo(t)
	err := repo.DeleteTransaction(context.Background(), "missing")
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestGetTransaction(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	id, err := repo.Append(ctx, testTx(time.Now(), "lunch"))
	require.NoError(t, err)

	got, err := repo.GetTransaction(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "lunch", got.Description)
	assert.Equal(t, int64(1000), got.Amount.Cents)

	_, err = repo.GetTransaction(ctx, "missing")
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestPendingSyncLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	base := time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)

	id1, _ := repo.Append(ctx, testTx(base, "first"))
	id2, _ := repo.Append(ctx, testTx(base.Add(time.Hour), "second"))

	// Oldest first for the sweep.
	pending, err := repo.GetPendingSyncTransactions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, id1, pending[0].ID)
	assert.Equal(t, id2, pending[1].ID)

	require.NoError(t, repo.MarkSynced(ctx, id1))
	pending, err = repo.GetPendingSyncTransactions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, id2, pending[0].ID)
}

func TestPendingSyncGivesUpAfterFiveAttempts(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	id, _ := repo.Append(ctx, testTx(time.Now(), "stubborn"))
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.MarkSyncError(ctx, id))
	}

	pending, err := repo.GetPendingSyncTransactions(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestReplaceTransactionsMarksSynced(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	_, _ = repo.Append(ctx, testTx(time.Now(), "old"))

	repl := testTx(time.Now(), "imported")
	repl.ID = "fixed-id"
	require.NoError(t, repo.ReplaceTransactions(ctx, []core.Transaction{repl}))

	list, err := repo.ListTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "fixed-id", list[0].ID)

	// Imported rows must not be re-mirrored.
	pending, err := repo.GetPendingSyncTransactions(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestGoalCRUD(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	goal := core.Goal{
		Name:     "Emergency Fund",
		Target:   core.Money{Cents: 100000},
		Deadline: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Category: "savings",
	}
	id, err := repo.AddGoal(ctx, goal)
	require.NoError(t, err)

	got, err := repo.GetGoal(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Emergency Fund", got.Name)
	assert.Equal(t, int64(100000), got.Target.Cents)

	got.CurrentAmount = core.Money{Cents: 25000}
	require.NoError(t, repo.UpdateGoal(ctx, got))

	goals, err := repo.ListGoals(ctx)
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.Equal(t, int64(25000), goals[0].CurrentAmount.Cents)

	require.NoError(t, repo.DeleteGoal(ctx, id))
	_, err = repo.GetGoal(ctx, id)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestSettingsDefaultsAndPersistence(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	settings, err := repo.AISettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "groq", settings.Provider)
	assert.True(t, settings.Enabled)

	settings.Enabled = false
	settings.APIKey = "gsk_user_key"
	require.NoError(t, repo.SaveAISettings(ctx, settings))

	settings, err = repo.AISettings(ctx)
	require.NoError(t, err)
	assert.False(t, settings.Enabled)
	assert.Equal(t, "gsk_user_key", settings.APIKey)

	prefs, err := repo.Preferences(ctx)
	require.NoError(t, err)
	assert.Equal(t, "INR", prefs.Currency)

	prefs.Currency = "USD"
	require.NoError(t, repo.SavePreferences(ctx, prefs))
	prefs, err = repo.Preferences(ctx)
	require.NoError(t, err)
	assert.Equal(t, "USD", prefs.Currency)
}

func TestBackupRotation(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	base := time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)

	for i := 0; i < ledger.MaxBackups+2; i++ {
		b := ledger.Backup{BackupDate: base.Add(time.Duration(i) * time.Minute)}
		b.SchemaVersion = ledger.SchemaVersion
		require.NoError(t, repo.AddBackup(ctx, b))
	}

	backups, err := repo.Backups(ctx)
	require.NoError(t, err)
	require.Len(t, backups, ledger.MaxBackups)
	// Newest first, the two oldest rotated out.
	assert.True(t, backups[0].BackupDate.After(backups[len(backups)-1].BackupDate))
	assert.True(t, backups[len(backups)-1].BackupDate.Equal(base.Add(2*time.Minute)))
}
