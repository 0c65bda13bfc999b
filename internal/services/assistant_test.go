package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finassist/internal/ai"
	"finassist/internal/core"
	"finassist/internal/ledger"
	ledgermem "finassist/internal/ledger/memory"
)

type emptyCreds struct{}

func (emptyCreds) Credentials(context.Context) (ai.Credentials, error) {
	return ai.Credentials{}, nil
}

// recordingPublisher captures sync publishes for assertions.
type recordingPublisher struct {
	ids []string
	err error
}

func (p *recordingPublisher) PublishTransactionSync(_ context.Context, id string, _ int64) error {
	if p.err != nil {
		return p.err
	}
	p.ids = append(p.ids, id)
	return nil
}

func newTestAssistant(t *testing.T, opts ...Option) (*Assistant, *ledgermem.Store) {
	t.Helper()
	store := ledgermem.New()
	advisor := ai.NewAdvisor(ai.NewClient(nil), emptyCreds{})
	return NewAssistant(store, advisor, opts...), store
}

func expense(amount int64, category string) core.Transaction {
	return core.Transaction{
		Timestamp: time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC),
		Type:      core.Expense,
		Amount:    core.Money{Cents: amount},
		Category:  category,
	}
}

func TestAddTransactionDefaultsAndPublishes(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	assistant, _ := newTestAssistant(t, WithPublisher(pub))

	tx := expense(1000*100, "food")
	tx.Timestamp = time.Time{}

	saved, err := assistant.AddTransaction(ctx, tx)
	require.NoError(t, err)

	assert.NotEmpty(t, saved.ID)
	assert.False(t, saved.Timestamp.IsZero())
	assert.Equal(t, "Food & Dining", saved.Description)
	assert.Equal(t, []string{saved.ID}, pub.ids)
}

func TestAddTransactionKeepsDescription(t *testing.T) {
	assistant, _ := newTestAssistant(t)

	tx := expense(500*100, "transport")
	tx.Description = "Fuel"

	saved, err := assistant.AddTransaction(context.Background(), tx)
	require.NoError(t, err)
	assert.Equal(t, "Fuel", saved.Description)
}

func TestAddTransactionSurvivesPublishFailure(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{err: assert.AnError}
	assistant, _ := newTestAssistant(t, WithPublisher(pub))

	saved, err := assistant.AddTransaction(ctx, expense(1000*100, "food"))
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)

	list, err := assistant.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestAddTransactionRejectsInvalid(t *testing.T) {
	assistant, _ := newTestAssistant(t)

	bad := expense(0, "food")
	_, err := assistant.AddTransaction(context.Background(), bad)
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
}

func TestAnalyzeDisabledUsesLocalEngine(t *testing.T) {
	ctx := context.Background()
	assistant, store := newTestAssistant(t)

	_, err := assistant.AddTransaction(ctx, expense(1000*100, "food"))
	require.NoError(t, err)

	settings, _ := store.AISettings(ctx)
	settings.Enabled = false
	require.NoError(t, store.SaveAISettings(ctx, settings))

	result, err := assistant.Analyze(ctx)
	require.NoError(t, err)
	assert.Equal(t, ai.SourceLocal, result.Source)
	assert.NotEmpty(t, result.Analysis.Story)
}

func TestAnalyzeRejectsOverlap(t *testing.T) {
	assistant, _ := newTestAssistant(t)

	require.NoError(t, assistant.beginAnalysis())
	_, err := assistant.Analyze(context.Background())
	assert.ErrorIs(t, err, ErrAnalysisInProgress)

	assistant.endAnalysis()
	_, err = assistant.Analyze(context.Background())
	assert.NoError(t, err)
}

func TestContributeToGoalClamps(t *testing.T) {
	ctx := context.Background()
	assistant, _ := newTestAssistant(t)

	g, err := assistant.AddGoal(ctx, core.Goal{
		Name:   "Emergency Fund",
		Target: core.Money{Cents: 10000},
	})
	require.NoError(t, err)

	g, err = assistant.ContributeToGoal(ctx, g.ID, core.Money{Cents: 7000})
	require.NoError(t, err)
	assert.Equal(t, int64(7000), g.CurrentAmount.Cents)

	g, err = assistant.ContributeToGoal(ctx, g.ID, core.Money{Cents: 7000})
	require.NoError(t, err)
	assert.Equal(t, int64(10000), g.CurrentAmount.Cents)
	assert.True(t, g.Reached())
}

func TestContributeToGoalUnknownID(t *testing.T) {
	assistant, _ := newTestAssistant(t)
	_, err := assistant.ContributeToGoal(context.Background(), "nope", core.Money{Cents: 100})
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	assistant, _ := newTestAssistant(t)

	_, err := assistant.AddTransaction(ctx, expense(1000*100, "food"))
	require.NoError(t, err)
	_, err = assistant.AddGoal(ctx, core.Goal{Name: "Trip", Target: core.Money{Cents: 50000}})
	require.NoError(t, err)

	bundle, err := assistant.ExportData(ctx)
	require.NoError(t, err)
	assert.Equal(t, ledger.SchemaVersion, bundle.SchemaVersion)
	assert.Len(t, bundle.Transactions, 1)
	assert.Len(t, bundle.Goals, 1)
	require.NotNil(t, bundle.AISettings)
	require.NotNil(t, bundle.UserPreferences)

	other, _ := newTestAssistant(t)
	require.NoError(t, other.ImportData(ctx, bundle))

	list, err := other.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Equal(t, bundle.Transactions, list)

	goals, err := other.ListGoals(ctx)
	require.NoError(t, err)
	assert.Equal(t, bundle.Goals, goals)
}

func TestImportMergesPerKey(t *testing.T) {
	ctx := context.Background()
	assistant, _ := newTestAssistant(t)

	_, err := assistant.AddTransaction(ctx, expense(1000*100, "food"))
	require.NoError(t, err)

	// A goals-only bundle must leave transactions untouched.
	bundle := ledger.ExportBundle{
		Goals: []core.Goal{{ID: "g1", Name: "Bike", Target: core.Money{Cents: 20000}}},
	}
	require.NoError(t, assistant.ImportData(ctx, bundle))

	list, err := assistant.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	goals, err := assistant.ListGoals(ctx)
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.Equal(t, "Bike", goals[0].Name)
}

func TestImportRejectsInvalidEntries(t *testing.T) {
	ctx := context.Background()
	assistant, _ := newTestAssistant(t)

	bad := ledger.ExportBundle{
		Transactions: []core.Transaction{expense(-5, "food")},
	}
	err := assistant.ImportData(ctx, bad)
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	list, err := assistant.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestBackupAndRestore(t *testing.T) {
	ctx := context.Background()
	assistant, _ := newTestAssistant(t)

	_, err := assistant.AddTransaction(ctx, expense(1000*100, "food"))
	require.NoError(t, err)

	_, err = assistant.CreateBackup(ctx)
	require.NoError(t, err)

	_, err = assistant.AddTransaction(ctx, expense(500*100, "transport"))
	require.NoError(t, err)

	require.NoError(t, assistant.RestoreBackup(ctx, 0))

	list, err := assistant.ListTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "food", list[0].Category)
}

func TestRestoreBackupOutOfRange(t *testing.T) {
	assistant, _ := newTestAssistant(t)
	err := assistant.RestoreBackup(context.Background(), 0)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}
