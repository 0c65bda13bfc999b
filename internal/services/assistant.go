// Package services orchestrates the ledger, the AI advisor and the sync
// queue behind a single Assistant facade used by HTTP and the CLI.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"finassist/internal/ai"
	"finassist/internal/analysis"
	"finassist/internal/core"
	"finassist/internal/ledger"
)

// ErrAnalysisInProgress short-circuits overlapping AI analysis requests.
// One flight at a time; duplicates are rejected, not queued.
var ErrAnalysisInProgress = errors.New("analysis already in progress")

// SyncPublisher pushes a backup pointer onto the sync queue.
type SyncPublisher interface {
	PublishTransactionSync(ctx context.Context, id string, version int64) error
}

// Assistant is the application service: it validates and persists state,
// runs the analysis engine, and delegates commentary to the AI advisor.
type Assistant struct {
	store     ledger.Store
	advisor   *ai.Advisor
	publisher SyncPublisher
	symbol    string

	mu         sync.Mutex
	inProgress bool
}

type Option func(*Assistant)

// WithPublisher attaches the sync queue. Without it transactions are
// still saved; mirroring relies on the worker's pending sweep.
func WithPublisher(p SyncPublisher) Option {
	return func(a *Assistant) { a.publisher = p }
}

func WithCurrencySymbol(symbol string) Option {
	return func(a *Assistant) { a.symbol = symbol }
}

func NewAssistant(store ledger.Store, advisor *ai.Advisor, opts ...Option) *Assistant {
	a := &Assistant{store: store, advisor: advisor, symbol: "₹"}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AddTransaction validates and saves a transaction, then publishes a sync
// message. Publish failures are logged, never surfaced: the save already
// succeeded and the worker's sweep will catch up.
func (a *Assistant) AddTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if t.Timestamp.IsZero() {
		t.Timestamp = time.Now()
	}
	if t.Description == "" {
		t.Description = core.CategoryByKey(t.Category).Name
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	id, err := a.store.Append(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	t.ID = id

	if a.publisher != nil {
		if err := a.publisher.PublishTransactionSync(ctx, id, 1); err != nil {
			slog.ErrorContext(ctx, "Failed to publish sync message",
				"id", id, "error", err)
		}
	}

	return t, nil
}

func (a *Assistant) DeleteTransaction(ctx context.Context, id string) error {
	return a.store.DeleteTransaction(ctx, id)
}

func (a *Assistant) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	return a.store.ListTransactions(ctx)
}

func (a *Assistant) analyzer(ctx context.Context) (*analysis.Analyzer, error) {
	transactions, err := a.store.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return analysis.New(transactions, analysis.WithCurrencySymbol(a.symbol)), nil
}

func (a *Assistant) Totals(ctx context.Context) (analysis.Totals, error) {
	an, err := a.analyzer(ctx)
	if err != nil {
		return analysis.Totals{}, err
	}
	return an.Totals(), nil
}

func (a *Assistant) CategoryBreakdown(ctx context.Context) ([]analysis.CategoryBreakdown, error) {
	an, err := a.analyzer(ctx)
	if err != nil {
		return nil, err
	}
	return an.CategoryBreakdown(), nil
}

func (a *Assistant) MonthlyTrends(ctx context.Context) ([]analysis.MonthlyTrend, error) {
	an, err := a.analyzer(ctx)
	if err != nil {
		return nil, err
	}
	return an.MonthlyTrends(), nil
}

func (a *Assistant) Insights(ctx context.Context) (analysis.Insights, error) {
	an, err := a.analyzer(ctx)
	if err != nil {
		return analysis.Insights{}, err
	}
	return an.Insights(), nil
}

// beginAnalysis flips the in-progress flag, failing when a flight exists.
func (a *Assistant) beginAnalysis() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.inProgress {
		return ErrAnalysisInProgress
	}
	a.inProgress = true
	return nil
}

func (a *Assistant) endAnalysis() {
	a.mu.Lock()
	a.inProgress = false
	a.mu.Unlock()
}

// Analyze runs the full AI analysis through the fallback chain. When AI
// is disabled in settings, the local engine answers directly.
func (a *Assistant) Analyze(ctx context.Context) (ai.Result, error) {
	if err := a.beginAnalysis(); err != nil {
		return ai.Result{}, err
	}
	defer a.endAnalysis()

	transactions, err := a.store.ListTransactions(ctx)
	if err != nil {
		return ai.Result{}, fmt.Errorf("list transactions: %w", err)
	}

	settings, err := a.store.AISettings(ctx)
	if err != nil {
		return ai.Result{}, fmt.Errorf("load AI settings: %w", err)
	}
	if !settings.Enabled {
		local := analysis.New(transactions, analysis.WithCurrencySymbol(a.symbol))
		return ai.Result{Analysis: local.LocalAnalysis(), Source: ai.SourceLocal}, nil
	}

	return a.advisor.AnalyzeFinances(ctx, transactions), nil
}

func (a *Assistant) SavingTips(ctx context.Context) ([]string, ai.Source, error) {
	transactions, err := a.store.ListTransactions(ctx)
	if err != nil {
		return nil, ai.SourceLocal, fmt.Errorf("list transactions: %w", err)
	}
	tips, source := a.advisor.SavingTips(ctx, transactions)
	return tips, source, nil
}

func (a *Assistant) SuggestBudget(ctx context.Context) (analysis.BudgetSuggestion, ai.Source, error) {
	transactions, err := a.store.ListTransactions(ctx)
	if err != nil {
		return analysis.BudgetSuggestion{}, ai.SourceLocal, fmt.Errorf("list transactions: %w", err)
	}
	budget, source := a.advisor.SuggestBudget(ctx, transactions)
	return budget, source, nil
}

func (a *Assistant) TestAIConnection(ctx context.Context) (bool, string) {
	return a.advisor.TestConnection(ctx)
}

func (a *Assistant) AIStatus(ctx context.Context) ai.Status {
	return a.advisor.CurrentStatus(ctx)
}

// RunPeriodicAnalysis re-runs the analysis on a fixed interval until ctx
// is done. Runs are skipped while auto analysis is off or a manual flight
// is in progress.
func (a *Assistant) RunPeriodicAnalysis(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "Periodic analysis started", "interval", interval.String())

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Periodic analysis stopped", "reason", ctx.Err())
			return
		case <-ticker.C:
			settings, err := a.store.AISettings(ctx)
			if err != nil {
				slog.ErrorContext(ctx, "Periodic analysis: load settings failed", "error", err)
				continue
			}
			if !settings.AutoAnalysis {
				continue
			}
			result, err := a.Analyze(ctx)
			if err != nil {
				if errors.Is(err, ErrAnalysisInProgress) {
					slog.DebugContext(ctx, "Periodic analysis skipped, flight in progress")
					continue
				}
				slog.ErrorContext(ctx, "Periodic analysis failed", "error", err)
				continue
			}
			slog.InfoContext(ctx, "Periodic analysis completed", "source", string(result.Source))
		}
	}
}

func (a *Assistant) AddGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now()
	}
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}
	id, err := a.store.AddGoal(ctx, g)
	if err != nil {
		return core.Goal{}, fmt.Errorf("save goal: %w", err)
	}
	g.ID = id
	return g, nil
}

func (a *Assistant) ListGoals(ctx context.Context) ([]core.Goal, error) {
	return a.store.ListGoals(ctx)
}

func (a *Assistant) DeleteGoal(ctx context.Context, id string) error {
	return a.store.DeleteGoal(ctx, id)
}

// ContributeToGoal adds funds to a goal, clamped at its target.
func (a *Assistant) ContributeToGoal(ctx context.Context, id string, amount core.Money) (core.Goal, error) {
	if err := amount.Validate(); err != nil {
		return core.Goal{}, err
	}
	g, err := a.store.GetGoal(ctx, id)
	if err != nil {
		return core.Goal{}, err
	}
	g = g.Contribute(amount)
	if err := a.store.UpdateGoal(ctx, g); err != nil {
		return core.Goal{}, fmt.Errorf("update goal: %w", err)
	}
	return g, nil
}

func (a *Assistant) AISettings(ctx context.Context) (ledger.AISettings, error) {
	return a.store.AISettings(ctx)
}

func (a *Assistant) SaveAISettings(ctx context.Context, s ledger.AISettings) error {
	return a.store.SaveAISettings(ctx, s)
}

func (a *Assistant) Preferences(ctx context.Context) (ledger.UserPreferences, error) {
	return a.store.Preferences(ctx)
}

func (a *Assistant) SavePreferences(ctx context.Context, p ledger.UserPreferences) error {
	return a.store.SavePreferences(ctx, p)
}
