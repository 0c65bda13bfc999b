// Package analysis is the deterministic rule engine over a transaction
// snapshot: totals, category breakdowns, spending insights, budget
// suggestions and monthly trends. It performs no I/O, keeps no state
// between calls, and never fails on empty or degenerate input — it doubles
// as the offline fallback for the AI path and must always produce a
// renderable result.
package analysis

import (
	"fmt"
	"sort"

	"finassist/internal/core"
)

// Alert severities.
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeverityDanger  = "danger"
)

// Thresholds are the tunable trigger points of the rule engine. The
// defaults are deliberate, inherited magic numbers — callers that want
// different sensitivity override them rather than editing the rules.
type Thresholds struct {
	// RecommendationShare is the category percentage above which a
	// saving-tip recommendation fires (top 2 categories only).
	RecommendationShare float64
	// AlertShare is the category percentage above which a warning alert
	// fires.
	AlertShare float64
	// LowSavingsRate is the balance/income ratio below which a savings
	// nudge recommendation fires.
	LowSavingsRate float64
	// AlertSavingsRate is the balance/income ratio below which an info
	// alert fires (positive balances only).
	AlertSavingsRate float64
}

// DefaultThresholds returns the standard trigger points: 30% for tips,
// 40% for alerts, 10% and 5% savings rates.
func DefaultThresholds() Thresholds {
	return Thresholds{
		RecommendationShare: 30,
		AlertShare:          40,
		LowSavingsRate:      0.10,
		AlertSavingsRate:    0.05,
	}
}

type (
	// Totals aggregates a snapshot. Recomputed on demand, never cached
	// across mutations.
	Totals struct {
		Income     core.Money `json:"income"`
		Expenses   core.Money `json:"expenses"`
		Balance    core.Money `json:"balance"`
		IsPositive bool       `json:"isPositive"`
	}

	// CategoryBreakdown is one expense category's share of total spending.
	CategoryBreakdown struct {
		Category   string            `json:"category"`
		Amount     core.Money        `json:"amount"`
		Percentage float64           `json:"percentage"`
		Info       core.CategoryInfo `json:"info"`
	}

	Alert struct {
		Severity string `json:"severity"`
		Message  string `json:"message"`
	}

	// Insights is the rule engine's core output bundle.
	Insights struct {
		Summary         string   `json:"summary"`
		Recommendations []string `json:"recommendations"`
		Alerts          []Alert  `json:"alerts"`
	}

	// BudgetSuggestion is a 50/30/20 split of total income.
	BudgetSuggestion struct {
		Needs       core.Money `json:"needs"`
		Wants       core.Money `json:"wants"`
		Savings     core.Money `json:"savings"`
		Explanation string     `json:"explanation"`
	}

	// MonthlyTrend aggregates one calendar month.
	MonthlyTrend struct {
		Period           string     `json:"period"`
		Income           core.Money `json:"income"`
		Expenses         core.Money `json:"expenses"`
		TransactionCount int        `json:"transactionCount"`
		Balance          core.Money `json:"balance"`
	}
)

// Analyzer evaluates a read-only transaction snapshot. All methods are
// pure functions of the snapshot taken at construction.
type Analyzer struct {
	transactions []core.Transaction
	thresholds   Thresholds
	symbol       string
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithThresholds overrides the default trigger points.
func WithThresholds(t Thresholds) Option {
	return func(a *Analyzer) { a.thresholds = t }
}

// WithCurrencySymbol sets the symbol used in generated text (default "₹").
func WithCurrencySymbol(symbol string) Option {
	return func(a *Analyzer) { a.symbol = symbol }
}

func New(transactions []core.Transaction, opts ...Option) *Analyzer {
	a := &Analyzer{
		transactions: transactions,
		thresholds:   DefaultThresholds(),
		symbol:       "₹",
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Totals sums income and expenses. Empty input yields all zeros with
// IsPositive true (balance 0 ≥ 0).
func (a *Analyzer) Totals() Totals {
	var income, expenses int64
	for _, t := range a.transactions {
		if t.IsExpense() {
			expenses += t.Amount.Cents
		} else {
			income += t.Amount.Cents
		}
	}
	balance := income - expenses
	return Totals{
		Income:     core.Money{Cents: income},
		Expenses:   core.Money{Cents: expenses},
		Balance:    core.Money{Cents: balance},
		IsPositive: balance >= 0,
	}
}

// CategoryBreakdown groups expenses by category, descending by amount with
// encounter order breaking ties. Percentages are of total expenses and are
// 0 — never NaN — when there are no expenses.
func (a *Analyzer) CategoryBreakdown() []CategoryBreakdown {
	sums := map[string]int64{}
	var order []string
	var total int64
	for _, t := range a.transactions {
		if !t.IsExpense() {
			continue
		}
		if _, seen := sums[t.Category]; !seen {
			order = append(order, t.Category)
		}
		sums[t.Category] += t.Amount.Cents
		total += t.Amount.Cents
	}

	out := make([]CategoryBreakdown, 0, len(order))
	for _, cat := range order {
		amount := sums[cat]
		pct := 0.0
		if total > 0 {
			pct = float64(amount) / float64(total) * 100
		}
		out = append(out, CategoryBreakdown{
			Category:   cat,
			Amount:     core.Money{Cents: amount},
			Percentage: pct,
			Info:       core.CategoryByKey(cat),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Amount.Cents > out[j].Amount.Cents
	})
	return out
}

// TopCategory returns the largest expense category, or nil when no
// expenses are recorded.
func (a *Analyzer) TopCategory() *CategoryBreakdown {
	breakdown := a.CategoryBreakdown()
	if len(breakdown) == 0 {
		return nil
	}
	return &breakdown[0]
}

// Insights synthesizes the summary, recommendations and alerts bundle.
func (a *Analyzer) Insights() Insights {
	breakdown := a.CategoryBreakdown()
	if len(breakdown) == 0 {
		return Insights{
			Summary: "No expenses recorded yet. Start tracking to get insights!",
			Recommendations: []string{
				"Begin by adding your daily expenses",
				"Set up a monthly budget",
				"Track both income and expenses",
			},
			Alerts: []Alert{},
		}
	}

	totals := a.Totals()
	top := breakdown[0]
	return Insights{
		Summary:         a.summary(totals, top),
		Recommendations: a.recommendations(breakdown, totals),
		Alerts:          a.alerts(breakdown, totals),
	}
}

func (a *Analyzer) summary(totals Totals, top CategoryBreakdown) string {
	balanceText := "surplus"
	if !totals.IsPositive {
		balanceText = "deficit"
	}
	abs := totals.Balance
	if abs.Cents < 0 {
		abs.Cents = -abs.Cents
	}
	return fmt.Sprintf(
		"You've spent %s this period, with %s being your largest expense (%s). Your current balance shows a %s of %s.",
		totals.Expenses.Format(a.symbol), top.Info.Name, top.Amount.Format(a.symbol),
		balanceText, abs.Format(a.symbol))
}

func (a *Analyzer) recommendations(breakdown []CategoryBreakdown, totals Totals) []string {
	var recs []string

	// Category-driven tips first: top 2 categories over the share threshold.
	top := breakdown
	if len(top) > 2 {
		top = top[:2]
	}
	for _, cat := range top {
		if cat.Percentage <= a.thresholds.RecommendationShare {
			continue
		}
		tip := "Review and optimize this category"
		if len(cat.Info.SavingTips) > 0 {
			tip = cat.Info.SavingTips[0]
		}
		recs = append(recs, fmt.Sprintf("%s takes up %.1f%% of your budget. Try: %s",
			cat.Info.Name, cat.Percentage, tip))
	}

	// Then balance-driven nudges.
	if totals.Balance.Cents < 0 {
		recs = append(recs, "Your expenses exceed income. Focus on reducing the top 2 spending categories.")
	} else if float64(totals.Balance.Cents) < float64(totals.Income.Cents)*a.thresholds.LowSavingsRate {
		recs = append(recs, "Your savings rate is low. Aim to save at least 10-20% of your income.")
	}

	// Generic filler when nothing else fired.
	if len(recs) == 0 {
		recs = append(recs,
			"Great job tracking your expenses! Consider setting up automatic savings.",
			"Review your spending weekly to stay on track with your goals.")
	}

	if len(recs) > 3 {
		recs = recs[:3]
	}
	return recs
}

func (a *Analyzer) alerts(breakdown []CategoryBreakdown, totals Totals) []Alert {
	alerts := []Alert{}

	for _, cat := range breakdown {
		if cat.Percentage > a.thresholds.AlertShare {
			alerts = append(alerts, Alert{
				Severity: SeverityWarning,
				Message: fmt.Sprintf("%s represents %.1f%% of your spending - consider reducing this category.",
					cat.Info.Name, cat.Percentage),
			})
		}
	}

	if totals.Balance.Cents < 0 {
		deficit := core.Money{Cents: -totals.Balance.Cents}
		alerts = append(alerts, Alert{
			Severity: SeverityDanger,
			Message: fmt.Sprintf("You're spending %s more than you earn. Review your budget immediately.",
				deficit.Format(a.symbol)),
		})
	}

	if totals.Balance.Cents > 0 &&
		float64(totals.Balance.Cents) < float64(totals.Income.Cents)*a.thresholds.AlertSavingsRate {
		alerts = append(alerts, Alert{
			Severity: SeverityInfo,
			Message:  "Your savings rate is below 5%. Consider increasing it to build financial security.",
		})
	}

	return alerts
}

// BudgetSuggestion applies the 50/30/20 rule to total income, rounded to
// whole currency units. Zero income yields an all-zero split with a prompt
// to add income.
func (a *Analyzer) BudgetSuggestion() BudgetSuggestion {
	totals := a.Totals()

	if totals.Income.Cents == 0 {
		return BudgetSuggestion{
			Explanation: "Add income transactions to get budget suggestions.",
		}
	}

	needs := roundToUnit(totals.Income.Cents, 50)
	wants := roundToUnit(totals.Income.Cents, 30)
	savings := roundToUnit(totals.Income.Cents, 20)

	explanation := fmt.Sprintf("Based on the 50/30/20 rule for your income of %s.",
		totals.Income.Format(a.symbol))
	if totals.Expenses.Cents > totals.Income.Cents {
		explanation = fmt.Sprintf("Your current expenses (%s) exceed income. Focus on reducing expenses first.",
			totals.Expenses.Format(a.symbol))
	} else if totals.Expenses.Cents > needs.Cents+wants.Cents {
		cap := core.Money{Cents: needs.Cents + wants.Cents}
		explanation = fmt.Sprintf("You're overspending on wants. Try to limit total expenses to %s.",
			cap.Format(a.symbol))
	}

	return BudgetSuggestion{
		Needs:       needs,
		Wants:       wants,
		Savings:     savings,
		Explanation: explanation,
	}
}

// roundToUnit takes pct percent of cents and rounds the result to a whole
// currency unit, returned as cents.
func roundToUnit(cents int64, pct int64) core.Money {
	raw := cents * pct // pct of amount, in cents*100
	units := (raw + 5000) / 10000
	return core.Money{Cents: units * 100}
}

// MonthlyTrends groups the snapshot by calendar month, ascending by period.
func (a *Analyzer) MonthlyTrends() []MonthlyTrend {
	buckets := map[string]*MonthlyTrend{}
	for _, t := range a.transactions {
		key := t.PeriodKey()
		b, ok := buckets[key]
		if !ok {
			b = &MonthlyTrend{Period: key}
			buckets[key] = b
		}
		if t.IsExpense() {
			b.Expenses.Cents += t.Amount.Cents
		} else {
			b.Income.Cents += t.Amount.Cents
		}
		b.TransactionCount++
	}

	out := make([]MonthlyTrend, 0, len(buckets))
	for _, b := range buckets {
		b.Balance = core.Money{Cents: b.Income.Cents - b.Expenses.Cents}
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out
}
