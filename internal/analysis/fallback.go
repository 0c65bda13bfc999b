package analysis

import (
	"fmt"

	"finassist/internal/core"
)

// LocalAnalysis produces an AIAnalysis-shaped bundle from the rule engine
// alone. It is the terminal stage of the AI fallback chain and always
// succeeds.
func (a *Analyzer) LocalAnalysis() core.AIAnalysis {
	top := a.TopCategory()
	if top == nil {
		return core.AIAnalysis{
			Story: "Start tracking your expenses to get personalized AI insights about your spending habits!",
			Tips: []string{
				"Set up a monthly budget to track your income and expenses",
				"Use the 50/30/20 rule: 50% needs, 30% wants, 20% savings",
				"Review your spending weekly to stay on track",
			},
			Insight:    "Regular expense tracking is the foundation of good financial health.",
			Motivation: "Every financial expert started with their first tracked expense. You're on the right path!",
		}
	}

	totals := a.Totals()
	// 15% of the top category, rounded to a whole unit, as a concrete target.
	reduction := core.Money{Cents: (top.Amount.Cents*15 + 50) / 100}

	return core.AIAnalysis{
		Story: fmt.Sprintf(
			"You've spent %s this period, with %s being your largest expense at %s. Your spending patterns show you're actively managing your finances!",
			totals.Expenses.Format(a.symbol), top.Category, top.Amount.Format(a.symbol)),
		Tips: []string{
			fmt.Sprintf("Consider reducing %s expenses by 15%% to save %s monthly",
				top.Category, reduction.Format(a.symbol)),
			"Set up automatic savings transfers to build your emergency fund",
			"Review and cancel unused subscriptions to free up extra money",
		},
		Insight: fmt.Sprintf("Your top spending category (%s) represents %.1f%% of your total expenses.",
			top.Category, top.Percentage),
		Motivation: "You're building great financial awareness by tracking your expenses. Keep it up!",
	}
}

// SavingTips returns deterministic saving tips, with the first tip
// personalized to the top spending category when one exists.
func (a *Analyzer) SavingTips() []string {
	tips := []string{
		"Track every expense for a week to identify spending patterns",
		"Use the 24-hour rule before making non-essential purchases",
		"Set up automatic transfers to savings account",
		"Review and cancel unused subscriptions monthly",
		"Cook at home more often to reduce food expenses",
	}
	if top := a.TopCategory(); top != nil {
		saved := core.Money{Cents: (top.Amount.Cents*15 + 50) / 100}
		tips[0] = fmt.Sprintf("Focus on reducing %s expenses by 15%% to save %s monthly",
			top.Category, saved.Format(a.symbol))
	}
	return tips
}
