// Package prompt formats transaction snapshots into natural-language
// prompts for the AI provider. Building is pure string formatting: two
// calls with the same snapshot and mode produce byte-identical output —
// no timestamps, no randomness beyond the data itself.
package prompt

import (
	"fmt"
	"strings"

	"finassist/internal/analysis"
	"finassist/internal/core"
)

// Analysis modes. Each mode ends the prompt with an explicit JSON-shape
// instruction matching the corresponding output contract.
const (
	ModeFull     = "full"
	ModeBudget   = "budget"
	ModeTips     = "tips"
	ModeInsights = "insights"
)

// recentLimit caps how many transactions are serialized into the prompt.
const recentLimit = 8

// Build renders the prompt for the given snapshot and mode. Unknown modes
// return just the data section.
func Build(transactions []core.Transaction, mode string) string {
	var b strings.Builder
	writeBaseData(&b, transactions)

	switch mode {
	case ModeFull:
		b.WriteString(`
Please analyze this financial data and provide:
1. A 2-3 sentence engaging financial story/summary
2. Top 3 personalized money-saving tips based on spending patterns
3. One key insight about spending behavior
4. A motivational message to encourage better financial habits

Format as JSON:
{
  "story": "Your financial story...",
  "tips": ["Tip 1", "Tip 2", "Tip 3"],
  "insight": "Key spending insight...",
  "motivation": "Motivational message..."
}`)
	case ModeBudget:
		b.WriteString(`
Based on this financial data, suggest an optimal budget allocation. Consider:
- Current spending patterns
- Income level
- Potential areas for optimization

Provide specific amounts for needs, wants, and savings with explanation.

Format as JSON:
{
  "needs": amount_for_needs,
  "wants": amount_for_wants,
  "savings": amount_for_savings,
  "explanation": "Brief explanation of the allocation strategy"
}`)
	case ModeTips:
		b.WriteString(`
Focus on the spending patterns and provide 5 specific, actionable money-saving tips tailored to this person's expenses. Be practical and specific.

Format as JSON:
{
  "tips": ["Specific tip 1", "Specific tip 2", "Specific tip 3", "Specific tip 4", "Specific tip 5"],
  "focus_area": "Main category to focus on for savings"
}`)
	case ModeInsights:
		b.WriteString(`
Analyze the spending patterns and provide:
1. Key behavioral insights
2. Spending trends
3. Areas of concern
4. Positive financial habits observed

Format as JSON:
{
  "behavioral_insights": ["Insight 1", "Insight 2"],
  "trends": "Observed spending trends",
  "concerns": ["Concern 1", "Concern 2"],
  "positive_habits": ["Good habit 1", "Good habit 2"]
}`)
	}

	return b.String()
}

func writeBaseData(b *strings.Builder, transactions []core.Transaction) {
	a := analysis.New(transactions)
	totals := a.Totals()
	breakdown := a.CategoryBreakdown()

	fmt.Fprintf(b, `FINANCIAL OVERVIEW:
- Income: ₹%d
- Total Expenses: ₹%d
- Net Balance: ₹%d
- Number of Transactions: %d

EXPENSES BY CATEGORY:
`, totals.Income.Cents/100, totals.Expenses.Cents/100, totals.Balance.Cents/100, len(transactions))

	for _, cat := range breakdown {
		fmt.Fprintf(b, "- %s: ₹%d (%.1f%%)\n", cat.Category, cat.Amount.Cents/100, cat.Percentage)
	}

	b.WriteString("\nRECENT TRANSACTIONS:\n")
	recent := transactions
	if len(recent) > recentLimit {
		recent = recent[:recentLimit]
	}
	for _, t := range recent {
		fmt.Fprintf(b, "- %s: ₹%d - %s (%s)\n", t.Type, t.Amount.Cents/100, t.Category, t.Description)
	}
}
