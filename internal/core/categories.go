package core

// CategoryInfo describes one spending category: display name, icon glyph
// and a small ordered list of generic saving tips. Static, never mutated.
type CategoryInfo struct {
	Key        string   `json:"key"`
	Name       string   `json:"name"`
	Icon       string   `json:"icon"`
	SavingTips []string `json:"savingTips"`
}

// categoryOrder keeps CategoryOptions deterministic.
var categoryOrder = []string{
	"food", "transport", "shopping", "entertainment",
	"utilities", "healthcare", "education", "other", "income",
}

var categories = map[string]CategoryInfo{
	"food": {
		Key: "food", Name: "Food & Dining", Icon: "🍽️",
		SavingTips: []string{"Cook at home more often", "Plan meals weekly", "Use grocery lists"},
	},
	"transport": {
		Key: "transport", Name: "Transportation", Icon: "🚗",
		SavingTips: []string{"Use public transport", "Carpool when possible", "Walk or bike for short distances"},
	},
	"shopping": {
		Key: "shopping", Name: "Shopping", Icon: "🛍️",
		SavingTips: []string{"Wait 24 hours before buying", "Compare prices online", "Use shopping lists"},
	},
	"entertainment": {
		Key: "entertainment", Name: "Entertainment", Icon: "🎬",
		SavingTips: []string{"Look for free events", "Use streaming instead of cinema", "Take advantage of happy hours"},
	},
	"utilities": {
		Key: "utilities", Name: "Utilities", Icon: "💡",
		SavingTips: []string{"Switch to LED bulbs", "Unplug devices when not in use", "Use energy-efficient appliances"},
	},
	"healthcare": {
		Key: "healthcare", Name: "Healthcare", Icon: "🏥",
		SavingTips: []string{"Use generic medicines", "Regular health checkups", "Compare healthcare providers"},
	},
	"education": {
		Key: "education", Name: "Education", Icon: "📚",
		SavingTips: []string{"Use free online courses", "Buy used textbooks", "Apply for scholarships"},
	},
	"other": {
		Key: "other", Name: "Other", Icon: "📦",
		SavingTips: []string{"Track miscellaneous expenses", "Set spending limits", "Review monthly"},
	},
	"income": {
		Key: "income", Name: "Income", Icon: "💰",
		SavingTips: []string{"Diversify income sources", "Negotiate salary increases", "Consider side hustles"},
	},
}

// CategoryByKey resolves a category key, falling back to "other" for
// unknown keys so aggregation never fails on imported data.
func CategoryByKey(key string) CategoryInfo {
	if info, ok := categories[key]; ok {
		return info
	}
	return categories["other"]
}

// CategoryOptions lists the categories valid for a transaction type, in
// registry order. Income transactions only ever use the income category.
func CategoryOptions(t TransactionType) []CategoryInfo {
	if t == Income {
		return []CategoryInfo{categories["income"]}
	}
	out := make([]CategoryInfo, 0, len(categoryOrder)-1)
	for _, key := range categoryOrder {
		if key == "income" {
			continue
		}
		out = append(out, categories[key])
	}
	return out
}
