package ai

import (
	"context"
	"encoding/json"
	"log/slog"

	"finassist/internal/analysis"
	"finassist/internal/core"
	"finassist/internal/prompt"
)

// Source identifies which stage of the fallback chain produced a result.
type Source string

const (
	SourceShared Source = "shared"
	SourceUser   Source = "user"
	SourceLocal  Source = "fallback"
)

// Credentials is the per-call snapshot of configured API keys. The shared
// credential comes from the environment; the user credential from stored
// settings. Selection precedence is shared > user > none.
type Credentials struct {
	SharedProvider string
	SharedKey      string
	UserProvider   string
	UserKey        string
}

// CredentialSource resolves credentials at call time so settings changes
// take effect without restarting.
type CredentialSource interface {
	Credentials(ctx context.Context) (Credentials, error)
}

// Result is an analysis plus the chain stage that produced it.
type Result struct {
	Analysis core.AIAnalysis `json:"analysis"`
	Source   Source          `json:"source"`
}

// Status describes the active credential route for display.
type Status struct {
	Type     Source `json:"type"`
	Provider string `json:"provider"`
	Message  string `json:"message"`
}

// Advisor walks the fallback chain for each analysis request: shared
// credential, then user credential, then the local rule engine. Each stage
// gets exactly one attempt; the local stage cannot fail.
type Advisor struct {
	client *Client
	creds  CredentialSource
	symbol string
}

// AdvisorOption configures an Advisor.
type AdvisorOption func(*Advisor)

// WithCurrencySymbol sets the symbol used by the local fallback engine.
func WithCurrencySymbol(symbol string) AdvisorOption {
	return func(a *Advisor) { a.symbol = symbol }
}

func NewAdvisor(client *Client, creds CredentialSource, opts ...AdvisorOption) *Advisor {
	a := &Advisor{client: client, creds: creds, symbol: "₹"}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type strategy struct {
	source   Source
	provider Provider
	key      string
}

// strategies builds the ordered attempt list from a credential snapshot,
// skipping stages without a usable key.
func (a *Advisor) strategies(c Credentials) []strategy {
	var out []strategy
	if p, ok := ProviderByKey(orDefault(c.SharedProvider)); ok && UsableKey(c.SharedKey) {
		out = append(out, strategy{source: SourceShared, provider: p, key: c.SharedKey})
	}
	if p, ok := ProviderByKey(orDefault(c.UserProvider)); ok && UsableKey(c.UserKey) {
		out = append(out, strategy{source: SourceUser, provider: p, key: c.UserKey})
	}
	return out
}

func orDefault(provider string) string {
	if provider == "" {
		return DefaultProvider
	}
	return provider
}

// complete runs the prompt through the chain and returns the first raw
// success. ErrNoCredential when no stage was attempted.
func (a *Advisor) complete(ctx context.Context, promptText string) (string, Source, error) {
	creds, err := a.creds.Credentials(ctx)
	if err != nil {
		return "", SourceLocal, err
	}

	var lastErr error = ErrNoCredential
	for _, s := range a.strategies(creds) {
		content, err := a.client.Complete(ctx, s.provider, s.key, promptText)
		if err != nil {
			slog.WarnContext(ctx, "AI call failed, trying next stage",
				"source", string(s.source), "provider", s.provider.Key, "error", err)
			lastErr = err
			continue
		}
		return content, s.source, nil
	}
	return "", SourceLocal, lastErr
}

// AnalyzeFinances runs the full analysis. The result always satisfies the
// AIAnalysis contract; Source reports which stage produced it.
func (a *Advisor) AnalyzeFinances(ctx context.Context, transactions []core.Transaction) Result {
	content, source, err := a.complete(ctx, prompt.Build(transactions, prompt.ModeFull))
	if err != nil {
		return Result{Analysis: a.local(transactions).LocalAnalysis(), Source: SourceLocal}
	}
	return Result{Analysis: Normalize(content), Source: source}
}

// SavingTips returns AI-generated saving tips, falling back to the
// deterministic list.
func (a *Advisor) SavingTips(ctx context.Context, transactions []core.Transaction) ([]string, Source) {
	content, source, err := a.complete(ctx, prompt.Build(transactions, prompt.ModeTips))
	if err == nil {
		if tips := Normalize(content).Tips; len(tips) > 0 {
			return tips, source
		}
	}
	return a.local(transactions).SavingTips(), SourceLocal
}

// SuggestBudget returns an AI budget split, falling back to the 50/30/20
// rule engine. AI amounts arrive in whole currency units.
func (a *Advisor) SuggestBudget(ctx context.Context, transactions []core.Transaction) (analysis.BudgetSuggestion, Source) {
	content, source, err := a.complete(ctx, prompt.Build(transactions, prompt.ModeBudget))
	if err == nil {
		if b, ok := parseBudget(content); ok {
			return b, source
		}
	}
	return a.local(transactions).BudgetSuggestion(), SourceLocal
}

func (a *Advisor) local(transactions []core.Transaction) *analysis.Analyzer {
	return analysis.New(transactions, analysis.WithCurrencySymbol(a.symbol))
}

// parseBudget extracts a budget JSON payload from the raw reply.
func parseBudget(content string) (analysis.BudgetSuggestion, bool) {
	payload := braceRe.FindString(content)
	if payload == "" {
		return analysis.BudgetSuggestion{}, false
	}
	var parsed struct {
		Needs       float64 `json:"needs"`
		Wants       float64 `json:"wants"`
		Savings     float64 `json:"savings"`
		Explanation string  `json:"explanation"`
	}
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return analysis.BudgetSuggestion{}, false
	}
	if parsed.Needs < 0 || parsed.Wants < 0 || parsed.Savings < 0 {
		return analysis.BudgetSuggestion{}, false
	}
	return analysis.BudgetSuggestion{
		Needs:       core.Money{Cents: int64(parsed.Needs * 100)},
		Wants:       core.Money{Cents: int64(parsed.Wants * 100)},
		Savings:     core.Money{Cents: int64(parsed.Savings * 100)},
		Explanation: parsed.Explanation,
	}, true
}

// TestConnection performs a single round trip through the first usable
// stage and reports the outcome.
func (a *Advisor) TestConnection(ctx context.Context) (bool, string) {
	_, source, err := a.complete(ctx, "Respond with just: 'Connection successful!'")
	if err != nil {
		if err == ErrNoCredential {
			return false, "No valid API key configured"
		}
		return false, "Connection failed: " + err.Error()
	}
	if source == SourceUser {
		return true, "Your API connection successful!"
	}
	return true, "API connection successful!"
}

// CurrentStatus reports which route the next analysis would take.
func (a *Advisor) CurrentStatus(ctx context.Context) Status {
	creds, err := a.creds.Credentials(ctx)
	if err == nil {
		if p, ok := ProviderByKey(orDefault(creds.SharedProvider)); ok && UsableKey(creds.SharedKey) {
			return Status{Type: SourceShared, Provider: p.Name, Message: "Using shared " + p.Name + " API"}
		}
		if p, ok := ProviderByKey(orDefault(creds.UserProvider)); ok && UsableKey(creds.UserKey) {
			return Status{Type: SourceUser, Provider: p.Name, Message: "Using your " + p.Name + " API"}
		}
	}
	return Status{Type: SourceLocal, Provider: "Local Analysis", Message: "Add an API key for AI insights"}
}
