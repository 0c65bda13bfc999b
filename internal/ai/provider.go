// Package ai calls a remote language-model provider for financial
// commentary and normalizes whatever comes back into the AIAnalysis
// contract. Every failure is recoverable: the advisor walks an ordered
// credential chain and ends at the local rule engine, which always
// succeeds.
package ai

import "strings"

// Protocol selects the request/response wire shape for a provider.
type Protocol string

const (
	// ProtocolChat is the chat-completion shape: POST {model, messages,
	// max_tokens, temperature}, response in the first choice's message.
	ProtocolChat Protocol = "chat"
	// ProtocolPrompt is the single-prompt shape: POST {inputs,
	// parameters}, response in a generated_text field.
	ProtocolPrompt Protocol = "prompt"
)

// Provider is a remote AI endpoint configuration.
type Provider struct {
	Key       string
	Name      string
	Endpoint  string
	Model     string
	KeyPrefix string
	Protocol  Protocol
}

var providers = map[string]Provider{
	"groq": {
		Key:       "groq",
		Name:      "Groq",
		Endpoint:  "https://api.groq.com/openai/v1/chat/completions",
		Model:     "llama3-8b-8192",
		KeyPrefix: "gsk_",
		Protocol:  ProtocolChat,
	},
	"openai": {
		Key:       "openai",
		Name:      "OpenAI",
		Endpoint:  "https://api.openai.com/v1/chat/completions",
		Model:     "gpt-3.5-turbo",
		KeyPrefix: "sk-",
		Protocol:  ProtocolChat,
	},
	"huggingface": {
		Key:       "huggingface",
		Name:      "Hugging Face",
		Endpoint:  "https://api-inference.huggingface.co/models/microsoft/DialoGPT-medium",
		Model:     "microsoft/DialoGPT-medium",
		KeyPrefix: "hf_",
		Protocol:  ProtocolPrompt,
	},
}

// DefaultProvider is used when no provider is configured.
const DefaultProvider = "groq"

// ProviderByKey looks up a provider configuration.
func ProviderByKey(key string) (Provider, bool) {
	p, ok := providers[key]
	return p, ok
}

// UsableKey reports whether a credential is present and not a template
// placeholder. Keys containing "your_" or "_here" are treated as unset —
// the sentinel convention of shipped .env templates.
func UsableKey(key string) bool {
	if strings.TrimSpace(key) == "" {
		return false
	}
	return !strings.Contains(key, "your_") && !strings.Contains(key, "_here")
}
