package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

const (
	maxTokens   = 600
	temperature = 0.7

	systemMessage = "You are a professional financial advisor. Provide practical, actionable advice in a friendly tone. Always use Indian Rupees (₹) for currency. Respond in JSON format only."
)

// ErrNoCredential signals that no usable API key was available. It is a
// routing decision, not a failure: the caller moves on to the next stage
// of the fallback chain.
var ErrNoCredential = errors.New("no valid API key available")

// ProviderError is a failed provider call: transport error or non-success
// status. Always recoverable.
type ProviderError struct {
	Provider string
	Status   int
	Body     string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("provider %s: status %d: %s", e.Provider, e.Status, e.Body)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Client performs a single call against a provider endpoint. No retries,
// no backoff: an analysis request is a low-stakes, user-triggered,
// idempotent read and the caller owns the fallback chain.
type Client struct {
	httpClient *http.Client
}

// NewClient builds a provider client. A nil httpClient falls back to
// http.DefaultClient.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{httpClient: httpClient}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type promptRequest struct {
	Inputs     string `json:"inputs"`
	Parameters struct {
		MaxLength   int     `json:"max_length"`
		Temperature float64 `json:"temperature"`
	} `json:"parameters"`
}

type generatedText struct {
	GeneratedText string `json:"generated_text"`
}

// Complete sends the prompt to the provider and returns the raw response
// text. Credential absence, transport errors and non-2xx statuses all fail
// fast with a recoverable error.
func (c *Client) Complete(ctx context.Context, provider Provider, apiKey, prompt string) (string, error) {
	if !UsableKey(apiKey) {
		return "", ErrNoCredential
	}

	var body any
	switch provider.Protocol {
	case ProtocolPrompt:
		req := promptRequest{Inputs: prompt}
		req.Parameters.MaxLength = maxTokens
		req.Parameters.Temperature = temperature
		body = req
	default:
		body = chatRequest{
			Model: provider.Model,
			Messages: []chatMessage{
				{Role: "system", Content: systemMessage},
				{Role: "user", Content: prompt},
			},
			MaxTokens:   maxTokens,
			Temperature: temperature,
		}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", &ProviderError{Provider: provider.Key, Err: fmt.Errorf("marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, provider.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", &ProviderError{Provider: provider.Key, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &ProviderError{Provider: provider.Key, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &ProviderError{Provider: provider.Key, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.WarnContext(ctx, "Provider call failed",
			"provider", provider.Key, "status", resp.StatusCode)
		return "", &ProviderError{Provider: provider.Key, Status: resp.StatusCode, Body: string(raw)}
	}

	switch provider.Protocol {
	case ProtocolPrompt:
		return decodeGeneratedText(provider.Key, raw)
	default:
		var parsed chatResponse
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return "", &ProviderError{Provider: provider.Key, Err: fmt.Errorf("decode response: %w", err)}
		}
		if len(parsed.Choices) == 0 {
			return "", &ProviderError{Provider: provider.Key, Err: errors.New("empty choices in response")}
		}
		return parsed.Choices[0].Message.Content, nil
	}
}

// decodeGeneratedText accepts both the array and object forms of the
// single-prompt response.
func decodeGeneratedText(providerKey string, raw []byte) (string, error) {
	var arr []generatedText
	if err := json.Unmarshal(raw, &arr); err == nil && len(arr) > 0 {
		return arr[0].GeneratedText, nil
	}
	var obj generatedText
	if err := json.Unmarshal(raw, &obj); err == nil && obj.GeneratedText != "" {
		return obj.GeneratedText, nil
	}
	return "", &ProviderError{Provider: providerKey, Err: errors.New("no generated_text in response")}
}
