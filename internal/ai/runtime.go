package ai

import (
	"context"
	"errors"
)

// Runtime is implemented by model backends (Anthropic, OpenRouter).
type Runtime interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

// Provider identifiers used for selection in config.
const (
	ProviderAnthropic  = "anthropic"
	ProviderOpenRouter = "openrouter"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrMissingAPIKey is returned by Generate when no credential was configured.
var ErrMissingAPIKey = errors.New("api key is missing")

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerateRequest is a provider-neutral chat request. System carries the
// persona instructions plus any retrieved context.
type GenerateRequest struct {
	Model       string
	System      string
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type GenerateResponse struct {
	Text      string
	Model     string
	Usage     Usage
	RequestID string
}
