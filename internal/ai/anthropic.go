package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicMaxTokens = 400

// MessagesClient is the part of the Anthropic SDK the runtime uses;
// *anthropic.MessageService satisfies it.
type MessagesClient interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// AnthropicRuntime sends chat turns through the Anthropic messages API.
type AnthropicRuntime struct {
	messages MessagesClient
	hasKey   bool
}

// NewAnthropicRuntime builds the SDK client once. An empty APIKey lets the
// SDK fall back to ANTHROPIC_API_KEY.
func NewAnthropicRuntime(c RuntimeConfig) *AnthropicRuntime {
	var opts []option.RequestOption
	if c.APIKey != "" {
		opts = append(opts, option.WithAPIKey(c.APIKey))
	}
	if c.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(c.BaseURL))
	}
	if c.RetryMax > 0 {
		opts = append(opts, option.WithMaxRetries(c.RetryMax-1))
	}
	if c.HTTPTimeout > 0 {
		opts = append(opts, option.WithRequestTimeout(c.HTTPTimeout))
	}
	client := anthropic.NewClient(opts...)
	return &AnthropicRuntime{
		messages: &client.Messages,
		hasKey:   c.APIKey != "" || os.Getenv("ANTHROPIC_API_KEY") != "",
	}
}

// NewAnthropicRuntimeWithClient injects a messages client, e.g. a fake in tests.
func NewAnthropicRuntimeWithClient(m MessagesClient) *AnthropicRuntime {
	return &AnthropicRuntime{messages: m, hasKey: true}
}

func (r *AnthropicRuntime) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if !r.hasKey {
		return nil, fmt.Errorf("anthropic: %w", ErrMissingAPIKey)
	}
	if req.Model == "" {
		return nil, fmt.Errorf("model cannot be empty")
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: int64(maxTokens),
		Messages:  toAnthropicMessages(req.Messages),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}

	msg, err := r.messages.New(ctx, params)
	if err != nil {
		return nil, classifyAnthropicError(err)
	}
	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return &GenerateResponse{
		Text:  text.String(),
		Model: string(msg.Model),
		Usage: Usage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
		},
		RequestID: msg.ID,
	}, nil
}

func toAnthropicMessages(msgs []Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case RoleAssistant:
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	return out
}

// classifyAnthropicError converts SDK status errors into this package's
// typed errors; anything else is wrapped as-is.
func classifyAnthropicError(err error) error {
	var sdkErr *anthropic.Error
	if !errors.As(err, &sdkErr) {
		return fmt.Errorf("anthropic request: %w", err)
	}
	var header http.Header
	msg := http.StatusText(sdkErr.StatusCode)
	if sdkErr.Response != nil {
		header = sdkErr.Response.Header
		if sdkErr.Request != nil {
			msg = sdkErr.Error()
		}
	}
	apiErr := &APIError{
		StatusCode: sdkErr.StatusCode,
		Message:    msg,
		RequestID:  requestID(header),
	}
	return classifyAPIError(apiErr, header)
}
