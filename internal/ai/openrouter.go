package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

// OpenRouterClient talks to any OpenAI-compatible chat completions endpoint
// and retries 429/5xx with capped exponential backoff.
type OpenRouterClient struct {
	httpClient       *http.Client
	apiKey           string
	baseURL          string
	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

type errorBody struct {
	Error struct {
		Message string `json:"message"`
		Code    any    `json:"code"`
	} `json:"error"`
}

func NewOpenRouterClient(c RuntimeConfig) *OpenRouterClient {
	base := c.BaseURL
	if base == "" {
		base = openRouterBaseURL
	}
	attempts := c.RetryMax
	if attempts <= 0 {
		attempts = 1
	}
	return &OpenRouterClient{
		httpClient:       &http.Client{Timeout: c.HTTPTimeout},
		apiKey:           c.APIKey,
		baseURL:          base,
		retryMaxAttempts: attempts,
		retryBaseDelay:   c.BaseDelay,
		retryMaxDelay:    c.MaxDelay,
	}
}

func (c *OpenRouterClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("openrouter: %w", ErrMissingAPIKey)
	}
	if req.Model == "" {
		return nil, fmt.Errorf("model cannot be empty")
	}
	payload, err := json.Marshal(toChatRequest(req))
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	backoff := c.retryBaseDelay
	var lastErr error
	for attempt := 1; attempt <= c.retryMaxAttempts; attempt++ {
		if attempt > 1 {
			wait := withJitter(backoff)
			if rl, ok := lastErr.(*RateLimitError); ok && rl.RetryAfter > 0 {
				wait = rl.RetryAfter
			} else if c.retryMaxDelay > 0 && wait > c.retryMaxDelay {
				wait = c.retryMaxDelay
			}
			if err := sleepCtx(ctx, wait); err != nil {
				return nil, err
			}
			backoff *= 2
		}
		resp, again, err := c.do(ctx, payload)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !again {
			break
		}
	}
	return nil, lastErr
}

// do performs one attempt. again reports whether the failure is retryable.
func (c *OpenRouterClient) do(ctx context.Context, payload []byte) (*GenerateResponse, bool, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, false, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Title", "ai-kouki")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, ctx.Err() == nil && isRetryableNetErr(err), fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		apiErr := &APIError{StatusCode: resp.StatusCode, RequestID: requestID(resp.Header)}
		var eb errorBody
		if json.Unmarshal(body, &eb) == nil {
			apiErr.Message = eb.Error.Message
			if eb.Error.Code != nil {
				apiErr.Code = fmt.Sprint(eb.Error.Code)
			}
		}
		return nil, retryable(resp.StatusCode), classifyAPIError(apiErr, resp.Header)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, false, fmt.Errorf("decode response: %w", err)
	}
	if len(out.Choices) == 0 {
		return nil, false, fmt.Errorf("empty response: no choices")
	}
	return &GenerateResponse{
		Text:  out.Choices[0].Message.Content,
		Model: out.Model,
		Usage: Usage{
			InputTokens:  out.Usage.PromptTokens,
			OutputTokens: out.Usage.CompletionTokens,
		},
		RequestID: requestID(resp.Header),
	}, false, nil
}

// toChatRequest puts the system prompt in front as a system message.
func toChatRequest(req GenerateRequest) chatRequest {
	msgs := make([]chatMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		msgs = append(msgs, chatMessage{Role: "system", Content: req.System})
	}
	for _, m := range req.Messages {
		msgs = append(msgs, chatMessage{Role: m.Role, Content: m.Content})
	}
	return chatRequest{
		Model:       req.Model,
		Messages:    msgs,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
}

// withJitter returns d with +/- 20% jitter applied.
func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	f := 0.8 + rand.Float64()*0.4
	return time.Duration(float64(d) * f)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
