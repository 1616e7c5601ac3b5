package ai

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// APIError is a non-2xx answer from a provider.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	RequestID  string
}

func (e *APIError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "api error: status=%d", e.StatusCode)
	if e.Code != "" {
		fmt.Fprintf(&sb, " code=%s", e.Code)
	}
	if e.RequestID != "" {
		fmt.Fprintf(&sb, " request_id=%s", e.RequestID)
	}
	if e.Message != "" {
		fmt.Fprintf(&sb, " message=%s", e.Message)
	}
	return sb.String()
}

// AuthError indicates 401/403.
type AuthError struct{ *APIError }

func (e *AuthError) Error() string { return "authentication failed: " + e.APIError.Error() }

// RateLimitError indicates 429 and may carry the provider's Retry-After.
type RateLimitError struct {
	*APIError
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited, retry in %ds: %s", int(e.RetryAfter.Seconds()), e.APIError.Error())
	}
	return "rate limited: " + e.APIError.Error()
}

// ModelNotFoundError indicates the configured model does not exist.
type ModelNotFoundError struct{ *APIError }

func (e *ModelNotFoundError) Error() string { return "model not found: " + e.APIError.Error() }

// BadRequestError indicates a 400 validation failure.
type BadRequestError struct{ *APIError }

func (e *BadRequestError) Error() string { return "bad request: " + e.APIError.Error() }

// QuotaExceededError indicates billing or credit exhaustion.
type QuotaExceededError struct{ *APIError }

func (e *QuotaExceededError) Error() string { return "quota exceeded: " + e.APIError.Error() }

// ServerError indicates a 5xx from the provider.
type ServerError struct{ *APIError }

func (e *ServerError) Error() string { return "provider error: " + e.APIError.Error() }

// classifyAPIError maps a raw APIError to the typed errors above.
func classifyAPIError(apiErr *APIError, header http.Header) error {
	sc := apiErr.StatusCode
	switch {
	case sc == http.StatusUnauthorized || sc == http.StatusForbidden:
		return &AuthError{APIError: apiErr}
	case sc == http.StatusTooManyRequests:
		return &RateLimitError{APIError: apiErr, RetryAfter: retryAfter(header)}
	case sc == http.StatusNotFound:
		if apiErr.Code == "model_not_found" || containsAllFold(apiErr.Message, "model", "not", "found") {
			return &ModelNotFoundError{APIError: apiErr}
		}
		return apiErr
	case sc == http.StatusPaymentRequired || apiErr.Code == "quota_exceeded" ||
		containsAnyFold(apiErr.Message, "quota", "billing", "credit balance"):
		return &QuotaExceededError{APIError: apiErr}
	case sc == http.StatusBadRequest:
		return &BadRequestError{APIError: apiErr}
	case sc >= 500 && sc <= 599:
		return &ServerError{APIError: apiErr}
	}
	return apiErr
}

// retryable reports whether a status is worth another attempt.
func retryable(status int) bool {
	return status == http.StatusTooManyRequests || (status >= 500 && status <= 599)
}

func isRetryableNetErr(err error) bool {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	return errors.Is(err, io.EOF) || errors.Is(err, syscall.ECONNRESET)
}

// retryAfter reads Retry-After as seconds or an HTTP date; 0 when absent.
func retryAfter(header http.Header) time.Duration {
	if header == nil {
		return 0
	}
	v := header.Get("Retry-After")
	if v == "" {
		return 0
	}
	if s, err := strconv.Atoi(v); err == nil && s > 0 {
		return time.Duration(s) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// requestID pulls a best-effort request id from common headers.
func requestID(header http.Header) string {
	if header == nil {
		return ""
	}
	for _, k := range []string{"Request-Id", "X-Request-Id", "OpenAI-Request-ID", "Openrouter-Request-ID"} {
		if v := header.Get(k); v != "" {
			return v
		}
	}
	return ""
}

func containsAllFold(s string, subs ...string) bool {
	for _, sub := range subs {
		if !containsFold(s, sub) {
			return false
		}
	}
	return true
}

func containsAnyFold(s string, subs ...string) bool {
	for _, sub := range subs {
		if containsFold(s, sub) {
			return true
		}
	}
	return false
}

func containsFold(s, sub string) bool {
	if s == "" || sub == "" {
		return false
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
