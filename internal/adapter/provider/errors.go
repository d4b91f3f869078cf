package provider

import (
	"fmt"
	"net/http"
)

// RequestError describes a failed provider call in terms the client can act
// on: a stable code, a human-readable message, and whether retrying the same
// request can succeed.
type RequestError struct {
	Code      string
	Message   string
	Retryable bool
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// classifyStatus maps an HTTP error status from a provider API to a RequestError.
func classifyStatus(status int, body string) *RequestError {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &RequestError{
			Code:      "invalid_api_key",
			Message:   "the provider rejected the API key",
			Retryable: false,
		}
	case status == http.StatusNotFound:
		return &RequestError{
			Code:      "model_not_found",
			Message:   "the provider does not recognize the requested model",
			Retryable: false,
		}
	case status == http.StatusTooManyRequests:
		return &RequestError{
			Code:      "rate_limited",
			Message:   "the provider is rate limiting requests",
			Retryable: true,
		}
	case status >= 500:
		return &RequestError{
			Code:      "provider_unavailable",
			Message:   fmt.Sprintf("provider returned status %d", status),
			Retryable: true,
		}
	default:
		msg := body
		if len(msg) > 200 {
			msg = msg[:200]
		}
		return &RequestError{
			Code:      "provider_error",
			Message:   fmt.Sprintf("provider returned status %d: %s", status, msg),
			Retryable: false,
		}
	}
}
