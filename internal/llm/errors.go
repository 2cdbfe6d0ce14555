package llm

import (
	"errors"

	"github.com/Defantinis/n8n-ultimate-sub007/internal/types"
)

// LLM error codes follow the shared error pattern in internal/types.
const (
	// Request errors
	ErrInvalidRequest     types.ErrorCode = "LLM_INVALID_REQUEST"
	ErrInvalidTemperature types.ErrorCode = "LLM_INVALID_TEMPERATURE"
	ErrInvalidTopP        types.ErrorCode = "LLM_INVALID_TOP_P"
	ErrInvalidMaxTokens   types.ErrorCode = "LLM_INVALID_MAX_TOKENS"

	// Completion errors
	ErrGenerationUnavailable types.ErrorCode = "LLM_GENERATION_UNAVAILABLE"
	ErrStreamMalformed       types.ErrorCode = "LLM_STREAM_MALFORMED"
	ErrResponseParseFailed   types.ErrorCode = "LLM_RESPONSE_PARSE_FAILED"
	ErrContextCanceled       types.ErrorCode = "LLM_CONTEXT_CANCELED"

	// Network errors
	ErrNetworkFailed  types.ErrorCode = "LLM_NETWORK_FAILED"
	ErrNetworkTimeout types.ErrorCode = "LLM_NETWORK_TIMEOUT"
)

// IsRetryable determines if an error is transient and may succeed on retry.
// The client never retries internally; callers use this to decide whether a
// deterministic fallback or a retry is appropriate.
func IsRetryable(err error) bool {
	var typed *types.Error
	if !errors.As(err, &typed) {
		return false
	}

	if typed.Retryable {
		return true
	}

	switch typed.Code {
	case ErrNetworkFailed, ErrNetworkTimeout, ErrGenerationUnavailable:
		return true

	// Context cancellation is user-initiated, not retryable.
	case ErrContextCanceled:
		return false

	// Invalid requests won't succeed on retry.
	case ErrInvalidRequest, ErrInvalidTemperature, ErrInvalidTopP, ErrInvalidMaxTokens:
		return false

	default:
		return false
	}
}

// IsUnavailable reports whether err represents the generation service being
// unreachable or answering with a malformed or non-success response.
func IsUnavailable(err error) bool {
	return types.HasCode(err, ErrGenerationUnavailable) ||
		types.HasCode(err, ErrNetworkFailed) ||
		types.HasCode(err, ErrNetworkTimeout) ||
		types.HasCode(err, ErrStreamMalformed)
}

// NewGenerationUnavailableError creates a retryable error for when the
// generation service cannot produce a response (network failure, non-2xx
// status, malformed payload).
func NewGenerationUnavailableError(message string, cause error) *types.Error {
	return &types.Error{
		Code:      ErrGenerationUnavailable,
		Message:   message,
		Retryable: true,
		Cause:     cause,
	}
}

// NewInvalidRequestError creates an error for invalid requests.
func NewInvalidRequestError(message string) *types.Error {
	return types.NewError(ErrInvalidRequest, message)
}

// NewStreamMalformedError creates an error for a broken streamed frame.
func NewStreamMalformedError(message string, cause error) *types.Error {
	return types.WrapError(ErrStreamMalformed, message, cause)
}

// NewNetworkError creates a retryable error for network failures.
func NewNetworkError(message string, cause error) *types.Error {
	return &types.Error{
		Code:      ErrNetworkFailed,
		Message:   message,
		Retryable: true,
		Cause:     cause,
	}
}
