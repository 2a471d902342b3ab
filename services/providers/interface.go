package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// LocalSummarizer produces a summary without leaving the process
type LocalSummarizer interface {
	// SummarizeLocal returns an extractive summary of text.
	// Any error is a *LocalProcessingError.
	SummarizeLocal(text string) (string, error)
}

// RemoteSummarizer produces a summary by calling an external service
type RemoteSummarizer interface {
	// Name returns the provider name (e.g., "gemini", "openai", "anthropic")
	Name() string

	// SummarizeRemote performs one bounded call to the remote service.
	// Any error is a *RemoteError.
	SummarizeRemote(ctx context.Context, text string) (string, error)
}

// SummaryPrompt is the instruction sent to every remote backend
const SummaryPrompt = "Please provide a concise summary of the following text in 2-3 sentences:\n\n"

// BuildPrompt prepends the summary instruction to text
func BuildPrompt(text string) string {
	return SummaryPrompt + text
}

// ProviderConfig holds common configuration for remote providers
type ProviderConfig struct {
	// APIKey for authentication
	APIKey string

	// BaseURL for the API (optional override)
	BaseURL string

	// Model identifier sent to the provider
	Model string

	// Timeout bounds a single remote call
	Timeout time.Duration

	// MaxOutputTokens limits the generated summary length
	MaxOutputTokens int64
}

// DefaultProviderConfig returns a sensible default configuration
func DefaultProviderConfig() ProviderConfig {
	return ProviderConfig{
		Timeout:         30 * time.Second,
		MaxOutputTokens: 512,
	}
}

// ErrorKind classifies a remote failure
type ErrorKind string

const (
	// KindNetwork covers connection failures, timeouts and 5xx responses
	KindNetwork ErrorKind = "NetworkError"

	// KindQuota covers rate limiting and authorization failures
	KindQuota ErrorKind = "QuotaError"

	// KindMalformedResponse covers responses missing the expected fields
	KindMalformedResponse ErrorKind = "MalformedResponseError"

	// KindLocalProcessing is reported for local summarizer failures
	KindLocalProcessing ErrorKind = "LocalProcessingError"
)

// RemoteError represents a failed remote summarization
type RemoteError struct {
	// Provider that generated the error
	Provider string

	// Kind is the failure class
	Kind ErrorKind

	// Message is the error message
	Message string

	// StatusCode is the HTTP status code (if applicable)
	StatusCode int

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface
func (e *RemoteError) Error() string {
	msg := fmt.Sprintf("%s: %s: %s", e.Provider, e.Kind, e.Message)
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap implements error unwrapping
func (e *RemoteError) Unwrap() error {
	return e.Cause
}

// NewRemoteError creates a new remote error
func NewRemoteError(provider string, kind ErrorKind, message string, statusCode int, cause error) *RemoteError {
	return &RemoteError{
		Provider:   provider,
		Kind:       kind,
		Message:    message,
		StatusCode: statusCode,
		Cause:      cause,
	}
}

// NewNetworkError creates a NetworkError for provider
func NewNetworkError(provider, message string, cause error) *RemoteError {
	return NewRemoteError(provider, KindNetwork, message, 0, cause)
}

// NewMalformedResponseError creates a MalformedResponseError for provider
func NewMalformedResponseError(provider, message string, statusCode int, cause error) *RemoteError {
	return NewRemoteError(provider, KindMalformedResponse, message, statusCode, cause)
}

// LocalProcessingError represents a failure of the local summarizer
type LocalProcessingError struct {
	Message string
	Cause   error
}

// Error implements the error interface
func (e *LocalProcessingError) Error() string {
	if e.Cause != nil {
		return string(KindLocalProcessing) + ": " + e.Message + ": " + e.Cause.Error()
	}
	return string(KindLocalProcessing) + ": " + e.Message
}

// Unwrap implements error unwrapping
func (e *LocalProcessingError) Unwrap() error {
	return e.Cause
}

// NewLocalProcessingError creates a new local processing error
func NewLocalProcessingError(message string, cause error) *LocalProcessingError {
	return &LocalProcessingError{Message: message, Cause: cause}
}

// KindOf returns the failure class of err, or "" when err is not a summarizer error
func KindOf(err error) ErrorKind {
	var remoteErr *RemoteError
	if errors.As(err, &remoteErr) {
		return remoteErr.Kind
	}
	var localErr *LocalProcessingError
	if errors.As(err, &localErr) {
		return KindLocalProcessing
	}
	return ""
}

// KindForStatus maps a non-2xx HTTP status to a failure class
func KindForStatus(statusCode int) ErrorKind {
	switch {
	case statusCode == http.StatusTooManyRequests,
		statusCode == http.StatusUnauthorized,
		statusCode == http.StatusForbidden,
		statusCode == http.StatusPaymentRequired:
		return KindQuota
	case statusCode == http.StatusRequestTimeout, statusCode >= 500:
		return KindNetwork
	default:
		return KindMalformedResponse
	}
}

// ClassifyTransportError wraps an error returned before any HTTP response was read.
// Deadline and cancellation errors are NetworkError like any other transport failure.
func ClassifyTransportError(provider string, err error) *RemoteError {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return NewNetworkError(provider, "request timed out", err)
	case errors.Is(err, context.Canceled):
		return NewNetworkError(provider, "request cancelled", err)
	case errors.As(err, &netErr) && netErr.Timeout():
		return NewNetworkError(provider, "request timed out", err)
	default:
		return NewNetworkError(provider, "HTTP request failed", err)
	}
}
