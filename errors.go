package modelswitch

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for common failure modes.
// These can be checked with errors.Is().
var (
	// ErrInvalidConfig indicates a generation config that was rejected before any model call.
	ErrInvalidConfig = errors.New("modelswitch: invalid config")

	// ErrModelUnavailable indicates the model backend could not be reached or refused to serve the model.
	ErrModelUnavailable = errors.New("modelswitch: model unavailable")

	// ErrModelProtocol indicates the backend answered with a malformed or unexpected response.
	ErrModelProtocol = errors.New("modelswitch: model protocol error")

	// ErrInvalidModel indicates the requested model is not supported by the provider.
	ErrInvalidModel = errors.New("modelswitch: invalid or unsupported model")

	// ErrInvalidAPIKey indicates the API key is missing, malformed, or unauthorized.
	ErrInvalidAPIKey = errors.New("modelswitch: invalid API key")

	// ErrRateLimited indicates the provider's rate limit has been exceeded.
	ErrRateLimited = errors.New("modelswitch: rate limit exceeded")

	// ErrUnknownProvider indicates no provider is registered under the requested ID.
	ErrUnknownProvider = errors.New("modelswitch: unknown provider")
)

// ModelError represents an error related to model validation or availability.
type ModelError struct {
	Model    string // The model that was requested
	Provider string // The provider name
	Reason   string // Human-readable explanation
	Err      error  // Wrapped error (usually ErrInvalidModel or ErrModelUnavailable)
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("model '%s' for provider '%s': %s (%v)", e.Model, e.Provider, e.Reason, e.Err)
	}
	return fmt.Sprintf("model '%s' for provider '%s': %s", e.Model, e.Provider, e.Reason)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// ValidationError represents a rejected configuration or parameter value.
// It always unwraps to ErrInvalidConfig.
type ValidationError struct {
	Field  string // The field that failed validation
	Value  any    // The invalid value
	Reason string // Human-readable explanation
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s (value: %v): %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfig
}

// ProviderError represents an error from the underlying model backend.
type ProviderError struct {
	Provider   string // The provider name
	StatusCode int    // HTTP status code (if applicable)
	Message    string // Error message from provider
	Retryable  bool   // Whether this error is potentially retryable
	Err        error  // Wrapped sentinel error (ErrModelUnavailable, ErrModelProtocol, etc.)
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider '%s' error (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider '%s' error: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewUnavailableError wraps a transport failure (dial error, timeout, reset) as ErrModelUnavailable.
func NewUnavailableError(provider ProviderID, err error) *ProviderError {
	return &ProviderError{
		Provider:  provider.String(),
		Message:   err.Error(),
		Retryable: true,
		Err:       fmt.Errorf("%w: %w", ErrModelUnavailable, err),
	}
}

// NewProtocolError reports a response that could not be understood.
func NewProtocolError(provider ProviderID, format string, args ...any) *ProviderError {
	return &ProviderError{
		Provider: provider.String(),
		Message:  fmt.Sprintf(format, args...),
		Err:      ErrModelProtocol,
	}
}

// ErrorFromStatus maps an HTTP error status from a backend to a ProviderError.
// Server-side failures and missing models count as unavailable; anything
// else the backend rejects is a protocol error.
func ErrorFromStatus(provider ProviderID, status int, message string) *ProviderError {
	pe := &ProviderError{
		Provider:   provider.String(),
		StatusCode: status,
		Message:    message,
	}

	// Every status maps to one of the two failure kinds the scheduler knows.
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		pe.Err = fmt.Errorf("%w: %w", ErrModelUnavailable, ErrInvalidAPIKey)
	case status == http.StatusTooManyRequests:
		pe.Err = fmt.Errorf("%w: %w", ErrModelUnavailable, ErrRateLimited)
		pe.Retryable = true
	case status == http.StatusNotFound:
		pe.Err = ErrModelUnavailable
	case status >= 500:
		pe.Err = ErrModelUnavailable
		pe.Retryable = status != http.StatusNotImplemented
	default:
		pe.Err = ErrModelProtocol
	}
	return pe
}

// IsRetryable checks if an error is potentially retryable.
// Returns true for rate limits, temporary unavailability and network errors.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.Retryable
	}

	return errors.Is(err, ErrRateLimited)
}

// IsInvalidConfig checks if an error was caused by a rejected configuration.
func IsInvalidConfig(err error) bool {
	return errors.Is(err, ErrInvalidConfig)
}

// IsModelUnavailable checks if the model backend was unreachable.
func IsModelUnavailable(err error) bool {
	return errors.Is(err, ErrModelUnavailable)
}

// IsProtocolError checks if the model backend returned something malformed.
func IsProtocolError(err error) bool {
	return errors.Is(err, ErrModelProtocol)
}

// IsAuthError checks if an error is related to authentication.
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrInvalidAPIKey) {
		return true
	}

	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		// HTTP 401/403 indicate auth issues
		return providerErr.StatusCode == 401 || providerErr.StatusCode == 403
	}

	return false
}
