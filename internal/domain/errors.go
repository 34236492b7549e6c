package domain

import (
	"errors"
	"fmt"
)

// RetriableError defines an interface for errors that can be retried
type RetriableError interface {
	error
	IsRetriable() bool
}

// IsRetriable checks if an error is retriable
func IsRetriable(err error) bool {
	var re RetriableError
	if errors.As(err, &re) {
		return re.IsRetriable()
	}
	return false
}

// NetworkError represents a transport-level failure talking to a provider
type NetworkError struct {
	Op        string // Operation that failed (e.g., "currents latest-news", "finnhub quote")
	Err       error  // Underlying error
	Retriable bool   // Whether this error is retriable
}

func (e *NetworkError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *NetworkError) IsRetriable() bool {
	return e.Retriable
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// NewNetworkError creates a new retriable network error
func NewNetworkError(op string, err error) *NetworkError {
	return &NetworkError{Op: op, Err: err, Retriable: true}
}

// NewFatalNetworkError creates a non-retriable network error
func NewFatalNetworkError(op string, err error) *NetworkError {
	return &NetworkError{Op: op, Err: err, Retriable: false}
}

// HTTPError is returned when a provider answers with status >= 400.
// The body may still have parsed; Message carries the provider text if any.
type HTTPError struct {
	Provider string
	Status   int
	Message  string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s API request failed (%d): %s", e.Provider, e.Status, e.Message)
	}
	return fmt.Sprintf("%s API request failed (%d)", e.Provider, e.Status)
}

// IsRetriable treats throttling and server-side failures as transient.
func (e *HTTPError) IsRetriable() bool {
	return e.Status == 429 || e.Status >= 500
}

// PayloadError is returned when a response parses but lacks the success
// marker or the expected array/fields.
type PayloadError struct {
	Provider string
	Message  string
}

func (e *PayloadError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("unexpected %s API response: %s", e.Provider, e.Message)
	}
	return fmt.Sprintf("unexpected %s API response", e.Provider)
}

func (e *PayloadError) IsRetriable() bool {
	return false
}

// ConfigError represents a configuration error (never retriable)
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return "config error [" + e.Field + "]: " + e.Err.Error()
}

func (e *ConfigError) IsRetriable() bool {
	return false
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

var (
	// ErrMissingCredential is returned by adapters when the API key is blank.
	ErrMissingCredential = errors.New("missing credential")

	// ErrInvalidSymbol is returned when a symbol has characters no ticker uses.
	ErrInvalidSymbol = errors.New("invalid symbol")

	// ErrConfigNotFound is returned when configuration file is missing
	ErrConfigNotFound = errors.New("configuration not found")

	// ErrAlreadyRunning is returned when another process holds the data lock.
	ErrAlreadyRunning = errors.New("another ticker instance is running")
)
