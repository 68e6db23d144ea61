package errors

import (
	"fmt"
	"time"
)

// AgentError is the interface for all structured errors in fleetagent.
// It extends the standard error interface with the context the hosting
// process needs for its retry and exit decisions.
type AgentError interface {
	error

	// Code returns the specific error code identifying the failure type.
	Code() ErrorCode

	// Category returns the error category for retry/handling decisions.
	Category() ErrorCategory

	// Retryable returns true if the operation may succeed on retry.
	Retryable() bool

	// StatusCode returns the HTTP status that produced this error, or 0
	// when no response was received.
	StatusCode() int

	// Unwrap returns the underlying error, if any.
	Unwrap() error
}

// Error is the concrete implementation of AgentError.
type Error struct {
	code       ErrorCode
	category   ErrorCategory
	message    string
	cause      error
	statusCode int
	endpoint   string
	retryable  *bool // nil means use default based on category
	timestamp  time.Time
}

var _ AgentError = (*Error)(nil)

// Error returns the error message.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Code returns the error code.
func (e *Error) Code() ErrorCode {
	return e.code
}

// Category returns the error category.
func (e *Error) Category() ErrorCategory {
	return e.category
}

// Retryable returns whether this error is retryable.
func (e *Error) Retryable() bool {
	if e.retryable != nil {
		return *e.retryable
	}
	return e.category.IsRetryable()
}

// StatusCode returns the HTTP status behind the error, or 0.
func (e *Error) StatusCode() int {
	return e.statusCode
}

// Endpoint returns the target URL the failing call was aimed at, if set.
func (e *Error) Endpoint() string {
	return e.endpoint
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.cause
}

// Timestamp returns when the error occurred.
func (e *Error) Timestamp() time.Time {
	return e.timestamp
}

// Option is a functional option for configuring an Error.
type Option func(*Error)

// WithCategory overrides the default category.
func WithCategory(cat ErrorCategory) Option {
	return func(e *Error) {
		e.category = cat
	}
}

// WithRetryable explicitly sets whether the error is retryable.
func WithRetryable(retryable bool) Option {
	return func(e *Error) {
		e.retryable = &retryable
	}
}

// WithStatusCode records the HTTP status that produced the error.
func WithStatusCode(status int) Option {
	return func(e *Error) {
		e.statusCode = status
	}
}

// WithEndpoint records the target URL of the failing call.
func WithEndpoint(url string) Option {
	return func(e *Error) {
		e.endpoint = url
	}
}

// WithCause sets the underlying cause.
func WithCause(cause error) Option {
	return func(e *Error) {
		e.cause = cause
	}
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string, opts ...Option) *Error {
	e := &Error{
		code:      code,
		category:  code.DefaultCategory(),
		message:   message,
		timestamp: time.Now(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Newf creates a new Error with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Timeout creates a timeout error.
func Timeout(message string, opts ...Option) *Error {
	return New(ErrCodeTimeout, message, opts...)
}

// NetworkErr creates a network connectivity error.
func NetworkErr(message string, opts ...Option) *Error {
	return New(ErrCodeNetworkErr, message, opts...)
}

// UnexpectedStatus creates an error for an unhandled gateway status.
func UnexpectedStatus(status int, body string, opts ...Option) *Error {
	opts = append([]Option{WithStatusCode(status)}, opts...)
	return New(ErrCodeUnexpectedStatus, fmt.Sprintf("unexpected status %d: %s", status, body), opts...)
}

// Unauthorized creates an authentication error.
func Unauthorized(message string, opts ...Option) *Error {
	opts = append([]Option{WithStatusCode(403)}, opts...)
	return New(ErrCodeUnauthorized, message, opts...)
}

// InvalidRequest creates a malformed-request error.
func InvalidRequest(message string, opts ...Option) *Error {
	opts = append([]Option{WithStatusCode(400)}, opts...)
	return New(ErrCodeInvalidRequest, message, opts...)
}

// InvalidConfig creates a configuration validation error.
func InvalidConfig(message string, opts ...Option) *Error {
	return New(ErrCodeInvalidConfig, message, opts...)
}

// Internal creates an internal error.
func Internal(message string, opts ...Option) *Error {
	return New(ErrCodeInternal, message, opts...)
}
