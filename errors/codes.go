package errors

// ErrorCategory classifies errors by their retry semantics.
type ErrorCategory string

const (
	// CategoryTransient indicates failures where a later attempt may
	// succeed. Examples: connection refused, request timeout, a 5xx from
	// the gateway.
	CategoryTransient ErrorCategory = "transient"

	// CategoryPermanent indicates failures where retrying with the same
	// inputs cannot help. Examples: rejected token, malformed payload,
	// invalid configuration.
	CategoryPermanent ErrorCategory = "permanent"

	// CategoryInternal indicates bugs or unexpected local failures.
	CategoryInternal ErrorCategory = "internal"
)

// String returns the string representation of the category.
func (c ErrorCategory) String() string {
	return string(c)
}

// IsRetryable returns true if errors in this category may succeed on retry.
func (c ErrorCategory) IsRetryable() bool {
	return c == CategoryTransient
}

// ErrorCode identifies specific failure types within categories.
type ErrorCode string

// Error codes for the agent's failure scenarios.
const (
	// Transient errors
	ErrCodeTimeout          ErrorCode = "TIMEOUT"           // Call exceeded its deadline
	ErrCodeNetworkErr       ErrorCode = "NETWORK_ERR"       // Could not reach the gateway
	ErrCodeUnexpectedStatus ErrorCode = "UNEXPECTED_STATUS" // Gateway returned an unhandled status

	// Permanent errors
	ErrCodeInvalidConfig  ErrorCode = "INVALID_CONFIG"  // Configuration failed validation
	ErrCodeUnauthorized   ErrorCode = "UNAUTHORIZED"    // Gateway rejected the token
	ErrCodeInvalidRequest ErrorCode = "INVALID_REQUEST" // Gateway rejected the payload
	ErrCodeCanceled       ErrorCode = "CANCELED"        // Operation was canceled

	// Internal errors
	ErrCodeInternal ErrorCode = "INTERNAL" // Unexpected local error
)

// String returns the string representation of the error code.
func (c ErrorCode) String() string {
	return string(c)
}

// DefaultCategory returns the category an error code belongs to.
func (c ErrorCode) DefaultCategory() ErrorCategory {
	switch c {
	case ErrCodeTimeout, ErrCodeNetworkErr, ErrCodeUnexpectedStatus:
		return CategoryTransient
	case ErrCodeInvalidConfig, ErrCodeUnauthorized, ErrCodeInvalidRequest, ErrCodeCanceled:
		return CategoryPermanent
	default:
		return CategoryInternal
	}
}

// DefaultRetryable returns whether this error code is typically retryable.
func (c ErrorCode) DefaultRetryable() bool {
	return c.DefaultCategory().IsRetryable()
}

// codeDescriptions provides human-readable descriptions for error codes.
var codeDescriptions = map[ErrorCode]string{
	ErrCodeTimeout:          "operation timed out",
	ErrCodeNetworkErr:       "network connectivity error",
	ErrCodeUnexpectedStatus: "unexpected gateway status",
	ErrCodeInvalidConfig:    "invalid configuration",
	ErrCodeUnauthorized:     "authentication failed",
	ErrCodeInvalidRequest:   "gateway rejected the request",
	ErrCodeCanceled:         "operation canceled",
	ErrCodeInternal:         "internal error",
}

// Description returns a human-readable description for the error code.
func (c ErrorCode) Description() string {
	if desc, ok := codeDescriptions[c]; ok {
		return desc
	}
	return "unknown error"
}
