// Package identity holds the registration facts for a single machine.
// An Identity is built once at startup and never mutated afterwards, so it
// can be shared freely between the heartbeat goroutine and any readers.
package identity

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/google/uuid"
)

// Default connection values.
const (
	DefaultGatewayHost   = "localhost"
	DefaultGatewayPort   = 1994
	DefaultGatewayScheme = "http"
	DefaultPoolName      = "external"
	DefaultProviderName  = "generic"
)

// machineIDPattern matches the 8 lowercase hex characters a machine id
// must consist of.
var machineIDPattern = regexp.MustCompile(`^[a-f0-9]{8}$`)

// ErrInvalid indicates an identity failed validation.
var ErrInvalid = errors.New("invalid identity")

// FieldError reports which identity field failed validation and why.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("identity field %s: %s", e.Field, e.Message)
}

func (e *FieldError) Unwrap() error {
	return ErrInvalid
}

// Identity describes one machine's registration with the control plane.
type Identity struct {
	// Token authenticates both the registration and keepalive calls.
	Token string

	// MachineID is the unique machine identifier: exactly 8 lowercase
	// hex characters.
	MachineID string

	// PoolName is the worker pool this machine joins.
	PoolName string

	// ProviderName identifies the infrastructure provider.
	ProviderName string

	// Gateway is the control-plane endpoint.
	Gateway Endpoint
}

// Hostname derives the hostname reported during registration.
func (id Identity) Hostname() string {
	return "machine-" + id.MachineID
}

// Validate checks all identity fields. It returns a *FieldError naming the
// first offending field, or nil when the identity is usable.
func (id Identity) Validate() error {
	if id.Token == "" {
		return &FieldError{Field: "token", Message: "is required"}
	}
	if id.MachineID == "" {
		return &FieldError{Field: "machine_id", Message: "is required"}
	}
	if !machineIDPattern.MatchString(id.MachineID) {
		return &FieldError{
			Field:   "machine_id",
			Message: fmt.Sprintf("must be exactly 8 lowercase hex chars, got %q", id.MachineID),
		}
	}
	if id.PoolName == "" {
		return &FieldError{Field: "pool_name", Message: "is required"}
	}
	return id.Gateway.Validate()
}

// NewMachineID generates a fresh machine id: the first 8 hex characters of
// a random UUID. Generation happens once at startup; the id never changes
// for the life of the process.
func NewMachineID() string {
	u := uuid.New()
	return fmt.Sprintf("%x", u[:4])
}
