package heartbeat

import (
	"context"
	"errors"
	"time"

	"github.com/vinayprograms/fleetagent/gateway"
	"github.com/vinayprograms/fleetagent/identity"
	"github.com/vinayprograms/fleetagent/logging"
	"github.com/vinayprograms/fleetagent/metrics"
)

// ErrInvalidConfig indicates invalid scheduler configuration.
var ErrInvalidConfig = errors.New("invalid configuration")

// FailureThreshold is the number of consecutive failed heartbeats after
// which the agent reports itself unhealthy.
const FailureThreshold = 3

// StopGrace is how long Stop waits for the loop goroutine to observe the
// stop signal before giving up on the join.
const StopGrace = 5 * time.Second

// DefaultInterval between heartbeats.
const DefaultInterval = 60 * time.Second

// Transport delivers one keepalive payload to the control plane.
// gateway.Client is the production implementation.
type Transport interface {
	Keepalive(ctx context.Context, payload gateway.KeepalivePayload) error
}

// Config configures a Scheduler.
type Config struct {
	// Identity of the machine the heartbeats describe.
	Identity identity.Identity

	// Transport delivers the heartbeats.
	Transport Transport

	// Provider supplies the per-tick resource snapshot.
	Provider metrics.Provider

	// AgentVersion is reported in every heartbeat payload.
	AgentVersion string

	// Interval between heartbeats. Default: 60 seconds.
	Interval time.Duration

	// Logger for loop events. Nil means a default logger.
	Logger *logging.Logger
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Transport == nil {
		return ErrInvalidConfig
	}
	if c.Provider == nil {
		return ErrInvalidConfig
	}
	if c.Identity.MachineID == "" {
		return ErrInvalidConfig
	}
	return nil
}
