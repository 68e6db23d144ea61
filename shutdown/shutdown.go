package shutdown

import (
	"context"
	"errors"
	"time"
)

// Common errors.
var (
	// ErrAlreadyShutdown indicates shutdown was already initiated.
	ErrAlreadyShutdown = errors.New("shutdown already initiated")

	// ErrTimeout indicates shutdown did not complete within the timeout.
	ErrTimeout = errors.New("shutdown timeout exceeded")

	// ErrHandlerFailed indicates one or more handlers failed.
	ErrHandlerFailed = errors.New("one or more handlers failed")
)

// Handler is implemented by components that need graceful shutdown.
type Handler interface {
	// OnShutdown is called when shutdown is initiated. The context is
	// cancelled when the shutdown timeout is reached. Implementations
	// should stop accepting work and release resources.
	OnShutdown(ctx context.Context) error
}

// HandlerFunc is a convenience type for simple shutdown functions.
type HandlerFunc func(ctx context.Context) error

// OnShutdown implements Handler.
func (f HandlerFunc) OnShutdown(ctx context.Context) error {
	return f(ctx)
}

// HandlerResult records the outcome of a single handler's shutdown.
type HandlerResult struct {
	// Name of the handler.
	Name string

	// Duration how long the handler took.
	Duration time.Duration

	// Err is any error returned by the handler.
	Err error
}

// Config configures the shutdown coordinator.
type Config struct {
	// DefaultTimeout bounds a signal-triggered shutdown.
	// Default: 30 seconds.
	DefaultTimeout time.Duration

	// OnProgress is called as each handler completes. Can be used for
	// logging.
	OnProgress func(result HandlerResult)
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DefaultTimeout: 30 * time.Second,
	}
}
