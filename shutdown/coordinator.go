package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// registration pairs a handler with its name.
type registration struct {
	name    string
	handler Handler
}

// Coordinator runs registered shutdown handlers exactly once, in
// registration order. The scheduler stops before anything that its last
// heartbeat might still need, so register in dependency order.
type Coordinator struct {
	config Config

	mu          sync.Mutex
	handlers    []registration
	results     []HandlerResult
	once        sync.Once
	shutdownErr error
	done        chan struct{}
	signalChan  chan os.Signal
}

// NewCoordinator creates a new shutdown coordinator.
func NewCoordinator(config Config) *Coordinator {
	if config.DefaultTimeout == 0 {
		config.DefaultTimeout = DefaultConfig().DefaultTimeout
	}
	return &Coordinator{
		config:     config,
		done:       make(chan struct{}),
		signalChan: make(chan os.Signal, 1),
	}
}

// Register adds a handler to be called during shutdown. Handlers run in
// registration order.
func (c *Coordinator) Register(name string, handler Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, registration{name: name, handler: handler})
}

// RegisterFunc registers a plain function as a handler.
func (c *Coordinator) RegisterFunc(name string, fn func(ctx context.Context) error) {
	c.Register(name, HandlerFunc(fn))
}

// Shutdown runs all handlers once. Later calls return the first
// shutdown's error.
func (c *Coordinator) Shutdown(ctx context.Context) error {
	c.once.Do(func() {
		c.shutdownErr = c.runHandlers(ctx)
		close(c.done)
	})
	<-c.done
	return c.shutdownErr
}

// ShutdownWithTimeout initiates shutdown bounded by the given timeout.
func (c *Coordinator) ShutdownWithTimeout(timeout time.Duration) error {
	if timeout == 0 {
		timeout = c.config.DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return c.Shutdown(ctx)
}

// HandleSignals arranges for SIGTERM and SIGINT to trigger shutdown with
// the default timeout.
func (c *Coordinator) HandleSignals() {
	signal.Notify(c.signalChan, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		<-c.signalChan
		_ = c.ShutdownWithTimeout(c.config.DefaultTimeout)
	}()
}

// Trigger initiates shutdown programmatically, as if SIGTERM arrived.
// It returns without waiting; use Done to observe completion.
func (c *Coordinator) Trigger() {
	go func() {
		_ = c.ShutdownWithTimeout(c.config.DefaultTimeout)
	}()
}

// Done returns a channel that is closed when shutdown is complete.
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

// Err returns any error that occurred during shutdown. Only meaningful
// after Done is closed.
func (c *Coordinator) Err() error {
	select {
	case <-c.done:
		return c.shutdownErr
	default:
		return nil
	}
}

// Results returns per-handler outcomes. Only meaningful after Done is
// closed.
func (c *Coordinator) Results() []HandlerResult {
	select {
	case <-c.done:
		c.mu.Lock()
		defer c.mu.Unlock()
		out := make([]HandlerResult, len(c.results))
		copy(out, c.results)
		return out
	default:
		return nil
	}
}

// runHandlers executes the handlers in order, continuing past failures so
// every component gets its chance to release resources.
func (c *Coordinator) runHandlers(ctx context.Context) error {
	c.mu.Lock()
	handlers := make([]registration, len(c.handlers))
	copy(handlers, c.handlers)
	c.mu.Unlock()

	var overallErr error
	for _, reg := range handlers {
		select {
		case <-ctx.Done():
			c.appendResult(HandlerResult{Name: reg.name, Err: ErrTimeout})
			return ErrTimeout
		default:
		}

		start := time.Now()
		err := reg.handler.OnShutdown(ctx)
		hr := HandlerResult{Name: reg.name, Duration: time.Since(start), Err: err}
		c.appendResult(hr)

		if c.config.OnProgress != nil {
			c.config.OnProgress(hr)
		}
		if err != nil && overallErr == nil {
			overallErr = ErrHandlerFailed
		}
	}
	return overallErr
}

func (c *Coordinator) appendResult(hr HandlerResult) {
	c.mu.Lock()
	c.results = append(c.results, hr)
	c.mu.Unlock()
}
