package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/vinayprograms/fleetagent/config"
	"github.com/vinayprograms/fleetagent/errors"
	"github.com/vinayprograms/fleetagent/gateway"
	"github.com/vinayprograms/fleetagent/heartbeat"
	"github.com/vinayprograms/fleetagent/identity"
	"github.com/vinayprograms/fleetagent/logging"
	"github.com/vinayprograms/fleetagent/metrics"
	"github.com/vinayprograms/fleetagent/shutdown"
)

// Version is reported to the gateway in every keepalive payload.
const Version = "0.2.0"

// Options carries the injectable collaborators. Zero values select the
// production defaults.
type Options struct {
	// Provider supplies resource snapshots. Nil means live system
	// metrics.
	Provider metrics.Provider

	// Logger is the root logger. Nil means a new default logger.
	Logger *logging.Logger

	// HandleSignals controls whether Run installs SIGTERM/SIGINT
	// handlers. Disabled in tests.
	HandleSignals bool
}

// Agent is the top-level machine lifecycle. Create one with New, then
// Run it; Run blocks until the context is canceled or a signal arrives.
type Agent struct {
	cfg      config.Config
	id       identity.Identity
	log      *logging.Logger
	provider metrics.Provider
	client   *gateway.Client

	scheduler *heartbeat.Scheduler
	monitor   *heartbeat.Monitor
	coord     *shutdown.Coordinator

	handleSignals bool

	// gatewayConfig holds the config map the gateway returned during
	// registration, verbatim.
	gatewayConfig map[string]interface{}
}

// New validates cfg and wires up an agent with production defaults.
func New(cfg config.Config) (*Agent, error) {
	return NewWithOptions(cfg, Options{
		HandleSignals: true,
	})
}

// NewWithOptions validates cfg and wires up an agent with the given
// collaborators.
func NewWithOptions(cfg config.Config, opts Options) (*Agent, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := opts.Logger
	if log == nil {
		log = logging.New()
	}
	if cfg.Debug {
		log.SetLevel(logging.LevelDebug)
	}

	provider := opts.Provider
	if provider == nil {
		provider = metrics.NewSystemProvider()
	}

	id := cfg.Identity()

	client := gateway.NewClient(gateway.Config{
		Identity:            id,
		Hostname:            cfg.Hostname,
		BootstrapToken:      cfg.BootstrapToken,
		RegistrationTimeout: cfg.RegistrationTimeout,
		DryRun:              cfg.DryRun,
		Logger:              log,
	})

	scheduler, err := heartbeat.NewScheduler(heartbeat.Config{
		Identity:     id,
		Transport:    client,
		Provider:     provider,
		AgentVersion: Version,
		Interval:     cfg.KeepaliveInterval,
		Logger:       log,
	})
	if err != nil {
		return nil, errors.Wrap(err, "building heartbeat scheduler")
	}

	return &Agent{
		cfg:           cfg,
		id:            id,
		log:           log.WithComponent("agent"),
		provider:      provider,
		client:        client,
		scheduler:     scheduler,
		monitor:       heartbeat.NewMonitor(scheduler),
		coord:         shutdown.NewCoordinator(shutdown.Config{}),
		handleSignals: opts.HandleSignals,
	}, nil
}

// Run executes the machine lifecycle: register, then heartbeat until
// the context is canceled or a termination signal arrives. Registration
// failure is fatal and returned as-is; after that Run only returns once
// shutdown completes.
func (a *Agent) Run(ctx context.Context) error {
	a.log.Info("agent starting", map[string]interface{}{
		"version":    Version,
		"machine_id": a.id.MachineID,
		"pool":       a.id.PoolName,
		"provider":   a.id.ProviderName,
		"gateway":    a.id.Gateway.URL(),
		"dry_run":    a.cfg.DryRun,
	})

	if err := a.register(ctx); err != nil {
		return err
	}

	if a.cfg.Once {
		return a.runOnce(ctx)
	}

	a.coord.RegisterFunc("heartbeat scheduler", func(ctx context.Context) error {
		a.scheduler.Stop()
		return nil
	})
	if a.handleSignals {
		a.coord.HandleSignals()
	}

	a.scheduler.Start(ctx)
	unhealthy := a.watch(ctx)

	if err := a.coord.ShutdownWithTimeout(shutdownTimeout); err != nil {
		a.log.Warn("shutdown incomplete", map[string]interface{}{"error": err.Error()})
		return err
	}
	if unhealthy {
		return errors.Internal(fmt.Sprintf(
			"machine unhealthy: %d consecutive keepalive failures", a.scheduler.ConsecutiveFailures()))
	}
	a.log.Info("agent stopped")
	return nil
}

// shutdownTimeout bounds how long Run waits for handlers on exit.
const shutdownTimeout = 10 * time.Second

// register performs the one-shot handshake. Any failure is fatal.
func (a *Agent) register(ctx context.Context) error {
	a.log.RegistrationAttempt(a.id.MachineID, a.id.Gateway.URL(), a.id.PoolName)

	result := a.client.Register(ctx, a.provider.Snapshot())
	if !result.Success {
		return errors.Wrap(result.Err, "machine registration failed")
	}

	a.gatewayConfig = result.Config
	a.log.RegistrationComplete(a.id.MachineID)
	return nil
}

// runOnce sends a single keepalive after registration and exits. Used
// for smoke-testing connectivity.
func (a *Agent) runOnce(ctx context.Context) error {
	if ok := a.scheduler.SendHeartbeat(ctx); !ok {
		return errors.Internal("single keepalive failed")
	}
	a.log.Info("single keepalive sent, exiting")
	return nil
}

// watch polls the health monitor until the context is canceled,
// shutdown is triggered, or the failure threshold is crossed. Returns
// true when the exit cause was the machine going unhealthy.
func (a *Agent) watch(ctx context.Context) bool {
	interval := a.cfg.HealthInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-a.coord.Done():
			return false
		case <-ticker.C:
			if !a.monitor.IsHealthy() {
				a.log.Warn("machine unhealthy, stopping", map[string]interface{}{
					"failures":  a.scheduler.ConsecutiveFailures(),
					"threshold": a.monitor.Threshold(),
				})
				return true
			}
		}
	}
}

// Healthy reports whether consecutive heartbeat failures are below the
// threshold.
func (a *Agent) Healthy() bool {
	return a.monitor.IsHealthy()
}

// ConsecutiveFailures returns the current failure streak.
func (a *Agent) ConsecutiveFailures() int {
	return a.scheduler.ConsecutiveFailures()
}

// GatewayConfig returns the config map received during registration,
// verbatim. Nil before a successful registration.
func (a *Agent) GatewayConfig() map[string]interface{} {
	return a.gatewayConfig
}

// Stop triggers shutdown. Safe to call from any goroutine; Run returns
// once handlers finish.
func (a *Agent) Stop() {
	a.coord.Trigger()
}
