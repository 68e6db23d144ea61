package heartbeat

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/vinayprograms/fleetagent/gateway"
	"github.com/vinayprograms/fleetagent/identity"
	"github.com/vinayprograms/fleetagent/logging"
	"github.com/vinayprograms/fleetagent/metrics"
)

// Scheduler runs the periodic keepalive loop. Exactly one goroutine
// exists per running scheduler; it is the sole writer of the failure
// counter.
type Scheduler struct {
	id           identity.Identity
	transport    Transport
	provider     metrics.Provider
	agentVersion string
	interval     time.Duration
	log          *logging.Logger

	failures atomic.Int32
	running  atomic.Bool
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewScheduler creates a keepalive scheduler.
func NewScheduler(cfg Config) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	log := cfg.Logger
	if log == nil {
		log = logging.New()
	}

	return &Scheduler{
		id:           cfg.Identity,
		transport:    cfg.Transport,
		provider:     cfg.Provider,
		agentVersion: cfg.AgentVersion,
		interval:     interval,
		log:          log.WithComponent("keepalive"),
	}, nil
}

// Start launches the background loop. The first heartbeat goes out
// immediately, before the first interval elapses. Calling Start while the
// scheduler is already running logs a warning and does nothing; a second
// loop is never spawned.
func (s *Scheduler) Start(ctx context.Context) {
	if s.running.Swap(true) {
		s.log.Warn("keepalive loop already running")
		return
	}

	if ctx == nil {
		ctx = context.Background()
	}

	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})

	s.log.SchedulerEvent("started", s.interval)
	go s.run(ctx)
}

// run is the keepalive loop body.
func (s *Scheduler) run(ctx context.Context) {
	defer close(s.doneCh)

	// First heartbeat before any waiting.
	s.SendHeartbeat(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.running.Store(false)
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.SendHeartbeat(ctx)
		}
	}
}

// SendHeartbeat delivers one heartbeat and updates the failure counter.
// A metrics problem never surfaces here: the provider degrades to its
// default snapshot, and the heartbeat still goes out.
func (s *Scheduler) SendHeartbeat(ctx context.Context) bool {
	snap := s.provider.Snapshot()

	payload := gateway.KeepalivePayload{
		MachineID:    s.id.MachineID,
		ProviderName: s.id.ProviderName,
		PoolName:     s.id.PoolName,
		AgentVersion: s.agentVersion,
		Metrics:      snap,
	}

	s.log.Debug("sending heartbeat", map[string]interface{}{
		"cpu_pct": snap.CPUUtilizationPct,
		"mem_pct": snap.MemoryUtilizationPct,
	})

	if err := s.transport.Keepalive(ctx, payload); err != nil {
		failures := s.failures.Add(1)
		s.log.HeartbeatFailure(int(failures), FailureThreshold, err)
		return false
	}

	s.failures.Store(0)
	return true
}

// Stop signals the loop to exit and waits up to StopGrace for it to
// observe the signal. Idempotent; safe to call from any goroutine. A
// heartbeat already in flight may complete after Stop returns.
func (s *Scheduler) Stop() {
	if !s.running.Swap(false) {
		return
	}

	close(s.stopCh)
	select {
	case <-s.doneCh:
		s.log.SchedulerEvent("stopped", s.interval)
	case <-time.After(StopGrace):
		s.log.Warn("keepalive loop did not stop within grace period")
	}
}

// Running reports whether the loop is active.
func (s *Scheduler) Running() bool {
	return s.running.Load()
}

// ConsecutiveFailures returns the current count of back-to-back failed
// heartbeats. Safe to call concurrently with the loop.
func (s *Scheduler) ConsecutiveFailures() int {
	return int(s.failures.Load())
}
