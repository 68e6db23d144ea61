package heartbeat

// FailureReader exposes the consecutive-failure count of a heartbeat
// loop. Implemented by *Scheduler.
type FailureReader interface {
	ConsecutiveFailures() int
}

// Monitor is a side-effect-free health view over a scheduler's failure
// counter. It exists so the hosting supervisory loop never reaches into
// scheduler internals.
type Monitor struct {
	reader    FailureReader
	threshold int
}

// NewMonitor creates a health monitor over the given failure reader.
func NewMonitor(reader FailureReader) *Monitor {
	return &Monitor{reader: reader, threshold: FailureThreshold}
}

// IsHealthy reports whether the consecutive-failure count is still below
// the threshold. A single successful heartbeat restores health.
func (m *Monitor) IsHealthy() bool {
	return m.reader.ConsecutiveFailures() < m.threshold
}

// Threshold returns the consecutive-failure threshold.
func (m *Monitor) Threshold() int {
	return m.threshold
}
