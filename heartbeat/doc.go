// Package heartbeat owns the agent's keepalive loop: a single background
// goroutine that reports resource metrics to the gateway on a fixed
// interval and tracks consecutive delivery failures.
//
// The Scheduler sends one heartbeat immediately on Start so the gateway
// sees freshness right after registration, then ticks on the configured
// interval. Every failed delivery (non-200, transport error, timeout)
// increments the failure counter by one; any success resets it to zero.
// The counter is atomic: the loop goroutine is its only writer while the
// Monitor and the hosting supervisory loop read it concurrently.
//
// The Monitor is a pure read-view: the agent is healthy while the counter
// is below the fixed threshold of three consecutive failures. Crossing
// the threshold is the signal for the hosting process to stop the
// scheduler and exit so a supervisor can restart it.
//
// Stop is cooperative. It signals the loop and waits up to a short grace
// period; a heartbeat already in flight may still complete after Stop
// returns.
package heartbeat
