// Package agent ties the machine lifecycle together: it registers the
// machine with the gateway, runs the keepalive scheduler, watches the
// consecutive-failure monitor, and coordinates shutdown.
//
// The lifecycle is strictly ordered. Registration happens exactly once
// and any failure there is fatal; only after a successful handshake does
// the heartbeat loop start. Individual heartbeat failures are absorbed
// into the failure counter and retried on the next tick; only when the
// counter reaches the threshold does the agent stop itself and report
// the machine unhealthy.
package agent
