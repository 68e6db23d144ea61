// Package shutdown coordinates graceful teardown of the agent's
// components.
//
// The hosting process registers one handler per component (keepalive
// scheduler, inference client) and wires SIGTERM/SIGINT to a
// bounded-timeout shutdown:
//
//	coord := shutdown.NewCoordinator(shutdown.DefaultConfig())
//	coord.RegisterFunc("keepalive", func(ctx context.Context) error {
//		scheduler.Stop()
//		return nil
//	})
//	coord.HandleSignals()
//
// Handlers run exactly once, in registration order; a failing handler is
// recorded but does not stop later handlers from releasing their
// resources.
package shutdown
