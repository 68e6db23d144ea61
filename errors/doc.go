// Package errors provides structured errors for the machine agent.
//
// Every failure carries an ErrorCode identifying what went wrong and a
// category describing whether a retry can help. The hosting process uses
// the distinction to decide between exiting (permanent registration
// failures, invalid configuration) and absorbing the failure into the
// heartbeat failure counter (transient network problems).
//
// Creating errors:
//
//	err := errors.Unauthorized("invalid token")
//	err := errors.NetworkErr("connection failed to http://gw:1994", errors.WithCause(cause))
//
// Inspecting errors:
//
//	if errors.Is(err, errors.ErrCodeUnauthorized) {
//		// do not retry with the same credentials
//	}
//	if ae := errors.AsAgentError(err); ae != nil && ae.Retryable() {
//		// try again next tick
//	}
//
// Wrap preserves the code, category and HTTP status of structured causes
// and maps context.DeadlineExceeded and context.Canceled to TIMEOUT and
// CANCELED respectively.
package errors
