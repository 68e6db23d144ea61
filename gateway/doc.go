// Package gateway implements the HTTP client for the control-plane
// machine API: the one-shot registration handshake and the periodic
// keepalive POST. Both calls are bearer-authenticated JSON with bounded
// per-call timeouts; neither retries internally. Dry-run mode
// short-circuits both calls before any network activity.
package gateway
