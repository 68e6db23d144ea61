package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	stderrors "errors"

	"github.com/vinayprograms/fleetagent/errors"
	"github.com/vinayprograms/fleetagent/identity"
	"github.com/vinayprograms/fleetagent/logging"
	"github.com/vinayprograms/fleetagent/metrics"
)

// KeepaliveTimeout bounds every keepalive POST. A stalled call delays the
// next tick but cannot block the process.
const KeepaliveTimeout = 10 * time.Second

// Config configures a gateway client.
type Config struct {
	// Identity is the machine identity; must already be validated.
	Identity identity.Identity

	// Hostname overrides the derived "machine-<id>" hostname in the
	// registration payload.
	Hostname string

	// BootstrapToken is the cluster join token placed in the
	// registration payload. Empty means fall back to the documented
	// placeholder, with a warning.
	BootstrapToken string

	// RegistrationTimeout bounds the registration POST.
	// Default: 30 seconds.
	RegistrationTimeout time.Duration

	// DryRun short-circuits all network calls to success.
	DryRun bool

	// Logger for call outcomes. Nil means a default logger.
	Logger *logging.Logger
}

// Client talks to the control-plane machine API. It is safe for
// concurrent use; all mutable state lives in the caller.
type Client struct {
	id             identity.Identity
	hostname       string
	bootstrapToken string
	dryRun         bool
	log            *logging.Logger

	registerClient  *http.Client
	keepaliveClient *http.Client
}

// NewClient creates a gateway client.
func NewClient(cfg Config) *Client {
	timeout := cfg.RegistrationTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	log := cfg.Logger
	if log == nil {
		log = logging.New()
	}

	hostname := cfg.Hostname
	if hostname == "" {
		hostname = cfg.Identity.Hostname()
	}

	return &Client{
		id:              cfg.Identity,
		hostname:        hostname,
		bootstrapToken:  cfg.BootstrapToken,
		dryRun:          cfg.DryRun,
		log:             log.WithComponent("gateway"),
		registerClient:  &http.Client{Timeout: timeout},
		keepaliveClient: &http.Client{Timeout: KeepaliveTimeout},
	}
}

// Register performs the one-shot registration handshake. It is a single
// attempt: the caller decides whether any failure is fatal. The snapshot
// supplies the machine capacity advertised in the payload.
func (c *Client) Register(ctx context.Context, snap metrics.Snapshot) RegistrationResult {
	payload := RegistrationPayload{
		Token:        c.bootstrapTokenOrPlaceholder(),
		MachineID:    c.id.MachineID,
		Hostname:     c.hostname,
		ProviderName: c.id.ProviderName,
		PoolName:     c.id.PoolName,
		CPU:          snap.CPUString(),
		Memory:       snap.MemoryString(),
		GPUCount:     snap.GPUCountString(),
		PrivateIP:    metrics.PrivateIPv4(),
	}

	c.log.RegistrationAttempt(c.id.MachineID, c.id.Gateway.URL(), c.id.PoolName)

	if c.dryRun {
		c.log.Info("dry run - skipping registration")
		return RegistrationResult{Success: true, Config: map[string]interface{}{"dry_run": true}}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return RegistrationResult{Err: errors.Wrap(err, "cannot marshal registration payload")}
	}

	resp, err := c.post(ctx, c.registerClient, c.id.Gateway.RegisterURL(), body)
	if err != nil {
		return RegistrationResult{Err: c.transportError(err, c.id.Gateway.RegisterURL())}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	switch resp.StatusCode {
	case http.StatusOK:
		var parsed RegistrationResponse
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			c.log.Debug("cannot parse registration response", map[string]interface{}{
				"error": err.Error(),
			})
		}
		c.log.RegistrationComplete(c.id.MachineID)
		return RegistrationResult{Success: true, Config: parsed.Config}

	case http.StatusForbidden:
		return RegistrationResult{Err: errors.Unauthorized(
			"invalid token - request a fresh machine token from the control plane")}

	case http.StatusBadRequest:
		return RegistrationResult{Err: errors.InvalidRequest(
			fmt.Sprintf("bad request: %s", string(respBody)))}

	default:
		return RegistrationResult{Err: errors.UnexpectedStatus(resp.StatusCode, string(respBody),
			errors.WithEndpoint(c.id.Gateway.RegisterURL()))}
	}
}

// Keepalive posts one heartbeat payload. Any non-200 status or transport
// failure is returned as an error; the caller folds it into its failure
// counter.
func (c *Client) Keepalive(ctx context.Context, payload KeepalivePayload) error {
	if c.dryRun {
		c.log.Debug("dry run - skipping keepalive")
		return nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "cannot marshal keepalive payload")
	}

	resp, err := c.post(ctx, c.keepaliveClient, c.id.Gateway.KeepaliveURL(), body)
	if err != nil {
		return c.transportError(err, c.id.Gateway.KeepaliveURL())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return errors.UnexpectedStatus(resp.StatusCode, string(respBody),
			errors.WithEndpoint(c.id.Gateway.KeepaliveURL()))
	}

	c.log.Debug("keepalive ok", map[string]interface{}{"machine_id": payload.MachineID})
	return nil
}

// post issues one bearer-authenticated JSON POST.
func (c *Client) post(ctx context.Context, client *http.Client, url string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.id.Token)
	req.Header.Set("Content-Type", "application/json")
	return client.Do(req)
}

// transportError distinguishes a timed-out call from a failed connection.
func (c *Client) transportError(err error, url string) *errors.Error {
	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return errors.Timeout(
			fmt.Sprintf("timeout connecting to %s", c.id.Gateway.URL()),
			errors.WithCause(err), errors.WithEndpoint(url))
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.Timeout(
			fmt.Sprintf("timeout connecting to %s", c.id.Gateway.URL()),
			errors.WithCause(err), errors.WithEndpoint(url))
	}
	return errors.NetworkErr(
		fmt.Sprintf("connection failed to %s", c.id.Gateway.URL()),
		errors.WithCause(err), errors.WithEndpoint(url))
}

// bootstrapTokenOrPlaceholder returns the configured bootstrap token, or
// the documented placeholder with a warning that worker scheduling will
// stay disabled until a real token is configured.
func (c *Client) bootstrapTokenOrPlaceholder() string {
	if c.bootstrapToken != "" {
		return c.bootstrapToken
	}
	c.log.Warn("no bootstrap token configured - gateway cannot schedule workers onto this machine",
		map[string]interface{}{"token": placeholderBootstrapToken})
	return placeholderBootstrapToken
}

// placeholderBootstrapToken is sent when no bootstrap token is configured.
// Deployments must supply a real token before the machine can accept work.
const placeholderBootstrapToken = "bootstrap-token-unset"
