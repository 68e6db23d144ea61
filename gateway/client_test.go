package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vinayprograms/fleetagent/errors"
	"github.com/vinayprograms/fleetagent/identity"
	"github.com/vinayprograms/fleetagent/logging"
	"github.com/vinayprograms/fleetagent/metrics"
)

func testIdentity(t *testing.T, serverURL string) identity.Identity {
	t.Helper()
	u, err := url.Parse(serverURL)
	if err != nil {
		t.Fatal(err)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		t.Fatal(err)
	}
	return identity.Identity{
		Token:        "tok",
		MachineID:    "543b6042",
		PoolName:     "external",
		ProviderName: "generic",
		Gateway:      identity.Endpoint{Scheme: "http", Host: u.Hostname(), Port: port},
	}
}

func quietLogger() *logging.Logger {
	log := logging.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestClient(t *testing.T, serverURL string, mutate func(*Config)) *Client {
	t.Helper()
	cfg := Config{
		Identity: testIdentity(t, serverURL),
		Logger:   quietLogger(),
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return NewClient(cfg)
}

func TestRegister_Success(t *testing.T) {
	var gotPayload RegistrationPayload
	var gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/machine/register" {
			t.Errorf("path = %q", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"config":{"foo":"bar"}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, func(cfg *Config) {
		cfg.BootstrapToken = "join-token"
	})

	snap := metrics.Snapshot{
		TotalCPUAvailable:    8000,
		TotalMemoryAvailable: 16 * 1024 * 1024 * 1024,
		FreeGPUCount:         1,
	}
	result := client.Register(context.Background(), snap)

	if !result.Success {
		t.Fatalf("Register failed: %v", result.Err)
	}
	if gotAuth != "Bearer tok" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if result.Config["foo"] != "bar" {
		t.Errorf("Config = %v, want foo=bar echoed verbatim", result.Config)
	}
	if gotPayload.MachineID != "543b6042" {
		t.Errorf("machine_id = %q", gotPayload.MachineID)
	}
	if gotPayload.Hostname != "machine-543b6042" {
		t.Errorf("hostname = %q", gotPayload.Hostname)
	}
	if gotPayload.Token != "join-token" {
		t.Errorf("bootstrap token = %q", gotPayload.Token)
	}
	if gotPayload.CPU != "8000m" || gotPayload.Memory != "16Gi" || gotPayload.GPUCount != "1" {
		t.Errorf("capacity = %q/%q/%q", gotPayload.CPU, gotPayload.Memory, gotPayload.GPUCount)
	}
	if gotPayload.PrivateIP == "" {
		t.Error("private_ip missing")
	}
}

func TestRegister_HostnameOverride(t *testing.T) {
	var gotPayload RegistrationPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotPayload)
		w.Write([]byte(`{"config":{}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, func(cfg *Config) {
		cfg.Hostname = "worker-1.ts.net"
	})
	client.Register(context.Background(), metrics.DefaultSnapshot())

	if gotPayload.Hostname != "worker-1.ts.net" {
		t.Errorf("hostname = %q, want override", gotPayload.Hostname)
	}
}

func TestRegister_BootstrapPlaceholder(t *testing.T) {
	var gotPayload RegistrationPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotPayload)
		w.Write([]byte(`{"config":{}}`))
	}))
	defer server.Close()

	var buf strings.Builder
	log := logging.New()
	log.SetOutput(&buf)

	client := newTestClient(t, server.URL, func(cfg *Config) {
		cfg.Logger = log
	})
	client.Register(context.Background(), metrics.DefaultSnapshot())

	if gotPayload.Token != placeholderBootstrapToken {
		t.Errorf("bootstrap token = %q, want placeholder", gotPayload.Token)
	}
	if !strings.Contains(buf.String(), "no bootstrap token configured") {
		t.Error("expected a warning about the missing bootstrap token")
	}
}

func TestRegister_ErrorKinds(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode errors.ErrorCode
	}{
		{name: "forbidden", status: 403, wantCode: errors.ErrCodeUnauthorized},
		{name: "bad request", status: 400, body: "missing pool_name", wantCode: errors.ErrCodeInvalidRequest},
		{name: "server error", status: 502, body: "bad gateway", wantCode: errors.ErrCodeUnexpectedStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := newTestClient(t, server.URL, nil)
			result := client.Register(context.Background(), metrics.DefaultSnapshot())

			if result.Success {
				t.Fatal("expected failure")
			}
			if !errors.Is(result.Err, tt.wantCode) {
				t.Errorf("error = %v, want code %v", result.Err, tt.wantCode)
			}
			if tt.body != "" && !strings.Contains(result.Err.Error(), tt.body) {
				t.Errorf("error %q should carry the response body", result.Err.Error())
			}
		})
	}
}

func TestRegister_ErrorKindsNotRetryableVsRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(403)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)
	result := client.Register(context.Background(), metrics.DefaultSnapshot())

	ae := errors.AsAgentError(result.Err)
	if ae == nil {
		t.Fatal("expected an AgentError")
	}
	if ae.Retryable() {
		t.Error("403 must not be retryable with the same token")
	}
}

func TestRegister_ConnectionRefused(t *testing.T) {
	// A server that is already closed refuses connections.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	clientID := testIdentity(t, server.URL)
	server.Close()

	client := NewClient(Config{Identity: clientID, Logger: quietLogger()})
	result := client.Register(context.Background(), metrics.DefaultSnapshot())

	if result.Success {
		t.Fatal("expected failure")
	}
	if !errors.Is(result.Err, errors.ErrCodeNetworkErr) {
		t.Errorf("error = %v, want NETWORK_ERR", result.Err)
	}
	if !strings.Contains(result.Err.Error(), clientID.Gateway.URL()) {
		t.Errorf("error %q should name the gateway", result.Err.Error())
	}
}

func TestRegister_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, func(cfg *Config) {
		cfg.RegistrationTimeout = 20 * time.Millisecond
	})
	result := client.Register(context.Background(), metrics.DefaultSnapshot())

	if result.Success {
		t.Fatal("expected failure")
	}
	if !errors.Is(result.Err, errors.ErrCodeTimeout) {
		t.Errorf("error = %v, want TIMEOUT distinct from NETWORK_ERR", result.Err)
	}
}

func TestRegister_DryRun(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, func(cfg *Config) {
		cfg.DryRun = true
	})
	result := client.Register(context.Background(), metrics.DefaultSnapshot())

	if !result.Success {
		t.Fatalf("dry-run register failed: %v", result.Err)
	}
	if result.Config["dry_run"] != true {
		t.Errorf("Config = %v, want dry_run marker", result.Config)
	}
	if calls.Load() != 0 {
		t.Error("dry run must not touch the network")
	}
}

func TestKeepalive_Success(t *testing.T) {
	var gotPayload KeepalivePayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/machine/keepalive" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		json.NewDecoder(r.Body).Decode(&gotPayload)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)
	err := client.Keepalive(context.Background(), KeepalivePayload{
		MachineID:    "543b6042",
		ProviderName: "generic",
		PoolName:     "external",
		AgentVersion: "0.2.0",
		Metrics:      metrics.Snapshot{TotalCPUAvailable: 4000},
	})
	if err != nil {
		t.Fatalf("Keepalive: %v", err)
	}
	if gotPayload.AgentVersion != "0.2.0" {
		t.Errorf("agent_version = %q", gotPayload.AgentVersion)
	}
	if gotPayload.Metrics.TotalCPUAvailable != 4000 {
		t.Errorf("metrics = %+v", gotPayload.Metrics)
	}
}

func TestKeepalive_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
		w.Write([]byte("boom"))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)
	err := client.Keepalive(context.Background(), KeepalivePayload{MachineID: "543b6042"})
	if err == nil {
		t.Fatal("expected error for 500")
	}
	if !errors.Is(err, errors.ErrCodeUnexpectedStatus) {
		t.Errorf("error = %v, want UNEXPECTED_STATUS", err)
	}
}

func TestKeepalive_DryRun(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, func(cfg *Config) {
		cfg.DryRun = true
	})
	if err := client.Keepalive(context.Background(), KeepalivePayload{}); err != nil {
		t.Fatalf("dry-run keepalive: %v", err)
	}
	if calls.Load() != 0 {
		t.Error("dry run must not touch the network")
	}
}
