package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vinayprograms/fleetagent/errors"
)

func writeConfigFile(t *testing.T, content string, perm os.FileMode) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), perm); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.GatewayPort != 1994 {
		t.Errorf("GatewayPort = %d, want 1994", cfg.GatewayPort)
	}
	if cfg.KeepaliveInterval != 60*time.Second {
		t.Errorf("KeepaliveInterval = %s, want 60s", cfg.KeepaliveInterval)
	}
	if cfg.RegistrationTimeout != 30*time.Second {
		t.Errorf("RegistrationTimeout = %s, want 30s", cfg.RegistrationTimeout)
	}
	if cfg.PoolName != "external" || cfg.ProviderName != "generic" {
		t.Errorf("pool/provider = %q/%q", cfg.PoolName, cfg.ProviderName)
	}
}

func TestApplyFile(t *testing.T) {
	path := writeConfigFile(t, `
pool = "gpu"
provider = "hetzner"

[gateway]
host = "gw.internal"
port = 8080
scheme = "https"

[machine]
id = "543b6042"
token = "tok"
hostname = "worker-1.ts.net"

[bootstrap]
token = "join-token"

[timing]
keepalive_interval_seconds = 15
`, 0o600)

	cfg := Default()
	if err := applyFile(&cfg, path); err != nil {
		t.Fatalf("applyFile: %v", err)
	}

	if cfg.PoolName != "gpu" || cfg.ProviderName != "hetzner" {
		t.Errorf("pool/provider = %q/%q", cfg.PoolName, cfg.ProviderName)
	}
	if cfg.GatewayHost != "gw.internal" || cfg.GatewayPort != 8080 || cfg.GatewayScheme != "https" {
		t.Errorf("gateway = %s://%s:%d", cfg.GatewayScheme, cfg.GatewayHost, cfg.GatewayPort)
	}
	if cfg.MachineID != "543b6042" || cfg.Token != "tok" {
		t.Errorf("machine = %q token = %q", cfg.MachineID, cfg.Token)
	}
	if cfg.Hostname != "worker-1.ts.net" {
		t.Errorf("Hostname = %q", cfg.Hostname)
	}
	if cfg.BootstrapToken != "join-token" {
		t.Errorf("BootstrapToken = %q", cfg.BootstrapToken)
	}
	if cfg.KeepaliveInterval != 15*time.Second {
		t.Errorf("KeepaliveInterval = %s, want 15s", cfg.KeepaliveInterval)
	}
	// Untouched values keep their defaults.
	if cfg.RegistrationTimeout != 30*time.Second {
		t.Errorf("RegistrationTimeout = %s, want default 30s", cfg.RegistrationTimeout)
	}
}

func TestApplyFileInsecurePermissions(t *testing.T) {
	path := writeConfigFile(t, `pool = "gpu"`, 0o644)

	cfg := Default()
	err := applyFile(&cfg, path)
	if err == nil {
		t.Fatal("expected error for world-readable config file")
	}
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("error code = %v, want INVALID_CONFIG", err)
	}
}

func TestApplyFileMalformed(t *testing.T) {
	path := writeConfigFile(t, `pool = [broken`, 0o600)

	cfg := Default()
	if err := applyFile(&cfg, path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("FLEET_TOKEN", "env-token")
	t.Setenv("FLEET_MACHINE_ID", "00c0ffee")
	t.Setenv("FLEET_GATEWAY_PORT", "2994")
	t.Setenv("FLEET_KEEPALIVE_INTERVAL", "5")
	t.Setenv("FLEET_DEBUG", "true")

	cfg := Default()
	applyEnv(&cfg)

	if cfg.Token != "env-token" {
		t.Errorf("Token = %q", cfg.Token)
	}
	if cfg.MachineID != "00c0ffee" {
		t.Errorf("MachineID = %q", cfg.MachineID)
	}
	if cfg.GatewayPort != 2994 {
		t.Errorf("GatewayPort = %d", cfg.GatewayPort)
	}
	if cfg.KeepaliveInterval != 5*time.Second {
		t.Errorf("KeepaliveInterval = %s", cfg.KeepaliveInterval)
	}
	if !cfg.Debug {
		t.Error("Debug not set")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
[machine]
token = "file-token"
`, 0o600)
	t.Setenv("FLEET_CONFIG", path)
	t.Setenv("FLEET_TOKEN", "env-token")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Token != "env-token" {
		t.Errorf("Token = %q, want env to win over file", cfg.Token)
	}
}

func TestFinalizeGeneratesMachineID(t *testing.T) {
	cfg := Default()
	cfg.Finalize()
	if len(cfg.MachineID) != 8 {
		t.Errorf("Finalize generated %q, want 8 hex chars", cfg.MachineID)
	}

	// A configured id is left alone.
	cfg2 := Default()
	cfg2.MachineID = "543b6042"
	cfg2.Finalize()
	if cfg2.MachineID != "543b6042" {
		t.Errorf("Finalize overwrote configured id: %q", cfg2.MachineID)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Token = "tok"
	cfg.MachineID = "543b6042"

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}

	bad := cfg
	bad.MachineID = "nothex!!"
	err := bad.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("error code = %v, want INVALID_CONFIG", err)
	}

	bad = cfg
	bad.KeepaliveInterval = 0
	if bad.Validate() == nil {
		t.Error("expected error for zero keepalive interval")
	}
}

func TestIdentity(t *testing.T) {
	cfg := Default()
	cfg.Token = "tok"
	cfg.MachineID = "543b6042"
	cfg.GatewayHost = "gw"
	cfg.GatewayPort = 2000

	id := cfg.Identity()
	if id.Gateway.URL() != "http://gw:2000" {
		t.Errorf("gateway URL = %q", id.Gateway.URL())
	}
	if id.MachineID != "543b6042" || id.Token != "tok" {
		t.Errorf("identity = %+v", id)
	}
}
