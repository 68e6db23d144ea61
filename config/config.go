// Package config assembles the agent configuration from defaults, an
// optional TOML file, and FLEET_* environment variables, in that order of
// precedence (flags are layered on top by the CLI).
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/vinayprograms/fleetagent/errors"
	"github.com/vinayprograms/fleetagent/identity"
)

// Timing defaults.
const (
	DefaultKeepaliveInterval   = 60 * time.Second
	DefaultRegistrationTimeout = 30 * time.Second
	DefaultHealthInterval      = 10 * time.Second
)

// DefaultInferencePort is the Ollama-compatible inference endpoint port.
const DefaultInferencePort = 11434

// Config is the full configuration surface of the agent.
type Config struct {
	// Machine identity
	Token        string
	MachineID    string
	PoolName     string
	ProviderName string

	// Gateway connection
	GatewayHost   string
	GatewayPort   int
	GatewayScheme string

	// Hostname override reported during registration. Empty means derive
	// "machine-<machine_id>".
	Hostname string

	// BootstrapToken is the cluster join token included in the
	// registration payload. Distinct from Token, which authenticates the
	// agent itself.
	BootstrapToken string

	// Inference endpoint this machine serves, reported for completeness.
	InferenceHost string
	InferencePort int

	// Timing
	KeepaliveInterval   time.Duration
	RegistrationTimeout time.Duration
	HealthInterval      time.Duration

	// Behavior
	Debug  bool
	DryRun bool
	Once   bool
}

// Default returns the configuration before any file, environment or flag
// input.
func Default() Config {
	return Config{
		PoolName:            identity.DefaultPoolName,
		ProviderName:        identity.DefaultProviderName,
		GatewayHost:         identity.DefaultGatewayHost,
		GatewayPort:         identity.DefaultGatewayPort,
		GatewayScheme:       identity.DefaultGatewayScheme,
		InferenceHost:       "localhost",
		InferencePort:       DefaultInferencePort,
		KeepaliveInterval:   DefaultKeepaliveInterval,
		RegistrationTimeout: DefaultRegistrationTimeout,
		HealthInterval:      DefaultHealthInterval,
	}
}

// Load builds the configuration: defaults, then the first config file
// found on the standard paths (or $FLEET_CONFIG), then environment
// variables. A missing config file is not an error.
func Load() (Config, error) {
	cfg := Default()

	path, found := findConfigFile()
	if found {
		if err := applyFile(&cfg, path); err != nil {
			return cfg, err
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

// Finalize fills derived values: a generated machine id when none was
// configured. Call once, before Validate.
func (c *Config) Finalize() {
	if c.MachineID == "" {
		c.MachineID = identity.NewMachineID()
	}
}

// Identity builds the immutable identity value from the configuration.
func (c Config) Identity() identity.Identity {
	return identity.Identity{
		Token:        c.Token,
		MachineID:    c.MachineID,
		PoolName:     c.PoolName,
		ProviderName: c.ProviderName,
		Gateway: identity.Endpoint{
			Scheme: c.GatewayScheme,
			Host:   c.GatewayHost,
			Port:   c.GatewayPort,
		},
	}
}

// Validate checks the configuration before any network activity.
func (c Config) Validate() error {
	if err := c.Identity().Validate(); err != nil {
		return errors.WrapWithCode(err, errors.ErrCodeInvalidConfig, "configuration invalid")
	}
	if c.KeepaliveInterval <= 0 {
		return errors.InvalidConfig(fmt.Sprintf("keepalive interval must be positive, got %s", c.KeepaliveInterval))
	}
	if c.RegistrationTimeout <= 0 {
		return errors.InvalidConfig(fmt.Sprintf("registration timeout must be positive, got %s", c.RegistrationTimeout))
	}
	if c.HealthInterval <= 0 {
		return errors.InvalidConfig(fmt.Sprintf("health interval must be positive, got %s", c.HealthInterval))
	}
	return nil
}

// applyEnv overlays FLEET_* environment variables onto cfg.
func applyEnv(cfg *Config) {
	setString(&cfg.Token, "FLEET_TOKEN")
	setString(&cfg.MachineID, "FLEET_MACHINE_ID")
	setString(&cfg.PoolName, "FLEET_POOL_NAME")
	setString(&cfg.ProviderName, "FLEET_PROVIDER_NAME")
	setString(&cfg.GatewayHost, "FLEET_GATEWAY_HOST")
	setInt(&cfg.GatewayPort, "FLEET_GATEWAY_PORT")
	setString(&cfg.GatewayScheme, "FLEET_GATEWAY_SCHEME")
	setString(&cfg.Hostname, "FLEET_HOSTNAME")
	setString(&cfg.BootstrapToken, "FLEET_BOOTSTRAP_TOKEN")
	setString(&cfg.InferenceHost, "FLEET_INFERENCE_HOST")
	setInt(&cfg.InferencePort, "FLEET_INFERENCE_PORT")
	setSeconds(&cfg.KeepaliveInterval, "FLEET_KEEPALIVE_INTERVAL")
	setBool(&cfg.Debug, "FLEET_DEBUG")
	setBool(&cfg.DryRun, "FLEET_DRY_RUN")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			*dst = i
		}
	}
}

func setSeconds(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			*dst = time.Duration(i) * time.Second
		}
	}
}

func setBool(dst *bool, key string) {
	switch os.Getenv(key) {
	case "1", "true", "yes":
		*dst = true
	}
}
