package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/vinayprograms/fleetagent/errors"
)

// ErrInsecurePermissions is returned when a config file holding the agent
// token is readable by group or others.
var ErrInsecurePermissions = fmt.Errorf("config file has insecure permissions")

// fileConfig is the TOML shape of the config file.
type fileConfig struct {
	Pool     string `toml:"pool"`
	Provider string `toml:"provider"`
	Debug    bool   `toml:"debug"`
	DryRun   bool   `toml:"dry_run"`

	Gateway   gatewaySection   `toml:"gateway"`
	Machine   machineSection   `toml:"machine"`
	Bootstrap bootstrapSection `toml:"bootstrap"`
	Inference inferenceSection `toml:"inference"`
	Timing    timingSection    `toml:"timing"`
}

type gatewaySection struct {
	Host   string `toml:"host"`
	Port   int    `toml:"port"`
	Scheme string `toml:"scheme"`
}

type machineSection struct {
	ID       string `toml:"id"`
	Token    string `toml:"token"`
	Hostname string `toml:"hostname"`
}

type bootstrapSection struct {
	Token string `toml:"token"`
}

type inferenceSection struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

type timingSection struct {
	KeepaliveIntervalSeconds   int `toml:"keepalive_interval_seconds"`
	RegistrationTimeoutSeconds int `toml:"registration_timeout_seconds"`
}

// StandardPaths returns the config file locations in order of priority.
func StandardPaths() []string {
	paths := []string{"fleetagent.toml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "fleetagent", "config.toml"),
			filepath.Join(home, ".fleetagent", "config.toml"),
		)
	}
	return paths
}

// findConfigFile returns the config file to use: $FLEET_CONFIG when set,
// otherwise the first standard path that exists.
func findConfigFile() (string, bool) {
	if path := os.Getenv("FLEET_CONFIG"); path != "" {
		return path, true
	}
	for _, path := range StandardPaths() {
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}

// applyFile overlays the TOML file at path onto cfg. The file holds the
// agent token, so group- or world-readable files are rejected outright
// (except on Windows, where POSIX permission bits are meaningless).
func applyFile(cfg *Config, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrCodeInvalidConfig,
			fmt.Sprintf("cannot read config file %s", path))
	}
	if runtime.GOOS != "windows" && info.Mode().Perm()&0o077 != 0 {
		return errors.WrapWithCode(ErrInsecurePermissions, errors.ErrCodeInvalidConfig,
			fmt.Sprintf("config file %s must not be group/world readable (chmod 600)", path))
	}

	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return errors.WrapWithCode(err, errors.ErrCodeInvalidConfig,
			fmt.Sprintf("cannot parse config file %s", path))
	}

	if fc.Pool != "" {
		cfg.PoolName = fc.Pool
	}
	if fc.Provider != "" {
		cfg.ProviderName = fc.Provider
	}
	if fc.Debug {
		cfg.Debug = true
	}
	if fc.DryRun {
		cfg.DryRun = true
	}
	if fc.Gateway.Host != "" {
		cfg.GatewayHost = fc.Gateway.Host
	}
	if fc.Gateway.Port != 0 {
		cfg.GatewayPort = fc.Gateway.Port
	}
	if fc.Gateway.Scheme != "" {
		cfg.GatewayScheme = fc.Gateway.Scheme
	}
	if fc.Machine.ID != "" {
		cfg.MachineID = fc.Machine.ID
	}
	if fc.Machine.Token != "" {
		cfg.Token = fc.Machine.Token
	}
	if fc.Machine.Hostname != "" {
		cfg.Hostname = fc.Machine.Hostname
	}
	if fc.Bootstrap.Token != "" {
		cfg.BootstrapToken = fc.Bootstrap.Token
	}
	if fc.Inference.Host != "" {
		cfg.InferenceHost = fc.Inference.Host
	}
	if fc.Inference.Port != 0 {
		cfg.InferencePort = fc.Inference.Port
	}
	if fc.Timing.KeepaliveIntervalSeconds > 0 {
		cfg.KeepaliveInterval = time.Duration(fc.Timing.KeepaliveIntervalSeconds) * time.Second
	}
	if fc.Timing.RegistrationTimeoutSeconds > 0 {
		cfg.RegistrationTimeout = time.Duration(fc.Timing.RegistrationTimeoutSeconds) * time.Second
	}
	return nil
}
