// fleet-agent registers a worker machine with the control plane and
// keeps it registered with periodic keepalive heartbeats.
//
// Configuration is layered: built-in defaults, then a TOML config file,
// then FLEET_* environment variables, then command-line flags. The
// machine identifier is generated when none is configured.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/vinayprograms/fleetagent/agent"
	"github.com/vinayprograms/fleetagent/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flagSet := pflag.NewFlagSet("fleet-agent", pflag.ContinueOnError)

	configPath := flagSet.String("config", "", "path to TOML config file")
	token := flagSet.String("token", "", "machine auth token")
	machineID := flagSet.String("machine-id", "", "machine identifier (8 hex chars, generated when empty)")
	poolName := flagSet.String("pool-name", "", "worker pool to join")
	providerName := flagSet.String("provider-name", "", "infrastructure provider label")
	gatewayHost := flagSet.String("gateway-host", "", "control-plane host")
	gatewayPort := flagSet.Int("gateway-port", 0, "control-plane port")
	gatewayScheme := flagSet.String("gateway-scheme", "", "control-plane scheme (http or https)")
	hostname := flagSet.String("hostname", "", "hostname reported during registration")
	bootstrapToken := flagSet.String("bootstrap-token", "", "cluster join token for registration")
	keepaliveInterval := flagSet.Duration("keepalive-interval", 0, "interval between keepalive heartbeats")
	registrationTimeout := flagSet.Duration("registration-timeout", 0, "timeout for the registration handshake")
	dryRun := flagSet.Bool("dry-run", false, "log intended calls without touching the network")
	once := flagSet.Bool("once", false, "register, send one keepalive, and exit")
	debug := flagSet.Bool("debug", false, "enable debug logging")
	showVersion := flagSet.Bool("version", false, "print version and exit")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if args := flagSet.Args(); len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}

	if *showVersion {
		fmt.Printf("fleet-agent %s\n", agent.Version)
		return nil
	}

	if *configPath != "" {
		os.Setenv("FLEET_CONFIG", *configPath)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	applyFlag(flagSet, "token", token, &cfg.Token)
	applyFlag(flagSet, "machine-id", machineID, &cfg.MachineID)
	applyFlag(flagSet, "pool-name", poolName, &cfg.PoolName)
	applyFlag(flagSet, "provider-name", providerName, &cfg.ProviderName)
	applyFlag(flagSet, "gateway-host", gatewayHost, &cfg.GatewayHost)
	applyFlag(flagSet, "gateway-port", gatewayPort, &cfg.GatewayPort)
	applyFlag(flagSet, "gateway-scheme", gatewayScheme, &cfg.GatewayScheme)
	applyFlag(flagSet, "hostname", hostname, &cfg.Hostname)
	applyFlag(flagSet, "bootstrap-token", bootstrapToken, &cfg.BootstrapToken)
	applyFlag(flagSet, "keepalive-interval", keepaliveInterval, &cfg.KeepaliveInterval)
	applyFlag(flagSet, "registration-timeout", registrationTimeout, &cfg.RegistrationTimeout)
	applyFlag(flagSet, "dry-run", dryRun, &cfg.DryRun)
	applyFlag(flagSet, "once", once, &cfg.Once)
	applyFlag(flagSet, "debug", debug, &cfg.Debug)

	cfg.Finalize()

	a, err := agent.New(cfg)
	if err != nil {
		return err
	}
	return a.Run(context.Background())
}

// applyFlag copies a flag value into the config only when the flag was
// set on the command line, so unset flags never clobber file or
// environment values.
func applyFlag[T string | int | bool | time.Duration](flagSet *pflag.FlagSet, name string, value *T, dst *T) {
	if flagSet.Changed(name) {
		*dst = *value
	}
}
