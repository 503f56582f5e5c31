package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/healthboard"
	"github.com/jpalmerr/healthboard/config"
)

func newValidateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a config file",
		Long: `Validate a HealthBoard configuration file without starting the server.

This command parses the YAML, expands environment variables, and validates
all fields. It's useful for CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  healthboard validate -c healthboard.yaml
  healthboard validate --config /etc/healthboard/healthboard.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			configFile, _ := cmd.Flags().GetString("config")
			return a.runValidate(configFile)
		},
	}

	cmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

func (a *app) runValidate(configFile string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// the SDK catches what the file alone cannot, such as a grid and a
	// probe writing the same item
	opts, err := config.Build(cfg)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := healthboard.New(opts...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	directProbes := len(cfg.Probes)
	gridProbes := 0
	for _, g := range cfg.Grids {
		// cartesian product size
		size := 1
		for _, vals := range g.Dimensions {
			size *= len(vals)
		}
		gridProbes += size
	}

	seeded := 0
	for _, s := range cfg.Seed {
		seeded += len(s.Items)
	}

	fmt.Fprintf(a.out, "Config is valid!\n")
	fmt.Fprintf(a.out, "  Port:           %d\n", cfg.Port)
	fmt.Fprintf(a.out, "  Probe interval: %s\n", cfg.ProbeInterval.Duration())
	fmt.Fprintf(a.out, "  Snapshot:       %s\n", describeSnapshot(cfg.Snapshot))
	fmt.Fprintf(a.out, "  Seed:           %d categories, %d items\n", len(cfg.Seed), seeded)
	fmt.Fprintf(a.out, "  Probes:         %d direct + %d from grids = %d total\n",
		directProbes, gridProbes, directProbes+gridProbes)

	return nil
}

func describeSnapshot(sc config.SnapshotConfig) string {
	switch sc.Backend {
	case config.BackendRedis:
		return fmt.Sprintf("redis (%s)", sc.Redis.Addr)
	case config.BackendSQLite:
		return fmt.Sprintf("sqlite (%s)", sc.SQLite.Path)
	default:
		return fmt.Sprintf("file (%s)", sc.Path)
	}
}
