// Package main is the entry point for the healthboard CLI.
//
// The binary runs the board server from a YAML file and doubles as a client
// for a running server.
//
// Usage:
//
//	healthboard serve -c config.yaml                  # Start the board
//	healthboard validate -c config.yaml               # Validate configuration
//	healthboard show                                  # Print the board
//	healthboard update services api --status up       # Change an item
//	healthboard version                               # Show version info
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jpalmerr/healthboard/internal/printer"
)

// Version information, set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// app carries what every command needs: output streams and the resolved
// client settings.
type app struct {
	out    io.Writer
	errOut io.Writer
	v      *viper.Viper
}

func (a *app) printer() *printer.Printer {
	return printer.New(a.out, a.errOut, a.v.GetBool(keyVerbose))
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut, v: viper.New()}

	root := &cobra.Command{
		Use:   "healthboard",
		Short: "A hierarchical health status board",
		Long: `HealthBoard keeps a board of categories and items, each with a status,
a message and a URL, and serves it as a JSON API with a live dashboard.

Run a board:
  healthboard serve -c healthboard.yaml
  open http://localhost:5000

Talk to a running board:
  healthboard create category services
  healthboard update services database --status up --message "running normally" --upsert
  healthboard show

The server address comes from --server, then HEALTHBOARD_SERVER, then
server: in $XDG_CONFIG_HOME/healthboard/client.yaml, then
http://127.0.0.1:5000.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.loadSettings(cmd)
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().String(keyServer, defaultServer, "healthboard server URL")
	root.PersistentFlags().BoolP(keyVerbose, "v", false, "enable verbose output")

	root.AddCommand(
		newServeCmd(a),
		newValidateCmd(a),
		newVersionCmd(a),
		newShowCmd(a),
		newCreateCmd(a),
		newRemoveCmd(a),
		newUpdateCmd(a),
		newSaveCmd(a),
		newRestoreCmd(a),
		newStatusesCmd(a),
	)
	return root
}

// run executes the CLI and returns the process exit code.
func run(ctx context.Context, args []string, out, errOut io.Writer) int {
	root := newRootCmd(out, errOut)
	root.SetArgs(args)

	if err := root.ExecuteContext(ctx); err != nil {
		printer.New(out, errOut, false).Error(err)
		return 1
	}
	return 0
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print the version, commit hash, and build date of this healthboard binary.`,
		Run: func(cmd *cobra.Command, args []string) {
			p := a.printer()
			p.Info("healthboard %s", version)
			p.Info("  commit: %s", commit)
			p.Info("  built:  %s", date)
		},
	}
}
