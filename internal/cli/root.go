// Package cli implements the mvdesign command-line interface.
//
// The CLI is the only layer that touches files or logs: it reads a network
// description, runs the requested study through the pure solver packages and
// prints the result. Each invocation is tagged with a run id for log
// correlation.
package cli

import (
	"context"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	version string
	commit  string
)

// SetVersion sets the version information displayed by --version, typically
// injected via ldflags at build time.
func SetVersion(v, c string) {
	version = v
	commit = c
}

// Execute runs the mvdesign CLI and returns an error if any command fails.
func Execute() error {
	var verbose bool

	ver := version
	if commit != "" {
		ver = version + " (" + commit + ")"
	}

	root := &cobra.Command{
		Use:          "mvdesign",
		Short:        "mvdesign analyzes medium-voltage networks",
		Long:         `mvdesign computes steady-state AC power flow (Newton-Raphson) and IEC 60909 short-circuit currents for medium-voltage network models.`,
		Version:      ver,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			logger := newLogger(os.Stderr, level)
			logger = logger.With("run", uuid.NewString())
			cmd.SetContext(withLogger(cmd.Context(), logger))
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newPowerFlowCmd())
	root.AddCommand(newShortCircuitCmd())

	return root.ExecuteContext(context.Background())
}
