// Command starcharts is the equivalent CLI named in spec.md §4's module
// list: one top-level binary whose subcommands mirror the tool dispatcher
// actions, writing each tool's JSON response to stdout and exiting with
// the code its error kind maps to Grounded on the
// cobra command-tree idiom used by cuemby-warren's cmd/warren and
// ehrlich-b-wingthing's cmd/wt (root command + one file per subcommand
// group, flags bound in init(), AddCommand wiring the tree together).
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vitadek/starcharts/internal/bootstrap"
	"github.com/vitadek/starcharts/internal/config"
)

var runtime *bootstrap.Runtime

// errHandled marks a failure already reported via emit (JSON envelope on
// stdout, exit code set) so main doesn't also print a bare Go error to
// stderr for it.
var errHandled = errors.New("handled")

var rootCmd = &cobra.Command{
	Use:           "starcharts",
	Short:         "Read-only tactical navigation and market intelligence for a spaceship MMO universe",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "verify" {
			return nil // bootstrap verify never needs the full runtime
		}
		cfg := config.Load()
		rt, err := bootstrap.Run(cmd.Context(), cfg)
		if err != nil {
			if emitErr := emit(nil, err); emitErr != nil {
				return emitErr
			}
			return errHandled
		}
		runtime = rt
		return nil
	},
}

func main() {
	rootCmd.SetContext(context.Background())
	if err := rootCmd.Execute(); err != nil && !errors.Is(err, errHandled) {
		fmt.Fprintln(os.Stderr, "starcharts:", err)
		os.Exit(1)
	}
	os.Exit(exitCode)
}
