// Command percolate runs node-removal attacks on networks and derives
// percolation curves from them.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-percolation/pkg/logging"
)

var version = "0.1.0-dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "percolate",
		Short: "Network attack simulation and percolation statistics",
		Long: `percolate removes nodes from networks one at a time, ranked by betweenness,
degree or at random, and records how the giant component falls apart.

Interrupted attacks resume from their checkpoint on the next run.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (overrides the config file)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newAttackCmd(),
		newAnalyzeCmd(),
	)
	return rootCmd
}

// newLogger builds the JSON logger on stderr. An empty level falls back to
// the configuration value, then to PERCOLATE_LOG_LEVEL, then to info.
func newLogger(cmd *cobra.Command, configured string) (logging.Logger, error) {
	name, _ := cmd.Flags().GetString("log-level")
	if name == "" {
		name = configured
	}
	if name == "" {
		name = os.Getenv("PERCOLATE_LOG_LEVEL")
	}
	level, err := logging.ParseLevel(name)
	if err != nil {
		return nil, err
	}
	return logging.NewJSONLogger(cmd.ErrOrStderr(), level), nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "percolate version %s\n", version)
		},
	}
}
