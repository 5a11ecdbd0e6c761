// Command percolate-watch runs a single attack in a terminal dashboard that
// follows the giant component as nodes are removed.
package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-percolation/pkg/attack"
	"github.com/dd0wney/cluso-percolation/pkg/config"
	"github.com/dd0wney/cluso-percolation/pkg/logging"
	"github.com/dd0wney/cluso-percolation/pkg/runner"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "percolate-watch <edge-list>",
		Short: "Run one attack with a live dashboard",
		Long: `Run one attack on one network and watch the giant component shrink.

Quitting interrupts the attack; its checkpoint is kept and the next run
resumes from it.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(cmd, args[0])
			if err != nil {
				return err
			}
			logger, closeLog, err := openLog(cmd, cfg.LogLevel)
			if err != nil {
				return err
			}
			defer closeLog()

			jobs, err := cfg.Jobs()
			if err != nil {
				return err
			}
			title := fmt.Sprintf("%s %s seed %d", jobs[0].Network, jobs[0].Policy.Prefix(), jobs[0].Seed)
			return watch(cfg, logger, title)
		},
	}

	cmd.Flags().String("policy", "BtwU", "Attack prefix such as BtwGU, DegU, Deg or RanG")
	cmd.Flags().Bool("static-random", false, "Treat Ran/RanG as a single seeded shuffle")
	cmd.Flags().Int("seed", 0, "Seed of the random policies")
	cmd.Flags().StringP("output", "o", config.DefaultOutputDir, "Output directory")
	cmd.Flags().Bool("overwrite", false, "Recompute the attack if its output exists")
	cmd.Flags().Bool("record-centrality", false, "Store betweenness and degree of every candidate at every step")
	cmd.Flags().Int("centrality-workers", config.DefaultWorkers, "Goroutines per betweenness computation")
	cmd.Flags().String("log-file", "", "Write JSON logs to this file (logs are discarded otherwise)")
	cmd.Flags().String("log-level", config.DefaultLogLevel, "Log level: debug, info, warn, error")
	return cmd
}

// buildConfig turns the flags into a one-job configuration.
func buildConfig(cmd *cobra.Command, input string) (*config.Config, error) {
	flags := cmd.Flags()
	prefix, _ := flags.GetString("policy")
	p, err := attack.ParsePolicy(prefix)
	if err != nil {
		return nil, err
	}
	if static, _ := flags.GetBool("static-random"); static && p.Centrality == attack.Random {
		p.Update = false
	}
	seed, _ := flags.GetInt("seed")

	cfg := config.Default()
	cfg.InputPattern = input
	cfg.Seeds = config.SeedRange{Min: seed, Max: seed + 1}
	cfg.Attacks = []config.AttackConfig{{
		Centrality:  p.Centrality.String(),
		FollowGiant: p.FollowGiant,
		Update:      p.Update,
	}}
	cfg.OutputDir, _ = flags.GetString("output")
	cfg.Overwrite, _ = flags.GetBool("overwrite")
	cfg.RecordCentrality, _ = flags.GetBool("record-centrality")
	cfg.CentralityWorkers, _ = flags.GetInt("centrality-workers")
	cfg.LogLevel, _ = flags.GetString("log-level")
	cfg.ApplyDefaults()
	return cfg, cfg.Validate()
}

// openLog keeps logs out of the terminal the dashboard draws on.
func openLog(cmd *cobra.Command, levelName string) (logging.Logger, func(), error) {
	path, _ := cmd.Flags().GetString("log-file")
	if path == "" {
		return logging.NewNopLogger(), func() {}, nil
	}
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return logging.NewJSONLogger(f, level), func() { f.Close() }, nil
}

func watch(cfg *config.Config, logger logging.Logger, title string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := tea.NewProgram(newModel(title), tea.WithAltScreen())

	finished := make(chan error, 1)
	go func() {
		_, err := runner.New(cfg,
			runner.WithLogger(logger),
			runner.WithProgress(func(pr runner.Progress) { p.Send(stepMsg(pr)) }),
			runner.WithJobDone(func(res runner.JobResult) { p.Send(doneMsg(res)) }),
		).Run(ctx)
		finished <- err
	}()

	final, err := p.Run()
	// Leaving the dashboard stops the attack; wait for its checkpoint to close.
	cancel()
	runErr := <-finished
	if err != nil {
		return err
	}

	if m, ok := final.(model); ok && m.done != nil {
		fmt.Println(m.renderStatus())
	}
	return runErr
}
