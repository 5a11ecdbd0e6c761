package main

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-percolation/pkg/attack"
	"github.com/dd0wney/cluso-percolation/pkg/config"
	"github.com/dd0wney/cluso-percolation/pkg/health"
	"github.com/dd0wney/cluso-percolation/pkg/logging"
	"github.com/dd0wney/cluso-percolation/pkg/metrics"
	"github.com/dd0wney/cluso-percolation/pkg/runner"
)

func newAttackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attack",
		Short: "Run the configured attacks",
		Long: `Run every attack of the configuration on every seed's network.

The configuration comes from --config; any flag given on the command line
overrides the file. Without --config the flags alone describe the run.

Examples:
  percolate attack --config run.yaml
  percolate attack --input 'nets/ER_%05d.txt' --seeds 0:10 --policy BtwU --policy DegU
  percolate attack --config run.yaml --overwrite --workers 8`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			logger, err := newLogger(cmd, cfg.LogLevel)
			if err != nil {
				return err
			}
			logging.SetDefaultLogger(logger)

			reg := metrics.NewRegistry()
			r := runner.New(cfg,
				runner.WithLogger(logger),
				runner.WithMetrics(reg),
			)
			if cfg.MetricsAddr != "" {
				go func() {
					if err := reg.Serve(cmd.Context(), cfg.MetricsAddr, healthRoutes(cfg, r)...); err != nil {
						logger.Error("metrics server stopped", logging.Error(err))
					}
				}()
				logger.Info("serving metrics and health", logging.String("addr", cfg.MetricsAddr))
			}

			summary, runErr := r.Run(cmd.Context())
			if summary != nil {
				printSummary(cmd, summary)
			}
			return runErr
		},
	}

	cmd.Flags().StringP("config", "c", "", "YAML configuration file")
	cmd.Flags().String("input", "", "Edge list path, or a fmt pattern over the seed")
	cmd.Flags().StringP("output", "o", "", "Output directory")
	cmd.Flags().String("seeds", "", "Seed range min:max (max exclusive), or a single seed")
	cmd.Flags().StringArray("policy", nil, "Attack prefix such as BtwGU, DegU, Deg or RanG (repeatable)")
	cmd.Flags().Bool("static-random", false, "Treat Ran/RanG policies as a single seeded shuffle")
	cmd.Flags().Bool("overwrite", false, "Recompute attacks whose output already exists")
	cmd.Flags().Bool("record-centrality", false, "Store betweenness and degree of every candidate at every step")
	cmd.Flags().Bool("normalize", false, "Normalise betweenness before computing its spread")
	cmd.Flags().Bool("compress", false, "Write centrality matrices snappy-compressed")
	cmd.Flags().Int("workers", 0, "Attacks run in parallel")
	cmd.Flags().Int("centrality-workers", 0, "Goroutines per betweenness computation")
	cmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address")

	return cmd
}

// loadConfig reads --config when given and applies the flags that were set
// on the command line.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return cfg, cfg.Validate()
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("input") {
		cfg.InputPattern, _ = flags.GetString("input")
	}
	if flags.Changed("output") {
		cfg.OutputDir, _ = flags.GetString("output")
	}
	if flags.Changed("seeds") {
		s, _ := flags.GetString("seeds")
		seeds, err := parseSeeds(s)
		if err != nil {
			return err
		}
		cfg.Seeds = seeds
	}
	if flags.Changed("policy") {
		prefixes, _ := flags.GetStringArray("policy")
		static, _ := flags.GetBool("static-random")
		cfg.Attacks = cfg.Attacks[:0]
		for _, prefix := range prefixes {
			p, err := attack.ParsePolicy(prefix)
			if err != nil {
				return err
			}
			if p.Centrality == attack.Random && static {
				p.Update = false
			}
			cfg.Attacks = append(cfg.Attacks, config.AttackConfig{
				Centrality:  p.Centrality.String(),
				FollowGiant: p.FollowGiant,
				Update:      p.Update,
			})
		}
	}
	for flag, dst := range map[string]*bool{
		"overwrite":         &cfg.Overwrite,
		"record-centrality": &cfg.RecordCentrality,
		"normalize":         &cfg.NormalizeBetweenness,
		"compress":          &cfg.Compress,
	} {
		if flags.Changed(flag) {
			*dst, _ = flags.GetBool(flag)
		}
	}
	for flag, dst := range map[string]*int{
		"workers":            &cfg.Workers,
		"centrality-workers": &cfg.CentralityWorkers,
	} {
		if flags.Changed(flag) {
			*dst, _ = flags.GetInt(flag)
		}
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr, _ = flags.GetString("metrics-addr")
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	return nil
}

// parseSeeds accepts "min:max" (max exclusive) or a single seed.
func parseSeeds(s string) (config.SeedRange, error) {
	invalid := fmt.Errorf("invalid --seeds %q: want min:max or a single seed", s)
	lo, hi, isRange := strings.Cut(s, ":")
	minSeed, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil {
		return config.SeedRange{}, invalid
	}
	if !isRange {
		return config.SeedRange{Min: minSeed, Max: minSeed + 1}, nil
	}
	maxSeed, err := strconv.Atoi(strings.TrimSpace(hi))
	if err != nil {
		return config.SeedRange{}, invalid
	}
	return config.SeedRange{Min: minSeed, Max: maxSeed}, nil
}

// stallAfter is how long running attacks may go without a step before the
// batch reports itself degraded.
const stallAfter = 30 * time.Minute

func healthRoutes(cfg *config.Config, r *runner.Runner) []metrics.Route {
	hc := health.NewHealthChecker()
	hc.RegisterCheck("output_dir", health.OutputDirCheck(cfg.OutputDir))
	hc.RegisterCheck("progress", health.ProgressCheck(func() (int, time.Time) {
		a := r.Activity()
		return a.Active, a.LastStep
	}, stallAfter))
	hc.RegisterCheck("memory", health.MemoryCheck(func() (uint64, uint64) {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		return m.HeapAlloc, m.Sys
	}))
	hc.RegisterReadinessCheck("batch", health.StartedCheck(func() bool {
		return r.Activity().Started
	}))
	hc.RegisterLivenessCheck("process", func() health.Check {
		return health.Check{Status: health.StatusHealthy}
	})

	return []metrics.Route{
		{Pattern: "/health", Handler: hc.HTTPHandler()},
		{Pattern: "/health/ready", Handler: hc.ReadinessHandler()},
		{Pattern: "/health/live", Handler: hc.LivenessHandler()},
	}
}

func printSummary(cmd *cobra.Command, summary *runner.Summary) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NETWORK\tPOLICY\tOUTCOME\tSTEPS\tREASON\tELAPSED")
	for _, j := range summary.Jobs {
		reason := ""
		if j.Outcome == runner.OutcomeCompleted || j.Outcome == runner.OutcomeInterrupted {
			reason = j.Reason.String()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			j.Job.Network, j.Job.Policy.Prefix(), j.Outcome, j.Steps, reason, j.Elapsed.Round(time.Millisecond))
	}
	w.Flush()
}
