package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-percolation/pkg/attack"
	"github.com/dd0wney/cluso-percolation/pkg/config"
	"github.com/dd0wney/cluso-percolation/pkg/graph"
	"github.com/dd0wney/cluso-percolation/pkg/logging"
	"github.com/dd0wney/cluso-percolation/pkg/percolation"
	"github.com/dd0wney/cluso-percolation/pkg/results"
)

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <edge-list> <trace>",
		Short: "Rebuild the curves of a recorded attack",
		Long: `Replay the removal order of a trace on its network and write every
derived curve, as the attack command would have.

The policy defaults to the prefix in the trace file name (BtwU_<network>.txt).
With --record-centrality the centralities are recomputed along the replay,
which costs as much as the original attack.

Examples:
  percolate analyze nets/ER_00001.txt out/ER_00001/DegU/DegU_ER_00001.txt
  percolate analyze net.txt trace.txt --policy BtwGU --record-centrality -o reanalysed`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			edgeList, tracePath := args[0], args[1]
			logger, err := newLogger(cmd, "")
			if err != nil {
				return err
			}

			prefix, _ := cmd.Flags().GetString("policy")
			if prefix == "" {
				prefix = prefixFromTrace(tracePath)
			}
			policy, err := attack.ParsePolicy(prefix)
			if err != nil {
				return fmt.Errorf("cannot tell the policy, use --policy: %w", err)
			}

			network := config.NetworkName(edgeList)
			logger = logger.With(logging.Network(network), logging.Policy(policy.Prefix()))

			g, report, err := graph.LoadFile(edgeList, graph.WithLogger(logger))
			if err != nil {
				return err
			}
			rows, err := results.ReadTraceFile(tracePath)
			if err != nil {
				return err
			}

			record, _ := cmd.Flags().GetBool("record-centrality")
			workers, _ := cmd.Flags().GetInt("centrality-workers")
			res, err := attack.Replay(cmd.Context(), g, policy, results.Order(rows),
				attack.WithLogger(logger),
				attack.WithRecordCentrality(record),
				attack.WithWorkers(workers))
			if err != nil {
				return fmt.Errorf("replay %s: %w", tracePath, err)
			}

			var opts []percolation.AnalyzeOption
			if normalize, _ := cmd.Flags().GetBool("normalize"); normalize {
				opts = append(opts, percolation.WithNormalizedBetweenness())
			}
			out, _ := cmd.Flags().GetString("output")
			if out == "" {
				out = filepath.Dir(tracePath)
			}
			compress, _ := cmd.Flags().GetBool("compress")
			w, err := results.NewWriter(out,
				results.WithCompression(compress),
				results.WithLabels(report.Labels),
				results.WithLogger(logger))
			if err != nil {
				return err
			}
			if err := w.WriteRun(network, res, percolation.Analyze(res, opts...)); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %d steps replayed (%s), results in %s\n",
				network, policy.Prefix(), len(res.Removals), res.Reason, out)
			return nil
		},
	}

	cmd.Flags().String("policy", "", "Attack prefix; defaults to the trace file name prefix")
	cmd.Flags().StringP("output", "o", "", "Output directory (default: the trace's directory)")
	cmd.Flags().Bool("record-centrality", false, "Recompute centralities along the replay")
	cmd.Flags().Bool("normalize", false, "Normalise betweenness before computing its spread")
	cmd.Flags().Bool("compress", false, "Write centrality matrices snappy-compressed")
	cmd.Flags().Int("centrality-workers", 1, "Goroutines per betweenness computation")
	return cmd
}

// prefixFromTrace extracts BtwU from .../BtwU_network.txt.
func prefixFromTrace(path string) string {
	base := filepath.Base(path)
	for i, r := range base {
		if r == '_' {
			return base[:i]
		}
	}
	return ""
}
