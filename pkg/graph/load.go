package graph

import (
	"bufio"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/exp/mmap"

	"github.com/dd0wney/cluso-percolation/pkg/logging"
)

// LoadReport summarises what Load did to the input.
type LoadReport struct {
	Lines      int     // lines read, including comments and blanks
	Edges      int     // edges kept in the returned graph
	SelfLoops  int     // self loops dropped
	Duplicates int     // parallel or reversed edges merged
	Components int     // connected components before restriction
	Dropped    int     // nodes discarded by the giant restriction
	Labels     []int64 // Labels[oi] is the input label of original index oi
}

type loadConfig struct {
	keepDisconnected bool
	logger           logging.Logger
}

// LoadOption configures Load.
type LoadOption func(*loadConfig)

// KeepDisconnected keeps every component instead of restricting the graph to
// its largest one.
func KeepDisconnected() LoadOption {
	return func(c *loadConfig) {
		c.keepDisconnected = true
	}
}

// WithLogger sets the logger used to report adjustments made on load.
func WithLogger(logger logging.Logger) LoadOption {
	return func(c *loadConfig) {
		c.logger = logger
	}
}

// Load reads an undirected edge list. Each non-blank line that does not start
// with '#' must begin with two integer endpoint labels; any further columns are
// ignored. Labels receive original indices in ascending label order, so an
// edge list over 0..N-1 keeps its own numbering.
//
// Unless KeepDisconnected is given, a disconnected input is reduced to its
// largest component and re-indexed 0..N0-1, again by ascending label.
func Load(r io.Reader, opts ...LoadOption) (*Graph, *LoadReport, error) {
	cfg := loadConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	logger := logging.OrNop(cfg.logger)

	report := &LoadReport{}
	seen := make(map[int64]struct{})
	var pairs [][2]int64

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		report.Lines++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, nil, MalformedLineError(report.Lines, fmt.Sprintf("want two endpoints, got %q", line))
		}
		u, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return nil, nil, MalformedLineError(report.Lines, fmt.Sprintf("endpoint %q is not an integer", fields[0]))
		}
		v, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return nil, nil, MalformedLineError(report.Lines, fmt.Sprintf("endpoint %q is not an integer", fields[1]))
		}

		seen[u] = struct{}{}
		seen[v] = struct{}{}
		if u == v {
			report.SelfLoops++
			continue
		}
		pairs = append(pairs, [2]int64{u, v})
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, NewError("load").Line(report.Lines).Cause(err).Err()
	}
	if len(pairs) == 0 {
		return nil, nil, NewError("load").Context(fmt.Sprintf("%d lines", report.Lines)).Cause(ErrEmptyGraph).Err()
	}

	report.Labels = make([]int64, 0, len(seen))
	for label := range seen {
		report.Labels = append(report.Labels, label)
	}
	slices.Sort(report.Labels)
	index := make(map[int64]int, len(report.Labels))
	for oi, label := range report.Labels {
		index[label] = oi
	}

	g := New(len(report.Labels))
	for _, p := range pairs {
		if !g.addEdge(index[p[0]], index[p[1]]) {
			report.Duplicates++
		}
	}

	components := g.Components()
	report.Components = len(components)
	if len(components) > 1 && !cfg.keepDisconnected {
		giant := Largest(components)
		g, report.Labels = g.restrict(giant, report.Labels)
		report.Dropped = len(index) - len(giant)
		logger.Warn("input graph is disconnected, keeping largest component",
			logging.Count(report.Components),
			logging.Int("retained_nodes", g.NodeCount()),
			logging.Int("total_nodes", len(index)))
	}
	report.Edges = g.EdgeCount()

	logger.Debug("graph loaded",
		logging.Int("nodes", g.NodeCount()),
		logging.Int("edges", report.Edges),
		logging.Int("self_loops", report.SelfLoops),
		logging.Int("duplicates", report.Duplicates))

	return g, report, nil
}

// LoadFile memory-maps path and loads it with Load.
func LoadFile(path string, opts ...LoadOption) (*Graph, *LoadReport, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open edge list: %w", err)
	}
	defer r.Close()

	g, report, err := Load(io.NewSectionReader(r, 0, int64(r.Len())), opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, report, nil
}

// restrict returns a new graph holding only keep, renumbered by ascending old
// index, together with the matching label slice.
func (g *Graph) restrict(keep []int, labels []int64) (*Graph, []int64) {
	remap := make([]int, len(g.present))
	for i := range remap {
		remap[i] = -1
	}
	inKeep := make([]bool, len(g.present))
	for _, oi := range keep {
		inKeep[oi] = true
	}

	newLabels := make([]int64, 0, len(keep))
	for oi, ok := range inKeep {
		if ok {
			remap[oi] = len(newLabels)
			newLabels = append(newLabels, labels[oi])
		}
	}

	out := New(len(newLabels))
	for _, e := range g.Edges() {
		u, v := remap[e[0]], remap[e[1]]
		if u >= 0 && v >= 0 {
			out.addEdge(u, v)
		}
	}
	return out, newLabels
}
