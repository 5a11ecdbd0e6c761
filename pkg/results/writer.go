package results

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/golang/snappy"

	"github.com/dd0wney/cluso-percolation/pkg/attack"
	"github.com/dd0wney/cluso-percolation/pkg/logging"
	"github.com/dd0wney/cluso-percolation/pkg/percolation"
)

// Output file names inside a run directory.
const (
	ComponentSizesFile    = "componentSizes.txt"
	BetweennessMatrixFile = "btwMatrix.txt"
	DegreeMatrixFile      = "degMatrix.txt"
	FiniteClustersFile    = "finiteClusters.txt"
	GiantSizesFile        = "Ngcc_values.txt"
	BetweennessSpreadFile = "btwDistParameters.txt"
	SusceptibilityFile    = "deltaBtw.txt"
	OrderParameterFile    = "btwOrderParam.txt"
	DegreeEvolutionFile   = "degEvolution.txt"
	ModularityFile        = "modularity.txt"
	LabelsFile            = "labels.txt"
	CheckpointDir         = "checkpoint"

	// CompressedSuffix is appended to matrix files written with compression.
	CompressedSuffix = ".sz"

	filePermissions = 0o644
)

// RunDir returns the directory holding the outputs of one attack on one
// network.
func RunDir(outputDir, network, prefix string) string {
	return filepath.Join(outputDir, network, prefix)
}

// TraceFile returns the trace file name for an attack on a network.
func TraceFile(prefix, network string) string {
	return fmt.Sprintf("%s_%s.txt", prefix, network)
}

// Writer writes every output of a run into one directory.
type Writer struct {
	dir      string
	compress bool
	labels   []int64
	logger   logging.Logger
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithCompression writes the centrality matrices as snappy framed streams.
func WithCompression(compress bool) WriterOption {
	return func(w *Writer) {
		w.compress = compress
	}
}

// WithLabels records the input label of every original index in
// labels.txt.
func WithLabels(labels []int64) WriterOption {
	return func(w *Writer) {
		w.labels = labels
	}
}

// WithLogger sets the writer logger.
func WithLogger(logger logging.Logger) WriterOption {
	return func(w *Writer) {
		w.logger = logger
	}
}

// NewWriter creates dir if needed.
func NewWriter(dir string, opts ...WriterOption) (*Writer, error) {
	w := &Writer{dir: dir}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = logging.OrNop(w.logger)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	return w, nil
}

// Dir returns the output directory.
func (w *Writer) Dir() string {
	return w.dir
}

// WriteRun writes the size distributions, the centrality matrices when
// recorded, every curve, the label map when set, and finally the trace. The
// trace marks a finished run, so it only appears once everything else is in
// place.
func (w *Writer) WriteRun(network string, res *attack.Result, c *percolation.Curves) error {
	timer := logging.StartTimer(w.logger, "write results")

	files := []struct {
		name     string
		compress bool
		skip     bool
		fn       func(io.Writer) error
	}{
		{ComponentSizesFile, false, false, func(out io.Writer) error { return WriteComponentSizes(out, res) }},
		{BetweennessMatrixFile, w.compress, !res.RecordsCentrality(), func(out io.Writer) error {
			return WriteMatrix(out, res.BetweennessMatrix(), res.N0, res.N0)
		}},
		{DegreeMatrixFile, w.compress, !res.RecordsCentrality(), func(out io.Writer) error {
			return WriteMatrix(out, res.DegreeMatrix(), res.N0, res.N0)
		}},
		{FiniteClustersFile, false, false, func(out io.Writer) error { return WriteFiniteClusters(out, c) }},
		{GiantSizesFile, false, false, func(out io.Writer) error { return WriteGiantSizes(out, c) }},
		{BetweennessSpreadFile, false, c.Betweenness == nil, func(out io.Writer) error { return WriteBetweennessSpread(out, c) }},
		{SusceptibilityFile, false, c.Susceptibility == nil, func(out io.Writer) error { return WriteSeries(out, c.Susceptibility) }},
		{OrderParameterFile, false, c.OrderSum == nil, func(out io.Writer) error {
			return WriteColumns(out, "sum spin", c.OrderSum, c.OrderSpin)
		}},
		{DegreeEvolutionFile, false, false, func(out io.Writer) error {
			return WriteColumns(out, "mean std", c.DegreeMean, c.DegreeStd)
		}},
		{ModularityFile, false, !hasValue(c.Modularity), func(out io.Writer) error { return WriteSeries(out, c.Modularity) }},
		{LabelsFile, false, w.labels == nil, func(out io.Writer) error { return WriteLabels(out, w.labels) }},
		{TraceFile(res.Policy.Prefix(), network), false, false, func(out io.Writer) error { return WriteTrace(out, res) }},
	}

	written := 0
	for _, f := range files {
		if f.skip {
			continue
		}
		if err := w.write(f.name, f.compress, f.fn); err != nil {
			timer.EndError(err)
			return err
		}
		written++
	}
	timer.End(logging.Path(w.dir), logging.Count(written))
	return nil
}

// write renders a file in memory and moves it into place atomically.
func (w *Writer) write(name string, compress bool, fn func(io.Writer) error) error {
	var buf bytes.Buffer
	if compress {
		name += CompressedSuffix
		sw := snappy.NewBufferedWriter(&buf)
		if err := fn(sw); err != nil {
			return fmt.Errorf("render %s: %w", name, err)
		}
		if err := sw.Close(); err != nil {
			return fmt.Errorf("compress %s: %w", name, err)
		}
	} else if err := fn(&buf); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}

	path := filepath.Join(w.dir, name)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, buf.Bytes(), filePermissions); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}

// OpenMatrix opens a matrix file written by WriteRun, transparently
// decompressing the .sz variant.
func OpenMatrix(dir, name string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(dir, name+CompressedSuffix))
	if err == nil {
		return struct {
			io.Reader
			io.Closer
		}{snappy.NewReader(f), f}, nil
	}
	if !os.IsNotExist(err) {
		return nil, err
	}
	return os.Open(filepath.Join(dir, name))
}

func hasValue(values []float64) bool {
	for _, v := range values {
		if !math.IsNaN(v) {
			return true
		}
	}
	return false
}
