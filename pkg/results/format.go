// Package results writes the per-run outputs of an attack as whitespace
// separated text files and reads removal traces back.
package results

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/dd0wney/cluso-percolation/pkg/attack"
	"github.com/dd0wney/cluso-percolation/pkg/percolation"
)

// formatFloat renders v in the shortest form that parses back to v, and NaN
// as "nan".
func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "nan"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// textWriter accumulates the first write error so format functions can be
// written as straight sequences of writes.
type textWriter struct {
	w   *bufio.Writer
	err error
}

func newTextWriter(w io.Writer) *textWriter {
	return &textWriter{w: bufio.NewWriter(w)}
}

func (t *textWriter) printf(format string, args ...any) {
	if t.err == nil {
		_, t.err = fmt.Fprintf(t.w, format, args...)
	}
}

func (t *textWriter) floats(values ...float64) {
	for i, v := range values {
		if i > 0 {
			t.printf(" ")
		}
		t.printf("%s", formatFloat(v))
	}
	t.printf("\n")
}

func (t *textWriter) flush() error {
	if t.err != nil {
		return t.err
	}
	return t.w.Flush()
}

// WriteTrace writes one line per removal: step, original index, relative
// giant size before and after the removal.
func WriteTrace(w io.Writer, res *attack.Result) error {
	t := newTextWriter(w)
	for _, rm := range res.Removals {
		t.printf("%d %d %s %s\n", rm.Step, rm.OriginalIndex,
			formatFloat(rm.RelativeGiant), formatFloat(rm.RelativeGiantAfter))
	}
	return t.flush()
}

// WriteComponentSizes writes one line per step: the step index followed by
// size:count pairs, largest size first.
func WriteComponentSizes(w io.Writer, res *attack.Result) error {
	t := newTextWriter(w)
	for i, dist := range res.Distributions() {
		t.printf("%d", i)
		for _, sc := range dist {
			t.printf(" %d:%d", sc.Size, sc.Count)
		}
		t.printf("\n")
	}
	return t.flush()
}

// WriteMatrix writes matrix row by row, padding to rows × cols with nan.
func WriteMatrix(w io.Writer, matrix [][]float64, rows, cols int) error {
	t := newTextWriter(w)
	row := make([]float64, cols)
	for r := range max(rows, len(matrix)) {
		for c := range row {
			row[c] = math.NaN()
			if r < len(matrix) && c < len(matrix[r]) {
				row[c] = matrix[r][c]
			}
		}
		t.floats(row...)
	}
	return t.flush()
}

// WriteFiniteClusters writes the finite cluster measures, one step per line.
func WriteFiniteClusters(w io.Writer, c *percolation.Curves) error {
	t := newTextWriter(w)
	t.printf("# meanS meanS2 binder binder2 binder3\n")
	for i := range c.MeanS {
		t.floats(c.MeanS[i], c.MeanS2[i], c.Binder[i], c.Binder2[i], c.Binder3[i])
	}
	return t.flush()
}

// WriteGiantSizes writes the giant and second component sizes per step.
func WriteGiantSizes(w io.Writer, c *percolation.Curves) error {
	t := newTextWriter(w)
	t.printf("# Ngcc Nsec\n")
	for i := range c.Ngcc {
		t.printf("%d %d\n", c.Ngcc[i], c.Nsec[i])
	}
	return t.flush()
}

// WriteLabels writes one "oi label" line per original index, mapping the
// indices used by every other output back to the input node labels.
func WriteLabels(w io.Writer, labels []int64) error {
	t := newTextWriter(w)
	t.printf("# oi label\n")
	for oi, label := range labels {
		t.printf("%d %d\n", oi, label)
	}
	return t.flush()
}

// WriteBetweennessSpread writes mean, std, cv and sum of each step's
// betweenness snapshot.
func WriteBetweennessSpread(w io.Writer, c *percolation.Curves) error {
	t := newTextWriter(w)
	t.printf("# mean std cv sum\n")
	for _, sp := range c.Betweenness {
		t.floats(sp.Mean, sp.Std, sp.CV, sp.Sum)
	}
	return t.flush()
}

// WriteSeries writes one value per line.
func WriteSeries(w io.Writer, values []float64) error {
	t := newTextWriter(w)
	for _, v := range values {
		t.floats(v)
	}
	return t.flush()
}

// WriteColumns writes aligned series side by side under a header line.
func WriteColumns(w io.Writer, header string, columns ...[]float64) error {
	t := newTextWriter(w)
	if header != "" {
		t.printf("# %s\n", header)
	}
	rows := 0
	for _, col := range columns {
		rows = max(rows, len(col))
	}
	line := make([]float64, len(columns))
	for r := range rows {
		for c, col := range columns {
			line[c] = math.NaN()
			if r < len(col) {
				line[c] = col[r]
			}
		}
		t.floats(line...)
	}
	return t.flush()
}
