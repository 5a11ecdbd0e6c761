package results

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// ErrMalformedTrace is returned for trace lines that cannot be parsed.
var ErrMalformedTrace = errors.New("malformed trace")

// TraceRow is one parsed trace line.
type TraceRow struct {
	Step               int
	OriginalIndex      int
	RelativeGiant      float64
	RelativeGiantAfter float64
}

// ReadTrace parses a trace written by WriteTrace. Lines starting with # and
// blank lines are skipped. Only the first two columns are required; missing
// giant columns read as NaN.
func ReadTrace(r io.Reader) ([]TraceRow, error) {
	var rows []TraceRow
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d: %w: want at least 2 columns", line, ErrMalformedTrace)
		}

		step, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w: step %q", line, ErrMalformedTrace, fields[0])
		}
		oi, err := strconv.Atoi(fields[1])
		if err != nil || oi < 0 {
			return nil, fmt.Errorf("line %d: %w: index %q", line, ErrMalformedTrace, fields[1])
		}
		row := TraceRow{Step: step, OriginalIndex: oi}
		row.RelativeGiant, err = parseColumn(fields, 2)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w: %v", line, ErrMalformedTrace, err)
		}
		row.RelativeGiantAfter, err = parseColumn(fields, 3)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w: %v", line, ErrMalformedTrace, err)
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read trace: %w", err)
	}
	return rows, nil
}

func parseColumn(fields []string, i int) (float64, error) {
	if i >= len(fields) {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(fields[i], 64)
}

// ReadTraceFile reads the trace at path.
func ReadTraceFile(path string) ([]TraceRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := ReadTrace(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

// Order extracts the removal order from trace rows.
func Order(rows []TraceRow) []int {
	out := make([]int, len(rows))
	for i, r := range rows {
		out[i] = r.OriginalIndex
	}
	return out
}
