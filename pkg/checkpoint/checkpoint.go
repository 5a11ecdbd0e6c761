// Package checkpoint persists the removal order of an attack run so that an
// interrupted run can be resumed by replaying it on a freshly loaded graph.
//
// The log is append-only. Every entry is snappy compressed and carries a CRC32
// of its compressed payload; the first entry is a header naming the run the log
// belongs to.
package checkpoint

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/dd0wney/cluso-percolation/pkg/logging"
)

// FileName is the name of the log inside its directory.
const FileName = "removals.log"

var (
	// ErrCorrupt is returned when an entry fails its checksum or cannot be decoded.
	ErrCorrupt = errors.New("checkpoint corrupt")

	// ErrHeaderMismatch is returned when an existing log belongs to a different run.
	ErrHeaderMismatch = errors.New("checkpoint belongs to a different run")

	// ErrClosed is returned by operations on a closed log.
	ErrClosed = errors.New("checkpoint closed")
)

// Header identifies the run a log belongs to.
type Header struct {
	Policy string // attack prefix, e.g. BtwGU
	N0     int
	Seed   uint64
}

// Recorder receives checkpoint activity; *metrics.Registry satisfies it.
type Recorder interface {
	CheckpointAppended(bytes int)
	CheckpointFailed(operation string)
}

type nopRecorder struct{}

func (nopRecorder) CheckpointAppended(int)  {}
func (nopRecorder) CheckpointFailed(string) {}

// Option configures a Log.
type Option func(*Log)

// WithLogger sets the logger used for recovery warnings.
func WithLogger(logger logging.Logger) Option {
	return func(l *Log) {
		l.logger = logger
	}
}

// WithRecorder reports appends and failures to r.
func WithRecorder(r Recorder) Option {
	return func(l *Log) {
		l.recorder = r
	}
}

// WithoutSync skips the fsync after each append. A crash may then lose the
// most recent removals, which a resumed run simply recomputes.
func WithoutSync() Option {
	return func(l *Log) {
		l.sync = false
	}
}

// Log is an on-disk removal log.
type Log struct {
	path     string
	file     *os.File
	writer   *bufio.Writer
	header   Header
	removals []int
	sync     bool
	closed   bool
	mu       sync.Mutex

	logger   logging.Logger
	recorder Recorder

	// Statistics
	bytesUncompressed uint64
	bytesCompressed   uint64
}

// Stats holds compression statistics for the entries written by this process.
type Stats struct {
	Entries           int
	BytesUncompressed uint64
	BytesCompressed   uint64
}

// Open opens or creates the log in dir. An existing log must carry the same
// header; its removals are recovered and available through Removals. A torn
// final entry, left by a crash during append, is discarded.
func Open(dir string, header Header, opts ...Option) (*Log, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create checkpoint directory: %w", err)
	}

	l := &Log{
		path:   filepath.Join(dir, FileName),
		header: header,
		sync:   true,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = logging.OrNop(l.logger)
	if l.recorder == nil {
		l.recorder = nopRecorder{}
	}

	existing, err := l.recover()
	if err != nil {
		l.recorder.CheckpointFailed("recover")
		return nil, err
	}

	file, err := os.OpenFile(l.path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open checkpoint: %w", err)
	}
	l.file = file
	l.writer = bufio.NewWriter(file)

	if !existing {
		if err := l.writeHeader(); err != nil {
			file.Close()
			return nil, err
		}
	}
	return l, nil
}

// Path returns the log file path.
func (l *Log) Path() string {
	return l.path
}

// Header returns the header the log was opened with.
func (l *Log) Header() Header {
	return l.header
}

// Removals returns the original indices recorded so far, in removal order.
func (l *Log) Removals() []int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.removals)
}

// Append records one removal.
func (l *Log) Append(oi int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrClosed
	}
	if oi < 0 || oi >= l.header.N0 {
		return fmt.Errorf("append %d: original index outside 0..%d", oi, l.header.N0-1)
	}

	n, err := l.writeEntry(kindRemoval, encodeRemoval(oi))
	if err != nil {
		l.recorder.CheckpointFailed("append")
		return fmt.Errorf("append removal %d: %w", oi, err)
	}
	l.removals = append(l.removals, oi)
	l.recorder.CheckpointAppended(n)
	return nil
}

// Truncate discards every recorded removal, keeping the header.
func (l *Log) Truncate() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrClosed
	}
	l.writer.Flush()
	l.file.Close()

	file, err := os.OpenFile(l.path, os.O_RDWR|os.O_CREATE|os.O_TRUNC|os.O_APPEND, 0o644)
	if err != nil {
		l.recorder.CheckpointFailed("truncate")
		l.closed = true
		return fmt.Errorf("truncate checkpoint: %w", err)
	}
	l.file = file
	l.writer = bufio.NewWriter(file)
	l.removals = nil

	return l.writeHeader()
}

// Close flushes and closes the log.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true

	if err := l.writer.Flush(); err != nil {
		l.file.Close()
		return err
	}
	if err := l.file.Sync(); err != nil {
		l.file.Close()
		return err
	}
	return l.file.Close()
}

// Stats returns compression statistics.
func (l *Log) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()

	return Stats{
		Entries:           len(l.removals),
		BytesUncompressed: l.bytesUncompressed,
		BytesCompressed:   l.bytesCompressed,
	}
}

func (l *Log) writeHeader() error {
	if _, err := l.writeEntry(kindHeader, encodeHeader(l.header)); err != nil {
		l.recorder.CheckpointFailed("header")
		return fmt.Errorf("write checkpoint header: %w", err)
	}
	return nil
}

// recover reads an existing log, reporting whether one was found.
func (l *Log) recover() (bool, error) {
	file, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("open checkpoint: %w", err)
	}
	defer file.Close()

	contents, err := readEntries(file)
	if err != nil {
		return false, fmt.Errorf("%s: %w", l.path, err)
	}
	if contents.header == nil {
		// Empty file or a header that never made it to disk
		if err := os.Truncate(l.path, 0); err != nil {
			return false, fmt.Errorf("reset checkpoint: %w", err)
		}
		return false, nil
	}
	if *contents.header != l.header {
		return false, fmt.Errorf("%w: log has %+v, run is %+v", ErrHeaderMismatch, *contents.header, l.header)
	}
	for _, oi := range contents.removals {
		if oi < 0 || oi >= l.header.N0 {
			return false, fmt.Errorf("%w: removal %d outside 0..%d", ErrCorrupt, oi, l.header.N0-1)
		}
	}

	if contents.torn {
		l.logger.Warn("discarding torn checkpoint entry",
			logging.Path(l.path),
			logging.Int("valid_bytes", int(contents.validBytes)))
		if err := os.Truncate(l.path, contents.validBytes); err != nil {
			return false, fmt.Errorf("drop torn entry: %w", err)
		}
	}

	l.removals = contents.removals
	return true, nil
}
