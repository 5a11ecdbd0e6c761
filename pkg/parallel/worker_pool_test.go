package parallel

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dd0wney/cluso-percolation/pkg/logging"
)

func newPool(t testing.TB, workers int, opts ...Option) *WorkerPool {
	t.Helper()
	pool, err := NewWorkerPool(workers, opts...)
	if err != nil {
		t.Fatalf("NewWorkerPool(%d) failed: %v", workers, err)
	}
	return pool
}

// TestWorkerPoolBasicOperations tests basic worker pool functionality
func TestWorkerPoolBasicOperations(t *testing.T) {
	pool := newPool(t, 4)
	defer pool.Close()

	executed := false
	if !pool.Submit(func() { executed = true }) {
		t.Error("Task submission failed")
	}

	if err := pool.Wait(); err != nil {
		t.Fatalf("Wait returned %v", err)
	}
	if !executed {
		t.Error("Task was not executed")
	}
}

func TestWorkerPoolWorkerCount(t *testing.T) {
	tests := []struct {
		name    string
		workers int
		want    int
	}{
		{"zero defaults to one", 0, 1},
		{"negative defaults to one", -5, 1},
		{"one", 1, 1},
		{"many", 64, 64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := newPool(t, tt.workers)
			defer pool.Close()
			if pool.Workers() != tt.want {
				t.Errorf("Workers() = %d, want %d", pool.Workers(), tt.want)
			}
			if cap(pool.taskQueue) != tt.want*2 {
				t.Errorf("queue capacity = %d, want %d", cap(pool.taskQueue), tt.want*2)
			}
		})
	}
}

func TestWorkerPoolOverflow(t *testing.T) {
	_, err := NewWorkerPool(math.MaxInt)
	if !errors.Is(err, ErrTooManyWorkers) {
		t.Errorf("Expected ErrTooManyWorkers, got %v", err)
	}
}

// TestWorkerPoolConcurrentSubmissions tests concurrent task submissions
func TestWorkerPoolConcurrentSubmissions(t *testing.T) {
	pool := newPool(t, 10)

	numTasks := 100
	var counter int64

	var wg sync.WaitGroup
	for i := 0; i < numTasks; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pool.Submit(func() {
				atomic.AddInt64(&counter, 1)
			})
		}()
	}

	wg.Wait()
	pool.Close()

	if counter != int64(numTasks) {
		t.Errorf("Expected counter %d, got %d", numTasks, counter)
	}
}

// TestWorkerPoolCloseRace closes the pool while tasks are being submitted
func TestWorkerPoolCloseRace(t *testing.T) {
	for iteration := 0; iteration < 50; iteration++ {
		pool := newPool(t, 4)

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 10; j++ {
					pool.Submit(func() {
						time.Sleep(time.Millisecond)
					})
				}
			}()
		}

		time.Sleep(2 * time.Millisecond)
		pool.Close()
		wg.Wait()
	}
}

// TestWorkerPoolSubmitAfterClose tests that submissions after close return false
func TestWorkerPoolSubmitAfterClose(t *testing.T) {
	pool := newPool(t, 4)
	pool.Close()

	if pool.Submit(func() { t.Error("This task should never execute") }) {
		t.Error("Task submission after close should return false")
	}
}

// TestWorkerPoolMultipleClose tests that closing multiple times is safe
func TestWorkerPoolMultipleClose(t *testing.T) {
	pool := newPool(t, 4)
	for i := 0; i < 10; i++ {
		pool.Submit(func() {})
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pool.Close()
		}()
	}
	wg.Wait()
	pool.Close()
}

// TestWorkerPoolTaskExecution tests that all submitted tasks execute
func TestWorkerPoolTaskExecution(t *testing.T) {
	pool := newPool(t, 5)

	numTasks := 50
	executed := make([]bool, numTasks)
	for i := 0; i < numTasks; i++ {
		pool.Submit(func() {
			executed[i] = true // each task owns its slot
		})
	}
	pool.Close()

	for i, exec := range executed {
		if !exec {
			t.Errorf("Task %d was not executed", i)
		}
	}
}

// TestWorkerPoolWithPanic tests that panics are recovered and reported
func TestWorkerPoolWithPanic(t *testing.T) {
	var logBuf bytes.Buffer
	pool := newPool(t, 4, WithLogger(logging.NewJSONLogger(&logBuf, logging.InfoLevel)))

	var counter int64
	for i := 0; i < 5; i++ {
		pool.Submit(func() {
			panic("intentional panic")
		})
	}
	for i := 0; i < 10; i++ {
		pool.Submit(func() {
			atomic.AddInt64(&counter, 1)
		})
	}

	err := pool.Wait()
	if !errors.Is(err, ErrTaskPanic) {
		t.Errorf("Wait() = %v, want ErrTaskPanic", err)
	}
	if counter != 10 {
		t.Errorf("Expected counter 10, got %d", counter)
	}
	if !strings.Contains(logBuf.String(), "intentional panic") {
		t.Errorf("panic was not logged: %q", logBuf.String())
	}
}

// BenchmarkWorkerPoolThroughput benchmarks worker pool throughput
func BenchmarkWorkerPoolThroughput(b *testing.B) {
	pool := newPool(b, 10)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		pool.Submit(func() {})
	}
	pool.Close()
}
