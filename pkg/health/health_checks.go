package health

import (
	"fmt"
	"os"
	"time"
)

// OutputDirCheck reports whether results can still be written under dir.
// A missing directory is fine as long as it can be created.
func OutputDirCheck(dir string) CheckFunc {
	return func() Check {
		check := Check{
			Name:    "output_dir",
			Details: map[string]any{"path": dir},
		}

		if err := os.MkdirAll(dir, 0o755); err != nil {
			check.Status = StatusUnhealthy
			check.Message = err.Error()
			return check
		}
		f, err := os.CreateTemp(dir, ".health-*")
		if err != nil {
			check.Status = StatusUnhealthy
			check.Message = err.Error()
			return check
		}
		name := f.Name()
		f.Close()
		os.Remove(name)

		check.Status = StatusHealthy
		check.Message = "Writable"
		return check
	}
}

// ProgressCheck degrades when attacks are running but none has completed a
// step within stall. stall should exceed the slowest expected betweenness
// computation.
func ProgressCheck(getActivity func() (active int, lastStep time.Time), stall time.Duration) CheckFunc {
	return progressCheck(getActivity, stall, time.Now)
}

func progressCheck(getActivity func() (int, time.Time), stall time.Duration, now func() time.Time) CheckFunc {
	return func() Check {
		check := Check{
			Name:    "progress",
			Details: make(map[string]any),
		}

		active, last := getActivity()
		check.Details["active_attacks"] = active

		switch {
		case active == 0:
			check.Status = StatusHealthy
			check.Message = "Idle"
		case last.IsZero():
			check.Status = StatusHealthy
			check.Message = "Waiting for first step"
		default:
			since := now().Sub(last)
			check.Details["since_last_step_seconds"] = since.Seconds()
			if since > stall {
				check.Status = StatusDegraded
				check.Message = fmt.Sprintf("No step for %s", since.Round(time.Second))
			} else {
				check.Status = StatusHealthy
				check.Message = "Stepping"
			}
		}

		return check
	}
}

// StartedCheck is a readiness check that passes once the batch has expanded
// its jobs.
func StartedCheck(started func() bool) CheckFunc {
	return func() Check {
		if started() {
			return Check{Name: "batch", Status: StatusHealthy, Message: "Running"}
		}
		return Check{Name: "batch", Status: StatusUnhealthy, Message: "Not started"}
	}
}

// MemoryCheck creates a health check for memory usage
func MemoryCheck(getUsage func() (alloc, sys uint64)) CheckFunc {
	return func() Check {
		check := Check{
			Name:    "memory",
			Details: make(map[string]any),
		}

		alloc, sys := getUsage()

		check.Details["alloc_bytes"] = alloc
		check.Details["sys_bytes"] = sys

		if sys > 0 && float64(alloc)/float64(sys) > 0.9 {
			check.Status = StatusDegraded
			check.Message = "High memory usage"
		} else {
			check.Status = StatusHealthy
			check.Message = "Memory usage normal"
		}

		return check
	}
}
