package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RunStarted marks an attack run as executing
func (r *Registry) RunStarted() {
	r.RunsInFlight.Inc()
}

// RunFinished records the end of a run with its terminal state
func (r *Registry) RunFinished(policy, state string, duration time.Duration) {
	r.RunsInFlight.Dec()
	r.RunsTotal.WithLabelValues(policy, state).Inc()
	r.RunDuration.WithLabelValues(policy).Observe(duration.Seconds())
}

// JobSkipped records a job whose output already existed
func (r *Registry) JobSkipped(policy string) {
	r.JobsSkippedTotal.WithLabelValues(policy).Inc()
}

// StepRecorded records one removal and the giant fraction it left behind
func (r *Registry) StepRecorded(policy string, giantFraction float64, replayed bool) {
	if replayed {
		r.ReplayedStepsTotal.WithLabelValues(policy).Inc()
	} else {
		r.StepsTotal.WithLabelValues(policy).Inc()
	}
	r.GiantFraction.WithLabelValues(policy).Set(giantFraction)
}

// ReplayDiverged counts a replayed removal that no longer matches the ranking
func (r *Registry) ReplayDiverged(policy string) {
	r.ReplayDivergenceTotal.WithLabelValues(policy).Inc()
}

// CentralityComputed records the time spent on one centrality snapshot
func (r *Registry) CentralityComputed(kind string, duration time.Duration) {
	r.CentralityDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// CheckpointAppended records one removal written to a checkpoint log
func (r *Registry) CheckpointAppended(bytes int) {
	r.CheckpointAppendsTotal.Inc()
	r.CheckpointBytesTotal.Add(float64(bytes))
}

// CheckpointFailed records a checkpoint error
func (r *Registry) CheckpointFailed(operation string) {
	r.CheckpointErrorsTotal.WithLabelValues(operation).Inc()
}

// UpdateSystemMetrics refreshes uptime and Go runtime gauges
func (r *Registry) UpdateSystemMetrics() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.UptimeSeconds.Set(time.Since(r.startTime).Seconds())
	r.GoRoutines.Set(float64(runtime.NumGoroutine()))

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	r.MemoryAllocBytes.Set(float64(m.Alloc))
	r.MemorySysBytes.Set(float64(m.Sys))
}

// Handler returns an http.Handler exposing the registry in the Prometheus
// text format. System gauges are refreshed on every scrape.
func (r *Registry) Handler() http.Handler {
	inner := promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		r.UpdateSystemMetrics()
		inner.ServeHTTP(w, req)
	})
}

// Route mounts an extra handler next to /metrics.
type Route struct {
	Pattern string
	Handler http.Handler
}

// Serve exposes /metrics and routes on addr until ctx is cancelled
func (r *Registry) Serve(ctx context.Context, addr string, routes ...Route) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	for _, route := range routes {
		mux.Handle(route.Pattern, route.Handler)
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	}
}
