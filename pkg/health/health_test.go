package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestRegisterCheck(t *testing.T) {
	hc := NewHealthChecker()

	called := false
	hc.RegisterCheck("test", func() Check {
		called = true
		return Check{Status: StatusHealthy}
	})

	resp := hc.Check()
	if !called {
		t.Error("registered check was not called")
	}
	check, exists := resp.Checks["test"]
	if !exists {
		t.Fatal("check result not in response")
	}
	if check.Name != "test" {
		t.Errorf("check name = %q, want the registered name", check.Name)
	}
}

func TestChecksAreSeparated(t *testing.T) {
	hc := NewHealthChecker()

	var ready, live int
	hc.RegisterReadinessCheck("ready", func() Check { ready++; return Check{Status: StatusHealthy} })
	hc.RegisterLivenessCheck("live", func() Check { live++; return Check{Status: StatusHealthy} })

	hc.Check()
	if ready != 0 || live != 0 {
		t.Fatalf("Check() ran readiness/liveness checks: ready=%d live=%d", ready, live)
	}
	hc.CheckReadiness()
	hc.CheckLiveness()
	if ready != 1 || live != 1 {
		t.Errorf("ready=%d live=%d, want 1 each", ready, live)
	}
}

func TestWorstStatusWins(t *testing.T) {
	tests := []struct {
		name     string
		statuses []Status
		want     Status
	}{
		{"none", nil, StatusHealthy},
		{"all healthy", []Status{StatusHealthy, StatusHealthy}, StatusHealthy},
		{"one degraded", []Status{StatusHealthy, StatusDegraded}, StatusDegraded},
		{"unhealthy beats degraded", []Status{StatusDegraded, StatusUnhealthy, StatusHealthy}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := NewHealthChecker()
			for i, s := range tt.statuses {
				hc.RegisterCheck(string(rune('a'+i)), func() Check { return Check{Status: s} })
			}
			if got := hc.Check().Status; got != tt.want {
				t.Errorf("status = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestUptime(t *testing.T) {
	hc := NewHealthChecker()
	base := hc.started
	hc.now = func() time.Time { return base.Add(90 * time.Second) }

	if got := hc.Check().Uptime; got != 90*time.Second {
		t.Errorf("uptime = %s, want 1m30s", got)
	}
}

func TestProgressCheck(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	tests := []struct {
		name   string
		active int
		last   time.Time
		want   Status
	}{
		{"idle", 0, time.Time{}, StatusHealthy},
		{"first step pending", 2, time.Time{}, StatusHealthy},
		{"recent step", 1, now.Add(-10 * time.Second), StatusHealthy},
		{"stalled", 1, now.Add(-10 * time.Minute), StatusDegraded},
		{"stalled but idle", 0, now.Add(-10 * time.Minute), StatusHealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := progressCheck(func() (int, time.Time) { return tt.active, tt.last }, time.Minute, clock)()
			if check.Status != tt.want {
				t.Errorf("status = %s (%s), want %s", check.Status, check.Message, tt.want)
			}
			if check.Details["active_attacks"] != tt.active {
				t.Errorf("active_attacks = %v, want %d", check.Details["active_attacks"], tt.active)
			}
		})
	}
}

func TestOutputDirCheck(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out", "nested")

	check := OutputDirCheck(dir)()
	if check.Status != StatusHealthy {
		t.Fatalf("status = %s (%s), want healthy", check.Status, check.Message)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("probe file left behind: %v", entries)
	}
}

func TestOutputDirCheck_NotADirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	if check := OutputDirCheck(file)(); check.Status != StatusUnhealthy {
		t.Errorf("status = %s, want unhealthy", check.Status)
	}
}

func TestStartedCheck(t *testing.T) {
	started := false
	check := StartedCheck(func() bool { return started })

	if got := check().Status; got != StatusUnhealthy {
		t.Errorf("before start: %s, want unhealthy", got)
	}
	started = true
	if got := check().Status; got != StatusHealthy {
		t.Errorf("after start: %s, want healthy", got)
	}
}

func TestMemoryCheck(t *testing.T) {
	tests := []struct {
		alloc, sys uint64
		want       Status
	}{
		{100, 1000, StatusHealthy},
		{950, 1000, StatusDegraded},
		{0, 0, StatusHealthy},
	}
	for _, tt := range tests {
		if got := MemoryCheck(func() (uint64, uint64) { return tt.alloc, tt.sys })().Status; got != tt.want {
			t.Errorf("alloc=%d sys=%d: status = %s, want %s", tt.alloc, tt.sys, got, tt.want)
		}
	}
}

func TestHandlers(t *testing.T) {
	hc := NewHealthChecker()
	hc.RegisterCheck("progress", func() Check { return Check{Status: StatusDegraded} })
	hc.RegisterReadinessCheck("batch", func() Check { return Check{Status: StatusDegraded} })
	hc.RegisterLivenessCheck("alive", func() Check { return Check{Status: StatusHealthy} })

	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    int
	}{
		{"health tolerates degraded", hc.HTTPHandler(), http.StatusOK},
		{"readiness is binary", hc.ReadinessHandler(), http.StatusServiceUnavailable},
		{"liveness", hc.LivenessHandler(), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.handler(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			if rec.Code != tt.want {
				t.Errorf("code = %d, want %d", rec.Code, tt.want)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}
			var resp Response
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(resp.Checks) != 1 {
				t.Errorf("checks = %v, want one", resp.Checks)
			}
		})
	}
}
