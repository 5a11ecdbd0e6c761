package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
	"time"
)

func TestLogLevelString(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{DebugLevel, "DEBUG"},
		{InfoLevel, "INFO"},
		{WarnLevel, "WARN"},
		{ErrorLevel, "ERROR"},
		{Level(42), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.level.String(); got != tt.expected {
				t.Errorf("Level.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
		wantErr  bool
	}{
		{"DEBUG", DebugLevel, false},
		{"debug", DebugLevel, false},
		{"", InfoLevel, false},
		{"info", InfoLevel, false},
		{" WARN ", WarnLevel, false},
		{"warning", WarnLevel, false},
		{"error", ErrorLevel, false},
		{"verbose", InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFieldConstructors(t *testing.T) {
	t.Run("Float64", func(t *testing.T) {
		f := Float64("ratio", 0.5)
		if f.Key != "ratio" || f.Value != 0.5 {
			t.Errorf("Float64() = %+v", f)
		}
	})

	t.Run("Float64_NaN", func(t *testing.T) {
		f := Float64("binder", math.NaN())
		if f.Value != "NaN" {
			t.Errorf("Float64(NaN) = %+v, want string NaN", f)
		}
	})

	t.Run("Float64_Inf", func(t *testing.T) {
		if f := Float64("x", math.Inf(-1)); f.Value != "-Inf" {
			t.Errorf("Float64(-Inf) = %+v", f)
		}
	})

	t.Run("Duration", func(t *testing.T) {
		f := Duration("timeout", 5*time.Second)
		if f.Key != "timeout" || f.Value != "5s" {
			t.Errorf("Duration() = %+v", f)
		}
	})

	t.Run("Error", func(t *testing.T) {
		f := Error(errors.New("test error"))
		if f.Key != "error" || f.Value != "test error" {
			t.Errorf("Error() = %+v", f)
		}
	})

	t.Run("Error_nil", func(t *testing.T) {
		f := Error(nil)
		if f.Key != "error" || f.Value != nil {
			t.Errorf("Error(nil) = %+v", f)
		}
	})

	t.Run("Domain", func(t *testing.T) {
		fields := []struct {
			f   Field
			key string
		}{
			{Run("abc"), "run"},
			{Network("ER_N100"), "network"},
			{Policy("BtwGU"), "policy"},
			{Seed(7), "seed"},
			{Step(3), "step"},
			{OriginalIndex(11), "original_index"},
			{GiantSize(40), "giant_size"},
		}
		for _, tt := range fields {
			if tt.f.Key != tt.key {
				t.Errorf("field key = %q, want %q", tt.f.Key, tt.key)
			}
		}
	})
}

func TestJSONLogger_BasicLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, DebugLevel)

	logger.Info("step recorded", Step(4), OriginalIndex(17))

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to unmarshal log entry: %v", err)
	}

	if entry.Level != "INFO" {
		t.Errorf("Level = %v, want INFO", entry.Level)
	}
	if entry.Message != "step recorded" {
		t.Errorf("Message = %v, want 'step recorded'", entry.Message)
	}
	if entry.Fields["step"] != float64(4) {
		t.Errorf("Fields[step] = %v, want 4", entry.Fields["step"])
	}
	if entry.Time == "" {
		t.Error("Time field is empty")
	}
}

func TestJSONLogger_NaNFieldStillProducesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	logger.Info("finite clusters", Float64("mean", math.NaN()))

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to unmarshal: %v (%s)", err, buf.String())
	}
	if entry.Fields["mean"] != "NaN" {
		t.Errorf("mean = %v, want NaN", entry.Fields["mean"])
	}
}

func TestJSONLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, WarnLevel)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 log entries, got %d", len(lines))
	}

	for i, want := range []string{"WARN", "ERROR"} {
		var entry LogEntry
		if err := json.Unmarshal([]byte(lines[i]), &entry); err != nil {
			t.Fatalf("Failed to unmarshal entry %d: %v", i, err)
		}
		if entry.Level != want {
			t.Errorf("entry %d level = %v, want %v", i, entry.Level, want)
		}
	}

	if logger.Enabled(InfoLevel) {
		t.Error("Enabled(InfoLevel) = true at WarnLevel")
	}
}

func TestJSONLogger_With(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	child := logger.With(Run("r-1"), Policy("DegU"))
	child.Info("removed node", OriginalIndex(3))

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}

	if entry.Fields["run"] != "r-1" {
		t.Errorf("run field = %v, want r-1", entry.Fields["run"])
	}
	if entry.Fields["policy"] != "DegU" {
		t.Errorf("policy field = %v, want DegU", entry.Fields["policy"])
	}
	if entry.Fields["original_index"] != float64(3) {
		t.Errorf("original_index field = %v, want 3", entry.Fields["original_index"])
	}
}

func TestJSONLogger_NoFieldsOmitted(t *testing.T) {
	var buf bytes.Buffer
	NewJSONLogger(&buf, InfoLevel).Info("plain")

	if strings.Contains(buf.String(), "fields") {
		t.Errorf("expected no fields key, got %s", buf.String())
	}
}

func TestTimedOperation(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	timer := StartTimer(logger, "betweenness", Count(10))
	timer.End(GiantSize(8))

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if _, ok := entry.Fields["latency"]; !ok {
		t.Error("latency field missing")
	}
	if entry.Fields["giant_size"] != float64(8) {
		t.Errorf("giant_size = %v, want 8", entry.Fields["giant_size"])
	}

	buf.Reset()
	timer.EndDebug()
	if buf.Len() != 0 {
		t.Errorf("EndDebug wrote at info level: %s", buf.String())
	}
}

func TestDefaultLoggerOverride(t *testing.T) {
	var buf bytes.Buffer
	SetDefaultLogger(NewJSONLogger(&buf, DebugLevel))

	DefaultLogger().Warn("overridden")

	if !strings.Contains(buf.String(), "overridden") {
		t.Errorf("default logger was not replaced: %q", buf.String())
	}
}

func TestOrNop(t *testing.T) {
	if _, ok := OrNop(nil).(NopLogger); !ok {
		t.Error("OrNop(nil) should return NopLogger")
	}
	l := NewJSONLogger(&bytes.Buffer{}, InfoLevel)
	if OrNop(l) != Logger(l) {
		t.Error("OrNop should return the given logger")
	}
}
