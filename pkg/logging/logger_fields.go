package logging

import (
	"math"
	"time"
)

// Common field constructors
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Uint64(key string, value uint64) Field {
	return Field{Key: key, Value: value}
}

// Float64 records a float; NaN and infinities are stored as strings because
// JSON has no encoding for them.
func Float64(key string, value float64) Field {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return Field{Key: key, Value: formatSpecial(value)}
	}
	return Field{Key: key, Value: value}
}

func formatSpecial(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case v > 0:
		return "+Inf"
	default:
		return "-Inf"
	}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

func Any(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Domain field helpers

func Component(name string) Field {
	return String("component", name)
}

func Run(id string) Field {
	return String("run", id)
}

func Network(name string) Field {
	return String("network", name)
}

func Policy(prefix string) Field {
	return String("policy", prefix)
}

func Seed(seed uint64) Field {
	return Uint64("seed", seed)
}

func Step(step int) Field {
	return Int("step", step)
}

// OriginalIndex identifies a node by the index it received at load time.
func OriginalIndex(oi int) Field {
	return Int("original_index", oi)
}

func GiantSize(n int) Field {
	return Int("giant_size", n)
}

func Latency(d time.Duration) Field {
	return Duration("latency", d)
}

func Count(n int) Field {
	return Int("count", n)
}

func Path(p string) Field {
	return String("path", p)
}
