// Package status holds the status line and run counters shared between the
// reveal engine, the frame loop and the renderers.
package status

import (
	"log/slog"
	"sync/atomic"
)

// Well-known keys
const (
	KeyStatus   = "reveal.status"
	KeyState    = "reveal.state"
	KeyTiles    = "reveal.tiles"
	KeyRevealed = "reveal.revealed"
	KeyRuns     = "reveal.runs"
	KeyProgress = "reveal.progress"
	KeyFrames   = "loop.frames"
	KeyMuted    = "audio.muted"
)

// Registry is the central metrics facade
// Writers cache pointers during init and store directly to atomics
type Registry struct {
	Bools   *MetricMap[atomic.Bool]
	Ints    *MetricMap[atomic.Int64]
	Floats  *MetricMap[AtomicFloat]
	Strings *MetricMap[AtomicString]
}

// NewRegistry creates an initialized Registry
func NewRegistry() *Registry {
	return &Registry{
		Bools:   NewMetricMap[atomic.Bool](),
		Ints:    NewMetricMap[atomic.Int64](),
		Floats:  NewMetricMap[AtomicFloat](),
		Strings: NewMetricMap[AtomicString](),
	}
}

// Status returns the status line sink
func (r *Registry) Status() *AtomicString {
	return r.Strings.Get(KeyStatus)
}

// TotalCount returns total metrics across all types
func (r *Registry) TotalCount() int {
	return r.Bools.Count() + r.Ints.Count() + r.Floats.Count() + r.Strings.Count()
}

// Snapshot is a point-in-time copy of the values a renderer needs
type Snapshot struct {
	Status   string
	State    string
	Tiles    int64
	Revealed int64
	Progress float64
	Runs     int64
	Frames   int64
}

// Snapshot reads the well-known keys
func (r *Registry) Snapshot() Snapshot {
	return Snapshot{
		Status:   r.Strings.Get(KeyStatus).Load(),
		State:    r.Strings.Get(KeyState).Load(),
		Tiles:    r.Ints.Get(KeyTiles).Load(),
		Revealed: r.Ints.Get(KeyRevealed).Load(),
		Progress: r.Floats.Get(KeyProgress).Get(),
		Runs:     r.Ints.Get(KeyRuns).Load(),
		Frames:   r.Ints.Get(KeyFrames).Load(),
	}
}

// LogValue implements slog.LogValuer, emitting every registered metric as one group
func (r *Registry) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, r.TotalCount())
	r.Bools.Range(func(k string, v *atomic.Bool) { attrs = append(attrs, slog.Bool(k, v.Load())) })
	r.Ints.Range(func(k string, v *atomic.Int64) { attrs = append(attrs, slog.Int64(k, v.Load())) })
	r.Floats.Range(func(k string, v *AtomicFloat) { attrs = append(attrs, slog.Float64(k, v.Get())) })
	r.Strings.Range(func(k string, v *AtomicString) { attrs = append(attrs, slog.String(k, v.Load())) })
	return slog.GroupValue(attrs...)
}
