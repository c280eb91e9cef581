package common

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"
)

// StageRecorder accumulates named stage durations for one logical operation,
// e.g. the per-strategy timings of an extraction run. Safe for concurrent
// recording.
type StageRecorder struct {
	mu     sync.Mutex
	stages []Stage
}

// Stage is one recorded span.
type Stage struct {
	Name     string
	Duration time.Duration
}

// NewStageRecorder returns an empty recorder.
func NewStageRecorder() *StageRecorder {
	return &StageRecorder{}
}

// Record adds one stage measurement.
func (r *StageRecorder) Record(name string, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages = append(r.stages, Stage{Name: name, Duration: d})
}

// Time runs fn and records its duration under name.
func (r *StageRecorder) Time(name string, fn func()) {
	t := NewNamedTimer(name)
	fn()
	r.Record(name, t.Stop())
}

// Stages returns a copy of the recorded stages in insertion order.
func (r *StageRecorder) Stages() []Stage {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Stage, len(r.stages))
	copy(out, r.stages)
	return out
}

// Total returns the sum of all recorded durations.
func (r *StageRecorder) Total() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total time.Duration
	for _, s := range r.stages {
		total += s.Duration
	}
	return total
}

// LogAttrs renders the stages as slog attributes, slowest first.
func (r *StageRecorder) LogAttrs() []slog.Attr {
	stages := r.Stages()
	sort.Slice(stages, func(i, j int) bool { return stages[i].Duration > stages[j].Duration })
	attrs := make([]slog.Attr, 0, len(stages))
	for _, s := range stages {
		attrs = append(attrs, slog.Duration(s.Name, s.Duration))
	}
	return attrs
}

func (r *StageRecorder) String() string {
	stages := r.Stages()
	parts := make([]string, 0, len(stages))
	for _, s := range stages {
		parts = append(parts, fmt.Sprintf("%s=%v", s.Name, s.Duration))
	}
	return strings.Join(parts, " ")
}
