// Package evolvable holds the demonstration greeter target plus a small
// observability registry used by pkg/applier.
//
// A statically linked Go binary cannot swap a running function's body at
// runtime the way a dynamic-language host could, so "hot reload" (see
// SPEC_FULL.md §4) is implemented by treating the on-disk file as the
// sole source of truth: the post-apply Benchmarker pass and Gate 5 test
// execution always shell out to a fresh `go test`/representative-call
// invocation, so no in-process reload is required for correctness. This
// Registry exists only to bump a per-target touch counter the dashboard
// can report alongside the Historian's generation count.
package evolvable

import "sync/atomic"

// Registry tracks, per target name, how many times the Applier has
// successfully written a new revision to disk.
type Registry struct {
	counters map[string]*atomic.Int64
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{counters: make(map[string]*atomic.Int64)}
}

// Touch increments and returns the touch counter for target, creating
// it on first use.
func (r *Registry) Touch(target string) int64 {
	c, ok := r.counters[target]
	if !ok {
		c = &atomic.Int64{}
		r.counters[target] = c
	}
	return c.Add(1)
}

// Touches returns the current touch count for target without
// incrementing it.
func (r *Registry) Touches(target string) int64 {
	c, ok := r.counters[target]
	if !ok {
		return 0
	}
	return c.Load()
}
