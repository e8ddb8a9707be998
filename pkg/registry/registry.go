// Package registry enumerates the fixed set of source files Evo is
// permitted to rewrite. The set, its order and its filesystem paths never
// change at runtime — only the Applier's independent writable-path table
// (see pkg/applier) decides what can actually be written back to disk.
package registry

import "path/filepath"

// TargetName is a stable identifier for one evolvable unit.
type TargetName string

const (
	TargetFitness TargetName = "fitness"
	TargetPrompt  TargetName = "prompt"
	TargetBench   TargetName = "bench"
	TargetRouter  TargetName = "router"
	TargetBudget  TargetName = "budget"
	TargetGreeter TargetName = "greeter"
)

// Target describes one evolvable unit: its stable name plus the
// filesystem paths to its source and its test file.
type Target struct {
	Name       TargetName
	SourcePath string
	TestPath   string
}

// order is the fixed, stable enumeration returned by All. It is never
// reordered at runtime — Select's round-robin depends on this order being
// stable across the process lifetime.
var order = []TargetName{
	TargetFitness,
	TargetPrompt,
	TargetBench,
	TargetRouter,
	TargetBudget,
	TargetGreeter,
}

// paths maps each target to its source/test directory. source_path used
// for reading is trusted; it is never used as the Applier's writable path
// at write time — that is an independent hardcoded table.
var paths = map[TargetName]string{
	TargetFitness: filepath.Join("pkg", "evolvable", "fitness"),
	TargetPrompt:  filepath.Join("pkg", "evolvable", "prompt"),
	TargetBench:   filepath.Join("pkg", "evolvable", "bench"),
	TargetRouter:  filepath.Join("pkg", "evolvable", "router"),
	TargetBudget:  filepath.Join("pkg", "evolvable", "budget"),
	TargetGreeter: filepath.Join("pkg", "evolvable", "greeter"),
}

// sourceFiles names the single rewritable file within each target's
// directory. Evo only ever proposes a rewrite of this one file per
// target; helper/test files in the same directory are untouched.
var sourceFiles = map[TargetName]string{
	TargetFitness: "fitness.go",
	TargetPrompt:  "prompt.go",
	TargetBench:   "bench.go",
	TargetRouter:  "router.go",
	TargetBudget:  "budget.go",
	TargetGreeter: "greeter.go",
}

var testFiles = map[TargetName]string{
	TargetFitness: "fitness_test.go",
	TargetPrompt:  "prompt_test.go",
	TargetBench:   "bench_test.go",
	TargetRouter:  "router_test.go",
	TargetBudget:  "budget_test.go",
	TargetGreeter: "greeter_test.go",
}

// Registry resolves target identifiers to filesystem paths against a
// fixed module root.
type Registry struct {
	root string
}

// New returns a Registry rooted at the given module directory (the
// directory containing go.mod).
func New(root string) *Registry {
	return &Registry{root: root}
}

// All returns the fixed list of targets in stable order.
func (r *Registry) All() []Target {
	out := make([]Target, len(order))
	for i, name := range order {
		out[i] = r.target(name)
	}
	return out
}

// Select returns the target for the given generation number, cycling
// through All() in round-robin order.
func (r *Registry) Select(generation int) Target {
	all := r.All()
	idx := generation % len(all)
	if idx < 0 {
		idx += len(all)
	}
	return all[idx]
}

// SourcePath returns the filesystem path to the target's rewritable
// source file.
func (r *Registry) SourcePath(name TargetName) string {
	return filepath.Join(r.root, paths[name], sourceFiles[name])
}

// PackageDir returns the filesystem directory containing the target's
// source and test files — the directory a `go test` invocation against
// this target must run in.
func (r *Registry) PackageDir(name TargetName) string {
	return filepath.Join(r.root, paths[name])
}

// TestPath returns the filesystem path to the target's test file.
func (r *Registry) TestPath(name TargetName) string {
	return filepath.Join(r.root, paths[name], testFiles[name])
}

// target builds a Target value for name, or a zero-value Target with
// empty paths if name is unknown.
func (r *Registry) target(name TargetName) Target {
	if _, ok := paths[name]; !ok {
		return Target{Name: name}
	}
	return Target{
		Name:       name,
		SourcePath: r.SourcePath(name),
		TestPath:   r.TestPath(name),
	}
}
