// Package bench runs a representative workload against an evolvable
// target and reports time, memory and code-size metrics so two source
// revisions of the same target can be compared. Per spec, this always
// shells out to `go test -bench` against the target's package directory
// on disk — the same mechanism Gate 5 uses to run a candidate's tests —
// rather than dispatching in-process, so a benchmark taken after Apply
// actually measures the newly written source instead of whatever was
// compiled into this binary at process start.
package bench

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/evoctl/evo/pkg/registry"
)

// benchTime bounds the number of representative-call iterations `go
// test -bench` runs per measurement; "x" pins an exact count rather
// than letting the benchmark runner auto-scale for a target duration,
// so successive before/after runs are directly comparable.
const benchTime = "200x"

// benchTimeout bounds the child `go test -bench` invocation, the same
// defensive timeout Gate 5 applies to its own `go test` child process.
const benchTimeout = 60 * time.Second

// Snapshot is a mapping from metric name to numeric value, captured at
// a point in time.
type Snapshot struct {
	ExecutionTimeUs float64
	MemoryBytes     int64
	CodeSizeLines   int
	Timestamp       time.Time
}

// AsMap renders the snapshot as the generic string-keyed map the
// Prompt Builder and Fitness Evaluator operate on.
func (s Snapshot) AsMap() map[string]float64 {
	return map[string]float64{
		"execution_time_us": s.ExecutionTimeUs,
		"memory_bytes":      float64(s.MemoryBytes),
		"code_size_lines":   float64(s.CodeSizeLines),
	}
}

// BenchmarkNames maps each evolvable target to the name of the
// `testing.B` benchmark function, defined alongside that target's own
// tests, that exercises its public surface with canned arguments.
type BenchmarkNames map[registry.TargetName]string

// DefaultBenchmarkNames returns the representative benchmark name for
// every evolvable target.
func DefaultBenchmarkNames() BenchmarkNames {
	return BenchmarkNames{
		registry.TargetFitness: "BenchmarkScore",
		registry.TargetPrompt:  "BenchmarkBuild",
		registry.TargetBench:   "BenchmarkSnapshotAsMap",
		registry.TargetRouter:  "BenchmarkReportSuccess",
		registry.TargetBudget:  "BenchmarkRecord",
		registry.TargetGreeter: "BenchmarkGreet",
	}
}

// Bench runs representative workloads against evolvable targets.
type Bench struct {
	reg   *registry.Registry
	names BenchmarkNames
}

// New returns a Bench rooted at reg, dispatching through names.
func New(reg *registry.Registry, names BenchmarkNames) *Bench {
	return &Bench{reg: reg, names: names}
}

// Run shells out to `go test -run=^$ -bench=<name> -benchmem` in the
// target's package directory and reports the resulting Snapshot. The
// package directory is read straight off disk, so this reflects
// whatever source currently lives there — the installed source for a
// pre-proposal baseline, or the Applier's freshly written file for a
// post-apply pass.
func (b *Bench) Run(target registry.TargetName) (Snapshot, error) {
	name, ok := b.names[target]
	if !ok {
		return Snapshot{}, fmt.Errorf("bench: no representative benchmark registered for target %q", target)
	}

	ctx, cancel := context.WithTimeout(context.Background(), benchTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "go", "test",
		"-run=^$", "-bench=^"+name+"$", "-benchtime="+benchTime, "-benchmem", ".")
	cmd.Dir = b.reg.PackageDir(target)

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return Snapshot{}, fmt.Errorf("bench: running %s for %q: %w\n%s", name, target, err, out.String())
	}

	nsPerOp, bytesPerOp, err := parseBenchOutput(out.String())
	if err != nil {
		return Snapshot{}, err
	}

	lines, err := codeSizeLines(b.reg.SourcePath(target))
	if err != nil {
		return Snapshot{}, err
	}

	return Snapshot{
		ExecutionTimeUs: nsPerOp / 1000,
		MemoryBytes:     int64(bytesPerOp),
		CodeSizeLines:   lines,
		Timestamp:       time.Now(),
	}, nil
}

// benchLineRe matches one `go test -bench -benchmem` result line, e.g.
// "BenchmarkGreet-8   2000000   650 ns/op   32 B/op   2 allocs/op".
// The B/op group is optional: a benchmark with zero allocations per op
// is still reported, just without a B/op column.
var benchLineRe = regexp.MustCompile(`(?m)^Benchmark\S+\s+\d+\s+([\d.]+)\s+ns/op(?:\s+([\d.]+)\s+B/op)?`)

func parseBenchOutput(out string) (nsPerOp, bytesPerOp float64, err error) {
	m := benchLineRe.FindStringSubmatch(out)
	if m == nil {
		return 0, 0, fmt.Errorf("bench: no benchmark result line in output:\n%s", out)
	}
	nsPerOp, err = strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("bench: parsing ns/op: %w", err)
	}
	if m[2] != "" {
		bytesPerOp, _ = strconv.ParseFloat(m[2], 64)
	}
	return nsPerOp, bytesPerOp, nil
}

func codeSizeLines(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("bench: reading source for code size: %w", err)
	}
	if len(data) == 0 {
		return 0, nil
	}
	return strings.Count(string(data), "\n") + boolToInt(!strings.HasSuffix(string(data), "\n")), nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
