// Package prompt assembles the natural-language request sent to the
// LLM. Build is a pure function of its inputs: no network, no I/O.
package prompt

import (
	"fmt"
	"sort"
	"strings"
)

// forbidden lists the constructs the response-format contract tells the
// model never to use, mirroring the Validator's own denylist so a
// compliant model rarely trips Gate 2.
var forbidden = []string{
	"os/exec", "syscall", "plugin", "net", "net/rpc", "unsafe",
	"os.Exit", "os.Remove", "os.RemoveAll",
	"go statements (goroutine spawn)",
	"//go:linkname directives",
}

// Request bundles the inputs to Build.
type Request struct {
	TargetName    string
	CurrentSource string
	Benchmarks    any // map[string]float64 in the common case

	// Guidelines is an optional house-style document, included verbatim
	// when non-empty. Supplements spec.md's Prompt Builder inputs; see
	// pkg/guidelines.
	Guidelines string
}

// Build renders a single text blob: target identity, current source, a
// readable benchmark rendering, optional house-style guidelines, the
// forbidden-construct list, and the response-format contract (one
// fenced code block followed by a single "Reasoning:" line).
func Build(req Request) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Target: %s\n\n", req.TargetName)
	fmt.Fprintf(&b, "Current source:\n```go\n%s\n```\n\n", req.CurrentSource)
	fmt.Fprintf(&b, "Latest benchmarks:\n%s\n\n", formatBenchmarks(req.Benchmarks))
	if req.Guidelines != "" {
		fmt.Fprintf(&b, "House coding guidelines:\n%s\n\n", req.Guidelines)
	}
	fmt.Fprintf(&b, "Forbidden constructs (any use of these will reject the rewrite):\n")
	for _, f := range forbidden {
		fmt.Fprintf(&b, "- %s\n", f)
	}
	b.WriteString("\nRespond with exactly one fenced Go code block containing the complete " +
		"replacement source, followed by a single line starting with \"Reasoning:\" " +
		"explaining the change.\n")

	return b.String()
}

// formatBenchmarks renders a one-key-value-per-line block. An empty map
// yields an empty block; a non-map input yields a fixed fallback
// string.
func formatBenchmarks(benchmarks any) string {
	m, ok := benchmarks.(map[string]float64)
	if !ok {
		return "(no benchmark data available)"
	}
	if len(m) == 0 {
		return ""
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %g\n", k, m[k])
	}
	return strings.TrimRight(b.String(), "\n")
}
