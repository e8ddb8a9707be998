// Package applier writes an accepted (or rolled-back) source revision
// to its whitelisted on-disk path. The whitelist is an independent
// hardcoded table — never derived from the Registry's read path — so a
// compromised Proposal can never redirect a write outside the
// evolvable tree.
package applier

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/evoctl/evo/pkg/evolvable"
	"github.com/evoctl/evo/pkg/proposer"
	"github.com/evoctl/evo/pkg/registry"
)

// writePathGuard is the substring every resolved absolute write path
// must contain. Matches spec.md §4.9's "asserts it contains the
// substring evolvable" check.
const writePathGuard = "evolvable"

// whitelist is the sole authority for where the Applier may write. It
// is keyed by target name and deliberately duplicates, rather than
// derives from, pkg/registry's source paths.
var whitelist = map[registry.TargetName]string{
	registry.TargetFitness: filepath.Join("pkg", "evolvable", "fitness", "fitness.go"),
	registry.TargetPrompt:  filepath.Join("pkg", "evolvable", "prompt", "prompt.go"),
	registry.TargetBench:   filepath.Join("pkg", "evolvable", "bench", "bench.go"),
	registry.TargetRouter:  filepath.Join("pkg", "evolvable", "router", "router.go"),
	registry.TargetBudget:  filepath.Join("pkg", "evolvable", "budget", "budget.go"),
	registry.TargetGreeter: filepath.Join("pkg", "evolvable", "greeter", "greeter.go"),
}

// Outcome is the result of a successful Apply or Rollback.
type Outcome string

const (
	OutcomeApplied    Outcome = "applied"
	OutcomeRolledBack Outcome = "rolled_back"
)

// Applier writes accepted or rolled-back proposals to the writable
// whitelist and bumps the observability touch counter.
type Applier struct {
	root  string
	track *evolvable.Registry
}

// New returns an Applier rooted at the module directory containing
// go.mod, tracking touches in track.
func New(root string, track *evolvable.Registry) *Applier {
	return &Applier{root: root, track: track}
}

// Apply writes p.NewSource to the whitelisted path for p.Target,
// purges and "reloads" (bumps the touch counter for) the in-memory
// definition.
func (a *Applier) Apply(p *proposer.Proposal) (Outcome, error) {
	return a.write(p.Target, p.NewSource)
}

// Rollback writes p.OldSource back to the whitelisted path for
// p.Target — the symmetric inverse of Apply.
func (a *Applier) Rollback(p *proposer.Proposal) (Outcome, error) {
	outcome, err := a.write(p.Target, p.OldSource)
	if err != nil {
		return outcome, err
	}
	return OutcomeRolledBack, nil
}

func (a *Applier) write(target registry.TargetName, source string) (Outcome, error) {
	rel, ok := whitelist[target]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrModuleNotInWhitelist, target)
	}

	abs, err := filepath.Abs(filepath.Join(a.root, rel))
	if err != nil {
		return "", &WriteError{Path: rel, Err: err}
	}
	if !strings.Contains(abs, writePathGuard) {
		return "", &PathTraversalError{Path: abs}
	}

	if err := os.WriteFile(abs, []byte(source), 0o644); err != nil {
		return "", &WriteError{Path: abs, Err: err}
	}

	if a.track != nil {
		a.track.Touch(string(target))
	}

	slog.Info("applier: wrote revision", "target", target, "path", abs)
	return OutcomeApplied, nil
}
