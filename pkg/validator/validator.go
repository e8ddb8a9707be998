// Package validator is the safety core: a five-gate pipeline deciding
// whether a proposed rewrite is safe to apply. Gates run in order and
// the first failure short-circuits — syntactic parsing and AST
// inspection must precede any execution of the candidate.
package validator

import (
	"log/slog"

	"github.com/evoctl/evo/pkg/proposer"
)

// Result is the outcome of validating one Proposal.
type Result struct {
	OK          bool
	Rejection   *Rejection
	Compiled    bool
	TestsPassed bool
}

// Validator runs the five-gate safety pipeline.
type Validator struct {
	selfImportPrefix string
	moduleRoot       string
}

// New returns a Validator. selfImportPrefix is the evolvable packages'
// import path prefix (e.g. "github.com/evoctl/evo/pkg/evolvable"); it is
// stored on the Validator, while Gate 2 recognizes a rewrite importing
// its own evolvable package through Validate's selfImportPath. moduleRoot is
// the directory containing go.mod, used by Gate 5 to stage a scratch
// copy of the module for the candidate to be tested in.
func New(selfImportPrefix, moduleRoot string) *Validator {
	return &Validator{selfImportPrefix: selfImportPrefix, moduleRoot: moduleRoot}
}

// Validate runs all five gates against p. sourcePath is the on-disk
// path to the target's current source file (used, together with
// moduleRoot, to stage the candidate for Gate 5 — sourcePath itself is
// never written to); selfImportPath is this target's own full import
// path.
func (v *Validator) Validate(p *proposer.Proposal, sourcePath, selfImportPath string) Result {
	log := slog.With("target", p.Target)

	// Gate 1 — size limit.
	if rej := sizeLimit(p.OldSource, p.NewSource); rej != nil {
		log.Warn("validator: gate 1 rejected", "reason", rej.Reason)
		return fail(rej)
	}

	// Gate 2 — AST allowlist walk.
	rej, file := astAllowlistWalk(p.NewSource, selfImportPath)
	if rej != nil {
		log.Warn("validator: gate 2 rejected", "reason", rej.Reason)
		return fail(rej)
	}

	// Gate 3 — module-level side-effect scan.
	if rej := moduleLevelSideEffectScan(file); rej != nil {
		log.Warn("validator: gate 3 rejected", "reason", rej.Reason)
		return fail(rej)
	}

	// Gate 4 — compilation.
	fset, compiledFile, rej := reparseForTypeCheck(p.NewSource)
	if rej != nil {
		log.Warn("validator: gate 4 rejected (reparse)", "reason", rej.Reason)
		return fail(rej)
	}
	if rej := compileCheck(fset, compiledFile); rej != nil {
		log.Warn("validator: gate 4 rejected", "reason", rej.Reason)
		return fail(rej)
	}

	// Gate 5 — test execution, against a staged copy of the candidate.
	// The real source file on disk is never touched here; only Apply,
	// called strictly after a passing Validate, writes NewSource to
	// sourcePath.
	stagedDir, cleanup, err := stageCandidate(v.moduleRoot, sourcePath, p.NewSource)
	if err != nil {
		rej := testExecutionFailed(err)
		log.Warn("validator: gate 5 rejected (staging)", "reason", rej.Reason)
		return Result{OK: false, Rejection: rej, Compiled: true}
	}
	defer cleanup()

	if rej := runTests(stagedDir); rej != nil {
		log.Warn("validator: gate 5 rejected", "reason", rej.Reason)
		return Result{OK: false, Rejection: rej, Compiled: true, TestsPassed: false}
	}

	log.Info("validator: all gates passed")
	return Result{OK: true, Compiled: true, TestsPassed: true}
}

func fail(rej *Rejection) Result {
	return Result{OK: false, Rejection: rej}
}
