// Package historian persists Generation Records and produces a
// version-control checkpoint for each one. Persistence happens first;
// if the checkpoint then fails, the database row is left un-checkpointed
// rather than un-recorded — inverting the order would risk a committed
// file with no corresponding row. A failed checkpoint is logged, not
// propagated as a cycle failure: the accepted code is already live on
// disk by the time the Historian runs.
package historian

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"regexp"
	"strings"

	"github.com/evoctl/evo/pkg/database"
	"github.com/evoctl/evo/pkg/mask"
)

// maxCommitFieldLength bounds each sanitized commit-message fragment.
const maxCommitFieldLength = 500

// safeCharset is the allowlist of characters permitted in a sanitized
// commit-message fragment: alphanumerics, whitespace, and a short list
// of punctuation. Anything else is stripped before interpolation.
var safeCharset = regexp.MustCompile(`[^a-zA-Z0-9\s.,:;_/()\-]`)

// Attrs are the fields of one Generation Record to persist.
type Attrs struct {
	GenerationNumber int64
	TargetName       string
	Status           database.GenerationStatus
	FitnessScore     float64
	ModelTag         string
	TokensIn         int
	TokensOut        int
	Reasoning        string
	OldSource        string
	NewSource        string
}

// Historian persists Generation Records and checkpoints accepted
// changes into version control.
type Historian struct {
	db      *database.Client
	workDir string // git checkpoint working directory
}

// New returns a Historian backed by db, running git commands rooted at
// workDir.
func New(db *database.Client, workDir string) *Historian {
	return &Historian{db: db, workDir: workDir}
}

// Record persists attrs as a new Generation Record, then stages and
// commits the evolvable directory as a checkpoint. attrs.Reasoning is
// passed through pkg/mask first, since it is free text from the model
// and the only field here that can plausibly carry a leaked secret —
// OldSource/NewSource are Go source and are stored as-is. The
// checkpoint step is best-effort: its error is returned to the caller
// (the Evolver), which logs it and does not fail the overall cycle.
func (h *Historian) Record(ctx context.Context, attrs Attrs) error {
	attrs.Reasoning = mask.Redact(attrs.Reasoning)

	_, err := h.db.InsertGeneration(ctx, database.Generation{
		GenerationNumber: attrs.GenerationNumber,
		TargetName:       attrs.TargetName,
		Status:           attrs.Status,
		FitnessScore:     attrs.FitnessScore,
		ModelTag:         attrs.ModelTag,
		TokensIn:         attrs.TokensIn,
		TokensOut:        attrs.TokensOut,
		Reasoning:        attrs.Reasoning,
		OldSource:        attrs.OldSource,
		NewSource:        attrs.NewSource,
	})
	if err != nil {
		return fmt.Errorf("historian: persisting generation %d: %w", attrs.GenerationNumber, err)
	}

	if err := h.checkpoint(ctx, attrs); err != nil {
		slog.Warn("historian: checkpoint failed, generation row persisted regardless",
			"generation", attrs.GenerationNumber, "error", err)
		return err
	}
	return nil
}

// checkpoint stages the evolvable directory and commits with an
// allow-empty flag, so a "nothing to commit" outcome (e.g. a rejected
// or error generation that never touched disk) still counts as
// success. Arguments are sanitized and passed after an explicit `--`
// separator so no field can be interpreted as a flag.
func (h *Historian) checkpoint(ctx context.Context, attrs Attrs) error {
	addOut, err := h.run(ctx, "add", "--", "pkg/evolvable")
	if err != nil {
		return &GitAddError{Output: addOut, Err: err}
	}

	message := commitMessage(attrs)
	commitOut, err := h.run(ctx, "commit", "--allow-empty", "-m", message, "--")
	if err != nil {
		return &GitCommitError{Output: commitOut, Err: err}
	}
	return nil
}

func (h *Historian) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = h.workDir

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	return out.String(), err
}

// commitMessage builds the checkpoint message from sanitized fragments.
// Each interpolated field is sanitized independently before being
// placed into the fixed template; the template's own newline is not
// user-controlled and is left intact.
func commitMessage(attrs Attrs) string {
	target := sanitize(attrs.TargetName)
	status := sanitize(string(attrs.Status))
	reasoning := sanitize(attrs.Reasoning)

	return fmt.Sprintf("evo: generation %d target=%s status=%s score=%.4f\n\n%s",
		attrs.GenerationNumber, target, status, attrs.FitnessScore, reasoning)
}

// sanitize strips any character outside the safe set, collapses
// newlines into single spaces, and truncates to maxCommitFieldLength.
func sanitize(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = safeCharset.ReplaceAllString(s, "")
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > maxCommitFieldLength {
		s = s[:maxCommitFieldLength]
	}
	return s
}
