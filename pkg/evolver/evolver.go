// Package evolver is the orchestrator: a sequential state machine that
// sequences one generation at a time through benchmark, propose,
// validate, apply, re-benchmark, fitness, and history. Generations
// never run concurrently — two simultaneous rewrites of the same
// target would race on disk, so the cycle is a single-writer loop
// guarded by its own mutex, the same single-actor shape the teacher
// uses for its long-lived session/orchestrator state.
package evolver

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/evoctl/evo/pkg/applier"
	"github.com/evoctl/evo/pkg/database"
	"github.com/evoctl/evo/pkg/events"
	"github.com/evoctl/evo/pkg/evolvable/bench"
	"github.com/evoctl/evo/pkg/evolvable/fitness"
	"github.com/evoctl/evo/pkg/evolvable/prompt"
	"github.com/evoctl/evo/pkg/evolvable/router"
	"github.com/evoctl/evo/pkg/guidelines"
	"github.com/evoctl/evo/pkg/historian"
	"github.com/evoctl/evo/pkg/proposer"
	"github.com/evoctl/evo/pkg/registry"
	"github.com/evoctl/evo/pkg/validator"
)

// cycleDeadline bounds how long one run_once call may take before its
// caller gives up waiting — the dashboard-layer deadline from
// spec.md §5.
const cycleDeadline = 5 * time.Minute

// Recorder persists a completed cycle's Generation Record. Implemented
// by *historian.Historian; narrowed to an interface so tests can
// substitute an in-memory fake instead of a live Postgres instance.
type Recorder interface {
	Record(ctx context.Context, attrs historian.Attrs) error
}

// Result records the outcome of the most recently completed cycle.
type Result struct {
	Generation int64                     `json:"generation"`
	Target     registry.TargetName       `json:"target"`
	Status     database.GenerationStatus `json:"status"`
	Score      float64                   `json:"score"`
	Err        error                     `json:"error,omitempty"`
}

// Status is a point-in-time snapshot of the Evolver's state.
type Status struct {
	Generation int64         `json:"generation"`
	Running    bool          `json:"running"`
	Interval   time.Duration `json:"interval_ns"`
	Accepted   int64         `json:"accepted"`
	Rejected   int64         `json:"rejected"`
	AcceptRate float64       `json:"accept_rate"`
	LastResult Result        `json:"last_result"`
	HasLastRun bool          `json:"has_last_run"`
}

// Evolver sequences the evolution cycle and owns the process-wide
// generation counter. All methods are safe for concurrent use; the
// cycle itself never runs concurrently with another cycle.
type Evolver struct {
	mu sync.Mutex

	reg              *registry.Registry
	bencher          *bench.Bench
	prop             *proposer.Proposer
	valid            *validator.Validator
	apply            *applier.Applier
	hist             Recorder
	rt               *router.Router
	guide            *guidelines.Service
	broker           *events.Broker
	selfImportPrefix string
	fitnessWeights   fitness.Weights
	fitnessThreshold float64

	generation int64
	running    bool
	interval   time.Duration
	accepted   int64
	rejected   int64
	lastResult Result
	hasLast    bool

	timer *time.Timer
}

// Deps bundles the collaborators an Evolver orchestrates.
type Deps struct {
	Registry         *registry.Registry
	Bench            *bench.Bench
	Proposer         *proposer.Proposer
	Validator        *validator.Validator
	Applier          *applier.Applier
	Historian        Recorder
	Router           *router.Router
	Guidelines       *guidelines.Service
	Broker           *events.Broker
	SelfImportPrefix string
	FitnessWeights   fitness.Weights
	FitnessThreshold float64
}

// New returns an Evolver wired to deps, starting at generation 0 with
// running set to startFlag (spec.md §4.11's initial state). A zero-value
// FitnessWeights or FitnessThreshold in deps falls back to
// fitness.DefaultWeights/fitness.DefaultThreshold, so callers that don't
// care about the config-driven override (tests, mainly) get the spec
// defaults for free.
func New(deps Deps, interval time.Duration, startFlag bool) *Evolver {
	weights := deps.FitnessWeights
	if weights == (fitness.Weights{}) {
		weights = fitness.DefaultWeights
	}
	threshold := deps.FitnessThreshold
	if threshold == 0 {
		threshold = fitness.DefaultThreshold
	}

	e := &Evolver{
		reg:              deps.Registry,
		bencher:          deps.Bench,
		prop:             deps.Proposer,
		valid:            deps.Validator,
		apply:            deps.Applier,
		hist:             deps.Historian,
		rt:               deps.Router,
		guide:            deps.Guidelines,
		broker:           deps.Broker,
		selfImportPrefix: deps.SelfImportPrefix,
		fitnessWeights:   weights,
		fitnessThreshold: threshold,
		interval:         interval,
	}
	if startFlag {
		e.Resume()
	}
	return e
}

// RunOnce executes exactly one cycle, synchronously, regardless of the
// running flag. Bounded by cycleDeadline.
func (e *Evolver) RunOnce(ctx context.Context) Result {
	ctx, cancel := context.WithTimeout(ctx, cycleDeadline)
	defer cancel()

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.runCycleLocked(ctx)
}

// Pause cancels any armed timer and sets running to false. Pause never
// cancels an in-flight cycle — cancellation is cooperative at
// boundaries, not preemptive.
func (e *Evolver) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.running = false
	e.cancelTimerLocked()
}

// Resume sets running to true and arms the periodic tick.
func (e *Evolver) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.running = true
	e.armTimerLocked()
}

// Status returns a snapshot of the Evolver's state.
func (e *Evolver) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	total := e.accepted + e.rejected
	var rate float64
	if total > 0 {
		rate = float64(e.accepted) / float64(total)
	}

	return Status{
		Generation: e.generation,
		Running:    e.running,
		Interval:   e.interval,
		Accepted:   e.accepted,
		Rejected:   e.rejected,
		AcceptRate: rate,
		LastResult: e.lastResult,
		HasLastRun: e.hasLast,
	}
}

// armTimerLocked schedules the next tick. Must be called with mu held.
func (e *Evolver) armTimerLocked() {
	e.cancelTimerLocked()
	e.timer = time.AfterFunc(e.interval, e.onTick)
}

// cancelTimerLocked stops any armed timer. Must be called with mu held.
func (e *Evolver) cancelTimerLocked() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}

// onTick fires on the timer's own goroutine. If running, it executes
// one cycle then re-arms; if paused in the meantime, it does nothing.
// The periodic tick never re-enters while a cycle is in progress — it
// blocks on the same mutex RunOnce uses.
func (e *Evolver) onTick() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), cycleDeadline)
	e.runCycleLocked(ctx)
	cancel()

	if e.running {
		e.timer = time.AfterFunc(e.interval, e.onTick)
	}
}

// runCycleLocked executes one full generation. Caller must hold mu.
func (e *Evolver) runCycleLocked(ctx context.Context) Result {
	gen := e.generation
	target := e.reg.Select(int(gen))
	log := slog.With("generation", gen, "target", target.Name)

	result := Result{Generation: gen, Target: target.Name}
	defer func() {
		e.generation++
		e.lastResult = result
		e.hasLast = true
	}()

	before, err := e.bencher.Run(target.Name)
	if err != nil {
		log.Warn("evolver: pre-benchmark failed", "error", err)
		result.Status, result.Err = database.StatusError, err
		e.recordLocked(ctx, gen, target.Name, result, proposer.Proposal{}, 0)
		return result
	}

	currentSource, err := os.ReadFile(target.SourcePath)
	if err != nil {
		log.Warn("evolver: reading current source for prompt failed", "error", err)
		result.Status, result.Err = database.StatusError, err
		e.recordLocked(ctx, gen, target.Name, result, proposer.Proposal{}, 0)
		return result
	}

	guidelinesText, _ := e.guide.Content(ctx)
	promptText := prompt.Build(prompt.Request{
		TargetName:    string(target.Name),
		CurrentSource: string(currentSource),
		Benchmarks:    before.AsMap(),
		Guidelines:    guidelinesText,
	})

	prop, err := e.prop.Propose(ctx, target, promptText)
	if err != nil {
		log.Warn("evolver: proposal failed", "error", err)
		result.Status, result.Err = database.StatusError, err
		e.rt.ReportFailure()
		e.rejected++
		e.recordLocked(ctx, gen, target.Name, result, proposer.Proposal{}, 0)
		return result
	}

	vr := e.valid.Validate(prop, target.SourcePath, e.selfImportPrefix+"/"+string(target.Name))
	if !vr.OK {
		log.Warn("evolver: validation rejected", "reason", vr.Rejection.Error())
		result.Status, result.Err = database.StatusRejectedValidation, vr.Rejection
		e.rt.ReportFailure()
		e.rejected++
		e.recordLocked(ctx, gen, target.Name, result, *prop, 0)
		return result
	}

	if _, err := e.apply.Apply(prop); err != nil {
		log.Warn("evolver: apply failed", "error", err)
		result.Status, result.Err = database.StatusError, err
		e.rt.ReportFailure()
		e.rejected++
		e.recordLocked(ctx, gen, target.Name, result, *prop, 0)
		return result
	}

	after, err := e.bencher.Run(target.Name)
	if err != nil {
		log.Warn("evolver: post-benchmark failed, rolling back", "error", err)
		_, _ = e.apply.Rollback(prop)
		result.Status, result.Err = database.StatusError, err
		e.rt.ReportFailure()
		e.rejected++
		e.recordLocked(ctx, gen, target.Name, result, *prop, 0)
		return result
	}

	score, verdict := fitness.Score(before.AsMap(), after.AsMap(), e.fitnessWeights, e.fitnessThreshold)
	result.Score = score

	switch verdict {
	case fitness.VerdictImproved:
		result.Status = database.StatusAccepted
		e.rt.ReportSuccess()
		e.accepted++
	case fitness.VerdictNeutral:
		result.Status = database.StatusAcceptedNeutral
		e.rt.ReportSuccess()
		e.accepted++
	default: // regressed
		_, _ = e.apply.Rollback(prop)
		result.Status = database.StatusRejectedRegression
		e.rt.ReportFailure()
		e.rejected++
	}

	log.Info("evolver: cycle complete", "status", result.Status, "score", score)
	e.recordLocked(ctx, gen, target.Name, result, *prop, score)
	return result
}

// recordLocked persists the cycle's Generation Record via the
// Historian and broadcasts it to any long-polling dashboard clients. A
// Historian failure is logged but never fails the cycle — by this
// point any accepted code is already live on disk.
func (e *Evolver) recordLocked(ctx context.Context, gen int64, target registry.TargetName, result Result, prop proposer.Proposal, score float64) {
	if e.broker != nil {
		e.broker.Publish(events.Event{
			GenerationNumber: gen,
			TargetName:       string(target),
			Status:           result.Status,
			Score:            score,
		})
	}

	attrs := historian.Attrs{
		GenerationNumber: gen,
		TargetName:       string(target),
		Status:           result.Status,
		FitnessScore:     score,
		ModelTag:         prop.ModelTag,
		TokensIn:         prop.TokensIn,
		TokensOut:        prop.TokensOut,
		Reasoning:        prop.Reasoning,
		OldSource:        prop.OldSource,
		NewSource:        prop.NewSource,
	}
	if result.Err != nil && attrs.Reasoning == "" {
		attrs.Reasoning = fmt.Sprintf("error: %v", result.Err)
	}
	if err := e.hist.Record(ctx, attrs); err != nil {
		slog.Warn("evolver: historian record failed", "generation", gen, "error", err)
	}
}
