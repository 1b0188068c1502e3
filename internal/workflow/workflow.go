// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package workflow drives the multi-phase discovery loop: research,
// hypothesis, experiment, simulation, techno-economic analysis, validation.
// Phase outputs come from an AIBackend strategy; each output passes a quality
// gate before the next phase runs, and a failing phase is retried up to a
// bounded iteration count.
package workflow

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pdiddy/discovery-engine/pkg/types"
)

// AIBackend produces one phase's output. Implementations call a generative
// model; tests substitute a mock.
type AIBackend interface {
	RunPhase(ctx context.Context, req PhaseRequest) (types.PhaseResult, error)
}

// Searcher feeds the research phase. Satisfied by *registry.Registry.
type Searcher interface {
	SmartSearch(ctx context.Context, query string, filters types.SearchFilters) types.AggregatedResult
}

// PhaseRequest carries everything a backend needs to run one phase.
type PhaseRequest struct {
	Phase       types.Phase
	Goal        string
	Domains     []string
	Constraints []string

	// Findings holds the research evidence gathered before the AI phases.
	Findings []types.Finding

	// Prior holds the accepted results of earlier phases, in order.
	Prior []types.PhaseResult

	// Iteration is 0 on the first attempt of a phase, counting up on
	// gate-driven re-runs.
	Iteration int

	// Feedback is the gate's recommendation from the failed attempt, empty
	// on the first run.
	Feedback string
}

// Gate scores a phase result and decides whether to accept it.
type Gate interface {
	Evaluate(req PhaseRequest, result types.PhaseResult) types.GateResult
}

// Run is the outcome of a full workflow execution.
type Run struct {
	Goal     string              `json:"goal" yaml:"goal"`
	Domains  []string            `json:"domains,omitempty" yaml:"domains,omitempty"`
	Findings []types.Finding     `json:"findings,omitempty" yaml:"findings,omitempty"`
	Results  []types.PhaseResult `json:"results" yaml:"results"`
	Gates    []PhaseOutcome      `json:"gates" yaml:"gates"`
	Elapsed  time.Duration       `json:"elapsed" yaml:"elapsed"`
}

// PhaseOutcome records how one phase cleared (or failed) its gate.
type PhaseOutcome struct {
	Phase      types.Phase      `json:"phase" yaml:"phase"`
	Gate       types.GateResult `json:"gate" yaml:"gate"`
	Iterations int              `json:"iterations" yaml:"iterations"`
}

// Result returns the accepted output of the named phase, or nil.
func (r *Run) Result(phase types.Phase) *types.PhaseResult {
	for i := range r.Results {
		if r.Results[i].Phase == phase {
			return &r.Results[i]
		}
	}
	return nil
}

// Runner executes the phase sequence.
type Runner struct {
	backend       AIBackend
	searcher      Searcher
	gate          Gate
	maxIterations int
	observe       func(PhaseOutcome)
	warn          io.Writer
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithGate replaces the default threshold gate.
func WithGate(g Gate) RunnerOption {
	return func(r *Runner) { r.gate = g }
}

// WithMaxIterations bounds gate-driven re-runs of a single phase.
func WithMaxIterations(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.maxIterations = n
		}
	}
}

// WithObserver registers a callback invoked after each phase settles. Used
// to feed the activity log.
func WithObserver(fn func(PhaseOutcome)) RunnerOption {
	return func(r *Runner) { r.observe = fn }
}

// WithWarnings directs operational warnings to w.
func WithWarnings(w io.Writer) RunnerOption {
	return func(r *Runner) { r.warn = w }
}

// NewRunner builds a Runner around the AI backend and the search layer that
// feeds the research phase.
func NewRunner(backend AIBackend, searcher Searcher, cfg types.WorkflowConfig, opts ...RunnerOption) *Runner {
	maxIter := cfg.MaxIterations
	if maxIter <= 0 {
		maxIter = 2
	}
	r := &Runner{
		backend:       backend,
		searcher:      searcher,
		gate:          NewThresholdGate(cfg.GateThreshold),
		maxIterations: maxIter,
		warn:          io.Discard,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Goal describes what a workflow run is trying to discover.
type Goal struct {
	Statement   string
	Query       string
	Domains     []string
	Constraints []string
}

// Execute runs every phase in order. The research phase is fed from the
// search layer; later phases consume the accepted results of the phases
// before them. A phase whose gate fails with an iterate recommendation is
// re-run with the gate's feedback, up to the iteration bound; the final
// attempt's result is kept either way.
func (r *Runner) Execute(ctx context.Context, goal Goal) (*Run, error) {
	start := time.Now()

	findings, err := r.research(ctx, goal)
	if err != nil {
		return nil, err
	}

	run := &Run{
		Goal:     goal.Statement,
		Domains:  goal.Domains,
		Findings: findings,
	}

	for _, phase := range types.Phases {
		req := PhaseRequest{
			Phase:       phase,
			Goal:        goal.Statement,
			Domains:     goal.Domains,
			Constraints: goal.Constraints,
			Findings:    findings,
			Prior:       run.Results,
		}

		var result types.PhaseResult
		var outcome PhaseOutcome
		if phase == types.PhaseResearch {
			// Research comes from the aggregation layer, not the AI backend.
			result = types.PhaseResult{Phase: phase, Findings: findings}
			outcome = PhaseOutcome{Phase: phase, Gate: r.gate.Evaluate(req, result), Iterations: 1}
		} else {
			var err error
			result, outcome, err = r.runPhase(ctx, req)
			if err != nil {
				return nil, fmt.Errorf("phase %s: %w", phase, err)
			}
		}

		run.Results = append(run.Results, result)
		run.Gates = append(run.Gates, outcome)
		if r.observe != nil {
			r.observe(outcome)
		}
		if !outcome.Gate.Pass {
			fmt.Fprintf(r.warn, "warning: phase %s kept below-threshold result (score %.0f)\n",
				phase, outcome.Gate.Score)
		}
	}

	run.Elapsed = time.Since(start)
	return run, nil
}

// research populates Findings from an aggregated smart search. The research
// phase is the only one not delegated to the AI backend.
func (r *Runner) research(ctx context.Context, goal Goal) ([]types.Finding, error) {
	if r.searcher == nil {
		return nil, nil
	}

	query := goal.Query
	if query == "" {
		query = goal.Statement
	}

	agg := r.searcher.SmartSearch(ctx, query, types.SearchFilters{Domains: goal.Domains})
	for name, outcome := range agg.BySource {
		if !outcome.Success {
			fmt.Fprintf(r.warn, "warning: research source %s failed: %s\n", name, outcome.Err)
		}
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	findings := make([]types.Finding, 0, len(agg.Sources))
	for _, src := range agg.Sources {
		findings = append(findings, types.Finding{
			SourceID: src.ID,
			Title:    src.Title,
			Summary:  src.Abstract,
			Score:    src.RelevanceScore,
		})
	}
	return findings, nil
}

func (r *Runner) runPhase(ctx context.Context, req PhaseRequest) (types.PhaseResult, PhaseOutcome, error) {
	var result types.PhaseResult
	var gate types.GateResult

	iterations := 0
	for {
		var err error
		result, err = r.backend.RunPhase(ctx, req)
		if err != nil {
			return types.PhaseResult{}, PhaseOutcome{}, err
		}
		iterations++

		gate = r.gate.Evaluate(req, result)
		if gate.Pass || !gate.Iterate || iterations >= r.maxIterations {
			break
		}

		req.Iteration = iterations
		req.Feedback = gate.Recommendation
	}

	return result, PhaseOutcome{Phase: req.Phase, Gate: gate, Iterations: iterations}, nil
}
