// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Phase names one stage of the discovery workflow.
type Phase string

const (
	PhaseResearch   Phase = "research"
	PhaseHypothesis Phase = "hypothesis"
	PhaseExperiment Phase = "experiment"
	PhaseSimulation Phase = "simulation"
	PhaseTEA        Phase = "tea"
	PhaseValidation Phase = "validation"
)

// Phases lists the workflow stages in execution order.
var Phases = []Phase{
	PhaseResearch, PhaseHypothesis, PhaseExperiment,
	PhaseSimulation, PhaseTEA, PhaseValidation,
}

// Finding is one piece of research evidence, derived from an aggregated
// search result.
type Finding struct {
	SourceID string  `json:"source_id" yaml:"source_id"`
	Title    string  `json:"title" yaml:"title"`
	Summary  string  `json:"summary,omitempty" yaml:"summary,omitempty"`
	Score    float64 `json:"score" yaml:"score"`
}

// Hypothesis is a candidate research direction with 0-100 scores.
type Hypothesis struct {
	Statement   string  `json:"statement" yaml:"statement"`
	Rationale   string  `json:"rationale,omitempty" yaml:"rationale,omitempty"`
	Feasibility float64 `json:"feasibility" yaml:"feasibility"`
	Novelty     float64 `json:"novelty" yaml:"novelty"`
	Impact      float64 `json:"impact" yaml:"impact"`
}

// ProtocolMaterial is one line item of an experiment protocol.
type ProtocolMaterial struct {
	Name     string  `json:"name" yaml:"name"`
	Quantity string  `json:"quantity,omitempty" yaml:"quantity,omitempty"`
	CostUSD  float64 `json:"cost_usd,omitempty" yaml:"cost_usd,omitempty"`
}

// Protocol is a designed experiment.
type Protocol struct {
	Objective    string             `json:"objective" yaml:"objective"`
	Materials    []ProtocolMaterial `json:"materials,omitempty" yaml:"materials,omitempty"`
	Procedure    []string           `json:"procedure,omitempty" yaml:"procedure,omitempty"`
	DurationDays int                `json:"duration_days,omitempty" yaml:"duration_days,omitempty"`
	TotalCostUSD float64            `json:"total_cost_usd,omitempty" yaml:"total_cost_usd,omitempty"`
}

// SimValue is one named simulation output.
type SimValue struct {
	Name       string  `json:"name" yaml:"name"`
	Value      float64 `json:"value" yaml:"value"`
	Unit       string  `json:"unit,omitempty" yaml:"unit,omitempty"`
	Confidence float64 `json:"confidence,omitempty" yaml:"confidence,omitempty"`
}

// SimulationOutput is the result of a simulation run.
type SimulationOutput struct {
	Model  string     `json:"model" yaml:"model"`
	Values []SimValue `json:"values,omitempty" yaml:"values,omitempty"`
	Notes  string     `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// TEAMetrics holds techno-economic analysis outputs.
type TEAMetrics struct {
	NPVUSD       float64 `json:"npv_usd" yaml:"npv_usd"`
	IRRPercent   float64 `json:"irr_percent" yaml:"irr_percent"`
	LCOEPerMWh   float64 `json:"lcoe_per_mwh" yaml:"lcoe_per_mwh"`
	PaybackYears float64 `json:"payback_years" yaml:"payback_years"`
}

// ValidationSummary closes the workflow: which claims held up and what
// remains open.
type ValidationSummary struct {
	Supported []string `json:"supported,omitempty" yaml:"supported,omitempty"`
	Rejected  []string `json:"rejected,omitempty" yaml:"rejected,omitempty"`
	OpenItems []string `json:"open_items,omitempty" yaml:"open_items,omitempty"`
}

// PhaseResult is the tagged result of one workflow phase. Exactly the field
// matching Phase is populated; the rest are nil. This replaces the untyped
// payloads the workflow boundary previously exchanged.
type PhaseResult struct {
	Phase Phase `json:"phase" yaml:"phase"`

	Findings   []Finding          `json:"findings,omitempty" yaml:"findings,omitempty"`
	Hypotheses []Hypothesis       `json:"hypotheses,omitempty" yaml:"hypotheses,omitempty"`
	Protocol   *Protocol          `json:"protocol,omitempty" yaml:"protocol,omitempty"`
	Simulation *SimulationOutput  `json:"simulation,omitempty" yaml:"simulation,omitempty"`
	TEA        *TEAMetrics        `json:"tea,omitempty" yaml:"tea,omitempty"`
	Validation *ValidationSummary `json:"validation,omitempty" yaml:"validation,omitempty"`
}

// GateResult is a quality-gate verdict for one phase.
type GateResult struct {
	Pass           bool    `json:"pass" yaml:"pass"`
	Score          float64 `json:"score" yaml:"score"`
	Recommendation string  `json:"recommendation,omitempty" yaml:"recommendation,omitempty"`

	// Iterate recommends re-running the phase when it failed.
	Iterate bool `json:"iterate,omitempty" yaml:"iterate,omitempty"`
}
