// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package workflow

import (
	"fmt"

	"github.com/pdiddy/discovery-engine/pkg/types"
)

// ThresholdGate scores each phase result 0-100 from its content and passes
// it when the score meets the threshold. A failed phase with room to improve
// gets an iterate recommendation.
type ThresholdGate struct {
	threshold float64
}

// NewThresholdGate builds a gate. A non-positive threshold falls back to 60.
func NewThresholdGate(threshold float64) *ThresholdGate {
	if threshold <= 0 {
		threshold = 60
	}
	return &ThresholdGate{threshold: threshold}
}

// Evaluate scores a phase result against the gate threshold.
func (g *ThresholdGate) Evaluate(req PhaseRequest, result types.PhaseResult) types.GateResult {
	score, rec := g.score(result)

	gate := types.GateResult{
		Score:          score,
		Pass:           score >= g.threshold,
		Recommendation: rec,
	}
	if !gate.Pass {
		gate.Iterate = true
		if gate.Recommendation == "" {
			gate.Recommendation = fmt.Sprintf("score %.0f below threshold %.0f", score, g.threshold)
		}
	}
	return gate
}

// score rates the completeness of one phase output. Each phase has its own
// rubric; an empty result scores zero.
func (g *ThresholdGate) score(result types.PhaseResult) (float64, string) {
	switch result.Phase {
	case types.PhaseResearch:
		n := len(result.Findings)
		if n == 0 {
			return 0, "no research findings gathered"
		}
		// 5 findings saturate the evidence score.
		return clamp(float64(n) * 20), ""

	case types.PhaseHypothesis:
		if len(result.Hypotheses) == 0 {
			return 0, "no hypotheses produced"
		}
		var best float64
		for _, h := range result.Hypotheses {
			avg := (h.Feasibility + h.Novelty + h.Impact) / 3
			if avg > best {
				best = avg
			}
		}
		return clamp(best), "strengthen the leading hypothesis"

	case types.PhaseExperiment:
		p := result.Protocol
		if p == nil || p.Objective == "" {
			return 0, "no experiment protocol designed"
		}
		score := 40.0
		if len(p.Materials) > 0 {
			score += 20
		}
		if len(p.Procedure) > 0 {
			score += 20
		}
		if p.TotalCostUSD > 0 && p.DurationDays > 0 {
			score += 20
		}
		return score, "fill in materials, procedure, and cost"

	case types.PhaseSimulation:
		s := result.Simulation
		if s == nil || len(s.Values) == 0 {
			return 0, "no simulation outputs"
		}
		var conf float64
		for _, v := range s.Values {
			conf += v.Confidence
		}
		avg := conf / float64(len(s.Values))
		return clamp(40 + avg*0.6), "raise output confidence"

	case types.PhaseTEA:
		t := result.TEA
		if t == nil {
			return 0, "no techno-economic metrics"
		}
		score := 40.0
		if t.NPVUSD > 0 {
			score += 30
		}
		if t.PaybackYears > 0 && t.PaybackYears <= 15 {
			score += 30
		}
		return score, "economics look weak"

	case types.PhaseValidation:
		v := result.Validation
		if v == nil {
			return 0, "no validation summary"
		}
		total := len(v.Supported) + len(v.Rejected) + len(v.OpenItems)
		if total == 0 {
			return 0, "validation summary is empty"
		}
		return clamp(float64(len(v.Supported)) / float64(total) * 100), "too many open items"

	default:
		return 0, fmt.Sprintf("unknown phase %q", result.Phase)
	}
}

func clamp(score float64) float64 {
	if score > 100 {
		return 100
	}
	if score < 0 {
		return 0
	}
	return score
}
