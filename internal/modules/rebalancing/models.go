// Package rebalancing turns sub-level allocation drift into concrete buy/sell
// actions and orchestrates the full analysis pipeline for each target set.
package rebalancing

import (
	"github.com/aristath/rebalancer/internal/domain"
	"github.com/aristath/rebalancer/internal/modules/allocation"
	"github.com/aristath/rebalancer/internal/modules/roadmap"
	"github.com/aristath/rebalancer/internal/modules/scenario"
)

// Action is a single recommended rebalancing move for one sub-level class.
type Action struct {
	Category       string           `json:"category"`
	ParentCategory string           `json:"parent_category"`
	Direction      domain.Direction `json:"direction"`
	CurrentPct     float64          `json:"current_pct"`
	TargetPct      float64          `json:"target_pct"`
	Drift          float64          `json:"drift"`
	AmountPct      float64          `json:"amount_pct"`
}

// Result bundles everything one analysis run produces for one target set.
// All fields are derived from the run inputs; recomputing from the same
// inputs reproduces the result exactly.
type Result struct {
	RunID         string                       `json:"run_id"`
	TargetSet     string                       `json:"target_set"`
	TopDrift      []allocation.DriftRecord     `json:"top_drift"`
	SubDrift      []allocation.DriftRecord     `json:"sub_drift"`
	Concentration allocation.ConcentrationRisk `json:"concentration"`
	Actions       []Action                     `json:"actions"`
	Scenarios     scenario.Result              `json:"scenarios"`
	Roadmap       roadmap.Roadmap              `json:"roadmap"`
	Diagnostics   []domain.Diagnostic          `json:"diagnostics,omitempty"`
}
