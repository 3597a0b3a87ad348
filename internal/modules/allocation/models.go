// Package allocation computes current percentage allocations, drift against
// target allocations, and the portfolio concentration-risk summary.
package allocation

import "time"

// TargetAllocation maps asset-class names to target fractions.
// Values are normalized to sum to 1.0 before any drift computation.
type TargetAllocation map[string]float64

// Clone returns an independent copy of the target allocation.
func (t TargetAllocation) Clone() TargetAllocation {
	out := make(TargetAllocation, len(t))
	for class, pct := range t {
		out[class] = pct
	}
	return out
}

// DriftRecord captures current-vs-target allocation for one asset class.
// RelativeDrift is signed infinity when the target is ~0 and the absolute
// drift is not, and 0 when both are ~0.
type DriftRecord struct {
	Class         string  `json:"class"`
	CurrentPct    float64 `json:"current_pct"`
	TargetPct     float64 `json:"target_pct"`
	AbsoluteDrift float64 `json:"absolute_drift"`
	RelativeDrift float64 `json:"relative_drift"`
}

// ConcentrationRisk summarizes top-level portfolio concentration.
type ConcentrationRisk struct {
	HHI            float64 `json:"hhi"`
	Classification string  `json:"classification"`
	LargestClass   string  `json:"largest_class"`
	LargestPct     float64 `json:"largest_pct"`
	TopThreePct    float64 `json:"top_three_pct"`
}

// Concentration classification labels
const (
	RiskHigh     = "High"
	RiskMedium   = "Medium"
	RiskModerate = "Moderate"
	RiskLow      = "Low"
)

// Target is one stored allocation-target row.
type Target struct {
	SetName   string    `json:"set_name"`
	Level     string    `json:"level"`
	Class     string    `json:"class"`
	TargetPct float64   `json:"target_pct"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
