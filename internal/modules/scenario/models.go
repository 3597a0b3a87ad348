// Package scenario simulates the financial consequences of rebalancing under
// two funding scenarios: full rebalancing and new-money-only.
package scenario

import "github.com/aristath/rebalancer/internal/domain"

// Params holds the financial assumptions for a scenario analysis.
type Params struct {
	NewInvestment       float64 `json:"new_investment"`
	TaxRate             float64 `json:"tax_rate"`
	TransactionCostRate float64 `json:"transaction_cost_rate"`
}

// Summary describes the analyzed portfolio and assumptions.
type Summary struct {
	CurrentTotal          float64 `json:"current_total"`
	NewInvestment         float64 `json:"new_investment"`
	TotalRebalanceable    float64 `json:"total_rebalanceable"`
	TotalNonRebalanceable float64 `json:"total_non_rebalanceable"`
	TaxRate               float64 `json:"tax_rate"`
	TransactionCostRate   float64 `json:"transaction_cost_rate"`
}

// FullRebalancing is Scenario A: sell every overweight position and buy
// every underweight one.
type FullRebalancing struct {
	SellActions               map[string]float64 `json:"sell_actions"`
	BuyActions                map[string]float64 `json:"buy_actions"`
	TotalSellValue            float64            `json:"total_sell_value"`
	TotalBuyValue             float64            `json:"total_buy_value"`
	FundsAvailable            float64            `json:"funds_available"`
	FundingShortfall          float64            `json:"funding_shortfall"`
	FundingSufficient         bool               `json:"funding_sufficient"`
	EstimatedTransactionCosts float64            `json:"estimated_transaction_costs"`
	EstimatedTaxImpact        float64            `json:"estimated_tax_impact"`
}

// NewMoneyOnly is Scenario B: reduce underweight positions using only fresh
// capital, selling nothing. Applicable is false when there is no new
// investment or no underweight need; the zero-valued maps are still present
// so consumers never branch on missing data.
type NewMoneyOnly struct {
	Applicable                bool               `json:"applicable"`
	Reason                    string             `json:"reason,omitempty"`
	Allocations               map[string]float64 `json:"allocations"`
	RemainingBuyGaps          map[string]float64 `json:"remaining_buy_gaps"`
	EstimatedTransactionCosts float64            `json:"estimated_transaction_costs"`
	TotalUnderweightNeeded    float64            `json:"total_underweight_needed"`
	CoverageRatio             float64            `json:"coverage_ratio"`
}

// Result is the complete scenario analysis output. Every field is derived;
// recomputing from the same inputs reproduces it exactly.
type Result struct {
	Summary         Summary             `json:"summary"`
	FullRebalancing FullRebalancing     `json:"full_rebalancing"`
	NewMoneyOnly    NewMoneyOnly        `json:"new_money_only"`
	GapsByAsset     map[string]float64  `json:"gaps_by_asset"`
	Diagnostics     []domain.Diagnostic `json:"diagnostics,omitempty"`
}

// Inapplicability reasons for Scenario B
const (
	ReasonNoNewInvestment = "no new investment available"
	ReasonNoUnderweight   = "no underweight categories to fund"
)

// Diagnostic codes that mark a zero-valued placeholder result. Consumers
// (the roadmap generator) key off these to distinguish "no data" from
// "no drift".
const (
	CodeEmptyInput        = "scenario_empty_input"
	CodeComputationFailed = "scenario_computation_failed"
)

// zeroResult returns a structurally complete, zero-valued Result so that
// downstream consumers never have to distinguish missing from empty.
func zeroResult(params Params) Result {
	return Result{
		Summary: Summary{
			NewInvestment:       params.NewInvestment,
			TaxRate:             params.TaxRate,
			TransactionCostRate: params.TransactionCostRate,
		},
		FullRebalancing: FullRebalancing{
			SellActions:       map[string]float64{},
			BuyActions:        map[string]float64{},
			FundingSufficient: true,
		},
		NewMoneyOnly: NewMoneyOnly{
			Applicable:       false,
			Reason:           ReasonNoUnderweight,
			Allocations:      map[string]float64{},
			RemainingBuyGaps: map[string]float64{},
		},
		GapsByAsset: map[string]float64{},
	}
}
