package scenario

import (
	"math"

	"github.com/rs/zerolog"

	"github.com/aristath/rebalancer/internal/domain"
	"github.com/aristath/rebalancer/internal/modules/allocation"
	"github.com/aristath/rebalancer/internal/modules/portfolio"
	"github.com/aristath/rebalancer/internal/modules/taxonomy"
)

// epsilon separates real gaps from floating-point noise
const epsilon = 1e-9

// Analyzer simulates rebalancing outcomes over raw current values.
// It is pure per call; the taxonomy is the only retained (read-only) state.
type Analyzer struct {
	tax *taxonomy.Taxonomy
	log zerolog.Logger
}

// NewAnalyzer creates a scenario analyzer
func NewAnalyzer(tax *taxonomy.Taxonomy, log zerolog.Logger) *Analyzer {
	return &Analyzer{
		tax: tax,
		log: log.With().Str("service", "scenario").Logger(),
	}
}

// Analyze runs both funding scenarios over sub-level current values and a
// target allocation covering the full universe.
//
// The computation never raises across this boundary: empty inputs and
// unexpected failures both yield a structurally complete zero-valued Result
// with an explanatory diagnostic.
func (a *Analyzer) Analyze(
	values portfolio.Holdings,
	target allocation.TargetAllocation,
	params Params,
) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error().
				Interface("panic", r).
				Msg("Unexpected failure during scenario analysis; returning zero-valued result")
			result = zeroResult(params)
			result.Diagnostics = append(result.Diagnostics, domain.Warning(
				CodeComputationFailed,
				"unexpected computation failure; zero-valued result returned",
				map[string]interface{}{"panic": r},
			))
		}
	}()

	if params.NewInvestment < 0 {
		a.log.Warn().
			Float64("new_investment", params.NewInvestment).
			Msg("Negative new investment treated as zero")
		params.NewInvestment = 0
	}

	if len(values) == 0 || len(target) == 0 {
		result = zeroResult(params)
		result.Diagnostics = append(result.Diagnostics, domain.Info(
			CodeEmptyInput,
			"empty holdings or empty target; zero-valued result returned",
			map[string]interface{}{"holdings": len(values), "target_classes": len(target)},
		))
		return result
	}

	result = a.analyze(values, target, params)
	return result
}

func (a *Analyzer) analyze(
	values portfolio.Holdings,
	target allocation.TargetAllocation,
	params Params,
) Result {
	var diags []domain.Diagnostic

	// Split current values by taxonomy into rebalanceable and non-rebalanceable.
	// A category with no resolvable parent is a configuration gap: it is kept
	// out of the rebalanceable universe and surfaced as a warning.
	rebValues := make(map[string]float64)
	var rebTotal, nonRebTotal float64
	for class, value := range values {
		parent, ok := a.tax.ParentOf(class)
		if !ok {
			a.log.Warn().
				Str("category", class).
				Msg("Cannot resolve parent class in taxonomy; treating value as non-rebalanceable")
			diags = append(diags, domain.Warning(
				"taxonomy_unresolved_category",
				"category has no parent in the taxonomy; excluded from rebalancing",
				map[string]interface{}{"category": class},
			))
			nonRebTotal += value
			continue
		}
		if !a.tax.IsRebalanceable(parent) {
			nonRebTotal += value
			continue
		}
		rebValues[class] = value
		rebTotal += value
	}

	// Re-normalize the target over the rebalanceable universe. The
	// denominator is the target mass of currently-held rebalanceable
	// categories, so target classes not yet held keep their full relative
	// weight and can surface as unfunded buy needs.
	adjusted := make(map[string]float64)
	var rebTargetSum float64
	for class, pct := range target {
		parent, ok := a.tax.ParentOf(class)
		if !ok || !a.tax.IsRebalanceable(parent) {
			continue
		}
		adjusted[class] = pct
		if _, held := rebValues[class]; held {
			rebTargetSum += pct
		}
	}

	if math.Abs(rebTargetSum) < epsilon {
		// Degenerate input: equal weights across currently-held rebalanceable categories
		adjusted = make(map[string]float64, len(rebValues))
		if len(rebValues) > 0 {
			equal := 1.0 / float64(len(rebValues))
			for class := range rebValues {
				adjusted[class] = equal
			}
		}
		a.log.Warn().
			Float64("rebalanceable_target_sum", rebTargetSum).
			Msg("Rebalanceable target sum is ~0; falling back to equal weights over held categories")
		diags = append(diags, domain.Warning(
			"rebalanceable_target_sum_zero",
			"target allocation over the rebalanceable universe sums to ~0; equal weighting applied",
			map[string]interface{}{"sum": rebTargetSum},
		))
	} else {
		for class := range adjusted {
			adjusted[class] /= rebTargetSum
		}
	}

	// Gap per category: positive = underweight (buy need), negative = overweight
	idealTotal := rebTotal + params.NewInvestment
	gaps := make(map[string]float64, len(adjusted)+len(rebValues))
	for class, weight := range adjusted {
		gaps[class] = idealTotal*weight - rebValues[class]
	}
	for class, value := range rebValues {
		if _, ok := adjusted[class]; !ok {
			// Held but absent from the target: full overweight
			gaps[class] = -value
		}
	}

	full := a.fullRebalancing(gaps, params)
	newMoney := a.newMoneyOnly(gaps, params)

	return Result{
		Summary: Summary{
			CurrentTotal:          rebTotal + nonRebTotal,
			NewInvestment:         params.NewInvestment,
			TotalRebalanceable:    rebTotal,
			TotalNonRebalanceable: nonRebTotal,
			TaxRate:               params.TaxRate,
			TransactionCostRate:   params.TransactionCostRate,
		},
		FullRebalancing: full,
		NewMoneyOnly:    newMoney,
		GapsByAsset:     gaps,
		Diagnostics:     diags,
	}
}

// fullRebalancing simulates Scenario A: every overweight category sells its
// excess, every underweight one buys its gap. The estimated tax is charged
// on gross sale proceeds, not realized gain; the host's cost-basis
// collaborator does not feed per-lot gains into this engine.
func (a *Analyzer) fullRebalancing(gaps map[string]float64, params Params) FullRebalancing {
	sells := make(map[string]float64)
	buys := make(map[string]float64)
	var totalSell, totalBuy float64

	for class, gap := range gaps {
		switch {
		case gap < -epsilon:
			sells[class] = -gap
			totalSell += -gap
		case gap > epsilon:
			buys[class] = gap
			totalBuy += gap
		}
	}

	fundsAvailable := totalSell + params.NewInvestment
	shortfall := math.Max(0, totalBuy-fundsAvailable)
	if shortfall < epsilon {
		shortfall = 0
	}

	return FullRebalancing{
		SellActions:               sells,
		BuyActions:                buys,
		TotalSellValue:            totalSell,
		TotalBuyValue:             totalBuy,
		FundsAvailable:            fundsAvailable,
		FundingShortfall:          shortfall,
		FundingSufficient:         shortfall == 0,
		EstimatedTransactionCosts: (totalSell + totalBuy) * params.TransactionCostRate,
		EstimatedTaxImpact:        totalSell * params.TaxRate,
	}
}

// newMoneyOnly simulates Scenario B: underweight categories are funded
// proportionally from new investment alone, nothing is sold.
func (a *Analyzer) newMoneyOnly(gaps map[string]float64, params Params) NewMoneyOnly {
	underweight := make(map[string]float64)
	var totalNeeded float64
	for class, gap := range gaps {
		if gap > epsilon {
			underweight[class] = gap
			totalNeeded += gap
		}
	}

	if totalNeeded <= epsilon {
		return NewMoneyOnly{
			Applicable:       false,
			Reason:           ReasonNoUnderweight,
			Allocations:      map[string]float64{},
			RemainingBuyGaps: map[string]float64{},
		}
	}

	if params.NewInvestment <= 0 {
		return NewMoneyOnly{
			Applicable:             false,
			Reason:                 ReasonNoNewInvestment,
			Allocations:            map[string]float64{},
			RemainingBuyGaps:       map[string]float64{},
			TotalUnderweightNeeded: totalNeeded,
		}
	}

	coverage := math.Min(1, params.NewInvestment/totalNeeded)

	allocations := make(map[string]float64, len(underweight))
	remaining := make(map[string]float64, len(underweight))
	var allocated float64
	for class, gap := range underweight {
		amount := gap * coverage
		allocations[class] = amount
		remaining[class] = gap * (1 - coverage)
		allocated += amount
	}

	return NewMoneyOnly{
		Applicable:                true,
		Allocations:               allocations,
		RemainingBuyGaps:          remaining,
		EstimatedTransactionCosts: allocated * params.TransactionCostRate,
		TotalUnderweightNeeded:    totalNeeded,
		CoverageRatio:             coverage,
	}
}
