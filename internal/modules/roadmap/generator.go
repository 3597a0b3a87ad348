// Package roadmap renders a scenario analysis into an ordered, human-readable
// action plan: first reduce overweight positions, then fund underweight ones.
package roadmap

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aristath/rebalancer/internal/domain"
	"github.com/aristath/rebalancer/internal/modules/scenario"
)

// State is the terminal state of a generated roadmap. The three non-actionable
// states are deliberately distinct: "no trade needed" (everything filtered by
// the minimum), "no drift" (nothing to trade at all) and "unavailable"
// (the scenario itself produced no data).
type State string

const (
	// StateActionable means the roadmap contains at least one step
	StateActionable State = "actionable"
	// StateNoTradeNeeded means every action fell below the minimum transaction amount
	StateNoTradeNeeded State = "no_trade_needed"
	// StateNoDrift means the scenario produced no buys or sells
	StateNoDrift State = "no_drift"
	// StateUnavailable means scenario data was empty or failed to compute
	StateUnavailable State = "scenario_unavailable"
)

// Step is one entry of the action plan.
type Step struct {
	Order              int              `json:"order"`
	Category           string           `json:"category"`
	Direction          domain.Direction `json:"direction"`
	Amount             float64          `json:"amount"`
	PctOfRebalanceable float64          `json:"pct_of_rebalanceable"`
}

// SkippedAction records an action excluded by the minimum-amount filter.
type SkippedAction struct {
	Category  string           `json:"category"`
	Direction domain.Direction `json:"direction"`
	Amount    float64          `json:"amount"`
	Reason    string           `json:"reason"`
}

// Roadmap is the ordered action plan plus its rendered text.
type Roadmap struct {
	State                State           `json:"state"`
	Steps                []Step          `json:"steps"`
	Skipped              []SkippedAction `json:"skipped"`
	MinTransactionAmount float64         `json:"min_transaction_amount"`
	Text                 string          `json:"text"`
}

const skippedBelowMinimum = "below minimum transaction amount"

// Generate builds the action plan from a full-rebalancing scenario.
// Sell steps come first (reduce), then buy steps (increase), each sorted by
// amount descending with category name as tie-break. Amounts are annotated
// with their share of the rebalanceable total, not the whole portfolio.
// Generation never raises: unexpected failures yield an unavailable roadmap.
func Generate(result scenario.Result, minAmount float64, log zerolog.Logger) (roadmap Roadmap) {
	log = log.With().Str("service", "roadmap").Logger()

	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Interface("panic", r).
				Msg("Unexpected failure during roadmap generation; returning unavailable roadmap")
			roadmap = unavailable(minAmount)
		}
	}()

	if scenarioUnavailable(result) {
		return unavailable(minAmount)
	}

	full := result.FullRebalancing
	if len(full.SellActions) == 0 && len(full.BuyActions) == 0 {
		return Roadmap{
			State:                StateNoDrift,
			Steps:                []Step{},
			Skipped:              []SkippedAction{},
			MinTransactionAmount: minAmount,
			Text:                 "Allocations are within target. No drift to correct.",
		}
	}

	rebTotal := result.Summary.TotalRebalanceable

	sellSteps, sellSkipped := collect(full.SellActions, domain.Sell, minAmount, rebTotal)
	buySteps, buySkipped := collect(full.BuyActions, domain.Buy, minAmount, rebTotal)

	skipped := append(sellSkipped, buySkipped...)

	if len(sellSteps)+len(buySteps) == 0 {
		return Roadmap{
			State:                StateNoTradeNeeded,
			Steps:                []Step{},
			Skipped:              skipped,
			MinTransactionAmount: minAmount,
			Text: fmt.Sprintf(
				"No trade needed: all %d candidate actions fall below the minimum transaction amount of %.2f.",
				len(skipped), minAmount),
		}
	}

	steps := append(sellSteps, buySteps...)
	for i := range steps {
		steps[i].Order = i + 1
	}

	return Roadmap{
		State:                StateActionable,
		Steps:                steps,
		Skipped:              skipped,
		MinTransactionAmount: minAmount,
		Text:                 render(sellSteps, buySteps, skipped, full),
	}
}

// scenarioUnavailable reports whether the scenario result is the zero-valued
// placeholder produced for empty input or a computation failure.
func scenarioUnavailable(result scenario.Result) bool {
	for _, diag := range result.Diagnostics {
		if diag.Code == scenario.CodeEmptyInput || diag.Code == scenario.CodeComputationFailed {
			return true
		}
	}
	return false
}

func unavailable(minAmount float64) Roadmap {
	return Roadmap{
		State:                StateUnavailable,
		Steps:                []Step{},
		Skipped:              []SkippedAction{},
		MinTransactionAmount: minAmount,
		Text:                 "Scenario data unavailable. No action plan can be generated.",
	}
}

// collect splits one action map into kept steps and skipped actions,
// both sorted by amount descending then category ascending.
func collect(
	actions map[string]float64,
	direction domain.Direction,
	minAmount float64,
	rebTotal float64,
) ([]Step, []SkippedAction) {
	steps := make([]Step, 0, len(actions))
	skipped := make([]SkippedAction, 0)

	for category, amount := range actions {
		if amount < minAmount {
			skipped = append(skipped, SkippedAction{
				Category:  category,
				Direction: direction,
				Amount:    amount,
				Reason:    skippedBelowMinimum,
			})
			continue
		}

		var pct float64
		if rebTotal > 0 {
			pct = amount / rebTotal
		}

		steps = append(steps, Step{
			Category:           category,
			Direction:          direction,
			Amount:             amount,
			PctOfRebalanceable: pct,
		})
	}

	sort.Slice(steps, func(i, j int) bool {
		if steps[i].Amount != steps[j].Amount {
			return steps[i].Amount > steps[j].Amount
		}
		return steps[i].Category < steps[j].Category
	})
	sort.Slice(skipped, func(i, j int) bool {
		if skipped[i].Amount != skipped[j].Amount {
			return skipped[i].Amount > skipped[j].Amount
		}
		return skipped[i].Category < skipped[j].Category
	})

	return steps, skipped
}

func render(sellSteps, buySteps []Step, skipped []SkippedAction, full scenario.FullRebalancing) string {
	var b strings.Builder

	if len(sellSteps) > 0 {
		b.WriteString("Step 1 - Reduce overweight positions:\n")
		for _, step := range sellSteps {
			fmt.Fprintf(&b, "  SELL %s: %.2f (%.1f%% of rebalanceable assets)\n",
				step.Category, step.Amount, step.PctOfRebalanceable*100)
		}
	}

	if len(buySteps) > 0 {
		label := "Step 2"
		if len(sellSteps) == 0 {
			label = "Step 1"
		}
		fmt.Fprintf(&b, "%s - Increase underweight positions:\n", label)
		for _, step := range buySteps {
			fmt.Fprintf(&b, "  BUY %s: %.2f (%.1f%% of rebalanceable assets)\n",
				step.Category, step.Amount, step.PctOfRebalanceable*100)
		}
	}

	if full.FundingShortfall > 0 {
		fmt.Fprintf(&b, "Funding shortfall: %.2f cannot be covered by sales plus new investment.\n",
			full.FundingShortfall)
	} else {
		b.WriteString("Funding: sufficient.\n")
	}

	if len(skipped) > 0 {
		b.WriteString("Skipped (below minimum transaction amount):\n")
		for _, s := range skipped {
			fmt.Fprintf(&b, "  %s %s: %.2f\n", s.Direction, s.Category, s.Amount)
		}
	}

	return b.String()
}
