package rebalancing

import (
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/aristath/rebalancer/internal/domain"
	"github.com/aristath/rebalancer/internal/modules/allocation"
	"github.com/aristath/rebalancer/internal/modules/taxonomy"
)

// Recommend converts sub-level drift records into buy/sell actions.
//
// Categories whose top-level parent is non-rebalanceable are skipped without
// trace: their drift remains visible in the analyzer output but is not
// actionable. Categories whose parent cannot be resolved indicate a
// taxonomy/data mismatch and are skipped with a warning diagnostic.
// An action is emitted when |drift| exceeds the threshold, SELL for
// overweight and BUY for underweight, sorted by amount descending; equal
// amounts put sells before buys, then category name.
func Recommend(
	drifts []allocation.DriftRecord,
	tax *taxonomy.Taxonomy,
	threshold float64,
	log zerolog.Logger,
) ([]Action, []domain.Diagnostic) {
	actions := make([]Action, 0, len(drifts))
	var diags []domain.Diagnostic

	for _, record := range drifts {
		parent, ok := tax.ParentOf(record.Class)
		if !ok {
			log.Warn().
				Str("category", record.Class).
				Msg("Cannot resolve parent class in taxonomy; skipping category")
			diags = append(diags, domain.Warning(
				"taxonomy_unresolved_category",
				"category has no parent in the taxonomy and was skipped",
				map[string]interface{}{"category": record.Class},
			))
			continue
		}

		if !tax.IsRebalanceable(parent) {
			continue
		}

		drift := record.AbsoluteDrift
		if math.Abs(drift) <= threshold {
			continue
		}

		direction := domain.Buy
		if drift > 0 {
			direction = domain.Sell
		}

		actions = append(actions, Action{
			Category:       record.Class,
			ParentCategory: parent,
			Direction:      direction,
			CurrentPct:     record.CurrentPct,
			TargetPct:      record.TargetPct,
			Drift:          drift,
			AmountPct:      math.Abs(drift),
		})
	}

	// Largest rebalancing need first. On equal amounts sells precede buys
	// (they free the cash the buys consume), then category name.
	sort.Slice(actions, func(i, j int) bool {
		if actions[i].AmountPct != actions[j].AmountPct {
			return actions[i].AmountPct > actions[j].AmountPct
		}
		if actions[i].Direction != actions[j].Direction {
			return actions[i].Direction == domain.Sell
		}
		return actions[i].Category < actions[j].Category
	})

	return actions, diags
}
