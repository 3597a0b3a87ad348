package rebalancing

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/rebalancer/internal/domain"
	"github.com/aristath/rebalancer/internal/modules/allocation"
	"github.com/aristath/rebalancer/internal/modules/taxonomy"
)

func newTestTaxonomy(t *testing.T) *taxonomy.Taxonomy {
	tax, err := taxonomy.New(
		[]string{"Real Estate"},
		map[string][]string{
			"Equity":      {"Equity", "equity_us", "equity_eu"},
			"Bonds":       {"Bonds", "bonds_gov"},
			"Cash":        {"Cash", "cash_eur"},
			"Real Estate": {"re_home"},
		},
	)
	require.NoError(t, err)
	return tax
}

func TestRecommend_ThresholdAndDirections(t *testing.T) {
	tax := newTestTaxonomy(t)

	drifts := []allocation.DriftRecord{
		{Class: "equity_us", CurrentPct: 0.45, TargetPct: 0.30, AbsoluteDrift: 0.15},
		{Class: "bonds_gov", CurrentPct: 0.28, TargetPct: 0.30, AbsoluteDrift: -0.02},
		{Class: "cash_eur", CurrentPct: 0.10, TargetPct: 0.30, AbsoluteDrift: -0.20},
	}

	actions, diags := Recommend(drifts, tax, 0.05, zerolog.Nop())
	assert.Empty(t, diags)
	require.Len(t, actions, 2)

	// Largest need first
	assert.Equal(t, "cash_eur", actions[0].Category)
	assert.Equal(t, domain.Buy, actions[0].Direction)
	assert.Equal(t, "Cash", actions[0].ParentCategory)
	assert.InDelta(t, 0.20, actions[0].AmountPct, 1e-9)

	assert.Equal(t, "equity_us", actions[1].Category)
	assert.Equal(t, domain.Sell, actions[1].Direction)
	assert.InDelta(t, 0.15, actions[1].AmountPct, 1e-9)
}

func TestRecommend_DriftEqualToThresholdIsNotActionable(t *testing.T) {
	tax := newTestTaxonomy(t)

	drifts := []allocation.DriftRecord{
		{Class: "equity_us", AbsoluteDrift: 0.05},
	}

	actions, _ := Recommend(drifts, tax, 0.05, zerolog.Nop())
	assert.Empty(t, actions)
}

func TestRecommend_NonRebalanceableNeverEmitted(t *testing.T) {
	tax := newTestTaxonomy(t)

	drifts := []allocation.DriftRecord{
		{Class: "re_home", CurrentPct: 0.50, TargetPct: 0.10, AbsoluteDrift: 0.40},
	}

	// Even a zero threshold never emits a non-rebalanceable category
	for _, threshold := range []float64{0, 0.05, 0.2} {
		actions, diags := Recommend(drifts, tax, threshold, zerolog.Nop())
		assert.Empty(t, actions, "threshold=%v", threshold)
		assert.Empty(t, diags, "threshold=%v", threshold)
	}
}

func TestRecommend_UnresolvedCategorySkippedWithDiagnostic(t *testing.T) {
	tax := newTestTaxonomy(t)

	drifts := []allocation.DriftRecord{
		{Class: "mystery", AbsoluteDrift: 0.30},
		{Class: "equity_us", AbsoluteDrift: 0.10},
	}

	actions, diags := Recommend(drifts, tax, 0.05, zerolog.Nop())

	require.Len(t, actions, 1)
	assert.Equal(t, "equity_us", actions[0].Category)

	require.Len(t, diags, 1)
	assert.Equal(t, "taxonomy_unresolved_category", diags[0].Code)
	assert.Equal(t, "mystery", diags[0].Fields["category"])
}

func TestRecommend_EndToEndVector(t *testing.T) {
	// Holdings {Equity: 600, Bonds: 300, Cash: 100}, target {0.5, 0.3, 0.2}
	tax := newTestTaxonomy(t)

	drifts := []allocation.DriftRecord{
		{Class: "Bonds", CurrentPct: 0.3, TargetPct: 0.3, AbsoluteDrift: 0.0},
		{Class: "Cash", CurrentPct: 0.1, TargetPct: 0.2, AbsoluteDrift: -0.10},
		{Class: "Equity", CurrentPct: 0.6, TargetPct: 0.5, AbsoluteDrift: 0.10},
	}

	actions, diags := Recommend(drifts, tax, 0.05, zerolog.Nop())
	assert.Empty(t, diags)
	require.Len(t, actions, 2)

	// Equal amounts: the sell precedes the buy
	assert.Equal(t, "Equity", actions[0].Category)
	assert.Equal(t, domain.Sell, actions[0].Direction)
	assert.InDelta(t, 0.10, actions[0].AmountPct, 1e-9)

	assert.Equal(t, "Cash", actions[1].Category)
	assert.Equal(t, domain.Buy, actions[1].Direction)
	assert.InDelta(t, 0.10, actions[1].AmountPct, 1e-9)
}
