package rebalancing

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/rebalancer/internal/domain"
	"github.com/aristath/rebalancer/internal/modules/allocation"
	"github.com/aristath/rebalancer/internal/modules/portfolio"
	"github.com/aristath/rebalancer/internal/modules/roadmap"
)

type fakeHoldingsProvider struct {
	top portfolio.Holdings
	sub portfolio.Holdings
	err error
}

func (f *fakeHoldingsProvider) GetAll() (portfolio.Holdings, portfolio.Holdings, error) {
	return f.top, f.sub, f.err
}

type fakeTargetProvider struct {
	sets map[string]map[portfolio.Level]allocation.TargetAllocation
	err  error
}

func (f *fakeTargetProvider) GetSet(setName string, level portfolio.Level) (allocation.TargetAllocation, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.sets[setName][level], nil
}

func newTestService(t *testing.T, targets *fakeTargetProvider) *Service {
	holdings := &fakeHoldingsProvider{
		top: portfolio.Holdings{"Equity": 600, "Bonds": 300, "Cash": 100},
		sub: portfolio.Holdings{"equity_us": 400, "equity_eu": 200, "bonds_gov": 300, "cash_eur": 100},
	}
	params := Params{
		RebalancingThreshold: 0.05,
		TransactionCostRate:  0.001,
	}
	return NewService(holdings, targets, newTestTaxonomy(t), params, zerolog.Nop())
}

func standardTargets() *fakeTargetProvider {
	subTargets := allocation.TargetAllocation{
		"equity_us": 0.3, "equity_eu": 0.2, "bonds_gov": 0.3, "cash_eur": 0.2,
	}
	topTargets := allocation.TargetAllocation{"Equity": 0.5, "Bonds": 0.3, "Cash": 0.2}

	return &fakeTargetProvider{
		sets: map[string]map[portfolio.Level]allocation.TargetAllocation{
			allocation.SetHistorical: {
				portfolio.LevelTop: topTargets,
				portfolio.LevelSub: subTargets,
			},
			allocation.SetTemplate: {
				portfolio.LevelTop: topTargets,
				portfolio.LevelSub: subTargets,
			},
		},
	}
}

func TestService_Run(t *testing.T) {
	service := newTestService(t, standardTargets())

	result, err := service.Run(allocation.SetHistorical)
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, allocation.SetHistorical, result.TargetSet)
	assert.Len(t, result.TopDrift, 3)
	assert.Len(t, result.SubDrift, 4)

	// HHI = 0.36 + 0.09 + 0.01
	assert.InDelta(t, 0.46, result.Concentration.HHI, 1e-9)
	assert.Equal(t, allocation.RiskHigh, result.Concentration.Classification)

	// equity_us +10% sell, cash_eur -10% buy; the sell comes first
	require.Len(t, result.Actions, 2)
	assert.Equal(t, "equity_us", result.Actions[0].Category)
	assert.Equal(t, domain.Sell, result.Actions[0].Direction)
	assert.Equal(t, "cash_eur", result.Actions[1].Category)
	assert.Equal(t, domain.Buy, result.Actions[1].Direction)

	full := result.Scenarios.FullRebalancing
	assert.InDelta(t, 100.0, full.SellActions["equity_us"], 1e-6)
	assert.InDelta(t, 100.0, full.BuyActions["cash_eur"], 1e-6)
	assert.True(t, full.FundingSufficient)

	assert.Equal(t, roadmap.StateActionable, result.Roadmap.State)
	require.Len(t, result.Roadmap.Steps, 2)
	assert.Equal(t, "equity_us", result.Roadmap.Steps[0].Category)
	assert.Equal(t, "cash_eur", result.Roadmap.Steps[1].Category)

	assert.Empty(t, result.Diagnostics)
}

func TestService_Run_UnconfiguredTargetSet(t *testing.T) {
	service := newTestService(t, standardTargets())

	_, err := service.Run("missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, allocation.ErrTargetNotSet)
}

func TestService_Run_SingleLevelTargetSet(t *testing.T) {
	// A set configured at only one level must not analyze the bare level
	// against an implicit zero target (which would sell every held class).
	t.Run("sub only", func(t *testing.T) {
		targets := standardTargets()
		delete(targets.sets[allocation.SetHistorical], portfolio.LevelTop)

		service := newTestService(t, targets)
		_, err := service.Run(allocation.SetHistorical)
		require.Error(t, err)
		assert.ErrorIs(t, err, allocation.ErrTargetNotSet)
		assert.Contains(t, err.Error(), "top-level")
	})

	t.Run("top only", func(t *testing.T) {
		targets := standardTargets()
		delete(targets.sets[allocation.SetHistorical], portfolio.LevelSub)

		service := newTestService(t, targets)
		_, err := service.Run(allocation.SetHistorical)
		require.Error(t, err)
		assert.ErrorIs(t, err, allocation.ErrTargetNotSet)
		assert.Contains(t, err.Error(), "sub-level")
	})
}

func TestService_RunAll(t *testing.T) {
	service := newTestService(t, standardTargets())

	results, err := service.RunAll()
	require.NoError(t, err)
	require.Len(t, results, 2)

	historical := results[allocation.SetHistorical]
	template := results[allocation.SetTemplate]
	require.NotNil(t, historical)
	require.NotNil(t, template)

	assert.NotEqual(t, historical.RunID, template.RunID)
	assert.Equal(t, allocation.SetHistorical, historical.TargetSet)
	assert.Equal(t, allocation.SetTemplate, template.TargetSet)
}

func TestService_RunAll_PartialFailure(t *testing.T) {
	targets := standardTargets()
	delete(targets.sets, allocation.SetTemplate)

	service := newTestService(t, targets)

	results, err := service.RunAll()
	require.Error(t, err)
	assert.ErrorIs(t, err, allocation.ErrTargetNotSet)

	// The configured set still produced a result
	require.Len(t, results, 1)
	assert.NotNil(t, results[allocation.SetHistorical])
}
