package rebalancing

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/rebalancer/internal/config"
	"github.com/aristath/rebalancer/internal/domain"
	"github.com/aristath/rebalancer/internal/modules/allocation"
	"github.com/aristath/rebalancer/internal/modules/portfolio"
	"github.com/aristath/rebalancer/internal/modules/roadmap"
	"github.com/aristath/rebalancer/internal/modules/scenario"
	"github.com/aristath/rebalancer/internal/modules/settings"
	"github.com/aristath/rebalancer/internal/modules/taxonomy"
)

// Params holds the resolved financial parameters for one analysis run
type Params struct {
	RebalancingThreshold float64
	NewInvestment        float64
	TaxRate              float64
	TransactionCostRate  float64
	MinTransactionAmount float64
}

// HoldingsProvider supplies current holdings at both granularities
type HoldingsProvider interface {
	GetAll() (top portfolio.Holdings, sub portfolio.Holdings, err error)
}

// TargetProvider supplies one stored target set at one level
type TargetProvider interface {
	GetSet(setName string, level portfolio.Level) (allocation.TargetAllocation, error)
}

// Service orchestrates the analysis pipeline for each target set:
// allocation analysis, action recommendation, scenario simulation and
// roadmap generation. It retains no cross-run state, so independent target
// sets can run concurrently.
type Service struct {
	holdingsRepo HoldingsProvider
	targetRepo   TargetProvider
	tax          *taxonomy.Taxonomy
	scenarios    *scenario.Analyzer
	params       Params
	log          zerolog.Logger
}

// NewService creates a new analysis service
func NewService(
	holdingsRepo HoldingsProvider,
	targetRepo TargetProvider,
	tax *taxonomy.Taxonomy,
	params Params,
	log zerolog.Logger,
) *Service {
	return &Service{
		holdingsRepo: holdingsRepo,
		targetRepo:   targetRepo,
		tax:          tax,
		scenarios:    scenario.NewAnalyzer(tax, log),
		params:       params,
		log:          log.With().Str("service", "rebalancing").Logger(),
	}
}

// ResolveParams resolves analysis parameters: values stored in the settings
// database take precedence over the environment-derived configuration.
func ResolveParams(repo *settings.Repository, base config.AnalysisConfig) (Params, error) {
	var params Params
	var err error
	if params.RebalancingThreshold, err = repo.GetFloat("rebalancing_threshold", base.RebalancingThreshold); err != nil {
		return params, fmt.Errorf("failed to resolve rebalancing_threshold: %w", err)
	}
	if params.NewInvestment, err = repo.GetFloat("new_investment", base.NewInvestment); err != nil {
		return params, fmt.Errorf("failed to resolve new_investment: %w", err)
	}
	if params.TaxRate, err = repo.GetFloat("tax_rate", base.TaxRate); err != nil {
		return params, fmt.Errorf("failed to resolve tax_rate: %w", err)
	}
	if params.TransactionCostRate, err = repo.GetFloat("transaction_cost_rate", base.TransactionCostRate); err != nil {
		return params, fmt.Errorf("failed to resolve transaction_cost_rate: %w", err)
	}
	if params.MinTransactionAmount, err = repo.GetFloat("min_transaction_amount", base.MinTransactionAmount); err != nil {
		return params, fmt.Errorf("failed to resolve min_transaction_amount: %w", err)
	}

	return params, nil
}

// Run executes the full pipeline for one target set.
// A target set missing rows at either level is a usage error, surfaced as
// an error rather than a silently empty result.
func (s *Service) Run(targetSet string) (*Result, error) {
	runID := uuid.New().String()
	log := s.log.With().Str("run_id", runID).Str("target_set", targetSet).Logger()

	top, sub, err := s.holdingsRepo.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to get holdings: %w", err)
	}

	targetTop, err := s.targetRepo.GetSet(targetSet, portfolio.LevelTop)
	if err != nil {
		return nil, fmt.Errorf("failed to get top-level targets: %w", err)
	}
	targetSub, err := s.targetRepo.GetSet(targetSet, portfolio.LevelSub)
	if err != nil {
		return nil, fmt.Errorf("failed to get sub-level targets: %w", err)
	}

	// Each level must be configured on its own: an empty level would be
	// stored as a valid zero target and report every held class as fully
	// overweight.
	if len(targetTop) == 0 {
		return nil, fmt.Errorf("target set %q has no top-level targets: %w", targetSet, allocation.ErrTargetNotSet)
	}
	if len(targetSub) == 0 {
		return nil, fmt.Errorf("target set %q has no sub-level targets: %w", targetSet, allocation.ErrTargetNotSet)
	}

	analyzer := allocation.NewAnalyzer(top, sub, log)
	analyzer.SetTargets(targetTop, targetSub)

	topDrift, err := analyzer.Drift(portfolio.LevelTop)
	if err != nil {
		return nil, fmt.Errorf("failed to compute top-level drift: %w", err)
	}
	subDrift, err := analyzer.Drift(portfolio.LevelSub)
	if err != nil {
		return nil, fmt.Errorf("failed to compute sub-level drift: %w", err)
	}

	concentration := analyzer.ConcentrationRisk()

	actions, actionDiags := Recommend(subDrift, s.tax, s.params.RebalancingThreshold, log)

	scenarios := s.scenarios.Analyze(sub, targetSub, scenario.Params{
		NewInvestment:       s.params.NewInvestment,
		TaxRate:             s.params.TaxRate,
		TransactionCostRate: s.params.TransactionCostRate,
	})

	plan := roadmap.Generate(scenarios, s.params.MinTransactionAmount, log)

	diags := make([]domain.Diagnostic, 0)
	diags = append(diags, analyzer.Diagnostics()...)
	diags = append(diags, actionDiags...)
	diags = append(diags, scenarios.Diagnostics...)

	log.Info().
		Int("actions", len(actions)).
		Str("concentration", concentration.Classification).
		Str("roadmap_state", string(plan.State)).
		Int("diagnostics", len(diags)).
		Msg("Analysis run completed")

	return &Result{
		RunID:         runID,
		TargetSet:     targetSet,
		TopDrift:      topDrift,
		SubDrift:      subDrift,
		Concentration: concentration,
		Actions:       actions,
		Scenarios:     scenarios,
		Roadmap:       plan,
		Diagnostics:   diags,
	}, nil
}

// RunAll runs the historical and template target sets on independent
// goroutines. Each run operates on its own holdings copy and target, so no
// synchronization is needed beyond joining the results.
func (s *Service) RunAll() (map[string]*Result, error) {
	sets := []string{allocation.SetHistorical, allocation.SetTemplate}

	results := make(map[string]*Result, len(sets))
	errs := make([]error, len(sets))

	var mu sync.Mutex
	var wg sync.WaitGroup

	for i, targetSet := range sets {
		wg.Add(1)
		go func(i int, targetSet string) {
			defer wg.Done()
			result, err := s.Run(targetSet)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs[i] = fmt.Errorf("target set %q: %w", targetSet, err)
				return
			}
			results[targetSet] = result
		}(i, targetSet)
	}

	wg.Wait()

	return results, errors.Join(errs...)
}
