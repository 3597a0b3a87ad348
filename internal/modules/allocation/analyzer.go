package allocation

import (
	"errors"
	"math"
	"sort"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"

	"github.com/aristath/rebalancer/internal/domain"
	"github.com/aristath/rebalancer/internal/modules/portfolio"
)

const (
	// totalsTolerance is the maximum absolute divergence (in currency units)
	// allowed between top-level and sub-level holding totals
	totalsTolerance = 1e-2
	// targetSumTolerance is the allowed deviation of a target-allocation sum from 1.0
	targetSumTolerance = 0.01
	// zeroTolerance treats smaller magnitudes as zero in ratio denominators
	zeroTolerance = 1e-9
)

// ErrTargetNotSet is returned when drift is requested for a level whose
// target allocation was never supplied. This is a usage error, distinct
// from a valid empty result.
var ErrTargetNotSet = errors.New("target allocation not set")

// Analyzer computes current percentage allocations at both granularities
// and drift against a stored target. One Analyzer serves one target set;
// independent target sets get independent Analyzers over cloned holdings.
type Analyzer struct {
	values  map[portfolio.Level]portfolio.Holdings
	pct     map[portfolio.Level]map[string]float64
	totals  map[portfolio.Level]float64
	targets map[portfolio.Level]TargetAllocation
	diags   []domain.Diagnostic
	log     zerolog.Logger
}

// NewAnalyzer creates an analyzer over the supplied holdings.
// When top and sub totals diverge beyond tolerance the top-level total is
// authoritative for all percentage denominators; the divergence is surfaced
// as a warning diagnostic, never an abort.
func NewAnalyzer(top, sub portfolio.Holdings, log zerolog.Logger) *Analyzer {
	a := &Analyzer{
		values: map[portfolio.Level]portfolio.Holdings{
			portfolio.LevelTop: top.Clone(),
			portfolio.LevelSub: sub.Clone(),
		},
		pct:     make(map[portfolio.Level]map[string]float64, 2),
		totals:  make(map[portfolio.Level]float64, 2),
		targets: make(map[portfolio.Level]TargetAllocation, 2),
		log:     log.With().Str("service", "allocation").Logger(),
	}

	topTotal := top.Total()
	subTotal := sub.Total()
	a.totals[portfolio.LevelTop] = topTotal
	a.totals[portfolio.LevelSub] = subTotal

	denominators := map[portfolio.Level]float64{
		portfolio.LevelTop: topTotal,
		portfolio.LevelSub: subTotal,
	}

	if math.Abs(topTotal-subTotal) > totalsTolerance {
		a.log.Warn().
			Float64("top_total", topTotal).
			Float64("sub_total", subTotal).
			Msg("Top-level and sub-level totals diverge; using top-level total as authoritative")
		a.diags = append(a.diags, domain.Warning(
			"holdings_totals_mismatch",
			"top-level and sub-level holding totals diverge; top-level total used for all percentages",
			map[string]interface{}{"top_total": topTotal, "sub_total": subTotal},
		))
		denominators[portfolio.LevelSub] = topTotal
	}

	for level, holdings := range a.values {
		pct := make(map[string]float64, len(holdings))
		denominator := denominators[level]
		for class, value := range holdings {
			if denominator > 0 {
				pct[class] = value / denominator
			} else {
				pct[class] = 0
			}
		}
		a.pct[level] = pct
	}

	return a
}

// SetTargets validates and stores both target sets. Each is normalized
// independently: values are divided by their observed sum, with a warning
// when the sum misses 1.0 by more than 1%. A ~0 sum falls back to equal
// weighting across the present keys.
func (a *Analyzer) SetTargets(top, sub TargetAllocation) {
	a.targets[portfolio.LevelTop] = a.normalizeTarget(portfolio.LevelTop, top)
	a.targets[portfolio.LevelSub] = a.normalizeTarget(portfolio.LevelSub, sub)
}

func (a *Analyzer) normalizeTarget(level portfolio.Level, target TargetAllocation) TargetAllocation {
	if target == nil {
		return nil
	}
	if len(target) == 0 {
		return TargetAllocation{}
	}

	var sum float64
	for _, pct := range target {
		sum += pct
	}

	normalized := make(TargetAllocation, len(target))

	if math.Abs(sum) < zeroTolerance {
		// Degenerate input: equal weighting across all present keys
		equal := 1.0 / float64(len(target))
		for class := range target {
			normalized[class] = equal
		}
		a.log.Warn().
			Str("level", string(level)).
			Float64("sum", sum).
			Msg("Target allocation sums to ~0; falling back to equal weighting")
		a.diags = append(a.diags, domain.Warning(
			"target_sum_zero",
			"target allocation sums to ~0; equal weighting applied",
			map[string]interface{}{"level": string(level), "sum": sum},
		))
		return normalized
	}

	if math.Abs(sum-1.0) > targetSumTolerance {
		a.log.Warn().
			Str("level", string(level)).
			Float64("sum", sum).
			Msg("Target allocation does not sum to 1.0; normalizing")
		a.diags = append(a.diags, domain.Warning(
			"target_sum_mismatch",
			"target allocation does not sum to 1.0; values normalized by observed sum",
			map[string]interface{}{"level": string(level), "sum": sum},
		))
	}

	for class, pct := range target {
		normalized[class] = pct / sum
	}
	return normalized
}

// CurrentPct returns the current percentage allocation at one level.
func (a *Analyzer) CurrentPct(level portfolio.Level) map[string]float64 {
	out := make(map[string]float64, len(a.pct[level]))
	for class, pct := range a.pct[level] {
		out[class] = pct
	}
	return out
}

// Total returns the holdings total at one level.
func (a *Analyzer) Total(level portfolio.Level) float64 {
	return a.totals[level]
}

// Target returns the normalized target at one level, or nil when unset.
func (a *Analyzer) Target(level portfolio.Level) TargetAllocation {
	target := a.targets[level]
	if target == nil {
		return nil
	}
	return target.Clone()
}

// Drift returns one DriftRecord per asset class in the union of current and
// target keys at the given level, sorted by class name. Requesting drift
// before the level's target was set returns ErrTargetNotSet.
func (a *Analyzer) Drift(level portfolio.Level) ([]DriftRecord, error) {
	target := a.targets[level]
	if target == nil {
		return nil, ErrTargetNotSet
	}

	classes := make(map[string]bool, len(a.pct[level])+len(target))
	for class := range a.pct[level] {
		classes[class] = true
	}
	for class := range target {
		classes[class] = true
	}

	records := make([]DriftRecord, 0, len(classes))
	for class := range classes {
		currentPct := a.pct[level][class]
		targetPct := target[class]
		absolute := currentPct - targetPct

		var relative float64
		switch {
		case math.Abs(targetPct) > zeroTolerance:
			relative = absolute / targetPct
		case math.Abs(absolute) > zeroTolerance:
			relative = math.Inf(int(math.Copysign(1, absolute)))
		default:
			relative = 0
		}

		records = append(records, DriftRecord{
			Class:         class,
			CurrentPct:    currentPct,
			TargetPct:     targetPct,
			AbsoluteDrift: absolute,
			RelativeDrift: relative,
		})
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Class < records[j].Class
	})

	return records, nil
}

// ConcentrationRisk computes the HHI concentration summary over the
// top-level allocation.
func (a *Analyzer) ConcentrationRisk() ConcentrationRisk {
	pct := a.pct[portfolio.LevelTop]
	if len(pct) == 0 {
		return ConcentrationRisk{Classification: RiskLow}
	}

	type classPct struct {
		class string
		pct   float64
	}
	entries := make([]classPct, 0, len(pct))
	pcts := make([]float64, 0, len(pct))
	for class, p := range pct {
		entries = append(entries, classPct{class: class, pct: p})
		pcts = append(pcts, p)
	}

	hhi := floats.Dot(pcts, pcts)

	// Largest first; ties broken by name for deterministic output
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].pct != entries[j].pct {
			return entries[i].pct > entries[j].pct
		}
		return entries[i].class < entries[j].class
	})

	var topThree float64
	for i := 0; i < len(entries) && i < 3; i++ {
		topThree += entries[i].pct
	}

	return ConcentrationRisk{
		HHI:            hhi,
		Classification: classifyHHI(hhi),
		LargestClass:   entries[0].class,
		LargestPct:     entries[0].pct,
		TopThreePct:    topThree,
	}
}

// classifyHHI maps an HHI value to its risk label. High and Medium use
// strict lower bounds; Moderate includes its 0.18 lower bound.
func classifyHHI(hhi float64) string {
	switch {
	case hhi > 0.35:
		return RiskHigh
	case hhi > 0.25:
		return RiskMedium
	case hhi >= 0.18:
		return RiskModerate
	default:
		return RiskLow
	}
}

// Diagnostics returns the data-quality warnings accumulated so far.
func (a *Analyzer) Diagnostics() []domain.Diagnostic {
	out := make([]domain.Diagnostic, len(a.diags))
	copy(out, a.diags)
	return out
}
