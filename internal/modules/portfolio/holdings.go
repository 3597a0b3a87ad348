// Package portfolio provides current-holdings data access and the Holdings
// value type consumed by the analysis modules.
package portfolio

import (
	"fmt"
	"sort"
)

// Level is the granularity of a holdings map.
type Level string

const (
	// LevelTop is the top-level asset-class granularity
	LevelTop Level = "top"
	// LevelSub is the sub-level asset-class granularity
	LevelSub Level = "sub"
)

// Holdings maps asset-class names to current market values.
// Immutable once passed to the engine; supplied fresh per analysis run.
type Holdings map[string]float64

// NewHoldings validates raw values and returns a Holdings map.
// Negative market values are rejected at construction.
func NewHoldings(values map[string]float64) (Holdings, error) {
	h := make(Holdings, len(values))
	for class, value := range values {
		if class == "" {
			return nil, fmt.Errorf("holding class name must not be empty")
		}
		if value < 0 {
			return nil, fmt.Errorf("holding %q has negative value %f", class, value)
		}
		h[class] = value
	}
	return h, nil
}

// Total returns the summed market value across all classes.
func (h Holdings) Total() float64 {
	var total float64
	for _, value := range h {
		total += value
	}
	return total
}

// Classes returns the asset-class names, sorted for deterministic iteration.
func (h Holdings) Classes() []string {
	out := make([]string, 0, len(h))
	for class := range h {
		out = append(out, class)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy so concurrent analyses never share state.
func (h Holdings) Clone() Holdings {
	out := make(Holdings, len(h))
	for class, value := range h {
		out[class] = value
	}
	return out
}
