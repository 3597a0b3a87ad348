// Package taxonomy provides the static asset-class taxonomy used to resolve
// sub-level classes to their top-level parents and to exclude illiquid
// classes from automatic rebalancing.
package taxonomy

import (
	"fmt"
	"sort"
)

// Taxonomy is the immutable classification of asset classes for one run.
type Taxonomy struct {
	nonRebalanceable map[string]bool
	subClasses       map[string][]string
	parentOf         map[string]string
}

// New builds a taxonomy from a set of non-rebalanceable top-level classes and
// a top-level -> sub-level class mapping. A sub-level class listed under more
// than one parent is a configuration error.
func New(nonRebalanceable []string, subClasses map[string][]string) (*Taxonomy, error) {
	t := &Taxonomy{
		nonRebalanceable: make(map[string]bool, len(nonRebalanceable)),
		subClasses:       make(map[string][]string, len(subClasses)),
		parentOf:         make(map[string]string),
	}

	for _, name := range nonRebalanceable {
		if name == "" {
			return nil, fmt.Errorf("non-rebalanceable class name must not be empty")
		}
		t.nonRebalanceable[name] = true
	}

	for top, subs := range subClasses {
		if top == "" {
			return nil, fmt.Errorf("top-level class name must not be empty")
		}
		copied := make([]string, len(subs))
		copy(copied, subs)
		sort.Strings(copied)
		t.subClasses[top] = copied

		for _, sub := range subs {
			if sub == "" {
				return nil, fmt.Errorf("sub-level class name under %q must not be empty", top)
			}
			if existing, ok := t.parentOf[sub]; ok && existing != top {
				return nil, fmt.Errorf("sub-level class %q listed under both %q and %q", sub, existing, top)
			}
			t.parentOf[sub] = top
		}
	}

	return t, nil
}

// ParentOf resolves a sub-level class to its top-level parent.
// The second return value is false when the taxonomy cannot resolve the class.
func (t *Taxonomy) ParentOf(subClass string) (string, bool) {
	parent, ok := t.parentOf[subClass]
	return parent, ok
}

// IsRebalanceable reports whether a top-level class is eligible for
// automatic buy/sell actions.
func (t *Taxonomy) IsRebalanceable(topClass string) bool {
	return !t.nonRebalanceable[topClass]
}

// NonRebalanceableClasses returns the excluded top-level classes, sorted.
func (t *Taxonomy) NonRebalanceableClasses() []string {
	out := make([]string, 0, len(t.nonRebalanceable))
	for name := range t.nonRebalanceable {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// SubClassesOf returns the sub-level classes beneath a top-level class, sorted.
func (t *Taxonomy) SubClassesOf(topClass string) []string {
	subs := t.subClasses[topClass]
	out := make([]string, len(subs))
	copy(out, subs)
	return out
}

// TopClasses returns all known top-level classes, sorted.
func (t *Taxonomy) TopClasses() []string {
	out := make([]string, 0, len(t.subClasses))
	for name := range t.subClasses {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
