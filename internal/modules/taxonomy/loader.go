package taxonomy

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// fileFormat is the on-disk YAML shape of the taxonomy file.
type fileFormat struct {
	NonRebalanceableClasses []string            `yaml:"non_rebalanceable_classes"`
	SubClasses              map[string][]string `yaml:"sub_classes"`
}

// Load reads and validates the taxonomy from a YAML file.
// The taxonomy is loaded once at startup and never mutated afterwards.
func Load(path string, log zerolog.Logger) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read taxonomy file %s: %w", path, err)
	}

	var raw fileFormat
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse taxonomy file %s: %w", path, err)
	}

	t, err := New(raw.NonRebalanceableClasses, raw.SubClasses)
	if err != nil {
		return nil, fmt.Errorf("invalid taxonomy in %s: %w", path, err)
	}

	// A non-rebalanceable class with no sub-classes is legal (a top-level-only
	// holding such as direct real estate) but worth surfacing.
	for _, name := range raw.NonRebalanceableClasses {
		if _, ok := raw.SubClasses[name]; !ok {
			log.Debug().Str("class", name).Msg("Non-rebalanceable class has no sub-classes")
		}
	}

	log.Info().
		Int("top_classes", len(raw.SubClasses)).
		Int("non_rebalanceable", len(raw.NonRebalanceableClasses)).
		Str("path", path).
		Msg("Taxonomy loaded")

	return t, nil
}
