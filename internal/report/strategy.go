package report

import (
	"strings"

	"github.com/iapp-technology/chinda-eval/internal/catalog"
)

// strategy is one family's metric-selection rule: which metric name to pick,
// whether the zero-inflation subset fallback applies, and how to normalize
// the chosen value.
type strategy struct {
	match          func(name string) bool
	nestedFallback bool
	scale          bool // percentage-scale scores are mapped back to 0..1
}

func (s strategy) normalize(v float64) float64 {
	if s.scale && v > 1 {
		return v / 100.0
	}
	return v
}

func nameContains(markers ...string) func(string) bool {
	return func(name string) bool {
		for _, m := range markers {
			if strings.Contains(name, m) {
				return true
			}
		}
		return false
	}
}

var strategies = map[catalog.Family]strategy{
	catalog.FamilyLanguageMixing: {
		match: nameContains("language_accuracy"),
	},
	catalog.FamilyInstructionFollowing: {
		match:          nameContains("inst_level_loose"),
		nestedFallback: true,
		scale:          true,
	},
	catalog.FamilyCodeExecution: {
		match: nameContains("exact_match", "pass@1", "pass"),
	},
	catalog.FamilyDefault: {
		match: nameContains("mean_acc", "accuracy"),
	},
}

func strategyFor(f catalog.Family) strategy {
	if st, ok := strategies[f]; ok {
		return st
	}
	return strategies[catalog.FamilyDefault]
}
