package tier

import (
	"sync"

	"github.com/leapstack-labs/confgen/pkg/core"
)

// Default tier IDs.
const (
	Base                    = "base"
	Essential               = "essential"
	Vue3Essential           = "vue3-essential"
	StronglyRecommended     = "strongly-recommended"
	Vue3StronglyRecommended = "vue3-strongly-recommended"
	Recommended             = "recommended"
	Vue3Recommended         = "vue3-recommended"
	UseWithCaution          = "use-with-caution"
	Vue3UseWithCaution      = "vue3-use-with-caution"
)

// DefaultExtends is the extends graph of the default table. An empty parent
// marks a root tier.
var DefaultExtends = map[string]string{
	Base:                    "",
	Essential:               Base,
	Vue3Essential:           Base,
	StronglyRecommended:     Essential,
	Vue3StronglyRecommended: Vue3Essential,
	Recommended:             StronglyRecommended,
	Vue3Recommended:         Vue3StronglyRecommended,
	UseWithCaution:          Recommended,
	Vue3UseWithCaution:      Vue3Recommended,
}

// DefaultErrorTiers are configured at "error"; all other tiers use "warn".
var DefaultErrorTiers = []string{Base, Essential, Vue3Essential}

// defaultTitles are shown by tooling; generated modules do not use them.
var defaultTitles = map[string]string{
	Base:                    "Base Rules (Enabling Correct ESLint Parsing)",
	Essential:               "Priority A: Essential (Error Prevention) for Vue.js 2.x",
	Vue3Essential:           "Priority A: Essential (Error Prevention)",
	StronglyRecommended:     "Priority B: Strongly Recommended (Improving Readability) for Vue.js 2.x",
	Vue3StronglyRecommended: "Priority B: Strongly Recommended (Improving Readability)",
	Recommended:             "Priority C: Recommended (Potentially Dangerous Patterns) for Vue.js 2.x",
	Vue3Recommended:         "Priority C: Recommended (Potentially Dangerous Patterns)",
	UseWithCaution:          "Priority D: Use with Caution for Vue.js 2.x",
	Vue3UseWithCaution:      "Priority D: Use with Caution",
}

// DefaultFamilyPrefixes maps tier-name prefixes to the family they target.
// Tiers matching none of them target Vue 2.
func DefaultFamilyPrefixes() map[string]core.Family {
	return map[string]core.Family{
		"vue3": core.FamilyVue3,
	}
}

// DefaultSpecs returns the declarative form of the default table.
func DefaultSpecs() []Spec {
	errorSet := make(map[string]bool, len(DefaultErrorTiers))
	for _, id := range DefaultErrorTiers {
		errorSet[id] = true
	}

	ids := []string{
		Base, Essential, Vue3Essential,
		StronglyRecommended, Vue3StronglyRecommended,
		Recommended, Vue3Recommended,
		UseWithCaution, Vue3UseWithCaution,
	}
	specs := make([]Spec, 0, len(ids))
	for _, id := range ids {
		specs = append(specs, Spec{
			ID:      id,
			Extends: DefaultExtends[id],
			Error:   errorSet[id],
			Title:   defaultTitles[id],
		})
	}
	return specs
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
)

// Default returns the built-in tier table. It is built once and never mutated.
func Default() *Table {
	defaultOnce.Do(func() {
		t, err := NewTable(DefaultSpecs())
		if err != nil {
			panic("tier: invalid default table: " + err.Error())
		}
		defaultTable = t
	})
	return defaultTable
}
