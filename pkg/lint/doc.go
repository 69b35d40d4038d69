// Package lint holds the rule catalog model used by the config compiler.
//
// # Rules
//
// A RuleDescriptor carries a rule's ID, the tiers it is categorized under and
// its default options per version family:
//
//	rule := lint.RuleDescriptor{
//		ID:         "vue/html-self-closing",
//		Categories: []string{"strongly-recommended", "vue3-strongly-recommended"},
//		DefaultOptions: map[core.Family][]any{
//			core.FamilyVue3: {map[string]any{"html": map[string]any{"void": "always"}}},
//		},
//	}
//
// # Registry
//
// Catalog loaders register descriptors into a Registry. IDs are unique; a
// second registration of the same ID is a schema violation.
//
// # Categorization
//
// Categorize turns a registry into one Category per tier of a tier.Table,
// with rules sorted by ID:
//
//	cats, err := lint.Categorize(reg, tier.Default())
package lint
