package lint

import (
	"github.com/cockroachdb/errors"
	"github.com/leapstack-labs/confgen/pkg/tier"
)

// Category is one tier's rule list, ready to compile.
type Category struct {
	ID    string
	Rules []RuleDescriptor
}

// Categorize groups the registry into one Category per tier, in table order.
// Deprecated and uncategorized rules are skipped. A rule naming a category the
// table does not know is a schema violation.
func Categorize(reg *Registry, tiers *tier.Table) ([]Category, error) {
	byID := make(map[string][]RuleDescriptor, tiers.Len())

	for _, rule := range reg.All() {
		if rule.Deprecated || len(rule.Categories) == 0 {
			continue
		}
		seen := make(map[string]bool, len(rule.Categories))
		for _, c := range rule.Categories {
			if seen[c] {
				continue
			}
			seen[c] = true
			if _, ok := tiers.Lookup(c); !ok {
				err := errors.Mark(errors.Newf("rule %q lists unknown category %q", rule.ID, c), tier.ErrSchemaViolation)
				return nil, errors.WithHint(err, "fix the rule's categories or add the tier to the configuration")
			}
			byID[c] = append(byID[c], rule)
		}
	}

	out := make([]Category, 0, tiers.Len())
	for _, id := range tiers.IDs() {
		out = append(out, Category{ID: id, Rules: byID[id]})
	}
	return out, nil
}
