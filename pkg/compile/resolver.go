package compile

import (
	"github.com/leapstack-labs/confgen/pkg/core"
	"github.com/leapstack-labs/confgen/pkg/lint"
	"github.com/leapstack-labs/confgen/pkg/tier"
)

// Resolve returns the configuration entry of rule within tier t.
//
// The severity is the tier's severity. When the rule declares default
// options for the tier's family, they follow the severity in declared order;
// otherwise the entry is the bare severity.
func Resolve(rule lint.RuleDescriptor, t tier.Tier) core.ConfigEntry {
	entry := core.ConfigEntry{Severity: t.Severity}
	if opts, ok := rule.OptionsFor(t.Family); ok {
		entry.Options = append([]any{}, opts...)
	}
	return entry
}
