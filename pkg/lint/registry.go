package lint

import (
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/leapstack-labs/confgen/pkg/tier"
)

// Registry stores rule descriptors keyed by ID.
// It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	rules map[string]RuleDescriptor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{rules: make(map[string]RuleDescriptor)}
}

// Register adds a rule. Registering the same ID twice is a schema violation.
func (r *Registry) Register(rule RuleDescriptor) error {
	if err := rule.Validate(); err != nil {
		return errors.Mark(err, tier.ErrSchemaViolation)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.rules[rule.ID]; dup {
		return errors.Mark(errors.Newf("duplicate rule %q", rule.ID), tier.ErrSchemaViolation)
	}
	r.rules[rule.ID] = rule.clone()
	return nil
}

// Get returns a rule by its ID.
func (r *Registry) Get(id string) (RuleDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.rules[id]
	return rule, ok
}

// All returns every registered rule sorted by ID.
func (r *Registry) All() []RuleDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rules := make([]RuleDescriptor, 0, len(r.rules))
	for _, rule := range r.rules {
		rules = append(rules, rule)
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].ID < rules[j].ID })
	return rules
}

// ByCategory returns the non-deprecated rules listed in category, sorted by ID.
func (r *Registry) ByCategory(category string) []RuleDescriptor {
	var rules []RuleDescriptor
	for _, rule := range r.All() {
		if !rule.Deprecated && rule.InCategory(category) {
			rules = append(rules, rule)
		}
	}
	return rules
}

// Count returns the number of registered rules.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rules)
}
