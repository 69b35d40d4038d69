// Package tier defines the category tiers of a generated configuration family
// and the extends graph that chains them together.
//
// A Table is immutable once built. The default table mirrors the published
// eslint-plugin-vue presets: two chains (Vue 2 and Vue 3) rooted at "base".
package tier

import (
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/leapstack-labs/confgen/internal/dag"
	"github.com/leapstack-labs/confgen/pkg/core"
)

// ErrSchemaViolation marks inconsistent tier or category data: an unknown
// tier, an extends cycle, an unknown parent or a duplicate rule.
// Generation must abort before any file is written.
var ErrSchemaViolation = errors.New("schema violation")

// Tier is one category tier with everything resolved at construction time.
type Tier struct {
	ID string
	// Parent is the tier this one extends; empty for a root tier.
	Parent   string
	Severity core.Severity
	Family   core.Family
	Title    string
}

// IsRoot reports whether the tier extends nothing.
func (t Tier) IsRoot() bool {
	return t.Parent == ""
}

// Spec is the declarative form of a tier, as found in configuration files.
type Spec struct {
	ID      string `koanf:"id"`
	Extends string `koanf:"extends"`
	// Error puts the tier into the error tier set.
	Error bool `koanf:"error"`
	// Family is optional; when empty it is derived from the family prefixes.
	Family string `koanf:"family"`
	Title  string `koanf:"title"`
}

// Table is an immutable, validated set of tiers.
type Table struct {
	tiers map[string]Tier
	order []string
	graph *dag.Graph
}

// Option customises NewTable.
type Option func(*tableOptions)

type tableOptions struct {
	prefixes map[string]core.Family
}

// WithFamilyPrefixes replaces the name-prefix table used to derive the family
// of tiers that do not declare one.
func WithFamilyPrefixes(prefixes map[string]core.Family) Option {
	return func(o *tableOptions) {
		o.prefixes = prefixes
	}
}

// NewTable validates specs and builds a Table. Every validation failure is
// marked with ErrSchemaViolation.
func NewTable(specs []Spec, opts ...Option) (*Table, error) {
	o := &tableOptions{prefixes: DefaultFamilyPrefixes()}
	for _, opt := range opts {
		opt(o)
	}

	if len(specs) == 0 {
		return nil, schemaErrorf("no tiers defined")
	}

	t := &Table{
		tiers: make(map[string]Tier, len(specs)),
		graph: dag.NewGraph(),
	}

	declared := make([]string, 0, len(specs))
	for _, s := range specs {
		id := strings.TrimSpace(s.ID)
		if id == "" {
			return nil, schemaErrorf("tier with empty id")
		}
		if id == "." || id == ".." || strings.ContainsAny(id, `/\'`) {
			return nil, schemaErrorf("tier id %q must be a plain file name", id)
		}
		if _, dup := t.tiers[id]; dup {
			return nil, schemaErrorf("duplicate tier %q", id)
		}

		family, err := resolveFamily(id, s.Family, o.prefixes)
		if err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "tier %q", id), ErrSchemaViolation)
		}

		sev := core.SeverityWarn
		if s.Error {
			sev = core.SeverityError
		}

		t.tiers[id] = Tier{
			ID:       id,
			Parent:   strings.TrimSpace(s.Extends),
			Severity: sev,
			Family:   family,
			Title:    s.Title,
		}
		t.graph.AddNode(id)
		declared = append(declared, id)
	}

	for _, id := range declared {
		tr := t.tiers[id]
		if tr.IsRoot() {
			continue
		}
		if !t.graph.HasNode(tr.Parent) {
			err := schemaErrorf("tier %q extends unknown tier %q", tr.ID, tr.Parent)
			return nil, errors.WithHint(err, "declare the parent tier or clear the extends field")
		}
		if err := t.graph.AddEdge(tr.Parent, tr.ID); err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "tier %q", tr.ID), ErrSchemaViolation)
		}
	}

	order, err := t.graph.TopologicalSort()
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "extends graph"), ErrSchemaViolation)
	}
	t.order = order

	return t, nil
}

// resolveFamily returns the declared family, or derives it once from the
// longest matching name prefix. Tiers matching no prefix target Vue 2.
func resolveFamily(id, declared string, prefixes map[string]core.Family) (core.Family, error) {
	if declared != "" {
		return core.ParseFamily(declared)
	}

	keys := make([]string, 0, len(prefixes))
	for p := range prefixes {
		keys = append(keys, p)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	for _, p := range keys {
		if strings.HasPrefix(id, p) {
			return prefixes[p], nil
		}
	}
	return core.FamilyVue2, nil
}

func schemaErrorf(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrSchemaViolation)
}

// Len returns the number of tiers.
func (t *Table) Len() int {
	return len(t.order)
}

// IDs returns tier IDs with every parent before the tiers extending it.
func (t *Table) IDs() []string {
	return append([]string(nil), t.order...)
}

// Tiers returns all tiers in the order of IDs.
func (t *Table) Tiers() []Tier {
	out := make([]Tier, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.tiers[id])
	}
	return out
}

// Lookup returns the tier with the given ID.
func (t *Table) Lookup(id string) (Tier, bool) {
	tr, ok := t.tiers[id]
	return tr, ok
}

// Get is Lookup for callers that treat an unknown tier as a contract violation.
func (t *Table) Get(id string) (Tier, error) {
	tr, ok := t.tiers[id]
	if !ok {
		err := schemaErrorf("unknown tier %q", id)
		return Tier{}, errors.WithHint(err, "add the tier to the tiers section of the configuration")
	}
	return tr, nil
}

// Parent returns the ID of the tier id extends, or "" for a root tier.
func (t *Table) Parent(id string) (string, error) {
	tr, err := t.Get(id)
	if err != nil {
		return "", err
	}
	return tr.Parent, nil
}

// Chain returns id followed by each ancestor up to its root.
func (t *Table) Chain(id string) ([]string, error) {
	var out []string
	for cur := id; cur != ""; {
		tr, err := t.Get(cur)
		if err != nil {
			return nil, err
		}
		out = append(out, cur)
		if len(out) > len(t.tiers) {
			return nil, schemaErrorf("extends chain from %q does not terminate", id)
		}
		cur = tr.Parent
	}
	return out, nil
}

// Depth returns how many extends steps separate id from its root.
func (t *Table) Depth(id string) (int, error) {
	chain, err := t.Chain(id)
	if err != nil {
		return 0, err
	}
	return len(chain) - 1, nil
}

// Roots returns the IDs of tiers that extend nothing.
func (t *Table) Roots() []string {
	return t.graph.Roots()
}

// ExtendedBy returns every tier that inherits from id, directly or not.
func (t *Table) ExtendedBy(id string) []string {
	return t.graph.Descendants(id)
}

// ErrorTiers returns the IDs of tiers configured at error severity, sorted.
func (t *Table) ErrorTiers() []string {
	var out []string
	for id, tr := range t.tiers {
		if tr.Severity == core.SeverityError {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
