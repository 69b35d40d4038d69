package lint

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/leapstack-labs/confgen/pkg/core"
)

// RuleDescriptor is the metadata of one lint rule as read from the catalog.
// It is immutable once registered.
type RuleDescriptor struct {
	// ID is the full rule identifier including the plugin prefix, e.g. "vue/no-foo".
	ID string

	// DefaultOptions maps a version family to the rule's default options.
	// A nil map means the rule declares no default options. A nil list counts
	// as absent; an empty non-nil list still counts as an entry.
	DefaultOptions map[core.Family][]any

	// Categories lists the tier IDs the rule belongs to.
	Categories []string

	Deprecated  bool
	Description string
}

// OptionsFor returns the default options declared for family. The boolean
// reports whether an entry exists; a nil list is no entry.
func (r RuleDescriptor) OptionsFor(family core.Family) ([]any, bool) {
	opts := r.DefaultOptions[family]
	if opts == nil {
		return nil, false
	}
	return opts, true
}

// InCategory reports whether the rule is listed in the given category.
func (r RuleDescriptor) InCategory(id string) bool {
	for _, c := range r.Categories {
		if c == id {
			return true
		}
	}
	return false
}

// Name returns the rule ID without its plugin prefix.
func (r RuleDescriptor) Name() string {
	if i := strings.LastIndex(r.ID, "/"); i >= 0 {
		return r.ID[i+1:]
	}
	return r.ID
}

// Validate checks the descriptor is usable on its own.
func (r RuleDescriptor) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return errors.New("rule has an empty id")
	}
	if strings.ContainsAny(r.ID, " \t\n'\\") {
		return errors.Newf("rule id %q contains whitespace, quotes or backslashes", r.ID)
	}
	return nil
}

// clone copies the slices and map so the registry owns its data.
func (r RuleDescriptor) clone() RuleDescriptor {
	out := r
	out.Categories = append([]string(nil), r.Categories...)
	if r.DefaultOptions != nil {
		out.DefaultOptions = make(map[core.Family][]any, len(r.DefaultOptions))
		for f, opts := range r.DefaultOptions {
			if opts == nil {
				continue
			}
			out.DefaultOptions[f] = append([]any{}, opts...)
		}
	}
	return out
}

// RuleInfo provides metadata about a rule for documentation/tooling.
type RuleInfo struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Categories  []string `json:"categories,omitempty"`
	Families    []string `json:"families,omitempty"`
	Deprecated  bool     `json:"deprecated,omitempty"`
	Description string   `json:"description,omitempty"`
	DocURL      string   `json:"doc_url"`
}

// GetRuleInfo extracts metadata from a rule for documentation/tooling.
func GetRuleInfo(r RuleDescriptor) RuleInfo {
	info := RuleInfo{
		ID:          r.ID,
		Name:        r.Name(),
		Categories:  r.Categories,
		Deprecated:  r.Deprecated,
		Description: r.Description,
		DocURL:      BuildDocURL(r.Name()),
	}
	for _, f := range core.Families() {
		if _, ok := r.OptionsFor(f); ok {
			info.Families = append(info.Families, f.Tag())
		}
	}
	return info
}
