package starlark

import (
	"sync"

	"github.com/cockroachdb/errors"
	"go.starlark.net/starlark"
)

// RuleDecl is one rule() call of a catalog script.
type RuleDecl struct {
	Name       string
	Categories []string
	// DefaultOptions is keyed by family tag; nil when the call passed none.
	DefaultOptions map[string][]any
	Deprecated     bool
	Description    string
}

// Collector accumulates the declarations made by a catalog script.
type Collector struct {
	mu     sync.Mutex
	prefix string
	set    bool
	rules  []RuleDecl
}

// Prefix returns the plugin prefix declared by plugin(), or "".
func (c *Collector) Prefix() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.prefix
}

// Rules returns the declared rules in call order.
func (c *Collector) Rules() []RuleDecl {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]RuleDecl(nil), c.rules...)
}

func (c *Collector) pluginBuiltin(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var prefix string
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "prefix", &prefix); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.set && c.prefix != prefix {
		return nil, errors.Newf("%s: prefix already set to %q", fn.Name(), c.prefix)
	}
	c.prefix = prefix
	c.set = true
	return starlark.None, nil
}

func (c *Collector) ruleBuiltin(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var (
		name        string
		categories  starlark.Iterable
		defaults    *starlark.Dict
		deprecated  bool
		description string
	)
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs,
		"name", &name,
		"categories?", &categories,
		"default_options?", &defaults,
		"deprecated?", &deprecated,
		"description?", &description,
	); err != nil {
		return nil, err
	}

	decl := RuleDecl{Name: name, Deprecated: deprecated, Description: description}

	if categories != nil {
		iter := categories.Iterate()
		defer iter.Done()
		var v starlark.Value
		for iter.Next(&v) {
			s, ok := starlark.AsString(v)
			if !ok {
				return nil, errors.Newf("%s(%q): categories must be strings, got %s", fn.Name(), name, v.Type())
			}
			decl.Categories = append(decl.Categories, s)
		}
	}

	if defaults != nil {
		decl.DefaultOptions = make(map[string][]any, defaults.Len())
		for _, item := range defaults.Items() {
			tag, ok := starlark.AsString(item[0])
			if !ok {
				return nil, errors.Newf("%s(%q): default_options keys must be family tags", fn.Name(), name)
			}
			if item[1] == starlark.None {
				continue
			}
			gv, err := ToGo(item[1])
			if err != nil {
				return nil, errors.Wrapf(err, "%s(%q): default_options[%q]", fn.Name(), name, tag)
			}
			opts, ok := gv.([]any)
			if !ok {
				return nil, errors.Newf("%s(%q): default_options[%q] must be a list", fn.Name(), name, tag)
			}
			decl.DefaultOptions[tag] = opts
		}
	}

	c.mu.Lock()
	c.rules = append(c.rules, decl)
	c.mu.Unlock()
	return starlark.None, nil
}

// Predeclared returns the globals available to catalog scripts.
func Predeclared(c *Collector, families, tiers []string) (starlark.StringDict, error) {
	fam, err := GoToStarlark(families)
	if err != nil {
		return nil, err
	}
	tr, err := GoToStarlark(tiers)
	if err != nil {
		return nil, err
	}
	fam.Freeze()
	tr.Freeze()

	return starlark.StringDict{
		"plugin":   starlark.NewBuiltin("plugin", c.pluginBuiltin),
		"rule":     starlark.NewBuiltin("rule", c.ruleBuiltin),
		"families": fam,
		"tiers":    tr,
	}, nil
}
