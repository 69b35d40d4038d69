package compile

import (
	"path"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/leapstack-labs/confgen/pkg/core"
	"github.com/leapstack-labs/confgen/pkg/lint"
	"github.com/leapstack-labs/confgen/pkg/tier"
)

// Shape selects the module structure a category is rendered into.
type Shape int

// Output shapes.
const (
	// ShapeLegacy is consumed by the eslintrc loader.
	ShapeLegacy Shape = iota
	// ShapeFlat is consumed by the flat config loader.
	ShapeFlat
)

// Shapes returns every output shape.
func Shapes() []Shape {
	return []Shape{ShapeLegacy, ShapeFlat}
}

// String implements fmt.Stringer.
func (s Shape) String() string {
	switch s {
	case ShapeLegacy:
		return "legacy"
	case ShapeFlat:
		return "flat"
	default:
		return "unknown"
	}
}

// DefaultRegenerateCommand is named in the header of every generated module.
const DefaultRegenerateCommand = "npm run update"

// DefaultFlatDir is the flat-shape subdirectory of the output root.
const DefaultFlatDir = "flat"

// Options tune rendering. The zero value renders with the defaults.
type Options struct {
	RegenerateCommand string
	// FlatDir is the directory of flat modules relative to the output root.
	FlatDir string
}

func (o Options) withDefaults() Options {
	if o.RegenerateCommand == "" {
		o.RegenerateCommand = DefaultRegenerateCommand
	}
	if o.FlatDir == "" {
		o.FlatDir = DefaultFlatDir
	}
	return o
}

// Validate rejects options that would produce a broken module.
func (o Options) Validate() error {
	o = o.withDefaults()
	if strings.Contains(o.RegenerateCommand, "*/") || strings.ContainsAny(o.RegenerateCommand, "\r\n") {
		return errors.Newf("regenerate command %q cannot appear in a block comment", o.RegenerateCommand)
	}
	if path.IsAbs(o.FlatDir) || strings.HasPrefix(path.Clean(o.FlatDir), "..") {
		return errors.Newf("flat directory %q must stay below the output root", o.FlatDir)
	}
	if path.Clean(o.FlatDir) == "." {
		return errors.Newf("flat directory %q would overwrite the legacy modules", o.FlatDir)
	}
	return nil
}

// Path returns where the module of tierID lives, relative to the output root.
func (o Options) Path(tierID string, shape Shape) string {
	o = o.withDefaults()
	if shape == ShapeFlat {
		return path.Join(o.FlatDir, tierID+".js")
	}
	return tierID + ".js"
}

// Module is the rendered source text of one category in one shape.
type Module struct {
	TierID  string
	Shape   Shape
	Path    string
	Content string
}

// RuleEntry pairs a rule ID with its resolved configuration entry.
type RuleEntry struct {
	ID    string
	Entry core.ConfigEntry
}

// ResolveCategory resolves every rule of cat against t, in declared order.
// A rule ID appearing twice is a schema violation.
func ResolveCategory(cat lint.Category, t tier.Tier) ([]RuleEntry, error) {
	seen := make(map[string]bool, len(cat.Rules))
	entries := make([]RuleEntry, 0, len(cat.Rules))
	for _, rule := range cat.Rules {
		if seen[rule.ID] {
			return nil, errors.Mark(
				errors.Newf("rule %q listed twice in category %q", rule.ID, cat.ID),
				tier.ErrSchemaViolation)
		}
		seen[rule.ID] = true
		entries = append(entries, RuleEntry{ID: rule.ID, Entry: Resolve(rule, t)})
	}
	return entries, nil
}

// Compile renders cat as a module of the given shape.
//
// A tier without a parent gets the root module, carrying the parser and
// environment wiring. Any other tier gets an extension module that references
// its parent's module and lists only its own rules.
func Compile(cat lint.Category, tiers *tier.Table, shape Shape, opts Options) (Module, error) {
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return Module{}, err
	}

	t, err := tiers.Get(cat.ID)
	if err != nil {
		return Module{}, err
	}

	entries, err := ResolveCategory(cat, t)
	if err != nil {
		return Module{}, err
	}

	rules, err := renderRules(entries, 1)
	if err != nil {
		return Module{}, errors.Wrapf(err, "render rules of %q", cat.ID)
	}

	var b strings.Builder
	writeHeader(&b, opts.RegenerateCommand)

	switch shape {
	case ShapeLegacy:
		if t.IsRoot() {
			writeLegacyRoot(&b, rules)
		} else {
			writeLegacyExtension(&b, t.Parent, rules)
		}
	case ShapeFlat:
		if t.IsRoot() {
			writeFlatRoot(&b, rules)
		} else {
			writeFlatExtension(&b, t.Parent, rules)
		}
	default:
		return Module{}, errors.Newf("unknown shape %d", int(shape))
	}

	return Module{
		TierID:  cat.ID,
		Shape:   shape,
		Path:    opts.Path(cat.ID, shape),
		Content: b.String(),
	}, nil
}

// renderRules renders the rule mapping as an object literal. Keys keep the
// entries' order and are always quoted.
func renderRules(entries []RuleEntry, depth int) (string, error) {
	if len(entries) == 0 {
		return "{}", nil
	}

	var b strings.Builder
	b.WriteString("{\n")
	for i, e := range entries {
		b.WriteString(indent(depth + 1))
		b.WriteString(quoteJS(e.ID))
		b.WriteString(": ")
		if err := writeJSValue(&b, e.Entry.Values(), depth+1); err != nil {
			return "", errors.Wrapf(err, "rule %q", e.ID)
		}
		if i < len(entries)-1 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
	b.WriteString(indent(depth))
	b.WriteByte('}')
	return b.String(), nil
}

// Header returns the comment that opens every generated module.
func Header(regenerateCommand string) string {
	var b strings.Builder
	writeHeader(&b, regenerateCommand)
	return b.String()
}

func writeHeader(b *strings.Builder, regenerateCommand string) {
	if regenerateCommand == "" {
		regenerateCommand = DefaultRegenerateCommand
	}
	b.WriteString("/*\n")
	b.WriteString(" * IMPORTANT!\n")
	b.WriteString(" * This file has been automatically generated,\n")
	b.WriteString(" * in order to update its content execute \"" + regenerateCommand + "\"\n")
	b.WriteString(" */\n")
}

func writeLegacyRoot(b *strings.Builder, rules string) {
	b.WriteString("module.exports = {\n")
	b.WriteString("  parser: require.resolve('vue-eslint-parser'),\n")
	b.WriteString("  parserOptions: {\n")
	b.WriteString("    ecmaVersion: 2020,\n")
	b.WriteString("    sourceType: 'module'\n")
	b.WriteString("  },\n")
	b.WriteString("  env: {\n")
	b.WriteString("    browser: true,\n")
	b.WriteString("    es6: true\n")
	b.WriteString("  },\n")
	b.WriteString("  plugins: ['vue'],\n")
	b.WriteString("  rules: " + rules + "\n")
	b.WriteString("}\n")
}

func writeLegacyExtension(b *strings.Builder, parent, rules string) {
	b.WriteString("module.exports = {\n")
	b.WriteString("  extends: require.resolve(" + quoteJS("./"+parent) + "),\n")
	b.WriteString("  rules: " + rules + "\n")
	b.WriteString("}\n")
}

func writeFlatRoot(b *strings.Builder, rules string) {
	b.WriteString("const globals = require('globals')\n")
	b.WriteString("const vueEslintParser = require('vue-eslint-parser')\n")
	b.WriteString("module.exports = {\n")
	b.WriteString("  languageOptions: {\n")
	b.WriteString("    parser: vueEslintParser,\n")
	b.WriteString("    globals: {\n")
	b.WriteString("      ...globals.browser,\n")
	b.WriteString("      ...globals.es2015\n")
	b.WriteString("    },\n")
	b.WriteString("    parserOptions: {\n")
	b.WriteString("      ecmaVersion: 2020,\n")
	b.WriteString("      sourceType: 'module'\n")
	b.WriteString("    }\n")
	b.WriteString("  },\n")
	b.WriteString("  rules: " + rules + "\n")
	b.WriteString("}\n")
}

func writeFlatExtension(b *strings.Builder, parent, rules string) {
	b.WriteString("const extendedConfig = require(" + quoteJS("./"+parent) + ")\n")
	b.WriteString("module.exports = {\n")
	b.WriteString("  extendedConfig,\n")
	b.WriteString("  rules: " + rules + "\n")
	b.WriteString("}\n")
}
