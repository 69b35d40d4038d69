// Package catalog loads rule catalogs into a lint.Registry.
//
// A catalog is a YAML, TOML or Starlark file listing every rule of a plugin
// with the tiers it belongs to and its default options per version family.
package catalog

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"
	"github.com/leapstack-labs/confgen/internal/starlark"
	"github.com/leapstack-labs/confgen/pkg/core"
	"github.com/leapstack-labs/confgen/pkg/lint"
	"github.com/leapstack-labs/confgen/pkg/tier"
	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned for catalog files with an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported catalog format")

// Document is the decoded form of a data catalog.
type Document struct {
	Prefix string    `yaml:"prefix" toml:"prefix"`
	Rules  []RuleDoc `yaml:"rules" toml:"rules"`
}

// RuleDoc is one rule entry of a catalog.
type RuleDoc struct {
	Name       string   `yaml:"name" toml:"name"`
	Categories []string `yaml:"categories" toml:"categories"`
	// DefaultOptions is keyed by family tag or version ("vue3", "3").
	DefaultOptions map[string][]any `yaml:"default_options" toml:"default_options"`
	Deprecated     bool             `yaml:"deprecated" toml:"deprecated"`
	Description    string           `yaml:"description" toml:"description"`
}

// Format identifies a catalog encoding.
type Format string

// Supported formats.
const (
	FormatYAML     Format = "yaml"
	FormatTOML     Format = "toml"
	FormatStarlark Format = "starlark"
)

// DetectFormat picks the format from the file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".star", ".bzl", ".sky":
		return FormatStarlark, nil
	default:
		return "", errors.WithHint(
			errors.Mark(errors.Newf("%s: unknown extension %q", path, filepath.Ext(path)), ErrUnsupportedFormat),
			"use .yaml, .yml, .toml or .star")
	}
}

// Loader reads catalogs.
type Loader struct {
	// Tiers is exposed to Starlark catalogs; nil means the default table.
	Tiers *tier.Table
	// Print receives print() output of Starlark catalogs.
	Print func(thread, msg string)
}

// Load reads the catalog at path into a new registry.
func (l *Loader) Load(ctx context.Context, path string) (*lint.Registry, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read catalog %s", path)
	}
	reg, err := l.decode(ctx, path, format, data)
	if err != nil {
		return nil, errors.Wrapf(err, "catalog %s", path)
	}
	return reg, nil
}

// Load reads the catalog at path with a default Loader.
func Load(ctx context.Context, path string) (*lint.Registry, error) {
	return (&Loader{}).Load(ctx, path)
}

func (l *Loader) decode(ctx context.Context, path string, format Format, data []byte) (*lint.Registry, error) {
	var doc Document
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
			return nil, errors.Wrap(err, "decode yaml")
		}
	case FormatTOML:
		md, err := toml.Decode(string(data), &doc)
		if err != nil {
			return nil, errors.Wrap(err, "decode toml")
		}
		if unknown := unknownTOMLKeys(md.Undecoded()); len(unknown) > 0 {
			return nil, errors.Newf("unknown keys: %v", unknown)
		}
	case FormatStarlark:
		d, err := l.execStarlark(ctx, path, data)
		if err != nil {
			return nil, err
		}
		doc = *d
	default:
		return nil, errors.Mark(errors.Newf("format %q", format), ErrUnsupportedFormat)
	}
	return doc.Registry()
}

// unknownTOMLKeys drops the keys of inline tables inside default_options,
// which toml reports as undecoded when the target is []any.
func unknownTOMLKeys(keys []toml.Key) []toml.Key {
	var out []toml.Key
	for _, k := range keys {
		if len(k) > 2 && k[0] == "rules" && k[1] == "default_options" {
			continue
		}
		out = append(out, k)
	}
	return out
}

func (l *Loader) execStarlark(ctx context.Context, path string, data []byte) (*Document, error) {
	tiers := l.Tiers
	if tiers == nil {
		tiers = tier.Default()
	}
	families := make([]string, 0, len(core.Families()))
	for _, f := range core.Families() {
		families = append(families, f.Tag())
	}

	c, err := starlark.ExecCatalog(ctx, path, data, starlark.Options{
		Families: families,
		Tiers:    tiers.IDs(),
		Print:    l.Print,
	})
	if err != nil {
		return nil, err
	}

	doc := &Document{Prefix: c.Prefix()}
	for _, d := range c.Rules() {
		doc.Rules = append(doc.Rules, RuleDoc{
			Name:           d.Name,
			Categories:     d.Categories,
			DefaultOptions: d.DefaultOptions,
			Deprecated:     d.Deprecated,
			Description:    d.Description,
		})
	}
	return doc, nil
}

// Registry converts the document into a registry. Duplicate rule IDs and
// unknown families are schema violations.
func (d *Document) Registry() (*lint.Registry, error) {
	reg := lint.NewRegistry()
	for i, r := range d.Rules {
		rule, err := d.descriptor(r)
		if err != nil {
			return nil, errors.Wrapf(err, "rules[%d]", i)
		}
		if err := reg.Register(rule); err != nil {
			return nil, errors.Wrapf(err, "rules[%d]", i)
		}
	}
	return reg, nil
}

func (d *Document) descriptor(r RuleDoc) (lint.RuleDescriptor, error) {
	rule := lint.RuleDescriptor{
		ID:          d.Prefix + r.Name,
		Categories:  r.Categories,
		Deprecated:  r.Deprecated,
		Description: strings.TrimSpace(r.Description),
	}
	if r.DefaultOptions == nil {
		return rule, nil
	}

	rule.DefaultOptions = make(map[core.Family][]any, len(r.DefaultOptions))
	for key, opts := range r.DefaultOptions {
		family, err := core.ParseFamily(key)
		if err != nil {
			return lint.RuleDescriptor{}, errors.Mark(
				errors.Wrapf(err, "rule %q default_options", rule.ID), tier.ErrSchemaViolation)
		}
		if _, dup := rule.DefaultOptions[family]; dup {
			return lint.RuleDescriptor{}, errors.Mark(
				errors.Newf("rule %q declares options for %s twice", rule.ID, family), tier.ErrSchemaViolation)
		}
		if opts == nil {
			continue
		}
		rule.DefaultOptions[family] = normalize(opts).([]any)
	}
	return rule, nil
}

// normalize turns decoder-specific containers into []any and map[string]any.
func normalize(v any) any {
	switch x := v.(type) {
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = normalize(e)
		}
		return out
	case []map[string]any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = normalize(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = normalize(e)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[toKey(k)] = normalize(e)
		}
		return out
	default:
		return v
	}
}

func toKey(k any) string {
	if s, ok := k.(string); ok {
		return s
	}
	return fmt.Sprint(k)
}
