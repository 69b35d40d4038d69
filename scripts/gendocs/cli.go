package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/leapstack-labs/confgen/internal/catalog"
	"github.com/leapstack-labs/confgen/internal/cli"
	"github.com/leapstack-labs/confgen/internal/cli/config"
	"github.com/leapstack-labs/confgen/internal/fixer"
	"github.com/leapstack-labs/confgen/internal/generator"
	"github.com/leapstack-labs/confgen/pkg/tier"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// configKeyDocs describes the keys of confgen.yaml.
var configKeyDocs = map[string]string{
	"catalog":            "Rule catalog: .yaml, .yml, .toml or .star",
	"out_dir":            "Output root; legacy modules are written here",
	"flat_dir":           "Directory of the flat modules, relative to out_dir",
	"regenerate_command": "Command named in the header of every module",
	"concurrency":        "Parallel compilations; 0 uses every CPU",
	"format":             "Run the formatting pass after writing",
	"verbose":            "Debug logging",
	"log_format":         "console, json or text",
	"docs_base_url":      "Base URL of rule documentation links",
	"tiers":              "Replaces the built-in tier table",
	"family_prefixes":    "Replaces the tier name prefixes used to derive a family",
}

// tierFieldDocs describes the fields of a tiers entry.
var tierFieldDocs = map[string]string{
	"id":      "Tier ID; also the module file name",
	"extends": "Parent tier; empty for a root module",
	"error":   "Rules of this tier are configured at error instead of warn",
	"family":  "vue2, vue3 or a version such as 3.4; derived from family_prefixes when empty",
	"title":   "Display name",
}

// failureClasses are the error classes that make confgen exit non-zero.
var failureClasses = []struct {
	err  error
	desc string
}{
	{tier.ErrSchemaViolation, "Tier or catalog data is inconsistent; nothing is written"},
	{catalog.ErrUnsupportedFormat, "The catalog extension is not recognized"},
	{generator.ErrWriteFailure, "A module could not be written"},
	{fixer.ErrFormatterFailure, "Modules were written but failed the formatting pass"},
	{generator.ErrStale, "check found modules that differ from a fresh render"},
}

// configKey is one documented configuration key.
type configKey struct {
	Name    string
	Env     string
	Flag    string
	Default string
	Doc     string
}

// generateCLIDocs writes index.md, configuration.md and one page per command.
func generateCLIDocs(outDir string) error {
	log.Printf("Generating CLI docs to %s", outDir)
	if err := os.MkdirAll(outDir, 0750); err != nil {
		return errors.Wrap(err, "failed to create output directory")
	}

	root := cli.NewRootCmd()
	cmds := visibleCommands(root)
	keys := configKeys(root)

	pages := map[string][]byte{
		"index.md":         cliIndex(root, cmds),
		"configuration.md": configurationPage(keys),
	}
	for _, cmd := range cmds {
		pages[cmd.Name()+".md"] = commandPage(cmd, keys)
	}

	names := make([]string, 0, len(pages))
	for name := range pages {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(outDir, name), pages[name], 0600); err != nil {
			return errors.Wrapf(err, "write %s", name)
		}
		log.Printf("  Generated %s", name)
	}
	return nil
}

func visibleCommands(root *cobra.Command) []*cobra.Command {
	var out []*cobra.Command
	for _, cmd := range root.Commands() {
		if cmd.Hidden || cmd.Name() == "help" || cmd.Name() == "__complete" {
			continue
		}
		out = append(out, cmd)
	}
	return out
}

// configKeys lists the koanf keys of config.Config with the flag and
// environment variable that set each one.
func configKeys(root *cobra.Command) []configKey {
	defaults := config.Defaults()
	flags := flagNames(root)

	t := reflect.TypeOf(config.Config{})
	var out []configKey
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name := f.Tag.Get("koanf")
		if name == "" || name == "-" {
			continue
		}
		k := configKey{Name: name, Doc: configKeyDocs[name]}
		if kind := f.Type.Kind(); kind != reflect.Slice && kind != reflect.Map {
			k.Env = "CONFGEN_" + strings.ToUpper(name)
		}
		if name == "format" && flags["skip-format"] {
			k.Flag = "--skip-format (inverted)"
		} else if flag := strings.ReplaceAll(name, "_", "-"); flags[flag] {
			k.Flag = "--" + flag
		}
		if v, ok := defaults[name]; ok {
			k.Default = fmt.Sprint(v)
		}
		out = append(out, k)
	}
	return out
}

func flagNames(root *cobra.Command) map[string]bool {
	names := make(map[string]bool)
	collect := func(fs *pflag.FlagSet) {
		fs.VisitAll(func(f *pflag.Flag) { names[f.Name] = true })
	}
	collect(root.PersistentFlags())
	for _, cmd := range root.Commands() {
		collect(cmd.LocalFlags())
	}
	return names
}

func cliIndex(root *cobra.Command, cmds []*cobra.Command) []byte {
	w := NewMarkdownWriter()
	w.Frontmatter("CLI Reference", "Command-line interface reference for confgen")
	w.GeneratedMarker()

	w.Header(1, "CLI Reference")
	w.Paragraph("confgen compiles a rule catalog into legacy and flat ESLint configuration modules, one per category tier.")
	w.CodeBlock("bash", "go install github.com/leapstack-labs/confgen/cmd/confgen@latest\nconfgen <command> [options]")

	w.Header(2, "Commands")
	var rows [][]string
	for _, cmd := range cmds {
		link := fmt.Sprintf("[%s](/cli/%s)", InlineCode(cmd.Name()), cmd.Name())
		rows = append(rows, []string{link, cleanDescription(cmd.Short)})
	}
	w.Table([]string{"Command", "Description"}, rows)

	w.Header(2, "Global Options")
	writeFlagsTable(w, root.PersistentFlags(), nil)
	w.Paragraph("Every option can also be set in `confgen.yaml` or the environment; see [Configuration](/cli/configuration).")

	w.Header(2, "Exit Status")
	w.Paragraph("confgen exits 0 on success and 1 otherwise. The first line on stderr names the failure class:")
	rows = nil
	for _, c := range failureClasses {
		rows = append(rows, []string{InlineCode(c.err.Error()), c.desc})
	}
	w.Table([]string{"Class", "Meaning"}, rows)

	return w.Bytes()
}

func configurationPage(keys []configKey) []byte {
	w := NewMarkdownWriter()
	w.Frontmatter("Configuration", "confgen.yaml keys, environment variables and tier data")
	w.GeneratedMarker()

	w.Header(1, "Configuration")
	files := make([]string, 0, len(config.ConfigFileNames))
	for _, name := range config.ConfigFileNames {
		files = append(files, InlineCode(name))
	}
	w.Paragraph(fmt.Sprintf("confgen reads %s from the working directory or the nearest parent that has one. "+
		"Flags override environment variables, which override the file.", strings.Join(files, " or ")))

	w.Header(2, "Keys")
	var rows [][]string
	for _, k := range keys {
		rows = append(rows, []string{InlineCode(k.Name), codeOrEmpty(k.Env), codeOrEmpty(k.Flag), codeOrEmpty(k.Default), k.Doc})
	}
	w.Table([]string{"Key", "Environment", "Flag", "Default", "Description"}, rows)

	w.Header(2, "Tiers")
	w.Paragraph("Each entry of `tiers` declares one category tier. Parents must be declared and the extends graph must be acyclic.")
	rows = nil
	for _, name := range specFields() {
		rows = append(rows, []string{InlineCode(name), tierFieldDocs[name]})
	}
	w.Table([]string{"Field", "Description"}, rows)
	w.CodeBlock("yaml", tiersExample(tier.DefaultSpecs()[:3]))

	w.Header(2, "Family Prefixes")
	w.Paragraph("A tier without a `family` takes the family of the longest prefix of its ID; other tiers target vue2. The built-in prefixes are:")
	prefixes := tier.DefaultFamilyPrefixes()
	var items []string
	for p, f := range prefixes {
		items = append(items, fmt.Sprintf("%s: %s", InlineCode(p), f.Tag()))
	}
	sort.Strings(items)
	w.BulletList(items)

	return w.Bytes()
}

func specFields() []string {
	t := reflect.TypeOf(tier.Spec{})
	out := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		if name := t.Field(i).Tag.Get("koanf"); name != "" {
			out = append(out, name)
		}
	}
	return out
}

func tiersExample(specs []tier.Spec) string {
	var b strings.Builder
	b.WriteString("tiers:\n")
	for _, s := range specs {
		fmt.Fprintf(&b, "  - id: %s\n", s.ID)
		if s.Extends != "" {
			fmt.Fprintf(&b, "    extends: %s\n", s.Extends)
		}
		if s.Error {
			b.WriteString("    error: true\n")
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func commandPage(cmd *cobra.Command, keys []configKey) []byte {
	w := NewMarkdownWriter()
	w.Frontmatter(cmd.Name(), cmd.Short)
	w.GeneratedMarker()

	w.Header(1, cmd.Name())
	if cmd.Long != "" {
		w.Paragraph(cmd.Long)
	} else {
		w.Paragraph(cmd.Short)
	}

	w.Header(2, "Usage")
	w.CodeBlock("bash", "confgen "+strings.TrimPrefix(cmd.UseLine(), "confgen "))

	flagKeys := make(map[string]string)
	for _, k := range keys {
		if k.Flag != "" {
			flagKeys[strings.Fields(k.Flag)[0]] = k.Name
		}
	}
	if cmd.HasLocalFlags() {
		w.Header(2, "Options")
		writeFlagsTable(w, cmd.LocalFlags(), flagKeys)
	}
	if cmd.HasInheritedFlags() {
		w.Header(2, "Global Options")
		writeFlagsTable(w, cmd.InheritedFlags(), flagKeys)
	}

	if cmd.Example != "" {
		w.Header(2, "Examples")
		w.CodeBlock("bash", cleanExample(cmd.Example))
	}
	return w.Bytes()
}

// writeFlagsTable writes one row per visible flag. When keys is non-nil a
// column names the configuration key the flag overrides.
func writeFlagsTable(w *MarkdownWriter, flags *pflag.FlagSet, keys map[string]string) {
	headers := []string{"Option", "Short", "Default", "Description"}
	if keys != nil {
		headers = append(headers, "Config key")
	}

	var rows [][]string
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		short := ""
		if f.Shorthand != "" {
			short = "-" + f.Shorthand
		}
		def := f.DefValue
		if f.Value.Type() == "string" {
			def = codeOrEmpty(def)
		}
		row := []string{InlineCode("--" + f.Name), short, def, cleanDescription(f.Usage)}
		if keys != nil {
			row = append(row, codeOrEmpty(keys["--"+f.Name]))
		}
		rows = append(rows, row)
	})
	w.Table(headers, rows)
}

func codeOrEmpty(s string) string {
	if s == "" {
		return ""
	}
	return InlineCode(s)
}

// cleanExample strips the indentation shared by every non-blank line.
func cleanExample(example string) string {
	lines := strings.Split(example, "\n")
	prefix, seen := "", false
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lead := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		if !seen {
			prefix, seen = lead, true
			continue
		}
		for !strings.HasPrefix(lead, prefix) {
			prefix = prefix[:len(prefix)-1]
		}
	}
	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, prefix)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
