package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/leapstack-labs/confgen/internal/catalog"
	"github.com/leapstack-labs/confgen/internal/cli/config"
	"github.com/leapstack-labs/confgen/pkg/compile"
	"github.com/leapstack-labs/confgen/pkg/lint"
	"github.com/leapstack-labs/confgen/pkg/tier"
)

// generateReferenceDocs writes the tier overview and one page per tier with
// the resolved entry of every rule.
func generateReferenceDocs(outDir, configPath string) error {
	log.Printf("Generating reference docs to %s from %s", outDir, configPath)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return errors.Wrap(err, "failed to create output directory")
	}

	cfg, err := config.LoadConfig(configPath, nil)
	if err != nil {
		return err
	}
	tiers, err := cfg.TierTable()
	if err != nil {
		return err
	}
	reg, err := (&catalog.Loader{Tiers: tiers}).Load(context.Background(), cfg.Catalog)
	if err != nil {
		return err
	}
	cats, err := lint.Categorize(reg, tiers)
	if err != nil {
		return err
	}

	if err := generateTiersIndex(outDir, tiers, cats); err != nil {
		return errors.Wrap(err, "failed to generate tier index")
	}
	log.Printf("  Generated index.md")

	for _, cat := range cats {
		if err := generateTierPage(outDir, tiers, cat); err != nil {
			return errors.Wrapf(err, "failed to generate page for %s", cat.ID)
		}
		log.Printf("  Generated %s.md", cat.ID)
	}
	return nil
}

func generateTiersIndex(outDir string, tiers *tier.Table, cats []lint.Category) error {
	w := NewMarkdownWriter()

	w.Frontmatter("Configurations", "Category tiers and the configuration modules generated for them")
	w.GeneratedMarker()

	w.Header(1, "Configurations")
	w.Paragraph("Each tier is generated twice: `configs/<tier>.js` for `.eslintrc` and `configs/flat/<tier>.js` for flat config. A tier extends its parent and only lists its own rules.")

	counts := make(map[string]int, len(cats))
	for _, c := range cats {
		counts[c.ID] = len(c.Rules)
	}

	var rows [][]string
	for _, t := range tiers.Tiers() {
		parent := "-"
		if !t.IsRoot() {
			parent = fmt.Sprintf("[%s](/configs/%s)", InlineCode(t.Parent), t.Parent)
		}
		rows = append(rows, []string{
			fmt.Sprintf("[%s](/configs/%s)", InlineCode(t.ID), t.ID),
			parent,
			InlineCode(t.Severity.String()),
			t.Family.Tag(),
			fmt.Sprint(counts[t.ID]),
		})
	}
	w.Table([]string{"Tier", "Extends", "Severity", "Family", "Rules"}, rows)

	return os.WriteFile(filepath.Join(outDir, "index.md"), w.Bytes(), 0600)
}

func generateTierPage(outDir string, tiers *tier.Table, cat lint.Category) error {
	t, err := tiers.Get(cat.ID)
	if err != nil {
		return err
	}
	chain, err := tiers.Chain(cat.ID)
	if err != nil {
		return err
	}

	w := NewMarkdownWriter()
	title := t.Title
	if title == "" {
		title = t.ID
	}
	w.Frontmatter(t.ID, title)
	w.GeneratedMarker()

	w.Header(1, title)
	w.BulletList([]string{
		Bold("Severity") + ": " + InlineCode(t.Severity.String()),
		Bold("Family") + ": " + t.Family.Tag(),
		Bold("Chain") + ": " + InlineCode(fmt.Sprint(chain)),
	})

	w.Header(2, "Usage")
	w.CodeBlock("js", fmt.Sprintf("// .eslintrc.js\nmodule.exports = {\n  extends: ['plugin:vue/%s']\n}", t.ID))

	w.Header(2, "Rules")
	if len(cat.Rules) == 0 {
		w.Paragraph("This tier adds no rules of its own.")
		return os.WriteFile(filepath.Join(outDir, t.ID+".md"), w.Bytes(), 0600)
	}

	var rows [][]string
	for _, rule := range cat.Rules {
		entry, err := json.Marshal(compile.Resolve(rule, t))
		if err != nil {
			return errors.Wrapf(err, "encode entry of %s", rule.ID)
		}
		rows = append(rows, []string{
			fmt.Sprintf("[%s](%s)", InlineCode(rule.ID), lint.BuildDocURL(rule.Name())),
			InlineCode(string(entry)),
			rule.Description,
		})
	}
	w.Table([]string{"Rule", "Entry", "Description"}, rows)

	return os.WriteFile(filepath.Join(outDir, t.ID+".md"), w.Bytes(), 0600)
}
