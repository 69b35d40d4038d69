package commands

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/leapstack-labs/confgen/internal/catalog"
	"github.com/leapstack-labs/confgen/internal/cli/output"
	"github.com/leapstack-labs/confgen/pkg/lint"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RulesOptions holds options for the rules command.
type RulesOptions struct {
	Category   string // Filter by category tier
	Deprecated bool   // Include deprecated rules
	Format     string // Output format
}

// RulesJSONOutput is the JSON form of a rule listing.
type RulesJSONOutput struct {
	Rules []lint.RuleInfo `json:"rules"`
	Count int             `json:"count"`
}

// NewRulesCommand creates the rules command.
func NewRulesCommand() *cobra.Command {
	opts := &RulesOptions{}
	cmd := &cobra.Command{
		Use:   "rules [rule-id]",
		Short: "List the rules of the catalog",
		Long: `List the rules declared in the catalog with their categories, the version
families they carry default options for and their documentation link.

Deprecated rules are hidden unless --deprecated is given; they never appear
in generated modules.`,
		Example: `  # List all rules
  confgen rules

  # Show one rule
  confgen rules vue/no-foo

  # List the rules of one tier
  confgen rules --category essential

  # Output as JSON
  confgen rules --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return showRule(cmd, args[0], opts)
			}
			return listRules(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Category, "category", "c", "", "Filter by category tier")
	cmd.Flags().BoolVar(&opts.Deprecated, "deprecated", false, "Include deprecated rules")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, markdown, json")

	return cmd
}

func loadRules(cmd *cobra.Command, format string) (*CommandContext, *lint.Registry, error) {
	cmdCtx, err := NewCommandContext(cmd, format)
	if err != nil {
		return nil, nil, err
	}
	table, err := cmdCtx.Cfg.TierTable()
	if err != nil {
		return nil, nil, err
	}
	if cmdCtx.Cfg.DocsBaseURL != "" {
		lint.SetDocsBaseURL(cmdCtx.Cfg.DocsBaseURL)
	}

	loader := &catalog.Loader{
		Tiers: table,
		Print: func(thread, msg string) {
			cmdCtx.Logger.Info(msg, zap.String("thread", thread))
		},
	}
	reg, err := loader.Load(cmd.Context(), cmdCtx.Cfg.Catalog)
	if err != nil {
		return nil, nil, err
	}
	return cmdCtx, reg, nil
}

func listRules(cmd *cobra.Command, opts *RulesOptions) error {
	defer lint.ResetDocsBaseURL()

	cmdCtx, reg, err := loadRules(cmd, opts.Format)
	if err != nil {
		return err
	}

	var rules []lint.RuleInfo
	for _, rule := range reg.All() {
		if rule.Deprecated && !opts.Deprecated {
			continue
		}
		if opts.Category != "" && !rule.InCategory(opts.Category) {
			continue
		}
		rules = append(rules, lint.GetRuleInfo(rule))
	}

	r := cmdCtx.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		if rules == nil {
			rules = []lint.RuleInfo{}
		}
		return r.JSON(RulesJSONOutput{Rules: rules, Count: len(rules)})
	case output.ModeMarkdown:
		listRulesMarkdown(r, rules)
	default:
		listRulesText(r, rules)
	}
	return nil
}

func listRulesText(r *output.Renderer, rules []lint.RuleInfo) {
	rows := make([][]string, 0, len(rules))
	for _, rule := range rules {
		id := rule.ID
		if rule.Deprecated {
			id += " (deprecated)"
		}
		rows = append(rows, []string{id, joinOrDash(rule.Categories), joinOrDash(rule.Families)})
	}
	r.Table([]string{"Rule", "Categories", "Options"}, rows)
	r.Println(r.Muted("Use 'confgen rules <rule-id>' for details"))
}

func listRulesMarkdown(r *output.Renderer, rules []lint.RuleInfo) {
	r.Println("# Rules")
	r.Println("")
	for _, rule := range rules {
		r.Printf("- [%s](%s)", rule.ID, rule.DocURL)
		if len(rule.Categories) > 0 {
			r.Printf(" - %s", strings.Join(rule.Categories, ", "))
		}
		if rule.Deprecated {
			r.Printf(" (deprecated)")
		}
		r.Println("")
	}
	r.Println("")
	r.Printf("%s\n", plural(len(rules), "rule"))
}

func showRule(cmd *cobra.Command, ruleID string, opts *RulesOptions) error {
	defer lint.ResetDocsBaseURL()

	cmdCtx, reg, err := loadRules(cmd, opts.Format)
	if err != nil {
		return err
	}

	rule, ok := reg.Get(ruleID)
	if !ok {
		return errors.WithHint(errors.Newf("rule %q not found", ruleID), "run confgen rules to list rule IDs")
	}
	info := lint.GetRuleInfo(rule)

	r := cmdCtx.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(info)
	case output.ModeMarkdown:
		r.Println("# " + info.ID)
		r.Println("")
		if info.Description != "" {
			r.Println(info.Description)
			r.Println("")
		}
		r.Printf("- **Categories:** %s\n", joinOrDash(info.Categories))
		r.Printf("- **Options for:** %s\n", joinOrDash(info.Families))
		r.Printf("- **Deprecated:** %t\n", info.Deprecated)
		r.Printf("- **Docs:** %s\n", info.DocURL)
	default:
		r.Println(r.Bold(info.ID))
		if info.Description != "" {
			r.Println("  " + info.Description)
		}
		r.Printf("  Categories:  %s\n", joinOrDash(info.Categories))
		r.Printf("  Options for: %s\n", joinOrDash(info.Families))
		if info.Deprecated {
			r.Println("  Deprecated")
		}
		r.Println(r.Muted("  " + info.DocURL))
	}
	return nil
}

func joinOrDash(s []string) string {
	if len(s) == 0 {
		return "-"
	}
	return strings.Join(s, ", ")
}
