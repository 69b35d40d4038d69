package commands

import (
	"strconv"
	"strings"

	"github.com/leapstack-labs/confgen/internal/cli/output"
	"github.com/leapstack-labs/confgen/pkg/tier"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TiersOptions holds options for the tiers command.
type TiersOptions struct {
	Format string
}

// TierJSON is the JSON form of one tier.
type TierJSON struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Extends    string   `json:"extends,omitempty"`
	Severity   string   `json:"severity"`
	Family     string   `json:"family"`
	Depth      int      `json:"depth"`
	ExtendedBy []string `json:"extended_by,omitempty"`
}

// TiersJSONOutput is the JSON form of the tier table.
type TiersJSONOutput struct {
	Tiers      []TierJSON `json:"tiers"`
	ErrorTiers []string   `json:"error_tiers"`
}

// NewTiersCommand creates the tiers command.
func NewTiersCommand() *cobra.Command {
	opts := &TiersOptions{}
	cmd := &cobra.Command{
		Use:   "tiers",
		Short: "List category tiers",
		Long: `List the category tiers with their parent, severity and version family,
parents first.

Output adapts to environment:
  - Terminal: table
  - Piped/Scripted: Markdown table
  - JSON: Machine-readable format`,
		Example: `  # Show the tier table
  confgen tiers

  # Output as JSON
  confgen tiers --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTiers(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: table, markdown, json")
	_ = cmd.RegisterFlagCompletionFunc("format", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"table", "markdown", "json"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runTiers(cmd *cobra.Command, opts *TiersOptions) error {
	cmdCtx, err := NewCommandContext(cmd, opts.Format)
	if err != nil {
		return err
	}
	table, err := cmdCtx.Cfg.TierTable()
	if err != nil {
		return err
	}

	rows, err := tierRows(table)
	if err != nil {
		return err
	}

	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(TiersJSONOutput{Tiers: rows, ErrorTiers: table.ErrorTiers()})
	}

	body := make([][]string, 0, len(rows))
	for _, t := range rows {
		extends := t.Extends
		if extends == "" {
			extends = "-"
		}
		body = append(body, []string{t.ID, t.Title, extends, t.Severity, t.Family, strconv.Itoa(t.Depth)})
	}
	r.Table([]string{"Tier", "Title", "Extends", "Severity", "Family", "Depth"}, body)
	return nil
}

func tierRows(table *tier.Table) ([]TierJSON, error) {
	rows := make([]TierJSON, 0, table.Len())
	for _, t := range table.Tiers() {
		depth, err := table.Depth(t.ID)
		if err != nil {
			return nil, err
		}
		rows = append(rows, TierJSON{
			ID:         t.ID,
			Title:      tierTitle(t),
			Extends:    t.Parent,
			Severity:   t.Severity.String(),
			Family:     t.Family.Tag(),
			Depth:      depth,
			ExtendedBy: table.ExtendedBy(t.ID),
		})
	}
	return rows, nil
}

// tierTitle returns the configured title, or one derived from the tier ID.
func tierTitle(t tier.Tier) string {
	if t.Title != "" {
		return t.Title
	}
	return cases.Title(language.English).String(strings.ReplaceAll(t.ID, "-", " "))
}
