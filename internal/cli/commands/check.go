package commands

import (
	"github.com/leapstack-labs/confgen/internal/cli/output"
	"github.com/leapstack-labs/confgen/internal/generator"
	"github.com/spf13/cobra"
)

// CheckOptions holds options for the check command.
type CheckOptions struct {
	Format string
}

// CheckJSONOutput is the JSON form of a check.
type CheckJSONOutput struct {
	UpToDate bool     `json:"up_to_date"`
	Checked  int      `json:"checked"`
	Stale    []string `json:"stale"`
	Missing  []string `json:"missing"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	opts := &CheckOptions{}
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify generated modules are up to date",
		Long: `Render every module in memory and compare it with the files on disk.
Nothing is written. The command fails when a module is stale or missing,
which makes it suitable for CI.`,
		Example: `  # Fail the build when configs need regenerating
  confgen check`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, markdown, json")

	return cmd
}

func runCheck(cmd *cobra.Command, opts *CheckOptions) error {
	cmdCtx, err := NewCommandContext(cmd, opts.Format)
	if err != nil {
		return err
	}
	gen, err := cmdCtx.Generator()
	if err != nil {
		return err
	}

	res, err := gen.Check(cmd.Context())
	if err != nil {
		return err
	}

	r := cmdCtx.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		if err := r.JSON(CheckJSONOutput{
			UpToDate: res.UpToDate(),
			Checked:  res.Checked,
			Stale:    nonNil(res.Stale),
			Missing:  nonNil(res.Missing),
		}); err != nil {
			return err
		}
	default:
		printCheckResult(r, res)
	}
	return res.Err()
}

func printCheckResult(r *output.Renderer, res *generator.CheckResult) {
	if res.UpToDate() {
		r.Printf("All %s up to date\n", plural(res.Checked, "module"))
		return
	}
	for _, p := range res.Stale {
		r.Printf("stale    %s\n", p)
	}
	for _, p := range res.Missing {
		r.Printf("missing  %s\n", p)
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
