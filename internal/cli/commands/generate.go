package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/confgen/internal/cli/output"
	"github.com/leapstack-labs/confgen/internal/generator"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// GenerateOptions holds options for the generate command.
type GenerateOptions struct {
	Watch       bool
	SkipFormat  bool
	Concurrency int
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand() *cobra.Command {
	opts := &GenerateOptions{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Regenerate every configuration module",
		Long: `Compile every category tier of the rule catalog into its legacy and
flat configuration modules, write them below the output directory and run
the formatting pass once over the result.

Nothing is written when the catalog or the tier table is inconsistent.`,
		Example: `  # Regenerate all modules
  confgen generate

  # Regenerate on every catalog change
  confgen generate --watch

  # Write without the formatting pass
  confgen generate --skip-format`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Regenerate when the catalog changes")
	cmd.Flags().BoolVar(&opts.SkipFormat, "skip-format", false, "Skip the formatting pass")
	cmd.Flags().IntVarP(&opts.Concurrency, "concurrency", "j", 0, "Parallel compilations (0 = number of CPUs)")

	return cmd
}

func runGenerate(cmd *cobra.Command, opts *GenerateOptions) error {
	cmdCtx, err := NewCommandContext(cmd, "")
	if err != nil {
		return err
	}
	gen, err := cmdCtx.Generator()
	if err != nil {
		return err
	}

	if opts.Watch {
		return gen.Watch(cmd.Context(), func(res *generator.Result, err error) {
			if err != nil {
				cmdCtx.Logger.Error("regeneration failed", zap.Error(err))
				return
			}
			printGenerateResult(cmdCtx.Renderer, cmdCtx.Cfg.OutDir, res)
		})
	}

	res, err := gen.Run(cmd.Context())
	if err != nil {
		return err
	}
	printGenerateResult(cmdCtx.Renderer, cmdCtx.Cfg.OutDir, res)
	return nil
}

func printGenerateResult(r *output.Renderer, outDir string, res *generator.Result) {
	r.Printf("%s %d modules in %s\n", r.Bold("Generated"), len(res.Written), displayPath(outDir))
	if res.Fix != nil {
		r.Println(r.Muted(formatSummary(len(res.Fix.Files), len(res.Fix.Fixed))))
	}
}

func formatSummary(files, fixed int) string {
	if fixed == 0 {
		return "Formatting pass: " + plural(files, "file") + " checked, nothing to fix"
	}
	return "Formatting pass: " + plural(files, "file") + " checked, " + plural(fixed, "file") + " fixed"
}

// displayPath shortens path relative to the working directory when it lies below it.
func displayPath(path string) string {
	wd, err := os.Getwd()
	if err != nil || !filepath.IsAbs(path) {
		return path
	}
	rel, err := filepath.Rel(wd, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
