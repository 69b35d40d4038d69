// Package cli provides the command-line interface for confgen.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/leapstack-labs/confgen/internal/cli/commands"
	"github.com/leapstack-labs/confgen/internal/cli/config"
	"github.com/leapstack-labs/confgen/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var cfgFile string

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "confgen",
		Short: "confgen - ESLint category configuration generator",
		Long: `confgen compiles a catalog of lint rules, grouped into category tiers,
into ready-to-consume configuration modules: <out_dir>/<tier>.js for the
legacy eslintrc loader and <out_dir>/flat/<tier>.js for flat config.

Each tier extends its parent tier, so a module only lists its own rules.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			config.ResetConfig()
			cfg, err := config.LoadConfig(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}

			logger, err := logging.New(cfg.LogFormat, cfg.Verbose)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SetContext(config.WithLogger(ctx, logger))

			if configFile := config.GetConfigFileUsed(); configFile != "" {
				logger.Debug("using config file", zap.String("path", configFile))
			}
			logger.Debug("configuration loaded",
				zap.String("catalog", cfg.Catalog),
				zap.String("out_dir", cfg.OutDir),
				zap.String("project_root", cfg.ProjectRoot))

			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./confgen.yaml, searched upward)")
	rootCmd.PersistentFlags().String("catalog", "", "Path to the rule catalog (.yaml, .toml or .star)")
	rootCmd.PersistentFlags().String("out-dir", "", "Output root of the generated modules")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().String("log-format", "", "Log format (console|json)")

	_ = rootCmd.RegisterFlagCompletionFunc("log-format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{logging.FormatConsole, logging.FormatJSON}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("catalog", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"yaml", "yml", "toml", "star"}, cobra.ShellCompDirectiveFilterFileExt
	})

	// Add subcommands
	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewGenerateCommand())
	rootCmd.AddCommand(commands.NewCheckCommand())
	rootCmd.AddCommand(commands.NewTiersCommand())
	rootCmd.AddCommand(commands.NewRulesCommand())
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// Execute runs the root command. Interrupts cancel the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		PrintError(os.Stderr, err)
		return err
	}
	return nil
}

// PrintError writes err with its details and hints.
func PrintError(w io.Writer, err error) {
	_, _ = fmt.Fprintf(w, "Error: %v\n", err)
	for _, d := range errors.GetAllDetails(err) {
		_, _ = fmt.Fprintf(w, "  %s\n", d)
	}
	if hint := errors.FlattenHints(err); hint != "" {
		_, _ = fmt.Fprintf(w, "Hint: %s\n", hint)
	}
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for confgen.

To load completions:

Bash:
  $ source <(confgen completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ confgen completion bash > /etc/bash_completion.d/confgen
  # macOS:
  $ confgen completion bash > $(brew --prefix)/etc/bash_completion.d/confgen

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. Execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ confgen completion zsh > "${fpath[1]}/_confgen"

Fish:
  $ confgen completion fish | source

  # To load completions for each session, execute once:
  $ confgen completion fish > ~/.config/fish/completions/confgen.fish

PowerShell:
  PS> confgen completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
	return cmd
}
