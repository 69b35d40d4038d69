package commands

import (
	"github.com/cockroachdb/errors"
	"github.com/leapstack-labs/confgen/internal/cli/config"
	"github.com/leapstack-labs/confgen/internal/cli/output"
	"github.com/leapstack-labs/confgen/internal/generator"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *zap.Logger
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext from the loaded configuration.
// format overrides the auto-detected output mode when set.
func NewCommandContext(cmd *cobra.Command, format string) (*CommandContext, error) {
	cfg, err := getConfig(cmd)
	if err != nil {
		return nil, err
	}
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(format)),
	}, nil
}

// Generator builds a generator from the command configuration.
func (c *CommandContext) Generator() (*generator.Generator, error) {
	genCfg, err := c.Cfg.GeneratorConfig()
	if err != nil {
		return nil, err
	}
	return generator.New(genCfg, c.Logger)
}

// getConfig returns the configuration loaded by the root command, or loads it
// when a command runs on its own, as in tests.
func getConfig(cmd *cobra.Command) (*config.Config, error) {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg, nil
	}
	cfg, err := config.LoadConfig("", cmd.Flags())
	if err != nil {
		return nil, errors.Wrap(err, "load configuration")
	}
	return cfg, nil
}
