package config

import (
	"github.com/cockroachdb/errors"
	"github.com/leapstack-labs/confgen/internal/generator"
	"github.com/leapstack-labs/confgen/internal/logging"
	"github.com/leapstack-labs/confgen/pkg/compile"
	"github.com/leapstack-labs/confgen/pkg/tier"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Catalog == "" {
		return errors.WithHint(errors.New("catalog is required"), "set catalog in confgen.yaml or pass --catalog")
	}
	if c.OutDir == "" {
		return errors.New("out_dir is required")
	}
	if c.Concurrency < 0 {
		return errors.Newf("concurrency must not be negative, got %d", c.Concurrency)
	}
	switch c.LogFormat {
	case "", logging.FormatConsole, logging.FormatJSON, "text":
	default:
		return errors.WithHintf(errors.Newf("unknown log_format %q", c.LogFormat),
			"use %q or %q", logging.FormatConsole, logging.FormatJSON)
	}
	if err := c.CompileOptions().Validate(); err != nil {
		return err
	}
	_, err := c.TierTable()
	return err
}

// TierTable builds the tier table described by the configuration. Without a
// tiers section the built-in table is used.
func (c *Config) TierTable() (*tier.Table, error) {
	if len(c.Tiers) == 0 && len(c.FamilyPrefixes) == 0 {
		return tier.Default(), nil
	}

	specs := c.Tiers
	if len(specs) == 0 {
		specs = tier.DefaultSpecs()
	}
	var opts []tier.Option
	if len(c.FamilyPrefixes) > 0 {
		opts = append(opts, tier.WithFamilyPrefixes(c.FamilyPrefixes))
	}
	table, err := tier.NewTable(specs, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "invalid tiers configuration")
	}
	return table, nil
}

// CompileOptions returns the rendering options of the configuration.
func (c *Config) CompileOptions() compile.Options {
	return compile.Options{
		RegenerateCommand: c.RegenerateCommand,
		FlatDir:           c.FlatDir,
	}
}

// GeneratorConfig returns the generator configuration for a full run.
func (c *Config) GeneratorConfig() (generator.Config, error) {
	if err := c.Validate(); err != nil {
		return generator.Config{}, err
	}
	tiers, err := c.TierTable()
	if err != nil {
		return generator.Config{}, err
	}
	return generator.Config{
		CatalogPath: c.Catalog,
		OutDir:      c.OutDir,
		Tiers:       tiers,
		Compile:     c.CompileOptions(),
		Concurrency: c.Concurrency,
		SkipFormat:  !c.Format,
	}, nil
}
