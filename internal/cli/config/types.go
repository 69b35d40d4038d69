// Package config provides configuration management for the confgen CLI.
//
// Values are layered with koanf: built-in defaults, then confgen.yaml, then
// CONFGEN_ environment variables, then explicitly set command-line flags.
package config

import (
	"github.com/leapstack-labs/confgen/pkg/compile"
	"github.com/leapstack-labs/confgen/pkg/core"
	"github.com/leapstack-labs/confgen/pkg/tier"
)

// Config holds all CLI configuration options.
type Config struct {
	Catalog           string `koanf:"catalog"`
	OutDir            string `koanf:"out_dir"`
	FlatDir           string `koanf:"flat_dir"`
	RegenerateCommand string `koanf:"regenerate_command"`
	Concurrency       int    `koanf:"concurrency"`
	// Format enables the formatting pass after files are written.
	Format      bool   `koanf:"format"`
	Verbose     bool   `koanf:"verbose"`
	LogFormat   string `koanf:"log_format"`
	DocsBaseURL string `koanf:"docs_base_url"`

	// Tiers replaces the built-in tier table when non-empty.
	Tiers []tier.Spec `koanf:"tiers"`
	// FamilyPrefixes replaces the built-in name-prefix table for family derivation.
	FamilyPrefixes map[string]core.Family `koanf:"family_prefixes"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`
}

// Default configuration values.
const (
	DefaultCatalog   = "rules.yaml"
	DefaultOutDir    = "lib/configs"
	DefaultLogFormat = "console"
)

// ConfigFileNames are searched, in order, in the project root.
var ConfigFileNames = []string{"confgen.yaml", "confgen.yml"}

// Defaults returns the built-in value of every scalar configuration key.
func Defaults() map[string]any {
	return map[string]any{
		"catalog":            DefaultCatalog,
		"out_dir":            DefaultOutDir,
		"flat_dir":           compile.DefaultFlatDir,
		"regenerate_command": compile.DefaultRegenerateCommand,
		"concurrency":        0,
		"format":             true,
		"verbose":            false,
		"log_format":         DefaultLogFormat,
	}
}
