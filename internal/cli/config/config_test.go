package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/leapstack-labs/confgen/internal/testutil"
	"github.com/leapstack-labs/confgen/pkg/core"
	"github.com/leapstack-labs/confgen/pkg/tier"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "confgen.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfig()
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Empty(t, GetConfigFileUsed())
	assert.Same(t, cfg, GetCurrentConfig())
	assert.Equal(t, filepath.Join(cfg.ProjectRoot, DefaultCatalog), cfg.Catalog)
	assert.Equal(t, filepath.Join(cfg.ProjectRoot, DefaultOutDir), cfg.OutDir)
	assert.Equal(t, "flat", cfg.FlatDir)
	assert.Equal(t, "npm run update", cfg.RegenerateCommand)
	assert.Equal(t, DefaultLogFormat, cfg.LogFormat)
	assert.True(t, cfg.Format)
	assert.False(t, cfg.Verbose)
	assert.Zero(t, cfg.Concurrency)

	table, err := cfg.TierTable()
	require.NoError(t, err)
	assert.Same(t, tier.Default(), table)
}

func TestLoadConfig_File(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, `catalog: catalog/rules.toml
out_dir: dist/configs
regenerate_command: make configs
concurrency: 3
format: false
tiers:
  - id: base
    error: true
  - id: next-essential
    extends: base
    error: true
  - id: next-recommended
    extends: next-essential
    title: Next recommended
family_prefixes:
  next: vue3
`)

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	assert.Equal(t, cfgPath, GetConfigFileUsed())
	assert.Equal(t, dir, cfg.ProjectRoot)
	assert.Equal(t, filepath.Join(dir, "catalog", "rules.toml"), cfg.Catalog)
	assert.Equal(t, filepath.Join(dir, "dist", "configs"), cfg.OutDir)
	assert.Equal(t, "make configs", cfg.RegenerateCommand)
	assert.Equal(t, 3, cfg.Concurrency)
	assert.False(t, cfg.Format)
	assert.Equal(t, map[string]core.Family{"next": core.FamilyVue3}, cfg.FamilyPrefixes)
	require.Len(t, cfg.Tiers, 3)
	assert.Equal(t, tier.Spec{ID: "next-recommended", Extends: "next-essential", Title: "Next recommended"}, cfg.Tiers[2])

	table, err := cfg.TierTable()
	require.NoError(t, err)
	rec, err := table.Get("next-recommended")
	require.NoError(t, err)
	assert.Equal(t, core.FamilyVue3, rec.Family)
	assert.Equal(t, core.SeverityWarn, rec.Severity)
	assert.Equal(t, []string{"base", "next-essential"}, table.ErrorTiers())

	gen, err := cfg.GeneratorConfig()
	require.NoError(t, err)
	assert.True(t, gen.SkipFormat)
	assert.Equal(t, cfg.Catalog, gen.CatalogPath)
	assert.Equal(t, 3, gen.Concurrency)
	assert.Equal(t, "make configs", gen.Compile.RegenerateCommand)
	assert.Equal(t, table.IDs(), gen.Tiers.IDs())
}

func TestLoadConfig_FamilyPrefixesOnly(t *testing.T) {
	ResetConfig()
	cfgPath := writeConfig(t, t.TempDir(), `family_prefixes:
  vue3: "3"
  essential: vue3
`)

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	table, err := cfg.TierTable()
	require.NoError(t, err)
	assert.NotSame(t, tier.Default(), table)

	essential, err := table.Get(tier.Essential)
	require.NoError(t, err)
	assert.Equal(t, core.FamilyVue3, essential.Family)
}

func TestLoadConfig_BadFamily(t *testing.T) {
	ResetConfig()
	cfgPath := writeConfig(t, t.TempDir(), `family_prefixes:
  next: vue9
`)

	_, err := LoadConfig(cfgPath, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unable to decode config")
}

func TestLoadConfig_FlagPrecedence(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	t.Chdir(dir)
	cfgPath := writeConfig(t, dir, "out_dir: from_file\n")
	t.Setenv("CONFGEN_OUT_DIR", "from_env")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("out-dir", "", "output directory")
	require.NoError(t, flags.Set("out-dir", "from_flag"))

	cfg, err := LoadConfig(cfgPath, flags)
	require.NoError(t, err)

	assert.True(t, filepath.IsAbs(cfg.OutDir))
	assert.Equal(t, "from_flag", filepath.Base(cfg.OutDir), "flag value should override config file and env var")
}

func TestLoadConfig_EnvPrecedenceOverFile(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "out_dir: from_file\nconcurrency: 2\n")
	t.Setenv("CONFGEN_OUT_DIR", "from_env")
	t.Setenv("CONFGEN_CONCURRENCY", "5")

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "from_env"), cfg.OutDir, "env var should override config file")
	assert.Equal(t, 5, cfg.Concurrency)
}

func TestLoadConfig_FlagNotSetUsesEnv(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "out_dir: from_file\n")
	t.Setenv("CONFGEN_OUT_DIR", "from_env")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("out-dir", "", "output directory")

	cfg, err := LoadConfig(cfgPath, flags)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "from_env"), cfg.OutDir, "env var should be used when flag is not set")
}

func TestLoadConfig_CommandFlags(t *testing.T) {
	ResetConfig()
	cfgPath := writeConfig(t, t.TempDir(), "concurrency: 2\n")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Bool("skip-format", false, "")
	flags.Int("concurrency", 0, "")
	flags.String("format", "table", "")
	flags.BoolP("verbose", "v", false, "")
	require.NoError(t, flags.Set("skip-format", "true"))
	require.NoError(t, flags.Set("concurrency", "8"))
	require.NoError(t, flags.Set("format", "json"))
	require.NoError(t, flags.Set("verbose", "true"))

	cfg, err := LoadConfig(cfgPath, flags)
	require.NoError(t, err)

	assert.False(t, cfg.Format, "--skip-format should disable formatting")
	assert.Equal(t, 8, cfg.Concurrency)
	assert.True(t, cfg.Verbose)
}

func TestLoadConfig_UpwardSearch(t *testing.T) {
	ResetConfig()
	root := t.TempDir()
	writeConfig(t, root, "catalog: rules.star\n")
	nested := filepath.Join(root, "packages", "configs")
	require.NoError(t, os.MkdirAll(nested, 0755))
	t.Chdir(nested)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	wantRoot, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	gotRoot, err := filepath.EvalSymlinks(cfg.ProjectRoot)
	require.NoError(t, err)
	assert.Equal(t, wantRoot, gotRoot)
	assert.Equal(t, "confgen.yaml", filepath.Base(GetConfigFileUsed()))
	assert.Equal(t, filepath.Join(cfg.ProjectRoot, "rules.star"), cfg.Catalog)
}

func TestLoadConfig_ExpandsEnvVars(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	t.Setenv("CONFGEN_TEST_CATALOG_DIR", dir)
	cfgPath := writeConfig(t, t.TempDir(), "catalog: ${CONFGEN_TEST_CATALOG_DIR}/rules.yaml\n")

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "rules.yaml"), cfg.Catalog)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{Catalog: "rules.yaml", OutDir: "lib/configs", LogFormat: "console"}
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name      string
		mutate    func(*Config)
		errSubstr string
		schema    bool
	}{
		{
			name:      "no catalog",
			mutate:    func(c *Config) { c.Catalog = "" },
			errSubstr: "catalog is required",
		},
		{
			name:      "no out dir",
			mutate:    func(c *Config) { c.OutDir = "" },
			errSubstr: "out_dir is required",
		},
		{
			name:      "negative concurrency",
			mutate:    func(c *Config) { c.Concurrency = -1 },
			errSubstr: "must not be negative",
		},
		{
			name:      "unknown log format",
			mutate:    func(c *Config) { c.LogFormat = "xml" },
			errSubstr: "unknown log_format",
		},
		{
			name:      "comment breaking command",
			mutate:    func(c *Config) { c.RegenerateCommand = "make */ configs" },
			errSubstr: "block comment",
		},
		{
			name:      "flat dir escaping output",
			mutate:    func(c *Config) { c.FlatDir = "../flat" },
			errSubstr: "below the output root",
		},
		{
			name:      "flat dir same as output",
			mutate:    func(c *Config) { c.FlatDir = "./" },
			errSubstr: "overwrite the legacy modules",
		},
		{
			name: "tier cycle",
			mutate: func(c *Config) {
				c.Tiers = []tier.Spec{{ID: "a", Extends: "b"}, {ID: "b", Extends: "a"}}
			},
			errSubstr: "invalid tiers configuration",
			schema:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
			assert.Equal(t, tt.schema, errors.Is(err, tier.ErrSchemaViolation))

			_, err = cfg.GeneratorConfig()
			assert.Error(t, err)
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("CONFGEN_TEST_VAR", "value")

	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"${CONFGEN_TEST_VAR}", "value"},
		{"a/${CONFGEN_TEST_VAR}/b", "a/value/b"},
		{"${CONFGEN_TEST_UNSET_VAR}", "${CONFGEN_TEST_UNSET_VAR}"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, expandEnvVars(tt.in), tt.in)
	}
}

func TestGetLogger(t *testing.T) {
	assert.NotNil(t, GetLogger(context.Background()))

	logger := testutil.NewTestLogger(t)
	ctx := WithLogger(context.Background(), logger)
	assert.Same(t, logger, GetLogger(ctx))
	assert.Equal(t, logger, ctx.Value(LoggerKey()))
}
