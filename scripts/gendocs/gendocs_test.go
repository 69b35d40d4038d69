package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leapstack-labs/confgen/internal/cli"
	"github.com/leapstack-labs/confgen/internal/cli/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdownWriter_Table(t *testing.T) {
	w := NewMarkdownWriter()
	w.Table([]string{"Flag", "Description"}, [][]string{{InlineCode("--format"), "table|markdown|json"}})

	assert.Equal(t, "| Flag | Description |\n"+
		"| --- | --- |\n"+
		"| `--format` | table\\|markdown\\|json |\n\n", w.String())
}

func TestCleanExample(t *testing.T) {
	got := cleanExample("  # List\n  confgen tiers\n\n    nested")
	assert.Equal(t, "# List\nconfgen tiers\n\n  nested", got)
}

func TestGenerateCLIDocs(t *testing.T) {
	outDir := t.TempDir()
	require.NoError(t, generateCLIDocs(outDir))

	index, err := os.ReadFile(filepath.Join(outDir, "index.md"))
	require.NoError(t, err)
	assert.Contains(t, string(index), "[`generate`](/cli/generate)")
	assert.Contains(t, string(index), "| `schema violation` |")

	cfg, err := os.ReadFile(filepath.Join(outDir, "configuration.md"))
	require.NoError(t, err)
	assert.Contains(t, string(cfg), "| `out_dir` | `CONFGEN_OUT_DIR` | `--out-dir` | `lib/configs` |")
	assert.Contains(t, string(cfg), "| `tiers` |  |  |  | Replaces the built-in tier table |")
	assert.Contains(t, string(cfg), "  - id: essential\n    extends: base\n    error: true")
	assert.Contains(t, string(cfg), "- `vue3`: vue3")

	page, err := os.ReadFile(filepath.Join(outDir, "generate.md"))
	require.NoError(t, err)
	assert.Contains(t, string(page), "| `--skip-format` |")
	assert.Contains(t, string(page), "| `format` |")
	assert.Contains(t, string(page), "confgen generate --watch")
}

func TestConfigKeys(t *testing.T) {
	keys := configKeys(cli.NewRootCmd())
	byName := make(map[string]configKey, len(keys))
	for _, k := range keys {
		byName[k.Name] = k
	}

	assert.NotContains(t, byName, "ProjectRoot")
	assert.Equal(t, "--skip-format (inverted)", byName["format"].Flag)
	assert.Equal(t, "true", byName["format"].Default)
	assert.Equal(t, "--concurrency", byName["concurrency"].Flag)
	assert.Empty(t, byName["family_prefixes"].Env)
	assert.Empty(t, byName["regenerate_command"].Flag)
	for _, k := range keys {
		assert.NotEmpty(t, k.Doc, k.Name)
	}
}

func TestGenerateReferenceDocs(t *testing.T) {
	t.Cleanup(config.ResetConfig)
	root, err := findProjectRoot()
	require.NoError(t, err)
	outDir := t.TempDir()

	require.NoError(t, generateReferenceDocs(outDir, filepath.Join(root, "testdata", "confgen.yaml")))

	index, err := os.ReadFile(filepath.Join(outDir, "index.md"))
	require.NoError(t, err)
	assert.Contains(t, string(index), "| [`vue3-essential`](/configs/vue3-essential) | [`base`](/configs/base) | `error` | vue3 | 1 |")

	page, err := os.ReadFile(filepath.Join(outDir, "vue3-recommended.md"))
	require.NoError(t, err)
	assert.Contains(t, string(page), "`[\"warn\",\"never\"]`")
	assert.True(t, strings.Contains(string(page), "https://eslint.vuejs.org/rules/bar-style.html"))

	empty, err := os.ReadFile(filepath.Join(outDir, "use-with-caution.md"))
	require.NoError(t, err)
	assert.Contains(t, string(empty), "adds no rules of its own")
}
