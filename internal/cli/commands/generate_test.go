package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/leapstack-labs/confgen/internal/cli/testutil"
	"github.com/leapstack-labs/confgen/internal/generator"
	"github.com/leapstack-labs/confgen/pkg/tier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var moduleCount = 2 * tier.Default().Len()

func runGenerateCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewGenerateCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func runCheckCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewCheckCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestNewGenerateCommand(t *testing.T) {
	cmd := NewGenerateCommand()

	assert.Equal(t, "generate", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	for _, flag := range []string{"watch", "skip-format", "concurrency"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestGenerateCommand_WritesModules(t *testing.T) {
	dir := inProject(t)

	out, err := runGenerateCmd(t)
	require.NoError(t, err)

	assert.Contains(t, out, "Generated 18 modules in lib/configs")
	assert.Contains(t, out, "Formatting pass: 18 files checked, nothing to fix")

	data, err := os.ReadFile(filepath.Join(dir, "lib", "configs", "flat", "essential.js"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "const extendedConfig = require('./base')")
	assert.Contains(t, string(data), "'vue/no-foo': 'error'")

	data, err = os.ReadFile(filepath.Join(dir, "lib", "configs", "recommended.js"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "'vue/bar-style': ['warn', 'always']")
}

func TestGenerateCommand_SkipFormat(t *testing.T) {
	inProject(t)

	out, err := runGenerateCmd(t, "--skip-format", "--concurrency", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Generated 18 modules")
	assert.NotContains(t, out, "Formatting pass")
}

func TestGenerateCommand_SchemaViolation(t *testing.T) {
	dir := inProject(t)
	testutil.WriteFile(t, dir, "rules.yaml", `prefix: vue/
rules:
  - name: no-foo
    categories: [essentail]
`)

	_, err := runGenerateCmd(t)
	require.Error(t, err)
	assert.True(t, errors.Is(err, tier.ErrSchemaViolation), "expected schema violation: %v", err)

	_, statErr := os.Stat(filepath.Join(dir, "lib", "configs"))
	assert.True(t, os.IsNotExist(statErr), "nothing should be written")
}

func TestGenerateCommand_Watch(t *testing.T) {
	inProject(t)

	ctx, cancel := context.WithCancel(context.Background())
	cmd := NewGenerateCommand()
	var buf syncBuffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{"--watch", "--skip-format"})

	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	assert.Eventually(t, func() bool {
		return strings.Contains(buf.String(), "Generated 18 modules")
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancellation")
	}
}

func TestCheckCommand(t *testing.T) {
	inProject(t)

	t.Run("missing before generate", func(t *testing.T) {
		out, err := runCheckCmd(t, "--format", "json")
		require.Error(t, err)
		assert.True(t, errors.Is(err, generator.ErrStale))

		var got CheckJSONOutput
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.False(t, got.UpToDate)
		assert.Equal(t, moduleCount, got.Checked)
		assert.Len(t, got.Missing, moduleCount)
		assert.Empty(t, got.Stale)
	})

	t.Run("up to date after generate", func(t *testing.T) {
		_, err := runGenerateCmd(t)
		require.NoError(t, err)

		out, err := runCheckCmd(t)
		require.NoError(t, err)
		assert.Contains(t, out, "All 18 modules up to date")
	})

	t.Run("stale after edit", func(t *testing.T) {
		path := filepath.Join("lib", "configs", "base.js")
		require.NoError(t, os.WriteFile(path, []byte("module.exports = {}\n"), 0644))

		out, err := runCheckCmd(t)
		require.Error(t, err)
		assert.True(t, errors.Is(err, generator.ErrStale))
		assert.Contains(t, out, "stale")
		assert.Contains(t, out, "base.js")
	})
}
