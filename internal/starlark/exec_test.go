package starlark

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecCatalog(t *testing.T) {
	src := `
plugin(prefix = "vue/")

rule("no-foo", categories = ["essential", "vue3-essential"])

rule(
    "bar-style",
    categories = ["recommended"],
    default_options = {"vue2": ["always"], "vue3": ["never", {"ignore": ("a",)}]},
    description = "enforce bar style",
)

rule("old", deprecated = True)

for t in tiers:
    if t.startswith("vue3-"):
        rule("only-" + t, categories = [t])
`
	c, err := ExecCatalog(context.Background(), "catalog.star", []byte(src), Options{
		Families: []string{"vue2", "vue3"},
		Tiers:    []string{"essential", "vue3-essential"},
	})
	require.NoError(t, err)

	assert.Equal(t, "vue/", c.Prefix())

	rules := c.Rules()
	require.Len(t, rules, 4)

	assert.Equal(t, RuleDecl{Name: "no-foo", Categories: []string{"essential", "vue3-essential"}}, rules[0])

	assert.Equal(t, "bar-style", rules[1].Name)
	assert.Equal(t, "enforce bar style", rules[1].Description)
	assert.Equal(t, map[string][]any{
		"vue2": {"always"},
		"vue3": {"never", map[string]any{"ignore": []any{"a"}}},
	}, rules[1].DefaultOptions)

	assert.True(t, rules[2].Deprecated)
	assert.Nil(t, rules[2].DefaultOptions)

	assert.Equal(t, "only-vue3-essential", rules[3].Name)
}

func TestExecCatalog_Print(t *testing.T) {
	var got []string
	_, err := ExecCatalog(context.Background(), "p.star", []byte(`print("hi", len(families))`), Options{
		Families: []string{"vue2", "vue3"},
		Print:    func(_, msg string) { got = append(got, msg) },
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"hi 2"}, got)
}

func TestExecCatalog_Errors(t *testing.T) {
	tests := []struct {
		name      string
		src       string
		errSubstr string
	}{
		{"syntax", "rule(", "catalog.star"},
		{"unknown kwarg", `rule("x", severity = "error")`, "unexpected keyword argument"},
		{"non-string category", `rule("x", categories = [1])`, "categories must be strings"},
		{"options not a list", `rule("x", default_options = {"vue2": "always"})`, "must be a list"},
		{"prefix conflict", `plugin(prefix = "a/")
plugin(prefix = "b/")`, "prefix already set"},
		{"frozen globals", `tiers.append("x")`, "frozen"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExecCatalog(context.Background(), "catalog.star", []byte(tt.src), Options{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestExecCatalog_ErrorPosition(t *testing.T) {
	_, err := ExecCatalog(context.Background(), "catalog.star", []byte("\nrule(\"x\", categories = [1])\n"), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog.star:2:")
}

func TestExecCatalog_Load(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "common.star"), []byte(`
ESSENTIAL = ["essential", "vue3-essential"]
`), 0o644))
	main := filepath.Join(dir, "catalog.star")
	src := []byte(`
load("common.star", "ESSENTIAL")
load("common.star", ALL = "ESSENTIAL")
rule("no-foo", categories = ESSENTIAL)
rule("no-bar", categories = ALL)
`)

	c, err := ExecCatalog(context.Background(), main, src, Options{})
	require.NoError(t, err)
	require.Len(t, c.Rules(), 2)
	assert.Equal(t, []string{"essential", "vue3-essential"}, c.Rules()[1].Categories)
}

func TestExecCatalog_LoadCycle(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.star"), []byte(`load("b.star", "B")
A = 1`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.star"), []byte(`load("a.star", "A")
B = 1`), 0o644))

	src, err := os.ReadFile(filepath.Join(dir, "a.star"))
	require.NoError(t, err)

	_, err = ExecCatalog(context.Background(), filepath.Join(dir, "a.star"), src, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle in load graph")
}

func TestExecCatalog_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ExecCatalog(ctx, "loop.star", []byte("while True:\n    pass\n"), Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExecCatalog_MaxSteps(t *testing.T) {
	_, err := ExecCatalog(context.Background(), "loop.star", []byte("while True:\n    pass\n"), Options{MaxSteps: 1000})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too many steps")
}
