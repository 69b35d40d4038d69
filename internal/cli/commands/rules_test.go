package commands

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/leapstack-labs/confgen/internal/cli/config"
	"github.com/leapstack-labs/confgen/internal/cli/testutil"
	"github.com/leapstack-labs/confgen/pkg/lint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// inProject runs the test from a fresh project directory.
func inProject(t *testing.T) string {
	t.Helper()
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)
	dir := testutil.SetupTestProject(t)
	t.Chdir(dir)
	return dir
}

func TestNewRulesCommand(t *testing.T) {
	cmd := NewRulesCommand()

	assert.Equal(t, "rules [rule-id]", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")

	for _, flag := range []string{"category", "deprecated", "format"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}

func runRules(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRulesCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRulesCommand_ListJSON(t *testing.T) {
	inProject(t)

	out, err := runRules(t, "--format", "json")
	require.NoError(t, err)

	var got RulesJSONOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 3, got.Count)

	ids := make([]string, 0, len(got.Rules))
	for _, r := range got.Rules {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"vue/bar-style", "vue/comment-directive", "vue/no-foo"}, ids)
}

func TestRulesCommand_Filters(t *testing.T) {
	t.Run("deprecated included on request", func(t *testing.T) {
		inProject(t)
		out, err := runRules(t, "--format", "json", "--deprecated")
		require.NoError(t, err)

		var got RulesJSONOutput
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, 4, got.Count)
	})

	t.Run("by category", func(t *testing.T) {
		inProject(t)
		out, err := runRules(t, "--format", "json", "--category", "essential")
		require.NoError(t, err)

		var got RulesJSONOutput
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		require.Len(t, got.Rules, 1)
		assert.Equal(t, "vue/no-foo", got.Rules[0].ID)
	})

	t.Run("empty result is an empty list", func(t *testing.T) {
		inProject(t)
		out, err := runRules(t, "--format", "json", "--category", "use-with-caution")
		require.NoError(t, err)
		assert.Contains(t, out, `"rules": []`)
	})
}

func TestRulesCommand_Markdown(t *testing.T) {
	inProject(t)

	out, err := runRules(t)
	require.NoError(t, err)

	testutil.AssertNoANSI(t, out)
	testutil.AssertValidMarkdown(t, out)
	assert.Contains(t, out, "# Rules")
	assert.Contains(t, out, "- [vue/no-foo](https://eslint.vuejs.org/rules/no-foo.html) - essential, vue3-essential")
	assert.Contains(t, out, "3 rules")
}

func TestRulesCommand_ShowRule(t *testing.T) {
	inProject(t)

	out, err := runRules(t, "vue/bar-style", "--format", "json")
	require.NoError(t, err)

	var info lint.RuleInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "bar-style", info.Name)
	assert.Equal(t, []string{"vue2", "vue3"}, info.Families)
	assert.Equal(t, []string{"recommended", "vue3-recommended"}, info.Categories)
	assert.Equal(t, "https://eslint.vuejs.org/rules/bar-style.html", info.DocURL)
}

func TestRulesCommand_ShowRuleText(t *testing.T) {
	inProject(t)

	out, err := runRules(t, "vue/comment-directive", "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "vue/comment-directive")
	assert.Contains(t, out, "support comment-directives in templates")
	assert.Contains(t, out, "Categories:  base")
}

func TestRulesCommand_DocsBaseURL(t *testing.T) {
	dir := inProject(t)
	testutil.WriteFile(t, dir, "confgen.yaml", "catalog: rules.yaml\ndocs_base_url: http://localhost:8080/rules/\n")

	out, err := runRules(t, "vue/no-foo", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, "http://localhost:8080/rules/no-foo.html")
	assert.Equal(t, lint.DefaultDocsBaseURL, lint.DocsBaseURL, "base URL should be restored")
}

func TestRulesCommand_UnknownRule(t *testing.T) {
	inProject(t)

	_, err := runRules(t, "vue/missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `rule "vue/missing" not found`)
}
