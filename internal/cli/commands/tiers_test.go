package commands

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/leapstack-labs/confgen/internal/cli/testutil"
	"github.com/leapstack-labs/confgen/pkg/tier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runTiersCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewTiersCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestTiersCommand_JSON(t *testing.T) {
	inProject(t)

	out, err := runTiersCmd(t, "--format", "json")
	require.NoError(t, err)

	var got TiersJSONOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got.Tiers, tier.Default().Len())
	assert.Equal(t, []string{tier.Base, tier.Essential, tier.Vue3Essential}, got.ErrorTiers)

	base := got.Tiers[0]
	assert.Equal(t, tier.Base, base.ID)
	assert.Empty(t, base.Extends)
	assert.Equal(t, "error", base.Severity)
	assert.Equal(t, 0, base.Depth)
	assert.Len(t, base.ExtendedBy, tier.Default().Len()-1)

	byID := make(map[string]TierJSON)
	for _, tr := range got.Tiers {
		byID[tr.ID] = tr
	}
	caution := byID[tier.Vue3UseWithCaution]
	assert.Equal(t, tier.Vue3Recommended, caution.Extends)
	assert.Equal(t, "warn", caution.Severity)
	assert.Equal(t, "vue3", caution.Family)
	assert.Equal(t, 4, caution.Depth)
	assert.Equal(t, "Priority D: Use with Caution", caution.Title)
}

func TestTiersCommand_Markdown(t *testing.T) {
	inProject(t)

	out, err := runTiersCmd(t)
	require.NoError(t, err)

	testutil.AssertNoANSI(t, out)
	assert.Contains(t, out, "| Tier | Title | Extends | Severity | Family | Depth |")
	assert.Contains(t, out, "| base |")
	assert.Contains(t, out, "| vue3-essential |")
}

func TestTiersCommand_Table(t *testing.T) {
	inProject(t)

	out, err := runTiersCmd(t, "--format", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "SEVERITY")
	assert.Contains(t, out, "strongly-recommended")
}

func TestTiersCommand_CustomTiers(t *testing.T) {
	dir := inProject(t)
	testutil.WriteFile(t, dir, "confgen.yaml", `catalog: rules.yaml
tiers:
  - id: base
    error: true
  - id: next-recommended
    extends: base
family_prefixes:
  next: vue3
`)

	out, err := runTiersCmd(t, "--format", "json")
	require.NoError(t, err)

	var got TiersJSONOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got.Tiers, 2)
	assert.Equal(t, "Base", got.Tiers[0].Title)
	assert.Equal(t, "Next Recommended", got.Tiers[1].Title)
	assert.Equal(t, "vue3", got.Tiers[1].Family)
	assert.Equal(t, []string{"base"}, got.ErrorTiers)
}

func TestTiersCommand_InvalidTiers(t *testing.T) {
	dir := inProject(t)
	testutil.WriteFile(t, dir, "confgen.yaml", `tiers:
  - id: base
    extends: missing
`)

	_, err := runTiersCmd(t)
	require.Error(t, err)
	assert.True(t, errors.Is(err, tier.ErrSchemaViolation), "expected schema violation: %v", err)
}
