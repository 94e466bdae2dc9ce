package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medtriage/pkg"
)

func TestDefaultPolicyHasCoreFlags(t *testing.T) {
	policy := DefaultPolicy()
	require.NotEmpty(t, policy.RedFlags)

	patterns := make(map[string]pkg.RiskLevel, len(policy.RedFlags))
	for _, f := range policy.RedFlags {
		patterns[f.Pattern] = f.MinRisk
	}
	for _, must := range []string{"chest pain", "difficulty breathing", "severe bleeding"} {
		assert.Equal(t, pkg.RiskAdvanced, patterns[must], must)
	}
}

func TestLoadPolicyFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	doc := `red_flags:
  - pattern: "blue lips"
    min_risk: "Advanced Care"
  - pattern: "persistent fever"
    min_risk: "Intermediate Care"
  - pattern: "no tier given"
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	policy, err := LoadPolicy(path)
	require.NoError(t, err)
	require.Len(t, policy.RedFlags, 3)
	assert.Equal(t, pkg.RiskAdvanced, policy.RedFlags[0].MinRisk)
	assert.Equal(t, pkg.RiskIntermediate, policy.RedFlags[1].MinRisk)
	// omitted tier defaults to the safest interpretation
	assert.Equal(t, pkg.RiskAdvanced, policy.RedFlags[2].MinRisk)
}

func TestLoadPolicyRejectsBadTables(t *testing.T) {
	dir := t.TempDir()

	badRisk := filepath.Join(dir, "bad_risk.yaml")
	require.NoError(t, os.WriteFile(badRisk, []byte("red_flags:\n  - pattern: \"x\"\n    min_risk: \"Panic Care\"\n"), 0o600))
	_, err := LoadPolicy(badRisk)
	assert.Error(t, err)

	emptyPattern := filepath.Join(dir, "empty_pattern.yaml")
	require.NoError(t, os.WriteFile(emptyPattern, []byte("red_flags:\n  - min_risk: \"Advanced Care\"\n"), 0o600))
	_, err = LoadPolicy(emptyPattern)
	assert.Error(t, err)

	_, err = LoadPolicy(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
