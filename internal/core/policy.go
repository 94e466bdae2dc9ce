package core

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"medtriage/pkg"
)

//go:embed policy.yaml
var defaultPolicyYAML []byte

// RedFlag is one override rule: a symptom phrase and the minimum care tier
// any mention of it must carry. Matched flags always force an urgent
// consultation.
type RedFlag struct {
	Pattern string        `yaml:"pattern"`
	MinRisk pkg.RiskLevel `yaml:"min_risk"`
}

// OverridePolicy is the ordered red-flag table applied after validation.
// The table is data, not code: deployments may swap it out via
// TRIAGE_POLICY_FILE without touching the engine.
type OverridePolicy struct {
	RedFlags []RedFlag `yaml:"red_flags"`
}

// DefaultPolicy returns the embedded red-flag table. The embedded file is
// fixed at build time, so a parse failure here is a programming error.
func DefaultPolicy() OverridePolicy {
	p, err := parsePolicy(defaultPolicyYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded policy.yaml: %v", err))
	}
	return p
}

// LoadPolicy reads a red-flag table from a YAML file.
func LoadPolicy(path string) (OverridePolicy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return OverridePolicy{}, fmt.Errorf("read policy file: %w", err)
	}
	return parsePolicy(data)
}

func parsePolicy(data []byte) (OverridePolicy, error) {
	var p OverridePolicy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return OverridePolicy{}, fmt.Errorf("parse policy: %w", err)
	}
	for i := range p.RedFlags {
		if p.RedFlags[i].Pattern == "" {
			return OverridePolicy{}, fmt.Errorf("parse policy: red flag %d has an empty pattern", i)
		}
		if p.RedFlags[i].MinRisk == "" {
			p.RedFlags[i].MinRisk = pkg.RiskAdvanced
		}
		if p.RedFlags[i].MinRisk.Rank() < 0 {
			return OverridePolicy{}, fmt.Errorf("parse policy: red flag %q has unknown risk %q", p.RedFlags[i].Pattern, p.RedFlags[i].MinRisk)
		}
	}
	return p, nil
}
