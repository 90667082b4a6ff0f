package policyconf

import "fmt"

// mergeLayers combines layers (already ordered lowest to highest precedence)
// into one final Config: rules and allowlist entries union across layers
// with their Source tags intact, scalar settings are overridden by the
// highest-precedence layer that sets them, disabled-rule-id sets union and
// are applied by dropping matching rules from the merged set, and duplicate
// rule ids surviving the merge are a hard error (spec §3.2: "Rule
// identifiers are unique after merge; duplicate ids are a hard config
// error").
func mergeLayers(layers []*layerContent) (*Config, error) {
	cfg := &Config{
		DisabledRuleIDs: make(map[string]bool),
	}

	for _, lc := range layers {
		if lc.HasDefaultDecision {
			cfg.DefaultDecision = lc.DefaultDecision
		}
		if lc.HasSafetyLevel {
			cfg.SafetyLevel = lc.SafetyLevel
		}
		if lc.HasTrustLevel {
			cfg.TrustLevel = lc.TrustLevel
		}
		cfg.Rules = append(cfg.Rules, lc.Rules...)
		cfg.Allowlists = append(cfg.Allowlists, lc.Allowlists...)
		for _, id := range lc.DisabledRuleIDs {
			cfg.DisabledRuleIDs[id] = true
		}
	}

	seen := make(map[string]bool, len(cfg.Rules))
	kept := make([]Rule, 0, len(cfg.Rules))
	for _, r := range cfg.Rules {
		if cfg.DisabledRuleIDs[r.ID] {
			continue
		}
		if seen[r.ID] {
			return nil, fmt.Errorf("policyconf: duplicate rule id %q after merging configuration layers", r.ID)
		}
		seen[r.ID] = true
		kept = append(kept, r)
	}
	cfg.Rules = kept

	return cfg, nil
}
