package policyconf

import (
	"fmt"
	"strings"
)

// layerContent is one loaded file's contribution, already resolved against
// the strict schema and ready to merge (spec §4.3).
type layerContent struct {
	HasDefaultDecision bool
	DefaultDecision    Decision
	HasSafetyLevel     bool
	SafetyLevel        SafetyLevel
	HasTrustLevel      bool
	TrustLevel         TrustLevel

	Rules           []Rule
	Allowlists      []AllowlistEntry
	DisabledRuleIDs []string
}

func convertDoc(doc *rawDoc, source Source) (*layerContent, error) {
	if doc.Version != 0 && doc.Version != currentConfigVersion {
		return nil, fmt.Errorf("unsupported config version %d (expected %d)", doc.Version, currentConfigVersion)
	}

	lc := &layerContent{}

	if doc.DefaultDecision != "" {
		d, err := ParseDecision(doc.DefaultDecision)
		if err != nil {
			return nil, err
		}
		lc.HasDefaultDecision, lc.DefaultDecision = true, d
	}
	if doc.SafetyLevel != "" {
		l, err := ParseSafetyLevel(doc.SafetyLevel)
		if err != nil {
			return nil, err
		}
		lc.HasSafetyLevel, lc.SafetyLevel = true, l
	}
	if doc.TrustLevel != "" {
		t, err := ParseTrustLevel(doc.TrustLevel)
		if err != nil {
			return nil, err
		}
		lc.HasTrustLevel, lc.TrustLevel = true, t
	}

	seen := make(map[string]bool, len(doc.Rules))
	for _, rr := range doc.Rules {
		r, err := convertRule(rr, source)
		if err != nil {
			return nil, err
		}
		if seen[r.ID] {
			return nil, fmt.Errorf("duplicate rule id %q within a single configuration layer", r.ID)
		}
		seen[r.ID] = true
		lc.Rules = append(lc.Rules, r)
	}

	for _, ae := range doc.Allowlists.Commands {
		entry, err := convertAllowlistEntry(ae, source)
		if err != nil {
			return nil, err
		}
		lc.Allowlists = append(lc.Allowlists, entry)
	}

	lc.DisabledRuleIDs = append(lc.DisabledRuleIDs, doc.DisableRules...)

	return lc, nil
}

func convertRule(rr rawRule, source Source) (Rule, error) {
	if rr.ID == "" {
		return Rule{}, fmt.Errorf("rule missing required field \"id\"")
	}
	level, err := ParseSafetyLevel(rr.Level)
	if err != nil {
		return Rule{}, fmt.Errorf("rule %q: %w", rr.ID, err)
	}
	decision, err := ParseDecision(rr.Decision)
	if err != nil {
		return Rule{}, fmt.Errorf("rule %q: %w", rr.ID, err)
	}
	match, err := convertMatch(rr.Match)
	if err != nil {
		return Rule{}, fmt.Errorf("rule %q: %w", rr.ID, err)
	}
	return Rule{
		ID:       rr.ID,
		Level:    level,
		Match:    match,
		Decision: decision,
		Reason:   rr.Reason,
		Context:  rr.Context,
		Source:   source,
	}, nil
}

func convertMatch(rm rawMatch) (Match, error) {
	switch rm.Kind {
	case MatchCommand:
		cm := &CommandMatch{Name: rm.Command.Name.toStringPred()}
		if rm.Command.Flags != nil {
			p := rm.Command.Flags.toStringSetPred()
			cm.Flags = &p
		}
		if rm.Command.Args != nil {
			p := rm.Command.Args.toStringSetPred()
			cm.Args = &p
		}
		return Match{Kind: MatchCommand, Command: cm}, nil
	case MatchPipeline:
		stages := make([]StringPred, 0, len(rm.Pipeline.Stages))
		for _, s := range rm.Pipeline.Stages {
			stages = append(stages, s.toStringPred())
		}
		return Match{Kind: MatchPipeline, Pipeline: &PipelineMatch{Stages: stages}}, nil
	case MatchRedirect:
		redir := &RedirectMatch{}
		if rm.Redirect.Op != "" {
			op := rm.Redirect.Op
			redir.Op = &op
		}
		if rm.Redirect.Target != nil {
			p := rm.Redirect.Target.toStringPred()
			redir.Target = &p
		}
		return Match{Kind: MatchRedirect, Redirect: redir}, nil
	}
	return Match{}, fmt.Errorf("match: no variant populated")
}

func convertAllowlistEntry(ae rawAllowlistEntry, source Source) (AllowlistEntry, error) {
	pattern := strings.TrimSpace(ae.Command)
	if pattern == "" {
		return AllowlistEntry{}, fmt.Errorf("allowlist entry missing required field \"command\"")
	}
	trust := TrustStandard
	if ae.Trust != "" {
		t, err := ParseTrustLevel(ae.Trust)
		if err != nil {
			return AllowlistEntry{}, fmt.Errorf("allowlist entry %q: %w", pattern, err)
		}
		trust = t
	}
	return AllowlistEntry{
		Pattern: pattern,
		Tokens:  strings.Fields(pattern),
		Trust:   trust,
		Reason:  ae.Reason,
		Source:  source,
	}, nil
}
