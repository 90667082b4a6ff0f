package policy

import (
	"testing"

	"github.com/gzhole/longline/internal/policyconf"
	"github.com/gzhole/longline/internal/shparse"
)

func TestRuleOverridesAllowlistMembership(t *testing.T) {
	cfg := loadTestConfig(t)
	// "cat" is allowlisted bare in core-allowlist.yaml, but cat .env must
	// still be denied: rules always override allowlist membership.
	res := Evaluate(cfg, shparse.Parse("cat .env"), "")
	if res.Decision != policyconf.Deny {
		t.Fatalf("expected rule to override allowlist membership, got %v", res.Decision)
	}
}

func TestFailClosedUnrecognizedCommandDefaultsToAsk(t *testing.T) {
	cfg := loadTestConfig(t)
	res := Evaluate(cfg, shparse.Parse("some-totally-unknown-binary --flag"), "")
	if res.Decision != cfg.DefaultDecision {
		t.Errorf("expected unrecognized command to fall back to the configured default decision %v, got %v", cfg.DefaultDecision, res.Decision)
	}
	if res.Decision == policyconf.Allow {
		t.Error("an unrecognized command must never silently resolve to allow")
	}
}

func TestBasenameInvarianceAbsolutePathMatchesSameRuleAsBareName(t *testing.T) {
	cfg := loadTestConfig(t)
	bare := Evaluate(cfg, shparse.Parse("rm -rf /"), "")
	abs := Evaluate(cfg, shparse.Parse("/usr/bin/rm -rf /"), "")
	if bare.MatchedRuleID != abs.MatchedRuleID || bare.Decision != abs.Decision {
		t.Errorf("expected basename-invariant matching: bare=%+v abs=%+v", bare, abs)
	}
}

func TestMostRestrictiveWinsAcrossLeaves(t *testing.T) {
	cfg := loadTestConfig(t)
	// "echo hi" alone is allowlisted (allow), but chained with a denied
	// command the overall decision must be the most restrictive.
	res := Evaluate(cfg, shparse.Parse("echo hi && cat .env"), "")
	if res.Decision != policyconf.Deny {
		t.Errorf("expected most-restrictive-wins to produce deny, got %v", res.Decision)
	}
}

func TestAskOnDenyRemapsDenyToAskWithOverriddenFlag(t *testing.T) {
	cfg := loadTestConfig(t)
	cfg.AskOnDeny = true
	res := Evaluate(cfg, shparse.Parse("cat .env"), "")
	if res.Decision != policyconf.Ask {
		t.Fatalf("expected ask-on-deny to remap deny to ask, got %v", res.Decision)
	}
	if !res.Overridden {
		t.Error("expected Overridden to be true when ask-on-deny remaps a deny")
	}
}

func TestOpaqueSegmentDefaultsToAsk(t *testing.T) {
	cfg := loadTestConfig(t)
	res := Evaluate(cfg, shparse.Parse("(( 1 + 1 ))"), "")
	if res.Decision != policyconf.Ask {
		t.Errorf("expected an opaque/unanalyzable segment to default to ask, got %v (leaves: %+v)", res.Decision, res.Leaves)
	}
}

func TestWrapperUnwrappedInnerCommandDoesNotForceAllowlistRequirement(t *testing.T) {
	cfg := loadTestConfig(t)
	// "uv run pytest tests/" is allowlisted as a whole; the wrapper-unwrapped
	// "pytest tests/" must not independently require its own allowlist entry.
	res := Evaluate(cfg, shparse.Parse("uv run pytest tests/"), "")
	if res.Decision != policyconf.Allow {
		t.Fatalf("expected allow, got %v (leaves: %+v)", res.Decision, res.Leaves)
	}
}

func TestWrapperUnwrappingStillCatchesDangerousInnerCommand(t *testing.T) {
	cfg := loadTestConfig(t)
	res := Evaluate(cfg, shparse.Parse("timeout 30 rm -rf /"), "")
	if res.Decision != policyconf.Deny {
		t.Fatalf("expected timeout-wrapped rm -rf / to still be denied, got %v (leaves: %+v)", res.Decision, res.Leaves)
	}
	if res.MatchedRuleID != "rm-recursive-root" {
		t.Errorf("matched rule %q, want rm-recursive-root", res.MatchedRuleID)
	}
}

func TestAllowlistMatchSkipsInterspersedFlags(t *testing.T) {
	cfg := loadTestConfig(t)
	// "uv run pytest" is allowlisted; an interspersed flag before the
	// positional "pytest" token must not break the match (spec §4.4 point 2:
	// flags are skippable, not required to occupy exact adjacent indices).
	res := Evaluate(cfg, shparse.Parse("uv run --quiet pytest tests/"), "")
	if res.Decision != policyconf.Allow {
		t.Fatalf("expected uv run --quiet pytest tests/ to be allowlisted, got %v (leaves: %+v)", res.Decision, res.Leaves)
	}
}

func TestAllowlistTrustExceededSurfacesEntryReason(t *testing.T) {
	cfg := loadTestConfig(t)
	cfg.TrustLevel = policyconf.TrustMinimal
	// "git push" is allowlisted at trust "full" in git.yaml; at trust
	// "minimal" it must ask with a reason naming that entry, not the generic
	// default-decision reason.
	res := Evaluate(cfg, shparse.Parse("git push"), "")
	if res.Decision != policyconf.Ask {
		t.Fatalf("expected git push above trust level to ask, got %v (leaves: %+v)", res.Decision, res.Leaves)
	}
	if res.Reason == "no matching rule or allowlist entry" {
		t.Errorf("expected the matched allowlist entry's own reason, got the generic default reason")
	}
}
