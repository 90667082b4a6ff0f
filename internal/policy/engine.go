// Package policy implements the decision algorithm spec §4.6 describes:
// flatten a normalized statement tree into its leaves, expand each leaf
// through transparent-wrapper unwrapping and find/xargs extraction, evaluate
// rules and allowlist membership per leaf (rules always take precedence over
// allowlist membership), evaluate pipeline-shaped rules across each
// pipeline's stage sequence, and reduce every match to one process-level
// decision under allow < ask < deny, optionally remapped to ask-on-deny.
package policy

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/gzhole/longline/internal/ast"
	"github.com/gzhole/longline/internal/policyconf"
	"github.com/gzhole/longline/internal/shparse"
)

// LeafResult records the decision reached for one evaluated leaf (an outer
// command, one of its expanded wrapper/extraction derivatives, or an opaque
// segment), for audit logging (spec §6.5) and the `check` CLI subcommand.
type LeafResult struct {
	Command       string
	Decision      policyconf.Decision
	MatchedRuleID string
	Reason        string
	Source        policyconf.Source
}

// Result is the process-level outcome of evaluating one normalized
// statement against a *policyconf.Config.
type Result struct {
	Decision      policyconf.Decision
	MatchedRuleID string
	Reason        string
	Overridden    bool // true if ask-on-deny remapped an original deny
	Leaves        []LeafResult
}

// Evaluate runs the full policy algorithm against stmt under cfg. cwd is
// the request's declared working directory (spec §4.4 point 3); path-like
// allowlist arguments are canonicalized against it before comparison. With
// an empty cwd, path-like arguments are only cleaned (not resolved against
// a directory or through symlinks) before comparison.
func Evaluate(cfg *policyconf.Config, stmt ast.Statement, cwd string) Result {
	active := cfg.ActiveRules()

	var leafResults []LeafResult
	overall := policyconf.Allow
	var overallRuleID, overallReason string

	consider := func(lr LeafResult) {
		leafResults = append(leafResults, lr)
		if lr.Decision > overall {
			overall = lr.Decision
			overallRuleID = lr.MatchedRuleID
			overallReason = lr.Reason
		}
	}

	for _, leaf := range ast.FlattenWithRedirects(stmt) {
		switch s := leaf.Stmt.(type) {
		case *ast.Opaque:
			consider(LeafResult{
				Command:  s.Raw,
				Decision: policyconf.Ask,
				Reason:   "command could not be structurally analyzed",
			})
		case *ast.SimpleCommand:
			for i, exp := range shparse.ExpandLeaf(s) {
				redirects := leaf.EffectiveRedirects
				if i > 0 {
					// Expanded (unwrapped/extracted) inner commands are
					// independent invocations; only the outer leaf actually
					// owns the shell-level redirect.
					redirects = nil
				}
				if exp.FullEval {
					consider(evalCommand(cfg, active, exp.Cmd, redirects, cwd))
				} else if lr, ok := evalCommandRulesOnly(active, exp.Cmd, redirects); ok {
					consider(lr)
				}
			}
		}
	}

	for _, pl := range ast.CollectPipelines(stmt) {
		if lr, ok := evalPipelineRules(active, pl); ok {
			consider(lr)
		}
	}

	decision := overall
	reason := overallReason
	overridden := false
	if decision == policyconf.Deny && cfg.AskOnDeny {
		decision = policyconf.Ask
		reason = "[overridden] " + reason
		overridden = true
	}

	return Result{
		Decision:      decision,
		MatchedRuleID: overallRuleID,
		Reason:        reason,
		Overridden:    overridden,
		Leaves:        leafResults,
	}
}

// evalCommand evaluates one (possibly wrapper-unwrapped or find/xargs-
// extracted) command leaf: every active rule is checked first, and only if
// no rule matches does allowlist membership apply (spec §4.4: "rules always
// override allowlist membership, in both directions").
func evalCommand(cfg *policyconf.Config, active []policyconf.Rule, cmd *ast.SimpleCommand, redirects []ast.Redirect, cwd string) LeafResult {
	if lr, ok := evalCommandRulesOnly(active, cmd, redirects); ok {
		return lr
	}

	display := displayName(cmd)
	if cmd.HasName() {
		outcome := matchesAllowlist(cfg, cwd, shparse.Basename(cmd.NameOrEmpty()), cmd.Argv)
		if outcome.Matched && outcome.WithinTrust {
			return LeafResult{Command: display, Decision: policyconf.Allow, Reason: "allowlisted"}
		}
		if outcome.Matched {
			reason := outcome.Entry.Reason
			if reason == "" {
				reason = fmt.Sprintf("matched allowlist entry %q requires trust %s or higher", outcome.Entry.Pattern, outcome.Entry.Trust)
			}
			return LeafResult{Command: display, Decision: policyconf.Ask, Reason: reason}
		}
	}
	return LeafResult{Command: display, Decision: cfg.DefaultDecision, Reason: "no matching rule or allowlist entry"}
}

// evalCommandRulesOnly checks cmd against every active rule and reports the
// most-restrictive match (ties broken in favor of the first rule to reach
// that level, per active's merge order). ok is false when no rule matches at
// all, letting the caller decide what that means: evalCommand falls through
// to allowlist/default, while a wrapper-unwrapped rule-only leaf contributes
// nothing.
func evalCommandRulesOnly(active []policyconf.Rule, cmd *ast.SimpleCommand, redirects []ast.Redirect) (LeafResult, bool) {
	display := displayName(cmd)
	basename := shparse.Basename(cmd.NameOrEmpty())
	flags, args := partitionArgv(cmd.Argv)

	best := LeafResult{Command: display, Decision: policyconf.Allow}
	haveRuleMatch := false

	for _, r := range active {
		matched, ruleApplies := false, false
		switch r.Match.Kind {
		case policyconf.MatchCommand:
			ruleApplies = true
			matched = matchCommand(r.Match.Command, basename, flags, args)
		case policyconf.MatchRedirect:
			ruleApplies = true
			matched = matchAnyRedirect(r.Match.Redirect, redirects)
		}
		if !ruleApplies || !matched {
			continue
		}
		haveRuleMatch = true
		if !haveBetter(best, r) {
			continue
		}
		best = LeafResult{
			Command:       display,
			Decision:      r.Decision,
			MatchedRuleID: r.ID,
			Reason:        r.Reason,
			Source:        r.Source,
		}
	}

	return best, haveRuleMatch
}

func displayName(cmd *ast.SimpleCommand) string {
	if !cmd.HasName() {
		return cmd.RawText
	}
	return cmd.NameOrEmpty()
}

// haveBetter reports whether candidate rule r would strictly improve on the
// currently-held best decision for a leaf (a higher decision wins; among
// equal decisions the first-seen rule in active's merge order is kept,
// i.e. later equal-scoring rules never displace it).
func haveBetter(best LeafResult, r policyconf.Rule) bool {
	return best.MatchedRuleID == "" || r.Decision > best.Decision
}

func matchCommand(cm *policyconf.CommandMatch, basename string, flags, args []string) bool {
	if cm == nil || cm.Name.IsZero() {
		return false
	}
	if !cm.Name.Matches(basename) {
		return false
	}
	if cm.Flags != nil && !cm.Flags.IsZero() && !cm.Flags.Matches(flags) {
		return false
	}
	if cm.Args != nil && !cm.Args.IsZero() && !cm.Args.Matches(args) {
		return false
	}
	return true
}

func matchAnyRedirect(rm *policyconf.RedirectMatch, redirects []ast.Redirect) bool {
	if rm == nil {
		return false
	}
	for _, r := range redirects {
		if matchRedirect(rm, r) {
			return true
		}
	}
	return false
}

func matchRedirect(rm *policyconf.RedirectMatch, r ast.Redirect) bool {
	if rm.Op != nil && *rm.Op != r.Op.String() {
		return false
	}
	if rm.Target != nil && !rm.Target.IsZero() && !rm.Target.Matches(r.Target) {
		return false
	}
	return true
}

// partitionArgv splits a command's argument tokens into flag tokens (those
// starting with "-") and positional argument tokens, matching the shape
// CommandMatch.Flags/Args predicates are written against.
func partitionArgv(argv []string) (flags, args []string) {
	for _, a := range argv {
		if strings.HasPrefix(a, "-") && a != "-" {
			flags = append(flags, a)
		} else {
			args = append(args, a)
		}
	}
	return flags, args
}

// allowlistOutcome distinguishes "no entry's tokens matched" from "an entry
// matched but its trust tier exceeds the active trust level" (spec §4.4's
// trust-filtering paragraph), so evalCommand can surface the specific
// matched entry's reason in the latter case instead of the generic
// default-decision reason.
type allowlistOutcome struct {
	Matched     bool
	WithinTrust bool
	Entry       policyconf.AllowlistEntry
}

// matchesAllowlist reports whether cmd (by basename plus argv) satisfies
// any active allowlist entry. An entry's first token must equal basename;
// each further token must appear as the corresponding positional argument
// of the command (flags are skipped, not required to occupy exact adjacent
// indices — spec §4.4 points 1-2; "uv run --quiet pytest tests/" still
// matches "uv run pytest" because "--quiet" is a flag, not a positional
// token). If an entry matches structurally but its trust tier exceeds
// cfg.TrustLevel, that entry is still reported (WithinTrust false) rather
// than skipped, so its own Reason survives for the caller.
func matchesAllowlist(cfg *policyconf.Config, cwd, basename string, argv []string) allowlistOutcome {
	_, positional := partitionArgv(argv)

	var best allowlistOutcome
	for _, e := range cfg.Allowlists {
		if len(e.Tokens) == 0 || e.Tokens[0] != basename {
			continue
		}
		if !matchesPositionalTokens(e.Tokens[1:], positional, cwd) {
			continue
		}
		if e.Trust <= cfg.TrustLevel {
			return allowlistOutcome{Matched: true, WithinTrust: true, Entry: e}
		}
		if !best.Matched {
			best = allowlistOutcome{Matched: true, WithinTrust: false, Entry: e}
		}
	}
	return best
}

// matchesPositionalTokens reports whether want appears as the leading
// tokens of positional, in order (spec §4.4's "Wrapper-aware matching":
// entry tokens are checked against the first n positional tokens of the
// outer command, not merely the last token's basename).
func matchesPositionalTokens(want, positional []string, cwd string) bool {
	if len(want) > len(positional) {
		return false
	}
	for i, tok := range want {
		if !tokenMatches(tok, positional[i], cwd) {
			return false
		}
	}
	return true
}

// tokenMatches compares one allowlist token against one positional argument.
// Path-like tokens (containing a path separator) are canonicalized against
// cwd (spec §4.4 point 3: "resolved to canonical form, constrained to the
// subdirectory rooted at the declared working directory") before being
// compared as a doublestar glob pattern; this lets an entry like
// "pytest tests/" match "pytest ./tests" or a symlinked equivalent.
// Non-path tokens compare literally, preserving prior exact-match behavior.
func tokenMatches(entryToken, actual, cwd string) bool {
	if entryToken == actual {
		return true
	}
	if !strings.Contains(entryToken, "/") && !strings.Contains(actual, "/") {
		return false
	}
	pattern := strings.TrimSuffix(entryToken, "/")
	candidate := strings.TrimSuffix(canonicalizePathArg(cwd, actual), "/")
	ok, _ := doublestar.Match(pattern, candidate)
	return ok
}

// canonicalizePathArg resolves p (which may be relative to cwd, and may
// traverse symlinks) to a form comparable with glob patterns written
// relative to cwd. Resolution never escapes cwd's subtree in the returned
// value: a path that resolves outside cwd is returned in cleaned absolute
// form instead, since there is no "subdirectory rooted at cwd" form for it.
func canonicalizePathArg(cwd, p string) string {
	if cwd == "" {
		return filepath.Clean(p)
	}
	full := p
	if !filepath.IsAbs(full) {
		full = filepath.Join(cwd, full)
	}
	if resolved, err := filepath.EvalSymlinks(full); err == nil {
		full = resolved
	} else {
		full = filepath.Clean(full)
	}
	if rel, err := filepath.Rel(cwd, full); err == nil && rel != ".." && !strings.HasPrefix(rel, "../") {
		return rel
	}
	return full
}

// evalPipelineRules evaluates every active pipeline-shaped rule against pl's
// stage command names, used for structural patterns rule/command matchers
// cannot express alone (e.g. curl | sh).
func evalPipelineRules(active []policyconf.Rule, pl *ast.Pipeline) (LeafResult, bool) {
	names := pipelineStageNames(pl)
	best := LeafResult{}
	matchedAny := false
	for _, r := range active {
		if r.Match.Kind != policyconf.MatchPipeline {
			continue
		}
		if !matchPipelineStages(r.Match.Pipeline.Stages, names) {
			continue
		}
		if !matchedAny || r.Decision > best.Decision {
			best = LeafResult{
				Command:       strings.Join(names, " | "),
				Decision:      r.Decision,
				MatchedRuleID: r.ID,
				Reason:        r.Reason,
				Source:        r.Source,
			}
		}
		matchedAny = true
	}
	return best, matchedAny
}

func pipelineStageNames(pl *ast.Pipeline) []string {
	names := make([]string, 0, len(pl.Stages))
	for _, stage := range pl.Stages {
		names = append(names, stageName(stage))
	}
	return names
}

func stageName(stmt ast.Statement) string {
	switch s := stmt.(type) {
	case *ast.SimpleCommand:
		return shparse.Basename(s.NameOrEmpty())
	case *ast.Opaque:
		return s.Raw
	}
	return ""
}

// matchPipelineStages reports whether want appears as a (not necessarily
// contiguous) subsequence of got's stage names, in order (spec §3.3;
// policyconf.PipelineMatch's own doc comment). A two-pointer advance: got
// always steps forward, want only steps forward on a match, so stages
// between two named ones (e.g. "jq" between "curl" and "sh") do not break
// the match.
func matchPipelineStages(want []policyconf.StringPred, got []string) bool {
	if len(want) == 0 || len(want) > len(got) {
		return false
	}
	wi := 0
	for gi := 0; gi < len(got) && wi < len(want); gi++ {
		if want[wi].Matches(got[gi]) {
			wi++
		}
	}
	return wi == len(want)
}
