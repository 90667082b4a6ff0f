package hookio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/gzhole/longline/internal/ast"
	"github.com/gzhole/longline/internal/auditlog"
	"github.com/gzhole/longline/internal/judge"
	"github.com/gzhole/longline/internal/policy"
	"github.com/gzhole/longline/internal/policyconf"
	"github.com/gzhole/longline/internal/shparse"
)

// Options bundles everything a single hook invocation needs beyond the
// request it reads from stdin.
type Options struct {
	LoadOpts policyconf.LoadOptions

	AskAI        bool // strict AI-judge: may reduce ask to allow
	AskAILenient bool // lenient AI-judge; implies AskAI
	JudgeConfig  judge.Config

	AuditLog *auditlog.Logger // nil disables audit logging
}

// Exit codes (spec §6.4).
const (
	ExitOK          = 0
	ExitConfigError = 2
)

// Run reads one hook request from stdin, evaluates it, writes the response
// to stdout, and returns the process exit code.
//
// The two failure kinds spec §7 distinguishes are handled with different
// dispositions on purpose, diverging from a fail-open IDE-hook idiom: a
// malformed REQUEST still gets a hook response (ask, with a diagnostic
// reason) because the host is waiting on stdout for exactly one JSON
// object, while a broken CONFIGURATION is an operator-facing failure that
// must never be silently swallowed as "allow" — it exits 2 with a stderr
// diagnostic and writes nothing to stdout at all.
func Run(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, opts Options) int {
	raw, err := io.ReadAll(stdin)
	if err != nil {
		fmt.Fprintf(stderr, "longline: reading hook request: %v\n", err)
		writeAskDiagnostic(stdout, "failed to read hook request")
		return ExitOK
	}

	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		fmt.Fprintf(stderr, "longline: malformed hook request: %v\n", err)
		writeAskDiagnostic(stdout, "malformed hook request JSON")
		return ExitOK
	}

	if !isShellTool(req.ToolName) {
		stdout.Write(allowResponse())
		return ExitOK
	}

	command := req.ToolInput.Command
	if command == "" {
		stdout.Write(allowResponse())
		return ExitOK
	}

	cwd := req.Cwd
	if cwd == "" {
		if wd, err := os.Getwd(); err == nil {
			cwd = wd
		}
	}

	loadOpts := opts.LoadOpts
	if loadOpts.Dir == "" {
		loadOpts.Dir = cwd
	}
	cfg, err := policyconf.Load(loadOpts)
	if err != nil {
		fmt.Fprintf(stderr, "longline: configuration error: %v\n", err)
		return ExitConfigError
	}

	stmt := shparse.Parse(command)
	result := policy.Evaluate(cfg, stmt, cwd)

	decision, ruleID, reason, overridden := result.Decision, result.MatchedRuleID, result.Reason, result.Overridden

	if decision == policyconf.Ask && (opts.AskAI || opts.AskAILenient) {
		jd, jreason, ok := consultJudge(ctx, opts, stmt, command, cwd)
		if ok && jd == judge.Allow {
			decision, ruleID, reason, overridden = policyconf.Allow, "", jreason, true
		}
	}

	if opts.AuditLog != nil {
		_ = opts.AuditLog.Log(auditlog.Event{
			SessionID:     req.SessionID,
			Command:       command,
			Cwd:           cwd,
			Decision:      decision.String(),
			MatchedRuleID: ruleID,
			Reason:        reason,
			ParseOK:       parsedCleanly(stmt),
			Overridden:    overridden,
		})
	}

	if decision == policyconf.Allow && !overridden {
		stdout.Write(allowResponse())
		return ExitOK
	}

	stdout.Write(decisionResponse(decision.String(), ruleID, reason))
	return ExitOK
}

// consultJudge invokes the AI-judge adapter when the evaluated command
// yields extractable code, per spec §4.7's extraction precedence. ok is
// false when nothing in the statement matches any extraction step, in
// which case the judge does not apply and the original decision stands.
func consultJudge(ctx context.Context, opts Options, stmt ast.Statement, command, cwd string) (judge.Decision, string, bool) {
	cfg := opts.JudgeConfig
	cfg.Lenient = opts.AskAILenient

	ec, ok := judge.ExtractCode(command, stmt, cwd, cfg)
	if !ok {
		return judge.Ask, "", false
	}
	d, reason := judge.Evaluate(ctx, cfg, ec, cwd)
	return d, reason, true
}

func writeAskDiagnostic(stdout io.Writer, reason string) {
	stdout.Write(decisionResponse(policyconf.Ask.String(), "", reason))
}

// parsedCleanly reports whether stmt contains no *ast.Opaque segment,
// i.e. the shell parser recovered full structure for the whole command.
func parsedCleanly(stmt ast.Statement) bool {
	for _, s := range ast.Flatten(stmt) {
		if _, ok := s.(*ast.Opaque); ok {
			return false
		}
	}
	return true
}
