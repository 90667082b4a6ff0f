package judge

import "github.com/gzhole/longline/internal/ast"

// ExtractCode applies the five-step extraction precedence spec §4.7 defines
// and returns the first form that matches, or false if stmt matches none of
// them (the caller then leaves the original ask decision untouched).
// Steps 3 (interpreter-shell pipelines) and 4 (bare stdin pipelines) are
// implemented by one pass, extractFromStdinPipeline.
func ExtractCode(rawCommand string, stmt ast.Statement, cwd string, cfg Config) (ExtractedCode, bool) {
	if ec, ok := extractInlineFromStmt(stmt, cfg); ok {
		return ec, true
	}
	if ec, ok := extractHeredocOrHerestring(rawCommand); ok && len(ec.Code) <= MaxExtractedCodeBytes {
		return ec, true
	}
	if ec, ok := extractFromStdinPipeline(stmt, cwd, cfg); ok {
		return ec, true
	}
	if ec, ok := extractScriptExecution(stmt, cwd, cfg); ok {
		return ec, true
	}
	return ExtractedCode{}, false
}
