package judge

import "github.com/gzhole/longline/internal/ast"

// extractInlineFromStmt implements extraction precedence step 1: an
// interpreter invoked with its inline-code flag, including through a chain
// of package-runner wrappers (spec §4.7).
func extractInlineFromStmt(stmt ast.Statement, cfg Config) (ExtractedCode, bool) {
	switch s := stmt.(type) {
	case *ast.SimpleCommand:
		for _, sub := range s.Substitutions {
			if ec, ok := extractInlineFromStmt(sub, cfg); ok {
				return ec, true
			}
		}
		return extractInlineFromSimpleCommand(s, cfg)
	case *ast.Pipeline:
		for _, stage := range s.Stages {
			if ec, ok := extractInlineFromStmt(stage, cfg); ok {
				return ec, true
			}
		}
	case *ast.List:
		if ec, ok := extractInlineFromStmt(s.Head, cfg); ok {
			return ec, true
		}
		for _, elem := range s.Rest {
			if ec, ok := extractInlineFromStmt(elem.Stmt, cfg); ok {
				return ec, true
			}
		}
	case *ast.Subshell:
		return extractInlineFromStmt(s.Inner, cfg)
	case *ast.CommandSubstitution:
		return extractInlineFromStmt(s.Inner, cfg)
	case *ast.CompoundStatement:
		return extractInlineFromStmt(s.Inner, cfg)
	}
	return ExtractedCode{}, false
}

func extractInlineFromSimpleCommand(cmd *ast.SimpleCommand, cfg Config) (ExtractedCode, bool) {
	tokens := tokensFromSimpleCommand(cmd)
	if tokens == nil {
		return ExtractedCode{}, false
	}
	unwrapped := unwrapRunnerChain(tokens, cfg.Runners)
	return extractInterpreterInline(unwrapped, cfg)
}

func extractInterpreterInline(tokens []string, cfg Config) (ExtractedCode, bool) {
	if len(tokens) == 0 {
		return ExtractedCode{}, false
	}
	cmdName := tokens[0]
	argv := tokens[1:]

	for _, trig := range cfg.Interpreters {
		matches := false
		for _, n := range trig.Names {
			if commandNameMatches(n, cmdName) {
				matches = true
				break
			}
		}
		if !matches {
			continue
		}
		flagPos := -1
		for i, a := range argv {
			if a == trig.InlineFlag {
				flagPos = i
				break
			}
		}
		if flagPos == -1 || flagPos+1 >= len(argv) {
			continue
		}
		code := argv[flagPos+1]
		if len(code) > MaxExtractedCodeBytes {
			continue
		}
		return ExtractedCode{Language: cmdName, Code: code}, true
	}
	return ExtractedCode{}, false
}
