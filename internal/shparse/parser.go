// Package shparse turns a shell command string into the normalized tree
// defined by internal/ast. It never fails: unparsable or unsupported shapes
// collapse to ast.Opaque, locally where possible (spec §4.1).
//
// The traversal is backed by mvdan.cc/sh/v3/syntax's structural grammar
// rather than any regex matching, per the teacher's own
// internal/analyzer/structural.go precedent of building a real CST walker
// on top of this library.
package shparse

import (
	"strconv"
	"strings"

	"github.com/gzhole/longline/internal/ast"
	"mvdan.cc/sh/v3/syntax"
)

// Parse converts command into the normalized statement tree. It never
// returns an error: a command the grammar itself rejects becomes a single
// root-level *ast.Opaque; an empty or comment-only command becomes a no-op
// *ast.SimpleCommand with no name.
func Parse(command string) (result ast.Statement) {
	defer func() {
		if recover() != nil {
			result = &ast.Opaque{Raw: command}
		}
	}()

	if strings.TrimSpace(command) == "" {
		return &ast.SimpleCommand{RawText: command}
	}

	parser := syntax.NewParser(syntax.Variant(syntax.LangBash), syntax.KeepComments(false))
	f, err := parser.Parse(strings.NewReader(command), "")
	if err != nil {
		return &ast.Opaque{Raw: command}
	}
	return convertStmtList(f.Stmts, command)
}

// combineStatements folds a slice of already-converted statements into a
// single root: a bare no-op if empty, the element itself if one, otherwise a
// sequence List.
func combineStatements(stmts []ast.Statement) ast.Statement {
	switch len(stmts) {
	case 0:
		return &ast.SimpleCommand{}
	case 1:
		return stmts[0]
	}
	lst := &ast.List{Head: stmts[0]}
	for _, s := range stmts[1:] {
		lst.Rest = append(lst.Rest, ast.ListElem{Op: ast.OpSequence, Stmt: s})
	}
	return lst
}

func convertStmtList(stmts []*syntax.Stmt, raw string) ast.Statement {
	conv := make([]ast.Statement, 0, len(stmts))
	for _, st := range stmts {
		conv = append(conv, convertStmt(st, raw))
	}
	return combineStatements(conv)
}

func convertStmt(st *syntax.Stmt, raw string) ast.Statement {
	var inner ast.Statement
	if st.Cmd == nil {
		inner = &ast.SimpleCommand{}
	} else {
		inner = convertCommand(st.Cmd, raw)
	}

	if len(st.Redirs) > 0 {
		redirs, extraSubs := convertRedirects(st.Redirs, raw)
		switch v := inner.(type) {
		case *ast.SimpleCommand:
			v.Redirects = append(v.Redirects, redirs...)
			v.Substitutions = append(v.Substitutions, extraSubs...)
		case *ast.CompoundStatement:
			v.OuterRedirects = append(v.OuterRedirects, redirs...)
			if len(extraSubs) > 0 {
				stmts := make([]ast.Statement, 0, len(extraSubs)+1)
				stmts = append(stmts, v)
				for _, s := range extraSubs {
					stmts = append(stmts, s.Inner)
				}
				inner = combineStatements(stmts)
			}
		default:
			wrapped := ast.Statement(&ast.CompoundStatement{Inner: inner, OuterRedirects: redirs})
			if len(extraSubs) > 0 {
				stmts := make([]ast.Statement, 0, len(extraSubs)+1)
				stmts = append(stmts, wrapped)
				for _, s := range extraSubs {
					stmts = append(stmts, s.Inner)
				}
				wrapped = combineStatements(stmts)
			}
			inner = wrapped
		}
	}

	if st.Negated {
		if p, ok := inner.(*ast.Pipeline); ok {
			p.Negated = true
		} else {
			inner = &ast.Pipeline{Stages: []ast.Statement{inner}, Negated: true}
		}
	}

	return inner
}

func convertCommand(cmd syntax.Command, raw string) ast.Statement {
	switch c := cmd.(type) {
	case *syntax.CallExpr:
		return convertCallExpr(c, raw)

	case *syntax.BinaryCmd:
		switch c.Op {
		case syntax.Pipe, syntax.PipeAll:
			stages := append(flattenPipeStmt(c.X, raw), flattenPipeStmt(c.Y, raw)...)
			return &ast.Pipeline{Stages: stages}
		case syntax.AndStmt, syntax.OrStmt:
			return convertAndOr(c, raw)
		default:
			return &ast.Opaque{Raw: rawSpan(c, raw)}
		}

	case *syntax.Subshell:
		return &ast.Subshell{Inner: convertStmtList(c.Stmts, raw)}

	case *syntax.Block:
		return &ast.CompoundStatement{Inner: convertStmtList(c.Stmts, raw)}

	case *syntax.IfClause:
		var all []*syntax.Stmt
		for clause := c; clause != nil; clause = clause.Else {
			all = append(all, clause.Cond...)
			all = append(all, clause.Then...)
		}
		return convertStmtList(all, raw)

	case *syntax.WhileClause:
		all := append(append([]*syntax.Stmt{}, c.Cond...), c.Do...)
		return convertStmtList(all, raw)

	case *syntax.ForClause:
		var extra []ast.Statement
		if wi, ok := c.Loop.(*syntax.WordIter); ok {
			extra = wordsSubstitutionStatements(wi.Items, raw)
		}
		body := convertStmtList(c.Do, raw)
		return combineStatements(append(extra, body))

	case *syntax.CaseClause:
		var all []*syntax.Stmt
		extra := wordsSubstitutionStatements([]*syntax.Word{c.Word}, raw)
		for _, item := range c.Items {
			all = append(all, item.Stmts...)
		}
		body := convertStmtList(all, raw)
		return combineStatements(append(extra, body))

	case *syntax.FuncDecl:
		return convertStmt(c.Body, raw)

	case *syntax.TimeClause:
		if c.Stmt == nil {
			return &ast.SimpleCommand{}
		}
		return convertStmt(c.Stmt, raw)

	case *syntax.CoprocClause:
		if c.Stmt == nil {
			return &ast.SimpleCommand{}
		}
		return convertStmt(c.Stmt, raw)

	case *syntax.TestClause:
		words := walkTestExprWords(c.X)
		extra := wordsSubstitutionStatements(words, raw)
		return combineStatements(append(extra, ast.Statement(&ast.Opaque{Raw: rawSpan(c, raw)})))

	case *syntax.DeclClause:
		var extra []ast.Statement
		for _, a := range c.Args {
			if a.Value != nil {
				_, subs := renderWord(a.Value, raw)
				extra = append(extra, substitutionsToStatements(subs)...)
			}
		}
		return combineStatements(append(extra, ast.Statement(&ast.Opaque{Raw: rawSpan(c, raw)})))

	case *syntax.LetClause:
		return &ast.Opaque{Raw: rawSpan(c, raw)}

	case *syntax.ArithmCmd:
		return &ast.Opaque{Raw: rawSpan(c, raw)}

	default:
		return &ast.Opaque{Raw: raw}
	}
}

func convertAndOr(bc *syntax.BinaryCmd, raw string) ast.Statement {
	leftHead, leftTail := flattenAndOrStmt(bc.X, raw)
	op := opFor(bc.Op)
	rightHead, rightTail := flattenAndOrStmt(bc.Y, raw)

	tail := make([]ast.ListElem, 0, len(leftTail)+1+len(rightTail))
	tail = append(tail, leftTail...)
	tail = append(tail, ast.ListElem{Op: op, Stmt: rightHead})
	tail = append(tail, rightTail...)
	return &ast.List{Head: leftHead, Rest: tail}
}

func flattenAndOrStmt(s *syntax.Stmt, raw string) (ast.Statement, []ast.ListElem) {
	if bc, ok := s.Cmd.(*syntax.BinaryCmd); ok && (bc.Op == syntax.AndStmt || bc.Op == syntax.OrStmt) && len(s.Redirs) == 0 && !s.Negated {
		leftHead, leftTail := flattenAndOrStmt(bc.X, raw)
		op := opFor(bc.Op)
		rightHead, rightTail := flattenAndOrStmt(bc.Y, raw)

		tail := make([]ast.ListElem, 0, len(leftTail)+1+len(rightTail))
		tail = append(tail, leftTail...)
		tail = append(tail, ast.ListElem{Op: op, Stmt: rightHead})
		tail = append(tail, rightTail...)
		return leftHead, tail
	}
	return convertStmt(s, raw), nil
}

func opFor(op syntax.BinCmdOperator) ast.ListOp {
	if op == syntax.OrStmt {
		return ast.OpOr
	}
	return ast.OpAnd
}

func flattenPipeStmt(s *syntax.Stmt, raw string) []ast.Statement {
	if bc, ok := s.Cmd.(*syntax.BinaryCmd); ok && (bc.Op == syntax.Pipe || bc.Op == syntax.PipeAll) && len(s.Redirs) == 0 && !s.Negated {
		return append(flattenPipeStmt(bc.X, raw), flattenPipeStmt(bc.Y, raw)...)
	}
	return []ast.Statement{convertStmt(s, raw)}
}

func convertCallExpr(ce *syntax.CallExpr, raw string) *ast.SimpleCommand {
	sc := &ast.SimpleCommand{RawText: rawSpan(ce, raw)}

	for _, a := range ce.Assigns {
		if a.Name == nil {
			continue
		}
		var val string
		var subs []*ast.CommandSubstitution
		switch {
		case a.Value != nil:
			val, subs = renderWord(a.Value, raw)
		case a.Array != nil:
			val = rawSpan(a.Array, raw)
		}
		sc.Assignments = append(sc.Assignments, ast.Assignment{Name: a.Name.Value, Value: val})
		sc.Substitutions = append(sc.Substitutions, subs...)
	}

	for i, w := range ce.Args {
		s, subs := renderWord(w, raw)
		sc.Substitutions = append(sc.Substitutions, subs...)
		if i == 0 {
			sc.Name = &s
			continue
		}
		sc.Argv = append(sc.Argv, s)
	}

	return sc
}

func convertRedirects(redirs []*syntax.Redirect, raw string) ([]ast.Redirect, []*ast.CommandSubstitution) {
	var out []ast.Redirect
	var subs []*ast.CommandSubstitution
	for _, r := range redirs {
		ar, rsubs := convertRedirect(r, raw)
		out = append(out, ar)
		subs = append(subs, rsubs...)
	}
	return out, subs
}

func convertRedirect(r *syntax.Redirect, raw string) (ast.Redirect, []*ast.CommandSubstitution) {
	var fd *int
	if r.N != nil {
		if n, err := strconv.Atoi(r.N.Value); err == nil {
			fd = &n
		}
	}

	w := r.Word
	if isHeredocOp(r.Op) {
		w = r.Hdoc
	}

	var target string
	var subs []*ast.CommandSubstitution
	if w != nil {
		target, subs = renderWord(w, raw)
	}

	return ast.Redirect{FD: fd, Op: convertRedirOp(r.Op), Target: target}, subs
}

func isHeredocOp(op syntax.RedirOperator) bool {
	switch op {
	case syntax.Hdoc, syntax.DashHdoc, syntax.WordHdoc:
		return true
	}
	return false
}

func convertRedirOp(op syntax.RedirOperator) ast.RedirectOp {
	switch op {
	case syntax.AppOut, syntax.AppAll:
		return ast.RedirAppend
	case syntax.RdrIn:
		return ast.RedirRead
	case syntax.RdrInOut:
		return ast.RedirRW
	case syntax.DplOut:
		return ast.RedirDupOut
	case syntax.DplIn:
		return ast.RedirDupIn
	case syntax.ClbOut:
		return ast.RedirClobber
	case syntax.Hdoc, syntax.DashHdoc, syntax.WordHdoc:
		return ast.RedirRead
	default:
		return ast.RedirWrite
	}
}

// renderWord renders a word to its matcher-facing string form and collects
// every command substitution (and process substitution) reachable inside
// it, per spec §3.1's propagation invariant: literal and single-quoted
// segments pass through verbatim, double-quoted segments keep their
// interior text, and anything else (parameter expansions, arithmetic,
// extended globs) is kept as its raw source text.
func renderWord(w *syntax.Word, raw string) (string, []*ast.CommandSubstitution) {
	if w == nil {
		return "", nil
	}
	var sb strings.Builder
	var subs []*ast.CommandSubstitution
	for _, part := range w.Parts {
		s, psubs := renderPart(part, raw)
		sb.WriteString(s)
		subs = append(subs, psubs...)
	}
	return sb.String(), subs
}

func renderPart(part syntax.WordPart, raw string) (string, []*ast.CommandSubstitution) {
	switch p := part.(type) {
	case *syntax.Lit:
		return p.Value, nil
	case *syntax.SglQuoted:
		return p.Value, nil
	case *syntax.DblQuoted:
		var sb strings.Builder
		var subs []*ast.CommandSubstitution
		for _, inner := range p.Parts {
			s, isubs := renderPart(inner, raw)
			sb.WriteString(s)
			subs = append(subs, isubs...)
		}
		return sb.String(), subs
	case *syntax.CmdSubst:
		cs := &ast.CommandSubstitution{Inner: convertStmtList(p.Stmts, raw)}
		return rawSpan(p, raw), []*ast.CommandSubstitution{cs}
	case *syntax.ProcSubst:
		cs := &ast.CommandSubstitution{Inner: convertStmtList(p.Stmts, raw)}
		return rawSpan(p, raw), []*ast.CommandSubstitution{cs}
	default:
		return rawSpan(part, raw), nil
	}
}

// wordsSubstitutionStatements extracts the inner statement of every command
// substitution embedded in words, as independent leaves: a for/case subject
// that embeds $(...) makes that substitution evaluable on its own, alongside
// whatever body statements the construct has.
func wordsSubstitutionStatements(words []*syntax.Word, raw string) []ast.Statement {
	var out []ast.Statement
	for _, w := range words {
		if w == nil {
			continue
		}
		_, subs := renderWord(w, raw)
		out = append(out, substitutionsToStatements(subs)...)
	}
	return out
}

func substitutionsToStatements(subs []*ast.CommandSubstitution) []ast.Statement {
	out := make([]ast.Statement, 0, len(subs))
	for _, s := range subs {
		out = append(out, s.Inner)
	}
	return out
}

func walkTestExprWords(te syntax.TestExpr) []*syntax.Word {
	switch t := te.(type) {
	case *syntax.Word:
		return []*syntax.Word{t}
	case *syntax.UnaryTest:
		return walkTestExprWords(t.X)
	case *syntax.BinaryTest:
		return append(walkTestExprWords(t.X), walkTestExprWords(t.Y)...)
	case *syntax.ParenTest:
		return walkTestExprWords(t.X)
	}
	return nil
}

// rawSpan slices the original source text for any syntax node, used
// wherever the normalized form keeps an expansion or construct as raw text
// rather than interpreting it.
func rawSpan(n syntax.Node, raw string) string {
	if n == nil {
		return ""
	}
	start := int(n.Pos().Offset())
	end := int(n.End().Offset())
	if start < 0 || end > len(raw) || start > end {
		return ""
	}
	return raw[start:end]
}
