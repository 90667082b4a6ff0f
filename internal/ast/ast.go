// Package ast defines the normalized shell statement tree produced by
// internal/shparse and consumed by internal/policy. The tree is immutable
// once built and is a closed sum of node kinds: every node implements
// Statement through an unexported marker method, so the only way to add a
// new kind is inside this package.
package ast

// Statement is any node in the normalized tree. It is intentionally a
// closed interface (sealed via the unexported statementNode method) rather
// than an open one: the policy evaluator switches exhaustively over the
// concrete kinds, and a compile error on a missing case is worth more than
// extensibility nobody asked for.
type Statement interface {
	statementNode()
}

// SimpleCommand is a single command invocation: an optional name, its
// argument tokens (already quote-stripped), its redirects, and any leading
// assignments (FOO=bar cmd, or a bare assignment with no command name).
type SimpleCommand struct {
	// Name is nil for a bare assignment statement.
	Name *string
	Argv []string

	Redirects   []Redirect
	Assignments []Assignment

	// Substitutions holds every CommandSubstitution reachable from this
	// leaf's argument tokens, assignment values, or redirect targets (see
	// spec §3.1's propagation invariant). Each is independently evaluable.
	Substitutions []*CommandSubstitution

	// RawText is the original source span for this command, retained for
	// logging and for wrapper/extraction bookkeeping.
	RawText string
}

func (*SimpleCommand) statementNode() {}

// HasName reports whether the command carries an executable name, as
// opposed to being a bare assignment.
func (s *SimpleCommand) HasName() bool { return s.Name != nil }

// NameOrEmpty returns the command name, or "" for a bare assignment.
func (s *SimpleCommand) NameOrEmpty() string {
	if s.Name == nil {
		return ""
	}
	return *s.Name
}

// Pipeline is a sequence of statements composed by `|`, with an optional
// leading `!` negation.
type Pipeline struct {
	Stages  []Statement
	Negated bool
}

func (*Pipeline) statementNode() {}

// ListOp is the operator joining two statements in a List.
type ListOp int

const (
	OpSequence ListOp = iota // ;
	OpAnd                    // &&
	OpOr                     // ||
)

func (op ListOp) String() string {
	switch op {
	case OpAnd:
		return "&&"
	case OpOr:
		return "||"
	default:
		return ";"
	}
}

// ListElem pairs the operator that precedes a statement with the statement
// itself, for every element after the head of a List.
type ListElem struct {
	Op   ListOp
	Stmt Statement
}

// List is a head statement followed by zero or more (operator, statement)
// pairs: `a; b && c || d`.
type List struct {
	Head Statement
	Rest []ListElem
}

func (*List) statementNode() {}

// Subshell is `( inner )`: exactly one inner statement, its own process
// context (irrelevant to static policy, but kept for shape fidelity).
type Subshell struct {
	Inner Statement
}

func (*Subshell) statementNode() {}

// CommandSubstitution is `$(inner)` or `` `inner` ``, either standalone or
// (far more commonly) embedded inside a SimpleCommand's argument tokens,
// assignment values, or redirect targets — see SimpleCommand.Substitutions.
type CommandSubstitution struct {
	Inner Statement
}

func (*CommandSubstitution) statementNode() {}

// CompoundStatement is `{ ...; }` grouping. Redirects attached to the group
// are propagated to every inner SimpleCommand leaf at evaluation time (see
// internal/policy), not at parse time, so OuterRedirects is kept separate
// from any individual leaf's own Redirects.
type CompoundStatement struct {
	Inner          Statement
	OuterRedirects []Redirect
}

func (*CompoundStatement) statementNode() {}

// Opaque is raw source text the parser declines to structurally analyze
// (eval, dynamic argv, or anything the grammar itself rejected). It always
// evaluates to ask unless a future rule changes that — see internal/policy.
type Opaque struct {
	Raw string
}

func (*Opaque) statementNode() {}

// RedirectOp enumerates the shell redirection operators spec §3.1 names.
type RedirectOp int

const (
	RedirWrite   RedirectOp = iota // >
	RedirAppend                    // >>
	RedirRead                      // <
	RedirRW                        // <>
	RedirDupOut                    // >&
	RedirDupIn                     // <&
	RedirClobber                   // >|
)

func (op RedirectOp) String() string {
	switch op {
	case RedirWrite:
		return ">"
	case RedirAppend:
		return ">>"
	case RedirRead:
		return "<"
	case RedirRW:
		return "<>"
	case RedirDupOut:
		return ">&"
	case RedirDupIn:
		return "<&"
	case RedirClobber:
		return ">|"
	default:
		return "?"
	}
}

// Redirect is (optional fd, operator, target).
type Redirect struct {
	FD     *int
	Op     RedirectOp
	Target string
}

// Assignment is a single NAME=value pair preceding (or standing in for) a
// command.
type Assignment struct {
	Name  string
	Value string
}

// Flatten walks stmt and returns every reachable leaf (*SimpleCommand or
// *Opaque), depth-first in source order, including every embedded
// CommandSubstitution recorded on a SimpleCommand. It does NOT perform
// wrapper unwrapping or find/xargs extraction — those are evaluator-level
// concerns layered on top in internal/shparse and internal/policy.
func Flatten(stmt Statement) []Statement {
	var out []Statement
	flattenInto(stmt, &out)
	return out
}

func flattenInto(stmt Statement, out *[]Statement) {
	switch s := stmt.(type) {
	case *SimpleCommand:
		*out = append(*out, s)
		for _, sub := range s.Substitutions {
			flattenInto(sub, out)
		}
	case *Opaque:
		*out = append(*out, s)
	case *Pipeline:
		for _, stage := range s.Stages {
			flattenInto(stage, out)
		}
	case *List:
		flattenInto(s.Head, out)
		for _, elem := range s.Rest {
			flattenInto(elem.Stmt, out)
		}
	case *Subshell:
		flattenInto(s.Inner, out)
	case *CommandSubstitution:
		flattenInto(s.Inner, out)
	case *CompoundStatement:
		flattenInto(s.Inner, out)
	}
}

// CollectPipelines returns every Pipeline node reachable from stmt, for use
// by pipeline-shaped rule matchers (spec §3.3, §4.6).
func CollectPipelines(stmt Statement) []*Pipeline {
	var out []*Pipeline
	collectPipelinesInto(stmt, &out)
	return out
}

func collectPipelinesInto(stmt Statement, out *[]*Pipeline) {
	switch s := stmt.(type) {
	case *Pipeline:
		*out = append(*out, s)
		for _, stage := range s.Stages {
			collectPipelinesInto(stage, out)
		}
	case *List:
		collectPipelinesInto(s.Head, out)
		for _, elem := range s.Rest {
			collectPipelinesInto(elem.Stmt, out)
		}
	case *Subshell:
		collectPipelinesInto(s.Inner, out)
	case *CommandSubstitution:
		collectPipelinesInto(s.Inner, out)
	case *CompoundStatement:
		collectPipelinesInto(s.Inner, out)
	case *SimpleCommand:
		for _, sub := range s.Substitutions {
			collectPipelinesInto(sub, out)
		}
	}
}

// PropagateRedirects returns the effective redirect list for a SimpleCommand
// leaf reached inside zero or more enclosing CompoundStatement nodes: the
// union of the leaf's own redirects and every outer redirect encountered on
// the path from the root.
func PropagateRedirects(leafOwn []Redirect, outer []Redirect) []Redirect {
	if len(outer) == 0 {
		return leafOwn
	}
	combined := make([]Redirect, 0, len(leafOwn)+len(outer))
	combined = append(combined, leafOwn...)
	combined = append(combined, outer...)
	return combined
}

// Leaf pairs a reachable SimpleCommand/Opaque leaf with the redirects
// propagated down from every enclosing CompoundStatement (spec §3.1's
// "compound-statement redirects are propagated to every inner SimpleCommand
// leaf" invariant). EffectiveRedirects is leaf-own ++ outer for
// SimpleCommand leaves; nil for Opaque leaves.
type Leaf struct {
	Stmt               Statement
	EffectiveRedirects []Redirect
}

// FlattenWithRedirects walks stmt depth-first in source order and returns
// every SimpleCommand/Opaque leaf (including embedded substitutions),
// annotating each SimpleCommand leaf with its effective (propagated)
// redirect list.
func FlattenWithRedirects(stmt Statement) []Leaf {
	var out []Leaf
	flattenWithRedirects(stmt, nil, &out)
	return out
}

func flattenWithRedirects(stmt Statement, outer []Redirect, out *[]Leaf) {
	switch s := stmt.(type) {
	case *SimpleCommand:
		*out = append(*out, Leaf{Stmt: s, EffectiveRedirects: PropagateRedirects(s.Redirects, outer)})
		for _, sub := range s.Substitutions {
			// A command substitution runs in its own context; outer
			// redirects of the enclosing compound do not reach into it.
			flattenWithRedirects(sub, nil, out)
		}
	case *Opaque:
		*out = append(*out, Leaf{Stmt: s})
	case *Pipeline:
		for _, stage := range s.Stages {
			flattenWithRedirects(stage, outer, out)
		}
	case *List:
		flattenWithRedirects(s.Head, outer, out)
		for _, elem := range s.Rest {
			flattenWithRedirects(elem.Stmt, outer, out)
		}
	case *Subshell:
		flattenWithRedirects(s.Inner, outer, out)
	case *CommandSubstitution:
		flattenWithRedirects(s.Inner, nil, out)
	case *CompoundStatement:
		flattenWithRedirects(s.Inner, append(append([]Redirect{}, outer...), s.OuterRedirects...), out)
	}
}
