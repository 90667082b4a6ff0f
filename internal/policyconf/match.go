package policyconf

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// MatchKind discriminates the closed sum of matcher variants (spec §3.3):
// exactly one of Command, Pipeline, Redirect is populated on a Match.
type MatchKind int

const (
	MatchCommand MatchKind = iota
	MatchPipeline
	MatchRedirect
)

type Match struct {
	Kind     MatchKind
	Command  *CommandMatch
	Pipeline *PipelineMatch
	Redirect *RedirectMatch
}

// CommandMatch targets a single leaf: command-name predicate plus optional
// flag-set and positional-argument predicates.
type CommandMatch struct {
	Name StringPred
	Flags *StringSetPred
	Args  *StringSetPred
}

// PipelineMatch matches when Stages appears as a subsequence of a
// pipeline's stage command names (spec §3.3: "a documented limitation" —
// stage predicates compare command name only, see spec §9).
type PipelineMatch struct {
	Stages []StringPred
}

// RedirectMatch targets a single redirect: optional operator predicate and
// optional glob-capable target predicate.
type RedirectMatch struct {
	Op     *string // one of ">", ">>", "<", "<>", ">&", "<&", ">|"
	Target *StringPred
}

// StringPred is one of the predicate forms spec §3.3 names: a single
// literal, any_of, all_of, none_of, starts_with, or (for argument/target
// predicates) a glob pattern.
type StringPred struct {
	Literal    string
	AnyOf      []string
	AllOf      []string
	NoneOf     []string
	StartsWith string
	Glob       string
}

// Matches reports whether value satisfies the predicate. For AllOf/NoneOf,
// which only make sense against a set of tokens rather than one string,
// MatchesSet should be used instead; Matches treats a bare value as a
// one-element set for those cases.
func (p StringPred) Matches(value string) bool {
	switch {
	case p.Glob != "":
		ok, _ := doublestar.Match(p.Glob, value)
		return ok
	case p.StartsWith != "":
		return strings.HasPrefix(value, p.StartsWith)
	case len(p.AnyOf) > 0:
		for _, v := range p.AnyOf {
			if v == value {
				return true
			}
		}
		return false
	case len(p.AllOf) > 0:
		return len(p.AllOf) == 1 && p.AllOf[0] == value
	case len(p.NoneOf) > 0:
		for _, v := range p.NoneOf {
			if v == value {
				return false
			}
		}
		return true
	default:
		return p.Literal == value
	}
}

// IsZero reports whether the predicate was never populated (absent field).
func (p StringPred) IsZero() bool {
	return p.Literal == "" && len(p.AnyOf) == 0 && len(p.AllOf) == 0 &&
		len(p.NoneOf) == 0 && p.StartsWith == "" && p.Glob == ""
}

// StringSetPred evaluates a predicate against a set of tokens (a command's
// flags or positional arguments), per spec §3.3: any_of/all_of/none_of
// operate over the whole set, starts_with checks combined short flags like
// "-rf", and a bare literal/glob checks membership.
type StringSetPred struct {
	Literal    string
	AnyOf      []string
	AllOf      []string
	NoneOf     []string
	StartsWith string
	Glob       string
}

func (p StringSetPred) IsZero() bool {
	return p.Literal == "" && len(p.AnyOf) == 0 && len(p.AllOf) == 0 &&
		len(p.NoneOf) == 0 && p.StartsWith == "" && p.Glob == ""
}

// Matches reports whether tokens, as a set, satisfy the predicate.
func (p StringSetPred) Matches(tokens []string) bool {
	contains := func(v string) bool {
		for _, t := range tokens {
			if t == v {
				return true
			}
		}
		return false
	}
	switch {
	case p.Glob != "":
		for _, t := range tokens {
			if ok, _ := doublestar.Match(p.Glob, t); ok {
				return true
			}
		}
		return false
	case p.StartsWith != "":
		for _, t := range tokens {
			if strings.HasPrefix(t, p.StartsWith) {
				return true
			}
		}
		return false
	case len(p.AnyOf) > 0:
		for _, v := range p.AnyOf {
			if contains(v) {
				return true
			}
		}
		return false
	case len(p.AllOf) > 0:
		for _, v := range p.AllOf {
			if !contains(v) {
				return false
			}
		}
		return true
	case len(p.NoneOf) > 0:
		for _, v := range p.NoneOf {
			if contains(v) {
				return false
			}
		}
		return true
	default:
		return contains(p.Literal)
	}
}
