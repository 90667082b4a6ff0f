package shparse

import "github.com/gzhole/longline/internal/ast"

// ExpandedLeaf is one command discovered while expanding a leaf through
// transparent-wrapper unwrapping and find/xargs inner-command extraction.
//
// FullEval distinguishes the two derivation kinds because they carry
// different evaluation semantics (spec §4.5): an extracted find/xargs inner
// command is a genuinely separate invocation and gets full policy treatment
// (rules, then allowlist, then the configured default); a wrapper-unwrapped
// command is the SAME invocation as its wrapper, surfaced only so rules can
// see through the wrapper — it contributes a match when a rule actually
// fires, but does not independently require its own allowlist entry or fall
// back to the default decision, or "uv run pytest tests/" would ask because
// the unwrapped "pytest tests/" has no allowlist entry of its own, although
// "uv run pytest" is allowlisted.
type ExpandedLeaf struct {
	Cmd      *ast.SimpleCommand
	FullEval bool
}

// ExpandLeaf returns cmd together with every additional leaf discovered by
// transparent-wrapper unwrapping and find/xargs inner-command extraction,
// applied repeatedly (a wrapper can wrap a find invocation and vice versa)
// up to MaxUnwrapDepth total derived leaves. cmd itself is always the first
// element, with FullEval true.
func ExpandLeaf(cmd *ast.SimpleCommand) []ExpandedLeaf {
	root := ExpandedLeaf{Cmd: cmd, FullEval: true}
	out := []ExpandedLeaf{root}
	queue := []ExpandedLeaf{root}
	seen := 0
	for len(queue) > 0 && seen < MaxUnwrapDepth {
		cur := queue[0]
		queue = queue[1:]

		if inner := unwrapOnce(cur.Cmd); inner != nil {
			el := ExpandedLeaf{Cmd: inner, FullEval: false}
			out = append(out, el)
			queue = append(queue, el)
			seen++
		}
		for _, inner := range ExtractInner(cur.Cmd) {
			el := ExpandedLeaf{Cmd: inner, FullEval: true}
			out = append(out, el)
			queue = append(queue, el)
			seen++
			if seen >= MaxUnwrapDepth {
				break
			}
		}
	}
	return out
}
