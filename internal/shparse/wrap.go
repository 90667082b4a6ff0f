package shparse

import "github.com/gzhole/longline/internal/ast"

// MaxUnwrapDepth bounds how many chained transparent wrappers are unwound
// (spec §4.5). Past the bound, expansion stops: the innermost command
// reached is evaluated as is, and nothing is marked opaque.
const MaxUnwrapDepth = 5

// argSkip describes how a wrapper's own arguments are consumed before the
// inner command name is reached.
type argSkip int

const (
	skipNone        argSkip = iota // next non-flag token is the inner command
	skipPositional1                // one positional value precedes the inner command (timeout DURATION cmd)
	skipAssignments                // leading NAME=value tokens precede the inner command (env)
)

// wrapperDef is one entry in the transparent-wrapper table. Adding a new
// wrapper is exactly one entry here.
type wrapperDef struct {
	name       string
	valueFlags map[string]bool
	skip       argSkip
	// subcommand, if set, requires Argv[0] to equal this value for the
	// wrapper to apply (uv run ..., but not uv pip ...).
	subcommand string
}

func flagSet(flags ...string) map[string]bool {
	m := make(map[string]bool, len(flags))
	for _, f := range flags {
		m[f] = true
	}
	return m
}

var wrappers = []wrapperDef{
	{
		name:       "timeout",
		valueFlags: flagSet("-s", "--signal", "-k", "--kill-after"),
		skip:       skipPositional1,
	},
	{
		name:       "nice",
		valueFlags: flagSet("-n", "--adjustment"),
		skip:       skipNone,
	},
	{
		name:       "env",
		valueFlags: flagSet("-u", "--unset"),
		skip:       skipAssignments,
	},
	{
		name:       "nohup",
		valueFlags: nil,
		skip:       skipNone,
	},
	{
		name:       "strace",
		valueFlags: flagSet("-e", "-o", "-p", "-s", "-P", "-I"),
		skip:       skipNone,
	},
	{
		name:       "time",
		valueFlags: nil,
		skip:       skipNone,
	},
	{
		name:       "uv",
		valueFlags: nil,
		skip:       skipNone,
		subcommand: "run",
	},
}

func findWrapper(basename, firstArg string) *wrapperDef {
	for i := range wrappers {
		w := &wrappers[i]
		if w.name != basename {
			continue
		}
		if w.subcommand != "" && w.subcommand != firstArg {
			continue
		}
		return w
	}
	return nil
}

func isEnvAssignment(token string) bool {
	eq := -1
	for i, r := range token {
		if r == '=' {
			eq = i
			break
		}
	}
	if eq <= 0 {
		return false
	}
	name := token[:eq]
	for i, r := range name {
		if i == 0 {
			if !isAlpha(r) && r != '_' {
				return false
			}
			continue
		}
		if !isAlnum(r) && r != '_' {
			return false
		}
	}
	return true
}

func isAlpha(r rune) bool { return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') }
func isAlnum(r rune) bool { return isAlpha(r) || (r >= '0' && r <= '9') }

// unwrapOnce inspects cmd and, if its basename names a transparent wrapper,
// reconstructs the inner invocation it delegates to. It returns nil if cmd is
// not a recognized wrapper or no inner command name can be found.
func unwrapOnce(cmd *ast.SimpleCommand) *ast.SimpleCommand {
	if cmd == nil || !cmd.HasName() {
		return nil
	}
	basename := Basename(cmd.NameOrEmpty())
	firstArg := ""
	if len(cmd.Argv) > 0 {
		firstArg = cmd.Argv[0]
	}
	w := findWrapper(basename, firstArg)
	if w == nil {
		return nil
	}

	args := cmd.Argv
	if w.subcommand != "" {
		if len(args) == 0 {
			return nil
		}
		args = args[1:]
	}

	i := 0
	switch w.skip {
	case skipAssignments:
		for i < len(args) && isEnvAssignment(args[i]) {
			i++
		}
	}

	for i < len(args) {
		tok := args[i]
		if len(tok) > 0 && tok[0] == '-' {
			if w.valueFlags[tok] {
				i += 2
				continue
			}
			i++
			continue
		}
		break
	}

	if w.skip == skipPositional1 {
		if i >= len(args) {
			return nil
		}
		i++ // skip the positional value (e.g. timeout's DURATION)
	}

	if i >= len(args) {
		return nil
	}

	name := args[i]
	inner := &ast.SimpleCommand{
		Name:          &name,
		Argv:          append([]string{}, args[i+1:]...),
		Substitutions: cmd.Substitutions,
		RawText:       cmd.RawText,
	}
	return inner
}

// UnwrapChain fully unwinds a chain of transparent wrappers starting at cmd,
// returning every inner command discovered along the way (outer-to-inner
// order), bounded by MaxUnwrapDepth. The returned slice does not include cmd
// itself.
func UnwrapChain(cmd *ast.SimpleCommand) []*ast.SimpleCommand {
	var out []*ast.SimpleCommand
	cur := cmd
	for depth := 0; depth < MaxUnwrapDepth; depth++ {
		inner := unwrapOnce(cur)
		if inner == nil {
			break
		}
		out = append(out, inner)
		cur = inner
	}
	return out
}

// Basename returns the trailing path component of a command name, matching
// spec §4.2's normalization rule: /usr/bin/rm and rm are the same command for
// rule/allowlist/wrapper matching purposes.
func Basename(name string) string {
	last := -1
	for i, r := range name {
		if r == '/' {
			last = i
		}
	}
	if last == -1 {
		return name
	}
	return name[last+1:]
}
