// Package judge implements the optional AI-judge adapter (spec §4.7): when
// the static policy would otherwise answer ask, and the leaf matches a
// recognized code-execution trigger, the extracted code is handed to an
// external judge process for a second opinion. The adapter can only ever
// soften ask into allow — it is never consulted for, and can never produce,
// deny (spec §8.1 invariant 7).
package judge

import "time"

// InterpreterTrigger names one interpreter family and the flag it accepts
// for inline code (python -c, node -e, ...).
type InterpreterTrigger struct {
	Names      []string
	InlineFlag string
}

// Config is the AI-judge adapter's own configuration, independent of
// internal/policyconf's rule/allowlist configuration.
type Config struct {
	// Command is the judge subprocess argv; the built prompt is appended as
	// its final argument.
	Command []string
	Timeout time.Duration
	Lenient bool

	Interpreters []InterpreterTrigger
	// Runners names transparent package-runner wrappers (uv run, poetry
	// run, ...) that precede the interpreter invocation they delegate to.
	Runners []string
}

// DefaultConfig returns the built-in trigger table (spec §4.7, §5).
func DefaultConfig() Config {
	return Config{
		Command: []string{"codex", "exec"},
		Timeout: 30 * time.Second,
		Interpreters: []InterpreterTrigger{
			{Names: []string{"python", "python3"}, InlineFlag: "-c"},
			{Names: []string{"node"}, InlineFlag: "-e"},
			{Names: []string{"ruby"}, InlineFlag: "-e"},
			{Names: []string{"perl"}, InlineFlag: "-e"},
		},
		Runners: []string{"uv", "poetry", "pipenv", "pdm", "rye"},
	}
}
