package judge

import "github.com/gzhole/longline/internal/ast"

// MaxExtractedCodeBytes bounds every form of code extraction (spec §4.7
// path-safety paragraph).
const MaxExtractedCodeBytes = 32 * 1024

// ExtractedCode is the code and language handed to the judge prompt.
type ExtractedCode struct {
	Language string
	Code     string
	Context  string
}

// tokensFromSimpleCommand returns [basename(name), argv...], or nil for a
// bare assignment with no command name.
func tokensFromSimpleCommand(cmd *ast.SimpleCommand) []string {
	if cmd == nil || !cmd.HasName() {
		return nil
	}
	out := make([]string, 0, len(cmd.Argv)+1)
	out = append(out, basename(cmd.NameOrEmpty()))
	out = append(out, cmd.Argv...)
	return out
}

func basename(name string) string {
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

// unwrapRunnerChain peels off leading package-runner wrappers (uv run,
// poetry run, ...) up to 4 times, returning the tokens of the innermost
// delegated invocation.
func unwrapRunnerChain(tokens []string, runners []string) []string {
	cur := tokens
	for i := 0; i < 4; i++ {
		next, ok := unwrapRunnerOnce(cur, runners)
		if !ok {
			break
		}
		cur = next
	}
	return cur
}

func unwrapRunnerOnce(tokens []string, runners []string) ([]string, bool) {
	if len(tokens) == 0 {
		return nil, false
	}
	name := tokens[0]
	isRunner := false
	for _, r := range runners {
		if r == name {
			isRunner = true
			break
		}
	}
	if !isRunner {
		return nil, false
	}
	runPos := -1
	for i, t := range tokens {
		if t == "run" {
			runPos = i
			break
		}
	}
	if runPos == -1 {
		return nil, false
	}
	start := runPos + 1
	if start < len(tokens) && tokens[start] == "--" {
		start++
	}
	if start >= len(tokens) {
		return nil, false
	}
	out := append([]string{}, tokens[start:]...)
	out[0] = basename(out[0])
	return out, true
}

// commandNameMatches reports whether actual names the same interpreter as
// expected, tolerating a trailing version suffix (python3, python3.12, ...)
// for python specifically.
func commandNameMatches(expected, actual string) bool {
	if expected == actual {
		return true
	}
	if expected != "python" && expected != "python3" {
		return false
	}
	rest, ok := cutPrefix(actual, expected)
	if !ok || rest == "" {
		return false
	}
	for _, r := range rest {
		if !(r >= '0' && r <= '9') && r != '.' {
			return false
		}
	}
	return true
}

func cutPrefix(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || s[:len(prefix)] != prefix {
		return "", false
	}
	return s[len(prefix):], true
}

func extractEchoOutput(argv []string) (string, bool) {
	i := 0
	for i < len(argv) && (argv[i] == "-n" || argv[i] == "-e" || argv[i] == "-E") {
		i++
	}
	rest := argv[i:]
	if len(rest) == 0 {
		return "", true
	}
	out := rest[0]
	for _, tok := range rest[1:] {
		out += " " + tok
	}
	return out, true
}

func extractPrintfOutput(argv []string) (string, bool) {
	if len(argv) == 0 {
		return "", true
	}
	if argv[0] == "-v" {
		return "", false
	}
	if len(argv) == 1 {
		return argv[0], true
	}
	if argv[0] == "%s" && len(argv) == 2 {
		return argv[1], true
	}
	return "", false
}

func extractSingleCatPath(argv []string) (string, bool) {
	if len(argv) != 1 {
		return "", false
	}
	if len(argv[0]) > 0 && argv[0][0] == '-' {
		return "", false
	}
	return argv[0], true
}
