package judge

import (
	"strings"
	"testing"
)

func TestBuildPromptStrict(t *testing.T) {
	cfg := DefaultConfig()
	ec := ExtractedCode{Language: "python3", Code: "print(1)", Context: "Execution context: Django shell"}
	prompt := BuildPrompt(cfg, ec, "/home/user/project")

	for _, want := range []string{"python3", "print(1)", "/home/user/project", "Execution context", "ALLOW:", "ASK:"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("expected prompt to contain %q, got:\n%s", want, prompt)
		}
	}
}

func TestBuildPromptLenient(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Lenient = true
	ec := ExtractedCode{Language: "python3", Code: "print(1)"}
	prompt := BuildPrompt(cfg, ec, "/home/user/project")

	if !strings.Contains(prompt, "Mode: lenient") {
		t.Error("expected lenient prompt to declare its mode")
	}
	if !strings.Contains(prompt, "site-packages") {
		t.Error("expected lenient prompt to explicitly allow installed-package reads")
	}
}
