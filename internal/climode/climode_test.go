package climode

import (
	"bytes"
	"strings"
	"testing"
)

func resetGlobalFlags() {
	configPath = ""
	dirPath = ""
	safetyLevel = ""
	trustLevel = ""
	askOnDeny = false
	askAI = false
	askAILenient = false
	checkFilter = ""
	rulesFilter = ""
	rulesLevel = ""
	rulesGroupBy = ""
	rulesSource = ""
	rulesTrust = ""
	rulesVerbose = false
}

func isolatedEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	return dir
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetGlobalFlags()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCheckSubcommandFromStdin(t *testing.T) {
	dir := isolatedEnv(t)
	_ = dir

	resetGlobalFlags()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)

	in := strings.NewReader("ls -la\nrm -rf /\n")
	rootCmd.SetIn(in)
	rootCmd.SetArgs([]string{"check"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("check: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "ls -la") {
		t.Errorf("expected ls -la in output, got %q", got)
	}
	if !strings.Contains(got, "rm -rf /") {
		t.Errorf("expected rm -rf / in output, got %q", got)
	}
}

func TestRulesSubcommandListsBuiltins(t *testing.T) {
	isolatedEnv(t)
	out, err := runCLI(t, "rules")
	if err != nil {
		t.Fatalf("rules: %v", err)
	}
	if !strings.Contains(out, "ID") {
		t.Errorf("expected a rules table header, got %q", out)
	}
}

func TestFilesSubcommandListsLayers(t *testing.T) {
	isolatedEnv(t)
	out, err := runCLI(t, "files")
	if err != nil {
		t.Fatalf("files: %v", err)
	}
	if !strings.Contains(out, "SOURCE") {
		t.Errorf("expected a files table header, got %q", out)
	}
	if !strings.Contains(out, "rules/rules.yaml") {
		t.Errorf("expected the embedded manifest path listed, got %q", out)
	}
}

func TestInitSubcommandExtractsDefaults(t *testing.T) {
	isolatedEnv(t)
	out, err := runCLI(t, "init")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(out, "extracted default rules") {
		t.Errorf("expected an extraction confirmation, got %q", out)
	}
}
