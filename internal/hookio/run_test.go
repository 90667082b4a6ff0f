package hookio

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gzhole/longline/internal/policyconf"
)

func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0644)
}

func isolatedLoadOpts(t *testing.T) policyconf.LoadOptions {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	return policyconf.LoadOptions{Dir: dir}
}

func runHook(t *testing.T, body string, opts Options) (int, response) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Run(context.Background(), strings.NewReader(body), &stdout, &stderr, opts)
	var resp response
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		t.Fatalf("response not valid JSON: %v (%s)", err, stdout.String())
	}
	return code, resp
}

func TestRunPassesThroughNonShellTool(t *testing.T) {
	opts := Options{LoadOpts: isolatedLoadOpts(t)}
	code, resp := runHook(t, `{"tool_name":"Read","tool_input":{"file_path":"/tmp/x"}}`, opts)
	if code != ExitOK {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if resp.HookSpecificOutput != nil {
		t.Errorf("expected bare pass-through {} for non-shell tool, got %+v", resp)
	}
}

func TestRunPassesThroughEmptyCommand(t *testing.T) {
	opts := Options{LoadOpts: isolatedLoadOpts(t)}
	code, resp := runHook(t, `{"tool_name":"Bash","tool_input":{"command":""}}`, opts)
	if code != ExitOK {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if resp.HookSpecificOutput != nil {
		t.Errorf("expected bare pass-through for empty command, got %+v", resp)
	}
}

func TestRunAsksOnMalformedJSON(t *testing.T) {
	opts := Options{LoadOpts: isolatedLoadOpts(t)}
	code, resp := runHook(t, `{not json`, opts)
	if code != ExitOK {
		t.Fatalf("malformed request must still exit 0, got %d", code)
	}
	if resp.HookSpecificOutput == nil || resp.HookSpecificOutput.PermissionDecision != "ask" {
		t.Errorf("expected ask decision for malformed request, got %+v", resp)
	}
}

func TestRunAllowsOrdinaryCommand(t *testing.T) {
	opts := Options{LoadOpts: isolatedLoadOpts(t)}
	code, resp := runHook(t, `{"tool_name":"Bash","tool_input":{"command":"ls -la"}}`, opts)
	if code != ExitOK {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if resp.HookSpecificOutput != nil {
		t.Errorf("expected bare pass-through allow for an ordinary command, got %+v", resp)
	}
}

func TestRunAsksOnUnrecognizedCommand(t *testing.T) {
	opts := Options{LoadOpts: isolatedLoadOpts(t)}
	// An unparseable shell construct collapses to a single Opaque leaf,
	// which always evaluates to ask (spec §7's parse-failure disposition).
	code, resp := runHook(t, `{"tool_name":"Bash","tool_input":{"command":"("}}`, opts)
	if code != ExitOK {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if resp.HookSpecificOutput == nil || resp.HookSpecificOutput.PermissionDecision != "ask" {
		t.Errorf("expected ask for an unparseable command, got %+v", resp)
	}
}

func TestRunExitsTwoOnConfigurationError(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)

	confDir := dir + "/longline"
	if err := writeFile(confDir+"/longline.yaml", "version: 1\nunknown_field: true\n"); err != nil {
		t.Fatalf("writeFile: %v", err)
	}

	opts := Options{LoadOpts: policyconf.LoadOptions{Dir: dir}}
	var stdout, stderr bytes.Buffer
	code := Run(context.Background(), strings.NewReader(`{"tool_name":"Bash","tool_input":{"command":"ls"}}`), &stdout, &stderr, opts)
	if code != ExitConfigError {
		t.Fatalf("expected exit %d on configuration error, got %d", ExitConfigError, code)
	}
	if stdout.Len() != 0 {
		t.Errorf("expected no hook response written on configuration error, got %q", stdout.String())
	}
	if stderr.Len() == 0 {
		t.Error("expected a stderr diagnostic on configuration error")
	}
}
