package diag

import (
	"bytes"
	"strings"
	"testing"

	"github.com/gzhole/longline/internal/policyconf"
)

func TestWriteCheckTableRendersHeaderAndRows(t *testing.T) {
	var buf bytes.Buffer
	WriteCheckTable(&buf, []CheckRow{
		{Command: "rm -rf /", Decision: policyconf.Deny, Label: "fs-destructive-root"},
		{Command: "ls -la", Decision: policyconf.Allow, Label: "(allowlist)"},
	})
	out := buf.String()
	if !strings.Contains(out, "DECISION") || !strings.Contains(out, "COMMAND") {
		t.Fatalf("expected a header row, got %q", out)
	}
	if !strings.Contains(out, "rm -rf /") || !strings.Contains(out, "ls -la") {
		t.Errorf("expected both commands rendered, got %q", out)
	}
}

func TestWriteRulesTableGroupsByDecision(t *testing.T) {
	rules := []policyconf.Rule{
		{ID: "deny-1", Decision: policyconf.Deny, Level: policyconf.SafetyCritical, Source: policyconf.SourceBuiltin},
		{ID: "ask-1", Decision: policyconf.Ask, Level: policyconf.SafetyHigh, Source: policyconf.SourceGlobal},
	}
	var buf bytes.Buffer
	WriteRulesTable(&buf, rules, "decision", false)
	out := buf.String()
	if !strings.Contains(out, "DENY") || !strings.Contains(out, "ASK") {
		t.Fatalf("expected group headers for both decisions, got %q", out)
	}
	if !strings.Contains(out, "deny-1") || !strings.Contains(out, "ask-1") {
		t.Errorf("expected both rule ids rendered, got %q", out)
	}
}

func TestWriteFilesTableMarksUnloadedLayers(t *testing.T) {
	var buf bytes.Buffer
	WriteFilesTable(&buf, []policyconf.LayerInfo{
		{Source: policyconf.SourceBuiltin, Path: "rules/rules.yaml", Loaded: true},
		{Source: policyconf.SourceGlobal, Path: "/home/u/.config/longline/longline.yaml", Loaded: false},
	})
	out := buf.String()
	if !strings.Contains(out, "yes") || !strings.Contains(out, "no") {
		t.Errorf("expected one loaded and one unloaded row, got %q", out)
	}
}

func TestColorEnabledFalseForNonFileWriter(t *testing.T) {
	var buf bytes.Buffer
	if ColorEnabled(&buf) {
		t.Error("expected color disabled for a non-*os.File writer")
	}
}
