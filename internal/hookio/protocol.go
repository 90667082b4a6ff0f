// Package hookio implements the PreToolUse hook protocol (spec §4.8, §6.1):
// read one JSON request from stdin, evaluate shell-tool commands against
// policy (and, when enabled, the AI judge), and write exactly one of the two
// permitted JSON response shapes to stdout.
package hookio

import "encoding/json"

// Request is the hook request object a host (Claude Code) writes to stdin
// before a Bash-shaped tool call.
type Request struct {
	ToolName  string    `json:"tool_name"`
	ToolInput ToolInput `json:"tool_input"`
	Cwd       string    `json:"cwd"`
	SessionID string    `json:"session_id"`
}

type ToolInput struct {
	Command  string `json:"command"`
	FilePath string `json:"file_path"`
}

// shellToolNames lists the tool_name values this adapter evaluates;
// anything else is passed through untouched (spec §4.8: "a non-shell tool
// call... is passed through unconditionally").
var shellToolNames = map[string]bool{
	"Bash": true,
}

func isShellTool(name string) bool {
	return shellToolNames[name]
}

// hookSpecificOutput carries the permission decision, matching the exact
// shape Claude Code's PreToolUse hook protocol expects.
type hookSpecificOutput struct {
	HookEventName            string `json:"hookEventName"`
	PermissionDecision       string `json:"permissionDecision"`
	PermissionDecisionReason string `json:"permissionDecisionReason"`
	AdditionalContext        string `json:"additionalContext,omitempty"`
}

type response struct {
	HookSpecificOutput *hookSpecificOutput `json:"hookSpecificOutput,omitempty"`
}

// passThrough is the empty-object response: allow, or "this hook has
// nothing to say about this tool call."
var passThrough = response{}

// marshalResponse serializes resp, falling back to the empty pass-through
// object if serialization itself fails (spec §4.8: "serialization failure
// falls back to {}").
func marshalResponse(resp response) []byte {
	data, err := json.Marshal(resp)
	if err != nil {
		data, _ = json.Marshal(passThrough)
	}
	return data
}

func allowResponse() []byte {
	return marshalResponse(passThrough)
}

// decisionResponse builds the hookSpecificOutput response for ask/deny
// (and allow, when the caller wants an explicit reason recorded rather than
// a bare pass-through). reason is prefixed "[<rule-id>] " when ruleID is
// non-empty, per spec §6.1.
func decisionResponse(decision, ruleID, reason string) []byte {
	prefixed := reason
	if ruleID != "" {
		prefixed = "[" + ruleID + "] " + reason
	}
	return marshalResponse(response{HookSpecificOutput: &hookSpecificOutput{
		HookEventName:            "PreToolUse",
		PermissionDecision:       decision,
		PermissionDecisionReason: prefixed,
	}})
}
