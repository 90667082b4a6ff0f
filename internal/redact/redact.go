// Package redact strips secret-shaped substrings out of text before it
// reaches the audit log, so a blocked (or allowed) command containing a
// pasted credential never lands in the log sink verbatim.
package redact

import "regexp"

const placeholder = "[REDACTED]"

// patterns is checked in order against the whole input; every match is
// replaced independently, so a line can have several different kinds of
// secret redacted out of it.
var patterns = []*regexp.Regexp{
	// Cloud provider keys
	regexp.MustCompile(`(?i)(aws_access_key_id|aws_secret_access_key|aws_session_token)\s*[=:]\s*['"]?[A-Za-z0-9/+=]{20,}['"]?`),
	regexp.MustCompile(`AKIA[0-9A-Z]{16}`),

	// Source-forge / VCS tokens
	regexp.MustCompile(`(?i)(github_token|gh_token|github_pat)\s*[=:]\s*['"]?[A-Za-z0-9_-]{30,}['"]?`),
	regexp.MustCompile(`gh[pousr]_[A-Za-z0-9]{36}`),

	// Generic key=value / key: value secret assignments
	regexp.MustCompile(`(?i)(api_key|apikey|api-key|secret_key|secretkey|secret-key|access_token|auth_token|password|passwd|pwd|secret)\s*[=:]\s*['"]?[^\s'"]{8,}['"]?`),

	// PEM private key headers
	regexp.MustCompile(`-----BEGIN (RSA |EC |DSA |OPENSSH |PGP )?PRIVATE KEY-----`),

	// Bearer tokens and HTTP basic-auth userinfo
	regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9_-]{20,}`),
	regexp.MustCompile(`https?://[^:/\s]+:[^@/\s]+@`),

	// Slack and Stripe
	regexp.MustCompile(`xox[baprs]-[0-9]{10,13}-[0-9]{10,13}[a-zA-Z0-9-]*`),
	regexp.MustCompile(`[sr]k_live_[0-9a-zA-Z]{24}`),
}

// String returns input with every recognized secret pattern replaced by a
// fixed placeholder.
func String(input string) string {
	out := input
	for _, p := range patterns {
		out = p.ReplaceAllString(out, placeholder)
	}
	return out
}

// Args redacts each element of argv independently, preserving argument
// boundaries.
func Args(argv []string) []string {
	out := make([]string, len(argv))
	for i, a := range argv {
		out[i] = String(a)
	}
	return out
}
