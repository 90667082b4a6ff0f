package judge

import "strings"

// ParseResponse scans output line-wise for the first line beginning with
// ALLOW: or ASK: (spec §4.7). Any other content is treated as unparseable
// and fails closed to Ask.
func ParseResponse(output string) (Decision, string) {
	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "ALLOW:") {
			return Allow, trimmed
		}
		if strings.HasPrefix(trimmed, "ASK:") {
			return Ask, trimmed
		}
	}
	return Ask, "AI judge: unparseable response"
}
