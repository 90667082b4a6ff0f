package auditlog

import (
	"os"
	"path/filepath"
)

// DefaultPath returns the audit log destination spec §6.5 implies:
// alongside the user configuration overlay, under the same XDG/HOME
// resolution internal/policyconf uses for longline.yaml.
func DefaultPath() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "longline", "audit.jsonl")
}
