// Command longline is a PreToolUse safety hook for AI coding agents: it
// evaluates shell commands against a layered rule and allowlist
// configuration and answers allow, ask, or deny.
package main

import (
	"os"

	"github.com/gzhole/longline/internal/climode"
)

func main() {
	os.Exit(climode.Execute())
}
