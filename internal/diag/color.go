// Package diag renders the decision tables the `check`, `rules`, and
// `files` CLI subcommands print (spec §6.2), grounded on
// original_source/src/output.rs's decision-to-color mapping and the
// teacher's term.IsTerminal precedent (internal/approval/approval.go),
// reimplemented with the standard library's text/tabwriter since no
// pack dependency offers table rendering.
package diag

import (
	"io"
	"os"

	"golang.org/x/term"

	"github.com/gzhole/longline/internal/policyconf"
)

// ansi holds the escape codes for one decision's display color.
type ansi struct {
	code, reset string
}

var (
	allowColor = ansi{"\x1b[32m", "\x1b[0m"} // green
	askColor   = ansi{"\x1b[33m", "\x1b[0m"} // yellow
	denyColor  = ansi{"\x1b[31m", "\x1b[0m"} // red
)

func colorFor(d policyconf.Decision) ansi {
	switch d {
	case policyconf.Allow:
		return allowColor
	case policyconf.Deny:
		return denyColor
	default:
		return askColor
	}
}

// ColorEnabled reports whether out should receive ANSI color codes: a real
// terminal, and NO_COLOR unset (spec §6.5: "NO_COLOR — disable ANSI color
// in diagnostic output").
func ColorEnabled(out io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// Paint wraps text in d's color when enabled is true, leaving it untouched
// otherwise.
func Paint(enabled bool, d policyconf.Decision, text string) string {
	if !enabled {
		return text
	}
	c := colorFor(d)
	return c.code + text + c.reset
}
