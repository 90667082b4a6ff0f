package diag

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/gzhole/longline/internal/policyconf"
)

func newTabWriter(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
}

// CheckRow is one evaluated line for the `check` subcommand's table.
type CheckRow struct {
	Command  string
	Decision policyconf.Decision
	Label    string // matched rule id, or a parenthesized fallback like "(allowlist)"
}

// WriteCheckTable renders rows as an aligned DECISION / RULE / COMMAND table.
func WriteCheckTable(out io.Writer, rows []CheckRow) {
	color := ColorEnabled(out)
	tw := newTabWriter(out)
	fmt.Fprintln(tw, "DECISION\tRULE\tCOMMAND")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", Paint(color, r.Decision, strings.ToUpper(r.Decision.String())), r.Label, r.Command)
	}
	tw.Flush()
}

// WriteRulesTable renders the active rule set as an ID / LEVEL / DECISION /
// SOURCE table (plus MATCH and REASON columns when verbose), optionally
// grouped by decision or level.
func WriteRulesTable(out io.Writer, rules []policyconf.Rule, groupBy string, verbose bool) {
	switch groupBy {
	case "decision":
		for _, d := range []policyconf.Decision{policyconf.Deny, policyconf.Ask, policyconf.Allow} {
			group := filterByDecision(rules, d)
			if len(group) == 0 {
				continue
			}
			fmt.Fprintf(out, "\n== %s ==\n", strings.ToUpper(d.String()))
			writeRuleRows(out, group, verbose)
		}
	case "level":
		for _, lvl := range []policyconf.SafetyLevel{policyconf.SafetyCritical, policyconf.SafetyHigh, policyconf.SafetyStrict} {
			group := filterByLevel(rules, lvl)
			if len(group) == 0 {
				continue
			}
			fmt.Fprintf(out, "\n== %s ==\n", strings.ToUpper(lvl.String()))
			writeRuleRows(out, group, verbose)
		}
	default:
		writeRuleRows(out, rules, verbose)
	}
}

func filterByDecision(rules []policyconf.Rule, d policyconf.Decision) []policyconf.Rule {
	var out []policyconf.Rule
	for _, r := range rules {
		if r.Decision == d {
			out = append(out, r)
		}
	}
	return out
}

func filterByLevel(rules []policyconf.Rule, lvl policyconf.SafetyLevel) []policyconf.Rule {
	var out []policyconf.Rule
	for _, r := range rules {
		if r.Level == lvl {
			out = append(out, r)
		}
	}
	return out
}

func writeRuleRows(out io.Writer, rules []policyconf.Rule, verbose bool) {
	color := ColorEnabled(out)
	tw := newTabWriter(out)
	if verbose {
		fmt.Fprintln(tw, "ID\tLEVEL\tDECISION\tSOURCE\tMATCH\tREASON")
	} else {
		fmt.Fprintln(tw, "ID\tLEVEL\tDECISION\tSOURCE")
	}
	for _, r := range rules {
		decision := Paint(color, r.Decision, r.Decision.String())
		if verbose {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", r.ID, r.Level, decision, r.Source, summarizeMatch(r.Match), r.Reason)
		} else {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.ID, r.Level, decision, r.Source)
		}
	}
	tw.Flush()
}

// summarizeMatch renders a one-line human description of a rule's matcher,
// for the verbose `rules` table.
func summarizeMatch(m policyconf.Match) string {
	switch m.Kind {
	case policyconf.MatchCommand:
		if m.Command == nil {
			return ""
		}
		return "command:" + summarizePred(m.Command.Name)
	case policyconf.MatchPipeline:
		if m.Pipeline == nil {
			return ""
		}
		parts := make([]string, len(m.Pipeline.Stages))
		for i, s := range m.Pipeline.Stages {
			parts[i] = summarizePred(s)
		}
		return "pipeline:" + strings.Join(parts, "|")
	case policyconf.MatchRedirect:
		if m.Redirect == nil {
			return ""
		}
		op := "*"
		if m.Redirect.Op != nil {
			op = *m.Redirect.Op
		}
		return "redirect:" + op
	default:
		return ""
	}
}

func summarizePred(p policyconf.StringPred) string {
	switch {
	case p.Glob != "":
		return p.Glob
	case p.StartsWith != "":
		return p.StartsWith + "*"
	case len(p.AnyOf) > 0:
		return strings.Join(p.AnyOf, ",")
	case len(p.AllOf) > 0:
		return strings.Join(p.AllOf, "+")
	case len(p.NoneOf) > 0:
		return "!(" + strings.Join(p.NoneOf, ",") + ")"
	default:
		return p.Literal
	}
}

// WriteAllowlistTable renders the merged allowlist as a TRUST / COMMAND /
// SOURCE table.
func WriteAllowlistTable(out io.Writer, entries []policyconf.AllowlistEntry) {
	tw := newTabWriter(out)
	fmt.Fprintln(tw, "TRUST\tCOMMAND\tSOURCE")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Trust, e.Pattern, e.Source)
	}
	tw.Flush()
}

// WriteFilesTable renders the configuration layers a process actually
// consulted, for the `files` subcommand (spec §6.2).
func WriteFilesTable(out io.Writer, layers []policyconf.LayerInfo) {
	tw := newTabWriter(out)
	fmt.Fprintln(tw, "SOURCE\tLOADED\tPATH")
	for _, l := range layers {
		loaded := "no"
		if l.Loaded {
			loaded = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", l.Source, loaded, l.Path)
	}
	tw.Flush()
}
