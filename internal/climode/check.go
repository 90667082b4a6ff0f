package climode

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gzhole/longline/internal/diag"
	"github.com/gzhole/longline/internal/policy"
	"github.com/gzhole/longline/internal/policyconf"
	"github.com/gzhole/longline/internal/shparse"
)

var checkFilter string

var checkCmd = &cobra.Command{
	Use:   "check [FILE]",
	Short: "Evaluate one command per line and print the resulting decision table",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().StringVarP(&checkFilter, "filter", "f", "", "show only: allow, ask, deny")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	opts, _ := loadOptions()
	cwd := opts.Dir

	var in io.Reader = cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}
		defer f.Close()
		in = f
	}

	var want *policyconf.Decision
	if checkFilter != "" {
		d, err := policyconf.ParseDecision(checkFilter)
		if err != nil {
			return err
		}
		want = &d
	}

	var rows []diag.CheckRow
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		stmt := shparse.Parse(line)
		result := policy.Evaluate(cfg, stmt, cwd)
		if want != nil && result.Decision != *want {
			continue
		}
		rows = append(rows, diag.CheckRow{
			Command:  line,
			Decision: result.Decision,
			Label:    checkLabel(result),
		})
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	diag.WriteCheckTable(cmd.OutOrStdout(), rows)
	return nil
}

func checkLabel(result policy.Result) string {
	if result.MatchedRuleID != "" {
		return result.MatchedRuleID
	}
	switch result.Decision {
	case policyconf.Allow:
		return "(allowlist)"
	default:
		return "(default)"
	}
}
