package climode

import (
	"github.com/spf13/cobra"

	"github.com/gzhole/longline/internal/diag"
	"github.com/gzhole/longline/internal/policyconf"
)

var (
	rulesFilter  string
	rulesLevel   string
	rulesGroupBy string
	rulesSource  string
	rulesTrust   string
	rulesVerbose bool
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the active rule set",
	RunE:  runRules,
}

func init() {
	rulesCmd.Flags().StringVarP(&rulesFilter, "filter", "f", "", "show only: allow, ask, deny")
	rulesCmd.Flags().StringVarP(&rulesLevel, "level", "l", "", "show only: critical, high, strict")
	rulesCmd.Flags().StringVarP(&rulesGroupBy, "group-by", "g", "", "group by: decision, level")
	rulesCmd.Flags().StringVarP(&rulesSource, "source", "s", "", "show only: built-in, global, project, runtime")
	rulesCmd.Flags().StringVarP(&rulesTrust, "trust", "t", "", "show allowlist entries only at: minimal, standard, full")
	rulesCmd.Flags().BoolVarP(&rulesVerbose, "verbose", "v", false, "show full matcher patterns and reasons")
	rootCmd.AddCommand(rulesCmd)
}

func runRules(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var wantDecision *policyconf.Decision
	if rulesFilter != "" {
		d, err := policyconf.ParseDecision(rulesFilter)
		if err != nil {
			return err
		}
		wantDecision = &d
	}
	var wantLevel *policyconf.SafetyLevel
	if rulesLevel != "" {
		l, err := policyconf.ParseSafetyLevel(rulesLevel)
		if err != nil {
			return err
		}
		wantLevel = &l
	}

	active := cfg.ActiveRules()
	filtered := make([]policyconf.Rule, 0, len(active))
	for _, r := range active {
		if wantDecision != nil && r.Decision != *wantDecision {
			continue
		}
		if wantLevel != nil && r.Level != *wantLevel {
			continue
		}
		if rulesSource != "" && string(r.Source) != rulesSource {
			continue
		}
		filtered = append(filtered, r)
	}

	out := cmd.OutOrStdout()
	diag.WriteRulesTable(out, filtered, rulesGroupBy, rulesVerbose)

	if wantDecision != nil && *wantDecision == policyconf.Allow {
		allowlist, err := filterAllowlist(cfg.Allowlists, rulesSource, rulesTrust)
		if err != nil {
			return err
		}
		diag.WriteAllowlistTable(out, allowlist)
	}

	return nil
}

func filterAllowlist(entries []policyconf.AllowlistEntry, source, trust string) ([]policyconf.AllowlistEntry, error) {
	var wantTrust *policyconf.TrustLevel
	if trust != "" {
		t, err := policyconf.ParseTrustLevel(trust)
		if err != nil {
			return nil, err
		}
		wantTrust = &t
	}
	out := make([]policyconf.AllowlistEntry, 0, len(entries))
	for _, e := range entries {
		if source != "" && string(e.Source) != source {
			continue
		}
		if wantTrust != nil && e.Trust != *wantTrust {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
