package main

import (
	"fmt"

	"stylesense/internal/config"
	"stylesense/internal/report"
	"stylesense/internal/rules"

	"github.com/spf13/cobra"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the style rules and their configured state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		statuses, err := ruleStatuses(cfg, rules.Default())
		if err != nil {
			return err
		}
		return report.WriteRuleTable(cmd.OutOrStdout(), statuses, !noColor)
	},
}

var rulesExplainCmd = &cobra.Command{
	Use:   "explain NAME...",
	Short: "Show the documentation of one or more rules",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := rules.Default()
		all, err := ruleStatuses(cfg, reg)
		if err != nil {
			return err
		}
		byName := make(map[string]report.RuleStatus, len(all))
		for _, st := range all {
			byName[st.Rule.Name()] = st
		}

		var picked []report.RuleStatus
		for _, name := range args {
			if _, err := reg.Lookup(name); err != nil {
				return err
			}
			picked = append(picked, byName[name])
		}
		return report.RenderRuleDocs(cmd.OutOrStdout(), picked, 80, !noColor)
	},
}

func init() {
	rulesCmd.AddCommand(rulesExplainCmd)
}

// ruleStatuses resolves every registered rule against the config.
func ruleStatuses(c *config.Config, reg *rules.Registry) ([]report.RuleStatus, error) {
	var out []report.RuleStatus
	for _, rule := range reg.All() {
		st := report.RuleStatus{
			Rule:     rule,
			Enabled:  c.RuleEnabled(rule.Name(), rule.DefaultEnabled()),
			Severity: rule.DefaultSeverity(),
		}
		if name := c.Rules[rule.Name()].Severity; name != "" {
			sev, err := rules.ParseSeverity(name)
			if err != nil {
				return nil, fmt.Errorf("rule %s: %w", rule.Name(), err)
			}
			st.Severity = sev
		}
		out = append(out, st)
	}
	return out, nil
}
