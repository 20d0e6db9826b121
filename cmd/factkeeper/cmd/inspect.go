package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/solatis/factkeeper/internal/ruleset"
	"github.com/solatis/factkeeper/internal/tree"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Report rules with dangling fact references or invalid fields",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			reports := ruleset.ValidateRuleSet(a.ws.Rules(), a.ws.Facts())
			out := cmd.OutOrStdout()
			if len(reports) == 0 {
				fmt.Fprintln(out, "all rules valid")
				return nil
			}
			for _, r := range reports {
				fmt.Fprintf(out, "%s (%s)\n", r.RuleName, r.RuleID)
				for _, msg := range r.Errors {
					fmt.Fprintf(out, "  - %s\n", msg)
				}
			}
			return fmt.Errorf("%w: %d rule(s) have problems", errValidation, len(reports))
		},
	}
}

func newFactsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "facts",
		Short: "List declared facts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			rules := a.ws.Rules()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tTYPE\tDEFAULT\tIN USE\tDESCRIPTION")
			for _, f := range a.ws.Facts() {
				def := "-"
				if f.DefaultValue != nil {
					def = fmt.Sprint(f.DefaultValue)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n", f.Name, f.Type, def, ruleset.FactInUse(rules, f.Name), f.Description)
			}
			return w.Flush()
		},
	}
}

func newRulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List rules in execution order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			list := a.ws.Rules()
			if byPriority, _ := cmd.Flags().GetBool("by-priority"); byPriority {
				list = ruleset.ByPriority(list)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "#\tNAME\tPRIORITY\tENABLED\tEVENT\tFACTS")
			for i, r := range list {
				fmt.Fprintf(w, "%d\t%s\t%d\t%t\t%s\t%v\n", i+1, r.Name, r.Priority, r.Enabled, r.Event.Type, tree.ReferencedFacts(r.Conditions))
			}
			return w.Flush()
		},
	}
	cmd.Flags().Bool("by-priority", false, "order by descending priority instead of execution order")
	return cmd
}
