package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jward/understory"
	"github.com/jward/understory/internal/config"
	"github.com/jward/understory/internal/profile"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect and configure the rule profile",
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known rules with their enabled state and severity",
	Args:  cobra.NoArgs,
	RunE:  runRulesList,
}

var rulesEnableCmd = &cobra.Command{
	Use:   "enable <rule-id>",
	Short: "Enable a rule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store *profile.Store) error {
			return store.SetEnabled(args[0], true)
		})
	},
}

var rulesDisableCmd = &cobra.Command{
	Use:   "disable <rule-id>",
	Short: "Disable a rule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store *profile.Store) error {
			return store.SetEnabled(args[0], false)
		})
	},
}

var rulesSeverityCmd = &cobra.Command{
	Use:   "severity <rule-id> <hint|info|warning|error>",
	Short: "Override a rule's severity",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, ok := understory.ParseSeverity(args[1]); !ok {
			return fmt.Errorf("unknown severity %q", args[1])
		}
		return withStore(func(store *profile.Store) error {
			return store.SetSeverity(args[0], args[1])
		})
	},
}

var rulesSuppressCmd = &cobra.Command{
	Use:   "suppress <rule-id> <unit-name>",
	Short: "Silence a rule for one unit",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store *profile.Store) error {
			return store.AddSuppression(args[0], args[1])
		})
	},
}

func init() {
	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesEnableCmd)
	rulesCmd.AddCommand(rulesDisableCmd)
	rulesCmd.AddCommand(rulesSeverityCmd)
	rulesCmd.AddCommand(rulesSuppressCmd)
}

func withStore(fn func(*profile.Store) error) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func runRulesList(cmd *cobra.Command, args []string) error {
	return withStore(func(store *profile.Store) error {
		recs, err := store.ListRules()
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tENABLED\tSEVERITY")
		for _, r := range recs {
			fmt.Fprintf(tw, "%s\t%s\t%t\t%s\n", r.ID, r.DisplayName, r.Enabled, colorSeverity(r.Severity))
		}
		return tw.Flush()
	})
}
