package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fleet-admin/core/tier"
)

// policyCmd groups policy subcommands
var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Inspect and validate tier policy files",
}

// policyValidateCmd validates a policy file without serving it
var policyValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a tier policy HCL file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		policy, err := tier.LoadFile(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Policy invalid: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Policy %s is valid\n", policy.Version)
		for _, t := range policy.Order() {
			th, _ := policy.Thresholds(t)
			rate, _ := policy.Rate(t)
			fmt.Printf("  %-7s rate=%s%%  score>=%.1f tenure>=%dmo payment>=%.1f%% utilization>=p%.0f\n",
				t, rate, th.MinScore, th.MinTenureMonths, th.MinPaymentConsistency, th.MinUtilizationPercentile)
		}
	},
}

// policyShowCmd prints the built-in policy table
var policyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the built-in tier policy",
	Run: func(cmd *cobra.Command, args []string) {
		policy := tier.Default()
		fmt.Printf("Built-in policy %s\n", policy.Version)
		for _, t := range policy.Order() {
			th, _ := policy.Thresholds(t)
			rate, _ := policy.Rate(t)
			fmt.Printf("  %-7s rate=%s%%  score>=%.1f tenure>=%dmo payment>=%.1f%% utilization>=p%.0f\n",
				t, rate, th.MinScore, th.MinTenureMonths, th.MinPaymentConsistency, th.MinUtilizationPercentile)
		}
	},
}

func init() {
	policyCmd.AddCommand(policyValidateCmd)
	policyCmd.AddCommand(policyShowCmd)
}
