package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"fleet-admin/core/impact"
	"fleet-admin/core/tier"
	"fleet-admin/internal/config"
)

// impactCmd previews the financial impact of a tier change
var impactCmd = &cobra.Command{
	Use:   "impact <from> <to> <commission-base>",
	Short: "Estimate the financial impact of a tier change",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		from, err := tier.Parse(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid from tier: %v\n", err)
			os.Exit(1)
		}
		to, err := tier.Parse(args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid to tier: %v\n", err)
			os.Exit(1)
		}
		base, err := decimal.NewFromString(args[2])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid commission base: %v\n", err)
			os.Exit(1)
		}

		policy := tier.Default()
		if path := policyPath(); path != "" {
			policy, err = tier.LoadFile(path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error loading policy: %v\n", err)
				os.Exit(1)
			}
		}

		result, err := impact.NewCalculator(policy).Estimate(from, to, base)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Estimate failed: %v\n", err)
			os.Exit(1)
		}

		out, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(out))
	},
}

// policyPath returns the configured policy file, if any
func policyPath() string {
	return config.Get().Policy.Path
}
