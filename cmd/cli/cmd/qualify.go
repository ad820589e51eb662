package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fleet-admin/core/directory"
	"fleet-admin/core/qualification"
	"fleet-admin/core/tier"
)

// qualifyCmd evaluates an operator snapshot from a JSON file
var qualifyCmd = &cobra.Command{
	Use:   "qualify <snapshot.json>",
	Short: "Evaluate tier qualification for an operator snapshot",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		data, err := os.ReadFile(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading snapshot: %v\n", err)
			os.Exit(1)
		}

		var snap directory.OperatorSnapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing snapshot: %v\n", err)
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

		result, err := qualification.NewEvaluator(policy).Evaluate(&snap)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Evaluation failed: %v\n", err)
			os.Exit(1)
		}

		out, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(out))
	},
}
