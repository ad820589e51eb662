// Package cmd provides the CLI commands for fleet-admin.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fleet-admin/internal/config"
	"fleet-admin/internal/logging"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "fleet-admin",
	Short: "Operator commission tier administration",
	Long: `fleet-admin manages operator commission tiers for the ride-hailing
platform: qualification evaluation, transition gating, and financial
impact estimation.

Examples:
  fleet-admin policy validate ./tiers.hcl
  fleet-admin qualify ./operator-snapshot.json
  fleet-admin impact tier_1 tier_2 50000`,
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.fleet-admin.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddCommand(policyCmd)
	rootCmd.AddCommand(qualifyCmd)
	rootCmd.AddCommand(impactCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	if cfgFile != "" {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		config.Set(cfg)
	}

	cfg := config.Get()
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := logging.Initialize(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
	}
}

// versionCmd prints version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("fleet-admin version 1.0.0")
	},
}
