package cmd

import (
	"github.com/spf13/cobra"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "lineflow",
	Short: "Assembly line balancing and throughput simulation",
	Long: `lineflow balances a paced assembly line, computes its achievable
throughput under operating constraints, and simulates a discrete production
schedule for a leveled model mix.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }
