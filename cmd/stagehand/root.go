package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "stagehand",
	Short: "Stagehand is a transition guard for agency operations entities",
	Long: `Stagehand keeps the lifecycle rulebook of an agency back office in one
place: legal state changes per entity kind, checklist gates, dependency
cycle prevention, and automation event dedupe and throttling.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Path to the YAML configuration file")
}
