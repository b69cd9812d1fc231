package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lcroft/stagehand"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of stagehand",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("stagehand version %s\n", strings.TrimSpace(stagehand.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
