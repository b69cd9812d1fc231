package main

import (
	"github.com/spf13/cobra"

	mcpAdapter "github.com/lcroft/stagehand/pkg/adapters/mcp"
	"github.com/lcroft/stagehand/pkg/guard"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server on stdio",
	Long: `Exposes the transition guard to agent tooling over the Model Context
Protocol: check_transition, check_dependency_cycle, and list_transitions.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return mcpAdapter.NewServer(guard.New()).ServeStdio()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
