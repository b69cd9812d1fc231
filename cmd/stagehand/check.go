package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lcroft/stagehand/pkg/domain"
	"github.com/lcroft/stagehand/pkg/guard"
)

var checkCmd = &cobra.Command{
	Use:   "check <domain> <from> <to>",
	Short: "Check whether a transition is legal",
	Long: `One-shot check of a transition against the domain's table. Exits 1 on a
rejection. Checklist gates cannot be evaluated offline; when the
destination is gated the gate is reported alongside the verdict.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		d := domain.Domain(args[0])
		from, to := args[1], args[2]

		if err := domain.Assert(d, from, to, "check"); err != nil {
			return err
		}

		verdict := fmt.Sprintf("%s: %s -> %s is legal", d, from, to)
		if kind, ok := guard.New().Gate(d, to); ok {
			verdict += fmt.Sprintf(" (requires a completed %s checklist)", kind)
		}
		if from == to {
			verdict = fmt.Sprintf("%s: re-asserting %s is a no-op", d, to)
		}
		fmt.Println(verdict)
		return nil
	},
}

var domainsCmd = &cobra.Command{
	Use:   "domains",
	Short: "List the known domains",
	Run: func(cmd *cobra.Command, args []string) {
		names := make([]string, 0, len(domain.Domains()))
		for _, d := range domain.Domains() {
			names = append(names, string(d))
		}
		fmt.Println(strings.Join(names, "\n"))
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(domainsCmd)
}
