package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lcroft/stagehand/internal/presentation/graph"
	"github.com/lcroft/stagehand/internal/presentation/tui"
	"github.com/lcroft/stagehand/pkg/domain"
	"github.com/lcroft/stagehand/pkg/guard"
)

var tablesCmd = &cobra.Command{
	Use:   "tables [domain]",
	Short: "Render transition tables",
	Long: `Renders the transition table of a domain (or all domains) as Markdown,
or as a Mermaid state diagram with --mermaid.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mermaid, _ := cmd.Flags().GetBool("mermaid")

		domains := domain.Domains()
		if len(args) == 1 {
			d := domain.Domain(args[0])
			if !d.Known() {
				return fmt.Errorf("unknown domain %q", args[0])
			}
			domains = []domain.Domain{d}
		}

		g := guard.New()
		if mermaid {
			for _, d := range domains {
				out, err := graph.GenerateMermaid(d, g)
				if err != nil {
					return err
				}
				fmt.Println(out)
			}
			return nil
		}

		render := tui.NewRenderer()
		for _, d := range domains {
			md, err := graph.GenerateMarkdown(d, g)
			if err != nil {
				return err
			}
			out, err := render(md)
			if err != nil {
				return err
			}
			fmt.Print(out)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tablesCmd)
	tablesCmd.Flags().Bool("mermaid", false, "Emit Mermaid stateDiagram-v2 instead of Markdown")
}
