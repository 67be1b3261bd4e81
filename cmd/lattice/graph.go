package main

import (
	"context"
	"fmt"

	"github.com/aretw0/lattice"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <doc>",
	Short: "Export the graph visualization",
	Long:  `Outputs a Mermaid diagram (graph TD) of the document. States with analyzer warnings are flagged.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		b, err := openBackends(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer b.Close()

		current, _ := cmd.Flags().GetString("current")
		return newManager(cfg, b, logger, nil).WithEditor(cmd.Context(), args[0], func(ctx context.Context, ed *lattice.Editor) error {
			fmt.Fprint(cmd.OutOrStdout(), ed.Mermaid(current))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("current", "", "State to highlight")
}
