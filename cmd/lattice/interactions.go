package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

var interactionsCmd = &cobra.Command{
	Use:   "interactions",
	Short: "Print the interaction catalog as JSON",
	Long: `Prints every interaction type documents are validated against, with the
input schema of each rule type. The output can be edited and loaded back through
the editor.interactions setting.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := setup(cmd)
		if err != nil {
			return err
		}
		reg, err := openInteractions(cfg)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(reg.Catalog())
	},
}

func init() {
	rootCmd.AddCommand(interactionsCmd)
}
