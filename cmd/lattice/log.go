package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var logCmd = &cobra.Command{
	Use:   "log <doc>",
	Short: "Show the commits of a document",
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

		commits, err := b.store.Load(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(commits) == 0 {
			fmt.Fprintf(out, "%s has no commits\n", args[0])
			return nil
		}
		for i := len(commits) - 1; i >= 0; i-- {
			c := commits[i]
			fmt.Fprintf(out, "v%d %s %s (%d changes) %s\n",
				c.Version, c.ID, c.CreatedAt.Format(time.RFC3339), len(c.Changes), c.Message)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logCmd)
}
