package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/pkg/analyzer"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [doc...]",
	Short: "Check documents for consistency",
	Long: `Loads each document with its committed changes, checks the graph integrity
and reports unreachable states and analyzer warnings. Without arguments every
document of the source is checked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		b, err := openBackends(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer b.Close()
		mgr := newManager(cfg, b, logger, nil)

		docs := args
		if len(docs) == 0 {
			if docs, err = mgr.List(ctx); err != nil {
				return err
			}
		}

		strict, _ := cmd.Flags().GetBool("strict")
		failed := 0
		for _, docID := range docs {
			err := mgr.WithEditor(ctx, docID, func(ctx context.Context, ed *lattice.Editor) error {
				return report(cmd, ed, strict)
			})
			if err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", docID, err)
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d documents failed validation", failed, len(docs))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Bool("strict", false, "Fail on any analyzer warning, not only critical ones")
}

// report prints the findings for one document. Critical warnings always fail it.
func report(cmd *cobra.Command, ed *lattice.Editor, strict bool) error {
	out := cmd.OutOrStdout()
	if err := ed.Validate(); err != nil {
		return err
	}

	for _, name := range ed.Unreachable() {
		fmt.Fprintf(out, "%s: state %q is unreachable\n", ed.DocID(), name)
	}

	all := ed.AllWarnings()
	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	sort.Strings(names)

	failing := 0
	for _, name := range names {
		for _, w := range all[name] {
			fmt.Fprintf(out, "%s: [%s] %s\n", ed.DocID(), w.Type, w.Message)
			if strict || w.Type == analyzer.Critical {
				failing++
			}
		}
	}
	if failing > 0 {
		return fmt.Errorf("%d failing warnings", failing)
	}
	fmt.Fprintf(out, "%s: valid (version %d)\n", ed.DocID(), ed.Version())
	return nil
}
