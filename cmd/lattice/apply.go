package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/pkg/history"
	"github.com/spf13/cobra"
)

var applyCmd = &cobra.Command{
	Use:   "apply <doc> <changes.json|->",
	Short: "Apply and commit a change list",
	Long: `Reads a JSON change list ([{"cmd": "add_state", "state_name": "X"}, ...]),
applies it atomically to the latest version of the document and commits it.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		docID, path := args[0], args[1]
		changes, err := readChanges(cmd.InOrStdin(), path)
		if err != nil {
			return err
		}

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

		err = mgr.WithEditor(ctx, docID, func(ctx context.Context, ed *lattice.Editor) error {
			return ed.ApplyDescriptors(changes)
		})
		if err != nil {
			return err
		}
		if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
			return mgr.WithEditor(ctx, docID, func(ctx context.Context, ed *lattice.Editor) error {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(ed.Diff())
			})
		}

		message, _ := cmd.Flags().GetString("message")
		commit, err := mgr.Commit(ctx, docID, message)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: committed version %d (%s)\n", docID, commit.Version, commit.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(applyCmd)
	applyCmd.Flags().StringP("message", "m", "", "Commit message")
	applyCmd.Flags().Bool("dry-run", false, "Print the resulting diff without committing")
}

func readChanges(stdin io.Reader, path string) ([]history.Descriptor, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read change list: %w", err)
	}

	var changes []history.Descriptor
	if err := json.Unmarshal(data, &changes); err != nil {
		return nil, fmt.Errorf("failed to parse change list: %w", err)
	}
	return changes, nil
}
