package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/voltspan/feederflow/pkg/history"
	"github.com/voltspan/feederflow/pkg/storage"
)

var revisionsStore string

var revisionsCmd = &cobra.Command{
	Use:   "revisions",
	Short: "Walk network file edits back and forth",
	Long: `Keeps a revision stack for network files so edits can be undone and
redone. The stack lives in a local directory or an s3:// bucket.

Example:
  feederflow revisions push grid.yaml
  feederflow revisions undo
  feederflow revisions list`,
}

var revisionsPushCmd = &cobra.Command{
	Use:   "push [network file]",
	Short: "Record the current file as a new revision",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store := openRevisions(cmd.Context())

		content, err := os.ReadFile(args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		info, err := store.Push(cmd.Context(), args[0], content)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("[SUCCESS] Revision %d recorded (%d bytes).\n", info.Seq, info.Size)
	},
}

var revisionsUndoCmd = &cobra.Command{
	Use:   "undo",
	Short: "Restore the previous revision",
	Run: func(cmd *cobra.Command, args []string) {
		restoreRevision(cmd, false)
	},
}

var revisionsRedoCmd = &cobra.Command{
	Use:   "redo",
	Short: "Restore the next revision",
	Run: func(cmd *cobra.Command, args []string) {
		restoreRevision(cmd, true)
	},
}

var revisionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored revisions",
	Run: func(cmd *cobra.Command, args []string) {
		store := openRevisions(cmd.Context())

		infos, cursor, err := store.List(cmd.Context())
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		if len(infos) == 0 {
			fmt.Println("No revisions stored.")
			return
		}

		fmt.Printf("  %3s %-20s %-32s %8s\n", "SEQ", "TIME", "FILE", "BYTES")
		for i, info := range infos {
			mark := " "
			if i == cursor {
				mark = "*"
			}
			fmt.Printf("%s %3d %-20s %-32s %8d\n", mark, info.Seq,
				time.Unix(info.Timestamp, 0).Format("2006-01-02 15:04:05"),
				info.Path, info.Size)
		}
		fmt.Println("\n* revision the working file currently matches")
	},
}

// restoreRevision moves the cursor and writes the stored content back
// over the file it came from.
func restoreRevision(cmd *cobra.Command, forward bool) {
	store := openRevisions(cmd.Context())

	var (
		content []byte
		info    history.RevisionInfo
		err     error
	)
	if forward {
		content, info, err = store.Redo(cmd.Context())
	} else {
		content, info, err = store.Undo(cmd.Context())
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(info.Path, content, 0o644); err != nil {
		fmt.Printf("Error restoring %s: %v\n", info.Path, err)
		os.Exit(1)
	}
	fmt.Printf("[SUCCESS] %s restored to revision %d.\n", info.Path, info.Seq)
}

func openRevisions(ctx context.Context) *history.RevisionStore {
	store, prefix, err := storage.Open(ctx, revisionsStore)
	if err != nil {
		fmt.Printf("Error opening revision store: %v\n", err)
		os.Exit(1)
	}
	return history.NewRevisionStore(store, prefix)
}

func init() {
	rootCmd.AddCommand(revisionsCmd)
	revisionsCmd.AddCommand(revisionsPushCmd, revisionsUndoCmd, revisionsRedoCmd, revisionsListCmd)
	revisionsCmd.PersistentFlags().StringVar(&revisionsStore, "store", ".feederflow", "Revision store: directory or s3:// URL")
}
