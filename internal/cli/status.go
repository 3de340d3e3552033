package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/devkit-labs/devkit/internal/status"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the sync state of managed files",
	Long: `Compare every file recorded in .devkit/sync.json with the project:
missing files, files edited since they were synced, and files written by an
older release of this binary.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	root, err := projectRoot()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	entries, err := status.Check(appFs, root, newStore(root), buildVersion)
	if err != nil {
		return fmt.Errorf("checking status: %w", err)
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "No files synced yet.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STATE\tPATH\tVERSION\tSYNCED")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.State, e.Path, e.Record.ToolkitVersion, e.Record.SyncedAt.Local().Format(time.DateTime))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	counts := status.Counts(entries)
	fmt.Fprintf(out, "\n%d files: %d ok, %d modified, %d outdated, %d missing\n", len(entries),
		counts[status.StateOK], counts[status.StateModified], counts[status.StateOutdated], counts[status.StateMissing])
	return nil
}
