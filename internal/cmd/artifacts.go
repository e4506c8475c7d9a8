package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"jordanella.com/overlay-capture/internal/store"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List retained capture files, newest first",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete the oldest capture files beyond the retention limit",
	Args:  cobra.NoArgs,
	RunE:  runPrune,
}

func init() {
	pruneCmd.Flags().Int("keep", 0, "files to keep (default is --max-files)")
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(pruneCmd)
}

type artifactEntry struct {
	Path     string    `json:"path" yaml:"path"`
	Size     int64     `json:"size" yaml:"size"`
	Modified time.Time `json:"modified" yaml:"modified"`
}

func runList(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	entries, err := a.store.List()
	if err != nil {
		return err
	}
	out := make([]artifactEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, artifactEntry{Path: e.Path, Size: e.Size, Modified: e.ModTime})
	}
	return render(cmd.OutOrStdout(), out)
}

type pruneReport struct {
	Dir     string   `json:"dir" yaml:"dir"`
	Kept    int      `json:"kept" yaml:"kept"`
	Evicted []string `json:"evicted" yaml:"evicted"`
}

func runPrune(cmd *cobra.Command, args []string) error {
	keep, _ := cmd.Flags().GetInt("keep")

	a, err := newApp(cmd.Context(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	var evicted []string
	if keep > 0 {
		evicted = store.Prune(a.store.Dir(), keep, a.logger)
	} else {
		keep = a.store.MaxFiles()
		evicted = a.store.Prune()
	}
	if evicted == nil {
		evicted = []string{}
	}

	if a.db != nil && len(evicted) > 0 {
		if _, err := a.db.MarkEvicted(evicted); err != nil {
			a.logger.Error("failed to record evictions", err)
		}
	}
	return render(cmd.OutOrStdout(), pruneReport{Dir: a.store.Dir(), Kept: keep, Evicted: evicted})
}
