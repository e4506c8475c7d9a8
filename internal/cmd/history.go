package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"jordanella.com/overlay-capture/internal/database"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent capture requests from the journal",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().Int("limit", 20, "number of requests to show")
	historyCmd.Flags().Bool("reset", false, "clear the journal and compact it before reporting")
	rootCmd.AddCommand(historyCmd)
}

type historyEntry struct {
	RequestID   string     `json:"request_id" yaml:"request_id"`
	Kind        string     `json:"kind" yaml:"kind"`
	Status      string     `json:"status" yaml:"status"`
	Source      *string    `json:"source,omitempty" yaml:"source,omitempty"`
	AppName     *string    `json:"app_name,omitempty" yaml:"app_name,omitempty"`
	Width       *int       `json:"width,omitempty" yaml:"width,omitempty"`
	Height      *int       `json:"height,omitempty" yaml:"height,omitempty"`
	ScaleFactor *float64   `json:"scale_factor,omitempty" yaml:"scale_factor,omitempty"`
	FilePath    *string    `json:"file_path,omitempty" yaml:"file_path,omitempty"`
	ErrorKind   *string    `json:"error_kind,omitempty" yaml:"error_kind,omitempty"`
	Error       *string    `json:"error,omitempty" yaml:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at" yaml:"started_at"`
	DurationMs  *int64     `json:"duration_ms,omitempty" yaml:"duration_ms,omitempty"`
	EvictedAt   *time.Time `json:"evicted_at,omitempty" yaml:"evicted_at,omitempty"`
}

type historyStats struct {
	Total     int64            `json:"total" yaml:"total"`
	Completed int64            `json:"completed" yaml:"completed"`
	Failed    int64            `json:"failed" yaml:"failed"`
	Running   int64            `json:"running" yaml:"running"`
	Retained  int64            `json:"retained" yaml:"retained"`
	ByError   map[string]int64 `json:"by_error,omitempty" yaml:"by_error,omitempty"`
}

type historyReport struct {
	Stats    historyStats   `json:"stats" yaml:"stats"`
	Captures []historyEntry `json:"captures" yaml:"captures"`
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	reset, _ := cmd.Flags().GetBool("reset")

	a, err := newApp(cmd.Context(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()
	if a.db == nil {
		return errors.New("capture journal is disabled or unavailable")
	}
	if reset {
		if err := a.db.Reset(); err != nil {
			return fmt.Errorf("reset journal: %w", err)
		}
	}

	stats, err := a.db.GetCaptureStats()
	if err != nil {
		return err
	}
	records, err := a.db.RecentCaptures(limit)
	if err != nil {
		return err
	}

	report := historyReport{
		Stats: historyStats{
			Total:     stats.Total,
			Completed: stats.Completed,
			Failed:    stats.Failed,
			Running:   stats.Running,
			Retained:  stats.Retained,
			ByError:   stats.ByError,
		},
		Captures: make([]historyEntry, 0, len(records)),
	}
	for _, r := range records {
		report.Captures = append(report.Captures, toHistoryEntry(r))
	}
	return render(cmd.OutOrStdout(), report)
}

func toHistoryEntry(r *database.CaptureRecord) historyEntry {
	return historyEntry{
		RequestID:   r.RequestID,
		Kind:        r.Kind,
		Status:      r.Status,
		Source:      r.Source,
		AppName:     r.AppName,
		Width:       r.Width,
		Height:      r.Height,
		ScaleFactor: r.ScaleFactor,
		FilePath:    r.FilePath,
		ErrorKind:   r.ErrorKind,
		Error:       r.ErrorMessage,
		StartedAt:   r.StartedAt,
		DurationMs:  r.DurationMs,
		EvictedAt:   r.EvictedAt,
	}
}
