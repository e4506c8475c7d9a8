package cmd

import (
	"github.com/spf13/cobra"

	"jordanella.com/overlay-capture/internal/errs"
	"jordanella.com/overlay-capture/internal/gate"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Report what this machine can capture and where data lives",
	Args:  cobra.NoArgs,
	RunE:  runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

type doctorReport struct {
	SettingsPath   string `json:"settings_path" yaml:"settings_path"`
	CaptureEnabled bool   `json:"capture_enabled" yaml:"capture_enabled"`
	WindowCapture  bool   `json:"window_capture" yaml:"window_capture"`
	ScreenCapture  bool   `json:"screen_capture" yaml:"screen_capture"`
	TextEngine     string `json:"text_engine" yaml:"text_engine"`
	TextMaxDim     int    `json:"text_max_dimension" yaml:"text_max_dimension"`
	CapturesDir    string `json:"captures_dir" yaml:"captures_dir"`
	MaxFiles       int    `json:"max_files" yaml:"max_files"`
	JournalPath    string `json:"journal_path,omitempty" yaml:"journal_path,omitempty"`
	JournalVersion int    `json:"journal_version,omitempty" yaml:"journal_version,omitempty"`
}

// availability is implemented by engines that can be probed without running.
type availability interface {
	Available() error
}

func runDoctor(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	caps := a.provider.Capabilities()
	report := doctorReport{
		SettingsPath:   a.settings.Path(),
		CaptureEnabled: gate.New(a.settings, a.logger).Enabled(),
		WindowCapture:  caps.Window,
		ScreenCapture:  caps.Screen,
		TextEngine:     "available",
		TextMaxDim:     a.recognizer.MaxDimension(),
		CapturesDir:    a.store.Dir(),
		MaxFiles:       a.store.MaxFiles(),
	}
	if probe, ok := a.recognizer.(availability); ok {
		if err := probe.Available(); err != nil {
			report.TextEngine = errs.Message(err)
		}
	} else {
		report.TextEngine = "unsupported"
	}
	if a.db != nil {
		report.JournalPath = a.db.Path()
		if v, err := a.db.GetVersion(); err == nil {
			report.JournalVersion = v
		}
	}
	return render(cmd.OutOrStdout(), report)
}
