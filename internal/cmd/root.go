package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"jordanella.com/overlay-capture/internal/config"
	"jordanella.com/overlay-capture/internal/imaging"
	"jordanella.com/overlay-capture/internal/ocr"
	"jordanella.com/overlay-capture/internal/store"
)

// Runtime option keys. Each is settable by flag or OVERLAY_CAPTURE_* env var.
const (
	keyConfigDir    = "config_dir"
	keyCacheDir     = "cache_dir"
	keySettings     = "settings"
	keyMaxDimension = "max_dimension"
	keyMaxFiles     = "max_files"
	keyOCRBinary    = "ocr.binary"
	keyOCRLanguages = "ocr.languages"
	keyOCRMaxDim    = "ocr.max_dimension"
	keyJournal      = "journal"
	keyTrace        = "trace"
	keyLogLevel     = "log.level"
	keyLogFormat    = "log.format"
	keyOutput       = "output"
)

var rootCmd = &cobra.Command{
	Use:   "overlay-capture",
	Short: "Capture the active window or screen for the overlay copilot",
	Long: `overlay-capture grabs the active window (or the whole screen where window
capture is unavailable), stores a bounded PNG under the cache directory and
can extract text from it with Tesseract.

Captures are refused while tools.capture_screen_text_enabled is false in the
overlay settings document.`,
	SilenceUsage: true,
}

// Version is stamped into trace resources.
var Version = "dev"

// Execute runs the root command with ctx
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.String("config-dir", "", "settings directory (default is the platform config dir)")
	flags.String("cache-dir", "", "cache directory holding captures/ and the journal (default is the platform cache dir)")
	flags.String("settings", "", "settings document, .json or .ini (default is <config-dir>/config.json)")
	flags.Int("max-dimension", imaging.MaxImageDimension, "longest edge of persisted images")
	flags.Int("max-files", store.MaxCaptureFiles, "number of captures retained on disk")
	flags.String("ocr-binary", "tesseract", "tesseract executable")
	flags.String("ocr-languages", "eng", "comma-separated tesseract language codes")
	flags.Int("ocr-max-dimension", ocr.DefaultMaxDimension, "largest edge accepted for text recognition")
	flags.Bool("journal", true, "record captures in the SQLite journal")
	flags.Bool("trace", false, "print OpenTelemetry spans to stderr")
	flags.String("log-level", "warn", "log level (debug, info, warn, error)")
	flags.String("log-format", "text", "log format (text, json)")
	flags.StringP("output", "o", "json", "output format (json, yaml)")

	bindings := map[string]string{
		keyConfigDir:    "config-dir",
		keyCacheDir:     "cache-dir",
		keySettings:     "settings",
		keyMaxDimension: "max-dimension",
		keyMaxFiles:     "max-files",
		keyOCRBinary:    "ocr-binary",
		keyOCRLanguages: "ocr-languages",
		keyOCRMaxDim:    "ocr-max-dimension",
		keyJournal:      "journal",
		keyTrace:        "trace",
		keyLogLevel:     "log-level",
		keyLogFormat:    "log-format",
		keyOutput:       "output",
	}
	for key, flag := range bindings {
		_ = viper.BindPFlag(key, flags.Lookup(flag))
	}
}

func initConfig() {
	viper.SetDefault(keyMaxDimension, imaging.MaxImageDimension)
	viper.SetDefault(keyMaxFiles, store.MaxCaptureFiles)
	viper.SetDefault(keyOCRBinary, "tesseract")
	viper.SetDefault(keyOCRLanguages, "eng")
	viper.SetDefault(keyOCRMaxDim, ocr.DefaultMaxDimension)
	viper.SetDefault(keyJournal, true)
	viper.SetDefault(keyLogLevel, "warn")
	viper.SetDefault(keyLogFormat, "text")
	viper.SetDefault(keyOutput, "json")

	viper.SetEnvPrefix("OVERLAY_CAPTURE")
	// e.g. OVERLAY_CAPTURE_OCR_BINARY for ocr.binary
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

// resolveDirs applies --config-dir / --cache-dir over the platform defaults.
func resolveDirs() (config.Dirs, error) {
	configDir := viper.GetString(keyConfigDir)
	cacheDir := viper.GetString(keyCacheDir)
	if configDir != "" && cacheDir != "" {
		return config.Dirs{Config: configDir, Cache: cacheDir}, nil
	}

	dirs, err := config.DefaultDirs()
	if err != nil {
		return config.Dirs{}, err
	}
	if configDir != "" {
		dirs.Config = configDir
	}
	if cacheDir != "" {
		dirs.Cache = cacheDir
	}
	return dirs, nil
}

func settingsPath(dirs config.Dirs) string {
	if p := viper.GetString(keySettings); p != "" {
		return p
	}
	return dirs.SettingsPath()
}
