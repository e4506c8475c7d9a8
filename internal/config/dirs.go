package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// AppID names the per-user config and cache subdirectories.
const AppID = "overlay-copilot"

const (
	settingsFileName = "config.json"
	journalFileName  = "captures.db"
	capturesDirName  = "captures"
)

// Dirs locates the application's per-user directories.
type Dirs struct {
	Config string
	Cache  string
}

// DefaultDirs resolves the platform config and cache directories for AppID.
func DefaultDirs() (Dirs, error) {
	configRoot, err := os.UserConfigDir()
	if err != nil {
		return Dirs{}, fmt.Errorf("resolve config dir: %w", err)
	}
	cacheRoot, err := os.UserCacheDir()
	if err != nil {
		return Dirs{}, fmt.Errorf("resolve cache dir: %w", err)
	}
	return Dirs{
		Config: filepath.Join(configRoot, AppID),
		Cache:  filepath.Join(cacheRoot, AppID),
	}, nil
}

func (d Dirs) SettingsPath() string {
	return filepath.Join(d.Config, settingsFileName)
}

// CapturesDir is where persisted screenshots live.
func (d Dirs) CapturesDir() string {
	return filepath.Join(d.Cache, capturesDirName)
}

func (d Dirs) JournalPath() string {
	return filepath.Join(d.Cache, journalFileName)
}
