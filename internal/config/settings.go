// Package config reads and writes the overlay settings document and resolves
// the per-application config and cache directories.
//
// The document is shared with the preferences UI, so its shape mirrors what
// that UI writes. Only Tools.CaptureToolEnabled matters to the capture core.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Settings is the persisted overlay configuration document.
type Settings struct {
	Corner     string     `json:"corner" yaml:"corner" mapstructure:"corner"`
	Keybinds   Keybinds   `json:"keybinds" yaml:"keybinds" mapstructure:"keybinds"`
	Appearance Appearance `json:"appearance" yaml:"appearance" mapstructure:"appearance"`
	Tools      Tools      `json:"tools" yaml:"tools" mapstructure:"tools"`
}

type Keybinds struct {
	ToggleOverlay string `json:"toggle_overlay" yaml:"toggle_overlay" mapstructure:"toggle_overlay"`
	FocusOverlay  string `json:"focus_overlay" yaml:"focus_overlay" mapstructure:"focus_overlay"`
}

type Appearance struct {
	PanelOpacity float64 `json:"panel_opacity" yaml:"panel_opacity" mapstructure:"panel_opacity"`
	ShowThinking bool    `json:"show_thinking" yaml:"show_thinking" mapstructure:"show_thinking"`
}

// Tools holds the per-tool safety switches.
type Tools struct {
	// CaptureToolEnabled gates both screen capture operations.
	CaptureToolEnabled bool `json:"capture_screen_text_enabled" yaml:"capture_screen_text_enabled" mapstructure:"capture_screen_text_enabled"`
}

// Setting keys, dotted the way viper addresses nested values.
const (
	KeyCorner             = "corner"
	KeyToggleOverlay      = "keybinds.toggle_overlay"
	KeyFocusOverlay       = "keybinds.focus_overlay"
	KeyPanelOpacity       = "appearance.panel_opacity"
	KeyShowThinking       = "appearance.show_thinking"
	KeyCaptureToolEnabled = "tools.capture_screen_text_enabled"
)

// Defaults returns the settings used when no document exists yet.
func Defaults() Settings {
	return Settings{
		Corner: "top-right",
		Keybinds: Keybinds{
			ToggleOverlay: "Ctrl+Space",
			FocusOverlay:  "Ctrl+Shift+Space",
		},
		Appearance: Appearance{
			PanelOpacity: 0.85,
			ShowThinking: true,
		},
		Tools: Tools{
			CaptureToolEnabled: true,
		},
	}
}

// Reader is the read side of the configuration collaborator.
type Reader interface {
	Read() (Settings, error)
}

// Store reads and writes the settings document.
type Store interface {
	Reader
	Write(Settings) error
	Path() string
}

// Open returns the store backend matching path's extension: ".ini" selects the
// INI backend, anything else the JSON backend.
func Open(path string) (Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("settings path must not be empty")
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ini":
		return NewINIStore(path), nil
	case ".json", "":
		return NewJSONStore(path), nil
	default:
		return nil, fmt.Errorf("unsupported settings format %q", filepath.Ext(path))
	}
}

// writeFileAtomic replaces path so concurrent readers never observe a
// half-written document.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp settings file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close settings: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}
