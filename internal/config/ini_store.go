package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"gopkg.in/ini.v1"
)

// INI section names. Keys inside each section match the JSON field names.
const (
	sectionGeneral    = "general"
	sectionKeybinds   = "keybinds"
	sectionAppearance = "appearance"
	sectionTools      = "tools"
)

// INIStore keeps settings in an INI file, one section per settings group.
type INIStore struct {
	path string
}

func NewINIStore(path string) *INIStore {
	return &INIStore{path: path}
}

func (s *INIStore) Path() string {
	return s.path
}

// Read loads the file from disk on every call. A missing file yields the
// defaults. Unparseable numeric or boolean values are errors rather than
// silently falling back.
func (s *INIStore) Read() (Settings, error) {
	if _, err := os.Stat(s.path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Defaults(), nil
		}
		return Settings{}, fmt.Errorf("stat settings: %w", err)
	}

	cfg, err := ini.Load(s.path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to load settings file: %w", err)
	}

	d := Defaults()
	settings := d

	general := cfg.Section(sectionGeneral)
	settings.Corner = general.Key("corner").MustString(d.Corner)

	keybinds := cfg.Section(sectionKeybinds)
	settings.Keybinds.ToggleOverlay = keybinds.Key("toggle_overlay").MustString(d.Keybinds.ToggleOverlay)
	settings.Keybinds.FocusOverlay = keybinds.Key("focus_overlay").MustString(d.Keybinds.FocusOverlay)

	appearance := cfg.Section(sectionAppearance)
	if settings.Appearance.PanelOpacity, err = floatKey(appearance, "panel_opacity", d.Appearance.PanelOpacity); err != nil {
		return Settings{}, err
	}
	if settings.Appearance.ShowThinking, err = boolKey(appearance, "show_thinking", d.Appearance.ShowThinking); err != nil {
		return Settings{}, err
	}

	tools := cfg.Section(sectionTools)
	if settings.Tools.CaptureToolEnabled, err = boolKey(tools, "capture_screen_text_enabled", d.Tools.CaptureToolEnabled); err != nil {
		return Settings{}, err
	}

	return settings, nil
}

// Write replaces the file with settings.
func (s *INIStore) Write(settings Settings) error {
	cfg := ini.Empty()

	cfg.Section(sectionGeneral).Key("corner").SetValue(settings.Corner)

	keybinds := cfg.Section(sectionKeybinds)
	keybinds.Key("toggle_overlay").SetValue(settings.Keybinds.ToggleOverlay)
	keybinds.Key("focus_overlay").SetValue(settings.Keybinds.FocusOverlay)

	appearance := cfg.Section(sectionAppearance)
	appearance.Key("panel_opacity").SetValue(strconv.FormatFloat(settings.Appearance.PanelOpacity, 'f', -1, 64))
	appearance.Key("show_thinking").SetValue(fmt.Sprintf("%t", settings.Appearance.ShowThinking))

	cfg.Section(sectionTools).Key("capture_screen_text_enabled").SetValue(fmt.Sprintf("%t", settings.Tools.CaptureToolEnabled))

	var buf bytes.Buffer
	if _, err := cfg.WriteTo(&buf); err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	return writeFileAtomic(s.path, buf.Bytes())
}

func boolKey(section *ini.Section, name string, def bool) (bool, error) {
	if !section.HasKey(name) {
		return def, nil
	}
	v, err := section.Key(name).Bool()
	if err != nil {
		return false, fmt.Errorf("settings [%s] %s: %w", section.Name(), name, err)
	}
	return v, nil
}

func floatKey(section *ini.Section, name string, def float64) (float64, error) {
	if !section.HasKey(name) {
		return def, nil
	}
	v, err := section.Key(name).Float64()
	if err != nil {
		return 0, fmt.Errorf("settings [%s] %s: %w", section.Name(), name, err)
	}
	return v, nil
}
