package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/viper"
)

// JSONStore keeps settings in a JSON document.
type JSONStore struct {
	path string
}

func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

func (s *JSONStore) Path() string {
	return s.path
}

// Read loads the document from disk on every call. A missing file yields the
// defaults; an unreadable or malformed file is an error. Keys absent from the
// document keep their default values.
func (s *JSONStore) Read() (Settings, error) {
	if _, err := os.Stat(s.path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Defaults(), nil
		}
		return Settings{}, fmt.Errorf("stat settings: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(s.path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return Settings{}, fmt.Errorf("read settings %s: %w", s.path, err)
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return Settings{}, fmt.Errorf("decode settings %s: %w", s.path, err)
	}
	return settings, nil
}

// Write replaces the document with a pretty-printed rendering of settings.
func (s *JSONStore) Write(settings Settings) error {
	payload, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	return writeFileAtomic(s.path, payload)
}

func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault(KeyCorner, d.Corner)
	v.SetDefault(KeyToggleOverlay, d.Keybinds.ToggleOverlay)
	v.SetDefault(KeyFocusOverlay, d.Keybinds.FocusOverlay)
	v.SetDefault(KeyPanelOpacity, d.Appearance.PanelOpacity)
	v.SetDefault(KeyShowThinking, d.Appearance.ShowThinking)
	v.SetDefault(KeyCaptureToolEnabled, d.Tools.CaptureToolEnabled)
}
