package config

import (
	"fmt"
	"sort"
	"strconv"
)

// Keys lists every addressable setting in stable order.
func Keys() []string {
	keys := []string{
		KeyCorner,
		KeyToggleOverlay,
		KeyFocusOverlay,
		KeyPanelOpacity,
		KeyShowThinking,
		KeyCaptureToolEnabled,
	}
	sort.Strings(keys)
	return keys
}

// Get renders a single setting as a string.
func Get(s Settings, key string) (string, error) {
	switch key {
	case KeyCorner:
		return s.Corner, nil
	case KeyToggleOverlay:
		return s.Keybinds.ToggleOverlay, nil
	case KeyFocusOverlay:
		return s.Keybinds.FocusOverlay, nil
	case KeyPanelOpacity:
		return strconv.FormatFloat(s.Appearance.PanelOpacity, 'f', -1, 64), nil
	case KeyShowThinking:
		return strconv.FormatBool(s.Appearance.ShowThinking), nil
	case KeyCaptureToolEnabled:
		return strconv.FormatBool(s.Tools.CaptureToolEnabled), nil
	default:
		return "", fmt.Errorf("unknown setting %q", key)
	}
}

// Set parses value into the setting named by key.
func Set(s *Settings, key, value string) error {
	switch key {
	case KeyCorner:
		s.Corner = value
	case KeyToggleOverlay:
		s.Keybinds.ToggleOverlay = value
	case KeyFocusOverlay:
		s.Keybinds.FocusOverlay = value
	case KeyPanelOpacity:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if f < 0 || f > 1 {
			return fmt.Errorf("%s must be between 0 and 1", key)
		}
		s.Appearance.PanelOpacity = f
	case KeyShowThinking:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		s.Appearance.ShowThinking = b
	case KeyCaptureToolEnabled:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		s.Tools.CaptureToolEnabled = b
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	return nil
}
