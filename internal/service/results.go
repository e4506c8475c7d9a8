package service

import "jordanella.com/overlay-capture/internal/capture"

// Resolution is the size of the returned image and the factor it was scaled
// by, so callers can map coordinates back to the screen.
type Resolution struct {
	Width       int     `json:"width" yaml:"width"`
	Height      int     `json:"height" yaml:"height"`
	ScaleFactor float64 `json:"scale_factor" yaml:"scale_factor"`
}

// ImageResult is returned by image capture.
type ImageResult struct {
	MIMEType   string         `json:"mime_type" yaml:"mime_type"`
	FilePath   string         `json:"file_path" yaml:"file_path"`
	Source     capture.Source `json:"source" yaml:"source"`
	AppName    *string        `json:"app_name" yaml:"app_name"`
	Resolution Resolution     `json:"resolution" yaml:"resolution"`

	RequestID string `json:"-" yaml:"-"`
}

// TextResult is returned by text capture.
type TextResult struct {
	Text       string         `json:"text" yaml:"text"`
	Source     capture.Source `json:"source" yaml:"source"`
	AppName    *string        `json:"app_name" yaml:"app_name"`
	Resolution Resolution     `json:"resolution" yaml:"resolution"`

	RequestID string `json:"-" yaml:"-"`
}
