// Package gate answers whether the user currently allows screen capture.
package gate

import (
	"jordanella.com/overlay-capture/internal/config"
	"jordanella.com/overlay-capture/internal/logging"
)

// Gate consults the settings store on every call so a toggle made in the
// preferences UI takes effect on the next capture.
type Gate struct {
	reader config.Reader
	logger *logging.Logger
}

func New(reader config.Reader, logger *logging.Logger) *Gate {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Gate{reader: reader, logger: logger.Named("gate")}
}

// Enabled reports whether capture is allowed. A settings document that cannot
// be read or parsed disables capture until it is fixed.
func (g *Gate) Enabled() bool {
	if g.reader == nil {
		return false
	}
	settings, err := g.reader.Read()
	if err != nil {
		g.logger.WarnWithContext("settings unreadable, capture disabled", map[string]interface{}{
			"error": err.Error(),
		})
		return false
	}
	return settings.Tools.CaptureToolEnabled
}

// Func adapts a plain function to the gate's Enabled method set.
type Func func() bool

func (f Func) Enabled() bool { return f() }
