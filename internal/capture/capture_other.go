//go:build !windows && !darwin && !linux

package capture

import "jordanella.com/overlay-capture/internal/logging"

func newPlatformProvider(*logging.Logger) Provider {
	return Unsupported{}
}
