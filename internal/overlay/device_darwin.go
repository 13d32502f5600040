//go:build darwin

package overlay

import (
	"github.com/Rangesa/Game-Translator/internal/config"
	"github.com/Rangesa/Game-Translator/internal/errors"
)

func newDevice(cfg config.OverlayConfig) (device, error) {
	return nil, errors.New(errors.CodeSurfaceInit, "overlay rendering is not supported on darwin")
}
