//go:build darwin

package ocr

import (
	"context"

	"github.com/Rangesa/Game-Translator/internal/errors"
)

func newNative(_ context.Context, _ string) (Engine, error) {
	return nil, errors.New(errors.CodeOCRInit, "native recognition is not supported on darwin; configure the remote engine")
}
