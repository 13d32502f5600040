//go:build windows

package ocr

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/Rangesa/Game-Translator/internal/capture"
	"github.com/Rangesa/Game-Translator/internal/errors"
)

// The recognizer runs in PowerShell against the Windows.Media.Ocr WinRT API,
// which keeps the binary free of CGO and COM plumbing.
//
//go:embed recognize.ps1
var recognizeScript string

type nativeEngine struct {
	dir      string
	script   string
	language string
}

// newNative materializes the recognizer script in a temp dir and probes the
// engine once so a host without recognizer languages fails at startup.
func newNative(ctx context.Context, language string) (Engine, error) {
	dir, err := os.MkdirTemp("", "gametranslator-ocr-*")
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeOCRInit, "create temp dir")
	}
	script := filepath.Join(dir, "recognize.ps1")
	if err := os.WriteFile(script, []byte(recognizeScript), 0o644); err != nil {
		os.RemoveAll(dir)
		return nil, errors.Wrap(err, errors.CodeOCRInit, "write recognizer script")
	}
	e := &nativeEngine{dir: dir, script: script, language: language}

	out, err := e.run(ctx, "-Probe")
	if err != nil {
		os.RemoveAll(dir)
		return nil, err
	}
	var probe struct {
		Error    string `json:"error"`
		Language string `json:"language"`
	}
	if err := json.Unmarshal(bytes.TrimSpace(out), &probe); err != nil {
		os.RemoveAll(dir)
		return nil, errors.Wrap(err, errors.CodeOCRInit, "parse probe output")
	}
	if probe.Error != "" {
		os.RemoveAll(dir)
		return nil, errors.Newf(errors.CodeNoRecognizerLanguage, "recognizer: %s", probe.Error)
	}
	slog.Info("ocr engine ready", "engine", "windows-native", "language", probe.Language)
	return e, nil
}

func (e *nativeEngine) Recognize(ctx context.Context, frame *capture.Frame) ([]Line, error) {
	data, err := encodePNG(frame)
	if err != nil {
		return nil, err
	}
	imgPath := filepath.Join(e.dir, "frame.png")
	if err := os.WriteFile(imgPath, data, 0o644); err != nil {
		return nil, errors.Wrap(err, errors.CodeOCRFailed, "write frame")
	}
	out, err := e.run(ctx, "-ImagePath", imgPath, "-Language", e.language)
	if err != nil {
		return nil, err
	}
	return parseRecognizerJSON(out)
}

func (e *nativeEngine) run(ctx context.Context, extra ...string) ([]byte, error) {
	args := []string{"-NoProfile", "-NonInteractive", "-ExecutionPolicy", "Bypass", "-File", e.script}
	args = append(args, extra...)
	cmd := exec.CommandContext(ctx, "powershell", args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{HideWindow: true}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, errors.Wrapf(err, errors.CodeOCRFailed, "run recognizer: %s", strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

func (e *nativeEngine) Close() error {
	return os.RemoveAll(e.dir)
}
