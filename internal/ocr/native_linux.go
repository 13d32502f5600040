//go:build linux

package ocr

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/Rangesa/Game-Translator/internal/capture"
	"github.com/Rangesa/Game-Translator/internal/errors"
)

// Config languages are two-letter codes; tesseract wants ISO 639-2 pack names.
var tesseractLangs = map[string]string{
	"en": "eng",
	"ja": "jpn",
	"de": "deu",
	"fr": "fra",
	"es": "spa",
	"it": "ita",
	"pt": "por",
	"ru": "rus",
	"ko": "kor",
	"zh": "chi_sim",
}

type nativeEngine struct {
	language string
	dir      string
}

// newNative locates tesseract and picks a language pack: the configured one
// when installed, otherwise the first available, failing only when none are.
func newNative(ctx context.Context, language string) (Engine, error) {
	if _, err := exec.LookPath("tesseract"); err != nil {
		return nil, errors.Wrap(err, errors.CodeOCRInit, "tesseract not found (install tesseract-ocr)")
	}

	installed, err := listTesseractLangs(ctx)
	if err != nil {
		return nil, err
	}
	if len(installed) == 0 {
		return nil, errors.New(errors.CodeNoRecognizerLanguage, "no tesseract language data installed")
	}

	want := tesseractLangs[strings.ToLower(language)]
	if want == "" {
		want = strings.ToLower(language)
	}
	lang := installed[0]
	for _, l := range installed {
		if l == want {
			lang = want
			break
		}
	}

	dir, err := os.MkdirTemp("", "gametranslator-ocr-*")
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeOCRInit, "create temp dir")
	}
	slog.Info("ocr engine ready", "engine", "tesseract", "language", lang)
	return &nativeEngine{language: lang, dir: dir}, nil
}

func listTesseractLangs(ctx context.Context) ([]string, error) {
	cmd := exec.CommandContext(ctx, "tesseract", "--list-langs")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, errors.Wrapf(err, errors.CodeOCRInit, "list languages: %s", strings.TrimSpace(stderr.String()))
	}
	// First line is a banner ("List of available languages (N):").
	var langs []string
	for i, line := range strings.Split(stdout.String(), "\n") {
		if i == 0 {
			continue
		}
		if l := strings.TrimSpace(line); l != "" {
			langs = append(langs, l)
		}
	}
	return langs, nil
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

	cmd := exec.CommandContext(ctx, "tesseract", imgPath, "stdout", "-l", e.language, "tsv")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, errors.Wrapf(err, errors.CodeOCRFailed, "tesseract: %s", strings.TrimSpace(stderr.String()))
	}
	return parseTesseractTSV(stdout.Bytes()), nil
}

func (e *nativeEngine) Close() error {
	return os.RemoveAll(e.dir)
}
