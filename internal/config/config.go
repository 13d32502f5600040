// Package config loads translator settings from a YAML file kept beside the
// executable, applies environment overrides, and persists edits made from the
// tray menu. A missing or malformed file falls back to defaults so the app
// always starts.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Rangesa/Game-Translator/internal/errors"
)

// FileName is the config file looked up in the executable's directory.
const FileName = "config.yaml"

const (
	dotEnvFileName = ".env"
	deepLKeyVar    = "DEEPL_API_KEY"
)

// Translation engine names accepted in TranslateConfig.Engine.
const (
	EngineDeepL  = "deepl"
	EngineLLM    = "llm"
	EngineChat   = "chat"
	EngineOllama = "ollama"
)

// OCR engine names accepted in OCRConfig.Engine.
const (
	OCRNative = "native"
	OCRRemote = "remote"
)

// Config holds all application settings.
type Config struct {
	Translate TranslateConfig `yaml:"translate"`
	OCR       OCRConfig       `yaml:"ocr"`
	Capture   CaptureConfig   `yaml:"capture"`
	Overlay   OverlayConfig   `yaml:"overlay"`
	Status    StatusConfig    `yaml:"status"`
	Log       LogConfig       `yaml:"log"`
}

// TranslateConfig selects the translation backend and its credentials.
type TranslateConfig struct {
	Engine      string `yaml:"engine"`
	SourceLang  string `yaml:"source_lang"`
	TargetLang  string `yaml:"target_lang"`
	DeepLAPIKey string `yaml:"deepl_api_key"`

	// Local completion server (text-generation-webui and compatible).
	LLMEndpoint string `yaml:"llm_endpoint"`
	LLMModel    string `yaml:"llm_model"`

	// OpenAI-style chat completions endpoint.
	ChatEndpoint string `yaml:"chat_endpoint"`
	ChatAPIKey   string `yaml:"chat_api_key"`
	ChatModel    string `yaml:"chat_model"`

	// Ollama server.
	OllamaHost  string `yaml:"ollama_host"`
	OllamaPort  int    `yaml:"ollama_port"`
	OllamaModel string `yaml:"ollama_model"`
}

// OCRConfig selects the recognizer.
type OCRConfig struct {
	Engine     string `yaml:"engine"`
	Language   string `yaml:"language"`
	RemoteAddr string `yaml:"remote_addr"`
}

// CaptureConfig tunes the capture loop.
type CaptureConfig struct {
	// WindowTitle, when set, attaches to the first window whose title
	// contains it, so the app can start without the picker.
	WindowTitle string `yaml:"window_title"`
	// HashPrefilter skips OCR on frames whose perceptual hash matches the
	// previous frame's.
	HashPrefilter bool `yaml:"hash_prefilter"`
}

// OverlayConfig holds overlay appearance. Colors are RGBA in [0,1].
type OverlayConfig struct {
	TextColor [4]float32 `yaml:"text_color,flow"`
	BackColor [4]float32 `yaml:"back_color,flow"`
	FontName  string     `yaml:"font_name"`
}

// StatusConfig controls the local status server. Empty Addr disables it.
type StatusConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig controls log verbosity and the optional debug file.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns the settings used when no config file exists.
func Default() *Config {
	return &Config{
		Translate: TranslateConfig{
			Engine:       EngineDeepL,
			SourceLang:   "EN",
			TargetLang:   "JA",
			LLMEndpoint:  "http://localhost:5000",
			LLMModel:     "default",
			ChatEndpoint: "https://api.groq.com/openai/v1/chat/completions",
			ChatModel:    "llama-3.3-70b-versatile",
			OllamaHost:   "http://localhost",
			OllamaPort:   11434,
			OllamaModel:  "llama3.2",
		},
		OCR: OCRConfig{
			Engine:     OCRNative,
			Language:   "en",
			RemoteAddr: "localhost:50051",
		},
		Capture: CaptureConfig{
			HashPrefilter: true,
		},
		Overlay: OverlayConfig{
			TextColor: [4]float32{1, 1, 0, 1},
			BackColor: [4]float32{0, 0, 0, 0.85},
			FontName:  "Segoe UI",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Dir returns the directory holding the executable, falling back to the
// working directory. Config and cache files live there so the install stays
// portable.
func Dir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// Path returns the config file location.
func Path() string {
	return filepath.Join(Dir(), FileName)
}

// Load reads the config file beside the executable. A missing or unparsable
// file yields defaults, and a fresh file is written back so there is
// something to edit. Environment variables override whatever was loaded.
func Load() *Config {
	return loadDir(Dir())
}

func loadDir(dir string) *Config {
	path := filepath.Join(dir, FileName)
	cfg, err := LoadFrom(path)
	// Seed a missing file, but keep a malformed one for the user to fix.
	canWrite := err == nil || errors.IsCode(err, errors.CodeConfigMissing)
	writeBack := false
	if err != nil {
		cfg = Default()
		writeBack = canWrite
	}
	if cfg.Translate.DeepLAPIKey == "" {
		if key := findDeepLKey(dir); key != "" {
			cfg.Translate.DeepLAPIKey = key
			writeBack = canWrite
		}
	}
	if writeBack {
		_ = cfg.SaveTo(path)
	}
	cfg.applyEnv()
	return cfg
}

// LoadFrom parses a config file. Unknown keys are ignored and missing keys
// keep their defaults.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeConfigMissing, "read config")
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, errors.CodeConfigInvalid, "parse config")
	}
	return cfg, nil
}

// Save writes the config back to its standard location.
func (c *Config) Save() error {
	return c.SaveTo(Path())
}

// SaveTo writes the config as YAML to the given path.
func (c *Config) SaveTo(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "encode config")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "write config")
	}
	return nil
}

var translateEngines = map[string]bool{
	EngineDeepL:  true,
	EngineLLM:    true,
	EngineChat:   true,
	EngineOllama: true,
}

var ocrEngines = map[string]bool{
	OCRNative: true,
	OCRRemote: true,
}

// Validate reports settings the rest of the app cannot work with. Called once
// at startup so typos fail loudly instead of at first use.
func (c *Config) Validate() error {
	if !translateEngines[c.Translate.Engine] {
		return errors.Newf(errors.CodeConfigInvalid, "unknown translation engine %q", c.Translate.Engine)
	}
	if !ocrEngines[c.OCR.Engine] {
		return errors.Newf(errors.CodeConfigInvalid, "unknown ocr engine %q", c.OCR.Engine)
	}
	if c.Translate.SourceLang == "" || c.Translate.TargetLang == "" {
		return errors.New(errors.CodeConfigInvalid, "source and target languages must be set")
	}
	if c.OCR.Engine == OCRRemote && c.OCR.RemoteAddr == "" {
		return errors.New(errors.CodeConfigInvalid, "remote ocr selected but remote_addr is empty")
	}
	if !validColor(c.Overlay.TextColor) || !validColor(c.Overlay.BackColor) {
		return errors.New(errors.CodeConfigInvalid, "overlay colors must have components in [0,1]")
	}
	return nil
}

func validColor(c [4]float32) bool {
	for _, v := range c {
		if v < 0 || v > 1 {
			return false
		}
	}
	return true
}

// applyEnv layers environment overrides on top of file values.
func (c *Config) applyEnv() {
	c.Translate.Engine = getEnv("TRANSLATE_ENGINE", c.Translate.Engine)
	c.Translate.SourceLang = getEnv("SOURCE_LANG", c.Translate.SourceLang)
	c.Translate.TargetLang = getEnv("TARGET_LANG", c.Translate.TargetLang)
	c.Translate.DeepLAPIKey = getEnv(deepLKeyVar, c.Translate.DeepLAPIKey)
	c.Translate.LLMEndpoint = getEnv("LLM_ENDPOINT", c.Translate.LLMEndpoint)
	c.Translate.ChatAPIKey = getEnv("GROQ_API_KEY", c.Translate.ChatAPIKey)
	c.Translate.OllamaPort = getEnvInt("OLLAMA_PORT", c.Translate.OllamaPort)
	c.OCR.RemoteAddr = getEnv("OCR_REMOTE_ADDR", c.OCR.RemoteAddr)
	c.Capture.WindowTitle = getEnv("WINDOW_TITLE", c.Capture.WindowTitle)
	c.Capture.HashPrefilter = getEnvBool("HASH_PREFILTER", c.Capture.HashPrefilter)
	c.Status.Addr = getEnv("STATUS_ADDR", c.Status.Addr)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.File = getEnv("LOG_FILE", c.Log.File)
}

// findDeepLKey recovers an API key from the pre-config-file era: first the
// environment, then a .env file beside the executable. The caller persists
// the result so the lookup happens once.
func findDeepLKey(dir string) string {
	if key := os.Getenv(deepLKeyVar); key != "" {
		return key
	}
	data, err := os.ReadFile(filepath.Join(dir, dotEnvFileName))
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(string(data), "\n") {
		rest, ok := strings.CutPrefix(strings.TrimSpace(line), deepLKeyVar+"=")
		if !ok {
			continue
		}
		return strings.Trim(strings.TrimSpace(rest), `"`)
	}
	return ""
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "true" || v == "1"
	}
	return def
}
