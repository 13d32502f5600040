package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/Rangesa/Game-Translator/internal/config"
	"github.com/Rangesa/Game-Translator/internal/errors"
)

// llm talks to a local completion server (llama.cpp, text-generation-webui
// and friends) over the OpenAI-style /v1/completions route. The prompt uses
// Gemma turn markers, which the instruction-tuned local models expect.
type llm struct {
	endpoint   string
	model      string
	sourceLang string
	targetLang string
	client     *http.Client
}

type completionRequest struct {
	Model       string  `json:"model,omitempty"`
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

type completionResponse struct {
	Choices []struct {
		Text string `json:"text"`
	} `json:"choices"`
}

func newLLM(cfg config.TranslateConfig) (*llm, error) {
	if cfg.LLMEndpoint == "" {
		return nil, errors.New(errors.CodeConfigInvalid, "llm engine selected but no endpoint configured")
	}
	return &llm{
		endpoint:   strings.TrimRight(cfg.LLMEndpoint, "/"),
		model:      cfg.LLMModel,
		sourceLang: cfg.SourceLang,
		targetLang: cfg.TargetLang,
		client:     &http.Client{Timeout: httpTimeout},
	}, nil
}

func (l *llm) Name() string { return "llm" }

func (l *llm) Translate(ctx context.Context, texts []string) ([]*string, error) {
	prompt := l.buildPrompt(texts)
	maxTokens := min(completionTokensPerItem*len(texts), completionMaxTokens)

	body, err := json.Marshal(completionRequest{
		Model:       l.model,
		Prompt:      prompt,
		MaxTokens:   maxTokens,
		Temperature: completionTemperature,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "marshal completion request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.endpoint+"/v1/completions", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "build completion request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeUnavailable, "completion request failed")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeUnavailable, "read completion response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, httpStatusError("llm", resp.StatusCode, respBody)
	}

	var parsed completionResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, errors.Wrap(err, errors.CodeBackend, "parse completion response")
	}
	if len(parsed.Choices) == 0 {
		return nil, errors.New(errors.CodeBackend, "completion response has no choices")
	}

	return parseNumberedLines(parsed.Choices[0].Text, len(texts)), nil
}

func (l *llm) buildPrompt(texts []string) string {
	var b strings.Builder
	b.WriteString("<start_of_turn>user\n")
	b.WriteString(translationInstruction(l.sourceLang, l.targetLang))
	b.WriteString("\n\n")
	b.WriteString(numberedBlock(texts))
	b.WriteString("<end_of_turn>\n<start_of_turn>model\n")
	return b.String()
}
