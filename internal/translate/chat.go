package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/Rangesa/Game-Translator/internal/config"
	"github.com/Rangesa/Game-Translator/internal/errors"
)

// chat calls an OpenAI-compatible chat completions endpoint (Groq by
// default). The numbered-list protocol is the same as the local llm backend,
// carried in a user message instead of a raw prompt.
type chat struct {
	endpoint   string
	apiKey     string
	model      string
	sourceLang string
	targetLang string
	client     *http.Client
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func newChat(cfg config.TranslateConfig) (*chat, error) {
	if cfg.ChatEndpoint == "" {
		return nil, errors.New(errors.CodeConfigInvalid, "chat engine selected but no endpoint configured")
	}
	if cfg.ChatAPIKey == "" {
		return nil, errors.New(errors.CodeConfigInvalid, "chat engine selected but no API key configured")
	}
	return &chat{
		endpoint:   cfg.ChatEndpoint,
		apiKey:     cfg.ChatAPIKey,
		model:      cfg.ChatModel,
		sourceLang: cfg.SourceLang,
		targetLang: cfg.TargetLang,
		client:     &http.Client{Timeout: httpTimeout},
	}, nil
}

func (c *chat) Name() string { return "chat" }

func (c *chat) Translate(ctx context.Context, texts []string) ([]*string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: translationInstruction(c.sourceLang, c.targetLang)},
			{Role: "user", Content: numberedBlock(texts)},
		},
		Temperature: completionTemperature,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "marshal chat request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "build chat request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeUnavailable, "chat request failed")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeUnavailable, "read chat response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, httpStatusError("chat", resp.StatusCode, respBody)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, errors.Wrap(err, errors.CodeBackend, "parse chat response")
	}
	if len(parsed.Choices) == 0 {
		return nil, errors.New(errors.CodeBackend, "chat response has no choices")
	}

	return parseNumberedLines(parsed.Choices[0].Message.Content, len(texts)), nil
}
