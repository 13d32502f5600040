package translate

import (
	"context"
	"log/slog"

	"github.com/agent-api/core/pkg/agent"
	"github.com/agent-api/core/types"
	"github.com/agent-api/ollama"

	"github.com/Rangesa/Game-Translator/internal/config"
	"github.com/Rangesa/Game-Translator/internal/errors"
)

// ollamaBackend drives a local Ollama server through an agent whose system
// prompt fixes the translation task, so each batch is just the numbered
// block.
type ollamaBackend struct {
	agent *agent.DefaultAgent
	model string
}

func newOllama(ctx context.Context, cfg config.TranslateConfig) (*ollamaBackend, error) {
	if cfg.OllamaModel == "" {
		return nil, errors.New(errors.CodeConfigInvalid, "ollama engine selected but no model configured")
	}

	logger := slog.Default()
	provider := ollama.NewProvider(&ollama.ProviderOpts{
		Logger:  logger,
		BaseURL: cfg.OllamaHost,
		Port:    cfg.OllamaPort,
	})
	provider.UseModel(ctx, &types.Model{ID: cfg.OllamaModel})

	a := agent.NewAgent(&agent.NewAgentConfig{
		Provider:     provider,
		Logger:       logger,
		SystemPrompt: translationInstruction(cfg.SourceLang, cfg.TargetLang),
	})
	return &ollamaBackend{agent: a, model: cfg.OllamaModel}, nil
}

func (o *ollamaBackend) Name() string { return "ollama" }

func (o *ollamaBackend) Translate(ctx context.Context, texts []string) ([]*string, error) {
	response := o.agent.Run(ctx, agent.WithInput(numberedBlock(texts)))
	if response.Err != nil {
		return nil, errors.Wrap(response.Err, errors.CodeUnavailable, "ollama run failed")
	}
	if len(response.Messages) == 0 {
		return nil, errors.New(errors.CodeBackend, "ollama returned no messages")
	}
	content := response.Messages[len(response.Messages)-1].Content
	return parseNumberedLines(content, len(texts)), nil
}
