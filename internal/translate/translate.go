// Package translate sends batches of source strings to a configured backend
// and returns one optional translation per input. Blank inputs never reach
// the backend; per-item failures come back as nil so callers can retry them
// when the text next appears.
package translate

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/Rangesa/Game-Translator/internal/config"
	"github.com/Rangesa/Game-Translator/internal/errors"
	"github.com/Rangesa/Game-Translator/internal/resilience"
)

// Backend translates a pre-filtered batch: inputs are never empty or
// whitespace-only, and the result has exactly one entry per input, nil where
// the backend produced nothing usable.
type Backend interface {
	Name() string
	Translate(ctx context.Context, texts []string) ([]*string, error)
}

// Service wraps the configured backend with blank filtering, short in-call
// retries and a circuit breaker so a dead backend is not hammered every
// capture tick.
type Service struct {
	backend Backend
	breaker *resilience.Breaker
}

// New builds the service for the configured engine.
func New(ctx context.Context, cfg config.TranslateConfig) (*Service, error) {
	var (
		b   Backend
		err error
	)
	switch cfg.Engine {
	case config.EngineDeepL:
		b, err = newDeepL(cfg)
	case config.EngineLLM:
		b, err = newLLM(cfg)
	case config.EngineChat:
		b, err = newChat(cfg)
	case config.EngineOllama:
		b, err = newOllama(ctx, cfg)
	default:
		return nil, errors.Newf(errors.CodeConfigInvalid, "unknown translation engine %q", cfg.Engine)
	}
	if err != nil {
		return nil, err
	}
	return &Service{
		backend: b,
		breaker: resilience.New(resilience.DefaultConfig()),
	}, nil
}

// Name identifies the active backend, for logs and the status surface.
func (s *Service) Name() string {
	return s.backend.Name()
}

// TranslateBatch translates texts, preserving order and length. Empty and
// whitespace-only entries map to nil without touching the backend.
func (s *Service) TranslateBatch(ctx context.Context, texts []string) ([]*string, error) {
	out := make([]*string, len(texts))
	var (
		idx   []int
		batch []string
	)
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			continue
		}
		idx = append(idx, i)
		batch = append(batch, t)
	}
	if len(batch) == 0 {
		return out, nil
	}

	results, err := resilience.ExecuteWithResult(s.breaker, func() ([]*string, error) {
		var res []*string
		rerr := resilience.Retry(ctx, resilience.TranslateRetryConfig(), func() error {
			r, terr := s.backend.Translate(ctx, batch)
			if terr != nil {
				return terr
			}
			res = r
			return nil
		})
		return res, rerr
	})
	if err != nil {
		return nil, err
	}
	if len(results) != len(batch) {
		return nil, errors.Newf(errors.CodeBackend, "%s returned %d results for %d inputs",
			s.backend.Name(), len(results), len(batch))
	}

	for j, r := range results {
		out[idx[j]] = r
	}
	return out, nil
}

// httpStatusError classifies a non-200 backend response. 456 is DeepL's
// quota-exceeded status and retries the same way a 429 does.
func httpStatusError(backend string, status int, body []byte) error {
	msg := fmt.Sprintf("%s status %d: %s", backend, status, truncate(string(body), 200))
	switch {
	case status == http.StatusTooManyRequests || status == 456:
		return errors.New(errors.CodeBackendRateLimited, msg)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return errors.New(errors.CodeBackendAuth, msg)
	case status >= 500:
		return errors.New(errors.CodeUnavailable, msg)
	default:
		return errors.New(errors.CodeBackend, msg)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
