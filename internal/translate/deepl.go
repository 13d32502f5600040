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

const (
	deeplProURL  = "https://api.deepl.com/v2/translate"
	deeplFreeURL = "https://api-free.deepl.com/v2/translate"
)

// deepl calls the DeepL REST API. Keys issued for the free tier end in ":fx"
// and must go to the api-free host.
type deepl struct {
	apiKey     string
	sourceLang string
	targetLang string
	baseURL    string
	client     *http.Client
}

type deeplRequest struct {
	Text       []string `json:"text"`
	SourceLang string   `json:"source_lang"`
	TargetLang string   `json:"target_lang"`
}

type deeplResponse struct {
	Translations []struct {
		Text string `json:"text"`
	} `json:"translations"`
}

func newDeepL(cfg config.TranslateConfig) (*deepl, error) {
	if cfg.DeepLAPIKey == "" {
		return nil, errors.New(errors.CodeConfigInvalid, "deepl engine selected but no API key configured")
	}
	url := deeplProURL
	if strings.HasSuffix(cfg.DeepLAPIKey, ":fx") {
		url = deeplFreeURL
	}
	return &deepl{
		apiKey:     cfg.DeepLAPIKey,
		sourceLang: strings.ToUpper(cfg.SourceLang),
		targetLang: strings.ToUpper(cfg.TargetLang),
		baseURL:    url,
		client:     &http.Client{Timeout: httpTimeout},
	}, nil
}

func (d *deepl) Name() string { return "deepl" }

func (d *deepl) Translate(ctx context.Context, texts []string) ([]*string, error) {
	body, err := json.Marshal(deeplRequest{
		Text:       texts,
		SourceLang: d.sourceLang,
		TargetLang: d.targetLang,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "marshal deepl request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "build deepl request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "DeepL-Auth-Key "+d.apiKey)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeUnavailable, "deepl request failed")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeUnavailable, "read deepl response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, httpStatusError("deepl", resp.StatusCode, respBody)
	}

	var parsed deeplResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, errors.Wrap(err, errors.CodeBackend, "parse deepl response")
	}
	if len(parsed.Translations) != len(texts) {
		return nil, errors.Newf(errors.CodeBackend, "deepl returned %d translations for %d inputs",
			len(parsed.Translations), len(texts))
	}

	out := make([]*string, len(texts))
	for i := range parsed.Translations {
		t := parsed.Translations[i].Text
		out[i] = &t
	}
	return out, nil
}

