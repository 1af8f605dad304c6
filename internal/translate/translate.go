// Package translate renders listing titles in the target language.
package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/IshaanNene/vrwatch/internal/config"
	"github.com/IshaanNene/vrwatch/internal/types"
)

// Translator calls the public translate endpoint. Source language is
// auto-detected.
type Translator struct {
	client   *resty.Client
	endpoint string
	target   string
	logger   *slog.Logger
}

// New creates a Translator from configuration.
func New(cfg config.TranslateConfig, userAgent string, logger *slog.Logger) *Translator {
	client := resty.New()
	client.SetTimeout(cfg.Timeout)
	if userAgent != "" {
		client.SetHeader("user-agent", userAgent)
	}
	return NewWithClient(client, cfg, logger)
}

// NewWithClient creates a Translator using an existing resty client.
func NewWithClient(client *resty.Client, cfg config.TranslateConfig, logger *slog.Logger) *Translator {
	return &Translator{
		client:   client,
		endpoint: cfg.Endpoint,
		target:   cfg.TargetLang,
		logger:   logger.With("component", "translator"),
	}
}

// Translate returns text in the target language. An empty result is
// reported as types.ErrEmptyTranslation.
func (t *Translator) Translate(ctx context.Context, text string) (string, error) {
	res, err := t.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"client": "gtx",
			"sl":     "auto",
			"tl":     t.target,
			"dt":     "t",
			"q":      text,
		}).
		Get(t.endpoint)
	if err != nil {
		return "", fmt.Errorf("translate request: %w", err)
	}
	if res.IsError() {
		return "", &types.FetchError{
			URL:        t.endpoint,
			StatusCode: res.StatusCode(),
			Err:        fmt.Errorf("translate endpoint returned %s", res.Status()),
			Retryable:  res.StatusCode() == 429 || res.StatusCode() >= 500,
		}
	}

	out, err := parseResponse(res.Body())
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", types.ErrEmptyTranslation
	}
	return out, nil
}

// parseResponse concatenates the translated segments of a gtx response:
// [[["translated","source",...], ...], ...].
func parseResponse(body []byte) (string, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", fmt.Errorf("decode translate response: %w", err)
	}
	if len(raw) == 0 {
		return "", types.ErrEmptyTranslation
	}

	var segments [][]any
	if err := json.Unmarshal(raw[0], &segments); err != nil {
		// "null" when nothing was translated
		return "", types.ErrEmptyTranslation
	}

	var sb strings.Builder
	for _, seg := range segments {
		if len(seg) == 0 {
			continue
		}
		if s, ok := seg[0].(string); ok {
			sb.WriteString(s)
		}
	}
	return sb.String(), nil
}
