// Package notify posts record alerts to a Discord webhook.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"syscall"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/IshaanNene/vrwatch/internal/config"
	"github.com/IshaanNene/vrwatch/internal/types"
)

// WebhookPayload is the JSON body accepted by a Discord webhook.
type WebhookPayload struct {
	Content string  `json:"content"`
	Embeds  []Embed `json:"embeds"`
}

// Embed is a single rich embed.
type Embed struct {
	Title       string       `json:"title"`
	URL         string       `json:"url"`
	Description string       `json:"description"`
	Color       int          `json:"color"`
	Fields      []EmbedField `json:"fields"`
	Image       *EmbedImage  `json:"image"`
}

// EmbedField is one name/value row of an embed.
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline *bool  `json:"inline,omitempty"`
}

// EmbedImage is the large image shown below the fields.
type EmbedImage struct {
	URL string `json:"url"`
}

// Discord sends one webhook message per record.
type Discord struct {
	client     *resty.Client
	webhookURL string
	cfg        config.NotifyConfig
	logger     *slog.Logger
}

// New creates a Discord notifier with its own HTTP client.
func New(cfg config.NotifyConfig, logger *slog.Logger) *Discord {
	client := resty.New()
	client.SetTimeout(cfg.Timeout)
	return NewWithClient(client, cfg, logger)
}

// NewWithClient creates a Discord notifier on an existing resty client.
// Rate limits and server errors are retried up to cfg.MaxRetries times.
func NewWithClient(client *resty.Client, cfg config.NotifyConfig, logger *slog.Logger) *Discord {
	client.
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(10 * time.Second).
		AddRetryCondition(shouldRetry)

	return &Discord{
		client:     client,
		webhookURL: cfg.WebhookURL,
		cfg:        cfg,
		logger:     logger.With("component", "notifier"),
	}
}

// shouldRetry retries rate limits, server errors and connections that
// never reached the webhook. A timeout may have been delivered already.
func shouldRetry(r *resty.Response, err error) bool {
	if err != nil {
		return errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET)
	}
	if r == nil {
		return false
	}
	return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500
}

// SetRetryWait overrides the retry backoff bounds.
func (d *Discord) SetRetryWait(lo, hi time.Duration) {
	d.client.SetRetryWaitTime(lo).SetRetryMaxWaitTime(hi)
}

// BuildMessage formats the webhook payload for rec.
func (d *Discord) BuildMessage(rec *types.Record) WebhookPayload {
	fields := []EmbedField{{
		Name:  "Title",
		Value: fmt.Sprintf("[%s](%s)", rec.Title(), rec.DetailURL),
	}}

	if rec.HasRating() {
		fields = append(fields, EmbedField{
			Name:   d.cfg.RatingLabel,
			Value:  "⭐ " + rec.Rating,
			Inline: boolPtr(true),
		})
	}

	fields = append(fields, EmbedField{
		Name:  "Source",
		Value: fmt.Sprintf("[%s](%s)", d.cfg.SourceLabel, rec.DetailURL),
	})

	if rec.Tags.Len() > 0 {
		fields = append(fields, EmbedField{
			Name:   "Tags",
			Value:  strings.Join(rec.Tags.Sorted(), ", "),
			Inline: boolPtr(false),
		})
	}

	var image *EmbedImage
	if rec.ImageURL != "" {
		image = &EmbedImage{URL: rec.ImageURL}
	}

	return WebhookPayload{
		Content: d.cfg.Content,
		Embeds: []Embed{{
			Description: d.cfg.Description,
			Color:       d.cfg.Color,
			Fields:      fields,
			Image:       image,
		}},
	}
}

// Send posts the alert for rec. In dry-run mode the payload is only logged.
func (d *Discord) Send(ctx context.Context, rec *types.Record) error {
	payload := d.BuildMessage(rec)

	if d.cfg.DryRun {
		body, err := json.Marshal(payload)
		if err != nil {
			return &types.NotifyError{Title: rec.Title(), Err: err}
		}
		d.logger.Info("dry run, notification not sent", "title", rec.Title(), "payload", string(body))
		return nil
	}

	res, err := d.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(d.webhookURL)
	if err != nil {
		return &types.NotifyError{Title: rec.Title(), Err: err}
	}
	if !res.IsSuccess() {
		return &types.NotifyError{
			Title:      rec.Title(),
			StatusCode: res.StatusCode(),
			Body:       truncate(strings.TrimSpace(res.String()), 200),
			Err:        fmt.Errorf("webhook returned %s", res.Status()),
		}
	}

	d.logger.Info("sent notification", "title", rec.Title(), "status", res.StatusCode())
	return nil
}

// DryRun reports whether sends are suppressed.
func (d *Discord) DryRun() bool { return d.cfg.DryRun }

func boolPtr(b bool) *bool { return &b }

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
