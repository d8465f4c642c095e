package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

// DiscordConfig contains configuration for Discord webhook notifications.
type DiscordConfig struct {
	// Enabled indicates whether Discord notifications are enabled
	Enabled bool

	// WebhookURL is the Discord webhook URL (includes authentication token)
	WebhookURL string

	// Timeout is the HTTP request timeout for Discord API calls
	Timeout time.Duration

	// Location is used to render timestamps in the embed. Defaults to UTC.
	Location *time.Location
}

// DiscordNotifier sends dead-letter alerts to Discord via webhook.
type DiscordNotifier struct {
	config      DiscordConfig
	httpClient  *http.Client
	rateLimiter *RateLimiter
	retryDelay  time.Duration
}

// NewDiscordNotifier creates a new DiscordNotifier with the specified configuration.
//
// The rate limiter is set to 0.5 requests/second with burst of 3
// (Discord Webhook limit: 30 requests per minute).
func NewDiscordNotifier(config DiscordConfig) *DiscordNotifier {
	if config.Location == nil {
		config.Location = time.UTC
	}
	return &DiscordNotifier{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		rateLimiter: NewRateLimiter(0.5, 3),
		retryDelay:  webhookBaseRetryDelay,
	}
}

// DiscordWebhookPayload represents the JSON payload sent to Discord webhook.
type DiscordWebhookPayload struct {
	Username string         `json:"username"`
	Embeds   []DiscordEmbed `json:"embeds"`
}

// DiscordEmbed represents a Discord embed message.
type DiscordEmbed struct {
	Title  string              `json:"title"`
	Color  int                 `json:"color"`
	Fields []DiscordEmbedField `json:"fields"`
	Footer DiscordEmbedFooter  `json:"footer"`
}

// DiscordEmbedField is one name/value row of an embed.
type DiscordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// DiscordEmbedFooter represents the footer of a Discord embed.
type DiscordEmbedFooter struct {
	Text string `json:"text"`
}

const (
	discordUsername    = "Notification DLQ Monitor"
	discordEmbedTitle  = "🚨 Dead letter queue alert"
	discordFooter      = "adherence-notify message queue"
	discordRedColor    = 15158332
	maxErrorTextLength = 500
	maxFieldLength     = 1024
	truncationSuffix   = "..."
	alertTimeLayout    = "2006-01-02 15:04:05"
)

func (d *DiscordNotifier) buildEmbedPayload(alert DeadLetterAlert) DiscordWebhookPayload {
	errText := alert.Error
	if errText == "" {
		errText = "N/A"
	}

	fields := []DiscordEmbedField{
		{Name: "Message ID", Value: alert.MessageID, Inline: true},
		{Name: "Member ID", Value: strconv.FormatInt(alert.MemberID, 10), Inline: true},
		{Name: "Type", Value: string(alert.NotificationType), Inline: true},
		{Name: "Title", Value: truncateText(orNA(alert.Title), maxFieldLength, truncationSuffix), Inline: false},
		{Name: "Retry count", Value: strconv.Itoa(alert.RetryCount), Inline: true},
		{Name: "Created at", Value: d.formatTime(alert.CreatedAt), Inline: true},
		{Name: "Dead-lettered at", Value: d.formatTime(alert.DeadLetteredAt), Inline: true},
		{Name: "Error", Value: truncateText(errText, maxErrorTextLength, truncationSuffix), Inline: false},
	}

	return DiscordWebhookPayload{
		Username: discordUsername,
		Embeds: []DiscordEmbed{{
			Title:  discordEmbedTitle,
			Color:  discordRedColor,
			Fields: fields,
			Footer: DiscordEmbedFooter{Text: discordFooter},
		}},
	}
}

func (d *DiscordNotifier) formatTime(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.In(d.config.Location).Format(alertTimeLayout)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// NotifyDeadLetter posts the alert embed. Rate limiting applies before the
// first attempt; 5xx and network errors are retried once.
func (d *DiscordNotifier) NotifyDeadLetter(ctx context.Context, alert DeadLetterAlert) error {
	if err := d.rateLimiter.Allow(ctx); err != nil {
		slog.Error("Rate limiter error",
			slog.String("service", "discord"),
			slog.String("message_id", alert.MessageID),
			slog.Any("error", err))
		return fmt.Errorf("rate limiter error: %w", err)
	}

	payload := d.buildEmbedPayload(alert)
	return sendWithRetry(ctx, "Discord", webhookMaxAttempts, d.retryDelay, alert, func(ctx context.Context) error {
		return postWebhook(ctx, d.httpClient, "Discord", d.config.WebhookURL, payload)
	})
}
