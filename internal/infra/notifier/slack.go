package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// SlackConfig contains configuration for Slack webhook notifications.
type SlackConfig struct {
	// Enabled indicates whether Slack notifications are enabled
	Enabled bool

	// WebhookURL is the Slack Incoming Webhook URL (includes authentication token)
	WebhookURL string

	// Timeout is the HTTP request timeout for Slack API calls
	Timeout time.Duration

	// Location is used to render timestamps. Defaults to UTC.
	Location *time.Location
}

// SlackNotifier sends dead-letter alerts to Slack via Incoming Webhook.
type SlackNotifier struct {
	config      SlackConfig
	httpClient  *http.Client
	rateLimiter *RateLimiter
	retryDelay  time.Duration
}

// NewSlackNotifier creates a new SlackNotifier with the specified configuration.
// Slack allows one webhook message per second.
func NewSlackNotifier(config SlackConfig) *SlackNotifier {
	if config.Location == nil {
		config.Location = time.UTC
	}
	return &SlackNotifier{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		rateLimiter: NewRateLimiter(1.0, 1),
		retryDelay:  webhookBaseRetryDelay,
	}
}

// SlackWebhookPayload represents the JSON payload sent to Slack webhook using Block Kit.
type SlackWebhookPayload struct {
	Text   string       `json:"text"`   // Fallback text (required)
	Blocks []SlackBlock `json:"blocks"` // Rich formatting blocks
}

// SlackBlock represents a Slack Block Kit block.
type SlackBlock struct {
	Type     string            `json:"type"`               // "header", "section", "context"
	Text     *SlackTextObject  `json:"text,omitempty"`     // Text content (for header/section)
	Fields   []SlackTextObject `json:"fields,omitempty"`   // Two-column fields (for section)
	Elements []SlackTextObject `json:"elements,omitempty"` // Elements (for context)
}

// SlackTextObject represents a text object in Slack Block Kit.
type SlackTextObject struct {
	Type string `json:"type"` // "mrkdwn" or "plain_text"
	Text string `json:"text"`
}

const (
	maxSectionTextLength  = 3000
	maxFallbackLength     = 150
	slackTruncationSuffix = "..."
)

func (s *SlackNotifier) buildBlockKitPayload(alert DeadLetterAlert) SlackWebhookPayload {
	fallbackText := truncateText(
		fmt.Sprintf("Dead-lettered %s notification for member %d", alert.NotificationType, alert.MemberID),
		maxFallbackLength, slackTruncationSuffix)

	errText := alert.Error
	if errText == "" {
		errText = "N/A"
	}
	errText = truncateText(errText, maxErrorTextLength, slackTruncationSuffix)

	mrkdwn := func(label, value string) SlackTextObject {
		return SlackTextObject{Type: "mrkdwn", Text: fmt.Sprintf("*%s*\n%s", label, value)}
	}

	return SlackWebhookPayload{
		Text: fallbackText,
		Blocks: []SlackBlock{
			{
				Type: "header",
				Text: &SlackTextObject{Type: "plain_text", Text: "Dead letter queue alert"},
			},
			{
				Type: "section",
				Fields: []SlackTextObject{
					mrkdwn("Message ID", alert.MessageID),
					mrkdwn("Member ID", fmt.Sprintf("%d", alert.MemberID)),
					mrkdwn("Type", string(alert.NotificationType)),
					mrkdwn("Retry count", fmt.Sprintf("%d", alert.RetryCount)),
				},
			},
			{
				Type: "section",
				Text: &SlackTextObject{
					Type: "mrkdwn",
					Text: truncateText(fmt.Sprintf("*Title*\n%s\n*Error*\n```%s```", orNA(alert.Title), errText),
						maxSectionTextLength, slackTruncationSuffix),
				},
			},
			{
				Type: "context",
				Elements: []SlackTextObject{{
					Type: "mrkdwn",
					Text: fmt.Sprintf("created %s • dead-lettered %s",
						s.formatTime(alert.CreatedAt), s.formatTime(alert.DeadLetteredAt)),
				}},
			},
		},
	}
}

func (s *SlackNotifier) formatTime(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.In(s.config.Location).Format(alertTimeLayout)
}

// NotifyDeadLetter posts the alert blocks with the same retry policy as Discord.
func (s *SlackNotifier) NotifyDeadLetter(ctx context.Context, alert DeadLetterAlert) error {
	if err := s.rateLimiter.Allow(ctx); err != nil {
		slog.Error("Rate limiter error",
			slog.String("service", "slack"),
			slog.String("message_id", alert.MessageID),
			slog.Any("error", err))
		return fmt.Errorf("rate limiter error: %w", err)
	}

	payload := s.buildBlockKitPayload(alert)
	return sendWithRetry(ctx, "Slack", webhookMaxAttempts, s.retryDelay, alert, func(ctx context.Context) error {
		return postWebhook(ctx, s.httpClient, "Slack", s.config.WebhookURL, payload)
	})
}
