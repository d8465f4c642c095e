package config

import (
	"log/slog"
	"time"

	"adherence-notify/internal/infra/notifier"
	pkgconfig "adherence-notify/internal/pkg/config"
)

const defaultWebhookTimeout = 30 * time.Second

// AlertConfig configures dead-letter alerting.
type AlertConfig struct {
	// Enabled gates every alert channel.
	Enabled       bool
	MaxConcurrent int

	Discord notifier.DiscordConfig
	Slack   notifier.SlackConfig
	NATS    notifier.NATSConfig
}

// LoadAlertConfig reads DLQ_ALERT_ENABLED, ALERT_MAX_CONCURRENT and the
// per-channel variables. A channel that is enabled with a missing or
// invalid URL is disabled with a warning. loc is used to render alert
// timestamps.
func LoadAlertConfig(logger *slog.Logger, metrics *pkgconfig.ConfigMetrics, loc *time.Location) AlertConfig {
	cfg := AlertConfig{
		Enabled:       pkgconfig.LoadEnvBool("DLQ_ALERT_ENABLED", false).Report(logger, metrics, "dlq_alert_enabled"),
		MaxConcurrent: pkgconfig.LoadEnvInt("ALERT_MAX_CONCURRENT", 5, pkgconfig.IntRange(1, 50)).Report(logger, metrics, "alert_max_concurrent"),
	}

	discordURL, discordOn := loadWebhook(logger, metrics, "discord", "DISCORD_ENABLED", "DISCORD_WEBHOOK_URL",
		pkgconfig.ValidateWebhookURL("discord.com", "/api/webhooks/"))
	cfg.Discord = notifier.DiscordConfig{
		Enabled:    discordOn,
		WebhookURL: discordURL,
		Timeout:    defaultWebhookTimeout,
		Location:   loc,
	}

	slackURL, slackOn := loadWebhook(logger, metrics, "slack", "SLACK_ENABLED", "SLACK_WEBHOOK_URL",
		pkgconfig.ValidateWebhookURL("hooks.slack.com", "/services/"))
	cfg.Slack = notifier.SlackConfig{
		Enabled:    slackOn,
		WebhookURL: slackURL,
		Timeout:    defaultWebhookTimeout,
		Location:   loc,
	}

	cfg.NATS = notifier.NATSConfig{
		Enabled: pkgconfig.LoadEnvBool("NATS_ALERT_ENABLED", false).Report(logger, metrics, "nats_enabled"),
		URL:     pkgconfig.LoadEnvString("NATS_URL", "nats://127.0.0.1:4222"),
		Subject: pkgconfig.LoadEnvWithFallback("NATS_ALERT_SUBJECT", "notifications.dlq.alerts", pkgconfig.ValidateStreamKey).Report(logger, metrics, "nats_subject"),
		Timeout: 5 * time.Second,
	}

	if metrics != nil {
		metrics.RecordLoadTimestamp()
	}
	return cfg
}

// loadWebhook returns the webhook URL and whether the channel is usable.
func loadWebhook(logger *slog.Logger, metrics *pkgconfig.ConfigMetrics, name, enabledKey, urlKey string, validate func(string) error) (string, bool) {
	if !pkgconfig.LoadEnvBool(enabledKey, false).Report(logger, metrics, name+"_enabled") {
		return "", false
	}

	webhookURL := pkgconfig.LoadEnvWithFallback(urlKey, "", validate).Report(logger, metrics, name+"_webhook_url")
	if webhookURL == "" {
		logger.Warn("webhook URL missing or invalid, disabling alert channel", slog.String("channel", name))
		return "", false
	}
	return webhookURL, true
}
