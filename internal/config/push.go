package config

import (
	"fmt"
	"log/slog"
	"time"

	"adherence-notify/internal/infra/push"
	pkgconfig "adherence-notify/internal/pkg/config"
)

// Push providers.
const (
	ProviderFCM = "fcm"
	ProviderLog = "log"
)

// PushConfig configures the push provider and device fan-out.
type PushConfig struct {
	Provider          string
	FCM               push.FCMConfig
	FanoutConcurrency int
	// TemplatesFile overrides the embedded notification texts.
	TemplatesFile string
}

func validateProvider(s string) error {
	if s != ProviderFCM && s != ProviderLog {
		return fmt.Errorf("unknown push provider %q, expected %q or %q", s, ProviderFCM, ProviderLog)
	}
	return nil
}

// LoadPushConfig reads PUSH_*, FCM_* and NOTIFY_TEMPLATES_FILE.
func LoadPushConfig(logger *slog.Logger, metrics *pkgconfig.ConfigMetrics) PushConfig {
	cfg := PushConfig{
		Provider: pkgconfig.LoadEnvWithFallback("PUSH_PROVIDER", ProviderLog, validateProvider).Report(logger, metrics, "provider"),
		FCM: push.FCMConfig{
			CredentialsFile: pkgconfig.LoadEnvString("FCM_CREDENTIALS_FILE", ""),
			ProjectID:       pkgconfig.LoadEnvString("FCM_PROJECT_ID", ""),
			Timeout:         pkgconfig.LoadEnvDuration("FCM_TIMEOUT", 10*time.Second, pkgconfig.DurationRange(time.Second, time.Minute)).Report(logger, metrics, "fcm_timeout"),
		},
		FanoutConcurrency: pkgconfig.LoadEnvInt("PUSH_FANOUT_CONCURRENCY", 4, pkgconfig.IntRange(1, 32)).Report(logger, metrics, "fanout_concurrency"),
		TemplatesFile:     pkgconfig.LoadEnvString("NOTIFY_TEMPLATES_FILE", ""),
	}

	if metrics != nil {
		metrics.RecordLoadTimestamp()
	}
	return cfg
}
