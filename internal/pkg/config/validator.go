package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"
)

// ValidateTimezone validates an IANA timezone name ("Asia/Seoul", "UTC").
func ValidateTimezone(timezone string) error {
	if timezone == "" {
		return fmt.Errorf("invalid timezone: cannot be empty")
	}

	_, err := time.LoadLocation(timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone '%s': %w", timezone, err)
	}

	return nil
}

// ValidateDuration validates that duration lies in [minDur, maxDur].
//
// Example:
//
//	err := ValidateDuration(interval, 100*time.Millisecond, 5*time.Minute)
func ValidateDuration(duration, minDur, maxDur time.Duration) error {
	if minDur > maxDur {
		return fmt.Errorf("invalid range: min (%v) cannot be greater than max (%v)", minDur, maxDur)
	}

	if duration < minDur {
		return fmt.Errorf("duration %v is below minimum %v", duration, minDur)
	}

	if duration > maxDur {
		return fmt.Errorf("duration %v exceeds maximum %v", duration, maxDur)
	}

	return nil
}

// DurationRange returns a validator accepting durations in [minDur, maxDur].
func DurationRange(minDur, maxDur time.Duration) func(time.Duration) error {
	return func(d time.Duration) error { return ValidateDuration(d, minDur, maxDur) }
}

// ValidateIntRange validates that value lies in [minVal, maxVal].
func ValidateIntRange(value, minVal, maxVal int) error {
	if minVal > maxVal {
		return fmt.Errorf("invalid range: min (%d) cannot be greater than max (%d)", minVal, maxVal)
	}

	if value < minVal {
		return fmt.Errorf("value %d is below minimum %d", value, minVal)
	}

	if value > maxVal {
		return fmt.Errorf("value %d exceeds maximum %d", value, maxVal)
	}

	return nil
}

// IntRange returns a validator accepting integers in [minVal, maxVal].
func IntRange(minVal, maxVal int) func(int) error {
	return func(v int) error { return ValidateIntRange(v, minVal, maxVal) }
}

// ValidatePositiveDuration validates that duration is greater than zero.
func ValidatePositiveDuration(duration time.Duration) error {
	if duration <= 0 {
		return fmt.Errorf("duration must be positive, got %v", duration)
	}

	return nil
}

// ValidateStreamKey validates a Redis stream key: non-empty, at most 256
// bytes, no whitespace or control characters.
func ValidateStreamKey(key string) error {
	if key == "" {
		return fmt.Errorf("invalid stream key: cannot be empty")
	}
	if len(key) > 256 {
		return fmt.Errorf("invalid stream key: longer than 256 bytes")
	}
	for _, r := range key {
		if r <= ' ' || r == 0x7f {
			return fmt.Errorf("invalid stream key '%s': contains whitespace or control characters", key)
		}
	}
	return nil
}

// ValidateHostPort validates a "host:port" address such as a Redis address.
func ValidateHostPort(addr string) error {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid address '%s': %w", addr, err)
	}
	if host == "" || port == "" {
		return fmt.Errorf("invalid address '%s': host and port are required", addr)
	}
	return nil
}

// ValidateWebhookURL returns a validator for incoming-webhook URLs. The URL
// must use https, have exactly the given host and a path starting with
// pathPrefix.
//
// Example:
//
//	discord := ValidateWebhookURL("discord.com", "/api/webhooks/")
//	slack := ValidateWebhookURL("hooks.slack.com", "/services/")
func ValidateWebhookURL(host, pathPrefix string) func(string) error {
	return func(raw string) error {
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid webhook URL format: %w", err)
		}
		if u.Scheme != "https" {
			return fmt.Errorf("webhook URL must use HTTPS")
		}
		if u.Host != host {
			return fmt.Errorf("invalid webhook host %q, expected %q", u.Host, host)
		}
		if !strings.HasPrefix(u.Path, pathPrefix) {
			return fmt.Errorf("invalid webhook path %q, expected prefix %q", u.Path, pathPrefix)
		}
		return nil
	}
}
