// Package push provides device push adapters for the delivery processor:
// Firebase Cloud Messaging, a logging sender for local runs, and a circuit
// breaker decorator.
package push

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/errorutils"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"adherence-notify/internal/domain/entity"
)

const (
	androidClickAction = "OPEN_APP"
	apnsSound          = "default"
	apnsBadge          = 1
	defaultSendTimeout = 10 * time.Second
)

// messagingClient is the subset of *messaging.Client used here.
type messagingClient interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCMConfig configures the Firebase client.
type FCMConfig struct {
	// CredentialsFile is a service-account JSON file. Empty uses
	// application default credentials.
	CredentialsFile string
	// ProjectID overrides the project from the credentials.
	ProjectID string
	// Timeout bounds a single send. Defaults to 10s.
	Timeout time.Duration
}

// FCMSender sends through Firebase Cloud Messaging.
type FCMSender struct {
	client  messagingClient
	timeout time.Duration
	logger  *slog.Logger
	// tokenRejected classifies provider errors that will never succeed for the token.
	tokenRejected func(error) bool
}

// NewFCMSender initializes a Firebase app and its messaging client.
func NewFCMSender(ctx context.Context, cfg FCMConfig, logger *slog.Logger) (*FCMSender, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	var appCfg *firebase.Config
	if cfg.ProjectID != "" {
		appCfg = &firebase.Config{ProjectID: cfg.ProjectID}
	}

	app, err := firebase.NewApp(ctx, appCfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialize firebase messaging: %w", err)
	}

	return newFCMSender(client, cfg.Timeout, logger), nil
}

func newFCMSender(client messagingClient, timeout time.Duration, logger *slog.Logger) *FCMSender {
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FCMSender{
		client:        client,
		timeout:       timeout,
		logger:        logger,
		tokenRejected: isFCMTokenRejected,
	}
}

// Send delivers msg to target. Unregistered and malformed tokens are
// reported as entity.ErrInvalidToken.
func (s *FCMSender) Send(ctx context.Context, target entity.DeviceTarget, msg entity.NotificationMessage) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	id, err := s.client.Send(ctx, buildFCMMessage(target, msg))
	duration := time.Since(start)

	if err != nil {
		if s.tokenRejected(err) {
			RecordSend("fcm", "invalid_token", duration)
			return fmt.Errorf("fcm send to %s: %w: %v", target.MaskedToken(), entity.ErrInvalidToken, err)
		}
		RecordSend("fcm", "error", duration)
		return fmt.Errorf("fcm send to %s: %w", target.MaskedToken(), err)
	}

	RecordSend("fcm", "success", duration)
	s.logger.Debug("fcm message sent",
		slog.String("fcm_message_id", id),
		slog.String("message_id", msg.MessageID),
		slog.String("token", target.MaskedToken()))
	return nil
}

func isFCMTokenRejected(err error) bool {
	return messaging.IsUnregistered(err) ||
		messaging.IsSenderIDMismatch(err) ||
		errorutils.IsInvalidArgument(err)
}

// buildFCMMessage maps a notification onto an FCM message. The data payload
// always carries the message id and notification type.
func buildFCMMessage(target entity.DeviceTarget, msg entity.NotificationMessage) *messaging.Message {
	data := maps.Clone(msg.Data)
	if data == nil {
		data = make(map[string]string, 2)
	}
	data["messageId"] = msg.MessageID
	if _, ok := data["type"]; !ok {
		data["type"] = string(msg.NotificationType)
	}

	badge := apnsBadge
	return &messaging.Message{
		Token: target.Token,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ClickAction: androidClickAction,
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: apnsSound,
					Badge: &badge,
				},
			},
		},
	}
}

