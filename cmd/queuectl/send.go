package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"adherence-notify/internal/domain/entity"
	"adherence-notify/internal/usecase/notify"
	"adherence-notify/internal/usecase/queue"
)

func sendCmd(a *app) *cobra.Command {
	var (
		memberID      int64
		title, body   string
		templatesFile string
	)
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Enqueue a GENERAL notification for one member",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if memberID <= 0 {
				return fmt.Errorf("--member must be positive")
			}
			templates, err := notify.LoadTemplates(templatesFile)
			if err != nil {
				return err
			}
			t, b, data, err := templates.Render(entity.NotificationGeneral, map[string]string{
				"title": title,
				"body":  body,
			})
			if err != nil {
				return err
			}

			msg := entity.NewNotificationMessage(memberID, t, b, data, entity.NotificationGeneral)
			id, err := queue.NewProducer(a.store, a.cfg, a.logger).Publish(cmd.Context(), msg)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "enqueued %s as %s\n", msg.MessageID, id)
			return nil
		},
	}
	cmd.Flags().Int64VarP(&memberID, "member", "m", 0, "Recipient member id")
	cmd.Flags().StringVarP(&title, "title", "t", "Test notification", "Notification title")
	cmd.Flags().StringVarP(&body, "body", "b", "This is a test notification.", "Notification body")
	cmd.Flags().StringVar(&templatesFile, "templates", "", "Template overrides (defaults to the embedded table)")
	return cmd
}
