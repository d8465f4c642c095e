package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"adherence-notify/internal/usecase/queue"
)

func dlqCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dlq",
		Short: "List or replay dead-lettered notifications",
	}
	cmd.AddCommand(dlqListCmd(a))
	cmd.AddCommand(dlqReplayCmd(a))
	return cmd
}

func (a *app) browser() *queue.DeadLetterBrowser {
	return queue.NewDeadLetterBrowser(a.store, queue.NewProducer(a.store, a.cfg, a.logger), a.cfg, a.logger)
}

func dlqListCmd(a *app) *cobra.Command {
	var (
		limit  int64
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List dead letters, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			letters, err := a.browser().List(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(a.out)
				enc.SetIndent("", "  ")
				return enc.Encode(toJSONLetters(letters))
			}

			if len(letters) == 0 {
				fmt.Fprintln(a.out, "dead-letter stream is empty")
				return nil
			}
			for _, dl := range letters {
				if dl.DecodeErr != nil {
					fmt.Fprintf(a.out, "%s  <undecodable: %v>  error=%q\n", dl.EntryID, dl.DecodeErr, dl.Error)
					continue
				}
				m := dl.Message
				fmt.Fprintf(a.out, "%s  member=%d type=%s retries=%d message=%s error=%q\n",
					dl.EntryID, m.MemberID, m.NotificationType, m.RetryCount, m.MessageID, dl.Error)
			}
			return nil
		},
	}
	cmd.Flags().Int64VarP(&limit, "limit", "n", 50, "Maximum entries (0 for all)")
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "Output as JSON")
	return cmd
}

type jsonLetter struct {
	EntryID   string `json:"entryId"`
	MessageID string `json:"messageId,omitempty"`
	MemberID  int64  `json:"memberId,omitempty"`
	Type      string `json:"type,omitempty"`
	Retries   int    `json:"retryCount"`
	Error     string `json:"error"`
	DecodeErr string `json:"decodeError,omitempty"`
}

func toJSONLetters(letters []queue.DeadLetter) []jsonLetter {
	out := make([]jsonLetter, 0, len(letters))
	for _, dl := range letters {
		jl := jsonLetter{
			EntryID:   dl.EntryID,
			MessageID: dl.Message.MessageID,
			MemberID:  dl.Message.MemberID,
			Type:      string(dl.Message.NotificationType),
			Retries:   dl.Message.RetryCount,
			Error:     dl.Error,
		}
		if dl.DecodeErr != nil {
			jl.DecodeErr = dl.DecodeErr.Error()
		}
		out = append(out, jl)
	}
	return out
}

func dlqReplayCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "replay <entry-id>...",
		Short: "Republish dead letters with their retry count reset",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b := a.browser()
			for _, id := range args {
				newID, err := b.Replay(cmd.Context(), id)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "replayed %s as %s\n", id, newID)
			}
			return nil
		},
	}
}
