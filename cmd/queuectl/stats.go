package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"adherence-notify/internal/usecase/queue"
)

func statsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show stream lengths and the consumer group's pending count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := queue.NewProducer(a.store, a.cfg, a.logger)
			stats, err := p.Stats(cmd.Context())

			fmt.Fprintf(a.out, "%-24s %s\n", "main stream:", a.cfg.MainStream)
			fmt.Fprintf(a.out, "%-24s %s\n", "dead-letter stream:", a.cfg.DeadLetterStream)
			fmt.Fprintf(a.out, "%-24s %s\n", "group:", a.cfg.Group)
			fmt.Fprintf(a.out, "%-24s %s\n", "main length:", count(stats.MainLength))
			fmt.Fprintf(a.out, "%-24s %s\n", "dead-letter length:", count(stats.DeadLetterLength))
			fmt.Fprintf(a.out, "%-24s %s\n", "pending:", count(stats.Pending))
			return err
		},
	}
}

// count prints -1 (unknown) as "error".
func count(n int64) string {
	if n < 0 {
		return "error"
	}
	return fmt.Sprint(n)
}
