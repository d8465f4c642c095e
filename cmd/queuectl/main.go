// Command queuectl inspects and repairs the notification streams.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"adherence-notify/internal/config"
	"adherence-notify/internal/infra/stream"
	"adherence-notify/internal/observability/logging"
	"adherence-notify/internal/usecase/queue"
)

var Version = "dev"

// app holds what every subcommand needs. Tests build it around a memory store.
type app struct {
	store  queue.BrowsableStore
	cfg    queue.Config
	logger *slog.Logger
	out    io.Writer
	close  func() error
}

func main() {
	_ = godotenv.Load()

	a := &app{out: os.Stdout}
	rootCmd := newRootCmd(a)
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		return a.connect()
	}
	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, _ []string) error {
		if a.close != nil {
			return a.close()
		}
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "queuectl",
		Short:         "Inspect and repair the notification streams",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(statsCmd(a))
	rootCmd.AddCommand(dlqCmd(a))
	rootCmd.AddCommand(sendCmd(a))
	return rootCmd
}

// connect opens the Redis stream store described by the QUEUE_* and REDIS_*
// variables.
func (a *app) connect() error {
	a.logger = logging.NewTextLogger(os.Stderr)

	qc := config.LoadQueueConfig(a.logger, nil)
	if err := qc.Validate(); err != nil {
		return fmt.Errorf("queue configuration: %w", err)
	}
	if qc.Backend != config.BackendRedis {
		return errors.New("queuectl needs QUEUE_BACKEND=redis; the memory backend lives inside the worker process")
	}

	client := stream.NewRedisClient(qc.Redis())
	a.store = stream.NewRedisStore(client, qc.StoreOptions()...)
	a.cfg = qc.Queue()
	a.close = client.Close
	return nil
}
