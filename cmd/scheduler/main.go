// Command scheduler triggers one curation run and waits for its
// outcome. It is meant to be called from cron or CI:
//
//	scheduler --url http://localhost:8080 --log /var/log/cassiano/runs.log
//
// Exit codes: 0 run finished, 1 run failed, 2 gave up waiting (the run
// may still finish on the server), 3 the run could not be started.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/RaphaelInbix/agente-cassiano/internal/scheduler"
	"github.com/RaphaelInbix/agente-cassiano/pkg/client"
)

func main() {
	var (
		serviceURL   string
		logPath      string
		pollInterval time.Duration
		maxWait      time.Duration
		settleDelay  time.Duration
	)

	exitCode := scheduler.ExitOK

	cmd := &cobra.Command{
		Use:           "scheduler",
		Short:         "Trigger a curation run and wait for its outcome",
		SilenceUsage:  true,
		SilenceErrors: true,
		// The exit code is recorded and applied after Execute returns,
		// so deferred cleanup (log file, signal handler) still runs.
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}))

			steps := io.Writer(os.Stderr)
			if logPath != "" {
				f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
				if err != nil {
					return fmt.Errorf("opening run log: %w", err)
				}
				defer f.Close()
				steps = io.MultiWriter(os.Stderr, f)
			}

			opts := scheduler.DefaultOptions()
			opts.PollInterval = pollInterval
			opts.MaxWait = maxWait
			opts.SettleDelay = settleDelay

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			api := client.New(serviceURL, 30*time.Second)
			runner := scheduler.NewRunner(api, opts, steps, logger)
			exitCode = runner.Run(ctx)
			return nil
		},
	}

	cmd.Flags().StringVar(&serviceURL, "url", "http://localhost:8080", "base URL of the curation service")
	cmd.Flags().StringVar(&logPath, "log", "", "append step log to this file in addition to stderr")
	cmd.Flags().DurationVar(&pollInterval, "poll-interval", 10*time.Second, "interval between status checks")
	cmd.Flags().DurationVar(&maxWait, "max-wait", 300*time.Second, "how long to wait for the run before giving up")
	cmd.Flags().DurationVar(&settleDelay, "settle-delay", 2*time.Second, "pause between the health probe and the trigger")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(scheduler.ExitUnreachable)
	}
	os.Exit(exitCode)
}
