// Command dashboard is a terminal front-end for the curation service.
// It shows the current dataset immediately, attaches to a run already
// in flight, and lets the user trigger a refresh without ever blanking
// the screen while one is working.
package main

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/RaphaelInbix/agente-cassiano/internal/dashboard"
	"github.com/RaphaelInbix/agente-cassiano/pkg/client"
)

// terminalView renders controller updates as plain text lines.
type terminalView struct {
	mu  sync.Mutex
	out io.Writer
}

func (v *terminalView) RenderDataset(ds client.Dataset) {
	v.mu.Lock()
	defer v.mu.Unlock()

	fmt.Fprintf(v.out, "\n=== Curadoria Inbix ===\n")
	if ds.UpdatedAt != nil {
		fmt.Fprintf(v.out, "atualizado em %s | %d itens | geracao %d\n\n",
			ds.UpdatedAt.Local().Format("02/01/2006 15:04"), ds.Total, ds.Generation)
	} else {
		fmt.Fprintf(v.out, "nenhuma curadoria executada ainda\n\n")
	}

	for i, item := range ds.Items {
		fmt.Fprintf(v.out, "%2d. [%s] %s (%.0f)\n", i+1, item.Source, item.Title, item.RelevanceScore)
		if item.Channel != "" {
			fmt.Fprintf(v.out, "    %s | %s\n", item.Channel, item.URL)
		} else {
			fmt.Fprintf(v.out, "    %s\n", item.URL)
		}
	}
	fmt.Fprintln(v.out)
}

func (v *terminalView) RenderStatus(state client.JobState) {
	v.mu.Lock()
	defer v.mu.Unlock()

	switch state.Status {
	case client.JobRunning:
		fmt.Fprintln(v.out, "status: coletando conteudo...")
	default:
		if state.Detail != "" {
			fmt.Fprintf(v.out, "status: %s (%s)\n", state.Status, state.Detail)
		} else {
			fmt.Fprintf(v.out, "status: %s\n", state.Status)
		}
	}
}

func (v *terminalView) RenderError(msg string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintf(v.out, "erro: %s\n", msg)
}

func main() {
	var (
		serviceURL   string
		pollInterval time.Duration
	)

	cmd := &cobra.Command{
		Use:           "dashboard",
		Short:         "Interactive terminal view of the curated dataset",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := slog.New(slog.NewTextHandler(io.Discard, nil))

			opts := dashboard.DefaultOptions()
			opts.PollInterval = pollInterval

			api := client.New(serviceURL, 30*time.Second)
			view := &terminalView{out: os.Stdout}
			ctrl := dashboard.NewController(api, view, opts, logger)
			defer ctrl.Close()

			ctrl.Load(cmd.Context())

			fmt.Println("comandos: [r] atualizar curadoria, [q] sair")
			scanner := bufio.NewScanner(os.Stdin)
			for scanner.Scan() {
				switch strings.TrimSpace(strings.ToLower(scanner.Text())) {
				case "r":
					ctrl.Refresh(cmd.Context())
				case "q":
					return nil
				}
			}
			return scanner.Err()
		},
	}

	cmd.Flags().StringVar(&serviceURL, "url", "http://localhost:8080", "base URL of the curation service")
	cmd.Flags().DurationVar(&pollInterval, "poll-interval", 2*time.Second, "interval between status checks while a run is active")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
