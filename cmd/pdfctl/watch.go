package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"pdf-chat-be/pkg/events"
	pktNats "pdf-chat-be/pkg/nats"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Tail document and user events from NATS",
	Args:  cobra.NoArgs,
	RunE:  runWatch,
}

var watchType string

func init() {
	watchCmd.Flags().StringVar(&watchType, "type", "*", "Event type to follow, e.g. DOCUMENT_FAILED")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		return err
	}
	defer sub.Close()

	if err := sub.Subscribe(ctx, watchType, "", printEvent); err != nil {
		return err
	}

	color.Cyan("Watching %s on %s (Ctrl+C to stop)", pktNats.Subject(watchType), cfg.App.NatsURL)
	<-ctx.Done()
	return nil
}

func printEvent(ctx context.Context, event events.Event) error {
	paint := color.New(color.FgCyan)
	switch {
	case event.EventType() == events.DocumentFailed:
		paint = color.New(color.FgRed)
	case event.EventType() == events.DocumentDeleted:
		paint = color.New(color.FgYellow)
	case events.IsDocumentEvent(event.EventType()):
		paint = color.New(color.FgGreen)
	}

	payload := event.Payload()
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, payload[k]))
	}

	paint.Printf("%s %-18s %s\n", event.Timestamp().Format(time.RFC3339), event.EventType(), strings.Join(parts, " "))
	return nil
}
