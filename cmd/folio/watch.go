package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/folio/internal/events"
)

var watchCmd = &cobra.Command{
	Use:   "watch [<topic> ...]",
	Short: "Print backend events as they happen",
	Long: `Print backend events (config saves, new messages, uploads, backups).

Topics use NATS syntax and default to "folio.>". Events come from NATS when
a NATS URL is known (--nats, FOLIO_NATS_URL or the active remote), and from
the server's event stream otherwise.`,
	GroupID: "site",
	RunE: func(cmd *cobra.Command, args []string) error {
		topics := args
		if len(topics) == 0 {
			topics = []string{events.TopicAll}
		}
		limit, _ := cmd.Flags().GetInt("count")
		natsURL, _ := cmd.Flags().GetString("nats")
		if natsURL == "" {
			natsURL = os.Getenv("FOLIO_NATS_URL")
		}
		if natsURL == "" {
			natsURL = activeRemote().NATSURL
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		var ch <-chan events.Envelope
		if natsURL != "" {
			sub, err := events.NewNATSSubscriber(natsURL,
				nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
					slog.Warn("nats: disconnected", "error", err)
				}),
				nats.ReconnectHandler(func(_ *nats.Conn) {
					slog.Info("nats: reconnected")
				}),
			)
			if err != nil {
				return fmt.Errorf("connecting to NATS: %w", err)
			}
			defer sub.Close()
			merged, stop, err := subscribeAll(sub, topics)
			if err != nil {
				return err
			}
			defer stop()
			ch = merged
		} else {
			stream, err := httpAPI.StreamEvents(ctx, topics)
			if err != nil {
				return fmt.Errorf("opening event stream: %w", err)
			}
			ch = stream
		}
		return printEvents(ctx, cmd.OutOrStdout(), ch, limit)
	},
}

// subscribeAll subscribes to every topic and merges the deliveries into one
// channel. The returned stop function unsubscribes all of them.
func subscribeAll(sub events.Subscriber, topics []string) (<-chan events.Envelope, func(), error) {
	out := make(chan events.Envelope, 64)
	var (
		cancels []func()
		wg      sync.WaitGroup
	)
	stop := func() {
		for _, c := range cancels {
			c()
		}
	}
	for _, t := range topics {
		ch, cancel, err := sub.Subscribe(t)
		if err != nil {
			stop()
			return nil, nil, err
		}
		cancels = append(cancels, cancel)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for env := range ch {
				out <- env
			}
		}()
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out, stop, nil
}

// printEvents writes each event on its own line until ctx is done, ch is
// closed or limit events have been printed (0 means no limit).
func printEvents(ctx context.Context, w io.Writer, ch <-chan events.Envelope, limit int) error {
	n := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case env, ok := <-ch:
			if !ok {
				return nil
			}
			if err := printEvent(w, env, time.Now()); err != nil {
				return err
			}
			n++
			if limit > 0 && n >= limit {
				return nil
			}
		}
	}
}

func printEvent(w io.Writer, env events.Envelope, at time.Time) error {
	if jsonOutput {
		line := struct {
			Time  string          `json:"time"`
			Topic string          `json:"topic"`
			Data  json.RawMessage `json:"data,omitempty"`
		}{at.UTC().Format(time.RFC3339), env.Topic, nil}
		if json.Valid(env.Data) {
			line.Data = env.Data
		}
		data, err := json.Marshal(line)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}
	_, err := fmt.Fprintf(w, "%s  %-24s %s\n", at.Local().Format("15:04:05"), env.Topic, env.Data)
	return err
}

func init() {
	watchCmd.Flags().String("nats", "", "NATS URL to subscribe to")
	watchCmd.Flags().Int("count", 0, "exit after this many events")
}
