package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/folio/internal/client"
	"github.com/alfredjeanlab/folio/internal/editor"
)

var (
	httpURL       string
	grpcAddr      string
	transport     string
	jsonOutput    bool
	onSaveFailure string
	fallbackPath  string
	renderPath    string

	// remote is the backend the editor persists through. httpAPI is always
	// set and serves the endpoints that only exist over HTTP.
	remote  client.Remote
	httpAPI *client.HTTPClient
)

func defaultHTTPURL() string {
	if s := os.Getenv("FOLIO_URL"); s != "" {
		return s
	}
	if u := activeRemote().URL; u != "" {
		return u
	}
	return "http://localhost:8000"
}

func defaultGRPCAddr() string {
	if s := os.Getenv("FOLIO_GRPC"); s != "" {
		return s
	}
	if a := activeRemote().GRPCAddr; a != "" {
		return a
	}
	return "localhost:9090"
}

func authToken() string {
	if s := os.Getenv("FOLIO_TOKEN"); s != "" {
		return s
	}
	return activeRemote().Token
}

// skipConnect overrides the root PersistentPreRunE for commands that work
// without a backend.
func skipConnect(cmd *cobra.Command, args []string) error { return nil }

var rootCmd = &cobra.Command{
	Use:           "folio <command>",
	Short:         "Manage a portfolio site and its content",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		token := authToken()
		opts := []client.HTTPOption{client.WithToken(token)}
		if fallbackPath != "" {
			opts = append(opts, client.WithFallback(fallbackPath))
		}
		httpAPI = client.NewHTTPClient(httpURL, opts...)

		switch transport {
		case "http":
			remote = httpAPI
		case "grpc":
			c, err := client.NewGRPCClient(grpcAddr, token)
			if err != nil {
				return fmt.Errorf("failed to connect to server: %w", err)
			}
			remote = c
		default:
			return fmt.Errorf("unknown transport %q (must be http or grpc)", transport)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if remote != nil {
			remote.Close()
		}
	},
}

// loadEditor returns an editor over the configured remote with the
// document already loaded. With --render the page is written on load and
// after each change.
func loadEditor(ctx context.Context) (*editor.Editor, error) {
	policy, err := editor.ParsePolicy(onSaveFailure)
	if err != nil {
		return nil, err
	}
	opts := []editor.Option{editor.WithPolicy(policy), editor.WithUploader(httpAPI)}
	if renderPath != "" {
		hook, err := pageRenderer(renderPath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, editor.WithChangeHook(hook))
	}
	ed := editor.New(remote, opts...)
	if err := ed.Load(ctx); err != nil {
		return nil, err
	}
	return ed, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&httpURL, "url", defaultHTTPURL(), "HTTP server URL")
	rootCmd.PersistentFlags().StringVar(&grpcAddr, "grpc", defaultGRPCAddr(), "gRPC server address")
	rootCmd.PersistentFlags().StringVar(&transport, "transport", "http", "transport protocol for document edits (http or grpc)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().StringVar(&onSaveFailure, "on-save-failure", editor.KeepLocal.String(),
		"what to do with local changes when a save fails (keep-local, rollback or refetch)")
	rootCmd.PersistentFlags().StringVar(&fallbackPath, "fallback", "", "static JSON document to read when the server is unreachable")
	rootCmd.PersistentFlags().StringVar(&renderPath, "render", "", "re-render the site page to this file after every change")

	rootCmd.AddGroup(
		&cobra.Group{ID: "content", Title: "Content:"},
		&cobra.Group{ID: "inbox", Title: "Inbox:"},
		&cobra.Group{ID: "site", Title: "Site:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)

	cobra.EnableCommandSorting = false
	rootCmd.SetHelpFunc(colorizedHelpFunc())

	// Content
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(setCmd)

	// Inbox
	rootCmd.AddCommand(inboxCmd)
	rootCmd.AddCommand(messageCmd)

	// Site
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(imageCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(visitCmd)
	rootCmd.AddCommand(watchCmd)

	// System
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(passwdCmd)
	rootCmd.AddCommand(remoteCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
