package main

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// editRemotes loads the remotes file, applies fn and saves the result
// unless fn fails.
func editRemotes(fn func(cfg *RemotesConfig) error) error {
	cfg, err := loadRemotesConfig()
	if err != nil {
		return err
	}
	if err := fn(&cfg); err != nil {
		return err
	}
	return saveRemotesConfig(cfg)
}

func (cfg *RemotesConfig) lookup(name string) (Remote, error) {
	r, ok := cfg.Remotes[name]
	if !ok {
		return Remote{}, fmt.Errorf("remote %q not found (see 'folio remote list')", name)
	}
	return r, nil
}

var remoteCmd = &cobra.Command{
	Use:     "remote",
	Short:   "Manage named folio servers and their tokens",
	GroupID: "system",
	// Only touches the local remotes file.
	PersistentPreRunE: skipConnect,
}

var remoteAddCmd = &cobra.Command{
	Use:   "add <name> <url>",
	Short: "Add a remote, or update it if the name exists",
	Long: `Add a remote, or update it if the name exists. The first remote added
becomes the active one. Re-adding without --token keeps the stored token.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, url := args[0], args[1]
		next := Remote{URL: url}
		next.Token, _ = cmd.Flags().GetString("token")
		next.GRPCAddr, _ = cmd.Flags().GetString("grpc-addr")
		next.NATSURL, _ = cmd.Flags().GetString("nats")

		err := editRemotes(func(cfg *RemotesConfig) error {
			if next.Token == "" {
				next.Token = cfg.Remotes[name].Token
			}
			cfg.Remotes[name] = next
			if cfg.Active == "" {
				cfg.Active = name
			}
			return nil
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "remote %q -> %s\n", name, url)
		return nil
	},
}

var remoteRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Forget a remote",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		err := editRemotes(func(cfg *RemotesConfig) error {
			if _, err := cfg.lookup(name); err != nil {
				return err
			}
			delete(cfg.Remotes, name)
			if cfg.Active == name {
				cfg.Active = ""
			}
			return nil
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "remote %q removed\n", name)
		return nil
	},
}

var remoteUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Make a remote the default for every command",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		err := editRemotes(func(cfg *RemotesConfig) error {
			if _, err := cfg.lookup(name); err != nil {
				return err
			}
			cfg.Active = name
			return nil
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "now using remote %q\n", name)
		return nil
	},
}

var remoteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List remotes; the active one is marked with *",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadRemotesConfig()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(cfg.Remotes) == 0 {
			fmt.Fprintln(out, "no remotes configured (add one with 'folio remote add <name> <url>')")
			return nil
		}
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "  NAME\tURL\tGRPC\tTOKEN")
		for _, name := range slices.Sorted(maps.Keys(cfg.Remotes)) {
			r := cfg.Remotes[name]
			mark := "  "
			if name == cfg.Active {
				mark = "* "
			}
			fmt.Fprintf(w, "%s%s\t%s\t%s\t%s\n", mark, name, r.URL, r.GRPCAddr, truncateToken(r.Token))
		}
		return w.Flush()
	},
}

var remoteShowCmd = &cobra.Command{
	Use:   "show [<name>]",
	Short: "Show one remote (default: the active one)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadRemotesConfig()
		if err != nil {
			return err
		}
		name := cfg.Active
		if len(args) == 1 {
			name = args[0]
		}
		if name == "" {
			return fmt.Errorf("no active remote; pass a name or run 'folio remote use <name>'")
		}
		r, err := cfg.lookup(name)
		if err != nil {
			return err
		}
		return printRemote(cmd.OutOrStdout(), name, r, name == cfg.Active)
	},
}

func printRemote(out io.Writer, name string, r Remote, active bool) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if active {
		name += " (active)"
	}
	for _, row := range [][2]string{
		{"name", name},
		{"url", r.URL},
		{"grpc_addr", r.GRPCAddr},
		{"token", maskToken(r.Token)},
		{"nats_url", r.NATSURL},
	} {
		if row[1] != "" {
			fmt.Fprintf(w, "%s:\t%s\n", row[0], row[1])
		}
	}
	return w.Flush()
}

// maskToken keeps the first 8 characters of a token and stars the rest.
func maskToken(token string) string {
	if len(token) <= 8 {
		return token
	}
	return token[:8] + strings.Repeat("*", len(token)-8)
}

func truncateToken(token string) string {
	if len(token) > 8 {
		return token[:8] + "..."
	}
	return token
}

func init() {
	remoteAddCmd.Flags().String("token", "", "bearer token (kept from the existing remote when empty)")
	remoteAddCmd.Flags().String("grpc-addr", "", "gRPC address used with --transport grpc")
	remoteAddCmd.Flags().String("nats", "", "NATS URL used by 'folio watch'")

	remoteCmd.AddCommand(remoteAddCmd, remoteUseCmd, remoteListCmd, remoteShowCmd, remoteRemoveCmd)
}
