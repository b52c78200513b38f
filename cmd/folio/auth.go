package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/folio/internal/client"
	"github.com/alfredjeanlab/folio/internal/ui"
)

// readSecret returns the flag value when set, otherwise prompts for it.
func readSecret(cmd *cobra.Command, flag, prompt string) (string, error) {
	if v, _ := cmd.Flags().GetString(flag); v != "" {
		return v, nil
	}
	return ui.ReadPassword(cmd.InOrStdin(), cmd.ErrOrStderr(), prompt)
}

var loginCmd = &cobra.Command{
	Use:     "login [<username>]",
	Short:   "Log in and store the session token for the active remote",
	GroupID: "system",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		username := "admin"
		if len(args) == 1 {
			username = args[0]
		} else if !cmd.Flags().Changed("password") {
			u, err := ui.ReadLine(cmd.InOrStdin(), cmd.ErrOrStderr(), "Username [admin]: ")
			if err != nil {
				return err
			}
			if u != "" {
				username = u
			}
		}
		password, err := readSecret(cmd, "password", "Password: ")
		if err != nil {
			return err
		}

		l, err := httpAPI.Login(cmd.Context(), username, password)
		if err != nil {
			return err
		}
		name, err := storeToken(httpURL, l.Token)
		if err != nil {
			return fmt.Errorf("saving token: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (remote %q, expires %s)\n",
			username, name, l.ExpiresAt.Local().Format("2006-01-02 15:04"))
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:     "logout",
	Short:   "Revoke the session token and forget it",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := httpAPI.Logout(cmd.Context()); err != nil {
			return err
		}
		if _, err := storeToken(httpURL, ""); err != nil {
			return fmt.Errorf("clearing token: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
		return nil
	},
}

var passwdCmd = &cobra.Command{
	Use:     "passwd",
	Short:   "Change the admin password",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		oldPassword, err := readSecret(cmd, "old", "Current password: ")
		if err != nil {
			return err
		}
		newPassword, err := readSecret(cmd, "new", "New password: ")
		if err != nil {
			return err
		}
		if !cmd.Flags().Changed("new") {
			confirm, err := ui.ReadPassword(cmd.InOrStdin(), cmd.ErrOrStderr(), "Repeat new password: ")
			if err != nil {
				return err
			}
			if confirm != newPassword {
				return fmt.Errorf("passwords do not match")
			}
		}
		if err := httpAPI.ChangePassword(cmd.Context(), oldPassword, newPassword); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Password changed")
		return nil
	},
}

var healthCmd = &cobra.Command{
	Use:     "health",
	Short:   "Check the health of the folio backend",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if g, ok := remote.(*client.GRPCClient); ok {
			status, err := g.Health(cmd.Context())
			if err != nil {
				return fmt.Errorf("checking health: %w", err)
			}
			if jsonOutput {
				return printJSON(out, map[string]string{"status": status})
			}
			fmt.Fprintf(out, "Health: %s\n", status)
			if status != "SERVING" {
				return fmt.Errorf("unhealthy: %s", status)
			}
			return nil
		}

		h, err := httpAPI.Health(cmd.Context())
		if err != nil {
			return fmt.Errorf("checking health: %w", err)
		}
		if jsonOutput {
			return printJSON(out, h)
		}
		fmt.Fprintf(out, "Health: %s (version %s)\n", h.Status, h.Version)
		if h.Status != "healthy" {
			return fmt.Errorf("unhealthy: %s", h.Status)
		}
		return nil
	},
}

func init() {
	loginCmd.Flags().String("password", "", "password (prompted when omitted)")
	passwdCmd.Flags().String("old", "", "current password (prompted when omitted)")
	passwdCmd.Flags().String("new", "", "new password (prompted when omitted)")
}
