package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/folio/internal/client"
	"github.com/alfredjeanlab/folio/internal/model"
)

var inboxCmd = &cobra.Command{
	Use:     "inbox",
	Short:   "Read and triage contact messages",
	GroupID: "inbox",
	Args:    cobra.NoArgs,
	RunE:    runInboxList,
}

var inboxListCmd = &cobra.Command{
	Use:   "list",
	Short: "List messages, newest first",
	Args:  cobra.NoArgs,
	RunE:  runInboxList,
}

func runInboxList(cmd *cobra.Command, args []string) error {
	ed, err := loadEditor(cmd.Context())
	if err != nil {
		return err
	}
	in := ed.Inbox()
	msgs := in.Messages()
	unreadOnly, _ := cmd.Flags().GetBool("unread")

	items := make([]model.Item, 0, len(msgs))
	for _, m := range msgs {
		if unreadOnly && m.Read {
			continue
		}
		items = append(items, m)
	}
	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, items)
	}
	if err := printItemTable(out, model.CollectionMessages, items); err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%d unread\n", in.UnreadCount())
	return err
}

var inboxReadCmd = &cobra.Command{
	Use:   "read <id>",
	Short: "Show a message and mark it read",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ed, err := loadEditor(cmd.Context())
		if err != nil {
			return err
		}
		found, err := ed.Inbox().MarkRead(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("no message with id %s", args[0])
		}
		item, _, _ := ed.Get(model.CollectionMessages, args[0])
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), item)
		}
		printItemDetail(cmd.OutOrStdout(), item)
		return nil
	},
}

var inboxUnreadCmd = &cobra.Command{
	Use:   "unread <id>",
	Short: "Mark a message unread",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ed, err := loadEditor(cmd.Context())
		if err != nil {
			return err
		}
		found, err := ed.Inbox().MarkUnread(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("no message with id %s", args[0])
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Marked %s unread\n", args[0])
		return nil
	},
}

var inboxReadAllCmd = &cobra.Command{
	Use:   "read-all",
	Short: "Mark every message read",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ed, err := loadEditor(cmd.Context())
		if err != nil {
			return err
		}
		n, err := ed.Inbox().MarkAllRead(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Marked %d message(s) read\n", n)
		return nil
	},
}

var inboxDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a message",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ed, err := loadEditor(cmd.Context())
		if err != nil {
			return err
		}
		found, err := ed.Inbox().Delete(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !found {
			fmt.Fprintf(cmd.ErrOrStderr(), "no message with id %s; nothing deleted\n", args[0])
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted message %s\n", args[0])
		return nil
	},
}

var messageCmd = &cobra.Command{
	Use:     "message",
	Short:   "Use the public contact form",
	GroupID: "inbox",
}

var messageSendCmd = &cobra.Command{
	Use:   "send <text>",
	Short: "Submit a message through the public contact form",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := &client.MessageRequest{Message: args[0]}
		req.FirstName, _ = cmd.Flags().GetString("first-name")
		req.LastName, _ = cmd.Flags().GetString("last-name")
		req.Email, _ = cmd.Flags().GetString("email")
		req.Subject, _ = cmd.Flags().GetString("subject")
		if err := httpAPI.SendMessage(cmd.Context(), req); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Message sent")
		return nil
	},
}

func init() {
	inboxCmd.Flags().Bool("unread", false, "only show unread messages")
	inboxListCmd.Flags().Bool("unread", false, "only show unread messages")

	inboxCmd.AddCommand(inboxListCmd)
	inboxCmd.AddCommand(inboxReadCmd)
	inboxCmd.AddCommand(inboxUnreadCmd)
	inboxCmd.AddCommand(inboxReadAllCmd)
	inboxCmd.AddCommand(inboxDeleteCmd)

	messageSendCmd.Flags().String("first-name", "", "sender first name (required)")
	messageSendCmd.Flags().String("last-name", "", "sender last name")
	messageSendCmd.Flags().String("email", "", "sender email address (required)")
	messageSendCmd.Flags().String("subject", "", "message subject")
	_ = messageSendCmd.MarkFlagRequired("first-name")
	_ = messageSendCmd.MarkFlagRequired("email")
	messageCmd.AddCommand(messageSendCmd)
}
