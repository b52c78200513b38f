package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/folio/internal/editor"
	"github.com/alfredjeanlab/folio/internal/model"
)

func parseCollectionArg(s string) (model.Collection, error) {
	c, err := model.ParseCollection(s)
	if err != nil {
		return "", fmt.Errorf("%w %q (want one of %v)", editor.ErrUnknownCollection, s, model.Collections)
	}
	return c, nil
}

var showCmd = &cobra.Command{
	Use:     "show [<collection> <id>]",
	Short:   "Show the document summary or a single item",
	GroupID: "content",
	Args:    cobra.RangeArgs(0, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		ed, err := loadEditor(cmd.Context())
		if err != nil {
			return err
		}
		if len(args) == 0 {
			doc := ed.Snapshot()
			if jsonOutput {
				return printJSON(out, doc)
			}
			printSummary(out, doc)
			return nil
		}
		if len(args) != 2 {
			return fmt.Errorf("show needs both a collection and an id")
		}
		c, err := parseCollectionArg(args[0])
		if err != nil {
			return err
		}
		item, found, err := ed.Get(c, args[1])
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("no %s item with id %s", c, args[1])
		}
		if jsonOutput {
			return printJSON(out, item)
		}
		printItemDetail(out, item)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:     "list <collection>",
	Short:   "List the items of a collection",
	GroupID: "content",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := parseCollectionArg(args[0])
		if err != nil {
			return err
		}
		ed, err := loadEditor(cmd.Context())
		if err != nil {
			return err
		}
		items, err := ed.List(c)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), items)
		}
		return printItemTable(cmd.OutOrStdout(), c, items)
	},
}

var addCmd = &cobra.Command{
	Use:   "add <collection> [key=value ...]",
	Short: "Add an item to a collection",
	Long: `Add an item to a collection and save the document.

Fields are given as key=value pairs using the document's JSON field names.
Values that look like JSON (numbers, booleans, arrays, objects) are passed
through as JSON, everything else is a string:

  folio add skill name=Go category=programming level=80
  folio add project title=Folio 'technologies=["Go","NATS"]' featured=true --image shot.png`,
	GroupID: "content",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := parseCollectionArg(args[0])
		if err != nil {
			return err
		}
		file, _ := cmd.Flags().GetString("file")
		image, _ := cmd.Flags().GetString("image")
		fields, err := gatherFields(file, cmd.InOrStdin(), args[1:], c.Zero())
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		ed, err := loadEditor(ctx)
		if err != nil {
			return err
		}

		var item model.Item
		if image != "" {
			f, err := os.Open(image)
			if err != nil {
				return fmt.Errorf("opening image: %w", err)
			}
			defer f.Close()
			decoded, err := ed.Snapshot().DecodeItem(c, fields, "")
			if err != nil {
				return err
			}
			item, err = ed.AddWithImage(ctx, c, decoded, editor.Upload{Filename: image, Body: f})
			if err != nil {
				return err
			}
		} else {
			item, err = ed.AddFields(ctx, c, fields)
			if err != nil {
				return err
			}
		}

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), item)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s\n", c, item.ItemID())
		return nil
	},
}

var updateCmd = &cobra.Command{
	Use:   "update <collection> <id> [key=value ...]",
	Short: "Update fields of an item",
	Long: `Update fields of an item and save the document. Fields not given keep
their current value. Updating an id that does not exist changes nothing.`,
	GroupID: "content",
	Args:    cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := parseCollectionArg(args[0])
		if err != nil {
			return err
		}
		id := args[1]
		file, _ := cmd.Flags().GetString("file")
		patch, err := gatherFields(file, cmd.InOrStdin(), args[2:], c.Zero())
		if err != nil {
			return err
		}

		ed, err := loadEditor(cmd.Context())
		if err != nil {
			return err
		}
		item, found, err := ed.Update(cmd.Context(), c, id, patch)
		if err != nil {
			return err
		}
		if !found {
			fmt.Fprintf(cmd.ErrOrStderr(), "no %s item with id %s; nothing changed\n", c, id)
			return nil
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), item)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated %s %s\n", c, id)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:     "delete <collection> <id>",
	Short:   "Delete an item",
	GroupID: "content",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := parseCollectionArg(args[0])
		if err != nil {
			return err
		}
		ed, err := loadEditor(cmd.Context())
		if err != nil {
			return err
		}
		found, err := ed.Delete(cmd.Context(), c, args[1])
		if err != nil {
			return err
		}
		if !found {
			fmt.Fprintf(cmd.ErrOrStderr(), "no %s item with id %s; nothing deleted\n", c, args[1])
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %s\n", c, args[1])
		return nil
	},
}

var setCmd = &cobra.Command{
	Use:   "set <personal|social|theme|stats> key=value ...",
	Short: "Edit personal info, social links, theme or stats",
	Long: `Edit one of the document's singleton sections:

  folio set personal name="Ada Lovelace" title=Engineer
  folio set social github=https://github.com/ada
  folio set theme primary_color=#112233
  folio set stats years_experience=7`,
	GroupID: "content",
	Args:    cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var target func(doc *model.Document) any
		switch args[0] {
		case "personal", "personal_info", "profile":
			target = func(doc *model.Document) any { return &doc.PersonalInfo }
		case "social", "social_links":
			target = func(doc *model.Document) any { return &doc.SocialLinks }
		case "theme":
			target = func(doc *model.Document) any { return &doc.Theme }
		case "stats":
			target = func(doc *model.Document) any { return &doc.Stats }
		default:
			return fmt.Errorf("unknown section %q (want personal, social, theme or stats)", args[0])
		}
		patch, err := parseFields(args[1:], target(&model.Document{}))
		if err != nil {
			return err
		}

		ed, err := loadEditor(cmd.Context())
		if err != nil {
			return err
		}
		err = ed.Edit(cmd.Context(), func(doc *model.Document) error {
			if err := mergeInto(target(doc), patch); err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			return nil
		})
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), target(ed.Snapshot()))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", args[0])
		return nil
	},
}

func init() {
	addCmd.Flags().String("file", "", "read fields from a JSON object file (- for stdin)")
	addCmd.Flags().String("image", "", "upload this image first and store its path on the item")
	updateCmd.Flags().String("file", "", "read fields from a JSON object file (- for stdin)")
}
