package main

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/folio/internal/model"
	"github.com/alfredjeanlab/folio/internal/render"
)

// outputFile returns the writer for -o, or stdout when path is empty.
func outputFile(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

var renderCmd = &cobra.Command{
	Use:   "render [<section>]",
	Short: "Render the site page or one section as HTML",
	Long: `Render the portfolio from the current document. Without a section the
full page is written. Sections: hero, about, skills, projects, experience,
education, certifications, social, messages.`,
	GroupID: "site",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := render.New()
		if err != nil {
			return err
		}
		var section render.Section
		if len(args) == 1 {
			if section, err = render.ParseSection(args[0]); err != nil {
				return err
			}
		}

		doc, err := remote.FetchConfig(cmd.Context())
		if err != nil {
			return err
		}

		path, _ := cmd.Flags().GetString("output")
		w, closeFn, err := outputFile(cmd, path)
		if err != nil {
			return err
		}
		if section == "" {
			err = r.Page(w, doc)
		} else {
			err = r.Section(w, section, doc)
		}
		if cerr := closeFn(); err == nil {
			err = cerr
		}
		return err
	},
}

// pageRenderer returns an editor change hook that writes the rendered page
// to path. Failures are logged and never abort the edit.
func pageRenderer(path string) (func(*model.Document), error) {
	r, err := render.New()
	if err != nil {
		return nil, err
	}
	return func(doc *model.Document) {
		var buf bytes.Buffer
		if err := r.Page(&buf, doc); err != nil {
			slog.Warn("rendering page failed", "path", path, "err", err)
			return
		}
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			slog.Warn("writing rendered page failed", "path", path, "err", err)
		}
	}, nil
}

var exportCmd = &cobra.Command{
	Use:     "export",
	Short:   "Write the document as JSON or YAML",
	GroupID: "site",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		formatName, _ := cmd.Flags().GetString("format")
		format, err := model.ParseFormat(formatName)
		if err != nil {
			return err
		}
		ed, err := loadEditor(cmd.Context())
		if err != nil {
			return err
		}
		path, _ := cmd.Flags().GetString("output")
		w, closeFn, err := outputFile(cmd, path)
		if err != nil {
			return err
		}
		err = ed.Export(w, format)
		if cerr := closeFn(); err == nil {
			err = cerr
		}
		return err
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the document with one read from a file",
	Long: `Replace the whole document with the contents of a JSON or YAML file
("-" reads stdin). The server keeps its admin credentials.`,
	GroupID: "site",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		formatName, _ := cmd.Flags().GetString("format")
		if formatName == "" {
			formatName = formatFromPath(args[0])
		}
		format, err := model.ParseFormat(formatName)
		if err != nil {
			return err
		}

		var r io.Reader = cmd.InOrStdin()
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			r = f
		}

		ed, err := loadEditor(cmd.Context())
		if err != nil {
			return err
		}
		if err := ed.Import(cmd.Context(), r, format); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %s\n", args[0])
		return nil
	},
}

func formatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return string(model.FormatYAML)
	}
	return string(model.FormatJSON)
}

var imageCmd = &cobra.Command{
	Use:     "image",
	Short:   "Upload and delete site images",
	GroupID: "site",
}

var imageUploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload an image and print its public path",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, _ := cmd.Flags().GetString("type")
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		img, err := httpAPI.UploadImage(cmd.Context(), kind, args[0], f)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), img)
		}
		fmt.Fprintln(cmd.OutOrStdout(), img.Path)
		return nil
	},
}

var imageDeleteCmd = &cobra.Command{
	Use:   "delete <path>",
	Short: "Delete an uploaded image by its public path",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deleted, err := remote.DeleteImage(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !deleted {
			return fmt.Errorf("file not found: %s", args[0])
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
		return nil
	},
}

var backupCmd = &cobra.Command{
	Use:     "backup",
	Short:   "Create, list and restore server-side snapshots",
	GroupID: "site",
}

var backupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Snapshot the document on the server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := remote.CreateBackup(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Backup created: %s\n", name)
		return nil
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore <name>",
	Short: "Replace the document with a server-side snapshot",
	Long: `Replace the document with a snapshot from 'folio backup list'. The
admin credentials on the server are kept.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := httpAPI.RestoreBackup(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Restored %s\n", args[0])
		return nil
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List server-side snapshots, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		backups, err := httpAPI.ListBackups(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, backups)
		}
		if len(backups) == 0 {
			fmt.Fprintln(out, "no backups")
			return nil
		}
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tSIZE\tCREATED")
		for _, b := range backups {
			fmt.Fprintf(w, "%s\t%d\t%s\n", b.Name, b.Size, b.Created.Local().Format("2006-01-02 15:04:05"))
		}
		return w.Flush()
	},
}

var visitCmd = &cobra.Command{
	Use:     "visit",
	Short:   "Record a site visit and print the visitor count",
	GroupID: "site",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		total, err := httpAPI.RecordVisit(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d visitors\n", total)
		return nil
	},
}

func init() {
	renderCmd.Flags().StringP("output", "o", "", "write to this file instead of stdout")
	exportCmd.Flags().String("format", "json", "output format (json or yaml)")
	exportCmd.Flags().StringP("output", "o", "", "write to this file instead of stdout")
	importCmd.Flags().String("format", "", "input format (json or yaml, default from the file extension)")

	imageUploadCmd.Flags().String("type", "misc", "image folder: profile, project or misc")
	imageCmd.AddCommand(imageUploadCmd)
	imageCmd.AddCommand(imageDeleteCmd)

	backupCmd.AddCommand(backupCreateCmd)
	backupCmd.AddCommand(backupListCmd)
	backupCmd.AddCommand(backupRestoreCmd)
}
