package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/alfredjeanlab/folio/internal/model"
	"github.com/alfredjeanlab/folio/internal/ui"
)

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n-3] + "..."
	}
	return s
}

func boolMark(b bool) string {
	if b {
		return "yes"
	}
	return ""
}

// listColumns returns the table header for a collection.
func listColumns(c model.Collection) []string {
	switch c {
	case model.CollectionSkills:
		return []string{"ID", "NAME", "CATEGORY", "LEVEL"}
	case model.CollectionProjects:
		return []string{"ID", "TITLE", "CATEGORY", "FEATURED", "TECHNOLOGIES"}
	case model.CollectionExperience:
		return []string{"ID", "COMPANY", "POSITION", "FROM", "TO"}
	case model.CollectionEducation:
		return []string{"ID", "INSTITUTION", "DEGREE", "FIELD"}
	case model.CollectionCertifications:
		return []string{"ID", "NAME", "ISSUER", "DATE"}
	case model.CollectionMessages:
		return []string{"", "ID", "FROM", "EMAIL", "SUBJECT", "RECEIVED"}
	}
	return []string{"ID"}
}

func listRow(item model.Item) []string {
	switch v := item.(type) {
	case model.Skill:
		return []string{v.ID, v.Name, v.Category, strconv.Itoa(v.Level)}
	case model.Project:
		return []string{v.ID, truncate(v.Title, 40), v.Category, boolMark(v.Featured), truncate(strings.Join(v.Technologies, ", "), 40)}
	case model.Experience:
		to := v.EndDate
		if v.Current {
			to = "present"
		}
		return []string{v.ID, v.Company, v.Position, v.StartDate, to}
	case model.Education:
		return []string{v.ID, v.Institution, v.Degree, v.Field}
	case model.Certification:
		return []string{v.ID, v.Name, v.Issuer, v.Date}
	case model.Message:
		marker := " "
		if !v.Read {
			marker = ui.RenderAccent("*")
		}
		from := strings.TrimSpace(v.FirstName + " " + v.LastName)
		return []string{marker, v.ID, from, v.Email, truncate(v.Subject, 40), formatTimestamp(v.Timestamp)}
	}
	return []string{item.ItemID()}
}

func printItemTable(w io.Writer, c model.Collection, items []model.Item) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(listColumns(c), "\t"))
	for _, item := range items {
		fmt.Fprintln(tw, strings.Join(listRow(item), "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	noun := string(c)
	if len(items) == 1 {
		noun = strings.TrimSuffix(noun, "s")
	}
	_, err := fmt.Fprintf(w, "\n%d %s\n", len(items), noun)
	return err
}

// detailRows returns the labelled fields shown by "folio show <collection> <id>".
func detailRows(item model.Item) [][2]string {
	switch v := item.(type) {
	case model.Skill:
		return [][2]string{{"ID", v.ID}, {"Name", v.Name}, {"Category", v.Category}, {"Level", strconv.Itoa(v.Level)}, {"Icon", v.Icon}}
	case model.Project:
		return [][2]string{
			{"ID", v.ID}, {"Title", v.Title}, {"Description", v.Description},
			{"Technologies", strings.Join(v.Technologies, ", ")}, {"Image", v.Image},
			{"GitHub", v.GitHubURL}, {"Live", v.LiveURL}, {"Category", v.Category},
			{"Featured", strconv.FormatBool(v.Featured)}, {"Order", strconv.Itoa(v.Order)},
		}
	case model.Experience:
		rows := [][2]string{
			{"ID", v.ID}, {"Company", v.Company}, {"Position", v.Position}, {"Location", v.Location},
			{"Start", v.StartDate}, {"End", v.EndDate}, {"Current", strconv.FormatBool(v.Current)},
			{"Description", v.Description},
		}
		for _, a := range v.Achievements {
			rows = append(rows, [2]string{"Achievement", a})
		}
		return rows
	case model.Education:
		return [][2]string{
			{"ID", v.ID}, {"Institution", v.Institution}, {"Degree", v.Degree}, {"Field", v.Field},
			{"Start", v.StartDate}, {"End", v.EndDate}, {"GPA", v.GPA}, {"Description", v.Description},
		}
	case model.Certification:
		return [][2]string{
			{"ID", v.ID}, {"Name", v.Name}, {"Issuer", v.Issuer}, {"Date", v.Date},
			{"Credential", v.CredentialID}, {"URL", v.URL}, {"Image", v.Image},
		}
	case model.Message:
		return [][2]string{
			{"ID", v.ID}, {"From", strings.TrimSpace(v.FirstName + " " + v.LastName)}, {"Email", v.Email},
			{"Subject", v.Subject}, {"Received", formatTimestamp(v.Timestamp)}, {"Read", strconv.FormatBool(v.Read)},
			{"Message", v.Message},
		}
	}
	return [][2]string{{"ID", item.ItemID()}}
}

func printItemDetail(w io.Writer, item model.Item) {
	for _, r := range detailRows(item) {
		if r[1] == "" {
			continue
		}
		fmt.Fprintf(w, "%-14s%s\n", r[0]+":", r[1])
	}
}

// printSummary prints the document overview shown by a bare "folio show".
func printSummary(w io.Writer, doc *model.Document) {
	p := doc.PersonalInfo
	fmt.Fprintf(w, "%s\n", ui.RenderAccent(p.Name))
	if p.Title != "" {
		fmt.Fprintf(w, "%s\n", p.Title)
	}
	if p.Email != "" {
		fmt.Fprintf(w, "%s\n", ui.RenderMuted(p.Email))
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, c := range model.Collections {
		items, _ := doc.Items(c)
		extra := ""
		if c == model.CollectionMessages {
			if n := doc.UnreadMessages(); n > 0 {
				extra = fmt.Sprintf("(%d unread)", n)
			}
		}
		fmt.Fprintf(tw, "%s:\t%d\t%s\n", c, len(items), extra)
	}
	fmt.Fprintf(tw, "visitors:\t%d\t\n", doc.Stats.TotalVisitors)
	tw.Flush()

	if doc.Meta.LastUpdated != "" {
		fmt.Fprintf(w, "\n%s\n", ui.RenderMuted("last updated "+formatTimestamp(doc.Meta.LastUpdated)))
	}
}

func formatTimestamp(s string) string {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return s
	}
	return t.Local().Format("2006-01-02 15:04")
}
