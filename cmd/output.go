package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"duetrack/internal/errs"
	"duetrack/internal/usecase/tracker"
)

const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

var (
	headingStyle  = lipgloss.NewStyle().Bold(true)
	overdueStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	upcomingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
)

func parseOutputFormat(raw string) (string, error) {
	switch format := strings.ToLower(strings.TrimSpace(raw)); format {
	case "", outputText:
		return outputText, nil
	case outputJSON, outputYAML:
		return format, nil
	default:
		return "", fmt.Errorf("unsupported output %q (want text|json|yaml)", raw)
	}
}

// writeStructured renders v as json or yaml. It reports false for text so the
// caller can print its own layout.
func writeStructured(w io.Writer, format string, v any) (bool, error) {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return true, errs.Wrap(enc.Encode(v), "encode json output")
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return true, errs.Wrap(err, "encode yaml output")
		}
		return true, errs.Wrap(enc.Close(), "close yaml encoder")
	default:
		return false, nil
	}
}

func dueText(view tracker.EquipmentView) string {
	if view.DueDate == nil {
		return "-"
	}
	return *view.DueDate
}

func writeEquipmentTable(w io.Writer, items []tracker.EquipmentView) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "ID\tNAME\tDUE\tINTERVAL\tSTATE\tACTIVE"); err != nil {
		return errs.Wrap(err, "write equipment header")
	}
	for _, item := range items {
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%dw\t%s\t%t\n",
			item.ID, item.Name, dueText(item), item.IntervalWeeks, item.State, item.Active); err != nil {
			return errs.Wrap(err, "write equipment row")
		}
	}
	return errs.Wrap(tw.Flush(), "flush equipment table")
}

func writeEquipmentDetail(w io.Writer, item tracker.EquipmentView) error {
	leadDate := "-"
	if item.LeadDate != nil {
		leadDate = *item.LeadDate
	}
	_, err := fmt.Fprintf(w,
		"id: %s\nname: %s\nclient: %s\nsite: %s\ntype: %s\nanchor: %s\ndue: %s\nlead: %s (%dw)\ninterval: %dw\nstate: %s\nactive: %t\ntimezone: %s\nnotes: %s\n",
		item.ID, item.Name, item.ClientID, item.SiteID, item.TypeID, item.AnchorDate,
		dueText(item), leadDate, item.LeadWeeks, item.IntervalWeeks, item.State, item.Active,
		item.Timezone, item.Notes,
	)
	return errs.Wrap(err, "write equipment detail")
}

func writeCompletionTable(w io.Writer, items []tracker.CompletionView) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "ID\tCOMPLETED_ON\tDUE\tNEXT_DUE\tINTERVAL\tPOLICY\tBY"); err != nil {
		return errs.Wrap(err, "write completion header")
	}
	for _, item := range items {
		satisfied := "-"
		if item.DueDateSatisfied != nil {
			satisfied = *item.DueDateSatisfied
		}
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%dw\t%s\t%s\n",
			item.ID, item.CompletedOn, satisfied, item.NextDueDate, item.IntervalWeeks, item.Policy, item.CompletedBy); err != nil {
			return errs.Wrap(err, "write completion row")
		}
	}
	return errs.Wrap(tw.Flush(), "flush completion table")
}

func writeDueReport(w io.Writer, report tracker.DueReport) error {
	if _, err := fmt.Fprintf(w, "%s today=%s window_end=%s lookahead=%dw\n",
		headingStyle.Render("Due report"), report.Today, report.WindowEnd, report.LookaheadWeeks); err != nil {
		return errs.Wrap(err, "write due report header")
	}

	sections := []struct {
		title string
		style lipgloss.Style
		items []tracker.EquipmentView
	}{
		{title: "Overdue", style: overdueStyle, items: report.Overdue},
		{title: "Upcoming", style: upcomingStyle, items: report.Upcoming},
		{title: "Remaining", style: headingStyle, items: report.Remaining},
	}
	for _, section := range sections {
		if _, err := fmt.Fprintf(w, "\n%s (%d)\n", section.style.Render(section.title), len(section.items)); err != nil {
			return errs.Wrap(err, "write due report section")
		}
		if len(section.items) == 0 {
			continue
		}
		if err := writeEquipmentTable(w, section.items); err != nil {
			return err
		}
	}
	return nil
}
