package dueconsole

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"duetrack/internal/bootstrap/logging"
	"duetrack/internal/domain/recurrence"
	"duetrack/internal/usecase/tracker"
)

const maxShownCompletions = 4
const maxAuditLines = 6

// DueService is the slice of the tracker the board drives.
type DueService interface {
	DueReport(ctx context.Context, input tracker.DueReportInput) (tracker.DueReport, error)
	CompleteEquipment(ctx context.Context, input tracker.CompleteInput) (tracker.CompleteResult, error)
	ListCompletions(ctx context.Context, equipmentID string, limit int) ([]tracker.CompletionView, error)
}

type DueOptions struct {
	Filter          recurrence.Filter
	Sort            recurrence.SortOptions
	LookaheadWeeks  *int
	Actor           string
	RefreshInterval time.Duration
}

type row struct {
	bucket recurrence.Bucket
	item   tracker.EquipmentView
}

type dueModel struct {
	ctx             context.Context
	service         DueService
	filter          recurrence.Filter
	sort            recurrence.SortOptions
	lookahead       *int
	actor           string
	refreshInterval time.Duration

	report        tracker.DueReport
	rows          []row
	selectedIndex int
	completions   []tracker.CompletionView
	status        string
	auditLogs     []string
}

type reportLoadedMsg struct {
	report tracker.DueReport
	err    error
}

type completionsLoadedMsg struct {
	equipmentID string
	items       []tracker.CompletionView
	err         error
}

type tickMsg struct{}

type actionDoneMsg struct {
	action      string
	equipmentID string
	result      string
	err         error
}

func NewDueModel(ctx context.Context, service DueService, options DueOptions) tea.Model {
	interval := options.RefreshInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	actor := strings.TrimSpace(options.Actor)
	if actor == "" {
		actor = "console"
	}
	sortOptions := options.Sort
	if sortOptions.By == "" {
		sortOptions.By = recurrence.SortByDueDate
	}

	return &dueModel{
		ctx:             ctx,
		service:         service,
		filter:          options.Filter,
		sort:            sortOptions,
		lookahead:       options.LookaheadWeeks,
		actor:           actor,
		refreshInterval: interval,
		status:          "loading",
	}
}

func (m *dueModel) Init() tea.Cmd {
	return tea.Batch(m.loadReportCmd(), m.tickCmd())
}

func (m *dueModel) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := message.(type) {
	case tickMsg:
		return m, tea.Batch(m.loadReportCmd(), m.tickCmd())
	case reportLoadedMsg:
		if msg.err != nil {
			m.status = "refresh failed: " + msg.err.Error()
			return m, nil
		}
		selectedID := m.selectedID()
		m.report = msg.report
		m.rows = flattenReport(msg.report)
		m.selectedIndex = indexOf(m.rows, selectedID, m.selectedIndex)
		if len(m.rows) == 0 {
			m.completions = nil
			m.status = "no equipment"
			return m, nil
		}
		m.status = fmt.Sprintf("refreshed: %d overdue, %d upcoming, %d remaining",
			len(msg.report.Overdue), len(msg.report.Upcoming), len(msg.report.Remaining))
		return m, m.loadCompletionsCmd()
	case completionsLoadedMsg:
		if msg.equipmentID != m.selectedID() {
			return m, nil
		}
		if msg.err != nil {
			m.completions = nil
			m.status = "history failed: " + msg.err.Error()
			return m, nil
		}
		m.completions = msg.items
		return m, nil
	case actionDoneMsg:
		m.appendAuditLog(msg.action, msg.equipmentID, msg.result, msg.err)
		if msg.err != nil {
			m.status = fmt.Sprintf("%s failed: %v", msg.action, msg.err)
		} else {
			m.status = fmt.Sprintf("%s done: %s", msg.action, msg.result)
		}
		return m, m.loadReportCmd()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "g":
			m.status = "refreshing"
			return m, m.loadReportCmd()
		case "up", "k":
			if m.selectedIndex > 0 {
				m.selectedIndex--
				return m, m.loadCompletionsCmd()
			}
			return m, nil
		case "down", "j":
			if m.selectedIndex < len(m.rows)-1 {
				m.selectedIndex++
				return m, m.loadCompletionsCmd()
			}
			return m, nil
		case "s":
			if m.sort.By == recurrence.SortByName {
				m.sort.By = recurrence.SortByDueDate
			} else {
				m.sort.By = recurrence.SortByName
			}
			return m, m.loadReportCmd()
		case "r":
			m.sort.Descending = !m.sort.Descending
			return m, m.loadReportCmd()
		case "d":
			return m, m.completeCmd(recurrence.PolicyDueDate)
		case "a":
			return m, m.completeCmd(recurrence.PolicyCompletionDate)
		}
	}
	return m, nil
}

func (m *dueModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true)
	sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	selectedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("62"))
	bucketStyles := map[recurrence.Bucket]lipgloss.Style{
		recurrence.BucketOverdue:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		recurrence.BucketUpcoming:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
		recurrence.BucketRemaining: sectionStyle,
	}

	direction := "asc"
	if m.sort.Descending {
		direction = "desc"
	}

	var builder strings.Builder
	builder.WriteString(titleStyle.Render("Due Board"))
	builder.WriteString("\n")
	builder.WriteString(dimStyle.Render(fmt.Sprintf(
		"today=%s window_end=%s lookahead=%dw sort=%s/%s client=%s site=%s refresh=%s",
		firstNonEmpty(m.report.Today, "-"),
		firstNonEmpty(m.report.WindowEnd, "-"),
		m.report.LookaheadWeeks,
		m.sort.By,
		direction,
		firstNonEmpty(m.filter.ClientID, "all"),
		firstNonEmpty(m.filter.SiteID, "all"),
		m.refreshInterval,
	)))
	builder.WriteString("\n\n")

	index := 0
	for _, bucket := range []recurrence.Bucket{recurrence.BucketOverdue, recurrence.BucketUpcoming, recurrence.BucketRemaining} {
		items := bucketItems(m.report, bucket)
		builder.WriteString(bucketStyles[bucket].Render(fmt.Sprintf("%s (%d)", strings.ToUpper(string(bucket)), len(items))))
		builder.WriteString("\n")
		if len(items) == 0 {
			builder.WriteString(dimStyle.Render("  - none"))
			builder.WriteString("\n")
		}
		for _, item := range items {
			line := fmt.Sprintf("%-10s %-28s every %dw  %s",
				firstNonEmpty(derefDate(item.DueDate), "unscheduled"),
				item.Name,
				item.IntervalWeeks,
				dimStyle.Render(item.ID),
			)
			if !item.Active {
				line += " (inactive)"
			}
			switch {
			case index == m.selectedIndex:
				builder.WriteString(selectedStyle.Render("> " + line))
			case !item.Active:
				builder.WriteString("  " + dimStyle.Render(line))
			default:
				builder.WriteString("  " + line)
			}
			builder.WriteString("\n")
			index++
		}
		builder.WriteString("\n")
	}

	builder.WriteString(sectionStyle.Render("History"))
	builder.WriteString("\n")
	if len(m.completions) == 0 {
		builder.WriteString(dimStyle.Render("- no completions"))
		builder.WriteString("\n")
	} else {
		shown := m.completions
		if len(shown) > maxShownCompletions {
			shown = shown[:maxShownCompletions]
		}
		for _, c := range shown {
			builder.WriteString(fmt.Sprintf("- %s due=%s next=%s policy=%s by=%s\n",
				c.CompletedOn,
				firstNonEmpty(derefDate(c.DueDateSatisfied), "-"),
				c.NextDueDate,
				c.Policy,
				firstNonEmpty(c.CompletedBy, "-"),
			))
		}
	}
	builder.WriteString("\n")

	builder.WriteString(sectionStyle.Render("Status"))
	builder.WriteString("\n")
	builder.WriteString("- " + firstNonEmpty(m.status, "ready"))
	builder.WriteString("\n")
	for _, line := range m.auditLogs {
		builder.WriteString(dimStyle.Render("  " + line))
		builder.WriteString("\n")
	}
	builder.WriteString("\n")
	builder.WriteString(dimStyle.Render("keys: j/k move  d done on schedule  a done today  s sort  r reverse  g refresh  q quit"))
	builder.WriteString("\n")
	return builder.String()
}

func (m *dueModel) tickCmd() tea.Cmd {
	return tea.Tick(m.refreshInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (m *dueModel) loadReportCmd() tea.Cmd {
	input := tracker.DueReportInput{
		Filter:         m.filter,
		LookaheadWeeks: m.lookahead,
		Sort:           m.sort,
	}
	return func() tea.Msg {
		report, err := m.service.DueReport(m.ctx, input)
		return reportLoadedMsg{report: report, err: err}
	}
}

func (m *dueModel) loadCompletionsCmd() tea.Cmd {
	equipmentID := m.selectedID()
	if equipmentID == "" {
		return nil
	}
	return func() tea.Msg {
		items, err := m.service.ListCompletions(m.ctx, equipmentID, maxShownCompletions)
		return completionsLoadedMsg{equipmentID: equipmentID, items: items, err: err}
	}
}

func (m *dueModel) completeCmd(policy recurrence.AdvancePolicy) tea.Cmd {
	equipmentID := m.selectedID()
	if equipmentID == "" {
		m.status = "nothing selected"
		return nil
	}
	action := "complete " + string(policy)
	actor := m.actor
	return func() tea.Msg {
		result, err := m.service.CompleteEquipment(m.ctx, tracker.CompleteInput{
			EquipmentID: equipmentID,
			Policy:      string(policy),
			CompletedBy: actor,
		})
		if err != nil {
			return actionDoneMsg{action: action, equipmentID: equipmentID, err: err}
		}
		return actionDoneMsg{
			action:      action,
			equipmentID: equipmentID,
			result:      "next due " + derefDate(result.Equipment.DueDate),
		}
	}
}

func (m *dueModel) selectedID() string {
	if m.selectedIndex < 0 || m.selectedIndex >= len(m.rows) {
		return ""
	}
	return m.rows[m.selectedIndex].item.ID
}

func (m *dueModel) appendAuditLog(action string, equipmentID string, result string, opErr error) {
	outcome := strings.TrimSpace(result)
	if opErr != nil {
		outcome = "error: " + opErr.Error()
	}
	if outcome == "" {
		outcome = "ok"
	}

	timestamp := time.Now().UTC().Format(time.RFC3339)
	line := fmt.Sprintf("%s actor=%s equipment=%s action=%s result=%s", timestamp, m.actor, equipmentID, action, outcome)
	m.auditLogs = append([]string{line}, m.auditLogs...)
	if len(m.auditLogs) > maxAuditLines {
		m.auditLogs = m.auditLogs[:maxAuditLines]
	}

	logging.Info(m.ctx, "due console action",
		slog.String("actor", m.actor),
		slog.String("equipment_id", equipmentID),
		slog.String("action", action),
		slog.String("result", outcome),
	)
}

func flattenReport(report tracker.DueReport) []row {
	rows := make([]row, 0, report.Len())
	for _, bucket := range []recurrence.Bucket{recurrence.BucketOverdue, recurrence.BucketUpcoming, recurrence.BucketRemaining} {
		for _, item := range bucketItems(report, bucket) {
			rows = append(rows, row{bucket: bucket, item: item})
		}
	}
	return rows
}

func bucketItems(report tracker.DueReport, bucket recurrence.Bucket) []tracker.EquipmentView {
	switch bucket {
	case recurrence.BucketOverdue:
		return report.Overdue
	case recurrence.BucketUpcoming:
		return report.Upcoming
	default:
		return report.Remaining
	}
}

// indexOf keeps the cursor on the same record across refreshes when it is
// still listed, and clamps it otherwise.
func indexOf(rows []row, equipmentID string, fallback int) int {
	if equipmentID != "" {
		for i, r := range rows {
			if r.item.ID == equipmentID {
				return i
			}
		}
	}
	if fallback >= len(rows) {
		fallback = len(rows) - 1
	}
	if fallback < 0 {
		fallback = 0
	}
	return fallback
}

func derefDate(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
