package cmd

import (
	"log/slog"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"duetrack/internal/bootstrap"
	"duetrack/internal/bootstrap/logging"
	"duetrack/internal/errs"
	"duetrack/internal/usecase/dueconsole"
	"duetrack/internal/usecase/tracker"
)

var consoleDueCmd = &cobra.Command{
	Use:   "due",
	Short: "Start the interactive due board",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *tracker.Service) error {
		ctx := logging.WithComponent(cmd.Context(), "console.due")

		filter, sortOpts, err := filterAndSortFromFlags(cmd)
		if err != nil {
			return err
		}
		actor, _ := cmd.Flags().GetString("by")
		if strings.TrimSpace(actor) == "" {
			actor = os.Getenv("USER")
		}
		refreshInterval, _ := cmd.Flags().GetDuration("refresh-interval")
		if refreshInterval <= 0 {
			refreshInterval = 30 * time.Second
		}

		options := dueconsole.DueOptions{
			Filter:          filter,
			Sort:            sortOpts,
			Actor:           actor,
			RefreshInterval: refreshInterval,
		}
		if cmd.Flags().Changed("lookahead") {
			weeks, _ := cmd.Flags().GetInt("lookahead")
			options.LookaheadWeeks = &weeks
		}

		logging.Info(ctx, "due console started", slog.Duration("refresh_interval", refreshInterval))
		program := tea.NewProgram(dueconsole.NewDueModel(ctx, svc, options), tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return errs.Wrap(err, "run due console")
		}
		return nil
	}),
}

func init() {
	consoleCmd.AddCommand(consoleDueCmd)
	addFilterFlags(consoleDueCmd)
	consoleDueCmd.Flags().Int("lookahead", 0, "Upcoming window in weeks (defaults to tracker.lookahead_weeks)")
	consoleDueCmd.Flags().String("by", "", "Name recorded on completions (defaults to $USER)")
	consoleDueCmd.Flags().Duration("refresh-interval", 30*time.Second, "Auto refresh interval")
}
