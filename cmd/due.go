package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"duetrack/internal/bootstrap"
	"duetrack/internal/bootstrap/logging"
	"duetrack/internal/domain/recurrence"
	"duetrack/internal/errs"
	"duetrack/internal/usecase/tracker"
)

var dueCmd = &cobra.Command{
	Use:   "due",
	Short: "Report overdue and upcoming inspections",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *tracker.Service) error {
		ctx := cmd.Context()

		input, err := dueReportInputFromFlags(cmd)
		if err != nil {
			return err
		}
		report, err := svc.DueReport(ctx, input)
		if err != nil {
			logging.Error(ctx, "due report failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "due report")
		}

		logging.Debug(ctx, "due report built",
			slog.Int("overdue", len(report.Overdue)),
			slog.Int("upcoming", len(report.Upcoming)),
			slog.Int("remaining", len(report.Remaining)),
		)
		return printOrStructured(cmd, report, func() error {
			return writeDueReport(cmd.OutOrStdout(), report)
		})
	}),
}

func dueReportInputFromFlags(cmd *cobra.Command) (tracker.DueReportInput, error) {
	filter, sortOpts, err := filterAndSortFromFlags(cmd)
	if err != nil {
		return tracker.DueReportInput{}, err
	}
	todayRaw, _ := cmd.Flags().GetString("today")
	today, err := recurrence.ParseDate(todayRaw)
	if err != nil {
		return tracker.DueReportInput{}, errs.Wrap(err, "parse --today")
	}

	input := tracker.DueReportInput{
		Filter: filter,
		Today:  today,
		Sort:   sortOpts,
	}
	if cmd.Flags().Changed("lookahead") {
		weeks, _ := cmd.Flags().GetInt("lookahead")
		input.LookaheadWeeks = &weeks
	}
	return input, nil
}

func init() {
	rootCmd.AddCommand(dueCmd)
	addFilterFlags(dueCmd)
	dueCmd.Flags().String("today", "", "Reference date yyyy-mm-dd (defaults to today in tracker.location)")
	dueCmd.Flags().Int("lookahead", 0, "Upcoming window in weeks (defaults to tracker.lookahead_weeks)")
	addOutputFlag(dueCmd)
}
