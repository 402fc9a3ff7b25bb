package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"duetrack/internal/bootstrap"
	"duetrack/internal/bootstrap/logging"
	"duetrack/internal/domain/recurrence"
	"duetrack/internal/errs"
	"duetrack/internal/usecase/tracker"
)

var completeCmd = &cobra.Command{
	Use:   "complete <equipment-id>",
	Short: "Record an inspection and advance the due date",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *tracker.Service) error {
		ctx := cmd.Context()
		policy, _ := cmd.Flags().GetString("policy")
		onRaw, _ := cmd.Flags().GetString("on")
		interval, _ := cmd.Flags().GetInt("interval")
		by, _ := cmd.Flags().GetString("by")
		if strings.TrimSpace(by) == "" {
			by = os.Getenv("USER")
		}

		completedOn, err := recurrence.ParseDate(onRaw)
		if err != nil {
			return errs.Wrap(err, "parse --on")
		}

		result, err := svc.CompleteEquipment(ctx, tracker.CompleteInput{
			EquipmentID:      cmd.Flags().Arg(0),
			Policy:           policy,
			CompletedOn:      completedOn,
			IntervalOverride: interval,
			CompletedBy:      by,
		})
		if err != nil {
			logging.Error(ctx, "complete equipment failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "complete equipment")
		}
		return printOrStructured(cmd, result, func() error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "equipment %s completed on %s (%s): next due %s, interval %dw\n",
				result.Equipment.ID, result.Completion.CompletedOn, result.Completion.Policy,
				dueText(result.Equipment), result.Equipment.IntervalWeeks)
			return err
		})
	}),
}

var completionsCmd = &cobra.Command{
	Use:   "completions <equipment-id>",
	Short: "Show the completion history of an equipment record, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *tracker.Service) error {
		ctx := cmd.Context()
		limit, _ := cmd.Flags().GetInt("limit")

		items, err := svc.ListCompletions(ctx, cmd.Flags().Arg(0), limit)
		if err != nil {
			logging.Error(ctx, "list completions failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "list completions")
		}
		return printOrStructured(cmd, items, func() error {
			return writeCompletionTable(cmd.OutOrStdout(), items)
		})
	}),
}

func init() {
	rootCmd.AddCommand(completeCmd, completionsCmd)

	completeCmd.Flags().String("policy", "", "Advance policy (due_date|completion_date); empty uses tracker.default_policy")
	completeCmd.Flags().String("on", "", "Completion date yyyy-mm-dd (defaults to today)")
	completeCmd.Flags().Int("interval", 0, "Replace the interval (weeks) before advancing; 0 keeps it")
	completeCmd.Flags().String("by", "", "Who performed the inspection (defaults to $USER)")
	completionsCmd.Flags().Int("limit", 20, "Maximum number of completions (0 for all)")

	addOutputFlag(completeCmd, completionsCmd)
}
