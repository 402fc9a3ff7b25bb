package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"duetrack/internal/bootstrap"
	"duetrack/internal/bootstrap/logging"
	"duetrack/internal/domain/recurrence"
	"duetrack/internal/errs"
	"duetrack/internal/usecase/tracker"
)

var equipmentCmd = &cobra.Command{
	Use:     "equipment",
	Aliases: []string{"eq"},
	Short:   "Manage equipment recurrence records",
}

var equipmentCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Register equipment with its inspection schedule",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *tracker.Service) error {
		ctx := cmd.Context()
		flags := cmd.Flags()

		clientID, _ := flags.GetString("client")
		siteID, _ := flags.GetString("site")
		typeID, _ := flags.GetString("type")
		anchorRaw, _ := flags.GetString("anchor")
		dueRaw, _ := flags.GetString("due")
		interval, _ := flags.GetInt("interval")
		timezone, _ := flags.GetString("timezone")
		notes, _ := flags.GetString("notes")

		anchor, err := recurrence.ParseDate(anchorRaw)
		if err != nil {
			return errs.Wrap(err, "parse --anchor")
		}
		if anchor.IsZero() {
			anchor = svc.Today()
		}
		due, err := recurrence.ParseDate(dueRaw)
		if err != nil {
			return errs.Wrap(err, "parse --due")
		}

		input := tracker.CreateEquipmentInput{
			ClientID:      clientID,
			SiteID:        siteID,
			TypeID:        typeID,
			Name:          flags.Arg(0),
			AnchorDate:    anchor,
			DueDate:       due,
			IntervalWeeks: interval,
			Timezone:      timezone,
			Notes:         notes,
		}
		if flags.Changed("lead") {
			lead, _ := flags.GetInt("lead")
			input.LeadWeeks = &lead
		}
		if flags.Changed("inactive") {
			inactive, _ := flags.GetBool("inactive")
			active := !inactive
			input.Active = &active
		}

		view, err := svc.CreateEquipment(ctx, input)
		if err != nil {
			logging.Error(ctx, "create equipment failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "create equipment")
		}
		return printOrStructured(cmd, view, func() error {
			return writeEquipmentDetail(cmd.OutOrStdout(), view)
		})
	}),
}

var equipmentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List equipment records",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *tracker.Service) error {
		ctx := cmd.Context()

		filter, sortOpts, err := filterAndSortFromFlags(cmd)
		if err != nil {
			return err
		}
		items, err := svc.ListEquipment(ctx, tracker.ListEquipmentInput{Filter: filter, Sort: sortOpts})
		if err != nil {
			logging.Error(ctx, "list equipment failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "list equipment")
		}
		return printOrStructured(cmd, items, func() error {
			return writeEquipmentTable(cmd.OutOrStdout(), items)
		})
	}),
}

var equipmentShowCmd = &cobra.Command{
	Use:   "show <equipment-id>",
	Short: "Show one equipment record",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *tracker.Service) error {
		ctx := cmd.Context()
		view, err := svc.GetEquipment(ctx, cmd.Flags().Arg(0))
		if err != nil {
			logging.Error(ctx, "show equipment failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "show equipment")
		}
		return printOrStructured(cmd, view, func() error {
			return writeEquipmentDetail(cmd.OutOrStdout(), view)
		})
	}),
}

var equipmentUpdateCmd = &cobra.Command{
	Use:   "update <equipment-id>",
	Short: "Edit descriptive fields of an equipment record",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *tracker.Service) error {
		ctx := cmd.Context()
		flags := cmd.Flags()

		input := tracker.UpdateEquipmentInput{EquipmentID: flags.Arg(0)}
		stringFlag := func(name string) *string {
			if !flags.Changed(name) {
				return nil
			}
			v, _ := flags.GetString(name)
			return &v
		}
		input.Name = stringFlag("name")
		input.TypeID = stringFlag("type")
		input.Timezone = stringFlag("timezone")
		input.Notes = stringFlag("notes")
		if raw := stringFlag("anchor"); raw != nil {
			anchor, err := recurrence.ParseDate(*raw)
			if err != nil {
				return errs.Wrap(err, "parse --anchor")
			}
			input.AnchorDate = &anchor
		}
		if flags.Changed("lead") {
			lead, _ := flags.GetInt("lead")
			input.LeadWeeks = &lead
		}
		if flags.Changed("active") {
			active, _ := flags.GetBool("active")
			input.Active = &active
		}

		view, err := svc.UpdateEquipment(ctx, input)
		if err != nil {
			logging.Error(ctx, "update equipment failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "update equipment")
		}
		return printOrStructured(cmd, view, func() error {
			return writeEquipmentDetail(cmd.OutOrStdout(), view)
		})
	}),
}

var equipmentRescheduleCmd = &cobra.Command{
	Use:   "reschedule <equipment-id> <interval-weeks>",
	Short: "Change the inspection interval without moving the due date",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *tracker.Service) error {
		ctx := cmd.Context()
		weeks, err := strconv.Atoi(strings.TrimSpace(cmd.Flags().Arg(1)))
		if err != nil {
			return fmt.Errorf("interval weeks must be an integer, got %q", cmd.Flags().Arg(1))
		}

		view, err := svc.RescheduleEquipment(ctx, cmd.Flags().Arg(0), weeks)
		if err != nil {
			logging.Error(ctx, "reschedule equipment failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "reschedule equipment")
		}
		return printOrStructured(cmd, view, func() error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "equipment %s rescheduled: interval=%dw due=%s\n", view.ID, view.IntervalWeeks, dueText(view))
			return err
		})
	}),
}

var equipmentRecalculateCmd = &cobra.Command{
	Use:   "recalculate <equipment-id>",
	Short: "Recompute the due date from the due date or the anchor",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *tracker.Service) error {
		ctx := cmd.Context()
		fromRaw, _ := cmd.Flags().GetString("from")
		from, err := tracker.ParseRecalculateFrom(fromRaw)
		if err != nil {
			return err
		}

		view, err := svc.RecalculateEquipment(ctx, cmd.Flags().Arg(0), from)
		if err != nil {
			logging.Error(ctx, "recalculate equipment failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "recalculate equipment")
		}
		return printOrStructured(cmd, view, func() error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "equipment %s recalculated from %s: due=%s\n", view.ID, from, dueText(view))
			return err
		})
	}),
}

var equipmentSetDueCmd = &cobra.Command{
	Use:   "set-due <equipment-id> [yyyy-mm-dd]",
	Short: "Override the due date, or clear it with --clear",
	Args:  cobra.RangeArgs(1, 2),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *tracker.Service) error {
		ctx := cmd.Context()
		clearDue, _ := cmd.Flags().GetBool("clear")

		args := cmd.Flags().Args()
		if clearDue == (len(args) == 2) {
			return errors.New("pass either a due date or --clear")
		}
		raw := ""
		if len(args) == 2 {
			raw = args[1]
		}
		due, err := recurrence.ParseDate(raw)
		if err != nil {
			return errs.Wrap(err, "parse due date")
		}

		view, err := svc.SetDueDate(ctx, args[0], due)
		if err != nil {
			logging.Error(ctx, "set due date failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "set due date")
		}
		return printOrStructured(cmd, view, func() error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "equipment %s due=%s state=%s\n", view.ID, dueText(view), view.State)
			return err
		})
	}),
}

var equipmentDeleteCmd = &cobra.Command{
	Use:   "delete <equipment-id>",
	Short: "Delete an equipment record",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *tracker.Service) error {
		ctx := cmd.Context()
		id := cmd.Flags().Arg(0)
		if err := svc.DeleteEquipment(ctx, id); err != nil {
			logging.Error(ctx, "delete equipment failed", slog.String("equipment_id", id), slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "delete equipment")
		}
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "equipment deleted: %s\n", id)
		return errs.Wrap(err, "write delete output")
	}),
}

// filterAndSortFromFlags reads the shared --client/--site/--type/--exclude-inactive
// and --sort/--desc flags.
func filterAndSortFromFlags(cmd *cobra.Command) (recurrence.Filter, recurrence.SortOptions, error) {
	flags := cmd.Flags()
	clientID, _ := flags.GetString("client")
	siteID, _ := flags.GetString("site")
	typeID, _ := flags.GetString("type")
	excludeInactive, _ := flags.GetBool("exclude-inactive")
	sortRaw, _ := flags.GetString("sort")
	desc, _ := flags.GetBool("desc")

	by, err := recurrence.ParseSortKey(sortRaw)
	if err != nil {
		return recurrence.Filter{}, recurrence.SortOptions{}, err
	}
	return recurrence.Filter{
			ClientID:        clientID,
			SiteID:          siteID,
			TypeID:          typeID,
			ExcludeInactive: excludeInactive,
		}, recurrence.SortOptions{
			By:         by,
			Descending: desc,
		}, nil
}

func addFilterFlags(cmds ...*cobra.Command) {
	for _, c := range cmds {
		c.Flags().String("client", "", "Only records of this client")
		c.Flags().String("site", "", "Only records at this site")
		c.Flags().String("type", "", "Only records of this equipment type")
		c.Flags().Bool("exclude-inactive", false, "Only show active records")
		c.Flags().String("sort", string(recurrence.SortByDueDate), "Sort key (due_date|name)")
		c.Flags().Bool("desc", false, "Sort descending")
	}
}

func init() {
	rootCmd.AddCommand(equipmentCmd)
	equipmentCmd.AddCommand(
		equipmentCreateCmd,
		equipmentListCmd,
		equipmentShowCmd,
		equipmentUpdateCmd,
		equipmentRescheduleCmd,
		equipmentRecalculateCmd,
		equipmentSetDueCmd,
		equipmentDeleteCmd,
	)

	create := equipmentCreateCmd.Flags()
	create.String("client", "", "Owning client id")
	create.String("site", "", "Site id")
	create.String("type", "", "Equipment type id (supplies default interval and lead)")
	create.String("anchor", "", "Anchor date yyyy-mm-dd (defaults to today)")
	create.String("due", "", "First due date yyyy-mm-dd (empty leaves the record unscheduled)")
	create.Int("interval", 0, "Interval in weeks (0 uses the type or configured default)")
	create.Int("lead", 0, "Lead time in weeks")
	create.Bool("inactive", false, "Create the record inactive")
	create.String("timezone", "", "IANA timezone (defaults to the site's)")
	create.String("notes", "", "Free-form notes")
	_ = equipmentCreateCmd.MarkFlagRequired("client")
	_ = equipmentCreateCmd.MarkFlagRequired("site")

	update := equipmentUpdateCmd.Flags()
	update.String("name", "", "New name")
	update.String("type", "", "New equipment type id")
	update.String("anchor", "", "New anchor date yyyy-mm-dd")
	update.Int("lead", 0, "New lead time in weeks")
	update.Bool("active", true, "Active flag")
	update.String("timezone", "", "New IANA timezone")
	update.String("notes", "", "New notes")

	equipmentRecalculateCmd.Flags().String("from", string(tracker.RecalculateFromDueDate), "Reference point (due|anchor)")
	equipmentSetDueCmd.Flags().Bool("clear", false, "Clear the due date (record becomes unscheduled)")

	addFilterFlags(equipmentListCmd)
	addOutputFlag(
		equipmentCreateCmd,
		equipmentListCmd,
		equipmentShowCmd,
		equipmentUpdateCmd,
		equipmentRescheduleCmd,
		equipmentRecalculateCmd,
		equipmentSetDueCmd,
	)
}
