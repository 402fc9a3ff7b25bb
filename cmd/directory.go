package cmd

import (
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"duetrack/internal/bootstrap"
	"duetrack/internal/bootstrap/logging"
	"duetrack/internal/errs"
	"duetrack/internal/usecase/tracker"
)

var clientCmd = &cobra.Command{
	Use:   "client",
	Short: "Manage clients",
}

var clientCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a client",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *tracker.Service) error {
		ctx := cmd.Context()
		client, err := svc.CreateClient(ctx, tracker.CreateClientInput{Name: cmd.Flags().Arg(0)})
		if err != nil {
			logging.Error(ctx, "create client failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "create client")
		}
		return printOrStructured(cmd, client, func() error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "client created: %s %s\n", client.ID, client.Name)
			return err
		})
	}),
}

var clientListCmd = &cobra.Command{
	Use:   "list",
	Short: "List clients",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *tracker.Service) error {
		ctx := cmd.Context()
		clients, err := svc.ListClients(ctx)
		if err != nil {
			logging.Error(ctx, "list clients failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "list clients")
		}
		return printOrStructured(cmd, clients, func() error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tCREATED_AT")
			for _, client := range clients {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", client.ID, client.Name, client.CreatedAt)
			}
			return tw.Flush()
		})
	}),
}

var siteCmd = &cobra.Command{
	Use:   "site",
	Short: "Manage sites",
}

var siteCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a site for a client",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *tracker.Service) error {
		ctx := cmd.Context()
		clientID, _ := cmd.Flags().GetString("client")
		timezone, _ := cmd.Flags().GetString("timezone")

		site, err := svc.CreateSite(ctx, tracker.CreateSiteInput{
			ClientID: clientID,
			Name:     cmd.Flags().Arg(0),
			Timezone: timezone,
		})
		if err != nil {
			logging.Error(ctx, "create site failed", slog.String("client_id", clientID), slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "create site")
		}
		return printOrStructured(cmd, site, func() error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "site created: %s %s (client=%s tz=%s)\n", site.ID, site.Name, site.ClientID, site.Timezone)
			return err
		})
	}),
}

var siteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sites",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *tracker.Service) error {
		ctx := cmd.Context()
		clientID, _ := cmd.Flags().GetString("client")

		sites, err := svc.ListSites(ctx, clientID)
		if err != nil {
			logging.Error(ctx, "list sites failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "list sites")
		}
		return printOrStructured(cmd, sites, func() error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCLIENT\tNAME\tTIMEZONE")
			for _, site := range sites {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", site.ID, site.ClientID, site.Name, site.Timezone)
			}
			return tw.Flush()
		})
	}),
}

var typeCmd = &cobra.Command{
	Use:   "type",
	Short: "Manage equipment types",
}

var typeCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create an equipment type",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *tracker.Service) error {
		ctx := cmd.Context()
		interval, _ := cmd.Flags().GetInt("interval")
		lead, _ := cmd.Flags().GetInt("lead")

		created, err := svc.CreateEquipmentType(ctx, tracker.EquipmentTypeInput{
			Name:                 cmd.Flags().Arg(0),
			DefaultIntervalWeeks: interval,
			DefaultLeadWeeks:     lead,
		})
		if err != nil {
			logging.Error(ctx, "create equipment type failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "create equipment type")
		}
		return printOrStructured(cmd, created, func() error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "equipment type created: %s %s interval=%dw lead=%dw\n",
				created.ID, created.Name, created.DefaultIntervalWeeks, created.DefaultLeadWeeks)
			return err
		})
	}),
}

var typeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List equipment types",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *tracker.Service) error {
		ctx := cmd.Context()
		types, err := svc.ListEquipmentTypes(ctx)
		if err != nil {
			logging.Error(ctx, "list equipment types failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "list equipment types")
		}
		return printOrStructured(cmd, types, func() error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tINTERVAL\tLEAD")
			for _, item := range types {
				fmt.Fprintf(tw, "%s\t%s\t%dw\t%dw\n", item.ID, item.Name, item.DefaultIntervalWeeks, item.DefaultLeadWeeks)
			}
			return tw.Flush()
		})
	}),
}

var typeShowCmd = &cobra.Command{
	Use:   "show <type-id>",
	Short: "Show an equipment type",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *tracker.Service) error {
		ctx := cmd.Context()
		item, err := svc.GetEquipmentType(ctx, cmd.Flags().Arg(0))
		if err != nil {
			logging.Error(ctx, "show equipment type failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "show equipment type")
		}
		return printOrStructured(cmd, item, func() error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "id: %s\nname: %s\ndefault_interval_weeks: %d\ndefault_lead_weeks: %d\n",
				item.ID, item.Name, item.DefaultIntervalWeeks, item.DefaultLeadWeeks)
			return err
		})
	}),
}

// printOrStructured honors --output json|yaml and falls back to text.
func printOrStructured(cmd *cobra.Command, v any, text func() error) error {
	raw, _ := cmd.Flags().GetString("output")
	format, err := parseOutputFormat(raw)
	if err != nil {
		return err
	}
	handled, err := writeStructured(cmd.OutOrStdout(), format, v)
	if handled || err != nil {
		return err
	}
	return errs.Wrap(text(), "write output")
}

func addOutputFlag(cmds ...*cobra.Command) {
	for _, c := range cmds {
		c.Flags().StringP("output", "o", outputText, "Output format (text|json|yaml)")
	}
}

func init() {
	rootCmd.AddCommand(clientCmd, siteCmd, typeCmd)

	clientCmd.AddCommand(clientCreateCmd, clientListCmd)
	siteCmd.AddCommand(siteCreateCmd, siteListCmd)
	typeCmd.AddCommand(typeCreateCmd, typeListCmd, typeShowCmd)

	siteCreateCmd.Flags().String("client", "", "Owning client id")
	siteCreateCmd.Flags().String("timezone", "", "IANA timezone of the site (e.g. Europe/Berlin)")
	_ = siteCreateCmd.MarkFlagRequired("client")
	siteListCmd.Flags().String("client", "", "Only sites of this client")

	typeCreateCmd.Flags().Int("interval", 52, "Default interval in weeks")
	typeCreateCmd.Flags().Int("lead", 0, "Default lead time in weeks")

	addOutputFlag(clientCreateCmd, clientListCmd, siteCreateCmd, siteListCmd, typeCreateCmd, typeListCmd, typeShowCmd)
}
