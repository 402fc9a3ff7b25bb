package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"duetrack/internal/bootstrap"
	"duetrack/internal/bootstrap/logging"
	"duetrack/internal/errs"
	"duetrack/internal/infrastructure/catalog"
	"duetrack/internal/usecase/tracker"
)

var initDbCmd = &cobra.Command{
	Use:   "init-db",
	Short: "Initialize database schema and sync the equipment-type catalog",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, svc *tracker.Service) error {
		ctx := cmd.Context()
		logging.Info(ctx, "start init-db")

		if err := app.InitSchema(ctx); err != nil {
			logging.Error(ctx, "initialize schema failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "initialize schema")
		}
		version, err := app.SchemaVersion(ctx)
		if err != nil {
			return errs.Wrap(err, "read schema version")
		}
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "database schema initialized: %s (version %s)\n", app.Config.Database.DSN, version); err != nil {
			return errs.Wrap(err, "write init-db output")
		}

		catalogFile, _ := cmd.Flags().GetString("catalog")
		if strings.TrimSpace(catalogFile) == "" {
			catalogFile = app.Config.Tracker.CatalogFile
		}
		if strings.TrimSpace(catalogFile) == "" {
			return nil
		}

		loaded, err := catalog.Load(catalogFile)
		if err != nil {
			logging.Error(ctx, "load catalog failed", slog.String("catalog_file", catalogFile), slog.Any("err", errs.Loggable(err)))
			return errs.Wrapf(err, "load catalog %s", catalogFile)
		}
		inputs := make([]tracker.EquipmentTypeInput, 0, len(loaded.EquipmentTypes))
		for _, item := range loaded.EquipmentTypes {
			inputs = append(inputs, tracker.EquipmentTypeInput{
				Name:                 item.Name,
				DefaultIntervalWeeks: item.DefaultIntervalWeeks,
				DefaultLeadWeeks:     item.DefaultLeadWeeks,
			})
		}
		result, err := svc.SyncEquipmentTypes(ctx, inputs)
		if err != nil {
			logging.Error(ctx, "sync catalog failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "sync catalog")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "equipment types synced from %s: created=%d updated=%d\n", catalogFile, result.Created, result.Updated); err != nil {
			return errs.Wrap(err, "write init-db output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(initDbCmd)
	initDbCmd.Flags().String("catalog", "", "Equipment-type catalog (TOML); defaults to tracker.catalog_file")
}
