package bootstrap

import (
	"context"
	"errors"
	"log/slog"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"duetrack/internal/bootstrap/config"
	"duetrack/internal/bootstrap/logging"
	"duetrack/internal/errs"
	"duetrack/internal/infrastructure/persistence/schema"
	"duetrack/internal/infrastructure/persistence/sqlite/model"
)

type App struct {
	Config config.Config
	DB     *gorm.DB
}

// InitSchema creates or migrates every tracker table.
func (a *App) InitSchema(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}
	if a.DB == nil {
		return errors.New("database is required")
	}

	logCtx := logging.WithComponent(ctx, "bootstrap.app")
	logging.Info(logCtx, "start schema migration")

	db := a.DB.WithContext(ctx)
	if err := db.AutoMigrate(append(model.All(), &schema.Meta{})...); err != nil {
		return errs.Wrap(err, "auto migrate schema")
	}

	stamp := schema.Meta{Key: schema.VersionKey, Value: schema.Version}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&stamp).Error; err != nil {
		return errs.Wrap(err, "record schema version")
	}

	logging.Info(logCtx, "schema migration completed",
		slog.Int("tables", len(model.All())+1),
		slog.String("schema_version", schema.Version),
	)
	return nil
}

// SchemaVersion reads the version stamped by InitSchema. It is empty before
// the first migration.
func (a *App) SchemaVersion(ctx context.Context) (string, error) {
	if ctx == nil {
		return "", errors.New("context is required")
	}
	if a.DB == nil {
		return "", errors.New("database is required")
	}

	var meta schema.Meta
	err := a.DB.WithContext(ctx).Where("key = ?", schema.VersionKey).Take(&meta).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return "", nil
	case err != nil:
		return "", errs.Wrap(err, "query schema version")
	}
	return meta.Value, nil
}
