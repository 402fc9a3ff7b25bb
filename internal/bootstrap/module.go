package bootstrap

import (
	"context"
	"strings"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"duetrack/internal/bootstrap/config"
	"duetrack/internal/bootstrap/database"
	"duetrack/internal/bootstrap/logging"
	cacheinfra "duetrack/internal/infrastructure/cache"
	"duetrack/internal/infrastructure/messaging"
	sqliterepo "duetrack/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "duetrack/internal/infrastructure/persistence/sqlite/uow"
	"duetrack/internal/ports"
	"duetrack/internal/usecase/tracker"
)

var Module = fx.Options(
	fx.Provide(provideConfig),
	fx.Provide(provideDatabase),
	fx.Provide(provideApp),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewTrackerRepository,
			fx.As(new(ports.TrackerRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliteuow.NewUnitOfWork,
			fx.As(new(ports.UnitOfWork)),
		),
	),
	fx.Provide(
		fx.Annotate(
			cacheinfra.NewSQLiteCache,
			fx.As(new(ports.Cache)),
		),
	),
	fx.Provide(provideEventPublisher),
	fx.Provide(provideTrackerOptions),
	fx.Provide(tracker.NewService),
)

type configParams struct {
	fx.In

	Ctx        context.Context
	ConfigFile string `name:"configFile"`
}

func provideConfig(p configParams) (config.Config, error) {
	ctx := logging.WithComponent(p.Ctx, "bootstrap.fx")
	return config.Load(ctx, p.ConfigFile)
}

func provideDatabase(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	logCtx := logging.WithComponent(ctx, "bootstrap.fx")

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})

	return db, nil
}

func provideApp(cfg config.Config, db *gorm.DB) *App {
	return &App{
		Config: cfg,
		DB:     db,
	}
}

// provideEventPublisher connects to NATS when messaging.nats_url is set and
// falls back to dropping events otherwise.
func provideEventPublisher(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (ports.EventPublisher, error) {
	url := strings.TrimSpace(cfg.Messaging.NATSURL)
	if url == "" {
		return messaging.NopPublisher{}, nil
	}

	conn, err := messaging.Connect(ctx, url, cfg.App.Name)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return conn.Drain()
		},
	})
	return messaging.NewNATSPublisher(conn, cfg.Messaging.SubjectPrefix), nil
}

func provideTrackerOptions(cfg config.Config) (tracker.Options, error) {
	location, err := cfg.Tracker.TodayLocation()
	if err != nil {
		return tracker.Options{}, err
	}
	return tracker.Options{
		DefaultIntervalWeeks:       cfg.Tracker.DefaultIntervalWeeks,
		LookaheadWeeks:             cfg.Tracker.LookaheadWeeks,
		DefaultPolicy:              cfg.Tracker.Policy(),
		BlockDeleteWithCompletions: cfg.Tracker.BlockDeleteWithCompletions,
		Location:                   location,
	}, nil
}
