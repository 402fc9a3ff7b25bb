package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"duetrack/internal/bootstrap/logging"
	"duetrack/internal/domain/recurrence"
	"duetrack/internal/errs"
)

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Tracker   TrackerConfig   `mapstructure:"tracker"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Messaging MessagingConfig `mapstructure:"messaging"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type TrackerConfig struct {
	DefaultIntervalWeeks       int    `mapstructure:"default_interval_weeks"`
	LookaheadWeeks             int    `mapstructure:"lookahead_weeks"`
	DefaultPolicy              string `mapstructure:"default_policy"`
	BlockDeleteWithCompletions bool   `mapstructure:"block_delete_with_completions"`
	Location                   string `mapstructure:"location"`
	CatalogFile                string `mapstructure:"catalog_file"`
}

type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type MessagingConfig struct {
	NATSURL       string `mapstructure:"nats_url"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
}

// Policy returns the configured default advance policy.
func (c TrackerConfig) Policy() recurrence.AdvancePolicy {
	policy, err := recurrence.ParsePolicy(c.DefaultPolicy)
	if err != nil {
		return recurrence.PolicyDueDate
	}
	return policy
}

// TodayLocation resolves the location used to turn the clock into "today".
func (c TrackerConfig) TodayLocation() (*time.Location, error) {
	name := strings.TrimSpace(c.Location)
	if name == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(name)
}

func Load(ctx context.Context, configFile string) (Config, error) {
	if ctx == nil {
		return Config{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return Config{}, errs.Wrap(err, "check context")
	}

	logCtx := logging.WithComponent(ctx, "bootstrap.config")

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("DT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			logging.Warn(logCtx, "config file not found, fallback to defaults and env")
		} else {
			return Config{}, errs.Wrap(err, "read config")
		}
	} else {
		logging.Info(logCtx, "using config file", slog.String("path", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errs.Wrap(err, "unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	logging.Info(
		logCtx,
		"config loaded",
		slog.String("app", cfg.App.Name),
		slog.String("env", cfg.App.Env),
		slog.String("database_driver", cfg.Database.Driver),
		slog.String("default_policy", string(cfg.Tracker.Policy())),
		slog.Int("lookahead_weeks", cfg.Tracker.LookaheadWeeks),
	)

	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Database.DSN) == "" {
		return errors.New("database.dsn is required")
	}
	if err := recurrence.ValidateInterval(c.Tracker.DefaultIntervalWeeks); err != nil {
		return errs.Wrap(err, "tracker.default_interval_weeks")
	}
	if c.Tracker.LookaheadWeeks < 0 {
		return fmt.Errorf("tracker.lookahead_weeks must not be negative, got %d", c.Tracker.LookaheadWeeks)
	}
	if _, err := recurrence.ParsePolicy(c.Tracker.DefaultPolicy); err != nil {
		return errs.Wrap(err, "tracker.default_policy")
	}
	if _, err := c.Tracker.TodayLocation(); err != nil {
		return errs.Wrapf(err, "tracker.location %q", c.Tracker.Location)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "duetrack")
	v.SetDefault("app.env", "local")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", ".duetrack/duetrack.sqlite")
	v.SetDefault("tracker.default_interval_weeks", 52)
	v.SetDefault("tracker.lookahead_weeks", 4)
	v.SetDefault("tracker.default_policy", string(recurrence.PolicyDueDate))
	v.SetDefault("tracker.block_delete_with_completions", true)
	v.SetDefault("tracker.location", "UTC")
	v.SetDefault("tracker.catalog_file", "")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.shutdown_timeout", 10*time.Second)
	v.SetDefault("messaging.nats_url", "")
	v.SetDefault("messaging.subject_prefix", "duetrack")
}
