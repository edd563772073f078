package app

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/verdictaid/notifier/pkg/config"
	"github.com/verdictaid/notifier/pkg/email"
	"github.com/verdictaid/notifier/pkg/fcm"
	"github.com/verdictaid/notifier/pkg/httpserver"
	"github.com/verdictaid/notifier/pkg/intake"
	"github.com/verdictaid/notifier/pkg/live"
	"github.com/verdictaid/notifier/pkg/logger"
	"github.com/verdictaid/notifier/pkg/notifications"
	"github.com/verdictaid/notifier/pkg/pg"
	"github.com/verdictaid/notifier/pkg/redis"
	"github.com/verdictaid/notifier/pkg/requestid"
	"github.com/verdictaid/notifier/pkg/telemetry"
	"github.com/verdictaid/notifier/pkg/webpush"
)

const (
	StoreRedis  = "redis"
	StoreMemory = "memory"

	DirectoryPostgres = "postgres"
	DirectoryNone     = "none"
)

// ErrInvalidConfig wraps every configuration validation failure.
var ErrInvalidConfig = errors.New("app: invalid configuration")

// Settings selects backends and delivery channels.
type Settings struct {
	Environment    string `env:"APP_ENV" envDefault:"development"`
	ServiceName    string `env:"APP_SERVICE_NAME" envDefault:"notifier"`
	LogLevel       string `env:"LOG_LEVEL"`
	Store          string `env:"NOTIFIER_STORE" envDefault:"redis"`
	Directory      string `env:"NOTIFIER_DIRECTORY" envDefault:"postgres"`
	EmailEnabled   bool   `env:"NOTIFIER_EMAIL_ENABLED" envDefault:"true"`
	WebPushEnabled bool   `env:"NOTIFIER_WEBPUSH_ENABLED" envDefault:"true"`
	FCMEnabled     bool   `env:"NOTIFIER_FCM_ENABLED" envDefault:"true"`
	IntakeEnabled  bool   `env:"NOTIFIER_KAFKA_ENABLED" envDefault:"false"`
}

// Config is the full process configuration. Sections for disabled features
// stay zero, so their required variables are never demanded.
type Config struct {
	Settings
	Notifications notifications.Config
	HTTP          httpserver.Config
	Live          live.Config
	Telemetry     telemetry.Config
	Redis         redis.Config
	Postgres      pg.Config
	Email         email.Config
	WebPush       webpush.Config
	FCM           fcm.Config
	Intake        intake.Config
}

// LoadConfig reads every section needed by the enabled features from the
// environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := config.Load(&cfg.Settings); err != nil {
		return cfg, err
	}
	if err := cfg.Settings.Validate(); err != nil {
		return cfg, err
	}

	loaders := []func() error{
		func() error { return config.Load(&cfg.Notifications) },
		func() error { return config.Load(&cfg.HTTP) },
		func() error { return config.Load(&cfg.Live) },
		func() error { return config.Load(&cfg.Telemetry) },
	}
	if cfg.Store == StoreRedis {
		loaders = append(loaders, func() error { return config.Load(&cfg.Redis) })
	}
	if cfg.Directory == DirectoryPostgres {
		loaders = append(loaders, func() error { return config.Load(&cfg.Postgres) })
	}
	if cfg.EmailEnabled {
		loaders = append(loaders, func() error { return config.Load(&cfg.Email) })
	}
	if cfg.WebPushEnabled {
		loaders = append(loaders, func() error { return config.Load(&cfg.WebPush) })
	}
	if cfg.FCMEnabled {
		loaders = append(loaders, func() error { return config.Load(&cfg.FCM) })
	}
	if cfg.IntakeEnabled {
		loaders = append(loaders, func() error { return config.Load(&cfg.Intake) })
	}

	for _, load := range loaders {
		if err := load(); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// Validate reports settings that cannot start a working process.
func (s Settings) Validate() error {
	switch s.Store {
	case StoreRedis, StoreMemory:
	default:
		return fmt.Errorf("%w: NOTIFIER_STORE must be %q or %q, got %q", ErrInvalidConfig, StoreRedis, StoreMemory, s.Store)
	}
	switch s.Directory {
	case DirectoryPostgres, DirectoryNone:
	default:
		return fmt.Errorf("%w: NOTIFIER_DIRECTORY must be %q or %q, got %q", ErrInvalidConfig, DirectoryPostgres, DirectoryNone, s.Directory)
	}
	return nil
}

// NewLogger builds the process logger. An explicit level overrides the
// environment default.
func NewLogger(s Settings, level string) *slog.Logger {
	if level == "" {
		level = s.LogLevel
	}
	opts := []logger.Option{
		logger.WithEnvironment(s.Environment, s.ServiceName),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	}
	if level != "" {
		opts = append(opts, logger.WithLevelName(level))
	}
	return logger.New(opts...)
}
