// Package app assembles the notifier process from environment configuration:
// backends, delivery channels, the dispatcher and the HTTP surface.
package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/verdictaid/notifier/pkg/api"
	"github.com/verdictaid/notifier/pkg/email"
	"github.com/verdictaid/notifier/pkg/email/templates"
	"github.com/verdictaid/notifier/pkg/fcm"
	"github.com/verdictaid/notifier/pkg/httpserver"
	"github.com/verdictaid/notifier/pkg/intake"
	"github.com/verdictaid/notifier/pkg/live"
	"github.com/verdictaid/notifier/pkg/logger"
	"github.com/verdictaid/notifier/pkg/notifications"
	"github.com/verdictaid/notifier/pkg/pg"
	"github.com/verdictaid/notifier/pkg/redis"
	"github.com/verdictaid/notifier/pkg/webpush"
)

// App owns every long-lived component of the notifier process.
type App struct {
	cfg        Config
	logger     *slog.Logger
	registry   *prometheus.Registry
	metrics    *notifications.Metrics
	live       *notifications.Registry
	dispatcher *notifications.Dispatcher
	checks     map[string]httpserver.Check
	closers    []func() error
}

// New connects the configured backends and assembles the dispatcher.
// On error everything opened so far is closed again.
func New(ctx context.Context, cfg Config, log *slog.Logger) (_ *App, err error) {
	if log == nil {
		log = slog.Default()
	}
	if err := cfg.Settings.Validate(); err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	a := &App{
		cfg:      cfg,
		logger:   log,
		registry: reg,
		metrics:  notifications.NewMetrics(reg),
		checks:   make(map[string]httpserver.Check),
	}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	store, err := a.buildStore(ctx)
	if err != nil {
		return nil, err
	}
	directory, err := a.buildDirectory(ctx)
	if err != nil {
		return nil, err
	}

	a.live = notifications.NewRegistry(
		notifications.WithConnectionTimeout(cfg.Notifications.LiveTimeout),
		notifications.WithRegistryLogger(a.component("registry")),
		notifications.WithRegistryMetrics(a.metrics),
	)

	dispatcherOpts := []notifications.DispatcherOption{
		notifications.WithLiveSender(notifications.NewLiveSender(a.live, a.senderOptions(notifications.ChannelLive)...)),
		notifications.WithFanOutTimeout(cfg.Notifications.FanOutTimeout),
		notifications.WithFanOutParallelism(cfg.Notifications.FanOutParallel),
		notifications.WithDispatcherLogger(a.component("dispatcher")),
		notifications.WithDispatcherMetrics(a.metrics),
	}
	channelOpts, err := a.buildChannels(ctx)
	if err != nil {
		return nil, err
	}
	a.dispatcher = notifications.NewDispatcher(store, directory, append(dispatcherOpts, channelOpts...)...)

	return a, nil
}

func (a *App) buildStore(ctx context.Context) (notifications.Store, error) {
	opts := []notifications.StoreOption{
		notifications.WithKeyPrefix(a.cfg.Notifications.KeyPrefix),
		notifications.WithMaxEvents(a.cfg.Notifications.MaxEvents),
		notifications.WithRetention(a.cfg.Notifications.Retention),
		notifications.WithStoreLogger(a.component("store")),
	}

	if a.cfg.Store == StoreMemory {
		a.logger.LogAttrs(ctx, slog.LevelWarn, "using in-memory notification store, history is lost on restart")
		return notifications.NewMemoryStore(opts...), nil
	}

	client, err := redis.Connect(ctx, a.cfg.Redis)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, client.Close)
	a.checks["redis"] = redis.Healthcheck(client)
	return notifications.NewRedisStore(client, opts...), nil
}

func (a *App) buildDirectory(ctx context.Context) (notifications.DeviceDirectory, error) {
	if a.cfg.Directory == DirectoryNone {
		a.logger.LogAttrs(ctx, slog.LevelInfo, "device directory disabled, only live delivery is active")
		return notifications.StaticDirectory{}, nil
	}

	pool, err := pg.Connect(ctx, a.cfg.Postgres)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() error { pool.Close(); return nil })
	a.checks["postgres"] = pg.Healthcheck(pool)

	db := pg.OpenDB(pool)
	a.closers = append(a.closers, db.Close)
	return notifications.NewSQLDirectory(db, notifications.WithDirectoryLogger(a.component("directory"))), nil
}

func (a *App) buildChannels(ctx context.Context) ([]notifications.DispatcherOption, error) {
	var opts []notifications.DispatcherOption

	if a.cfg.EmailEnabled {
		mailer, err := email.NewSender(a.cfg.Email)
		if err != nil {
			return nil, err
		}
		opts = append(opts, notifications.WithEmailSender(
			notifications.NewEmailSender(mailer, templates.DefaultCatalog(), a.senderOptions(notifications.ChannelEmail)...),
		))
	}

	if a.cfg.WebPushEnabled {
		client, err := webpush.New(a.cfg.WebPush)
		if err != nil {
			return nil, err
		}
		opts = append(opts, notifications.WithWebPushSender(
			notifications.NewWebPushSender(client, a.senderOptions(notifications.ChannelWebPush)...),
		))
	}

	if a.cfg.FCMEnabled {
		client, err := fcm.New(ctx, a.cfg.FCM)
		if err != nil {
			return nil, err
		}
		opts = append(opts, notifications.WithFCMSender(
			notifications.NewFCMSender(client, a.senderOptions(notifications.ChannelFCM)...),
		))
	}

	a.logger.LogAttrs(ctx, slog.LevelInfo, "delivery channels configured",
		slog.Bool("email", a.cfg.EmailEnabled),
		slog.Bool("web_push", a.cfg.WebPushEnabled),
		slog.Bool("fcm", a.cfg.FCMEnabled),
	)
	return opts, nil
}

func (a *App) senderOptions(channel notifications.ChannelKind) []notifications.SenderOption {
	timeout := a.cfg.Notifications.SenderTimeout
	if channel == notifications.ChannelLive {
		timeout = a.cfg.Notifications.LiveTimeout
	}
	return []notifications.SenderOption{
		notifications.WithSenderTimeout(timeout),
		notifications.WithSenderLogger(a.component("sender")),
		notifications.WithSenderMetrics(a.metrics),
	}
}

func (a *App) component(name string) *slog.Logger {
	return a.logger.With(logger.Component(name))
}

// Dispatcher returns the notification core assembled by New.
func (a *App) Dispatcher() *notifications.Dispatcher { return a.dispatcher }

// Logger returns the process logger.
func (a *App) Logger() *slog.Logger { return a.logger }

// Handler returns the instrumented HTTP surface: probes, metrics, the live
// websocket endpoint and the notifications API.
func (a *App) Handler() http.Handler {
	liveHandler := live.NewHandler(a.live, api.UserIDFromPath, a.cfg.Live,
		live.WithLogger(a.component("live")),
		live.WithHistory(a.dispatcher),
	)
	router := api.Router(api.RouterOptions{
		Dispatcher:   a.dispatcher,
		Live:         liveHandler,
		Gatherer:     a.registry,
		Checks:       a.checks,
		CheckTimeout: a.cfg.HTTP.CheckTimeout,
		Logger:       a.component("api"),
	})
	return otelhttp.NewHandler(router, a.cfg.ServiceName)
}

// RunIntake consumes the Kafka notification topic until ctx is done.
// It returns immediately when intake is disabled.
func (a *App) RunIntake(ctx context.Context) error {
	if !a.cfg.IntakeEnabled {
		return nil
	}
	consumer := intake.NewConsumer(intake.NewReader(a.cfg.Intake), a.dispatcher,
		intake.WithRetryBackoff(a.cfg.Intake.RetryBackoff),
		intake.WithLogger(a.component("intake")),
	)
	a.logger.LogAttrs(ctx, slog.LevelInfo, "kafka intake started",
		slog.String("topic", a.cfg.Intake.Topic),
		slog.String("group", a.cfg.Intake.GroupID),
	)
	return consumer.Run(ctx)
}

// Close waits for in-flight fan-outs, then releases backends in reverse order.
func (a *App) Close() error {
	if a.dispatcher != nil {
		a.dispatcher.Close()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
