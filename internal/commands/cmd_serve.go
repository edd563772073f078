package commands

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/verdictaid/notifier/internal/app"
	"github.com/verdictaid/notifier/pkg/httpserver"
	"github.com/verdictaid/notifier/pkg/logger"
	"github.com/verdictaid/notifier/pkg/telemetry"
)

// ServeCmd runs the HTTP server and, when enabled, the Kafka intake.
type ServeCmd struct {
	flags *Flags
}

// NewServeCmd creates the serve command.
func NewServeCmd(flags *Flags) *ServeCmd {
	return &ServeCmd{flags: flags}
}

// Register adds the serve command to root.
func (cmd *ServeCmd) Register(root *cli.Command) *cli.Command {
	root.Commands = append(root.Commands, &cli.Command{
		Name:  "serve",
		Usage: "Run the notification service",
		Description: `Starts the HTTP API, the live websocket endpoint and, when
NOTIFIER_KAFKA_ENABLED is set, the Kafka intake consumer.

SIGINT or SIGTERM stops accepting work, waits for in-flight deliveries and exits.`,
		Action: cmd.run,
	})
	return root
}

func (cmd *ServeCmd) run(ctx context.Context, _ *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		return err
	}
	log := app.NewLogger(cfg.Settings, cmd.flags.LogLevel)
	logger.SetAsDefault(log)

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.WithoutCancel(ctx)); err != nil {
			log.LogAttrs(ctx, slog.LevelWarn, "tracer shutdown failed", logger.Error(err))
		}
	}()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.LogAttrs(context.WithoutCancel(ctx), slog.LevelError, "closing backends failed", logger.Error(err))
		}
	}()

	server := httpserver.NewFromConfig(cfg.HTTP,
		httpserver.WithLogger(log.With(logger.Component("http"))),
		httpserver.WithStopHook(func(ctx context.Context, l *slog.Logger) {
			l.LogAttrs(ctx, slog.LevelInfo, "waiting for in-flight notifications")
			a.Dispatcher().Close()
		}),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Run(gctx, a.Handler()) })
	g.Go(func() error { return a.RunIntake(gctx) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.LogAttrs(context.WithoutCancel(ctx), slog.LevelInfo, "notifier stopped")
	return nil
}
