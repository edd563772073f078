// Package httpserver wraps net/http with functional options, life-cycle
// hooks and context driven graceful shutdown, plus the liveness and
// readiness handlers mounted by the notifier binary.
//
// Run blocks until its context is cancelled (the binary cancels it on
// SIGINT/SIGTERM) or Shutdown is called. Stop hooks run inside the shutdown
// deadline, after the listener is closed; the notifier uses one to wait for
// in-flight notification fan-outs.
//
//	srv := httpserver.NewFromConfig(cfg,
//		httpserver.WithLogger(log),
//		httpserver.WithStopHook(func(ctx context.Context, _ *slog.Logger) { dispatcher.Wait() }),
//	)
//	err := srv.Run(ctx, router)
//
// Listen failures are wrapped with ErrStart, shutdown failures with ErrShutdown.
package httpserver
