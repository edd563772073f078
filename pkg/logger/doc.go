// Package logger builds the service's *slog.Logger and keeps attribute names
// consistent across packages.
//
// New applies functional options (format, level, static attributes, context
// extractors) and wraps the chosen slog handler with LogHandlerDecorator, which
// copies request-scoped values out of context.Context on every record.
//
//	log := logger.New(
//	    logger.WithEnvironment("production", "notifierd"),
//	    logger.WithContextValue("request_id", requestIDKey),
//	)
//	logger.SetAsDefault(log)
//
//	log.LogAttrs(ctx, slog.LevelInfo, "notification stored",
//	    logger.UserID(7),
//	    logger.EventID(id),
//	)
//
// Attribute helpers such as Error return an empty slog.Attr for nil input, so
// they can be passed unconditionally.
package logger
