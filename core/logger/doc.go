// Package logger builds slog loggers and provides attribute helpers for the
// fields that show up across the service.
//
//	log := logger.New(
//		logger.WithProduction("online-status"),
//		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
//	)
//
//	log.Info("presence_leave",
//		logger.Component("presence"),
//		logger.ClientID(clientID),
//		logger.UserID(uid),
//	)
//
// WithDevelopment selects text output at debug level; WithProduction selects
// JSON at info level. Later options override earlier ones.
//
// WithContextExtractors injects request-scoped attributes into records
// logged with the *Context methods, for example the request ID set by the
// RequestID middleware.
package logger
