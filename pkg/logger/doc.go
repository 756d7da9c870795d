// Package logger builds context-aware slog loggers for the billing tools.
//
// New creates a *slog.Logger configured by Option functions: output format,
// minimum level, static attributes, and ContextExtractor callbacks that pull
// values such as the request ID out of the context of each record.
// WithEnvironment and FromConfig apply per-environment defaults loaded from
// APP_ENV, LOG_LEVEL and LOG_FORMAT.
//
//	log := logger.New(
//	    logger.FromConfig(cfg.Log),
//	    logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	log.InfoContext(ctx, "checkout started",
//	    logger.PriceID(price.ID),
//	    logger.UserID(user.ID),
//	)
//
// The helpers in attr.go (Error, QueryKey, PriceID, Resource and others) keep
// attribute names consistent. Helpers taking an error or identifier return an
// empty attribute for nil or empty input, so they can be passed unconditionally.
package logger
