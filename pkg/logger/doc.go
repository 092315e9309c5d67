// Package logger builds log/slog loggers with environment presets,
// context attribute extraction, and attribute helpers for the sign-in
// domain.
//
//	log := logger.New(
//		logger.WithEnvironment(cfg.Env, "linkaura"),
//		logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	log.InfoContext(ctx, "link dispatched", logger.Email(addr))
//
// E-mail addresses passed through Email are masked.
package logger
