// Package logger provides a slog-based logging factory for the checkout
// engine with built-in redaction of sensitive payment data.
//
// The factory produces a *slog.Logger configured through functional options
// (format, level, output, static attributes). Every handler is wrapped with a
// RedactingHandler that masks card numbers, CVC codes and bearer tokens before
// records reach the underlying handler, so gateway adapters can log request
// context freely without leaking cardholder data.
//
// # Usage
//
//	log := logger.New(
//	    logger.WithTextFormatter(),
//	    logger.WithLevel(slog.LevelDebug),
//	    logger.WithAttr(slog.String("component", "checkout")),
//	)
//	log.Info("submitting order", logger.Gateway("stripe"), logger.PlanID("premium"))
package logger
