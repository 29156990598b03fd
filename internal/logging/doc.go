// FeedStream - Activity Feed Aggregation Service
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging provides centralized zerolog-based structured logging for
// FeedStream.
//
// # Overview
//
// The package provides:
//   - Zero-allocation structured logging via zerolog
//   - JSON output format for production (machine-parseable)
//   - Console output format for development (human-readable)
//   - Context-aware logging with correlation ID and request ID propagation
//   - slog adapter for Suture v4 supervisor tree integration
//
// # Quick Start
//
//	import "github.com/sh4yy/feedstream/internal/logging"
//
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	logging.Info().Str("feed", name).Msg("feed registered")
//	logging.Error().Err(err).Msg("publish failed")
//
//	// Context-aware logging, picks up correlation_id/request_id if set
//	logging.Ctx(ctx).Info().Str("consumer_id", consumerID).Msg("consumed")
//
// # Log Levels
//
// Supported log levels (from most to least verbose): trace, debug, info,
// warn, error, fatal, panic. Default is info.
//
// # Structured Logging
//
// Always terminate log chains with .Msg() or .Send():
//
//	logging.Info().Str("key", "value").Msg("message")  // correct
//	logging.Info().Str("key", "value")                 // wrong: not emitted
//
// # Component Loggers
//
//	queueLogger := logging.WithComponent("taskqueue")
//	queueLogger.Info().Msg("worker started")
//
// # slog Adapter
//
// The package provides an slog.Handler backed by zerolog for libraries that
// require slog.Logger, namely sutureslog:
//
//	slogger := logging.NewSlogLogger()
//	sutureHandler := &sutureslog.Handler{Logger: slogger}
//
// # Testing
//
//	var buf bytes.Buffer
//	logger := logging.NewTestLogger(&buf)
//	logger.Info().Msg("test message")
package logging
