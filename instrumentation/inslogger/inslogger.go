// Copyright 2020 Insolar Network Ltd.
// All rights reserved.
// This material is licensed under the Insolar License version 1.0,
// available at https://github.com/insolar/assured-ledger/blob/master/LICENSE.md.

// Package inslogger carries a structured logger through context. Components
// never construct loggers themselves; they take whatever the context holds.
package inslogger

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/nigdaemon/truffle/configuration"
)

const TimestampFormat = "2006-01-02T15:04:05.000000000Z07:00"

// FromContext returns the logger stored in ctx, falling back to the global
// default when the context carries none.
func FromContext(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}

// SetLogger stores the logger in a child context.
func SetLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return logger.WithContext(ctx)
}

// WithField returns a child context whose logger carries an extra field.
func WithField(ctx context.Context, key, value string) context.Context {
	logger := FromContext(ctx).With().Str(key, value).Logger()
	return SetLogger(ctx, logger)
}

// TraceID tags every entry of the returned context's logger with a trace id.
func TraceID(ctx context.Context, traceID string) context.Context {
	return WithField(ctx, "traceid", traceID)
}

// NewLogger builds a logger from configuration. Supported formats are "json"
// and "text" (console writer); supported levels are zerolog's.
func NewLogger(cfg configuration.Log) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return zerolog.Logger{}, errors.Wrapf(err, "unknown log level %q", cfg.Level)
	}

	var output io.Writer = os.Stderr
	switch strings.ToLower(cfg.Formatter) {
	case "", "json":
	case "text":
		output = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: TimestampFormat}
	default:
		return zerolog.Logger{}, errors.Errorf("unknown log formatter %q", cfg.Formatter)
	}

	zerolog.TimeFieldFormat = TimestampFormat
	logger := zerolog.New(output).Level(level).With().Timestamp().Logger()
	return logger, nil
}

// InitNodeLogger builds the configured logger, installs it as the context and
// global default, and returns both.
func InitNodeLogger(ctx context.Context, cfg configuration.Log, nodeName string) (context.Context, zerolog.Logger, error) {
	logger, err := NewLogger(cfg)
	if err != nil {
		return ctx, logger, err
	}
	if nodeName != "" {
		logger = logger.With().Str("node", nodeName).Logger()
	}
	zerolog.DefaultContextLogger = &logger
	return SetLogger(ctx, logger), logger, nil
}
