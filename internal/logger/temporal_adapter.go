// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package logger

import (
	"fmt"

	"github.com/rs/zerolog"
	"go.temporal.io/sdk/log"
)

// TemporalLogAdapter routes the Temporal SDK's log.Logger calls through the
// same zerolog.Logger (and therefore the same lumberjack-backed sinks) as
// the rest of oceanrun, so a pipeline run driven by the temporal
// pipeline-backend shows up in the same log stream as one driven by
// sequential.
type TemporalLogAdapter struct {
	logger zerolog.Logger
}

// NewTemporalLogAdapter wraps an existing zerolog.Logger as a
// go.temporal.io/sdk/log.Logger.
func NewTemporalLogAdapter(logger zerolog.Logger) log.Logger {
	return &TemporalLogAdapter{logger: logger}
}

// GetTemporalLogAdapter returns a Temporal logger adapter bound to pkg's
// own zerolog logger, for passing into client.Options/worker.Options.
func GetTemporalLogAdapter(pkg string) log.Logger {
	return NewTemporalLogAdapter(GetLogger(pkg))
}

func (t *TemporalLogAdapter) Debug(msg string, keyvals ...interface{}) {
	t.emit(t.logger.Debug(), msg, keyvals)
}

func (t *TemporalLogAdapter) Info(msg string, keyvals ...interface{}) {
	t.emit(t.logger.Info(), msg, keyvals)
}

func (t *TemporalLogAdapter) Warn(msg string, keyvals ...interface{}) {
	t.emit(t.logger.Warn(), msg, keyvals)
}

func (t *TemporalLogAdapter) Error(msg string, keyvals ...interface{}) {
	t.emit(t.logger.Error(), msg, keyvals)
}

// With returns an adapter over a child logger carrying keyvals as
// persistent fields, mirroring zerolog's own With() chaining.
func (t *TemporalLogAdapter) With(keyvals ...interface{}) log.Logger {
	ctx := t.logger.With()
	forEachPair(keyvals, func(key string, value interface{}) {
		ctx = ctx.Interface(key, value)
	})
	return &TemporalLogAdapter{logger: ctx.Logger()}
}

// emit writes msg plus keyvals to an already-leveled zerolog.Event. event is
// consumed exactly once, per zerolog's own contract.
func (t *TemporalLogAdapter) emit(event *zerolog.Event, msg string, keyvals []interface{}) {
	forEachPair(keyvals, func(key string, value interface{}) {
		switch v := value.(type) {
		case string:
			event = event.Str(key, v)
		case int:
			event = event.Int(key, v)
		case int64:
			event = event.Int64(key, v)
		case float64:
			event = event.Float64(key, v)
		case bool:
			event = event.Bool(key, v)
		case error:
			event = event.Err(v)
		case fmt.Stringer:
			event = event.Str(key, v.String())
		default:
			event = event.Interface(key, v)
		}
	})
	event.Msg(msg)
}

// forEachPair walks keyvals two at a time (Temporal's logger interface
// passes alternating key, value arguments), calling fn for each complete
// pair and silently dropping a trailing unpaired key.
func forEachPair(keyvals []interface{}, fn func(key string, value interface{})) {
	for i := 0; i+1 < len(keyvals); i += 2 {
		fn(fmt.Sprint(keyvals[i]), keyvals[i+1])
	}
}
