package adapter

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hyp3rd/ewrap/pkg/ewrap"
	"github.com/rs/zerolog"

	"github.com/tamfolio/gatewayshield-admin-sub000/internal/logger"
)

const callerDepth = 3

// adapter implements logger.Logger on top of a zerolog.Logger. Children created
// through WithFields share the level so SetLevel on the root applies everywhere.
type adapter struct {
	zl         zerolog.Logger
	config     logger.Config
	level      *atomic.Uint32
	timeFormat string
}

// NewAdapter creates a zerolog-backed logger writing to config.Output, either as
// JSON lines or through zerolog's console writer.
func NewAdapter(config logger.Config) (logger.Logger, error) {
	if config.Output == nil {
		return nil, ewrap.New("output writer is required")
	}

	if config.TimeFormat == "" {
		config.TimeFormat = logger.DefaultTimeFormat
	}

	out := config.Output
	if !config.EnableJSON {
		out = zerolog.ConsoleWriter{
			Out:        config.Output,
			NoColor:    true,
			TimeFormat: config.TimeFormat,
		}
	}

	zctx := zerolog.New(out).With()
	for _, field := range config.AdditionalFields {
		zctx = zctx.Interface(field.Key, field.Value)
	}

	level := new(atomic.Uint32)
	level.Store(uint32(config.Level))

	return &adapter{
		zl:         zctx.Logger(),
		config:     config,
		level:      level,
		timeFormat: config.TimeFormat,
	}, nil
}

func toZerolog(level logger.Level) zerolog.Level {
	switch level {
	case logger.TraceLevel:
		return zerolog.TraceLevel
	case logger.DebugLevel:
		return zerolog.DebugLevel
	case logger.InfoLevel:
		return zerolog.InfoLevel
	case logger.WarnLevel:
		return zerolog.WarnLevel
	case logger.ErrorLevel:
		return zerolog.ErrorLevel
	case logger.FatalLevel:
		return zerolog.FatalLevel
	default:
		return zerolog.NoLevel
	}
}

func (a *adapter) log(level logger.Level, msg string) {
	if level < logger.Level(a.level.Load()) {
		return
	}

	// WithLevel never exits the process, even for FatalLevel.
	event := a.zl.WithLevel(toZerolog(level))
	if event == nil {
		return
	}

	if !a.config.DisableTimestamp {
		event = event.Str(zerolog.TimestampFieldName, time.Now().Format(a.timeFormat))
	}

	if a.config.EnableCaller {
		event = event.Str(zerolog.CallerFieldName, getCaller())
	}

	event.Msg(msg)
}

func getCaller() string {
	_, file, line, ok := runtime.Caller(callerDepth)
	if !ok {
		return "unknown"
	}

	parts := strings.Split(file, "/")
	//nolint:mnd
	if len(parts) > 2 {
		file = strings.Join(parts[len(parts)-2:], "/")
	}

	return fmt.Sprintf("%s:%d", file, line)
}

// WithContext attaches the request id carried by ctx, if any.
func (a *adapter) WithContext(ctx context.Context) logger.Logger {
	if id, ok := logger.RequestIDFromContext(ctx); ok {
		return a.WithFields(logger.F("request_id", id))
	}

	return a
}

// WithFields returns a child logger carrying the extra fields.
func (a *adapter) WithFields(fields ...logger.Field) logger.Logger {
	if len(fields) == 0 {
		return a
	}

	zctx := a.zl.With()
	for _, field := range fields {
		zctx = appendField(zctx, field)
	}

	return &adapter{
		zl:         zctx.Logger(),
		config:     a.config,
		level:      a.level,
		timeFormat: a.timeFormat,
	}
}

func appendField(zctx zerolog.Context, field logger.Field) zerolog.Context {
	switch val := field.Value.(type) {
	case string:
		return zctx.Str(field.Key, val)
	case int:
		return zctx.Int(field.Key, val)
	case int64:
		return zctx.Int64(field.Key, val)
	case bool:
		return zctx.Bool(field.Key, val)
	case time.Duration:
		return zctx.Dur(field.Key, val)
	case time.Time:
		return zctx.Time(field.Key, val)
	case error:
		return zctx.Str(field.Key, val.Error())
	default:
		return zctx.Interface(field.Key, val)
	}
}

// WithError adds an error field and, for ewrap errors, the captured stack trace.
func (a *adapter) WithError(err error) logger.Logger {
	if err == nil {
		return a
	}

	fields := []logger.Field{logger.F("error", err.Error())}

	if a.config.EnableStackTrace {
		if traced, ok := err.(interface{ StackTrace() string }); ok {
			fields = append(fields, logger.F("stack_trace", traced.StackTrace()))
		}
	}

	return a.WithFields(fields...)
}

func (a *adapter) Trace(msg string)                  { a.log(logger.TraceLevel, msg) }
func (a *adapter) Debug(msg string)                  { a.log(logger.DebugLevel, msg) }
func (a *adapter) Info(msg string)                   { a.log(logger.InfoLevel, msg) }
func (a *adapter) Warn(msg string)                   { a.log(logger.WarnLevel, msg) }
func (a *adapter) Error(msg string)                  { a.log(logger.ErrorLevel, msg) }
func (a *adapter) Tracef(format string, args ...any) { a.Trace(fmt.Sprintf(format, args...)) }
func (a *adapter) Debugf(format string, args ...any) { a.Debug(fmt.Sprintf(format, args...)) }
func (a *adapter) Infof(format string, args ...any)  { a.Info(fmt.Sprintf(format, args...)) }
func (a *adapter) Warnf(format string, args ...any)  { a.Warn(fmt.Sprintf(format, args...)) }
func (a *adapter) Errorf(format string, args ...any) { a.Error(fmt.Sprintf(format, args...)) }

// GetLevel returns the current logging level.
func (a *adapter) GetLevel() logger.Level {
	return logger.Level(a.level.Load())
}

// SetLevel changes the level for this logger and every logger derived from it.
func (a *adapter) SetLevel(level logger.Level) {
	a.level.Store(uint32(level))
}

// Sync flushes the underlying writer when it supports it.
func (a *adapter) Sync() error {
	if syncer, ok := a.config.Output.(interface{ Sync() error }); ok {
		if err := syncer.Sync(); err != nil {
			return ewrap.Wrap(err, "syncing log output")
		}
	}

	return nil
}
