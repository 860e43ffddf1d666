package logger

import (
	"io"
	"os"
	"time"
)

const (
	// DefaultTimeFormat is the default time format for log entries.
	DefaultTimeFormat = time.RFC3339
	// DefaultLevel is the default logging level.
	DefaultLevel = InfoLevel
)

// Config holds configuration for the logger.
type Config struct {
	// Level is the minimum level to log
	Level Level
	// Output is where the logs will be written
	Output io.Writer
	// EnableCaller adds the caller information to log entries
	EnableCaller bool
	// EnableStackTrace attaches the stack trace of wrapped errors
	EnableStackTrace bool
	// TimeFormat specifies the format for timestamps
	TimeFormat string
	// EnableJSON enables JSON output format
	EnableJSON bool
	// DisableTimestamp disables timestamp in log entries
	DisableTimestamp bool
	// AdditionalFields adds these fields to all log entries
	AdditionalFields []Field
}

// DefaultConfig returns the default logger configuration.
func DefaultConfig() Config {
	return Config{
		Output:           os.Stderr,
		Level:            DefaultLevel,
		EnableCaller:     false,
		EnableStackTrace: true,
		TimeFormat:       DefaultTimeFormat,
		EnableJSON:       false,
		AdditionalFields: make([]Field, 0),
	}
}
