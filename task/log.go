package task

import (
	"log/slog"
	"strings"
)

// LogLevel represents the severity level for logging messages.
type LogLevel string

const (
	// LogLevelDebug is used for detailed information.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo is used for general information messages.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn is used for warning conditions.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError is used for error conditions.
	LogLevelError LogLevel = "error"
)

// Logger defines an interface for logging at different severity levels.
type Logger interface {
	// Debug logs a message at debug level.
	Debug(msg string, args ...any)
	// Info logs a message at info level.
	Info(msg string, args ...any)
	// Warn logs a message at warning level.
	Warn(msg string, args ...any)
	// Error logs a message at error level.
	Error(msg string, args ...any)
}

// LogConfig holds configuration for task lifecycle logging.
// All fields can be customized individually. Defaults from the
// global defaultLogConfig are used for any fields not set.
type LogConfig struct {
	// Args are additional arguments to include in all log messages.
	Args []any

	// LevelStart is the log level used when a task begins running.
	// Defaults to LogLevelDebug.
	LevelStart LogLevel
	// LevelEnd is the log level used when a task completes.
	// Defaults to LogLevelDebug.
	LevelEnd LogLevel
	// LevelCancel is the log level used when a task is cancelled.
	// Defaults to LogLevelDebug.
	LevelCancel LogLevel
	// LevelFailure is the log level used when a task fails.
	// Defaults to LogLevelError.
	LevelFailure LogLevel

	// Disabled disables all lifecycle logging when set to true.
	Disabled bool
}

// SetDefaultLogConfig sets the default lifecycle log configuration for all
// spawned tasks. May be overridden per-task using WithLogConfig.
func SetDefaultLogConfig(config *LogConfig) {
	defaultLogConfig = *config.parse()
}

// SetDefaultLogger sets the default logger for all spawned tasks.
// slog.Default() is used by default.
func SetDefaultLogger(l Logger) {
	logger = l
}

// DefaultLogger returns the logger used for tasks spawned without
// WithLogger.
func DefaultLogger() Logger {
	return logger
}

var defaultLogConfig = LogConfig{
	LevelStart:   LogLevelDebug,
	LevelEnd:     LogLevelDebug,
	LevelCancel:  LogLevelDebug,
	LevelFailure: LogLevelError,
}

var logger Logger = slog.Default()

func parseLogLevel(level LogLevel) LogLevel {
	return LogLevel(strings.ToLower(string(level)))
}

func (c *LogConfig) parse() *LogConfig {
	if c == nil {
		c = &LogConfig{
			Disabled: defaultLogConfig.Disabled,
		}
	}
	c.LevelStart = parseLogLevel(c.LevelStart)
	if c.LevelStart == "" {
		c.LevelStart = defaultLogConfig.LevelStart
	}
	c.LevelEnd = parseLogLevel(c.LevelEnd)
	if c.LevelEnd == "" {
		c.LevelEnd = defaultLogConfig.LevelEnd
	}
	c.LevelCancel = parseLogLevel(c.LevelCancel)
	if c.LevelCancel == "" {
		c.LevelCancel = defaultLogConfig.LevelCancel
	}
	c.LevelFailure = parseLogLevel(c.LevelFailure)
	if c.LevelFailure == "" {
		c.LevelFailure = defaultLogConfig.LevelFailure
	}
	return c
}

func (c *LogConfig) logFunc(level LogLevel, log Logger) func(msg string, args ...any) {
	if c.Disabled {
		return func(msg string, args ...any) {}
	}
	switch level {
	case LogLevelDebug:
		return log.Debug
	case LogLevelWarn:
		return log.Warn
	case LogLevelError:
		return log.Error
	default:
		return log.Info
	}
}
