// Package logger provides structured logging for the ingestion service.
//
// It wraps logrus behind a small Logger interface so that pipeline components
// can attach their component name and per-message fields without depending on
// logrus directly. Raw notification bodies are never passed to the logger;
// components log message identifiers and rule diagnostics only.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger interface defines the logging contract
type Logger interface {
	Debug(args ...interface{})
	Debugf(format string, args ...interface{})
	Info(args ...interface{})
	Infof(format string, args ...interface{})
	Warn(args ...interface{})
	Warnf(format string, args ...interface{})
	Error(args ...interface{})
	Errorf(format string, args ...interface{})
	WithField(key string, value interface{}) Logger
	WithFields(fields Fields) Logger
	WithError(err error) Logger
	WithComponent(component string) Logger
}

// Fields represents a map of key-value pairs for structured logging
type Fields map[string]interface{}

// Config holds configuration options for the logger
type Config struct {
	Level            Level  `json:"level" mapstructure:"level"`
	Format           Format `json:"format" mapstructure:"format"`
	Output           Output `json:"output" mapstructure:"output"`
	File             string `json:"file,omitempty" mapstructure:"file"`
	DisableTimestamp bool   `json:"disable_timestamp,omitempty" mapstructure:"disable_timestamp"`
	CallerInfo       bool   `json:"caller_info,omitempty" mapstructure:"caller_info"`

	// writer overrides Output; used by tests to capture log lines.
	writer io.Writer
}

// Level represents log levels
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

// Format represents log output formats
type Format string

const (
	JSONFormat Format = "json"
	TextFormat Format = "text"
)

// Output represents log output destinations
type Output string

const (
	StdoutOutput Output = "stdout"
	StderrOutput Output = "stderr"
	FileOutput   Output = "file"
)

// entryLogger wraps a logrus entry so fields survive chained With* calls.
type entryLogger struct {
	entry *logrus.Entry
}

// NewLogger creates a new logger with the given configuration
func NewLogger(config *Config) (Logger, error) {
	if config == nil {
		config = DefaultConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid logger configuration: %w", err)
	}

	base := logrus.New()

	level, err := logrus.ParseLevel(string(config.Level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %s: %w", config.Level, err)
	}
	base.SetLevel(level)

	writer, err := getOutputWriter(config)
	if err != nil {
		return nil, fmt.Errorf("failed to set log output: %w", err)
	}
	base.SetOutput(writer)
	base.SetFormatter(getFormatter(config))
	base.SetReportCaller(config.CallerInfo)

	return &entryLogger{entry: logrus.NewEntry(base)}, nil
}

// NewWithWriter creates a JSON logger that writes to w. Intended for tests.
func NewWithWriter(w io.Writer, level Level) Logger {
	config := &Config{
		Level:            level,
		Format:           JSONFormat,
		Output:           StderrOutput,
		DisableTimestamp: true,
		writer:           w,
	}
	log, err := NewLogger(config)
	if err != nil {
		return Discard()
	}
	return log
}

// Discard returns a logger that drops everything.
func Discard() Logger {
	base := logrus.New()
	base.SetOutput(io.Discard)
	return &entryLogger{entry: logrus.NewEntry(base)}
}

// DefaultConfig returns a default logger configuration
func DefaultConfig() *Config {
	return &Config{
		Level:  InfoLevel,
		Format: TextFormat,
		Output: StderrOutput,
	}
}

// DebugConfig returns a configuration suitable for debugging
func DebugConfig() *Config {
	return &Config{
		Level:      DebugLevel,
		Format:     TextFormat,
		Output:     StderrOutput,
		CallerInfo: true,
	}
}

// Validate validates the logger configuration
func (c *Config) Validate() error {
	validLevels := map[Level]bool{
		DebugLevel: true,
		InfoLevel:  true,
		WarnLevel:  true,
		ErrorLevel: true,
	}
	if !validLevels[c.Level] {
		return fmt.Errorf("invalid log level: %s", c.Level)
	}

	validFormats := map[Format]bool{
		JSONFormat: true,
		TextFormat: true,
	}
	if !validFormats[c.Format] {
		return fmt.Errorf("invalid log format: %s", c.Format)
	}

	validOutputs := map[Output]bool{
		StdoutOutput: true,
		StderrOutput: true,
		FileOutput:   true,
	}
	if !validOutputs[c.Output] {
		return fmt.Errorf("invalid log output: %s", c.Output)
	}

	if c.Output == FileOutput && strings.TrimSpace(c.File) == "" {
		return fmt.Errorf("log file path is required for file output")
	}

	return nil
}

func getOutputWriter(config *Config) (io.Writer, error) {
	if config.writer != nil {
		return config.writer, nil
	}
	switch config.Output {
	case StdoutOutput:
		return os.Stdout, nil
	case StderrOutput:
		return os.Stderr, nil
	case FileOutput:
		if err := os.MkdirAll(filepath.Dir(config.File), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		file, err := os.OpenFile(config.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		return file, nil
	default:
		return os.Stderr, nil
	}
}

func getFormatter(config *Config) logrus.Formatter {
	switch config.Format {
	case JSONFormat:
		return &logrus.JSONFormatter{
			DisableTimestamp: config.DisableTimestamp,
			TimestampFormat:  time.RFC3339,
			CallerPrettyfier: func(f *runtime.Frame) (string, string) {
				filename := filepath.Base(f.File)
				return fmt.Sprintf("%s()", f.Function), fmt.Sprintf("%s:%d", filename, f.Line)
			},
		}
	default:
		return &logrus.TextFormatter{
			DisableTimestamp: config.DisableTimestamp,
			TimestampFormat:  "2006-01-02 15:04:05",
			FullTimestamp:    !config.DisableTimestamp,
			CallerPrettyfier: func(f *runtime.Frame) (string, string) {
				filename := filepath.Base(f.File)
				return "", fmt.Sprintf("%s:%d", filename, f.Line)
			},
		}
	}
}

func (l *entryLogger) Debug(args ...interface{}) { l.entry.Debug(args...) }

func (l *entryLogger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }

func (l *entryLogger) Info(args ...interface{}) { l.entry.Info(args...) }

func (l *entryLogger) Infof(format string, args ...interface{}) { l.entry.Infof(format, args...) }

func (l *entryLogger) Warn(args ...interface{}) { l.entry.Warn(args...) }

func (l *entryLogger) Warnf(format string, args ...interface{}) { l.entry.Warnf(format, args...) }

func (l *entryLogger) Error(args ...interface{}) { l.entry.Error(args...) }

func (l *entryLogger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }

func (l *entryLogger) WithField(key string, value interface{}) Logger {
	return &entryLogger{entry: l.entry.WithField(key, value)}
}

func (l *entryLogger) WithFields(fields Fields) Logger {
	return &entryLogger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

func (l *entryLogger) WithError(err error) Logger {
	return &entryLogger{entry: l.entry.WithError(err)}
}

func (l *entryLogger) WithComponent(component string) Logger {
	return l.WithField("component", component)
}

var globalLogger Logger

func init() {
	var err error
	globalLogger, err = NewLogger(DefaultConfig())
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize logger")
	}
}

// SetGlobalLogger sets the global logger instance
func SetGlobalLogger(logger Logger) {
	if logger != nil {
		globalLogger = logger
	}
}

// GetGlobalLogger returns the global logger instance
func GetGlobalLogger() Logger {
	return globalLogger
}

// WithComponent returns the global logger tagged with a component name.
func WithComponent(component string) Logger {
	return globalLogger.WithComponent(component)
}

// WithFields returns the global logger with the given fields attached.
func WithFields(fields Fields) Logger {
	return globalLogger.WithFields(fields)
}
