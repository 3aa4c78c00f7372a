/*
Copyright © 2025 Jayson Grace <jayson.e.grace@gmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/

// Package logging provides the jdkbuild console logger and the build log sink.
// Loggers travel in the context: use InfoContext, WarnContext and friends
// rather than holding a logger reference.
package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
)

// LogLevel represents the severity level of a log message.
type LogLevel int

// OutputType represents the output format for logs.
type OutputType int

// Output types for different log formats
const (
	PlainOutput OutputType = iota
	ColorOutput
	JSONOutput
)

// Log levels, ordered from least to most severe.
const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "INFO"
	}
}

// CustomLogger writes leveled messages to a console writer.
type CustomLogger struct {
	mu            sync.Mutex
	LogLevel      slog.Level
	OutputType    OutputType
	Quiet         bool
	Verbose       bool
	ConsoleWriter io.Writer
	// Stdout receives command results written through Output.
	Stdout io.Writer
}

type jsonLine struct {
	Time    string `json:"time"`
	Level   string `json:"level"`
	Message string `json:"msg"`
}

func (l *CustomLogger) formatMessage(level LogLevel, message string, args ...interface{}) string {
	formattedMsg := fmt.Sprintf(message, args...)
	timestamp := time.Now().Format("2006-01-02 15:04:05")

	switch l.OutputType {
	case JSONOutput:
		data, err := json.Marshal(jsonLine{Time: timestamp, Level: level.String(), Message: formattedMsg})
		if err != nil {
			return formattedMsg
		}
		return string(data)
	case ColorOutput:
		switch level {
		case DebugLevel:
			formattedMsg = color.HiBlackString("[DEBUG] %s", formattedMsg)
		case InfoLevel:
			formattedMsg = color.HiGreenString("[INFO] %s", formattedMsg)
		case WarnLevel:
			formattedMsg = color.HiYellowString("[WARN] %s", formattedMsg)
		case ErrorLevel:
			formattedMsg = color.HiRedString("[ERROR] %s", formattedMsg)
		}
	default:
		formattedMsg = fmt.Sprintf("[%s] %s", level, formattedMsg)
	}
	return fmt.Sprintf("[%s] %s", timestamp, formattedMsg)
}

// visibleLocked must be called while holding l.mu.
func (l *CustomLogger) visibleLocked(level LogLevel) bool {
	if l.Quiet {
		return level == ErrorLevel
	}
	if l.Verbose {
		return true
	}
	if level == DebugLevel {
		return l.LogLevel <= slog.LevelDebug
	}
	return level >= InfoLevel
}

func (l *CustomLogger) log(level LogLevel, message string, args ...interface{}) {
	line := l.formatMessage(level, message, args...)

	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.visibleLocked(level) || l.ConsoleWriter == nil {
		return
	}
	if _, err := fmt.Fprintln(l.ConsoleWriter, line); err != nil {
		fmt.Fprintln(os.Stderr, line)
	}
}

// NewCustomLogger creates a plain-text logger writing to stderr.
func NewCustomLogger(level slog.Level) *CustomLogger {
	return &CustomLogger{
		LogLevel:      level,
		OutputType:    PlainOutput,
		ConsoleWriter: os.Stderr,
		Stdout:        os.Stdout,
	}
}

// NewCustomLoggerWithOptions creates a logger from CLI-style options.
func NewCustomLoggerWithOptions(logLevelStr, outputFormat string, quiet, verbose bool) *CustomLogger {
	logger := NewCustomLogger(DetermineLogLevel(logLevelStr))
	logger.OutputType = determineOutputType(outputFormat)
	logger.Quiet = quiet
	logger.Verbose = verbose
	if verbose && logger.LogLevel > slog.LevelDebug {
		logger.LogLevel = slog.LevelDebug
	}
	return logger
}

// Initialize validates the options and builds the process logger.
func Initialize(logLevelStr, outputFormat string, quiet, verbose bool) (*CustomLogger, error) {
	switch logLevelStr {
	case "", "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("unknown log level %q", logLevelStr)
	}
	switch outputFormat {
	case "", "text", "plain", "color", "json":
	default:
		return nil, fmt.Errorf("unknown log format %q", outputFormat)
	}
	if quiet && verbose {
		return nil, fmt.Errorf("quiet and verbose are mutually exclusive")
	}
	return NewCustomLoggerWithOptions(logLevelStr, outputFormat, quiet, verbose), nil
}

func determineOutputType(format string) OutputType {
	switch format {
	case "json":
		return JSONOutput
	case "color":
		return ColorOutput
	default:
		return PlainOutput
	}
}

// DetermineLogLevel converts a string to slog.Level.
func DetermineLogLevel(levelStr string) slog.Level {
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Info logs an informational message.
func (l *CustomLogger) Info(format string, args ...interface{}) {
	l.log(InfoLevel, format, args...)
}

// Warn logs a warning message.
func (l *CustomLogger) Warn(format string, args ...interface{}) {
	l.log(WarnLevel, format, args...)
}

// Debug logs a debug message.
func (l *CustomLogger) Debug(format string, args ...interface{}) {
	l.log(DebugLevel, format, args...)
}

// Error logs an error message. It accepts an error, a format string,
// or any other value as the first argument.
func (l *CustomLogger) Error(firstArg interface{}, args ...interface{}) {
	switch v := firstArg.(type) {
	case error:
		l.log(ErrorLevel, "%s", v.Error())
	case string:
		l.log(ErrorLevel, v, args...)
	default:
		l.log(ErrorLevel, "%v", v)
	}
}

// Output writes a command result to stdout, JSON-encoded in JSON mode.
func (l *CustomLogger) Output(data interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := l.Stdout
	if out == nil {
		out = os.Stdout
	}
	if l.OutputType == JSONOutput {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		_ = encoder.Encode(data)
		return
	}
	_, _ = fmt.Fprintln(out, data)
}

type loggerKeyType struct{}

var loggerKey = loggerKeyType{}

// WithLogger returns a new context carrying the logger.
func WithLogger(ctx context.Context, l *CustomLogger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext retrieves the logger from the context, or a default logger.
func FromContext(ctx context.Context) *CustomLogger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey).(*CustomLogger); ok && l != nil {
			return l
		}
	}
	return NewCustomLogger(slog.LevelInfo)
}

// InfoContext logs an informational message using the logger from context.
func InfoContext(ctx context.Context, message string, args ...interface{}) {
	FromContext(ctx).Info(message, args...)
}

// WarnContext logs a warning message using the logger from context.
func WarnContext(ctx context.Context, message string, args ...interface{}) {
	FromContext(ctx).Warn(message, args...)
}

// DebugContext logs a debug message using the logger from context.
func DebugContext(ctx context.Context, message string, args ...interface{}) {
	FromContext(ctx).Debug(message, args...)
}

// ErrorContext logs an error message using the logger from context.
func ErrorContext(ctx context.Context, firstArg interface{}, args ...interface{}) {
	FromContext(ctx).Error(firstArg, args...)
}

// OutputContext writes a command result using the logger from context.
func OutputContext(ctx context.Context, data interface{}) {
	FromContext(ctx).Output(data)
}
