// Package logging holds the process-wide logger. Output goes to stderr so
// scrape results printed on stdout stay machine readable. The level helpers
// are nil-safe: before InitConsole runs, records are dropped, which keeps
// library packages quiet under test.
package logging

import (
	"os"

	"github.com/charmbracelet/log"
)

// Logger is the process-wide logger, nil until InitConsole runs.
var Logger *log.Logger

// InitConsole routes log output to stderr at info level, or at debug level
// when verbose mode is on.
func InitConsole(debug bool) {
	level := log.InfoLevel
	if debug {
		level = log.DebugLevel
	}
	Logger = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
		Level:           level,
	})
}

// Debug logs at debug level with optional key-value context.
func Debug(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Debug(msg, keyvals...)
	}
}

// Info logs at info level with optional key-value context.
func Info(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Info(msg, keyvals...)
	}
}

// Warn logs at warn level with optional key-value context.
func Warn(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Warn(msg, keyvals...)
	}
}

// Error logs at error level with optional key-value context.
func Error(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Error(msg, keyvals...)
	}
}

// Fatal logs at fatal level and terminates the process. It exits even when
// the logger was never initialized.
func Fatal(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Fatal(msg, keyvals...)
	}
	os.Exit(1)
}
