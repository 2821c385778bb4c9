// Package logger provides leveled loggers for sbat commands.
//
// ConsoleLogger writes timestamped lines to a terminal or any io.Writer and
// knows how to render configuration issues and validation reports.
// FileLogger keeps a per-run log file inside a prepared workspace.
// Implementations are safe for concurrent use.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/harrison/sbat/internal/config"
)

// Log level constants for filtering
const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// ConsoleLogger logs to a writer with timestamps and thread safety.
// All output is prefixed with [HH:MM:SS] timestamps.
// Color output is enabled automatically when the writer is a terminal.
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
}

// NewConsoleLogger creates a ConsoleLogger that writes to the provided io.Writer.
// If writer is nil, messages are silently discarded.
// Valid levels: trace, debug, info, warn, error (case-insensitive).
// If logLevel is empty or invalid, defaults to "info".
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      writer,
		logLevel:    normalizeLogLevel(logLevel),
		colorOutput: IsTerminal(writer),
	}
}

// SetColor overrides terminal detection.
func (cl *ConsoleLogger) SetColor(enabled bool) {
	cl.mutex.Lock()
	defer cl.mutex.Unlock()
	cl.colorOutput = enabled
}

// IsTerminal reports whether w is a terminal that should receive colors.
// It is false when NO_COLOR is set.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || f == nil {
		return false
	}
	fd := f.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return false
	}
	return !color.NoColor
}

// normalizeLogLevel converts a log level string to lowercase and validates it.
// Returns "info" as default for empty or invalid levels.
func normalizeLogLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))

	switch normalized {
	case "trace", "debug", "info", "warn", "error":
		return normalized
	}
	return "info"
}

func (cl *ConsoleLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(cl.logLevel)
}

// logLevelToInt converts a log level string to its numeric value.
func logLevelToInt(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "info":
		return levelInfo
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

// LogTrace logs a trace-level message (most verbose).
// Format: "[HH:MM:SS] [TRACE] <message>"
func (cl *ConsoleLogger) LogTrace(message string) {
	cl.logWithLevel("TRACE", message)
}

// LogDebug logs a debug-level message.
func (cl *ConsoleLogger) LogDebug(message string) {
	cl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
func (cl *ConsoleLogger) LogInfo(message string) {
	cl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
func (cl *ConsoleLogger) LogWarn(message string) {
	cl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
func (cl *ConsoleLogger) LogError(message string) {
	cl.logWithLevel("ERROR", message)
}

func (cl *ConsoleLogger) logWithLevel(level string, message string) {
	if cl.writer == nil {
		return
	}
	if !cl.shouldLog(strings.ToLower(level)) {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	cl.writer.Write([]byte(cl.format(timestamp(), level, message)))
}

func (cl *ConsoleLogger) format(ts, level, message string) string {
	if !cl.colorOutput {
		return fmt.Sprintf("[%s] [%s] %s\n", ts, level, message)
	}

	var coloredLevel string
	switch level {
	case "TRACE":
		coloredLevel = color.New(color.FgHiBlack).Sprint(level)
	case "DEBUG":
		coloredLevel = color.New(color.FgCyan).Sprint(level)
	case "INFO":
		coloredLevel = color.New(color.FgBlue).Sprint(level)
	case "WARN":
		coloredLevel = color.New(color.FgYellow).Sprint(level)
	case "ERROR":
		coloredLevel = color.New(color.FgRed).Sprint(level)
	default:
		coloredLevel = level
	}
	return fmt.Sprintf("[%s] [%s] %s\n", ts, coloredLevel, message)
}

// LogIssue logs one configuration problem. Errors are logged at ERROR level
// and warnings at WARN level.
// Format: "[HH:MM:SS] [ERROR] line 12: waterbalance.flow_type: ... (InvalidEnumValue)"
func (cl *ConsoleLogger) LogIssue(issue *config.ConfigError) {
	if issue == nil {
		return
	}
	level := "ERROR"
	if issue.Severity == config.SeverityWarning {
		level = "WARN"
	}
	cl.logWithLevel(level, formatIssue(issue, cl.colorOutput))
}

// LogReport logs the outcome of checking one document at INFO level,
// followed by each of its issues.
func (cl *ConsoleLogger) LogReport(report *config.Report) {
	if report == nil || cl.writer == nil {
		return
	}

	errs, warnings := report.Errors(), report.Warnings()
	if len(errs) == 0 {
		cl.logWithLevel("INFO", fmt.Sprintf("%s: valid %s document (%s)",
			report.Path, report.Format, formatCounts(0, len(warnings), cl.colorOutput)))
	} else {
		cl.logWithLevel("ERROR", fmt.Sprintf("%s: invalid %s document (%s)",
			report.Path, report.Format, formatCounts(len(errs), len(warnings), cl.colorOutput)))
	}
	for _, issue := range report.Issues {
		cl.LogIssue(issue)
	}
}

// timestamp returns the current time formatted as "15:04:05" (HH:MM:SS).
func timestamp() string {
	return time.Now().Format("15:04:05")
}

// NoOpLogger discards all log messages.
type NoOpLogger struct{}

// NewNoOpLogger creates a NoOpLogger instance.
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

func (n *NoOpLogger) LogTrace(message string)            {}
func (n *NoOpLogger) LogDebug(message string)            {}
func (n *NoOpLogger) LogInfo(message string)             {}
func (n *NoOpLogger) LogWarn(message string)             {}
func (n *NoOpLogger) LogError(message string)            {}
func (n *NoOpLogger) LogIssue(issue *config.ConfigError) {}
func (n *NoOpLogger) LogReport(report *config.Report)    {}
