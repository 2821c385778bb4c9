package logger

import "github.com/harrison/sbat/internal/config"

// Logger is implemented by ConsoleLogger, FileLogger and NoOpLogger.
type Logger interface {
	LogTrace(message string)
	LogDebug(message string)
	LogInfo(message string)
	LogWarn(message string)
	LogError(message string)
	LogIssue(issue *config.ConfigError)
	LogReport(report *config.Report)
}

// Multi sends every message to each of loggers in order. Nil entries are skipped.
func Multi(loggers ...Logger) Logger {
	var out multiLogger
	for _, l := range loggers {
		if l != nil {
			out = append(out, l)
		}
	}
	return out
}

type multiLogger []Logger

func (m multiLogger) LogTrace(message string) {
	for _, l := range m {
		l.LogTrace(message)
	}
}

func (m multiLogger) LogDebug(message string) {
	for _, l := range m {
		l.LogDebug(message)
	}
}

func (m multiLogger) LogInfo(message string) {
	for _, l := range m {
		l.LogInfo(message)
	}
}

func (m multiLogger) LogWarn(message string) {
	for _, l := range m {
		l.LogWarn(message)
	}
}

func (m multiLogger) LogError(message string) {
	for _, l := range m {
		l.LogError(message)
	}
}

func (m multiLogger) LogIssue(issue *config.ConfigError) {
	for _, l := range m {
		l.LogIssue(issue)
	}
}

func (m multiLogger) LogReport(report *config.Report) {
	for _, l := range m {
		l.LogReport(report)
	}
}
