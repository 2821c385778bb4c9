package logger

import (
	"fmt"

	"github.com/fatih/color"

	"github.com/harrison/sbat/internal/config"
)

// colorScheme defines consistent colors for report elements.
// Red: errors
// Yellow: warnings
// Cyan: key paths and locations
// HiBlack: issue kinds
type colorScheme struct {
	success *color.Color
	fail    *color.Color
	warn    *color.Color
	label   *color.Color
	muted   *color.Color
}

func newColorScheme() *colorScheme {
	return &colorScheme{
		success: color.New(color.FgGreen),
		fail:    color.New(color.FgRed),
		warn:    color.New(color.FgYellow),
		label:   color.New(color.FgCyan),
		muted:   color.New(color.FgHiBlack),
	}
}

// formatIssue renders an issue as "line N: path: message (Kind)".
// The location is colored cyan and the kind dimmed when colored is true.
func formatIssue(issue *config.ConfigError, colored bool) string {
	var location string
	if issue.Line > 0 {
		location = fmt.Sprintf("line %d: ", issue.Line)
	}
	if issue.Path != "" {
		location += issue.Path + ": "
	}
	kind := "(" + issue.Kind.String() + ")"

	if !colored {
		return location + issue.Message + " " + kind
	}

	scheme := newColorScheme()
	message := issue.Message
	if issue.Severity == config.SeverityWarning {
		message = scheme.warn.Sprint(message)
	}
	return scheme.label.Sprint(location) + message + " " + scheme.muted.Sprint(kind)
}

// formatCounts renders "N error(s), M warning(s)" with non-zero counts colored.
func formatCounts(errs, warnings int, colored bool) string {
	errText := fmt.Sprintf("%d error(s)", errs)
	warnText := fmt.Sprintf("%d warning(s)", warnings)
	if !colored {
		return errText + ", " + warnText
	}

	scheme := newColorScheme()
	if errs > 0 {
		errText = scheme.fail.Sprint(errText)
	} else {
		errText = scheme.success.Sprint(errText)
	}
	if warnings > 0 {
		warnText = scheme.warn.Sprint(warnText)
	}
	return errText + ", " + warnText
}
