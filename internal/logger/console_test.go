package logger

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/fatih/color"

	"github.com/harrison/sbat/internal/config"
)

var linePattern = regexp.MustCompile(`^\[\d{2}:\d{2}:\d{2}\] \[(TRACE|DEBUG|INFO|WARN|ERROR)\] `)

func TestNewConsoleLogger(t *testing.T) {
	t.Run("with valid writer", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger := NewConsoleLogger(buf, "INFO ")

		if logger.writer != buf {
			t.Error("writer not set correctly")
		}
		if logger.logLevel != "info" {
			t.Errorf("expected log level %q, got %q", "info", logger.logLevel)
		}
		if logger.colorOutput {
			t.Error("expected no color for a buffer")
		}
	})

	t.Run("with nil writer", func(t *testing.T) {
		logger := NewConsoleLogger(nil, "debug")
		logger.LogError("discarded")
	})

	t.Run("invalid level defaults to info", func(t *testing.T) {
		logger := NewConsoleLogger(&bytes.Buffer{}, "chatty")
		if logger.logLevel != "info" {
			t.Errorf("expected log level %q, got %q", "info", logger.logLevel)
		}
	})
}

func TestLevelFiltering(t *testing.T) {
	tests := []struct {
		level string
		want  []string
	}{
		{"trace", []string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR"}},
		{"debug", []string{"DEBUG", "INFO", "WARN", "ERROR"}},
		{"info", []string{"INFO", "WARN", "ERROR"}},
		{"warn", []string{"WARN", "ERROR"}},
		{"error", []string{"ERROR"}},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := NewConsoleLogger(buf, tt.level)

			logger.LogTrace("t")
			logger.LogDebug("d")
			logger.LogInfo("i")
			logger.LogWarn("w")
			logger.LogError("e")

			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			if len(lines) != len(tt.want) {
				t.Fatalf("got %d lines, want %d:\n%s", len(lines), len(tt.want), buf.String())
			}
			for i, line := range lines {
				m := linePattern.FindStringSubmatch(line)
				if m == nil {
					t.Fatalf("line %q does not match the log format", line)
				}
				if m[1] != tt.want[i] {
					t.Errorf("line %d level = %s, want %s", i, m[1], tt.want[i])
				}
			}
		})
	}
}

func TestLogIssue(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewConsoleLogger(buf, "info")

	logger.LogIssue(&config.ConfigError{
		Kind:    config.KindOutOfRangeValue,
		Path:    "waterbalance.confidence_acceptance_level",
		Line:    64,
		Message: "value 1.5 is out of range, must be (0,1)",
	})
	logger.LogIssue(&config.ConfigError{
		Kind:     config.KindUnknownField,
		Severity: config.SeverityWarning,
		Path:     "plotting",
		Message:  "unknown key is ignored",
	})
	logger.LogIssue(nil)

	out := buf.String()
	want := "[ERROR] line 64: waterbalance.confidence_acceptance_level: value 1.5 is out of range, must be (0,1) (OutOfRangeValue)"
	if !strings.Contains(out, want) {
		t.Errorf("output missing %q:\n%s", want, out)
	}
	if !strings.Contains(out, "[WARN] plotting: unknown key is ignored (UnknownField)") {
		t.Errorf("warning not logged at WARN:\n%s", out)
	}
	if n := strings.Count(out, "\n"); n != 2 {
		t.Errorf("got %d lines, want 2", n)
	}
}

func TestLogIssueFilteredByLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewConsoleLogger(buf, "error")

	logger.LogIssue(&config.ConfigError{Kind: config.KindUnknownField, Severity: config.SeverityWarning, Path: "x"})
	if buf.Len() != 0 {
		t.Errorf("warning logged at error level: %q", buf.String())
	}
}

func TestLogReport(t *testing.T) {
	t.Run("valid document", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger := NewConsoleLogger(buf, "info")

		report := config.NewLoader().CheckBytes("model.yml", []byte("{}"))
		report.Issues = nil
		logger.LogReport(report)

		if !strings.Contains(buf.String(), "[INFO] model.yml: valid yaml document (0 error(s), 0 warning(s))") {
			t.Errorf("unexpected output: %q", buf.String())
		}
	})

	t.Run("invalid document lists issues", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger := NewConsoleLogger(buf, "info")

		report := config.NewLoader().CheckBytes("model.toml", []byte("[info]\nmodel_name = \"m\"\n"))
		logger.LogReport(report)

		out := buf.String()
		if !strings.Contains(out, "model.toml: invalid toml document") {
			t.Errorf("missing summary line:\n%s", out)
		}
		if got, want := strings.Count(out, "(MissingSection)"), len(report.Errors()); got != want {
			t.Errorf("logged %d MissingSection issues, want %d:\n%s", got, want, out)
		}
	})
}

func TestColorOutput(t *testing.T) {
	oldNoColor := color.NoColor
	color.NoColor = false
	defer func() { color.NoColor = oldNoColor }()

	buf := &bytes.Buffer{}
	logger := NewConsoleLogger(buf, "info")
	logger.SetColor(true)
	logger.LogWarn("careful")

	if !strings.Contains(buf.String(), "\x1b[") {
		t.Errorf("expected ANSI codes, got %q", buf.String())
	}

	buf.Reset()
	logger.SetColor(false)
	logger.LogWarn("careful")
	if strings.Contains(buf.String(), "\x1b[") {
		t.Errorf("expected plain output, got %q", buf.String())
	}
}

func TestIsTerminal(t *testing.T) {
	if IsTerminal(&bytes.Buffer{}) {
		t.Error("buffer reported as terminal")
	}
	if IsTerminal(nil) {
		t.Error("nil writer reported as terminal")
	}
	f, err := os.CreateTemp(t.TempDir(), "out")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if IsTerminal(f) {
		t.Error("regular file reported as terminal")
	}
}

func TestConcurrentLogging(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewConsoleLogger(buf, "info")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			logger.LogInfo(fmt.Sprintf("message %d", n))
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 20 {
		t.Fatalf("got %d lines, want 20", len(lines))
	}
	for _, line := range lines {
		if !linePattern.MatchString(line) {
			t.Errorf("interleaved line %q", line)
		}
	}
}

func TestMulti(t *testing.T) {
	a, b := &bytes.Buffer{}, &bytes.Buffer{}
	l := Multi(NewConsoleLogger(a, "info"), nil, NewConsoleLogger(b, "warn"), NewNoOpLogger())

	l.LogInfo("hello")
	l.LogError("boom")

	if strings.Count(a.String(), "\n") != 2 {
		t.Errorf("first logger got %q", a.String())
	}
	if strings.Count(b.String(), "\n") != 1 || !strings.Contains(b.String(), "boom") {
		t.Errorf("second logger got %q", b.String())
	}
}
