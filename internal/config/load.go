package config

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"github.com/harrison/sbat/internal/document"
)

// Logger receives diagnostic messages from the loader.
type Logger interface {
	LogDebug(message string)
}

// Loader parses and validates configuration documents.
type Loader struct {
	strict bool
	logger Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithStrict turns unknown keys from warnings into errors.
func WithStrict(strict bool) Option {
	return func(l *Loader) { l.strict = strict }
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger Logger) Option {
	return func(l *Loader) { l.logger = logger }
}

// NewLoader creates a Loader with the given options.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads, parses and validates the document at path using default options.
func Load(path string) (*Config, error) {
	return NewLoader().Load(path)
}

// Load reads, parses and validates the document at path. Validation problems
// are returned together as a *ValidationError; the Config is nil whenever an
// error is returned.
func (l *Loader) Load(path string) (*Config, error) {
	report, err := l.Check(path)
	if err != nil {
		return nil, err
	}
	if err := report.Err(); err != nil {
		return nil, err
	}
	return report.Config, nil
}

// Check reads the document at path and returns every problem found. The
// returned error is only set when the file cannot be read.
func (l *Loader) Check(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return l.CheckBytes(path, data), nil
}

// CheckBytes validates an in-memory document. name selects the format by
// extension and appears in messages.
func (l *Loader) CheckBytes(name string, data []byte) *Report {
	sum := sha256.Sum256(data)
	report := &Report{
		Path:   name,
		Format: document.DetectFormat(name),
		SHA256: hex.EncodeToString(sum[:]),
	}
	l.debugf("parsing %s as %s (%d bytes)", name, report.Format, len(data))

	root, err := document.Parse(name, report.Format, data)
	if err != nil {
		report.Issues = append(report.Issues, structuralIssue(err))
		return report
	}
	if root.Kind != document.MappingNode && root.Kind != document.NullNode {
		report.Issues = append(report.Issues, &ConfigError{
			Kind:    KindStructural,
			Line:    root.Line,
			Message: fmt.Sprintf("document root must be a mapping, got %s", root.Describe()),
		})
		return report
	}

	d := newDecoder(l.strict, report.Format == document.FormatTOML)
	cfg := decodeConfig(d.root(root))
	crossCheck(d, cfg)
	report.Issues = d.issues

	if len(report.Errors()) == 0 {
		report.Config = cfg
	}
	l.debugf("%s: %d error(s), %d warning(s)", name, len(report.Errors()), len(report.Warnings()))
	return report
}

func (l *Loader) debugf(format string, args ...interface{}) {
	if l.logger != nil {
		l.logger.LogDebug(fmt.Sprintf(format, args...))
	}
}

func structuralIssue(err error) *ConfigError {
	issue := &ConfigError{Kind: KindStructural, Message: err.Error()}
	var syntaxErr *document.SyntaxError
	if errors.As(err, &syntaxErr) {
		issue.Line = syntaxErr.Line
		issue.Message = syntaxErr.Message
	}
	return issue
}

// Report is the outcome of checking one document.
type Report struct {
	Path   string
	Format document.Format
	// SHA256 is the hex digest of the raw document bytes.
	SHA256 string
	// Config is set only when there are no error-severity issues.
	Config *Config
	Issues []*ConfigError
}

// Errors returns the issues that prevent loading.
func (r *Report) Errors() []*ConfigError {
	return r.filter(SeverityError)
}

// Warnings returns advisory issues.
func (r *Report) Warnings() []*ConfigError {
	return r.filter(SeverityWarning)
}

// Valid reports whether the document loaded without errors.
func (r *Report) Valid() bool {
	return len(r.Errors()) == 0
}

// Err returns the aggregated *ValidationError, or nil when the document is valid.
func (r *Report) Err() error {
	errs := r.Errors()
	if len(errs) == 0 {
		return nil
	}
	return &ValidationError{Path: r.Path, Errors: errs}
}

func (r *Report) filter(sev Severity) []*ConfigError {
	var out []*ConfigError
	for _, issue := range r.Issues {
		if issue.Severity == sev {
			out = append(out, issue)
		}
	}
	return out
}
