package config

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a configuration problem.
type Kind int

const (
	// KindStructural is a document that cannot be parsed.
	KindStructural Kind = iota + 1
	KindMissingSection
	KindMissingField
	KindTypeMismatch
	KindInvalidEnumValue
	KindOutOfRangeValue
	KindDateOrderViolation
	// KindInconsistent is a contradiction between fields of different sections.
	KindInconsistent
	KindUnknownField
)

// Sentinels matched by errors.Is against a *ConfigError or *ValidationError.
var (
	ErrStructural     = errors.New("malformed document")
	ErrMissingSection = errors.New("missing section")
	ErrMissingField   = errors.New("missing field")
	ErrTypeMismatch   = errors.New("type mismatch")
	ErrInvalidEnum    = errors.New("invalid enum value")
	ErrOutOfRange     = errors.New("out of range value")
	ErrDateOrder      = errors.New("date order violation")
	ErrInconsistent   = errors.New("inconsistent configuration")
	ErrUnknownField   = errors.New("unknown field")
)

func (k Kind) String() string {
	switch k {
	case KindStructural:
		return "Structural"
	case KindMissingSection:
		return "MissingSection"
	case KindMissingField:
		return "MissingField"
	case KindTypeMismatch:
		return "TypeMismatch"
	case KindInvalidEnumValue:
		return "InvalidEnumValue"
	case KindOutOfRangeValue:
		return "OutOfRangeValue"
	case KindDateOrderViolation:
		return "DateOrderViolation"
	case KindInconsistent:
		return "Inconsistent"
	case KindUnknownField:
		return "UnknownField"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindStructural:
		return ErrStructural
	case KindMissingSection:
		return ErrMissingSection
	case KindMissingField:
		return ErrMissingField
	case KindTypeMismatch:
		return ErrTypeMismatch
	case KindInvalidEnumValue:
		return ErrInvalidEnum
	case KindOutOfRangeValue:
		return ErrOutOfRange
	case KindDateOrderViolation:
		return ErrDateOrder
	case KindInconsistent:
		return ErrInconsistent
	case KindUnknownField:
		return ErrUnknownField
	default:
		return nil
	}
}

// Severity separates problems that block loading from advisories.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// ConfigError is one problem found in a document.
type ConfigError struct {
	Kind     Kind
	Severity Severity
	// Path is the dotted key path, e.g. "waterbalance.flow_type".
	Path string
	// Line is the 1-based source line, 0 if unknown.
	Line    int
	Message string
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	if e.Line > 0 {
		fmt.Fprintf(&b, "line %d: ", e.Line)
	}
	if e.Path != "" {
		b.WriteString(e.Path)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	return b.String()
}

// Unwrap exposes the sentinel for the error's kind.
func (e *ConfigError) Unwrap() error {
	return e.Kind.sentinel()
}

// ValidationError aggregates every error-severity problem of one document.
type ValidationError struct {
	Path   string
	Errors []*ConfigError
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "config %s: %d validation error(s)", e.Path, len(e.Errors))
	for _, ce := range e.Errors {
		b.WriteString("\n  - [")
		b.WriteString(ce.Kind.String())
		b.WriteString("] ")
		b.WriteString(ce.Error())
	}
	return b.String()
}

// Unwrap returns the individual problems so errors.Is and errors.As see each one.
func (e *ValidationError) Unwrap() []error {
	errs := make([]error, len(e.Errors))
	for i, ce := range e.Errors {
		errs[i] = ce
	}
	return errs
}

// Has reports whether any aggregated problem is of kind k.
func (e *ValidationError) Has(k Kind) bool {
	for _, ce := range e.Errors {
		if ce.Kind == k {
			return true
		}
	}
	return false
}

// Find returns the first problem of kind k at path, or nil.
func (e *ValidationError) Find(k Kind, path string) *ConfigError {
	for _, ce := range e.Errors {
		if ce.Kind == k && ce.Path == path {
			return ce
		}
	}
	return nil
}
