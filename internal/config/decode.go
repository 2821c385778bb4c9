package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/harrison/sbat/internal/document"
)

// numRange is an interval constraint on numeric fields. The zero value
// accepts every finite number.
type numRange struct {
	min, max         float64
	hasMin, hasMax   bool
	minOpen, maxOpen bool
}

var (
	anyNumber   = numRange{}
	openUnit    = numRange{min: 0, max: 1, hasMin: true, hasMax: true, minOpen: true, maxOpen: true}
	closedUnit  = numRange{min: 0, max: 1, hasMin: true, hasMax: true}
	positive    = numRange{min: 0, hasMin: true, minOpen: true}
	nonNegative = numRange{min: 0, hasMin: true}
	atLeastOne  = numRange{min: 1, hasMin: true}
)

func (r numRange) contains(v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	if r.hasMin && (v < r.min || (r.minOpen && v == r.min)) {
		return false
	}
	if r.hasMax && (v > r.max || (r.maxOpen && v == r.max)) {
		return false
	}
	return true
}

func (r numRange) String() string {
	num := func(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }
	switch {
	case r.hasMin && r.hasMax:
		lo, hi := "[", "]"
		if r.minOpen {
			lo = "("
		}
		if r.maxOpen {
			hi = ")"
		}
		return lo + num(r.min) + "," + num(r.max) + hi
	case r.hasMin && r.minOpen:
		return "> " + num(r.min)
	case r.hasMin:
		return ">= " + num(r.min)
	case r.hasMax && r.maxOpen:
		return "< " + num(r.max)
	case r.hasMax:
		return "<= " + num(r.max)
	default:
		return "finite"
	}
}

// decoder walks a document tree, filling typed values and collecting every
// problem instead of stopping at the first one.
type decoder struct {
	strict bool
	// nullless is set for formats without a null literal; an absent
	// nullable key then reads as null.
	nullless bool
	issues []*ConfigError
	// lines records the source line of every value that was present.
	lines map[string]int
}

func newDecoder(strict, nullless bool) *decoder {
	return &decoder{strict: strict, nullless: nullless, lines: make(map[string]int)}
}

func (d *decoder) add(kind Kind, path string, line int, format string, args ...interface{}) {
	d.issues = append(d.issues, &ConfigError{
		Kind:     kind,
		Severity: SeverityError,
		Path:     path,
		Line:     line,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (d *decoder) warn(kind Kind, path string, line int, format string, args ...interface{}) {
	d.issues = append(d.issues, &ConfigError{
		Kind:     kind,
		Severity: SeverityWarning,
		Path:     path,
		Line:     line,
		Message:  fmt.Sprintf(format, args...),
	})
}

// has reports whether a value was present at path.
func (d *decoder) has(path string) bool {
	_, ok := d.lines[path]
	return ok
}

func (d *decoder) line(path string) int {
	return d.lines[path]
}

// section is a mapping being decoded. A section whose node is nil is absent;
// reads from it return zero values without reporting anything further.
type section struct {
	d     *decoder
	path  string
	node  *document.Node
	known map[string]bool
}

func (d *decoder) root(n *document.Node) *section {
	if n.Kind == document.NullNode {
		n = document.NewMapping(n.Line)
	}
	d.lines[""] = n.Line
	return &section{d: d, node: n, known: make(map[string]bool)}
}

func (s *section) present() bool {
	return s.node != nil
}

func (s *section) keyPath(key string) string {
	if s.path == "" {
		return key
	}
	return s.path + "." + key
}

func (s *section) sectionLine() int {
	if s.node == nil {
		return 0
	}
	return s.node.Line
}

// child returns the nested mapping at key.
func (s *section) child(key string, required bool) *section {
	path := s.keyPath(key)
	absent := &section{d: s.d, path: path, known: make(map[string]bool)}
	if s.node == nil {
		return absent
	}
	s.known[key] = true
	n, ok := s.node.Get(key)
	if !ok || n.Kind == document.NullNode {
		if required {
			s.d.add(KindMissingSection, path, s.sectionLine(), "required section %q is missing", path)
		}
		return absent
	}
	if n.Kind != document.MappingNode {
		s.d.add(KindTypeMismatch, path, n.Line, "expected a mapping, got %s", n.Describe())
		return absent
	}
	s.d.lines[path] = n.Line
	absent.node = n
	return absent
}

// value returns the node at key when it is present and not null.
func (s *section) value(key string, required bool) (*document.Node, string, bool) {
	path := s.keyPath(key)
	if s.node == nil {
		return nil, path, false
	}
	s.known[key] = true
	n, ok := s.node.Get(key)
	if !ok || n.Kind == document.NullNode {
		if required {
			s.d.add(KindMissingField, path, s.sectionLine(), "required field is missing")
		}
		return nil, path, false
	}
	s.d.lines[path] = n.Line
	return n, path, true
}

func (s *section) mismatch(path string, n *document.Node, want string) {
	if n.Kind == document.ScalarNode {
		s.d.add(KindTypeMismatch, path, n.Line, "expected %s, got %s %q", want, n.Describe(), n.Value)
		return
	}
	s.d.add(KindTypeMismatch, path, n.Line, "expected %s, got %s", want, n.Describe())
}

func (s *section) str(key string, required bool) string {
	n, path, ok := s.value(key, required)
	if !ok {
		return ""
	}
	if n.Kind != document.ScalarNode || n.Type != document.StringScalar {
		s.mismatch(path, n, "string")
		return ""
	}
	if required && strings.TrimSpace(n.Value) == "" {
		s.d.add(KindMissingField, path, n.Line, "must not be empty")
	}
	return n.Value
}

func (s *section) boolean(key string, required bool) bool {
	n, path, ok := s.value(key, required)
	if !ok {
		return false
	}
	if n.Kind != document.ScalarNode || n.Type != document.BoolScalar {
		s.mismatch(path, n, "boolean")
		return false
	}
	return n.Value == "true"
}

func (s *section) integer(key string, required bool, r numRange) int {
	n, path, ok := s.value(key, required)
	if !ok {
		return 0
	}
	if n.Kind != document.ScalarNode || n.Type != document.IntScalar {
		s.mismatch(path, n, "integer")
		return 0
	}
	v, err := strconv.ParseInt(n.Value, 10, 64)
	if err != nil {
		s.d.add(KindOutOfRangeValue, path, n.Line, "integer %s does not fit: %v", n.Value, err)
		return 0
	}
	if !r.contains(float64(v)) {
		s.d.add(KindOutOfRangeValue, path, n.Line, "value %d is out of range, must be %s", v, r)
	}
	return int(v)
}

func (s *section) float(key string, required bool, r numRange) float64 {
	n, path, ok := s.value(key, required)
	if !ok {
		return 0
	}
	if n.Kind != document.ScalarNode || (n.Type != document.FloatScalar && n.Type != document.IntScalar) {
		s.mismatch(path, n, "number")
		return 0
	}
	v, err := strconv.ParseFloat(n.Value, 64)
	if err != nil {
		s.mismatch(path, n, "number")
		return 0
	}
	if !r.contains(v) {
		s.d.add(KindOutOfRangeValue, path, n.Line, "value %s is out of range, must be %s", n.Value, r)
	}
	return v
}

func (s *section) date(key string, required bool) Date {
	n, path, ok := s.value(key, required)
	if !ok {
		return Date{}
	}
	if n.Kind != document.ScalarNode || (n.Type != document.DateScalar && n.Type != document.StringScalar) {
		s.mismatch(path, n, "date (YYYY-MM-DD)")
		return Date{}
	}
	d, err := ParseDate(n.Value)
	if err != nil {
		s.mismatch(path, n, "date (YYYY-MM-DD)")
		return Date{}
	}
	return d
}

// enum reads a string restricted to allowed. An empty result means absent or invalid.
func (s *section) enum(key string, required bool, allowed []string) string {
	n, path, ok := s.value(key, required)
	if !ok {
		return ""
	}
	if n.Kind != document.ScalarNode || n.Type != document.StringScalar {
		s.mismatch(path, n, "one of "+strings.Join(allowed, ", "))
		return ""
	}
	if !contains(allowed, n.Value) {
		s.d.add(KindInvalidEnumValue, path, n.Line, "%q is not one of: %s", n.Value, strings.Join(allowed, ", "))
		return ""
	}
	return n.Value
}

// enumList reads a sequence of enum literals. A single scalar is accepted as
// a one-element list.
func (s *section) enumList(key string, required bool, allowed []string) []string {
	n, path, ok := s.value(key, required)
	if !ok {
		return nil
	}
	items := n.Items
	switch n.Kind {
	case document.SequenceNode:
	case document.ScalarNode:
		items = []*document.Node{n}
	default:
		s.mismatch(path, n, "list of "+strings.Join(allowed, ", "))
		return nil
	}
	out := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for i, item := range items {
		itemPath := fmt.Sprintf("%s[%d]", path, i)
		if item.Kind != document.ScalarNode || item.Type != document.StringScalar {
			s.mismatch(itemPath, item, "one of "+strings.Join(allowed, ", "))
			continue
		}
		if !contains(allowed, item.Value) {
			s.d.add(KindInvalidEnumValue, itemPath, item.Line, "%q is not one of: %s", item.Value, strings.Join(allowed, ", "))
			continue
		}
		if seen[item.Value] {
			s.d.add(KindInconsistent, itemPath, item.Line, "%q is listed more than once", item.Value)
			continue
		}
		seen[item.Value] = true
		out = append(out, item.Value)
	}
	return out
}

// intChoice reads an integer restricted to allowed. An explicit null yields
// nil; a required key must still be written out.
func (s *section) intChoice(key string, required bool, allowed []int) *int {
	if required && !s.d.nullless && s.node != nil {
		if _, ok := s.node.Get(key); !ok {
			s.known[key] = true
			path := s.keyPath(key)
			s.d.add(KindMissingField, path, s.sectionLine(), "required field is missing (use null to disable)")
			return nil
		}
	}
	n, path, ok := s.value(key, false)
	if !ok {
		return nil
	}
	if n.Kind != document.ScalarNode || n.Type != document.IntScalar {
		s.mismatch(path, n, "integer or null")
		return nil
	}
	v, err := strconv.Atoi(n.Value)
	if err == nil {
		for _, a := range allowed {
			if v == a {
				return &v
			}
		}
	}
	choices := make([]string, len(allowed))
	for i, a := range allowed {
		choices[i] = strconv.Itoa(a)
	}
	s.d.add(KindInvalidEnumValue, path, n.Line, "%s is not one of: %s, null", n.Value, strings.Join(choices, ", "))
	return nil
}

// finish reports keys of the section that no schema field consumed.
func (s *section) finish() {
	if s.node == nil {
		return
	}
	for _, key := range s.node.Keys {
		if s.known[key] {
			continue
		}
		path := s.keyPath(key)
		line := s.node.Fields[key].Line
		if s.d.strict {
			s.d.add(KindUnknownField, path, line, "unknown key")
		} else {
			s.d.warn(KindUnknownField, path, line, "unknown key is ignored")
		}
	}
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
