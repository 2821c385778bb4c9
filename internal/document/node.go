// Package document parses structured configuration documents into a
// syntax-independent tree.
//
// YAML (and therefore JSON), TOML and HCL sources all produce the same Node
// shape, so that schema decoding and error reporting are written once. Every
// node keeps the source line it came from where the syntax provides one.
package document

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Kind is the structural kind of a node.
type Kind int

const (
	// NullNode is an explicit null or an empty value.
	NullNode Kind = iota
	// ScalarNode holds a single literal value.
	ScalarNode
	// MappingNode holds ordered key/value pairs.
	MappingNode
	// SequenceNode holds an ordered list of nodes.
	SequenceNode
)

// String returns the name used in type mismatch messages.
func (k Kind) String() string {
	switch k {
	case NullNode:
		return "null"
	case ScalarNode:
		return "scalar"
	case MappingNode:
		return "mapping"
	case SequenceNode:
		return "sequence"
	default:
		return "unknown"
	}
}

// ScalarType is the literal type of a scalar node as resolved by the parser.
type ScalarType int

const (
	StringScalar ScalarType = iota
	IntScalar
	FloatScalar
	BoolScalar
	DateScalar
)

// String returns the name used in type mismatch messages.
func (t ScalarType) String() string {
	switch t {
	case StringScalar:
		return "string"
	case IntScalar:
		return "integer"
	case FloatScalar:
		return "float"
	case BoolScalar:
		return "boolean"
	case DateScalar:
		return "date"
	default:
		return "unknown"
	}
}

// Node is one element of a parsed document.
type Node struct {
	Kind Kind

	// Type and Value are set for scalars. Value is the canonical literal:
	// "true"/"false" for booleans, decimal text for numbers, YYYY-MM-DD for
	// plain dates.
	Type  ScalarType
	Value string

	// Line is the 1-based source line, or 0 when the syntax does not report one.
	Line int

	// Keys preserves mapping key order; Fields indexes the same entries.
	Keys   []string
	Fields map[string]*Node

	Items []*Node
}

// NewMapping returns an empty mapping node.
func NewMapping(line int) *Node {
	return &Node{Kind: MappingNode, Line: line, Fields: make(map[string]*Node)}
}

// Set adds or replaces a mapping entry. It reports false if the key already existed.
func (n *Node) Set(key string, value *Node) bool {
	if _, exists := n.Fields[key]; exists {
		n.Fields[key] = value
		return false
	}
	n.Keys = append(n.Keys, key)
	n.Fields[key] = value
	return true
}

// Get returns the mapping entry for key.
func (n *Node) Get(key string) (*Node, bool) {
	if n == nil || n.Kind != MappingNode {
		return nil, false
	}
	v, ok := n.Fields[key]
	return v, ok
}

// Describe names the node's type for diagnostics, e.g. "string" or "mapping".
func (n *Node) Describe() string {
	if n == nil {
		return "nothing"
	}
	if n.Kind == ScalarNode {
		return n.Type.String()
	}
	return n.Kind.String()
}

// Format identifies the surface syntax of a document.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatHCL  Format = "hcl"
)

// DetectFormat picks the parser for a file name by extension.
// JSON is parsed as YAML; unknown extensions default to YAML.
func DetectFormat(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".toml":
		return FormatTOML
	case ".hcl":
		return FormatHCL
	default:
		return FormatYAML
	}
}

// SyntaxError reports a document that could not be parsed at all.
type SyntaxError struct {
	Name    string
	Line    int
	Message string
}

func (e *SyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Name, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Name, e.Message)
}

// Parse parses data according to format. name is used in error messages only.
// An empty document yields a null root node.
func Parse(name string, format Format, data []byte) (*Node, error) {
	switch format {
	case FormatTOML:
		return parseTOML(name, data)
	case FormatHCL:
		return parseHCL(name, data)
	case FormatYAML, "":
		return parseYAML(name, data)
	default:
		return nil, fmt.Errorf("unsupported document format %q", format)
	}
}
