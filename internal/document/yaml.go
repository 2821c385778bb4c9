package document

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var yamlLinePattern = regexp.MustCompile(`line (\d+)`)

func parseYAML(name string, data []byte) (*Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, yamlSyntaxError(name, err)
	}
	if len(bytes.TrimSpace(data)) == 0 || doc.Kind == 0 {
		return &Node{Kind: NullNode, Line: 1}, nil
	}
	c := &yamlConverter{name: name}
	return c.convert(&doc)
}

func yamlSyntaxError(name string, err error) *SyntaxError {
	msg := strings.TrimPrefix(err.Error(), "yaml: ")
	line := 0
	if m := yamlLinePattern.FindStringSubmatch(msg); m != nil {
		line, _ = strconv.Atoi(m[1])
	}
	return &SyntaxError{Name: name, Line: line, Message: msg}
}

type yamlConverter struct {
	name string
}

func (c *yamlConverter) convert(n *yaml.Node) (*Node, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return &Node{Kind: NullNode, Line: n.Line}, nil
		}
		return c.convert(n.Content[0])
	case yaml.AliasNode:
		return c.convert(n.Alias)
	case yaml.MappingNode:
		return c.mapping(n)
	case yaml.SequenceNode:
		seq := &Node{Kind: SequenceNode, Line: n.Line}
		for _, item := range n.Content {
			child, err := c.convert(item)
			if err != nil {
				return nil, err
			}
			seq.Items = append(seq.Items, child)
		}
		return seq, nil
	case yaml.ScalarNode:
		return yamlScalar(n), nil
	default:
		return nil, &SyntaxError{Name: c.name, Line: n.Line, Message: "unsupported YAML node"}
	}
}

func (c *yamlConverter) mapping(n *yaml.Node) (*Node, error) {
	m := NewMapping(n.Line)
	var merges []*Node
	for i := 0; i+1 < len(n.Content); i += 2 {
		keyNode, valueNode := n.Content[i], n.Content[i+1]
		value, err := c.convert(valueNode)
		if err != nil {
			return nil, err
		}
		if keyNode.ShortTag() == "!!merge" {
			merges = append(merges, value)
			continue
		}
		if keyNode.Kind != yaml.ScalarNode {
			return nil, &SyntaxError{Name: c.name, Line: keyNode.Line, Message: "mapping keys must be scalars"}
		}
		if !m.Set(keyNode.Value, value) {
			return nil, &SyntaxError{Name: c.name, Line: keyNode.Line, Message: "duplicate key " + strconv.Quote(keyNode.Value)}
		}
	}
	// Explicit keys win over merged ones.
	for _, merged := range merges {
		sources := []*Node{merged}
		if merged.Kind == SequenceNode {
			sources = merged.Items
		}
		for _, src := range sources {
			if src.Kind != MappingNode {
				return nil, &SyntaxError{Name: c.name, Line: src.Line, Message: "merge value must be a mapping"}
			}
			for _, k := range src.Keys {
				if _, exists := m.Fields[k]; !exists {
					m.Set(k, src.Fields[k])
				}
			}
		}
	}
	return m, nil
}

func yamlScalar(n *yaml.Node) *Node {
	out := &Node{Kind: ScalarNode, Line: n.Line, Type: StringScalar, Value: n.Value}
	switch n.ShortTag() {
	case "!!null":
		return &Node{Kind: NullNode, Line: n.Line}
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err == nil {
			out.Type, out.Value = BoolScalar, strconv.FormatBool(b)
		}
	case "!!int":
		var i int64
		if err := n.Decode(&i); err == nil {
			out.Type, out.Value = IntScalar, strconv.FormatInt(i, 10)
		} else {
			out.Type = FloatScalar
		}
	case "!!float":
		var f float64
		if err := n.Decode(&f); err == nil {
			out.Type, out.Value = FloatScalar, strconv.FormatFloat(f, 'g', -1, 64)
		}
	case "!!timestamp":
		out.Type = DateScalar
	}
	return out
}
