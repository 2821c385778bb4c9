package document

import (
	"fmt"
	"math/big"
	"sort"
	"strconv"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

// parseHCL maps HCL native syntax onto the tree: blocks become mappings keyed
// by block type and attributes become entries. Expressions are evaluated
// without variables or functions, so only literals, lists and objects are
// accepted.
func parseHCL(name string, data []byte) (*Node, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, name)
	if diags.HasErrors() {
		return nil, hclSyntaxError(name, diags)
	}
	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return nil, &SyntaxError{Name: name, Message: "unexpected HCL body type"}
	}
	root, err := hclBody(name, body, 1)
	if err != nil {
		return nil, err
	}
	if len(root.Keys) == 0 {
		return &Node{Kind: NullNode, Line: 1}, nil
	}
	return root, nil
}

func hclSyntaxError(name string, diags hcl.Diagnostics) *SyntaxError {
	for _, d := range diags {
		if d.Severity != hcl.DiagError {
			continue
		}
		line := 0
		if d.Subject != nil {
			line = d.Subject.Start.Line
		}
		msg := d.Summary
		if d.Detail != "" {
			msg = fmt.Sprintf("%s: %s", d.Summary, d.Detail)
		}
		return &SyntaxError{Name: name, Line: line, Message: msg}
	}
	return &SyntaxError{Name: name, Message: diags.Error()}
}

type hclEntry struct {
	key   string
	line  int
	start int
	attr  *hclsyntax.Attribute
	block *hclsyntax.Block
}

func hclBody(name string, body *hclsyntax.Body, line int) (*Node, error) {
	entries := make([]hclEntry, 0, len(body.Attributes)+len(body.Blocks))
	for key, attr := range body.Attributes {
		entries = append(entries, hclEntry{key: key, line: attr.SrcRange.Start.Line, start: attr.SrcRange.Start.Byte, attr: attr})
	}
	for _, block := range body.Blocks {
		entries = append(entries, hclEntry{key: block.Type, line: block.TypeRange.Start.Line, start: block.TypeRange.Start.Byte, block: block})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].start < entries[j].start })

	m := NewMapping(line)
	for _, e := range entries {
		var child *Node
		var err error
		if e.attr != nil {
			child, err = hclAttribute(name, e.attr)
		} else {
			if len(e.block.Labels) > 0 {
				return nil, &SyntaxError{Name: name, Line: e.line, Message: fmt.Sprintf("block %q does not take labels", e.key)}
			}
			child, err = hclBody(name, e.block.Body, e.line)
		}
		if err != nil {
			return nil, err
		}
		if !m.Set(e.key, child) {
			return nil, &SyntaxError{Name: name, Line: e.line, Message: "duplicate key " + strconv.Quote(e.key)}
		}
	}
	return m, nil
}

func hclAttribute(name string, attr *hclsyntax.Attribute) (*Node, error) {
	val, diags := attr.Expr.Value(nil)
	if diags.HasErrors() {
		return nil, hclSyntaxError(name, diags)
	}
	return ctyValue(name, val, attr.SrcRange.Start.Line)
}

func ctyValue(name string, v cty.Value, line int) (*Node, error) {
	if v.IsNull() {
		return &Node{Kind: NullNode, Line: line}, nil
	}
	if !v.IsKnown() {
		return nil, &SyntaxError{Name: name, Line: line, Message: "value is not known without evaluation context"}
	}
	ty := v.Type()
	switch {
	case ty == cty.String:
		return &Node{Kind: ScalarNode, Type: StringScalar, Value: v.AsString(), Line: line}, nil
	case ty == cty.Bool:
		return &Node{Kind: ScalarNode, Type: BoolScalar, Value: strconv.FormatBool(v.True()), Line: line}, nil
	case ty == cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == big.Exact {
				return &Node{Kind: ScalarNode, Type: IntScalar, Value: strconv.FormatInt(i, 10), Line: line}, nil
			}
		}
		f, _ := bf.Float64()
		return &Node{Kind: ScalarNode, Type: FloatScalar, Value: strconv.FormatFloat(f, 'g', -1, 64), Line: line}, nil
	case ty.IsTupleType() || ty.IsListType() || ty.IsSetType():
		seq := &Node{Kind: SequenceNode, Line: line}
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			child, err := ctyValue(name, ev, line)
			if err != nil {
				return nil, err
			}
			seq.Items = append(seq.Items, child)
		}
		return seq, nil
	case ty.IsObjectType() || ty.IsMapType():
		m := NewMapping(line)
		for it := v.ElementIterator(); it.Next(); {
			k, ev := it.Element()
			child, err := ctyValue(name, ev, line)
			if err != nil {
				return nil, err
			}
			m.Set(k.AsString(), child)
		}
		return m, nil
	default:
		return nil, &SyntaxError{Name: name, Line: line, Message: "unsupported value type " + ty.FriendlyName()}
	}
}
