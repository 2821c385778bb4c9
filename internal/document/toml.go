package document

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

func parseTOML(name string, data []byte) (*Node, error) {
	var raw map[string]interface{}
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return nil, tomlSyntaxError(name, err)
	}
	if len(raw) == 0 {
		return &Node{Kind: NullNode}, nil
	}
	return tomlValue(name, raw)
}

func tomlSyntaxError(name string, err error) *SyntaxError {
	var perr toml.ParseError
	if errors.As(err, &perr) {
		return &SyntaxError{Name: name, Line: perr.Position.Line, Message: perr.Message}
	}
	var pperr *toml.ParseError
	if errors.As(err, &pperr) {
		return &SyntaxError{Name: name, Line: pperr.Position.Line, Message: pperr.Message}
	}
	return &SyntaxError{Name: name, Message: err.Error()}
}

// tomlValue converts a value produced by toml.Decode into a Node. TOML carries
// no positions through generic decoding, so lines stay 0 and mapping keys are
// sorted for stable reporting.
func tomlValue(name string, v interface{}) (*Node, error) {
	switch val := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := NewMapping(0)
		for _, k := range keys {
			child, err := tomlValue(name, val[k])
			if err != nil {
				return nil, err
			}
			m.Set(k, child)
		}
		return m, nil
	case []map[string]interface{}:
		seq := &Node{Kind: SequenceNode}
		for _, item := range val {
			child, err := tomlValue(name, item)
			if err != nil {
				return nil, err
			}
			seq.Items = append(seq.Items, child)
		}
		return seq, nil
	case []interface{}:
		seq := &Node{Kind: SequenceNode}
		for _, item := range val {
			child, err := tomlValue(name, item)
			if err != nil {
				return nil, err
			}
			seq.Items = append(seq.Items, child)
		}
		return seq, nil
	case string:
		return &Node{Kind: ScalarNode, Type: StringScalar, Value: val}, nil
	case bool:
		return &Node{Kind: ScalarNode, Type: BoolScalar, Value: strconv.FormatBool(val)}, nil
	case int64:
		return &Node{Kind: ScalarNode, Type: IntScalar, Value: strconv.FormatInt(val, 10)}, nil
	case float64:
		return &Node{Kind: ScalarNode, Type: FloatScalar, Value: strconv.FormatFloat(val, 'g', -1, 64)}, nil
	case time.Time:
		return &Node{Kind: ScalarNode, Type: DateScalar, Value: formatTimestamp(val)}, nil
	case nil:
		return &Node{Kind: NullNode}, nil
	default:
		return nil, &SyntaxError{Name: name, Message: fmt.Sprintf("unsupported TOML value of type %T", v)}
	}
}

// formatTimestamp renders date-only values as YYYY-MM-DD and anything with a
// clock component as RFC 3339.
func formatTimestamp(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format(time.RFC3339)
}
