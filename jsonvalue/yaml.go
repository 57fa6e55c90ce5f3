package jsonvalue

import (
	"math"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ParseYAML reads a YAML document into the same tree Parse produces.
// Mapping order is kept. Non-finite floats (.nan, .inf) become the string
// literals "NaN", "Infinity" and "-Infinity".
func ParseYAML(data []byte, opts ...Option) (interface{}, error) {
	o := newParseOptions(opts)
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "parse YAML")
	}
	if doc.Kind == 0 {
		return nil, nil
	}
	return fromYAMLNode(&doc, 0, o.maxDepth)
}

func fromYAMLNode(n *yaml.Node, depth, maxDepth int) (interface{}, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return fromYAMLNode(n.Content[0], depth, maxDepth)
	case yaml.AliasNode:
		if n.Alias == nil {
			return nil, errors.Errorf("line %d: dangling alias", n.Line)
		}
		return fromYAMLNode(n.Alias, depth, maxDepth)
	case yaml.MappingNode:
		if maxDepth > 0 && depth >= maxDepth {
			return nil, errors.Wrapf(ErrMaxDepth, "limit %d", maxDepth)
		}
		obj := NewObject()
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if k.Kind != yaml.ScalarNode {
				return nil, errors.Errorf("line %d: mapping keys must be scalars", k.Line)
			}
			val, err := fromYAMLNode(v, depth+1, maxDepth)
			if err != nil {
				return nil, err
			}
			obj.Set(k.Value, val)
		}
		return obj, nil
	case yaml.SequenceNode:
		if maxDepth > 0 && depth >= maxDepth {
			return nil, errors.Wrapf(ErrMaxDepth, "limit %d", maxDepth)
		}
		arr := make([]interface{}, 0, len(n.Content))
		for _, c := range n.Content {
			val, err := fromYAMLNode(c, depth+1, maxDepth)
			if err != nil {
				return nil, err
			}
			arr = append(arr, val)
		}
		return arr, nil
	case yaml.ScalarNode:
		return yamlScalar(n)
	}
	return nil, errors.Errorf("line %d: unsupported YAML node kind %d", n.Line, n.Kind)
}

func yamlScalar(n *yaml.Node) (interface{}, error) {
	switch n.ShortTag() {
	case "!!null":
		return nil, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, errors.Wrapf(err, "line %d", n.Line)
		}
		return b, nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err == nil {
			return json.Number(strconv.FormatInt(i, 10)), nil
		}
		var u uint64
		if err := n.Decode(&u); err == nil {
			return json.Number(strconv.FormatUint(u, 10)), nil
		}
		if IsNumberLiteral(n.Value) {
			return json.Number(n.Value), nil
		}
		return nil, errors.Errorf("line %d: integer %q out of range", n.Line, n.Value)
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, errors.Wrapf(err, "line %d", n.Line)
		}
		switch {
		case math.IsNaN(f):
			return "NaN", nil
		case math.IsInf(f, 1):
			return "Infinity", nil
		case math.IsInf(f, -1):
			return "-Infinity", nil
		}
		if IsNumberLiteral(n.Value) {
			return json.Number(n.Value), nil
		}
		return json.Number(FormatFloat(f, 64)), nil
	}
	return n.Value, nil
}
