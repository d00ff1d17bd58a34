package diff

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	yamlv3 "gopkg.in/yaml.v3"
	"sigs.k8s.io/yaml"
)

// ErrParse is wrapped by FlattenObject when its input is not a structured
// object.
var ErrParse = errors.New("diff: input is not a well-formed object")

// FlattenObject parses one JSON or YAML object into a flat string map.
//
// Strings are kept as-is. Numbers and booleans keep their source text, so a
// YAML "0123" or "FALSE" reads the same as in CSV. null becomes the empty
// string. Nested arrays and objects become compact JSON.
func FlattenObject(data []byte) (map[string]string, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrParse)
	}
	if data[0] != '{' && data[0] != '[' {
		return flattenYAML(data)
	}
	if data[0] != '{' {
		return nil, fmt.Errorf("%w: top level must be an object", ErrParse)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	out := make(map[string]string, len(raw))
	for k, v := range raw {
		s, err := stringify(v)
		if err != nil {
			return nil, fmt.Errorf("%w: field %q: %v", ErrParse, k, err)
		}
		out[k] = s
	}
	return out, nil
}

func stringify(v json.RawMessage) (string, error) {
	v = bytes.TrimSpace(v)
	if len(v) == 0 {
		return "", nil
	}
	switch v[0] {
	case '"':
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return "", err
		}
		return s, nil
	case 'n':
		return "", nil
	case '{', '[':
		var b bytes.Buffer
		if err := json.Compact(&b, v); err != nil {
			return "", err
		}
		return b.String(), nil
	default:
		return string(v), nil
	}
}

// flattenYAML reads scalars from the node tree rather than through JSON, which
// would apply YAML 1.1 typing to values such as 0123 or FALSE.
func flattenYAML(data []byte) (map[string]string, error) {
	var doc yamlv3.Node
	if err := yamlv3.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	root := &doc
	if root.Kind == yamlv3.DocumentNode && len(root.Content) == 1 {
		root = root.Content[0]
	}
	if root.Kind != yamlv3.MappingNode {
		return nil, fmt.Errorf("%w: top level must be an object", ErrParse)
	}

	out := make(map[string]string, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key := root.Content[i].Value
		s, err := yamlValue(root.Content[i+1])
		if err != nil {
			return nil, fmt.Errorf("%w: field %q: %v", ErrParse, key, err)
		}
		out[key] = s
	}
	return out, nil
}

func yamlValue(n *yamlv3.Node) (string, error) {
	for n.Kind == yamlv3.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	if n.Kind == yamlv3.ScalarNode {
		if n.Tag == "!!null" {
			return "", nil
		}
		return n.Value, nil
	}

	text, err := yamlv3.Marshal(n)
	if err != nil {
		return "", err
	}
	js, err := yaml.YAMLToJSON(text)
	if err != nil {
		return "", err
	}
	var b bytes.Buffer
	if err := json.Compact(&b, js); err != nil {
		return "", err
	}
	return b.String(), nil
}
