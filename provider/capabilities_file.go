package provider

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// LoadCapabilities reads a JSON or YAML mapping of capabilities, keeping the file's key order
func LoadCapabilities(path string) (*Capabilities, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading capabilities file %s", path)
	}
	caps := NewCapabilities()
	if len(strings.TrimSpace(string(raw))) == 0 {
		return caps, nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Wrapf(err, "error parsing capabilities file %s", path)
	}
	if len(doc.Content) != 1 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("capabilities file %s must contain a mapping", path)
	}
	mapping := doc.Content[0]
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		var value any
		if err := mapping.Content[i+1].Decode(&value); err != nil {
			return nil, errors.Wrapf(err, "error decoding capability %s", mapping.Content[i].Value)
		}
		caps.Set(mapping.Content[i].Value, value)
	}
	return caps, nil
}

// ParseCapability splits a key=value pair. Scalars such as true or 42 keep their type.
func ParseCapability(pair string) (string, any, error) {
	key, raw, ok := strings.Cut(pair, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return "", nil, fmt.Errorf("capability %q is not in key=value form", pair)
	}
	var value any
	if err := yaml.Unmarshal([]byte(raw), &value); err != nil || value == nil {
		return key, raw, nil
	}
	switch value.(type) {
	case bool, int, float64:
		return key, value, nil
	default:
		return key, raw, nil
	}
}
