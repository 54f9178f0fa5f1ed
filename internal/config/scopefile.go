package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"issuegrid/internal/organize"
)

// LoadScopeFile reads and compiles a YAML organize file.
func LoadScopeFile(path string) (*organize.Scope, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read organize file: %w", err)
	}
	return ParseScopeYAML(filepath.Base(path), data)
}

// ParseScopeYAML compiles an organize document. name prefixes the
// line:column locations reported in errors.
//
// The document is a list of entries, optionally held under an "organize" key.
// Each entry is a single-key mapping, "bin" for a terminal bin or "group" (or
// its alias "sort") for a nested scope, whose value is either a list (filter first, order patterns
// after) or a mapping with filter, name, color, description, order and, for
// groups, organize keys. A top-level "bins" key instead holds a list of bare
// bin mappings.
func ParseScopeYAML(name string, data []byte) (*organize.Scope, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%s: parse organize file: %w", name, err)
	}
	if len(doc.Content) == 0 {
		return &organize.Scope{}, nil
	}
	p := scopeParser{name: name}
	entries, err := p.document(doc.Content[0])
	if err != nil {
		return nil, err
	}
	return buildScope(entries)
}

type scopeParser struct {
	name string
}

func (p scopeParser) at(n *yaml.Node) string {
	return fmt.Sprintf("%s:%d:%d", p.name, n.Line, n.Column)
}

func (p scopeParser) errorf(n *yaml.Node, format string, args ...any) error {
	return fmt.Errorf("%s: %s", p.at(n), fmt.Sprintf(format, args...))
}

func (p scopeParser) document(root *yaml.Node) ([]sourceEntry, error) {
	switch root.Kind {
	case yaml.SequenceNode:
		return p.entries(root)
	case yaml.MappingNode:
		for i := 0; i+1 < len(root.Content); i += 2 {
			key, value := root.Content[i], root.Content[i+1]
			switch key.Value {
			case "organize":
				return p.entries(value)
			case "bins":
				return p.bareBins(value)
			}
		}
		return nil, p.errorf(root, "expected an organize or bins list")
	default:
		return nil, p.errorf(root, "expected a list of entries")
	}
}

func (p scopeParser) entries(n *yaml.Node) ([]sourceEntry, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, p.errorf(n, "expected a list of entries")
	}
	out := make([]sourceEntry, 0, len(n.Content))
	for _, item := range n.Content {
		if item.Kind != yaml.MappingNode || len(item.Content) != 2 {
			return nil, p.errorf(item, "entry must be a single bin or group mapping")
		}
		key, value := item.Content[0], item.Content[1]
		var group bool
		switch key.Value {
		case "bin":
		case "group", "sort":
			group = true
		default:
			return nil, p.errorf(key, "unknown entry kind %q (want bin, group or sort)", key.Value)
		}
		src, err := p.entry(item, value, group)
		if err != nil {
			return nil, err
		}
		out = append(out, src)
	}
	return out, nil
}

func (p scopeParser) bareBins(n *yaml.Node) ([]sourceEntry, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, p.errorf(n, "expected a list of bins")
	}
	out := make([]sourceEntry, 0, len(n.Content))
	for _, item := range n.Content {
		if item.Kind != yaml.MappingNode {
			return nil, p.errorf(item, "bin must be a mapping")
		}
		src, err := p.entry(item, item, false)
		if err != nil {
			return nil, err
		}
		out = append(out, src)
	}
	return out, nil
}

func (p scopeParser) entry(at, value *yaml.Node, group bool) (sourceEntry, error) {
	src := sourceEntry{at: p.at(at), filterAt: p.at(at), group: group}
	switch value.Kind {
	case yaml.ScalarNode:
		src.entry.Filter = value.Value
		src.filterAt = p.at(value)
	case yaml.SequenceNode:
		if len(value.Content) == 0 {
			return src, p.errorf(value, "list form needs a filter pattern")
		}
		for i, el := range value.Content {
			if el.Kind != yaml.ScalarNode {
				return src, p.errorf(el, "expected a pattern string")
			}
			if i == 0 {
				src.entry.Filter = el.Value
				src.filterAt = p.at(el)
				continue
			}
			src.entry.Order = append(src.entry.Order, el.Value)
			src.orderAt = append(src.orderAt, p.at(el))
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(value.Content); i += 2 {
			key, v := value.Content[i], value.Content[i+1]
			var err error
			switch key.Value {
			case "filter":
				src.entry.Filter, err = p.scalar(v)
				src.filterAt = p.at(v)
			case "name":
				src.entry.Name, err = p.scalar(v)
			case "color":
				src.entry.Color, err = p.scalar(v)
			case "description":
				src.entry.Description, err = p.scalar(v)
			case "order":
				err = p.order(v, &src)
			case "organize":
				if !group {
					return src, p.errorf(key, "organize is only valid on group entries")
				}
				src.children, err = p.entries(v)
			default:
				return src, p.errorf(key, "unknown key %q", key.Value)
			}
			if err != nil {
				return src, err
			}
		}
	default:
		return src, p.errorf(value, "entry must be a pattern, list, or mapping")
	}
	return src, nil
}

func (p scopeParser) scalar(n *yaml.Node) (string, error) {
	if n.Kind != yaml.ScalarNode {
		return "", p.errorf(n, "expected a string")
	}
	return n.Value, nil
}

func (p scopeParser) order(n *yaml.Node, src *sourceEntry) error {
	if n.Kind != yaml.SequenceNode {
		return p.errorf(n, "order must be a list of patterns")
	}
	for _, el := range n.Content {
		value, err := p.scalar(el)
		if err != nil {
			return err
		}
		src.entry.Order = append(src.entry.Order, value)
		src.orderAt = append(src.orderAt, p.at(el))
	}
	return nil
}
