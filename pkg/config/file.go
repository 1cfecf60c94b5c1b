package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// File is the on-disk configuration. YAML and JSON files share this layout:
//
//	token: <token>
//	owner: <parent owner>
//	repository: <parent repository>
//	branch: <parent branch>
//	author_name: <optional commit author>
//	author_email: <optional commit author email>
//	submodules:
//	  <name>:
//	    repository: <repository, defaults to name>
//	    owner: <owner, defaults to parent owner>
//	    branch: <branch, defaults to master>
//	    path: <mount path, defaults to repository>
//
// submodules may also be a list of names or a single name when every
// submodule uses the defaults.
type File struct {
	Token      string         `yaml:"token"`
	Owner      string         `yaml:"owner"`
	Repository string         `yaml:"repository"`
	Branch     string         `yaml:"branch"`
	Submodules FileSubmodules `yaml:"submodules"`

	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// FileSubmodule is a submodule entry of the config file. Empty fields fall
// back to the defaults.
type FileSubmodule struct {
	Name       string `yaml:"-"`
	Repository string `yaml:"repository"`
	Owner      string `yaml:"owner"`
	Branch     string `yaml:"branch"`
	Path       string `yaml:"path"`
}

// FileSubmodules keeps the submodules in the order they appear in the file.
type FileSubmodules []FileSubmodule

var submoduleFields = map[string]bool{
	"repository": true,
	"owner":      true,
	"branch":     true,
	"path":       true,
}

// UnmarshalYAML accepts a mapping of name to entry, a list of names or a
// single name.
func (s *FileSubmodules) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!null" {
			return nil
		}
		for _, name := range parseList(value.Value) {
			*s = append(*s, FileSubmodule{Name: name})
		}
		return nil

	case yaml.SequenceNode:
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Value == "" {
				return fmt.Errorf("line %d: submodule list entries must be names", item.Line)
			}
			*s = append(*s, FileSubmodule{Name: item.Value})
		}
		return nil

	case yaml.MappingNode:
		for i := 0; i+1 < len(value.Content); i += 2 {
			key, val := value.Content[i], value.Content[i+1]
			if key.Value == "" {
				return fmt.Errorf("line %d: submodule name cannot be empty", key.Line)
			}

			entry := FileSubmodule{}
			switch {
			case val.Kind == yaml.ScalarNode && val.Tag == "!!null":
			case val.Kind == yaml.MappingNode:
				for j := 0; j+1 < len(val.Content); j += 2 {
					if field := val.Content[j].Value; !submoduleFields[field] {
						return fmt.Errorf("line %d: unknown field %q in submodule %q", val.Content[j].Line, field, key.Value)
					}
				}
				if err := val.Decode(&entry); err != nil {
					return fmt.Errorf("submodule %q: %w", key.Value, err)
				}
			default:
				return fmt.Errorf("line %d: submodule %q must be a mapping", val.Line, key.Value)
			}
			entry.Name = key.Value
			*s = append(*s, entry)
		}
		return nil
	}

	return fmt.Errorf("line %d: submodules must be a mapping, a list or a name", value.Line)
}

// LoadFile reads and parses a YAML or JSON config file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &Error{Field: "config", Err: fmt.Errorf("config file %q doesn't exist", path)}
		}
		return nil, &Error{Field: "config", Err: fmt.Errorf("failed to read config file: %w", err)}
	}

	f, err := ParseFile(data)
	if err != nil {
		return nil, &Error{Field: "config", Err: fmt.Errorf("invalid config file %q: %w", path, err)}
	}
	return f, nil
}

// ParseFile parses config file contents in either YAML or JSON syntax.
func ParseFile(data []byte) (*File, error) {
	// JSON escapes (\/, surrogate pairs) and tab indentation aren't valid
	// YAML, so valid JSON is converted to YAML before decoding.
	if json.Valid(data) {
		converted, err := jsonToYAML(data)
		if err != nil {
			return nil, err
		}
		data = converted
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("config file is empty")
		}
		return nil, err
	}
	return &f, nil
}

// jsonToYAML re-encodes a JSON document as YAML, keeping the key order.
func jsonToYAML(data []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	node, err := jsonNode(dec)
	if err != nil {
		return nil, fmt.Errorf("failed to convert JSON: %w", err)
	}
	return yaml.Marshal(node)
}

func jsonNode(dec *json.Decoder) (*yaml.Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch v := tok.(type) {
	case json.Delim:
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		if v == '{' {
			node = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		}
		for dec.More() {
			if node.Kind == yaml.MappingNode {
				key, err := dec.Token()
				if err != nil {
					return nil, err
				}
				node.Content = append(node.Content, scalar("!!str", fmt.Sprint(key)))
			}
			value, err := jsonNode(dec)
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, value)
		}
		// closing delimiter
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return node, nil
	case string:
		return scalar("!!str", v), nil
	case json.Number:
		if _, err := v.Int64(); err == nil {
			return scalar("!!int", v.String()), nil
		}
		return scalar("!!float", v.String()), nil
	case bool:
		return scalar("!!bool", strconv.FormatBool(v)), nil
	case nil:
		return scalar("!!null", "null"), nil
	}
	return nil, fmt.Errorf("unexpected JSON token %v", tok)
}

func scalar(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}
