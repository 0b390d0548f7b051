package highlight

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// LoadFile reads a rule file, choosing the format by extension.
func LoadFile(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules %s: %w", path, err)
	}

	var rs *RuleSet
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		rs, err = ParseYAML(data)
	case ".toml":
		rs, err = ParseTOML(data)
	case ".lua":
		rs, err = RunLua(path, string(data))
	default:
		return nil, fmt.Errorf("rules %s: unsupported format %q", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("rules %s: %w", path, err)
	}
	return rs, nil
}

// ParseYAML parses a YAML rule file:
//
//	theme: monokai
//	rules:
//	  - pattern: ttt
//	    fg: red
//	    attrs: [bold]
func ParseYAML(data []byte) (*RuleSet, error) {
	var rs RuleSet
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&rs); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}
	return &rs, nil
}

// ParseTOML parses a TOML rule file:
//
//	theme = "monokai"
//
//	[[rules]]
//	pattern = "ttt"
//	fg = "#ff0000"
func ParseTOML(data []byte) (*RuleSet, error) {
	var rs RuleSet
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&rs); err != nil {
		return nil, fmt.Errorf("parsing toml: %w", err)
	}
	return &rs, nil
}
