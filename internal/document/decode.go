package document

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// FileNames lists the document names searched for, in order of preference.
var FileNames = []string{"pocket.toml", "pocket.yaml", "pocket.yml"}

// ErrNotFound is returned by Find when no document exists in the directory
// chain.
var ErrNotFound = errors.New("pocket.toml not found (searched from CWD upward)")

// Format selects the decoder used for a document.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// FormatFor picks a format from a file name; anything that is not YAML is
// treated as TOML.
func FormatFor(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatTOML
}

// Decode parses raw document bytes in the given format into a Value. The root
// is always a table.
func Decode(format Format, data []byte) (Value, error) {
	raw := map[string]interface{}{}

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Value{}, fmt.Errorf("invalid YAML: %w", err)
		}
	case FormatTOML:
		if err := toml.Unmarshal(data, &raw); err != nil {
			return Value{}, fmt.Errorf("invalid TOML: %w", err)
		}
	default:
		return Value{}, fmt.Errorf("unknown document format %q", format)
	}

	v, err := FromNative(raw)
	if err != nil {
		return Value{}, err
	}
	if v.kind == KindNull {
		return Map(nil), nil
	}
	return v, nil
}

// ReadFile reads and decodes the document at path.
func ReadFile(path string) (Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Value{}, err
	}
	v, err := Decode(FormatFor(path), data)
	if err != nil {
		return Value{}, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}

// Find looks for a document in dir and each of its parents.
func Find(dir string) (string, error) {
	current, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		for _, name := range FileNames {
			candidate := filepath.Join(current, name)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, nil
			}
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", ErrNotFound
		}
		current = parent
	}
}
