package document

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

type Format uint8

const (
	FormatTOML Format = iota
	FormatYAML
)

func (f Format) String() string {
	switch f {
	case FormatTOML:
		return "toml"
	case FormatYAML:
		return "yaml"
	default:
		return "unknown"
	}
}

// FormatFromPath picks the codec from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return 0, fmt.Errorf("%s: %w", path, ErrUnknownFormat)
	}
}

// Decode parses data, validates it against the pipeline schema and returns
// the typed document.
func Decode(data []byte, format Format) (*Document, error) {
	var raw map[string]interface{}
	if err := unmarshal(data, format, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("empty document: %w", ErrMissingAttribute)
	}

	violations, err := ValidateRaw(raw)
	if err != nil {
		return nil, err
	}
	if len(violations) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrSchema, strings.Join(violations, "; "))
	}

	doc := &Document{}
	if err := unmarshal(data, format, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func Encode(doc *Document, format Format) ([]byte, error) {
	switch format {
	case FormatTOML:
		var buf bytes.Buffer
		enc := toml.NewEncoder(&buf)
		enc.SetIndentTables(true)
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("encoding toml pipeline: %w", err)
		}
		return buf.Bytes(), nil
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("encoding yaml pipeline: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, ErrUnknownFormat
	}
}

func unmarshal(data []byte, format Format, out interface{}) error {
	switch format {
	case FormatTOML:
		if err := toml.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decoding toml pipeline: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decoding yaml pipeline: %w", err)
		}
	default:
		return ErrUnknownFormat
	}
	return nil
}
