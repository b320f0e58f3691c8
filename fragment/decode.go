package fragment

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is a fragment document encoding.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ErrDecode indicates a fragment document could not be decoded.
var ErrDecode = errors.New("fragment decode error")

// ParseFormat maps a flag value to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", ErrDecode, s)
	}
}

// FormatFor infers the format from a file extension, defaulting to JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Decode reads a top-level array of descriptors. JSON numbers are kept as
// json.Number so integral values stay integers.
func Decode(r io.Reader, format Format) ([]Descriptor, error) {
	var ds []Descriptor
	switch format {
	case FormatJSON, "":
		dec := json.NewDecoder(r)
		dec.UseNumber()
		if err := dec.Decode(&ds); err != nil {
			return nil, fmt.Errorf("%w: json: %v", ErrDecode, err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		if err := dec.Decode(&ds); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: yaml: %v", ErrDecode, err)
		}
	default:
		return nil, fmt.Errorf("%w: unknown format %q", ErrDecode, format)
	}
	return ds, nil
}

// DecodeBytes is Decode over an in-memory document.
func DecodeBytes(data []byte, format Format) ([]Descriptor, error) {
	return Decode(bytes.NewReader(data), format)
}

// Encode writes descriptors as an indented document.
func Encode(w io.Writer, ds []Descriptor, format Format) error {
	switch format {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(ds)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(ds); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: unknown format %q", ErrDecode, format)
	}
}
