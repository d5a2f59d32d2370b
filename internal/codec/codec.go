// Package codec converts the device registry to and from exchange formats.
package codec

import (
	"fmt"
	"io"
	"strings"

	"wololo/internal/config"
)

// Format identifiers accepted by ForFormat.
const (
	FormatYAML    = "yaml"
	FormatJSON    = "json"
	FormatAnsible = "ansible"
)

// Importer reads a registry from an exchange format
type Importer interface {
	Parse(r io.Reader) (*config.Config, error)
	Format() string
}

// Exporter writes a registry to an exchange format
type Exporter interface {
	Export(cfg *config.Config, w io.Writer) error
	Format() string
}

// Codec both reads and writes one format
type Codec interface {
	Importer
	Exporter
}

// ForFormat returns the codec for a format name. The empty name selects YAML.
func ForFormat(format string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatYAML, "yml":
		return NewYAMLCodec(), nil
	case FormatJSON:
		return NewJSONCodec(), nil
	case FormatAnsible, "ansible-inventory":
		return NewAnsibleCodec(), nil
	}
	return nil, fmt.Errorf("unsupported format %q", format)
}

// ContentType returns the MIME type used when serving a format.
func ContentType(format string) string {
	switch format {
	case FormatJSON:
		return "application/json"
	default:
		return "application/yaml"
	}
}

// FileExtension returns the file extension used for downloads.
func FileExtension(format string) string {
	switch format {
	case FormatJSON:
		return "json"
	default:
		return "yaml"
	}
}
