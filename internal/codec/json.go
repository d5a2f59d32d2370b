package codec

import (
	"encoding/json"
	"fmt"
	"io"

	"wololo/internal/config"
	"wololo/internal/domain"
)

// JSONCodec handles JSON import/export
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Format returns the codec format identifier
func (c *JSONCodec) Format() string {
	return FormatJSON
}

// Parse reads a JSON config. Absent settings keep their defaults.
func (c *JSONCodec) Parse(r io.Reader) (*config.Config, error) {
	cfg := config.Default()
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	if cfg.Devices == nil {
		cfg.Devices = []domain.Device{}
	}
	return cfg, nil
}

// Export writes cfg as indented JSON
func (c *JSONCodec) Export(cfg *config.Config, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}
