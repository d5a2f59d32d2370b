package codec

import (
	"fmt"
	"io"

	"wololo/internal/config"
)

// YAMLCodec reads and writes the native config file format
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return FormatYAML
}

// Parse reads a config file
func (c *YAMLCodec) Parse(r io.Reader) (*config.Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read YAML: %w", err)
	}
	return config.Parse(data)
}

// Export writes cfg as a config file
func (c *YAMLCodec) Export(cfg *config.Config, w io.Writer) error {
	data, err := config.Marshal(cfg)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write YAML: %w", err)
	}
	return nil
}
