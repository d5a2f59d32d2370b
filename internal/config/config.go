// Package config loads and writes the wololo config file, which holds the
// server and sync settings together with the device registry.
//
// Config file locations (priority order):
//  1. $WOLOLO_CONFIG
//  2. ./config.yaml
//  3. $XDG_CONFIG_HOME/wololo/config.yaml
//  4. ~/.config/wololo/config.yaml
//  5. /etc/wololo/config.yaml
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"

	"wololo/internal/domain"

	"gopkg.in/yaml.v3"
)

// Defaults applied to missing settings.
const (
	DefaultIP            = "127.0.0.1"
	DefaultPort          = 3000
	DefaultSyncInterval  = 60
	DefaultPingTimeout   = 1
	DefaultStatusTimeout = 2
	DefaultSNMPCommunity = "public"
	DefaultSNMPPort      = 161
	DefaultSNMPTimeout   = 2
)

// Load finds and loads the config file, or returns defaults if none found.
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		return Default(), "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path.
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, path, err
	}

	return cfg, path, nil
}

// Parse decodes persisted config text. Settings absent from data keep their
// defaults; a missing devices list yields an empty registry.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Devices == nil {
		cfg.Devices = []domain.Device{}
	}
	return cfg, nil
}

// Marshal encodes cfg as YAML with two-space indentation.
func Marshal(cfg *Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes config to the specified path.
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			IP:          DefaultIP,
			Port:        DefaultPort,
			ExternalURL: "http://" + DefaultIP + ":" + strconv.Itoa(DefaultPort),
		},
		Sync: SyncConfig{
			Enabled:         true,
			IntervalSeconds: DefaultSyncInterval,
		},
		Devices: []domain.Device{},
	}
}

// Clone returns a deep copy. The registry slice is never shared.
func (c *Config) Clone() *Config {
	out := *c
	out.Devices = make([]domain.Device, len(c.Devices))
	copy(out.Devices, c.Devices)
	if c.Discovery.ExcludeInterfaces != nil {
		out.Discovery.ExcludeInterfaces = append([]string(nil), c.Discovery.ExcludeInterfaces...)
	}
	return &out
}

// ListenAddr returns the host:port the HTTP server binds to.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.IP, c.Server.Port)
}

// FindDevice returns the registry entry with the given name.
func (c *Config) FindDevice(name string) (domain.Device, bool) {
	for _, d := range c.Devices {
		if d.Name == name {
			return d, true
		}
	}
	return domain.Device{}, false
}

// Validate checks settings that cannot be defaulted.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Sync.IntervalSeconds < 0 {
		errs = append(errs, fmt.Errorf("sync.interval_seconds must not be negative"))
	}
	switch c.Discovery.ProbeBackend() {
	case ProbeExec, ProbeNmap:
	default:
		errs = append(errs, fmt.Errorf("discovery.probe %q is not one of %s, %s", c.Discovery.Probe, ProbeExec, ProbeNmap))
	}
	if c.Discovery.MaxConcurrent < 0 {
		errs = append(errs, fmt.Errorf("discovery.max_concurrent must not be negative"))
	}

	seen := make(map[string]struct{}, len(c.Devices))
	for _, d := range c.Devices {
		if d.Name == "" {
			errs = append(errs, fmt.Errorf("device with MAC %q has no name", d.MACAddress))
			continue
		}
		if _, dup := seen[d.Name]; dup {
			errs = append(errs, fmt.Errorf("duplicate device name %q", d.Name))
		}
		seen[d.Name] = struct{}{}
	}

	return errors.Join(errs...)
}
