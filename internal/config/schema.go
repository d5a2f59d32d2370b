package config

import (
	"time"

	"wololo/internal/domain"
	"wololo/internal/logger"
)

// Probe backends selectable under discovery.probe.
const (
	ProbeExec = "exec"
	ProbeNmap = "nmap"
)

// Config is the root configuration structure. Devices is the registry.
type Config struct {
	Server    ServerConfig    `yaml:"server" json:"server"`
	Sync      SyncConfig      `yaml:"sync" json:"sync"`
	Devices   []domain.Device `yaml:"devices" json:"devices"`
	Discovery DiscoveryConfig `yaml:"discovery,omitempty" json:"discovery,omitempty"`
	Logging   logger.Config   `yaml:"logging,omitempty" json:"logging,omitempty"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	IP          string `yaml:"ip" json:"ip"`
	Port        int    `yaml:"port" json:"port"`
	ExternalURL string `yaml:"external_url" json:"external_url"`
}

// SyncConfig controls the periodic status refresh.
type SyncConfig struct {
	Enabled         bool `yaml:"enabled" json:"enabled"`
	IntervalSeconds int  `yaml:"interval_seconds" json:"interval_seconds"`
}

// Interval returns the refresh period.
func (s SyncConfig) Interval() time.Duration {
	if s.IntervalSeconds <= 0 {
		return DefaultSyncInterval * time.Second
	}
	return time.Duration(s.IntervalSeconds) * time.Second
}

// DiscoveryConfig tunes subnet scanning. Zero values select defaults so an
// absent section is omitted when the config is written back.
type DiscoveryConfig struct {
	Probe                string     `yaml:"probe,omitempty" json:"probe,omitempty"`
	PingTimeoutSeconds   int        `yaml:"ping_timeout_seconds,omitempty" json:"ping_timeout_seconds,omitempty"`
	StatusTimeoutSeconds int        `yaml:"status_timeout_seconds,omitempty" json:"status_timeout_seconds,omitempty"`
	MaxConcurrent        int        `yaml:"max_concurrent,omitempty" json:"max_concurrent,omitempty"`
	ExcludeInterfaces    []string   `yaml:"exclude_interfaces,omitempty" json:"exclude_interfaces,omitempty"`
	SNMP                 SNMPConfig `yaml:"snmp,omitempty" json:"snmp,omitempty"`
}

// ProbeBackend returns the configured probe backend name.
func (d DiscoveryConfig) ProbeBackend() string {
	if d.Probe == "" {
		return ProbeExec
	}
	return d.Probe
}

// PingTimeout is the per-host liveness timeout used while scanning.
func (d DiscoveryConfig) PingTimeout() time.Duration {
	return seconds(d.PingTimeoutSeconds, DefaultPingTimeout)
}

// StatusTimeout is the liveness timeout used for registry status checks.
func (d DiscoveryConfig) StatusTimeout() time.Duration {
	return seconds(d.StatusTimeoutSeconds, DefaultStatusTimeout)
}

// SNMPConfig enables sysName lookups for hosts without reverse DNS.
type SNMPConfig struct {
	Enabled        bool   `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Community      string `yaml:"community,omitempty" json:"community,omitempty"`
	Port           uint16 `yaml:"port,omitempty" json:"port,omitempty"`
	TimeoutSeconds int    `yaml:"timeout_seconds,omitempty" json:"timeout_seconds,omitempty"`
}

// EffectiveCommunity returns the community string, defaulting to public.
func (s SNMPConfig) EffectiveCommunity() string {
	if s.Community == "" {
		return DefaultSNMPCommunity
	}
	return s.Community
}

// EffectivePort returns the agent port, defaulting to 161.
func (s SNMPConfig) EffectivePort() uint16 {
	if s.Port == 0 {
		return DefaultSNMPPort
	}
	return s.Port
}

// Timeout returns the per-request timeout.
func (s SNMPConfig) Timeout() time.Duration {
	return seconds(s.TimeoutSeconds, DefaultSNMPTimeout)
}

func seconds(n, fallback int) time.Duration {
	if n <= 0 {
		n = fallback
	}
	return time.Duration(n) * time.Second
}
