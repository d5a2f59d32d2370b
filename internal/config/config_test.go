package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"wololo/internal/domain"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.IP != "127.0.0.1" || cfg.Server.Port != 3000 {
		t.Errorf("Server = %+v, want 127.0.0.1:3000", cfg.Server)
	}
	if cfg.Server.ExternalURL != "http://127.0.0.1:3000" {
		t.Errorf("ExternalURL = %q", cfg.Server.ExternalURL)
	}
	if !cfg.Sync.Enabled || cfg.Sync.IntervalSeconds != 60 {
		t.Errorf("Sync = %+v, want enabled every 60s", cfg.Sync)
	}
	if cfg.Devices == nil || len(cfg.Devices) != 0 {
		t.Errorf("Devices = %v, want empty", cfg.Devices)
	}
	if cfg.Discovery.ProbeBackend() != ProbeExec {
		t.Errorf("ProbeBackend() = %q, want %q", cfg.Discovery.ProbeBackend(), ProbeExec)
	}
	if cfg.Discovery.PingTimeout() != time.Second || cfg.Discovery.StatusTimeout() != 2*time.Second {
		t.Errorf("timeouts = %s/%s, want 1s/2s", cfg.Discovery.PingTimeout(), cfg.Discovery.StatusTimeout())
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
		check   func(t *testing.T, cfg *Config)
	}{
		{
			name: "full file",
			input: `
server:
  ip: 0.0.0.0
  port: 8080
  external_url: http://wol.lan:8080
sync:
  enabled: false
  interval_seconds: 30
devices:
  - name: Desktop
    mac_address: "AA:BB:CC:DD:EE:FF"
    ip_address: 192.168.1.100
  - name: NAS
    mac_address: "11:22:33:44:55:66"
    ip_address: 192.168.1.101
`,
			check: func(t *testing.T, cfg *Config) {
				if cfg.Server.IP != "0.0.0.0" || cfg.Server.Port != 8080 || cfg.Server.ExternalURL != "http://wol.lan:8080" {
					t.Errorf("Server = %+v", cfg.Server)
				}
				if cfg.Sync.Enabled || cfg.Sync.IntervalSeconds != 30 {
					t.Errorf("Sync = %+v", cfg.Sync)
				}
				want := []domain.Device{
					{Name: "Desktop", MACAddress: "AA:BB:CC:DD:EE:FF", IPAddress: "192.168.1.100"},
					{Name: "NAS", MACAddress: "11:22:33:44:55:66", IPAddress: "192.168.1.101"},
				}
				if len(cfg.Devices) != len(want) {
					t.Fatalf("Devices = %+v", cfg.Devices)
				}
				for i := range want {
					if cfg.Devices[i] != want[i] {
						t.Errorf("Devices[%d] = %+v, want %+v", i, cfg.Devices[i], want[i])
					}
				}
			},
		},
		{
			name:  "partial sections keep field defaults",
			input: "server:\n  port: 9000\nsync:\n  interval_seconds: 5\ndevices: []\n",
			check: func(t *testing.T, cfg *Config) {
				if cfg.Server.IP != DefaultIP || cfg.Server.Port != 9000 {
					t.Errorf("Server = %+v", cfg.Server)
				}
				if !cfg.Sync.Enabled || cfg.Sync.IntervalSeconds != 5 {
					t.Errorf("Sync = %+v", cfg.Sync)
				}
			},
		},
		{
			name:  "missing devices yields empty registry",
			input: "sync:\n  enabled: true\n",
			check: func(t *testing.T, cfg *Config) {
				if cfg.Devices == nil || len(cfg.Devices) != 0 {
					t.Errorf("Devices = %v", cfg.Devices)
				}
			},
		},
		{
			name:  "empty text is the default config",
			input: "",
			check: func(t *testing.T, cfg *Config) {
				if cfg.Server != Default().Server {
					t.Errorf("Server = %+v", cfg.Server)
				}
			},
		},
		{
			name: "discovery section",
			input: `
devices: []
discovery:
  probe: nmap
  ping_timeout_seconds: 3
  max_concurrent: 32
  exclude_interfaces: [docker, veth]
  snmp:
    enabled: true
    community: lan
`,
			check: func(t *testing.T, cfg *Config) {
				d := cfg.Discovery
				if d.ProbeBackend() != ProbeNmap || d.PingTimeout() != 3*time.Second || d.MaxConcurrent != 32 {
					t.Errorf("Discovery = %+v", d)
				}
				if len(d.ExcludeInterfaces) != 2 {
					t.Errorf("ExcludeInterfaces = %v", d.ExcludeInterfaces)
				}
				if !d.SNMP.Enabled || d.SNMP.EffectiveCommunity() != "lan" || d.SNMP.EffectivePort() != 161 {
					t.Errorf("SNMP = %+v", d.SNMP)
				}
			},
		},
		{
			name:    "malformed",
			input:   "server: [not, a, map\n",
			wantErr: true,
		},
		{
			name:    "wrong shape",
			input:   "devices: just-a-string\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestMarshalOmitsUnsetSections(t *testing.T) {
	cfg := Default()
	cfg.Devices = append(cfg.Devices, domain.Device{Name: "device.with.dots", MACAddress: "AA:BB:CC:DD:EE:FF", IPAddress: "10.0.0.5"})

	data, err := Marshal(cfg)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	out := string(data)
	for _, want := range []string{"server:", "sync:", "devices:", "name: device.with.dots", "ip_address: 10.0.0.5"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	for _, unwanted := range []string{"discovery:", "logging:"} {
		if strings.Contains(out, unwanted) {
			t.Errorf("output contains unset section %q:\n%s", unwanted, out)
		}
	}
	if strings.Index(out, "server:") > strings.Index(out, "devices:") {
		t.Errorf("server section should precede devices:\n%s", out)
	}
}

func TestMarshalEmptyRegistry(t *testing.T) {
	data, err := Marshal(Default())
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !strings.Contains(string(data), "devices: []") {
		t.Errorf("empty registry not written as []:\n%s", data)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	cfg := Default()
	cfg.Devices = []domain.Device{{Name: "a", MACAddress: "AA:BB:CC:DD:EE:01", IPAddress: "10.0.0.1"}}

	c := cfg.Clone()
	c.Devices[0].Name = "changed"
	c.Devices = append(c.Devices, domain.Device{Name: "b"})

	if cfg.Devices[0].Name != "a" || len(cfg.Devices) != 1 {
		t.Errorf("original registry modified: %+v", cfg.Devices)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"bad probe", func(c *Config) { c.Discovery.Probe = "icmp" }, "discovery.probe"},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"negative concurrency", func(c *Config) { c.Discovery.MaxConcurrent = -1 }, "max_concurrent"},
		{"duplicate names", func(c *Config) {
			c.Devices = []domain.Device{{Name: "pc"}, {Name: "pc"}}
		}, "duplicate device name"},
		{"unnamed device", func(c *Config) {
			c.Devices = []domain.Device{{MACAddress: "AA:BB:CC:DD:EE:FF"}}
		}, "has no name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Server.IP = "0.0.0.0"
	cfg.Devices = []domain.Device{{Name: "Desktop", MACAddress: "11:22:33:44:55:66", IPAddress: "192.168.1.50"}}

	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded, path, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath() error: %v", err)
	}
	if path != configPath {
		t.Errorf("path = %s, want %s", path, configPath)
	}
	if loaded.Server.IP != "0.0.0.0" {
		t.Errorf("Server.IP = %s", loaded.Server.IP)
	}
	if len(loaded.Devices) != 1 || loaded.Devices[0] != cfg.Devices[0] {
		t.Errorf("Devices = %+v", loaded.Devices)
	}
}

func TestLoadFromPathMissing(t *testing.T) {
	_, _, err := LoadFromPath(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Error("LoadFromPath() should fail for a missing file")
	}
}

func TestFindConfigPath(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))
	t.Setenv("HOME", filepath.Join(tmpDir, "home"))

	oldWd, _ := os.Getwd()
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(oldWd)

	t.Run("explicit env var", func(t *testing.T) {
		explicit := filepath.Join(tmpDir, "explicit.yaml")
		if err := Default().Save(explicit); err != nil {
			t.Fatal(err)
		}
		t.Setenv(EnvConfigPath, explicit)

		if got := FindConfigPath(); got != explicit {
			t.Errorf("FindConfigPath() = %q, want %q", got, explicit)
		}
	})

	t.Run("xdg home", func(t *testing.T) {
		t.Setenv(EnvConfigPath, "/nonexistent/path.yaml")
		xdgPath := filepath.Join(tmpDir, "xdg", ConfigDirName, ConfigFileName)
		if err := Default().Save(xdgPath); err != nil {
			t.Fatal(err)
		}

		if got := FindConfigPath(); got != xdgPath {
			t.Errorf("FindConfigPath() = %q, want %q", got, xdgPath)
		}
	})

	t.Run("working directory wins over xdg", func(t *testing.T) {
		t.Setenv(EnvConfigPath, "")
		if err := Default().Save(filepath.Join(tmpDir, ConfigFileName)); err != nil {
			t.Fatal(err)
		}

		got := FindConfigPath()
		if filepath.Base(got) != ConfigFileName || filepath.Dir(got) == filepath.Join(tmpDir, "xdg", ConfigDirName) {
			t.Errorf("FindConfigPath() = %q, want working directory file", got)
		}
	})
}
