package codec

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"wololo/internal/config"
	"wololo/internal/domain"

	"gopkg.in/yaml.v3"
)

// inventoryGroup is the group registry devices are exported under
const inventoryGroup = "wololo"

// AnsibleCodec handles Ansible inventory import/export
type AnsibleCodec struct{}

// NewAnsibleCodec creates a new Ansible codec
func NewAnsibleCodec() *AnsibleCodec {
	return &AnsibleCodec{}
}

// Format returns the codec format identifier
func (c *AnsibleCodec) Format() string {
	return FormatAnsible
}

// ansibleInventory represents the Ansible inventory structure
type ansibleInventory struct {
	All ansibleGroup `yaml:"all"`
}

type ansibleGroup struct {
	Children map[string]ansibleGroupDef `yaml:"children,omitempty"`
	Hosts    map[string]ansibleHost     `yaml:"hosts,omitempty"`
}

type ansibleGroupDef struct {
	Hosts map[string]ansibleHost `yaml:"hosts,omitempty"`
}

type ansibleHost struct {
	AnsibleHost string `yaml:"ansible_host,omitempty"`
	MACAddress  string `yaml:"mac_address,omitempty"`
	DeviceName  string `yaml:"device_name,omitempty"`
}

// Parse imports devices from an Ansible inventory. Hosts without a
// mac_address var are ignored. Hosts are read in name order, group members
// before hosts listed directly under all.
func (c *AnsibleCodec) Parse(r io.Reader) (*config.Config, error) {
	var inv ansibleInventory
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&inv); err != nil {
		return nil, fmt.Errorf("failed to parse Ansible inventory: %w", err)
	}

	cfg := config.Default()
	seen := make(map[string]bool)

	add := func(hosts map[string]ansibleHost) {
		for _, id := range sortedKeys(hosts) {
			h := hosts[id]
			if h.MACAddress == "" || seen[id] {
				continue
			}
			seen[id] = true

			name := h.DeviceName
			if name == "" {
				name = id
			}
			ip := h.AnsibleHost
			if ip == "" {
				ip = id
			}
			cfg.Devices = append(cfg.Devices, domain.Device{Name: name, MACAddress: h.MACAddress, IPAddress: ip})
		}
	}

	for _, group := range sortedKeys(inv.All.Children) {
		add(inv.All.Children[group].Hosts)
	}
	add(inv.All.Hosts)

	return cfg, nil
}

// Export writes the registry as an inventory with one group
func (c *AnsibleCodec) Export(cfg *config.Config, w io.Writer) error {
	hosts := make(map[string]ansibleHost, len(cfg.Devices))
	for _, d := range cfg.Devices {
		id := uniqueHostID(hosts, hostID(d.Name))
		hosts[id] = ansibleHost{
			AnsibleHost: d.IPAddress,
			MACAddress:  d.MACAddress,
			DeviceName:  d.Name,
		}
	}

	inv := ansibleInventory{
		All: ansibleGroup{
			Children: map[string]ansibleGroupDef{
				inventoryGroup: {Hosts: hosts},
			},
		},
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(&inv); err != nil {
		return fmt.Errorf("failed to encode Ansible inventory: %w", err)
	}

	return nil
}

// hostID turns a device name into an inventory hostname
func hostID(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "device"
	}
	return b.String()
}

func uniqueHostID(hosts map[string]ansibleHost, id string) string {
	if _, taken := hosts[id]; !taken {
		return id
	}
	for i := 2; ; i++ {
		candidate := id + "_" + strconv.Itoa(i)
		if _, taken := hosts[candidate]; !taken {
			return candidate
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
