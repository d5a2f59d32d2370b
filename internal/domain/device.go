package domain

// Device is a registry entry as persisted in the config file.
type Device struct {
	Name       string `yaml:"name" json:"name"`
	MACAddress string `yaml:"mac_address" json:"mac_address"`
	IPAddress  string `yaml:"ip_address" json:"ip_address"`
}

// DeviceStatus is the liveness verdict for a host.
type DeviceStatus string

const (
	// StatusOnline means the host answered the liveness probe.
	StatusOnline DeviceStatus = "Online"
	// StatusOffline means the probe ran but the host did not answer.
	StatusOffline DeviceStatus = "Offline"
	// StatusUnreachable means the probe itself could not be executed.
	StatusUnreachable DeviceStatus = "Unreachable"
)

// Valid reports whether s is one of the known statuses.
func (s DeviceStatus) Valid() bool {
	switch s {
	case StatusOnline, StatusOffline, StatusUnreachable:
		return true
	}
	return false
}

func (s DeviceStatus) String() string {
	return string(s)
}
