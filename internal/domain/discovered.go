package domain

// DiscoveredDevice is a live host found by a scan.
type DiscoveredDevice struct {
	IPAddress  string       `json:"ip_address" yaml:"ip_address"`
	MACAddress *string      `json:"mac_address" yaml:"mac_address"`
	Hostname   *string      `json:"hostname" yaml:"hostname"`
	Status     DeviceStatus `json:"status" yaml:"status"`
}

// HasMAC reports whether a non-empty hardware address was observed.
func (d DiscoveredDevice) HasMAC() bool {
	return d.MACAddress != nil && *d.MACAddress != ""
}

// MAC returns the hardware address or "" when absent.
func (d DiscoveredDevice) MAC() string {
	if d.MACAddress == nil {
		return ""
	}
	return *d.MACAddress
}

// HostnameOr returns the hostname, or fallback when none was resolved.
func (d DiscoveredDevice) HostnameOr(fallback string) string {
	if d.Hostname == nil || *d.Hostname == "" {
		return fallback
	}
	return *d.Hostname
}

// StringPtr returns a pointer to a copy of s.
func StringPtr(s string) *string {
	return &s
}
