package domain

import (
	"regexp"
	"strings"
)

// PlaceholderPrefix starts the generated name of devices without a hostname.
const PlaceholderPrefix = "New-Device-"

var macPattern = regexp.MustCompile(`([0-9a-fA-F]{2}[:-]){5}([0-9a-fA-F]{2})`)

// ExtractMAC returns the first hardware address found in text.
func ExtractMAC(text string) (string, bool) {
	m := macPattern.FindString(text)
	return m, m != ""
}

// PlaceholderName builds the registry name for a device known only by MAC.
// Colons are removed; other separators are kept as observed.
func PlaceholderName(mac string) string {
	return PlaceholderPrefix + strings.ReplaceAll(mac, ":", "")
}

// RegistryName is the name a discovered device receives when it is added to
// the registry.
func RegistryName(d DiscoveredDevice) string {
	return d.HostnameOr(PlaceholderName(d.MAC()))
}
