package domain

import (
	"time"

	"github.com/google/uuid"
)

// LatestScanKey names the single slot holding the most recent scan.
const LatestScanKey = "latest_scan"

// ScanSnapshot is the result of one complete discovery scan.
type ScanSnapshot struct {
	ID          string             `json:"id,omitempty"`
	Key         string             `json:"key"`
	StartedAt   time.Time          `json:"started_at"`
	CompletedAt time.Time          `json:"completed_at"`
	Devices     []DiscoveredDevice `json:"devices"`
}

// NewScanSnapshot stamps devices with a fresh time-ordered ID.
func NewScanSnapshot(devices []DiscoveredDevice, startedAt, completedAt time.Time) ScanSnapshot {
	id := uuid.Must(uuid.NewV7()).String()
	if devices == nil {
		devices = []DiscoveredDevice{}
	}
	return ScanSnapshot{
		ID:          id,
		Key:         LatestScanKey,
		StartedAt:   startedAt,
		CompletedAt: completedAt,
		Devices:     devices,
	}
}

// EmptySnapshot is what readers observe before any scan completed.
func EmptySnapshot() ScanSnapshot {
	return ScanSnapshot{Key: LatestScanKey, Devices: []DiscoveredDevice{}}
}

// Clone copies the device slice so the copy can be handed out freely.
func (s ScanSnapshot) Clone() ScanSnapshot {
	devices := make([]DiscoveredDevice, len(s.Devices))
	copy(devices, s.Devices)
	s.Devices = devices
	return s
}

// Select returns the devices whose IP is in ips, in snapshot order.
func (s ScanSnapshot) Select(ips []string) []DiscoveredDevice {
	wanted := make(map[string]struct{}, len(ips))
	for _, ip := range ips {
		wanted[ip] = struct{}{}
	}

	selected := make([]DiscoveredDevice, 0, len(ips))
	for _, d := range s.Devices {
		if _, ok := wanted[d.IPAddress]; ok {
			selected = append(selected, d)
		}
	}
	return selected
}
