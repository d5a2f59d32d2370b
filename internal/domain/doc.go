// Package domain defines the core types for the wololo device registry and
// LAN discovery engine.
//
// # Registry
//
// Device is one entry of the persisted registry: a display name, a hardware
// (MAC) address and an IPv4 address. Registry order is significant and
// entries are never mutated once written.
//
// # Discovery
//
// DiscoveredDevice is what a scan learned about one live host. The hostname
// and MAC address are optional; absence is distinct from an empty value.
// ScanSnapshot groups the devices of one completed scan.
//
// DeviceStatus is the liveness verdict of a probe: Online, Offline or
// Unreachable (the probe itself could not run).
//
// # Design Principles
//
// - Immutable value objects
// - No infrastructure dependencies besides ID generation
package domain
