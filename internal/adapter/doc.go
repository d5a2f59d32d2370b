// Package adapter implements the host-facing side of LAN discovery.
//
// # Probes
//
// A HostProbe decides whether one IPv4 address is alive and, if so, what its
// hostname and hardware address are. Probes never return errors: failures
// degrade to an Offline or Unreachable status or to absent fields.
//
// ExecProbe shells out to ping, nslookup and arp through a CommandRunner.
// NmapProbe runs an nmap ping scan. SNMPNameProbe decorates another probe
// and fills in a missing hostname from the SNMP sysName of the host.
//
// # Subnets
//
// SubnetEnumerator turns the IPv4 addresses of the local interfaces into
// /24 scan targets, one per interface.
//
// # Scanning
//
// Scanner fans a probe out over a host list concurrently and keeps only the
// hosts that answered.
//
// # Event System
//
// Scanner publishes progress events through an EventPublisher so the UI can
// follow long scans.
package adapter
