// Package service implements the wololo business logic.
//
// # Services
//
// DiscoveryService runs subnet scans, keeps the latest result in a ScanStore
// and turns a selection of discovered hosts into a new config file via the
// Reconciler.
//
// DeviceService owns the device registry. It looks devices up by name, sends
// Wake-on-LAN packets, checks liveness and refreshes the status of every
// device on a schedule.
//
// Reconciler merges discovered hosts into a copy of the registry without
// duplicating hardware addresses and renders the result as YAML.
//
// # Event System
//
// Services publish events via EventBus for real-time updates to connected
// clients via Server-Sent Events (SSE).
//
// # Design Principles
//
// - Services own business logic and validation
// - Shared state lives in explicitly owned objects, never globals
// - Event-driven for real-time updates
package service
