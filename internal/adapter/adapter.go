package adapter

import (
	"context"

	"wololo/internal/domain"
)

// ProbeResult is the outcome of probing one host.
// Hostname and MAC are only populated for Online hosts.
type ProbeResult struct {
	Status   domain.DeviceStatus
	Hostname *string
	MAC      *string
}

// HostProbe determines liveness, hostname and hardware address of a host.
type HostProbe interface {
	Probe(ctx context.Context, ip string) ProbeResult
}

// Pinger performs a liveness check only.
type Pinger interface {
	Ping(ctx context.Context, ip string) domain.DeviceStatus
}

// ProbeFunc adapts an ordinary function to HostProbe.
type ProbeFunc func(ctx context.Context, ip string) ProbeResult

// Probe calls f(ctx, ip).
func (f ProbeFunc) Probe(ctx context.Context, ip string) ProbeResult {
	return f(ctx, ip)
}

// EventPublisher allows adapters to publish progress events
type EventPublisher interface {
	PublishDiscoveryEvent(eventType string, payload interface{})
}
