package adapter

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"wololo/internal/domain"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) PublishDiscoveryEvent(eventType string, _ interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
}

func hostList(n int) []string {
	hosts := make([]string, n)
	for i := range hosts {
		hosts[i] = fmt.Sprintf("10.0.0.%d", i+1)
	}
	return hosts
}

func TestScanner_OnlyOnlineHosts(t *testing.T) {
	probe := ProbeFunc(func(_ context.Context, ip string) ProbeResult {
		switch ip {
		case "10.0.0.1":
			return ProbeResult{Status: domain.StatusOnline, Hostname: domain.StringPtr("router"), MAC: domain.StringPtr("AA:BB:CC:DD:EE:01")}
		case "10.0.0.3":
			return ProbeResult{Status: domain.StatusOnline}
		case "10.0.0.4":
			return ProbeResult{Status: domain.StatusUnreachable}
		default:
			return ProbeResult{Status: domain.StatusOffline}
		}
	})

	pub := &recordingPublisher{}
	s := NewScanner(probe)
	s.SetEventPublisher(pub)

	got := s.Scan(context.Background(), hostList(5))
	if len(got) != 2 {
		t.Fatalf("got %d devices, want 2: %+v", len(got), got)
	}

	byIP := make(map[string]domain.DiscoveredDevice)
	for _, d := range got {
		if d.Status != domain.StatusOnline {
			t.Errorf("%s has status %s", d.IPAddress, d.Status)
		}
		byIP[d.IPAddress] = d
	}

	router, ok := byIP["10.0.0.1"]
	if !ok || deref(router.Hostname) != "router" || router.MAC() != "AA:BB:CC:DD:EE:01" {
		t.Errorf("router = %+v", router)
	}
	bare, ok := byIP["10.0.0.3"]
	if !ok || bare.Hostname != nil || bare.MACAddress != nil {
		t.Errorf("bare host = %+v", bare)
	}

	if len(pub.events) != 2 {
		t.Errorf("published %d progress events, want 2", len(pub.events))
	}
}

func TestScanner_EmptyInput(t *testing.T) {
	s := NewScanner(ProbeFunc(func(context.Context, string) ProbeResult {
		t.Error("probe called for empty input")
		return ProbeResult{}
	}))

	got := s.Scan(context.Background(), nil)
	if got == nil || len(got) != 0 {
		t.Errorf("Scan(nil) = %v, want empty slice", got)
	}
}

func TestScanner_PanickingProbeDoesNotAbortBatch(t *testing.T) {
	probe := ProbeFunc(func(_ context.Context, ip string) ProbeResult {
		if ip == "10.0.0.2" {
			panic("parser exploded")
		}
		return ProbeResult{Status: domain.StatusOnline}
	})

	got := NewScanner(probe).Scan(context.Background(), hostList(3))
	if len(got) != 2 {
		t.Fatalf("got %d devices, want 2", len(got))
	}
	for _, d := range got {
		if d.IPAddress == "10.0.0.2" {
			t.Error("panicking host included")
		}
	}
}

func TestScanner_Concurrency(t *testing.T) {
	tests := []struct {
		name           string
		maxConcurrent  int
		hosts          int
		wantMaxAtMost  int
		wantMaxAtLeast int
	}{
		{name: "bounded", maxConcurrent: 4, hosts: 40, wantMaxAtMost: 4, wantMaxAtLeast: 2},
		{name: "unbounded", maxConcurrent: 0, hosts: 40, wantMaxAtMost: 40, wantMaxAtLeast: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var inFlight, peak atomic.Int32
			probe := ProbeFunc(func(context.Context, string) ProbeResult {
				n := inFlight.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(20 * time.Millisecond)
				inFlight.Add(-1)
				return ProbeResult{Status: domain.StatusOnline}
			})

			got := NewScanner(probe, WithMaxConcurrent(tt.maxConcurrent)).Scan(context.Background(), hostList(tt.hosts))
			if len(got) != tt.hosts {
				t.Errorf("got %d devices, want %d", len(got), tt.hosts)
			}
			if p := int(peak.Load()); p > tt.wantMaxAtMost || p < tt.wantMaxAtLeast {
				t.Errorf("peak concurrency %d, want between %d and %d", p, tt.wantMaxAtLeast, tt.wantMaxAtMost)
			}
		})
	}
}
