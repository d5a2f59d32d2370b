package adapter

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"wololo/internal/domain"
	"wololo/internal/logger"
)

// Scanner probes many hosts concurrently and keeps the live ones.
type Scanner struct {
	probe         HostProbe
	maxConcurrent int
	publisher     EventPublisher
	log           zerolog.Logger
}

// ScannerOption configures a Scanner.
type ScannerOption func(*Scanner)

// WithMaxConcurrent bounds the number of probes in flight. Zero or less
// means one goroutine per host.
func WithMaxConcurrent(n int) ScannerOption {
	return func(s *Scanner) {
		s.maxConcurrent = n
	}
}

// NewScanner creates a scanner that uses probe for every host.
func NewScanner(probe HostProbe, opts ...ScannerOption) *Scanner {
	s := &Scanner{
		probe: probe,
		log:   logger.WithComponent("scanner"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetEventPublisher sets the event publisher for progress updates
func (s *Scanner) SetEventPublisher(pub EventPublisher) {
	s.publisher = pub
}

func (s *Scanner) publishProgress(eventType string, payload interface{}) {
	if s.publisher != nil {
		s.publisher.PublishDiscoveryEvent(eventType, payload)
	}
}

// Scan probes every host and returns the Online ones in input order. It
// returns once every probe has finished; a failing probe only drops its
// own host.
func (s *Scanner) Scan(ctx context.Context, hosts []string) []domain.DiscoveredDevice {
	found := make([]*domain.DiscoveredDevice, len(hosts))

	var g errgroup.Group
	if s.maxConcurrent > 0 {
		g.SetLimit(s.maxConcurrent)
	}

	for i, ip := range hosts {
		g.Go(func() error {
			found[i] = s.probeHost(ctx, ip)
			return nil
		})
	}
	_ = g.Wait()

	devices := make([]domain.DiscoveredDevice, 0, len(hosts))
	for _, d := range found {
		if d != nil {
			devices = append(devices, *d)
		}
	}

	s.log.Debug().Int("probed", len(hosts)).Int("online", len(devices)).Msg("batch complete")
	return devices
}

func (s *Scanner) probeHost(ctx context.Context, ip string) (device *domain.DiscoveredDevice) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Str("ip", ip).Interface("panic", r).Msg("probe panicked")
			device = nil
		}
	}()

	res := s.probe.Probe(ctx, ip)
	if res.Status != domain.StatusOnline {
		return nil
	}

	d := &domain.DiscoveredDevice{
		IPAddress:  ip,
		MACAddress: res.MAC,
		Hostname:   res.Hostname,
		Status:     domain.StatusOnline,
	}

	s.publishProgress("discovery-progress", map[string]interface{}{
		"ip":       ip,
		"hostname": d.Hostname,
		"mac":      d.MACAddress,
		"message":  fmt.Sprintf("Host alive: %s", ip),
		"phase":    "host_discovery",
	})

	return d
}
