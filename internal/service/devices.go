package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"wololo/internal/config"
	"wololo/internal/domain"
	"wololo/internal/logger"
)

// wolPort is the discard port magic packets are sent to.
const wolPort = "9"

var (
	// ErrDeviceNotFound is returned for names not in the registry.
	ErrDeviceNotFound = errors.New("device not found")
	// ErrInvalidMAC is returned when a registry MAC cannot be parsed.
	ErrInvalidMAC = errors.New("invalid MAC address")
	// ErrInvalidIP is returned when a registry IP is not IPv4.
	ErrInvalidIP = errors.New("invalid IP address")
)

// Pinger checks liveness of a host.
type Pinger interface {
	Ping(ctx context.Context, ip string) domain.DeviceStatus
}

// Waker sends a Wake-on-LAN magic packet to addr.
type Waker interface {
	Wake(addr string, target net.HardwareAddr) error
}

// DeviceStatusReport is the liveness of one registry device.
type DeviceStatusReport struct {
	Name       string              `json:"name"`
	IPAddress  string              `json:"ip_address"`
	MACAddress string              `json:"mac_address"`
	Status     domain.DeviceStatus `json:"status"`
	CheckedAt  time.Time           `json:"checked_at"`
}

// DeviceService owns the registry and acts on its devices.
type DeviceService struct {
	mu       sync.RWMutex
	cfg      *config.Config
	statuses []DeviceStatusReport

	pinger   Pinger
	waker    Waker
	eventBus *EventBus
	cron     *cron.Cron
	log      zerolog.Logger
	now      func() time.Time
}

// NewDeviceService creates a device service for cfg.
func NewDeviceService(cfg *config.Config, pinger Pinger, waker Waker, eventBus *EventBus) *DeviceService {
	return &DeviceService{
		cfg:      cfg.Clone(),
		pinger:   pinger,
		waker:    waker,
		eventBus: eventBus,
		log:      logger.WithComponent("devices"),
		now:      time.Now,
	}
}

// Registry returns a copy of the current config.
func (s *DeviceService) Registry() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Clone()
}

// SetRegistry replaces the registry. Cached statuses are dropped.
func (s *DeviceService) SetRegistry(cfg *config.Config) {
	next := cfg.Clone()

	s.mu.Lock()
	s.cfg = next
	s.statuses = nil
	s.mu.Unlock()

	s.log.Info().Int("devices", len(next.Devices)).Msg("registry replaced")
	s.eventBus.Publish(Event{Type: EventRegistryReloaded, Payload: map[string]interface{}{
		"devices": len(next.Devices),
	}})
}

// List returns the registry devices in order.
func (s *DeviceService) List() []domain.Device {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Device, len(s.cfg.Devices))
	copy(out, s.cfg.Devices)
	return out
}

// Find returns the device with the given name.
func (s *DeviceService) Find(name string) (domain.Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.cfg.FindDevice(name)
	if !ok {
		return domain.Device{}, fmt.Errorf("%w: %s", ErrDeviceNotFound, name)
	}
	return d, nil
}

// Wake sends a magic packet to the named device at <ip>:9.
func (s *DeviceService) Wake(name string) error {
	d, err := s.Find(name)
	if err != nil {
		return err
	}

	mac, err := net.ParseMAC(d.MACAddress)
	if err != nil {
		return fmt.Errorf("%w %q for %s: %v", ErrInvalidMAC, d.MACAddress, d.Name, err)
	}

	ip := net.ParseIP(d.IPAddress).To4()
	if ip == nil {
		return fmt.Errorf("%w %q for %s", ErrInvalidIP, d.IPAddress, d.Name)
	}

	addr := net.JoinHostPort(ip.String(), wolPort)
	if err := s.waker.Wake(addr, mac); err != nil {
		return fmt.Errorf("send magic packet to %s: %w", d.Name, err)
	}

	s.log.Info().Str("device", d.Name).Str("mac", mac.String()).Str("addr", addr).Msg("magic packet sent")
	s.eventBus.Publish(Event{Type: EventDeviceWoken, Payload: d})
	return nil
}

// Status pings the named device.
func (s *DeviceService) Status(ctx context.Context, name string) (domain.DeviceStatus, error) {
	d, err := s.Find(name)
	if err != nil {
		return "", err
	}
	return s.pinger.Ping(ctx, d.IPAddress), nil
}

// RefreshAll pings every device concurrently and caches the results in
// registry order.
func (s *DeviceService) RefreshAll(ctx context.Context) []DeviceStatusReport {
	devices := s.List()
	reports := make([]DeviceStatusReport, len(devices))

	var g errgroup.Group
	for i, d := range devices {
		g.Go(func() error {
			reports[i] = DeviceStatusReport{
				Name:       d.Name,
				IPAddress:  d.IPAddress,
				MACAddress: d.MACAddress,
				Status:     s.pinger.Ping(ctx, d.IPAddress),
				CheckedAt:  s.now(),
			}
			return nil
		})
	}
	_ = g.Wait()

	s.mu.Lock()
	s.statuses = reports
	s.mu.Unlock()

	online := 0
	for _, r := range reports {
		if r.Status == domain.StatusOnline {
			online++
		}
	}
	s.log.Debug().Int("devices", len(reports)).Int("online", online).Msg("statuses refreshed")
	s.eventBus.Publish(Event{Type: EventStatusRefreshed, Payload: reports})

	out := make([]DeviceStatusReport, len(reports))
	copy(out, reports)
	return out
}

// LastStatuses returns the statuses of the most recent refresh.
func (s *DeviceService) LastStatuses() []DeviceStatusReport {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]DeviceStatusReport, len(s.statuses))
	copy(out, s.statuses)
	return out
}

// StartSync schedules RefreshAll according to the sync settings. It does
// nothing when sync is disabled.
func (s *DeviceService) StartSync() error {
	sc := s.Registry().Sync
	if !sc.Enabled {
		s.log.Info().Msg("status sync disabled")
		return nil
	}

	c := cron.New()
	spec := fmt.Sprintf("@every %s", sc.Interval())
	if _, err := c.AddFunc(spec, func() {
		s.RefreshAll(context.Background())
	}); err != nil {
		return fmt.Errorf("schedule status sync: %w", err)
	}

	s.mu.Lock()
	s.cron = c
	s.mu.Unlock()

	c.Start()
	s.log.Info().Dur("interval", sc.Interval()).Msg("status sync started")
	return nil
}

// StopSync stops the schedule and waits for a running refresh to finish.
func (s *DeviceService) StopSync() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
}
