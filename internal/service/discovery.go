package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"wololo/internal/adapter"
	"wololo/internal/codec"
	"wololo/internal/config"
	"wololo/internal/domain"
	"wololo/internal/logger"
)

var (
	// ErrScanInProgress is returned when a scan is requested while one runs.
	ErrScanInProgress = errors.New("scan already in progress")
	// ErrNoInterfaces is returned when no interface yields a scan target.
	ErrNoInterfaces = errors.New("no scannable network interfaces")
)

// TargetSource yields the networks to scan.
type TargetSource interface {
	Targets(ctx context.Context) ([]adapter.Target, error)
}

// HostScanner probes a batch of hosts and returns the live ones.
type HostScanner interface {
	Scan(ctx context.Context, hosts []string) []domain.DiscoveredDevice
}

// RegistrySource provides the current registry.
type RegistrySource interface {
	Registry() *config.Config
}

// DiscoveryService coordinates scans, the scan store and config generation.
type DiscoveryService struct {
	targets    TargetSource
	scanner    HostScanner
	store      *ScanStore
	reconciler *Reconciler
	registry   RegistrySource
	eventBus   *EventBus
	log        zerolog.Logger
	now        func() time.Time

	mu       sync.Mutex
	scanning bool
}

// NewDiscoveryService creates a discovery service.
func NewDiscoveryService(targets TargetSource, scanner HostScanner, store *ScanStore, registry RegistrySource, eventBus *EventBus) *DiscoveryService {
	return &DiscoveryService{
		targets:    targets,
		scanner:    scanner,
		store:      store,
		reconciler: NewReconciler(),
		registry:   registry,
		eventBus:   eventBus,
		log:        logger.WithComponent("discovery"),
		now:        time.Now,
	}
}

// Scan enumerates the local networks, probes every candidate host and
// replaces the latest snapshot with the result. When no interface yields a
// target an empty snapshot is still recorded and ErrNoInterfaces returned.
func (s *DiscoveryService) Scan(ctx context.Context) (domain.ScanSnapshot, error) {
	s.mu.Lock()
	if s.scanning {
		s.mu.Unlock()
		return domain.ScanSnapshot{}, ErrScanInProgress
	}
	s.scanning = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.scanning = false
		s.mu.Unlock()
	}()

	started := s.now()

	targets, err := s.targets.Targets(ctx)
	if err != nil {
		return domain.ScanSnapshot{}, fmt.Errorf("enumerate networks: %w", err)
	}

	networks := make([]string, 0, len(targets))
	total := 0
	for _, t := range targets {
		networks = append(networks, t.Network.String())
		total += len(t.Hosts)
	}

	s.log.Info().Strs("networks", networks).Int("hosts", total).Msg("starting scan")
	s.eventBus.Publish(Event{Type: EventDiscoveryStarted, Payload: map[string]interface{}{
		"networks": networks,
		"total":    total,
		"message":  fmt.Sprintf("Scanning %d hosts on %d networks", total, len(networks)),
	}})

	devices := make([]domain.DiscoveredDevice, 0)
	for _, t := range targets {
		s.log.Info().Str("interface", t.Interface).Stringer("network", t.Network).Msg("scanning network")
		devices = append(devices, s.scanner.Scan(ctx, t.Hosts)...)
	}

	snapshot := domain.NewScanSnapshot(devices, started, s.now())
	s.store.Record(snapshot)

	s.log.Info().
		Str("scan_id", snapshot.ID).
		Int("online", len(devices)).
		Dur("elapsed", snapshot.CompletedAt.Sub(snapshot.StartedAt)).
		Msg("scan complete")
	s.eventBus.Publish(Event{Type: EventDiscoveryComplete, Payload: map[string]interface{}{
		"scan_id":    snapshot.ID,
		"discovered": len(devices),
		"message":    fmt.Sprintf("Scan complete: %d hosts online", len(devices)),
	}})

	if len(targets) == 0 {
		return snapshot, ErrNoInterfaces
	}
	return snapshot, nil
}

// Scanning reports whether a scan is running.
func (s *DiscoveryService) Scanning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scanning
}

// Latest returns the latest snapshot.
func (s *DiscoveryService) Latest() domain.ScanSnapshot {
	return s.store.Latest()
}

// GenerateConfig reconciles the hosts of the latest scan whose IP is in
// selectedIPs against the current registry, stores the result for download
// and returns its text.
func (s *DiscoveryService) GenerateConfig(selectedIPs []string) string {
	selected := s.store.Latest().Select(selectedIPs)
	rec := s.reconciler.Merge(s.registry.Registry(), selected)
	text := s.reconciler.Render(rec)

	s.store.SetGenerated(GeneratedConfig{
		Text:        text,
		Config:      rec.Config,
		Added:       rec.Added,
		Skipped:     rec.Skipped,
		GeneratedAt: s.now(),
	})

	s.log.Info().Int("selected", len(selected)).Int("added", len(rec.Added)).Int("skipped", len(rec.Skipped)).Msg("config generated")
	s.eventBus.Publish(Event{Type: EventConfigGenerated, Payload: map[string]interface{}{
		"added":   rec.Added,
		"skipped": len(rec.Skipped),
	}})

	return text
}

// DownloadConfig returns the generated config text, or the current registry
// rendered as YAML when nothing was generated yet.
func (s *DiscoveryService) DownloadConfig() string {
	if g, ok := s.store.Generated(); ok {
		return g.Text
	}
	return s.reconciler.Reconcile(s.registry.Registry(), nil)
}

// Export writes the downloadable config in the given codec format. The YAML
// format keeps the comments about skipped hosts.
func (s *DiscoveryService) Export(format string, w io.Writer) error {
	c, err := codec.ForFormat(format)
	if err != nil {
		return err
	}

	if c.Format() == codec.FormatYAML {
		_, err := io.WriteString(w, s.DownloadConfig())
		return err
	}

	cfg := s.registry.Registry()
	if g, ok := s.store.Generated(); ok && g.Config != nil {
		cfg = g.Config
	}
	return c.Export(cfg, w)
}
