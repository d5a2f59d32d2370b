package service

import (
	"sync"
	"time"

	"wololo/internal/config"
	"wololo/internal/domain"
)

// GeneratedConfig is the most recent reconciliation offered for download.
type GeneratedConfig struct {
	Text        string
	Config      *config.Config
	Added       []domain.Device
	Skipped     []domain.DiscoveredDevice
	GeneratedAt time.Time
}

// ScanStore holds the latest scan snapshot and the latest generated config.
// Every access copies in or out under the lock, so readers never observe a
// partially written snapshot and the lock is never held across a probe.
type ScanStore struct {
	mu        sync.Mutex
	latest    *domain.ScanSnapshot
	generated *GeneratedConfig
}

// NewScanStore creates an empty store.
func NewScanStore() *ScanStore {
	return &ScanStore{}
}

// Record replaces the latest snapshot wholesale.
func (s *ScanStore) Record(snapshot domain.ScanSnapshot) {
	c := snapshot.Clone()
	c.Key = domain.LatestScanKey

	s.mu.Lock()
	s.latest = &c
	s.mu.Unlock()
}

// Latest returns a copy of the latest snapshot, or an empty snapshot when
// no scan has completed.
func (s *ScanStore) Latest() domain.ScanSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.latest == nil {
		return domain.EmptySnapshot()
	}
	return s.latest.Clone()
}

// HasScan reports whether any scan has been recorded.
func (s *ScanStore) HasScan() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest != nil
}

// SetGenerated replaces the generated config.
func (s *ScanStore) SetGenerated(g GeneratedConfig) {
	if g.Config != nil {
		g.Config = g.Config.Clone()
	}

	s.mu.Lock()
	s.generated = &g
	s.mu.Unlock()
}

// Generated returns the generated config, if any.
func (s *ScanStore) Generated() (GeneratedConfig, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generated == nil {
		return GeneratedConfig{}, false
	}
	g := *s.generated
	if g.Config != nil {
		g.Config = g.Config.Clone()
	}
	return g, true
}
