package service

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"wololo/internal/config"
	"wololo/internal/domain"
	"wololo/internal/logger"
)

// Reconciliation is the outcome of merging discovered hosts into a registry.
type Reconciliation struct {
	Config  *config.Config
	Added   []domain.Device
	Skipped []domain.DiscoveredDevice
}

// Reconciler merges discovered hosts into the device registry.
type Reconciler struct {
	log zerolog.Logger
}

// NewReconciler creates a reconciler.
func NewReconciler() *Reconciler {
	return &Reconciler{log: logger.WithComponent("reconcile")}
}

// Merge appends every discovered host whose MAC address is not yet
// registered to a copy of cfg, in discovery order. Hosts without a MAC are
// returned in Skipped. MAC addresses compare as exact strings.
func (r *Reconciler) Merge(cfg *config.Config, discovered []domain.DiscoveredDevice) Reconciliation {
	merged := cfg.Clone()

	known := make(map[string]struct{}, len(merged.Devices)+len(discovered))
	for _, d := range merged.Devices {
		known[d.MACAddress] = struct{}{}
	}

	rec := Reconciliation{Config: merged}
	for _, d := range discovered {
		if !d.HasMAC() {
			rec.Skipped = append(rec.Skipped, d)
			continue
		}

		mac := d.MAC()
		if _, dup := known[mac]; dup {
			continue
		}
		known[mac] = struct{}{}

		dev := domain.Device{
			Name:       domain.RegistryName(d),
			MACAddress: mac,
			IPAddress:  d.IPAddress,
		}
		merged.Devices = append(merged.Devices, dev)
		rec.Added = append(rec.Added, dev)
	}

	r.log.Debug().
		Int("discovered", len(discovered)).
		Int("added", len(rec.Added)).
		Int("skipped", len(rec.Skipped)).
		Msg("merged discovered devices")

	return rec
}

// Render serializes the merged config and appends one comment line per
// skipped host. A serialization failure yields only the comments.
func (r *Reconciler) Render(rec Reconciliation) string {
	var b strings.Builder

	data, err := config.Marshal(rec.Config)
	if err != nil {
		r.log.Error().Err(err).Msg("failed to serialize config")
	} else {
		b.Write(data)
	}

	for _, d := range rec.Skipped {
		fmt.Fprintf(&b, "\n# Device '%s' (%s) could not be added because it is missing a MAC address.",
			d.HostnameOr("Unknown"), d.IPAddress)
	}

	return b.String()
}

// Reconcile merges discovered into cfg and renders the result. cfg is not
// modified.
func (r *Reconciler) Reconcile(cfg *config.Config, discovered []domain.DiscoveredDevice) string {
	return r.Render(r.Merge(cfg, discovered))
}

// ReconcileText is Reconcile against persisted config text. Text that does
// not parse is replaced by the default config with an empty registry.
func (r *Reconciler) ReconcileText(existing []byte, discovered []domain.DiscoveredDevice) string {
	cfg, err := config.Parse(existing)
	if err != nil {
		r.log.Warn().Err(err).Msg("existing config unreadable, starting from defaults")
		cfg = config.Default()
	}
	return r.Reconcile(cfg, discovered)
}
