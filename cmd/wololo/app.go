package main

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/mdlayher/wol"
	"github.com/paularlott/cli"

	"wololo/internal/adapter"
	"wololo/internal/config"
	"wololo/internal/logger"
	"wololo/internal/service"
)

// app holds the services shared by every command.
type app struct {
	cfg       *config.Config
	path      string
	bus       *service.EventBus
	devices   *service.DeviceService
	discovery *service.DiscoveryService
	waker     *wol.Client
}

// logFlags overlays the logging flags on the file settings.
func logFlags(cmd *cli.Command, base logger.Config) logger.Config {
	if v := cmd.GetString("log-level"); v != "" {
		base.Level = v
	}
	if v := cmd.GetString("log-format"); v != "" {
		base.Format = v
	}
	return base
}

// loadConfig reads the registry from --config or the search path. A named
// file that does not exist yet yields defaults so it can be written later.
func loadConfig(cmd *cli.Command) (*config.Config, string, error) {
	var (
		cfg  *config.Config
		path string
		err  error
	)

	if p := cmd.GetString("config"); p != "" {
		cfg, path, err = config.LoadFromPath(p)
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn().Str("path", p).Msg("config file not found, using defaults")
			cfg, err = config.Default(), nil
		}
	} else {
		cfg, path, err = config.Load()
	}
	if err != nil {
		return nil, path, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, path, fmt.Errorf("invalid config %s: %w", path, err)
	}

	if err := logger.Init(logFlags(cmd, cfg.Logging)); err != nil {
		return nil, path, err
	}

	return cfg, path, nil
}

// newApp wires probes, scanner and services for cfg.
func newApp(cfg *config.Config, path string) (*app, error) {
	dc := cfg.Discovery
	bus := service.NewEventBus()

	scanner := adapter.NewScanner(newHostProbe(dc), adapter.WithMaxConcurrent(dc.MaxConcurrent))
	scanner.SetEventPublisher(bus)

	waker, err := wol.NewClient()
	if err != nil {
		return nil, fmt.Errorf("open wake-on-lan socket: %w", err)
	}

	devices := service.NewDeviceService(cfg, newPinger(dc, dc.StatusTimeout()), waker, bus)
	targets := adapter.NewSubnetEnumerator(adapter.SystemInterfaces{}, dc.ExcludeInterfaces...)
	discovery := service.NewDiscoveryService(targets, scanner, service.NewScanStore(), devices, bus)

	return &app{
		cfg:       cfg,
		path:      path,
		bus:       bus,
		devices:   devices,
		discovery: discovery,
		waker:     waker,
	}, nil
}

func (a *app) Close() error {
	a.devices.StopSync()
	return a.waker.Close()
}

// newHostProbe selects the discovery probe backend.
func newHostProbe(dc config.DiscoveryConfig) adapter.HostProbe {
	var probe adapter.HostProbe
	switch dc.ProbeBackend() {
	case config.ProbeNmap:
		probe = adapter.NewNmapProbe(adapter.WithHostTimeout(dc.PingTimeout()))
	default:
		probe = adapter.NewExecProbe(adapter.WithPingTimeout(dc.PingTimeout()))
	}

	if dc.SNMP.Enabled {
		probe = adapter.NewSNMPNameProbe(probe, dc.SNMP.EffectiveCommunity(), dc.SNMP.EffectivePort(), dc.SNMP.Timeout())
	}
	return probe
}

// newPinger selects the liveness backend used for registry status checks.
func newPinger(dc config.DiscoveryConfig, timeout time.Duration) adapter.Pinger {
	if dc.ProbeBackend() == config.ProbeNmap {
		return adapter.NewNmapProbe(adapter.WithHostTimeout(timeout))
	}
	return adapter.NewExecProbe(adapter.WithPingTimeout(timeout))
}
