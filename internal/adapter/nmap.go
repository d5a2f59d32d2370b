package adapter

import (
	"context"
	"strings"
	"time"

	nmap "github.com/Ullaakut/nmap/v3"
	"github.com/rs/zerolog"

	"wololo/internal/domain"
	"wololo/internal/logger"
)

// NmapProbe probes hosts with an nmap ping scan (-sn). When run with
// sufficient privileges nmap reports the hardware address of hosts on the
// local link.
type NmapProbe struct {
	timeout    time.Duration
	binaryPath string
	log        zerolog.Logger
}

// NewNmapProbe creates an nmap based probe.
func NewNmapProbe(opts ...NmapOption) *NmapProbe {
	p := &NmapProbe{
		timeout: 2 * time.Second,
		log:     logger.WithComponent("nmap-probe"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Probe runs a ping scan against ip.
func (p *NmapProbe) Probe(ctx context.Context, ip string) ProbeResult {
	result, err := p.run(ctx, ip)
	if err != nil {
		p.log.Debug().Err(err).Str("ip", ip).Msg("nmap scan failed")
		return ProbeResult{Status: domain.StatusUnreachable}
	}
	return resultFromRun(result, ip)
}

// Ping reports liveness only.
func (p *NmapProbe) Ping(ctx context.Context, ip string) domain.DeviceStatus {
	return p.Probe(ctx, ip).Status
}

func (p *NmapProbe) run(ctx context.Context, ip string) (*nmap.Run, error) {
	opts := []nmap.Option{
		nmap.WithTargets(ip),
		nmap.WithPingScan(),
		nmap.WithHostTimeout(p.timeout),
	}
	if p.binaryPath != "" {
		opts = append(opts, nmap.WithBinaryPath(p.binaryPath))
	}

	scanner, err := nmap.NewScanner(ctx, opts...)
	if err != nil {
		return nil, err
	}

	result, warnings, err := scanner.Run()
	if warnings != nil && len(*warnings) > 0 {
		p.log.Debug().Strs("warnings", *warnings).Str("ip", ip).Msg("nmap warnings")
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// resultFromRun maps the nmap report for ip onto a ProbeResult.
func resultFromRun(result *nmap.Run, ip string) ProbeResult {
	if result == nil {
		return ProbeResult{Status: domain.StatusOffline}
	}

	for _, host := range result.Hosts {
		if hostIPv4(host) != ip {
			continue
		}
		if host.Status.State != "up" {
			return ProbeResult{Status: domain.StatusOffline}
		}

		res := ProbeResult{Status: domain.StatusOnline}
		for _, hn := range host.Hostnames {
			if name := strings.TrimRight(hn.Name, "."); name != "" {
				res.Hostname = &name
				break
			}
		}
		for _, addr := range host.Addresses {
			if addr.AddrType == "mac" && addr.Addr != "" {
				mac := strings.ToUpper(addr.Addr)
				res.MAC = &mac
				break
			}
		}
		return res
	}

	return ProbeResult{Status: domain.StatusOffline}
}

func hostIPv4(host nmap.Host) string {
	for _, addr := range host.Addresses {
		if addr.AddrType == "ipv4" {
			return addr.Addr
		}
	}
	return ""
}
