package adapter

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"wololo/internal/domain"
	"wololo/internal/logger"

	"github.com/rs/zerolog"
)

// ExecProbe probes hosts with the system ping, nslookup and arp commands.
type ExecProbe struct {
	runner  CommandRunner
	timeout time.Duration
	log     zerolog.Logger
}

// ExecOption configures an ExecProbe.
type ExecOption func(*ExecProbe)

// WithRunner replaces the command runner.
func WithRunner(r CommandRunner) ExecOption {
	return func(p *ExecProbe) {
		p.runner = r
	}
}

// WithPingTimeout sets the ping reply timeout. It is rounded up to whole
// seconds with a minimum of one.
func WithPingTimeout(d time.Duration) ExecOption {
	return func(p *ExecProbe) {
		p.timeout = d
	}
}

// NewExecProbe creates a probe that shells out to system tools.
func NewExecProbe(opts ...ExecOption) *ExecProbe {
	p := &ExecProbe{
		runner:  ExecRunner{},
		timeout: time.Second,
		log:     logger.WithComponent("exec-probe"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Probe pings ip and, when it answers, resolves its hostname and MAC.
func (p *ExecProbe) Probe(ctx context.Context, ip string) ProbeResult {
	status := p.Ping(ctx, ip)
	if status != domain.StatusOnline {
		return ProbeResult{Status: status}
	}

	return ProbeResult{
		Status:   domain.StatusOnline,
		Hostname: p.Hostname(ctx, ip),
		MAC:      p.MAC(ctx, ip),
	}
}

// Ping sends a single echo request.
func (p *ExecProbe) Ping(ctx context.Context, ip string) domain.DeviceStatus {
	res, err := p.runner.Run(ctx, "ping", "-c", "1", "-W", p.timeoutArg(), ip)
	if err != nil {
		p.log.Debug().Err(err).Str("ip", ip).Msg("ping could not run")
		return domain.StatusUnreachable
	}
	if res.Success() {
		return domain.StatusOnline
	}
	return domain.StatusOffline
}

// Hostname resolves the PTR name of ip via nslookup.
func (p *ExecProbe) Hostname(ctx context.Context, ip string) *string {
	res, err := p.runner.Run(ctx, "nslookup", ip)
	if err != nil || !res.Success() {
		return nil
	}
	return parseNslookup(string(res.Stdout))
}

// MAC reads the hardware address of ip from the ARP table.
func (p *ExecProbe) MAC(ctx context.Context, ip string) *string {
	res, err := p.runner.Run(ctx, "arp", "-n", ip)
	if err != nil || !res.Success() {
		return nil
	}
	if mac, ok := domain.ExtractMAC(string(res.Stdout)); ok {
		return &mac
	}
	return nil
}

func (p *ExecProbe) timeoutArg() string {
	secs := int(math.Ceil(p.timeout.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

// parseNslookup extracts the name from the first "name =" line of a reverse
// lookup. A line that mentions "name =" without the expected form ends the
// search.
func parseNslookup(out string) *string {
	for _, line := range strings.Split(out, "\n") {
		if !strings.Contains(line, "name =") {
			continue
		}
		_, after, found := strings.Cut(line, "name = ")
		if !found {
			return nil
		}
		name := strings.TrimRight(strings.TrimSpace(after), ".")
		if name == "" {
			return nil
		}
		return &name
	}
	return nil
}
