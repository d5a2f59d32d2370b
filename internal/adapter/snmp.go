package adapter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gosnmp/gosnmp"
	"github.com/rs/zerolog"

	"wololo/internal/domain"
	"wololo/internal/logger"
)

// oidSysName is SNMPv2-MIB::sysName.0
const oidSysName = ".1.3.6.1.2.1.1.5.0"

// SNMPNameProbe decorates a HostProbe. Online hosts without a resolved
// hostname are asked for their sysName over SNMP v2c.
type SNMPNameProbe struct {
	next      HostProbe
	community string
	port      uint16
	timeout   time.Duration
	query     func(ctx context.Context, ip string) (string, error)
	log       zerolog.Logger
}

// NewSNMPNameProbe wraps next with sysName lookups.
func NewSNMPNameProbe(next HostProbe, community string, port uint16, timeout time.Duration) *SNMPNameProbe {
	p := &SNMPNameProbe{
		next:      next,
		community: community,
		port:      port,
		timeout:   timeout,
		log:       logger.WithComponent("snmp-probe"),
	}
	p.query = p.sysName
	return p
}

// Probe runs the wrapped probe and fills in a missing hostname.
func (p *SNMPNameProbe) Probe(ctx context.Context, ip string) ProbeResult {
	res := p.next.Probe(ctx, ip)
	if res.Status != domain.StatusOnline || res.Hostname != nil {
		return res
	}

	name, err := p.query(ctx, ip)
	if err != nil {
		p.log.Debug().Err(err).Str("ip", ip).Msg("sysName query failed")
		return res
	}
	if name = strings.TrimSpace(name); name != "" {
		res.Hostname = &name
	}
	return res
}

func (p *SNMPNameProbe) sysName(ctx context.Context, ip string) (string, error) {
	client := &gosnmp.GoSNMP{
		Target:    ip,
		Port:      p.port,
		Community: p.community,
		Version:   gosnmp.Version2c,
		Timeout:   p.timeout,
		Retries:   1,
		Context:   ctx,
	}

	if err := client.Connect(); err != nil {
		return "", fmt.Errorf("connect: %w", err)
	}
	defer client.Conn.Close()

	result, err := client.Get([]string{oidSysName})
	if err != nil {
		return "", fmt.Errorf("get sysName: %w", err)
	}

	for _, v := range result.Variables {
		if v.Name != oidSysName {
			continue
		}
		switch val := v.Value.(type) {
		case []byte:
			return string(val), nil
		case string:
			return val, nil
		}
	}
	return "", fmt.Errorf("sysName not returned")
}
