package adapter

import (
	"context"
	"fmt"
	"net/netip"
	"strings"

	psnet "github.com/shirou/gopsutil/v3/net"
	"github.com/rs/zerolog"

	"wololo/internal/logger"
)

// maxHostsPerInterface caps the candidates taken from one interface.
const maxHostsPerInterface = 254

// InterfaceAddr is one address assigned to a local interface.
type InterfaceAddr struct {
	Interface string
	IP        netip.Addr
}

// InterfaceSource lists the addresses of the local interfaces in interface
// order.
type InterfaceSource interface {
	Addrs(ctx context.Context) ([]InterfaceAddr, error)
}

// Target is the /24 derived from one interface.
type Target struct {
	Interface string       `json:"interface"`
	Network   netip.Prefix `json:"network"`
	Hosts     []string     `json:"-"`
}

// SystemInterfaces reads interface addresses from the operating system.
type SystemInterfaces struct{}

// Addrs returns every parseable address of every interface.
func (SystemInterfaces) Addrs(ctx context.Context) ([]InterfaceAddr, error) {
	ifaces, err := psnet.InterfacesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list interfaces: %w", err)
	}

	var out []InterfaceAddr
	for _, iface := range ifaces {
		for _, a := range iface.Addrs {
			ip, ok := parseInterfaceAddr(a.Addr)
			if !ok {
				continue
			}
			out = append(out, InterfaceAddr{Interface: iface.Name, IP: ip})
		}
	}
	return out, nil
}

// parseInterfaceAddr accepts "ip/bits" and bare "ip" forms.
func parseInterfaceAddr(s string) (netip.Addr, bool) {
	if p, err := netip.ParsePrefix(s); err == nil {
		return p.Addr(), true
	}
	if a, err := netip.ParseAddr(s); err == nil {
		return a, true
	}
	return netip.Addr{}, false
}

// SubnetEnumerator derives scan targets from the local interfaces.
type SubnetEnumerator struct {
	source  InterfaceSource
	exclude []string
	log     zerolog.Logger
}

// NewSubnetEnumerator creates an enumerator. Interfaces whose name starts
// with one of excludePrefixes are skipped.
func NewSubnetEnumerator(source InterfaceSource, excludePrefixes ...string) *SubnetEnumerator {
	return &SubnetEnumerator{
		source:  source,
		exclude: excludePrefixes,
		log:     logger.WithComponent("subnet"),
	}
}

// Targets returns one /24 per interface that has an IPv4, non-loopback
// address, using the first such address. Interfaces that share a network
// with an earlier interface are dropped. An error means the interfaces
// could not be listed at all.
func (e *SubnetEnumerator) Targets(ctx context.Context) ([]Target, error) {
	addrs, err := e.source.Addrs(ctx)
	if err != nil {
		return nil, err
	}

	var (
		targets []Target
		handled = make(map[string]bool)
		seen    = make(map[netip.Prefix]bool)
	)

	for _, a := range addrs {
		if handled[a.Interface] || e.excluded(a.Interface) {
			continue
		}

		ip := a.IP.Unmap()
		if !ip.Is4() || ip.IsLoopback() {
			continue
		}
		handled[a.Interface] = true

		network, err := netip.ParsePrefix(ip.String() + "/24")
		if err != nil {
			e.log.Warn().Err(err).Str("interface", a.Interface).Msg("skipping interface")
			continue
		}
		network = network.Masked()

		if seen[network] {
			e.log.Debug().Str("interface", a.Interface).Stringer("network", network).Msg("network already targeted")
			continue
		}
		seen[network] = true

		targets = append(targets, Target{
			Interface: a.Interface,
			Network:   network,
			Hosts:     HostsInNetwork(network, maxHostsPerInterface),
		})
	}

	return targets, nil
}

func (e *SubnetEnumerator) excluded(name string) bool {
	for _, prefix := range e.exclude {
		if prefix != "" && strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// HostsInNetwork lists the host addresses of an IPv4 network, excluding the
// network and broadcast addresses, up to limit entries.
func HostsInNetwork(network netip.Prefix, limit int) []string {
	network = network.Masked()
	if !network.Addr().Is4() || limit <= 0 {
		return nil
	}

	var hosts []string
	for ip := network.Addr().Next(); network.Contains(ip) && len(hosts) < limit; ip = ip.Next() {
		if !network.Contains(ip.Next()) {
			break
		}
		hosts = append(hosts, ip.String())
	}
	return hosts
}
