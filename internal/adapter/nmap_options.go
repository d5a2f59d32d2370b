package adapter

import "time"

// NmapOption is a functional option for configuring NmapProbe
type NmapOption func(*NmapProbe)

// WithHostTimeout bounds how long nmap spends on the host
func WithHostTimeout(d time.Duration) NmapOption {
	return func(p *NmapProbe) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithNmapBinary uses an nmap binary outside PATH
func WithNmapBinary(path string) NmapOption {
	return func(p *NmapProbe) {
		p.binaryPath = path
	}
}
