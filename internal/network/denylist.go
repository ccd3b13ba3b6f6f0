package network

import (
	"net"
	"sync"
)

// DenyList is a CIDR-style (v4 and v6) block list consulted on every
// accept, per spec.md §3/§4.8.
type DenyList struct {
	mu   sync.RWMutex
	nets []*net.IPNet
}

// NewDenyList builds an empty deny list.
func NewDenyList() *DenyList {
	return &DenyList{}
}

// Add parses cidr ("1.2.3.0/24" or a bare address, treated as a /32 or
// /128) and adds it to the list.
func (d *DenyList) Add(cidr string) error {
	_, n, err := net.ParseCIDR(cidr)
	if err != nil {
		ip := net.ParseIP(cidr)
		if ip == nil {
			return err
		}
		bits := 32
		if ip.To4() == nil {
			bits = 128
		}
		n = &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.nets = append(d.nets, n)
	return nil
}

// Denied reports whether ip matches any entry in the list.
func (d *DenyList) Denied(ip net.IP) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, n := range d.nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}
