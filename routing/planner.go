// Package routing computes the route set a tunnel installs: the whole IPv4
// space minus the upstream proxy address, so traffic to the proxy itself
// never loops back into the tunnel.
package routing

import (
	"encoding/binary"
	"net/netip"

	log "github.com/sirupsen/logrus"
)

// DefaultFakeDNS is the in-tunnel resolver returning synthetic addresses,
// which lets the relay engine recover hostnames for SOCKS5 connects.
var DefaultFakeDNS = netip.AddrFrom4([4]byte{198, 18, 0, 2})

var defaultRoute = netip.PrefixFrom(netip.AddrFrom4([4]byte{0, 0, 0, 0}), 0)

// Plan is everything the platform needs to establish the virtual
// interface: the prefixes routed through the tunnel, the DNS server to
// advertise, and the application allow-list (empty means unrestricted,
// the controlling application alone is excluded by the platform).
type Plan struct {
	Prefixes    []netip.Prefix
	DNS         netip.Addr
	AllowedApps []string
}

// PlanForProxy builds the route plan excluding the proxy host. A host that
// is not a dotted-quad IPv4 literal degrades to the single default route,
// since no safe exclusion is computable for a hostname.
func PlanForProxy(proxyHost string, allowedApps []string) Plan {
	return Plan{
		Prefixes:    ExcludeAddress(proxyHost),
		DNS:         DefaultFakeDNS,
		AllowedApps: allowedApps,
	}
}

// ExcludeAddress returns the minimal prefix set covering 0.0.0.0/0 minus
// the given address. For a non-IPv4 input it falls back to [0.0.0.0/0].
func ExcludeAddress(host string) []netip.Prefix {
	addr, err := netip.ParseAddr(host)
	if err != nil || !addr.Is4() {
		log.WithField("host", host).Debug("proxy host is not an IPv4 literal, using default route")
		return []netip.Prefix{defaultRoute}
	}
	return excludePrefixes(addr)
}

// excludePrefixes walks the binary subdivision of the address space. At
// each depth the half not containing the excluded address is emitted; the
// other half is subdivided further. The /32 of the excluded address itself
// is never emitted, so the result is always exactly 32 prefixes whose
// union plus that /32 reconstructs the full space.
func excludePrefixes(excluded netip.Addr) []netip.Prefix {
	ip := binary.BigEndian.Uint32(excluded.AsSlice())
	prefixes := make([]netip.Prefix, 0, 32)
	for depth := 0; depth < 32; depth++ {
		bit := uint32(1) << uint(31-depth)
		mask := ^(bit - 1)
		sibling := (ip & mask) ^ bit
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], sibling)
		prefixes = append(prefixes, netip.PrefixFrom(netip.AddrFrom4(b), depth+1))
	}
	return prefixes
}
