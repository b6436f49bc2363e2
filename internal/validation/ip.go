package validation

import (
	"net/netip"
	"strings"
)

// MaskIP hides the host part of a client address for logs: the last octet
// of IPv4 and the last 64 bits of IPv6. Ports and brackets are stripped.
// Values that are not IP literals are returned as "unknown".
func MaskIP(host string) string {
	addr, err := netip.ParseAddr(stripPort(host))
	if err != nil {
		return "unknown"
	}

	if addr.Is4In6() {
		addr = netip.AddrFrom4(addr.As4())
	}

	bits := 64
	if addr.Is4() {
		bits = 24
	}
	prefix, err := addr.WithZone("").Prefix(bits)
	if err != nil {
		return "unknown"
	}
	return prefix.Addr().String()
}

func stripPort(host string) string {
	if strings.HasPrefix(host, "[") {
		if end := strings.Index(host, "]"); end != -1 {
			return host[1:end]
		}
		return strings.TrimPrefix(host, "[")
	}
	// a single colon separates an IPv4 address or hostname from its port
	if strings.Count(host, ":") == 1 {
		host, _, _ = strings.Cut(host, ":")
	}
	return host
}
