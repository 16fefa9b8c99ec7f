// Package privacy turns client identifiers into values that are safe to put
// in request logs, rate-limit events and sign-in audit lines.
package privacy

import "net/netip"

// Prefix lengths kept when logging a client address.
const (
	ipv4LogBits = 24
	ipv6LogBits = 48
)

// AnonymizeIP masks a client address down to its network: 203.0.113.47
// logs as 203.0.113.0 and 2001:db8:85a3::7334 as 2001:db8:85a3::.
// IPv4-mapped IPv6 addresses are treated as IPv4.
//
// Empty input yields "unknown"; anything that is not a bare address
// (including host:port) yields "invalid".
func AnonymizeIP(ip string) string {
	if ip == "" || ip == "unknown" {
		return "unknown"
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return "invalid"
	}
	addr = addr.Unmap().WithZone("")

	bits := ipv6LogBits
	if addr.Is4() {
		bits = ipv4LogBits
	}
	prefix, err := addr.Prefix(bits)
	if err != nil {
		return "invalid"
	}
	return prefix.Addr().String()
}
