// Package ipam hands out client addresses from a node's WireGuard pool.
// Allocation walks the pool sequentially so addresses stay dense and
// predictable; the set of addresses in use is supplied by the caller,
// which lets the store remain the single source of truth.
package ipam

import (
	"fmt"
	"net"

	"github.com/bryanfrank99/mk-api-wire/internal/shared/errors"
)

// Allocate returns the first free host address in poolCIDR that is not in
// used. The network address, the broadcast address, and the first host
// (reserved for the server-side interface) are never handed out.
func Allocate(poolCIDR string, used map[string]bool) (net.IP, error) {
	ip, network, err := net.ParseCIDR(poolCIDR)
	if err != nil {
		return nil, fmt.Errorf("invalid pool CIDR %s: %w", poolCIDR, err)
	}
	if ip.To4() == nil {
		return nil, fmt.Errorf("pool CIDR %s is not IPv4", poolCIDR)
	}

	networkAddr := ipToUint32(network.IP)
	broadcastAddr := broadcastOf(network)

	// First candidate is the second host (.2 in a /24): .1 belongs to
	// the server interface on the node.
	start := networkAddr + 2
	if start >= broadcastAddr {
		return nil, errors.ErrPoolExhausted
	}

	for current := start; current < broadcastAddr; current++ {
		candidate := uint32ToIP(current)
		if !used[candidate.String()] {
			return candidate, nil
		}
	}

	return nil, errors.ErrPoolExhausted
}

// PoolSize reports how many client addresses poolCIDR can hold, after the
// reserved network, broadcast, and server addresses are excluded.
func PoolSize(poolCIDR string) (int, error) {
	_, network, err := net.ParseCIDR(poolCIDR)
	if err != nil {
		return 0, fmt.Errorf("invalid pool CIDR %s: %w", poolCIDR, err)
	}

	networkAddr := ipToUint32(network.IP)
	broadcastAddr := broadcastOf(network)
	if broadcastAddr <= networkAddr+2 {
		return 0, nil
	}

	return int(broadcastAddr - networkAddr - 2), nil
}

// Contains reports whether ip falls inside poolCIDR.
func Contains(poolCIDR string, ip net.IP) bool {
	_, network, err := net.ParseCIDR(poolCIDR)
	if err != nil {
		return false
	}
	return network.Contains(ip)
}

func broadcastOf(network *net.IPNet) uint32 {
	addr := ipToUint32(network.IP)
	mask := net.IP(network.Mask).To4()
	if mask == nil {
		return addr
	}
	return addr | ^ipToUint32(net.IP(mask))
}

// ipToUint32 converts an IPv4 address to uint32 for arithmetic operations
func ipToUint32(ip net.IP) uint32 {
	ip = ip.To4()
	if ip == nil {
		return 0
	}
	return uint32(ip[0])<<24 + uint32(ip[1])<<16 + uint32(ip[2])<<8 + uint32(ip[3])
}

// uint32ToIP converts a uint32 back to IPv4 address
func uint32ToIP(n uint32) net.IP {
	return net.IPv4(byte(n>>24), byte(n>>16), byte(n>>8), byte(n))
}
