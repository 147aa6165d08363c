package util

import (
	"fmt"
	"net"
	"strings"
)

// CIDRNetmask returns the dotted-quad netmask of an IPv4 CIDR ("10.1.1.0/24" -> "255.255.255.0").
func CIDRNetmask(cidr string) (string, error) {
	_, ipnet, err := net.ParseCIDR(cidr)
	if err != nil {
		return "", fmt.Errorf("invalid CIDR %q: %w", cidr, err)
	}
	if len(ipnet.Mask) != net.IPv4len {
		return "", fmt.Errorf("CIDR %q is not IPv4", cidr)
	}
	return net.IP(ipnet.Mask).String(), nil
}

// CIDRPrefixLen returns the prefix length of a CIDR.
func CIDRPrefixLen(cidr string) (int, error) {
	_, ipnet, err := net.ParseCIDR(cidr)
	if err != nil {
		return 0, fmt.Errorf("invalid CIDR %q: %w", cidr, err)
	}
	ones, _ := ipnet.Mask.Size()
	return ones, nil
}

// IsValidIPv4 checks if a string is a valid IPv4 address
func IsValidIPv4(ipStr string) bool {
	ip := net.ParseIP(ipStr)
	return ip != nil && ip.To4() != nil
}

// URIScheme returns the scheme of a broadcast URI such as "vlan://100" or
// "pvlan://100-i200". Returns "" when the URI has no scheme.
func URIScheme(uri string) string {
	i := strings.Index(uri, "://")
	if i <= 0 {
		return ""
	}
	return strings.ToLower(uri[:i])
}

// URIValue returns the part of a broadcast URI after the scheme separator.
// A bare value without scheme is returned unchanged.
func URIValue(uri string) string {
	if i := strings.Index(uri, "://"); i >= 0 {
		return uri[i+3:]
	}
	return uri
}
