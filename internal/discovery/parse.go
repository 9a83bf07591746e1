package discovery

import (
	"net/netip"
	"regexp"
	"strings"
)

// ParseFunc extracts an IPv4 address from command output.
type ParseFunc func(text string) (string, bool)

var (
	// ip route get 1.1.1.1 -> "1.1.1.1 via 192.168.1.1 dev wlan0 src 192.168.1.166 uid 0"
	routeSrcRe = regexp.MustCompile(`\bsrc\s+(\d+\.\d+\.\d+\.\d+)\b`)
	// ip -f inet addr show wlan0 -> "inet 192.168.1.166/24 brd ..."
	inetPrefixRe = regexp.MustCompile(`\binet\s+(\d+\.\d+\.\d+\.\d+)/\d+\b`)
	// old toolbox ifconfig -> "inet addr:192.168.1.166  Bcast:..."
	inetAddrRe = regexp.MustCompile(`\binet\s+addr:\s*(\d+\.\d+\.\d+\.\d+)\b`)
	// toybox ifconfig -> "inet 192.168.1.166  netmask ..."
	inetRe = regexp.MustCompile(`\binet\s+(\d+\.\d+\.\d+\.\d+)\b`)
)

func matcher(re *regexp.Regexp) ParseFunc {
	return func(text string) (string, bool) {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if usable(m[1]) {
				return m[1], true
			}
		}
		return "", false
	}
}

var (
	RouteSource = matcher(routeSrcRe)
	InetPrefix  = matcher(inetPrefixRe)
	InetAddr    = matcher(inetAddrRe)
	Inet        = matcher(inetRe)
)

// Parsers is the order PickIPv4 tries the token formats in.
var Parsers = []ParseFunc{RouteSource, InetPrefix, InetAddr, Inet}

// PickIPv4 returns the first usable address any parser finds, trying the
// parsers in priority order.
func PickIPv4(text string) (string, bool) {
	for _, parse := range Parsers {
		if addr, ok := parse(text); ok {
			return addr, true
		}
	}
	return "", false
}

// usable accepts well-formed IPv4 literals outside 127.0.0.0/8.
func usable(s string) bool {
	addr, err := netip.ParseAddr(s)
	if err != nil || !addr.Is4() {
		return false
	}
	return !addr.IsLoopback()
}

// InterfaceBlock returns the section of ifconfig output for iface: the
// header line starting with the interface name and the indented lines after
// it, up to the next unindented line.
func InterfaceBlock(text, iface string) (string, bool) {
	if text == "" || iface == "" {
		return "", false
	}

	lines := strings.SplitAfter(text, "\n")
	for i, line := range lines {
		if !isHeaderFor(line, iface) {
			continue
		}
		var b strings.Builder
		b.WriteString(line)
		for _, next := range lines[i+1:] {
			if next != "" && !isSpace(next[0]) {
				break
			}
			b.WriteString(next)
		}
		return b.String(), true
	}
	return "", false
}

func isHeaderFor(line, iface string) bool {
	if !strings.HasPrefix(line, iface) {
		return false
	}
	rest := line[len(iface):]
	return rest == "" || !isWord(rest[0])
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

func isWord(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
