package discovery

import (
	"time"
)

// Strategy identifiers, in priority order.
const (
	StrategyRoute       = "ip-route"
	StrategyAddr        = "ip-addr"
	StrategyIfconfig    = "ifconfig"
	StrategyIfconfigAll = "ifconfig-all"
)

// RouteProbeTarget is the external address the routing query asks about.
// Nothing is sent to it.
const RouteProbeTarget = "1.1.1.1"

// DefaultInterfaces are tried in order by the interface scoped queries.
var DefaultInterfaces = []string{"wlan0", "eth0"}

// Query is one shell command run on the device and how to read its output.
type Query struct {
	Strategy  string
	Interface string
	Command   []string
	Timeout   time.Duration
	Extract   ParseFunc
}

// Queries builds the ordered list of queries making up one discovery round.
func Queries(ifaces []string) []Query {
	qs := []Query{{
		Strategy: StrategyRoute,
		Command:  []string{"ip", "route", "get", RouteProbeTarget},
		Timeout:  10 * time.Second,
		Extract:  PickIPv4,
	}}

	for _, iface := range ifaces {
		qs = append(qs, Query{
			Strategy:  StrategyAddr,
			Interface: iface,
			Command:   []string{"ip", "-f", "inet", "addr", "show", iface},
			Timeout:   12 * time.Second,
			Extract:   PickIPv4,
		})
	}

	for _, iface := range ifaces {
		qs = append(qs, Query{
			Strategy:  StrategyIfconfig,
			Interface: iface,
			Command:   []string{"ifconfig", iface},
			Timeout:   12 * time.Second,
			Extract:   PickIPv4,
		})
	}

	qs = append(qs, Query{
		Strategy: StrategyIfconfigAll,
		Command:  []string{"ifconfig"},
		Timeout:  15 * time.Second,
		Extract:  blocks(ifaces),
	})

	return qs
}

// blocks reads each interface's section of a full ifconfig dump in turn.
func blocks(ifaces []string) ParseFunc {
	return func(text string) (string, bool) {
		for _, iface := range ifaces {
			block, ok := InterfaceBlock(text, iface)
			if !ok {
				continue
			}
			if addr, ok := PickIPv4(block); ok {
				return addr, true
			}
		}
		return "", false
	}
}
