// Package net exposes the analysed sketch to synth clients on the local
// network: a websocket bridge announced over mDNS.
package net

import (
	"fmt"
	"net"

	"sketchsynth/internal/state"
)

// BridgePath is the HTTP path the bridge is served on.
const BridgePath = "/ws"

// BridgeURL returns the websocket URL of a bridge at host:port.
func BridgeURL(host string, port int) string {
	return fmt.Sprintf("ws://%s%s", net.JoinHostPort(host, fmt.Sprint(port)), BridgePath)
}

// OutgoingIP finds the address other machines on the LAN reach this host at.
// No packet is sent; dialing UDP only selects a route.
func OutgoingIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return firstIPv4().String()
	}
	defer conn.Close()
	if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok {
		return addr.IP.String()
	}
	return firstIPv4().String()
}

// firstIPv4 returns the first IPv4 address of an interface that is up and
// not loopback, or 127.0.0.1 on networks without one.
func firstIPv4() net.IP {
	ifaces, err := net.Interfaces()
	if err != nil {
		return net.IPv4(127, 0, 0, 1)
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, _ := iface.Addrs()
		for _, a := range addrs {
			if ipnet, ok := a.(*net.IPNet); ok && ipnet.IP.To4() != nil {
				return ipnet.IP.To4()
			}
		}
	}
	state.Logger().Warn("no LAN address found, bridge reachable on loopback only")
	return net.IPv4(127, 0, 0, 1)
}
