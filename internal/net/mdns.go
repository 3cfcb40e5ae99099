package net

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/hashicorp/mdns"
)

// ServiceType is the DNS-SD service the bridge is announced under.
const ServiceType = "_sketchsynth._tcp"

// Advertise announces a bridge listening on port to the local network. The
// returned server must be shut down by the caller.
func Advertise(port int, session string) (*mdns.Server, error) {
	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("net: hostname: %w", err)
	}
	txt := []string{"SketchSynth", "session=" + session, "path=" + BridgePath}

	var ips []net.IP
	if ip := firstIPv4(); !ip.IsLoopback() {
		ips = []net.IP{ip}
	}
	service, err := mdns.NewMDNSService(host, ServiceType, "", "", port, ips, txt)
	if err != nil {
		return nil, fmt.Errorf("net: mdns service: %w", err)
	}
	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("net: mdns server: %w", err)
	}
	return server, nil
}

// Browse looks for bridges for up to timeout and calls found with the
// websocket URL of each one that answers.
func Browse(timeout time.Duration, found func(url string)) error {
	entries := make(chan *mdns.ServiceEntry, 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range entries {
			if e.AddrV4 == nil || e.Port == 0 {
				continue
			}
			found(BridgeURL(e.AddrV4.String(), e.Port))
		}
	}()

	params := mdns.DefaultParams(ServiceType)
	params.Entries = entries
	params.Timeout = timeout
	params.DisableIPv6 = true
	err := mdns.Query(params)
	close(entries)
	<-done
	if err != nil {
		return fmt.Errorf("net: mdns query: %w", err)
	}
	return nil
}
