package identity

import (
	"net"

	log "github.com/sirupsen/logrus"
)

// localSANs collects the names a device-resident server is reachable
// under: DNS:localhost plus every private IPv4 address currently bound to
// an interface. Loopback and link-local addresses are skipped; clients on
// the LAN never dial those.
func localSANs() sanSet {
	sans := sanSet{dnsNames: []string{"localhost"}}
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		log.WithError(err).Warn("could not list interface addresses, certificate will only carry localhost")
		return sans
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		ip := ipNet.IP.To4()
		if ip == nil || ip.IsLoopback() || ip.IsLinkLocalUnicast() {
			continue
		}
		if ip.IsPrivate() {
			sans.ips = append(sans.ips, ip)
		}
	}
	return sans
}
