package tunnel

import (
	"fmt"
	"time"
)

const (
	defaultMTU        = 1500
	defaultUDPTimeout = 60 * time.Second
	// quicBlockUDPTimeout is deliberately coarse: a near-zero UDP idle
	// timeout degrades all UDP traffic, not only HTTP/3. There is no
	// protocol filter behind the QUIC-block flag.
	quicBlockUDPTimeout = time.Millisecond
)

// Configuration describes one connect attempt. It is immutable once
// accepted by the Controller.
type Configuration struct {
	ProxyHost string
	ProxyPort int
	Username  string
	Password  string
	// AllowedApps restricts tunneling to the listed package identifiers.
	// Empty means unrestricted.
	AllowedApps []string
	BlockQUIC   bool
}

// Validate messages are user-facing, they end up in API responses.
func (c Configuration) Validate() error {
	if c.ProxyHost == "" {
		return fmt.Errorf("proxy host must not be empty")
	}
	if c.ProxyPort < 1 || c.ProxyPort > 65535 {
		return fmt.Errorf("proxy port %d out of range, must be 1-65535", c.ProxyPort)
	}
	return nil
}

func (c Configuration) relayConfig() RelayConfig {
	udpTimeout := defaultUDPTimeout
	if c.BlockQUIC {
		udpTimeout = quicBlockUDPTimeout
	}
	return RelayConfig{
		ProxyHost:      c.ProxyHost,
		ProxyPort:      c.ProxyPort,
		Username:       c.Username,
		Password:       c.Password,
		MTU:            defaultMTU,
		UDPIdleTimeout: udpTimeout,
	}
}
