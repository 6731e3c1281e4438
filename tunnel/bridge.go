package tunnel

import (
	"io"
	"time"

	"github.com/socktun/socktun/routing"
)

// Handle represents the platform's virtual network interface resource.
// Closing it tears the interface down.
type Handle interface {
	io.Closer
}

// RelayConfig is what the relay engine needs to start moving packets
// between the virtual interface and the SOCKS5 proxy.
type RelayConfig struct {
	ProxyHost      string
	ProxyPort      int
	Username       string
	Password       string
	MTU            int
	UDPIdleTimeout time.Duration
}

// RelayStats is the relay engine's traffic counters.
type RelayStats struct {
	UploadBytes       uint64 `json:"uploadBytes"`
	DownloadBytes     uint64 `json:"downloadBytes"`
	ActiveConnections int    `json:"activeConnections"`
}

// RelayDriver is the binding to the pre-built relay engine that moves IP
// packets between the virtual interface and the SOCKS5 proxy. The engine
// itself ships outside this module; embedders supply their platform's
// driver.
type RelayDriver interface {
	Start(tun io.ReadWriteCloser, conf RelayConfig) error
	Stop() error
	Stats() (RelayStats, error)
}

// Bridge is the typed seam to the platform: interface establishment and
// the pre-built relay engine. One explicit method per operation replaces
// the string-keyed dispatch such control planes tend to grow.
type Bridge interface {
	// Establish acquires a virtual-interface handle with the given route
	// plan installed.
	Establish(plan routing.Plan, conf Configuration) (Handle, error)
	// StartRelay attaches the relay engine to the handle.
	StartRelay(h Handle, conf RelayConfig) error
	// StopRelay detaches the relay engine, best-effort.
	StopRelay() error
	// Stats reports the relay's traffic counters.
	Stats() (RelayStats, error)
}
