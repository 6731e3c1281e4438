package main

import (
	"errors"
	"io"

	"github.com/socktun/socktun/tunnel"
)

// newRelayDriver returns the relay engine binding for this build. The
// relay engine is a pre-built platform component; the open daemon ships
// without one, so platform builds replace this constructor with their
// engine's driver.
var newRelayDriver = func() tunnel.RelayDriver {
	return unconfiguredRelay{}
}

var errNoRelayEngine = errors.New("no relay engine is linked into this build")

type unconfiguredRelay struct{}

func (unconfiguredRelay) Start(tun io.ReadWriteCloser, conf tunnel.RelayConfig) error {
	return errNoRelayEngine
}

func (unconfiguredRelay) Stop() error {
	return nil
}

func (unconfiguredRelay) Stats() (tunnel.RelayStats, error) {
	return tunnel.RelayStats{}, errNoRelayEngine
}
