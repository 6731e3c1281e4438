//go:build !linux

package tunnel

import (
	"errors"
	"runtime"

	"github.com/socktun/socktun/routing"
)

// ErrUnsupportedPlatform is returned on operating systems without a
// virtual-interface implementation.
var ErrUnsupportedPlatform = errors.New("no virtual-interface support on " + runtime.GOOS)

type unsupportedBridge struct{}

// NewPlatformBridge returns a bridge whose operations all fail with
// ErrUnsupportedPlatform. The control API still runs; connect attempts
// end in the error state.
func NewPlatformBridge(relay RelayDriver) Bridge {
	return unsupportedBridge{}
}

func (unsupportedBridge) Establish(plan routing.Plan, conf Configuration) (Handle, error) {
	return nil, ErrUnsupportedPlatform
}

func (unsupportedBridge) StartRelay(h Handle, conf RelayConfig) error {
	return ErrUnsupportedPlatform
}

func (unsupportedBridge) StopRelay() error {
	return ErrUnsupportedPlatform
}

func (unsupportedBridge) Stats() (RelayStats, error) {
	return RelayStats{}, ErrUnsupportedPlatform
}
