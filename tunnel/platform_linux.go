//go:build linux

package tunnel

import (
	"bytes"
	"fmt"
	"io"
	"os/exec"

	log "github.com/sirupsen/logrus"
	"github.com/songgao/water"

	"github.com/socktun/socktun/routing"
)

// tunLocalAddr is the point-to-point address assigned to the TUN device.
// It sits inside the benchmarking range together with the fake-IP DNS.
const tunLocalAddr = "198.18.0.1/30"

type tunBridge struct {
	relay RelayDriver
}

// NewPlatformBridge returns the Linux bridge: a water-backed TUN device
// with the route plan installed, delegating packet movement to the
// supplied relay driver. Application filtering is enforced by the relay
// driver; the TUN device itself cannot tell applications apart.
func NewPlatformBridge(relay RelayDriver) Bridge {
	return &tunBridge{relay: relay}
}

type tunHandle struct {
	ifce *water.Interface
}

func (h *tunHandle) Close() error {
	// routes die with the device, no separate cleanup needed
	return h.ifce.Close()
}

func (b *tunBridge) Establish(plan routing.Plan, conf Configuration) (Handle, error) {
	ifce, err := water.New(water.Config{
		DeviceType: water.TUN,
	})
	if err != nil {
		return nil, fmt.Errorf("Establish: failed creating TUN device: %w", err)
	}

	name := ifce.Name()
	cmds := [][]string{
		{"ip", "addr", "add", tunLocalAddr, "dev", name},
		{"ip", "link", "set", "dev", name, "mtu", fmt.Sprintf("%d", defaultMTU)},
		{"ip", "link", "set", "dev", name, "up"},
	}
	for _, p := range plan.Prefixes {
		cmds = append(cmds, []string{"ip", "route", "add", p.String(), "dev", name})
	}
	for _, args := range cmds {
		if err := runCmd(exec.Command(args[0], args[1:]...)); err != nil {
			closeErr := ifce.Close()
			if closeErr != nil {
				log.WithError(closeErr).Warn("failed to close TUN device after setup error")
			}
			return nil, fmt.Errorf("Establish: failed to configure interface %s: %w", name, err)
		}
	}
	log.WithField("interface", name).
		WithField("routes", len(plan.Prefixes)).
		WithField("dns", plan.DNS).
		Info("virtual interface established")
	return &tunHandle{ifce: ifce}, nil
}

func (b *tunBridge) StartRelay(h Handle, conf RelayConfig) error {
	th, ok := h.(*tunHandle)
	if !ok {
		return fmt.Errorf("StartRelay: handle was not established by this bridge")
	}
	var tun io.ReadWriteCloser = th.ifce
	if err := b.relay.Start(tun, conf); err != nil {
		return fmt.Errorf("StartRelay: relay engine rejected start: %w", err)
	}
	return nil
}

func (b *tunBridge) StopRelay() error {
	return b.relay.Stop()
}

func (b *tunBridge) Stats() (RelayStats, error) {
	return b.relay.Stats()
}

func runCmd(cmd *exec.Cmd) error {
	buf := new(bytes.Buffer)
	cmd.Stderr = buf
	err := cmd.Run()
	if err != nil {
		return fmt.Errorf("runCmd: failed to execute command (stderr: %s): %w", buf.String(), err)
	}
	return nil
}
