// Package orchestrator implements the idempotent connect/disconnect
// workflow on top of the tunnel session controller. It serializes
// operations through a single-flight guard and translates asynchronous
// state transitions into synchronous results for the API.
package orchestrator

import (
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/socktun/socktun/tunnel"
)

const (
	defaultConnectTimeout    = 30 * time.Second
	defaultDisconnectTimeout = 10 * time.Second
)

// ErrAwaitTimeout is returned internally when a bounded wait on the state
// feed expires before a terminal state arrives. The HTTP surface never
// sees it directly; connect maps it to a soft failure, disconnect to
// success with the last observed state.
var ErrAwaitTimeout = errors.New("timed out waiting for a tunnel state change")

// Controller is the slice of the tunnel controller the orchestrator needs.
type Controller interface {
	State() tunnel.State
	Connect(conf tunnel.Configuration)
	Disconnect()
	Subscribe() (<-chan tunnel.State, func())
}

// RemoteStore persists the remembered target across restarts.
type RemoteStore interface {
	RememberTarget(host string, port int) error
	ClearTarget() error
}

// Result is the outcome of a connect or disconnect operation.
type Result struct {
	Success bool
	Message string
}

// Status is a pure, non-blocking projection of the current state.
type Status struct {
	Connected bool
	State     string
	Host      string
	Port      int
}

type target struct {
	host string
	port int
}

// Orchestrator allows at most one connect-or-disconnect in flight;
// concurrent callers are rejected deterministically, never interleaved.
type Orchestrator struct {
	ctl   Controller
	store RemoteStore

	guard chan struct{}

	mu         sync.Mutex
	remembered *target

	connectTimeout    time.Duration
	disconnectTimeout time.Duration
}

func New(ctl Controller, store RemoteStore) *Orchestrator {
	return &Orchestrator{
		ctl:               ctl,
		store:             store,
		guard:             make(chan struct{}, 1),
		connectTimeout:    defaultConnectTimeout,
		disconnectTimeout: defaultDisconnectTimeout,
	}
}

// Connect runs one connect attempt. Connecting to the target the tunnel
// is already connected to is a successful no-op; connecting elsewhere
// while connected fails without touching the session.
func (o *Orchestrator) Connect(conf tunnel.Configuration) Result {
	if err := conf.Validate(); err != nil {
		return Result{Success: false, Message: err.Error()}
	}
	if !o.acquire() {
		return Result{Success: false, Message: "another operation is in progress"}
	}
	defer o.release()

	switch state := o.ctl.State(); state {
	case tunnel.StateConnected:
		if current := o.rememberedTarget(); current != nil {
			if current.host == conf.ProxyHost && current.port == conf.ProxyPort {
				return Result{Success: true, Message: "already connected"}
			}
			return Result{
				Success: false,
				Message: fmt.Sprintf("already connected to %s:%d, disconnect first", current.host, current.port),
			}
		}
		return Result{Success: false, Message: "already connected, disconnect first"}
	case tunnel.StateConnecting, tunnel.StateDisconnecting:
		return Result{Success: false, Message: fmt.Sprintf("tunnel is busy (%s)", state)}
	}

	feed, unsubscribe := o.ctl.Subscribe()
	defer unsubscribe()

	o.ctl.Connect(conf)

	terminal, err := await(feed, o.connectTimeout, tunnel.StateConnected, tunnel.StateError)
	if err != nil {
		log.WithError(err).WithField("host", conf.ProxyHost).Warn("connect did not reach a terminal state in time")
		return Result{Success: false, Message: fmt.Sprintf("connect timed out, last observed state: %s", o.ctl.State())}
	}
	if terminal != tunnel.StateConnected {
		return Result{Success: false, Message: "tunnel failed to connect"}
	}

	o.setRemembered(conf.ProxyHost, conf.ProxyPort)
	if err := o.store.RememberTarget(conf.ProxyHost, conf.ProxyPort); err != nil {
		log.WithError(err).Warn("failed to persist remembered target")
	}
	return Result{Success: true, Message: "connected"}
}

// Disconnect always succeeds: an already-disconnected (or errored) tunnel
// is a no-op, and a live one is torn down best-effort. The remembered
// target is cleared on every outcome.
func (o *Orchestrator) Disconnect() Result {
	if !o.acquire() {
		return Result{Success: false, Message: "another operation is in progress"}
	}
	defer o.release()

	state := o.ctl.State()
	if state == tunnel.StateDisconnected || state == tunnel.StateError {
		o.clearRemembered()
		return Result{Success: true, Message: "already disconnected"}
	}

	feed, unsubscribe := o.ctl.Subscribe()
	defer unsubscribe()

	o.ctl.Disconnect()

	terminal, err := await(feed, o.disconnectTimeout, tunnel.StateDisconnected, tunnel.StateError)
	o.clearRemembered()
	switch {
	case err != nil:
		log.WithError(err).Warn("disconnect did not reach a terminal state in time")
		return Result{Success: true, Message: fmt.Sprintf("disconnect requested, last observed state: %s", o.ctl.State())}
	case terminal == tunnel.StateError:
		return Result{Success: true, Message: "disconnected after tunnel error"}
	default:
		return Result{Success: true, Message: "disconnected"}
	}
}

// Status is side-effect free and never blocks, even while a connect or
// disconnect is pending.
func (o *Orchestrator) Status() Status {
	state := o.ctl.State()
	status := Status{
		Connected: state == tunnel.StateConnected,
		State:     state.String(),
	}
	if status.Connected {
		if t := o.rememberedTarget(); t != nil {
			status.Host = t.host
			status.Port = t.port
		}
	}
	return status
}

func (o *Orchestrator) acquire() bool {
	select {
	case o.guard <- struct{}{}:
		return true
	default:
		return false
	}
}

func (o *Orchestrator) release() {
	<-o.guard
}

func (o *Orchestrator) rememberedTarget() *target {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.remembered
}

func (o *Orchestrator) setRemembered(host string, port int) {
	o.mu.Lock()
	o.remembered = &target{host: host, port: port}
	o.mu.Unlock()
}

func (o *Orchestrator) clearRemembered() {
	o.mu.Lock()
	o.remembered = nil
	o.mu.Unlock()
	if err := o.store.ClearTarget(); err != nil {
		log.WithError(err).Warn("failed to clear persisted target")
	}
}

// await consumes the state feed until one of the wanted states arrives or
// the timeout expires. Notifications after the timeout are discarded by
// the caller's unsubscribe.
func await(feed <-chan tunnel.State, timeout time.Duration, wanted ...tunnel.State) (tunnel.State, error) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for {
		select {
		case state := <-feed:
			for _, w := range wanted {
				if state == w {
					return state, nil
				}
			}
		case <-deadline.C:
			return tunnel.StateDisconnected, ErrAwaitTimeout
		}
	}
}
