// Package tunnel owns the lifecycle of a single SOCKS5-backed tunnel
// session: the state machine around the platform's virtual interface and
// the relay engine, plus the state feed other components subscribe to.
package tunnel

import (
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"

	"github.com/socktun/socktun/routing"
)

const subscriberBuffer = 8

// Controller drives the tunnel session state machine. connect and
// disconnect run on background goroutines; callers observe progress
// through the state feed instead of blocking.
type Controller struct {
	bridge Bridge

	mu      sync.Mutex
	state   State
	handle  Handle
	attempt uint64
	subs    map[int]chan State
	nextSub int
}

func NewController(bridge Bridge) *Controller {
	return &Controller{
		bridge: bridge,
		state:  StateDisconnected,
		subs:   map[int]chan State{},
	}
}

// State returns the current connection state without blocking.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers a state feed. The returned channel receives every
// transition published after the call; slow subscribers lose updates
// rather than stalling the controller. The cancel func tears the
// subscription down, after which late notifications are discarded.
func (c *Controller) Subscribe() (<-chan State, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	ch := make(chan State, subscriberBuffer)
	c.subs[id] = ch
	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

// Connect transitions to Connecting and starts interface establishment and
// relay startup in the background. Terminal state is Connected or Error.
// Each call stamps a new attempt; a later Disconnect or Connect supersedes
// the attempt, and its goroutine releases whatever it acquired instead of
// going live.
func (c *Controller) Connect(conf Configuration) {
	c.mu.Lock()
	c.attempt++
	attempt := c.attempt
	subs := c.transitionLocked(StateConnecting)
	c.mu.Unlock()
	publish(subs, StateConnecting)
	go c.runConnect(conf, attempt)
}

func (c *Controller) runConnect(conf Configuration, attempt uint64) {
	plan := routing.PlanForProxy(conf.ProxyHost, conf.AllowedApps)
	handle, err := c.bridge.Establish(plan, conf)
	if err != nil {
		log.WithError(err).Error("failed to establish virtual interface")
		c.failAttempt(attempt)
		return
	}
	if c.superseded(attempt) {
		c.discardAttempt(handle, false)
		return
	}
	if err := c.bridge.StartRelay(handle, conf.relayConfig()); err != nil {
		log.WithError(err).Error("relay engine failed to start")
		if closeErr := handle.Close(); closeErr != nil {
			log.WithError(closeErr).Warn("failed to release interface handle after relay failure")
		}
		c.failAttempt(attempt)
		return
	}
	c.mu.Lock()
	if attempt != c.attempt {
		c.mu.Unlock()
		c.discardAttempt(handle, true)
		return
	}
	c.handle = handle
	subs := c.transitionLocked(StateConnected)
	c.mu.Unlock()
	log.WithField("proxy", conf.ProxyHost).WithField("port", conf.ProxyPort).Info("tunnel connected")
	publish(subs, StateConnected)
}

// failAttempt moves a still-current attempt to Error; superseded attempts
// leave the state alone.
func (c *Controller) failAttempt(attempt uint64) {
	c.mu.Lock()
	if attempt != c.attempt {
		c.mu.Unlock()
		return
	}
	subs := c.transitionLocked(StateError)
	c.mu.Unlock()
	publish(subs, StateError)
}

// discardAttempt releases the resources of a superseded connect attempt.
func (c *Controller) discardAttempt(handle Handle, relayStarted bool) {
	log.Warn("discarding superseded connect attempt")
	if relayStarted {
		if err := c.bridge.StopRelay(); err != nil {
			log.WithError(err).Warn("relay engine stop reported an error")
		}
	}
	if err := handle.Close(); err != nil {
		log.WithError(err).Warn("failed to release interface handle")
	}
}

func (c *Controller) superseded(attempt uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return attempt != c.attempt
}

// Disconnect transitions to Disconnecting and tears the session down in
// the background. The terminal state is always Disconnected; relay stop
// and handle release are best-effort. Any in-flight connect attempt is
// superseded.
func (c *Controller) Disconnect() {
	c.mu.Lock()
	c.attempt++
	subs := c.transitionLocked(StateDisconnecting)
	c.mu.Unlock()
	publish(subs, StateDisconnecting)
	go func() {
		c.teardown()
		c.setState(StateDisconnected)
	}()
}

// RevokePermission handles the platform withdrawing the VPN permission:
// any state drops to Disconnected immediately, bypassing Disconnecting.
func (c *Controller) RevokePermission() {
	log.Warn("VPN permission revoked, forcing disconnect")
	c.mu.Lock()
	c.attempt++
	c.mu.Unlock()
	c.teardown()
	c.setState(StateDisconnected)
}

// Stats reports the relay's counters while Connected, zero otherwise.
func (c *Controller) Stats() RelayStats {
	c.mu.Lock()
	connected := c.state == StateConnected
	c.mu.Unlock()
	if !connected {
		return RelayStats{}
	}
	stats, err := c.bridge.Stats()
	if err != nil {
		log.WithError(err).Warn("failed to read relay stats")
		return RelayStats{}
	}
	return stats
}

func (c *Controller) teardown() {
	if err := c.bridge.StopRelay(); err != nil {
		log.WithError(err).Warn("relay engine stop reported an error")
	}
	c.mu.Lock()
	handle := c.handle
	c.handle = nil
	c.mu.Unlock()
	if handle != nil {
		if err := handle.Close(); err != nil {
			log.WithError(err).Warn("failed to release interface handle")
		}
	}
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	subs := c.transitionLocked(s)
	c.mu.Unlock()
	publish(subs, s)
}

// transitionLocked records the new state and snapshots the subscriber
// channels in ascending subscription order, so fan-out is deterministic.
// Callers hold c.mu; a nil snapshot means the state did not change.
func (c *Controller) transitionLocked(s State) []chan State {
	if c.state == s {
		return nil
	}
	log.WithField("from", c.state).WithField("to", s).Debug("tunnel state transition")
	c.state = s
	ids := make([]int, 0, len(c.subs))
	for id := range c.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	subs := make([]chan State, 0, len(ids))
	for _, id := range ids {
		subs = append(subs, c.subs[id])
	}
	return subs
}

// publish delivers a transition without blocking; slow subscribers lose it.
func publish(subs []chan State, s State) {
	for _, ch := range subs {
		select {
		case ch <- s:
		default:
		}
	}
}
