// Package presence tracks the device's connection state and announces this
// viewer's own liveness over retained broker topics.
package presence

import (
	"sync"
	"time"
)

// ConnState is the device connection state shown on the dashboard.
type ConnState string

const (
	StateConnecting   ConnState = "connecting"
	StateConnected    ConnState = "connected"
	StateDisconnected ConnState = "disconnected"
)

// DefaultDemoteAfter is how long a disconnected device stays "disconnected"
// before the dashboard falls back to "connecting".
const DefaultDemoteAfter = 5 * time.Second

// Tracker derives ConnState from the device's online/offline status tokens.
// An offline token moves the state to disconnected and arms a single demotion
// timer; if no online token arrives before it fires, the state becomes
// connecting again. At most one demotion timer is pending at a time.
type Tracker struct {
	mu          sync.Mutex
	state       ConnState
	demoteAfter time.Duration
	demote      *time.Timer
}

// NewTracker returns a tracker in the connecting state. A demoteAfter of zero
// or less falls back to DefaultDemoteAfter.
func NewTracker(demoteAfter time.Duration) *Tracker {
	if demoteAfter <= 0 {
		demoteAfter = DefaultDemoteAfter
	}
	return &Tracker{state: StateConnecting, demoteAfter: demoteAfter}
}

// Online records a device online token, cancelling any pending demotion.
func (t *Tracker) Online() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelDemoteLocked()
	t.state = StateConnected
}

// Offline records a device offline token and (re)arms the demotion timer.
func (t *Tracker) Offline() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = StateDisconnected
	t.cancelDemoteLocked()
	t.demote = time.AfterFunc(t.demoteAfter, t.demoteNow)
}

// Reset puts the tracker back into the connecting state, as on a fresh
// subscription, and cancels any pending demotion.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelDemoteLocked()
	t.state = StateConnecting
}

// State returns the current connection state.
func (t *Tracker) State() ConnState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Stop cancels any pending demotion timer. The tracker stays usable.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelDemoteLocked()
}

func (t *Tracker) demoteNow() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == StateDisconnected {
		t.state = StateConnecting
	}
	t.demote = nil
}

func (t *Tracker) cancelDemoteLocked() {
	if t.demote != nil {
		t.demote.Stop()
		t.demote = nil
	}
}
