package source

import (
	"errors"
	"sync"
	"time"
)

var ErrHostUnavailable = errors.New("source: host failing, skipped")

type breakerState int

const (
	stateClosed breakerState = iota
	stateOpen
	stateHalfOpen
)

type hostHealth struct {
	failures    int
	lastFailure time.Time
	state       breakerState
	probing     bool
}

// HostBreaker stops fetches to a host after repeated failures so a batch with
// many URLs on a dead host fails fast. After recoveryTime a single probe is
// let through while concurrent callers keep being rejected; the probe's
// outcome closes or reopens the circuit, and Release frees the slot when the
// probe ends without one.
type HostBreaker struct {
	mu               sync.Mutex
	hosts            map[string]*hostHealth
	failureThreshold int
	recoveryTime     time.Duration
	now              func() time.Time
}

func NewHostBreaker(failureThreshold int, recoveryTime time.Duration) *HostBreaker {
	if failureThreshold < 1 {
		failureThreshold = 1
	}
	return &HostBreaker{
		hosts:            make(map[string]*hostHealth),
		failureThreshold: failureThreshold,
		recoveryTime:     recoveryTime,
		now:              time.Now,
	}
}

func (b *HostBreaker) Allow(host string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	h, ok := b.hosts[host]
	if !ok {
		return true
	}

	switch h.state {
	case stateOpen:
		if b.now().Sub(h.lastFailure) <= b.recoveryTime {
			return false
		}
		h.state = stateHalfOpen
		h.probing = true
		return true
	case stateHalfOpen:
		if h.probing {
			return false
		}
		h.probing = true
		return true
	default:
		return true
	}
}

// Release ends an allowed call that produced no verdict, such as one
// cancelled by its caller, so the next caller may probe.
func (b *HostBreaker) Release(host string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if h, ok := b.hosts[host]; ok {
		h.probing = false
	}
}

func (b *HostBreaker) RecordSuccess(host string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if h, ok := b.hosts[host]; ok {
		h.failures = 0
		h.state = stateClosed
		h.probing = false
	}
}

func (b *HostBreaker) RecordFailure(host string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	h, ok := b.hosts[host]
	if !ok {
		h = &hostHealth{}
		b.hosts[host] = h
	}

	h.failures++
	h.lastFailure = b.now()
	h.probing = false

	if h.state == stateHalfOpen || h.failures >= b.failureThreshold {
		h.state = stateOpen
	}
}

// State returns "closed", "open" or "half_open".
func (b *HostBreaker) State(host string) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	h, ok := b.hosts[host]
	if !ok {
		return "closed"
	}
	switch h.state {
	case stateOpen:
		return "open"
	case stateHalfOpen:
		return "half_open"
	}
	return "closed"
}
