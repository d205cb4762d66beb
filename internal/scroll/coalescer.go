// Package scroll batches sub-unit scroll deltas so that low-resolution
// scroll targets receive whole units, with bounded latency.
package scroll

import (
	"sort"
	"sync"
)

// DefaultUnit is the number of hi-res scroll units in one detent.
const DefaultUnit = 120

// Reason explains why an accumulator was flushed.
type Reason string

const (
	ReasonUnit     Reason = "unit"
	ReasonTimeout  Reason = "timeout"
	ReasonCrossing Reason = "crossing"
	ReasonRemoved  Reason = "removed"
	ReasonReload   Reason = "reload"
	ReasonSuspend  Reason = "suspend"
)

// Flush is one coalesced scroll emission.
type Flush struct {
	Device     string
	Screen     int
	Vertical   int64
	Horizontal int64
	Reason     Reason
	// Time is the timestamp (µs) the flush was triggered at.
	Time uint64
}

type key struct {
	device string
	screen int
}

// accumulator holds unflushed deltas for one (device, screen) pair.
type accumulator struct {
	vertical   int64
	horizontal int64
	deadline   uint64
	pending    bool
}

// Coalescer owns every accumulator. Timestamps are microseconds on the
// caller's monotonic clock.
type Coalescer struct {
	mu      sync.Mutex
	timeout uint64
	acc     map[key]*accumulator
}

// NewCoalescer returns a coalescer that flushes partial deltas timeout µs
// after the first unflushed delta. A zero timeout disables coalescing.
func NewCoalescer(timeout uint64) *Coalescer {
	return &Coalescer{
		timeout: timeout,
		acc:     make(map[key]*accumulator),
	}
}

// SetTimeout changes the timeout for accumulators started afterwards.
// Pending deadlines are kept.
func (c *Coalescer) SetTimeout(timeout uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timeout = timeout
}

// FlushAll empties every accumulator.
func (c *Coalescer) FlushAll(now uint64, reason Reason) []Flush {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []Flush
	for _, k := range c.sortedKeys() {
		if a := c.acc[k]; a.pending {
			out = appendFlush(out, k, a, reason, now)
		}
	}
	return out
}

// Add accumulates a delta for device on screen. unit is the screen's full
// scroll unit; values below 2 pass deltas straight through.
func (c *Coalescer) Add(device string, screen int, now uint64, vertical, horizontal, unit int64) []Flush {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := key{device: device, screen: screen}
	var out []Flush

	a := c.acc[k]
	if a == nil {
		a = &accumulator{}
		c.acc[k] = a
	}
	if a.pending && now >= a.deadline {
		out = appendFlush(out, k, a, ReasonTimeout, now)
	}

	if !a.pending {
		a.pending = true
		a.deadline = now + c.timeout
	}
	a.vertical += vertical
	a.horizontal += horizontal

	if c.timeout == 0 || unit < 2 || abs(a.vertical) >= unit || abs(a.horizontal) >= unit {
		out = appendFlush(out, k, a, ReasonUnit, now)
	}
	return out
}

// Expire flushes every accumulator whose deadline has passed.
func (c *Coalescer) Expire(now uint64) []Flush {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []Flush
	for _, k := range c.sortedKeys() {
		a := c.acc[k]
		if a.pending && now >= a.deadline {
			out = appendFlush(out, k, a, ReasonTimeout, now)
		}
	}
	return out
}

// FlushDevice empties every accumulator belonging to device.
func (c *Coalescer) FlushDevice(device string, now uint64, reason Reason) []Flush {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []Flush
	for _, k := range c.sortedKeys() {
		if k.device != device {
			continue
		}
		if a := c.acc[k]; a.pending {
			out = appendFlush(out, k, a, reason, now)
		}
	}
	return out
}

// Remove flushes and forgets every accumulator of device.
func (c *Coalescer) Remove(device string, now uint64) []Flush {
	out := c.FlushDevice(device, now, ReasonRemoved)

	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.acc {
		if k.device == device {
			delete(c.acc, k)
		}
	}
	return out
}

// NextDeadline returns the earliest pending deadline.
func (c *Coalescer) NextDeadline() (uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var next uint64
	found := false
	for _, a := range c.acc {
		if !a.pending {
			continue
		}
		if !found || a.deadline < next {
			next = a.deadline
			found = true
		}
	}
	return next, found
}

// Pending reports whether device has unflushed scroll on screen.
func (c *Coalescer) Pending(device string, screen int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	a := c.acc[key{device: device, screen: screen}]
	return a != nil && a.pending
}

// sortedKeys gives flush order a stable device/screen ordering.
func (c *Coalescer) sortedKeys() []key {
	keys := make([]key, 0, len(c.acc))
	for k := range c.acc {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].device != keys[j].device {
			return keys[i].device < keys[j].device
		}
		return keys[i].screen < keys[j].screen
	})
	return keys
}

// appendFlush emits a's contents (when non-zero) and resets it.
func appendFlush(out []Flush, k key, a *accumulator, reason Reason, now uint64) []Flush {
	if a.vertical != 0 || a.horizontal != 0 {
		out = append(out, Flush{
			Device:     k.device,
			Screen:     k.screen,
			Vertical:   a.vertical,
			Horizontal: a.horizontal,
			Reason:     reason,
			Time:       now,
		})
	}
	*a = accumulator{}
	return out
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
