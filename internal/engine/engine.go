// Package engine tracks pointer state per input device and translates raw
// motion, scroll and button events across a screen topology.
//
// The active Topology is an immutable snapshot swapped atomically on
// reload, so every event observes exactly one configuration. Each device
// has its own state and lock; events for one device must come from a single
// logical writer, while different devices may be processed concurrently.
package engine

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/1broseidon/screenhop/internal/config"
	"github.com/1broseidon/screenhop/internal/geometry"
	"github.com/1broseidon/screenhop/internal/scroll"
)

// DefaultMaxHops bounds the number of crossings one motion event may make.
const DefaultMaxHops = 16

// ErrNoTopology is returned by operations that need an active configuration.
var ErrNoTopology = fmt.Errorf("no configuration loaded")

type Options struct {
	Logger *slog.Logger
	// MaxHops bounds crossings per event (default: DefaultMaxHops).
	MaxHops int
}

// Engine is safe for concurrent use.
type Engine struct {
	log     *slog.Logger
	maxHops int

	topo   atomic.Pointer[Topology]
	scroll *scroll.Coalescer

	mu      sync.Mutex
	devices map[string]*pointerState

	suspended atomic.Bool
	stats     counters
}

func New(opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxHops := opts.MaxHops
	if maxHops <= 0 {
		maxHops = DefaultMaxHops
	}
	return &Engine{
		log:     logger,
		maxHops: maxHops,
		scroll:  scroll.NewCoalescer(config.DefaultPartialScrollTimeout),
		devices: make(map[string]*pointerState),
	}
}

// Load validates cfg and activates it. On error the previously active
// topology stays in place.
func (e *Engine) Load(cfg *config.Config) (*Topology, error) {
	if cfg == nil {
		return nil, fmt.Errorf("load: nil config")
	}
	if err := cfg.Validate(); err != nil {
		e.log.Warn("configuration rejected", "error", err)
		return nil, err
	}
	cfg = cfg.Clone()

	var generation uint64 = 1
	if prev := e.topo.Load(); prev != nil {
		generation = prev.Generation + 1
	}
	t := newTopology(cfg, generation)

	e.scroll.SetTimeout(cfg.PartialScrollTimeout)
	e.topo.Store(t)
	e.stats.reloads.Add(1)

	for _, w := range cfg.Warnings() {
		e.log.Info("configuration note", "note", w)
	}
	e.log.Info("configuration activated",
		"generation", generation,
		"screens", t.Len(),
		"mappings", t.Mappings.Len(),
		"constraint_mode", cfg.ConstraintMode.String(),
	)
	return t, nil
}

// Active returns the current topology, or nil before the first Load.
func (e *Engine) Active() *Topology {
	return e.topo.Load()
}

// ProcessEvent applies ev from device and returns the resulting events.
func (e *Engine) ProcessEvent(device string, ev RawEvent) []OutEvent {
	e.stats.events.Add(1)

	if ev.Kind == RawDisconnect {
		return e.RemoveDevice(device, ev.Time)
	}

	t := e.topo.Load()
	if t == nil || e.suspended.Load() {
		reason := "suspended"
		if t == nil {
			reason = "inactive"
		}
		return bypass(device, ev, reason)
	}

	ps := e.state(device)
	ps.mu.Lock()
	defer ps.mu.Unlock()

	out := e.reconcile(t, ps, ev.Time)
	if !ps.anchored {
		out = append(out, e.anchor(t, ps, ev.Time)...)
	}

	switch ev.Kind {
	case RawMotion:
		out = append(out, e.motion(t, ps, ev)...)
	case RawAbsolute:
		out = append(out, e.warp(t, ps, geometry.Point{X: ev.X, Y: ev.Y}, ev.Time)...)
	case RawScroll:
		out = append(out, e.scrollEvent(t, ps, ev)...)
	case RawButton:
		out = append(out, e.button(t, ps, ev)...)
	default:
		e.stats.warnings.Add(1)
		out = append(out, OutEvent{
			Kind:    OutWarning,
			Device:  device,
			Time:    ev.Time,
			Screen:  ps.screen,
			Message: fmt.Sprintf("unknown event kind %q", ev.Kind),
		})
	}
	return out
}

// Tick flushes scroll accumulators whose deadline has passed at now and
// reconciles devices left on an older topology.
func (e *Engine) Tick(now uint64) []OutEvent {
	var out []OutEvent
	if t := e.topo.Load(); t != nil {
		for _, ps := range e.snapshotDevices() {
			ps.mu.Lock()
			out = append(out, e.reconcile(t, ps, now)...)
			ps.mu.Unlock()
		}
	}
	return append(out, e.scrollEvents(e.scroll.Expire(now))...)
}

// NextDeadline reports the earliest pending scroll deadline.
func (e *Engine) NextDeadline() (uint64, bool) {
	return e.scroll.NextDeadline()
}

// RemoveDevice flushes and forgets device.
func (e *Engine) RemoveDevice(device string, now uint64) []OutEvent {
	e.mu.Lock()
	ps, ok := e.devices[device]
	delete(e.devices, device)
	e.mu.Unlock()

	flushes := e.scroll.Remove(device, now)
	if !ok {
		return nil
	}
	ps.mu.Lock()
	defer ps.mu.Unlock()
	out := make([]OutEvent, 0, len(flushes))
	for _, f := range flushes {
		out = append(out, e.scrollOut(e.topo.Load(), ps, f))
	}
	e.log.Debug("device removed", "device", device)
	return out
}

// Suspend bypasses translation until Resume. Pending scroll is flushed.
func (e *Engine) Suspend(now uint64) []OutEvent {
	if e.suspended.Swap(true) {
		return nil
	}
	e.log.Info("engine suspended")
	return e.scrollEvents(e.scroll.FlushAll(now, scroll.ReasonSuspend))
}

// Resume re-enables translation. Device positions are kept.
func (e *Engine) Resume() {
	if e.suspended.Swap(false) {
		e.log.Info("engine resumed")
	}
}

// Suspended reports whether translation is bypassed.
func (e *Engine) Suspended() bool {
	return e.suspended.Load()
}

// SwitchScreen moves device to the centre of the next screen in index
// order.
func (e *Engine) SwitchScreen(device string, now uint64) ([]OutEvent, error) {
	t := e.topo.Load()
	if t == nil {
		return nil, ErrNoTopology
	}
	ps := e.state(device)
	ps.mu.Lock()
	defer ps.mu.Unlock()

	out := e.reconcile(t, ps, now)
	if !ps.anchored {
		out = append(out, e.anchor(t, ps, now)...)
	}
	from := ps.screen
	base := ps.screen
	if base == Untracked {
		base = ps.last
	}
	next := (base + 1) % t.Len()
	out = append(out, e.jump(t, ps, next, t.Home(next), ViaSwitch, now)...)
	e.log.Debug("screen switched", "device", device, "from", from, "to", next)
	return out, nil
}

// DeviceStatus describes one tracked device.
type DeviceStatus struct {
	Device     string         `json:"device"`
	Screen     int            `json:"screen"`
	LastScreen int            `json:"last_screen"`
	Position   geometry.Point `json:"position"`
	Generation uint64         `json:"generation"`
}

// Devices returns the state of every known device, sorted by name.
func (e *Engine) Devices() []DeviceStatus {
	states := e.snapshotDevices()
	out := make([]DeviceStatus, 0, len(states))
	for _, ps := range states {
		ps.mu.Lock()
		out = append(out, DeviceStatus{
			Device:     ps.device,
			Screen:     ps.screen,
			LastScreen: ps.last,
			Position:   ps.pos,
			Generation: ps.generation,
		})
		ps.mu.Unlock()
	}
	return out
}

func (e *Engine) state(device string) *pointerState {
	e.mu.Lock()
	defer e.mu.Unlock()
	ps, ok := e.devices[device]
	if !ok {
		ps = newPointerState(device)
		e.devices[device] = ps
	}
	return ps
}

func (e *Engine) snapshotDevices() []*pointerState {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*pointerState, 0, len(e.devices))
	for _, ps := range e.devices {
		out = append(out, ps)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].device < out[j].device })
	return out
}

// scrollEvents converts flushes that were not triggered under a device
// lock.
func (e *Engine) scrollEvents(flushes []scroll.Flush) []OutEvent {
	if len(flushes) == 0 {
		return nil
	}
	t := e.topo.Load()
	out := make([]OutEvent, 0, len(flushes))
	for _, f := range flushes {
		e.mu.Lock()
		ps := e.devices[f.Device]
		e.mu.Unlock()
		if ps == nil {
			out = append(out, e.scrollOut(t, newPointerState(f.Device), f))
			continue
		}
		ps.mu.Lock()
		out = append(out, e.scrollOut(t, ps, f))
		ps.mu.Unlock()
	}
	return out
}

func bypass(device string, ev RawEvent, reason string) []OutEvent {
	out := OutEvent{
		Device: device,
		Time:   ev.Time,
		Screen: Untracked,
		Reason: reason,
	}
	switch ev.Kind {
	case RawMotion:
		out.Kind = OutMotion
		out.DX, out.DY = ev.DX, ev.DY
	case RawAbsolute:
		out.Kind = OutMotion
		out.X, out.Y = ev.X, ev.Y
	case RawScroll:
		out.Kind = OutScroll
		out.Vertical, out.Horizontal = ev.V, ev.H
	case RawButton:
		out.Kind = OutButton
		out.Button, out.Pressed = ev.Button, ev.Pressed
	default:
		return nil
	}
	return []OutEvent{out}
}
