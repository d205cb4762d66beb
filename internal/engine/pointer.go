package engine

import (
	"fmt"
	"sync"

	"github.com/1broseidon/screenhop/internal/config"
	"github.com/1broseidon/screenhop/internal/geometry"
	"github.com/1broseidon/screenhop/internal/scroll"
)

// virtualLimit bounds the position of an untracked pointer.
const virtualLimit = int64(1) << 50

// pointerState is the per-device state machine: Tracked(screen) when
// screen >= 0, Untracked otherwise.
type pointerState struct {
	mu sync.Mutex

	device   string
	screen   int
	last     int // last occupied screen; context for untracked events
	anchored bool
	pos      geometry.Point
	carryX   int64
	carryY   int64
	// dropWarned has one bit per event kind already reported as dropped
	// during the current untracked episode.
	dropWarned uint8

	generation uint64
}

func newPointerState(device string) *pointerState {
	return &pointerState{device: device, screen: Untracked}
}

func (ps *pointerState) clearCarry() {
	ps.carryX, ps.carryY = 0, 0
}

// track makes screen the pointer's current screen.
func (ps *pointerState) track(screen int) {
	ps.screen, ps.last = screen, screen
	ps.dropWarned = 0
}

// context returns the screen an event is reported against.
func (ps *pointerState) context() int {
	if ps.screen != Untracked {
		return ps.screen
	}
	return ps.last
}

// anchor places a new pointer at the centre of screen 0.
func (e *Engine) anchor(t *Topology, ps *pointerState, now uint64) []OutEvent {
	ps.anchored = true
	ps.generation = t.Generation
	ps.track(0)
	ps.pos = t.Home(0)
	ps.clearCarry()
	e.stats.transitions.Add(1)
	return []OutEvent{e.transitionOut(t, ps, Untracked, geometry.None, ViaAnchor, -1, now)}
}

// reconcile moves a device onto the active topology after a reload. The
// pointer keeps its screen only while its position is still inside it.
// Otherwise it becomes Untracked in Free mode, and is pinned into its last
// screen (or sent home to screen 0 when that screen is gone) in the
// confining modes.
func (e *Engine) reconcile(t *Topology, ps *pointerState, now uint64) []OutEvent {
	if !ps.anchored || ps.generation == t.Generation {
		return nil
	}
	ps.generation = t.Generation
	ps.clearCarry()

	from := ps.screen
	inside := from != Untracked && from < t.Len() && t.Rect(from).Contains(ps.pos)
	confined := t.Config.ConstraintMode != config.ConstraintFree
	prev := ps.pos

	switch {
	case inside:
	case confined && ps.last < t.Len():
		ps.pos = t.Rect(ps.last).Clamp(ps.pos)
		ps.track(ps.last)
	case confined:
		ps.track(0)
		ps.pos = t.Home(0)
	default:
		ps.screen = Untracked
	}
	if ps.last >= t.Len() {
		ps.last = 0
	}

	var out []OutEvent
	for _, f := range e.scroll.FlushDevice(ps.device, now, scroll.ReasonReload) {
		out = append(out, e.scrollOut(t, ps, f))
	}

	if ps.screen != from {
		e.stats.transitions.Add(1)
		e.log.Debug("pointer moved by reload", "device", ps.device, "from", from, "to", ps.screen)
		out = append(out, e.transitionOut(t, ps, from, geometry.None, ViaReload, -1, now))
	}
	if ps.screen != Untracked && ps.pos != prev {
		out = append(out, e.motionOut(t, ps, sub(ps.pos, prev), now))
	}
	return out
}

func (e *Engine) motion(t *Topology, ps *pointerState, ev RawEvent) []OutEvent {
	e.stats.motions.Add(1)
	if ps.screen == Untracked {
		return e.untrackedMotion(t, ps, ev)
	}
	sens := t.sensitivity(ps.screen)
	d := geometry.Point{
		X: scale(ev.DX, sens, &ps.carryX),
		Y: scale(ev.DY, sens, &ps.carryY),
	}
	return e.travel(t, ps, d, ev.Time)
}

// travel moves a tracked pointer by the scaled delta d, handing off across
// as many edges as the trajectory crosses.
func (e *Engine) travel(t *Topology, ps *pointerState, d geometry.Point, now uint64) []OutEvent {
	var out []OutEvent
	segStart := ps.pos
	crossed := false

	for hop := 0; ; hop++ {
		rect := t.Rect(ps.screen)
		end := add(ps.pos, d)
		if rect.Contains(end) {
			ps.pos = end
			break
		}
		if hop >= e.maxHops {
			ps.pos = rect.Clamp(end)
			e.log.Debug("crossing limit reached", "device", ps.device, "screen", ps.screen)
			break
		}

		edge, cross := exitPoint(rect, ps.pos, d)
		c, ok := resolveCrossing(t, ps.screen, edge, cross)
		if !ok {
			return append(out, e.unresolved(t, ps, edge, cross, end, segStart, now)...)
		}

		from := ps.screen
		rem := rescale(sub(end, cross), t.sensitivity(from), t.sensitivity(c.To))
		for _, f := range e.scroll.FlushDevice(ps.device, now, scroll.ReasonCrossing) {
			out = append(out, e.scrollOut(t, ps, f))
		}

		ps.screen, ps.last = c.To, c.To
		ps.pos = c.Entry
		ps.clearCarry()
		segStart = c.Entry
		crossed = true
		d = rem

		e.stats.transitions.Add(1)
		if c.Via == ViaMapping {
			e.stats.mapped.Add(1)
		}
		out = append(out, e.transitionOut(t, ps, from, edge, c.Via, c.Rule, now))
	}

	if crossed || ps.pos != segStart {
		out = append(out, e.motionOut(t, ps, sub(ps.pos, segStart), now))
	}
	return out
}

// untrackedMotion moves the virtual position of a pointer outside every
// screen, re-tracking it once it lands inside one.
func (e *Engine) untrackedMotion(t *Topology, ps *pointerState, ev RawEvent) []OutEvent {
	sens := t.sensitivity(ps.last)
	d := geometry.Point{
		X: scale(ev.DX, sens, &ps.carryX),
		Y: scale(ev.DY, sens, &ps.carryY),
	}
	end := add(ps.pos, d)
	end.X = clampAbs(end.X, virtualLimit)
	end.Y = clampAbs(end.Y, virtualLimit)

	if idx, ok := t.Resolver.ScreenAt(end); ok {
		return e.retrack(t, ps, idx, end, d, ViaRetrack, ev.Time)
	}
	if t.Config.ConstraintMode != config.ConstraintFree {
		pinned := t.Rect(ps.last).Clamp(end)
		return e.retrack(t, ps, ps.last, pinned, sub(pinned, ps.pos), ViaRetrack, ev.Time)
	}

	ps.pos = end
	if !t.Config.UnmappedPassthrough {
		return e.drop(t, ps, ev)
	}
	// Passthrough reports the device's own delta; the scaled one only
	// moves the virtual position.
	return []OutEvent{e.motionOut(t, ps, geometry.Point{X: ev.DX, Y: ev.DY}, ev.Time)}
}

func (e *Engine) retrack(t *Topology, ps *pointerState, screen int, pos, d geometry.Point, via Via, now uint64) []OutEvent {
	var out []OutEvent
	for _, f := range e.scroll.FlushDevice(ps.device, now, scroll.ReasonCrossing) {
		out = append(out, e.scrollOut(t, ps, f))
	}
	ps.track(screen)
	ps.pos = pos
	ps.clearCarry()
	e.stats.transitions.Add(1)
	e.stats.retracks.Add(1)
	out = append(out, e.transitionOut(t, ps, Untracked, geometry.None, via, -1, now))
	return append(out, e.motionOut(t, ps, d, now))
}

// jump moves a pointer straight to pos on screen, as for a warp or a
// screen switch.
func (e *Engine) jump(t *Topology, ps *pointerState, screen int, pos geometry.Point, via Via, now uint64) []OutEvent {
	var out []OutEvent
	from := ps.screen
	d := sub(pos, ps.pos)
	if from != screen {
		for _, f := range e.scroll.FlushDevice(ps.device, now, scroll.ReasonCrossing) {
			out = append(out, e.scrollOut(t, ps, f))
		}
	}
	ps.track(screen)
	ps.pos = pos
	ps.clearCarry()
	if from != screen {
		e.stats.transitions.Add(1)
		out = append(out, e.transitionOut(t, ps, from, geometry.None, via, -1, now))
	}
	return append(out, e.motionOut(t, ps, d, now))
}

// warp places the pointer at an absolute global position.
func (e *Engine) warp(t *Topology, ps *pointerState, p geometry.Point, now uint64) []OutEvent {
	e.stats.motions.Add(1)
	if idx, ok := t.Resolver.ScreenAt(p); ok {
		return e.jump(t, ps, idx, p, ViaWarp, now)
	}
	if t.Config.ConstraintMode != config.ConstraintFree {
		target := ps.context()
		return e.jump(t, ps, target, t.Rect(target).Clamp(p), ViaWarp, now)
	}

	var out []OutEvent
	from := ps.screen
	d := sub(p, ps.pos)
	if from != Untracked {
		for _, f := range e.scroll.FlushDevice(ps.device, now, scroll.ReasonCrossing) {
			out = append(out, e.scrollOut(t, ps, f))
		}
		ps.last = from
		ps.screen = Untracked
		e.stats.transitions.Add(1)
		e.stats.exits.Add(1)
	}
	ps.pos = geometry.Point{X: clampAbs(p.X, virtualLimit), Y: clampAbs(p.Y, virtualLimit)}
	ps.clearCarry()
	if from != Untracked {
		out = append(out, e.transitionOut(t, ps, from, geometry.None, ViaWarp, -1, now))
	}
	if !t.Config.UnmappedPassthrough {
		e.stats.dropped.Add(1)
		return append(out, e.warning(t, ps, now, fmt.Sprintf("absolute position %d,%d is outside every screen", p.X, p.Y)))
	}
	return append(out, e.motionOut(t, ps, d, now))
}

func (e *Engine) scrollEvent(t *Topology, ps *pointerState, ev RawEvent) []OutEvent {
	if ps.screen == Untracked && !t.Config.UnmappedPassthrough {
		return e.drop(t, ps, ev)
	}
	screen := ps.context()
	flushes := e.scroll.Add(ps.device, screen, ev.Time, ev.V, ev.H, t.scrollUnit(screen))
	out := make([]OutEvent, 0, len(flushes))
	for _, f := range flushes {
		out = append(out, e.scrollOut(t, ps, f))
	}
	return out
}

func (e *Engine) button(t *Topology, ps *pointerState, ev RawEvent) []OutEvent {
	if ps.screen == Untracked && !t.Config.UnmappedPassthrough {
		return e.drop(t, ps, ev)
	}
	out := e.positioned(t, ps, OutButton, ps.context(), ev.Time)
	out.Button, out.Pressed = ev.Button, ev.Pressed
	return []OutEvent{out}
}

// drop discards an event from an untracked pointer. The first drop of each
// event kind per untracked episode surfaces a warning.
func (e *Engine) drop(t *Topology, ps *pointerState, ev RawEvent) []OutEvent {
	e.stats.dropped.Add(1)
	bit := dropBit(ev.Kind)
	if ps.dropWarned&bit != 0 {
		e.log.Debug("event dropped", "device", ps.device, "kind", ev.Kind)
		return nil
	}
	ps.dropWarned |= bit
	return []OutEvent{e.warning(t, ps, ev.Time, fmt.Sprintf("%s events dropped: pointer is outside every screen", ev.Kind))}
}

func dropBit(k RawKind) uint8 {
	switch k {
	case RawMotion:
		return 1
	case RawScroll:
		return 2
	case RawButton:
		return 4
	default:
		return 8
	}
}

// positioned builds an event at the pointer's position within screen.
func (e *Engine) positioned(t *Topology, ps *pointerState, kind OutKind, screen int, now uint64) OutEvent {
	out := OutEvent{
		Kind:   kind,
		Device: ps.device,
		Time:   now,
		Screen: screen,
		X:      ps.pos.X,
		Y:      ps.pos.Y,
	}
	if t != nil && screen >= 0 && screen < t.Len() {
		local := t.Rect(screen).Local(ps.pos)
		out.LocalX, out.LocalY = local.X, local.Y
	}
	return out
}

func (e *Engine) motionOut(t *Topology, ps *pointerState, d geometry.Point, now uint64) OutEvent {
	out := e.positioned(t, ps, OutMotion, ps.context(), now)
	out.DX, out.DY = d.X, d.Y
	return out
}

func (e *Engine) transitionOut(t *Topology, ps *pointerState, from int, edge geometry.Edge, via Via, rule int, now uint64) OutEvent {
	out := e.positioned(t, ps, OutTransition, ps.screen, now)
	tr := &Transition{
		From:  from,
		To:    ps.screen,
		Via:   via,
		Rule:  rule,
		Entry: ps.pos,
	}
	if edge.Side() {
		tr.Edge = edge.String()
	}
	out.Transition = tr
	return out
}

func (e *Engine) scrollOut(t *Topology, ps *pointerState, f scroll.Flush) OutEvent {
	e.stats.scrollFlushes.Add(1)
	out := e.positioned(t, ps, OutScroll, f.Screen, f.Time)
	out.Vertical, out.Horizontal = f.Vertical, f.Horizontal
	out.Reason = string(f.Reason)
	return out
}

func (e *Engine) warning(t *Topology, ps *pointerState, now uint64, msg string) OutEvent {
	e.stats.warnings.Add(1)
	e.log.Warn("runtime warning", "device", ps.device, "message", msg)
	out := e.positioned(t, ps, OutWarning, ps.context(), now)
	out.Message = msg
	return out
}
