package engine

import (
	"fmt"

	"github.com/1broseidon/screenhop/internal/config"
	"github.com/1broseidon/screenhop/internal/geometry"
	"github.com/1broseidon/screenhop/internal/scroll"
)

// unresolved applies the constraint mode to a crossing that reaches no
// screen. end is the attempted end point of the current segment, which
// started at segStart on the pointer's current screen.
func (e *Engine) unresolved(t *Topology, ps *pointerState, edge geometry.Edge, cross, end, segStart geometry.Point, now uint64) []OutEvent {
	switch t.Config.ConstraintMode {
	case config.ConstraintConfine, config.ConstraintClamp:
		return e.confine(t, ps, edge, end, segStart, now)
	default:
		return e.exit(t, ps, edge, cross, end, segStart, now)
	}
}

// confine pins the pointer inside its current screen. Motion parallel to
// the blocked edge is kept, so the pointer slides instead of snagging.
// In clamp mode the blocked overshoot is reported, scaled by
// offscreen_sensitivity relative to the screen's own sensitivity.
func (e *Engine) confine(t *Topology, ps *pointerState, edge geometry.Edge, end, segStart geometry.Point, now uint64) []OutEvent {
	rect := t.Rect(ps.screen)
	pinned := rect.Clamp(end)
	overshoot := sub(end, pinned)
	ps.pos = pinned
	e.stats.confined.Add(1)

	var out []OutEvent
	if pinned != segStart {
		out = append(out, e.motionOut(t, ps, sub(pinned, segStart), now))
	}
	if t.Config.ConstraintMode != config.ConstraintClamp {
		return out
	}

	sens := int64(t.sensitivity(ps.screen))
	offscreen := int64(t.Config.OffscreenSensitivity)
	fb := e.positioned(t, ps, OutConfined, ps.screen, now)
	fb.DX = mulDiv(overshoot.X, offscreen, sens)
	fb.DY = mulDiv(overshoot.Y, offscreen, sens)
	fb.Reason = edge.String()
	return append(out, fb)
}

// exit releases the pointer from every screen (free mode). With
// unmapped_passthrough the motion is still emitted against the screen it
// left; otherwise it is dropped and a warning is surfaced.
func (e *Engine) exit(t *Topology, ps *pointerState, edge geometry.Edge, cross, end, segStart geometry.Point, now uint64) []OutEvent {
	var out []OutEvent
	for _, f := range e.scroll.FlushDevice(ps.device, now, scroll.ReasonCrossing) {
		out = append(out, e.scrollOut(t, ps, f))
	}

	from := ps.screen
	ps.last = from
	ps.screen = Untracked
	ps.pos = cross
	ps.clearCarry()
	e.stats.transitions.Add(1)
	e.stats.exits.Add(1)
	out = append(out, e.transitionOut(t, ps, from, edge, ViaExit, -1, now))

	ps.pos = geometry.Point{X: clampAbs(end.X, virtualLimit), Y: clampAbs(end.Y, virtualLimit)}
	if !t.Config.UnmappedPassthrough {
		e.stats.dropped.Add(1)
		ps.dropWarned |= dropBit(RawMotion)
		return append(out, e.warning(t, ps, now, fmt.Sprintf("unresolved crossing: screen %d %s edge at %d", from, edge, along(edge, cross))))
	}
	return append(out, e.motionOut(t, ps, sub(ps.pos, segStart), now))
}
