package engine

import (
	"github.com/1broseidon/screenhop/internal/geometry"
)

// RawKind identifies an inbound event.
type RawKind string

const (
	RawMotion     RawKind = "motion"
	RawScroll     RawKind = "scroll"
	RawButton     RawKind = "button"
	RawAbsolute   RawKind = "absolute"
	RawDisconnect RawKind = "disconnect"
)

// RawEvent is one event from an input device. Time is a monotonic
// timestamp in microseconds supplied by the producer.
type RawEvent struct {
	Kind   RawKind `json:"kind"`
	Device string  `json:"device,omitempty"`
	Time   uint64  `json:"time"`

	// Motion deltas in device units.
	DX int64 `json:"dx,omitempty"`
	DY int64 `json:"dy,omitempty"`

	// Scroll deltas in hi-res units.
	V int64 `json:"v,omitempty"`
	H int64 `json:"h,omitempty"`

	Button  int  `json:"button,omitempty"`
	Pressed bool `json:"pressed,omitempty"`

	// Absolute position in global coordinates.
	X int64 `json:"x,omitempty"`
	Y int64 `json:"y,omitempty"`
}

// OutKind identifies an emitted event.
type OutKind string

const (
	OutMotion     OutKind = "motion"
	OutScroll     OutKind = "scroll"
	OutButton     OutKind = "button"
	OutTransition OutKind = "transition"
	OutConfined   OutKind = "confined"
	OutWarning    OutKind = "warning"
)

// Via explains how a transition was resolved.
type Via string

const (
	ViaTopology Via = "topology"
	ViaMapping  Via = "mapping"
	ViaAnchor   Via = "anchor"
	ViaRetrack  Via = "retrack"
	ViaExit     Via = "exit"
	ViaSwitch   Via = "switch"
	ViaWarp     Via = "warp"
	ViaReload   Via = "reload"
)

// Untracked is the screen index reported for a pointer outside every screen.
const Untracked = -1

// OutEvent is one transformed event. Positioned events carry the global
// position and the 0..LocalRange-1 coordinates within Screen.
type OutEvent struct {
	Kind   OutKind `json:"kind"`
	Device string  `json:"device"`
	Time   uint64  `json:"time"`
	Screen int     `json:"screen"`

	X      int64 `json:"x"`
	Y      int64 `json:"y"`
	LocalX int64 `json:"local_x"`
	LocalY int64 `json:"local_y"`

	// Motion delta applied on Screen, or the scaled overshoot for
	// confined events.
	DX int64 `json:"dx,omitempty"`
	DY int64 `json:"dy,omitempty"`

	Vertical   int64  `json:"v,omitempty"`
	Horizontal int64  `json:"h,omitempty"`
	Reason     string `json:"reason,omitempty"`

	Button  int  `json:"button,omitempty"`
	Pressed bool `json:"pressed,omitempty"`

	Transition *Transition `json:"transition,omitempty"`

	Message string `json:"message,omitempty"`
}

// Transition describes a change of the pointer's screen. From or To is
// Untracked when the pointer leaves or rejoins the screen set.
type Transition struct {
	From int    `json:"from"`
	To   int    `json:"to"`
	Via  Via    `json:"via"`
	Edge string `json:"edge,omitempty"`
	// Rule is the mapping index for ViaMapping, otherwise -1.
	Rule  int            `json:"rule"`
	Entry geometry.Point `json:"entry"`
}

// Position returns the event's global position.
func (e OutEvent) Position() geometry.Point {
	return geometry.Point{X: e.X, Y: e.Y}
}

// CoalesceMotion merges consecutive motion events of the same device,
// keeping each device's ordering relative to its other events. The
// merged event carries the latest timestamp.
func CoalesceMotion(events []RawEvent) []RawEvent {
	out := make([]RawEvent, 0, len(events))
	pending := make(map[string]int)
	for _, ev := range events {
		if ev.Kind != RawMotion {
			delete(pending, ev.Device)
			out = append(out, ev)
			continue
		}
		if i, ok := pending[ev.Device]; ok {
			out[i].DX = clampAbs(out[i].DX+ev.DX, MaxRawDelta)
			out[i].DY = clampAbs(out[i].DY+ev.DY, MaxRawDelta)
			out[i].Time = ev.Time
			continue
		}
		pending[ev.Device] = len(out)
		out = append(out, ev)
	}
	return out
}
