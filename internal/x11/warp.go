package x11

import (
	"fmt"
	"math"
	"sync"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/screenhop/internal/engine"
)

// WarpSink moves the X pointer to the position of the last positioned
// event in each batch. It implements the daemon's sink interface.
type WarpSink struct {
	mu            sync.Mutex
	conn          *Connection
	unitsPerPixel int64
	last          [2]int16
	warped        bool
}

func NewWarpSink(conn *Connection, unitsPerPixel int64) *WarpSink {
	if unitsPerPixel <= 0 {
		unitsPerPixel = DefaultUnitsPerPixel
	}
	return &WarpSink{conn: conn, unitsPerPixel: unitsPerPixel}
}

func (s *WarpSink) Emit(events []engine.OutEvent) error {
	x, y, ok := warpTarget(events, s.unitsPerPixel)
	if !ok {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.warped && s.last == [2]int16{x, y} {
		return nil
	}
	err := xproto.WarpPointerChecked(s.conn.XUtil.Conn(), 0, s.conn.Root, 0, 0, 0, 0, x, y).Check()
	if err != nil {
		return fmt.Errorf("failed to warp pointer: %w", err)
	}
	s.last, s.warped = [2]int16{x, y}, true
	return nil
}

// QueryPointer returns the pointer position on the root window in pixels.
func (c *Connection) QueryPointer() (int, int, error) {
	reply, err := xproto.QueryPointer(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to query pointer: %w", err)
	}
	return int(reply.RootX), int(reply.RootY), nil
}

// PointerEvent returns an absolute event placing a device where the X
// pointer currently is.
func (c *Connection) PointerEvent(unitsPerPixel int64) (engine.RawEvent, error) {
	x, y, err := c.QueryPointer()
	if err != nil {
		return engine.RawEvent{}, err
	}
	return pointerEvent(x, y, unitsPerPixel), nil
}

func pointerEvent(x, y int, unitsPerPixel int64) engine.RawEvent {
	if unitsPerPixel <= 0 {
		unitsPerPixel = DefaultUnitsPerPixel
	}
	// Aim at the middle of the pixel so warpTarget maps it back to the same one.
	half := unitsPerPixel / 2
	return engine.RawEvent{
		Kind: engine.RawAbsolute,
		X:    int64(x)*unitsPerPixel + half,
		Y:    int64(y)*unitsPerPixel + half,
	}
}

// warpTarget picks the pixel position of the last event in events that
// places the pointer on a screen.
func warpTarget(events []engine.OutEvent, unitsPerPixel int64) (int16, int16, bool) {
	for i := len(events) - 1; i >= 0; i-- {
		ev := events[i]
		if ev.Screen == engine.Untracked {
			continue
		}
		switch ev.Kind {
		case engine.OutMotion, engine.OutTransition:
			return toPixel(ev.X, unitsPerPixel), toPixel(ev.Y, unitsPerPixel), true
		}
	}
	return 0, 0, false
}

func toPixel(v, unitsPerPixel int64) int16 {
	p := v / unitsPerPixel
	if v < 0 && v%unitsPerPixel != 0 {
		p--
	}
	switch {
	case p > math.MaxInt16:
		return math.MaxInt16
	case p < math.MinInt16:
		return math.MinInt16
	}
	return int16(p)
}
