package engine

import (
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/screenhop/internal/config"
	"github.com/1broseidon/screenhop/internal/geometry"
)

func testConfig(screens ...config.Screen) *config.Config {
	cfg := config.DefaultConfig()
	for i := range screens {
		if screens[i].Sensitivity == 0 {
			screens[i].Sensitivity = config.BaseSensitivity
		}
		if screens[i].ScrollUnit == 0 {
			screens[i].ScrollUnit = config.DefaultScrollUnit
		}
	}
	cfg.Screens = screens
	return cfg
}

func newEngine(t *testing.T, cfg *config.Config) *Engine {
	t.Helper()
	e := New(Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	_, err := e.Load(cfg)
	require.NoError(t, err)
	return e
}

// place warps dev to p and discards the setup events.
func place(t *testing.T, e *Engine, dev string, x, y int64) {
	t.Helper()
	e.ProcessEvent(dev, RawEvent{Kind: RawAbsolute, X: x, Y: y})
	st := device(t, e, dev)
	require.Equal(t, geometry.Point{X: x, Y: y}, st.Position)
}

func device(t *testing.T, e *Engine, dev string) DeviceStatus {
	t.Helper()
	for _, d := range e.Devices() {
		if d.Device == dev {
			return d
		}
	}
	t.Fatalf("device %q not found", dev)
	return DeviceStatus{}
}

func kinds(events []OutEvent) []OutKind {
	out := make([]OutKind, len(events))
	for i, ev := range events {
		out[i] = ev.Kind
	}
	return out
}

func sideBySide() *config.Config {
	return testConfig(
		config.Screen{X: 0, Y: 0, W: 14400000, H: 9000000, Sensitivity: 8000},
		config.Screen{X: 14400000, Y: 0, W: 13500000, H: 9000000, Sensitivity: 8000},
	)
}

func TestSideBySideCrossingKeepsY(t *testing.T) {
	e := newEngine(t, sideBySide())
	place(t, e, "mouse", 14399999, 4500000)

	out := e.ProcessEvent("mouse", RawEvent{Kind: RawMotion, DX: 10, Time: 5})
	require.Equal(t, []OutKind{OutTransition, OutMotion}, kinds(out))

	tr := out[0].Transition
	require.NotNil(t, tr)
	assert.Equal(t, 0, tr.From)
	assert.Equal(t, 1, tr.To)
	assert.Equal(t, ViaTopology, tr.Via)
	assert.Equal(t, "right", tr.Edge)
	assert.Equal(t, -1, tr.Rule)
	assert.Equal(t, geometry.Point{X: 14400000, Y: 4500000}, tr.Entry)

	assert.Equal(t, 1, out[1].Screen)
	assert.Equal(t, int64(14400079), out[1].X)
	assert.Equal(t, int64(4500000), out[1].Y)
	assert.Equal(t, int64(79), out[1].DX)
	assert.Equal(t, uint64(5), out[1].Time)
}

func TestStackedCrossingScalesRemainder(t *testing.T) {
	e := newEngine(t, testConfig(
		config.Screen{X: 0, Y: 0, W: 16000000, H: 9000000, Sensitivity: 4000},
		config.Screen{X: 0, Y: 9000000, W: 16000000, H: 9000000, Sensitivity: 4000},
	))
	place(t, e, "mouse", 8000000, 8999990)

	out := e.ProcessEvent("mouse", RawEvent{Kind: RawMotion, DY: 20})
	require.Equal(t, []OutKind{OutTransition, OutMotion}, kinds(out))
	assert.Equal(t, "bottom", out[0].Transition.Edge)
	assert.Equal(t, geometry.Point{X: 8000000, Y: 9000000}, out[0].Transition.Entry)
	assert.Equal(t, geometry.Point{X: 8000000, Y: 9000070}, out[1].Position())
	assert.Equal(t, 1, device(t, e, "mouse").Screen)
}

func TestCrossingRescalesByNewSensitivity(t *testing.T) {
	e := newEngine(t, testConfig(
		config.Screen{X: 0, Y: 0, W: 1000, H: 100, Sensitivity: 1000},
		config.Screen{X: 1000, Y: 0, W: 1000, H: 100, Sensitivity: 2000},
	))
	place(t, e, "mouse", 990, 50)

	out := e.ProcessEvent("mouse", RawEvent{Kind: RawMotion, DX: 20})
	require.Equal(t, []OutKind{OutTransition, OutMotion}, kinds(out))
	assert.Equal(t, int64(1020), out[1].X)
	assert.Equal(t, int64(20), out[1].DX)
}

func TestLargeDeltaDoesNotSkipThinScreen(t *testing.T) {
	e := newEngine(t, testConfig(
		config.Screen{X: 0, Y: 0, W: 1000, H: 100},
		config.Screen{X: 1000, Y: 0, W: 10, H: 100},
		config.Screen{X: 1010, Y: 0, W: 1000, H: 100},
	))
	place(t, e, "mouse", 990, 50)

	out := e.ProcessEvent("mouse", RawEvent{Kind: RawMotion, DX: 100})
	require.Equal(t, []OutKind{OutTransition, OutTransition, OutMotion}, kinds(out))
	assert.Equal(t, 1, out[0].Transition.To)
	assert.Equal(t, 2, out[1].Transition.To)
	assert.Equal(t, geometry.Point{X: 1010, Y: 50}, out[1].Transition.Entry)
	assert.Equal(t, int64(1090), out[2].X)
}

func TestDiagonalCrossingInterpolates(t *testing.T) {
	e := newEngine(t, testConfig(
		config.Screen{X: 0, Y: 0, W: 1000, H: 1000},
		config.Screen{X: 1000, Y: 0, W: 1000, H: 1000},
	))
	place(t, e, "mouse", 990, 100)

	// Leaves after 10 of 40 units in x, so y has moved 10/40 * 30 = 7.5 -> 8.
	out := e.ProcessEvent("mouse", RawEvent{Kind: RawMotion, DX: 40, DY: 30})
	require.Equal(t, []OutKind{OutTransition, OutMotion}, kinds(out))
	assert.Equal(t, geometry.Point{X: 1000, Y: 108}, out[0].Transition.Entry)
	assert.Equal(t, geometry.Point{X: 1030, Y: 130}, out[1].Position())
}

func TestMappedCrossingReanchorsAtEntryForAnyVelocity(t *testing.T) {
	cfg := testConfig(
		config.Screen{X: 0, Y: 0, W: 1000, H: 1000},
		config.Screen{X: 5000, Y: 5000, W: 800, H: 400},
	)
	cfg.Mappings = []config.Mapping{{FromScreen: 0, FromEdge: geometry.Right, ToScreen: 1, EntryOffset: 100}}

	for _, dx := range []int64{11, 600, 1000, 5000, 100000} {
		e := newEngine(t, cfg)
		place(t, e, "mouse", 990, 50)

		out := e.ProcessEvent("mouse", RawEvent{Kind: RawMotion, DX: dx})
		require.NotEmpty(t, out)
		tr := out[0].Transition
		require.NotNil(t, tr, "dx=%d", dx)
		assert.Equal(t, ViaMapping, tr.Via)
		assert.Equal(t, 0, tr.Rule)
		assert.Equal(t, 1, tr.To)
		assert.Equal(t, geometry.Point{X: 5000, Y: 5150}, tr.Entry, "dx=%d", dx)
		assert.True(t, cfg.Screens[1].Rect().Contains(tr.Entry))
		assert.Equal(t, uint64(1), e.Stats().Mapped)
	}
}

func TestMappingOverridesAdjacency(t *testing.T) {
	cfg := testConfig(
		config.Screen{X: 0, Y: 0, W: 1000, H: 1000},
		config.Screen{X: 1000, Y: 0, W: 1000, H: 1000},
		config.Screen{X: -5000, Y: 0, W: 1000, H: 1000},
	)
	cfg.Mappings = []config.Mapping{{FromScreen: 0, FromEdge: geometry.Right, ToScreen: 2}}
	e := newEngine(t, cfg)
	place(t, e, "mouse", 999, 10)

	out := e.ProcessEvent("mouse", RawEvent{Kind: RawMotion, DX: 1})
	require.Equal(t, []OutKind{OutTransition, OutMotion}, kinds(out))
	assert.Equal(t, 2, out[0].Transition.To)
	assert.Equal(t, geometry.Point{X: -5000, Y: 10}, out[0].Transition.Entry)
}

func TestScalingDriftStaysBounded(t *testing.T) {
	e := newEngine(t, testConfig(config.Screen{X: 0, Y: 0, W: 1000000, H: 1000000, Sensitivity: 1500}))
	place(t, e, "mouse", 500000, 500000)

	var sum int64
	for i := 0; i < 101; i++ {
		out := e.ProcessEvent("mouse", RawEvent{Kind: RawMotion, DX: 1})
		require.Len(t, out, 1)
		assert.InDelta(t, 1.5, float64(out[0].DX), 1)
		sum += out[0].DX
	}
	// 101 * 1.5 = 151.5
	assert.InDelta(t, 151.5, float64(sum), 0.5)
	assert.Equal(t, int64(500000)+sum, device(t, e, "mouse").Position.X)
}

func TestScalingIsSymmetric(t *testing.T) {
	e := newEngine(t, testConfig(config.Screen{X: 0, Y: 0, W: 1000000, H: 1000000, Sensitivity: 2500}))
	place(t, e, "mouse", 500000, 500000)

	for i := 0; i < 7; i++ {
		e.ProcessEvent("mouse", RawEvent{Kind: RawMotion, DX: 3, DY: -3})
	}
	for i := 0; i < 7; i++ {
		e.ProcessEvent("mouse", RawEvent{Kind: RawMotion, DX: -3, DY: 3})
	}
	assert.Equal(t, geometry.Point{X: 500000, Y: 500000}, device(t, e, "mouse").Position)
}

func TestFreeExitUntracksAndRetracks(t *testing.T) {
	cfg := testConfig(config.Screen{X: 0, Y: 0, W: 1000, H: 1000})
	cfg.UnmappedPassthrough = false
	e := newEngine(t, cfg)
	place(t, e, "mouse", 990, 500)

	out := e.ProcessEvent("mouse", RawEvent{Kind: RawMotion, DX: 20})
	require.Equal(t, []OutKind{OutTransition, OutWarning}, kinds(out))
	assert.Equal(t, Untracked, out[0].Transition.To)
	assert.Equal(t, ViaExit, out[0].Transition.Via)
	assert.Equal(t, geometry.Point{X: 1000, Y: 500}, out[0].Transition.Entry)
	assert.Equal(t, Untracked, device(t, e, "mouse").Screen)

	// The exit warning already covers motion; other kinds warn once each.
	out = e.ProcessEvent("mouse", RawEvent{Kind: RawMotion, DX: 5})
	assert.Empty(t, out)
	out = e.ProcessEvent("mouse", RawEvent{Kind: RawScroll, V: 120})
	require.Equal(t, []OutKind{OutWarning}, kinds(out))
	assert.Contains(t, out[0].Message, "scroll events dropped")
	assert.Equal(t, 0, out[0].Screen)
	out = e.ProcessEvent("mouse", RawEvent{Kind: RawButton, Button: 1, Pressed: true})
	require.Equal(t, []OutKind{OutWarning}, kinds(out))
	assert.Contains(t, out[0].Message, "button events dropped")
	out = e.ProcessEvent("mouse", RawEvent{Kind: RawScroll, V: 120})
	assert.Empty(t, out)

	out = e.ProcessEvent("mouse", RawEvent{Kind: RawMotion, DX: -30})
	require.Equal(t, []OutKind{OutTransition, OutMotion}, kinds(out))
	assert.Equal(t, Untracked, out[0].Transition.From)
	assert.Equal(t, 0, out[0].Transition.To)
	assert.Equal(t, ViaRetrack, out[0].Transition.Via)
	assert.Equal(t, geometry.Point{X: 985, Y: 500}, out[1].Position())

	st := e.Stats()
	assert.Equal(t, uint64(5), st.Dropped)
	assert.Equal(t, uint64(3), st.Warnings)
	assert.Equal(t, uint64(1), st.Exits)
	assert.Equal(t, uint64(1), st.Retracks)

	// A new untracked episode warns again.
	e.ProcessEvent("mouse", RawEvent{Kind: RawMotion, DX: 30})
	out = e.ProcessEvent("mouse", RawEvent{Kind: RawScroll, V: 120})
	require.Equal(t, []OutKind{OutWarning}, kinds(out))
}

func TestUntrackedPassthroughKeepsRawDelta(t *testing.T) {
	e := newEngine(t, testConfig(config.Screen{X: 0, Y: 0, W: 1000, H: 1000, Sensitivity: 2000}))
	place(t, e, "mouse", 990, 500)

	out := e.ProcessEvent("mouse", RawEvent{Kind: RawMotion, DX: 10})
	require.Equal(t, []OutKind{OutTransition, OutMotion}, kinds(out))
	assert.Equal(t, Untracked, device(t, e, "mouse").Screen)

	out = e.ProcessEvent("mouse", RawEvent{Kind: RawMotion, DX: 7, DY: -3})
	require.Equal(t, []OutKind{OutMotion}, kinds(out))
	assert.Equal(t, int64(7), out[0].DX)
	assert.Equal(t, int64(-3), out[0].DY)
	assert.Equal(t, 0, out[0].Screen)
	// The virtual position still moves by the scaled delta.
	assert.Equal(t, geometry.Point{X: 1024, Y: 494}, device(t, e, "mouse").Position)
}

func TestFreeExitWithPassthroughKeepsScreenContext(t *testing.T) {
	e := newEngine(t, testConfig(config.Screen{X: 0, Y: 0, W: 1000, H: 1000}))
	place(t, e, "mouse", 990, 500)

	out := e.ProcessEvent("mouse", RawEvent{Kind: RawMotion, DX: 20})
	require.Equal(t, []OutKind{OutTransition, OutMotion}, kinds(out))
	assert.Equal(t, 0, out[1].Screen)
	assert.Equal(t, int64(1010), out[1].X)

	out = e.ProcessEvent("mouse", RawEvent{Kind: RawButton, Button: 2})
	require.Equal(t, []OutKind{OutButton}, kinds(out))
	assert.Equal(t, 0, out[0].Screen)
}

func TestCornerExitPrefersVerticalEdge(t *testing.T) {
	e := newEngine(t, testConfig(config.Screen{X: 0, Y: 0, W: 1000, H: 1000}))
	place(t, e, "mouse", 999, 999)

	out := e.ProcessEvent("mouse", RawEvent{Kind: RawMotion, DX: 1, DY: 1})
	require.NotEmpty(t, out)
	assert.Equal(t, "right", out[0].Transition.Edge)
}

// constraint_mode 1 is interpreted as confinement without offscreen
// feedback.
func TestConfineModeIsConfinementWithoutFeedback(t *testing.T) {
	cfg := testConfig(config.Screen{X: 0, Y: 0, W: 1000, H: 1000})
	cfg.ConstraintMode = config.ConstraintConfine
	e := newEngine(t, cfg)
	place(t, e, "mouse", 990, 500)

	out := e.ProcessEvent("mouse", RawEvent{Kind: RawMotion, DX: 20, DY: 10})
	require.Equal(t, []OutKind{OutMotion}, kinds(out))
	assert.Equal(t, geometry.Point{X: 999, Y: 510}, out[0].Position())
	assert.Equal(t, int64(9), out[0].DX)
	assert.Equal(t, int64(10), out[0].DY)

	out = e.ProcessEvent("mouse", RawEvent{Kind: RawMotion, DX: 20})
	assert.Empty(t, out)
	assert.Equal(t, 0, device(t, e, "mouse").Screen)
	assert.Equal(t, uint64(2), e.Stats().Confined)
}

func TestClampModeReportsScaledOvershoot(t *testing.T) {
	cfg := testConfig(config.Screen{X: 0, Y: 0, W: 1000, H: 1000})
	cfg.ConstraintMode = config.ConstraintClamp
	cfg.OffscreenSensitivity = 500
	e := newEngine(t, cfg)
	place(t, e, "mouse", 990, 500)

	out := e.ProcessEvent("mouse", RawEvent{Kind: RawMotion, DX: 20})
	require.Equal(t, []OutKind{OutMotion, OutConfined}, kinds(out))
	assert.Equal(t, int64(999), out[0].X)
	// overshoot 11 * 500/1000 = 5.5 rounds to even.
	assert.Equal(t, int64(6), out[1].DX)
	assert.Equal(t, "right", out[1].Reason)
	assert.Equal(t, geometry.Point{X: 999, Y: 500}, out[1].Position())
}

func TestClampModeNeverReportsOffscreenPositions(t *testing.T) {
	cfg := testConfig(
		config.Screen{X: 0, Y: 0, W: 1000, H: 800, Sensitivity: 1000},
		config.Screen{X: 1000, Y: 200, W: 500, H: 500, Sensitivity: 2000},
		config.Screen{X: -300, Y: 800, W: 600, H: 300, Sensitivity: 700},
	)
	cfg.ConstraintMode = config.ConstraintClamp
	cfg.Mappings = []config.Mapping{{FromScreen: 1, FromEdge: geometry.Bottom, ToScreen: 2, EntryOffset: 50}}
	e := newEngine(t, cfg)

	inside := func(p geometry.Point) bool {
		for _, s := range cfg.Screens {
			if s.Rect().Contains(p) {
				return true
			}
		}
		return false
	}

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 5000; i++ {
		ev := RawEvent{Kind: RawMotion, DX: rng.Int63n(3001) - 1500, DY: rng.Int63n(3001) - 1500, Time: uint64(i)}
		if i%97 == 0 {
			ev = RawEvent{Kind: RawAbsolute, X: rng.Int63n(6000) - 3000, Y: rng.Int63n(6000) - 3000, Time: uint64(i)}
		}
		for _, out := range e.ProcessEvent("mouse", ev) {
			switch out.Kind {
			case OutMotion, OutTransition, OutConfined:
				require.True(t, inside(out.Position()), "event %d: %+v", i, out)
			}
		}
	}
}

func TestReloadKeepsConfinedPointerOnScreen(t *testing.T) {
	cfg := testConfig(config.Screen{X: 0, Y: 0, W: 1000, H: 1000})
	cfg.ConstraintMode = config.ConstraintClamp
	e := newEngine(t, cfg)
	place(t, e, "mouse", 900, 500)

	moved := testConfig(config.Screen{X: 2000, Y: 0, W: 1000, H: 1000})
	moved.ConstraintMode = config.ConstraintClamp
	_, err := e.Load(moved)
	require.NoError(t, err)

	out := e.Tick(1)
	require.Equal(t, []OutKind{OutMotion}, kinds(out))
	assert.Equal(t, geometry.Point{X: 2000, Y: 500}, out[0].Position())
	assert.Equal(t, int64(1100), out[0].DX)
	st := device(t, e, "mouse")
	assert.Equal(t, 0, st.Screen)
	assert.Equal(t, geometry.Point{X: 2000, Y: 500}, st.Position)
}

func TestReloadSendsConfinedPointerHomeWhenScreenRemoved(t *testing.T) {
	cfg := sideBySide()
	cfg.ConstraintMode = config.ConstraintConfine
	e := newEngine(t, cfg)
	place(t, e, "mouse", 20000000, 100)

	next := testConfig(config.Screen{X: 0, Y: 0, W: 1000, H: 1000})
	next.ConstraintMode = config.ConstraintConfine
	_, err := e.Load(next)
	require.NoError(t, err)

	out := e.Tick(1)
	require.Equal(t, []OutKind{OutTransition, OutMotion}, kinds(out))
	tr := out[0].Transition
	assert.Equal(t, 1, tr.From)
	assert.Equal(t, 0, tr.To)
	assert.Equal(t, ViaReload, tr.Via)
	for _, ev := range out {
		assert.True(t, next.Screens[0].Rect().Contains(ev.Position()), "%+v", ev)
	}
	assert.Equal(t, geometry.Point{X: 500, Y: 500}, device(t, e, "mouse").Position)
}

func TestScrollCoalescesPerUnitAndTimeout(t *testing.T) {
	cfg := testConfig(config.Screen{X: 0, Y: 0, W: 1000, H: 1000})
	cfg.PartialScrollTimeout = 1000
	e := newEngine(t, cfg)
	place(t, e, "mouse", 10, 10)

	assert.Empty(t, e.ProcessEvent("mouse", RawEvent{Kind: RawScroll, V: 40, Time: 0}))
	assert.Empty(t, e.ProcessEvent("mouse", RawEvent{Kind: RawScroll, V: 40, Time: 10}))
	out := e.ProcessEvent("mouse", RawEvent{Kind: RawScroll, V: 40, Time: 20})
	require.Equal(t, []OutKind{OutScroll}, kinds(out))
	assert.Equal(t, int64(120), out[0].Vertical)
	assert.Equal(t, "unit", out[0].Reason)

	assert.Empty(t, e.ProcessEvent("mouse", RawEvent{Kind: RawScroll, H: -30, Time: 100}))
	assert.Empty(t, e.Tick(1099))
	deadline, ok := e.NextDeadline()
	require.True(t, ok)
	assert.Equal(t, uint64(1100), deadline)

	out = e.Tick(1100)
	require.Equal(t, []OutKind{OutScroll}, kinds(out))
	assert.Equal(t, int64(-30), out[0].Horizontal)
	assert.Equal(t, "timeout", out[0].Reason)
	assert.Equal(t, uint64(1100), out[0].Time)
}

func TestCrossingFlushesScrollFirst(t *testing.T) {
	e := newEngine(t, sideBySide())
	place(t, e, "mouse", 14399999, 4500000)

	assert.Empty(t, e.ProcessEvent("mouse", RawEvent{Kind: RawScroll, V: 40}))
	out := e.ProcessEvent("mouse", RawEvent{Kind: RawMotion, DX: 10})
	require.Equal(t, []OutKind{OutScroll, OutTransition, OutMotion}, kinds(out))
	assert.Equal(t, 0, out[0].Screen)
	assert.Equal(t, int64(40), out[0].Vertical)
	assert.Equal(t, "crossing", out[0].Reason)

	_, ok := e.NextDeadline()
	assert.False(t, ok)
}

func TestFirstEventAnchorsAtHome(t *testing.T) {
	e := newEngine(t, sideBySide())

	out := e.ProcessEvent("mouse", RawEvent{Kind: RawMotion, DX: 1})
	require.Equal(t, []OutKind{OutTransition, OutMotion}, kinds(out))
	assert.Equal(t, ViaAnchor, out[0].Transition.Via)
	assert.Equal(t, Untracked, out[0].Transition.From)
	assert.Equal(t, geometry.Point{X: 7200000, Y: 4500000}, out[0].Transition.Entry)
	assert.Equal(t, int64(7200008), out[1].X)
	assert.Equal(t, int64(geometry.LocalRange/2), out[0].LocalX)
}

func TestReloadRejectsBadConfigAndKeepsActive(t *testing.T) {
	e := newEngine(t, sideBySide())
	before := e.Active()

	bad := sideBySide()
	bad.Screens = nil
	_, err := e.Load(bad)
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrNoScreens))
	assert.Same(t, before, e.Active())

	bad = sideBySide()
	bad.Version = 99
	_, err = e.Load(bad)
	assert.True(t, errors.Is(err, config.ErrUnsupportedVersion))
	assert.Same(t, before, e.Active())
}

func TestReloadReconcilesDevices(t *testing.T) {
	e := newEngine(t, sideBySide())
	place(t, e, "a", 100, 100)
	place(t, e, "b", 20000000, 100)
	assert.Empty(t, e.ProcessEvent("a", RawEvent{Kind: RawScroll, V: 10}))

	next := testConfig(config.Screen{X: 0, Y: 0, W: 14400000, H: 9000000, Sensitivity: 8000})
	topo, err := e.Load(next)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), topo.Generation)

	out := e.Tick(0)
	require.Equal(t, []OutKind{OutScroll, OutTransition}, kinds(out))
	assert.Equal(t, "a", out[0].Device)
	assert.Equal(t, "reload", out[0].Reason)
	assert.Equal(t, "b", out[1].Device)
	assert.Equal(t, ViaReload, out[1].Transition.Via)
	assert.Equal(t, Untracked, out[1].Transition.To)

	assert.Equal(t, 0, device(t, e, "a").Screen)
	assert.Equal(t, Untracked, device(t, e, "b").Screen)
	assert.Empty(t, e.Tick(1))
}

func TestSuspendBypassesTranslation(t *testing.T) {
	e := newEngine(t, sideBySide())
	place(t, e, "mouse", 100, 100)

	e.Suspend(0)
	out := e.ProcessEvent("mouse", RawEvent{Kind: RawMotion, DX: 7})
	require.Len(t, out, 1)
	assert.Equal(t, int64(7), out[0].DX)
	assert.Equal(t, "suspended", out[0].Reason)
	assert.Equal(t, Untracked, out[0].Screen)
	assert.Equal(t, geometry.Point{X: 100, Y: 100}, device(t, e, "mouse").Position)

	e.Resume()
	out = e.ProcessEvent("mouse", RawEvent{Kind: RawMotion, DX: 1})
	require.Len(t, out, 1)
	assert.Equal(t, int64(108), out[0].X)
}

func TestProcessEventBeforeLoadPassesThrough(t *testing.T) {
	e := New(Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	out := e.ProcessEvent("mouse", RawEvent{Kind: RawScroll, V: 3})
	require.Len(t, out, 1)
	assert.Equal(t, "inactive", out[0].Reason)
	assert.Nil(t, e.Active())

	_, err := e.SwitchScreen("mouse", 0)
	assert.ErrorIs(t, err, ErrNoTopology)
}

func TestSwitchScreenCyclesHomes(t *testing.T) {
	e := newEngine(t, sideBySide())
	place(t, e, "mouse", 100, 100)

	out, err := e.SwitchScreen("mouse", 0)
	require.NoError(t, err)
	require.Equal(t, []OutKind{OutTransition, OutMotion}, kinds(out))
	assert.Equal(t, ViaSwitch, out[0].Transition.Via)
	assert.Equal(t, geometry.Point{X: 21150000, Y: 4500000}, device(t, e, "mouse").Position)

	_, err = e.SwitchScreen("mouse", 1)
	require.NoError(t, err)
	assert.Equal(t, 0, device(t, e, "mouse").Screen)
}

func TestDisconnectFlushesAndForgets(t *testing.T) {
	e := newEngine(t, sideBySide())
	place(t, e, "mouse", 100, 100)
	e.ProcessEvent("mouse", RawEvent{Kind: RawScroll, V: 50})

	out := e.ProcessEvent("mouse", RawEvent{Kind: RawDisconnect, Time: 9})
	require.Equal(t, []OutKind{OutScroll}, kinds(out))
	assert.Equal(t, "removed", out[0].Reason)
	assert.Empty(t, e.Devices())
}

func TestLocalCoordinates(t *testing.T) {
	e := newEngine(t, testConfig(config.Screen{X: 0, Y: 0, W: 1000, H: 1000}))
	place(t, e, "mouse", 400, 250)

	out := e.ProcessEvent("mouse", RawEvent{Kind: RawMotion, DX: 100})
	require.Len(t, out, 1)
	assert.Equal(t, int64(16384), out[0].LocalX)
	assert.Equal(t, int64(8192), out[0].LocalY)
}

func TestCoalesceMotion(t *testing.T) {
	in := []RawEvent{
		{Kind: RawMotion, Device: "a", DX: 1, Time: 1},
		{Kind: RawMotion, Device: "b", DY: 2, Time: 2},
		{Kind: RawMotion, Device: "a", DX: 3, DY: 1, Time: 3},
		{Kind: RawButton, Device: "a", Button: 1, Time: 4},
		{Kind: RawMotion, Device: "a", DX: 5, Time: 5},
		{Kind: RawMotion, Device: "b", DY: 4, Time: 6},
	}
	out := CoalesceMotion(in)
	require.Len(t, out, 4)
	assert.Equal(t, RawEvent{Kind: RawMotion, Device: "a", DX: 4, DY: 1, Time: 3}, out[0])
	assert.Equal(t, RawEvent{Kind: RawMotion, Device: "b", DY: 6, Time: 6}, out[1])
	assert.Equal(t, RawButton, out[2].Kind)
	assert.Equal(t, RawEvent{Kind: RawMotion, Device: "a", DX: 5, Time: 5}, out[3])
}

func TestArithmetic(t *testing.T) {
	for _, tc := range []struct{ n, want int64 }{
		{2500, 2}, {3500, 4}, {-2500, -2}, {-1500, -2}, {1499, 1}, {-1499, -1},
	} {
		assert.Equal(t, tc.want, divRoundEven(tc.n, 1000), "n=%d", tc.n)
	}

	assert.Equal(t, int64(4), mulDiv(7, 1, 2))
	assert.Equal(t, int64(2), mulDiv(5, 1, 2))
	assert.Equal(t, int64(-2), mulDiv(-5, 1, 2))
	assert.Equal(t, int64(4), mulDiv(3, 3, 2))
	assert.Equal(t, int64(1)<<39, mulDiv(1<<40, 1<<40, 1<<41))
	assert.Equal(t, maxTravel, mulDiv(1<<62, 1<<62, 3))
}

func TestResolveEdge(t *testing.T) {
	e := newEngine(t, sideBySide())
	topo := e.Active()

	c, ok := topo.ResolveEdge(0, geometry.Right, 4500000)
	require.True(t, ok)
	assert.Equal(t, Crossing{To: 1, Entry: geometry.Point{X: 14400000, Y: 4500000}, Via: ViaTopology, Rule: -1}, c)

	_, ok = topo.ResolveEdge(0, geometry.Left, 4500000)
	assert.False(t, ok)
	_, ok = topo.ResolveEdge(5, geometry.Right, 0)
	assert.False(t, ok)
	_, ok = topo.ResolveEdge(0, geometry.Inside, 0)
	assert.False(t, ok)
}

func TestSimulate(t *testing.T) {
	events := []RawEvent{
		{Kind: RawAbsolute, X: 14399999, Y: 4500000, Time: 1},
		{Kind: RawMotion, DX: 10, Time: 5},
		{Kind: RawScroll, V: 60, Time: 6},
	}
	out, st, err := Simulate(sideBySide(), "mouse", events, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	assert.Equal(t, 1, st.Screen)
	assert.Equal(t, geometry.Point{X: 14400079, Y: 4500000}, st.Position)

	last := out[len(out)-1]
	assert.Equal(t, OutScroll, last.Kind)
	assert.Equal(t, "timeout", last.Reason)
	assert.Equal(t, int64(60), last.Vertical)

	_, _, err = Simulate(testConfig(), "mouse", events, nil)
	assert.ErrorIs(t, err, config.ErrNoScreens)
}
