package x11

import (
	"testing"

	"github.com/1broseidon/screenhop/internal/config"
	"github.com/1broseidon/screenhop/internal/engine"
)

func TestScreensFromMonitors(t *testing.T) {
	monitors := []Monitor{
		{ID: 0, Name: "HDMI-1", X: 1920, Y: 0, Width: 1280, Height: 1024},
		{ID: 1, Name: "eDP-1", X: 0, Y: 0, Width: 1920, Height: 1080},
		{ID: 2, Name: "DP-1", X: 0, Y: 1080, Width: 1920, Height: 1080},
		{ID: 3, Name: "DP-2", X: 0, Y: 1080, Width: 1920, Height: 1080},
	}

	got := ScreensFromMonitors(monitors, 100, 0)
	want := []config.Screen{
		{X: 0, Y: 0, W: 192000, H: 108000, Sensitivity: config.BaseSensitivity, ScrollUnit: config.DefaultScrollUnit},
		{X: 192000, Y: 0, W: 128000, H: 102400, Sensitivity: config.BaseSensitivity, ScrollUnit: config.DefaultScrollUnit},
		{X: 0, Y: 108000, W: 192000, H: 108000, Sensitivity: config.BaseSensitivity, ScrollUnit: config.DefaultScrollUnit},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d screens, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("screen %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	cfg := config.DefaultConfig()
	cfg.Screens = got
	if err := cfg.Validate(); err != nil {
		t.Fatalf("detected screens do not validate: %v", err)
	}
}

func TestScreensFromMonitors_Defaults(t *testing.T) {
	got := ScreensFromMonitors([]Monitor{{Width: 10, Height: 20}}, 0, 4000)
	if len(got) != 1 || got[0].W != 10*DefaultUnitsPerPixel || got[0].Sensitivity != 4000 {
		t.Fatalf("unexpected screens %+v", got)
	}
}

func TestWarpTarget(t *testing.T) {
	tests := []struct {
		name   string
		events []engine.OutEvent
		wantX  int16
		wantY  int16
		wantOK bool
	}{
		{"empty", nil, 0, 0, false},
		{
			name: "last positioned event wins",
			events: []engine.OutEvent{
				{Kind: engine.OutMotion, Screen: 0, X: 1000, Y: 2000},
				{Kind: engine.OutTransition, Screen: 1, X: 192000, Y: 54000},
				{Kind: engine.OutButton, Screen: 1, X: 1, Y: 1},
			},
			wantX: 1920, wantY: 540, wantOK: true,
		},
		{
			name: "untracked motion ignored",
			events: []engine.OutEvent{
				{Kind: engine.OutMotion, Screen: engine.Untracked, X: -500, Y: 0},
			},
		},
		{
			name:   "negative coordinates floor",
			events: []engine.OutEvent{{Kind: engine.OutMotion, Screen: 0, X: -150, Y: 99}},
			wantX:  -2, wantY: 0, wantOK: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y, ok := warpTarget(tt.events, 100)
			if x != tt.wantX || y != tt.wantY || ok != tt.wantOK {
				t.Fatalf("warpTarget() = (%d, %d, %v), want (%d, %d, %v)", x, y, ok, tt.wantX, tt.wantY, tt.wantOK)
			}
		})
	}

	if got := toPixel(1<<40, 1); got != 32767 {
		t.Fatalf("toPixel overflow = %d, want 32767", got)
	}
}

func TestPointerEventRoundTripsThroughWarpTarget(t *testing.T) {
	for _, px := range [][2]int{{0, 0}, {1919, 1079}, {-1280, 300}} {
		ev := pointerEvent(px[0], px[1], 100)
		if ev.Kind != engine.RawAbsolute {
			t.Fatalf("pointerEvent kind = %q, want absolute", ev.Kind)
		}
		x, y, ok := warpTarget([]engine.OutEvent{{Kind: engine.OutMotion, Screen: 0, X: ev.X, Y: ev.Y}}, 100)
		if !ok || int(x) != px[0] || int(y) != px[1] {
			t.Fatalf("pixel %v came back as (%d, %d, %v)", px, x, y, ok)
		}
	}

	if ev := pointerEvent(3, 4, 0); ev.X != 3*DefaultUnitsPerPixel+DefaultUnitsPerPixel/2 {
		t.Fatalf("pointerEvent with zero units per pixel = %+v", ev)
	}
}
