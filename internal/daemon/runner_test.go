package daemon

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/1broseidon/screenhop/internal/config"
	"github.com/1broseidon/screenhop/internal/engine"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const twoScreens = `version: 4
screens:
  - {x: 0, y: 0, w: 14400000, h: 9000000, sensitivity: 8000}
  - {x: 14400000, y: 0, w: 13500000, h: 9000000, sensitivity: 8000}
`

func newTestRunner(t *testing.T, input string) (*Runner, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	r := newRunner(t, twoScreens, strings.NewReader(input), NewJSONSink(&out))
	return r, &out
}

func newRunner(t *testing.T, body string, in io.Reader, sinks ...Sink) *Runner {
	t.Helper()
	path := writeConfig(t, t.TempDir(), body)
	res, err := config.LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	eng := engine.New(engine.Options{Logger: quietLogger()})
	if _, err := eng.Load(res.Config); err != nil {
		t.Fatalf("engine load: %v", err)
	}
	return NewRunner(eng, RunnerConfig{
		ConfigPath: path,
		Input:      in,
		Sinks:      sinks,
		Logger:     quietLogger(),
	})
}

type chanSink chan engine.OutEvent

func (s chanSink) Emit(events []engine.OutEvent) error {
	for _, ev := range events {
		s <- ev
	}
	return nil
}

func decode(t *testing.T, buf *bytes.Buffer) []engine.OutEvent {
	t.Helper()
	var events []engine.OutEvent
	scanner := bufio.NewScanner(buf)
	for scanner.Scan() {
		var ev engine.OutEvent
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			t.Fatalf("decode %q: %v", scanner.Text(), err)
		}
		events = append(events, ev)
	}
	return events
}

func TestRun_TranslatesCrossing(t *testing.T) {
	input := strings.Join([]string{
		`{"kind":"absolute","device":"mouse","time":1,"x":14399999,"y":4500000}`,
		`{"kind":"motion","device":"mouse","time":2,"dx":10}`,
	}, "\n")
	r, out := newTestRunner(t, input)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	events := decode(t, out)
	var crossed bool
	for _, ev := range events {
		if ev.Kind == engine.OutTransition && ev.Transition.Via == engine.ViaTopology {
			crossed = true
			if ev.Transition.From != 0 || ev.Transition.To != 1 {
				t.Fatalf("unexpected transition %+v", ev.Transition)
			}
		}
	}
	if !crossed {
		t.Fatalf("expected a topology transition, got %+v", events)
	}
	last := events[len(events)-1]
	if last.Kind != engine.OutMotion || last.Screen != 1 {
		t.Fatalf("expected final motion on screen 1, got %+v", last)
	}
}

func TestRun_SkipsMalformedLinesAndDefaultsDevice(t *testing.T) {
	input := "not json\n\n# comment\n" + `{"kind":"button","time":3,"button":1,"pressed":true}` + "\n"
	r, out := newTestRunner(t, input)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	events := decode(t, out)
	if len(events) == 0 {
		t.Fatal("expected output events")
	}
	last := events[len(events)-1]
	if last.Kind != engine.OutButton || last.Device != DefaultDevice || !last.Pressed {
		t.Fatalf("unexpected final event %+v", last)
	}
}

func TestRun_FlushesPartialScrollAtEOF(t *testing.T) {
	input := `{"kind":"scroll","device":"wheel","time":10,"v":60}` + "\n"
	r, out := newTestRunner(t, input)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	events := decode(t, out)
	last := events[len(events)-1]
	if last.Kind != engine.OutScroll || last.Vertical != 60 || last.Reason != "removed" {
		t.Fatalf("expected removed scroll flush, got %+v", last)
	}
	if len(r.Devices()) != 0 {
		t.Fatalf("expected devices to be removed, got %+v", r.Devices())
	}
}

func TestReload_KeepsActiveTopologyOnError(t *testing.T) {
	r, _ := newTestRunner(t, "")
	before := r.Topology().Generation

	if err := os.WriteFile(r.ConfigPath(), []byte("version: 3\nscreens: []\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := r.Reload(); err == nil {
		t.Fatal("expected reload error")
	}
	if got := r.Topology().Generation; got != before {
		t.Fatalf("generation = %d, want %d", got, before)
	}

	if err := os.WriteFile(r.ConfigPath(), []byte(twoScreens), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	topo, err := r.Reload()
	if err != nil {
		t.Fatalf("Reload() error: %v", err)
	}
	if topo.Generation != before+1 {
		t.Fatalf("generation = %d, want %d", topo.Generation, before+1)
	}
}

func TestSuspendResumeAndSwitch(t *testing.T) {
	r, out := newTestRunner(t, "")

	if err := r.SwitchScreen("mouse"); err != nil {
		t.Fatalf("SwitchScreen() error: %v", err)
	}
	var switched bool
	for _, ev := range decode(t, out) {
		if ev.Kind == engine.OutTransition && ev.Transition.Via == engine.ViaSwitch {
			switched = ev.Screen == 1
		}
	}
	if !switched {
		t.Fatal("expected a switch transition to screen 1")
	}

	r.Suspend()
	if !r.Stats().Suspended {
		t.Fatal("expected suspended engine")
	}
	r.Resume()
	if r.Stats().Suspended {
		t.Fatal("expected resumed engine")
	}
}

func TestRun_TimesOutPartialScrollWhileInputOpen(t *testing.T) {
	for _, ts := range []uint64{0, 5000000000} {
		t.Run(fmt.Sprintf("time=%d", ts), func(t *testing.T) {
			pr, pw := io.Pipe()
			events := make(chanSink, 64)
			r := newRunner(t, twoScreens+"partial_scroll_timeout: 1000\n", pr, events)

			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() { done <- r.Run(ctx) }()
			defer func() {
				cancel()
				pw.Close()
				<-done
			}()

			line := fmt.Sprintf(`{"kind":"scroll","device":"wheel","time":%d,"v":10}`+"\n", ts)
			if _, err := io.WriteString(pw, line); err != nil {
				t.Fatalf("write: %v", err)
			}

			deadline := time.After(2 * time.Second)
			for {
				select {
				case ev := <-events:
					if ev.Kind != engine.OutScroll {
						continue
					}
					if ev.Reason != "timeout" || ev.Vertical != 10 {
						t.Fatalf("expected timeout flush of 10, got %+v", ev)
					}
					return
				case <-deadline:
					t.Fatal("partial scroll was not flushed while the input stayed open")
				}
			}
		})
	}
}

func TestStamp_UsesRunnerClock(t *testing.T) {
	r := NewRunner(engine.New(engine.Options{Logger: quietLogger()}), RunnerConfig{Logger: quietLogger()})
	r.start = time.Now().Add(-time.Second)

	first := engine.RawEvent{Time: 5000000000}
	r.stamp(&first)
	if now := r.now(); first.Time > now || first.Time < 1000000 {
		t.Fatalf("first stamp %d not on runner clock (now %d)", first.Time, now)
	}

	back := engine.RawEvent{Time: 4000000000}
	r.stamp(&back)
	if back.Time < first.Time {
		t.Fatalf("stamp went backwards: %d after %d", back.Time, first.Time)
	}

	ahead := engine.RawEvent{Time: 9000000000}
	r.stamp(&ahead)
	if now := r.now(); ahead.Time > now {
		t.Fatalf("stamp %d ahead of runner clock %d", ahead.Time, now)
	}

	unstamped := engine.RawEvent{}
	r.stamp(&unstamped)
	if unstamped.Time < ahead.Time {
		t.Fatalf("unstamped event %d before previous %d", unstamped.Time, ahead.Time)
	}
}
