// Package daemon drives the engine from a stream of raw input events and
// delivers the translated events to sinks.
package daemon

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/1broseidon/screenhop/internal/config"
	"github.com/1broseidon/screenhop/internal/engine"
	"github.com/1broseidon/screenhop/internal/journal"
)

// RunnerConfig holds configuration for the runner.
type RunnerConfig struct {
	// ConfigPath is re-read on Reload.
	ConfigPath string
	Input      io.Reader
	Sinks      []Sink
	Journal    *journal.Journal
	Logger     *slog.Logger
}

// Runner owns the event loop. Control methods (Reload, Suspend, Resume,
// SwitchScreen) may be called from other goroutines while Run is active.
type Runner struct {
	eng        *engine.Engine
	configPath string
	input      io.Reader
	sinks      []Sink
	journal    *journal.Journal
	logger     *slog.Logger

	start time.Time
	wake  chan struct{}

	// Producer clock translation, owned by the Run goroutine.
	offset    int64
	synced    bool
	lastStamp uint64
}

// NewRunner creates a runner for eng. eng should already hold a topology;
// events arriving before one is loaded pass through untranslated.
func NewRunner(eng *engine.Engine, cfg RunnerConfig) *Runner {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		eng:        eng,
		configPath: cfg.ConfigPath,
		input:      cfg.Input,
		sinks:      cfg.Sinks,
		journal:    cfg.Journal,
		logger:     logger,
		start:      time.Now(),
		wake:       make(chan struct{}, 1),
	}
}

// now is the runner clock: microseconds since the runner was created.
// The engine only ever sees times on this clock.
func (r *Runner) now() uint64 {
	return uint64(time.Since(r.start).Microseconds())
}

// stamp moves ev onto the runner clock. Events without a timestamp get the
// current time. Producer timestamps keep their spacing: the first one fixes
// the offset between the clocks, and a producer clock that goes backwards
// fixes it again. Stamps never run ahead of the runner clock and never
// decrease.
func (r *Runner) stamp(ev *engine.RawEvent) {
	now := int64(r.now())
	t := now
	if ev.Time != 0 {
		if !r.synced {
			r.offset, r.synced = now-int64(ev.Time), true
		}
		t = int64(ev.Time) + r.offset
		if t < int64(r.lastStamp) {
			r.offset = now - int64(ev.Time)
			t = now
		}
		if t > now {
			t = now
		}
	}
	if t < int64(r.lastStamp) {
		t = int64(r.lastStamp)
	}
	ev.Time = uint64(t)
	r.lastStamp = ev.Time
}

// Run reads events until the input ends or ctx is cancelled. Devices still
// known when the input ends are removed, flushing any partial scroll.
func (r *Runner) Run(ctx context.Context) error {
	events := make(chan engine.RawEvent, 256)
	readErr := make(chan error, 1)
	go func() {
		readErr <- readEvents(ctx, r.input, events, r.logger)
	}()

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	var (
		ticker   *time.Ticker
		tickC    <-chan time.Time
		interval time.Duration
		queue    []engine.RawEvent
	)
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
	}()

	r.logger.Info("runner started", "config", r.configPath)

	for {
		r.armTimer(timer)

		if want := r.interval(); want != interval {
			if ticker != nil {
				ticker.Stop()
				ticker, tickC = nil, nil
			}
			if want > 0 {
				ticker = time.NewTicker(want)
				tickC = ticker.C
			}
			if want == 0 && len(queue) > 0 {
				r.process(engine.CoalesceMotion(queue))
				queue = nil
			}
			interval = want
			r.logger.Debug("batch interval changed", "interval", interval)
		}

		select {
		case <-ctx.Done():
			r.process(engine.CoalesceMotion(queue))
			r.logger.Info("runner stopped")
			return nil

		case ev, ok := <-events:
			if !ok {
				r.process(engine.CoalesceMotion(queue))
				r.drain()
				r.logger.Info("input closed")
				return <-readErr
			}
			r.stamp(&ev)
			if interval > 0 {
				queue = append(queue, ev)
				continue
			}
			r.process([]engine.RawEvent{ev})

		case <-tickC:
			if len(queue) > 0 {
				r.process(engine.CoalesceMotion(queue))
				queue = nil
			}

		case <-timer.C:
			r.tick()

		case <-r.wake:
			r.tick()
		}
	}
}

func (r *Runner) armTimer(timer *time.Timer) {
	deadline, ok := r.eng.NextDeadline()
	if !ok {
		timer.Stop()
		return
	}
	var wait time.Duration
	if now := r.now(); deadline > now {
		wait = time.Duration(deadline-now) * time.Microsecond
	}
	timer.Reset(wait)
}

func (r *Runner) interval() time.Duration {
	t := r.eng.Active()
	if t == nil {
		return 0
	}
	return time.Duration(t.Config.IntervalOverride) * time.Microsecond
}

// process feeds one batch through the engine.
func (r *Runner) process(batch []engine.RawEvent) {
	if len(batch) == 0 {
		return
	}
	// Recover from panics to prevent crashing the daemon
	defer func() {
		if err := recover(); err != nil {
			r.logger.Error("runner panic recovered", "error", err, "batch", len(batch))
		}
	}()

	for _, ev := range batch {
		r.emit(r.eng.ProcessEvent(ev.Device, ev))
	}
}

func (r *Runner) tick() {
	defer func() {
		if err := recover(); err != nil {
			r.logger.Error("runner panic recovered", "error", err)
		}
	}()
	r.emit(r.eng.Tick(r.now()))
}

func (r *Runner) drain() {
	now := r.now()
	for _, d := range r.eng.Devices() {
		r.emit(r.eng.RemoveDevice(d.Device, now))
	}
}

func (r *Runner) emit(out []engine.OutEvent) {
	if len(out) == 0 {
		return
	}
	for _, ev := range out {
		r.journal.Event(ev)
		if ev.Kind == engine.OutWarning {
			r.logger.Warn("engine warning", "device", ev.Device, "screen", ev.Screen, "message", ev.Message)
		}
	}
	for _, s := range r.sinks {
		if err := s.Emit(out); err != nil {
			r.logger.Error("sink failed", "error", err)
		}
	}
}

func (r *Runner) poke() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Reload re-reads the configuration file and activates it. On error the
// active topology is kept and the error is returned.
func (r *Runner) Reload() (*engine.Topology, error) {
	res, err := config.LoadFromPath(r.configPath)
	if err == nil {
		var t *engine.Topology
		if t, err = r.eng.Load(res.Config); err == nil {
			r.journal.Record(journal.ActionReload, "", map[string]any{
				"file":       r.configPath,
				"generation": t.Generation,
				"screens":    t.Len(),
			})
			r.poke()
			return t, nil
		}
	}
	r.logger.Warn("reload failed, keeping active configuration", "error", err)
	r.journal.Record(journal.ActionReject, "", map[string]any{
		"file":  r.configPath,
		"error": err.Error(),
	})
	return nil, err
}

func (r *Runner) Suspend() {
	if r.eng.Suspended() {
		return
	}
	r.emit(r.eng.Suspend(r.now()))
	r.journal.Record(journal.ActionSuspend, "", nil)
}

func (r *Runner) Resume() {
	if !r.eng.Suspended() {
		return
	}
	r.eng.Resume()
	r.journal.Record(journal.ActionResume, "", nil)
}

// SwitchScreen moves device to the next screen.
func (r *Runner) SwitchScreen(device string) error {
	if device == "" {
		device = DefaultDevice
	}
	out, err := r.eng.SwitchScreen(device, r.now())
	if err != nil {
		return err
	}
	r.emit(out)
	return nil
}

func (r *Runner) Stats() engine.Stats {
	return r.eng.Stats()
}

func (r *Runner) Devices() []engine.DeviceStatus {
	return r.eng.Devices()
}

func (r *Runner) Topology() *engine.Topology {
	return r.eng.Active()
}

func (r *Runner) ConfigPath() string {
	return r.configPath
}

// Uptime reports how long the runner has existed.
func (r *Runner) Uptime() time.Duration {
	return time.Since(r.start)
}
