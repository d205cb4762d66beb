package engine

import (
	"log/slog"

	"github.com/1broseidon/screenhop/internal/config"
)

// Simulate replays events through a private engine loaded with cfg.
// Events without a device are attributed to device. Scroll still pending
// after the last event is flushed as if its timeout had passed. The
// returned status is device's final state.
func Simulate(cfg *config.Config, device string, events []RawEvent, logger *slog.Logger) ([]OutEvent, DeviceStatus, error) {
	e := New(Options{Logger: logger})
	if _, err := e.Load(cfg); err != nil {
		return nil, DeviceStatus{}, err
	}

	var (
		out  []OutEvent
		last uint64
	)
	for _, ev := range events {
		dev := ev.Device
		if dev == "" {
			dev = device
		}
		out = append(out, e.ProcessEvent(dev, ev)...)
		if ev.Time > last {
			last = ev.Time
		}
	}
	if deadline, ok := e.NextDeadline(); ok && deadline > last {
		last = deadline
	}
	out = append(out, e.Tick(last)...)

	status := DeviceStatus{Device: device, Screen: Untracked, LastScreen: Untracked}
	for _, d := range e.Devices() {
		if d.Device == device {
			status = d
		}
	}
	return out, status, nil
}
