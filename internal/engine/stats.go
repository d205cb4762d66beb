package engine

import "sync/atomic"

type counters struct {
	events        atomic.Uint64
	motions       atomic.Uint64
	transitions   atomic.Uint64
	mapped        atomic.Uint64
	exits         atomic.Uint64
	retracks      atomic.Uint64
	confined      atomic.Uint64
	dropped       atomic.Uint64
	warnings      atomic.Uint64
	scrollFlushes atomic.Uint64
	reloads       atomic.Uint64
}

// Stats is a point-in-time copy of the engine counters.
type Stats struct {
	Generation    uint64 `json:"generation"`
	Devices       int    `json:"devices"`
	Suspended     bool   `json:"suspended"`
	Events        uint64 `json:"events"`
	Motions       uint64 `json:"motions"`
	Transitions   uint64 `json:"transitions"`
	Mapped        uint64 `json:"mapped"`
	Exits         uint64 `json:"exits"`
	Retracks      uint64 `json:"retracks"`
	Confined      uint64 `json:"confined"`
	Dropped       uint64 `json:"dropped"`
	Warnings      uint64 `json:"warnings"`
	ScrollFlushes uint64 `json:"scroll_flushes"`
	Reloads       uint64 `json:"reloads"`
}

func (e *Engine) Stats() Stats {
	s := Stats{
		Suspended:     e.suspended.Load(),
		Events:        e.stats.events.Load(),
		Motions:       e.stats.motions.Load(),
		Transitions:   e.stats.transitions.Load(),
		Mapped:        e.stats.mapped.Load(),
		Exits:         e.stats.exits.Load(),
		Retracks:      e.stats.retracks.Load(),
		Confined:      e.stats.confined.Load(),
		Dropped:       e.stats.dropped.Load(),
		Warnings:      e.stats.warnings.Load(),
		ScrollFlushes: e.stats.scrollFlushes.Load(),
		Reloads:       e.stats.reloads.Load(),
	}
	if t := e.topo.Load(); t != nil {
		s.Generation = t.Generation
	}
	e.mu.Lock()
	s.Devices = len(e.devices)
	e.mu.Unlock()
	return s
}
