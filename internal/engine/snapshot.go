package engine

import (
	"github.com/1broseidon/screenhop/internal/config"
	"github.com/1broseidon/screenhop/internal/geometry"
	"github.com/1broseidon/screenhop/internal/mapping"
	"github.com/1broseidon/screenhop/internal/topology"
)

// Topology is one immutable configuration activation. It is shared by all
// devices without locking and replaced wholesale on reload.
type Topology struct {
	Generation uint64
	Config     *config.Config
	Resolver   *topology.Resolver
	Mappings   *mapping.Table
}

func newTopology(cfg *config.Config, generation uint64) *Topology {
	rects := cfg.Rects()
	rules := make([]mapping.Rule, len(cfg.Mappings))
	for i, m := range cfg.Mappings {
		rules[i] = mapping.Rule{
			FromScreen:  m.FromScreen,
			FromEdge:    m.FromEdge,
			ToScreen:    m.ToScreen,
			EntryOffset: m.EntryOffset,
			SpanOffset:  m.SpanOffset,
			SpanLength:  m.SpanLength,
		}
	}
	return &Topology{
		Generation: generation,
		Config:     cfg,
		Resolver:   topology.New(rects),
		Mappings:   mapping.NewTable(rects, rules),
	}
}

// Len returns the number of screens.
func (t *Topology) Len() int {
	return t.Resolver.Len()
}

// Rect returns the rectangle of screen i.
func (t *Topology) Rect(i int) geometry.Rect {
	return t.Resolver.Rect(i)
}

func (t *Topology) sensitivity(i int) uint32 {
	return t.Config.Screens[i].Sensitivity
}

func (t *Topology) scrollUnit(i int) int64 {
	return t.Config.Screens[i].ScrollUnit
}

// Home is the anchor point of screen i: its centre.
func (t *Topology) Home(i int) geometry.Point {
	return t.Rect(i).Center()
}

// ScreenView describes one screen and its resolved neighbours.
type ScreenView struct {
	Index       int                            `json:"index"`
	Rect        geometry.Rect                  `json:"rect"`
	Sensitivity uint32                         `json:"sensitivity"`
	ScrollUnit  int64                          `json:"scroll_unit"`
	Neighbors   map[string][]topology.Neighbor `json:"neighbors"`
}

// View is a serialisable description of a topology.
type View struct {
	Generation           uint64                `json:"generation"`
	Version              int                   `json:"version"`
	ConstraintMode       config.ConstraintMode `json:"constraint_mode"`
	UnmappedPassthrough  bool                  `json:"unmapped_passthrough"`
	PartialScrollTimeout uint64                `json:"partial_scroll_timeout"`
	IntervalOverride     uint32                `json:"interval_override"`
	OffscreenSensitivity uint32                `json:"offscreen_sensitivity"`
	Bounds               geometry.Rect         `json:"bounds"`
	Screens              []ScreenView          `json:"screens"`
	Mappings             []config.Mapping      `json:"mappings"`
}

// Describe returns the topology as a View.
func (t *Topology) Describe() View {
	cfg := t.Config
	v := View{
		Generation:           t.Generation,
		Version:              cfg.Version,
		ConstraintMode:       cfg.ConstraintMode,
		UnmappedPassthrough:  cfg.UnmappedPassthrough,
		PartialScrollTimeout: cfg.PartialScrollTimeout,
		IntervalOverride:     cfg.IntervalOverride,
		OffscreenSensitivity: cfg.OffscreenSensitivity,
		Bounds:               t.Resolver.Bounds(),
		Screens:              make([]ScreenView, t.Len()),
		Mappings:             append([]config.Mapping{}, cfg.Mappings...),
	}
	for i := range v.Screens {
		sv := ScreenView{
			Index:       i,
			Rect:        t.Rect(i),
			Sensitivity: cfg.Screens[i].Sensitivity,
			ScrollUnit:  cfg.Screens[i].ScrollUnit,
			Neighbors:   make(map[string][]topology.Neighbor),
		}
		for _, e := range geometry.Edges {
			if n := t.Resolver.Candidates(i, e); len(n) > 0 {
				sv.Neighbors[e.String()] = append([]topology.Neighbor(nil), n...)
			}
		}
		v.Screens[i] = sv
	}
	return v
}
