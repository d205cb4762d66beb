// Package topology derives screen adjacency from a set of rectangles.
//
// Screens are kept in an arena indexed by their configured position; each
// (screen, edge) pair owns a precomputed, ordered candidate list. Overlaps
// are resolved at crossing time against the exact crossing coordinate.
package topology

import (
	"sort"

	"github.com/1broseidon/screenhop/internal/geometry"
)

// Neighbor is a candidate screen across an edge.
type Neighbor struct {
	Screen int `json:"screen"`
	// Shared is the length of the boundary span the two screens share.
	Shared int64 `json:"shared"`
	// Span is the neighbour's extent along the edge.
	Span geometry.Interval `json:"-"`
}

// Resolver answers adjacency queries for one immutable screen set.
type Resolver struct {
	rects     []geometry.Rect
	neighbors [][4][]Neighbor // screen -> edge -> ordered candidates
	bounds    geometry.Rect
}

// New precomputes the adjacency lists for rects. The slice is copied.
func New(rects []geometry.Rect) *Resolver {
	r := &Resolver{
		rects:     append([]geometry.Rect(nil), rects...),
		neighbors: make([][4][]Neighbor, len(rects)),
		bounds:    geometry.Union(rects),
	}
	for i := range r.rects {
		for _, e := range geometry.Edges {
			r.neighbors[i][e] = r.collect(i, e)
		}
	}
	return r
}

func (r *Resolver) collect(from int, e geometry.Edge) []Neighbor {
	src := r.rects[from]
	line := src.Line(e)
	span := src.Span(e)

	var out []Neighbor
	for i, cand := range r.rects {
		if i == from {
			continue
		}
		// The candidate must cover the crossing line...
		across := cand.Span(perpendicular(e))
		if !across.Contains(line) {
			continue
		}
		// ...and share part of the boundary.
		candSpan := cand.Span(e)
		shared := geometry.Overlap(span, candSpan)
		if shared == 0 {
			continue
		}
		out = append(out, Neighbor{Screen: i, Shared: shared, Span: candSpan})
	}

	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Shared != out[b].Shared {
			return out[a].Shared > out[b].Shared
		}
		return out[a].Screen < out[b].Screen
	})
	return out
}

// perpendicular returns an edge on the other axis, used to read the span a
// rectangle covers across e.
func perpendicular(e geometry.Edge) geometry.Edge {
	if e.Vertical() {
		return geometry.Top
	}
	return geometry.Left
}

// Len returns the number of screens.
func (r *Resolver) Len() int {
	return len(r.rects)
}

// Rect returns the rectangle of screen i.
func (r *Resolver) Rect(i int) geometry.Rect {
	return r.rects[i]
}

// Rects returns a copy of all screen rectangles.
func (r *Resolver) Rects() []geometry.Rect {
	return append([]geometry.Rect(nil), r.rects...)
}

// Bounds returns the bounding box of every screen.
func (r *Resolver) Bounds() geometry.Rect {
	return r.bounds
}

// Candidates returns the ordered neighbours of screen across edge e: largest
// shared span first, lowest index on ties. The returned slice must not be
// modified.
func (r *Resolver) Candidates(screen int, e geometry.Edge) []Neighbor {
	if screen < 0 || screen >= len(r.rects) || !e.Side() {
		return nil
	}
	return r.neighbors[screen][e]
}

// Resolve picks the neighbour of screen across e whose span contains the
// crossing coordinate. ok is false when the crossing leaves every screen.
func (r *Resolver) Resolve(screen int, e geometry.Edge, coord int64) (int, bool) {
	for _, n := range r.Candidates(screen, e) {
		if n.Span.Contains(coord) {
			return n.Screen, true
		}
	}
	return -1, false
}

// ScreenAt returns the lowest-indexed screen containing p.
func (r *Resolver) ScreenAt(p geometry.Point) (int, bool) {
	for i, rect := range r.rects {
		if rect.Contains(p) {
			return i, true
		}
	}
	return -1, false
}
