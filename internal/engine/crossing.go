package engine

import (
	"github.com/1broseidon/screenhop/internal/geometry"
)

// exitPoint finds where the segment from pos (inside r) by d first leaves
// r. cross is the first integer position beyond the exit edge; the other
// coordinate is interpolated, rounding half-to-even. When both axes leave
// at the same fraction of d the Left/Right edge wins.
func exitPoint(r geometry.Rect, pos, d geometry.Point) (geometry.Edge, geometry.Point) {
	end := add(pos, d)

	ex, ey := geometry.None, geometry.None
	var nx, ny int64 // distance from pos to the crossing line on each axis
	switch {
	case end.X >= r.Right():
		ex, nx = geometry.Right, r.Right()-pos.X
	case end.X < r.X:
		ex, nx = geometry.Left, pos.X-r.Line(geometry.Left)
	}
	switch {
	case end.Y >= r.Bottom():
		ey, ny = geometry.Bottom, r.Bottom()-pos.Y
	case end.Y < r.Y:
		ey, ny = geometry.Top, pos.Y-r.Line(geometry.Top)
	}

	adx, ady := abs(d.X), abs(d.Y)
	useX := ex != geometry.None
	if useX && ey != geometry.None {
		// nx/adx <= ny/ady
		useX = !lessProduct(ny, adx, nx, ady)
	}

	if useX {
		return ex, geometry.Point{
			X: r.Line(ex),
			Y: pos.Y + mulDiv(d.Y, nx, adx),
		}
	}
	return ey, geometry.Point{
		X: pos.X + mulDiv(d.X, ny, ady),
		Y: r.Line(ey),
	}
}

// along returns the coordinate of p parallel to edge e.
func along(e geometry.Edge, p geometry.Point) int64 {
	if e.Vertical() {
		return p.Y
	}
	return p.X
}

// Crossing is a resolved hand-off to another screen.
type Crossing struct {
	To    int            `json:"to"`
	Entry geometry.Point `json:"entry"`
	Via   Via            `json:"via"`
	// Rule is the mapping index for ViaMapping, otherwise -1.
	Rule int `json:"rule"`
}

// resolveCrossing consults the mapping table first, then geometric
// adjacency. ok is false when the pointer leaves every screen.
func resolveCrossing(t *Topology, from int, e geometry.Edge, cross geometry.Point) (Crossing, bool) {
	coord := along(e, cross)
	if target, ok := t.Mappings.Resolve(from, e, coord); ok {
		return Crossing{To: target.Screen, Entry: target.Entry, Via: ViaMapping, Rule: target.Rule}, true
	}
	if to, ok := t.Resolver.Resolve(from, e, coord); ok {
		return Crossing{To: to, Entry: cross, Via: ViaTopology, Rule: -1}, true
	}
	return Crossing{}, false
}

// ResolveEdge reports where a pointer leaving screen from through edge e
// at along-edge coordinate coord would land.
func (t *Topology) ResolveEdge(from int, e geometry.Edge, coord int64) (Crossing, bool) {
	if from < 0 || from >= t.Len() || !e.Side() {
		return Crossing{}, false
	}
	r := t.Rect(from)
	cross := geometry.Point{X: coord, Y: r.Line(e)}
	if e.Vertical() {
		cross = geometry.Point{X: r.Line(e), Y: coord}
	}
	return resolveCrossing(t, from, e, cross)
}

// rescale converts a remaining delta from one screen's sensitivity to
// another's.
func rescale(d geometry.Point, from, to uint32) geometry.Point {
	if from == to {
		return d
	}
	return geometry.Point{
		X: mulDiv(d.X, int64(to), int64(from)),
		Y: mulDiv(d.Y, int64(to), int64(from)),
	}
}

func add(a, b geometry.Point) geometry.Point {
	return geometry.Point{X: a.X + b.X, Y: a.Y + b.Y}
}

func sub(a, b geometry.Point) geometry.Point {
	return geometry.Point{X: a.X - b.X, Y: a.Y - b.Y}
}
