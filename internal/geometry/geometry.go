// Package geometry models screens as axis-aligned rectangles in a shared
// fixed-point coordinate space. All tests are exact integer arithmetic.
package geometry

import "fmt"

// LocalRange is the exclusive upper bound of normalized per-screen
// coordinates reported to absolute-pointer consumers.
const LocalRange = 32768

// Point is a position in the global coordinate space.
type Point struct {
	X int64 `json:"x"`
	Y int64 `json:"y"`
}

// Rect is a half-open rectangle [X, X+W) x [Y, Y+H).
type Rect struct {
	X int64 `json:"x"`
	Y int64 `json:"y"`
	W int64 `json:"w"`
	H int64 `json:"h"`
}

func (r Rect) Right() int64  { return r.X + r.W }
func (r Rect) Bottom() int64 { return r.Y + r.H }

// Valid reports whether the rectangle has a positive area.
func (r Rect) Valid() bool {
	return r.W > 0 && r.H > 0
}

// Center returns the centre point, rounded toward the origin corner.
func (r Rect) Center() Point {
	return Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

func (r Rect) String() string {
	return fmt.Sprintf("%d,%d %dx%d", r.X, r.Y, r.W, r.H)
}

// Contains reports whether p lies inside r using half-open intervals.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.W && p.Y >= r.Y && p.Y < r.Y+r.H
}

// EdgeOf classifies p relative to r. A point beyond a corner (outside both
// spans) is None.
func (r Rect) EdgeOf(p Point) Edge {
	inX := p.X >= r.X && p.X < r.Right()
	inY := p.Y >= r.Y && p.Y < r.Bottom()
	switch {
	case inX && inY:
		return Inside
	case inY && p.X < r.X:
		return Left
	case inY && p.X >= r.Right():
		return Right
	case inX && p.Y < r.Y:
		return Top
	case inX && p.Y >= r.Bottom():
		return Bottom
	default:
		return None
	}
}

// Clamp returns the point inside r nearest to p.
func (r Rect) Clamp(p Point) Point {
	return Point{
		X: clamp(p.X, r.X, r.Right()-1),
		Y: clamp(p.Y, r.Y, r.Bottom()-1),
	}
}

// Span returns the interval r covers along the axis parallel to edge e:
// the vertical extent for Left/Right and the horizontal extent for
// Top/Bottom.
func (r Rect) Span(e Edge) Interval {
	if e.Vertical() {
		return Interval{Start: r.Y, End: r.Bottom()}
	}
	return Interval{Start: r.X, End: r.Right()}
}

// Line returns the coordinate of the first position outside r across edge
// e: the crossing line a pointer reaches when it leaves through e.
func (r Rect) Line(e Edge) int64 {
	switch e {
	case Left:
		return r.X - 1
	case Right:
		return r.Right()
	case Top:
		return r.Y - 1
	case Bottom:
		return r.Bottom()
	}
	return 0
}

// Inner returns the coordinate of the outermost row or column of r on
// edge e.
func (r Rect) Inner(e Edge) int64 {
	switch e {
	case Left:
		return r.X
	case Right:
		return r.Right() - 1
	case Top:
		return r.Y
	case Bottom:
		return r.Bottom() - 1
	}
	return 0
}

// Local maps p to the 0..LocalRange-1 absolute-report coordinates of r.
func (r Rect) Local(p Point) Point {
	q := r.Clamp(p)
	return Point{
		X: (q.X - r.X) * LocalRange / r.W,
		Y: (q.Y - r.Y) * LocalRange / r.H,
	}
}

// Interval is a half-open range [Start, End).
type Interval struct {
	Start int64
	End   int64
}

func (i Interval) Len() int64 {
	if i.End <= i.Start {
		return 0
	}
	return i.End - i.Start
}

func (i Interval) Contains(v int64) bool {
	return v >= i.Start && v < i.End
}

// Overlap returns the length of the intersection of a and b.
func Overlap(a, b Interval) int64 {
	return Interval{Start: max(a.Start, b.Start), End: min(a.End, b.End)}.Len()
}

// Union returns the bounding box of rects.
func Union(rects []Rect) Rect {
	if len(rects) == 0 {
		return Rect{}
	}
	x1, y1 := rects[0].X, rects[0].Y
	x2, y2 := rects[0].Right(), rects[0].Bottom()
	for _, r := range rects[1:] {
		x1 = min(x1, r.X)
		y1 = min(y1, r.Y)
		x2 = max(x2, r.Right())
		y2 = max(y2, r.Bottom())
	}
	return Rect{X: x1, Y: y1, W: x2 - x1, H: y2 - y1}
}

func clamp(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
