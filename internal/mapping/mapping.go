// Package mapping holds explicit crossing overrides that redirect a pointer
// leaving one screen's edge to an arbitrary target screen.
package mapping

import "github.com/1broseidon/screenhop/internal/geometry"

// Rule redirects crossings of FromScreen's FromEdge to ToScreen.
type Rule struct {
	FromScreen  int
	FromEdge    geometry.Edge
	ToScreen    int
	EntryOffset int64
	// SpanOffset and SpanLength restrict the rule to part of the edge,
	// measured from the edge start. A zero SpanLength covers the full edge.
	SpanOffset int64
	SpanLength int64
}

// FullEdge reports whether the rule applies to every crossing coordinate.
func (r Rule) FullEdge() bool {
	return r.SpanLength <= 0
}

// Target is the outcome of a matched rule.
type Target struct {
	Rule   int            `json:"rule"`
	Screen int            `json:"screen"`
	Edge   geometry.Edge  `json:"edge"` // entry side of the target
	Entry  geometry.Point `json:"entry"`
}

// Table evaluates rules in configured order. It is read-only after
// construction.
type Table struct {
	rects []geometry.Rect
	rules []Rule
	// byScreen indexes rule positions per (screen, edge), preserving order.
	byScreen map[int][4][]int
}

// NewTable builds a table over rects. Rules referencing screens outside
// rects are ignored; configuration validation rejects them earlier.
func NewTable(rects []geometry.Rect, rules []Rule) *Table {
	t := &Table{
		rects:    append([]geometry.Rect(nil), rects...),
		rules:    append([]Rule(nil), rules...),
		byScreen: make(map[int][4][]int),
	}
	for i, rule := range t.rules {
		if !t.valid(rule) {
			continue
		}
		idx := t.byScreen[rule.FromScreen]
		idx[rule.FromEdge] = append(idx[rule.FromEdge], i)
		t.byScreen[rule.FromScreen] = idx
	}
	return t
}

func (t *Table) valid(rule Rule) bool {
	return rule.FromScreen >= 0 && rule.FromScreen < len(t.rects) &&
		rule.ToScreen >= 0 && rule.ToScreen < len(t.rects) &&
		rule.FromEdge.Side()
}

// Len returns the number of configured rules.
func (t *Table) Len() int {
	return len(t.rules)
}

// Resolve returns the first rule, in configured order, matching a crossing
// of from's edge e at coordinate coord.
func (t *Table) Resolve(from int, e geometry.Edge, coord int64) (Target, bool) {
	if !e.Side() {
		return Target{}, false
	}
	idx, ok := t.byScreen[from]
	if !ok {
		return Target{}, false
	}
	src := t.rects[from].Span(e)
	for _, i := range idx[e] {
		rule := t.rules[i]
		start := src.Start + rule.SpanOffset
		if !rule.FullEdge() {
			span := geometry.Interval{Start: start, End: start + rule.SpanLength}
			if !span.Contains(coord) {
				continue
			}
		}
		return Target{
			Rule:   i,
			Screen: rule.ToScreen,
			Edge:   e.Opposite(),
			Entry:  t.entry(rule, e, coord-start),
		}, true
	}
	return Target{}, false
}

// entry places the pointer on the target's side facing the crossing, at
// EntryOffset plus the distance already travelled along the source span.
func (t *Table) entry(rule Rule, e geometry.Edge, along int64) geometry.Point {
	dst := t.rects[rule.ToScreen]
	side := e.Opposite()
	pos := dst.Span(side).Start + rule.EntryOffset + along

	var p geometry.Point
	if e.Vertical() {
		p = geometry.Point{X: dst.Inner(side), Y: pos}
	} else {
		p = geometry.Point{X: pos, Y: dst.Inner(side)}
	}
	return dst.Clamp(p)
}
