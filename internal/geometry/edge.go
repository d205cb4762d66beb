package geometry

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Edge names a side of a rectangle, or the classification of a point
// relative to one.
type Edge int

const (
	Left Edge = iota
	Right
	Top
	Bottom
	Inside
	None
)

// Edges lists the four crossable sides in index order.
var Edges = [4]Edge{Left, Right, Top, Bottom}

func (e Edge) String() string {
	switch e {
	case Left:
		return "left"
	case Right:
		return "right"
	case Top:
		return "top"
	case Bottom:
		return "bottom"
	case Inside:
		return "inside"
	case None:
		return "none"
	default:
		return "edge(" + strconv.Itoa(int(e)) + ")"
	}
}

// Side reports whether e is one of the four crossable sides.
func (e Edge) Side() bool {
	return e >= Left && e <= Bottom
}

// Vertical reports whether e is a vertical side (Left or Right), i.e. one
// whose crossing coordinate is a Y value.
func (e Edge) Vertical() bool {
	return e == Left || e == Right
}

// Opposite returns the side facing e.
func (e Edge) Opposite() Edge {
	switch e {
	case Left:
		return Right
	case Right:
		return Left
	case Top:
		return Bottom
	case Bottom:
		return Top
	}
	return e
}

// ParseEdge accepts the side names and their numeric indices.
func ParseEdge(s string) (Edge, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left", "0":
		return Left, nil
	case "right", "1":
		return Right, nil
	case "top", "up", "2":
		return Top, nil
	case "bottom", "down", "3":
		return Bottom, nil
	}
	return None, fmt.Errorf("invalid edge %q (expected left, right, top or bottom)", s)
}

func (e Edge) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

func (e *Edge) UnmarshalText(text []byte) error {
	parsed, err := ParseEdge(string(text))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

// UnmarshalYAML accepts either a side name or its integer index.
func (e *Edge) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("edge must be a string or integer")
	}
	parsed, err := ParseEdge(value.Value)
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

func (e Edge) MarshalYAML() (interface{}, error) {
	return e.String(), nil
}
