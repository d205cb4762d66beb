package tui

import (
	"strconv"
	"strings"

	"github.com/1broseidon/screenhop/internal/engine"
	"github.com/1broseidon/screenhop/internal/geometry"
)

// renderLayout draws the screens of view scaled into a cols x rows grid.
// Each screen is a box labelled with its index; devices are marked '@'.
func renderLayout(view *engine.View, devices []engine.DeviceStatus, cols, rows int) string {
	if view == nil || len(view.Screens) == 0 || cols < 2 || rows < 2 {
		return ""
	}
	b := view.Bounds
	if !b.Valid() {
		return ""
	}

	grid := make([][]rune, rows)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", cols))
	}
	col := func(x int64) int { return clampInt(int((x-b.X)*int64(cols)/b.W), 0, cols-1) }
	row := func(y int64) int { return clampInt(int((y-b.Y)*int64(rows)/b.H), 0, rows-1) }

	for _, sv := range view.Screens {
		r := sv.Rect
		c0, c1 := col(r.X), col(r.Right())
		r0, r1 := row(r.Y), row(r.Bottom())
		if r.Right() < b.Right() {
			c1--
		}
		if r.Bottom() < b.Bottom() {
			r1--
		}
		c1 = max(c1, c0)
		r1 = max(r1, r0)
		drawBox(grid, r0, c0, r1, c1)

		label := []rune(strconv.Itoa(sv.Index))
		if r1-r0 >= 2 && c1-c0-1 >= len(label) {
			copy(grid[r0+1][c0+1:], label)
		}
	}

	for _, d := range devices {
		if !b.Contains(d.Position) {
			continue
		}
		grid[row(d.Position.Y)][col(d.Position.X)] = '@'
	}

	lines := make([]string, rows)
	for i, line := range grid {
		lines[i] = string(line)
	}
	return strings.Join(lines, "\n")
}

func drawBox(grid [][]rune, r0, c0, r1, c1 int) {
	for c := c0; c <= c1; c++ {
		grid[r0][c] = '-'
		grid[r1][c] = '-'
	}
	for r := r0; r <= r1; r++ {
		grid[r][c0] = '|'
		grid[r][c1] = '|'
	}
	for _, p := range [][2]int{{r0, c0}, {r0, c1}, {r1, c0}, {r1, c1}} {
		grid[p[0]][p[1]] = '+'
	}
}

func clampInt(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

func screenName(screen int) string {
	if screen == engine.Untracked {
		return "untracked"
	}
	return "screen " + strconv.Itoa(screen)
}

func pointString(p geometry.Point) string {
	return strconv.FormatInt(p.X, 10) + "," + strconv.FormatInt(p.Y, 10)
}
