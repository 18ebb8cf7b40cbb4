package translator

import (
	"strings"

	"github.com/chazu/pipes/pkg/grid"
)

// canvas is the encoder's drawing surface. A zero width or height grows on
// demand. The first out-of-bounds write is recorded and every later write is
// ignored.
type canvas struct {
	width  int
	height int
	rows   [][]rune
	err    error
}

func newCanvas(width, height int) *canvas {
	return &canvas{width: width, height: height}
}

func (c *canvas) put(x, y int, r rune) {
	if c.err != nil {
		return
	}
	if x < 0 || y < 0 || (c.width > 0 && x >= c.width) || (c.height > 0 && y >= c.height) {
		c.err = &CanvasOverflowError{Row: y, Col: x, Width: c.width, Height: c.height}
		return
	}
	for len(c.rows) <= y {
		c.rows = append(c.rows, nil)
	}
	row := c.rows[y]
	for len(row) <= x {
		row = append(row, grid.Blank)
	}
	row[x] = r
	c.rows[y] = row
}

func (c *canvas) write(x, y int, s string) {
	for _, r := range s {
		c.put(x, y, r)
		x++
	}
}

// String returns the drawing with trailing blanks and empty trailing lines
// removed.
func (c *canvas) String() string {
	lines := make([]string, len(c.rows))
	for i, row := range c.rows {
		lines[i] = strings.TrimRight(string(row), " ")
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}
