// Package grid provides the two-dimensional character buffer and cursor used
// to read pipe diagrams.
package grid

import (
	"fmt"
	"strings"
	"unicode"
)

// NoChar is returned for any read outside the grid.
const NoChar rune = -1

// Diagram glyphs.
const (
	Dash        rune = '-'
	Slash       rune = '/'
	Backslash   rune = '\\'
	Bar         rune = '|'
	BranchOpen  rune = '['
	BranchClose rune = ']'
	LoopMark    rune = '^'
	Quote       rune = '\''
	Blank       rune = ' '
	ParenOpen   rune = '('
	ParenClose  rune = ')'
)

// LoopOpen is the two-glyph token that opens a repeat body.
const LoopOpen = "[^"

// Position is a cell coordinate. X is the column, Y the row; both zero-based.
type Position struct {
	X, Y int
}

// Pos builds a position from a column and a row.
func Pos(x, y int) Position {
	return Position{X: x, Y: y}
}

// Offset returns the position moved by (dx, dy).
func (p Position) Offset(dx, dy int) Position {
	return Position{X: p.X + dx, Y: p.Y + dy}
}

func (p Position) String() string {
	return fmt.Sprintf("row %d, column %d", p.Y, p.X)
}

// Grid is an immutable rectangular rune matrix. Every row has the same
// width; short lines are padded with blanks.
type Grid struct {
	cells  [][]rune
	width  int
	height int
}

// New builds a grid from diagram text. Trailing whitespace is removed from
// every line and trailing empty lines are dropped.
func New(text string) *Grid {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRightFunc(line, unicode.IsSpace)
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	g := &Grid{height: len(lines)}
	rows := make([][]rune, len(lines))
	for i, line := range lines {
		rows[i] = []rune(line)
		if len(rows[i]) > g.width {
			g.width = len(rows[i])
		}
	}
	for i, row := range rows {
		for len(row) < g.width {
			row = append(row, Blank)
		}
		rows[i] = row
	}
	g.cells = rows
	return g
}

// Width returns the number of columns.
func (g *Grid) Width() int { return g.width }

// Height returns the number of rows.
func (g *Grid) Height() int { return g.height }

// Empty reports whether the grid holds no visible glyph.
func (g *Grid) Empty() bool {
	for _, row := range g.cells {
		for _, r := range row {
			if !unicode.IsSpace(r) {
				return false
			}
		}
	}
	return true
}

// Get returns the rune at column x, row y, or NoChar when out of range.
func (g *Grid) Get(x, y int) rune {
	if y < 0 || y >= g.height || x < 0 || x >= g.width {
		return NoChar
	}
	return g.cells[y][x]
}

// At returns the rune at p, or NoChar when out of range.
func (g *Grid) At(p Position) rune {
	return g.Get(p.X, p.Y)
}

// Row returns the text of row y, or "" when out of range.
func (g *Grid) Row(y int) string {
	if y < 0 || y >= g.height {
		return ""
	}
	return string(g.cells[y])
}

// HasText reports whether text appears starting at p on a single row.
func (g *Grid) HasText(p Position, text string) bool {
	x := p.X
	for _, r := range text {
		if g.Get(x, p.Y) != r {
			return false
		}
		x++
	}
	return true
}

// Quoted reports whether p lies inside a quoted run on its row: an odd
// number of quotes stands to its left. Quote pairing matches ReadToken, so
// glyphs inside quoted text are never read as pipes.
func (g *Grid) Quoted(p Position) bool {
	if p.Y < 0 || p.Y >= g.height {
		return false
	}
	in := false
	for x := 0; x < p.X && x < g.width; x++ {
		if g.cells[p.Y][x] == Quote {
			in = !in
		}
	}
	return in
}

// Glyph returns the rune at p for structural reads: quoted cells read as
// blanks.
func (g *Grid) Glyph(p Position) rune {
	if g.Quoted(p) {
		return Blank
	}
	return g.At(p)
}

// String returns the padded grid contents.
func (g *Grid) String() string {
	var sb strings.Builder
	for i, row := range g.cells {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(string(row))
	}
	return sb.String()
}

// IsConnector reports whether r is a pipe glyph that links tokens.
func IsConnector(r rune) bool {
	switch r {
	case Dash, Slash, Backslash, Bar:
		return true
	}
	return false
}

// IsBlank reports whether r is a blank cell or lies outside the grid.
func IsBlank(r rune) bool {
	return r == NoChar || unicode.IsSpace(r)
}
