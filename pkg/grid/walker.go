package grid

import (
	"strings"
	"unicode"
)

// Token is a run of non-connector glyphs read from a single row.
type Token struct {
	Text string
	Pos  Position
}

// Walker is a cursor over a Grid. It never modifies the grid; several
// walkers may share one grid.
type Walker struct {
	grid *Grid
	pos  Position
}

// NewWalker creates a walker positioned at p.
func NewWalker(g *Grid, p Position) *Walker {
	return &Walker{grid: g, pos: p}
}

// Grid returns the grid the walker reads.
func (w *Walker) Grid() *Grid { return w.grid }

// Pos returns the current position.
func (w *Walker) Pos() Position { return w.pos }

// MoveTo jumps to p.
func (w *Walker) MoveTo(p Position) { w.pos = p }

// Move shifts the cursor by (dx, dy).
func (w *Walker) Move(dx, dy int) { w.pos = w.pos.Offset(dx, dy) }

// Read returns the rune under the cursor.
func (w *Walker) Read() rune { return w.grid.At(w.pos) }

// Peek returns the rune at offset (dx, dy) without moving.
func (w *Walker) Peek(dx, dy int) rune { return w.grid.At(w.pos.Offset(dx, dy)) }

// Advance moves to the start of the next token. It first moves through the
// token under the cursor, if any, then follows connectors:
//
//	-  ]   step right
//	/      step up-right when another / follows diagonally, else right onto a -
//	\      step down-right when another \ follows diagonally, else right onto a -
//
// A blank, a vertical rail, a dangling diagonal or the grid edge ends the
// walk and Advance reports false.
func (w *Walker) Advance() bool {
	if StartsToken(w.Read()) {
		w.ReadToken()
	}
	for {
		switch r := w.Read(); r {
		case Dash, BranchClose:
			w.Move(1, 0)
		case Slash:
			if !w.turn(-1) {
				return false
			}
		case Backslash:
			if !w.turn(1) {
				return false
			}
		case Bar, NoChar:
			return false
		default:
			if unicode.IsSpace(r) {
				return false
			}
			return true
		}
	}
}

// turn resolves a diagonal glyph: continue the diagonal in direction dy or
// leave it onto a dash on the same row.
func (w *Walker) turn(dy int) bool {
	if w.grid.Glyph(w.pos.Offset(1, dy)) == w.Read() {
		w.Move(1, dy)
		return true
	}
	if w.Peek(1, 0) == Dash {
		w.Move(1, 0)
		return true
	}
	return false
}

// ReadToken reads the token starting under the cursor and leaves the cursor
// on the first cell after it. Outside quotes and parentheses a token ends at
// a connector, a bracket or a blank; inside them only the grid edge ends it.
// A [ immediately followed by ^ is read as the loop-open token.
func (w *Walker) ReadToken() (Token, bool) {
	start := w.pos
	if w.Read() == BranchOpen {
		if w.Peek(1, 0) == LoopMark {
			w.Move(2, 0)
			return Token{Text: LoopOpen, Pos: start}, true
		}
		w.Move(1, 0)
		return Token{Text: string(BranchOpen), Pos: start}, true
	}

	var sb strings.Builder
	inQuote := false
	depth := 0
	for {
		r := w.Read()
		if r == NoChar {
			break
		}
		if !inQuote && depth == 0 && terminates(r) {
			break
		}
		switch {
		case r == Quote:
			inQuote = !inQuote
		case inQuote:
		case r == ParenOpen:
			depth++
		case r == ParenClose && depth > 0:
			depth--
		}
		sb.WriteRune(r)
		w.Move(1, 0)
	}
	if sb.Len() == 0 {
		return Token{Pos: start}, false
	}
	return Token{Text: sb.String(), Pos: start}, true
}

// terminates reports whether r ends a token outside quotes and parentheses.
func terminates(r rune) bool {
	switch r {
	case Dash, Slash, Backslash, Bar, BranchOpen, BranchClose:
		return true
	}
	return unicode.IsSpace(r)
}

// StartsToken reports whether a token can begin at a cell holding r.
func StartsToken(r rune) bool {
	if r == NoChar || r == BranchClose {
		return false
	}
	return r == BranchOpen || !terminates(r)
}

// MatchingClose scans right along the row from the [ at open and returns the
// position of its matching ]. Nested brackets and quoted text are skipped.
func (g *Grid) MatchingClose(open Position) (Position, bool) {
	if g.At(open) != BranchOpen {
		return open, false
	}
	depth := 0
	inQuote := false
	for x := open.X; x < g.width; x++ {
		r := g.Get(x, open.Y)
		switch {
		case r == Quote:
			inQuote = !inQuote
		case inQuote:
		case r == BranchOpen:
			depth++
		case r == BranchClose:
			depth--
			if depth == 0 {
				return Pos(x, open.Y), true
			}
		}
	}
	return open, false
}
