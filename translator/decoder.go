package translator

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/tliron/commonlog"

	"github.com/chazu/pipes/pkg/bytecode"
	"github.com/chazu/pipes/pkg/grid"
)

var log = commonlog.GetLogger("pipes.translator")

// Decoder reads pipe diagrams into bytecode. A Decoder holds only
// configuration; every Decode call builds its own grid and walkers, so one
// Decoder may be shared across goroutines.
type Decoder struct {
	options
}

// NewDecoder creates a decoder using the default dispatch table.
func NewDecoder(opts ...Option) *Decoder {
	return &Decoder{options: newOptions(opts)}
}

// Decode translates diagram text into bytecode. Blank text decodes to an
// empty bytecode; any other text must contain the source label.
func (d *Decoder) Decode(text string) (*bytecode.Bytecode, error) {
	g := grid.New(text)
	if g.Empty() {
		return bytecode.New(), nil
	}
	anchor, ok := FindAnchor(g, d.source)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrNoSourceAnchor, d.source)
	}
	s := &decodeState{Decoder: d, grid: g}
	return s.scan(anchor, true, nil)
}

// FindAnchor returns the first cell, in row-major order, where the source
// label stands on its own: blank or edge to its left, and a connector, blank
// or edge to its right. Labels inside quoted text are skipped.
func FindAnchor(g *grid.Grid, source string) (grid.Position, bool) {
	n := utf8.RuneCountInString(source)
	if n == 0 {
		return grid.Position{}, false
	}
	for y := 0; y < g.Height(); y++ {
		for x := 0; x+n <= g.Width(); x++ {
			p := grid.Pos(x, y)
			if !g.HasText(p, source) || !grid.IsBlank(g.Get(x-1, y)) || g.Quoted(p) {
				continue
			}
			switch next := g.Get(x+n, y); next {
			case grid.Dash, grid.Slash, grid.Backslash:
				return p, true
			default:
				if grid.IsBlank(next) {
					return p, true
				}
			}
		}
	}
	return grid.Position{}, false
}

// ---------------------------------------------------------------------------
// Decode state
// ---------------------------------------------------------------------------

type decodeState struct {
	*Decoder
	grid *grid.Grid
}

// loopMark is the pending repeat recorded by a [^ token.
type loopMark struct {
	open  grid.Position // the [ cell
	close grid.Position // its matching ]
}

// body is where the loop body scan starts: the cell after the ^.
func (m loopMark) body() grid.Position { return m.open.Offset(2, 0) }

// until is where the enclosing level resumes: one row and one column past
// the ^.
func (m loopMark) until() grid.Position { return m.open.Offset(2, 1) }

// scan decodes one level starting at start. With skip set, the token under
// start (the source label) is not decoded. With limit set, the level ends at
// the first token right of limit on its row.
func (s *decodeState) scan(start grid.Position, skip bool, limit *grid.Position) (*bytecode.Bytecode, error) {
	bc := bytecode.New()
	w := grid.NewWalker(s.grid, start)
	var pending *loopMark

	found := !skip && grid.StartsToken(w.Read())
	if !found {
		found = w.Advance()
	}
	for {
		if found {
			tok, ok := w.ReadToken()
			if ok && !beyond(tok.Pos, limit) {
				mark, err := s.step(bc, w, tok)
				if err != nil {
					return nil, err
				}
				if mark != nil {
					// The rest of the row belongs to the loop body.
					pending = mark
					found = false
					continue
				}
				found = w.Read() == grid.BranchOpen || w.Advance()
				continue
			}
		}

		if pending == nil {
			return bc, nil
		}
		mark := *pending
		pending = nil
		body, err := s.scan(mark.body(), false, &mark.close)
		if err != nil {
			return nil, err
		}
		bc.Add("repeat", body)

		// Nothing may follow the ] on its row: the level continues only on
		// the exit diagonal.
		w.MoveTo(mark.close)
		if w.Advance() && !beyond(w.Pos(), limit) {
			return nil, &StructuralError{Pos: w.Pos(), Reason: "traversal after a loop body must continue on its exit diagonal"}
		}

		// Without an exit diagonal the level ends with the loop; the cell
		// may belong to a sibling branch drawn below.
		if s.grid.Glyph(mark.until()) != grid.Backslash {
			return bc, nil
		}
		w.MoveTo(mark.until())
		found = w.Advance()
	}
}

func beyond(p grid.Position, limit *grid.Position) bool {
	return limit != nil && p.Y == limit.Y && p.X > limit.X
}

// step decodes one token, appending to bc. It returns a loop mark when the
// token opens a repeat body.
func (s *decodeState) step(bc *bytecode.Bytecode, w *grid.Walker, tok grid.Token) (*loopMark, error) {
	branchFollows := w.Read() == grid.BranchOpen
	rule, m := s.table.Match(tok.Text, branchFollows)
	if rule == nil {
		if tok.Text == string(grid.BranchOpen) {
			return nil, &StructuralError{Pos: tok.Pos, Reason: "branch opened without a branching operator"}
		}
		ins, err := fallbackInstruction(tok.Text)
		if err := s.argument(err, tok); err != nil {
			return nil, err
		}
		log.Debugf("no rule for %q at %s, decoded as %s", tok.Text, tok.Pos, ins)
		if s.onFallback != nil {
			s.onFallback(Fallback{Token: tok, Instruction: ins})
		}
		bc.Append(ins)
		return nil, nil
	}

	switch rule.Kind {
	case RuleLoop:
		closePos, ok := s.grid.MatchingClose(tok.Pos)
		if !ok {
			return nil, &StructuralError{Pos: tok.Pos, Reason: "loop body has no closing ]"}
		}
		return &loopMark{open: tok.Pos, close: closePos}, nil

	case RuleChildren:
		open := w.Pos()
		closePos, ok := s.grid.MatchingClose(open)
		if !ok {
			return nil, &StructuralError{Pos: open, Reason: fmt.Sprintf("%s branch has no closing ]", rule.Operator)}
		}
		for x := open.X + 1; x < closePos.X; x++ {
			if p := grid.Pos(x, open.Y); grid.StartsToken(s.grid.At(p)) {
				return nil, &StructuralError{Pos: p, Reason: fmt.Sprintf("%s branch steps must hang off the bracket, not sit inside it", rule.Operator)}
			}
		}
		kids, err := s.branches(open)
		if err != nil {
			return nil, err
		}
		bc.Add(rule.Operator, kids...)
		w.MoveTo(closePos)
		return nil, nil

	default:
		ins, err := rule.Decode(m)
		if err := s.argument(err, tok); err != nil {
			return nil, err
		}
		bc.Append(ins)
		return nil, nil
	}
}

// argument applies the argument-error policy: strict decoders fail, lenient
// ones keep the raw text and log.
func (s *decodeState) argument(err error, tok grid.Token) error {
	if err == nil {
		return nil
	}
	var ae *ArgumentError
	if !errors.As(err, &ae) {
		return err
	}
	pos := tok.Pos
	ae.Pos = &pos
	if s.strict {
		return ae
	}
	log.Debugf("%s; kept as string", ae)
	return nil
}

// branches discovers the child branches of the [ at open, in discovery
// order: vertical-up, upper-diagonal, lower-diagonal, vertical-down.
func (s *decodeState) branches(open grid.Position) ([]bytecode.Argument, error) {
	var starts []grid.Position

	if p, ok, err := s.rail(open, -1); err != nil {
		return nil, err
	} else if ok {
		starts = append(starts, p)
	}
	if p := open.Offset(1, -1); s.grid.Glyph(p) == grid.Slash {
		starts = append(starts, p)
	}
	if p := open.Offset(1, 1); s.grid.Glyph(p) == grid.Backslash {
		starts = append(starts, p)
	}
	if p, ok, err := s.rail(open, 1); err != nil {
		return nil, err
	} else if ok {
		starts = append(starts, p)
	}

	kids := make([]bytecode.Argument, 0, len(starts))
	for _, p := range starts {
		child, err := s.scan(p, false, nil)
		if err != nil {
			return nil, err
		}
		kids = append(kids, child)
	}
	return kids, nil
}

// rail follows a vertical branch from open in direction dy. The branch is
// either a corner glyph right next to the [ or a run of | ending in one.
func (s *decodeState) rail(open grid.Position, dy int) (grid.Position, bool, error) {
	corner := grid.Slash
	if dy > 0 {
		corner = grid.Backslash
	}
	p := open.Offset(0, dy)
	switch s.grid.Glyph(p) {
	case corner:
		return p, true, nil
	case grid.Bar:
		for s.grid.Glyph(p) == grid.Bar {
			p = p.Offset(0, dy)
		}
		if s.grid.Glyph(p) != corner {
			return p, false, &StructuralError{Pos: p, Reason: fmt.Sprintf("vertical branch must turn with %q", corner)}
		}
		return p, true, nil
	}
	return p, false, nil
}
