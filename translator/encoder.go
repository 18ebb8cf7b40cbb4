package translator

import (
	"fmt"
	"unicode/utf8"

	"github.com/chazu/pipes/pkg/bytecode"
	"github.com/chazu/pipes/pkg/grid"
)

// Encoder draws bytecode as pipe diagrams. Like Decoder it holds only
// configuration and may be shared.
type Encoder struct {
	options
}

// NewEncoder creates an encoder. The canvas grows on demand unless
// WithCanvas fixes its size.
func NewEncoder(opts ...Option) *Encoder {
	return &Encoder{options: newOptions(opts)}
}

// Encode renders b. The source label sits at column 0 of the main row,
// which is pushed down by as many rows as upward branches need. The finished
// diagram is decoded again and rejected unless it reads back as b.
func (e *Encoder) Encode(b *bytecode.Bytecode) (string, error) {
	var steps []bytecode.Instruction
	if b != nil {
		steps = b.Instructions
	}
	lay, err := e.layoutSeq(steps)
	if err != nil {
		return "", err
	}

	c := newCanvas(e.width, e.height)
	row := lay.ext.above
	c.write(0, row, e.source)
	e.drawSeq(c, lay, utf8.RuneCountInString(e.source), row)
	if c.err != nil {
		return "", c.err
	}
	out := c.String()
	if err := e.readsBack(out, b); err != nil {
		return "", err
	}
	return out, nil
}

// readsBack decodes a finished diagram with the encoder's own settings.
// Glyphs of neighbouring blocks can combine into structure that no single
// token check sees.
func (e *Encoder) readsBack(diagram string, want *bytecode.Bytecode) error {
	opts := e.options
	opts.onFallback = nil
	got, err := (&Decoder{options: opts}).Decode(diagram)
	if err != nil {
		return &UnsupportedError{Operator: "diagram", Reason: fmt.Sprintf("drawing does not decode: %v", err)}
	}
	if want = resolveBytecode(want); !got.Equal(want) {
		return &UnsupportedError{Operator: "diagram", Reason: fmt.Sprintf("drawing reads back as %s, want %s", got, want)}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Layout
//
// Layout is measured before anything is drawn. Every sequence and step
// reports how many rows it needs above and below its main row and how many
// columns it spans, so sibling blocks can be placed without overlapping.
// Coordinates inside a layout are relative: column 0 is the sequence's
// leading dash (or the step's first glyph), row 0 is its main row.
// ---------------------------------------------------------------------------

type extent struct {
	above, below, width int
}

func (x *extent) cover(above, below int) {
	x.above = max(x.above, above)
	x.below = max(x.below, below)
}

// seqLayout is a run of steps, optionally ended by a repeat whose
// continuation (rest) resumes below the loop body.
type seqLayout struct {
	head []*stepLayout
	body *seqLayout
	rest *seqLayout
	ext  extent
}

func (s *seqLayout) empty() bool {
	return len(s.head) == 0 && s.body == nil
}

type direction uint8

const (
	upRail direction = iota
	upDiagonal
	downDiagonal
	downRail
)

// branchDirections assigns directions to n children so that decoding
// discovers them in their original order.
var branchDirections = [][]direction{
	1: {downDiagonal},
	2: {downDiagonal, downRail},
	3: {upDiagonal, downDiagonal, downRail},
	4: {upRail, upDiagonal, downDiagonal, downRail},
}

type childLayout struct {
	dir  direction
	seq  *seqLayout
	row  int // main row of the child, relative to the parent row
	col  int // column of the child's leading dash, relative to the sigil
	span int // diagonal length, or row distance to the rail corner
}

type stepLayout struct {
	text     string
	branches []childLayout
	open     int // column of [ relative to the step start
	close    int // column of ]
	ext      extent
}

func isLoop(ins bytecode.Instruction) (*bytecode.Bytecode, bool) {
	if ins.Operator != "repeat" || len(ins.Arguments) != 1 {
		return nil, false
	}
	body, ok := bytecode.Resolve(ins.Arguments[0]).(*bytecode.Bytecode)
	return body, ok
}

func (e *Encoder) layoutSeq(steps []bytecode.Instruction) (*seqLayout, error) {
	s := &seqLayout{}
	x := 0
	for i, ins := range steps {
		if body, ok := isLoop(ins); ok {
			return s, e.layoutLoop(s, x, body, steps[i+1:])
		}
		st, err := e.layoutStep(ins)
		if err != nil {
			return nil, err
		}
		s.head = append(s.head, st)
		s.ext.cover(st.ext.above, st.ext.below)
		x += 1 + st.ext.width
	}
	s.ext.width = x
	return s, nil
}

// layoutLoop places [^ at column x+1. The body follows after enough dashes
// to clear the exit diagonal, which starts one row down and one column right
// of the ^ and descends until the continuation clears the body.
func (e *Encoder) layoutLoop(s *seqLayout, x int, body *bytecode.Bytecode, rest []bytecode.Instruction) error {
	var err error
	if s.body, err = e.layoutSeq(body.Instructions); err != nil {
		return err
	}
	if s.rest, err = e.layoutSeq(rest); err != nil {
		return err
	}

	open := x + 1
	bodyStart := open + 2 + s.body.ext.below
	closeCol := bodyStart + s.body.ext.width + 1
	s.ext.cover(s.body.ext.above, s.body.ext.below)
	s.ext.width = closeCol + 1

	if !s.rest.empty() {
		k := loopExit(s)
		s.ext.cover(0, k+s.rest.ext.below)
		s.ext.width = max(s.ext.width, open+2+k+s.rest.ext.width)
	}
	return nil
}

// loopExit is the length of the exit diagonal of the loop ending s.
func loopExit(s *seqLayout) int {
	return s.body.ext.below + s.rest.ext.above + 1
}

func (e *Encoder) layoutStep(ins bytecode.Instruction) (*stepLayout, error) {
	if rule, ok := e.table.Sigil(ins.Operator); ok {
		if kids, ok := childBytecodes(ins); ok {
			return e.layoutChildren(ins, rule, kids)
		}
	}
	for _, a := range ins.Arguments {
		if _, nested := bytecode.Resolve(a).(*bytecode.Bytecode); nested {
			return nil, &UnsupportedError{Operator: ins.Operator, Reason: "nested bytecode is only drawn under branching operators and repeat"}
		}
	}
	text, err := e.renderStep(ins)
	if err != nil {
		return nil, err
	}
	return &stepLayout{text: text, ext: extent{width: utf8.RuneCountInString(text)}}, nil
}

func childBytecodes(ins bytecode.Instruction) ([]*bytecode.Bytecode, bool) {
	kids := make([]*bytecode.Bytecode, 0, len(ins.Arguments))
	for _, a := range ins.Arguments {
		bc, ok := bytecode.Resolve(a).(*bytecode.Bytecode)
		if !ok {
			return nil, false
		}
		kids = append(kids, bc)
	}
	return kids, true
}

func (e *Encoder) layoutChildren(ins bytecode.Instruction, rule *Rule, kids []*bytecode.Bytecode) (*stepLayout, error) {
	if len(kids) >= len(branchDirections) {
		return nil, &UnsupportedError{
			Operator: ins.Operator,
			Reason:   fmt.Sprintf("%d branches, at most %d can be drawn", len(kids), len(branchDirections)-1),
		}
	}
	sigil, _ := rule.Render(ins)
	b := utf8.RuneCountInString(sigil)
	st := &stepLayout{text: sigil, open: b}

	seqs := make([]*seqLayout, len(kids))
	for i, kid := range kids {
		seq, err := e.layoutSeq(kid.Instructions)
		if err != nil {
			return nil, fmt.Errorf("%s branch %d: %w", ins.Operator, i, err)
		}
		seqs[i] = seq
	}

	var dirs []direction
	if len(kids) > 0 {
		dirs = branchDirections[len(kids)]
	}
	byDir := map[direction]*seqLayout{}
	for i, d := range dirs {
		byDir[d] = seqs[i]
	}

	// Rows are allocated outward from the main row: diagonals first, then
	// rails beyond them.
	top, bottom, right := 0, 0, b
	place := make(map[direction]childLayout, len(dirs))
	if seq, ok := byDir[upDiagonal]; ok {
		span := seq.ext.below + 1
		ch := childLayout{dir: upDiagonal, seq: seq, row: -span, col: b + span + 1, span: span}
		place[upDiagonal] = ch
		top = ch.row - seq.ext.above
		right = max(right, b+span+seq.ext.width)
	}
	if seq, ok := byDir[upRail]; ok {
		row := top - 1 - seq.ext.below
		place[upRail] = childLayout{dir: upRail, seq: seq, row: row, col: b + 1, span: -row}
		top = row - seq.ext.above
		right = max(right, b+seq.ext.width)
	}
	if seq, ok := byDir[downDiagonal]; ok {
		span := seq.ext.above + 1
		ch := childLayout{dir: downDiagonal, seq: seq, row: span, col: b + span + 1, span: span}
		place[downDiagonal] = ch
		bottom = ch.row + seq.ext.below
		right = max(right, b+span+seq.ext.width)
	}
	if seq, ok := byDir[downRail]; ok {
		row := bottom + 1 + seq.ext.above
		place[downRail] = childLayout{dir: downRail, seq: seq, row: row, col: b + 1, span: row}
		bottom = row + seq.ext.below
		right = max(right, b+seq.ext.width)
	}
	for _, d := range dirs {
		st.branches = append(st.branches, place[d])
	}

	st.close = right + 1
	st.ext = extent{above: -top, below: bottom, width: st.close + 1}
	return st, nil
}

// renderStep writes a single-token instruction. Each candidate rendering is
// read back through the walker and the dispatch table; the first one that
// decodes to the same instruction wins.
func (e *Encoder) renderStep(ins bytecode.Instruction) (string, error) {
	want := resolveInstruction(ins)
	for _, rule := range e.table.Renderers(ins.Operator) {
		text, ok := rule.Render(ins)
		if !ok {
			continue
		}
		if e.survives(text, want) {
			return text, nil
		}
	}

	reason := "no glyph form reads back as the same instruction"
	if _, err := FormatArguments(ins.Arguments); err != nil {
		reason = err.Error()
	} else if !callName.MatchString(ins.Operator) {
		reason = "operator name is not an identifier"
	}
	return "", &UnsupportedError{Operator: ins.Operator, Reason: reason}
}

func (e *Encoder) survives(text string, want bytecode.Instruction) bool {
	w := grid.NewWalker(grid.New("-"+text+"-"), grid.Pos(1, 0))
	tok, ok := w.ReadToken()
	if !ok || tok.Text != text {
		return false
	}
	rule, m := e.table.Match(text, false)
	if rule == nil || rule.Kind != RuleStep {
		return false
	}
	got, err := rule.Decode(m)
	return err == nil && got.Equal(want)
}

// resolveInstruction replaces bindings with their values, as the diagram
// has no syntax for them.
func resolveInstruction(ins bytecode.Instruction) bytecode.Instruction {
	out := bytecode.Instruction{Operator: ins.Operator}
	for _, a := range ins.Arguments {
		out.Arguments = append(out.Arguments, resolveArgument(a))
	}
	return out
}

func resolveArgument(a bytecode.Argument) bytecode.Argument {
	switch v := bytecode.Resolve(a).(type) {
	case bytecode.Predicate:
		return bytecode.P(v.Comparator, resolveArgument(v.Value))
	case *bytecode.Bytecode:
		return resolveBytecode(v)
	default:
		return v
	}
}

func resolveBytecode(b *bytecode.Bytecode) *bytecode.Bytecode {
	out := bytecode.New()
	if b == nil {
		return out
	}
	for _, ins := range b.Instructions {
		out.Append(resolveInstruction(ins))
	}
	return out
}

// ---------------------------------------------------------------------------
// Drawing
// ---------------------------------------------------------------------------

func (e *Encoder) drawSeq(c *canvas, s *seqLayout, x, y int) {
	for _, st := range s.head {
		c.put(x, y, grid.Dash)
		e.drawStep(c, st, x+1, y)
		x += 1 + st.ext.width
	}
	if s.body == nil {
		return
	}

	c.put(x, y, grid.Dash)
	open := x + 1
	c.write(open, y, grid.LoopOpen)
	for i := 0; i < s.body.ext.below; i++ {
		c.put(open+2+i, y, grid.Dash)
	}
	bodyStart := open + 2 + s.body.ext.below
	e.drawSeq(c, s.body, bodyStart, y)
	closeCol := bodyStart + s.body.ext.width + 1
	c.put(closeCol-1, y, grid.Dash)
	c.put(closeCol, y, grid.BranchClose)

	if s.rest.empty() {
		return
	}
	k := loopExit(s)
	for i := 0; i < k; i++ {
		c.put(open+2+i, y+1+i, grid.Backslash)
	}
	e.drawSeq(c, s.rest, open+2+k, y+k)
}

func (e *Encoder) drawStep(c *canvas, st *stepLayout, x, y int) {
	c.write(x, y, st.text)
	if st.close == 0 {
		return
	}

	b := x + st.open
	c.put(b, y, grid.BranchOpen)
	for _, ch := range st.branches {
		switch ch.dir {
		case upDiagonal:
			for j := 0; j < ch.span; j++ {
				c.put(b+1+j, y-1-j, grid.Slash)
			}
		case downDiagonal:
			for j := 0; j < ch.span; j++ {
				c.put(b+1+j, y+1+j, grid.Backslash)
			}
		case upRail:
			for j := 1; j < ch.span; j++ {
				c.put(b, y-j, grid.Bar)
			}
			c.put(b, y+ch.row, grid.Slash)
		case downRail:
			for j := 1; j < ch.span; j++ {
				c.put(b, y+j, grid.Bar)
			}
			c.put(b, y+ch.row, grid.Backslash)
		}
		e.drawSeq(c, ch.seq, x+ch.col, y+ch.row)
	}
	c.put(x+st.close, y, grid.BranchClose)
}
