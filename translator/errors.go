package translator

import (
	"errors"
	"fmt"

	"github.com/chazu/pipes/pkg/bytecode"
	"github.com/chazu/pipes/pkg/grid"
)

// ErrNoSourceAnchor is returned when non-empty diagram text does not contain
// the traversal source label.
var ErrNoSourceAnchor = errors.New("diagram does not have a traversal source")

// StructuralError reports malformed diagram geometry at a cell.
type StructuralError struct {
	Pos    grid.Position
	Reason string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("structural error at %s: %s", e.Pos, e.Reason)
}

// ArgumentError reports a literal that the argument grammar could not
// classify. Pos is the position of the token holding the literal, when known.
type ArgumentError struct {
	Literal string
	Reason  string
	Pos     *grid.Position
}

func (e *ArgumentError) Error() string {
	if e.Pos != nil {
		return fmt.Sprintf("malformed argument %q at %s: %s", e.Literal, *e.Pos, e.Reason)
	}
	return fmt.Sprintf("malformed argument %q: %s", e.Literal, e.Reason)
}

// CanvasOverflowError reports an encoder write outside a fixed canvas.
type CanvasOverflowError struct {
	Row, Col int
	Width    int
	Height   int
}

func (e *CanvasOverflowError) Error() string {
	return fmt.Sprintf("canvas overflow at row %d, column %d (canvas is %dx%d)", e.Row, e.Col, e.Width, e.Height)
}

// UnsupportedError reports an instruction the encoder cannot draw.
type UnsupportedError struct {
	Operator string
	Reason   string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("cannot encode %s: %s", e.Operator, e.Reason)
}

// Fallback describes a token decoded through the lenient operator-call
// path instead of a dispatch rule.
type Fallback struct {
	Token       grid.Token
	Instruction bytecode.Instruction
}

// ErrorPosition extracts the diagram position carried by a decode error.
func ErrorPosition(err error) (grid.Position, bool) {
	var se *StructuralError
	if errors.As(err, &se) {
		return se.Pos, true
	}
	var ae *ArgumentError
	if errors.As(err, &ae) && ae.Pos != nil {
		return *ae.Pos, true
	}
	return grid.Position{}, false
}
