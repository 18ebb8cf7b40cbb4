// Package translator converts traversal bytecode to and from pipe diagrams.
//
// A pipe diagram lays a traversal out on a character grid. The traversal
// source label (usually g) anchors the main row; steps follow it joined by
// dashes:
//
//	g-~~>-<~created,knows~-~name-}$
//
// is out(), in(created, knows), values(name), count(). Branching operators
// open a bracket whose children hang off it diagonally or on vertical rails:
//
//	g-U[     ]
//	   |\-~~>
//	   \-<~~
//
// is union([out()], [in()]). A repeat body is written between [^ and ], and
// the traversal continues on the diagonal that leaves from below the ^:
//
//	g-[^-~~>-]
//	    \-x2
//
// is repeat([out()]), times(2).
//
// Decoding classifies each token against an ordered dispatch Table; the
// first matching rule wins. Encoding uses the same table in reverse, checks
// that every token it writes reads back as the instruction it came from, and
// decodes the finished diagram once more, so decode(encode(b)) equals b (with
// bindings resolved) for every bytecode Encode accepts.
//
// Glyphs inside quoted text never count as pipes, brackets or the source
// label.
package translator

import (
	"strings"

	"github.com/chazu/pipes/pkg/bytecode"
)

// Decode reads diagram text with a decoder built from opts.
func Decode(text string, opts ...Option) (*bytecode.Bytecode, error) {
	return NewDecoder(opts...).Decode(text)
}

// Encode draws b with an encoder built from opts.
func Encode(b *bytecode.Bytecode, opts ...Option) (string, error) {
	return NewEncoder(opts...).Encode(b)
}

// Format decodes a diagram and draws it again in canonical layout. The
// result ends with exactly one newline.
func Format(text string, opts ...Option) (string, error) {
	b, err := Decode(text, opts...)
	if err != nil {
		return "", err
	}
	out, err := Encode(b, opts...)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(out, "\n") + "\n", nil
}
