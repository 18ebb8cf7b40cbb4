package bytecode

import "strings"

// Bytecode is an ordered sequence of traversal instructions. Order is
// execution order.
type Bytecode struct {
	Instructions []Instruction
}

// Instruction is a single traversal step: an operator and its arguments.
type Instruction struct {
	Operator  string
	Arguments []Argument
}

// New creates a bytecode holding the given instructions.
func New(instructions ...Instruction) *Bytecode {
	return &Bytecode{Instructions: instructions}
}

// NewInstruction creates an instruction.
func NewInstruction(op string, args ...Argument) Instruction {
	return Instruction{Operator: op, Arguments: args}
}

// Add appends an instruction and returns the receiver so calls can chain.
func (b *Bytecode) Add(op string, args ...Argument) *Bytecode {
	b.Instructions = append(b.Instructions, NewInstruction(op, args...))
	return b
}

// Append appends already-built instructions.
func (b *Bytecode) Append(instructions ...Instruction) *Bytecode {
	b.Instructions = append(b.Instructions, instructions...)
	return b
}

// Len returns the number of top-level instructions.
func (b *Bytecode) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Instructions)
}

// IsEmpty reports whether the bytecode has no instructions.
func (b *Bytecode) IsEmpty() bool {
	return b.Len() == 0
}

// Kind implements Argument so a bytecode can be nested as an argument.
func (b *Bytecode) Kind() Kind { return KindBytecode }

// Equal reports whether two bytecodes hold the same operators and arguments,
// recursively. A nil bytecode equals an empty one.
func (b *Bytecode) Equal(other *Bytecode) bool {
	if b.Len() != other.Len() {
		return false
	}
	for i := 0; i < b.Len(); i++ {
		if !b.Instructions[i].Equal(other.Instructions[i]) {
			return false
		}
	}
	return true
}

// String renders the bytecode as [op(args), ...].
func (b *Bytecode) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	if b != nil {
		for i, ins := range b.Instructions {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(ins.String())
		}
	}
	sb.WriteByte(']')
	return sb.String()
}

// Equal reports whether two instructions are structurally equal.
func (i Instruction) Equal(other Instruction) bool {
	if i.Operator != other.Operator || len(i.Arguments) != len(other.Arguments) {
		return false
	}
	for k := range i.Arguments {
		if !Equal(i.Arguments[k], other.Arguments[k]) {
			return false
		}
	}
	return true
}

// String renders the instruction as op(arg, arg).
func (i Instruction) String() string {
	var sb strings.Builder
	sb.WriteString(i.Operator)
	sb.WriteByte('(')
	for k, a := range i.Arguments {
		if k > 0 {
			sb.WriteString(", ")
		}
		if a == nil {
			sb.WriteString("<nil>")
			continue
		}
		sb.WriteString(a.String())
	}
	sb.WriteByte(')')
	return sb.String()
}

// Children returns the nested bytecode arguments of the instruction, in order.
func (i Instruction) Children() []*Bytecode {
	var out []*Bytecode
	for _, a := range i.Arguments {
		if bc, ok := a.(*Bytecode); ok {
			out = append(out, bc)
		}
	}
	return out
}
