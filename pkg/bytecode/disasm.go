package bytecode

import (
	"fmt"
	"strings"
)

// Disassemble returns a human-readable listing of the bytecode.
func (b *Bytecode) Disassemble() string {
	return b.DisassembleWithName("")
}

// DisassembleWithName returns a human-readable listing with a name header.
func (b *Bytecode) DisassembleWithName(name string) string {
	var sb strings.Builder

	// Header
	if name != "" {
		sb.WriteString(fmt.Sprintf("; === %s ===\n", name))
	}
	sb.WriteString(fmt.Sprintf("; Traversal Bytecode v%d\n", HashVersion))
	sb.WriteString(fmt.Sprintf("; Instructions: %d (%d nested)\n", b.Len(), b.countNested()))
	sb.WriteString(fmt.Sprintf("; Hash: %s\n", b.HashString()))
	sb.WriteString("\n")

	disassembleInto(&sb, b, "")
	return sb.String()
}

func disassembleInto(sb *strings.Builder, b *Bytecode, indent string) {
	if b == nil {
		return
	}
	for i, ins := range b.Instructions {
		var args []string
		var nested []*Bytecode
		for _, a := range ins.Arguments {
			if bc, ok := a.(*Bytecode); ok {
				args = append(args, fmt.Sprintf("<bytecode #%d>", len(nested)))
				nested = append(nested, bc)
				continue
			}
			args = append(args, formatOperand(a))
		}
		line := ins.Operator
		if len(args) > 0 {
			line = fmt.Sprintf("%-12s %s", ins.Operator, strings.Join(args, ", "))
		}
		sb.WriteString(fmt.Sprintf("%s%04X  %s\n", indent, i, line))

		for n, child := range nested {
			sb.WriteString(fmt.Sprintf("%s      ; bytecode #%d (%d instructions)\n", indent, n, child.Len()))
			disassembleInto(sb, child, indent+"      ")
		}
	}
}

// formatOperand renders an argument with its kind made explicit.
func formatOperand(a Argument) string {
	switch v := a.(type) {
	case nil:
		return "<nil>"
	case String:
		display := string(v)
		// Truncate long strings for readability
		if len(display) > 40 {
			display = display[:37] + "..."
		}
		return fmt.Sprintf("%q", display)
	case Predicate:
		return fmt.Sprintf("P(%s, %s)", v.Comparator, formatOperand(v.Value))
	case Binding:
		return fmt.Sprintf("%s=%s", v.Name, formatOperand(v.Value))
	default:
		return a.String()
	}
}

func (b *Bytecode) countNested() int {
	if b == nil {
		return 0
	}
	n := 0
	for _, ins := range b.Instructions {
		for _, child := range ins.Children() {
			n += child.Len() + child.countNested()
		}
	}
	return n
}
