package bytecode

import (
	"fmt"
	"strconv"
)

// Kind identifies the variant of an Argument.
type Kind uint8

const (
	KindInteger Kind = iota + 1
	KindLong
	KindFloat
	KindDouble
	KindBoolean
	KindString
	KindEnum
	KindPredicate
	KindBytecode
	KindBinding
)

var kindNames = [...]string{
	KindInteger:   "int",
	KindLong:      "long",
	KindFloat:     "float",
	KindDouble:    "double",
	KindBoolean:   "bool",
	KindString:    "string",
	KindEnum:      "enum",
	KindPredicate: "predicate",
	KindBytecode:  "bytecode",
	KindBinding:   "binding",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Argument is one positional argument of an instruction. The set of
// implementations is closed: Integer, Long, Float, Double, Boolean, String,
// Enum, Predicate, *Bytecode and Binding.
type Argument interface {
	Kind() Kind
	String() string
}

// Integer is a 32-bit integer literal.
type Integer int32

// Long is a 64-bit integer literal.
type Long int64

// Float is a 32-bit floating point literal.
type Float float32

// Double is a 64-bit floating point literal.
type Double float64

// Boolean is a boolean literal.
type Boolean bool

// String is a text literal or a bare identifier (step label, property key).
type String string

// Enum is a symbolic token such as `id or `decr.
type Enum string

// Predicate applies a comparator to an operand.
type Predicate struct {
	Comparator Comparator
	Value      Argument
}

// Binding is a named variable with its resolved value.
type Binding struct {
	Name  string
	Value Argument
}

// P builds a predicate.
func P(c Comparator, value Argument) Predicate {
	return Predicate{Comparator: c, Value: value}
}

func (Integer) Kind() Kind   { return KindInteger }
func (Long) Kind() Kind      { return KindLong }
func (Float) Kind() Kind     { return KindFloat }
func (Double) Kind() Kind    { return KindDouble }
func (Boolean) Kind() Kind   { return KindBoolean }
func (String) Kind() Kind    { return KindString }
func (Enum) Kind() Kind      { return KindEnum }
func (Predicate) Kind() Kind { return KindPredicate }
func (Binding) Kind() Kind   { return KindBinding }

func (v Integer) String() string { return strconv.FormatInt(int64(v), 10) }
func (v Long) String() string    { return strconv.FormatInt(int64(v), 10) + "l" }
func (v Float) String() string   { return strconv.FormatFloat(float64(v), 'g', -1, 32) + "f" }
func (v Double) String() string  { return strconv.FormatFloat(float64(v), 'g', -1, 64) + "d" }
func (v Boolean) String() string { return strconv.FormatBool(bool(v)) }
func (v String) String() string  { return string(v) }
func (v Enum) String() string    { return "`" + string(v) }

func (p Predicate) String() string {
	if p.Value == nil {
		return p.Comparator.String() + "()"
	}
	return p.Comparator.String() + "(" + p.Value.String() + ")"
}

func (b Binding) String() string {
	if b.Value == nil {
		return "binding[" + b.Name + "]"
	}
	return "binding[" + b.Name + "=" + b.Value.String() + "]"
}

// Resolve unwraps bindings until a concrete value remains.
func Resolve(a Argument) Argument {
	for {
		b, ok := a.(Binding)
		if !ok {
			return a
		}
		a = b.Value
	}
}

// Equal reports whether two arguments are structurally equal. Variants never
// compare equal across kinds: Integer(1) and Long(1) differ.
func Equal(a, b Argument) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch x := a.(type) {
	case Predicate:
		y := b.(Predicate)
		return x.Comparator == y.Comparator && Equal(x.Value, y.Value)
	case Binding:
		y := b.(Binding)
		return x.Name == y.Name && Equal(x.Value, y.Value)
	case *Bytecode:
		return x.Equal(b.(*Bytecode))
	default:
		return a == b
	}
}
