package bytecode

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// cborEncMode uses canonical mode so equal bytecodes encode to equal bytes.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("bytecode: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// ---------------------------------------------------------------------------
// Wire types shared by the CBOR and YAML codecs. Exactly one field of a
// wireArgument is set.
// ---------------------------------------------------------------------------

type wireBytecode struct {
	Steps []wireInstruction `cbor:"1,keyasint,omitempty" yaml:"steps"`
}

type wireInstruction struct {
	Operator  string         `cbor:"1,keyasint" yaml:"op"`
	Arguments []wireArgument `cbor:"2,keyasint,omitempty" yaml:"args,omitempty"`
}

type wireArgument struct {
	Integer   *int32         `cbor:"1,keyasint,omitempty" yaml:"int,omitempty"`
	Long      *int64         `cbor:"2,keyasint,omitempty" yaml:"long,omitempty"`
	Float     *float32       `cbor:"3,keyasint,omitempty" yaml:"float,omitempty"`
	Double    *float64       `cbor:"4,keyasint,omitempty" yaml:"double,omitempty"`
	Boolean   *bool          `cbor:"5,keyasint,omitempty" yaml:"bool,omitempty"`
	String    *string        `cbor:"6,keyasint,omitempty" yaml:"string,omitempty"`
	Enum      *string        `cbor:"7,keyasint,omitempty" yaml:"enum,omitempty"`
	Predicate *wirePredicate `cbor:"8,keyasint,omitempty" yaml:"predicate,omitempty"`
	Bytecode  *wireBytecode  `cbor:"9,keyasint,omitempty" yaml:"bytecode,omitempty"`
	Binding   *wireBinding   `cbor:"10,keyasint,omitempty" yaml:"binding,omitempty"`
}

type wirePredicate struct {
	Comparator string       `cbor:"1,keyasint" yaml:"op"`
	Value      wireArgument `cbor:"2,keyasint" yaml:"value"`
}

type wireBinding struct {
	Name  string       `cbor:"1,keyasint" yaml:"name"`
	Value wireArgument `cbor:"2,keyasint" yaml:"value"`
}

func toWire(b *Bytecode) (*wireBytecode, error) {
	w := &wireBytecode{}
	if b == nil {
		return w, nil
	}
	for i, ins := range b.Instructions {
		wi := wireInstruction{Operator: ins.Operator}
		for k, a := range ins.Arguments {
			wa, err := argumentToWire(a)
			if err != nil {
				return nil, fmt.Errorf("instruction %d (%s) argument %d: %w", i, ins.Operator, k, err)
			}
			wi.Arguments = append(wi.Arguments, wa)
		}
		w.Steps = append(w.Steps, wi)
	}
	return w, nil
}

func argumentToWire(a Argument) (wireArgument, error) {
	var w wireArgument
	switch v := a.(type) {
	case Integer:
		n := int32(v)
		w.Integer = &n
	case Long:
		n := int64(v)
		w.Long = &n
	case Float:
		f := float32(v)
		w.Float = &f
	case Double:
		f := float64(v)
		w.Double = &f
	case Boolean:
		bv := bool(v)
		w.Boolean = &bv
	case String:
		s := string(v)
		w.String = &s
	case Enum:
		s := string(v)
		w.Enum = &s
	case Predicate:
		if !v.Comparator.Valid() {
			return w, fmt.Errorf("invalid comparator %d", v.Comparator)
		}
		val, err := argumentToWire(v.Value)
		if err != nil {
			return w, fmt.Errorf("predicate operand: %w", err)
		}
		w.Predicate = &wirePredicate{Comparator: v.Comparator.String(), Value: val}
	case Binding:
		val, err := argumentToWire(v.Value)
		if err != nil {
			return w, fmt.Errorf("binding %s: %w", v.Name, err)
		}
		w.Binding = &wireBinding{Name: v.Name, Value: val}
	case *Bytecode:
		nested, err := toWire(v)
		if err != nil {
			return w, err
		}
		w.Bytecode = nested
	case nil:
		return w, fmt.Errorf("nil argument")
	default:
		return w, fmt.Errorf("unsupported argument type %T", a)
	}
	return w, nil
}

func fromWire(w *wireBytecode) (*Bytecode, error) {
	b := New()
	if w == nil {
		return b, nil
	}
	for i, wi := range w.Steps {
		if wi.Operator == "" {
			return nil, fmt.Errorf("instruction %d: missing operator", i)
		}
		ins := Instruction{Operator: wi.Operator}
		for k, wa := range wi.Arguments {
			a, err := argumentFromWire(wa)
			if err != nil {
				return nil, fmt.Errorf("instruction %d (%s) argument %d: %w", i, wi.Operator, k, err)
			}
			ins.Arguments = append(ins.Arguments, a)
		}
		b.Instructions = append(b.Instructions, ins)
	}
	return b, nil
}

func argumentFromWire(w wireArgument) (Argument, error) {
	var out []Argument
	if w.Integer != nil {
		out = append(out, Integer(*w.Integer))
	}
	if w.Long != nil {
		out = append(out, Long(*w.Long))
	}
	if w.Float != nil {
		out = append(out, Float(*w.Float))
	}
	if w.Double != nil {
		out = append(out, Double(*w.Double))
	}
	if w.Boolean != nil {
		out = append(out, Boolean(*w.Boolean))
	}
	if w.String != nil {
		out = append(out, String(*w.String))
	}
	if w.Enum != nil {
		out = append(out, Enum(*w.Enum))
	}
	if w.Predicate != nil {
		c, ok := ComparatorByName(w.Predicate.Comparator)
		if !ok {
			return nil, fmt.Errorf("unknown comparator %q", w.Predicate.Comparator)
		}
		val, err := argumentFromWire(w.Predicate.Value)
		if err != nil {
			return nil, fmt.Errorf("predicate operand: %w", err)
		}
		out = append(out, P(c, val))
	}
	if w.Bytecode != nil {
		nested, err := fromWire(w.Bytecode)
		if err != nil {
			return nil, err
		}
		out = append(out, nested)
	}
	if w.Binding != nil {
		val, err := argumentFromWire(w.Binding.Value)
		if err != nil {
			return nil, fmt.Errorf("binding %s: %w", w.Binding.Name, err)
		}
		out = append(out, Binding{Name: w.Binding.Name, Value: val})
	}
	switch len(out) {
	case 0:
		return nil, fmt.Errorf("empty argument")
	case 1:
		return out[0], nil
	default:
		return nil, fmt.Errorf("argument sets %d variants, want 1", len(out))
	}
}

// MarshalCBOR serializes a bytecode to canonical CBOR bytes.
func MarshalCBOR(b *Bytecode) ([]byte, error) {
	w, err := toWire(b)
	if err != nil {
		return nil, fmt.Errorf("bytecode: marshal: %w", err)
	}
	return cborEncMode.Marshal(w)
}

// UnmarshalCBOR deserializes a bytecode from CBOR bytes.
func UnmarshalCBOR(data []byte) (*Bytecode, error) {
	var w wireBytecode
	if err := cbor.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("bytecode: unmarshal: %w", err)
	}
	b, err := fromWire(&w)
	if err != nil {
		return nil, fmt.Errorf("bytecode: unmarshal: %w", err)
	}
	return b, nil
}
