// Package bytecode defines the traversal instruction model shared by the
// pipe-diagram decoder and encoder.
//
// A Bytecode is an ordered list of Instructions. Each Instruction names an
// operator and carries positional Arguments. Arguments form a closed set of
// variants:
//
//   - Integer, Long, Float, Double: numeric literals (32/64-bit)
//   - Boolean, String: scalar literals
//   - Enum: a symbolic token such as `id or `decr
//   - Predicate: a comparator applied to an operand, P(gt, 25)
//   - *Bytecode: a nested instruction sequence (branches, loop bodies)
//   - Binding: a named variable resolved to a value
//
// # Representations
//
// Besides the in-memory form, a Bytecode can be:
//
//   - printed as [out(), in(created,knows)] via String
//   - listed instruction-by-instruction via Disassemble
//   - hashed into a stable content address via Hash
//   - serialized to canonical CBOR via MarshalCBOR / UnmarshalCBOR
//   - written as an editable YAML document via MarshalYAML / UnmarshalYAML
//
// Equality is structural and recursive (see Equal). Two bytecodes that are
// Equal always have the same Hash.
package bytecode
