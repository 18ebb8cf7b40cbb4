package bytecode

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
)

// ---------------------------------------------------------------------------
// Deterministic binary serialization for content hashing.
//
// Encoding conventions:
//   - First byte: HashVersion
//   - Integers: big-endian fixed-width
//   - Floats: IEEE 754 big-endian bits
//   - Strings: uint32 big-endian length + UTF-8 bytes
//   - Booleans: single byte (0/1)
//   - Nested bytecode: serialized inline
//
// IMPORTANT: tag bytes are FROZEN. Adding new tags is fine; changing
// existing ones breaks all previously computed hashes.
// ---------------------------------------------------------------------------

// HashVersion is the version prefix for the serialization format.
const HashVersion byte = 1

const (
	tagBytecode    byte = 0x01
	tagInstruction byte = 0x02
	tagInteger     byte = 0x10
	tagLong        byte = 0x11
	tagFloat       byte = 0x12
	tagDouble      byte = 0x13
	tagBoolean     byte = 0x14
	tagString      byte = 0x15
	tagEnum        byte = 0x16
	tagPredicate   byte = 0x17
	tagBinding     byte = 0x18
	tagNil         byte = 0x1F
)

// Hash returns the SHA-256 content hash of the bytecode. Structurally equal
// bytecodes hash identically.
func (b *Bytecode) Hash() [32]byte {
	s := &serializer{buf: make([]byte, 0, 256)}
	s.writeByte(HashVersion)
	s.serializeBytecode(b)
	return sha256.Sum256(s.buf)
}

// HashString returns the hex-encoded content hash.
func (b *Bytecode) HashString() string {
	h := b.Hash()
	return hex.EncodeToString(h[:])
}

type serializer struct {
	buf []byte
}

func (s *serializer) writeByte(v byte) {
	s.buf = append(s.buf, v)
}

func (s *serializer) writeUint32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	s.buf = append(s.buf, b[:]...)
}

func (s *serializer) writeInt64(v int64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	s.buf = append(s.buf, b[:]...)
}

func (s *serializer) writeString(v string) {
	s.writeUint32(uint32(len(v)))
	s.buf = append(s.buf, v...)
}

func (s *serializer) serializeBytecode(b *Bytecode) {
	s.writeByte(tagBytecode)
	s.writeUint32(uint32(b.Len()))
	if b == nil {
		return
	}
	for _, ins := range b.Instructions {
		s.writeByte(tagInstruction)
		s.writeString(ins.Operator)
		s.writeUint32(uint32(len(ins.Arguments)))
		for _, a := range ins.Arguments {
			s.serializeArgument(a)
		}
	}
}

func (s *serializer) serializeArgument(a Argument) {
	switch v := a.(type) {
	case nil:
		s.writeByte(tagNil)
	case Integer:
		s.writeByte(tagInteger)
		s.writeUint32(uint32(v))
	case Long:
		s.writeByte(tagLong)
		s.writeInt64(int64(v))
	case Float:
		// -0 and +0 compare equal, so they must hash alike.
		if v == 0 {
			v = 0
		}
		s.writeByte(tagFloat)
		s.writeUint32(math.Float32bits(float32(v)))
	case Double:
		if v == 0 {
			v = 0
		}
		s.writeByte(tagDouble)
		s.writeInt64(int64(math.Float64bits(float64(v))))
	case Boolean:
		s.writeByte(tagBoolean)
		if v {
			s.writeByte(1)
		} else {
			s.writeByte(0)
		}
	case String:
		s.writeByte(tagString)
		s.writeString(string(v))
	case Enum:
		s.writeByte(tagEnum)
		s.writeString(string(v))
	case Predicate:
		s.writeByte(tagPredicate)
		s.writeByte(byte(v.Comparator))
		s.serializeArgument(v.Value)
	case Binding:
		s.writeByte(tagBinding)
		s.writeString(v.Name)
		s.serializeArgument(v.Value)
	case *Bytecode:
		s.serializeBytecode(v)
	}
}
