package wasm

import (
	"fmt"
	"math"

	"github.com/ggreif/wasminspect/api"
)

// Value is a tagged union over the four WebAssembly 1.0 numeric types.
// Floats are stored as their raw bit pattern rather than as a Go float so
// that NaN payloads survive being pushed and popped from the stack
// unmodified.
type Value struct {
	Type api.ValueType
	bits uint64
}

// I32 constructs an i32 value.
func I32(v int32) Value { return Value{Type: api.ValueTypeI32, bits: uint64(uint32(v))} }

// I64 constructs an i64 value.
func I64(v int64) Value { return Value{Type: api.ValueTypeI64, bits: uint64(v)} }

// U32 constructs an i32 value from its unsigned representation.
func U32(v uint32) Value { return Value{Type: api.ValueTypeI32, bits: uint64(v)} }

// U64 constructs an i64 value from its unsigned representation.
func U64(v uint64) Value { return Value{Type: api.ValueTypeI64, bits: v} }

// F32 constructs an f32 value from a Go float32.
func F32(v float32) Value { return Value{Type: api.ValueTypeF32, bits: uint64(math.Float32bits(v))} }

// F32FromBits constructs an f32 value from its raw 32-bit pattern, which
// preserves NaN payload bits that a float32 round trip might canonicalize.
func F32FromBits(bits uint32) Value { return Value{Type: api.ValueTypeF32, bits: uint64(bits)} }

// F64 constructs an f64 value from a Go float64.
func F64(v float64) Value { return Value{Type: api.ValueTypeF64, bits: math.Float64bits(v)} }

// F64FromBits constructs an f64 value from its raw 64-bit pattern.
func F64FromBits(bits uint64) Value { return Value{Type: api.ValueTypeF64, bits: bits} }

// I32 returns the value as a signed 32-bit integer. Only valid when
// Type == api.ValueTypeI32.
func (v Value) I32() int32 { return int32(uint32(v.bits)) }

// U32 returns the value as an unsigned 32-bit integer.
func (v Value) U32() uint32 { return uint32(v.bits) }

// I64 returns the value as a signed 64-bit integer. Only valid when
// Type == api.ValueTypeI64.
func (v Value) I64() int64 { return int64(v.bits) }

// U64 returns the value as an unsigned 64-bit integer.
func (v Value) U64() uint64 { return v.bits }

// F32Bits returns the raw 32-bit pattern of an f32 value.
func (v Value) F32Bits() uint32 { return uint32(v.bits) }

// F32 returns the value decoded as a Go float32. Only valid when
// Type == api.ValueTypeF32.
func (v Value) F32() float32 { return math.Float32frombits(v.F32Bits()) }

// F64Bits returns the raw 64-bit pattern of an f64 value.
func (v Value) F64Bits() uint64 { return v.bits }

// F64 returns the value decoded as a Go float64. Only valid when
// Type == api.ValueTypeF64.
func (v Value) F64() float64 { return math.Float64frombits(v.bits) }

// IsI32Zero reports whether v is the i32 value 0, as used by instructions
// that treat an i32 as a boolean condition (br_if, if, select).
func (v Value) IsI32Zero() bool { return v.Type == api.ValueTypeI32 && v.bits == 0 }

func (v Value) String() string {
	switch v.Type {
	case api.ValueTypeI32:
		return fmt.Sprintf("i32:%d", v.I32())
	case api.ValueTypeI64:
		return fmt.Sprintf("i64:%d", v.I64())
	case api.ValueTypeF32:
		return fmt.Sprintf("f32:%v", v.F32())
	case api.ValueTypeF64:
		return fmt.Sprintf("f64:%v", v.F64())
	default:
		return fmt.Sprintf("value(unknown type %#x)", v.Type)
	}
}
