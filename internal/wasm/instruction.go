package wasm

import "github.com/ggreif/wasminspect/api"

// Opcode enumerates every instruction the executor dispatches (spec §4.3).
// The decoder (out of scope here) is responsible for producing a sequence
// of these from a binary module; the core never parses bytes itself.
type Opcode int

const (
	OpUnreachable Opcode = iota
	OpNop
	OpBlock
	OpLoop
	OpIf
	OpElse
	OpEnd
	OpBr
	OpBrIf
	OpBrTable
	OpReturn
	OpCall
	OpCallIndirect
	OpDrop
	OpSelect

	OpLocalGet
	OpLocalSet
	OpLocalTee
	OpGlobalGet
	OpGlobalSet

	OpI32Load
	OpI64Load
	OpF32Load
	OpF64Load
	OpI32Load8S
	OpI32Load8U
	OpI32Load16S
	OpI32Load16U
	OpI64Load8S
	OpI64Load8U
	OpI64Load16S
	OpI64Load16U
	OpI64Load32S
	OpI64Load32U

	OpI32Store
	OpI64Store
	OpF32Store
	OpF64Store
	OpI32Store8
	OpI32Store16
	OpI64Store8
	OpI64Store16
	OpI64Store32

	OpMemorySize
	OpMemoryGrow

	OpI32Const
	OpI64Const
	OpF32Const
	OpF64Const

	OpI32Eqz
	OpI32Eq
	OpI32Ne
	OpI32LtS
	OpI32LtU
	OpI32GtS
	OpI32GtU
	OpI32LeS
	OpI32LeU
	OpI32GeS
	OpI32GeU

	OpI64Eqz
	OpI64Eq
	OpI64Ne
	OpI64LtS
	OpI64LtU
	OpI64GtS
	OpI64GtU
	OpI64LeS
	OpI64LeU
	OpI64GeS
	OpI64GeU

	OpF32Eq
	OpF32Ne
	OpF32Lt
	OpF32Gt
	OpF32Le
	OpF32Ge

	OpF64Eq
	OpF64Ne
	OpF64Lt
	OpF64Gt
	OpF64Le
	OpF64Ge

	OpI32Clz
	OpI32Ctz
	OpI32Popcnt
	OpI32Add
	OpI32Sub
	OpI32Mul
	OpI32DivS
	OpI32DivU
	OpI32RemS
	OpI32RemU
	OpI32And
	OpI32Or
	OpI32Xor
	OpI32Shl
	OpI32ShrS
	OpI32ShrU
	OpI32Rotl
	OpI32Rotr

	OpI64Clz
	OpI64Ctz
	OpI64Popcnt
	OpI64Add
	OpI64Sub
	OpI64Mul
	OpI64DivS
	OpI64DivU
	OpI64RemS
	OpI64RemU
	OpI64And
	OpI64Or
	OpI64Xor
	OpI64Shl
	OpI64ShrS
	OpI64ShrU
	OpI64Rotl
	OpI64Rotr

	OpF32Abs
	OpF32Neg
	OpF32Ceil
	OpF32Floor
	OpF32Trunc
	OpF32Nearest
	OpF32Sqrt
	OpF32Add
	OpF32Sub
	OpF32Mul
	OpF32Div
	OpF32Min
	OpF32Max
	OpF32Copysign

	OpF64Abs
	OpF64Neg
	OpF64Ceil
	OpF64Floor
	OpF64Trunc
	OpF64Nearest
	OpF64Sqrt
	OpF64Add
	OpF64Sub
	OpF64Mul
	OpF64Div
	OpF64Min
	OpF64Max
	OpF64Copysign

	OpI32WrapI64
	OpI32TruncF32S
	OpI32TruncF32U
	OpI32TruncF64S
	OpI32TruncF64U
	OpI64ExtendI32S
	OpI64ExtendI32U
	OpI64TruncF32S
	OpI64TruncF32U
	OpI64TruncF64S
	OpI64TruncF64U
	OpF32ConvertI32S
	OpF32ConvertI32U
	OpF32ConvertI64S
	OpF32ConvertI64U
	OpF32DemoteF64
	OpF64ConvertI32S
	OpF64ConvertI32U
	OpF64ConvertI64S
	OpF64ConvertI64U
	OpF64PromoteF32

	OpI32ReinterpretF32
	OpI64ReinterpretF64
	OpF32ReinterpretI32
	OpF64ReinterpretI64
)

// BlockType is the arity of a structured control instruction's result:
// 0 for an empty block type, 1 for a single-value block type. Multi-value
// block results are out of scope (spec §1 Non-goals); a decoder producing
// one must have already rejected it during validation.
type BlockType struct {
	Arity uint32
}

// MemArg is the static offset immediate of a memory instruction; the
// dynamic base address always comes off the operand stack (spec §4.3).
type MemArg struct {
	Offset uint32
}

// Instruction is one decoded opcode plus whichever immediate it carries.
// Only the fields relevant to Opcode are populated; the executor never
// reads a field for an opcode that doesn't set it.
type Instruction struct {
	Opcode Opcode

	// Block, Loop, If
	BlockType BlockType

	// Br, BrIf
	RelativeDepth uint32

	// BrTable
	BrTable        []uint32
	BrTableDefault uint32

	// Call
	FunctionIndex uint32

	// CallIndirect
	TypeIndex  uint32
	TableIndex uint32

	// LocalGet/Set/Tee, GlobalGet/Set
	Index uint32

	// memory load/store
	MemArg MemArg

	// consts
	I32Value int32
	I64Value int64
	F32Bits  uint32
	F64Bits  uint64
}

// FunctionType is a function signature: its parameter and result value
// types. WebAssembly 1.0 allows at most one result (spec §1 Non-goals:
// multi-value is out of scope).
type FunctionType struct {
	Params  []api.ValueType
	Results []api.ValueType
}

func (t *FunctionType) String() string {
	if t == nil {
		return "()->()"
	}
	return valueTypesString(t.Params) + "->" + valueTypesString(t.Results)
}

func valueTypesString(ts []api.ValueType) string {
	s := "("
	for i, t := range ts {
		if i > 0 {
			s += ","
		}
		s += api.ValueTypeName(t)
	}
	return s + ")"
}

// Equal reports whether two function types have identical signatures,
// used by call_indirect to check a callee's type against the declared
// type at the call site (spec §4.3 CallIndirect).
func (t *FunctionType) Equal(o *FunctionType) bool {
	if t == nil || o == nil {
		return t == o
	}
	if len(t.Params) != len(o.Params) || len(t.Results) != len(o.Results) {
		return false
	}
	for i := range t.Params {
		if t.Params[i] != o.Params[i] {
			return false
		}
	}
	for i := range t.Results {
		if t.Results[i] != o.Results[i] {
			return false
		}
	}
	return true
}
