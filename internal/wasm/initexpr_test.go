package wasm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEvalConstExprLiterals(t *testing.T) {
	s := NewStore()
	mi := newModuleInstance("main", false)

	v, err := evalConstExpr(s, mi, &Instruction{Opcode: OpI32Const, I32Value: -7})
	require.NoError(t, err)
	require.Equal(t, I32(-7), v)

	v, err = evalConstExpr(s, mi, &Instruction{Opcode: OpI64Const, I64Value: 42})
	require.NoError(t, err)
	require.Equal(t, I64(42), v)

	v, err = evalConstExpr(s, mi, &Instruction{Opcode: OpF32Const, F32Bits: F32(1.5).F32Bits()})
	require.NoError(t, err)
	require.Equal(t, float32(1.5), v.F32())

	v, err = evalConstExpr(s, mi, &Instruction{Opcode: OpF64Const, F64Bits: F64(2.5).F64Bits()})
	require.NoError(t, err)
	require.Equal(t, 2.5, v.F64())
}

func TestEvalConstExprImportedImmutableGlobal(t *testing.T) {
	s := NewStore()
	hostIdx := s.LoadHostModule("env", &HostModule{
		Globals: map[string]*GlobalInstance{"base": NewGlobalInstance(I32(9), false)},
	})
	hostMi, _ := s.Module(hostIdx)

	mi := newModuleInstance("main", false)
	s.register(mi)
	mi.GlobalAddrs = []int{hostMi.GlobalAddrs[0]}
	mi.ImportedGlobalCount = 1

	v, err := evalConstExpr(s, mi, &Instruction{Opcode: OpGlobalGet, Index: 0})
	require.NoError(t, err)
	require.Equal(t, I32(9), v)
}

func TestEvalConstExprPanicsOnMutableGlobal(t *testing.T) {
	s := NewStore()
	hostIdx := s.LoadHostModule("env", &HostModule{
		Globals: map[string]*GlobalInstance{"base": NewGlobalInstance(I32(9), true)},
	})
	hostMi, _ := s.Module(hostIdx)

	mi := newModuleInstance("main", false)
	s.register(mi)
	mi.GlobalAddrs = []int{hostMi.GlobalAddrs[0]}
	mi.ImportedGlobalCount = 1

	require.Panics(t, func() {
		_, _ = evalConstExpr(s, mi, &Instruction{Opcode: OpGlobalGet, Index: 0})
	})
}

func TestEvalConstExprPanicsOnNonImportedGlobal(t *testing.T) {
	s := NewStore()
	mi := newModuleInstance("main", false)
	mi.ImportedGlobalCount = 0

	require.Panics(t, func() {
		_, _ = evalConstExpr(s, mi, &Instruction{Opcode: OpGlobalGet, Index: 0})
	})
}

func TestEvalConstExprPanicsOnNonConstOpcode(t *testing.T) {
	s := NewStore()
	mi := newModuleInstance("main", false)

	require.Panics(t, func() {
		_, _ = evalConstExpr(s, mi, &Instruction{Opcode: OpNop})
	})
}
